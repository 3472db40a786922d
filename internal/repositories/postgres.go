package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videoportal/backend/internal/db"
	"github.com/videoportal/backend/internal/models"
)

const (
	txMaxAttempts = 5
	txBaseBackoff = 10 * time.Millisecond
	txMaxBackoff  = 500 * time.Millisecond
)

func txBackoff(attempt int) time.Duration {
	backoff := txBaseBackoff << (attempt - 1)
	if backoff > txMaxBackoff || backoff <= 0 {
		return txMaxBackoff
	}
	return backoff
}

const userColumns = `id, email, password_hash, COALESCE(phone_number, ''), is_admin, is_approved, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, phone_number, is_admin, is_approved, created_at, updated_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
    `, user.ID, user.Email, user.PasswordHash, user.PhoneNumber, user.IsAdmin, user.IsApproved, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if errors.Is(classify(err), ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// ListByStatus returns users in the given lifecycle state ordered by registration time.
func (r *PostgresUserRepository) ListByStatus(ctx context.Context, status string) ([]models.User, error) {
	var filter string
	switch status {
	case models.UserStatusPending:
		filter = `is_approved = FALSE AND is_admin = FALSE`
	case models.UserStatusApproved:
		filter = `is_approved = TRUE AND is_admin = FALSE`
	case models.UserStatusAdmin:
		filter = `is_admin = TRUE`
	default:
		return nil, fmt.Errorf("unknown user status %q", status)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+filter+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// SetApproved marks a user as approved. Approving an approved user succeeds.
func (r *PostgresUserRepository) SetApproved(ctx context.Context, id string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET is_approved = TRUE, updated_at = $2
        WHERE id = $1
    `, id, at)
	if err != nil {
		return fmt.Errorf("approve user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ToggleAdmin flips the admin flag in place and returns the updated record.
func (r *PostgresUserRepository) ToggleAdmin(ctx context.Context, id string, at time.Time) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET is_admin = NOT is_admin, updated_at = $2
        WHERE id = $1
        RETURNING `+userColumns, id, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("toggle admin: %w", err)
	}

	return user, nil
}

// UpdatePhoneNumber replaces the user's phone number; an empty value clears it.
func (r *PostgresUserRepository) UpdatePhoneNumber(ctx context.Context, id, phone string, at time.Time) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET phone_number = NULLIF($2, ''), updated_at = $3
        WHERE id = $1
        RETURNING `+userColumns, id, phone, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("update phone number: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.PhoneNumber, &user.IsAdmin, &user.IsApproved, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

const albumColumns = `id, title, COALESCE(description, ''), created_by, created_at, updated_at, video_count, is_active`

// PostgresAlbumRepository provides PostgreSQL-backed persistence for albums.
type PostgresAlbumRepository struct {
	pool db.Pool
}

// NewPostgresAlbumRepository constructs an album repository backed by PostgreSQL.
func NewPostgresAlbumRepository(pool db.Pool) *PostgresAlbumRepository {
	return &PostgresAlbumRepository{pool: pool}
}

// Create stores a new album.
func (r *PostgresAlbumRepository) Create(ctx context.Context, album models.Album) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO albums (id, title, description, created_by, created_at, updated_at, video_count, is_active)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
    `, album.ID, album.Title, album.Description, album.CreatedBy, album.CreatedAt, album.UpdatedAt, album.VideoCount, album.IsActive)
	if err != nil {
		if errors.Is(classify(err), ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("insert album: %w", err)
	}

	return nil
}

// FindByID fetches an album regardless of its active flag.
func (r *PostgresAlbumRepository) FindByID(ctx context.Context, id string) (models.Album, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Album{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	album, err := scanAlbum(conn.QueryRow(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Album{}, ErrNotFound
		}
		return models.Album{}, fmt.Errorf("select album: %w", err)
	}
	return album, nil
}

// ListActive returns active albums in creation order.
func (r *PostgresAlbumRepository) ListActive(ctx context.Context) ([]models.Album, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+albumColumns+`
        FROM albums
        WHERE is_active = TRUE
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}

	return albums, nil
}

func scanAlbum(row pgx.Row) (models.Album, error) {
	var album models.Album
	if err := row.Scan(&album.ID, &album.Title, &album.Description, &album.CreatedBy, &album.CreatedAt, &album.UpdatedAt, &album.VideoCount, &album.IsActive); err != nil {
		return models.Album{}, err
	}
	album.CreatedAt = album.CreatedAt.UTC()
	album.UpdatedAt = album.UpdatedAt.UTC()
	return album, nil
}

const videoColumns = `id, title, COALESCE(description, ''), url, album_id, created_by, created_at, updated_at, share_token`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a video and bumps its album's counter in one transaction.
// Transactions aborted by contention on the album row are replayed.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	for attempt := 1; ; attempt++ {
		err = r.createOnce(ctx, conn, video)
		if err == nil || !isTransient(err) || attempt >= txMaxAttempts {
			return err
		}

		timer := time.NewTimer(txBackoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *PostgresVideoRepository) createOnce(ctx context.Context, conn *pgxpool.Conn, video models.Video) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin video transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if video.AlbumID != nil {
		tag, err := tx.Exec(ctx, `
            UPDATE albums
            SET video_count = video_count + 1
            WHERE id = $1
        `, *video.AlbumID)
		if err != nil {
			return fmt.Errorf("increment album video count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO videos (id, title, description, url, album_id, created_by, created_at, updated_at, share_token)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
    `, video.ID, video.Title, video.Description, video.URL, video.AlbumID, video.CreatedBy, video.CreatedAt, video.UpdatedAt, video.ShareToken)
	if err != nil {
		switch mapped := classify(err); {
		case errors.Is(mapped, ErrConflict), errors.Is(mapped, ErrNotFound):
			return mapped
		}
		return fmt.Errorf("insert video: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit video transaction: %w", err)
	}

	return nil
}

// FindByID fetches a video by identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	return r.findOne(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
}

// FindByShareToken fetches the video currently bound to a share token.
func (r *PostgresVideoRepository) FindByShareToken(ctx context.Context, token string) (models.Video, error) {
	return r.findOne(ctx, `SELECT `+videoColumns+` FROM videos WHERE share_token = $1`, token)
}

func (r *PostgresVideoRepository) findOne(ctx context.Context, query, arg string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// ListByAlbum returns the videos referencing an album in creation order.
func (r *PostgresVideoRepository) ListByAlbum(ctx context.Context, albumID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE album_id = $1
        ORDER BY created_at, id
    `, albumID)
	if err != nil {
		return nil, fmt.Errorf("query album videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate album videos: %w", err)
	}

	return videos, nil
}

// UpdateShareToken replaces the video's share token.
func (r *PostgresVideoRepository) UpdateShareToken(ctx context.Context, id, token string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET share_token = $2, updated_at = $3
        WHERE id = $1
    `, id, token, at)
	if err != nil {
		if errors.Is(classify(err), ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("update share token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	if err := row.Scan(&video.ID, &video.Title, &video.Description, &video.URL, &video.AlbumID, &video.CreatedBy, &video.CreatedAt, &video.UpdatedAt, &video.ShareToken); err != nil {
		return models.Video{}, err
	}
	video.CreatedAt = video.CreatedAt.UTC()
	video.UpdatedAt = video.UpdatedAt.UTC()
	return video, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ AlbumRepository = (*PostgresAlbumRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
