package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/videoportal/backend/internal/models"
)

// MemoryStore holds users, albums and videos in process memory. It backs tests
// and local development; all three repositories share one lock so video
// creation and the album counter move together.
type MemoryStore struct {
	Users  *MemoryUserRepository
	Albums *MemoryAlbumRepository
	Videos *MemoryVideoRepository
}

type memoryState struct {
	mu      sync.RWMutex
	seq     int64
	users   map[string]memoryUser
	albums  map[string]memoryAlbum
	videos  map[string]models.Video
	shares  map[string]string
	byEmail map[string]string
}

type memoryUser struct {
	user models.User
	seq  int64
}

type memoryAlbum struct {
	album models.Album
	seq   int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	state := &memoryState{
		users:   make(map[string]memoryUser),
		albums:  make(map[string]memoryAlbum),
		videos:  make(map[string]models.Video),
		shares:  make(map[string]string),
		byEmail: make(map[string]string),
	}
	return &MemoryStore{
		Users:  &MemoryUserRepository{state: state},
		Albums: &MemoryAlbumRepository{state: state},
		Videos: &MemoryVideoRepository{state: state},
	}
}

// MemoryUserRepository implements UserRepository on a MemoryStore.
type MemoryUserRepository struct {
	state *memoryState
}

// Create persists a new user record.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrConflict
	}
	if _, exists := s.users[user.ID]; exists {
		return ErrConflict
	}
	s.seq++
	s.users[user.ID] = memoryUser{user: user, seq: s.seq}
	s.byEmail[user.Email] = user.ID
	return nil
}

// FindByID fetches a user by identifier.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return entry.user, nil
}

// FindByEmail fetches a user by email address.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id].user, nil
}

// ListByStatus returns users in the given lifecycle state in registration order.
func (r *MemoryUserRepository) ListByStatus(_ context.Context, status string) ([]models.User, error) {
	switch status {
	case models.UserStatusPending, models.UserStatusApproved, models.UserStatusAdmin:
	default:
		return nil, fmt.Errorf("unknown user status %q", status)
	}

	s := r.state
	s.mu.RLock()
	entries := make([]memoryUser, 0, len(s.users))
	for _, entry := range s.users {
		if entry.user.Status() == status {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	users := make([]models.User, 0, len(entries))
	for _, entry := range entries {
		users = append(users, entry.user)
	}
	return users, nil
}

// SetApproved marks a user as approved.
func (r *MemoryUserRepository) SetApproved(_ context.Context, id string, at time.Time) error {
	_, err := r.mutate(id, func(u *models.User) {
		u.IsApproved = true
		u.UpdatedAt = at
	})
	return err
}

// ToggleAdmin flips the admin flag and returns the updated record.
func (r *MemoryUserRepository) ToggleAdmin(_ context.Context, id string, at time.Time) (models.User, error) {
	return r.mutate(id, func(u *models.User) {
		u.IsAdmin = !u.IsAdmin
		u.UpdatedAt = at
	})
}

// UpdatePhoneNumber replaces the user's phone number.
func (r *MemoryUserRepository) UpdatePhoneNumber(_ context.Context, id, phone string, at time.Time) (models.User, error) {
	return r.mutate(id, func(u *models.User) {
		u.PhoneNumber = phone
		u.UpdatedAt = at
	})
}

func (r *MemoryUserRepository) mutate(id string, apply func(*models.User)) (models.User, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	apply(&entry.user)
	s.users[id] = entry
	return entry.user, nil
}

// MemoryAlbumRepository implements AlbumRepository on a MemoryStore.
type MemoryAlbumRepository struct {
	state *memoryState
}

// Create stores a new album.
func (r *MemoryAlbumRepository) Create(_ context.Context, album models.Album) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.albums[album.ID]; exists {
		return ErrConflict
	}
	s.seq++
	s.albums[album.ID] = memoryAlbum{album: album, seq: s.seq}
	return nil
}

// FindByID fetches an album regardless of its active flag.
func (r *MemoryAlbumRepository) FindByID(_ context.Context, id string) (models.Album, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.albums[id]
	if !ok {
		return models.Album{}, ErrNotFound
	}
	return entry.album, nil
}

// ListActive returns active albums in insertion order.
func (r *MemoryAlbumRepository) ListActive(_ context.Context) ([]models.Album, error) {
	s := r.state
	s.mu.RLock()
	entries := make([]memoryAlbum, 0, len(s.albums))
	for _, entry := range s.albums {
		if entry.album.IsActive {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	albums := make([]models.Album, 0, len(entries))
	for _, entry := range entries {
		albums = append(albums, entry.album)
	}
	return albums, nil
}

// SetActive toggles an album's visibility in listings.
func (r *MemoryAlbumRepository) SetActive(id string, active bool) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.albums[id]; ok {
		entry.album.IsActive = active
		s.albums[id] = entry
	}
}

// MemoryVideoRepository implements VideoRepository on a MemoryStore.
type MemoryVideoRepository struct {
	state *memoryState
}

// Create stores a video and increments its album counter under a single lock.
func (r *MemoryVideoRepository) Create(_ context.Context, video models.Video) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.videos[video.ID]; exists {
		return ErrConflict
	}
	if _, taken := s.shares[video.ShareToken]; taken {
		return ErrConflict
	}

	if video.AlbumID != nil {
		entry, ok := s.albums[*video.AlbumID]
		if !ok {
			return ErrNotFound
		}
		entry.album.VideoCount++
		s.albums[*video.AlbumID] = entry
	}

	s.videos[video.ID] = video
	s.shares[video.ShareToken] = video.ID
	return nil
}

// FindByID fetches a video by identifier.
func (r *MemoryVideoRepository) FindByID(_ context.Context, id string) (models.Video, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

// FindByShareToken fetches the video bound to a share token.
func (r *MemoryVideoRepository) FindByShareToken(_ context.Context, token string) (models.Video, error) {
	s := r.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.shares[token]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return s.videos[id], nil
}

// ListByAlbum returns the videos referencing an album ordered by creation time.
func (r *MemoryVideoRepository) ListByAlbum(_ context.Context, albumID string) ([]models.Video, error) {
	s := r.state
	s.mu.RLock()
	videos := []models.Video{}
	for _, video := range s.videos {
		if video.AlbumID != nil && *video.AlbumID == albumID {
			videos = append(videos, video)
		}
	}
	s.mu.RUnlock()

	sort.Slice(videos, func(i, j int) bool {
		if videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].ID < videos[j].ID
		}
		return videos[i].CreatedAt.Before(videos[j].CreatedAt)
	})
	return videos, nil
}

// UpdateShareToken replaces the video's share token; the old token stops resolving.
func (r *MemoryVideoRepository) UpdateShareToken(_ context.Context, id, token string, at time.Time) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := s.shares[token]; taken && owner != id {
		return ErrConflict
	}

	delete(s.shares, video.ShareToken)
	video.ShareToken = token
	video.UpdatedAt = at
	s.videos[id] = video
	s.shares[token] = id
	return nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
var _ AlbumRepository = (*MemoryAlbumRepository)(nil)
var _ VideoRepository = (*MemoryVideoRepository)(nil)
