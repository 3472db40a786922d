package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videoportal/backend/internal/logging"
	"github.com/videoportal/backend/internal/models"
	"github.com/videoportal/backend/internal/repositories"
)

// shareTokenAttempts bounds retries when a freshly drawn share token collides.
const shareTokenAttempts = 3

// AlbumStore persists albums.
type AlbumStore interface {
	Create(ctx context.Context, album models.Album) error
	FindByID(ctx context.Context, id string) (models.Album, error)
	ListActive(ctx context.Context) ([]models.Album, error)
}

// VideoStore persists videos. Create must increment the referenced album's
// counter atomically with the insert.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByShareToken(ctx context.Context, token string) (models.Video, error)
	ListByAlbum(ctx context.Context, albumID string) ([]models.Video, error)
	UpdateShareToken(ctx context.Context, id, token string, at time.Time) error
}

// VideoInput carries the caller-supplied fields for a new video.
type VideoInput struct {
	Title       string
	Description string
	URL         string
	AlbumID     string
}

// Catalog manages albums, videos and share tokens. Role checks happen before
// any Catalog method is called.
type Catalog struct {
	Albums  AlbumStore
	Videos  VideoStore
	Hosts   HostAllowList
	Random  io.Reader
	NowFunc func() time.Time
}

// NewCatalog constructs a Catalog over the given stores.
func NewCatalog(albums AlbumStore, videos VideoStore, hosts HostAllowList) *Catalog {
	return &Catalog{Albums: albums, Videos: videos, Hosts: hosts}
}

// CreateAlbum stores a new, active, empty album.
func (c *Catalog) CreateAlbum(ctx context.Context, title, description, creatorID string) (models.Album, error) {
	title = strings.TrimSpace(title)
	if title == "" || creatorID == "" {
		return models.Album{}, ErrInvalidInput
	}

	now := c.now()
	album := models.Album{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
		VideoCount:  0,
		IsActive:    true,
	}

	if err := c.Albums.Create(ctx, album); err != nil {
		return models.Album{}, fmt.Errorf("create album: %w", err)
	}

	logging.FromContext(ctx).Info("album created", "albumId", album.ID, "createdBy", creatorID)
	return album, nil
}

// CreateVideo validates the URL and album reference, then stores the video
// with a fresh share token. The album's video_count moves in the same store
// operation as the insert.
func (c *Catalog) CreateVideo(ctx context.Context, input VideoInput, creatorID string) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.create_video")
	defer span.End()
	logger := logging.FromContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" || creatorID == "" {
		return models.Video{}, ErrInvalidInput
	}

	rawURL := strings.TrimSpace(input.URL)
	if err := c.Hosts.Validate(rawURL); err != nil {
		logger.Warn("video url rejected", "url", rawURL)
		return models.Video{}, err
	}

	var albumID *string
	if id := strings.TrimSpace(input.AlbumID); id != "" {
		albumID = &id
	}

	now := c.now()
	video := models.Video{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		URL:         rawURL,
		AlbumID:     albumID,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 1; ; attempt++ {
		token, err := newShareToken(c.Random)
		if err != nil {
			return models.Video{}, err
		}
		video.ShareToken = token

		err = c.Videos.Create(ctx, video)
		switch {
		case err == nil:
			logger.Info("video created", "videoId", video.ID, "albumId", input.AlbumID)
			return video, nil
		case errors.Is(err, repositories.ErrNotFound) && albumID != nil:
			return models.Video{}, ErrAlbumNotFound
		case errors.Is(err, repositories.ErrConflict) && attempt < shareTokenAttempts:
			logger.Warn("share token collision, regenerating", "attempt", attempt)
			continue
		default:
			err = fmt.Errorf("create video: %w", err)
			span.RecordError(err)
			return models.Video{}, err
		}
	}
}

// GetVideo loads a video by id.
func (c *Catalog) GetVideo(ctx context.Context, id string) (models.Video, error) {
	video, err := c.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, ErrVideoNotFound
		}
		return models.Video{}, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// GetVideoByShareToken loads the video currently bound to token.
func (c *Catalog) GetVideoByShareToken(ctx context.Context, token string) (models.Video, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Video{}, ErrVideoNotFound
	}
	video, err := c.Videos.FindByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, ErrVideoNotFound
		}
		return models.Video{}, fmt.Errorf("get shared video: %w", err)
	}
	return video, nil
}

// RotateShareToken replaces a video's share token. The previous token stops
// resolving as soon as the store write lands.
func (c *Catalog) RotateShareToken(ctx context.Context, videoID string) (string, error) {
	for attempt := 1; ; attempt++ {
		token, err := newShareToken(c.Random)
		if err != nil {
			return "", err
		}

		err = c.Videos.UpdateShareToken(ctx, videoID, token, c.now())
		switch {
		case err == nil:
			logging.FromContext(ctx).Info("share token rotated", "videoId", videoID)
			return token, nil
		case errors.Is(err, repositories.ErrNotFound):
			return "", ErrVideoNotFound
		case errors.Is(err, repositories.ErrConflict) && attempt < shareTokenAttempts:
			continue
		default:
			return "", fmt.Errorf("rotate share token: %w", err)
		}
	}
}

// ListActiveAlbums returns active albums in creation order.
func (c *Catalog) ListActiveAlbums(ctx context.Context) ([]models.Album, error) {
	albums, err := c.Albums.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	return albums, nil
}

// ListVideosInAlbum returns an album's videos. An existing album without videos
// yields an empty slice; an unknown album yields ErrAlbumNotFound.
func (c *Catalog) ListVideosInAlbum(ctx context.Context, albumID string) ([]models.Video, error) {
	if _, err := c.Albums.FindByID(ctx, albumID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAlbumNotFound
		}
		return nil, fmt.Errorf("load album: %w", err)
	}

	videos, err := c.Videos.ListByAlbum(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("list album videos: %w", err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

func (c *Catalog) now() time.Time {
	if c.NowFunc != nil {
		return c.NowFunc()
	}
	return time.Now().UTC()
}
