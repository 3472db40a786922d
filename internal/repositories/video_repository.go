package repositories

import (
	"context"
	"time"

	"github.com/videoportal/backend/internal/models"
)

// AlbumRepository exposes data access for albums.
type AlbumRepository interface {
	Create(ctx context.Context, album models.Album) error
	FindByID(ctx context.Context, id string) (models.Album, error)
	ListActive(ctx context.Context) ([]models.Album, error)
}

// VideoRepository exposes data access for videos.
//
// Create stores the video and, when AlbumID is set, increments that album's
// video_count in the same transaction. A missing album yields ErrNotFound and
// leaves the store untouched; a duplicate share token yields ErrConflict.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByShareToken(ctx context.Context, token string) (models.Video, error)
	ListByAlbum(ctx context.Context, albumID string) ([]models.Video, error)
	UpdateShareToken(ctx context.Context, id, token string, at time.Time) error
}
