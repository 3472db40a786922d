package handlers

import (
	"context"
	"io"

	"github.com/videoportal/backend/internal/models"
	"github.com/videoportal/backend/internal/videos"
)

// AccountService captures the registration and approval operations used by
// the auth and admin handlers.
type AccountService interface {
	Register(ctx context.Context, email, password, phone string) (models.User, error)
	Login(ctx context.Context, email, password string) (models.SessionToken, models.User, error)
	Profile(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, phone string) (models.User, error)
	ListPending(ctx context.Context) ([]models.User, error)
	ListApproved(ctx context.Context) ([]models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
	Approve(ctx context.Context, userID string) error
	ToggleAdmin(ctx context.Context, actor models.Identity, targetID string) (models.User, error)
}

// Catalog captures album, video and share token operations.
type Catalog interface {
	CreateAlbum(ctx context.Context, title, description, creatorID string) (models.Album, error)
	ListActiveAlbums(ctx context.Context) ([]models.Album, error)
	ListVideosInAlbum(ctx context.Context, albumID string) ([]models.Video, error)
	CreateVideo(ctx context.Context, input videos.VideoInput, creatorID string) (models.Video, error)
	GetVideo(ctx context.Context, id string) (models.Video, error)
	GetVideoByShareToken(ctx context.Context, token string) (models.Video, error)
	RotateShareToken(ctx context.Context, videoID string) (string, error)
}

// VideoUploader pushes files to the external video host.
type VideoUploader interface {
	Upload(ctx context.Context, filename string, video io.Reader, thumbnail io.Reader) (videos.UploadResult, error)
}

// IdentityResolver turns a bearer token into the caller's current identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (models.Identity, error)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
