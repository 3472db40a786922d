package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/videoportal/backend/internal/logging"
)

// VideoHost stores an uploaded object and returns its public location.
type VideoHost interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// UploadResult is what the host hands back for an uploaded video.
type UploadResult struct {
	VideoID      string
	URL          string
	ThumbnailURL string
}

// DefaultUploadSlots bounds concurrent transfers to the video host.
const DefaultUploadSlots = 4

// Uploader pushes video files (and optional thumbnails) to the external host.
// Its results are plain URLs; creating the catalog entry is a separate step.
type Uploader struct {
	Host  VideoHost
	slots *semaphore.Weighted
}

// NewUploader returns an Uploader allowing at most slots concurrent uploads.
func NewUploader(host VideoHost, slots int) *Uploader {
	if slots <= 0 {
		slots = DefaultUploadSlots
	}
	return &Uploader{Host: host, slots: semaphore.NewWeighted(int64(slots))}
}

// Upload stores the video under a fresh identifier. A nil thumbnail is skipped.
func (u *Uploader) Upload(ctx context.Context, filename string, video io.Reader, thumbnail io.Reader) (UploadResult, error) {
	if u == nil || u.Host == nil {
		return UploadResult{}, ErrHostUnavailable
	}
	if video == nil {
		return UploadResult{}, errors.New("upload: missing video content")
	}

	if u.slots != nil {
		if err := u.slots.Acquire(ctx, 1); err != nil {
			return UploadResult{}, fmt.Errorf("wait for upload slot: %w", err)
		}
		defer u.slots.Release(1)
	}

	ctx, span := logging.StartSpan(ctx, "videos.upload")
	defer span.End()

	id := uuid.NewString()
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	if ext == "" || len(ext) > 8 {
		ext = ".mp4"
	}

	location, err := u.Host.Save(ctx, path.Join("videos", id, "video"+ext), video)
	if err != nil {
		err = fmt.Errorf("upload video: %w", err)
		span.RecordError(err)
		return UploadResult{}, err
	}

	result := UploadResult{VideoID: id, URL: location}
	if thumbnail != nil {
		thumb, err := u.Host.Save(ctx, path.Join("videos", id, "thumbnail.jpg"), thumbnail)
		if err != nil {
			span.RecordError(err)
			logging.FromContext(ctx).Warn("thumbnail upload failed", "videoId", id, "error", err)
		} else {
			result.ThumbnailURL = thumb
		}
	}

	logging.FromContext(ctx).Info("video uploaded", "videoId", id, "location", location)
	return result, nil
}
