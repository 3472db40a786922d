package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/logging"
	"github.com/videoportal/backend/internal/models"
	"github.com/videoportal/backend/internal/videos"
)

const (
	defaultMaxUploadBytes = 2 << 30
	uploadMemoryBytes     = 32 << 20
)

// VideoHandler provides album, video and share link endpoints.
type VideoHandler struct {
	Catalog        Catalog
	Uploader       VideoUploader
	MaxUploadBytes int64
}

// CreateAlbum handles POST /api/videos/albums.
func (h VideoHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	var req albumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid album payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	album, err := h.Catalog.CreateAlbum(ctx, req.Title, req.Description, identity.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newAlbumResponse(album))
}

// ListAlbums handles GET /api/videos/albums.
func (h VideoHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	albums, err := h.Catalog.ListActiveAlbums(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out := make([]albumResponse, 0, len(albums))
	for _, album := range albums {
		out = append(out, newAlbumResponse(album))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// ListAlbumVideos handles GET /api/videos/albums/{id}/videos.
func (h VideoHandler) ListAlbumVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.Catalog.ListVideosInAlbum(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoResponses(list))
}

// CreateVideo handles POST /api/videos/videos.
func (h VideoHandler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	var req videoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid video payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	video, err := h.Catalog.CreateVideo(ctx, videos.VideoInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		AlbumID:     req.AlbumID,
	}, identity.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newVideoResponse(video))
}

// GetVideo handles GET /api/videos/videos/{id}.
func (h VideoHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Catalog.GetVideo(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video))
}

// RotateShareToken handles POST /api/videos/videos/{id}/share. The previous
// share link stops working.
func (h VideoHandler) RotateShareToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token, err := h.Catalog.RotateShareToken(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"share_token": token})
}

// ResolveShareToken handles GET /api/videos/share/{token}.
func (h VideoHandler) ResolveShareToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Catalog.GetVideoByShareToken(ctx, r.PathValue("token"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video))
}

// Upload handles POST /api/videos/upload. It expects a multipart form with a
// "video" file and an optional "thumbnail" file, and returns the hosted URLs.
// Registering the URL as a catalog video is a separate call.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Uploader == nil {
		respondError(ctx, w, videos.ErrHostUnavailable)
		return
	}

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(uploadMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondMessage(ctx, w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		logger.Warn("invalid upload form", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	video, header, err := r.FormFile("video")
	if err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, "video file is required")
		return
	}
	defer video.Close()

	var thumbnail io.Reader
	if file, _, err := r.FormFile("thumbnail"); err == nil {
		defer file.Close()
		thumbnail = file
	} else if !errors.Is(err, http.ErrMissingFile) {
		respondMessage(ctx, w, http.StatusBadRequest, "invalid thumbnail file")
		return
	}

	result, err := h.Uploader.Upload(ctx, uploadName(header), video, thumbnail)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, uploadResponse{
		VideoID:      result.VideoID,
		URL:          result.URL,
		ThumbnailURL: result.ThumbnailURL,
	})
}

func uploadName(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Filename
}

func newVideoResponses(list []models.Video) []videoResponse {
	out := make([]videoResponse, 0, len(list))
	for _, video := range list {
		out = append(out, newVideoResponse(video))
	}
	return out
}

type albumRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type videoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	AlbumID     string `json:"album_id"`
}

type uploadResponse struct {
	VideoID      string `json:"video_id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}
