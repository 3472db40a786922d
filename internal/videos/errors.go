package videos

import "errors"

var (
	// ErrInvalidURL indicates a video URL is malformed or not on an allow-listed host.
	ErrInvalidURL = errors.New("video url is not on an allowed host")
	// ErrAlbumNotFound indicates a referenced album does not exist.
	ErrAlbumNotFound = errors.New("album not found")
	// ErrVideoNotFound indicates the requested video does not exist.
	ErrVideoNotFound = errors.New("video not found")
	// ErrInvalidInput indicates required fields are missing.
	ErrInvalidInput = errors.New("invalid catalog input")
	// ErrHostUnavailable indicates no video host is configured for uploads.
	ErrHostUnavailable = errors.New("video host unavailable")
)
