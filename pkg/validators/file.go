package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("file is required")
)

const maxFileNameSize = 200

var (
	AudioTypes    = []string{"audio/mpeg", "audio/wav", "application/zip"}
	ImageTypes    = []string{"image/png", "image/jpeg", "image/webp"}
	DocumentTypes = []string{"application/pdf"}
)

// FileHeader runs the cheap checks on an uploaded part before anything is
// read from it. The returned status code is meaningful only when err != nil.
func FileHeader(fh *multipart.FileHeader, maxSize int64) (int, error) {
	if fh == nil {
		return http.StatusBadRequest, ErrNoFile
	}

	return UploadMeta(fh.Filename, fh.Size, maxSize)
}

func UploadMeta(name string, size, maxSize int64) (int, error) {
	if name == "" || size == 0 {
		return http.StatusBadRequest, ErrNoFile
	}

	if len(name) > maxFileNameSize {
		return http.StatusBadRequest, ErrFileNameTooLong
	}

	if maxSize > 0 && size > maxSize {
		return http.StatusRequestEntityTooLarge, ErrFileTooLarge
	}

	return 0, nil
}

// Sniff detects the content type from the file body and rewinds the reader.
// Client supplied Content-Type headers are never trusted.
func Sniff(r io.ReadSeeker, allowed []string) (*mimetype.MIME, error) {
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	if !slices.ContainsFunc(allowed, mime.Is) {
		return nil, ErrFileTypeUnsupported
	}

	return mime, nil
}
