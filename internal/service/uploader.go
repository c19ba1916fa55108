package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/pkg/util"
	"soulfamily/sounds-api/pkg/validators"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ObjectStore is the part of the bucket client the services need
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, keys ...string) error
	PresignGet(ctx context.Context, key, name string) (string, error)
}

// Upload is a file received from a client that has not been stored yet
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadSeekCloser, error)
}

func (u Upload) Empty() bool {
	return u.Open == nil
}

const uploadTimeout = 5 * time.Minute

type Uploader struct {
	store   ObjectStore
	maxSize int64
}

func NewUploader(store ObjectStore, maxSize int64) *Uploader {
	return &Uploader{store: store, maxSize: maxSize}
}

// Check runs the metadata checks without touching the body
func (u *Uploader) Check(up Upload) error {
	if up.Empty() {
		return badRequest("%s", validators.ErrNoFile)
	}

	if code, err := validators.UploadMeta(up.Name, up.Size, u.maxSize); err != nil {
		return &Error{Code: code, Message: err.Error()}
	}

	return nil
}

// Store sniffs and uploads every file in parallel under prefix. If any
// upload fails the ones that already made it are deleted again so the
// bucket never holds objects without rows.
func (u *Uploader) Store(ctx context.Context, prefix string, allowed []string, uploads ...Upload) ([]*model.StoredFile, error) {
	for _, up := range uploads {
		if err := u.Check(up); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	stored := make([]*model.StoredFile, len(uploads))

	var (
		mu       sync.Mutex
		uploaded []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, up := range uploads {
		g.Go(func() error {
			f, err := up.Open()
			if err != nil {
				return fmt.Errorf("failed to open %s, %w", up.Name, err)
			}
			defer f.Close()

			mime, err := validators.Sniff(f, allowed)
			if err != nil {
				if errors.Is(err, validators.ErrFileTypeUnsupported) {
					return badRequest("%s: %s", up.Name, err)
				}
				return fmt.Errorf("failed to detect type of %s, %w", up.Name, err)
			}

			key := util.ObjectKey(prefix, up.Name)
			if path.Ext(key) == "" {
				key += mime.Extension()
			}

			if err := u.store.Put(gctx, key, mime.String(), f, up.Size); err != nil {
				return err
			}

			mu.Lock()
			uploaded = append(uploaded, key)
			mu.Unlock()

			stored[i] = &model.StoredFile{
				ObjectKey: key,
				Name:      up.Name,
				Size:      up.Size,
				Extension: mime.Extension(),
				MimeType:  mime.String(),
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		u.discard(uploaded)
		return nil, err
	}

	return stored, nil
}

// Discard removes stored objects whose database rows were never committed
func (u *Uploader) Discard(files ...*model.StoredFile) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		if f != nil {
			keys = append(keys, f.ObjectKey)
		}
	}

	u.discard(keys)
}

func (u *Uploader) discard(keys []string) {
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := u.store.Delete(ctx, keys...); err != nil {
		zap.L().Error("Failed to cleanup after failed upload", zap.Strings("keys", keys), zap.Error(err))
		return
	}

	zap.L().Debug("Cleaned up after failed upload", zap.Strings("keys", keys))
}

func (u *Uploader) URL(ctx context.Context, f *model.StoredFile) (string, error) {
	if f == nil {
		return "", nil
	}

	return u.store.PresignGet(ctx, f.ObjectKey, f.Name)
}
