package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/feedcore/internal/loader"
	"github.com/pders01/feedcore/internal/storage"
)

var (
	ErrImageNotFound   = errors.New("image data not found")
	ErrImageLoadFailed = errors.New("image data load failed")
	ErrImageSaveFailed = errors.New("image data save failed")
)

// LocalImageDataLoader reads and writes cached image bytes.
type LocalImageDataLoader struct {
	store storage.ImageDataStore
	owner *loader.Owner
}

func NewLocalImageDataLoader(store storage.ImageDataStore) *LocalImageDataLoader {
	return &LocalImageDataLoader{store: store, owner: loader.NewOwner()}
}

func (l *LocalImageDataLoader) Owner() *loader.Owner {
	return l.owner
}

func (l *LocalImageDataLoader) Close() {
	l.owner.Release()
}

func (l *LocalImageDataLoader) LoadImageData(ctx context.Context, url string) ([]byte, error) {
	if !l.owner.Alive() {
		return nil, ErrLoaderClosed
	}
	data, err := l.store.RetrieveImageData(ctx, url)
	if !l.owner.Alive() {
		return nil, ErrLoaderClosed
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageLoadFailed, err)
	}
	if data == nil {
		return nil, ErrImageNotFound
	}
	return data, nil
}

func (l *LocalImageDataLoader) Save(ctx context.Context, data []byte, url string) error {
	if !l.owner.Alive() {
		return ErrLoaderClosed
	}
	err := l.store.InsertImageData(ctx, data, url)
	if !l.owner.Alive() {
		return ErrLoaderClosed
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImageSaveFailed, err)
	}
	return nil
}
