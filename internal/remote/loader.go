package remote

import (
	"context"
	"net/url"
)

// Mapper turns a response body and status into a domain value.
type Mapper[T any] func(data []byte, statusCode int) (T, error)

// Loader fetches a URL and maps the response. Transport errors are
// returned as they are (wrapping ErrConnectivity); mapping errors come
// from the mapper.
type Loader[T any] struct {
	client HTTPClient
	mapper Mapper[T]
}

func NewLoader[T any](client HTTPClient, mapper Mapper[T]) *Loader[T] {
	return &Loader[T]{client: client, mapper: mapper}
}

func (l *Loader[T]) Load(ctx context.Context, u *url.URL) (T, error) {
	var zero T
	resp, err := l.client.Get(ctx, u)
	if err != nil {
		return zero, err
	}
	return l.mapper(resp.Body, resp.StatusCode)
}

// LoadFunc binds the loader to a fixed URL.
func (l *Loader[T]) LoadFunc(u *url.URL) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return l.Load(ctx, u)
	}
}
