// Package storage persists normalized item images and hands back the public
// URL stored alongside the item.
package storage

import (
	"context"
	"io"
)

type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}
