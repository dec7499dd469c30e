// Package storage provides the durable key-value slot that holds the saved
// purchase order collection, with interchangeable backends.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing has been written under the key.
var ErrNotFound = errors.New("storage: key not found")

// IKeyValueStore is a string-keyed slot of opaque bytes. Set overwrites the whole value.
type IKeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
