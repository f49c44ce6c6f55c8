package dal

import "errors"

// ErrNotFound is returned when a key has never been written
var ErrNotFound = errors.New("dal: key not found")

// StorageDAL is durable string-valued key-value storage. Values are
// overwritten whole; there are no partial writes.
type StorageDAL interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Ping() error
	Close() error
}
