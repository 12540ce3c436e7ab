package sentinel

import "errors"

// Infrastructure facts returned (possibly wrapped) by stores, caches and the
// summary generator. Services translate them into domain errors.
var (
	// ErrNotFound means the row or artifact does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCacheMiss means the cache holds no entry for the key.
	ErrCacheMiss = errors.New("cache miss")
)
