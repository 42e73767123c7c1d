package repository

import (
	"time"

	"github.com/okian/gatedirector/pkg/logger"
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithCacheSize sets how many catalogs are kept in memory.
func WithCacheSize(n int) Option {
	return func(s *FileStore) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithCacheTTL sets how long a cached catalog stays valid.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *FileStore) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithStaleLockAge sets the age after which a leftover lock file is broken.
func WithStaleLockAge(age time.Duration) Option {
	return func(s *FileStore) {
		if age > 0 {
			s.staleLockAge = age
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.log = l
		}
	}
}
