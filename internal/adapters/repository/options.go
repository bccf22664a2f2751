package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithSource records where the rows came from, for stats and logs.
func WithSource(source string) Option {
	return func(s *MemoryStore) {
		if source != "" {
			s.source = source
		}
	}
}

// WithLoadedAt sets the load timestamp. It defaults to when the store was built.
func WithLoadedAt(t time.Time) Option {
	return func(s *MemoryStore) {
		if !t.IsZero() {
			s.loadedAt = t
		}
	}
}
