package collection

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// BuildFunc produces a brand-new collection from the content files.
type BuildFunc func(ctx context.Context) (*Collection, error)

// Store is the process-wide handle on the published collection. It is
// populated eagerly by NewStore and only ever replaced as a whole.
type Store struct {
	build   BuildFunc
	current atomic.Pointer[Collection]
	group   singleflight.Group
}

// NewStore runs build once and returns a ready store. It fails if that
// first build fails.
func NewStore(ctx context.Context, build BuildFunc) (*Store, error) {
	if build == nil {
		return nil, errors.New("collection: nil build function")
	}
	s := &Store{build: build}
	c, err := build(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(c)
	return s, nil
}

// Current returns the snapshot readers should use. It never blocks.
func (s *Store) Current() *Collection {
	return s.current.Load()
}

// Reload builds a new collection and swaps it in. Concurrent callers share
// one build. On failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*Collection, error) {
	v, err, _ := s.group.Do("reload", func() (any, error) {
		c, err := s.build(ctx)
		if err != nil {
			return nil, err
		}
		s.current.Store(c)
		return c, nil
	})
	if err != nil {
		return s.Current(), err
	}
	return v.(*Collection), nil
}
