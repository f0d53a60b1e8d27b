package track

import (
	"context"
	"time"

	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/utils/cache"
	"github.com/mpapenbr/quizrace/pkg/utils/cache/loadercache"
)

type (
	cacheKey struct {
		ref     model.TrackRef
		baseDir string
	}
	// Cache keeps built tracks. Building a spline track samples the whole
	// centerline, so restarts of a race reuse the track as long as its file is unchanged.
	Cache struct {
		c cache.Cache[cacheKey, Track]
	}
)

// NewCache creates a track cache. An expiration of 0 keeps tracks until invalidated.
func NewCache(expiration time.Duration, opts ...Option) *Cache {
	return &Cache{
		c: loadercache.New(
			loadercache.WithExpiration[cacheKey, Track](expiration),
			loadercache.WithLoader[cacheKey, Track](func(_ context.Context, key cacheKey) (*Track, error) {
				return FromRef(key.ref, key.baseDir, opts...)
			}),
		),
	}
}

func (c *Cache) Get(ctx context.Context, ref model.TrackRef, baseDir string) (*Track, error) {
	return c.c.Get(ctx, cacheKey{ref: ref, baseDir: baseDir})
}

// InvalidateAll drops all tracks, e.g. after a track file changed
func (c *Cache) InvalidateAll(ctx context.Context) {
	c.c.InvalidateAll(ctx)
}
