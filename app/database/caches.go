package database

import (
	"github.com/averle/postview/app/cache"
)

// Caches groups the per-kind count caches. Capacities are sized to the
// expected key cardinality of each space: one entry per table for the
// unfiltered totals, a handful of hot categories per kind, and a small
// window of recent compound search signatures.
type Caches struct {
	Tables      *cache.Counts[string]
	Authors     *cache.Counts[AuthorID]
	Tags        *cache.Counts[TagID]
	Platforms   *cache.Counts[PlatformID]
	Collections *cache.Counts[CollectionID]
	Search      *cache.Counts[string]
}

func NewCaches() *Caches {
	return &Caches{
		Tables:      cache.NewCounts[string](5),
		Platforms:   cache.NewCounts[PlatformID](4),
		Tags:        cache.NewCounts[TagID](8),
		Collections: cache.NewCounts[CollectionID](8),
		Authors:     cache.NewCounts[AuthorID](16),
		Search:      cache.NewCounts[string](32),
	}
}
