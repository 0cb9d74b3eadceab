// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"fmt"
	"math/big"

	"github.com/gaissmai/rangeidx/internal/uint128"
)

// bucket holds all ranges of one IP version with identical size.
//
// minStart and maxEnd are the outer bounds of all member ranges,
// not a contiguous interval, they reject most foreign keys before
// the searcher is probed.
type bucket[V any] struct {
	span uint128.Uint128 // size-1, the grouping key
	size *big.Int        // exact size, for stats and dumps

	minStart Key
	maxEnd   Key

	searcher Searcher[V]
}

// newBucket builds the bucket from recs, all of the same version and span,
// sorted by start. Overlapping neighbors are an error.
func newBucket[V any](recs []*Record[V], s Strategy) (*bucket[V], error) {
	first := recs[0]

	b := &bucket[V]{
		span:     first.span(),
		size:     first.Size(),
		minStart: first.Start,
		maxEnd:   first.End,
		searcher: NewSearcher[V](s),
	}

	for i, rec := range recs {
		if i > 0 {
			// sorted by start: overlap iff the predecessor ends at or after this start
			if prev := recs[i-1]; !prev.End.u.Less(rec.Start.u) {
				return nil, fmt.Errorf("%w: %q and %q", ErrOverlappingRanges, prev.Text, rec.Text)
			}
		}

		if rec.Start.u.Less(b.minStart.u) {
			b.minStart = rec.Start
		}
		if b.maxEnd.u.Less(rec.End.u) {
			b.maxEnd = rec.End
		}

		b.searcher.Insert(rec)
	}

	return b, nil
}

// lookup rejects k by the bucket bounds, then probes the searcher.
func (b *bucket[V]) lookup(k Key) (*Record[V], bool) {
	if k.u.Less(b.minStart.u) || b.maxEnd.u.Less(k.u) {
		return nil, false
	}
	return b.searcher.Search(k)
}

// BucketStats describes one size bucket.
type BucketStats struct {
	Version  int      `json:"version"`
	Size     *big.Int `json:"size"`
	Len      int      `json:"len"`
	MinStart Key      `json:"min_start"`
	MaxEnd   Key      `json:"max_end"`
}

func (b *bucket[V]) stats() BucketStats {
	return BucketStats{
		Version:  b.minStart.Version(),
		Size:     new(big.Int).Set(b.size),
		Len:      b.searcher.Len(),
		MinStart: b.minStart,
		MaxEnd:   b.maxEnd,
	}
}
