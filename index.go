// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"fmt"
	"iter"
	"net/netip"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Index is a read-only IPv4 and IPv6 range table with payload V,
// answering most-specific-match lookups.
//
// Per IP version the ranges are partitioned into buckets of identical
// size. The buckets are probed in ascending size order, the first
// bucket with a containing range wins. Smaller ranges are more specific,
// so this is the longest-prefix-match without a prefix trie, and it
// works for arbitrary ranges, not only CIDRs.
//
// An Index is built once by [New] and never modified afterwards,
// it is safe for concurrent lookups without locking.
// The zero value is an empty Index.
//
// An Index must not be copied by value; always pass by pointer.
type Index[V any] struct {
	// used by -copylocks checker from `go vet`.
	_ [0]sync.Mutex

	// ascending by size
	buckets4 []*bucket[V]
	buckets6 []*bucket[V]

	// the number of records
	size4 int
	size6 int

	strategy Strategy
}

// New builds the Index from records.
//
// The records are copied, the caller may reuse the slice. Records must be
// valid, see [Range.IsValid], and two records of the same version and size
// must not overlap. Violations return [ErrInvalidRecord] or
// [ErrOverlappingRanges] and no Index.
func New[V any](records []Record[V], opts ...Option) (*Index[V], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// panics early on unknown strategy
	_ = NewSearcher[V](cfg.strategy)

	owned := slices.Clone(records)

	var recs4, recs6 []*Record[V]
	for i := range owned {
		rec := &owned[i]
		if !rec.IsValid() {
			return nil, fmt.Errorf("%w: #%d %q (%s)", ErrInvalidRecord, i, rec.Text, rec.Range)
		}

		if rec.Is4() {
			recs4 = append(recs4, rec)
		} else {
			recs6 = append(recs6, rec)
		}
	}

	groups := slices.Concat(groupBySize(recs4), groupBySize(recs6))
	buckets := make([]*bucket[V], len(groups))

	g := new(errgroup.Group)
	g.SetLimit(cfg.concurrency)

	for i, group := range groups {
		g.Go(func() (err error) {
			buckets[i], err = newBucket(group, cfg.strategy)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	x := &Index[V]{
		size4:    len(recs4),
		size6:    len(recs6),
		strategy: cfg.strategy,
	}

	// groups are v4 first, each version ascending by size
	for _, b := range buckets {
		if b.minStart.is4 {
			x.buckets4 = append(x.buckets4, b)
		} else {
			x.buckets6 = append(x.buckets6, b)
		}
	}

	return x, nil
}

// groupBySize sorts recs by (size, start) and splits them into runs of
// equal size.
func groupBySize[V any](recs []*Record[V]) [][]*Record[V] {
	slices.SortStableFunc(recs, func(a, b *Record[V]) int {
		if c := a.span().Compare(b.span()); c != 0 {
			return c
		}
		return cmpRecordStart(a, b)
	})

	var groups [][]*Record[V]
	for i := 0; i < len(recs); {
		j := i + 1
		for j < len(recs) && recs[j].span() == recs[i].span() {
			j++
		}
		groups = append(groups, recs[i:j:j])
		i = j
	}
	return groups
}

// bucketsByVersion, bucket list getter for ip version.
func (x *Index[V]) bucketsByVersion(is4 bool) []*bucket[V] {
	if is4 {
		return x.buckets4
	}
	return x.buckets6
}

// Lookup returns the most specific record containing ip, the record with
// the smallest size. ok is false if no range contains ip or ip is invalid.
//
// Do not pass IPv4-in-IPv6 addresses (e.g., ::ffff:192.0.2.1) when looking
// for native IPv4 ranges, see [KeyFromAddr].
func (x *Index[V]) Lookup(ip netip.Addr) (rec Record[V], ok bool) {
	return x.LookupKey(KeyFromAddr(ip))
}

// LookupString parses s as address and calls [Index.Lookup].
// An unparsable s is no match.
func (x *Index[V]) LookupString(s string) (rec Record[V], ok bool) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return rec, false
	}
	return x.Lookup(ip)
}

// LookupKey is [Index.Lookup] for a Key.
func (x *Index[V]) LookupKey(k Key) (rec Record[V], ok bool) {
	if !k.valid {
		return rec, false
	}

	for _, b := range x.bucketsByVersion(k.is4) {
		if r, ok := b.lookup(k); ok {
			return *r, true
		}
	}
	return rec, false
}

// Contains reports whether any range contains ip.
func (x *Index[V]) Contains(ip netip.Addr) bool {
	_, ok := x.Lookup(ip)
	return ok
}

// Supernets returns an iterator over all records containing ip, from the
// most specific to the least specific one. Records of equal size never
// overlap, so there is at most one per bucket.
func (x *Index[V]) Supernets(ip netip.Addr) iter.Seq[Record[V]] {
	return func(yield func(Record[V]) bool) {
		k := KeyFromAddr(ip)
		if !k.valid {
			return
		}

		for _, b := range x.bucketsByVersion(k.is4) {
			if r, ok := b.lookup(k); ok {
				if !yield(*r) {
					return
				}
			}
		}
	}
}

// All returns an iterator over all records, IPv4 before IPv6,
// ascending by size and within equal size ascending by start.
func (x *Index[V]) All() iter.Seq[Record[V]] {
	return func(yield func(Record[V]) bool) {
		for _, b := range slices.Concat(x.buckets4, x.buckets6) {
			for r := range b.searcher.All() {
				if !yield(*r) {
					return
				}
			}
		}
	}
}

// Len returns the number of records, Len4 + Len6.
func (x *Index[V]) Len() int {
	return x.size4 + x.size6
}

// Len4 returns the number of IPv4 records.
func (x *Index[V]) Len4() int {
	return x.size4
}

// Len6 returns the number of IPv6 records.
func (x *Index[V]) Len6() int {
	return x.size6
}

// Strategy returns the bucket search strategy the index was built with.
func (x *Index[V]) Strategy() Strategy {
	return x.strategy
}

// Stats returns the size buckets of the ip version, ascending by size.
func (x *Index[V]) Stats(is4 bool) []BucketStats {
	bs := x.bucketsByVersion(is4)

	stats := make([]BucketStats, 0, len(bs))
	for _, b := range bs {
		stats = append(stats, b.stats())
	}
	return stats
}
