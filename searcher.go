// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/gaissmai/rangeidx/internal/avl"
)

// Strategy selects the search structure inside a size bucket.
type Strategy int

const (
	// StrategyAVL stores the ranges of a bucket in a height-balanced
	// interval tree, O(log n) per bucket probe. This is the default.
	StrategyAVL Strategy = iota

	// StrategyLinear scans the ranges of a bucket in start order, O(n).
	// Useful as a reference and for tiny tables.
	StrategyLinear

	// StrategyBinary does a binary search over the ranges of a bucket
	// sorted by start, O(log n) without tree nodes.
	StrategyBinary
)

var strategyNames = [...]string{
	StrategyAVL:    "avl",
	StrategyLinear: "linear",
	StrategyBinary: "binary",
}

// Strategies lists all strategies, handy for table driven tests.
var Strategies = []Strategy{StrategyAVL, StrategyLinear, StrategyBinary}

// String returns the lower case strategy name.
func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseStrategy is the inverse of [Strategy.String], case insensitive.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if strings.EqualFold(name, n) {
			return Strategy(s), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// Searcher is the range-searchable capability of a size bucket:
// insert all ranges, then find the range containing a point.
//
// The ranges inserted into one Searcher must not overlap,
// otherwise Search may return any of the containing ranges.
type Searcher[V any] interface {
	// Insert adds rec, all records must be of the same IP version.
	Insert(rec *Record[V])

	// Search returns the record containing k.
	Search(k Key) (rec *Record[V], ok bool)

	// Len returns the number of records.
	Len() int

	// All iterates the records in ascending start order.
	All() iter.Seq[*Record[V]]
}

// NewSearcher returns an empty Searcher for strategy s.
// NewSearcher panics on an unknown strategy.
func NewSearcher[V any](s Strategy) Searcher[V] {
	switch s {
	case StrategyAVL:
		return &treeSearcher[V]{tree: avl.New(cmpRecordStart[V])}
	case StrategyLinear:
		return &linearSearcher[V]{}
	case StrategyBinary:
		return &binarySearcher[V]{}
	default:
		panic(fmt.Sprintf("rangeidx: unknown strategy %v", s))
	}
}

// cmpRecordStart orders records by start key, the insert order of the tree.
func cmpRecordStart[V any](a, b *Record[V]) int {
	return a.Start.u.Compare(b.Start.u)
}

// cmpPoint is the point-in-interval comparison:
//
//	-1  k < start, search left
//	+1  k > end, search right
//	 0  start <= k <= end, match
func cmpPoint[V any](k Key, rec *Record[V]) int {
	switch {
	case k.u.Less(rec.Start.u):
		return -1
	case rec.End.u.Less(k.u):
		return 1
	}
	return 0
}

// ###################################################################

type treeSearcher[V any] struct {
	tree *avl.Tree[*Record[V]]
}

func (s *treeSearcher[V]) Insert(rec *Record[V]) {
	s.tree.Insert(rec)
}

func (s *treeSearcher[V]) Search(k Key) (*Record[V], bool) {
	return s.tree.Search(func(rec *Record[V]) int { return cmpPoint(k, rec) })
}

func (s *treeSearcher[V]) Len() int {
	return s.tree.Len()
}

func (s *treeSearcher[V]) All() iter.Seq[*Record[V]] {
	return s.tree.All()
}

// ###################################################################

// sortedRecords keeps the records sorted by start on insert.
// Bucket construction inserts in start order, then this is an append.
type sortedRecords[V any] []*Record[V]

func (rs *sortedRecords[V]) Insert(rec *Record[V]) {
	i, _ := slices.BinarySearchFunc(*rs, rec, func(a, b *Record[V]) int {
		if c := cmpRecordStart(a, b); c != 0 {
			return c
		}
		return -1 // equal starts go behind existing ones
	})
	*rs = slices.Insert(*rs, i, rec)
}

func (rs *sortedRecords[V]) Len() int {
	return len(*rs)
}

func (rs *sortedRecords[V]) All() iter.Seq[*Record[V]] {
	return slices.Values(*rs)
}

type linearSearcher[V any] struct {
	sortedRecords[V]
}

func (s *linearSearcher[V]) Search(k Key) (*Record[V], bool) {
	for _, rec := range s.sortedRecords {
		if cmpPoint(k, rec) == 0 {
			return rec, true
		}
	}
	return nil, false
}

type binarySearcher[V any] struct {
	sortedRecords[V]
}

func (s *binarySearcher[V]) Search(k Key) (*Record[V], bool) {
	rs := s.sortedRecords

	// same loop as a plain binary search, interval compare at the pivot
	i, j := 0, len(rs)
	for i < j {
		h := int(uint(i+j) >> 1)
		switch cmpPoint(k, rs[h]) {
		case 1:
			i = h + 1
		case -1:
			j = h
		default:
			return rs[h], true
		}
	}
	return nil, false
}
