// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

// this file contains helpers for other test functions

// workLoadN to adjust loops for tests with -short
func workLoadN() int {
	if testing.Short() {
		return 100
	}
	return 1_000
}

// abbreviations
var (
	mpa = netip.MustParseAddr
	mpp = netip.MustParsePrefix
	mpk = MustParseKey
)

// mustRecords parses the range texts, the payload is the text itself.
// Degenerate ranges are skipped like the loader does.
func mustRecords(t *testing.T, texts ...string) []Record[string] {
	t.Helper()

	recs := make([]Record[string], 0, len(texts))
	for _, text := range texts {
		rec, ok, err := NewRecord(text, text)
		require.NoError(t, err, "range %q", text)
		if ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

// mustIndex builds an index from range texts with strategy s.
func mustIndex(t *testing.T, s Strategy, texts ...string) *Index[string] {
	t.Helper()

	x, err := New(mustRecords(t, texts...), WithStrategy(s))
	require.NoError(t, err)
	return x
}

// forEachStrategy runs fn as parallel subtest for every strategy.
func forEachStrategy(t *testing.T, fn func(t *testing.T, s Strategy)) {
	t.Helper()

	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			t.Parallel()
			fn(t, s)
		})
	}
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s must panic", name)
		}
	}()
	fn()
}

func noPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("%s panicked: %v", name, r)
		}
	}()
	fn()
}
