// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package rangeidx provides a static index of IPv4 and IPv6 address ranges
// for fast most-specific-match lookups.
//
// A range is either a CIDR ("10.0.0.0/8") or an explicit interval
// ("192.168.1.10-192.168.1.20") with an arbitrary payload V. Given an
// address, [Index.Lookup] returns the smallest range containing it.
//
// The index is built once from all records by [New]:
//
//   - records are split by IP version
//   - each version is partitioned into buckets of identical range size
//   - each bucket holds its non-overlapping ranges in a search structure,
//     by default a height-balanced interval tree
//
// A lookup probes the buckets in ascending size order. Every bucket caches
// the outer bounds of its ranges and is skipped in O(1) if the address is
// outside. The first bucket with a containing range wins, later buckets are
// never touched. With b buckets and n ranges a lookup costs O(b log n).
//
// The search structure per bucket is selectable with [WithStrategy],
// a linear scan and a binary search over a sorted slice are available
// besides the tree, mainly as reference and for benchmarks.
//
// An Index is immutable, concurrent lookups need no locking.
package rangeidx
