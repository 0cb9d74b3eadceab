// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package random generates addresses, prefixes and ranges for tests
// and benchmarks. All functions are deterministic for a seeded prng.
package random

import (
	"math/rand/v2"
	"net/netip"

	"github.com/gaissmai/rangeidx/internal/golden"
)

var mpp = netip.MustParsePrefix

// IP4 returns a random IPv4 address.
func IP4(prng *rand.Rand) netip.Addr {
	var b [4]byte
	for i := range b {
		b[i] = byte(prng.Uint32() & 0xff)
	}
	return netip.AddrFrom4(b)
}

// IP6 returns a random IPv6 address.
func IP6(prng *rand.Rand) netip.Addr {
	var b [16]byte
	for i := range b {
		b[i] = byte(prng.Uint32() & 0xff)
	}
	return netip.AddrFrom16(b)
}

// IP returns a random IPv4 or IPv6 address.
func IP(prng *rand.Rand) netip.Addr {
	if prng.IntN(2) == 1 {
		return IP4(prng)
	}
	return IP6(prng)
}

// Prefix4 returns a random masked IPv4 prefix, /0 to /32.
func Prefix4(prng *rand.Rand) netip.Prefix {
	pfx, err := IP4(prng).Prefix(prng.IntN(33))
	if err != nil {
		panic(err)
	}
	return pfx
}

// Prefix6 returns a random masked IPv6 prefix, /0 to /128.
func Prefix6(prng *rand.Rand) netip.Prefix {
	pfx, err := IP6(prng).Prefix(prng.IntN(129))
	if err != nil {
		panic(err)
	}
	return pfx
}

// Prefix returns a random IPv4 or IPv6 prefix.
func Prefix(prng *rand.Rand) netip.Prefix {
	if prng.IntN(2) == 1 {
		return Prefix4(prng)
	}
	return Prefix6(prng)
}

// RealWorldPrefixes4 returns n unique IPv4 prefixes /8 to /28,
// outside of 240.0.0.0/8 and never with the network address 0.0.0.0.
func RealWorldPrefixes4(prng *rand.Rand, n int) []netip.Prefix {
	reserved := mpp("240.0.0.0/8")

	seen := make(map[netip.Prefix]bool, n)
	pfxs := make([]netip.Prefix, 0, n)

	for len(pfxs) < n {
		pfx, _ := IP4(prng).Prefix(8 + prng.IntN(21))
		if seen[pfx] || pfx.Overlaps(reserved) || pfx.Addr().IsUnspecified() {
			continue
		}
		seen[pfx] = true
		pfxs = append(pfxs, pfx)
	}
	return pfxs
}

// RealWorldPrefixes6 returns n unique IPv6 prefixes /16 to /64
// within the global unicast range 2000::/3.
func RealWorldPrefixes6(prng *rand.Rand, n int) []netip.Prefix {
	globalUnicast := mpp("2000::/3")

	seen := make(map[netip.Prefix]bool, n)
	pfxs := make([]netip.Prefix, 0, n)

	for len(pfxs) < n {
		b := IP6(prng).As16()
		b[0] = 0x20 | b[0]&0x1f // force 2000::/3

		pfx, _ := netip.AddrFrom16(b).Prefix(16 + prng.IntN(49))
		if seen[pfx] || !globalUnicast.Contains(pfx.Addr()) {
			continue
		}
		seen[pfx] = true
		pfxs = append(pfxs, pfx)
	}
	return pfxs
}

// Range is a closed address interval.
type Range struct {
	First netip.Addr
	Last  netip.Addr
}

// String returns "First-Last", the dash form of the range parser.
func (r Range) String() string {
	return r.First.String() + "-" + r.Last.String()
}

// Ranges4 returns n IPv4 ranges with random start and a random size of
// 1 to maxSize addresses. Ranges of equal size never overlap.
func Ranges4(prng *rand.Rand, n int, maxSize uint32) []Range {
	type sizedRange struct {
		first, last uint32
	}

	bySize := make(map[uint32][]sizedRange)
	ranges := make([]Range, 0, n)

NEXT:
	for len(ranges) < n {
		size := 1 + prng.Uint32N(maxSize)
		first := prng.Uint32N(^uint32(0) - size + 1)
		last := first + size - 1

		for _, r := range bySize[size] {
			if first <= r.last && r.first <= last {
				continue NEXT
			}
		}
		bySize[size] = append(bySize[size], sizedRange{first, last})

		ranges = append(ranges, Range{First: addr4(first), Last: addr4(last)})
	}
	return ranges
}

// Golden returns a golden table with all ranges, the value is the
// index into ranges.
func Golden(ranges []Range) *golden.Table[int] {
	gold := new(golden.Table[int])
	for i, r := range ranges {
		gold.Insert(r.First, r.Last, i)
	}
	return gold
}

func addr4(u uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)})
}
