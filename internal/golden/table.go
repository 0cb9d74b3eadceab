// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package golden provides a simple and slow range table as golden
// reference for the range index.
package golden

import (
	"cmp"
	"fmt"
	"math/big"
	"net/netip"
	"slices"
)

// Table is a simple and slow range table, implemented as a slice of ranges
// and values as a golden reference for rangeidx.
type Table[V any] []TableItem[V]

type TableItem[V any] struct {
	First netip.Addr
	Last  netip.Addr
	Val   V
}

func (g TableItem[V]) String() string {
	return fmt.Sprintf("(%s-%s, %v)", g.First, g.Last, g.Val)
}

// Contains reports whether ip is in [First, Last].
func (g TableItem[V]) Contains(ip netip.Addr) bool {
	return ip.Is4() == g.First.Is4() && g.First.Compare(ip) <= 0 && ip.Compare(g.Last) <= 0
}

// Size returns Last - First + 1.
func (g TableItem[V]) Size() *big.Int {
	first := new(big.Int).SetBytes(g.First.AsSlice())
	last := new(big.Int).SetBytes(g.Last.AsSlice())
	return last.Sub(last, first).Add(last, big.NewInt(1))
}

// Insert adds the range [first, last], an equal range gets the new value.
func (t *Table[V]) Insert(first, last netip.Addr, val V) {
	for i, item := range *t {
		if item.First == first && item.Last == last {
			(*t)[i].Val = val // de-dupe
			return
		}
	}
	*t = append(*t, TableItem[V]{first, last, val})
}

// InsertPrefix adds the range covered by pfx.
func (t *Table[V]) InsertPrefix(pfx netip.Prefix, val V) {
	pfx = pfx.Masked()
	t.Insert(pfx.Addr(), LastAddr(pfx), val)
}

// Lookup returns the smallest range containing ip.
func (t Table[V]) Lookup(ip netip.Addr) (item TableItem[V], ok bool) {
	var best *big.Int

	for _, it := range t {
		if !it.Contains(ip) {
			continue
		}
		if size := it.Size(); best == nil || size.Cmp(best) < 0 {
			item, best, ok = it, size, true
		}
	}
	return item, ok
}

// Supernets returns all ranges containing ip, smallest first.
func (t Table[V]) Supernets(ip netip.Addr) []TableItem[V] {
	var result []TableItem[V]

	for _, it := range t {
		if it.Contains(ip) {
			result = append(result, it)
		}
	}
	slices.SortStableFunc(result, func(a, b TableItem[V]) int {
		return a.Size().Cmp(b.Size())
	})
	return result
}

// Sort, inplace by first address, then by last address.
func (t *Table[V]) Sort() {
	slices.SortFunc(*t, func(a, b TableItem[V]) int {
		return cmp.Or(a.First.Compare(b.First), a.Last.Compare(b.Last))
	})
}

// LastAddr returns the last address in pfx.
func LastAddr(pfx netip.Prefix) netip.Addr {
	pfx = pfx.Masked()
	b := pfx.Addr().AsSlice()

	hostBits := len(b)*8 - pfx.Bits()
	for i := len(b) - 1; i >= 0 && hostBits > 0; i-- {
		n := min(hostBits, 8)
		b[i] |= byte(1<<n - 1)
		hostBits -= n
	}

	ip, _ := netip.AddrFromSlice(b)
	return ip
}
