// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"fmt"
	"math/big"
	"net/netip"
	"strings"

	"github.com/gaissmai/rangeidx/internal/uint128"
)

// Range is the closed interval [Start, End] of addresses.
type Range struct {
	Start Key
	End   Key
}

// Record is a Range together with the text it was parsed from
// and an opaque payload. The index never reads or modifies Value.
type Record[V any] struct {
	Range

	// Text is the original range specification, e.g. "10.0.0.0/8".
	Text  string
	Value V
}

// NewRecord parses text with [ParseRange] and attaches val.
// ok is false for degenerate ranges, which must be skipped by the caller.
func NewRecord[V any](text string, val V) (rec Record[V], ok bool, err error) {
	r, ok, err := ParseRange(text)
	if err != nil || !ok {
		return rec, ok, err
	}
	return Record[V]{Range: r, Text: text, Value: val}, true, nil
}

// ParseRange parses a range specification in one of two forms:
//
//	"A-B"  explicit first and last address, e.g. 10.24.164.0-10.24.171.255
//	"A/n"  CIDR, the address is masked to the network, e.g. 2001:db8::/32
//
// A CIDR with prefix length 0 or with the unspecified network address
// (0.0.0.0, ::) is degenerate: ParseRange returns ok == false and no error.
// Everything else that does not parse is an [ErrMalformedRange].
func ParseRange(s string) (r Range, ok bool, err error) {
	switch {
	case strings.Contains(s, "-"):
		r, err = parseDashRange(s)
		return r, err == nil, err
	case strings.Contains(s, "/"):
		return parseCIDRRange(s)
	default:
		return r, false, fmt.Errorf("%w: %q", ErrMalformedRange, s)
	}
}

func parseDashRange(s string) (Range, error) {
	first, last, _ := strings.Cut(s, "-")
	if strings.Contains(last, "-") {
		return Range{}, fmt.Errorf("%w: %q, too many dashes", ErrMalformedRange, s)
	}

	start, err := netip.ParseAddr(strings.TrimSpace(first))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", ErrMalformedRange, s, err)
	}

	end, err := netip.ParseAddr(strings.TrimSpace(last))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", ErrMalformedRange, s, err)
	}

	r := Range{Start: KeyFromAddr(start), End: KeyFromAddr(end)}
	if !r.IsValid() {
		return Range{}, fmt.Errorf("%w: %q, mixed versions or start after end", ErrMalformedRange, s)
	}

	return r, nil
}

func parseCIDRRange(s string) (Range, bool, error) {
	pfx, err := netip.ParsePrefix(strings.TrimSpace(s))
	if err != nil {
		return Range{}, false, fmt.Errorf("%w: %q: %w", ErrMalformedRange, s, err)
	}

	// host bits are masked off, 0.0.0.1/8 is the degenerate 0.0.0.0/8
	if pfx.Bits() == 0 || pfx.Masked().Addr().IsUnspecified() {
		return Range{}, false, nil
	}

	return RangeFromPrefix(pfx), true, nil
}

// RangeFromPrefix returns the range covered by pfx, from the masked
// network address to the last address of the block.
// An invalid pfx returns the invalid zero Range.
func RangeFromPrefix(pfx netip.Prefix) Range {
	if !pfx.IsValid() {
		return Range{}
	}

	start := KeyFromAddr(pfx.Masked().Addr())

	// start is masked, adding the host mask never carries
	end := start
	end.u, _ = start.u.Add(uint128.Mask(start.bits() - pfx.Bits()))

	return Range{Start: start, End: end}
}

// IsValid reports whether both keys are valid, of the same version
// and Start <= End.
func (r Range) IsValid() bool {
	return r.Start.IsValid() && r.End.IsValid() &&
		r.Start.is4 == r.End.is4 &&
		!r.End.u.Less(r.Start.u)
}

// Is4 reports whether r is an IPv4 range.
func (r Range) Is4() bool {
	return r.Start.is4
}

// Contains reports whether k lies in [Start, End].
// Keys of the other version are never contained.
func (r Range) Contains(k Key) bool {
	if !k.valid || k.is4 != r.Start.is4 {
		return false
	}
	return !k.u.Less(r.Start.u) && !r.End.u.Less(k.u)
}

// Size returns the exact number of addresses in r, End - Start + 1.
// The full IPv6 space has size 2^128, hence big.Int.
func (r Range) Size() *big.Int {
	return r.span().BigPlusOne()
}

// span is Size-1, it fits in 128 bits and orders like Size.
func (r Range) span() uint128.Uint128 {
	return span(r.Start, r.End)
}

// Prefix returns the CIDR equal to r, ok is false if r is no CIDR block.
func (r Range) Prefix() (pfx netip.Prefix, ok bool) {
	if !r.IsValid() {
		return pfx, false
	}

	d := r.span()
	plus, carry := d.Add(uint128.From64(1))

	// size must be a power of two: size & (size-1) == 0
	if carry == 0 && (plus.Hi&d.Hi != 0 || plus.Lo&d.Lo != 0) {
		return pfx, false
	}

	hostBits := 0
	for hostBits < 128 && uint128.Mask(hostBits) != d {
		hostBits++
	}

	pfx = netip.PrefixFrom(r.Start.Addr(), r.Start.bits()-hostBits)
	if pfx.Masked() != pfx {
		return netip.Prefix{}, false
	}
	return pfx, true
}

// String returns "Start-End".
func (r Range) String() string {
	if !r.IsValid() {
		return "invalid Range"
	}
	return r.Start.String() + "-" + r.End.String()
}
