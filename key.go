// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"fmt"
	"net/netip"

	"github.com/gaissmai/rangeidx/internal/uint128"
)

// Key is an IP address as fixed-width unsigned integer plus the IP version.
//
// IPv4 keys occupy the low 32 bits, IPv6 keys all 128 bits.
// Keys of different versions are never ordered against each other,
// the index keeps them in separate bucket lists.
//
// The zero Key is invalid.
type Key struct {
	u     uint128.Uint128
	is4   bool
	valid bool
}

// KeyFromAddr returns the Key for ip, a zone is dropped.
// An invalid ip returns the invalid zero Key.
//
// IPv4-mapped IPv6 addresses (::ffff:192.0.2.1) are IPv6 keys,
// they are not unmapped. Callers should unmap them before the lookup
// if the table holds native IPv4 ranges.
func KeyFromAddr(ip netip.Addr) Key {
	if !ip.IsValid() {
		return Key{}
	}
	return Key{u: uint128.FromAddr(ip), is4: ip.Is4(), valid: true}
}

// ParseKey parses s as IPv4 or IPv6 address.
func ParseKey(s string) (Key, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return Key{}, err
	}
	return KeyFromAddr(ip), nil
}

// MustParseKey is like ParseKey but panics on error.
// Intended for tests and static initialization.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// IsValid reports whether k was built from a valid address.
func (k Key) IsValid() bool {
	return k.valid
}

// Is4 reports whether k is an IPv4 key.
func (k Key) Is4() bool {
	return k.is4
}

// Version returns 4 or 6, or 0 for the invalid Key.
func (k Key) Version() int {
	switch {
	case !k.valid:
		return 0
	case k.is4:
		return 4
	default:
		return 6
	}
}

// bits returns the width of the version's address space.
func (k Key) bits() int {
	if k.is4 {
		return 32
	}
	return 128
}

// Addr converts k back to netip.Addr.
func (k Key) Addr() netip.Addr {
	switch {
	case !k.valid:
		return netip.Addr{}
	case k.is4:
		return k.u.Addr4()
	default:
		return k.u.Addr6()
	}
}

// String returns the textual address, or "invalid Key".
func (k Key) String() string {
	if !k.valid {
		return "invalid Key"
	}
	return k.Addr().String()
}

// Compare returns -1, 0 or +1 comparing k with o as unsigned integers.
// Compare panics if k and o differ in version.
func (k Key) Compare(o Key) int {
	if k.is4 != o.is4 {
		panic(fmt.Sprintf("rangeidx: comparing keys of different versions: %s, %s", k, o))
	}
	return k.u.Compare(o.u)
}

// Less reports whether k < o. Same version only, see [Key.Compare].
func (k Key) Less(o Key) bool {
	return k.Compare(o) < 0
}

// Add returns k+n. ok is false if the sum leaves the address space of
// the version, e.g. 255.255.255.255 + 1.
func (k Key) Add(n uint64) (sum Key, ok bool) {
	if !k.valid {
		return Key{}, false
	}

	u, carry := k.u.Add(uint128.From64(n))
	if carry != 0 || (k.is4 && u.Compare(uint128.Mask(32)) > 0) {
		return Key{}, false
	}

	return Key{u: u, is4: k.is4, valid: true}, true
}

// span returns hi-lo, same version and lo <= hi required.
func span(lo, hi Key) uint128.Uint128 {
	d, _ := hi.u.Sub(lo.u)
	return d
}

// MarshalText implements the [encoding.TextMarshaler] interface,
// the invalid Key marshals to the empty string.
func (k Key) MarshalText() ([]byte, error) {
	if !k.valid {
		return []byte(""), nil
	}
	return k.Addr().MarshalText()
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface,
// the empty string unmarshals to the invalid Key.
func (k *Key) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = Key{}
		return nil
	}

	ip, err := netip.ParseAddr(string(text))
	if err != nil {
		return err
	}
	*k = KeyFromAddr(ip)
	return nil
}
