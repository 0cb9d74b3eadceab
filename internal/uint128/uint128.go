// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package uint128 implements the fixed-width 128 bit unsigned arithmetic
// needed for IPv6 address keys: compare, add and subtract with carry,
// shift-based powers of two and conversion to netip.Addr and big.Int.
//
// All operations are value based and allocation free, except Big.
package uint128

import (
	"math/big"
	"math/bits"
	"net/netip"
)

// Uint128 is an unsigned 128 bit integer, comparable with ==.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Zero and Max are the bounds of the value space.
var (
	Zero = Uint128{}
	Max  = Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}
)

// From64 returns v as Uint128.
func From64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// FromAddr returns the address bits of ip, IPv4 addresses
// occupy the low 32 bits.
func FromAddr(ip netip.Addr) Uint128 {
	if ip.Is4() {
		b := ip.As4()
		return Uint128{Lo: uint64(b[0])<<24 | uint64(b[1])<<16 | uint64(b[2])<<8 | uint64(b[3])}
	}

	b := ip.As16()
	return Uint128{
		Hi: be64(b[:8]),
		Lo: be64(b[8:]),
	}
}

// Addr4 returns the low 32 bits as IPv4 address.
func (u Uint128) Addr4() netip.Addr {
	return netip.AddrFrom4([4]byte{byte(u.Lo >> 24), byte(u.Lo >> 16), byte(u.Lo >> 8), byte(u.Lo)})
}

// Addr6 returns u as IPv6 address.
func (u Uint128) Addr6() netip.Addr {
	var b [16]byte
	putBe64(b[:8], u.Hi)
	putBe64(b[8:], u.Lo)
	return netip.AddrFrom16(b)
}

// Compare returns -1, 0 or +1.
func (u Uint128) Compare(v Uint128) int {
	switch {
	case u.Hi < v.Hi:
		return -1
	case u.Hi > v.Hi:
		return 1
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	}
	return 0
}

// Less reports whether u < v.
func (u Uint128) Less(v Uint128) bool {
	return u.Hi < v.Hi || (u.Hi == v.Hi && u.Lo < v.Lo)
}

// IsZero reports whether u == 0.
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Add returns u+v and the carry out, the sum wraps on overflow.
func (u Uint128) Add(v Uint128) (sum Uint128, carry uint64) {
	var c uint64
	sum.Lo, c = bits.Add64(u.Lo, v.Lo, 0)
	sum.Hi, carry = bits.Add64(u.Hi, v.Hi, c)
	return sum, carry
}

// Sub returns u-v and the borrow out, the difference wraps on underflow.
func (u Uint128) Sub(v Uint128) (diff Uint128, borrow uint64) {
	var b uint64
	diff.Lo, b = bits.Sub64(u.Lo, v.Lo, 0)
	diff.Hi, borrow = bits.Sub64(u.Hi, v.Hi, b)
	return diff, borrow
}

// Mask returns the value with the lowest n bits set, n in [0..128].
// Mask(n) is 2^n - 1, the span of a block of size 2^n.
func Mask(n int) Uint128 {
	switch {
	case n <= 0:
		return Zero
	case n >= 128:
		return Max
	case n >= 64:
		return Uint128{Hi: 1<<(n-64) - 1, Lo: ^uint64(0)}
	default:
		return Uint128{Lo: 1<<n - 1}
	}
}

// Big returns u as newly allocated big.Int.
func (u Uint128) Big() *big.Int {
	z := new(big.Int).SetUint64(u.Hi)
	z.Lsh(z, 64)
	return z.Or(z, new(big.Int).SetUint64(u.Lo))
}

// BigPlusOne returns u+1 as newly allocated big.Int, exact even for Max.
func (u Uint128) BigPlusOne() *big.Int {
	z := u.Big()
	return z.Add(z, big.NewInt(1))
}

func be64(b []byte) uint64 {
	_ = b[7] // bounds check hint to compiler
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}

func putBe64(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}
