// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"errors"
	"math/big"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		start string
		end   string
		size  string
	}{
		{"10.24.164.0-10.24.171.255", "10.24.164.0", "10.24.171.255", "2048"},
		{"192.168.1.10-192.168.1.20", "192.168.1.10", "192.168.1.20", "11"},
		{"192.168.1.10 - 192.168.1.10", "192.168.1.10", "192.168.1.10", "1"},
		{"0.0.0.0-255.255.255.255", "0.0.0.0", "255.255.255.255", "4294967296"},
		{"2001:db8::1-2001:db8::ff", "2001:db8::1", "2001:db8::ff", "255"},
		{"::-ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff", "::", "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff",
			"340282366920938463463374607431768211456"},
		{"2.2.2.0/24", "2.2.2.0", "2.2.2.255", "256"},
		{"10.0.0.0/8", "10.0.0.0", "10.255.255.255", "16777216"},
		{"10.1.2.3/32", "10.1.2.3", "10.1.2.3", "1"},
		{"10.1.2.3/24", "10.1.2.0", "10.1.2.255", "256"}, // masked
		{"10.0.0.1/8", "10.0.0.0", "10.255.255.255", "16777216"},
		{"262A:0:2D0:200::7/32", "262a::", "262a:0:ffff:ffff:ffff:ffff:ffff:ffff", "79228162514264337593543950336"},
		{"2001:db8::1/128", "2001:db8::1", "2001:db8::1", "1"},
		{"8000::/1", "8000::", "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff", "170141183460469231731687303715884105728"},
	}

	for _, tt := range tests {
		r, ok, err := ParseRange(tt.in)
		require.NoError(t, err, tt.in)
		require.True(t, ok, tt.in)

		assert.Equal(t, mpk(tt.start), r.Start, tt.in)
		assert.Equal(t, mpk(tt.end), r.End, tt.in)

		want, _ := new(big.Int).SetString(tt.size, 10)
		assert.Zero(t, want.Cmp(r.Size()), "%s: size %s, want %s", tt.in, r.Size(), tt.size)
	}
}

func TestParseRangeDegenerate(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"0.0.0.0/0", "::/0", "10.0.0.0/0", "2001:db8::/0", "0.0.0.0/8", "::/16", "0:0::0/64", "0.0.0.1/8", "::1/64"} {
		r, ok, err := ParseRange(in)
		assert.NoError(t, err, in)
		assert.False(t, ok, in)
		assert.False(t, r.IsValid(), in)
	}
}

func TestParseRangeMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"10.0.0.1",
		"2001:db8::",
		"foo",
		"10.0.0.1-10.0.0.2-10.0.0.3",
		"10.0.0.5-10.0.0.1",   // start after end
		"10.0.0.1-2001:db8::", // mixed versions
		"10.0.0.1-",
		"-10.0.0.1",
		"10.0.0.0/33",
		"10.0.0.0/x",
		"2001:db8::/129",
		"10.0.0/8",
	} {
		_, ok, err := ParseRange(in)
		assert.False(t, ok, in)
		assert.True(t, errors.Is(err, ErrMalformedRange), "%q: got %v", in, err)
	}
}

func TestNewRecord(t *testing.T) {
	t.Parallel()

	rec, ok, err := NewRecord("10.1.2.0/24", 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "10.1.2.0/24", rec.Text)
	assert.Equal(t, 42, rec.Value)
	assert.Equal(t, mpk("10.1.2.0"), rec.Start)
	assert.Equal(t, mpk("10.1.2.255"), rec.End)

	_, ok, err = NewRecord("0.0.0.0/0", 42)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = NewRecord("junk", 42)
	assert.ErrorIs(t, err, ErrMalformedRange)
	assert.False(t, ok)
}

func TestRangeContains(t *testing.T) {
	t.Parallel()

	r := RangeFromPrefix(mpp("10.1.2.0/24"))

	assert.True(t, r.Contains(mpk("10.1.2.0")))
	assert.True(t, r.Contains(mpk("10.1.2.255")))
	assert.False(t, r.Contains(mpk("10.1.3.0")))
	assert.False(t, r.Contains(mpk("10.1.1.255")))
	assert.False(t, r.Contains(mpk("::a01:200")), "other version")
	assert.False(t, r.Contains(Key{}), "invalid key")
}

func TestRangeIsValid(t *testing.T) {
	t.Parallel()

	assert.False(t, Range{}.IsValid())
	assert.False(t, Range{Start: mpk("1.1.1.1")}.IsValid())
	assert.False(t, Range{Start: mpk("1.1.1.2"), End: mpk("1.1.1.1")}.IsValid())
	assert.False(t, Range{Start: mpk("1.1.1.1"), End: mpk("::1")}.IsValid())
	assert.True(t, Range{Start: mpk("1.1.1.1"), End: mpk("1.1.1.1")}.IsValid())

	assert.Equal(t, "invalid Range", Range{}.String())
	assert.Equal(t, "1.1.1.1-1.1.1.9", Range{Start: mpk("1.1.1.1"), End: mpk("1.1.1.9")}.String())
	assert.True(t, RangeFromPrefix(mpp("10.0.0.0/8")).IsValid())
	assert.False(t, RangeFromPrefix(netip.Prefix{}).IsValid())
}

func TestRangePrefix(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"10.0.0.0/8", "10.1.2.0/24", "10.1.2.3/32", "0.0.0.0/0", "2001:db8::/32", "::/0", "::1/128"} {
		pfx, ok := RangeFromPrefix(mpp(s)).Prefix()
		assert.True(t, ok, s)
		assert.Equal(t, mpp(s), pfx)
	}

	for _, s := range []string{
		"10.0.0.1-10.0.0.2", // size 2, not aligned
		"10.0.0.0-10.0.0.2", // size 3
		"2001:db8::-2001:db8::2",
	} {
		r, _, err := ParseRange(s)
		require.NoError(t, err)
		_, ok := r.Prefix()
		assert.False(t, ok, s)
	}

	_, ok := Range{}.Prefix()
	assert.False(t, ok)
}
