// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package verify expands probe ranges into addresses, looks them up in
// an index and checks every answer. A probe either expects a match,
// then the returned range must contain the address and no smaller range
// may contain it, or it expects no match at all.
package verify

import (
	"context"
	"fmt"
	"iter"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/gaissmai/rangeidx"
)

// DefaultPerRange is the number of addresses taken from each probe range.
const DefaultPerRange = 256

// Probe is a range to expand into addresses.
type Probe struct {
	Range rangeidx.Range
	Text  string

	// WantMiss, all addresses must not match.
	WantMiss bool
}

// ParseProbe parses "range" or "!range", the bang marks an expected miss.
func ParseProbe(s string) (Probe, error) {
	var p Probe
	if len(s) > 0 && s[0] == '!' {
		p.WantMiss = true
		s = s[1:]
	}

	r, ok, err := rangeidx.ParseRange(s)
	if err != nil {
		return p, err
	}
	if !ok {
		return p, fmt.Errorf("%w: degenerate probe %q", rangeidx.ErrMalformedRange, s)
	}

	p.Range = r
	p.Text = s
	return p, nil
}

// Observer is notified about every lookup, see metrics.Collector.
type Observer interface {
	ObserveLookup(hit bool)
}

// Config for [Run].
type Config struct {
	// PerRange caps the addresses per probe range, the whole range is
	// expanded if it is smaller. Zero means DefaultPerRange.
	PerRange uint64

	Logger   *zap.Logger
	Observer Observer
}

// Failure is a wrong answer for one address.
type Failure struct {
	Addr   rangeidx.Key
	Probe  string
	Reason string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s (probe %s): %s", f.Addr, f.Probe, f.Reason)
}

// Result of a verification run.
type Result struct {
	Lookups  int
	Hits     int
	Misses   int
	Elapsed  time.Duration
	Failures []Failure
}

// OK reports whether every lookup gave the expected answer.
func (r Result) OK() bool {
	return len(r.Failures) == 0
}

// Addresses yields the first min(n, size) addresses of r.
func Addresses(r rangeidx.Range, n uint64) iter.Seq[rangeidx.Key] {
	return func(yield func(rangeidx.Key) bool) {
		if !r.IsValid() || n == 0 {
			return
		}

		if size := r.Size(); size.Cmp(new(big.Int).SetUint64(n)) < 0 {
			n = size.Uint64()
		}

		for i := range n {
			k, ok := r.Start.Add(i)
			if !ok || !yield(k) {
				return
			}
		}
	}
}

// Run verifies all probes against x. The context is checked between
// probe ranges, an error is only returned on cancellation.
func Run[V any](ctx context.Context, x *rangeidx.Index[V], probes []Probe, cfg Config) (Result, error) {
	var res Result

	if cfg.PerRange == 0 {
		cfg.PerRange = DefaultPerRange
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	start := time.Now()
	for _, p := range probes {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		for k := range Addresses(p.Range, cfg.PerRange) {
			rec, ok := x.LookupKey(k)

			res.Lookups++
			if ok {
				res.Hits++
			} else {
				res.Misses++
			}
			if cfg.Observer != nil {
				cfg.Observer.ObserveLookup(ok)
			}

			if reason := check(x, k, rec, ok, p.WantMiss); reason != "" {
				f := Failure{Addr: k, Probe: p.Text, Reason: reason}
				lg.Debug("verify failure", zap.Stringer("addr", k), zap.String("probe", p.Text), zap.String("reason", reason))
				res.Failures = append(res.Failures, f)
			}
		}
	}
	res.Elapsed = time.Since(start)

	lg.Info("verification done",
		zap.Int("probes", len(probes)),
		zap.Int("lookups", res.Lookups),
		zap.Int("hits", res.Hits),
		zap.Int("failures", len(res.Failures)),
		zap.Duration("took", res.Elapsed),
	)

	return res, nil
}

// check returns the reason why the lookup answer is wrong, or "".
func check[V any](x *rangeidx.Index[V], k rangeidx.Key, rec rangeidx.Record[V], ok, wantMiss bool) string {
	switch {
	case wantMiss && ok:
		return fmt.Sprintf("unexpected match %s", rec.Range)
	case wantMiss:
		return ""
	case !ok:
		return "not found"
	case !rec.Contains(k):
		return fmt.Sprintf("bad range %s", rec.Range)
	}

	for sup := range x.Supernets(k.Addr()) {
		if sup.Size().Cmp(rec.Size()) < 0 {
			return fmt.Sprintf("not most specific, %s is smaller than %s", sup.Range, rec.Range)
		}
	}
	return ""
}
