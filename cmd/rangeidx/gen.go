// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"net/netip"
	"slices"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/gaissmai/rangeidx"
	"github.com/gaissmai/rangeidx/csvload"
	"github.com/gaissmai/rangeidx/internal/tests/random"
)

// genRecords returns n unique real world like prefixes, half IPv4 and half
// IPv6, shuffled. The fraction dash of them is written in dash form.
// Distinct prefixes of the same length never overlap, the result always
// builds an index.
func genRecords(prng *rand.Rand, n int, dash float64) []string {
	pfxs := slices.Concat(
		random.RealWorldPrefixes4(prng, n/2),
		random.RealWorldPrefixes6(prng, n-n/2),
	)

	prng.Shuffle(len(pfxs), func(i, j int) {
		pfxs[i], pfxs[j] = pfxs[j], pfxs[i]
	})

	texts := make([]string, 0, len(pfxs))
	for _, pfx := range pfxs {
		if prng.Float64() < dash {
			texts = append(texts, rangeidx.RangeFromPrefix(pfx).String())
			continue
		}
		texts = append(texts, pfx.String())
	}
	return texts
}

func genCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "gen",
		Usage: "write random ranges as CSV to stdout, for tests and benchmarks",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1_000, Usage: "number of ranges"},
			&cli.Uint64Flag{Name: "seed", Value: 42, Usage: "prng seed"},
			&cli.Float64Flag{Name: "dash", Value: 0.25, Usage: "fraction of ranges in first-last form"},
		},
		Action: func(c *cli.Context) error {
			n := c.Int("count")
			if n < 0 {
				return cli.Exit("count must not be negative", 2)
			}

			seed := c.Uint64("seed")
			prng := rand.New(rand.NewPCG(seed, seed))

			w := csv.NewWriter(e.stdout)
			if err := w.Write([]string{csvload.DefaultRangeColumn, "Id"}); err != nil {
				return err
			}
			for i, text := range genRecords(prng, n, c.Float64("dash")) {
				if err := w.Write([]string{text, strconv.Itoa(i)}); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		},
	}
}

func benchCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "time lookups of random addresses for every strategy",
		Description: "The ranges are read from --file, or generated if no file is given.\n" +
			"Half of the probe addresses are taken from the ranges, half are random.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 10_000, Usage: "generated ranges without --file"},
			&cli.IntFlag{Name: "lookups", Value: 1_000_000, Usage: "lookups per strategy"},
			&cli.Uint64Flag{Name: "seed", Value: 42, Usage: "prng seed"},
		},
		Action: func(c *cli.Context) error {
			seed := c.Uint64("seed")
			prng := rand.New(rand.NewPCG(seed, seed))

			var recs []rangeidx.Record[csvload.Row]
			if e.cfg.File != "" {
				var err error
				if recs, _, err = csvload.LoadFile(e.cfg.File, e.cfg.CSV); err != nil {
					return err
				}
			} else {
				header := []string{csvload.DefaultRangeColumn}
				for _, text := range genRecords(prng, c.Int("count"), 0.25) {
					rec, ok, err := rangeidx.NewRecord(text, csvload.Row{Header: header, Fields: []string{text}})
					if err != nil {
						return err
					}
					if ok {
						recs = append(recs, rec)
					}
				}
			}
			if len(recs) == 0 {
				return cli.Exit("no ranges to benchmark", 2)
			}

			probes := make([]netip.Addr, 0, 1024)
			for range cap(probes) / 2 {
				probes = append(probes, recs[prng.IntN(len(recs))].Start.Addr(), random.IP(prng))
			}

			lookups := max(c.Int("lookups"), 1)
			for _, s := range rangeidx.Strategies {
				if err := c.Context.Err(); err != nil {
					return err
				}

				start := time.Now()
				x, err := rangeidx.New(recs, rangeidx.WithStrategy(s), rangeidx.WithConcurrency(e.cfg.Concurrency))
				if err != nil {
					return err
				}
				build := time.Since(start)

				var hits int
				start = time.Now()
				for i := range lookups {
					if _, ok := x.Lookup(probes[i%len(probes)]); ok {
						hits++
					}
				}
				took := time.Since(start)

				e.lg.Debug("bench", zap.Stringer("strategy", s), zap.Duration("build", build), zap.Duration("lookups", took))

				fmt.Fprintf(e.stdout, "%-8s %8d ranges  build %-12s %10d lookups %8.1f ns/op  %5.1f%% hits\n",
					s, len(recs), build.Round(time.Microsecond), lookups,
					float64(took.Nanoseconds())/float64(lookups),
					100*float64(hits)/float64(lookups))
			}
			return nil
		},
	}
}
