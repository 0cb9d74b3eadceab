// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/gaissmai/rangeidx"
	"github.com/gaissmai/rangeidx/csvload"
	"github.com/gaissmai/rangeidx/internal/metrics"
	"github.com/gaissmai/rangeidx/internal/verify"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatProm = "prom"
)

// topLengths is the number of largest buckets in the text stats.
const topLengths = 10

// maxFailures printed by verify, all are counted.
const maxFailures = 20

func formatFlag(allowed ...string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "output format, one of " + strings.Join(allowed, ", "),
		Value: allowed[0],
		Action: func(_ *cli.Context, v string) error {
			if !slices.Contains(allowed, v) {
				return errors.Errorf("unknown format %q, want one of %s", v, strings.Join(allowed, ", "))
			}
			return nil
		},
	}
}

func lookupCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "print the most specific range for each address",
		ArgsUsage: "ADDR...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "supernets",
				Aliases: []string{"s"},
				Usage:   "print all containing ranges, smallest first",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("missing address argument", 2)
			}

			ips := make([]netip.Addr, 0, c.NArg())
			for _, arg := range c.Args().Slice() {
				ip, err := netip.ParseAddr(strings.TrimSpace(arg))
				if err != nil {
					return cli.Exit(fmt.Sprintf("invalid address %q", arg), 2)
				}
				ips = append(ips, ip)
			}

			x, _, err := e.loadIndex()
			if err != nil {
				return err
			}

			var misses int
			for _, ip := range ips {
				rec, ok := x.Lookup(ip)
				if !ok {
					misses++
					fmt.Fprintf(e.stdout, "%s = %s\n", ip, e.miss.Sprint("NOT_FOUND"))
					continue
				}
				fmt.Fprintf(e.stdout, "%s = %s (%s)\n", ip, e.hit.Sprint(rec.Text), rec.Value)

				if !c.Bool("supernets") {
					continue
				}
				for sup := range x.Supernets(ip) {
					if sup.Range == rec.Range {
						continue
					}
					fmt.Fprintf(e.stdout, "  in %s (%s)\n", sup.Text, sup.Value)
				}
			}

			if misses > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d addresses not found", misses, len(ips)), 1)
			}
			return nil
		},
	}
}

// statsReport is the JSON output of the stats command.
type statsReport struct {
	Load     csvload.Stats          `json:"load"`
	Strategy string                 `json:"strategy"`
	IPv4     []rangeidx.BucketStats `json:"ipv4"`
	IPv6     []rangeidx.BucketStats `json:"ipv6"`
}

func statsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print the bucket statistics of the index",
		Flags: []cli.Flag{formatFlag(formatText, formatJSON, formatProm)},
		Action: func(c *cli.Context) error {
			x, load, err := e.loadIndex()
			if err != nil {
				return err
			}

			switch c.String("format") {
			case formatJSON:
				report := statsReport{
					Load:     load,
					Strategy: x.Strategy().String(),
					IPv4:     x.Stats(true),
					IPv6:     x.Stats(false),
				}
				enc := json.NewEncoder(e.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)

			case formatProm:
				return metrics.WriteText(e.stdout, metrics.NewCollector(x))

			default:
				fmt.Fprintf(e.stdout, "%s %d rows, %d records, %d degenerate, strategy %s\n",
					e.bold.Sprint("loaded"), load.Rows, load.Records, load.Degenerate, x.Strategy())

				for _, v := range []struct {
					is4  bool
					name string
					n    int
				}{
					{true, "IPv4", x.Len4()},
					{false, "IPv6", x.Len6()},
				} {
					stats := x.Stats(v.is4)
					fmt.Fprintf(e.stdout, "%s %d ranges in %d buckets\n", e.bold.Sprint(v.name), v.n, len(stats))
					if len(stats) == 0 {
						continue
					}
					fmt.Fprintf(e.stdout, "  top lengths: %s\n", topBuckets(stats, topLengths))
				}
				return nil
			}
		},
	}
}

// topBuckets formats the n buckets with the most records,
// largest first, as "size S (len)".
func topBuckets(stats []rangeidx.BucketStats, n int) string {
	stats = slices.Clone(stats)
	slices.SortStableFunc(stats, func(a, b rangeidx.BucketStats) int {
		return cmp.Compare(b.Len, a.Len)
	})

	if len(stats) > n {
		stats = stats[:n]
	}

	parts := make([]string, 0, len(stats))
	for _, bs := range stats {
		parts = append(parts, fmt.Sprintf("size %s (%d)", bs.Size, bs.Len))
	}
	return strings.Join(parts, ", ")
}

func dumpCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "print all buckets and ranges in lookup order",
		Flags: []cli.Flag{formatFlag(formatText, formatJSON)},
		Action: func(c *cli.Context) error {
			x, _, err := e.loadIndex()
			if err != nil {
				return err
			}

			if c.String("format") == formatJSON {
				enc := json.NewEncoder(e.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(x)
			}
			return x.Fprint(e.stdout)
		},
	}
}

func verifyCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "expand probe ranges into addresses and verify every lookup",
		ArgsUsage: "[!]RANGE...",
		Description: "Each probe range must be fully covered by the index. A leading '!'\n" +
			"marks a probe that must not match at all. Without arguments the\n" +
			"probes are taken from the config file.",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "per-range",
				Usage: "addresses taken from each probe range",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "print the lookup metrics after the run",
			},
		},
		Action: func(c *cli.Context) error {
			texts := c.Args().Slice()
			if len(texts) == 0 {
				texts = e.cfg.Verify.Probes
			}
			if len(texts) == 0 {
				return cli.Exit("no probe ranges, give them as arguments or in the config file", 2)
			}

			probes := make([]verify.Probe, 0, len(texts))
			for _, text := range texts {
				p, err := verify.ParseProbe(strings.TrimSpace(text))
				if err != nil {
					return cli.Exit(err.Error(), 2)
				}
				probes = append(probes, p)
			}

			perRange := e.cfg.Verify.PerRange
			if c.IsSet("per-range") {
				perRange = c.Uint64("per-range")
			}

			x, _, err := e.loadIndex()
			if err != nil {
				return err
			}

			collector := metrics.NewCollector(x)
			res, err := verify.Run(c.Context, x, probes, verify.Config{
				PerRange: perRange,
				Logger:   e.lg,
				Observer: collector,
			})
			if err != nil {
				return err
			}

			for i, f := range res.Failures {
				if i == maxFailures {
					fmt.Fprintf(e.stdout, "... %d more\n", len(res.Failures)-maxFailures)
					break
				}
				fmt.Fprintf(e.stdout, "%s %s\n", e.miss.Sprint("FAIL"), f)
			}

			status := e.hit.Sprint("OK")
			if !res.OK() {
				status = e.miss.Sprint("FAILED")
			}
			fmt.Fprintf(e.stdout, "%s %d lookups, %d hits, %d misses, %d failures in %s\n",
				status, res.Lookups, res.Hits, res.Misses, len(res.Failures), res.Elapsed)

			if c.Bool("metrics") {
				if err := metrics.WriteText(e.stdout, collector); err != nil {
					return err
				}
			}

			if !res.OK() {
				return cli.Exit("verification failed", 1)
			}
			return nil
		},
	}
}
