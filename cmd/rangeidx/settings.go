// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/gaissmai/rangeidx"
	"github.com/gaissmai/rangeidx/csvload"
	"github.com/gaissmai/rangeidx/internal/verify"
)

// settings are read from the optional YAML config file,
// command line flags override them.
type settings struct {
	File        string         `yaml:"file"`
	CSV         csvload.Config `yaml:"csv"`
	Strategy    string         `yaml:"strategy"`
	Concurrency int            `yaml:"concurrency"`
	LogFile     string         `yaml:"log_file"`
	Debug       bool           `yaml:"debug"`
	NoColor     bool           `yaml:"no_color"`

	Verify verifySettings `yaml:"verify"`
}

type verifySettings struct {
	PerRange uint64   `yaml:"per_range"`
	Probes   []string `yaml:"probes"`
}

func defaultSettings() settings {
	return settings{
		CSV: csvload.Config{
			RangeColumn: csvload.DefaultRangeColumn,
			Encoding:    csvload.EncodingLatin1,
			Comma:       ",",
		},
		Strategy:    rangeidx.StrategyAVL.String(),
		Concurrency: 1,
		Verify: verifySettings{
			PerRange: verify.DefaultPerRange,
		},
	}
}

// readSettings overlays the YAML file at path onto the defaults.
// Unknown keys are an error, typos in a config file should not pass silently.
func readSettings(path string) (settings, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, errors.Wrap(err, "read config")
	}

	if err := yaml.UnmarshalWithOptions(data, &s, yaml.Strict()); err != nil {
		return s, errors.Wrapf(err, "parse config %s", path)
	}
	return s, nil
}

// mergeFlags overrides the settings with all flags set on the command line
// or by environment.
func (s *settings) mergeFlags(c *cli.Context) {
	if c.IsSet(flagFile) {
		s.File = c.String(flagFile)
	}
	if c.IsSet(flagRangeColumn) {
		s.CSV.RangeColumn = c.String(flagRangeColumn)
	}
	if c.IsSet(flagEncoding) {
		s.CSV.Encoding = c.String(flagEncoding)
	}
	if c.IsSet(flagComma) {
		s.CSV.Comma = c.String(flagComma)
	}
	if c.IsSet(flagStrategy) {
		s.Strategy = c.String(flagStrategy)
	}
	if c.IsSet(flagConcurrency) {
		s.Concurrency = c.Int(flagConcurrency)
	}
	if c.IsSet(flagLogFile) {
		s.LogFile = c.String(flagLogFile)
	}
	if c.IsSet(flagDebug) {
		s.Debug = c.Bool(flagDebug)
	}
	if c.IsSet(flagNoColor) {
		s.NoColor = c.Bool(flagNoColor)
	}
}

// options converts the settings to index options.
func (s *settings) options() ([]rangeidx.Option, error) {
	strategy, err := rangeidx.ParseStrategy(s.Strategy)
	if err != nil {
		return nil, err
	}

	return []rangeidx.Option{
		rangeidx.WithStrategy(strategy),
		rangeidx.WithConcurrency(s.Concurrency),
	}, nil
}
