// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import "errors"

var (
	// ErrMalformedRange is returned for range texts in neither the
	// "A-B" nor the "A/n" form, or with unparsable addresses.
	ErrMalformedRange = errors.New("malformed range")

	// ErrInvalidRecord is returned by New for a hand built Record with
	// an invalid key, mixed versions or start > end.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrOverlappingRanges is returned by New if two records of the same
	// version and size overlap. The most specific match is not defined then.
	ErrOverlappingRanges = errors.New("overlapping ranges of equal size")
)
