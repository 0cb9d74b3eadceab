// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// MarshalText implements the [encoding.TextMarshaler] interface,
// just a wrapper for [Index.Fprint].
func (x *Index[V]) MarshalText() ([]byte, error) {
	w := new(bytes.Buffer)
	if err := x.Fprint(w); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// String returns a diagram of the size buckets and their ranges
// as string, just a wrapper for [Index.Fprint].
// If Fprint returns an error, String panics.
func (x *Index[V]) String() string {
	w := new(strings.Builder)
	if err := x.Fprint(w); err != nil {
		panic(err)
	}

	return w.String()
}

// Fprint writes the size buckets in lookup order with their ranges and
// default formatted payload V to w. If w is nil, Fprint panics.
//
//	▼ IPv4
//	├─ size 256 (2)
//	│  ├─ 10.1.2.0/24 (V)
//	│  └─ 10.1.3.0-10.1.3.255 (V)
//	└─ size 65536 (1)
//	   └─ 10.1.0.0/16 (V)
//	▼ IPv6
//	└─ size 79228162514264337593543950336 (1)
//	   └─ 2001:db8::/32 (V)
func (x *Index[V]) Fprint(w io.Writer) error {
	// v4
	if err := x.fprint(w, true); err != nil {
		return err
	}

	// v6
	if err := x.fprint(w, false); err != nil {
		return err
	}

	return nil
}

// fprint is the version dependent part of Fprint.
func (x *Index[V]) fprint(w io.Writer, is4 bool) error {
	bs := x.bucketsByVersion(is4)
	if len(bs) == 0 {
		return nil
	}

	header := "▼ IPv6\n"
	if is4 {
		header = "▼ IPv4\n"
	}
	if _, err := fmt.Fprint(w, header); err != nil {
		return err
	}

	for i, b := range bs {
		glyphe, spacer := "├─ ", "│  "
		if i == len(bs)-1 {
			glyphe, spacer = "└─ ", "   "
		}

		if _, err := fmt.Fprintf(w, "%ssize %s (%d)\n", glyphe, b.size, b.searcher.Len()); err != nil {
			return err
		}

		if err := b.fprintRecords(w, spacer); err != nil {
			return err
		}
	}

	return nil
}

func (b *bucket[V]) fprintRecords(w io.Writer, pad string) error {
	n := b.searcher.Len()

	var i int
	for rec := range b.searcher.All() {
		glyphe := "├─ "
		if i == n-1 {
			glyphe = "└─ "
		}
		i++

		if _, err := fmt.Fprintf(w, "%s%s%s (%v)\n", pad, glyphe, rec.label(), rec.Value); err != nil {
			return err
		}
	}

	return nil
}

// label prefers the original text, falls back to the range.
func (r *Record[V]) label() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Range.String()
}
