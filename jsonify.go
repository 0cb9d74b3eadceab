// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"encoding/json"
	"math/big"
)

// DumpListBucket is one size bucket in the JSON dump,
// the records in ascending start order.
type DumpListBucket[V any] struct {
	Size    *big.Int          `json:"size"`
	Records []DumpListNode[V] `json:"records"`
}

// DumpListNode is one record in the JSON dump.
type DumpListNode[V any] struct {
	Range string `json:"range"`
	Start Key    `json:"start"`
	End   Key    `json:"end"`
	Value V      `json:"value"`
}

// MarshalJSON dumps the index into two lists of size buckets, for ipv4
// and ipv6. The buckets are arrays, not maps keyed by size, because the
// lookup order matters.
func (x *Index[V]) MarshalJSON() ([]byte, error) {
	result := struct {
		Ipv4 []DumpListBucket[V] `json:"ipv4,omitempty"`
		Ipv6 []DumpListBucket[V] `json:"ipv6,omitempty"`
	}{
		Ipv4: x.DumpList(true),
		Ipv6: x.DumpList(false),
	}

	buf, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	return buf, nil
}

// DumpList dumps the ipv4 or ipv6 buckets in lookup order.
func (x *Index[V]) DumpList(is4 bool) []DumpListBucket[V] {
	bs := x.bucketsByVersion(is4)
	if len(bs) == 0 {
		return nil
	}

	list := make([]DumpListBucket[V], 0, len(bs))
	for _, b := range bs {
		db := DumpListBucket[V]{
			Size:    new(big.Int).Set(b.size),
			Records: make([]DumpListNode[V], 0, b.searcher.Len()),
		}

		for rec := range b.searcher.All() {
			db.Records = append(db.Records, DumpListNode[V]{
				Range: rec.label(),
				Start: rec.Start,
				End:   rec.End,
				Value: rec.Value,
			})
		}

		list = append(list, db)
	}

	return list
}
