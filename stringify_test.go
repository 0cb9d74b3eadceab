// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

import (
	"testing"
)

type stringTest struct {
	ranges []string
	want   string
}

func TestStringPanic(t *testing.T) {
	t.Parallel()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Fprint(nil) did not panic")
		}
	}()

	x := mustIndexAny(t, "1.2.3.4/32")
	_ = x.Fprint(nil)
}

func TestStringEmpty(t *testing.T) {
	t.Parallel()
	checkString(t, stringTest{
		ranges: []string{},
		want:   "",
	})
}

func TestStringDegenerateOnly(t *testing.T) {
	t.Parallel()
	checkString(t, stringTest{
		ranges: []string{"0.0.0.0/0", "::/0"},
		want:   "",
	})
}

func TestStringSingleV4(t *testing.T) {
	t.Parallel()
	checkString(t, stringTest{
		ranges: []string{"10.0.0.0/8"},
		want: `▼ IPv4
└─ size 16777216 (1)
   └─ 10.0.0.0/8 (<nil>)
`,
	})
}

func TestStringSingleV6(t *testing.T) {
	t.Parallel()
	checkString(t, stringTest{
		ranges: []string{"2001:db8::/32"},
		want: `▼ IPv6
└─ size 79228162514264337593543950336 (1)
   └─ 2001:db8::/32 (<nil>)
`,
	})
}

func TestStringSample(t *testing.T) {
	t.Parallel()
	checkString(t, stringTest{
		ranges: []string{
			"10.0.0.0/8",
			"10.1.3.0-10.1.3.255",
			"10.1.0.0/16",
			"10.1.2.0/24",
			"192.168.1.10-192.168.1.20",
			"2001:db8::/32",
			"2001:db8::1-2001:db8::b",
		},
		want: `▼ IPv4
├─ size 11 (1)
│  └─ 192.168.1.10-192.168.1.20 (<nil>)
├─ size 256 (2)
│  ├─ 10.1.2.0/24 (<nil>)
│  └─ 10.1.3.0-10.1.3.255 (<nil>)
├─ size 65536 (1)
│  └─ 10.1.0.0/16 (<nil>)
└─ size 16777216 (1)
   └─ 10.0.0.0/8 (<nil>)
▼ IPv6
├─ size 11 (1)
│  └─ 2001:db8::1-2001:db8::b (<nil>)
└─ size 79228162514264337593543950336 (1)
   └─ 2001:db8::/32 (<nil>)
`,
	})
}

func TestStringLabelFallback(t *testing.T) {
	t.Parallel()

	recs := []Record[int]{
		{Range: RangeFromPrefix(mpp("10.0.0.0/30")), Value: 7},
	}

	x, err := New(recs)
	if err != nil {
		t.Fatal(err)
	}

	want := `▼ IPv4
└─ size 4 (1)
   └─ 10.0.0.0-10.0.0.3 (7)
`
	if got := x.String(); got != want {
		t.Errorf("String got:\n%swant:\n%s", got, want)
	}

	text, err := x.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != want {
		t.Errorf("MarshalText got:\n%swant:\n%s", text, want)
	}
}

func checkString(t *testing.T, tt stringTest) {
	t.Helper()

	x := mustIndexAny(t, tt.ranges...)
	if got := x.String(); got != tt.want {
		t.Errorf("String got:\n%swant:\n%s", got, tt.want)
	}
}

// mustIndexAny builds an index with nil payload.
func mustIndexAny(t *testing.T, texts ...string) *Index[any] {
	t.Helper()

	var recs []Record[any]
	for _, text := range texts {
		rec, ok, err := NewRecord[any](text, nil)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			recs = append(recs, rec)
		}
	}

	x, err := New(recs)
	if err != nil {
		t.Fatal(err)
	}
	return x
}
