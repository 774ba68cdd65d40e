package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestOffset(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
		wantOffset         int
	}{
		{0, 0, 1, 10, 0},
		{-4, 5, 1, 5, 0},
		{3, 0, 3, 10, 20},
		{2, 500, 2, 100, 100},
		{4, 25, 4, 25, 75},
	}
	for _, tc := range cases {
		p, s, off := Offset(tc.page, tc.size, 10, 100)
		if p != tc.wantPage || s != tc.wantSize || off != tc.wantOffset {
			t.Fatalf("Offset(%d, %d) = %d, %d, %d; want %d, %d, %d",
				tc.page, tc.size, p, s, off, tc.wantPage, tc.wantSize, tc.wantOffset)
		}
	}
	if _, s, _ := Offset(1, 500, 10, 0); s != 500 {
		t.Fatalf("max <= 0 must not cap, got %d", s)
	}
}
