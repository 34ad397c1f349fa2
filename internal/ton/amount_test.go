package ton

import (
	"math/big"
	"testing"
)

func TestParseTON(t *testing.T) {
	tests := []struct {
		in      string
		want    string // nano
		wantErr bool
	}{
		{"10", "10000000000", false},
		{"10.000000000", "10000000000", false},
		{"0.7", "700000000", false},
		{"7", "7000000000", false},
		{"0.000000001", "1", false},
		{"9.999999999", "9999999999", false},
		{".5", "500000000", false},
		{"0", "0", false},
		{"", "", true},
		{"-1", "", true},
		{"1.2.3", "", true},
		{"abc", "", true},
		{"1.0000000001", "", true}, // more precision than nanoTON
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTON(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTON(%q): expected error, got %s", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTON(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseTON(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTON_ExactBaseUnitDistinction(t *testing.T) {
	// 10.000000000 and 9.999999999 must never compare equal after parsing.
	a, err := ParseTON("10.000000000")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseTON("9.999999999")
	if err != nil {
		t.Fatal(err)
	}
	if a.Cmp(b) == 0 {
		t.Fatal("10.000000000 and 9.999999999 compared equal")
	}
	if diff := new(big.Int).Sub(a, b); diff.Int64() != 1 {
		t.Errorf("expected base-unit difference of 1, got %s", diff)
	}
}

func TestFormatNano(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{7_000_000_000, "7"},
		{10_500_000_000, "10.5"},
		{1, "0.000000001"},
		{0, "0"},
		{9_999_999_999, "9.999999999"},
	}

	for _, tt := range tests {
		if got := FormatNano(big.NewInt(tt.in)); got != tt.want {
			t.Errorf("FormatNano(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"10.5", "0.7", "3", "0.000000001"} {
		nano, err := ParseTON(s)
		if err != nil {
			t.Fatalf("ParseTON(%q): %v", s, err)
		}
		if got := FormatNano(nano); got != s {
			t.Errorf("round trip %q -> %s", s, got)
		}
	}
}
