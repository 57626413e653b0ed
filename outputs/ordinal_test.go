// ABOUTME: Tests for ordinal label formatting, including the 11..13 "th" exception.
package outputs

import "testing"

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1:   "1st",
		2:   "2nd",
		3:   "3rd",
		4:   "4th",
		11:  "11th",
		12:  "12th",
		13:  "13th",
		21:  "21st",
		22:  "22nd",
		23:  "23rd",
		100: "100th",
		111: "111th",
	}
	for n, want := range cases {
		if got := Ordinal(n); got != want {
			t.Errorf("Ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestOrdinalTeens(t *testing.T) {
	// Every *11, *12, *13 takes "th" regardless of the trailing digit rule.
	for _, n := range []int{211, 312, 413, 1011, 1113} {
		got := Ordinal(n)
		if got[len(got)-2:] != "th" {
			t.Errorf("Ordinal(%d) = %q, want th suffix", n, got)
		}
	}
}
