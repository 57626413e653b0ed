// ABOUTME: Formats 1-based ranks as English ordinal labels ("1st", "2nd", "3rd", "4th").
package outputs

import "strconv"

// Ordinal renders n as an ordinal string. 11 through 13 (mod 100) always take
// "th"; otherwise the suffix follows the last digit.
func Ordinal(n int) string {
	if r := n % 100; r >= 11 && r <= 13 {
		return strconv.Itoa(n) + "th"
	}
	switch n % 10 {
	case 1:
		return strconv.Itoa(n) + "st"
	case 2:
		return strconv.Itoa(n) + "nd"
	case 3:
		return strconv.Itoa(n) + "rd"
	default:
		return strconv.Itoa(n) + "th"
	}
}
