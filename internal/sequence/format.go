package sequence

import (
	"fmt"
	"strings"
	"unicode"
)

// Pad renders seq as a five digit, zero padded suffix. The ceiling itself
// renders as all six digits.
func Pad(seq int) string {
	return fmt.Sprintf("%05d", seq)
}

// prefix derives the tracking prefix of a warehouse code: the first three
// letters of the segment before the first '-', upper-cased, followed by the
// trailing digits of the whole code. "HYD-01" -> "HYD01".
func prefix(code string) (string, error) {
	code = strings.TrimSpace(code)
	head := code
	if i := strings.IndexByte(code, '-'); i >= 0 {
		head = code[:i]
	}

	var letters strings.Builder
	for _, r := range head {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			letters.WriteRune(unicode.ToUpper(r))
			if letters.Len() == 3 {
				break
			}
		}
	}
	if letters.Len() == 0 {
		return "", fmt.Errorf("warehouse code %q has no letters", code)
	}

	end := len(code)
	start := end
	for start > 0 && code[start-1] >= '0' && code[start-1] <= '9' {
		start--
	}
	return letters.String() + code[start:end], nil
}

// FormatTrackingID builds the tracking ID for the seq-th parcel booked at the
// warehouse with the given code.
func FormatTrackingID(code string, seq int) (string, error) {
	if seq < 1 {
		return "", fmt.Errorf("invalid sequence %d", seq)
	}
	p, err := prefix(code)
	if err != nil {
		return "", err
	}
	return p + "-" + Pad(seq), nil
}

// FormatMemoNo builds a ledger memo number, e.g. "HYD01-M00007"
func FormatMemoNo(code string, seq int) (string, error) {
	if seq < 1 {
		return "", fmt.Errorf("invalid memo sequence %d", seq)
	}
	p, err := prefix(code)
	if err != nil {
		return "", err
	}
	return p + "-M" + Pad(seq), nil
}
