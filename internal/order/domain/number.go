package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayKey formats the daily bucket order numbers reset under.
func DayKey(t time.Time) string {
	return t.Format("20060102")
}

// OrderNumber renders the globally unique sequential number for the n-th
// order of the day (n starts at 1): ORD-YYYYMMDD-0001.
func OrderNumber(day string, n int64) string {
	return fmt.Sprintf("ORD-%s-%04d", day, n)
}

// ShortCode renders the human-facing display code for the n-th order of the
// day (n starts at 1). Codes cycle A01..A99, B01..Z99, then AA01, AB01 and
// so on; the letter part advances every 99 codes.
func ShortCode(n int64) string {
	if n < 1 {
		n = 1
	}
	block := (n - 1) / 99 // which letter block
	pos := (n-1)%99 + 1   // 01..99 within the block
	return letters(block) + fmt.Sprintf("%02d", pos)
}

// letters converts a zero-based block index to A..Z, AA, AB, ... (bijective
// base-26, Excel column style).
func letters(block int64) string {
	n := block + 1
	var b strings.Builder
	for n > 0 {
		n--
		b.WriteByte(byte('A' + n%26))
		n /= 26
	}
	// Build produced least-significant first; reverse.
	s := []byte(b.String())
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return string(s)
}
