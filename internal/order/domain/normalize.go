package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// phonePattern matches local 10-digit mobile numbers: 0 followed by nine
// digits.
var phonePattern = regexp.MustCompile(`^0[0-9]{9}$`)

// ValidPhone strips formatting characters and checks the mobile pattern.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(CleanPhone(phone))
}

// CleanPhone keeps digits only.
func CleanPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CapitalizeWords normalizes a customer name: lower-cased, then the first
// letter of each word upper-cased.
func CapitalizeWords(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// MaxNoteLen bounds free-text item notes.
const MaxNoteLen = 200

// TruncateNote cuts a note to MaxNoteLen runes.
func TruncateNote(note string) string {
	r := []rune(note)
	if len(r) <= MaxNoteLen {
		return note
	}
	return string(r[:MaxNoteLen])
}
