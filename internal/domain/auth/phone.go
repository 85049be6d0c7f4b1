package auth

import (
	"errors"
	"strings"
)

const (
	CountryPrefix  = "+90"
	NationalDigits = 10
)

var ErrPhoneDigits = errors.New("phone must have exactly 10 digits")

// Digits strips every non-digit character.
func Digits(in string) string {
	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone strips non-digits and returns the +90 wire format when exactly
// ten national digits remain.
func NormalizePhone(in string) (string, error) {
	d := Digits(in)
	if len(d) != NationalDigits {
		return "", ErrPhoneDigits
	}
	return CountryPrefix + d, nil
}

// PhoneComplete reports whether in normalizes to a valid phone.
func PhoneComplete(in string) bool {
	return len(Digits(in)) == NationalDigits
}

// FormatPhoneInput applies the "5XX XXX XX XX" input mask, dropping digits past the tenth.
func FormatPhoneInput(in string) string {
	d := Digits(in)
	if len(d) > NationalDigits {
		d = d[:NationalDigits]
	}

	groups := []int{3, 3, 2, 2}
	var parts []string
	for _, n := range groups {
		if d == "" {
			break
		}
		if len(d) < n {
			n = len(d)
		}
		parts = append(parts, d[:n])
		d = d[n:]
	}
	return strings.Join(parts, " ")
}

// FormatPhoneDisplay renders +905XXXXXXXXX as "+90 5XX XXX XX XX"; other inputs are returned as is.
func FormatPhoneDisplay(phone string) string {
	d := Digits(phone)
	if len(d) < 12 {
		return phone
	}
	return "+" + d[0:2] + " " + d[2:5] + " " + d[5:8] + " " + d[8:10] + " " + d[10:12]
}

// MaskPhone keeps the country code and the last two digits for logs and events.
func MaskPhone(phone string) string {
	d := Digits(phone)
	if len(d) < 4 {
		return ""
	}
	masked := []byte(d)
	for i := 2; i < len(masked)-2; i++ {
		masked[i] = '*'
	}
	return "+" + string(masked)
}
