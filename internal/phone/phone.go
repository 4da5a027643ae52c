// Package phone extracts plausible Brazilian phone numbers from free text.
//
// This is a heuristic, not a validator. It scans chat text for digit patterns
// that look like a Brazilian mobile or landline number, normalizes each match
// into E.164-like digit form (country code, no plus sign), and expands
// ambiguous matches into both the 8-digit and 9-digit subscriber variants.
// It can both over- and under-match; callers must treat results as candidates
// for best-effort delivery only.
package phone

import (
	"regexp"
	"strings"
)

// countryCode is the Brazilian country calling code, prepended to candidates
// that arrive without one.
const countryCode = "55"

// patterns is the fixed, ordered matcher cascade. More specific shapes run
// first so that a formatted number is consumed before the bare digit-run
// fallback sees it.
var patterns = []*regexp.Regexp{
	// Explicit country code: +55 (11) 98888-7777, 55 11 988887777, ...
	regexp.MustCompile(`\+?55[\s.-]*\(?\d{2}\)?[\s.-]*9?\d{4}[\s.-]?\d{4}`),
	// Parenthesized area code: (11) 98888-7777, (11)88887777
	regexp.MustCompile(`\(\d{2}\)[\s.-]*9?\d{4}[\s.-]?\d{4}`),
	// Bare area code with separators: 11 98888-7777, 11.8888.7777
	regexp.MustCompile(`\b\d{2}[\s.-]+9?\d{4}[\s.-]?\d{4}\b`),
	// Raw digit run: 11988887777
	regexp.MustCompile(`\b\d{10,13}\b`),
}

// nonDigits strips everything that is not 0-9 from a raw match.
var nonDigits = regexp.MustCompile(`\D`)

// areaCodes is the set of DDD area codes in use in Brazil. Candidates whose
// area code is not listed here are kept as-is but never expanded into a
// mobile-prefix variant.
var areaCodes = map[string]bool{
	"11": true, "12": true, "13": true, "14": true, "15": true,
	"16": true, "17": true, "18": true, "19": true,
	"21": true, "22": true, "24": true, "27": true, "28": true,
	"31": true, "32": true, "33": true, "34": true, "35": true,
	"37": true, "38": true,
	"41": true, "42": true, "43": true, "44": true, "45": true,
	"46": true, "47": true, "48": true, "49": true,
	"51": true, "53": true, "54": true, "55": true,
	"61": true, "62": true, "63": true, "64": true, "65": true,
	"66": true, "67": true, "68": true, "69": true,
	"71": true, "73": true, "74": true, "75": true, "77": true, "79": true,
	"81": true, "82": true, "83": true, "84": true, "85": true,
	"86": true, "87": true, "88": true, "89": true,
	"91": true, "92": true, "93": true, "94": true, "95": true,
	"96": true, "97": true, "98": true, "99": true,
}

// Extract scans text and returns the distinct normalized phone candidates in
// first-seen order. An empty slice means no plausible number was found.
func Extract(text string) []string {
	if !strings.ContainsAny(text, "0123456789") {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	emit := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for _, re := range patterns {
		for _, raw := range re.FindAllString(text, -1) {
			for _, c := range normalize(raw) {
				emit(c)
			}
		}
	}
	return out
}

// normalize turns one raw match into zero, one, or two candidate digit
// strings: the normalized form plus, where the mobile-prefix digit is
// ambiguous, its counterpart variant.
func normalize(raw string) []string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) < 10 {
		return nil
	}
	// 10 or 11 digits is area code + subscriber with no country code.
	if len(digits) <= 11 {
		digits = countryCode + digits
	}

	switch len(digits) {
	case 12:
		// Country + area + 8-digit subscriber: possibly a mobile number
		// written without the leading 9. Emit both readings when the
		// area code is real.
		if areaCodes[digits[2:4]] {
			return []string{digits, digits[:4] + "9" + digits[4:]}
		}
		return []string{digits}
	case 13:
		// Country + area + 9-digit subscriber: also offer the 8-digit
		// landline reading with the prefix digit dropped.
		return []string{digits, digits[:4] + digits[5:]}
	default:
		return nil
	}
}
