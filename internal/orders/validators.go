package orders

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	intlPhoneRe   = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	localPhoneRe  = regexp.MustCompile(`^[0-9]{10}$`)
	pincodeRe     = regexp.MustCompile(`^[0-9]{6}$`)
	emailRe       = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	amountInputRe = regexp.MustCompile(`^(?:\d+|\d*\.\d+)?$`)
)

// ValidPhone accepts international numbers (optional +, 10-15 digits) or a
// plain ten digit number.
func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	return intlPhoneRe.MatchString(s) || localPhoneRe.MatchString(s)
}

// ValidPincode accepts exactly six digits.
func ValidPincode(s string) bool {
	return pincodeRe.MatchString(strings.TrimSpace(s))
}

// ValidEmail is a permissive shape check, not RFC 5322.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ValidAmountInput reports whether s is an acceptable intermediate value for a
// price or charge field while it is being typed. The empty string is allowed.
func ValidAmountInput(s string) bool {
	return amountInputRe.MatchString(s)
}

// ParseAmount coerces form input to a number. Empty, malformed and non-finite
// input yields 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseOptionalFloat returns the parsed value and whether s held a finite number.
func parseOptionalFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
