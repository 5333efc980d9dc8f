package helper

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var utoridPattern = regexp.MustCompile(`^[a-zA-Z0-9]{7,8}$`)

// campusEmailDomains are the only domains accepted for account emails.
var campusEmailDomains = []string{"mail.utoronto.ca", "utoronto.ca"}

func ValidUtorid(utorid string) bool {
	return utoridPattern.MatchString(utorid)
}

func ValidCampusEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}
	domain := strings.ToLower(parts[1])
	for _, d := range campusEmailDomains {
		if domain == d {
			return true
		}
	}
	return false
}

// ValidPassword enforces 8 to 20 characters with at least one lowercase,
// one uppercase, one digit, and one special character.
func ValidPassword(password string) bool {
	if len(password) < 8 || len(password) > 20 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return lower && upper && digit && special
}

// ParseBirthday accepts the YYYY-MM-DD wire format and rejects dates the
// calendar rolls over (2025-02-30 and the like).
func ParseBirthday(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	if t.Format("2006-01-02") != s {
		return time.Time{}, false
	}
	return t, true
}

// ParseISOTime accepts RFC 3339 timestamps for promotion and event windows.
func ParseISOTime(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
