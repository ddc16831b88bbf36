package validator

import (
	"net/mail"
	"strings"
)

// Required fails on values that are empty after trimming.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// ValidEmail fails on values that do not parse as a single bare address.
// Display names ("A <a@b.c>") are rejected; storage holds plain addresses.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}
			addr, err := mail.ParseAddress(value)
			if err != nil {
				return false
			}
			return addr.Address == value
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// MinLength fails on values shorter than min bytes.
func MinLength(field, value string, min int) Rule {
	return Rule{
		Check: func() bool { return len(value) >= min },
		Error: ValidationError{Field: field, Message: "is too short"},
	}
}

// MaxLength fails on values longer than max bytes. Password hashing input is
// bounded to keep a single request from monopolizing the hashing pool.
func MaxLength(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: ValidationError{Field: field, Message: "is too long"},
	}
}

// Equals fails unless two values match; used for password confirmation.
func Equals(field, value, other string) Rule {
	return Rule{
		Check: func() bool { return value == other },
		Error: ValidationError{Field: field, Message: "does not match"},
	}
}
