package service

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/guestlink/guestlink/internal/model"
)

const (
	maxEmailLength     = 254
	maxFirstNameLength = 100
)

var (
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	statusRegex   = regexp.MustCompile(`^[a-z][a-z0-9-]{1,39}$`)
)

// normalizeEmail validates a bare address and returns its matching form.
func normalizeEmail(raw string) (string, error) {
	email := model.NormalizeEmail(raw)
	if email == "" || len(email) > maxEmailLength {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func normalizeFirstName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) > maxFirstNameLength {
		return "", ErrFirstNameTooLong
	}
	return name, nil
}
