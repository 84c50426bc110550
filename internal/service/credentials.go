package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// minPasswordLen — минимальная длина пароля в символах.
const minPasswordLen = 6

// hashPassword — bcrypt со стоимостью по умолчанию.
func hashPassword(password string) (string, error) {
	const op = "service.credentials.hashPassword"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// normalizeEmail принимает только голый адрес ("a@b.io", без имени и угловых скобок)
// и приводит его к нижнему регистру.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)

	addr, err := mail.ParseAddress(email)
	if email == "" || err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}

func validatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return fmt.Errorf("at least %d characters: %w", minPasswordLen, ErrWeakPassword)
	}

	return nil
}
