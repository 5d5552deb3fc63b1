package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// 入力が不正
	ErrNameRequired       = errors.New("name is required")
	ErrNameTooLong        = errors.New("name must be at most 100 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidUserID      = errors.New("invalid user id")
)

const (
	minPasswordLen = 8
	maxNameLen     = 100
)

var emailLike = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// よくある弱いパスワード
var weakPasswords = map[string]struct{}{
	"password":     {},
	"password123":  {},
	"123456789012": {},
	"1234567890":   {},
	"12345678":     {},
	"qwertyuiop":   {},
	"letmein123":   {},
	"admin123":     {},
}

// NormalizeEmail は前後の空白を落として小文字にする。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// サインアップの入力を検証
func ValidateRegister(name, email, password string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return ErrNameTooLong
	}
	if !IsEmail(email) {
		return ErrInvalidEmailFormat
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if _, ok := weakPasswords[strings.ToLower(password)]; ok {
		return ErrWeakPassword
	}
	return nil
}

// ログインの入力を検証（形式だけ。照合はusecase）
func ValidateLogin(email, password string) error {
	if !IsEmail(email) {
		return ErrInvalidEmailFormat
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// 管理者操作の対象ユーザーID
func ValidateUserID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidUserID
	}
	return nil
}

// 簡易メール形式チェック
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || !emailLike.MatchString(s) {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
