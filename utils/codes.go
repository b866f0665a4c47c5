package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

const shortCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const ShortCodeLength = 8

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// GenerateSecureToken returns length random bytes, hex encoded.
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateShortCode returns a random "XXXX-XXXX" code for a public form
// link. Ambiguous characters (0/O, 1/I) are left out of the alphabet.
func GenerateShortCode() (string, error) {
	var sb strings.Builder
	alphaLen := big.NewInt(int64(len(shortCodeCharset)))
	for i := 0; i < ShortCodeLength; i++ {
		num, err := rand.Int(rand.Reader, alphaLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(shortCodeCharset[num.Int64()])
	}
	return FormatShortCode(sb.String())
}

// FormatShortCode → "XXXX-XXXX"
func FormatShortCode(raw string) (string, error) {
	raw = NormalizeShortCode(raw)
	if len(raw) != ShortCodeLength {
		return "", errors.New("short code must have 8 characters")
	}
	return raw[:4] + "-" + raw[4:], nil
}

// NormalizeShortCode upper-cases and strips everything but A-Z0-9.
func NormalizeShortCode(code string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(strings.TrimSpace(code)), "")
}

func IsValidShortCode(code string) bool {
	n := NormalizeShortCode(code)
	if len(n) != ShortCodeLength {
		return false
	}
	for _, r := range n {
		if !strings.ContainsRune(shortCodeCharset, r) {
			return false
		}
	}
	return true
}

// BuildPublicFormURL returns the link patients open (or scan as a QR code)
// to fill in a form.
func BuildPublicFormURL(frontendURL, shortCode string) string {
	base := strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/f/" + url.PathEscape(shortCode)
}
