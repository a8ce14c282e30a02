// Package codes generates the human readable booking numbers patients quote
// over the phone, e.g. "BK-7KQ2MZ4P".
package codes

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

var (
	ErrInvalidLength = errors.New("invalid code length")
	ErrEmptyCharset  = errors.New("charset is empty")
)

const (
	defaultPrefix = "BK"
	defaultLength = 8

	// upper case letters and digits without 0/O and 1/I/L, which are easy to
	// mishear or misread
	charsetUpperAlphanumeric = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

type Config struct {
	Prefix  string // joined with a dash; empty means no prefix
	Length  int
	Charset string
}

func DefaultConfig() Config {
	return Config{Prefix: defaultPrefix, Length: defaultLength, Charset: charsetUpperAlphanumeric}
}

// FromCentralConfig applies booking.number_prefix over the defaults.
func FromCentralConfig(c config.BookingConfig) Config {
	out := DefaultConfig()
	if p := strings.TrimSpace(c.NumberPrefix); p != "" {
		out.Prefix = strings.ToUpper(p)
	}
	return out
}

func GenerateBookingNumber(cfg Config) (string, error) {
	length, charset := cfg.Length, cfg.Charset
	if length < 1 {
		length = defaultLength
	}
	if charset == "" {
		charset = charsetUpperAlphanumeric
	}
	code, err := GenerateCode(length, charset)
	if err != nil {
		return "", err
	}
	if cfg.Prefix == "" {
		return code, nil
	}
	return cfg.Prefix + "-" + code, nil
}

// GenerateCode draws length characters uniformly from charset using
// crypto/rand.
func GenerateCode(length int, charset string) (string, error) {
	switch {
	case length < 1:
		return "", ErrInvalidLength
	case charset == "":
		return "", ErrEmptyCharset
	}

	limit := big.NewInt(int64(len(charset)))
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("draw code character: %w", err)
		}
		b.WriteByte(charset[n.Int64()])
	}
	return b.String(), nil
}
