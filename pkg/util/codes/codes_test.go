package codes

import (
	"strings"
	"testing"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

func TestGenerateBookingNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		n, err := GenerateBookingNumber(DefaultConfig())
		if err != nil {
			t.Fatalf("GenerateBookingNumber: %v", err)
		}
		if !strings.HasPrefix(n, "BK-") || len(n) != 11 {
			t.Fatalf("unexpected booking number %q", n)
		}
		for _, r := range n[3:] {
			if !strings.ContainsRune(charsetUpperAlphanumeric, r) {
				t.Fatalf("booking number %q contains %q", n, r)
			}
		}
		if seen[n] {
			t.Fatalf("duplicate booking number %q", n)
		}
		seen[n] = true
	}
}

func TestGenerateBookingNumberNoPrefix(t *testing.T) {
	n, err := GenerateBookingNumber(Config{Length: 4, Charset: "A"})
	if err != nil {
		t.Fatal(err)
	}
	if n != "AAAA" {
		t.Errorf("got %q, want AAAA", n)
	}
}

func TestGenerateCodeInvalid(t *testing.T) {
	if _, err := GenerateCode(0, "AB"); err != ErrInvalidLength {
		t.Errorf("GenerateCode(0) err = %v, want ErrInvalidLength", err)
	}
	if _, err := GenerateCode(3, ""); err == nil {
		t.Error("GenerateCode with empty charset should fail")
	}
}

func TestFromCentralConfigPrefix(t *testing.T) {
	if got := FromCentralConfig(config.BookingConfig{}).Prefix; got != "BK" {
		t.Errorf("default prefix = %q", got)
	}
	if got := FromCentralConfig(config.BookingConfig{NumberPrefix: " tc "}).Prefix; got != "TC" {
		t.Errorf("prefix = %q, want TC", got)
	}
}
