package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Identifier is a validated CPF or CNPJ. The raw digits exist only for
// the duration of the provider call; sessions keep the hash and mask.
type Identifier struct {
	Digits string // 11 (CPF) or 14 (CNPJ) digits
}

// ParseIdentifier strips formatting and validates the check digits.
func ParseIdentifier(s string) (Identifier, error) {
	digits := onlyDigits(s)
	switch len(digits) {
	case 11:
		if !validCPF(digits) {
			return Identifier{}, &ValidationError{Msg: "invalid CPF check digits"}
		}
	case 14:
		if !validCNPJ(digits) {
			return Identifier{}, &ValidationError{Msg: "invalid CNPJ check digits"}
		}
	default:
		return Identifier{}, &ValidationError{Msg: "identifier must have 11 or 14 digits"}
	}
	return Identifier{Digits: digits}, nil
}

// Hash returns the hex SHA-256 of pepper+digits. The pepper is a
// server-side secret, so the hash alone cannot be brute-forced from the
// small CPF keyspace.
func (id Identifier) Hash(pepper string) string {
	sum := sha256.Sum256([]byte(pepper + id.Digits))
	return hex.EncodeToString(sum[:])
}

// Mask returns a display form with the outer digits hidden,
// e.g. ***.456.789-** for a CPF.
func (id Identifier) Mask() string {
	d := id.Digits
	if len(d) == 11 {
		return "***." + d[3:6] + "." + d[6:9] + "-**"
	}
	return "**." + d[2:5] + "." + d[5:8] + "/****-**"
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

func validCPF(d string) bool {
	if allSame(d) {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		dv := sum * 10 % 11 % 10
		if dv != int(d[n]-'0') {
			return false
		}
	}
	return true
}

func validCNPJ(d string) bool {
	if allSame(d) {
		return false
	}
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	for _, n := range []int{12, 13} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * weights[len(weights)-n+i]
		}
		dv := 11 - sum%11
		if dv >= 10 {
			dv = 0
		}
		if dv != int(d[n]-'0') {
			return false
		}
	}
	return true
}
