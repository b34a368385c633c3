// Package core holds the domain model shared by every backend and the
// ledger service: account and transaction document shapes, the error
// taxonomy, and amount parsing.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts user-entered text to a monetary amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects anything that is not a finite, non-negative number. Signs are
// not accepted: direction is carried by the operation, never the input.
//
// Examples:
//
//	ParseAmount("250.50") -> 250.50, nil
//	ParseAmount("250,50") -> 250.50, nil
//	ParseAmount("-5")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
