package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := map[string]error{
		"InvalidState":        fmt.Errorf("%w: quiz q1 is finished", ErrInvalidState),
		"DuplicateAnswer":     fmt.Errorf("%w: %w", ErrDuplicateAnswer, ErrConflict),
		"InsufficientBalance": ErrInsufficientBalance,
		"Internal":            errors.New("boom"),
		"":                    nil,
	}
	for want, err := range cases {
		if got := KindOf(err); got != want {
			t.Fatalf("KindOf(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestBalanceConsistent(t *testing.T) {
	b := CoinBalance{CurrentBalance: 500, TotalEarned: 2000, TotalWithdrawn: 1500}
	if !b.Consistent() {
		t.Fatalf("expected consistent balance %+v", b)
	}
	b.CurrentBalance = 400
	if b.Consistent() {
		t.Fatalf("expected inconsistent balance %+v", b)
	}
}
