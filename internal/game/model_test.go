package game

import (
	"math"
	"testing"
)

func TestGradeMultiplier(t *testing.T) {
	tests := []struct {
		grade string
		want  float64
	}{
		{grade: "S+", want: 2.5},
		{grade: "S", want: 2.0},
		{grade: "A", want: 1.5},
		{grade: "b", want: 1.2},
		{grade: " c ", want: 1.0},
		{grade: "D", want: 0.6},
		{grade: "F", want: 0.3},
		{grade: "", want: 1.0},
		{grade: "Z", want: 1.0},
	}
	for _, tc := range tests {
		if got := GradeMultiplier(tc.grade); got != tc.want {
			t.Fatalf("grade=%q got=%v want=%v", tc.grade, got, tc.want)
		}
	}
}

func TestGradeForRating(t *testing.T) {
	tests := []struct {
		rating float64
		want   string
	}{
		{rating: 25, want: "S+"},
		{rating: 24, want: "S+"},
		{rating: 23.9, want: "S"},
		{rating: 22, want: "S"},
		{rating: 18, want: "A"},
		{rating: 14, want: "B"},
		{rating: 10, want: "C"},
		{rating: 6, want: "D"},
		{rating: 5.9, want: "F"},
		{rating: 0, want: "F"},
		{rating: -3, want: "F"},
		{rating: 99, want: "S+"},
	}
	for _, tc := range tests {
		if got := GradeForRating(tc.rating); got != tc.want {
			t.Fatalf("rating=%v got=%q want=%q", tc.rating, got, tc.want)
		}
	}
}

func TestClampRating(t *testing.T) {
	if got := ClampRating(-1); got != 0 {
		t.Fatalf("negative rating clamped to %v", got)
	}
	if got := ClampRating(math.NaN()); got != 0 {
		t.Fatalf("NaN rating clamped to %v", got)
	}
	if got := ClampRating(26); got != RatingScaleMax {
		t.Fatalf("oversized rating clamped to %v", got)
	}
	if got := ClampRating(17.5); got != 17.5 {
		t.Fatalf("in-range rating altered to %v", got)
	}
}

func TestVenueCut(t *testing.T) {
	tests := []struct {
		gross int64
		bps   int32
		want  int64
	}{
		{gross: 10_000, bps: 3000, want: 3000},
		{gross: 999, bps: 3000, want: 299},
		{gross: 0, bps: 3000, want: 0},
		{gross: -500, bps: 3000, want: 0},
		{gross: 10_000, bps: 0, want: 0},
		{gross: 10_000, bps: 20_000, want: 10_000},
	}
	for _, tc := range tests {
		if got := VenueCut(tc.gross, tc.bps); got != tc.want {
			t.Fatalf("gross=%d bps=%d got=%d want=%d", tc.gross, tc.bps, got, tc.want)
		}
	}
}

func TestValidateTicketPrice(t *testing.T) {
	if err := ValidateTicketPrice(0); err != nil {
		t.Fatalf("free show should be allowed: %v", err)
	}
	if err := ValidateTicketPrice(MaxTicketCents); err != nil {
		t.Fatalf("max price should be allowed: %v", err)
	}
	if err := ValidateTicketPrice(-1); err == nil {
		t.Fatal("negative price should fail")
	}
	if err := ValidateTicketPrice(MaxTicketCents + 1); err == nil {
		t.Fatal("over-max price should fail")
	}
}

func TestValidateLeadDays(t *testing.T) {
	if err := ValidateLeadDays(1); err != nil {
		t.Fatalf("one day lead should be allowed: %v", err)
	}
	if err := ValidateLeadDays(MaxBookingLeadDays); err != nil {
		t.Fatalf("max lead should be allowed: %v", err)
	}
	if err := ValidateLeadDays(0); err == nil {
		t.Fatal("zero lead should fail")
	}
	if err := ValidateLeadDays(MaxBookingLeadDays + 1); err == nil {
		t.Fatal("over-max lead should fail")
	}
}

func TestDollarsCents(t *testing.T) {
	if got := DollarsToCents(19.99); got != 1999 {
		t.Fatalf("got %d", got)
	}
	if got := CentsToDollars(1999); got != 19.99 {
		t.Fatalf("got %v", got)
	}
}
