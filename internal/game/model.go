package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	CentsPerDollar = int64(100)

	// Fame is an unbounded non-negative score; these anchors shape the
	// draw-power and conversion curves.
	FameDrawCeiling       = 5000.0
	FameConversionCeiling = 50000.0
	FameRepeatCeiling     = 10000.0

	RatingScaleMax = 25.0

	MaxConversionRate = 0.35
	MaxRepeatRate     = 0.8
	MaxAdvanceBonus   = 0.3

	MaxBookingLeadDays = 90
	MaxTicketCents     = int64(500) * CentsPerDollar

	DefaultVenueCutBps = int32(3000)
)

var (
	ErrBandNotFound         = errors.New("band not found")
	ErrVenueNotFound        = errors.New("venue not found")
	ErrGigNotFound          = errors.New("gig not found")
	ErrGigAlreadySettled    = errors.New("gig already settled")
	ErrGigNotConcluded      = errors.New("gig has not reached show day")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTxConflict           = errors.New("transaction conflict, retry")
)

var gradeMultipliers = map[string]float64{
	"S+": 2.5,
	"S":  2.0,
	"A":  1.5,
	"B":  1.2,
	"C":  1.0,
	"D":  0.6,
	"F":  0.3,
}

// GradeMultiplier tolerates unknown grades on purpose: a missing key
// falls back to the neutral 1.0 rather than erroring.
func GradeMultiplier(grade string) float64 {
	if m, ok := gradeMultipliers[strings.ToUpper(strings.TrimSpace(grade))]; ok {
		return m
	}
	return 1.0
}

// GradeForRating maps a 0-25 performance rating onto a letter grade.
func GradeForRating(rating float64) string {
	rating = ClampRating(rating)
	switch {
	case rating >= 24:
		return "S+"
	case rating >= 22:
		return "S"
	case rating >= 18:
		return "A"
	case rating >= 14:
		return "B"
	case rating >= 10:
		return "C"
	case rating >= 6:
		return "D"
	default:
		return "F"
	}
}

// ClampRating pins performance ratings to the 0-25 scale.
func ClampRating(rating float64) float64 {
	if math.IsNaN(rating) || rating < 0 {
		return 0
	}
	if rating > RatingScaleMax {
		return RatingScaleMax
	}
	return rating
}

func DollarsToCents(v float64) int64 {
	return int64(math.Round(v * float64(CentsPerDollar)))
}

func CentsToDollars(v int64) float64 {
	return float64(v) / float64(CentsPerDollar)
}

func ValidateTicketPrice(priceCents int64) error {
	if priceCents < 0 {
		return fmt.Errorf("ticket price must be >= 0")
	}
	if priceCents > MaxTicketCents {
		return fmt.Errorf("ticket price exceeds %.0f dollars", CentsToDollars(MaxTicketCents))
	}
	return nil
}

func ValidateLeadDays(daysBooked int) error {
	if daysBooked <= 0 {
		return fmt.Errorf("lead time must be >= 1 day")
	}
	if daysBooked > MaxBookingLeadDays {
		return fmt.Errorf("lead time exceeds %d days", MaxBookingLeadDays)
	}
	return nil
}

// VenueCut splits gross gig revenue; bps is the venue's share.
func VenueCut(grossCents int64, cutBps int32) int64 {
	if grossCents <= 0 || cutBps <= 0 {
		return 0
	}
	if cutBps > 10_000 {
		cutBps = 10_000
	}
	return (grossCents * int64(cutBps)) / 10_000
}

func clampNonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func clampCapacity(capacity int) int {
	if capacity < 1 {
		return 1
	}
	return capacity
}
