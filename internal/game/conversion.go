package game

import "math"

// CityFanLedger mirrors one band_city_fans row: a band's accumulated
// fanbase scoped to a single city. A band with no prior gigs in the city
// is represented by the zero value.
type CityFanLedger struct {
	TotalFans     int64 `json:"total_fans"`
	CasualFans    int64 `json:"casual_fans"`
	DedicatedFans int64 `json:"dedicated_fans"`
	Superfans     int64 `json:"superfans"`
	GigsInCity    int   `json:"gigs_in_city"`
}

// ConversionInput carries the post-gig numbers the fan conversion
// calculator needs. Rating is on the 0-25 scale and clamped.
type ConversionInput struct {
	Attendance int
	Rating     float64
	Grade      string
	BandFame   int64
	City       CityFanLedger
}

// ConversionResult is the pure outcome of one gig's fan conversion,
// before any persistence.
type ConversionResult struct {
	NewFansGained   int64   `json:"new_fans_gained"`
	CasualFans      int64   `json:"casual_fans"`
	DedicatedFans   int64   `json:"dedicated_fans"`
	Superfans       int64   `json:"superfans"`
	RepeatAttendees int64   `json:"repeat_attendees"`
	ConversionRate  float64 `json:"conversion_rate"`
	GigsInCity      int     `json:"gigs_in_city"`
}

// ConvertAttendance turns a settled gig's attendance into new fans.
//
// Existing city fans come back first: the repeat-attendee share grows with
// gigs played in the city and with fame, capped at 80%, and is bounded by
// both the existing city fanbase and the actual attendance. Whoever is
// left is a potential new fan, converted at a rate built from a 5% floor
// plus rating and fame bonuses, scaled by the performance grade and capped
// at 35%. New fans split into tiers by rating, with casual absorbing the
// rounding remainder so the tiers always sum to the total gained.
func ConvertAttendance(in ConversionInput) ConversionResult {
	attendance := in.Attendance
	if attendance < 0 {
		attendance = 0
	}
	rating := ClampRating(in.Rating)
	fame := clampNonNegative(float64(in.BandFame))
	existing := in.City.TotalFans
	if existing < 0 {
		existing = 0
	}

	gigsInCity := in.City.GigsInCity + 1

	repeatRate := math.Min(MaxRepeatRate, float64(gigsInCity)*0.1+(fame/FameRepeatCeiling)*0.3)
	repeat := int64(math.Floor(math.Min(float64(existing), float64(attendance)*repeatRate)))

	newPotential := int64(attendance) - repeat
	if newPotential < 0 {
		newPotential = 0
	}

	ratingBonus := (rating / RatingScaleMax) * 0.1
	fameBonus := math.Min(0.05, fame/FameConversionCeiling)
	rate := math.Min(MaxConversionRate, (0.05+ratingBonus+fameBonus)*GradeMultiplier(in.Grade))

	gained := int64(math.Floor(float64(newPotential) * rate))

	superfanRate, dedicatedRate := tierRates(rating)
	superfans := int64(math.Floor(float64(gained) * superfanRate))
	dedicated := int64(math.Floor(float64(gained) * dedicatedRate))
	casual := gained - superfans - dedicated

	return ConversionResult{
		NewFansGained:   gained,
		CasualFans:      casual,
		DedicatedFans:   dedicated,
		Superfans:       superfans,
		RepeatAttendees: repeat,
		ConversionRate:  rate,
		GigsInCity:      gigsInCity,
	}
}

func tierRates(rating float64) (superfan, dedicated float64) {
	switch {
	case rating >= 22:
		superfan = 0.10
	case rating >= 18:
		superfan = 0.05
	default:
		superfan = 0.02
	}
	switch {
	case rating >= 18:
		dedicated = 0.25
	case rating >= 14:
		dedicated = 0.15
	default:
		dedicated = 0.10
	}
	return superfan, dedicated
}

// Apply merges a conversion result into the ledger, returning the updated
// copy. Used for both the per-city row and the band aggregate so the two
// move in lockstep inside the settlement transaction.
func (l CityFanLedger) Apply(r ConversionResult) CityFanLedger {
	l.TotalFans += r.NewFansGained
	l.CasualFans += r.CasualFans
	l.DedicatedFans += r.DedicatedFans
	l.Superfans += r.Superfans
	l.GigsInCity = r.GigsInCity
	return l
}
