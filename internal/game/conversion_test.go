package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertAttendanceFirstGigInCity(t *testing.T) {
	// No prior city ledger: nobody can be a repeat attendee, so all 500
	// heads are potential new fans. Rating 20 with grade A gives
	// (0.05+0.08+0.05)*1.5 = 0.27 conversion.
	res := ConvertAttendance(ConversionInput{
		Attendance: 500,
		Rating:     20,
		Grade:      "A",
		BandFame:   3000,
		City:       CityFanLedger{},
	})

	assert.EqualValues(t, 0, res.RepeatAttendees)
	assert.EqualValues(t, 135, res.NewFansGained)
	assert.EqualValues(t, 6, res.Superfans)
	assert.EqualValues(t, 33, res.DedicatedFans)
	assert.EqualValues(t, 96, res.CasualFans)
	assert.InDelta(t, 0.27, res.ConversionRate, 1e-9)
	assert.Equal(t, 1, res.GigsInCity)
}

func TestConvertAttendanceRepeatCrowd(t *testing.T) {
	// Fourth gig in a city with a big established fanbase: repeat rate is
	// 4*0.1 + (8000/10000)*0.3 = 0.64, bounded by attendance share.
	res := ConvertAttendance(ConversionInput{
		Attendance: 300,
		Rating:     15,
		Grade:      "B",
		BandFame:   8000,
		City: CityFanLedger{
			TotalFans:  2000,
			GigsInCity: 3,
		},
	})

	assert.EqualValues(t, 192, res.RepeatAttendees)
	assert.Equal(t, 4, res.GigsInCity)

	// Only the remaining 108 heads were up for conversion.
	require.LessOrEqual(t, res.NewFansGained, int64(108))
	assert.Positive(t, res.NewFansGained)
}

func TestConvertAttendanceRepeatBoundedByExistingFans(t *testing.T) {
	res := ConvertAttendance(ConversionInput{
		Attendance: 1000,
		Rating:     12,
		Grade:      "C",
		BandFame:   50_000,
		City: CityFanLedger{
			TotalFans:  40,
			GigsInCity: 9,
		},
	})
	assert.EqualValues(t, 40, res.RepeatAttendees)
}

func TestConversionRateCapped(t *testing.T) {
	// Max rating, S+ grade, huge fame: (0.05+0.1+0.05)*2.5 = 0.5, capped.
	res := ConvertAttendance(ConversionInput{
		Attendance: 1000,
		Rating:     25,
		Grade:      "S+",
		BandFame:   1_000_000,
		City:       CityFanLedger{},
	})
	assert.InDelta(t, MaxConversionRate, res.ConversionRate, 1e-9)
	// float64(0.35) sits a hair under 35/100, so the floor lands on 349.
	assert.EqualValues(t, 349, res.NewFansGained)
}

func TestConversionTiersSumToGained(t *testing.T) {
	inputs := []ConversionInput{
		{Attendance: 500, Rating: 20, Grade: "A", BandFame: 3000},
		{Attendance: 73, Rating: 9, Grade: "F", BandFame: 120},
		{Attendance: 9999, Rating: 24.5, Grade: "S+", BandFame: 80_000},
		{Attendance: 1, Rating: 14, Grade: "B", BandFame: 0},
		{Attendance: 0, Rating: 22, Grade: "S", BandFame: 500},
	}
	for _, in := range inputs {
		res := ConvertAttendance(in)
		assert.Equal(t, res.NewFansGained, res.CasualFans+res.DedicatedFans+res.Superfans,
			"attendance=%d rating=%v", in.Attendance, in.Rating)
		assert.GreaterOrEqual(t, res.CasualFans, int64(0))
	}
}

func TestConvertAttendanceNegativeAttendance(t *testing.T) {
	res := ConvertAttendance(ConversionInput{
		Attendance: -50,
		Rating:     20,
		Grade:      "A",
		BandFame:   3000,
	})
	assert.Zero(t, res.NewFansGained)
	assert.Zero(t, res.RepeatAttendees)
}

func TestConvertAttendanceUnknownGradeIsNeutral(t *testing.T) {
	base := ConversionInput{Attendance: 400, Rating: 16, BandFame: 2000}

	unknown := base
	unknown.Grade = "??"
	neutral := base
	neutral.Grade = "C"

	assert.Equal(t, ConvertAttendance(neutral), ConvertAttendance(unknown))
}

func TestCityFanLedgerApply(t *testing.T) {
	ledger := CityFanLedger{
		TotalFans:     100,
		CasualFans:    70,
		DedicatedFans: 25,
		Superfans:     5,
		GigsInCity:    2,
	}
	res := ConversionResult{
		NewFansGained: 50,
		CasualFans:    35,
		DedicatedFans: 12,
		Superfans:     3,
		GigsInCity:    3,
	}

	got := ledger.Apply(res)
	assert.EqualValues(t, 150, got.TotalFans)
	assert.EqualValues(t, 105, got.CasualFans)
	assert.EqualValues(t, 37, got.DedicatedFans)
	assert.EqualValues(t, 8, got.Superfans)
	assert.Equal(t, 3, got.GigsInCity)

	// Tier counts still reconcile with the total after the merge.
	assert.Equal(t, got.TotalFans, got.CasualFans+got.DedicatedFans+got.Superfans)
}
