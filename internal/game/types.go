package game

import "time"

type Dashboard struct {
	BandID        int64            `json:"band_id"`
	Name          string           `json:"name"`
	Fame          int64            `json:"fame"`
	BalanceCents  int64            `json:"balance_cents"`
	TotalFans     int64            `json:"total_fans"`
	CasualFans    int64            `json:"casual_fans"`
	DedicatedFans int64            `json:"dedicated_fans"`
	Superfans     int64            `json:"superfans"`
	OpenGigs      []GigView        `json:"open_gigs"`
	Cities        []CityLedgerView `json:"cities"`
}

type VenueView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Capacity int    `json:"capacity"`
	CutBps   int32  `json:"cut_bps"`
}

type GigView struct {
	ID               int64     `json:"id"`
	BandID           int64     `json:"band_id"`
	Venue            string    `json:"venue"`
	City             string    `json:"city"`
	Capacity         int       `json:"capacity"`
	TicketPriceCents int64     `json:"ticket_price_cents"`
	DaysBooked       int       `json:"days_booked"`
	DaysUntilGig     int       `json:"days_until_gig"`
	TicketsSold      int       `json:"tickets_sold"`
	Status           string    `json:"status"`
	Forecast         Forecast  `json:"forecast"`
	CreatedAt        time.Time `json:"created_at"`
}

type CityLedgerView struct {
	City          string    `json:"city"`
	TotalFans     int64     `json:"total_fans"`
	CasualFans    int64     `json:"casual_fans"`
	DedicatedFans int64     `json:"dedicated_fans"`
	Superfans     int64     `json:"superfans"`
	GigsInCity    int       `json:"gigs_in_city"`
	LastGigAt     time.Time `json:"last_gig_at"`
}

type OutcomeView struct {
	GigID             int64   `json:"gig_id"`
	City              string  `json:"city"`
	Attendance        int     `json:"attendance"`
	Rating            float64 `json:"rating"`
	Grade             string  `json:"grade"`
	NewFansGained     int64   `json:"new_fans_gained"`
	CasualFans        int64   `json:"casual_fans"`
	DedicatedFans     int64   `json:"dedicated_fans"`
	Superfans         int64   `json:"superfans"`
	RepeatAttendees   int64   `json:"repeat_attendees"`
	ConversionRatePct float64 `json:"conversion_rate_percent"`
	GrossRevenueCents int64   `json:"gross_revenue_cents"`
	VenueCutCents     int64   `json:"venue_cut_cents"`
	BandRevenueCents  int64   `json:"band_revenue_cents"`
	AlreadySettled    bool    `json:"already_settled"`
}

type CreateBandInput struct {
	UserID         string
	Name           string
	IdempotencyKey string
}

type BookGigInput struct {
	UserID           string
	BandID           int64
	VenueID          int64
	TicketPriceCents int64
	DaysBooked       int
	IdempotencyKey   string
}

type SettleGigInput struct {
	UserID     string
	GigID      int64
	Attendance int
	Rating     float64
	Grade      string
}

type LeaderboardRow struct {
	Rank      int64  `json:"rank"`
	Band      string `json:"band"`
	Manager   string `json:"manager"`
	Fame      int64  `json:"fame"`
	TotalFans int64  `json:"total_fans"`
}
