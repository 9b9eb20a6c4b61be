package game

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5"
)

// SettleGig converts a concluded gig's attendance into fans, revenue and
// fame, atomically. The write-once outcome row keyed by gig id is the
// idempotency guard: a second settlement of the same gig fails with
// ErrGigAlreadySettled and changes nothing. City ledger, band aggregate,
// wallet and money ledger all move inside the same serializable
// transaction, so a failure at any point leaves no partial state.
//
// UserID empty means an internal caller (the worker); ownership is then
// not checked. Attendance < 0 means "use tickets sold".
func (s *Service) SettleGig(ctx context.Context, in SettleGigInput) (OutcomeView, error) {
	var out OutcomeView
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		var (
			bandID, venueID int64
			ownerID, status string
			ticketsSold     int
			priceCents      int64
			daysUntil       int
		)
		if err := tx.QueryRow(ctx, `
			SELECT g.band_id, g.venue_id, b.owner_user_id, g.status,
			       g.tickets_sold, g.ticket_price_cents, g.days_until_gig
			FROM game.gigs g
			JOIN game.bands b ON b.id = g.band_id
			WHERE g.id = $1
			FOR UPDATE OF g, b
		`, in.GigID).Scan(&bandID, &venueID, &ownerID, &status,
			&ticketsSold, &priceCents, &daysUntil); err != nil {
			if err == pgx.ErrNoRows {
				return ErrGigNotFound
			}
			return err
		}
		if in.UserID != "" && ownerID != in.UserID {
			return ErrUnauthorized
		}
		if status == "settled" {
			return ErrGigAlreadySettled
		}
		if daysUntil > 0 {
			return ErrGigNotConcluded
		}

		attendance := in.Attendance
		if attendance < 0 || attendance > ticketsSold {
			attendance = ticketsSold
		}
		rating := ClampRating(in.Rating)
		grade := in.Grade
		if grade == "" {
			grade = GradeForRating(rating)
		}

		var cityID int64
		var cityName string
		var cutBps int32
		if err := tx.QueryRow(ctx, `
			SELECT c.id, c.name, v.cut_bps
			FROM game.venues v
			JOIN game.cities c ON c.id = v.city_id
			WHERE v.id = $1
		`, venueID).Scan(&cityID, &cityName, &cutBps); err != nil {
			return err
		}

		var fame int64
		var band CityFanLedger
		var balance int64
		if err := tx.QueryRow(ctx, `
			SELECT fame, total_fans, casual_fans, dedicated_fans, superfans, balance_cents
			FROM game.bands
			WHERE id = $1
		`, bandID).Scan(&fame, &band.TotalFans, &band.CasualFans,
			&band.DedicatedFans, &band.Superfans, &balance); err != nil {
			return err
		}

		city, cityExists, err := cityLedgerTx(ctx, tx, bandID, cityID)
		if err != nil {
			return err
		}

		result := ConvertAttendance(ConversionInput{
			Attendance: attendance,
			Rating:     rating,
			Grade:      grade,
			BandFame:   fame,
			City:       city,
		})

		gross := int64(attendance) * priceCents
		venueCut := VenueCut(gross, cutBps)
		bandRevenue := gross - venueCut

		// Insert-if-absent on the natural key; losing the race to another
		// settlement of the same gig is a clean already-settled result.
		cmd, err := tx.Exec(ctx, `
			INSERT INTO game.gig_outcomes
			    (gig_id, band_id, city_id, attendance, rating, grade,
			     new_fans_gained, casual_fans, dedicated_fans, superfans,
			     repeat_attendees, conversion_rate_bps,
			     gross_revenue_cents, venue_cut_cents, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
			ON CONFLICT (gig_id) DO NOTHING
		`, in.GigID, bandID, cityID, attendance, rating, grade,
			result.NewFansGained, result.CasualFans, result.DedicatedFans, result.Superfans,
			result.RepeatAttendees, int32(math.Round(result.ConversionRate*10_000)),
			gross, venueCut)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrGigAlreadySettled
		}

		if _, err := tx.Exec(ctx, `
			UPDATE game.gigs
			SET status = 'settled', updated_at = now()
			WHERE id = $1
		`, in.GigID); err != nil {
			return err
		}

		merged := city.Apply(result)
		if err := writeCityLedgerTx(ctx, tx, bandID, cityID, merged, cityExists); err != nil {
			return err
		}

		fameGained := result.NewFansGained/5 + int64(math.Round(rating))
		updated := band.Apply(result)
		if _, err := tx.Exec(ctx, `
			UPDATE game.bands
			SET fame = fame + $1,
			    total_fans = $2, casual_fans = $3, dedicated_fans = $4, superfans = $5,
			    balance_cents = balance_cents + $6,
			    updated_at = now()
			WHERE id = $7
		`, fameGained, updated.TotalFans, updated.CasualFans, updated.DedicatedFans,
			updated.Superfans, bandRevenue, bandID); err != nil {
			return err
		}

		if bandRevenue != 0 {
			if err := appendLedgerEntries(ctx, tx, bandID, "gig_revenue", bandRevenue); err != nil {
				return err
			}
		}

		out = OutcomeView{
			GigID:             in.GigID,
			City:              cityName,
			Attendance:        attendance,
			Rating:            rating,
			Grade:             grade,
			NewFansGained:     result.NewFansGained,
			CasualFans:        result.CasualFans,
			DedicatedFans:     result.DedicatedFans,
			Superfans:         result.Superfans,
			RepeatAttendees:   result.RepeatAttendees,
			ConversionRatePct: math.Round(result.ConversionRate*10_000) / 100,
			GrossRevenueCents: gross,
			VenueCutCents:     venueCut,
			BandRevenueCents:  bandRevenue,
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return OutcomeView{}, err
	}

	s.log.Info("gig settled",
		"gig_id", out.GigID,
		"city", out.City,
		"attendance", out.Attendance,
		"new_fans", out.NewFansGained,
		"band_revenue_cents", out.BandRevenueCents)
	return out, nil
}

// GigOutcome returns the persisted write-once record for a settled gig.
func (s *Service) GigOutcome(ctx context.Context, userID string, gigID int64) (OutcomeView, error) {
	var out OutcomeView
	var rateBps int32
	err := s.db.QueryRow(ctx, `
		SELECT o.gig_id, c.name, o.attendance, o.rating, o.grade,
		       o.new_fans_gained, o.casual_fans, o.dedicated_fans, o.superfans,
		       o.repeat_attendees, o.conversion_rate_bps,
		       o.gross_revenue_cents, o.venue_cut_cents
		FROM game.gig_outcomes o
		JOIN game.cities c ON c.id = o.city_id
		JOIN game.bands b ON b.id = o.band_id
		WHERE o.gig_id = $1 AND b.owner_user_id = $2
	`, gigID, userID).Scan(&out.GigID, &out.City, &out.Attendance, &out.Rating, &out.Grade,
		&out.NewFansGained, &out.CasualFans, &out.DedicatedFans, &out.Superfans,
		&out.RepeatAttendees, &rateBps, &out.GrossRevenueCents, &out.VenueCutCents)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrGigNotFound
		}
		return out, err
	}
	out.ConversionRatePct = float64(rateBps) / 100
	out.BandRevenueCents = out.GrossRevenueCents - out.VenueCutCents
	out.AlreadySettled = true
	return out, nil
}

// RunSalesTick advances one simulated sales day for every open gig, then
// auto-settles gigs that reached show day. The forecast is recomputed from
// the band's current fame and fans each tick, so fan growth from earlier
// settlements raises later gigs' draw.
func (s *Service) RunSalesTick(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT g.id, g.tickets_sold, g.days_until_gig, g.days_booked, g.ticket_price_cents,
		       v.capacity, b.fame, b.total_fans
		FROM game.gigs g
		JOIN game.venues v ON v.id = g.venue_id
		JOIN game.bands b ON b.id = g.band_id
		WHERE g.status = 'booked'
		FOR UPDATE OF g
	`)
	if err != nil {
		return err
	}
	type openGig struct {
		id         int64
		sold       int
		daysUntil  int
		daysBooked int
		priceCents int64
		capacity   int
		fame       int64
		fans       int64
	}
	var gigs []openGig
	for rows.Next() {
		var g openGig
		if err := rows.Scan(&g.id, &g.sold, &g.daysUntil, &g.daysBooked, &g.priceCents,
			&g.capacity, &g.fame, &g.fans); err != nil {
			rows.Close()
			return err
		}
		gigs = append(gigs, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rng := s.randSource()
	var due []int64
	for _, g := range gigs {
		if g.daysUntil <= 0 {
			due = append(due, g.id)
			continue
		}
		fc := ForecastSales(g.fame, g.fans, g.capacity, g.daysBooked, g.priceCents)
		sold := SimulateSalesDay(g.sold, g.capacity, fc.DailySaleRate, g.daysUntil, rng)
		nextDays := g.daysUntil - 1
		if _, err := tx.Exec(ctx, `
			UPDATE game.gigs
			SET tickets_sold = tickets_sold + $1,
			    days_until_gig = $2,
			    daily_sale_rate = $3,
			    momentum = $4,
			    updated_at = now()
			WHERE id = $5
		`, sold, nextDays, fc.DailySaleRate, string(fc.Momentum), g.id); err != nil {
			return err
		}
		if nextDays <= 0 {
			due = append(due, g.id)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	for _, gigID := range due {
		if err := s.autoSettle(ctx, gigID); err != nil {
			if err == ErrGigAlreadySettled {
				continue
			}
			s.log.Error("auto settle failed", "gig_id", gigID, "err", err)
		}
	}
	return nil
}

// autoSettle closes a gig the manager never completed manually: the
// performance rating is drawn from fame with bounded jitter.
func (s *Service) autoSettle(ctx context.Context, gigID int64) error {
	var fame int64
	err := s.db.QueryRow(ctx, `
		SELECT b.fame
		FROM game.gigs g
		JOIN game.bands b ON b.id = g.band_id
		WHERE g.id = $1
	`, gigID).Scan(&fame)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrGigNotFound
		}
		return err
	}

	base := 10 + 8*math.Min(1, float64(fame)/FameDrawCeiling)
	rating := ClampRating(base + (s.nextFloat()*8 - 3))

	_, err = s.SettleGig(ctx, SettleGigInput{
		GigID:      gigID,
		Attendance: -1,
		Rating:     rating,
		Grade:      GradeForRating(rating),
	})
	return err
}

func cityLedgerTx(ctx context.Context, tx pgx.Tx, bandID, cityID int64) (CityFanLedger, bool, error) {
	var l CityFanLedger
	err := tx.QueryRow(ctx, `
		SELECT total_fans, casual_fans, dedicated_fans, superfans, gigs_in_city
		FROM game.band_city_fans
		WHERE band_id = $1 AND city_id = $2
		FOR UPDATE
	`, bandID, cityID).Scan(&l.TotalFans, &l.CasualFans, &l.DedicatedFans,
		&l.Superfans, &l.GigsInCity)
	if err == pgx.ErrNoRows {
		return CityFanLedger{}, false, nil
	}
	if err != nil {
		return CityFanLedger{}, false, err
	}
	return l, true, nil
}

func writeCityLedgerTx(ctx context.Context, tx pgx.Tx, bandID, cityID int64, l CityFanLedger, exists bool) error {
	if !exists {
		_, err := tx.Exec(ctx, `
			INSERT INTO game.band_city_fans
			    (band_id, city_id, total_fans, casual_fans, dedicated_fans, superfans, gigs_in_city, last_gig_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`, bandID, cityID, l.TotalFans, l.CasualFans, l.DedicatedFans, l.Superfans, l.GigsInCity)
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE game.band_city_fans
		SET total_fans = $1, casual_fans = $2, dedicated_fans = $3, superfans = $4,
		    gigs_in_city = $5, last_gig_at = now()
		WHERE band_id = $6 AND city_id = $7
	`, l.TotalFans, l.CasualFans, l.DedicatedFans, l.Superfans, l.GigsInCity, bandID, cityID)
	return err
}
