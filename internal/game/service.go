package game

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	db   *pgxpool.Pool
	log  *slog.Logger
	mu   sync.Mutex
	rand *mathrand.Rand
}

func NewService(db *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:   db,
		log:  logger,
		rand: mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) EnsureManager(ctx context.Context, userID, email, username string) error {
	if strings.TrimSpace(username) == "" {
		username = usernameFromEmail(email)
	}
	username = sanitizeUsername(username)
	inviteCode, err := generateInviteCode()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO users.profiles (user_id, email, username, invite_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, email, username, inviteCode)
	return err
}

// SeedDefaults loads the world catalog of cities and venues on an empty
// database. Idempotent: a non-empty venues table short-circuits.
func (s *Service) SeedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(1) FROM game.venues`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []struct {
		City     string
		Venue    string
		Capacity int
		CutBps   int32
	}{
		{"Portland", "The Rusted Anchor", 150, 2500},
		{"Portland", "Cascade Hall", 1200, 3000},
		{"Seattle", "Pike Street Basement", 200, 2500},
		{"Seattle", "Sound Garden Arena", 8500, 3500},
		{"Austin", "Red River Dive", 180, 2500},
		{"Austin", "Lone Star Amphitheater", 5000, 3200},
		{"Chicago", "The Blue Note Cellar", 300, 2800},
		{"Chicago", "Lakeside Pavilion", 6500, 3400},
		{"Nashville", "Broadway Corner Stage", 250, 2600},
		{"Nashville", "Grand Chord Hall", 2400, 3000},
		{"New York", "Alphabet City Loft", 120, 2400},
		{"New York", "Meridian Garden", 10000, 4000},
		{"Los Angeles", "Echo Park Garage", 160, 2500},
		{"Los Angeles", "Sunset Bowl", 9000, 3800},
		{"Denver", "Mile High Taproom", 220, 2600},
		{"Denver", "Front Range Theater", 1800, 3000},
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cityIDs := make(map[string]int64)
	for _, row := range seed {
		id, ok := cityIDs[row.City]
		if !ok {
			if err := tx.QueryRow(ctx, `
				INSERT INTO game.cities (name)
				VALUES ($1)
				ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				RETURNING id
			`, row.City).Scan(&id); err != nil {
				return err
			}
			cityIDs[row.City] = id
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO game.venues (city_id, name, capacity, cut_bps)
			VALUES ($1, $2, $3, $4)
		`, id, row.Venue, row.Capacity, row.CutBps); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Service) CreateBand(ctx context.Context, in CreateBandInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return 0, fmt.Errorf("band name is required")
	}
	if len(in.Name) > 64 {
		return 0, fmt.Errorf("band name too long (max 64 chars)")
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "create_band"); err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO game.bands (owner_user_id, name, fame, total_fans, casual_fans, dedicated_fans, superfans, balance_cents)
		VALUES ($1, $2, 0, 0, 0, 0, 0, 0)
		RETURNING id
	`, in.UserID, in.Name).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Service) Dashboard(ctx context.Context, userID string, bandID int64) (Dashboard, error) {
	var out Dashboard
	err := s.db.QueryRow(ctx, `
		SELECT id, name, fame, balance_cents, total_fans, casual_fans, dedicated_fans, superfans
		FROM game.bands
		WHERE id = $1 AND owner_user_id = $2
	`, bandID, userID).Scan(&out.BandID, &out.Name, &out.Fame, &out.BalanceCents,
		&out.TotalFans, &out.CasualFans, &out.DedicatedFans, &out.Superfans)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrBandNotFound
		}
		return out, err
	}

	gigs, err := s.listGigs(ctx, bandID, "booked")
	if err != nil {
		return out, err
	}
	out.OpenGigs = gigs

	cities, err := s.CityLedgers(ctx, userID, bandID)
	if err != nil {
		return out, err
	}
	out.Cities = cities
	return out, nil
}

func (s *Service) ListVenues(ctx context.Context) ([]VenueView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT v.id, v.name, c.name, v.capacity, v.cut_bps
		FROM game.venues v
		JOIN game.cities c ON c.id = v.city_id
		ORDER BY c.name, v.capacity
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VenueView
	for rows.Next() {
		var v VenueView
		if err := rows.Scan(&v.ID, &v.Name, &v.City, &v.Capacity, &v.CutBps); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// BookGig validates the booking, snapshots the sales forecast from the
// band's current fame/fans, and creates the gig in one transaction.
func (s *Service) BookGig(ctx context.Context, in BookGigInput) (GigView, error) {
	var out GigView
	if err := ValidateTicketPrice(in.TicketPriceCents); err != nil {
		return out, err
	}
	if err := ValidateLeadDays(in.DaysBooked); err != nil {
		return out, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "book_gig"); err != nil {
		return out, err
	}

	var fame, fans int64
	err = tx.QueryRow(ctx, `
		SELECT fame, total_fans
		FROM game.bands
		WHERE id = $1 AND owner_user_id = $2
	`, in.BandID, in.UserID).Scan(&fame, &fans)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrBandNotFound
		}
		return out, err
	}

	var venueName, cityName string
	var capacity int
	err = tx.QueryRow(ctx, `
		SELECT v.name, c.name, v.capacity
		FROM game.venues v
		JOIN game.cities c ON c.id = v.city_id
		WHERE v.id = $1
	`, in.VenueID).Scan(&venueName, &cityName, &capacity)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrVenueNotFound
		}
		return out, err
	}

	fc := ForecastSales(fame, fans, capacity, in.DaysBooked, in.TicketPriceCents)

	err = tx.QueryRow(ctx, `
		INSERT INTO game.gigs
		    (band_id, venue_id, ticket_price_cents, days_booked, days_until_gig, tickets_sold,
		     daily_sale_rate, expected_total_sales, sellout_probability, momentum, status)
		VALUES ($1, $2, $3, $4, $4, 0, $5, $6, $7, $8, 'booked')
		RETURNING id, created_at
	`, in.BandID, in.VenueID, in.TicketPriceCents, in.DaysBooked,
		fc.DailySaleRate, fc.ExpectedTotalSales, fc.SelloutProbability, string(fc.Momentum)).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return out, err
	}
	if err := tx.Commit(ctx); err != nil {
		return out, err
	}

	out.BandID = in.BandID
	out.Venue = venueName
	out.City = cityName
	out.Capacity = capacity
	out.TicketPriceCents = in.TicketPriceCents
	out.DaysBooked = in.DaysBooked
	out.DaysUntilGig = in.DaysBooked
	out.Status = "booked"
	out.Forecast = fc
	return out, nil
}

func (s *Service) GigDetail(ctx context.Context, userID string, gigID int64) (GigView, error) {
	var out GigView
	var momentum string
	err := s.db.QueryRow(ctx, `
		SELECT g.id, g.band_id, v.name, c.name, v.capacity, g.ticket_price_cents,
		       g.days_booked, g.days_until_gig, g.tickets_sold,
		       g.daily_sale_rate, g.expected_total_sales, g.sellout_probability, g.momentum,
		       g.status, g.created_at
		FROM game.gigs g
		JOIN game.venues v ON v.id = g.venue_id
		JOIN game.cities c ON c.id = v.city_id
		JOIN game.bands b ON b.id = g.band_id
		WHERE g.id = $1 AND b.owner_user_id = $2
	`, gigID, userID).Scan(&out.ID, &out.BandID, &out.Venue, &out.City, &out.Capacity,
		&out.TicketPriceCents, &out.DaysBooked, &out.DaysUntilGig, &out.TicketsSold,
		&out.Forecast.DailySaleRate, &out.Forecast.ExpectedTotalSales,
		&out.Forecast.SelloutProbability, &momentum, &out.Status, &out.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrGigNotFound
		}
		return out, err
	}
	out.Forecast.Momentum = Momentum(momentum)
	return out, nil
}

func (s *Service) listGigs(ctx context.Context, bandID int64, status string) ([]GigView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.band_id, v.name, c.name, v.capacity, g.ticket_price_cents,
		       g.days_booked, g.days_until_gig, g.tickets_sold,
		       g.daily_sale_rate, g.expected_total_sales, g.sellout_probability, g.momentum,
		       g.status, g.created_at
		FROM game.gigs g
		JOIN game.venues v ON v.id = g.venue_id
		JOIN game.cities c ON c.id = v.city_id
		WHERE g.band_id = $1 AND g.status = $2
		ORDER BY g.days_until_gig
	`, bandID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GigView
	for rows.Next() {
		var g GigView
		var momentum string
		if err := rows.Scan(&g.ID, &g.BandID, &g.Venue, &g.City, &g.Capacity,
			&g.TicketPriceCents, &g.DaysBooked, &g.DaysUntilGig, &g.TicketsSold,
			&g.Forecast.DailySaleRate, &g.Forecast.ExpectedTotalSales,
			&g.Forecast.SelloutProbability, &momentum, &g.Status, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Forecast.Momentum = Momentum(momentum)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Service) CityLedgers(ctx context.Context, userID string, bandID int64) ([]CityLedgerView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.name, f.total_fans, f.casual_fans, f.dedicated_fans, f.superfans,
		       f.gigs_in_city, f.last_gig_at
		FROM game.band_city_fans f
		JOIN game.cities c ON c.id = f.city_id
		JOIN game.bands b ON b.id = f.band_id
		WHERE f.band_id = $1 AND b.owner_user_id = $2
		ORDER BY f.total_fans DESC
	`, bandID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CityLedgerView
	for rows.Next() {
		var v CityLedgerView
		if err := rows.Scan(&v.City, &v.TotalFans, &v.CasualFans, &v.DedicatedFans,
			&v.Superfans, &v.GigsInCity, &v.LastGigAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.name, pr.username, b.fame, b.total_fans
		FROM game.bands b
		JOIN users.profiles pr ON pr.user_id = b.owner_user_id
		ORDER BY b.fame DESC, b.total_fans DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	var rank int64 = 1
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Band, &r.Manager, &r.Fame, &r.TotalFans); err != nil {
			return nil, err
		}
		r.Rank = rank
		rank++
		out = append(out, r)
	}
	return out, rows.Err()
}

func claimIdempotency(ctx context.Context, tx pgx.Tx, userID, key, action string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("idempotency key is required")
	}
	cmd, err := tx.Exec(ctx, `
		INSERT INTO game.idempotency_keys (user_id, key, action, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, key) DO NOTHING
	`, userID, key, action)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateIdempotency
	}
	return nil
}

func appendLedgerEntries(ctx context.Context, tx pgx.Tx, bandID int64, action string, amountCents int64) error {
	txID := uuid.NewString()
	meta, _ := json.Marshal(map[string]any{"action": action})
	_, err := tx.Exec(ctx, `
		INSERT INTO game.ledger_entries (tx_group_id, band_id, account, delta_cents, metadata)
		VALUES
		($1, $2, 'wallet', $3, $5::jsonb),
		($1, $2, 'counterparty', $4, $5::jsonb)
	`, txID, bandID, amountCents, -amountCents, string(meta))
	return err
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// runSerializable executes fn inside a serializable transaction, retrying
// on SQLSTATE 40001 with bounded exponential backoff. fn owns the commit.
func (s *Service) runSerializable(ctx context.Context, fn func(tx pgx.Tx) error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			return fn(tx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			return ErrTxConflict
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}

func (s *Service) nextFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

func (s *Service) randSource() *mathrand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mathrand.New(mathrand.NewSource(s.rand.Int63()))
}

func generateInviteCode() (string, error) {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = letters[int(buf[i])%len(letters)]
	}
	return string(buf), nil
}

func usernameFromEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	parts := strings.Split(email, "@")
	if len(parts) == 0 || parts[0] == "" {
		return "manager"
	}
	return parts[0]
}

func sanitizeUsername(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	res := strings.Trim(string(out), "_")
	if len(res) < 3 {
		res = "manager_" + res
	}
	if len(res) > 24 {
		res = res[:24]
	}
	return res
}
