package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	cl "soundcheck/internal/cli"
	"soundcheck/internal/config"
	"soundcheck/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "sck",
		Short:        "Soundcheck CLI band manager",
		SilenceUsage: true,
	}

	root.AddCommand(
		newSignupCmd(&apiBase),
		newLoginCmd(&apiBase),
		newLogoutCmd(),
		newBandCmd(&apiBase),
		newDashCmd(&apiBase),
		newVenuesCmd(&apiBase),
		newGigCmd(&apiBase),
		newLedgerCmd(&apiBase),
		newTopCmd(&apiBase),
		newSyncCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 45*time.Second)
}

func requireSession() (cl.Session, error) {
	sess, err := cl.LoadSession()
	if err != nil {
		return cl.Session{}, fmt.Errorf("not logged in: run `sck login` first")
	}
	return sess, nil
}

func isTransportError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func newSignupCmd(apiBase *string) *cobra.Command {
	var email, password, username string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a manager account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			session, err := cl.NewClient(*apiBase).Signup(ctx, email, password, username)
			if err != nil {
				return err
			}
			if session.AccessToken == "" {
				printWarn("account created, confirm your email then run `sck login`")
				return nil
			}
			if err := cl.SaveSession(cl.Session{
				AccessToken:  session.AccessToken,
				RefreshToken: session.RefreshToken,
				Email:        session.User.Email,
				UserID:       session.User.ID,
			}); err != nil {
				return err
			}
			printSuccess("signed up and logged in as " + session.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&username, "username", "", "manager handle")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(apiBase *string) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the soundcheck api",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			session, err := cl.NewClient(*apiBase).Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				AccessToken:  session.AccessToken,
				RefreshToken: session.RefreshToken,
				Email:        session.User.Email,
				UserID:       session.User.ID,
			}); err != nil {
				return err
			}
			printSuccess("logged in as " + session.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printInfo("session cleared")
			return nil
		},
	}
}

func newBandCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "band",
		Short: "Manage your bands",
	}

	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Form a new band",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			id, err := cl.NewClient(*apiBase).CreateBand(ctx, sess.AccessToken, name, uuid.NewString())
			if err != nil {
				return err
			}
			sess.BandID = id
			if err := cl.SaveSession(sess); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("band %q formed (id %d), set as active", name, id))
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "band name")
	_ = create.MarkFlagRequired("name")

	use := &cobra.Command{
		Use:   "use [band-id]",
		Short: "Select the active band",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			sess.BandID = id
			if err := cl.SaveSession(sess); err != nil {
				return err
			}
			printInfo(fmt.Sprintf("active band set to %d", id))
			return nil
		},
	}

	cmd.AddCommand(create, use)
	return cmd
}

func newDashCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Show the active band's dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			if sess.BandID == 0 {
				return fmt.Errorf("no active band: run `sck band create` or `sck band use`")
			}
			ctx, cancel := cmdContext()
			defer cancel()
			dash, err := cl.NewClient(*apiBase).Dashboard(ctx, sess.AccessToken, sess.BandID)
			if err != nil {
				return err
			}
			renderDashboard(dash)
			return nil
		},
	}
}

func newVenuesCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "venues",
		Short: "List bookable venues",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			venues, err := cl.NewClient(*apiBase).Venues(ctx, sess.AccessToken)
			if err != nil {
				return err
			}
			renderVenues(venues)
			return nil
		},
	}
}

func newGigCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gig",
		Short: "Book and settle gigs",
	}

	var venueID int64
	var priceDollars float64
	var days int
	book := &cobra.Command{
		Use:   "book",
		Short: "Book a gig at a venue",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			if sess.BandID == 0 {
				return fmt.Errorf("no active band")
			}
			ctx, cancel := cmdContext()
			defer cancel()
			idem := uuid.NewString()
			priceCents := int64(priceDollars * 100)
			gig, err := cl.NewClient(*apiBase).BookGig(ctx, sess.AccessToken, sess.BandID, venueID, priceCents, days, idem)
			if err != nil {
				if isTransportError(err) {
					qErr := syncq.Push(syncq.Command{
						Method: "POST",
						Path:   "/v1/gigs",
						Body: map[string]any{
							"band_id":            sess.BandID,
							"venue_id":           venueID,
							"ticket_price_cents": priceCents,
							"days_booked":        days,
						},
						IdempotencyKey: idem,
					})
					if qErr != nil {
						return qErr
					}
					printWarn("api unreachable, booking queued for `sck sync`")
					return nil
				}
				return err
			}
			renderGig(gig)
			return nil
		},
	}
	book.Flags().Int64Var(&venueID, "venue", 0, "venue id")
	book.Flags().Float64Var(&priceDollars, "price", 15, "ticket price in dollars")
	book.Flags().IntVar(&days, "days", 14, "days of advance booking")
	_ = book.MarkFlagRequired("venue")

	show := &cobra.Command{
		Use:   "show [gig-id]",
		Short: "Show a gig's sales progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			gig, err := cl.NewClient(*apiBase).GigDetail(ctx, sess.AccessToken, id)
			if err != nil {
				return err
			}
			renderGig(gig)
			return nil
		},
	}

	var rating float64
	var grade string
	complete := &cobra.Command{
		Use:   "complete [gig-id]",
		Short: "Settle a concluded gig",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			outcome, err := cl.NewClient(*apiBase).CompleteGig(ctx, sess.AccessToken, id, rating, grade)
			if err != nil {
				return err
			}
			renderOutcome(outcome)
			return nil
		},
	}
	complete.Flags().Float64Var(&rating, "rating", 0, "performance rating 0-25")
	complete.Flags().StringVar(&grade, "grade", "", "performance grade (S+, S, A, B, C, D, F)")
	_ = complete.MarkFlagRequired("rating")

	outcome := &cobra.Command{
		Use:   "outcome [gig-id]",
		Short: "Show a settled gig's outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			out, err := cl.NewClient(*apiBase).GigOutcome(ctx, sess.AccessToken, id)
			if err != nil {
				return err
			}
			renderOutcome(out)
			return nil
		},
	}

	cmd.AddCommand(book, show, complete, outcome)
	return cmd
}

func newLedgerCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "Show the active band's per-city fanbase",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			if sess.BandID == 0 {
				return fmt.Errorf("no active band")
			}
			ctx, cancel := cmdContext()
			defer cancel()
			cities, err := cl.NewClient(*apiBase).CityLedgers(ctx, sess.AccessToken, sess.BandID)
			if err != nil {
				return err
			}
			renderCities(cities)
			return nil
		},
	}
}

func newTopCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Show the fame leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			rows, err := cl.NewClient(*apiBase).Leaderboard(ctx, sess.AccessToken)
			if err != nil {
				return err
			}
			renderLeaderboard(rows)
			return nil
		},
	}
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued offline commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			commands, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(commands) == 0 {
				printInfo("queue is empty")
				return nil
			}
			client := cl.NewClient(*apiBase)
			var remaining []syncq.Command
			for _, qc := range commands {
				ctx, cancel := cmdContext()
				err := client.Do(ctx, sess.AccessToken, qc.Method, qc.Path, qc.Body, qc.IdempotencyKey)
				cancel()
				if err != nil {
					if isTransportError(err) {
						remaining = append(remaining, qc)
						printWarn(fmt.Sprintf("%s %s still unreachable", qc.Method, qc.Path))
						continue
					}
					// Server-side rejection (including duplicate idempotency
					// key for an already-applied replay): drop it.
					printWarn(fmt.Sprintf("%s %s rejected: %v", qc.Method, qc.Path, err))
					continue
				}
				printSuccess(fmt.Sprintf("%s %s replayed", qc.Method, qc.Path))
			}
			if remaining == nil {
				remaining = []syncq.Command{}
			}
			return syncq.Save(remaining)
		},
	}
}
