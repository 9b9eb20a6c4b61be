package main

import (
	"fmt"
	"strconv"

	"soundcheck/internal/game"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/game.CentsPerDollar, cents%game.CentsPerDollar)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func renderDashboard(d game.Dashboard) {
	accent.Printf("\n== %s ==\n", d.Name)
	fmt.Printf("Fame:        %d\n", d.Fame)
	fmt.Printf("Balance:     %s\n", formatCents(d.BalanceCents))
	fmt.Printf("Total Fans:  %d (casual %d / dedicated %d / superfans %d)\n",
		d.TotalFans, d.CasualFans, d.DedicatedFans, d.Superfans)

	fmt.Println()
	accent.Println("Open Gigs")
	if len(d.OpenGigs) == 0 {
		printInfo("No gigs booked. Try `sck gig book`.")
	} else {
		fmt.Printf("%-6s %-22s %-14s %8s %8s %6s %9s %-8s\n",
			"ID", "VENUE", "CITY", "SOLD", "CAP", "DAYS", "PRICE", "PACE")
		for _, g := range d.OpenGigs {
			fmt.Printf("%-6d %-22s %-14s %8d %8d %6d %9s %-8s\n",
				g.ID,
				truncate(g.Venue, 22),
				truncate(g.City, 14),
				g.TicketsSold,
				g.Capacity,
				g.DaysUntilGig,
				formatCents(g.TicketPriceCents),
				g.Forecast.Momentum,
			)
		}
	}

	fmt.Println()
	accent.Println("Cities")
	if len(d.Cities) == 0 {
		printInfo("No fans anywhere yet. Play a gig.")
	} else {
		renderCityRows(d.Cities)
	}
	fmt.Println()
}

func renderVenues(venues []game.VenueView) {
	if len(venues) == 0 {
		printInfo("No venues available.")
		return
	}
	accent.Println("\nVenues")
	fmt.Printf("%-6s %-24s %-14s %10s %10s\n", "ID", "NAME", "CITY", "CAPACITY", "VENUE CUT")
	for _, v := range venues {
		fmt.Printf("%-6d %-24s %-14s %10d %9.1f%%\n",
			v.ID,
			truncate(v.Name, 24),
			truncate(v.City, 14),
			v.Capacity,
			float64(v.CutBps)/100,
		)
	}
	fmt.Println()
}

func renderGig(g game.GigView) {
	accent.Printf("\n== GIG %d: %s (%s) ==\n", g.ID, g.Venue, g.City)
	fmt.Printf("Status:        %s\n", g.Status)
	fmt.Printf("Tickets:       %d / %d sold\n", g.TicketsSold, g.Capacity)
	fmt.Printf("Price:         %s\n", formatCents(g.TicketPriceCents))
	fmt.Printf("Days To Go:    %d\n", g.DaysUntilGig)
	fmt.Printf("Daily Rate:    %.4f\n", g.Forecast.DailySaleRate)
	fmt.Printf("Expected:      %d tickets\n", g.Forecast.ExpectedTotalSales)
	fmt.Printf("Sellout Odds:  %d%%\n", g.Forecast.SelloutProbability)
	fmt.Printf("Momentum:      %s\n", momentumString(g.Forecast.Momentum))
	fmt.Println()
}

func renderOutcome(o game.OutcomeView) {
	accent.Printf("\n== GIG %d SETTLED: %s ==\n", o.GigID, o.City)
	fmt.Printf("Attendance:      %d\n", o.Attendance)
	fmt.Printf("Performance:     %.1f (%s)\n", o.Rating, o.Grade)
	fmt.Printf("New Fans:        %d (casual %d / dedicated %d / superfans %d)\n",
		o.NewFansGained, o.CasualFans, o.DedicatedFans, o.Superfans)
	fmt.Printf("Repeat Crowd:    %d\n", o.RepeatAttendees)
	fmt.Printf("Conversion:      %.2f%%\n", o.ConversionRatePct)
	fmt.Printf("Gross Revenue:   %s\n", formatCents(o.GrossRevenueCents))
	fmt.Printf("Venue Cut:       %s\n", formatCents(o.VenueCutCents))
	fmt.Printf("Band Take:       %s\n", success.Sprint(formatCents(o.BandRevenueCents)))
	if o.AlreadySettled {
		printInfo("(previously settled; totals unchanged)")
	}
	fmt.Println()
}

func renderCities(cities []game.CityLedgerView) {
	if len(cities) == 0 {
		printInfo("No fans anywhere yet.")
		return
	}
	accent.Println("\nCity Fanbase")
	renderCityRows(cities)
	fmt.Println()
}

func renderCityRows(cities []game.CityLedgerView) {
	fmt.Printf("%-16s %10s %10s %10s %10s %6s\n",
		"CITY", "TOTAL", "CASUAL", "DEDICATED", "SUPER", "GIGS")
	for _, c := range cities {
		fmt.Printf("%-16s %10d %10d %10d %10d %6d\n",
			truncate(c.City, 16),
			c.TotalFans,
			c.CasualFans,
			c.DedicatedFans,
			c.Superfans,
			c.GigsInCity,
		)
	}
}

func renderLeaderboard(rows []game.LeaderboardRow) {
	if len(rows) == 0 {
		printInfo("Leaderboard is empty.")
		return
	}
	accent.Println("\nFame Leaderboard")
	fmt.Printf("%-6s %-24s %-18s %10s %10s\n", "RANK", "BAND", "MANAGER", "FAME", "FANS")
	for _, r := range rows {
		fmt.Printf("%-6d %-24s %-18s %10d %10d\n",
			r.Rank,
			truncate(r.Band, 24),
			truncate(r.Manager, 18),
			r.Fame,
			r.TotalFans,
		)
	}
	fmt.Println()
}

func momentumString(m game.Momentum) string {
	switch m {
	case game.MomentumSellout:
		return success.Sprint(string(m))
	case game.MomentumFast:
		return accent.Sprint(string(m))
	case game.MomentumSlow:
		return warn.Sprint(string(m))
	default:
		return string(m)
	}
}
