package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/matchforge/matchcast/internal/config"
	"github.com/matchforge/matchcast/pkg/footballdata"
)

var (
	fixturesComp string
	fixturesDays int
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "List upcoming fixtures for a competition",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Validate(cfg, "fixtures"); err != nil {
			return err
		}
		fd, err := initFootballData()
		if err != nil {
			return err
		}

		competition := fixturesComp
		if competition == "" {
			competition = cfg.FootballData.Competition
		}

		matches, err := upcomingFixtures(cmd.Context(), fd, competition, fixturesDays)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Println("no upcoming fixtures")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%d  %s  %s vs %s  (%s)\n",
				m.ID,
				m.UTCDate.Format("2006-01-02 15:04"),
				m.HomeTeam.Name, m.AwayTeam.Name,
				m.Competition.Name,
			)
		}
		return nil
	},
}

// upcomingFixtures returns scheduled matches in the next days.
func upcomingFixtures(ctx context.Context, fd footballdata.Client, competition string, days int) ([]footballdata.Match, error) {
	if days <= 0 {
		days = 7
	}
	now := time.Now().UTC()
	matches, err := fd.CompetitionMatches(ctx, competition, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, eris.Wrap(err, "fetch fixtures")
	}

	upcoming := matches[:0]
	for _, m := range matches {
		if m.Status == "SCHEDULED" || m.Status == "TIMED" {
			upcoming = append(upcoming, m)
		}
	}
	return upcoming, nil
}

func init() {
	fixturesCmd.Flags().StringVar(&fixturesComp, "competition", "", "competition code (default from config)")
	fixturesCmd.Flags().IntVar(&fixturesDays, "days", 7, "days ahead to look")
	rootCmd.AddCommand(fixturesCmd)
}
