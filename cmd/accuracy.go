package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/matchforge/matchcast/internal/config"
	"github.com/matchforge/matchcast/internal/model"
)

var accuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Score recorded results against saved predictions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := config.Validate(cfg, "accuracy"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		report, err := st.Accuracy(ctx)
		if err != nil {
			return err
		}

		if report.Overall.Total == 0 {
			fmt.Println("no scored predictions yet; record results with 'matchcast accuracy record'")
			return nil
		}

		fmt.Printf("overall: %d/%d correct (%.1f%%)\n",
			report.Overall.Correct, report.Overall.Total, report.Overall.Rate()*100)
		for _, q := range []model.Quality{model.QualityHigh, model.QualityMedium, model.QualityLow} {
			bucket, ok := report.ByQuality[q]
			if !ok {
				continue
			}
			fmt.Printf("  %-6s %d/%d (%.1f%%)\n", q, bucket.Correct, bucket.Total, bucket.Rate()*100)
		}
		return nil
	},
}

var (
	recordFixture string
	recordHome    int
	recordAway    int
)

var accuracyRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a fixture's final score",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := config.Validate(cfg, "accuracy"); err != nil {
			return err
		}
		if recordHome < 0 || recordAway < 0 {
			return eris.New("goals must be >= 0")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		result := model.MatchResult{
			FixtureID: recordFixture,
			HomeGoals: recordHome,
			AwayGoals: recordAway,
		}
		if err := st.RecordResult(ctx, result); err != nil {
			return err
		}
		fmt.Printf("recorded %s: %d-%d (%s)\n", recordFixture, recordHome, recordAway, result.Outcome())
		return nil
	},
}

func init() {
	accuracyRecordCmd.Flags().StringVar(&recordFixture, "fixture", "", "fixture ID (required)")
	accuracyRecordCmd.Flags().IntVar(&recordHome, "home-goals", 0, "home goals")
	accuracyRecordCmd.Flags().IntVar(&recordAway, "away-goals", 0, "away goals")
	_ = accuracyRecordCmd.MarkFlagRequired("fixture")
	accuracyCmd.AddCommand(accuracyRecordCmd)
	rootCmd.AddCommand(accuracyCmd)
}
