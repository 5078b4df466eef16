package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/matchforge/matchcast/internal/config"
	"github.com/matchforge/matchcast/internal/model"
)

var (
	predictHome    string
	predictAway    string
	predictComp    string
	predictMode    string
	predictKickoff string
	predictJSON    bool
	predictSave    bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the outcome of a single fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := config.Validate(cfg, "predict"); err != nil {
			return err
		}
		mode, err := model.ParseMode(predictMode)
		if err != nil {
			return err
		}

		fixture := model.Fixture{
			ID:          fmt.Sprintf("adhoc-%d", time.Now().Unix()),
			HomeTeam:    predictHome,
			AwayTeam:    predictAway,
			Competition: predictComp,
		}
		if predictKickoff != "" {
			kickoff, err := time.Parse("2006-01-02", predictKickoff)
			if err != nil {
				return eris.Wrap(err, "parse kickoff date")
			}
			fixture.KickoffAt = kickoff
		}

		// Ad hoc fixtures carry no team IDs to look strength up with, so the
		// estimator runs on league-average defaults. The batch command
		// resolves strengths from the fixture feed.
		eng := initEngine()
		pred, err := eng.Predict(ctx, fixture, nil, nil, mode)
		if err != nil {
			return eris.Wrap(err, "predict")
		}

		if predictSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := st.SavePrediction(ctx, pred); err != nil {
				return err
			}
		}

		if predictJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(pred)
		}
		printPrediction(pred)
		return nil
	},
}

func printPrediction(p *model.Prediction) {
	fmt.Printf("%s vs %s\n", p.HomeTeam, p.AwayTeam)
	fmt.Printf("  outcome:     %s (%.1f%% confidence, %s quality)\n", p.Outcome, p.Confidence, p.Quality)
	fmt.Printf("  home/draw/away: %.0f%% / %.0f%% / %.0f%%\n",
		p.Probabilities.HomeWin, p.Probabilities.Draw, p.Probabilities.AwayWin)
	fmt.Printf("  half-time collapse: home %.1f%%, away %.1f%%\n",
		p.HalfTime.HomeCollapse, p.HalfTime.AwayCollapse)
	fmt.Printf("  sources: %s\n", strings.Join(p.SourcesUsed, ", "))
	fmt.Printf("  %s\n", p.Reasoning)
}

func init() {
	predictCmd.Flags().StringVar(&predictHome, "home", "", "home team name (required)")
	predictCmd.Flags().StringVar(&predictAway, "away", "", "away team name (required)")
	predictCmd.Flags().StringVar(&predictComp, "competition", "", "competition name")
	predictCmd.Flags().StringVar(&predictMode, "mode", "full", "prediction mode: fast or full")
	predictCmd.Flags().StringVar(&predictKickoff, "date", "", "kickoff date (YYYY-MM-DD)")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "print JSON instead of text")
	predictCmd.Flags().BoolVar(&predictSave, "save", false, "persist the prediction")
	_ = predictCmd.MarkFlagRequired("home")
	_ = predictCmd.MarkFlagRequired("away")
	rootCmd.AddCommand(predictCmd)
}
