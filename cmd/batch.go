package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matchforge/matchcast/internal/config"
	"github.com/matchforge/matchcast/internal/engine"
	"github.com/matchforge/matchcast/internal/model"
)

var (
	batchComp string
	batchDays int
	batchMode string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Predict all upcoming fixtures and save the batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := config.Validate(cfg, "batch"); err != nil {
			return err
		}
		mode, err := model.ParseMode(batchMode)
		if err != nil {
			return err
		}
		fd, err := initFootballData()
		if err != nil {
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

		competition := batchComp
		if competition == "" {
			competition = cfg.FootballData.Competition
		}

		matches, err := upcomingFixtures(ctx, fd, competition, batchDays)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("no upcoming fixtures to predict")
			return nil
		}

		// Strength lookups are sequential on purpose: the upstream free tier
		// rate limit dominates, and the client already queues on its limiter.
		items := make([]engine.BatchItem, 0, len(matches))
		for _, m := range matches {
			items = append(items, engine.BatchItem{
				Fixture: model.Fixture{
					ID:          strconv.FormatInt(m.ID, 10),
					HomeTeam:    m.HomeTeam.Name,
					AwayTeam:    m.AwayTeam.Name,
					Competition: m.Competition.Name,
					KickoffAt:   m.UTCDate,
				},
				Home: fetchStrength(ctx, fd, m.HomeTeam, m.Competition.Name),
				Away: fetchStrength(ctx, fd, m.AwayTeam, m.Competition.Name),
			})
		}

		eng := initEngine()
		results := eng.PredictBatch(ctx, items, mode, cfg.Engine.BatchConcurrency)

		batchID := uuid.New().String()
		var preds []*model.Prediction
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				zap.L().Warn("fixture prediction failed",
					zap.String("fixture", r.Fixture.ID),
					zap.Error(r.Err),
				)
				continue
			}
			preds = append(preds, r.Prediction)
		}

		if len(preds) > 0 {
			if err := st.SaveBatch(ctx, batchID, preds); err != nil {
				return eris.Wrap(err, "save batch")
			}
		}

		zap.L().Info("batch complete",
			zap.String("batch_id", batchID),
			zap.Int("predicted", len(preds)),
			zap.Int("failed", failed),
		)
		fmt.Printf("batch %s: %d predicted, %d failed\n", batchID, len(preds), failed)
		for _, p := range preds {
			fmt.Printf("  %s vs %s: %s (%.1f%%, %s)\n",
				p.HomeTeam, p.AwayTeam, p.Outcome, p.Confidence, p.Quality)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchComp, "competition", "", "competition code (default from config)")
	batchCmd.Flags().IntVar(&batchDays, "days", 7, "days ahead to predict")
	batchCmd.Flags().StringVar(&batchMode, "mode", "fast", "prediction mode: fast or full")
	rootCmd.AddCommand(batchCmd)
}
