package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/matchforge/matchcast/internal/engine"
	"github.com/matchforge/matchcast/internal/evidence"
	"github.com/matchforge/matchcast/internal/model"
	"github.com/matchforge/matchcast/internal/narrative"
	"github.com/matchforge/matchcast/internal/statistical"
	"github.com/matchforge/matchcast/internal/store"
	anthropicpkg "github.com/matchforge/matchcast/pkg/anthropic"
	"github.com/matchforge/matchcast/pkg/footballdata"
	"github.com/matchforge/matchcast/pkg/jina"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "matchcast.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine wires the estimator plus whichever optional sources have
// credentials configured. Missing keys mean the engine quietly runs with
// fewer sources.
func initEngine() *engine.Engine {
	opts := []engine.Option{
		engine.WithEvidenceTimeout(time.Duration(cfg.Engine.EvidenceTimeoutSecs) * time.Second),
		engine.WithNarrativeTimeout(time.Duration(cfg.Engine.NarrativeTimeoutSecs) * time.Second),
	}

	if cfg.Jina.Key != "" {
		jinaOpts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL)}
		if cfg.Jina.SearchBaseURL != "" {
			jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
		}
		jinaClient := jina.NewClient(cfg.Jina.Key, jinaOpts...)

		extractorOpts := []evidence.ExtractorOption{
			evidence.WithResultCap(cfg.Evidence.ResultCap),
			evidence.WithFetchTimeout(time.Duration(cfg.Evidence.FetchTimeoutSecs) * time.Second),
		}
		if cfg.Evidence.ReliabilityPath != "" {
			table, err := evidence.LoadReliabilityTable(cfg.Evidence.ReliabilityPath)
			if err != nil {
				zap.L().Warn("reliability table load failed, using defaults", zap.Error(err))
			} else {
				extractorOpts = append(extractorOpts, evidence.WithReliabilityTable(table))
			}
		}
		opts = append(opts, engine.WithEvidence(evidence.NewExtractor(jinaClient, extractorOpts...)))
	} else {
		zap.L().Debug("jina key not set, web evidence disabled")
	}

	if cfg.Anthropic.Key != "" {
		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		opts = append(opts, engine.WithNarrative(narrative.New(anthropicClient, narrative.WithModel(cfg.Anthropic.Model))))
	} else {
		zap.L().Debug("anthropic key not set, narrative enhancement disabled")
	}

	return engine.New(statistical.New(), opts...)
}

func initFootballData() (footballdata.Client, error) {
	if cfg.FootballData.Key == "" {
		return nil, eris.New("football-data API key is required (MATCHCAST_FOOTBALL_DATA_KEY)")
	}
	return footballdata.New(cfg.FootballData.Key,
		footballdata.WithBaseURL(cfg.FootballData.BaseURL),
		footballdata.WithRequestsPerMinute(cfg.FootballData.RequestsPerMin),
	), nil
}

// fetchStrength derives a TeamStrength from the team's recent finished
// matches. Lookup failures fall back to nil so the estimator substitutes
// league-average defaults.
func fetchStrength(ctx context.Context, fd footballdata.Client, team footballdata.Team, competition string) *model.TeamStrength {
	matches, err := fd.TeamMatches(ctx, team.ID, "FINISHED", 10)
	if err != nil {
		zap.L().Warn("team match history unavailable",
			zap.String("team", team.Name),
			zap.Error(err),
		)
		return nil
	}

	form := footballdata.ComputeForm(matches, team.ID)
	if form.Played == 0 {
		return nil
	}

	score := footballdata.StrengthScore(form, team.Name, competition)
	concededPerGame := float64(form.GoalsConceded) / float64(form.Played)

	return &model.TeamStrength{
		Team:         team.Name,
		Attack:       clampScore(score + (form.GoalsPerGame-1.4)*8),
		Defense:      clampScore(score + (1.4-concededPerGame)*8),
		GoalsPerGame: form.GoalsPerGame,
		Matches:      form.Played,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
