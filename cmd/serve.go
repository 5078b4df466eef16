package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matchforge/matchcast/internal/config"
	"github.com/matchforge/matchcast/internal/engine"
	"github.com/matchforge/matchcast/internal/model"
	"github.com/matchforge/matchcast/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prediction JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := config.Validate(cfg, "serve"); err != nil {
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

		eng := initEngine()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Post("/api/predict", handlePredict(eng, st))
		r.Get("/api/predictions", handleListPredictions(st))
		r.Get("/api/accuracy", handleAccuracy(st))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

type predictRequest struct {
	FixtureID   string `json:"fixture_id"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	Competition string `json:"competition"`
	Mode        string `json:"mode"`
	Save        bool   `json:"save"`
}

func handlePredict(eng *engine.Engine, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body predictRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if body.Mode == "" {
			body.Mode = string(model.ModeFull)
		}
		mode, err := model.ParseMode(body.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		fixture := model.Fixture{
			ID:          body.FixtureID,
			HomeTeam:    body.HomeTeam,
			AwayTeam:    body.AwayTeam,
			Competition: body.Competition,
		}
		if fixture.ID == "" {
			fixture.ID = fmt.Sprintf("api-%d", time.Now().UnixNano())
		}

		pred, err := eng.Predict(req.Context(), fixture, nil, nil, mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if body.Save {
			if err := st.SavePrediction(req.Context(), pred); err != nil {
				zap.L().Error("save prediction failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "save failed")
				return
			}
		}
		writeJSON(w, http.StatusOK, pred)
	}
}

func handleListPredictions(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		filter := store.PredictionFilter{
			BatchID: req.URL.Query().Get("batch_id"),
			Quality: model.Quality(req.URL.Query().Get("quality")),
		}
		if limit := req.URL.Query().Get("limit"); limit != "" {
			n, err := strconv.Atoi(limit)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			filter.Limit = n
		}

		preds, err := st.ListPredictions(req.Context(), filter)
		if err != nil {
			zap.L().Error("list predictions failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":       len(preds),
			"predictions": preds,
		})
	}
}

func handleAccuracy(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		report, err := st.Accuracy(req.Context())
		if err != nil {
			zap.L().Error("accuracy report failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "accuracy failed")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
