package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/monitoring"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for runs, scoring and provider status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		api := newAPI(ctx, a)
		defer api.Wait()

		if a.Monitor.Enabled && a.Store != nil {
			checker := monitoring.NewChecker(monitoring.NewCollector(a.Store), monitoring.NewAlerter(a.Monitor), a.Monitor)
			go checker.Run(ctx)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.Router(cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// api serves the HTTP endpoints. Background runs use the server context
// so they outlive the request that started them.
type api struct {
	ctx context.Context
	app *app
	wg  sync.WaitGroup
}

func newAPI(ctx context.Context, a *app) *api {
	return &api{ctx: ctx, app: a}
}

// Wait blocks until background runs finish.
func (s *api) Wait() { s.wg.Wait() }

// Router builds the chi router with CORS for the given origins.
func (s *api) Router(origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/providers", s.providers)
	r.Get("/metrics", s.metrics)
	r.Post("/score", s.score)
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.startRun)
		r.Get("/", s.listRuns)
		r.Get("/{id}", s.getRun)
	})
	return r
}

func (s *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *api) providers(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, http.StatusOK, map[string]any{
		"available":   s.app.Inference.Providers(),
		"unavailable": s.app.Inference.Unavailable(),
		"stats":       s.app.Inference.Stats(),
	})
}

func (s *api) metrics(w http.ResponseWriter, r *http.Request) {
	if s.app.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}
	lookback, err := intParam(r, "lookback_hours", s.app.Monitor.LookbackWindowHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := monitoring.NewCollector(s.app.Store).Collect(r.Context(), lookback)
	if err != nil {
		zap.L().Error("api: collect metrics", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "collect metrics failed")
		return
	}
	writeJSONStatus(w, http.StatusOK, snap)
}

func (s *api) score(w http.ResponseWriter, r *http.Request) {
	var leads []model.Lead
	if err := json.NewDecoder(r.Body).Decode(&leads); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	minScore, err := intParam(r, "min_score", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ranked := s.app.Scorer.Rank(leads, minScore)
	if ranked == nil {
		ranked = []model.Lead{}
	}
	writeJSONStatus(w, http.StatusOK, ranked)
}

// startRun validates params and starts a run. With ?wait=true the result
// is returned directly; otherwise the run continues in the background.
func (s *api) startRun(w http.ResponseWriter, r *http.Request) {
	d := s.app.Defaults
	params := model.RunParams{Sector: d.Sector, Region: d.Region, MinScore: d.MinScore, MaxLeads: d.MaxLeads}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := pipeline.Validate(params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		result, err := s.app.Pipeline.Run(r.Context(), params)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONStatus(w, http.StatusOK, result)
		return
	}

	params.RunID = uuid.NewString()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.app.Pipeline.Run(s.ctx, params)
		if err != nil {
			zap.L().Error("api: run failed", zap.String("sector", params.Sector), zap.Error(err))
			return
		}
		zap.L().Info("api: run complete",
			zap.String("run_id", result.RunID),
			zap.Int("leads", len(result.Leads)),
		)
	}()

	writeJSONStatus(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"run_id": params.RunID,
		"sector": params.Sector,
		"region": params.Region,
	})
}

func (s *api) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.app.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := s.app.Store.ListRuns(r.Context(), store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Sector: r.URL.Query().Get("sector"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSONStatus(w, http.StatusOK, runs)
}

func (s *api) getRun(w http.ResponseWriter, r *http.Request) {
	if s.app.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}
	id := chi.URLParam(r, "id")

	run, err := s.app.Store.GetRun(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get run failed")
		return
	}
	leads, err := s.app.Store.ListLeads(r.Context(), id)
	if err != nil {
		zap.L().Error("api: list leads", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list leads failed")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}

	writeJSONStatus(w, http.StatusOK, map[string]any{"run": run, "leads": leads})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, map[string]string{"error": msg})
}
