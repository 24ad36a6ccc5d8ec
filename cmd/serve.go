package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scout/internal/discovery"
	"github.com/sells-group/lead-scout/internal/extract"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/store"
	"github.com/sells-group/lead-scout/internal/validate"
)

const maxBodyBytes = 1 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		tl, err := newTooling(cfg)
		if err != nil {
			return err
		}
		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a := &api{
			store:     st,
			runner:    newRunner(cfg, st, tl),
			tools:     tl,
			extractor: extract.New(tl.lists),
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(a, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// api holds the handlers' dependencies.
type api struct {
	store     store.Store
	runner    *discovery.Runner
	tools     *tooling
	extractor *extract.Extractor
}

func newRouter(a *api, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/extract", a.handleExtract)
	r.Post("/validate", a.handleValidate)
	r.Get("/leads", a.handleListLeads)
	r.Get("/leads/{id}", a.handleGetLead)
	r.Post("/leads/{id}/enrich", a.handleEnrich)
	r.Post("/queries/{id}/run", a.handleRunQuery)

	r.Route("/directory", func(r chi.Router) {
		r.Post("/search", a.handleDirectorySearch)
		r.Get("/entities", a.handleListEntities)
		r.Get("/entities/{id}", a.handleGetEntity)
		r.Delete("/entities/{id}", a.handleDeleteEntity)
		r.Post("/entities/{id}/enrich", a.handleEnrichEntity)
	})
	return r
}

type extractRequest struct {
	Text      string   `json:"text"`
	SourceURL string   `json:"source_url"`
	Targets   []string `json:"targets"`
	Deep      bool     `json:"deep"`
}

func (a *api) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decode(w, r, &req) {
		return
	}
	targets, err := parseTargets(req.Targets)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var deep *validate.Deep
	if req.Deep {
		deep = a.tools.deep
	}
	writeJSON(w, http.StatusOK, runExtract(r.Context(), a.extractor, deep, req.Text, req.SourceURL, targets))
}

type validateRequest struct {
	URL  string               `json:"url"`
	Data *model.ContactBundle `json:"data"`
	Deep bool                 `json:"deep"`
}

func (a *api) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decode(w, r, &req) {
		return
	}
	switch {
	case req.URL != "":
		writeJSON(w, http.StatusOK, a.tools.prober.CheckURL(r.Context(), req.URL))
	case req.Data != nil:
		writeJSON(w, http.StatusOK, validateBundle(r.Context(), a.tools, *req.Data, req.Deep))
	default:
		writeError(w, http.StatusBadRequest, "url or data is required")
	}
}

func (a *api) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LeadFilter{
		ProjectID: q.Get("project_id"),
		QueryID:   q.Get("query_id"),
		Status:    model.LeadStatus(q.Get("status")),
		Quality:   model.Quality(q.Get("quality")),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+name)
				return
			}
			*dst = n
		}
	}

	leads, err := a.store.ListLeads(r.Context(), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (a *api) handleGetLead(w http.ResponseWriter, r *http.Request) {
	l, err := a.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *api) handleEnrich(w http.ResponseWriter, r *http.Request) {
	l, err := a.runner.Enrich(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *api) handleRunQuery(w http.ResponseWriter, r *http.Request) {
	res, err := a.runner.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type directorySearchRequest struct {
	ProjectID  string `json:"project_id"`
	SearchTerm string `json:"search_term"`
	EntityType string `json:"entity_type"`
}

type directorySearchResponse struct {
	Search   *model.EntitySearch `json:"search"`
	Entities []model.Entity      `json:"entities"`
}

func (a *api) handleDirectorySearch(w http.ResponseWriter, r *http.Request) {
	var req directorySearchRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ProjectID == "" || strings.TrimSpace(req.SearchTerm) == "" {
		writeError(w, http.StatusBadRequest, "project_id and search_term are required")
		return
	}
	et, err := parseEntityType(req.EntityType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	es, entities, err := a.runner.SearchDirectory(r.Context(), req.ProjectID, strings.TrimSpace(req.SearchTerm), et)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directorySearchResponse{Search: es, Entities: entities})
}

func (a *api) handleListEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	et, err := parseEntityType(q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entities, err := listEntities(r.Context(), a.store, store.EntityFilter{
		ProjectID: q.Get("project_id"),
		SearchID:  q.Get("search_id"),
		Type:      et,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

func (a *api) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, err := a.store.GetEntity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *api) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteEntity(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleEnrichEntity(w http.ResponseWriter, r *http.Request) {
	e, err := a.runner.EnrichEntity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps domain errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, discovery.ErrNoResearch):
		writeError(w, http.StatusServiceUnavailable, "research provider not configured")
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
