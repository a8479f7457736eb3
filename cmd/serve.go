package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/feasibility-cli/internal/engine"
	"github.com/sells-group/feasibility-cli/internal/model"
	"github.com/sells-group/feasibility-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feasibility HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		eng := engine.NewWithSolver(cfg.Solver)
		mux := newServeMux(st, eng)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
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

// newServeMux builds the API routes over the given store and engine.
func newServeMux(st store.Store, eng *engine.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/projects", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		p, err := st.CreateProject(r.Context(), req.Name)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	})

	mux.HandleFunc("GET /api/projects", func(w http.ResponseWriter, r *http.Request) {
		filter := store.ProjectFilter{NameLike: r.URL.Query().Get("name")}
		if v := r.URL.Query().Get("completed"); v != "" {
			completed, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid completed filter")
				return
			}
			filter.Completed = &completed
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			filter.Limit = limit
		}

		projects, err := st.ListProjects(r.Context(), filter)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if projects == nil {
			projects = []model.Project{}
		}
		writeJSON(w, http.StatusOK, projects)
	})

	mux.HandleFunc("GET /api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		p, err := st.GetProject(r.Context(), r.PathValue("id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	})

	mux.HandleFunc("PUT /api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		var update model.ProjectUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, err := st.UpdateProjectData(r.Context(), r.PathValue("id"), update)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	})

	mux.HandleFunc("DELETE /api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/projects/{id}/compute", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		p, err := st.GetProject(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if p.Financial == nil {
			writeError(w, http.StatusBadRequest, "project has no financial data")
			return
		}

		var tech model.TechnicalInput
		if p.Technical != nil {
			tech = *p.Technical
		}

		result, err := eng.Compute(p.Financial, tech)
		if err != nil {
			if engine.IsInvalidInput(err) {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if err := st.SaveResult(r.Context(), id, result); err != nil {
			writeStoreError(w, err)
			return
		}

		zap.L().Info("project computed",
			zap.String("project_id", id),
			zap.Float64("npv", result.NPV),
			zap.Bool("feasible", result.IsFeasible),
		)
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("POST /api/compute", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Financial map[string]any        `json:"financial_data"`
			Technical *model.TechnicalInput `json:"technical_data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Financial) == 0 {
			writeError(w, http.StatusBadRequest, "financial_data is required")
			return
		}

		var tech model.TechnicalInput
		if req.Technical != nil {
			tech = *req.Technical
		}

		result, err := eng.Compute(req.Financial, tech)
		if err != nil {
			if engine.IsInvalidInput(err) {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	zap.L().Error("store error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}
