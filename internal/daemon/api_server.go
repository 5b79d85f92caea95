package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mytvlog/internal/api"
	"mytvlog/internal/catalog"
	"mytvlog/internal/config"
	"mytvlog/internal/logging"
	"mytvlog/internal/store"
)

var jst = time.FixedZone("JST", 9*60*60)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	svc    *api.Service

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, svc *api.Service, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
		svc:    svc,
	}
	srv.server = &http.Server{
		Handler:           srv.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/programs", s.handlePrograms)
	mux.HandleFunc("/api/programs/", s.handleProgram)
	mux.HandleFunc("/api/recordings", s.handleRecordings)
	mux.HandleFunc("/api/recordings/", s.handleRecording)
	mux.HandleFunc("/api/recordings/import-json", s.handleImportJSON)
	mux.HandleFunc("/api/recordings/import-edcb", s.handleImportEDCB)
	mux.HandleFunc("/api/recordings/validate", s.handleValidate)
	mux.HandleFunc("/api/views", s.handleViews)
	mux.HandleFunc("/api/digestions", s.handleDigestions)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/metrics", s.daemon.metrics.Handler())
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handlePrograms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	q := store.ProgramQuery{Name: strings.TrimSpace(query.Get("name"))}
	var err error
	if q.From, err = parseTimeParam(query.Get("from"), false); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.To, err = parseTimeParam(query.Get("to"), true); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.Page, _ = strconv.Atoi(query.Get("page"))
	q.Size, _ = strconv.Atoi(query.Get("size"))

	programs, err := s.svc.SearchPrograms(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, programs)
}

func (s *apiServer) handleProgram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := pathID(w, r, "/api/programs/")
	if !ok {
		return
	}
	program, err := s.svc.GetProgram(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, program)
}

func (s *apiServer) handleRecordings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		q := store.RecordingQuery{
			Watched:    boolParam(query.Get("watched")),
			Deleted:    boolParam(query.Get("deleted")),
			FileFolder: strings.TrimSpace(query.Get("file_folder")),
		}
		if raw := query.Get("program_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, "invalid program_id")
				return
			}
			q.ProgramID = &id
		}
		var err error
		if q.From, err = parseTimeParam(query.Get("from"), false); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if q.To, err = parseTimeParam(query.Get("to"), true); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		recordings, err := s.svc.SearchRecordings(r.Context(), q)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, recordings)

	case http.MethodPost:
		var req api.RecordingCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		recording, err := s.svc.CreateRecording(r.Context(), req)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, recording)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleRecording(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/recordings/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		recording, err := s.svc.GetRecording(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, recording)

	case http.MethodPatch:
		var patch api.PatchRequest
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		res, err := s.svc.PatchRecording(r.Context(), id, patch)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		status := http.StatusOK
		if res.Accepted {
			status = http.StatusAccepted
		}
		s.writeJSON(w, status, res)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ImportJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.svc.ImportJSON(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleImportEDCB(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ImportEDCBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.svc.ImportEDCB(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := s.svc.Validate(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *apiServer) handleViews(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		var q store.ViewQuery
		if raw := query.Get("program_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, "invalid program_id")
				return
			}
			q.ProgramID = &id
		}
		q.Page, _ = strconv.Atoi(query.Get("page"))
		q.Size, _ = strconv.Atoi(query.Get("size"))
		views, err := s.svc.SearchViews(r.Context(), q)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var req api.ViewCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.svc.CreateView(r.Context(), req); err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleDigestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	digestions, err := s.svc.ListDigestions(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, digestions)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

// pathID extracts a trailing numeric id. A non-numeric or nested suffix is a
// 404 so that longer sibling routes keep their own handlers.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	idStr := strings.TrimPrefix(r.URL.Path, prefix)
	if idStr == "" || strings.Contains(idStr, "/") {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// parseTimeParam accepts RFC 3339, a naive datetime, or a bare date, all in
// JST when no offset is given. A bare date used as an upper bound covers the
// whole day.
func parseTimeParam(raw string, upperBound bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.ParseInLocation("2006-01-02T15:04:05", raw, jst); err == nil {
		return &parsed, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, jst)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q", raw)
	}
	if upperBound {
		parsed = parsed.AddDate(0, 0, 1)
	}
	return &parsed, nil
}

func boolParam(raw string) bool {
	return raw == "1" || strings.EqualFold(raw, "true")
}

func (s *apiServer) writeDomainError(w http.ResponseWriter, err error) {
	var invalid *catalog.InvalidDataError
	var notFound *catalog.NotFoundError
	switch {
	case errors.As(err, &invalid):
		s.writeError(w, http.StatusBadRequest, invalid.Detail)
	case errors.As(err, &notFound):
		s.writeError(w, http.StatusNotFound, notFound.Detail)
	default:
		s.log().Error("request failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
