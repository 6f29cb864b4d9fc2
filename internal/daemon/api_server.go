package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storyline/internal/api"
	"storyline/internal/config"
	"storyline/internal/logging"
	"storyline/internal/pipeline"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	service  *api.PipelineService

	listener net.Listener
	server   *http.Server
	serveErr chan error
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:     strings.TrimSpace(cfg.Paths.APIBind),
		logger:   logging.NewComponentLogger(logger, "api-server"),
		daemon:   d,
		service:  d.service,
		serveErr: make(chan error, 1),
	}
	srv.server = &http.Server{
		Handler:           srv.routes(strings.TrimSpace(cfg.Paths.APIToken)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/ideas", authMiddleware(token, s.handleSubmit))
	mux.HandleFunc("GET /api/ideas", authMiddleware(token, s.handleList))
	mux.HandleFunc("GET /api/ideas/{id}", authMiddleware(token, s.handleDetail))
	mux.HandleFunc("GET /api/ideas/{id}/validation", authMiddleware(token, s.handleValidation))
	mux.HandleFunc("POST /api/ideas/{id}/move-forward", authMiddleware(token, s.handleMoveForward))
	mux.HandleFunc("GET /api/ideas/{id}/transitions", authMiddleware(token, s.handleTransitions))
	return requestIDMiddleware(accessLogMiddleware(s.logger, mux))
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("paths.api_bind is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
			s.serveErr <- err
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
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

// address reports the bound listener address once started, else the configured bind.
func (s *apiServer) address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.daemon.DatabaseHealth(r.Context())
	resp := api.HealthResponse{
		Status:        "ok",
		SchemaVersion: health.SchemaVersion,
		TotalIdeas:    health.TotalIdeas,
	}
	if err != nil || !health.IntegrityCheck {
		resp.Status = "degraded"
		resp.Error = health.Error
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitIdeaRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.service.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := api.ListQuery{
		Stage:    query.Get("stage"),
		Priority: query.Get("priority"),
		Status:   query.Get("status"),
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, pipeline.InvalidInput("limit must be an integer"))
			return
		}
		q.Limit = limit
	}
	resp, err := s.service.List(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := ideaIDFromPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.service.Detail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleValidation(w http.ResponseWriter, r *http.Request) {
	id, err := ideaIDFromPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.service.Validation(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleMoveForward(w http.ResponseWriter, r *http.Request) {
	id, err := ideaIDFromPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req api.MoveForwardRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.service.MoveForward(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleTransitions(w http.ResponseWriter, r *http.Request) {
	id, err := ideaIDFromPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.service.History(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func ideaIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, pipeline.InvalidInput("invalid idea id")
	}
	return id, nil
}

// decodeBody reads exactly one JSON object from the request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return pipeline.InvalidInput("request body is required")
		}
		return pipeline.InvalidInput(fmt.Sprintf("invalid request body: %v", err))
	}
	if dec.More() {
		return pipeline.InvalidInput("request body must contain a single JSON object")
	}
	return nil
}

// statusForError maps the pipeline taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch pipeline.CodeOf(err) {
	case pipeline.CodeNotFound:
		return http.StatusNotFound
	case pipeline.CodeMissingPrerequisite, pipeline.CodeInvalidInput:
		return http.StatusBadRequest
	case pipeline.CodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed",
			logging.String(logging.FieldEventType, "api_error"),
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, api.FromError(err))
}
