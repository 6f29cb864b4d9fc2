package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"storyline/internal/api"
	"storyline/internal/artifact"
	"storyline/internal/logging"
	"storyline/internal/pipeline"
	"storyline/internal/testsupport"
	"storyline/internal/transition"
)

type testServer struct {
	handler http.Handler
	store   *artifact.Store
}

func newTestServer(t *testing.T, opts ...testsupport.ConfigOption) *testServer {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	exec := transition.NewExecutor(store, pipeline.NewRegistry(cfg.Pipeline), logging.NewNop())
	d, err := New(cfg, store, api.NewPipelineService(store, exec), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return &testServer{handler: d.server.routes(cfg.Paths.APIToken), store: store}
}

// rawBody is sent as-is instead of being marshaled.
type rawBody string

func (s *testServer) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.(rawBody); ok {
		reader = bytes.NewReader([]byte(raw))
	} else if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func ideaPath(id int64, suffix string) string {
	return "/api/ideas/" + strconv.FormatInt(id, 10) + suffix
}

func TestMoveForwardScenarioOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/ideas", api.SubmitIdeaRequest{Title: "T", ContributorRef: 1, ScriptWriterRef: 1}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d %s", w.Code, w.Body.String())
	}
	id := decode[api.IdeaResponse](t, w).Idea.ID

	body := api.MoveForwardRequest{ExpectedStage: "Idea"}
	w = srv.do(t, http.MethodPost, ideaPath(id, "/move-forward"), body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("move-forward: expected 200, got %d %s", w.Code, w.Body.String())
	}
	moved := decode[api.MoveForwardResponse](t, w)
	if !moved.Success || moved.StageTransition != "Idea -> Script" || moved.ScriptID == 0 {
		t.Fatalf("unexpected move response: %+v", moved)
	}

	w = srv.do(t, http.MethodPost, ideaPath(id, "/move-forward"), body, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat: expected 409, got %d %s", w.Code, w.Body.String())
	}
	if got := decode[api.ErrorResponse](t, w); got.Code != "ALREADY_EXISTS" {
		t.Fatalf("unexpected error code: %+v", got)
	}

	w = srv.do(t, http.MethodGet, ideaPath(id, ""), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"production":null`) {
		t.Fatalf("production should be null: %s", w.Body.String())
	}
	detail := decode[api.DetailResponse](t, w)
	if detail.Stage != "Script" || detail.Script == nil {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestMissingPrerequisiteReturnsViolations(t *testing.T) {
	srv := newTestServer(t)
	idea, err := srv.store.CreateIdea(context.Background(), artifact.NewIdea{Title: " ", ContributorRef: 1, ScriptWriterRef: 1})
	if err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}

	w := srv.do(t, http.MethodPost, ideaPath(idea.ID, "/move-forward"), api.MoveForwardRequest{ExpectedStage: "Idea"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", w.Code, w.Body.String())
	}
	body := decode[api.ErrorResponse](t, w)
	if body.Code != "MISSING_PREREQUISITE" || len(body.ValidationErrors) != 1 || body.ValidationErrors[0].Code != pipeline.CheckTitleRequired {
		t.Fatalf("unexpected body: %+v", body)
	}

	w = srv.do(t, http.MethodGet, ideaPath(idea.ID, "/validation"), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("validation: expected 200, got %d", w.Code)
	}
	report := decode[api.ValidationResponse](t, w)
	if report.Ready || !report.CanMoveForward || len(report.ValidationErrors) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRequestErrors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown idea", http.MethodGet, "/api/ideas/404", nil, http.StatusNotFound},
		{"non numeric id", http.MethodGet, "/api/ideas/abc", nil, http.StatusBadRequest},
		{"unknown stage filter", http.MethodGet, "/api/ideas?stage=Archived", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/ideas?limit=many", nil, http.StatusBadRequest},
		{"unknown body field", http.MethodPost, "/api/ideas/1/move-forward", map[string]string{"stage": "Published"}, http.StatusBadRequest},
		{"submit without body", http.MethodPost, "/api/ideas", nil, http.StatusBadRequest},
		{"move forward without body", http.MethodPost, "/api/ideas/1/move-forward", nil, http.StatusBadRequest},
		{"move forward without expected stage", http.MethodPost, "/api/ideas/1/move-forward", api.MoveForwardRequest{Note: "go"}, http.StatusBadRequest},
		{"trailing json object", http.MethodPost, "/api/ideas/1/move-forward", rawBody(`{"expected_stage":"Idea"}{"expected_stage":"Idea"}`), http.StatusBadRequest},
		{"trailing garbage", http.MethodPost, "/api/ideas", rawBody(`{"title":"x"} junk`), http.StatusBadRequest},
		{"method not allowed", http.MethodDelete, "/api/ideas/1", nil, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, tt.method, tt.path, tt.body, nil)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthAndHealth(t *testing.T) {
	srv := newTestServer(t, testsupport.WithAPIToken("secret"))

	if w := srv.do(t, http.MethodGet, "/api/ideas", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	wrong := http.Header{"Authorization": []string{"Bearer nope"}}
	if w := srv.do(t, http.MethodGet, "/api/ideas", nil, wrong); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	right := http.Header{"Authorization": []string{"Bearer secret"}}
	if w := srv.do(t, http.MethodGet, "/api/ideas", nil, right); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	w := srv.do(t, http.MethodGet, "/api/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health should not require auth, got %d", w.Code)
	}
	if health := decode[api.HealthResponse](t, w); health.Status != "ok" || health.SchemaVersion == 0 {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestRequestIDRecordedOnTransition(t *testing.T) {
	srv := newTestServer(t)
	idea := testsupport.NewIdea(t, srv.store, "Trace")

	header := http.Header{RequestIDHeader: []string{"client-7"}}
	w := srv.do(t, http.MethodPost, ideaPath(idea.ID, "/move-forward"), api.MoveForwardRequest{Note: "hi", ExpectedStage: "Idea"}, header)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(RequestIDHeader); got != "client-7" {
		t.Fatalf("request id not echoed: %q", got)
	}

	w = srv.do(t, http.MethodGet, ideaPath(idea.ID, "/transitions"), nil, nil)
	history := decode[api.HistoryResponse](t, w)
	if len(history.Transitions) != 1 || history.Transitions[0].RequestID != "client-7" {
		t.Fatalf("unexpected history: %+v", history)
	}

	w = srv.do(t, http.MethodGet, "/api/health", nil, nil)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestConcurrentMoveForwardOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	idea := testsupport.NewIdea(t, srv.store, "Race")

	const callers = 5
	var ok, conflict atomic.Int32
	var g errgroup.Group
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			<-start
			w := srv.do(t, http.MethodPost, ideaPath(idea.ID, "/move-forward"), api.MoveForwardRequest{ExpectedStage: "Idea"}, nil)
			switch w.Code {
			case http.StatusOK:
				ok.Add(1)
			case http.StatusConflict:
				conflict.Add(1)
			default:
				return errors.New(w.Body.String())
			}
			return nil
		})
	}
	close(start)
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected response: %v", err)
	}
	if ok.Load() != 1 || conflict.Load() != callers-1 {
		t.Fatalf("ok=%d conflict=%d", ok.Load(), conflict.Load())
	}
	scripts, _, _, err := srv.store.CountChildren(context.Background(), idea.ID)
	if err != nil || scripts != 1 {
		t.Fatalf("expected one script, got %d (%v)", scripts, err)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{pipeline.NotFound("x"), http.StatusNotFound},
		{pipeline.MissingPrerequisite(nil), http.StatusBadRequest},
		{pipeline.InvalidInput("x"), http.StatusBadRequest},
		{pipeline.AlreadyExists("x"), http.StatusConflict},
		{pipeline.Internal("x", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Fatalf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServeErrorsReportsListenerFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	exec := transition.NewExecutor(store, pipeline.NewRegistry(cfg.Pipeline), logging.NewNop())
	d, err := New(cfg, store, api.NewPipelineService(store, exec), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	_ = d.server.listener.Close()
	select {
	case err := <-d.ServeErrors():
		if err == nil {
			t.Fatal("expected a serve error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("closing the listener should surface a serve error")
	}
}
