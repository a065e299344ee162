package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/contentdex/contentdex/internal/auth"
	"github.com/contentdex/contentdex/internal/domain"
	"github.com/contentdex/contentdex/internal/domain/search/request"
	"github.com/contentdex/contentdex/internal/domain/search/result"
	healthuc "github.com/contentdex/contentdex/internal/usecase/health"
	recordsuc "github.com/contentdex/contentdex/internal/usecase/records"
	searchuc "github.com/contentdex/contentdex/internal/usecase/search"
)

// --- fakes ---

type fakeSearchRepo struct {
	results []result.Result
	err     error
}

func (f *fakeSearchRepo) Match(_ context.Context, _ *request.Request) ([]result.Result, error) {
	return f.results, f.err
}

type fakeAuthorizer struct {
	identity auth.Identity
	err      error
}

func (f *fakeAuthorizer) AuthorizeOwner(_ context.Context, targetUserID string) (auth.Identity, error) {
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	if targetUserID != f.identity.UserID {
		return auth.Identity{}, domain.ErrAccessDenied
	}
	return f.identity, nil
}

func (f *fakeAuthorizer) Identify(_ context.Context) (auth.Identity, error) {
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	return f.identity, nil
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec, Model: "test-model"}, nil
}

type fakeRecordsRepo struct {
	rows []map[string]any
	row  map[string]any
	err  error
}

func (f *fakeRecordsRepo) Select(_ context.Context, _, _ string, _ map[string]any) ([]map[string]any, error) {
	return f.rows, f.err
}

func (f *fakeRecordsRepo) Insert(_ context.Context, _, _ string, _ map[string]any) (map[string]any, error) {
	return f.row, f.err
}

func (f *fakeRecordsRepo) Update(_ context.Context, _, _, _ string, _ map[string]any) (map[string]any, error) {
	return f.row, f.err
}

func (f *fakeRecordsRepo) Delete(_ context.Context, _, _, _ string) error {
	return f.err
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

// --- harness ---

type harness struct {
	searchRepo  *fakeSearchRepo
	authorizer  *fakeAuthorizer
	embedder    *fakeEmbedder
	recordsRepo *fakeRecordsRepo
	dbPinger    *fakePinger
	router      chirouter.Router
}

func newHarness() *harness {
	h := &harness{
		searchRepo:  &fakeSearchRepo{},
		authorizer:  &fakeAuthorizer{identity: auth.Identity{UserID: "user-1"}},
		embedder:    &fakeEmbedder{vec: testVector()},
		recordsRepo: &fakeRecordsRepo{},
		dbPinger:    &fakePinger{},
	}

	searchSvc := searchuc.NewService(h.searchRepo, h.authorizer, h.embedder, time.Minute)
	recordsSvc := recordsuc.NewService(h.recordsRepo, h.authorizer)
	healthSvc := healthuc.New(h.dbPinger, nil, nil)

	server := NewServer(searchSvc, recordsSvc, healthSvc, zap.NewNop())
	h.router = chirouter.NewRouter()
	server.Routes(h.router)
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func testVector() []float32 {
	v := make([]float32, domain.EmbeddingDimensions)
	v[0] = 1
	return v
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) searchResponseDTO {
	t.Helper()
	var resp searchResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp
}

// --- search endpoints ---

func TestSearchVectorEndpoint(t *testing.T) {
	h := newHarness()
	h.searchRepo.results = []result.Result{
		result.New("c-1", "hello", domain.SourceManual, nil, 0.92, result.Metadata{}, time.Now()),
	}

	rec := h.do(t, http.MethodPost, "/api/v1/search", map[string]any{
		"target_user_id": "user-1",
		"query_vector":   testVector(),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error != nil {
		t.Fatalf("unexpected envelope error: %+v", resp.Error)
	}
	if resp.TotalCount != 1 || len(resp.Results) != 1 {
		t.Fatalf("total_count = %d, results = %d, want 1/1", resp.TotalCount, len(resp.Results))
	}
	if resp.Results[0].ID != "c-1" {
		t.Errorf("result id = %q, want c-1", resp.Results[0].ID)
	}
}

func TestSearchVectorEndpoint_AccessDenied(t *testing.T) {
	h := newHarness()
	h.authorizer.err = domain.ErrAccessDenied

	rec := h.do(t, http.MethodPost, "/api/v1/search", map[string]any{
		"target_user_id": "someone-else",
		"query_vector":   testVector(),
	})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "access_denied" {
		t.Fatalf("expected access_denied envelope error, got %+v", resp.Error)
	}
}

func TestSearchVectorEndpoint_BadVector(t *testing.T) {
	h := newHarness()

	rec := h.do(t, http.MethodPost, "/api/v1/search", map[string]any{
		"target_user_id": "user-1",
		"query_vector":   []float32{1, 2, 3},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "invalid_parameters" {
		t.Fatalf("expected invalid_parameters, got %+v", resp.Error)
	}
}

func TestSearchTextEndpoint_Modes(t *testing.T) {
	h := newHarness()

	for _, mode := range []string{"", "precise", "broad"} {
		rec := h.do(t, http.MethodPost, "/api/v1/search/text", map[string]any{
			"target_user_id": "user-1",
			"query_text":     "kubernetes",
			"mode":           mode,
		})
		if rec.Code != http.StatusOK {
			t.Errorf("mode %q: status = %d, want 200; body: %s", mode, rec.Code, rec.Body.String())
		}
	}

	rec := h.do(t, http.MethodPost, "/api/v1/search/text", map[string]any{
		"target_user_id": "user-1",
		"query_text":     "kubernetes",
		"mode":           "fuzzy",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown mode: status = %d, want 400", rec.Code)
	}
}

func TestSearchTextEndpoint_EmbedderDown(t *testing.T) {
	h := newHarness()
	h.embedder.err = domain.ErrEmbeddingProviderError

	rec := h.do(t, http.MethodPost, "/api/v1/search/text", map[string]any{
		"target_user_id": "user-1",
		"query_text":     "anything",
	})

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "text_search_error" {
		t.Fatalf("expected text_search_error, got %+v", resp.Error)
	}
}

func TestSearchTopicsEndpoint(t *testing.T) {
	h := newHarness()

	rec := h.do(t, http.MethodPost, "/api/v1/search/topics", map[string]any{
		"target_user_id": "user-1",
		"topics":         []string{"rust", "golang"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var responses []searchResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &responses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("got %d envelopes, want 2", len(responses))
	}
}

// --- record endpoints ---

func TestReadRecordsEndpoint(t *testing.T) {
	h := newHarness()
	h.recordsRepo.rows = []map[string]any{{"id": "row-1", "content_text": "x"}}

	rec := h.do(t, http.MethodGet, "/api/v1/records/user_content?source_type=feed", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Items      []map[string]any `json:"items"`
		TotalCount int              `json:"total_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalCount != 1 {
		t.Errorf("total_count = %d, want 1", resp.TotalCount)
	}
}

func TestCreateRecordEndpoint(t *testing.T) {
	h := newHarness()
	h.recordsRepo.row = map[string]any{"id": "row-1", "user_id": "user-1"}

	rec := h.do(t, http.MethodPost, "/api/v1/records/user_content", map[string]any{
		"content_text": "hello",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
}

func TestRecordsEndpoint_Unauthenticated(t *testing.T) {
	h := newHarness()
	h.authorizer.err = domain.ErrUnauthenticated

	rec := h.do(t, http.MethodGet, "/api/v1/records/user_content", nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRecordsEndpoint_UnknownTable(t *testing.T) {
	h := newHarness()
	h.recordsRepo.err = domain.ErrUnknownTable

	rec := h.do(t, http.MethodGet, "/api/v1/records/secrets", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateRecordEndpoint_TargetMismatch(t *testing.T) {
	h := newHarness()
	h.recordsRepo.row = map[string]any{"id": "row-1"}

	rec := h.do(t, http.MethodPatch, "/api/v1/records/user_content/row-1", map[string]any{
		"user_id":   "someone-else",
		"is_active": false,
	})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "access_denied" {
		t.Errorf("code = %q, want access_denied", resp.Code)
	}
}

func TestReadRecordsEndpoint_ExplicitUser(t *testing.T) {
	h := newHarness()
	h.recordsRepo.rows = []map[string]any{{"id": "row-1"}}

	rec := h.do(t, http.MethodGet, "/api/v1/records/user_content?user_id=user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/api/v1/records/user_content?user_id=someone-else", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateRecordEndpoint_NotFound(t *testing.T) {
	h := newHarness()
	h.recordsRepo.err = domain.ErrNotFound

	rec := h.do(t, http.MethodPatch, "/api/v1/records/user_content/row-9", map[string]any{
		"is_active": false,
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteRecordEndpoint(t *testing.T) {
	h := newHarness()

	rec := h.do(t, http.MethodDelete, "/api/v1/records/user_content/row-1", nil)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

// --- health ---

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newHarness()
		rec := h.do(t, http.MethodGet, "/health", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		h := newHarness()
		h.dbPinger.err = context.DeadlineExceeded
		rec := h.do(t, http.MethodGet, "/health", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})
}
