// Package chi is the HTTP transport. Search endpoints always answer with the
// response envelope (HTTP status mirrors the envelope error code); record
// endpoints translate StoreError causes into plain JSON error bodies.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/contentdex/contentdex/internal/domain"
	"github.com/contentdex/contentdex/internal/domain/search/envelope"
	"github.com/contentdex/contentdex/internal/domain/search/request"
	"github.com/contentdex/contentdex/internal/domain/search/result"
	healthuc "github.com/contentdex/contentdex/internal/usecase/health"
	recordsuc "github.com/contentdex/contentdex/internal/usecase/records"
	searchuc "github.com/contentdex/contentdex/internal/usecase/search"
)

// Server holds the HTTP handlers for the API surface.
type Server struct {
	search  *searchuc.Service
	records *recordsuc.Service
	health  *healthuc.Service
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	records *recordsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:  search,
		records: records,
		health:  health,
		logger:  logger,
	}
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chirouter.Router) {
	r.Route("/api/v1", func(r chirouter.Router) {
		r.Post("/search", s.SearchVector)
		r.Post("/search/text", s.SearchText)
		r.Post("/search/topics", s.SearchTopics)

		r.Route("/records/{table}", func(r chirouter.Router) {
			r.Get("/", s.ReadRecords)
			r.Post("/", s.CreateRecord)
			r.Patch("/{id}", s.UpdateRecord)
			r.Delete("/{id}", s.DeleteRecord)
		})
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// searchOptionsDTO is the JSON shape of the optional search parameters.
type searchOptionsDTO struct {
	SimilarityThreshold *float64   `json:"similarity_threshold,omitempty"`
	MatchCount          *int       `json:"match_count,omitempty"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	SourceType          string     `json:"source_type,omitempty"`
	ActiveOnly          *bool      `json:"active_only,omitempty"`
}

func (d *searchOptionsDTO) toOptions() request.Options {
	opts := request.Options{
		SimilarityThreshold: d.SimilarityThreshold,
		MatchCount:          d.MatchCount,
		SourceType:          domain.SourceType(d.SourceType),
		ActiveOnly:          d.ActiveOnly,
	}
	if d.StartDate != nil || d.EndDate != nil {
		dr := request.DateRange{}
		if d.StartDate != nil {
			dr.Start = *d.StartDate
		}
		if d.EndDate != nil {
			dr.End = *d.EndDate
		}
		opts.DateRange = &dr
	}
	return opts
}

type vectorSearchDTO struct {
	TargetUserID string    `json:"target_user_id"`
	QueryVector  []float32 `json:"query_vector"`
	searchOptionsDTO
}

type textSearchDTO struct {
	TargetUserID string `json:"target_user_id"`
	QueryText    string `json:"query_text"`
	Mode         string `json:"mode,omitempty"` // "precise" | "broad" | ""
	searchOptionsDTO
}

type topicsSearchDTO struct {
	TargetUserID string   `json:"target_user_id"`
	Topics       []string `json:"topics"`
	searchOptionsDTO
}

// SearchVector handles POST /api/v1/search.
func (s *Server) SearchVector(w http.ResponseWriter, r *http.Request) {
	var req vectorSearchDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, envelope.Failure(envelope.CodeInvalidParameters,
			"invalid request body: "+err.Error(), 0))
		return
	}

	resp := s.search.SearchVector(r.Context(), req.TargetUserID, req.QueryVector, req.toOptions())
	writeEnvelope(w, resp)
}

// SearchText handles POST /api/v1/search/text.
func (s *Server) SearchText(w http.ResponseWriter, r *http.Request) {
	var req textSearchDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, envelope.Failure(envelope.CodeInvalidParameters,
			"invalid request body: "+err.Error(), 0))
		return
	}

	var resp envelope.Response
	switch req.Mode {
	case "precise":
		resp = s.search.SearchPrecise(r.Context(), req.TargetUserID, req.QueryText)
	case "broad":
		resp = s.search.SearchBroad(r.Context(), req.TargetUserID, req.QueryText)
	case "":
		resp = s.search.SearchText(r.Context(), req.TargetUserID, req.QueryText, req.toOptions())
	default:
		writeEnvelope(w, envelope.Failure(envelope.CodeInvalidParameters,
			"mode must be \"precise\", \"broad\" or omitted", 0))
		return
	}
	writeEnvelope(w, resp)
}

// SearchTopics handles POST /api/v1/search/topics. The body is an array of
// envelopes, one per topic in input order; the HTTP status is always 200
// because per-topic failures are part of the payload.
func (s *Server) SearchTopics(w http.ResponseWriter, r *http.Request) {
	var req topicsSearchDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, envelope.Failure(envelope.CodeInvalidParameters,
			"invalid request body: "+err.Error(), 0))
		return
	}

	responses := s.search.SearchTopics(r.Context(), req.TargetUserID, req.Topics, req.toOptions())

	out := make([]searchResponseDTO, len(responses))
	for i := range responses {
		out[i] = envelopeToDTO(&responses[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// ReadRecords handles GET /api/v1/records/{table}. The user_id query
// parameter names the target user (defaults to the caller); the rest become
// equality filters, subject to the column allowlist.
func (s *Server) ReadRecords(w http.ResponseWriter, r *http.Request) {
	table := chirouter.URLParam(r, "table")

	var targetUserID string
	filters := make(map[string]any)
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "user_id" {
			targetUserID = values[0]
			continue
		}
		filters[key] = values[0]
	}

	rows, err := s.records.Read(r.Context(), table, targetUserID, filters)
	if err != nil {
		s.handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows, "total_count": len(rows)})
}

// CreateRecord handles POST /api/v1/records/{table}.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	table := chirouter.URLParam(r, "table")

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameters", "invalid request body: "+err.Error())
		return
	}

	targetUserID, ok := popUserID(data)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameters", "user_id must be a string")
		return
	}

	row, err := s.records.Create(r.Context(), table, targetUserID, data)
	if err != nil {
		s.handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// UpdateRecord handles PATCH /api/v1/records/{table}/{id}.
func (s *Server) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	table := chirouter.URLParam(r, "table")
	id := chirouter.URLParam(r, "id")

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameters", "invalid request body: "+err.Error())
		return
	}

	targetUserID, ok := popUserID(data)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameters", "user_id must be a string")
		return
	}

	row, err := s.records.Update(r.Context(), table, targetUserID, id, data)
	if err != nil {
		s.handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// DeleteRecord handles DELETE /api/v1/records/{table}/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	table := chirouter.URLParam(r, "table")
	id := chirouter.URLParam(r, "id")

	if err := s.records.Delete(r.Context(), table, r.URL.Query().Get("user_id"), id); err != nil {
		s.handleStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// popUserID extracts the optional target user id from a record payload.
// Returns false when the field is present but not a string.
func popUserID(data map[string]any) (string, bool) {
	v, present := data["user_id"]
	if !present {
		return "", true
	}
	delete(data, "user_id")
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- envelope rendering ---

type searchResultDTO struct {
	ID          string      `json:"id"`
	ContentText string      `json:"content_text"`
	SourceType  string      `json:"source_type"`
	SourceURL   *string     `json:"source_url,omitempty"`
	Similarity  float64     `json:"similarity"`
	Metadata    metadataDTO `json:"metadata"`
	CreatedAt   time.Time   `json:"created_at"`
}

type metadataDTO struct {
	ModelName          string         `json:"model_name"`
	EmbeddedAt         time.Time      `json:"embedded_at"`
	EffectiveThreshold float64        `json:"effective_threshold"`
	Active             bool           `json:"active"`
	Extra              map[string]any `json:"extra,omitempty"`
	Query              queryEchoDTO   `json:"query"`
}

type queryEchoDTO struct {
	Timestamp  time.Time `json:"timestamp"`
	Threshold  float64   `json:"threshold"`
	MatchCount int       `json:"match_count"`
	SourceType string    `json:"source_type,omitempty"`
	ActiveOnly bool      `json:"active_only"`
}

type searchErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type searchResponseDTO struct {
	Results         []searchResultDTO `json:"results"`
	ExecutionTimeMs int64             `json:"execution_time_ms"`
	TotalCount      int               `json:"total_count"`
	Error           *searchErrorDTO   `json:"error,omitempty"`
}

func envelopeToDTO(resp *envelope.Response) searchResponseDTO {
	dto := searchResponseDTO{
		Results:         make([]searchResultDTO, len(resp.Results)),
		ExecutionTimeMs: resp.ExecutionTimeMs,
		TotalCount:      resp.TotalCount,
	}
	for i := range resp.Results {
		dto.Results[i] = resultToDTO(&resp.Results[i])
	}
	if resp.Error != nil {
		dto.Error = &searchErrorDTO{
			Code:    string(resp.Error.Code),
			Message: resp.Error.Message,
			Details: resp.Error.Details,
		}
	}
	return dto
}

func resultToDTO(r *result.Result) searchResultDTO {
	m := r.Metadata()
	return searchResultDTO{
		ID:          r.ID(),
		ContentText: r.ContentText(),
		SourceType:  string(r.SourceType()),
		SourceURL:   r.SourceURL(),
		Similarity:  r.Similarity(),
		Metadata: metadataDTO{
			ModelName:          m.ModelName,
			EmbeddedAt:         m.EmbeddedAt,
			EffectiveThreshold: m.EffectiveThreshold,
			Active:             m.Active,
			Extra:              m.Extra,
			Query: queryEchoDTO{
				Timestamp:  m.Query.Timestamp,
				Threshold:  m.Query.Threshold,
				MatchCount: m.Query.MatchCount,
				SourceType: string(m.Query.SourceType),
				ActiveOnly: m.Query.ActiveOnly,
			},
		},
		CreatedAt: r.CreatedAt(),
	}
}

// envelopeStatus maps the envelope error code to an HTTP status. The body is
// the same envelope shape either way.
func envelopeStatus(resp *envelope.Response) int {
	if resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case envelope.CodeInvalidParameters:
		return http.StatusBadRequest
	case envelope.CodeUnauthenticated:
		return http.StatusUnauthorized
	case envelope.CodeAccessDenied:
		return http.StatusForbidden
	case envelope.CodeTextSearchError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeEnvelope(w http.ResponseWriter, resp envelope.Response) {
	writeJSON(w, envelopeStatus(&resp), envelopeToDTO(&resp))
}

func (s *Server) handleStoreError(w http.ResponseWriter, err error) {
	s.logger.Warn("record operation failed", zap.Error(err))

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, domain.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", "access denied")
	case errors.Is(err, domain.ErrUnknownTable):
		writeError(w, http.StatusBadRequest, "invalid_parameters", "unknown table")
	case errors.Is(err, domain.ErrUnknownColumn):
		writeError(w, http.StatusBadRequest, "invalid_parameters", "unknown column")
	case errors.Is(err, domain.ErrInvalidParameters):
		writeError(w, http.StatusBadRequest, "invalid_parameters", "invalid parameters")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
