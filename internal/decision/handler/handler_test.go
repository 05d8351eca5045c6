package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"verdict/internal/audit"
	"verdict/internal/decision"
	"verdict/internal/transport/httputil"
)

type HandlerSuite struct {
	suite.Suite
	store    *audit.InMemoryStore
	recorder *audit.Recorder
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	evaluator, err := decision.NewEvaluator(decision.DefaultPolicyConfig())
	s.Require().NoError(err)

	s.store = audit.NewInMemoryStore()
	s.recorder = audit.NewRecorder(s.store, "test")

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	service := decision.NewService(evaluator, s.recorder,
		decision.WithClock(func() time.Time { return now }),
	)

	logger := slog.New(slog.DiscardHandler)
	h := New(service, s.recorder, logger)

	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) evaluateBody() map[string]any {
	addr := map[string]any{"street": "123 Main Street", "city": "Springfield", "state": "IL", "zip": "62704"}
	return map[string]any{
		"claim": map[string]any{
			"full_name":     "Jane A. Doe",
			"date_of_birth": "1990-04-01",
			"address":       addr,
		},
		"identity": map[string]any{
			"full_name":     "Jane Doe",
			"date_of_birth": "1990-04-01",
			"address":       addr,
			"expiry_date":   "2030-01-01",
		},
	}
}

func (s *HandlerSuite) post(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestEvaluateReturnsDecision() {
	rec := s.post("/v1/applications/app-100/decision", s.evaluateBody(), nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var result decision.Result
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.Equal("app-100", result.ApplicationID)
	s.Equal(decision.OutcomeApprove, result.Decision)
	s.Equal(0.0, result.RiskScore)
	s.NotEmpty(result.Reasoning)
	s.Len(result.ValidationResults, 4)
}

func (s *HandlerSuite) TestEvaluateRecordsAuditEntry() {
	rec := s.post("/v1/applications/app-101/decision", s.evaluateBody(), nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	trail := s.get("/v1/applications/app-101/audit-trail")
	s.Require().Equal(http.StatusOK, trail.Code)

	var response AuditTrailResponse
	s.Require().NoError(json.Unmarshal(trail.Body.Bytes(), &response))
	s.Equal("app-101", response.ApplicationID)
	s.Require().Len(response.Entries, 1)
	s.Equal(decision.OutcomeApprove, response.Entries[0].Decision.Decision)
	s.Equal("test", response.Entries[0].SystemVersion)
	s.Require().NotNil(response.Entries[0].Snapshot.Claim)
	s.Equal("Jane A. Doe", response.Entries[0].Snapshot.Claim.FullName)
}

func (s *HandlerSuite) TestRepeatedEvaluationsExtendTheTrail() {
	for range 3 {
		rec := s.post("/v1/applications/app-102/decision", s.evaluateBody(), nil)
		s.Require().Equal(http.StatusOK, rec.Code)
	}

	trail := s.get("/v1/applications/app-102/audit-trail")
	s.Require().Equal(http.StatusOK, trail.Code)

	var response AuditTrailResponse
	s.Require().NoError(json.Unmarshal(trail.Body.Bytes(), &response))
	s.Len(response.Entries, 3)
}

func (s *HandlerSuite) TestMissingClaimIsRejectedWithFieldList() {
	body := s.evaluateBody()
	delete(body, "claim")

	rec := s.post("/v1/applications/app-103/decision", body, nil)
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var response httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("invalid_input", response.Error)
	s.Contains(response.Fields, "claim")
}

func (s *HandlerSuite) TestMalformedDateIsRejectedWithFieldList() {
	body := s.evaluateBody()
	body["claim"].(map[string]any)["date_of_birth"] = "04/01/1990"

	rec := s.post("/v1/applications/app-104/decision", body, nil)
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var response httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("invalid_input", response.Error)
	s.Contains(response.Fields, "claim.date_of_birth")
}

func (s *HandlerSuite) TestInvalidJSONBodyIsBadRequest() {
	req := httptest.NewRequest(http.MethodPost, "/v1/applications/app-105/decision",
		bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestAuditTrailForUnknownApplicationIs404() {
	rec := s.get("/v1/applications/never-seen/audit-trail")
	s.Require().Equal(http.StatusNotFound, rec.Code)

	var response httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("not_found", response.Error)
}

func (s *HandlerSuite) TestIdempotencyKeyReplaysOriginalDecision() {
	headers := map[string]string{"Idempotency-Key": "key-1"}

	first := s.post("/v1/applications/app-106/decision", s.evaluateBody(), headers)
	s.Require().Equal(http.StatusOK, first.Code)
	s.Empty(first.Header().Get("Idempotency-Replay"))

	second := s.post("/v1/applications/app-106/decision", s.evaluateBody(), headers)
	s.Require().Equal(http.StatusOK, second.Code)
	s.Equal("true", second.Header().Get("Idempotency-Replay"))
	s.JSONEq(first.Body.String(), second.Body.String())

	trail := s.get("/v1/applications/app-106/audit-trail")
	s.Require().Equal(http.StatusOK, trail.Code)
	var response AuditTrailResponse
	s.Require().NoError(json.Unmarshal(trail.Body.Bytes(), &response))
	s.Len(response.Entries, 1, "a replayed request must not re-evaluate or re-audit")
}

func (s *HandlerSuite) TestIdempotencyKeysAreScopedPerApplication() {
	headers := map[string]string{"Idempotency-Key": "shared-key"}

	for i := range 2 {
		appID := fmt.Sprintf("app-20%d", i)
		rec := s.post("/v1/applications/"+appID+"/decision", s.evaluateBody(), headers)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Empty(rec.Header().Get("Idempotency-Replay"),
			"same key on a different application must evaluate fresh")
	}
}
