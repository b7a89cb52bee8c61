package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stagegate/internal/errs"
	gateuc "stagegate/internal/usecase/gate"
	signoffuc "stagegate/internal/usecase/signoff"
)

type stubGateService struct {
	evaluateInput  gateuc.EvaluateInput
	evaluateResult gateuc.EvaluationResult
	evaluateErr    error
	scorecard      gateuc.Scorecard
	created        gateuc.Criterion
	createErr      error
	deleteErr      error
}

func (s *stubGateService) Evaluate(_ context.Context, input gateuc.EvaluateInput) (gateuc.EvaluationResult, error) {
	s.evaluateInput = input
	return s.evaluateResult, s.evaluateErr
}

func (s *stubGateService) GetHistory(context.Context, string, string) ([]gateuc.EvaluationLogItem, error) {
	return nil, nil
}

func (s *stubGateService) GetScorecard(context.Context, string, string) (gateuc.Scorecard, error) {
	return s.scorecard, nil
}

func (s *stubGateService) CreateCriterion(_ context.Context, input gateuc.CriterionInput) (gateuc.Criterion, error) {
	if s.createErr != nil {
		return gateuc.Criterion{}, s.createErr
	}
	out := s.created
	out.ProgramID = input.ProgramID
	out.Name = input.Name
	return out, nil
}

func (s *stubGateService) UpdateCriterion(_ context.Context, criterionID uint64, input gateuc.CriterionInput) (gateuc.Criterion, error) {
	out := s.created
	out.CriterionID = criterionID
	out.Name = input.Name
	return out, nil
}

func (s *stubGateService) DeleteCriterion(context.Context, uint64) error {
	return s.deleteErr
}

func (s *stubGateService) ListCriteria(context.Context, uint64, string) ([]gateuc.Criterion, error) {
	return []gateuc.Criterion{s.created}, nil
}

type stubSignoffService struct {
	approveInput signoffuc.ApproveInput
	approveErr   error
	revokeErr    error
	record       signoffuc.Record
	approved     bool
	pending      []signoffuc.PendingItem
	summary      map[string]signoffuc.TypeSummary
}

func (s *stubSignoffService) Approve(_ context.Context, input signoffuc.ApproveInput) (signoffuc.Record, error) {
	s.approveInput = input
	if s.approveErr != nil {
		return signoffuc.Record{}, s.approveErr
	}
	return s.record, nil
}

func (s *stubSignoffService) Revoke(context.Context, signoffuc.RevokeInput) (signoffuc.Record, error) {
	if s.revokeErr != nil {
		return signoffuc.Record{}, s.revokeErr
	}
	return s.record, nil
}

func (s *stubSignoffService) IsApproved(context.Context, uint64, uint64, string, string) (bool, error) {
	return s.approved, nil
}

func (s *stubSignoffService) GetHistory(context.Context, uint64, uint64, string, string) ([]signoffuc.Record, error) {
	return []signoffuc.Record{s.record}, nil
}

func (s *stubSignoffService) GetPending(context.Context, uint64, uint64, string) ([]signoffuc.PendingItem, error) {
	return s.pending, nil
}

func (s *stubSignoffService) GetSummary(context.Context, uint64, uint64) (map[string]signoffuc.TypeSummary, error) {
	return s.summary, nil
}

func newTestRouter(gates *stubGateService, signoffs *stubSignoffService) http.Handler {
	if gates == nil {
		gates = &stubGateService{}
	}
	if signoffs == nil {
		signoffs = &stubSignoffService{}
	}
	return NewRouter(gates, signoffs)
}

func TestEvaluateRouteBuildsInput(t *testing.T) {
	t.Parallel()

	gates := &stubGateService{
		evaluateResult: gateuc.EvaluationResult{RunID: "run-1", CanProceed: true, Summary: "ALL PASSED - 1/1 criteria met"},
	}
	router := newTestRouter(gates, nil)

	body := `{"entity_type":"test_cycle","entity_id":"9","custom_values":{"readiness":75}}`
	req := httptest.NewRequest(http.MethodPost, "/api/programs/7/gates/cycle_exit/evaluate", strings.NewReader(body))
	req.Header.Set(actorHeader, "qa-lead")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", resp.Code, resp.Body.String())
	}
	if gates.evaluateInput.ProgramID != 7 || gates.evaluateInput.GateType != "cycle_exit" {
		t.Fatalf("input = %+v", gates.evaluateInput)
	}
	if gates.evaluateInput.EvaluatedBy != "qa-lead" {
		t.Fatalf("evaluated_by = %q", gates.evaluateInput.EvaluatedBy)
	}
	if gates.evaluateInput.CustomValues["readiness"] != 75 {
		t.Fatalf("custom values = %v", gates.evaluateInput.CustomValues)
	}

	var payload evaluateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.RunID != "run-1" || !payload.CanProceed {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestEvaluateRouteRejectsBadProgramID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/programs/zero/gates/cycle_exit/evaluate", strings.NewReader(`{}`))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestErrorKindStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid", err: errs.Invalidf("bad gate type"), want: http.StatusBadRequest},
		{name: "not found", err: errs.NotFoundf("no sign-off record"), want: http.StatusNotFound},
		{name: "conflict", err: errs.Conflictf("already revoked"), want: http.StatusConflict},
		{name: "unprocessable", err: errs.Unprocessablef("self-approval is not permitted"), want: http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signoffs := &stubSignoffService{approveErr: tc.err}
			router := newTestRouter(nil, signoffs)

			body := `{"tenant_id":1,"program_id":1,"entity_type":"workshop","entity_id":"42","approver_id":"7"}`
			req := httptest.NewRequest(http.MethodPost, "/api/signoffs/approve", strings.NewReader(body))

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.want {
				t.Fatalf("status = %d, want %d; body=%s", resp.Code, tc.want, resp.Body.String())
			}
		})
	}
}

func TestApproveRouteBuildsCaller(t *testing.T) {
	t.Parallel()

	signoffs := &stubSignoffService{record: signoffuc.Record{RecordID: 1, Action: "approved"}}
	router := newTestRouter(nil, signoffs)

	body := `{"tenant_id":1,"program_id":1,"entity_type":"workshop","entity_id":"42","approver_id":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/api/signoffs/approve", strings.NewReader(body))
	req.Header.Set(actorHeader, "bob")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	req.RemoteAddr = "10.0.0.2:51234"

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", resp.Code, resp.Body.String())
	}
	if signoffs.approveInput.Caller.RequestorID != "bob" {
		t.Fatalf("requestor = %q", signoffs.approveInput.Caller.RequestorID)
	}
	if signoffs.approveInput.Caller.SourceIP != "203.0.113.9" {
		t.Fatalf("source ip = %q, want first forwarded entry", signoffs.approveInput.Caller.SourceIP)
	}
}

func TestSourceIPFallsBackToRemoteAddr(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:9999"
	if got := sourceIP(req); got != "192.0.2.4" {
		t.Fatalf("source ip = %q", got)
	}
}

func TestIsApprovedRouteRequiresScope(t *testing.T) {
	t.Parallel()

	signoffs := &stubSignoffService{approved: true}
	router := newTestRouter(nil, signoffs)

	req := httptest.NewRequest(http.MethodGet, "/api/signoffs/workshop/42/approved", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status without tenant = %d, want 400", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/signoffs/workshop/42/approved?tenant_id=1&program_id=1", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", resp.Code, resp.Body.String())
	}

	var payload isApprovedResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Approved {
		t.Fatal("approved = false, want true")
	}
}

func TestPendingRoute(t *testing.T) {
	t.Parallel()

	signoffs := &stubSignoffService{
		pending: []signoffuc.PendingItem{{EntityType: "workshop", EntityID: "42", LastAction: "revoked"}},
	}
	router := newTestRouter(nil, signoffs)

	req := httptest.NewRequest(http.MethodGet, "/api/programs/1/signoffs/pending?tenant_id=1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", resp.Code, resp.Body.String())
	}

	var payload []pendingItemResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 1 || payload[0].LastAction != "revoked" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestCreateCriterionRoute(t *testing.T) {
	t.Parallel()

	gates := &stubGateService{created: gateuc.Criterion{CriterionID: 11}}
	router := newTestRouter(gates, nil)

	body := `{"gate_type":"cycle_exit","name":"pass rate","criteria_type":"pass_rate","operator":">=","threshold":"85","is_blocking":true,"is_active":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/programs/3/criteria", strings.NewReader(body))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", resp.Code, resp.Body.String())
	}

	var payload criterionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.CriterionID != 11 || payload.ProgramID != 3 || payload.Name != "pass rate" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestDeleteCriterionRoute(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubGateService{}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/api/criteria/11", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.Code)
	}

	router = newTestRouter(&stubGateService{deleteErr: errs.NotFoundf("criterion 99 not found")}, nil)
	req = httptest.NewRequest(http.MethodDelete, "/api/criteria/99", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}
