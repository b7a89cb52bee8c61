package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stagegate/internal/errs"
	gateuc "stagegate/internal/usecase/gate"
)

type GateService interface {
	Evaluate(ctx context.Context, input gateuc.EvaluateInput) (gateuc.EvaluationResult, error)
	GetHistory(ctx context.Context, entityType string, entityID string) ([]gateuc.EvaluationLogItem, error)
	GetScorecard(ctx context.Context, entityType string, entityID string) (gateuc.Scorecard, error)
	CreateCriterion(ctx context.Context, input gateuc.CriterionInput) (gateuc.Criterion, error)
	UpdateCriterion(ctx context.Context, criterionID uint64, input gateuc.CriterionInput) (gateuc.Criterion, error)
	DeleteCriterion(ctx context.Context, criterionID uint64) error
	ListCriteria(ctx context.Context, programID uint64, gateType string) ([]gateuc.Criterion, error)
}

type gateHTTPHandler struct {
	svc GateService
}

type evaluateRequest struct {
	EntityType   string             `json:"entity_type"`
	EntityID     string             `json:"entity_id"`
	CustomValues map[string]float64 `json:"custom_values,omitempty"`
}

type criterionResultResponse struct {
	CriterionID  uint64 `json:"criterion_id"`
	Name         string `json:"name"`
	CriteriaType string `json:"criteria_type"`
	Operator     string `json:"operator"`
	Threshold    string `json:"threshold"`
	Actual       string `json:"actual"`
	IsPassed     bool   `json:"is_passed"`
	IsBlocking   bool   `json:"is_blocking"`
}

type evaluateResponse struct {
	RunID       string                    `json:"run_id"`
	ProgramID   uint64                    `json:"program_id"`
	GateType    string                    `json:"gate_type"`
	EntityType  string                    `json:"entity_type"`
	EntityID    string                    `json:"entity_id"`
	CanProceed  bool                      `json:"can_proceed"`
	AllPassed   bool                      `json:"all_passed"`
	PassedCount int                       `json:"passed_count"`
	TotalCount  int                       `json:"total_count"`
	Results     []criterionResultResponse `json:"results"`
	Summary     string                    `json:"summary"`
	EvaluatedAt string                    `json:"evaluated_at"`
}

type evaluationLogResponse struct {
	EvaluationID uint64 `json:"evaluation_id"`
	CriterionID  uint64 `json:"criterion_id"`
	RunID        string `json:"run_id"`
	ActualValue  string `json:"actual_value"`
	IsPassed     bool   `json:"is_passed"`
	EvaluatedAt  string `json:"evaluated_at"`
	EvaluatedBy  string `json:"evaluated_by,omitempty"`
	Notes        string `json:"notes"`
}

type scorecardResponse struct {
	EntityType string                    `json:"entity_type"`
	EntityID   string                    `json:"entity_id"`
	Status     string                    `json:"status"`
	CanProceed bool                      `json:"can_proceed"`
	Results    []criterionResultResponse `json:"results"`
}

type criterionRequest struct {
	GateType       string   `json:"gate_type"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	CriteriaType   string   `json:"criteria_type"`
	Operator       string   `json:"operator"`
	Threshold      string   `json:"threshold"`
	SeverityFilter []string `json:"severity_filter,omitempty"`
	IsBlocking     bool     `json:"is_blocking"`
	IsActive       bool     `json:"is_active"`
	SortOrder      int      `json:"sort_order"`
}

type criterionResponse struct {
	CriterionID    uint64   `json:"criterion_id"`
	ProgramID      uint64   `json:"program_id"`
	GateType       string   `json:"gate_type"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	CriteriaType   string   `json:"criteria_type"`
	Operator       string   `json:"operator"`
	Threshold      string   `json:"threshold"`
	SeverityFilter []string `json:"severity_filter,omitempty"`
	IsBlocking     bool     `json:"is_blocking"`
	IsActive       bool     `json:"is_active"`
	SortOrder      int      `json:"sort_order"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

func (h *gateHTTPHandler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	programID, err := pathID(r, "programID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.Invalidf("decode request body: %v", err))
		return
	}

	caller := callerFromRequest(r)
	result, err := h.svc.Evaluate(r.Context(), gateuc.EvaluateInput{
		ProgramID:    programID,
		GateType:     chi.URLParam(r, "gateType"),
		EntityType:   req.EntityType,
		EntityID:     req.EntityID,
		EvaluatedBy:  caller.RequestorID,
		CustomValues: req.CustomValues,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapEvaluateResponse(result))
}

func (h *gateHTTPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.GetHistory(r.Context(), chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]evaluationLogResponse, 0, len(items))
	for _, item := range items {
		out = append(out, evaluationLogResponse{
			EvaluationID: item.EvaluationID,
			CriterionID:  item.CriterionID,
			RunID:        item.RunID,
			ActualValue:  item.ActualValue,
			IsPassed:     item.IsPassed,
			EvaluatedAt:  item.EvaluatedAt,
			EvaluatedBy:  item.EvaluatedBy,
			Notes:        item.Notes,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *gateHTTPHandler) handleScorecard(w http.ResponseWriter, r *http.Request) {
	card, err := h.svc.GetScorecard(r.Context(), chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, scorecardResponse{
		EntityType: card.EntityType,
		EntityID:   card.EntityID,
		Status:     card.Status,
		CanProceed: card.CanProceed,
		Results:    mapCriterionResults(card.Results),
	})
}

func (h *gateHTTPHandler) handleCreateCriterion(w http.ResponseWriter, r *http.Request) {
	programID, err := pathID(r, "programID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req criterionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.Invalidf("decode request body: %v", err))
		return
	}

	created, err := h.svc.CreateCriterion(r.Context(), criterionInputFromRequest(programID, req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCriterionResponse(created))
}

func (h *gateHTTPHandler) handleUpdateCriterion(w http.ResponseWriter, r *http.Request) {
	criterionID, err := pathID(r, "criterionID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		criterionRequest
		ProgramID uint64 `json:"program_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.Invalidf("decode request body: %v", err))
		return
	}

	updated, err := h.svc.UpdateCriterion(r.Context(), criterionID, criterionInputFromRequest(req.ProgramID, req.criterionRequest))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCriterionResponse(updated))
}

func (h *gateHTTPHandler) handleDeleteCriterion(w http.ResponseWriter, r *http.Request) {
	criterionID, err := pathID(r, "criterionID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.DeleteCriterion(r.Context(), criterionID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *gateHTTPHandler) handleListCriteria(w http.ResponseWriter, r *http.Request) {
	programID, err := pathID(r, "programID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.svc.ListCriteria(r.Context(), programID, r.URL.Query().Get("gate_type"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]criterionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, mapCriterionResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func pathID(r *http.Request, param string) (uint64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Invalidf("invalid %s %q", param, raw)
	}
	return id, nil
}

func criterionInputFromRequest(programID uint64, req criterionRequest) gateuc.CriterionInput {
	return gateuc.CriterionInput{
		ProgramID:      programID,
		GateType:       req.GateType,
		Name:           req.Name,
		Description:    req.Description,
		CriteriaType:   req.CriteriaType,
		Operator:       req.Operator,
		Threshold:      req.Threshold,
		SeverityFilter: req.SeverityFilter,
		IsBlocking:     req.IsBlocking,
		IsActive:       req.IsActive,
		SortOrder:      req.SortOrder,
	}
}

func mapCriterionResults(results []gateuc.CriterionResult) []criterionResultResponse {
	out := make([]criterionResultResponse, 0, len(results))
	for _, result := range results {
		out = append(out, criterionResultResponse{
			CriterionID:  result.CriterionID,
			Name:         result.Name,
			CriteriaType: result.CriteriaType,
			Operator:     result.Operator,
			Threshold:    result.Threshold,
			Actual:       result.Actual,
			IsPassed:     result.IsPassed,
			IsBlocking:   result.IsBlocking,
		})
	}
	return out
}

func mapEvaluateResponse(result gateuc.EvaluationResult) evaluateResponse {
	return evaluateResponse{
		RunID:       result.RunID,
		ProgramID:   result.ProgramID,
		GateType:    result.GateType,
		EntityType:  result.EntityType,
		EntityID:    result.EntityID,
		CanProceed:  result.CanProceed,
		AllPassed:   result.AllPassed,
		PassedCount: result.PassedCount,
		TotalCount:  result.TotalCount,
		Results:     mapCriterionResults(result.Results),
		Summary:     result.Summary,
		EvaluatedAt: result.EvaluatedAt,
	}
}

func mapCriterionResponse(item gateuc.Criterion) criterionResponse {
	return criterionResponse{
		CriterionID:    item.CriterionID,
		ProgramID:      item.ProgramID,
		GateType:       item.GateType,
		Name:           item.Name,
		Description:    item.Description,
		CriteriaType:   item.CriteriaType,
		Operator:       item.Operator,
		Threshold:      item.Threshold,
		SeverityFilter: item.SeverityFilter,
		IsBlocking:     item.IsBlocking,
		IsActive:       item.IsActive,
		SortOrder:      item.SortOrder,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}
