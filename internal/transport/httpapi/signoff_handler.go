package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stagegate/internal/errs"
	signoffuc "stagegate/internal/usecase/signoff"
)

type SignoffService interface {
	Approve(ctx context.Context, input signoffuc.ApproveInput) (signoffuc.Record, error)
	Revoke(ctx context.Context, input signoffuc.RevokeInput) (signoffuc.Record, error)
	IsApproved(ctx context.Context, tenantID uint64, programID uint64, entityType string, entityID string) (bool, error)
	GetHistory(ctx context.Context, tenantID uint64, programID uint64, entityType string, entityID string) ([]signoffuc.Record, error)
	GetPending(ctx context.Context, tenantID uint64, programID uint64, entityType string) ([]signoffuc.PendingItem, error)
	GetSummary(ctx context.Context, tenantID uint64, programID uint64) (map[string]signoffuc.TypeSummary, error)
}

type signoffHTTPHandler struct {
	svc SignoffService
}

type approveRequest struct {
	TenantID       uint64 `json:"tenant_id"`
	ProgramID      uint64 `json:"program_id"`
	EntityType     string `json:"entity_type"`
	EntityID       string `json:"entity_id"`
	ApproverID     string `json:"approver_id"`
	Comment        string `json:"comment,omitempty"`
	IsOverride     bool   `json:"is_override,omitempty"`
	OverrideReason string `json:"override_reason,omitempty"`
}

type revokeRequest struct {
	TenantID   uint64 `json:"tenant_id"`
	ProgramID  uint64 `json:"program_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	RevokerID  string `json:"revoker_id"`
	Reason     string `json:"reason"`
}

type signoffRecordResponse struct {
	RecordID             uint64 `json:"record_id"`
	TenantID             uint64 `json:"tenant_id"`
	ProgramID            uint64 `json:"program_id"`
	EntityType           string `json:"entity_type"`
	EntityID             string `json:"entity_id"`
	Action               string `json:"action"`
	ApproverID           string `json:"approver_id"`
	ApproverNameSnapshot string `json:"approver_name_snapshot"`
	Comment              string `json:"comment,omitempty"`
	OverrideReason       string `json:"override_reason,omitempty"`
	IsOverride           bool   `json:"is_override"`
	ApproverIP           string `json:"approver_ip,omitempty"`
	CreatedAt            string `json:"created_at"`
}

type pendingItemResponse struct {
	EntityType            string `json:"entity_type"`
	EntityID              string `json:"entity_id"`
	LastAction            string `json:"last_action"`
	LastActor             string `json:"last_actor"`
	LastActorNameSnapshot string `json:"last_actor_name_snapshot"`
	LastChangedAt         string `json:"last_changed_at"`
}

type typeSummaryResponse struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Revoked  int `json:"revoked"`
	Override int `json:"override"`
}

type isApprovedResponse struct {
	Approved bool `json:"approved"`
}

func (h *signoffHTTPHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.Invalidf("decode request body: %v", err))
		return
	}

	record, err := h.svc.Approve(r.Context(), signoffuc.ApproveInput{
		TenantID:       req.TenantID,
		ProgramID:      req.ProgramID,
		EntityType:     req.EntityType,
		EntityID:       req.EntityID,
		ApproverID:     req.ApproverID,
		Comment:        req.Comment,
		IsOverride:     req.IsOverride,
		OverrideReason: req.OverrideReason,
		Caller:         callerFromRequest(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSignoffRecord(record))
}

func (h *signoffHTTPHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.Invalidf("decode request body: %v", err))
		return
	}

	record, err := h.svc.Revoke(r.Context(), signoffuc.RevokeInput{
		TenantID:   req.TenantID,
		ProgramID:  req.ProgramID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		RevokerID:  req.RevokerID,
		Reason:     req.Reason,
		Caller:     callerFromRequest(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSignoffRecord(record))
}

func (h *signoffHTTPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	tenantID, programID, err := scopeFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.svc.GetHistory(r.Context(), tenantID, programID, chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]signoffRecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, mapSignoffRecord(record))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *signoffHTTPHandler) handleIsApproved(w http.ResponseWriter, r *http.Request) {
	tenantID, programID, err := scopeFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	approved, err := h.svc.IsApproved(r.Context(), tenantID, programID, chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, isApprovedResponse{Approved: approved})
}

func (h *signoffHTTPHandler) handlePending(w http.ResponseWriter, r *http.Request) {
	programID, err := pathID(r, "programID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tenantID, err := tenantFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.svc.GetPending(r.Context(), tenantID, programID, r.URL.Query().Get("entity_type"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]pendingItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, pendingItemResponse{
			EntityType:            item.EntityType,
			EntityID:              item.EntityID,
			LastAction:            item.LastAction,
			LastActor:             item.LastActor,
			LastActorNameSnapshot: item.LastActorNameSnapshot,
			LastChangedAt:         item.LastChangedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *signoffHTTPHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	programID, err := pathID(r, "programID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tenantID, err := tenantFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.svc.GetSummary(r.Context(), tenantID, programID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make(map[string]typeSummaryResponse, len(summary))
	for entityType, tally := range summary {
		out[entityType] = typeSummaryResponse{
			Total:    tally.Total,
			Approved: tally.Approved,
			Revoked:  tally.Revoked,
			Override: tally.Override,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func tenantFromQuery(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("tenant_id")
	tenantID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || tenantID == 0 {
		return 0, errs.Invalidf("invalid tenant_id %q", raw)
	}
	return tenantID, nil
}

func scopeFromQuery(r *http.Request) (uint64, uint64, error) {
	tenantID, err := tenantFromQuery(r)
	if err != nil {
		return 0, 0, err
	}

	raw := r.URL.Query().Get("program_id")
	programID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || programID == 0 {
		return 0, 0, errs.Invalidf("invalid program_id %q", raw)
	}
	return tenantID, programID, nil
}

func mapSignoffRecord(record signoffuc.Record) signoffRecordResponse {
	return signoffRecordResponse{
		RecordID:             record.RecordID,
		TenantID:             record.TenantID,
		ProgramID:            record.ProgramID,
		EntityType:           record.EntityType,
		EntityID:             record.EntityID,
		Action:               record.Action,
		ApproverID:           record.ApproverID,
		ApproverNameSnapshot: record.ApproverNameSnapshot,
		Comment:              record.Comment,
		OverrideReason:       record.OverrideReason,
		IsOverride:           record.IsOverride,
		ApproverIP:           record.ApproverIP,
		CreatedAt:            record.CreatedAt,
	}
}
