package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/auth"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
	"github.com/vatsinhr/settlement-backend-go/internal/handler/http/response"
)

type SettlementHandler interface {
	OpenCycle(w http.ResponseWriter, r *http.Request)
	GetCycleStatus(w http.ResponseWriter, r *http.Request)
	ListPayslips(w http.ResponseWriter, r *http.Request)
	VerifyOne(w http.ResponseWriter, r *http.Request)
	VerifyBatch(w http.ResponseWriter, r *http.Request)
	Disburse(w http.ResponseWriter, r *http.Request)
	ListAudit(w http.ResponseWriter, r *http.Request)
	ListDistributions(w http.ResponseWriter, r *http.Request)
}

type settlementHandlerImpl struct {
	settlementService settlement.Service
}

func NewSettlementHandler(settlementService settlement.Service) SettlementHandler {
	return &settlementHandlerImpl{
		settlementService: settlementService,
	}
}

// getActorFromContext extracts actor_id from JWT claims.
func getActorFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if actorID, ok := claims["actor_id"].(string); ok {
		return actorID
	}
	return ""
}

// OpenCycle implements SettlementHandler.
func (h *settlementHandlerImpl) OpenCycle(w http.ResponseWriter, r *http.Request) {
	actorID := getActorFromContext(r)
	if actorID == "" {
		response.HandleError(w, auth.ErrMissingActor)
		return
	}

	var req settlement.OpenCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.settlementService.OpenCycle(r.Context(), req, actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Settlement cycle opened", result)
}

// GetCycleStatus implements SettlementHandler.
func (h *settlementHandlerImpl) GetCycleStatus(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleId")

	result, err := h.settlementService.GetCycleStatus(r.Context(), cycleID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListPayslips implements SettlementHandler.
func (h *settlementHandlerImpl) ListPayslips(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleId")

	result, err := h.settlementService.ListPayslips(r.Context(), cycleID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// VerifyOne implements SettlementHandler.
func (h *settlementHandlerImpl) VerifyOne(w http.ResponseWriter, r *http.Request) {
	actorID := getActorFromContext(r)
	if actorID == "" {
		response.HandleError(w, auth.ErrMissingActor)
		return
	}

	cycleID := chi.URLParam(r, "cycleId")
	employeeID := chi.URLParam(r, "employeeId")

	result, err := h.settlementService.VerifyOne(r.Context(), cycleID, employeeID, actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payslip verified", result)
}

// VerifyBatch implements SettlementHandler.
func (h *settlementHandlerImpl) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	actorID := getActorFromContext(r)
	if actorID == "" {
		response.HandleError(w, auth.ErrMissingActor)
		return
	}

	cycleID := chi.URLParam(r, "cycleId")

	result, err := h.settlementService.VerifyBatch(r.Context(), cycleID, actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Batch verification completed", result)
}

// Disburse implements SettlementHandler.
func (h *settlementHandlerImpl) Disburse(w http.ResponseWriter, r *http.Request) {
	actorID := getActorFromContext(r)
	if actorID == "" {
		response.HandleError(w, auth.ErrMissingActor)
		return
	}

	cycleID := chi.URLParam(r, "cycleId")

	result, err := h.settlementService.Disburse(r.Context(), cycleID, actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cycle disbursed", result)
}

// ListAudit implements SettlementHandler.
func (h *settlementHandlerImpl) ListAudit(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleId")

	result, err := h.settlementService.ListCycleAudit(r.Context(), cycleID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListDistributions implements SettlementHandler.
func (h *settlementHandlerImpl) ListDistributions(w http.ResponseWriter, r *http.Request) {
	result, err := h.settlementService.GetDistributionHistory(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
