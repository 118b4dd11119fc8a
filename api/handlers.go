/*
handlers.go - HTTP handlers for the leave engine

PURPOSE:
  Exposes the engine over REST. Handlers decode and validate DTOs,
  delegate to the domain services, and map the error taxonomy onto HTTP
  statuses.

ERROR MAPPING:
  400: validation failures (bad ranges, short reasons, insufficient balance)
  401: approval authority denials
  404: missing employee/request/delegation
  409: invalid state transitions, including stale-precondition races
  500: everything else

SECURITY NOTE:
  Authentication is an external collaborator; approver identity arrives
  in the request body and is trusted here.

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: routing and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/cycle"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER
// =============================================================================

type Handler struct {
	Lifecycle   *leave.Lifecycle
	Ledger      *leave.BalanceLedger
	Authority   *leave.ApprovalAuthority
	Delegations *leave.DelegationRegistry
	Logger      *logrus.Logger

	validate *validator.Validate
}

func NewHandler(lifecycle *leave.Lifecycle, ledger *leave.BalanceLedger, authority *leave.ApprovalAuthority, delegations *leave.DelegationRegistry, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		Lifecycle:   lifecycle,
		Ledger:      ledger,
		Authority:   authority,
		Delegations: delegations,
		Logger:      logger,
		validate:    validator.New(),
	}
}

// decode unmarshals and validates a request body.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.WithError(err).Error("encoding response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string) {
	h.writeJSON(w, status, ErrorDTO{Error: msg, Code: code})
}

// writeDomainError maps the engine taxonomy onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leave.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, leave.ErrUnauthorized):
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, leave.ErrInvalidStateTransition):
		h.writeError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, leave.ErrValidation):
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		h.Logger.WithError(err).Error("internal error")
		h.writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// mustDate parses a DTO date already shape-checked by the validator.
func mustDate(s string) cycle.Date {
	d, _ := cycle.ParseDate(s)
	return d
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body SubmitLeaveRequest
	if !h.decode(w, r, &body) {
		return
	}
	req, err := h.Lifecycle.Submit(r.Context(),
		leave.EmployeeID(body.EmployeeID),
		cycle.LeaveType(body.LeaveType),
		mustDate(body.StartDate), mustDate(body.EndDate),
		body.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toRequestDTO(req))
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	req, err := h.Lifecycle.Requests.GetRequest(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(req))
}

func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var body ReviewRequest
	if !h.decode(w, r, &body) {
		return
	}
	req, err := h.Lifecycle.Approve(r.Context(),
		leave.RequestID(chi.URLParam(r, "id")),
		leave.EmployeeID(body.ApproverID))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(req))
}

func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var body ReviewRequest
	if !h.decode(w, r, &body) {
		return
	}
	req, err := h.Lifecycle.Reject(r.Context(),
		leave.RequestID(chi.URLParam(r, "id")),
		leave.EmployeeID(body.ApproverID),
		body.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// =============================================================================
// MODIFICATIONS
// =============================================================================

func (h *Handler) RequestEarlyCheckin(w http.ResponseWriter, r *http.Request) {
	var body EarlyCheckinRequest
	if !h.decode(w, r, &body) {
		return
	}
	req, err := h.Lifecycle.RequestEarlyCheckin(r.Context(),
		leave.RequestID(chi.URLParam(r, "id")),
		mustDate(body.ActualEndDate),
		body.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(req))
}

func (h *Handler) AcknowledgeEarlyCheckin(w http.ResponseWriter, r *http.Request) {
	var body ReviewRequest
	if !h.decode(w, r, &body) {
		return
	}
	req, err := h.Lifecycle.AcknowledgeEarlyCheckin(r.Context(),
		leave.RequestID(chi.URLParam(r, "id")),
		leave.EmployeeID(body.ApproverID))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(req))
}

func (h *Handler) RequestExtension(w http.ResponseWriter, r *http.Request) {
	var body ExtensionRequest
	if !h.decode(w, r, &body) {
		return
	}
	req, err := h.Lifecycle.RequestExtension(r.Context(),
		leave.RequestID(chi.URLParam(r, "id")),
		mustDate(body.NewEndDate),
		body.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// ReviewExtension handles the explicit {action, approver_id} selector.
func (h *Handler) ReviewExtension(w http.ResponseWriter, r *http.Request) {
	var body ExtensionReviewRequest
	if !h.decode(w, r, &body) {
		return
	}
	id := leave.RequestID(chi.URLParam(r, "id"))
	approver := leave.EmployeeID(body.ApproverID)

	var req *leave.LeaveRequest
	var err error
	switch body.Action {
	case "approve":
		req, err = h.Lifecycle.ApproveExtension(r.Context(), id, approver, mustDate(body.NewEndDate))
	case "reject":
		req, err = h.Lifecycle.RejectExtension(r.Context(), id, approver, body.Reason)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(req))
}

func (h *Handler) ManagerExtend(w http.ResponseWriter, r *http.Request) {
	var body ManagerExtendRequest
	if !h.decode(w, r, &body) {
		return
	}
	req, err := h.Lifecycle.ManagerExtend(r.Context(),
		leave.RequestID(chi.URLParam(r, "id")),
		leave.EmployeeID(body.ManagerID),
		mustDate(body.NewEndDate),
		body.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// =============================================================================
// SCHEDULE AND BALANCES
// =============================================================================

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))
	from, err := cycle.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_range", "from must be YYYY-MM-DD")
		return
	}
	to, err := cycle.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_range", "to must be YYYY-MM-DD")
		return
	}
	entries, err := h.Ledger.Schedule(r.Context(), employeeID, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toScheduleDTO(entries))
}

func (h *Handler) GetCycleStatus(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))
	st, err := h.Ledger.CycleStatus(r.Context(), employeeID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCycleStatusDTO(st))
}

func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))
	sheet, err := h.Ledger.Balances(r.Context(), employeeID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, BalancesDTO{
		EmployeeID:    string(sheet.EmployeeID),
		AsOf:          sheet.AsOf.String(),
		Annual:        sheet.Annual.String(),
		Sick:          sheet.Sick.String(),
		Compassionate: sheet.Compassionate.String(),
	})
}

// =============================================================================
// DELEGATIONS
// =============================================================================

func (h *Handler) CreateDelegation(w http.ResponseWriter, r *http.Request) {
	var body CreateDelegationRequest
	if !h.decode(w, r, &body) {
		return
	}
	d, err := h.Delegations.Create(r.Context(),
		leave.EmployeeID(body.FromManagerID),
		leave.EmployeeID(body.ToManagerID),
		mustDate(body.StartDate), mustDate(body.EndDate),
		body.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toDelegationDTO(d))
}

func (h *Handler) CancelDelegation(w http.ResponseWriter, r *http.Request) {
	var body CancelDelegationRequest
	if !h.decode(w, r, &body) {
		return
	}
	err := h.Delegations.Cancel(r.Context(),
		leave.DelegationID(chi.URLParam(r, "id")),
		leave.EmployeeID(body.ManagerID))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetDelegatedStaff(w http.ResponseWriter, r *http.Request) {
	managerID := leave.EmployeeID(chi.URLParam(r, "id"))
	var asOf cycle.Date
	if q := r.URL.Query().Get("as_of"); q != "" {
		d, err := cycle.ParseDate(q)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "bad_date", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = d
	}
	staff, err := h.Delegations.GetDelegatedStaff(r.Context(), managerID, asOf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	ids := make([]string, len(staff))
	for i, e := range staff {
		ids[i] = string(e.ID)
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"staff": ids})
}
