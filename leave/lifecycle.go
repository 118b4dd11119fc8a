/*
lifecycle.go - Leave request state machine

PURPOSE:
  Orchestrates the full life of a leave request:

    submit ──▶ pending ──▶ approved ──▶ modification sub-flow
                   │            │
                   └─▶ rejected └─ (terminal for base state)

  The modification sub-state is orthogonal to the base state and lives
  only on approved requests:

    none ──▶ pending(early_checkin | extension) ──▶ approved | rejected

  A new modification may only be requested once the prior one resolved,
  and an approved modification is final.

TRANSITION DISCIPLINE:
  Every operation validates the current status before touching anything
  and fails with InvalidStateTransition otherwise. Writes go through the
  store's guarded update, so a precondition that went stale between read
  and write also fails as InvalidStateTransition - the engine never
  assumes exclusive access.

NOTIFICATIONS:
  Each committed transition emits exactly one event to the injected
  sink, best-effort, after the write. Sinks own their failures.

SEE ALSO:
  - balance.go: submission validation and extension penalties
  - authority.go: the approval gate every review passes through
*/
package leave

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warp/leave-engine/cycle"
)

// =============================================================================
// LIFECYCLE
// =============================================================================

type Lifecycle struct {
	Employees EmployeeStore
	Requests  LeaveRequestStore
	Ledger    *BalanceLedger
	Authority *ApprovalAuthority
	Sink      NotificationSink

	// Now supplies "today"; defaults to cycle.Today.
	Now func() cycle.Date
}

func NewLifecycle(stores Stores, ledger *BalanceLedger, authority *ApprovalAuthority, sink NotificationSink) *Lifecycle {
	if sink == nil {
		sink = NopSink{}
	}
	return &Lifecycle{
		Employees: stores.Employees,
		Requests:  stores.Requests,
		Ledger:    ledger,
		Authority: authority,
		Sink:      sink,
		Now:       cycle.Today,
	}
}

func (l *Lifecycle) today() cycle.Date {
	if l.Now != nil {
		return l.Now()
	}
	return cycle.Today()
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates a new request against the employee's balance and
// persists it as pending. The resolved approver (the employee's manager)
// is notified.
func (l *Lifecycle) Submit(ctx context.Context, employeeID EmployeeID, leaveType cycle.LeaveType, start, end cycle.Date, reason string) (*LeaveRequest, error) {
	emp, err := l.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.Active {
		return nil, validationf("inactive_employee", "employee %s is not active", employeeID)
	}
	if !cycle.ValidLeaveType(leaveType) {
		return nil, validationf("unknown_leave_type", "leave type %q is not recognized", leaveType)
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, validationf("invalid_range", "leave range %s..%s is invalid", start, end)
	}

	days := cycle.BusinessDaysBetween(start, end)
	if days <= 0 {
		return nil, validationf("no_business_days", "range %s..%s contains no business days", start, end)
	}
	if err := l.Ledger.ValidateRequest(ctx, employeeID, leaveType, days); err != nil {
		return nil, err
	}

	now := time.Now()
	req := &LeaveRequest{
		ID:            RequestID(uuid.NewString()),
		EmployeeID:    employeeID,
		LeaveType:     leaveType,
		StartDate:     start,
		EndDate:       end,
		DaysRequested: days,
		Reason:        reason,
		Status:        StatusPending,
		Modification:  Modification{Type: ModificationNone, Status: ModStatusNone},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := l.Requests.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	l.notifyApprover(ctx, emp, req, EventNewRequest, map[string]string{
		"leave_type": string(leaveType),
		"start":      start.String(),
		"end":        end.String(),
		"days":       itoa(days),
	})
	return req, nil
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

func (l *Lifecycle) Approve(ctx context.Context, requestID RequestID, approverID EmployeeID) (*LeaveRequest, error) {
	req, err := l.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, transitionErr(req, "approve")
	}
	if _, err := l.Authority.Require(ctx, approverID, req.EmployeeID); err != nil {
		return nil, err
	}

	updated, err := l.guardedUpdate(ctx, req, "approve", RequestUpdate{
		ExpectedStatus: statusPtr(StatusPending),
		Status:         statusPtr(StatusApproved),
		ReviewedBy:     &approverID,
		ReviewedDate:   datePtr(l.today()),
	})
	if err != nil {
		return nil, err
	}

	l.notifyEmployee(ctx, updated, EventApproved, map[string]string{"approver": string(approverID)})
	return updated, nil
}

func (l *Lifecycle) Reject(ctx context.Context, requestID RequestID, approverID EmployeeID, reason string) (*LeaveRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationf("empty_reason", "rejection requires a reason")
	}
	req, err := l.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, transitionErr(req, "reject")
	}
	if _, err := l.Authority.Require(ctx, approverID, req.EmployeeID); err != nil {
		return nil, err
	}

	updated, err := l.guardedUpdate(ctx, req, "reject", RequestUpdate{
		ExpectedStatus:  statusPtr(StatusPending),
		Status:          statusPtr(StatusRejected),
		ReviewedBy:      &approverID,
		ReviewedDate:    datePtr(l.today()),
		RejectionReason: &reason,
	})
	if err != nil {
		return nil, err
	}

	l.notifyEmployee(ctx, updated, EventRejected, map[string]string{"reason": reason})
	return updated, nil
}

// =============================================================================
// EARLY CHECK-IN
// =============================================================================

// RequestEarlyCheckin opens an early-return modification on an approved
// request: the employee came back before the leave ran out.
func (l *Lifecycle) RequestEarlyCheckin(ctx context.Context, requestID RequestID, actualEnd cycle.Date, reason string) (*LeaveRequest, error) {
	req, err := l.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusApproved {
		return nil, transitionErr(req, "request early check-in on")
	}
	if !req.Modification.Resolved() {
		return nil, modTransitionErr(req, "request early check-in on")
	}
	if actualEnd.IsZero() || !actualEnd.Before(req.EndDate) {
		return nil, validationf("not_earlier", "actual end %s must be strictly before current end %s", actualEnd, req.EndDate)
	}
	if actualEnd.Before(req.StartDate) {
		return nil, validationf("before_start", "actual end %s precedes leave start %s", actualEnd, req.StartDate)
	}
	if err := requireReasonWords(reason); err != nil {
		return nil, err
	}

	update := RequestUpdate{
		ExpectedStatus:             statusPtr(StatusApproved),
		ExpectedModificationStatus: modStatusPtr(req.Modification.Status),
		ModificationType:           modTypePtr(ModificationEarlyCheckin),
		ModificationStatus:         modStatusPtr(ModStatusPending),
		ModificationReason:         &reason,
		ActualEndDate:              datePtr(actualEnd),
	}
	if req.Modification.OriginalEndDate.IsZero() {
		update.OriginalEndDate = datePtr(req.EndDate)
	}

	updated, err := l.guardedUpdate(ctx, req, "request early check-in on", update)
	if err != nil {
		return nil, err
	}

	emp, err := l.Employees.GetEmployee(ctx, req.EmployeeID)
	if err == nil {
		l.notifyApprover(ctx, emp, updated, EventEarlyCheckin, map[string]string{
			"phase":      "requested",
			"actual_end": actualEnd.String(),
		})
	}
	return updated, nil
}

// AcknowledgeEarlyCheckin closes the early-return modification: the end
// date shrinks to the actual return day, the days actually taken are
// recounted, and the unused days flow back into the annual balance on
// the next derivation.
func (l *Lifecycle) AcknowledgeEarlyCheckin(ctx context.Context, requestID RequestID, approverID EmployeeID) (*LeaveRequest, error) {
	req, err := l.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusApproved ||
		req.Modification.Type != ModificationEarlyCheckin ||
		req.Modification.Status != ModStatusPending {
		return nil, modTransitionErr(req, "acknowledge early check-in on")
	}
	if _, err := l.Authority.Require(ctx, approverID, req.EmployeeID); err != nil {
		return nil, err
	}

	actualEnd := req.Modification.ActualEndDate
	daysTaken := cycle.BusinessDaysBetween(req.StartDate, actualEnd)

	updated, err := l.guardedUpdate(ctx, req, "acknowledge early check-in on", RequestUpdate{
		ExpectedStatus:             statusPtr(StatusApproved),
		ExpectedModificationStatus: modStatusPtr(ModStatusPending),
		EndDate:                    datePtr(actualEnd),
		ModificationStatus:         modStatusPtr(ModStatusApproved),
		DaysTaken:                  &daysTaken,
		ModReviewedBy:              &approverID,
		ModReviewedDate:            datePtr(l.today()),
	})
	if err != nil {
		return nil, err
	}

	l.notifyEmployee(ctx, updated, EventEarlyCheckin, map[string]string{
		"phase":         "acknowledged",
		"days_taken":    itoa(daysTaken),
		"days_refunded": itoa(req.DaysRequested - daysTaken),
	})
	return updated, nil
}

// =============================================================================
// EXTENSION
// =============================================================================

// RequestExtension opens an employee-initiated extension on an approved
// request. The proposed end must add at least one business day.
func (l *Lifecycle) RequestExtension(ctx context.Context, requestID RequestID, newEnd cycle.Date, reason string) (*LeaveRequest, error) {
	req, err := l.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusApproved {
		return nil, transitionErr(req, "request extension on")
	}
	if !req.Modification.Resolved() {
		return nil, modTransitionErr(req, "request extension on")
	}
	extensionDays, err := extensionDelta(req.EndDate, newEnd)
	if err != nil {
		return nil, err
	}
	if err := requireReasonWords(reason); err != nil {
		return nil, err
	}

	update := RequestUpdate{
		ExpectedStatus:             statusPtr(StatusApproved),
		ExpectedModificationStatus: modStatusPtr(req.Modification.Status),
		ModificationType:           modTypePtr(ModificationExtension),
		ModificationStatus:         modStatusPtr(ModStatusPending),
		ModificationReason:         &reason,
		ActualEndDate:              datePtr(newEnd),
		ExtensionDays:              &extensionDays,
	}
	if req.Modification.OriginalEndDate.IsZero() {
		update.OriginalEndDate = datePtr(req.EndDate)
	}

	updated, err := l.guardedUpdate(ctx, req, "request extension on", update)
	if err != nil {
		return nil, err
	}

	emp, err := l.Employees.GetEmployee(ctx, req.EmployeeID)
	if err == nil {
		l.notifyApprover(ctx, emp, updated, EventExtensionRequest, map[string]string{
			"new_end":        newEnd.String(),
			"extension_days": itoa(extensionDays),
		})
	}
	return updated, nil
}

// ApproveExtension grants a pending employee-initiated extension and
// applies the 2x daysOwed penalty for the current cycle.
func (l *Lifecycle) ApproveExtension(ctx context.Context, requestID RequestID, approverID EmployeeID, newEnd cycle.Date) (*LeaveRequest, error) {
	req, err := l.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusApproved ||
		req.Modification.Type != ModificationExtension ||
		req.Modification.Status != ModStatusPending {
		return nil, modTransitionErr(req, "approve extension on")
	}
	if _, err := l.Authority.Require(ctx, approverID, req.EmployeeID); err != nil {
		return nil, err
	}
	if newEnd.IsZero() {
		newEnd = req.Modification.ActualEndDate
	}
	extensionDays, err := extensionDelta(req.EndDate, newEnd)
	if err != nil {
		return nil, err
	}

	updated, err := l.guardedUpdate(ctx, req, "approve extension on", RequestUpdate{
		ExpectedStatus:             statusPtr(StatusApproved),
		ExpectedModificationStatus: modStatusPtr(ModStatusPending),
		EndDate:                    datePtr(newEnd),
		ModificationStatus:         modStatusPtr(ModStatusApproved),
		ExtensionDays:              &extensionDays,
		ModReviewedBy:              &approverID,
		ModReviewedDate:            datePtr(l.today()),
	})
	if err != nil {
		return nil, err
	}

	if err := l.Ledger.ApplyExtensionPenalty(ctx, req.EmployeeID, InitiatorEmployee, extensionDays); err != nil {
		return nil, err
	}

	l.notifyEmployee(ctx, updated, EventExtensionApproved, map[string]string{
		"new_end":        newEnd.String(),
		"extension_days": itoa(extensionDays),
		"days_owed":      itoa(ExtensionPenalty(InitiatorEmployee, extensionDays)),
	})
	return updated, nil
}

// RejectExtension declines a pending extension; the end date stands.
func (l *Lifecycle) RejectExtension(ctx context.Context, requestID RequestID, approverID EmployeeID, reason string) (*LeaveRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationf("empty_reason", "extension rejection requires a reason")
	}
	req, err := l.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusApproved ||
		req.Modification.Type != ModificationExtension ||
		req.Modification.Status != ModStatusPending {
		return nil, modTransitionErr(req, "reject extension on")
	}
	if _, err := l.Authority.Require(ctx, approverID, req.EmployeeID); err != nil {
		return nil, err
	}

	updated, err := l.guardedUpdate(ctx, req, "reject extension on", RequestUpdate{
		ExpectedStatus:             statusPtr(StatusApproved),
		ExpectedModificationStatus: modStatusPtr(ModStatusPending),
		ModificationStatus:         modStatusPtr(ModStatusRejected),
		ModReviewedBy:              &approverID,
		ModReviewedDate:            datePtr(l.today()),
	})
	if err != nil {
		return nil, err
	}

	l.notifyEmployee(ctx, updated, EventExtensionRejected, map[string]string{"reason": reason})
	return updated, nil
}

// ManagerExtend lengthens an approved leave on the manager's initiative.
// There is no pending step and no penalty: only the end date moves. The
// modification record is still written for the audit trail.
func (l *Lifecycle) ManagerExtend(ctx context.Context, requestID RequestID, managerID EmployeeID, newEnd cycle.Date, reason string) (*LeaveRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationf("empty_reason", "manager extension requires a reason")
	}
	req, err := l.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusApproved {
		return nil, transitionErr(req, "manager-extend")
	}
	if !req.Modification.Resolved() {
		return nil, modTransitionErr(req, "manager-extend")
	}
	if _, err := l.Authority.Require(ctx, managerID, req.EmployeeID); err != nil {
		return nil, err
	}
	extensionDays, err := extensionDelta(req.EndDate, newEnd)
	if err != nil {
		return nil, err
	}

	update := RequestUpdate{
		ExpectedStatus:             statusPtr(StatusApproved),
		ExpectedModificationStatus: modStatusPtr(req.Modification.Status),
		EndDate:                    datePtr(newEnd),
		ModificationType:           modTypePtr(ModificationExtension),
		ModificationStatus:         modStatusPtr(ModStatusApproved),
		ModificationReason:         &reason,
		ActualEndDate:              datePtr(newEnd),
		ExtensionDays:              &extensionDays,
		ModReviewedBy:              &managerID,
		ModReviewedDate:            datePtr(l.today()),
	}
	if req.Modification.OriginalEndDate.IsZero() {
		update.OriginalEndDate = datePtr(req.EndDate)
	}

	updated, err := l.guardedUpdate(ctx, req, "manager-extend", update)
	if err != nil {
		return nil, err
	}

	l.notifyEmployee(ctx, updated, EventManagerExtension, map[string]string{
		"new_end":        newEnd.String(),
		"extension_days": itoa(extensionDays),
	})
	return updated, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// guardedUpdate writes through the store's conditional update and folds
// a stale guard into the transition taxonomy.
func (l *Lifecycle) guardedUpdate(ctx context.Context, req *LeaveRequest, attempted string, update RequestUpdate) (*LeaveRequest, error) {
	updated, err := l.Requests.UpdateRequest(ctx, req.ID, update)
	if err == ErrConcurrentUpdate {
		return nil, &StateTransitionError{
			RequestID: req.ID,
			Current:   "changed concurrently",
			Attempted: attempted,
		}
	}
	return updated, err
}

// extensionDelta counts the business days a new end date adds. Equal or
// earlier dates, and weekend-only stretches, add nothing and fail
// validation.
func extensionDelta(currentEnd, newEnd cycle.Date) (int, error) {
	if newEnd.IsZero() || !newEnd.After(currentEnd) {
		return 0, validationf("not_later", "new end %s must be strictly after current end %s", newEnd, currentEnd)
	}
	days := cycle.BusinessDaysBetween(currentEnd.AddDays(1), newEnd)
	if days <= 0 {
		return 0, validationf("no_additional_days", "extension to %s adds no business days", newEnd)
	}
	return days, nil
}

func requireReasonWords(reason string) error {
	if len(strings.Fields(reason)) < 3 {
		return validationf("reason_too_short", "reason must be at least 3 words")
	}
	return nil
}

func transitionErr(req *LeaveRequest, attempted string) error {
	return &StateTransitionError{
		RequestID: req.ID,
		Current:   string(req.Status),
		Attempted: attempted,
	}
}

func modTransitionErr(req *LeaveRequest, attempted string) error {
	return &StateTransitionError{
		RequestID: req.ID,
		Current:   string(req.Status) + "/" + string(req.Modification.Type) + ":" + string(req.Modification.Status),
		Attempted: attempted,
	}
}

func (l *Lifecycle) notifyApprover(ctx context.Context, emp *Employee, req *LeaveRequest, event Event, payload map[string]string) {
	var recipient EmployeeID
	if emp.ManagerID != nil {
		recipient = *emp.ManagerID
	}
	l.Sink.Notify(ctx, Notification{
		Event:       event,
		RequestID:   req.ID,
		EmployeeID:  req.EmployeeID,
		RecipientID: recipient,
		Payload:     payload,
	})
}

func (l *Lifecycle) notifyEmployee(ctx context.Context, req *LeaveRequest, event Event, payload map[string]string) {
	l.Sink.Notify(ctx, Notification{
		Event:       event,
		RequestID:   req.ID,
		EmployeeID:  req.EmployeeID,
		RecipientID: req.EmployeeID,
		Payload:     payload,
	})
}

// Pointer helpers for RequestUpdate literals.
func statusPtr(s RequestStatus) *RequestStatus              { return &s }
func modStatusPtr(s ModificationStatus) *ModificationStatus { return &s }
func modTypePtr(t ModificationType) *ModificationType       { return &t }
func datePtr(d cycle.Date) *cycle.Date                      { return &d }

func itoa(n int) string { return strconv.Itoa(n) }
