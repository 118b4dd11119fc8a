/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the API contract, decoupled from the domain types.
  Request bodies carry validator tags and are checked before any domain
  call; response DTOs flatten the domain records for clients.

EXTENSION REVIEW:
  The extension review endpoint takes an explicit {action, request_id}
  selector instead of encoding the action into the id. Action is
  "approve" or "reject", nothing else.

SEE ALSO:
  - handlers.go: decoding, validation, error mapping
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/cycle"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// REQUEST BODIES
// =============================================================================

type SubmitLeaveRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	LeaveType  string `json:"leave_type" validate:"required,oneof=annual sick compassionate"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason"`
}

type ReviewRequest struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Reason     string `json:"reason"` // required for reject, checked by the engine
}

type EarlyCheckinRequest struct {
	ActualEndDate string `json:"actual_end_date" validate:"required,datetime=2006-01-02"`
	Reason        string `json:"reason" validate:"required"`
}

type ExtensionRequest struct {
	NewEndDate string `json:"new_end_date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"required"`
}

// ExtensionReviewRequest selects approve or reject explicitly.
type ExtensionReviewRequest struct {
	Action     string `json:"action" validate:"required,oneof=approve reject"`
	ApproverID string `json:"approver_id" validate:"required"`
	NewEndDate string `json:"new_end_date" validate:"omitempty,datetime=2006-01-02"`
	Reason     string `json:"reason"`
}

type ManagerExtendRequest struct {
	ManagerID  string `json:"manager_id" validate:"required"`
	NewEndDate string `json:"new_end_date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"required"`
}

type CreateDelegationRequest struct {
	FromManagerID string `json:"from_manager_id" validate:"required"`
	ToManagerID   string `json:"to_manager_id" validate:"required"`
	StartDate     string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason        string `json:"reason"`
}

type CancelDelegationRequest struct {
	ManagerID string `json:"manager_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ModificationDTO struct {
	Type            string `json:"type"`
	Status          string `json:"status"`
	OriginalEndDate string `json:"original_end_date,omitempty"`
	ActualEndDate   string `json:"actual_end_date,omitempty"`
	DaysTaken       int    `json:"days_taken,omitempty"`
	ExtensionDays   int    `json:"extension_days,omitempty"`
	Reason          string `json:"reason,omitempty"`
	ReviewedBy      string `json:"reviewed_by,omitempty"`
	ReviewedDate    string `json:"reviewed_date,omitempty"`
}

type LeaveRequestDTO struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	LeaveType       string          `json:"leave_type"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	DaysRequested   int             `json:"days_requested"`
	Reason          string          `json:"reason,omitempty"`
	Status          string          `json:"status"`
	Modification    ModificationDTO `json:"modification"`
	ReviewedBy      string          `json:"reviewed_by,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toRequestDTO(r *leave.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:            string(r.ID),
		EmployeeID:    string(r.EmployeeID),
		LeaveType:     string(r.LeaveType),
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		DaysRequested: r.DaysRequested,
		Reason:        r.Reason,
		Status:        string(r.Status),
		Modification: ModificationDTO{
			Type:            string(r.Modification.Type),
			Status:          string(r.Modification.Status),
			OriginalEndDate: dateString(r.Modification.OriginalEndDate),
			ActualEndDate:   dateString(r.Modification.ActualEndDate),
			DaysTaken:       r.Modification.DaysTaken,
			ExtensionDays:   r.Modification.ExtensionDays,
			Reason:          r.Modification.Reason,
			ReviewedBy:      string(r.Modification.ReviewedBy),
			ReviewedDate:    dateString(r.Modification.ReviewedDate),
		},
		ReviewedBy:      string(r.ReviewedBy),
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
	}
}

type ScheduleEntryDTO struct {
	Date      string `json:"date"`
	Type      string `json:"type"`
	LeaveType string `json:"leave_type,omitempty"`
}

func toScheduleDTO(entries []cycle.ScheduleEntry) []ScheduleEntryDTO {
	out := make([]ScheduleEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = ScheduleEntryDTO{
			Date:      e.Date.String(),
			Type:      string(e.Kind),
			LeaveType: string(e.LeaveType),
		}
	}
	return out
}

type CycleStatusDTO struct {
	CycleNumber                int    `json:"cycle_number"`
	Phase                      string `json:"phase"`
	DaysOwed                   int    `json:"days_owed"`
	WorkDaysCompleted          int    `json:"work_days_completed"`
	WorkDaysRemaining          int    `json:"work_days_remaining"`
	OffDaysTaken               int    `json:"off_days_taken"`
	OffDaysRemaining           int    `json:"off_days_remaining"`
	IsOnLeave                  bool   `json:"is_on_leave"`
	CurrentLeaveType           string `json:"current_leave_type,omitempty"`
	SickDaysTaken              int    `json:"sick_days_taken"`
	SickDaysRemaining          int    `json:"sick_days_remaining"`
	CompassionateDaysTaken     int    `json:"compassionate_days_taken"`
	CompassionateDaysRemaining int    `json:"compassionate_days_remaining"`
	NextOffStartsIn            int    `json:"next_off_starts_in"`
}

func toCycleStatusDTO(st cycle.CycleStatus) CycleStatusDTO {
	return CycleStatusDTO{
		CycleNumber:                st.CycleNumber,
		Phase:                      string(st.Phase),
		DaysOwed:                   st.DaysOwed,
		WorkDaysCompleted:          st.WorkDaysCompleted,
		WorkDaysRemaining:          st.WorkDaysRemaining,
		OffDaysTaken:               st.OffDaysTaken,
		OffDaysRemaining:           st.OffDaysRemaining,
		IsOnLeave:                  st.IsOnLeave,
		CurrentLeaveType:           string(st.CurrentLeaveType),
		SickDaysTaken:              st.SickDaysTaken,
		SickDaysRemaining:          st.SickDaysRemaining,
		CompassionateDaysTaken:     st.CompassionateDaysTaken,
		CompassionateDaysRemaining: st.CompassionateDaysRemaining,
		NextOffStartsIn:            st.NextOffStartsIn,
	}
}

type BalancesDTO struct {
	EmployeeID    string `json:"employee_id"`
	AsOf          string `json:"as_of"`
	Annual        string `json:"annual"`
	Sick          string `json:"sick"`
	Compassionate string `json:"compassionate"`
}

type DelegationDTO struct {
	ID            string `json:"id"`
	FromManagerID string `json:"from_manager_id"`
	ToManagerID   string `json:"to_manager_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Reason        string `json:"reason,omitempty"`
	Status        string `json:"status"`
}

func toDelegationDTO(d *leave.Delegation) DelegationDTO {
	return DelegationDTO{
		ID:            string(d.ID),
		FromManagerID: string(d.FromManagerID),
		ToManagerID:   string(d.ToManagerID),
		StartDate:     d.StartDate.String(),
		EndDate:       d.EndDate.String(),
		Reason:        d.Reason,
		Status:        string(d.Status),
	}
}

type ErrorDTO struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func dateString(d cycle.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
