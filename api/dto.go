/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  Request bodies carry calendar dates as "2006-01-02"; the half-day
  boundary flags turn them into timestamps server-side. Responses carry
  full RFC3339 timestamps.

VALIDATION:
  Validation is done in handlers and the service, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/absence-engine/absence"
)

const dateLayout = "2006-01-02"

// =============================================================================
// WORKERS
// =============================================================================

// WorkerDTO represents a worker in API responses.
type WorkerDTO struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Username       string  `json:"username"`
	Category       string  `json:"category"`
	Gender         string  `json:"gender"`
	Holidays       string  `json:"holidays"`
	VacationPolicy *string `json:"vacation_policy"`
	ContractDate   string  `json:"contract_date"`
	WorkingWeek    int     `json:"working_week"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// WorkerRequest is the request body for creating or updating a worker.
type WorkerRequest struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Username       string  `json:"username"`
	Category       string  `json:"category"`
	Gender         string  `json:"gender"`
	Holidays       string  `json:"holidays"`
	VacationPolicy *string `json:"vacation_policy"`
	ContractDate   string  `json:"contract_date"`
	WorkingWeek    int     `json:"working_week"`
}

func toWorkerDTO(w absence.Worker) WorkerDTO {
	dto := WorkerDTO{
		ID:           string(w.ID),
		FirstName:    w.FirstName,
		LastName:     w.LastName,
		Email:        w.Email,
		Username:     w.Username,
		Category:     w.Category,
		Gender:       w.Gender,
		Holidays:     w.Holidays.String(),
		ContractDate: w.ContractDate.Format(dateLayout),
		WorkingWeek:  w.WorkingWeek,
	}
	if !w.CreatedAt.IsZero() {
		dto.CreatedAt = w.CreatedAt.Format(time.RFC3339)
	}
	if w.VacationPolicyID != nil {
		id := string(*w.VacationPolicyID)
		dto.VacationPolicy = &id
	}
	return dto
}

// =============================================================================
// VACATION POLICIES
// =============================================================================

// VacationPolicyDTO represents a vacation policy.
type VacationPolicyDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Holidays    int    `json:"holidays"`
}

func toPolicyDTO(p absence.VacationPolicy) VacationPolicyDTO {
	return VacationPolicyDTO{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Holidays:    p.Holidays,
	}
}

// =============================================================================
// ABSENCE TYPES
// =============================================================================

// AbsenceTypeDTO represents an absence type.
type AbsenceTypeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SpendDays   int    `json:"spend_days"`
	MinDuration string `json:"min_duration"`
	MaxDuration string `json:"max_duration"`
	GlobalDate  bool   `json:"global_date"`
	Color       string `json:"color"`
}

func toAbsenceTypeDTO(t absence.AbsenceType) AbsenceTypeDTO {
	return AbsenceTypeDTO{
		ID:          string(t.ID),
		Name:        t.Name,
		Description: t.Description,
		SpendDays:   t.SpendDays,
		MinDuration: t.MinDuration.String(),
		MaxDuration: t.MaxDuration.String(),
		GlobalDate:  t.GlobalDate,
		Color:       t.Color,
	}
}

// =============================================================================
// OCCURRENCES
// =============================================================================

// OccurrenceDTO represents one time-off interval in API responses.
type OccurrenceDTO struct {
	ID        string `json:"id"`
	Absence   string `json:"absence"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toOccurrenceDTO(o absence.Occurrence) OccurrenceDTO {
	dto := OccurrenceDTO{
		ID:        string(o.ID),
		Absence:   string(o.AbsenceID),
		StartTime: o.StartTime.Format(time.RFC3339),
		EndTime:   o.EndTime.Format(time.RFC3339),
	}
	if !o.CreatedAt.IsZero() {
		dto.CreatedAt = o.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// CreateAbsenceRequest is the request to create occurrences for one or
// more workers. start_time and end_time are calendar dates; the four
// boolean flags select the half-day boundaries.
type CreateAbsenceRequest struct {
	AbsenceType    string   `json:"absence_type"`
	Workers        []string `json:"worker"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	StartMorning   bool     `json:"start_morning"`
	StartAfternoon bool     `json:"start_afternoon"`
	EndMorning     bool     `json:"end_morning"`
	EndAfternoon   bool     `json:"end_afternoon"`
}

// =============================================================================
// TEAMS AND MEMBERS
// =============================================================================

// TeamDTO represents a team.
type TeamDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MemberDTO represents a worker's membership in a team.
type MemberDTO struct {
	ID             string `json:"id"`
	Worker         string `json:"worker"`
	Team           string `json:"team"`
	IsReferent     bool   `json:"is_referent"`
	IsRepresentant bool   `json:"is_representant"`
}

func toMemberDTO(m absence.Member) MemberDTO {
	return MemberDTO{
		ID:             string(m.ID),
		Worker:         string(m.WorkerID),
		Team:           string(m.TeamID),
		IsReferent:     m.IsReferent,
		IsRepresentant: m.IsRepresentant,
	}
}

// =============================================================================
// MISC
// =============================================================================

// RolloverResponse reports the outcome of a year rollover run.
type RolloverResponse struct {
	WorkersUpdated int `json:"workers_updated"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
