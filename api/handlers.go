/*
handlers.go - HTTP handlers for the absence API

PURPOSE:
  Implements the REST endpoints. Plain CRUD talks to the store directly;
  anything with domain semantics (occurrence create/delete, worker and
  absence-type creation, updates touching protected fields, the year
  rollover) goes through the service.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (service or store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, rejected requests
  - 404: Resource not found
  - 500: Internal errors
  The mapping goes through absence.IsClientError / absence.IsNotFound so
  the service never knows about HTTP.

SECURITY NOTE:
  Currently NO authentication. The X-Admin-Token header only gates
  protected worker fields and the rollover endpoint; production needs a
  real authorization layer in front.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the API dependencies.
type Handler struct {
	Store      absence.TxStore
	Service    *absence.Service
	Log        zerolog.Logger
	AdminToken string
}

// NewHandler creates a handler around the given store and service.
func NewHandler(store absence.TxStore, service *absence.Service, logger zerolog.Logger) *Handler {
	return &Handler{Store: store, Service: service, Log: logger}
}

// isAdmin reports whether the request carries the admin token. With no
// token configured every caller is privileged (dev mode).
func (h *Handler) isAdmin(r *http.Request) bool {
	if h.AdminToken == "" {
		return true
	}
	return r.Header.Get("X-Admin-Token") == h.AdminToken
}

// =============================================================================
// WORKERS
// =============================================================================

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]WorkerDTO, 0, len(workers))
	for _, wk := range workers {
		dtos = append(dtos, toWorkerDTO(wk))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Store.GetWorker(r.Context(), absence.WorkerID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if worker == nil {
		writeError(w, http.StatusNotFound, "worker not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*worker))
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	worker, err := h.workerFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid worker", err)
		return
	}

	created, err := h.Service.CreateWorker(r.Context(), worker)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(*created))
}

func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	worker, err := h.workerFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid worker", err)
		return
	}

	updated, err := h.Service.UpdateWorker(r.Context(), worker, h.isAdmin(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*updated))
}

func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteWorker(r.Context(), absence.WorkerID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) workerFromRequest(req WorkerRequest) (absence.Worker, error) {
	worker := absence.Worker{
		ID:          absence.WorkerID(req.ID),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Username:    req.Username,
		Category:    req.Category,
		Gender:      req.Gender,
		WorkingWeek: req.WorkingWeek,
	}
	if req.Holidays != "" {
		holidays, err := decimal.NewFromString(req.Holidays)
		if err != nil {
			return absence.Worker{}, err
		}
		worker.Holidays = holidays
	}
	if req.VacationPolicy != nil {
		id := absence.PolicyID(*req.VacationPolicy)
		worker.VacationPolicyID = &id
	}
	if req.ContractDate != "" {
		contract, err := time.ParseInLocation(dateLayout, req.ContractDate, time.Local)
		if err != nil {
			return absence.Worker{}, err
		}
		worker.ContractDate = contract
	}
	return worker, nil
}

// =============================================================================
// VACATION POLICIES
// =============================================================================

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]VacationPolicyDTO, 0, len(policies))
	for _, p := range policies {
		dtos = append(dtos, toPolicyDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Store.GetPolicy(r.Context(), absence.PolicyID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if policy == nil {
		writeError(w, http.StatusNotFound, "vacation policy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(*policy))
}

func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	h.savePolicy(w, r, "")
}

func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	h.savePolicy(w, r, absence.PolicyID(chi.URLParam(r, "id")))
}

func (h *Handler) savePolicy(w http.ResponseWriter, r *http.Request, id absence.PolicyID) {
	var dto VacationPolicyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	policy := absence.VacationPolicy{
		ID:          id,
		Name:        dto.Name,
		Description: dto.Description,
		Holidays:    dto.Holidays,
	}
	status := http.StatusOK
	if policy.ID == "" {
		policy.ID = absence.PolicyID(dto.ID)
		status = http.StatusCreated
	}
	if policy.ID == "" {
		policy.ID = absence.PolicyID(uuid.NewString())
	}

	if err := h.Store.SavePolicy(r.Context(), policy); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, status, toPolicyDTO(policy))
}

func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePolicy(r.Context(), absence.PolicyID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ABSENCE TYPES
// =============================================================================

func (h *Handler) ListAbsenceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListAbsenceTypes(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]AbsenceTypeDTO, 0, len(types))
	for _, t := range types {
		dtos = append(dtos, toAbsenceTypeDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetAbsenceType(w http.ResponseWriter, r *http.Request) {
	typ, err := h.Store.GetAbsenceType(r.Context(), absence.AbsenceTypeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if typ == nil {
		writeError(w, http.StatusNotFound, "absence type not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceTypeDTO(*typ))
}

func (h *Handler) CreateAbsenceType(w http.ResponseWriter, r *http.Request) {
	typ, ok := h.decodeAbsenceType(w, r, "")
	if !ok {
		return
	}
	created, err := h.Service.CreateAbsenceType(r.Context(), typ)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAbsenceTypeDTO(*created))
}

// UpdateAbsenceType edits the type record in place. No fan-out: the
// accounts already exist.
func (h *Handler) UpdateAbsenceType(w http.ResponseWriter, r *http.Request) {
	typ, ok := h.decodeAbsenceType(w, r, absence.AbsenceTypeID(chi.URLParam(r, "id")))
	if !ok {
		return
	}
	if err := typ.Validate(); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Store.SaveAbsenceType(r.Context(), typ); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceTypeDTO(typ))
}

func (h *Handler) decodeAbsenceType(w http.ResponseWriter, r *http.Request, id absence.AbsenceTypeID) (absence.AbsenceType, bool) {
	var dto AbsenceTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return absence.AbsenceType{}, false
	}
	minDur, err := decimal.NewFromString(dto.MinDuration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid min_duration", err)
		return absence.AbsenceType{}, false
	}
	maxDur, err := decimal.NewFromString(dto.MaxDuration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid max_duration", err)
		return absence.AbsenceType{}, false
	}
	typ := absence.AbsenceType{
		ID:          id,
		Name:        dto.Name,
		Description: dto.Description,
		SpendDays:   dto.SpendDays,
		MinDuration: minDur,
		MaxDuration: maxDur,
		GlobalDate:  dto.GlobalDate,
		Color:       dto.Color,
	}
	if typ.ID == "" {
		typ.ID = absence.AbsenceTypeID(dto.ID)
	}
	return typ, true
}

func (h *Handler) DeleteAbsenceType(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteAbsenceType(r.Context(), absence.AbsenceTypeID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ABSENCES (occurrences)
// =============================================================================

// ListAbsences returns active occurrences, optionally filtered to one
// worker via ?worker=.
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var workers []absence.WorkerID
	if id := r.URL.Query().Get("worker"); id != "" {
		workers = []absence.WorkerID{absence.WorkerID(id)}
	} else {
		all, err := h.Store.ListWorkers(ctx)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		for _, wk := range all {
			workers = append(workers, wk.ID)
		}
	}

	dtos := make([]OccurrenceDTO, 0)
	for _, workerID := range workers {
		occurrences, err := h.Store.ListActiveOccurrences(ctx, workerID)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		for _, o := range occurrences {
			dtos = append(dtos, toOccurrenceDTO(o))
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req CreateAbsenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Workers) == 0 {
		writeError(w, http.StatusBadRequest, "worker list is empty", nil)
		return
	}

	start, err := time.ParseInLocation(dateLayout, req.StartTime, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time", err)
		return
	}
	end, err := time.ParseInLocation(dateLayout, req.EndTime, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time", err)
		return
	}

	workerIDs := make([]absence.WorkerID, len(req.Workers))
	for i, id := range req.Workers {
		workerIDs[i] = absence.WorkerID(id)
	}

	created, err := h.Service.CreateOccurrences(r.Context(), absence.OccurrenceRequest{
		AbsenceTypeID:  absence.AbsenceTypeID(req.AbsenceType),
		WorkerIDs:      workerIDs,
		Start:          start,
		End:            end,
		StartMorning:   req.StartMorning,
		StartAfternoon: req.StartAfternoon,
		EndMorning:     req.EndMorning,
		EndAfternoon:   req.EndAfternoon,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]OccurrenceDTO, 0, len(created))
	for _, o := range created {
		dtos = append(dtos, toOccurrenceDTO(o))
	}
	writeJSON(w, http.StatusCreated, dtos)
}

func (h *Handler) GetAbsence(w http.ResponseWriter, r *http.Request) {
	occ, err := h.Store.GetOccurrence(r.Context(), absence.OccurrenceID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if occ == nil || !occ.Active() {
		writeError(w, http.StatusNotFound, "occurrence not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toOccurrenceDTO(*occ))
}

func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteOccurrence(r.Context(), absence.OccurrenceID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TEAMS AND MEMBERS
// =============================================================================

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Store.ListTeams(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]TeamDTO, 0, len(teams))
	for _, t := range teams {
		dtos = append(dtos, TeamDTO{ID: string(t.ID), Name: t.Name})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.Store.GetTeam(r.Context(), absence.TeamID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if team == nil {
		writeError(w, http.StatusNotFound, "team not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, TeamDTO{ID: string(team.ID), Name: team.Name})
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	h.saveTeam(w, r, "")
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	h.saveTeam(w, r, absence.TeamID(chi.URLParam(r, "id")))
}

func (h *Handler) saveTeam(w http.ResponseWriter, r *http.Request, id absence.TeamID) {
	var dto TeamDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	team := absence.Team{ID: id, Name: dto.Name}
	status := http.StatusOK
	if team.ID == "" {
		team.ID = absence.TeamID(dto.ID)
		status = http.StatusCreated
	}
	if team.ID == "" {
		team.ID = absence.TeamID(uuid.NewString())
	}
	if err := h.Store.SaveTeam(r.Context(), team); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, status, TeamDTO{ID: string(team.ID), Name: team.Name})
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteTeam(r.Context(), absence.TeamID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.ListMembers(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		dtos = append(dtos, toMemberDTO(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.Store.GetMember(r.Context(), absence.MemberID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(*member))
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var dto MemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	member := absence.Member{
		ID:             absence.MemberID(dto.ID),
		WorkerID:       absence.WorkerID(dto.Worker),
		TeamID:         absence.TeamID(dto.Team),
		IsReferent:     dto.IsReferent,
		IsRepresentant: dto.IsRepresentant,
	}
	if member.ID == "" {
		member.ID = absence.MemberID(uuid.NewString())
	}
	if err := h.Store.SaveMember(r.Context(), member); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(member))
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteMember(r.Context(), absence.MemberID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADMIN
// =============================================================================

func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	if !h.isAdmin(r) {
		writeError(w, http.StatusForbidden, "admin token required", nil)
		return
	}
	updated, err := h.Service.RunYearRollover(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RolloverResponse{WorkersUpdated: updated})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case absence.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case absence.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		h.Log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
