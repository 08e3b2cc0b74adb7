package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-maintenance/internal/conflict"
	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/middleware"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// ProgramHandler handles maintenance program requests, including the conflict
// check and resolution flow that precedes program creation.
type ProgramHandler struct {
	programs db.ProgramCollection
	vehicles db.VehicleCollection
}

// NewProgramHandler creates a new program handler.
func NewProgramHandler(programs db.ProgramCollection, vehicles db.VehicleCollection) *ProgramHandler {
	return &ProgramHandler{
		programs: programs,
		vehicles: vehicles,
	}
}

// scopedStore builds the per-user program view the conflict engine works
// against.
func (h *ProgramHandler) scopedStore(userID string) *db.ScopedProgramStore {
	return &db.ScopedProgramStore{Programs: h.programs, UserID: userID}
}

type createProgramRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	VehicleIDs  []string             `json:"vehicle_ids"`
	Tasks       []models.ProgramTask `json:"tasks"`
}

// Programs dispatches collection-level program requests.
func (h *ProgramHandler) Programs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPrograms(w, r)
	case http.MethodPost:
		h.createProgram(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ProgramByID dispatches item-level program requests (/api/programs/{id}).
func (h *ProgramHandler) ProgramByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/programs/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Program ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getProgram(w, r, id)
	case http.MethodPut:
		h.updateProgram(w, r, id)
	case http.MethodDelete:
		h.deleteProgram(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ProgramHandler) listPrograms(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	programs, err := h.programs.FindProgramsByUser(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to list programs")
		http.Error(w, "Failed to list programs", http.StatusInternalServerError)
		return
	}
	if programs == nil {
		programs = []models.MaintenanceProgram{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(programs)
}

// createProgram creates a program once the requested vehicles are
// conflict-free. Detection is re-run here rather than trusting an earlier
// check response, since programs may have changed in between.
func (h *ProgramHandler) createProgram(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req createProgramRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, "Program name is required", http.StatusBadRequest)
		return
	}
	if len(req.VehicleIDs) == 0 {
		http.Error(w, "At least one vehicle is required", http.StatusBadRequest)
		return
	}
	for i := range req.Tasks {
		if !models.IsValidIntervalType(req.Tasks[i].IntervalType) {
			http.Error(w, "Invalid task interval type", http.StatusBadRequest)
			return
		}
		if req.Tasks[i].ID == "" {
			req.Tasks[i].ID = uuid.NewString()
		}
	}

	// Candidate vehicles must exist and belong to the caller.
	for _, vehicleID := range req.VehicleIDs {
		vehicle, err := h.vehicles.FindVehicleByID(r.Context(), vehicleID)
		if err != nil || vehicle.UserID != claims.UserID {
			http.Error(w, "Unknown vehicle "+vehicleID, http.StatusBadRequest)
			return
		}
	}

	analyzer := conflict.NewAnalyzer(h.scopedStore(claims.UserID))
	report, err := analyzer.DetectConflicts(r.Context(), req.VehicleIDs)
	if err != nil {
		log.WithError(err).Error("Conflict detection failed")
		http.Error(w, "Conflict detection failed", http.StatusInternalServerError)
		return
	}
	if report.HasConflicts {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(h.conflictResponse(r, report))
		return
	}

	program := models.MaintenanceProgram{
		UserID:             claims.UserID,
		Name:               req.Name,
		Description:        req.Description,
		AssignedVehicleIDs: req.VehicleIDs,
		IsActive:           true,
		Tasks:              req.Tasks,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	id, err := h.programs.InsertProgram(r.Context(), program)
	if err != nil {
		log.WithError(err).Error("Failed to create program")
		http.Error(w, "Failed to create program", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (h *ProgramHandler) getProgram(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	program, err := h.scopedStore(claims.UserID).ProgramByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Program not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch program", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(program)
}

func (h *ProgramHandler) updateProgram(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	existing, err := h.scopedStore(claims.UserID).ProgramByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Program not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch program", http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req createProgramRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Program name is required", http.StatusBadRequest)
		return
	}
	if len(req.VehicleIDs) == 0 {
		http.Error(w, "At least one vehicle is required", http.StatusBadRequest)
		return
	}
	for i := range req.Tasks {
		if !models.IsValidIntervalType(req.Tasks[i].IntervalType) {
			http.Error(w, "Invalid task interval type", http.StatusBadRequest)
			return
		}
		if req.Tasks[i].ID == "" {
			req.Tasks[i].ID = uuid.NewString()
		}
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.AssignedVehicleIDs = req.VehicleIDs
	existing.Tasks = req.Tasks

	if err := h.programs.UpdateProgram(r.Context(), id, *existing); err != nil {
		log.WithError(err).Error("Failed to update program")
		http.Error(w, "Failed to update program", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Program updated successfully"})
}

func (h *ProgramHandler) deleteProgram(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	if err := h.scopedStore(claims.UserID).DeleteProgram(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Program not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to delete program")
		http.Error(w, "Failed to delete program", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Program deleted successfully"})
}

type checkConflictsRequest struct {
	VehicleIDs []string `json:"vehicle_ids"`
}

type conflictEntry struct {
	models.VehicleConflict
	Description string   `json:"description,omitempty"`
	Options     []string `json:"options"`
}

type conflictReportResponse struct {
	HasConflicts bool            `json:"has_conflicts"`
	CanProceed   bool            `json:"can_proceed"`
	Conflicts    []conflictEntry `json:"conflicts"`
}

// CheckConflicts reports which of the requested vehicles are already claimed
// by an active program, with the user-facing description and resolution
// options for each.
func (h *ProgramHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req checkConflictsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.VehicleIDs) == 0 {
		http.Error(w, "vehicle_ids is required", http.StatusBadRequest)
		return
	}

	analyzer := conflict.NewAnalyzer(h.scopedStore(claims.UserID))
	report, err := analyzer.DetectConflicts(r.Context(), req.VehicleIDs)
	if err != nil {
		log.WithError(err).Error("Conflict detection failed")
		http.Error(w, "Conflict detection failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.conflictResponse(r, report))
}

// ResolveConflicts applies a chosen resolution action. Resolution is not
// atomic across programs; after a failure the client re-runs the conflict
// check to learn the resulting state.
func (h *ProgramHandler) ResolveConflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	action, err := conflict.ParseAction(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resolver := conflict.NewResolver(h.scopedStore(claims.UserID))
	if err := resolver.Resolve(r.Context(), action); err != nil {
		switch {
		case errors.Is(err, conflict.ErrInvariantViolation):
			// State moved under the user; they need a fresh conflict check.
			http.Error(w, "Program changed since conflict detection, re-check conflicts", http.StatusConflict)
		case errors.Is(err, db.ErrNotFound):
			http.Error(w, "Program not found", http.StatusNotFound)
		default:
			log.WithError(err).Error("Conflict resolution failed")
			http.Error(w, "Conflict resolution failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Conflicts resolved"})
}

// conflictResponse decorates a report with per-conflict descriptions and
// resolution options. Vehicle labels fall back to the raw id when the lookup
// fails.
func (h *ProgramHandler) conflictResponse(r *http.Request, report *models.ConflictReport) conflictReportResponse {
	resp := conflictReportResponse{
		HasConflicts: report.HasConflicts,
		CanProceed:   report.CanProceed,
		Conflicts:    make([]conflictEntry, 0, len(report.Conflicts)),
	}

	for _, c := range report.Conflicts {
		label := c.VehicleID
		if vehicle, err := h.vehicles.FindVehicleByID(r.Context(), c.VehicleID); err == nil {
			label = vehicle.Label()
		}
		resp.Conflicts = append(resp.Conflicts, conflictEntry{
			VehicleConflict: c,
			Description:     conflict.DescribeConflict(c, label),
			Options:         conflict.ResolutionOptions(c),
		})
	}
	return resp
}
