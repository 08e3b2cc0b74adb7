package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/middleware"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// MaintenanceHandler handles maintenance record requests.
type MaintenanceHandler struct {
	records  db.MaintenanceCollection
	vehicles db.VehicleCollection
}

// NewMaintenanceHandler creates a new maintenance record handler.
func NewMaintenanceHandler(records db.MaintenanceCollection, vehicles db.VehicleCollection) *MaintenanceHandler {
	return &MaintenanceHandler{records: records, vehicles: vehicles}
}

type recordRequest struct {
	VehicleID   string    `json:"vehicle_id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	PerformedAt time.Time `json:"performed_at"`
	Odometer    float64   `json:"odometer"`
	Cost        float64   `json:"cost"`
	Shop        string    `json:"shop"`
	Notes       string    `json:"notes"`
}

// Records dispatches collection-level maintenance record requests. Listing
// requires a vehicle_id query parameter.
func (h *MaintenanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listRecords(w, r)
	case http.MethodPost:
		h.createRecord(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// RecordByID dispatches item-level record requests (/api/records/{id}).
func (h *MaintenanceHandler) RecordByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Record ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updateRecord(w, r, id)
	case http.MethodDelete:
		h.deleteRecord(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MaintenanceHandler) listRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID == "" {
		http.Error(w, "vehicle_id query parameter is required", http.StatusBadRequest)
		return
	}

	records, err := h.records.FindRecordsByVehicle(r.Context(), claims.UserID, vehicleID)
	if err != nil {
		log.WithError(err).Error("Failed to list maintenance records")
		http.Error(w, "Failed to list records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.MaintenanceRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *MaintenanceHandler) createRecord(w http.ResponseWriter, r *http.Request) {
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

	var req recordRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.VehicleID == "" || req.Category == "" {
		http.Error(w, "vehicle_id and category are required", http.StatusBadRequest)
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), req.VehicleID)
	if err != nil || vehicle.UserID != claims.UserID {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}

	performedAt := req.PerformedAt
	if performedAt.IsZero() {
		performedAt = time.Now()
	}

	record := models.MaintenanceRecord{
		UserID:      claims.UserID,
		VehicleID:   req.VehicleID,
		Category:    req.Category,
		Description: req.Description,
		PerformedAt: performedAt,
		Odometer:    req.Odometer,
		Cost:        req.Cost,
		Shop:        req.Shop,
		Notes:       req.Notes,
	}

	id, err := h.records.InsertRecord(r.Context(), record)
	if err != nil {
		log.WithError(err).Error("Failed to create maintenance record")
		http.Error(w, "Failed to create record", http.StatusInternalServerError)
		return
	}

	// A shop visit or DIY job usually comes with a fresh odometer value.
	if req.Odometer > 0 {
		reading := models.OdometerReading{
			VehicleID:  req.VehicleID,
			Odometer:   req.Odometer,
			RecordedAt: performedAt,
		}
		if err := h.vehicles.UpdateOdometer(r.Context(), req.VehicleID, reading); err != nil {
			log.WithError(err).WithField("vehicle_id", req.VehicleID).
				Warn("Failed to update odometer from maintenance record")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// ownedRecord fetches a record and checks the caller owns it.
func (h *MaintenanceHandler) ownedRecord(r *http.Request, userID, id string) (*models.MaintenanceRecord, error) {
	record, err := h.records.FindRecordByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, db.ErrNotFound
	}
	return record, nil
}

func (h *MaintenanceHandler) updateRecord(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	record, err := h.ownedRecord(r, claims.UserID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch record", http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req recordRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Category != "" {
		record.Category = req.Category
	}
	if req.Description != "" {
		record.Description = req.Description
	}
	if !req.PerformedAt.IsZero() {
		record.PerformedAt = req.PerformedAt
	}
	if req.Odometer != 0 {
		record.Odometer = req.Odometer
	}
	if req.Cost != 0 {
		record.Cost = req.Cost
	}
	record.Shop = req.Shop
	record.Notes = req.Notes

	if err := h.records.UpdateRecord(r.Context(), id, *record); err != nil {
		log.WithError(err).Error("Failed to update maintenance record")
		http.Error(w, "Failed to update record", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Record updated successfully"})
}

func (h *MaintenanceHandler) deleteRecord(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	if _, err := h.ownedRecord(r, claims.UserID, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch record", http.StatusInternalServerError)
		return
	}

	if err := h.records.DeleteRecord(r.Context(), id); err != nil {
		log.WithError(err).Error("Failed to delete maintenance record")
		http.Error(w, "Failed to delete record", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Record deleted successfully"})
}
