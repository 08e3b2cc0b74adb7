package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeMaintenanceColl is an in-memory db.MaintenanceCollection.
type fakeMaintenanceColl struct {
	records map[string]*models.MaintenanceRecord
}

func newFakeMaintenanceColl() *fakeMaintenanceColl {
	return &fakeMaintenanceColl{records: make(map[string]*models.MaintenanceRecord)}
}

func (f *fakeMaintenanceColl) put(userID, vehicleID, category string) string {
	id := primitive.NewObjectID()
	f.records[id.Hex()] = &models.MaintenanceRecord{
		ID:          id,
		UserID:      userID,
		VehicleID:   vehicleID,
		Category:    category,
		PerformedAt: time.Now(),
	}
	return id.Hex()
}

func (f *fakeMaintenanceColl) InsertRecord(ctx context.Context, record models.MaintenanceRecord) (string, error) {
	id := primitive.NewObjectID()
	record.ID = id
	f.records[id.Hex()] = &record
	return id.Hex(), nil
}

func (f *fakeMaintenanceColl) FindRecordsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.MaintenanceRecord, error) {
	var out []models.MaintenanceRecord
	for _, rec := range f.records {
		if rec.UserID == userID && rec.VehicleID == vehicleID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeMaintenanceColl) FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeMaintenanceColl) UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error {
	if _, ok := f.records[id]; !ok {
		return db.ErrNotFound
	}
	record.ID = f.records[id].ID
	f.records[id] = &record
	return nil
}

func (f *fakeMaintenanceColl) DeleteRecord(ctx context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func TestCreateRecord(t *testing.T) {
	records := newFakeMaintenanceColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u1", "")
	handler := NewMaintenanceHandler(records, vehicles)

	body := `{"vehicle_id":"` + vehicleID + `","category":"oil_change","odometer":50000,"cost":89.99}`
	req := authedRequest("POST", "/api/records", body, "u1")
	w := httptest.NewRecorder()
	handler.Records(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	listed, _ := records.FindRecordsByVehicle(context.Background(), "u1", vehicleID)
	require.Len(t, listed, 1)
	assert.Equal(t, "oil_change", listed[0].Category)
	assert.False(t, listed[0].PerformedAt.IsZero()) // defaulted server-side

	// Odometer carried onto the vehicle.
	v, _ := vehicles.FindVehicleByID(context.Background(), vehicleID)
	assert.Equal(t, 50000.0, v.Odometer)
}

func TestCreateRecord_ForeignVehicle(t *testing.T) {
	records := newFakeMaintenanceColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u2", "")
	handler := NewMaintenanceHandler(records, vehicles)

	body := `{"vehicle_id":"` + vehicleID + `","category":"oil_change"}`
	req := authedRequest("POST", "/api/records", body, "u1")
	w := httptest.NewRecorder()
	handler.Records(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecords_RequiresVehicleID(t *testing.T) {
	handler := NewMaintenanceHandler(newFakeMaintenanceColl(), newFakeVehicleColl())

	req := authedRequest("GET", "/api/records", "", "u1")
	w := httptest.NewRecorder()
	handler.Records(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRecords(t *testing.T) {
	records := newFakeMaintenanceColl()
	records.put("u1", "v1", "oil_change")
	records.put("u1", "v2", "inspection")
	records.put("u2", "v1", "tire_rotation")
	handler := NewMaintenanceHandler(records, newFakeVehicleColl())

	req := authedRequest("GET", "/api/records?vehicle_id=v1", "", "u1")
	w := httptest.NewRecorder()
	handler.Records(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.MaintenanceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "oil_change", listed[0].Category)
}

func TestRecordByID_UpdateAndDelete(t *testing.T) {
	records := newFakeMaintenanceColl()
	recordID := records.put("u1", "v1", "oil_change")
	handler := NewMaintenanceHandler(records, newFakeVehicleColl())

	// Foreign user sees 404
	req := authedRequest("PUT", "/api/records/"+recordID, `{"cost":120}`, "u2")
	w := httptest.NewRecorder()
	handler.RecordByID(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Update
	req = authedRequest("PUT", "/api/records/"+recordID, `{"cost":120,"shop":"QuickLube"}`, "u1")
	w = httptest.NewRecorder()
	handler.RecordByID(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	rec, _ := records.FindRecordByID(context.Background(), recordID)
	assert.Equal(t, 120.0, rec.Cost)
	assert.Equal(t, "QuickLube", rec.Shop)

	// Delete
	req = authedRequest("DELETE", "/api/records/"+recordID, "", "u1")
	w = httptest.NewRecorder()
	handler.RecordByID(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := records.FindRecordByID(context.Background(), recordID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
