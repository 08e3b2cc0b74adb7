package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/middleware"
	"github.com/ukydev/vehicle-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeProgramColl is an in-memory db.ProgramCollection.
type fakeProgramColl struct {
	order    []string
	programs map[string]*models.MaintenanceProgram
}

func newFakeProgramColl() *fakeProgramColl {
	return &fakeProgramColl{programs: make(map[string]*models.MaintenanceProgram)}
}

func (f *fakeProgramColl) put(userID, name string, active bool, vehicleIDs ...string) string {
	id := primitive.NewObjectID()
	f.order = append(f.order, id.Hex())
	f.programs[id.Hex()] = &models.MaintenanceProgram{
		ID:                 id,
		UserID:             userID,
		Name:               name,
		AssignedVehicleIDs: vehicleIDs,
		IsActive:           active,
	}
	return id.Hex()
}

func (f *fakeProgramColl) InsertProgram(ctx context.Context, program models.MaintenanceProgram) (string, error) {
	id := primitive.NewObjectID()
	program.ID = id
	f.order = append(f.order, id.Hex())
	f.programs[id.Hex()] = &program
	return id.Hex(), nil
}

func (f *fakeProgramColl) FindProgramsByUser(ctx context.Context, userID string) ([]models.MaintenanceProgram, error) {
	var out []models.MaintenanceProgram
	for _, id := range f.order {
		if p := f.programs[id]; p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProgramColl) FindProgramsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.MaintenanceProgram, error) {
	var out []models.MaintenanceProgram
	for _, id := range f.order {
		p := f.programs[id]
		if p.UserID != userID {
			continue
		}
		for _, v := range p.AssignedVehicleIDs {
			if v == vehicleID {
				out = append(out, *p)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeProgramColl) FindProgramByID(ctx context.Context, id string) (*models.MaintenanceProgram, error) {
	p, ok := f.programs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgramColl) UpdateProgram(ctx context.Context, id string, program models.MaintenanceProgram) error {
	if _, ok := f.programs[id]; !ok {
		return db.ErrNotFound
	}
	program.ID = f.programs[id].ID
	f.programs[id] = &program
	return nil
}

func (f *fakeProgramColl) UpdateProgramVehicles(ctx context.Context, id string, vehicleIDs []string) error {
	p, ok := f.programs[id]
	if !ok {
		return db.ErrNotFound
	}
	p.AssignedVehicleIDs = vehicleIDs
	return nil
}

func (f *fakeProgramColl) DeleteProgram(ctx context.Context, id string) error {
	if _, ok := f.programs[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.programs, id)
	for i, o := range f.order {
		if o == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakeVehicleColl is an in-memory db.VehicleCollection.
type fakeVehicleColl struct {
	vehicles map[string]*models.Vehicle
}

func newFakeVehicleColl() *fakeVehicleColl {
	return &fakeVehicleColl{vehicles: make(map[string]*models.Vehicle)}
}

func (f *fakeVehicleColl) put(userID, nickname string) string {
	id := primitive.NewObjectID()
	f.vehicles[id.Hex()] = &models.Vehicle{
		ID:       id,
		UserID:   userID,
		Make:     "Honda",
		Model:    "Civic",
		Year:     2020,
		Nickname: nickname,
	}
	return id.Hex()
}

func (f *fakeVehicleColl) InsertVehicle(ctx context.Context, v models.Vehicle) (string, error) {
	id := primitive.NewObjectID()
	v.ID = id
	f.vehicles[id.Hex()] = &v
	return id.Hex(), nil
}

func (f *fakeVehicleColl) FindVehiclesByUser(ctx context.Context, userID string) ([]models.Vehicle, error) {
	var out []models.Vehicle
	for _, v := range f.vehicles {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVehicleColl) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVehicleColl) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	if _, ok := f.vehicles[id]; !ok {
		return db.ErrNotFound
	}
	v.ID = f.vehicles[id].ID
	f.vehicles[id] = &v
	return nil
}

func (f *fakeVehicleColl) UpdateOdometer(ctx context.Context, id string, reading models.OdometerReading) error {
	v, ok := f.vehicles[id]
	if !ok {
		return db.ErrNotFound
	}
	if reading.Odometer > v.Odometer {
		v.Odometer = reading.Odometer
		v.OdometerUpdatedAt = reading.RecordedAt
	}
	return nil
}

func (f *fakeVehicleColl) DeleteVehicle(ctx context.Context, id string) error {
	if _, ok := f.vehicles[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.vehicles, id)
	return nil
}

func authedRequest(method, target, body, userID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	claims := &models.Claims{UserID: userID, Username: "testuser"}
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
}

func TestCheckConflicts_NoConflicts(t *testing.T) {
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u1", "Daily Driver")
	handler := NewProgramHandler(programs, vehicles)

	req := authedRequest("POST", "/api/programs/conflicts",
		`{"vehicle_ids":["`+vehicleID+`"]}`, "u1")
	w := httptest.NewRecorder()
	handler.CheckConflicts(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp conflictReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.HasConflicts)
	assert.True(t, resp.CanProceed)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, models.ConflictNone, resp.Conflicts[0].Type)
	assert.Empty(t, resp.Conflicts[0].Options)
}

func TestCheckConflicts_SingleVehicleConflict(t *testing.T) {
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u1", "Daily Driver")
	programs.put("u1", "Basic Maintenance", true, vehicleID)
	handler := NewProgramHandler(programs, vehicles)

	req := authedRequest("POST", "/api/programs/conflicts",
		`{"vehicle_ids":["`+vehicleID+`"]}`, "u1")
	w := httptest.NewRecorder()
	handler.CheckConflicts(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp conflictReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.HasConflicts)
	require.Len(t, resp.Conflicts, 1)
	entry := resp.Conflicts[0]
	assert.Equal(t, models.ConflictSingleVehicleProgram, entry.Type)
	assert.Equal(t, []string{"Edit Existing", "Replace Program"}, entry.Options)
	assert.Contains(t, entry.Description, "Daily Driver")
	assert.Contains(t, entry.Description, "Basic Maintenance")
}

func TestCheckConflicts_ScopedToUser(t *testing.T) {
	// Another user's program over the same vehicle id must not conflict.
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u1", "")
	programs.put("u2", "Foreign Plan", true, vehicleID)
	handler := NewProgramHandler(programs, vehicles)

	req := authedRequest("POST", "/api/programs/conflicts",
		`{"vehicle_ids":["`+vehicleID+`"]}`, "u1")
	w := httptest.NewRecorder()
	handler.CheckConflicts(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp conflictReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.CanProceed)
}

func TestCheckConflicts_Unauthorized(t *testing.T) {
	handler := NewProgramHandler(newFakeProgramColl(), newFakeVehicleColl())

	req := httptest.NewRequest("POST", "/api/programs/conflicts", strings.NewReader(`{"vehicle_ids":["v1"]}`))
	w := httptest.NewRecorder()
	handler.CheckConflicts(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateProgram_RejectedWhileConflicted(t *testing.T) {
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u1", "")
	programs.put("u1", "Basic Maintenance", true, vehicleID)
	handler := NewProgramHandler(programs, vehicles)

	req := authedRequest("POST", "/api/programs",
		`{"name":"New Plan","vehicle_ids":["`+vehicleID+`"]}`, "u1")
	w := httptest.NewRecorder()
	handler.Programs(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp conflictReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.HasConflicts)
	// Nothing was created.
	all, _ := programs.FindProgramsByUser(context.Background(), "u1")
	assert.Len(t, all, 1)
}

func TestCreateProgram_Succeeds(t *testing.T) {
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u1", "")
	handler := NewProgramHandler(programs, vehicles)

	body := `{"name":"Basic Maintenance","vehicle_ids":["` + vehicleID + `"],
		"tasks":[{"name":"Oil change","category":"oil_change","interval_type":"mileage","interval_value":8000}]}`
	req := authedRequest("POST", "/api/programs", body, "u1")
	w := httptest.NewRecorder()
	handler.Programs(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	all, _ := programs.FindProgramsByUser(context.Background(), "u1")
	require.Len(t, all, 1)
	assert.True(t, all[0].IsActive)
	assert.Equal(t, []string{vehicleID}, all[0].AssignedVehicleIDs)
	require.Len(t, all[0].Tasks, 1)
	assert.NotEmpty(t, all[0].Tasks[0].ID) // assigned server-side
}

func TestCreateProgram_UnknownVehicle(t *testing.T) {
	handler := NewProgramHandler(newFakeProgramColl(), newFakeVehicleColl())

	req := authedRequest("POST", "/api/programs", `{"name":"Plan","vehicle_ids":["missing"]}`, "u1")
	w := httptest.NewRecorder()
	handler.Programs(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveConflicts_ReplaceProgram(t *testing.T) {
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u1", "")
	programID := programs.put("u1", "Basic Maintenance", true, vehicleID)
	handler := NewProgramHandler(programs, vehicles)

	req := authedRequest("POST", "/api/programs/conflicts/resolve",
		`{"type":"replace_program","program_id":"`+programID+`"}`, "u1")
	w := httptest.NewRecorder()
	handler.ResolveConflicts(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	_, err := programs.FindProgramByID(context.Background(), programID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestResolveConflicts_InvariantViolation(t *testing.T) {
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	programID := programs.put("u1", "Grew Since Detection", true, "v1", "v2")
	handler := NewProgramHandler(programs, vehicles)

	req := authedRequest("POST", "/api/programs/conflicts/resolve",
		`{"type":"replace_program","program_id":"`+programID+`"}`, "u1")
	w := httptest.NewRecorder()
	handler.ResolveConflicts(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	// Program survived.
	_, err := programs.FindProgramByID(context.Background(), programID)
	assert.NoError(t, err)
}

func TestResolveConflicts_ForeignProgramReadsAsMissing(t *testing.T) {
	programs := newFakeProgramColl()
	programID := programs.put("u2", "Not Yours", true, "v1")
	handler := NewProgramHandler(programs, newFakeVehicleColl())

	req := authedRequest("POST", "/api/programs/conflicts/resolve",
		`{"type":"replace_program","program_id":"`+programID+`"}`, "u1")
	w := httptest.NewRecorder()
	handler.ResolveConflicts(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	_, err := programs.FindProgramByID(context.Background(), programID)
	assert.NoError(t, err)
}

func TestResolveConflicts_RemoveVehicles(t *testing.T) {
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	programID := programs.put("u1", "Fleet Plan", true, "v1", "v2")
	handler := NewProgramHandler(programs, vehicles)

	req := authedRequest("POST", "/api/programs/conflicts/resolve",
		`{"type":"remove_vehicles","program_ids":["`+programID+`"],"vehicle_ids":["v1"]}`, "u1")
	w := httptest.NewRecorder()
	handler.ResolveConflicts(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	p, err := programs.FindProgramByID(context.Background(), programID)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, p.AssignedVehicleIDs)
}

func TestResolveConflicts_BadAction(t *testing.T) {
	handler := NewProgramHandler(newFakeProgramColl(), newFakeVehicleColl())

	req := authedRequest("POST", "/api/programs/conflicts/resolve", `{"type":"detonate"}`, "u1")
	w := httptest.NewRecorder()
	handler.ResolveConflicts(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgramByID_Lifecycle(t *testing.T) {
	programs := newFakeProgramColl()
	vehicles := newFakeVehicleColl()
	vehicleID := vehicles.put("u1", "")
	programID := programs.put("u1", "Basic Maintenance", true, vehicleID)
	handler := NewProgramHandler(programs, vehicles)

	// Get
	req := authedRequest("GET", "/api/programs/"+programID, "", "u1")
	w := httptest.NewRecorder()
	handler.ProgramByID(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Foreign user sees 404
	req = authedRequest("GET", "/api/programs/"+programID, "", "u2")
	w = httptest.NewRecorder()
	handler.ProgramByID(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Update
	req = authedRequest("PUT", "/api/programs/"+programID,
		`{"name":"Renamed","vehicle_ids":["`+vehicleID+`"]}`, "u1")
	w = httptest.NewRecorder()
	handler.ProgramByID(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	p, _ := programs.FindProgramByID(context.Background(), programID)
	assert.Equal(t, "Renamed", p.Name)

	// Delete
	req = authedRequest("DELETE", "/api/programs/"+programID, "", "u1")
	w = httptest.NewRecorder()
	handler.ProgramByID(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := programs.FindProgramByID(context.Background(), programID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
