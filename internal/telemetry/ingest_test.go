package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// fakeVehicles implements db.VehicleCollection; only UpdateOdometer matters
// for the ingestor.
type fakeVehicles struct {
	applied []models.OdometerReading
	err     error
}

func (f *fakeVehicles) InsertVehicle(ctx context.Context, v models.Vehicle) (string, error) {
	return "", nil
}
func (f *fakeVehicles) FindVehiclesByUser(ctx context.Context, userID string) ([]models.Vehicle, error) {
	return nil, nil
}
func (f *fakeVehicles) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return nil, nil
}
func (f *fakeVehicles) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	return nil
}
func (f *fakeVehicles) DeleteVehicle(ctx context.Context, id string) error { return nil }
func (f *fakeVehicles) UpdateOdometer(ctx context.Context, id string, reading models.OdometerReading) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, reading)
	return nil
}

func TestIngestor_HandleReading(t *testing.T) {
	vehicles := &fakeVehicles{}
	ingestor := NewIngestor(vehicles)

	payload := []byte(`{"vehicle_id":"v1","odometer":42150.5,"recorded_at":"2024-03-01T10:00:00Z"}`)
	err := ingestor.HandleReading(context.Background(), payload)
	require.NoError(t, err)

	require.Len(t, vehicles.applied, 1)
	assert.Equal(t, "v1", vehicles.applied[0].VehicleID)
	assert.Equal(t, 42150.5, vehicles.applied[0].Odometer)
}

func TestIngestor_HandleReading_DefaultsRecordedAt(t *testing.T) {
	vehicles := &fakeVehicles{}
	ingestor := NewIngestor(vehicles)

	err := ingestor.HandleReading(context.Background(), []byte(`{"vehicle_id":"v1","odometer":100}`))
	require.NoError(t, err)
	require.Len(t, vehicles.applied, 1)
	assert.WithinDuration(t, time.Now(), vehicles.applied[0].RecordedAt, 5*time.Second)
}

func TestIngestor_HandleReading_Invalid(t *testing.T) {
	vehicles := &fakeVehicles{}
	ingestor := NewIngestor(vehicles)
	ctx := context.Background()

	assert.Error(t, ingestor.HandleReading(ctx, []byte(`not json`)))
	assert.Error(t, ingestor.HandleReading(ctx, []byte(`{"odometer":100}`)))
	assert.Error(t, ingestor.HandleReading(ctx, []byte(`{"vehicle_id":"v1","odometer":-5}`)))
	assert.Empty(t, vehicles.applied)
}

func TestIngestor_HandleReading_StoreFailure(t *testing.T) {
	vehicles := &fakeVehicles{err: errors.New("write failed")}
	ingestor := NewIngestor(vehicles)

	err := ingestor.HandleReading(context.Background(), []byte(`{"vehicle_id":"v1","odometer":100}`))
	assert.Error(t, err)
}
