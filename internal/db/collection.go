package db

import (
	"context"
	"errors"

	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// ProgramCollection defines the interface for maintenance program operations.
type ProgramCollection interface {
	InsertProgram(ctx context.Context, program models.MaintenanceProgram) (string, error)
	FindProgramsByUser(ctx context.Context, userID string) ([]models.MaintenanceProgram, error)
	FindProgramsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.MaintenanceProgram, error)
	FindProgramByID(ctx context.Context, id string) (*models.MaintenanceProgram, error)
	UpdateProgram(ctx context.Context, id string, program models.MaintenanceProgram) error
	UpdateProgramVehicles(ctx context.Context, id string, vehicleIDs []string) error
	DeleteProgram(ctx context.Context, id string) error
}

// VehicleCollection defines the interface for vehicle operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error)
	FindVehiclesByUser(ctx context.Context, userID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	UpdateOdometer(ctx context.Context, id string, reading models.OdometerReading) error
	DeleteVehicle(ctx context.Context, id string) error
}

// MaintenanceCollection defines the interface for maintenance record operations.
type MaintenanceCollection interface {
	InsertRecord(ctx context.Context, record models.MaintenanceRecord) (string, error)
	FindRecordsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.MaintenanceRecord, error)
	FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error
	DeleteRecord(ctx context.Context, id string) error
}
