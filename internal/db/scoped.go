package db

import (
	"context"

	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// ScopedProgramStore narrows a ProgramCollection to a single user's programs.
// The conflict engine consumes this view so it never sees ownership concerns:
// by-vehicle lookups are filtered at the query, and by-id operations verify the
// owner before touching the document.
type ScopedProgramStore struct {
	Programs ProgramCollection
	UserID   string
}

// ProgramsByVehicle returns the user's programs claiming the given vehicle.
func (s *ScopedProgramStore) ProgramsByVehicle(ctx context.Context, vehicleID string) ([]models.MaintenanceProgram, error) {
	return s.Programs.FindProgramsByVehicle(ctx, s.UserID, vehicleID)
}

// ProgramByID returns the program if it exists and belongs to the user, else
// ErrNotFound. A foreign owner's program is reported as absent rather than
// forbidden so ids cannot be probed.
func (s *ScopedProgramStore) ProgramByID(ctx context.Context, id string) (*models.MaintenanceProgram, error) {
	program, err := s.Programs.FindProgramByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if program.UserID != s.UserID {
		return nil, ErrNotFound
	}
	return program, nil
}

// UpdateProgramVehicles sets the assigned vehicle set after an ownership check.
func (s *ScopedProgramStore) UpdateProgramVehicles(ctx context.Context, id string, vehicleIDs []string) error {
	if _, err := s.ProgramByID(ctx, id); err != nil {
		return err
	}
	return s.Programs.UpdateProgramVehicles(ctx, id, vehicleIDs)
}

// DeleteProgram deletes the program after an ownership check.
func (s *ScopedProgramStore) DeleteProgram(ctx context.Context, id string) error {
	if _, err := s.ProgramByID(ctx, id); err != nil {
		return err
	}
	return s.Programs.DeleteProgram(ctx, id)
}
