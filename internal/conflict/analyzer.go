// Package conflict enforces the one-active-program-per-vehicle rule: it
// detects which candidate vehicles are already claimed by an existing
// maintenance program and applies the user's chosen resolution before a new
// program may be created. The package holds no state of its own; every
// operation works against a freshly fetched view of the ProgramStore, so it is
// safe to re-invoke after arbitrary delay.
package conflict

import (
	"context"
	"fmt"

	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// ProgramStore is the persistence view the engine works against. Results must
// already be scoped to the acting user; the engine itself carries no
// ownership or auth concerns.
type ProgramStore interface {
	ProgramsByVehicle(ctx context.Context, vehicleID string) ([]models.MaintenanceProgram, error)
	ProgramByID(ctx context.Context, id string) (*models.MaintenanceProgram, error)
	UpdateProgramVehicles(ctx context.Context, id string, vehicleIDs []string) error
	DeleteProgram(ctx context.Context, id string) error
}

// Analyzer classifies candidate vehicles against existing program assignments.
type Analyzer struct {
	store ProgramStore
}

// NewAnalyzer creates an analyzer over the given store.
func NewAnalyzer(store ProgramStore) *Analyzer {
	return &Analyzer{store: store}
}

// DetectConflicts checks each candidate vehicle, in input order, against the
// active programs currently claiming it. One entry is produced per input
// element; duplicate ids yield duplicate entries so the result stays
// positionally aligned with the request. A store failure on any vehicle fails
// the whole call with no partial result.
func (a *Analyzer) DetectConflicts(ctx context.Context, vehicleIDs []string) (*models.ConflictReport, error) {
	report := &models.ConflictReport{
		Conflicts: make([]models.VehicleConflict, 0, len(vehicleIDs)),
	}

	for _, vehicleID := range vehicleIDs {
		programs, err := a.store.ProgramsByVehicle(ctx, vehicleID)
		if err != nil {
			return nil, fmt.Errorf("fetch programs for vehicle %s: %w", vehicleID, err)
		}

		active := programs[:0:0]
		for _, p := range programs {
			if p.IsActive {
				active = append(active, p)
			}
		}

		report.Conflicts = append(report.Conflicts, classify(vehicleID, active))
	}

	for _, c := range report.Conflicts {
		if c.Type != models.ConflictNone {
			report.HasConflicts = true
			break
		}
	}
	report.CanProceed = !report.HasConflicts
	return report, nil
}

// classify builds the conflict entry for one vehicle from the active programs
// claiming it.
func classify(vehicleID string, active []models.MaintenanceProgram) models.VehicleConflict {
	if len(active) == 0 {
		return models.VehicleConflict{
			VehicleID:        vehicleID,
			Type:             models.ConflictNone,
			ExistingPrograms: []models.MaintenanceProgram{},
		}
	}

	// Single-vehicle only when every claiming program covers exactly this
	// one vehicle. AffectedVehicles is the union across all of them, the
	// blast radius of clearing this conflict.
	conflictType := models.ConflictSingleVehicleProgram
	seen := make(map[string]struct{})
	for _, p := range active {
		if len(p.AssignedVehicleIDs) != 1 {
			conflictType = models.ConflictMultiVehicleProgram
		}
		for _, v := range p.AssignedVehicleIDs {
			seen[v] = struct{}{}
		}
	}

	return models.VehicleConflict{
		VehicleID:        vehicleID,
		Type:             conflictType,
		ExistingPrograms: active,
		AffectedVehicles: len(seen),
	}
}

// DescribeConflict renders a conflict as a user-facing sentence. Pure
// formatting, no I/O.
func DescribeConflict(conflict models.VehicleConflict, vehicleLabel string) string {
	switch conflict.Type {
	case models.ConflictSingleVehicleProgram:
		return fmt.Sprintf("%s is already covered by the program %q.",
			vehicleLabel, conflict.ExistingPrograms[0].Name)
	case models.ConflictMultiVehicleProgram:
		return fmt.Sprintf("%s belongs to the program %q, shared with %d other vehicle(s).",
			vehicleLabel, conflict.ExistingPrograms[0].Name, conflict.AffectedVehicles-1)
	default:
		return ""
	}
}

// ResolutionOptions returns the remedies offered to the user for a conflict.
// The table is intentionally hard-coded per conflict class; a new class means
// a code change here, not new data.
func ResolutionOptions(conflict models.VehicleConflict) []string {
	switch conflict.Type {
	case models.ConflictSingleVehicleProgram:
		return []string{"Edit Existing", "Replace Program"}
	case models.ConflictMultiVehicleProgram:
		return []string{"Edit Existing", "Remove & Create New"}
	default:
		return []string{}
	}
}
