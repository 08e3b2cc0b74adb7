package models

// ConflictType classifies how a candidate vehicle collides with existing
// maintenance programs.
type ConflictType string

const (
	// ConflictNone means no active program claims the vehicle.
	ConflictNone ConflictType = "none"
	// ConflictSingleVehicleProgram means every active program claiming the
	// vehicle covers only that vehicle.
	ConflictSingleVehicleProgram ConflictType = "single_vehicle_program"
	// ConflictMultiVehicleProgram means at least one active program claiming
	// the vehicle also covers other vehicles.
	ConflictMultiVehicleProgram ConflictType = "multi_vehicle_program"
)

// VehicleConflict is the per-vehicle outcome of conflict detection. Derived,
// never persisted.
type VehicleConflict struct {
	VehicleID        string               `json:"vehicle_id"`
	Type             ConflictType         `json:"type"`
	ExistingPrograms []MaintenanceProgram `json:"existing_programs"`
	// AffectedVehicles counts the distinct vehicles across all programs in
	// ExistingPrograms, i.e. the blast radius of resolving this conflict.
	AffectedVehicles int `json:"affected_vehicles"`
}

// ConflictReport is the result of checking a candidate vehicle set against
// existing program assignments. Conflicts holds one entry per requested
// vehicle, in request order.
type ConflictReport struct {
	HasConflicts bool              `json:"has_conflicts"`
	Conflicts    []VehicleConflict `json:"conflicts"`
	CanProceed   bool              `json:"can_proceed"`
}
