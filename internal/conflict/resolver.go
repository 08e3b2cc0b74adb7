package conflict

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-maintenance/internal/db"
)

// ErrInvariantViolation is returned when a program's state at resolution time
// no longer matches what the chosen action assumes, e.g. a program that was
// single-vehicle at detection time gained vehicles while the user was
// deciding. Callers should re-run detection rather than retry the action.
var ErrInvariantViolation = errors.New("program state changed since detection")

// Resolver applies a chosen resolution action to the program store. It holds
// no state between calls and always re-fetches before mutating, because
// arbitrary time may pass between detection and resolution.
type Resolver struct {
	store ProgramStore
}

// NewResolver creates a resolver over the given store.
func NewResolver(store ProgramStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve dispatches on the action variant. Proceed and EditExisting never
// touch the store. Mutating actions are not atomic across programs: a failure
// mid-batch leaves earlier mutations applied, and callers should re-run
// detection to learn the resulting state.
func (r *Resolver) Resolve(ctx context.Context, action Action) error {
	switch a := action.(type) {
	case Proceed, EditExisting:
		return nil
	case ReplaceProgram:
		return r.replaceProgram(ctx, a.ProgramID)
	case RemoveVehicles:
		return r.removeVehicles(ctx, a.ProgramIDs, a.VehicleIDs)
	case nil:
		return fmt.Errorf("nil resolution action")
	default:
		return fmt.Errorf("unknown resolution action %T", action)
	}
}

// replaceProgram deletes a program that covers exactly one vehicle. The
// single-vehicle guard is re-checked against fresh state; trusting the
// earlier classification could delete a program that has since grown.
func (r *Resolver) replaceProgram(ctx context.Context, programID string) error {
	program, err := r.store.ProgramByID(ctx, programID)
	if err != nil {
		return fmt.Errorf("fetch program %s: %w", programID, err)
	}

	if n := len(program.AssignedVehicleIDs); n != 1 {
		return fmt.Errorf("%w: program %s covers %d vehicles, expected 1",
			ErrInvariantViolation, programID, n)
	}

	if err := r.store.DeleteProgram(ctx, programID); err != nil {
		return fmt.Errorf("delete program %s: %w", programID, err)
	}
	return nil
}

// removeVehicles strips the listed vehicles from each listed program in
// order. Each program is processed sequentially so a mid-batch failure leaves
// a well-defined prefix of completed work.
func (r *Resolver) removeVehicles(ctx context.Context, programIDs, vehicleIDs []string) error {
	remove := make(map[string]struct{}, len(vehicleIDs))
	for _, v := range vehicleIDs {
		remove[v] = struct{}{}
	}

	for _, programID := range programIDs {
		program, err := r.store.ProgramByID(ctx, programID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				// Already gone, which is the outcome we wanted anyway.
				log.WithField("program_id", programID).
					Warn("program vanished during resolution, skipping")
				continue
			}
			return fmt.Errorf("fetch program %s: %w", programID, err)
		}

		remaining := make([]string, 0, len(program.AssignedVehicleIDs))
		for _, v := range program.AssignedVehicleIDs {
			if _, drop := remove[v]; !drop {
				remaining = append(remaining, v)
			}
		}

		if len(remaining) == 0 {
			// An active program never keeps an empty vehicle set.
			if err := r.store.DeleteProgram(ctx, programID); err != nil {
				return fmt.Errorf("delete emptied program %s: %w", programID, err)
			}
			continue
		}

		if err := r.store.UpdateProgramVehicles(ctx, programID, remaining); err != nil {
			return fmt.Errorf("update program %s vehicles: %w", programID, err)
		}
	}
	return nil
}
