package conflict

import (
	"encoding/json"
	"fmt"
)

// Action is a user-chosen remedy applied to clear program conflicts before a
// new program is created. The set of variants is closed; Resolver dispatches
// exhaustively over them.
type Action interface {
	isAction()
}

// Proceed is the no-op action used when detection found no conflicts.
type Proceed struct{}

// EditExisting signals the caller to redirect the user to edit the named
// program instead of creating a new one. The store is not touched.
type EditExisting struct {
	ProgramID string
}

// ReplaceProgram deletes the named program. Only valid while the program
// covers exactly one vehicle; Resolver re-checks that at execution time.
type ReplaceProgram struct {
	ProgramID string
}

// RemoveVehicles strips the listed vehicles from each listed program,
// deleting any program whose vehicle set becomes empty.
type RemoveVehicles struct {
	ProgramIDs []string
	VehicleIDs []string
}

func (Proceed) isAction()        {}
func (EditExisting) isAction()   {}
func (ReplaceProgram) isAction() {}
func (RemoveVehicles) isAction() {}

// actionEnvelope is the wire form of an Action.
type actionEnvelope struct {
	Type       string   `json:"type"`
	ProgramID  string   `json:"program_id,omitempty"`
	ProgramIDs []string `json:"program_ids,omitempty"`
	VehicleIDs []string `json:"vehicle_ids,omitempty"`
}

// ParseAction decodes the JSON wire form of a resolution action.
func ParseAction(data []byte) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid resolution action: %w", err)
	}

	switch env.Type {
	case "proceed":
		return Proceed{}, nil
	case "edit_existing":
		if env.ProgramID == "" {
			return nil, fmt.Errorf("edit_existing requires program_id")
		}
		return EditExisting{ProgramID: env.ProgramID}, nil
	case "replace_program":
		if env.ProgramID == "" {
			return nil, fmt.Errorf("replace_program requires program_id")
		}
		return ReplaceProgram{ProgramID: env.ProgramID}, nil
	case "remove_vehicles":
		if len(env.ProgramIDs) == 0 || len(env.VehicleIDs) == 0 {
			return nil, fmt.Errorf("remove_vehicles requires program_ids and vehicle_ids")
		}
		return RemoveVehicles{ProgramIDs: env.ProgramIDs, VehicleIDs: env.VehicleIDs}, nil
	default:
		return nil, fmt.Errorf("unknown resolution action type %q", env.Type)
	}
}
