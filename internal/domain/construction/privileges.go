package construction

import "github.com/google/uuid"

// ActorPrivileges is what the acting user is allowed to do. It is resolved
// by the caller and passed into every action that needs it.
type ActorPrivileges struct {
	ActorID uuid.UUID
	// CanDispatch allows sending contracts to quality or property control
	CanDispatch bool
	// PrivilegedOfficer is a read-only flag shown alongside contracts
	PrivilegedOfficer bool
}
