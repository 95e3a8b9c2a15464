package directory

import "github.com/google/uuid"

// Scope describes which devices a requester may query. Elevated requesters
// (dashboard admins) see every device; everyone else sees only the devices
// they own.
type Scope struct {
	UserID   uuid.UUID
	Elevated bool
}

// OwnerScope returns a scope limited to the user's own devices
func OwnerScope(userID uuid.UUID) Scope {
	return Scope{UserID: userID}
}

// ElevatedScope returns a scope covering all devices
func ElevatedScope(userID uuid.UUID) Scope {
	return Scope{UserID: userID, Elevated: true}
}

// CanAccess reports whether the scope may query the given device
func (s Scope) CanAccess(device *Device) bool {
	if s.Elevated {
		return true
	}
	return device != nil && device.IsOwnedBy(s.UserID)
}
