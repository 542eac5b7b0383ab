package models

// Role represents the capability surface granted to a session
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
)

// Session is the resolved caller identity. It is passed explicitly into
// every ledger and report call rather than held in ambient state.
type Session struct {
	Identity     string `json:"identity"`
	Role         Role   `json:"role"`
	VehiclePlate string `json:"vehicle_plate,omitempty"` // empty for admin sessions
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Claims represents JWT claims issued for a session
type Claims struct {
	Identity     string `json:"identity"`
	Role         Role   `json:"role"`
	VehiclePlate string `json:"vehicle_plate"`
	Exp          int64  `json:"exp"`
}

// Session converts token claims back into a session value.
func (c *Claims) Session() Session {
	return Session{
		Identity:     c.Identity,
		Role:         c.Role,
		VehiclePlate: c.VehiclePlate,
	}
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleDriver:
		return true
	default:
		return false
	}
}
