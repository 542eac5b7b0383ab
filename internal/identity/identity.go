package identity

import (
	"errors"
	"strings"

	"github.com/mainmast/fleet-ledger/internal/models"
)

// ErrInvalidIdentity is returned for identity strings that are absent or
// not of the localpart@domain form. Callers must not assume a role.
var ErrInvalidIdentity = errors.New("invalid identity")

// DefaultAdminMarker is the localpart that marks an admin identity.
const DefaultAdminMarker = "admin"

// Resolver maps an externally issued identity string to a session. It is
// a pure classifier selecting the capability surface a session is
// granted; the authentication transport is a separate concern.
type Resolver struct {
	adminMarker string
}

// NewResolver creates a resolver with the given admin marker. An empty
// marker falls back to DefaultAdminMarker.
func NewResolver(adminMarker string) *Resolver {
	if adminMarker == "" {
		adminMarker = DefaultAdminMarker
	}
	return &Resolver{adminMarker: adminMarker}
}

// Resolve classifies an identity string of the form localpart@domain.
// A localpart case-insensitively equal to the admin marker yields an
// admin session; anything else yields a driver session whose vehicle
// plate is the uppercased localpart.
func (r *Resolver) Resolve(identity string) (models.Session, error) {
	identity = strings.TrimSpace(identity)
	local, domain, found := strings.Cut(identity, "@")
	if !found || local == "" || domain == "" {
		return models.Session{}, ErrInvalidIdentity
	}

	if strings.EqualFold(local, r.adminMarker) {
		return models.Session{Identity: identity, Role: models.RoleAdmin}, nil
	}

	return models.Session{
		Identity:     identity,
		Role:         models.RoleDriver,
		VehiclePlate: models.NormalizePlate(local),
	}, nil
}
