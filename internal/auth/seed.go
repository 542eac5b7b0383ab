package auth

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/models"
)

// EnsureAdminAccount seeds the configured admin login at startup.
// Registration over the API requires an admin session, so the first
// admin account has to come from somewhere else. Idempotent: an
// existing account is left untouched, and a concurrent replica winning
// the insert is not an error.
func EnsureAdminAccount(ctx context.Context, accounts db.AccountCollection, svc *Service, identity, password string) error {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" || password == "" {
		return nil
	}

	if _, err := accounts.FindAccountByIdentity(ctx, identity); err == nil {
		return nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	hash, err := svc.HashSecret(password)
	if err != nil {
		return err
	}

	account := models.Account{
		ID:         primitive.NewObjectID(),
		Identity:   identity,
		SecretHash: hash,
	}
	if err := accounts.InsertAccount(ctx, account); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil
		}
		return err
	}

	log.WithField("identity", identity).Info("seeded admin account")
	return nil
}
