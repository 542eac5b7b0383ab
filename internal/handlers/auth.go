package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mainmast/fleet-ledger/internal/auth"
	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/identity"
	"github.com/mainmast/fleet-ledger/internal/middleware"
	"github.com/mainmast/fleet-ledger/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService  *auth.Service
	resolver     *identity.Resolver
	accounts     db.AccountCollection
	vehicles     db.VehicleCollection
	driverDomain string
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, resolver *identity.Resolver, accounts db.AccountCollection, vehicles db.VehicleCollection, driverDomain string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resolver:     resolver,
		accounts:     accounts,
		vehicles:     vehicles,
		driverDomain: driverDomain,
	}
}

// identityFor builds the identity string from a login/register request.
// Drivers type their plate number; the email-like identity is composed
// from it the same way the original clients did.
func (h *AuthHandler) identityFor(identityStr, plate string) string {
	if identityStr != "" {
		return strings.ToLower(strings.TrimSpace(identityStr))
	}
	if plate == "" {
		return ""
	}
	return strings.ToLower(models.NormalizePlate(plate)) + "@" + h.driverDomain
}

// Login verifies an account secret and issues a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var loginReq models.LoginRequest
	if err := json.Unmarshal(body, &loginReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	identityStr := h.identityFor(loginReq.Identity, loginReq.Plate)
	if identityStr == "" || loginReq.Password == "" {
		http.Error(w, "Identity (or plate) and password are required", http.StatusBadRequest)
		return
	}

	session, err := h.resolver.Resolve(identityStr)
	if err != nil {
		http.Error(w, "Invalid identity", http.StatusBadRequest)
		return
	}

	account, err := h.accounts.FindAccountByIdentity(r.Context(), identityStr)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if !account.IsActive {
		http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		return
	}

	if !h.authService.CheckSecret(loginReq.Password, account.SecretHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// A driver account without a registered vehicle cannot do anything;
	// reject at login the way the original app did.
	if session.Role == models.RoleDriver {
		if _, err := h.vehicles.FindVehicleByPlate(r.Context(), session.VehiclePlate); err != nil {
			http.Error(w, "Vehicle not registered, contact admin", http.StatusUnauthorized)
			return
		}
	}

	token, err := h.authService.GenerateToken(session)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	if err := h.accounts.UpdateLastLogin(r.Context(), account.ID.Hex()); err != nil {
		log.WithError(err).Warn("failed to update last login")
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:   token,
		Session: session,
	})
}

// Register creates a new account. Admin only.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}
	if !session.IsAdmin() {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var registerReq models.RegisterRequest
	if err := json.Unmarshal(body, &registerReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	identityStr := h.identityFor(registerReq.Identity, registerReq.Plate)
	if _, err := h.resolver.Resolve(identityStr); err != nil {
		http.Error(w, "Invalid identity", http.StatusBadRequest)
		return
	}

	if err := h.authService.ValidatePassword(registerReq.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	secretHash, err := h.authService.HashSecret(registerReq.Password)
	if err != nil {
		http.Error(w, "Failed to hash secret", http.StatusInternalServerError)
		return
	}

	account := models.Account{
		ID:         primitive.NewObjectID(),
		Identity:   identityStr,
		SecretHash: secretHash,
	}

	if err := h.accounts.InsertAccount(r.Context(), account); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			http.Error(w, "Account already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"identity": identityStr,
	})
}

// Profile returns the session resolved from the caller's token
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Session context not found", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
