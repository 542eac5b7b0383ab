package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mainmast/fleet-ledger/internal/auth"
	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/identity"
	"github.com/mainmast/fleet-ledger/internal/middleware"
	"github.com/mainmast/fleet-ledger/internal/models"
)

// MockAccountCollection is a mock implementation of db.AccountCollection
type MockAccountCollection struct {
	mock.Mock
}

func (m *MockAccountCollection) InsertAccount(ctx context.Context, account models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountCollection) FindAccountByIdentity(ctx context.Context, identityStr string) (*models.Account, error) {
	args := m.Called(ctx, identityStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVehicleCollection is a mock implementation of db.VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func newAuthHandler(accounts *MockAccountCollection, vehicles *MockVehicleCollection) (*AuthHandler, *auth.Service) {
	authService := auth.NewService("test-secret", time.Hour)
	resolver := identity.NewResolver("")
	return NewAuthHandler(authService, resolver, accounts, vehicles, "logifi.com"), authService
}

func withSession(req *http.Request, session models.Session) *http.Request {
	claims := &models.Claims{
		Identity:     session.Identity,
		Role:         session.Role,
		VehiclePlate: session.VehiclePlate,
	}
	return req.WithContext(context.WithValue(req.Context(), middleware.SessionContextKey, claims))
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	return httptest.NewRequest(method, target, &buf)
}

func driverAccount(t *testing.T, svc *auth.Service, identityStr, password string) *models.Account {
	t.Helper()
	hash, err := svc.HashSecret(password)
	require.NoError(t, err)
	return &models.Account{
		ID:         primitive.NewObjectID(),
		Identity:   identityStr,
		SecretHash: hash,
		IsActive:   true,
	}
}

func TestLogin_DriverByPlate(t *testing.T) {
	accounts := &MockAccountCollection{}
	vehicles := &MockVehicleCollection{}
	handler, authService := newAuthHandler(accounts, vehicles)

	account := driverAccount(t, authService, "ka01ab1234@logifi.com", "driver-password")
	accounts.On("FindAccountByIdentity", mock.Anything, "ka01ab1234@logifi.com").Return(account, nil)
	accounts.On("UpdateLastLogin", mock.Anything, account.ID.Hex()).Return(nil)
	vehicles.On("FindVehicleByPlate", mock.Anything, "KA01AB1234").
		Return(&models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "KA01AB1234"}, nil)

	req := jsonRequest("POST", "/api/auth/login", models.LoginRequest{
		Plate:    "ka 01 ab 1234",
		Password: "driver-password",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleDriver, resp.Session.Role)
	assert.Equal(t, "KA01AB1234", resp.Session.VehiclePlate)
	accounts.AssertExpectations(t)
}

func TestLogin_AdminByIdentity(t *testing.T) {
	accounts := &MockAccountCollection{}
	vehicles := &MockVehicleCollection{}
	handler, authService := newAuthHandler(accounts, vehicles)

	account := driverAccount(t, authService, "admin@mainmast.com", "admin-password")
	accounts.On("FindAccountByIdentity", mock.Anything, "admin@mainmast.com").Return(account, nil)
	accounts.On("UpdateLastLogin", mock.Anything, account.ID.Hex()).Return(nil)

	req := jsonRequest("POST", "/api/auth/login", models.LoginRequest{
		Identity: "Admin@MainMast.com",
		Password: "admin-password",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.RoleAdmin, resp.Session.Role)
	assert.Empty(t, resp.Session.VehiclePlate)
	// No vehicle check for admins.
	vehicles.AssertNotCalled(t, "FindVehicleByPlate", mock.Anything, mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	accounts := &MockAccountCollection{}
	vehicles := &MockVehicleCollection{}
	handler, authService := newAuthHandler(accounts, vehicles)

	account := driverAccount(t, authService, "ka01ab1234@logifi.com", "driver-password")
	accounts.On("FindAccountByIdentity", mock.Anything, "ka01ab1234@logifi.com").Return(account, nil)

	req := jsonRequest("POST", "/api/auth/login", models.LoginRequest{
		Plate:    "KA01AB1234",
		Password: "wrong",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownAccount(t *testing.T) {
	accounts := &MockAccountCollection{}
	handler, _ := newAuthHandler(accounts, &MockVehicleCollection{})

	accounts.On("FindAccountByIdentity", mock.Anything, "ka01ab1234@logifi.com").Return(nil, db.ErrNotFound)

	req := jsonRequest("POST", "/api/auth/login", models.LoginRequest{
		Plate:    "KA01AB1234",
		Password: "driver-password",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	accounts := &MockAccountCollection{}
	handler, authService := newAuthHandler(accounts, &MockVehicleCollection{})

	account := driverAccount(t, authService, "ka01ab1234@logifi.com", "driver-password")
	account.IsActive = false
	accounts.On("FindAccountByIdentity", mock.Anything, "ka01ab1234@logifi.com").Return(account, nil)

	req := jsonRequest("POST", "/api/auth/login", models.LoginRequest{
		Plate:    "KA01AB1234",
		Password: "driver-password",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_DriverWithoutVehicle(t *testing.T) {
	accounts := &MockAccountCollection{}
	vehicles := &MockVehicleCollection{}
	handler, authService := newAuthHandler(accounts, vehicles)

	account := driverAccount(t, authService, "ka01ab1234@logifi.com", "driver-password")
	accounts.On("FindAccountByIdentity", mock.Anything, "ka01ab1234@logifi.com").Return(account, nil)
	vehicles.On("FindVehicleByPlate", mock.Anything, "KA01AB1234").Return(nil, db.ErrNotFound)

	req := jsonRequest("POST", "/api/auth/login", models.LoginRequest{
		Plate:    "KA01AB1234",
		Password: "driver-password",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Vehicle not registered")
}

func TestLogin_MissingFields(t *testing.T) {
	handler, _ := newAuthHandler(&MockAccountCollection{}, &MockVehicleCollection{})

	req := jsonRequest("POST", "/api/auth/login", models.LoginRequest{Password: "driver-password"})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = jsonRequest("POST", "/api/auth/login", models.LoginRequest{Plate: "KA01AB1234"})
	rec = httptest.NewRecorder()
	handler.Login(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_DriverByPlate(t *testing.T) {
	accounts := &MockAccountCollection{}
	handler, _ := newAuthHandler(accounts, &MockVehicleCollection{})

	accounts.On("InsertAccount", mock.Anything, mock.MatchedBy(func(a models.Account) bool {
		return a.Identity == "ka01ab1234@logifi.com" && a.SecretHash != ""
	})).Return(nil)

	req := jsonRequest("POST", "/api/auth/register", models.RegisterRequest{
		Plate:    "KA 01 AB 1234",
		Password: "driver-password",
	})
	req = withSession(req, models.Session{Identity: "admin@mainmast.com", Role: models.RoleAdmin})
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "ka01ab1234@logifi.com")
	accounts.AssertExpectations(t)
}

func TestRegister_RequiresAdmin(t *testing.T) {
	handler, _ := newAuthHandler(&MockAccountCollection{}, &MockVehicleCollection{})

	body := models.RegisterRequest{Plate: "KA01AB1234", Password: "driver-password"}

	// No session at all.
	rec := httptest.NewRecorder()
	handler.Register(rec, jsonRequest("POST", "/api/auth/register", body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Driver session.
	req := withSession(jsonRequest("POST", "/api/auth/register", body), models.Session{
		Identity: "ka01ab1234@logifi.com", Role: models.RoleDriver, VehiclePlate: "KA01AB1234",
	})
	rec = httptest.NewRecorder()
	handler.Register(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegister_WeakPassword(t *testing.T) {
	handler, _ := newAuthHandler(&MockAccountCollection{}, &MockVehicleCollection{})

	req := withSession(jsonRequest("POST", "/api/auth/register", models.RegisterRequest{
		Plate:    "KA01AB1234",
		Password: "short",
	}), models.Session{Role: models.RoleAdmin})
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	accounts := &MockAccountCollection{}
	handler, _ := newAuthHandler(accounts, &MockVehicleCollection{})

	accounts.On("InsertAccount", mock.Anything, mock.Anything).Return(db.ErrDuplicate)

	req := withSession(jsonRequest("POST", "/api/auth/register", models.RegisterRequest{
		Plate:    "KA01AB1234",
		Password: "driver-password",
	}), models.Session{Role: models.RoleAdmin})
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProfile(t *testing.T) {
	handler, _ := newAuthHandler(&MockAccountCollection{}, &MockVehicleCollection{})

	session := models.Session{
		Identity:     "ka01ab1234@logifi.com",
		Role:         models.RoleDriver,
		VehiclePlate: "KA01AB1234",
	}
	req := withSession(httptest.NewRequest("GET", "/api/auth/profile", nil), session)
	rec := httptest.NewRecorder()
	handler.Profile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, session, got)
}
