package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
)

var (
	fieldOfficer = &auth.Principal{UserID: "fo-1", Roles: []auth.Role{auth.RoleFieldOfficer}}
	otherOfficer = &auth.Principal{UserID: "fo-2", Roles: []auth.Role{auth.RoleFieldOfficer}}
	officer      = &auth.Principal{UserID: "off-1", Roles: []auth.Role{auth.RoleOfficer}}
	superAdmin   = &auth.Principal{UserID: "root", Roles: []auth.Role{auth.RoleSuperAdmin}}
	citizenUser  = &auth.Principal{UserID: "cit-1", Roles: []auth.Role{auth.RoleCitizen}}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// MockCitizenRepository is a mock implementation of CitizenRepository for testing
type MockCitizenRepository struct {
	mock.Mock
}

func (m *MockCitizenRepository) Create(ctx context.Context, c *models.Citizen) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCitizenRepository) GetByID(ctx context.Context, id int64) (*models.Citizen, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenRepository) GetByUserID(ctx context.Context, userID string) (*models.Citizen, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenRepository) List(ctx context.Context, f repository.CitizenFilter) ([]models.Citizen, int, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]models.Citizen)
	return items, args.Int(1), args.Error(2)
}

func (m *MockCitizenRepository) UpdateContact(ctx context.Context, id int64, email, phone, address string) (*models.Citizen, error) {
	args := m.Called(ctx, id, email, phone, address)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenRepository) SetActive(ctx context.Context, id int64, active bool) (*models.Citizen, error) {
	args := m.Called(ctx, id, active)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCitizenRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCitizenRepository) Recent(ctx context.Context, limit int) ([]models.Citizen, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]models.Citizen)
	return items, args.Error(1)
}

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *models.Property) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Property)
	return p, args.Error(1)
}

func (m *MockPropertyRepository) List(ctx context.Context, f repository.PropertyFilter) ([]models.Property, int, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]models.Property)
	return items, args.Int(1), args.Error(2)
}

func (m *MockPropertyRepository) Update(ctx context.Context, p *models.Property) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPropertyRepository) Transition(ctx context.Context, t repository.PropertyTransition) (*models.Property, error) {
	args := m.Called(ctx, t)
	p, _ := args.Get(0).(*models.Property)
	return p, args.Error(1)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPropertyRepository) Count(ctx context.Context, status models.PropertyStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockPropertyRepository) Recent(ctx context.Context, status models.PropertyStatus, limit int) ([]models.Property, error) {
	args := m.Called(ctx, status, limit)
	items, _ := args.Get(0).([]models.Property)
	return items, args.Error(1)
}

// MockTaxPeriodRepository is a mock implementation of TaxPeriodRepository for testing
type MockTaxPeriodRepository struct {
	mock.Mock
}

func (m *MockTaxPeriodRepository) Create(ctx context.Context, p *models.TaxPeriod) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockTaxPeriodRepository) GetByID(ctx context.Context, id int64) (*models.TaxPeriod, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.TaxPeriod)
	return p, args.Error(1)
}

func (m *MockTaxPeriodRepository) List(ctx context.Context, active *bool) ([]models.TaxPeriod, error) {
	args := m.Called(ctx, active)
	items, _ := args.Get(0).([]models.TaxPeriod)
	return items, args.Error(1)
}

func (m *MockTaxPeriodRepository) Update(ctx context.Context, p *models.TaxPeriod) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockTaxPeriodRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockHoldingTaxRepository is a mock implementation of HoldingTaxRepository for testing
type MockHoldingTaxRepository struct {
	mock.Mock
}

func (m *MockHoldingTaxRepository) Create(ctx context.Context, h *models.HoldingTax) error {
	return m.Called(ctx, h).Error(0)
}

func (m *MockHoldingTaxRepository) GetByID(ctx context.Context, id int64) (*models.HoldingTax, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(*models.HoldingTax)
	return h, args.Error(1)
}

func (m *MockHoldingTaxRepository) List(ctx context.Context, f repository.HoldingTaxFilter) ([]models.HoldingTax, int, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]models.HoldingTax)
	return items, args.Int(1), args.Error(2)
}

func (m *MockHoldingTaxRepository) Summary(ctx context.Context, f repository.HoldingTaxFilter) (repository.HoldingTaxSummary, error) {
	args := m.Called(ctx, f)
	s, _ := args.Get(0).(repository.HoldingTaxSummary)
	return s, args.Error(1)
}

func (m *MockHoldingTaxRepository) Update(ctx context.Context, h *models.HoldingTax, expected models.HoldingTaxStatus) error {
	return m.Called(ctx, h, expected).Error(0)
}

func (m *MockHoldingTaxRepository) Transition(ctx context.Context, t repository.HoldingTaxTransition) (*models.HoldingTax, error) {
	args := m.Called(ctx, t)
	h, _ := args.Get(0).(*models.HoldingTax)
	return h, args.Error(1)
}

func (m *MockHoldingTaxRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockHoldingTaxRepository) RecordPayment(ctx context.Context, id int64, p *models.TaxPayment) (*models.HoldingTax, error) {
	args := m.Called(ctx, id, p)
	h, _ := args.Get(0).(*models.HoldingTax)
	return h, args.Error(1)
}

func (m *MockHoldingTaxRepository) ListPayments(ctx context.Context, id int64) ([]models.TaxPayment, error) {
	args := m.Called(ctx, id)
	items, _ := args.Get(0).([]models.TaxPayment)
	return items, args.Error(1)
}

func (m *MockHoldingTaxRepository) Count(ctx context.Context, status models.HoldingTaxStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockHoldingTaxRepository) Recent(ctx context.Context, status models.HoldingTaxStatus, limit int) ([]models.HoldingTax, error) {
	args := m.Called(ctx, status, limit)
	items, _ := args.Get(0).([]models.HoldingTax)
	return items, args.Error(1)
}

func (m *MockHoldingTaxRepository) OutstandingForOwner(ctx context.Context, userID string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	d, _ := args.Get(0).(decimal.Decimal)
	return d, args.Error(1)
}
