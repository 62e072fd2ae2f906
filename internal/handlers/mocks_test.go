package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
	"github.com/stwalsh4118/cityhall/internal/services"
)

// MockCitizenService is a mock implementation of services.CitizenService.
type MockCitizenService struct {
	mock.Mock
}

func (m *MockCitizenService) Create(ctx context.Context, actor *auth.Principal, params services.CreateCitizenParams) (*models.Citizen, error) {
	args := m.Called(ctx, actor, params)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenService) Get(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error) {
	args := m.Called(ctx, actor, id)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenService) List(ctx context.Context, actor *auth.Principal, f repository.CitizenFilter) (*models.Page[models.Citizen], error) {
	args := m.Called(ctx, actor, f)
	p, _ := args.Get(0).(*models.Page[models.Citizen])
	return p, args.Error(1)
}

func (m *MockCitizenService) UpdateContact(ctx context.Context, actor *auth.Principal, id int64, params services.ContactParams) (*models.Citizen, error) {
	args := m.Called(ctx, actor, id, params)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenService) Deactivate(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error) {
	args := m.Called(ctx, actor, id)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenService) Activate(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error) {
	args := m.Called(ctx, actor, id)
	c, _ := args.Get(0).(*models.Citizen)
	return c, args.Error(1)
}

func (m *MockCitizenService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockPropertyService is a mock implementation of services.PropertyService.
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) property(args mock.Arguments) (*models.Property, error) {
	p, _ := args.Get(0).(*models.Property)
	return p, args.Error(1)
}

func (m *MockPropertyService) page(args mock.Arguments) (*models.Page[models.Property], error) {
	p, _ := args.Get(0).(*models.Page[models.Property])
	return p, args.Error(1)
}

func (m *MockPropertyService) Create(ctx context.Context, actor *auth.Principal, params services.PropertyParams) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, params))
}

func (m *MockPropertyService) Get(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id))
}

func (m *MockPropertyService) List(ctx context.Context, actor *auth.Principal, f repository.PropertyFilter) (*models.Page[models.Property], error) {
	return m.page(m.Called(ctx, actor, f))
}

func (m *MockPropertyService) Update(ctx context.Context, actor *auth.Principal, id int64, params services.PropertyParams) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id, params))
}

func (m *MockPropertyService) Submit(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id))
}

func (m *MockPropertyService) Approve(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id))
}

func (m *MockPropertyService) Reject(ctx context.Context, actor *auth.Principal, id int64, reason string) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id, reason))
}

func (m *MockPropertyService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockPropertyService) PendingQueue(ctx context.Context, actor *auth.Principal, search string, page int) (*models.Page[models.Property], error) {
	return m.page(m.Called(ctx, actor, search, page))
}

func (m *MockPropertyService) ListForCitizen(ctx context.Context, actor *auth.Principal, page int) (*models.Page[models.Property], error) {
	return m.page(m.Called(ctx, actor, page))
}

// MockTaxPeriodService is a mock implementation of services.TaxPeriodService.
type MockTaxPeriodService struct {
	mock.Mock
}

func (m *MockTaxPeriodService) Create(ctx context.Context, actor *auth.Principal, params services.TaxPeriodParams) (*models.TaxPeriod, error) {
	args := m.Called(ctx, actor, params)
	p, _ := args.Get(0).(*models.TaxPeriod)
	return p, args.Error(1)
}

func (m *MockTaxPeriodService) Get(ctx context.Context, actor *auth.Principal, id int64) (*models.TaxPeriod, error) {
	args := m.Called(ctx, actor, id)
	p, _ := args.Get(0).(*models.TaxPeriod)
	return p, args.Error(1)
}

func (m *MockTaxPeriodService) List(ctx context.Context, actor *auth.Principal, active *bool) ([]models.TaxPeriod, error) {
	args := m.Called(ctx, actor, active)
	p, _ := args.Get(0).([]models.TaxPeriod)
	return p, args.Error(1)
}

func (m *MockTaxPeriodService) Update(ctx context.Context, actor *auth.Principal, id int64, params services.TaxPeriodParams) (*models.TaxPeriod, error) {
	args := m.Called(ctx, actor, id, params)
	p, _ := args.Get(0).(*models.TaxPeriod)
	return p, args.Error(1)
}

func (m *MockTaxPeriodService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockHoldingTaxService is a mock implementation of services.HoldingTaxService.
type MockHoldingTaxService struct {
	mock.Mock
}

func (m *MockHoldingTaxService) entry(args mock.Arguments) (*models.HoldingTax, error) {
	h, _ := args.Get(0).(*models.HoldingTax)
	return h, args.Error(1)
}

func (m *MockHoldingTaxService) list(args mock.Arguments) (*services.HoldingTaxList, error) {
	l, _ := args.Get(0).(*services.HoldingTaxList)
	return l, args.Error(1)
}

func (m *MockHoldingTaxService) Create(ctx context.Context, actor *auth.Principal, params services.CreateHoldingTaxParams) (*models.HoldingTax, error) {
	return m.entry(m.Called(ctx, actor, params))
}

func (m *MockHoldingTaxService) Get(ctx context.Context, actor *auth.Principal, id int64) (*services.HoldingTaxDetail, error) {
	args := m.Called(ctx, actor, id)
	d, _ := args.Get(0).(*services.HoldingTaxDetail)
	return d, args.Error(1)
}

func (m *MockHoldingTaxService) List(ctx context.Context, actor *auth.Principal, f repository.HoldingTaxFilter) (*services.HoldingTaxList, error) {
	return m.list(m.Called(ctx, actor, f))
}

func (m *MockHoldingTaxService) Update(ctx context.Context, actor *auth.Principal, id int64, params services.UpdateHoldingTaxParams) (*models.HoldingTax, error) {
	return m.entry(m.Called(ctx, actor, id, params))
}

func (m *MockHoldingTaxService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockHoldingTaxService) RecordPayment(ctx context.Context, actor *auth.Principal, id int64, params services.PaymentParams) (*models.HoldingTax, *models.TaxPayment, error) {
	args := m.Called(ctx, actor, id, params)
	h, _ := args.Get(0).(*models.HoldingTax)
	p, _ := args.Get(1).(*models.TaxPayment)
	return h, p, args.Error(2)
}

func (m *MockHoldingTaxService) ListPayments(ctx context.Context, actor *auth.Principal, id int64) ([]models.TaxPayment, error) {
	args := m.Called(ctx, actor, id)
	p, _ := args.Get(0).([]models.TaxPayment)
	return p, args.Error(1)
}

func (m *MockHoldingTaxService) Approve(ctx context.Context, actor *auth.Principal, id int64, note string) (*models.HoldingTax, error) {
	return m.entry(m.Called(ctx, actor, id, note))
}

func (m *MockHoldingTaxService) Reject(ctx context.Context, actor *auth.Principal, id int64, reason string) (*models.HoldingTax, error) {
	return m.entry(m.Called(ctx, actor, id, reason))
}

func (m *MockHoldingTaxService) PendingQueue(ctx context.Context, actor *auth.Principal, search string, page int) (*services.HoldingTaxList, error) {
	return m.list(m.Called(ctx, actor, search, page))
}

func (m *MockHoldingTaxService) ListForCitizen(ctx context.Context, actor *auth.Principal, page int) (*services.HoldingTaxList, error) {
	return m.list(m.Called(ctx, actor, page))
}

// MockDashboardService is a mock implementation of services.DashboardService.
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) FieldOfficer(ctx context.Context, actor *auth.Principal) (*services.FieldOfficerDashboard, error) {
	args := m.Called(ctx, actor)
	d, _ := args.Get(0).(*services.FieldOfficerDashboard)
	return d, args.Error(1)
}

func (m *MockDashboardService) Officer(ctx context.Context, actor *auth.Principal) (*services.OfficerDashboard, error) {
	args := m.Called(ctx, actor)
	d, _ := args.Get(0).(*services.OfficerDashboard)
	return d, args.Error(1)
}

func (m *MockDashboardService) Citizen(ctx context.Context, actor *auth.Principal) (*services.CitizenDashboard, error) {
	args := m.Called(ctx, actor)
	d, _ := args.Get(0).(*services.CitizenDashboard)
	return d, args.Error(1)
}
