package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
	"github.com/stwalsh4118/cityhall/internal/services"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestHoldingTaxHandler_Create(t *testing.T) {
	api := newTestAPI(fieldOfficer)
	api.ledger.On("Create", mock.Anything, fieldOfficer, mock.MatchedBy(func(p services.CreateHoldingTaxParams) bool {
		return p.TaxAmount == nil &&
			p.PropertyID == 9 &&
			p.DueDate.Equal(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))
	})).Return(&models.HoldingTax{ID: 1, TaxNumber: "HT-000001", Status: models.HoldingTaxPending}, nil)

	w := api.do(http.MethodPost, "/api/v1/holding-taxes", map[string]interface{}{
		"property_id":   9,
		"tax_period_id": 3,
		"due_date":      "2026-06-30",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"tax_number":"HT-000001"`)
}

func TestHoldingTaxHandler_List(t *testing.T) {
	api := newTestAPI(officer)
	api.ledger.On("List", mock.Anything, officer, repository.HoldingTaxFilter{
		Status:  models.HoldingTaxPartial,
		Overdue: true,
	}).Return(&services.HoldingTaxList{
		Page:    models.Page[models.HoldingTax]{Items: []models.HoldingTax{}, Page: 1, PageSize: models.PageSize, Total: 0},
		Summary: repository.HoldingTaxSummary{TotalTax: dec("1050"), OverdueCount: 2},
	}, nil)

	w := api.do(http.MethodGet, "/api/v1/holding-taxes?status=PARTIAL&overdue=true", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "items")
	assert.Contains(t, body, "summary")
	assert.EqualValues(t, 20, body["page_size"])
}

func TestHoldingTaxHandler_Get(t *testing.T) {
	api := newTestAPI(officer)
	api.ledger.On("Get", mock.Anything, officer, int64(5)).Return(&services.HoldingTaxDetail{
		HoldingTax: models.HoldingTax{ID: 5, TaxNumber: "HT-000005"},
		Payments:   []models.TaxPayment{{PaymentNumber: "PAY-000001"}},
		Balance:    dec("650"),
		IsOverdue:  true,
	}, nil)

	w := api.do(http.MethodGet, "/api/v1/holding-taxes/5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tax_number":"HT-000005"`)
	assert.Contains(t, w.Body.String(), `"is_overdue":true`)
	assert.Contains(t, w.Body.String(), `"payment_number":"PAY-000001"`)
}

func TestHoldingTaxHandler_Update(t *testing.T) {
	api := newTestAPI(fieldOfficer)
	api.ledger.On("Update", mock.Anything, fieldOfficer, int64(5), mock.MatchedBy(func(p services.UpdateHoldingTaxParams) bool {
		return p.DueDate != nil && p.DueDate.Equal(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)) &&
			p.PenaltyAmount == nil && p.Notes == nil
	})).Return(&models.HoldingTax{ID: 5}, nil)

	w := api.do(http.MethodPut, "/api/v1/holding-taxes/5", map[string]string{"due_date": "2026-07-31"})

	assert.Equal(t, http.StatusOK, w.Code)
	api.ledger.AssertExpectations(t)
}

func TestHoldingTaxHandler_RecordPayment(t *testing.T) {
	// Arrange
	api := newTestAPI(fieldOfficer)
	api.ledger.On("RecordPayment", mock.Anything, fieldOfficer, int64(5), mock.MatchedBy(func(p services.PaymentParams) bool {
		return p.Amount.Equal(dec("400")) &&
			p.Method == models.PaymentCheque &&
			p.ChequeNumber == "000123" &&
			p.PaymentDate != nil
	})).Return(
		&models.HoldingTax{ID: 5, Status: models.HoldingTaxPartial, PaidAmount: dec("400")},
		&models.TaxPayment{PaymentNumber: "PAY-000001", Amount: dec("400")},
		nil,
	)

	// Act
	w := api.do(http.MethodPost, "/api/v1/holding-taxes/5/payments", map[string]string{
		"amount":         "400.00",
		"payment_method": "CHEQUE",
		"cheque_number":  "000123",
		"payment_date":   "2026-03-01",
	})

	// Assert
	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		HoldingTax models.HoldingTax `json:"holding_tax"`
		Payment    models.TaxPayment `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.HoldingTaxPartial, body.HoldingTax.Status)
	assert.Equal(t, "PAY-000001", body.Payment.PaymentNumber)
}

func TestHoldingTaxHandler_RecordPayment_Overpayment(t *testing.T) {
	api := newTestAPI(officer)
	api.ledger.On("RecordPayment", mock.Anything, officer, int64(5), mock.Anything).Return(nil, nil,
		&services.ValidationError{Fields: map[string]string{
			"amount": fmt.Sprintf("%v: balance is 650.00", models.ErrOverpayment),
		}})

	w := api.do(http.MethodPost, "/api/v1/holding-taxes/5/payments", map[string]interface{}{
		"amount":         700,
		"payment_method": "CASH",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, details := errorBody(t, w)
	assert.Contains(t, details["amount"], "balance is 650.00")
}

func TestHoldingTaxHandler_RecordPayment_BadDate(t *testing.T) {
	api := newTestAPI(officer)

	w := api.do(http.MethodPost, "/api/v1/holding-taxes/5/payments", map[string]interface{}{
		"amount":         10,
		"payment_method": "CASH",
		"payment_date":   "yesterday",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, details := errorBody(t, w)
	assert.Contains(t, details, "payment_date")
}

func TestHoldingTaxHandler_ListPayments(t *testing.T) {
	api := newTestAPI(officer)
	api.ledger.On("ListPayments", mock.Anything, officer, int64(5)).
		Return([]models.TaxPayment{{PaymentNumber: "PAY-000001"}, {PaymentNumber: "PAY-000002"}}, nil)

	w := api.do(http.MethodGet, "/api/v1/holding-taxes/5/payments", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PAY-000002")
}

func TestHoldingTaxHandler_Review(t *testing.T) {
	t.Run("waiver without body", func(t *testing.T) {
		api := newTestAPI(officer)
		api.ledger.On("Approve", mock.Anything, officer, int64(5), "").
			Return(&models.HoldingTax{ID: 5, Status: models.HoldingTaxWaived}, nil)

		w := api.do(http.MethodPost, "/api/v1/holding-taxes/5/approve", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"WAIVED"`)
	})

	t.Run("reject with reason", func(t *testing.T) {
		api := newTestAPI(officer)
		api.ledger.On("Reject", mock.Anything, officer, int64(5), "owner unreachable").
			Return(&models.HoldingTax{ID: 5, Status: models.HoldingTaxOverdue}, nil)

		w := api.do(http.MethodPost, "/api/v1/holding-taxes/5/reject", map[string]string{"reason": "owner unreachable"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"OVERDUE"`)
	})

	t.Run("review of a paid entry conflicts", func(t *testing.T) {
		api := newTestAPI(officer)
		api.ledger.On("Approve", mock.Anything, officer, int64(5), "").
			Return(nil, fmt.Errorf("%w: cannot approve from PAID", models.ErrInvalidTransition))

		w := api.do(http.MethodPost, "/api/v1/holding-taxes/5/approve", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHoldingTaxHandler_Queues(t *testing.T) {
	empty := &services.HoldingTaxList{Page: models.Page[models.HoldingTax]{Page: 1, PageSize: models.PageSize}}

	t.Run("pending queue", func(t *testing.T) {
		api := newTestAPI(officer)
		api.ledger.On("PendingQueue", mock.Anything, officer, "", 2).Return(empty, nil)

		w := api.do(http.MethodGet, "/api/v1/officer/holding-taxes?page=2", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("own ledger", func(t *testing.T) {
		api := newTestAPI(citizenUser)
		api.ledger.On("ListForCitizen", mock.Anything, citizenUser, 1).Return(empty, nil)

		w := api.do(http.MethodGet, "/api/v1/me/holding-taxes?page=1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
