package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/service"
	"github.com/kinmel-dev/kinmel-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
)

// fakePaymentService scripts the service layer so the tests pin down the
// controller's HTTP contract only.
type fakePaymentService struct {
	webhookErr error
	successErr error
	failureErr error
}

func (f *fakePaymentService) InitiatePayment(ctx context.Context, orderID uint) (*service.InitiationResult, error) {
	return &service.InitiationResult{Gateway: service.GatewayESewa, TransactionRef: "ref"}, nil
}

func (f *fakePaymentService) ReconcileSuccess(ctx context.Context, gateway string, orderID uint, params map[string]string) error {
	return f.successErr
}

func (f *fakePaymentService) ReconcileFailure(ctx context.Context, gateway string, orderID uint, params map[string]string) error {
	return f.failureErr
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, gateway string, body []byte) error {
	return f.webhookErr
}

func (f *fakePaymentService) CheckStatus(ctx context.Context, orderID uint) (*model.PaymentRecord, error) {
	return &model.PaymentRecord{Status: model.PaymentRecordPending}, nil
}

func (f *fakePaymentService) RecordsForOrder(orderID uint) ([]model.PaymentRecord, error) {
	return nil, nil
}

func paymentTestRouter(svc service.PaymentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.LoggingMiddleware())

	ctrl := NewPaymentController(svc)
	engine.POST("/payments/:gateway/webhook", ctrl.Webhook)
	engine.GET("/payments/esewa/success/:orderID", ctrl.ESewaSuccess)
	engine.GET("/payments/khalti/failure/:orderID", ctrl.KhaltiFailure)
	return engine
}

func TestWebhook_StatusContract(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"accepted", nil, http.StatusOK, "OK"},
		{"duplicate acknowledges", service.ErrDuplicateEvent, http.StatusOK, "OK"},
		{"unknown order", service.ErrOrderNotFound, http.StatusNotFound, "payment not found"},
		{"no payment", service.ErrPaymentNotFound, http.StatusNotFound, "payment not found"},
		{"amount mismatch", service.ErrAmountMismatch, http.StatusBadRequest, service.ErrAmountMismatch.Error()},
		{"verification failed", service.ErrVerificationFailed, http.StatusBadRequest, service.ErrVerificationFailed.Error()},
		{"unexpected failure", assert.AnError, http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := paymentTestRouter(&fakePaymentService{webhookErr: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/payments/esewa/webhook", strings.NewReader(`{}`))
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestESewaSuccess_DuplicateRedirectIsOK(t *testing.T) {
	engine := paymentTestRouter(&fakePaymentService{successErr: service.ErrDuplicateEvent})

	req := httptest.NewRequest(http.MethodGet, "/payments/esewa/success/42?data=abc", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestESewaSuccess_RejectsBadOrderID(t *testing.T) {
	engine := paymentTestRouter(&fakePaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/payments/esewa/success/zero", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKhaltiFailure_LateFailureIsAcknowledged(t *testing.T) {
	// A failure hit for an already-paid order comes back as a duplicate; the
	// redirect must still get a calm 200 rather than an error page.
	engine := paymentTestRouter(&fakePaymentService{failureErr: service.ErrDuplicateEvent})

	req := httptest.NewRequest(http.MethodGet, "/payments/khalti/failure/42?pidx=abc", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}
