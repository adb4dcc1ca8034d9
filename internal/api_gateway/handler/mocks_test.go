package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowdfunding-ledger/internal/api_gateway/middleware"
	"github.com/crowdfunding-ledger/internal/api_gateway/service"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	funds "github.com/crowdfunding-ledger/internal/funds/service"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// envelope mirrors Response with a typed payload.
type envelope[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	return r
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CorrelationIDHeader, "corr-test")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

type MockCampaignService struct {
	mock.Mock
}

func (m *MockCampaignService) CreateCampaign(ctx context.Context, in service.CreateCampaignInput) (*service.CampaignView, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CampaignView), args.Error(1)
}

func (m *MockCampaignService) GetCampaign(ctx context.Context, id uuid.UUID) (*service.CampaignView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CampaignView), args.Error(1)
}

func (m *MockCampaignService) ListCampaigns(ctx context.Context, page, perPage int) ([]*service.CampaignView, int64, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*service.CampaignView), args.Get(1).(int64), args.Error(2)
}

func (m *MockCampaignService) GetLedger(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, campaignID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

type MockDonationService struct {
	mock.Mock
}

func (m *MockDonationService) InitiateDonation(ctx context.Context, in service.DonationInput) (*service.DonationReceipt, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DonationReceipt), args.Error(1)
}

func (m *MockDonationService) ListDonations(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*donation.Transaction, int64, error) {
	args := m.Called(ctx, campaignID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*donation.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) AcceptNotification(ctx context.Context, method shared.PaymentMethod, reference, correlationID string) (*shared.SettlementNotification, error) {
	args := m.Called(ctx, method, reference, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.SettlementNotification), args.Error(1)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) ConfirmSettlement(ctx context.Context, reference, correlationID string) (*funds.SettlementResult, error) {
	args := m.Called(ctx, reference, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funds.SettlementResult), args.Error(1)
}

type MockWithdrawalService struct {
	mock.Mock
}

func (m *MockWithdrawalService) RequestWithdrawal(ctx context.Context, in funds.RequestInput) (*withdrawal.Request, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalService) GetWithdrawal(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalService) ListWithdrawals(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*withdrawal.Request, int64, error) {
	args := m.Called(ctx, campaignID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*withdrawal.Request), args.Get(1).(int64), args.Error(2)
}

func (m *MockWithdrawalService) Approve(ctx context.Context, id uuid.UUID, correlationID string) (*funds.ApprovalResult, error) {
	args := m.Called(ctx, id, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funds.ApprovalResult), args.Error(1)
}

func (m *MockWithdrawalService) Reject(ctx context.Context, id uuid.UUID, correlationID string) (*funds.RejectionResult, error) {
	args := m.Called(ctx, id, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funds.RejectionResult), args.Error(1)
}

type MockBatchResolver struct {
	mock.Mock
}

func (m *MockBatchResolver) ApproveAll(ctx context.Context, ids []uuid.UUID, correlationID string) []funds.BatchOutcome {
	return m.Called(ctx, ids, correlationID).Get(0).([]funds.BatchOutcome)
}

func (m *MockBatchResolver) RejectAll(ctx context.Context, ids []uuid.UUID, correlationID string) []funds.BatchOutcome {
	return m.Called(ctx, ids, correlationID).Get(0).([]funds.BatchOutcome)
}
