package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowdfunding-ledger/internal/api_gateway/service"
	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
)

func testView() *service.CampaignView {
	c := &campaign.Campaign{
		ID:           uuid.New(),
		Title:        "Village well",
		Goal:         dec("100"),
		GoalCurrency: shared.CurrencyUSD,
		TotalBirr:    dec("1321"),
		TotalUSD:     dec("10"),
		Version:      3,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	return &service.CampaignView{
		Campaign:         c,
		BalanceInBirr:    dec("2642"),
		PercentageFunded: dec("20"),
		USDToBirr:        dec("132.1"),
	}
}

func campaignRouter(svc *MockCampaignService) http.Handler {
	h := NewCampaignHandler(testLogger, svc)
	r := newTestRouter()
	r.POST("/campaigns", h.Create)
	r.GET("/campaigns", h.List)
	r.GET("/campaigns/:id", h.GetByID)
	r.GET("/campaigns/:id/ledger", h.Ledger)
	return r
}

func TestCampaignHandler_Create(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		svc := new(MockCampaignService)
		view := testView()
		svc.On("CreateCampaign", mock.Anything, mock.MatchedBy(func(in service.CreateCampaignInput) bool {
			return in.Title == "Village well" && in.Goal.Equal(dec("100")) && in.GoalCurrency == shared.CurrencyUSD
		})).Return(view, nil).Once()

		rr := perform(campaignRouter(svc), http.MethodPost, "/campaigns", map[string]string{
			"title": "Village well", "goal": "100", "goal_currency": "USD",
		})

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		env := decode[CampaignResponse](t, rr)
		assert.Equal(t, view.Campaign.ID.String(), env.Data.ID)
		assert.Equal(t, "2642.00", env.Data.BalanceInBirr)
		assert.Equal(t, "20.00", env.Data.PercentageFunded)
		assert.Equal(t, "10.00", env.Data.TotalUSD)
		assert.Equal(t, "corr-test", env.CorrelationID)
		svc.AssertExpectations(t)
	})

	t.Run("GoalCurrencyDefaultsToBirr", func(t *testing.T) {
		svc := new(MockCampaignService)
		svc.On("CreateCampaign", mock.Anything, mock.MatchedBy(func(in service.CreateCampaignInput) bool {
			return in.GoalCurrency == shared.CurrencyBirr
		})).Return(testView(), nil).Once()

		rr := perform(campaignRouter(svc), http.MethodPost, "/campaigns", map[string]string{"title": "t", "goal": "5"})
		assert.Equal(t, http.StatusCreated, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("BadInput", func(t *testing.T) {
		svc := new(MockCampaignService)
		router := campaignRouter(svc)

		for name, body := range map[string]map[string]string{
			"MissingTitle":    {"goal": "10"},
			"GoalNotANumber":  {"title": "t", "goal": "lots"},
			"UnknownCurrency": {"title": "t", "goal": "10", "goal_currency": "eur"},
		} {
			rr := perform(router, http.MethodPost, "/campaigns", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, name)
			assert.Equal(t, "validation_error", decode[any](t, rr).Error.Code, name)
		}
		svc.AssertNotCalled(t, "CreateCampaign", mock.Anything, mock.Anything)
	})

	t.Run("DomainValidation", func(t *testing.T) {
		svc := new(MockCampaignService)
		svc.On("CreateCampaign", mock.Anything, mock.Anything).Return(nil, campaign.ErrInvalidGoal).Once()

		rr := perform(campaignRouter(svc), http.MethodPost, "/campaigns", map[string]string{"title": "t", "goal": "-1"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("StoreDown", func(t *testing.T) {
		svc := new(MockCampaignService)
		svc.On("CreateCampaign", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

		rr := perform(campaignRouter(svc), http.MethodPost, "/campaigns", map[string]string{"title": "t", "goal": "1"})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		env := decode[any](t, rr)
		assert.Equal(t, "internal_error", env.Error.Code)
		assert.NotContains(t, env.Error.Message, "connection refused")
	})
}

func TestCampaignHandler_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		svc := new(MockCampaignService)
		view := testView()
		svc.On("GetCampaign", mock.Anything, view.Campaign.ID).Return(view, nil).Once()

		rr := perform(campaignRouter(svc), http.MethodGet, "/campaigns/"+view.Campaign.ID.String(), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Village well", decode[CampaignResponse](t, rr).Data.Title)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockCampaignService)
		id := uuid.New()
		svc.On("GetCampaign", mock.Anything, id).Return(nil, campaign.ErrCampaignNotFound{CampaignID: id}).Once()

		rr := perform(campaignRouter(svc), http.MethodGet, "/campaigns/"+id.String(), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "not_found", decode[any](t, rr).Error.Code)
	})

	t.Run("MalformedID", func(t *testing.T) {
		rr := perform(campaignRouter(new(MockCampaignService)), http.MethodGet, "/campaigns/42", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCampaignHandler_List(t *testing.T) {
	svc := new(MockCampaignService)
	svc.On("ListCampaigns", mock.Anything, 2, 5).Return([]*service.CampaignView{testView(), testView()}, int64(7), nil).Once()

	rr := perform(campaignRouter(svc), http.MethodGet, "/campaigns?page=2&per_page=5", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	env := decode[[]CampaignResponse](t, rr)
	assert.Len(t, env.Data, 2)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.TotalPages)
	assert.Equal(t, 7, env.Meta.TotalItems)

	rr = perform(campaignRouter(svc), http.MethodGet, "/campaigns?per_page=1000", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCampaignHandler_Ledger(t *testing.T) {
	svc := new(MockCampaignService)
	id := uuid.New()
	processed := time.Now()
	entry := ledger.NewEntry(id, shared.EntryKindDonationCredit, dec("250"), dec("0"), "CHP-1", "corr-1")
	entry.ProcessedAt = &processed
	failed := ledger.NewEntry(id, shared.EntryKindWithdrawalDebit, dec("100"), dec("0"), "w-1", "")
	failed.Fail(shared.FailureReasonTransferFailed, "recipient not found")

	svc.On("GetLedger", mock.Anything, id, 1, 10).Return([]*ledger.Entry{entry, failed}, int64(2), nil).Once()

	rr := perform(campaignRouter(svc), http.MethodGet, "/campaigns/"+id.String()+"/ledger", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	env := decode[[]LedgerEntryResponse](t, rr)
	require.Len(t, env.Data, 2)
	assert.Equal(t, "250.00", env.Data[0].AmountBirr)
	assert.NotEmpty(t, env.Data[0].ProcessedAt)
	assert.Equal(t, "TRANSFER_FAILED: recipient not found", env.Data[1].FailureReason)
}
