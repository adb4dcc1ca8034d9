package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowdfunding-ledger/internal/api_gateway/service"
	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	funds "github.com/crowdfunding-ledger/internal/funds/service"
)

func donationRouter(donations *MockDonationService, settlements *MockSettlementService) http.Handler {
	h := NewDonationHandler(testLogger, donations, settlements)
	r := newTestRouter()
	r.POST("/donations", h.Initiate)
	r.GET("/callbacks/paypal", h.PayPalReturn)
	r.POST("/callbacks", h.Callback)
	r.GET("/campaigns/:id/donations", h.ListByCampaign)
	return r
}

func pendingTransaction(method shared.PaymentMethod, reference, amount string) *donation.Transaction {
	return &donation.Transaction{
		ID:            uuid.New(),
		Reference:     reference,
		CampaignID:    uuid.New(),
		Amount:        dec(amount),
		PaymentMethod: method,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestDonationHandler_Initiate(t *testing.T) {
	campaignID := uuid.New()

	t.Run("Created", func(t *testing.T) {
		donations := new(MockDonationService)
		tx := pendingTransaction(shared.PaymentMethodPayPal, "5O190127TN364715T", "25")
		donations.On("InitiateDonation", mock.Anything, mock.MatchedBy(func(in service.DonationInput) bool {
			return in.CampaignID == campaignID && in.Amount.Equal(dec("25")) && in.PaymentMethod == shared.PaymentMethodPayPal
		})).Return(&service.DonationReceipt{Transaction: tx, RedirectURL: "https://paypal.test/approve"}, nil).Once()

		rr := perform(donationRouter(donations, nil), http.MethodPost, "/donations", map[string]string{
			"campaign_id":    campaignID.String(),
			"amount":         "25",
			"payment_method": "PayPal",
			"donor_email":    "donor@example.org",
		})

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		env := decode[DonationResponse](t, rr)
		assert.Equal(t, "5O190127TN364715T", env.Data.TransactionID)
		assert.Equal(t, "usd", env.Data.Currency)
		assert.Equal(t, "https://paypal.test/approve", env.Data.RedirectURL)
		assert.False(t, env.Data.Completed)
	})

	t.Run("BadInput", func(t *testing.T) {
		donations := new(MockDonationService)
		router := donationRouter(donations, nil)

		for name, body := range map[string]map[string]string{
			"CampaignNotUUID": {"campaign_id": "abc", "amount": "1", "payment_method": "chapa"},
			"AmountNotNumber": {"campaign_id": campaignID.String(), "amount": "ten", "payment_method": "chapa"},
			"UnknownMethod":   {"campaign_id": campaignID.String(), "amount": "1", "payment_method": "cash"},
		} {
			rr := perform(router, http.MethodPost, "/donations", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, name)
		}
		donations.AssertNotCalled(t, "InitiateDonation", mock.Anything, mock.Anything)
	})

	t.Run("ProviderRejected", func(t *testing.T) {
		donations := new(MockDonationService)
		donations.On("InitiateDonation", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("telebirr declined: %w", shared.ErrProviderRejected)).Once()

		rr := perform(donationRouter(donations, nil), http.MethodPost, "/donations", map[string]string{
			"campaign_id": campaignID.String(), "amount": "100", "payment_method": "telebirr", "donor_phone": "0911000000",
		})
		assert.Equal(t, http.StatusPaymentRequired, rr.Code)
		assert.Equal(t, "provider_rejected", decode[any](t, rr).Error.Code)
	})

	t.Run("UnknownCampaign", func(t *testing.T) {
		donations := new(MockDonationService)
		donations.On("InitiateDonation", mock.Anything, mock.Anything).
			Return(nil, campaign.ErrCampaignNotFound{CampaignID: campaignID}).Once()

		rr := perform(donationRouter(donations, nil), http.MethodPost, "/donations", map[string]string{
			"campaign_id": campaignID.String(), "amount": "100", "payment_method": "chapa",
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDonationHandler_Settlement(t *testing.T) {
	t.Run("PayPalReturnCredits", func(t *testing.T) {
		settlements := new(MockSettlementService)
		tx := pendingTransaction(shared.PaymentMethodPayPal, "ORDER-1", "12.50")
		tx.Completed = true
		c := &campaign.Campaign{ID: tx.CampaignID, TotalBirr: dec("0"), TotalUSD: dec("17.50")}
		settlements.On("ConfirmSettlement", mock.Anything, "ORDER-1", "corr-test").
			Return(&funds.SettlementResult{Transaction: tx, Campaign: c, Credited: dec("12.50")}, nil).Once()

		rr := perform(donationRouter(nil, settlements), http.MethodGet, "/callbacks/paypal?token=ORDER-1", nil)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		env := decode[SettlementResponse](t, rr)
		assert.Equal(t, "12.50", env.Data.Credited)
		assert.Equal(t, "17.50", env.Data.TotalUSD)
		assert.False(t, env.Data.AlreadyProcessed)
		settlements.AssertExpectations(t)
	})

	t.Run("PayPalReturnWithoutToken", func(t *testing.T) {
		settlements := new(MockSettlementService)
		rr := perform(donationRouter(nil, settlements), http.MethodGet, "/callbacks/paypal", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		settlements.AssertNotCalled(t, "ConfirmSettlement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CallbackAlreadyProcessed", func(t *testing.T) {
		settlements := new(MockSettlementService)
		tx := pendingTransaction(shared.PaymentMethodChapa, "CHP-9", "300")
		tx.Completed = true
		settlements.On("ConfirmSettlement", mock.Anything, "CHP-9", "corr-test").
			Return(&funds.SettlementResult{Transaction: tx, AlreadyProcessed: true}, nil).Once()

		rr := perform(donationRouter(nil, settlements), http.MethodPost, "/callbacks", map[string]string{"transaction_id": " CHP-9 "})

		require.Equal(t, http.StatusOK, rr.Code)
		env := decode[SettlementResponse](t, rr)
		assert.True(t, env.Data.AlreadyProcessed)
		assert.Empty(t, env.Data.Credited)
	})

	t.Run("CallbackUnknownReference", func(t *testing.T) {
		settlements := new(MockSettlementService)
		settlements.On("ConfirmSettlement", mock.Anything, "nope", mock.Anything).
			Return(nil, donation.ErrTransactionNotFound{Reference: "nope"}).Once()

		rr := perform(donationRouter(nil, settlements), http.MethodPost, "/callbacks", map[string]string{"transaction_id": "nope"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("CallbackProviderRejected", func(t *testing.T) {
		settlements := new(MockSettlementService)
		settlements.On("ConfirmSettlement", mock.Anything, "CHP-2", mock.Anything).
			Return(nil, fmt.Errorf("chapa verify CHP-2: %w", shared.ErrProviderRejected)).Once()

		rr := perform(donationRouter(nil, settlements), http.MethodPost, "/callbacks", map[string]string{"transaction_id": "CHP-2"})
		assert.Equal(t, http.StatusPaymentRequired, rr.Code)
	})

	t.Run("CallbackBlankReference", func(t *testing.T) {
		rr := perform(donationRouter(nil, new(MockSettlementService)), http.MethodPost, "/callbacks", map[string]string{"transaction_id": "  "})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDonationHandler_ListByCampaign(t *testing.T) {
	t.Run("Page", func(t *testing.T) {
		donations := new(MockDonationService)
		id := uuid.New()
		settled := pendingTransaction(shared.PaymentMethodPayPal, "PAY-1", "12.50")
		completedAt := time.Now()
		settled.Completed, settled.CompletedAt = true, &completedAt
		pending := pendingTransaction(shared.PaymentMethodTelebirr, "TEL-1", "250")
		donations.On("ListDonations", mock.Anything, id, 2, 5).Return([]*donation.Transaction{settled, pending}, int64(7), nil).Once()

		rr := perform(donationRouter(donations, new(MockSettlementService)), http.MethodGet, "/campaigns/"+id.String()+"/donations?page=2&per_page=5", nil)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		env := decode[[]TransactionResponse](t, rr)
		require.Len(t, env.Data, 2)
		assert.Equal(t, "PAY-1", env.Data[0].TransactionID)
		assert.Equal(t, string(shared.CurrencyUSD), env.Data[0].Currency)
		assert.NotEmpty(t, env.Data[0].CompletedAt)
		assert.False(t, env.Data[1].Completed)
		assert.Equal(t, "250.00", env.Data[1].Amount)
		require.NotNil(t, env.Meta)
		assert.Equal(t, 7, env.Meta.TotalItems)
		assert.Equal(t, 2, env.Meta.TotalPages)
	})

	t.Run("EmptyPageIsAnArray", func(t *testing.T) {
		donations := new(MockDonationService)
		id := uuid.New()
		donations.On("ListDonations", mock.Anything, id, 1, 10).Return([]*donation.Transaction{}, int64(0), nil).Once()

		rr := perform(donationRouter(donations, new(MockSettlementService)), http.MethodGet, "/campaigns/"+id.String()+"/donations", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"data":[]`)
	})

	t.Run("UnknownCampaign", func(t *testing.T) {
		donations := new(MockDonationService)
		id := uuid.New()
		donations.On("ListDonations", mock.Anything, id, 1, 10).Return(nil, int64(0), campaign.ErrCampaignNotFound{CampaignID: id}).Once()

		rr := perform(donationRouter(donations, new(MockSettlementService)), http.MethodGet, "/campaigns/"+id.String()+"/donations", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		rr := perform(donationRouter(new(MockDonationService), new(MockSettlementService)), http.MethodGet, "/campaigns/nope/donations", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
