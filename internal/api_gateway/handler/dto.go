package handler

import (
	"time"

	"github.com/crowdfunding-ledger/internal/api_gateway/service"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	funds "github.com/crowdfunding-ledger/internal/funds/service"
)

// Amounts travel as decimal strings so clients never see binary floating point.

type CreateCampaignRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=5000"`
	Goal         string `json:"goal" binding:"required"`
	GoalCurrency string `json:"goal_currency" binding:"omitempty,oneof=birr usd ETB USD"`
}

type CampaignResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Goal             string `json:"goal"`
	GoalCurrency     string `json:"goal_currency"`
	TotalBirr        string `json:"total_birr"`
	TotalUSD         string `json:"total_usd"`
	BalanceInBirr    string `json:"balance_in_birr"`
	PercentageFunded string `json:"percentage_funded"`
	USDToBirr        string `json:"usd_to_birr"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type CreateDonationRequest struct {
	CampaignID    string `json:"campaign_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	DonorPhone    string `json:"donor_phone"`
	DonorEmail    string `json:"donor_email" binding:"omitempty,email"`
}

type DonationResponse struct {
	TransactionID string `json:"transaction_id"`
	CampaignID    string `json:"campaign_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
	Completed     bool   `json:"completed"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// TransactionResponse is a stored donation as listed under its campaign.
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
	Completed     bool   `json:"completed"`
	CreatedAt     string `json:"created_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// CallbackRequest confirms a donation by its provider reference.
type CallbackRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

type SettlementResponse struct {
	TransactionID    string `json:"transaction_id"`
	CampaignID       string `json:"campaign_id"`
	Credited         string `json:"credited,omitempty"`
	Currency         string `json:"currency"`
	AlreadyProcessed bool   `json:"already_processed"`
	TotalBirr        string `json:"total_birr,omitempty"`
	TotalUSD         string `json:"total_usd,omitempty"`
}

// WebhookRequest accepts the reference field name of each provider: Chapa sends
// tx_ref, Telebirr and PayPal integrations send reference or transaction_id.
type WebhookRequest struct {
	Reference     string `json:"reference"`
	TxRef         string `json:"tx_ref"`
	TransactionID string `json:"transaction_id"`
}

func (r WebhookRequest) ProviderReference() string {
	switch {
	case r.Reference != "":
		return r.Reference
	case r.TxRef != "":
		return r.TxRef
	default:
		return r.TransactionID
	}
}

type NotificationResponse struct {
	ProviderReference string `json:"provider_reference"`
	PaymentMethod     string `json:"payment_method"`
	Status            string `json:"status"`
}

type CreateWithdrawalRequest struct {
	CampaignID    string `json:"campaign_id" binding:"required,uuid"`
	Amount        string `json:"amount"`
	ConvertTo     string `json:"convert_to" binding:"omitempty,oneof=birr usd ETB USD"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	Recipient     string `json:"recipient" binding:"required"`
	WithdrawAll   bool   `json:"withdraw_all"`
}

type WithdrawalResponse struct {
	ID              string `json:"id"`
	CampaignID      string `json:"campaign_id"`
	RequestedAmount string `json:"requested_amount"`
	ConvertTo       string `json:"convert_to"`
	WithdrawAll     bool   `json:"withdraw_all"`
	Status          string `json:"status"`
	PaymentMethod   string `json:"payment_method"`
	Recipient       string `json:"recipient"`
	DeductedBirr    string `json:"deducted_birr"`
	DeductedUSD     string `json:"deducted_usd"`
	ExchangeRate    string `json:"exchange_rate,omitempty"`
	RequestedAt     string `json:"requested_at"`
	ProcessedAt     string `json:"processed_at,omitempty"`
}

// BatchRequest lists withdrawal ids to approve or reject.
type BatchRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500,dive,uuid"`
}

type BatchResponse struct {
	Results   []funds.BatchOutcome `json:"results"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

type LedgerEntryResponse struct {
	EventID       string `json:"event_id"`
	CampaignID    string `json:"campaign_id"`
	Kind          string `json:"kind"`
	AmountBirr    string `json:"amount_birr"`
	AmountUSD     string `json:"amount_usd"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CreatedAt     string `json:"created_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func mapCampaignToResponse(v *service.CampaignView) CampaignResponse {
	c := v.Campaign
	return CampaignResponse{
		ID:               c.ID.String(),
		Title:            c.Title,
		Description:      c.Description,
		Goal:             c.Goal.StringFixed(2),
		GoalCurrency:     string(c.GoalCurrency),
		TotalBirr:        c.TotalBirr.StringFixed(2),
		TotalUSD:         c.TotalUSD.StringFixed(2),
		BalanceInBirr:    v.BalanceInBirr.StringFixed(2),
		PercentageFunded: v.PercentageFunded.StringFixed(2),
		USDToBirr:        v.USDToBirr.String(),
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        c.UpdatedAt.Format(time.RFC3339),
	}
}

func mapDonationToResponse(r *service.DonationReceipt) DonationResponse {
	tx := r.Transaction
	return DonationResponse{
		TransactionID: tx.Reference,
		CampaignID:    tx.CampaignID.String(),
		Amount:        tx.Amount.StringFixed(2),
		Currency:      string(tx.Currency()),
		PaymentMethod: string(tx.PaymentMethod),
		Completed:     tx.Completed,
		RedirectURL:   r.RedirectURL,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
}

func mapTransactionToResponse(tx *donation.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: tx.Reference,
		Amount:        tx.Amount.StringFixed(2),
		Currency:      string(tx.Currency()),
		PaymentMethod: string(tx.PaymentMethod),
		Completed:     tx.Completed,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.CompletedAt != nil {
		resp.CompletedAt = tx.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func mapSettlementToResponse(res *funds.SettlementResult) SettlementResponse {
	tx := res.Transaction
	resp := SettlementResponse{
		TransactionID:    tx.Reference,
		CampaignID:       tx.CampaignID.String(),
		Currency:         string(tx.Currency()),
		AlreadyProcessed: res.AlreadyProcessed,
	}
	if !res.AlreadyProcessed {
		resp.Credited = res.Credited.StringFixed(2)
	}
	if res.Campaign != nil {
		resp.TotalBirr = res.Campaign.TotalBirr.StringFixed(2)
		resp.TotalUSD = res.Campaign.TotalUSD.StringFixed(2)
	}
	return resp
}

func mapWithdrawalToResponse(r *withdrawal.Request) WithdrawalResponse {
	resp := WithdrawalResponse{
		ID:              r.ID.String(),
		CampaignID:      r.CampaignID.String(),
		RequestedAmount: r.RequestedAmount.StringFixed(2),
		ConvertTo:       string(r.ConvertTo),
		WithdrawAll:     r.WithdrawAll,
		Status:          string(r.Status),
		PaymentMethod:   string(r.PaymentMethod),
		Recipient:       r.Recipient,
		DeductedBirr:    r.DeductedBirr.StringFixed(2),
		DeductedUSD:     r.DeductedUSD.StringFixed(2),
		RequestedAt:     r.RequestedAt.Format(time.RFC3339),
	}
	if r.ExchangeRate.IsPositive() {
		resp.ExchangeRate = r.ExchangeRate.String()
	}
	if r.ProcessedAt != nil {
		resp.ProcessedAt = r.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

func mapLedgerEntryToResponse(e *ledger.Entry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		EventID:       e.EventID.String(),
		CampaignID:    e.CampaignID.String(),
		Kind:          string(e.Kind),
		AmountBirr:    e.AmountBirr,
		AmountUSD:     e.AmountUSD,
		Reference:     e.Reference,
		Status:        string(e.Status),
		FailureReason: e.FailureReason,
		CorrelationID: e.CorrelationID,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
	if e.ProcessedAt != nil {
		resp.ProcessedAt = e.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

func parseCurrencyOrDefault(s string) (shared.Currency, error) {
	if s == "" {
		return shared.CurrencyBirr, nil
	}
	return shared.ParseCurrency(s)
}
