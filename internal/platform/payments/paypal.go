package payments

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/crowdfunding-ledger/internal/config"
	"github.com/crowdfunding-ledger/internal/domain/shared"
)

type paypalAmount struct {
	CurrencyCode string          `json:"currency_code"`
	Value        decimal.Decimal `json:"value"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalOrder struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Links         []paypalLink `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string       `json:"id"`
				Status string       `json:"status"`
				Amount paypalAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// PayPal settles donations in USD through the Orders API and pays out with Payouts.
// Requests are authenticated with a client-credentials token that oauth2 caches and
// refreshes.
type PayPal struct {
	logger    *slog.Logger
	client    *http.Client
	baseURL   string
	returnURL string
	cancelURL string
}

var _ Provider = (*PayPal)(nil)

func NewPayPal(logger *slog.Logger, cfg *config.PaymentsConfig) *PayPal {
	base := strings.TrimRight(cfg.PayPalBaseURL, "/")
	cc := &clientcredentials.Config{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		TokenURL:     base + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.RequestTimeout})
	client := cc.Client(tokenCtx)
	client.Timeout = cfg.RequestTimeout

	return &PayPal{
		logger:    logger,
		client:    client,
		baseURL:   base,
		returnURL: cfg.PayPalReturnURL,
		cancelURL: cfg.PayPalCancelURL,
	}
}

func (p *PayPal) Method() shared.PaymentMethod { return shared.PaymentMethodPayPal }

// Initiate creates a CAPTURE order. The order id is the donation reference and the
// approve link is where the donor is sent.
func (p *PayPal) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if err := requirePositive(req.Amount); err != nil {
		return nil, err
	}
	if err := requireCurrency(p.Method(), req.Currency); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{{
			"description": req.Description,
			"custom_id":   req.Metadata["campaign_id"],
			"amount": map[string]string{
				"currency_code": "USD",
				"value":         shared.Quantize(req.Amount).StringFixed(2),
			},
		}},
		"application_context": map[string]string{
			"return_url": p.returnURL,
			"cancel_url": p.cancelURL,
		},
	}

	var order paypalOrder
	status, err := doJSON(ctx, p.client, http.MethodPost, p.baseURL+"/v2/checkout/orders", nil, body, &order)
	if err != nil {
		p.logger.Error("PayPal order creation failed", "status", status, "error", err)
		if status >= 400 && status < 500 {
			return nil, fmt.Errorf("paypal order creation: %w: %v", shared.ErrProviderRejected, err)
		}
		return nil, fmt.Errorf("paypal order creation: %w", err)
	}

	result := &InitiateResult{Reference: order.ID}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			result.RedirectURL = link.Href
		}
	}
	p.logger.Info("PayPal order created", "reference", order.ID)
	return result, nil
}

// Verify captures the approved order. PayPal answers 422 both when the donor never
// approved and when the order was captured earlier; the order is looked up to tell
// the two apart.
func (p *PayPal) Verify(ctx context.Context, reference string) (*Settlement, error) {
	orderURL := fmt.Sprintf("%s/v2/checkout/orders/%s", p.baseURL, url.PathEscape(reference))

	var order paypalOrder
	status, err := doJSON(ctx, p.client, http.MethodPost, orderURL+"/capture", nil, struct{}{}, &order)
	if err != nil {
		p.logger.Warn("PayPal capture failed", "reference", reference, "status", status, "error", err)
		if status == http.StatusUnprocessableEntity {
			if captured, ok := p.capturedOrder(ctx, orderURL); ok {
				p.logger.Info("PayPal order was already captured", "reference", reference)
				return captured.settlement(reference), nil
			}
		}
		if status == http.StatusUnprocessableEntity || status == http.StatusNotFound {
			return nil, fmt.Errorf("paypal capture %s: %w: %v", reference, shared.ErrProviderRejected, err)
		}
		return nil, fmt.Errorf("paypal capture %s: %w", reference, err)
	}
	return order.settlement(reference), nil
}

// capturedOrder fetches the order and reports whether it is already COMPLETED.
func (p *PayPal) capturedOrder(ctx context.Context, orderURL string) (*paypalOrder, bool) {
	var order paypalOrder
	if _, err := doJSON(ctx, p.client, http.MethodGet, orderURL, nil, nil, &order); err != nil {
		return nil, false
	}
	return &order, order.Status == "COMPLETED"
}

func (o *paypalOrder) settlement(reference string) *Settlement {
	settlement := &Settlement{Reference: reference, Currency: shared.CurrencyUSD}
	for _, unit := range o.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			settlement.Amount = settlement.Amount.Add(capture.Amount.Value)
		}
	}
	return settlement
}

// Transfer sends a single-item payout to an email address.
func (p *PayPal) Transfer(ctx context.Context, amount decimal.Decimal, currency shared.Currency, recipient string) (*TransferResult, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	if err := requireCurrency(p.Method(), currency); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	value := shared.Quantize(amount).StringFixed(2)
	body := map[string]interface{}{
		"sender_batch_header": map[string]string{
			"sender_batch_id": batchID,
			"email_subject":   "You have received a campaign withdrawal",
		},
		"items": []map[string]interface{}{{
			"recipient_type": "EMAIL",
			"receiver":       recipient,
			"amount":         map[string]string{"value": value, "currency": "USD"},
		}},
	}

	var out struct {
		BatchHeader struct {
			PayoutBatchID string `json:"payout_batch_id"`
		} `json:"batch_header"`
	}
	if _, err := doJSON(ctx, p.client, http.MethodPost, p.baseURL+"/v1/payments/payouts", nil, body, &out); err != nil {
		p.logger.Error("PayPal payout failed", "recipient", recipient, "amount", value, "error", err)
		return nil, fmt.Errorf("paypal payout: %w: %v", shared.ErrTransferFailed, err)
	}

	return &TransferResult{
		Reference: out.BatchHeader.PayoutBatchID,
		Amount:    shared.Quantize(amount),
		Currency:  shared.CurrencyUSD,
		Recipient: recipient,
	}, nil
}
