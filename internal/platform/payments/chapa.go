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

	"github.com/crowdfunding-ledger/internal/config"
	"github.com/crowdfunding-ledger/internal/domain/shared"
)

type chapaEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Chapa settles birr donations through a hosted checkout. The tx_ref generated at
// initialization is the donation reference.
type Chapa struct {
	logger      *slog.Logger
	client      *http.Client
	baseURL     string
	secretKey   string
	callbackURL string
}

var _ Provider = (*Chapa)(nil)

func NewChapa(logger *slog.Logger, cfg *config.PaymentsConfig) *Chapa {
	return &Chapa{
		logger:      logger,
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:     strings.TrimRight(cfg.ChapaBaseURL, "/"),
		secretKey:   cfg.ChapaSecretKey,
		callbackURL: cfg.ChapaCallbackURL,
	}
}

func (c *Chapa) Method() shared.PaymentMethod { return shared.PaymentMethodChapa }

func (c *Chapa) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.secretKey)
	return h
}

func (c *Chapa) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if err := requirePositive(req.Amount); err != nil {
		return nil, err
	}
	if err := requireCurrency(c.Method(), req.Currency); err != nil {
		return nil, err
	}

	txRef := "CHP-" + uuid.NewString()
	body := map[string]string{
		"amount":       shared.Quantize(req.Amount).StringFixed(2),
		"currency":     "ETB",
		"tx_ref":       txRef,
		"callback_url": c.callbackURL,
	}
	if strings.Contains(req.Contact, "@") {
		body["email"] = req.Contact
	} else if req.Contact != "" {
		body["phone_number"] = req.Contact
	}

	var out struct {
		chapaEnvelope
		Data struct {
			CheckoutURL string `json:"checkout_url"`
		} `json:"data"`
	}
	status, err := doJSON(ctx, c.client, http.MethodPost, c.baseURL+"/v1/transaction/initialize", c.header(), body, &out)
	if err != nil {
		c.logger.Error("Chapa initialization failed", "tx_ref", txRef, "status", status, "error", err)
		if status >= 400 && status < 500 {
			return nil, fmt.Errorf("chapa initialize: %w: %v", shared.ErrProviderRejected, err)
		}
		return nil, fmt.Errorf("chapa initialize: %w", err)
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("chapa initialize: %w: %s", shared.ErrProviderRejected, out.Message)
	}
	return &InitiateResult{Reference: txRef, RedirectURL: out.Data.CheckoutURL}, nil
}

func (c *Chapa) Verify(ctx context.Context, reference string) (*Settlement, error) {
	var out struct {
		chapaEnvelope
		Data struct {
			Status   string          `json:"status"`
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		} `json:"data"`
	}
	endpoint := c.baseURL + "/v1/transaction/verify/" + url.PathEscape(reference)
	status, err := doJSON(ctx, c.client, http.MethodGet, endpoint, c.header(), nil, &out)
	if err != nil {
		c.logger.Warn("Chapa verification failed", "tx_ref", reference, "status", status, "error", err)
		if status >= 400 && status < 500 {
			return nil, fmt.Errorf("chapa verify %s: %w: %v", reference, shared.ErrProviderRejected, err)
		}
		return nil, fmt.Errorf("chapa verify %s: %w", reference, err)
	}
	if out.Status != "success" || out.Data.Status != "success" {
		return nil, fmt.Errorf("chapa verify %s: payment status %q: %w", reference, out.Data.Status, shared.ErrProviderRejected)
	}
	return &Settlement{Reference: reference, Amount: shared.Quantize(out.Data.Amount), Currency: shared.CurrencyBirr}, nil
}

func (c *Chapa) Transfer(ctx context.Context, amount decimal.Decimal, currency shared.Currency, recipient string) (*TransferResult, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	if err := requireCurrency(c.Method(), currency); err != nil {
		return nil, err
	}

	reference := "CHP-TR-" + uuid.NewString()
	value := shared.Quantize(amount).StringFixed(2)
	body := map[string]string{
		"account_name":   recipient,
		"account_number": recipient,
		"amount":         value,
		"currency":       "ETB",
		"reference":      reference,
	}

	var out chapaEnvelope
	if _, err := doJSON(ctx, c.client, http.MethodPost, c.baseURL+"/v1/transfers", c.header(), body, &out); err != nil {
		c.logger.Error("Chapa transfer failed", "recipient", recipient, "amount", value, "error", err)
		return nil, fmt.Errorf("chapa transfer: %w: %v", shared.ErrTransferFailed, err)
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("chapa transfer: %w: %s", shared.ErrTransferFailed, out.Message)
	}
	return &TransferResult{Reference: reference, Amount: shared.Quantize(amount), Currency: shared.CurrencyBirr, Recipient: recipient}, nil
}
