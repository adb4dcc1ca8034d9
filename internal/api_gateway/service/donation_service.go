package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	funds "github.com/crowdfunding-ledger/internal/funds/service"
	"github.com/crowdfunding-ledger/internal/platform/payments"
)

type DonationServiceImpl struct {
	campaignRepo campaign.Repository
	donationRepo donation.Repository
	providers    funds.ProviderRegistry
	logger       *slog.Logger
}

func NewDonationService(logger *slog.Logger, campaignRepo campaign.Repository, donationRepo donation.Repository, providers funds.ProviderRegistry) DonationService {
	return &DonationServiceImpl{
		campaignRepo: campaignRepo,
		donationRepo: donationRepo,
		providers:    providers,
		logger:       logger,
	}
}

// InitiateDonation asks the provider to start a payment and stores the pending
// transaction under the provider's reference. Nothing is credited here; that happens
// when the settlement is confirmed.
func (s *DonationServiceImpl) InitiateDonation(ctx context.Context, in DonationInput) (*DonationReceipt, error) {
	if err := validateDonation(in); err != nil {
		return nil, err
	}

	c, err := s.campaignRepo.GetByID(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	provider, err := s.providers.Get(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	contact := donorContact(in)
	initiated, err := provider.Initiate(ctx, payments.InitiateRequest{
		Amount:      in.Amount,
		Currency:    in.PaymentMethod.Currency(),
		Contact:     contact,
		Description: "Donation to " + c.Title,
		Metadata:    map[string]string{"campaign_id": c.ID.String()},
	})
	if err != nil {
		s.logger.Warn("Provider refused to initiate donation",
			"campaign_id", c.ID.String(),
			"payment_method", in.PaymentMethod,
			"error", err,
		)
		return nil, err
	}

	tx, err := donation.NewTransaction(c.ID, initiated.Reference, in.Amount, in.PaymentMethod, contact)
	if err != nil {
		return nil, err
	}
	if err := s.donationRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Donation initiated",
		"campaign_id", c.ID.String(),
		"reference", tx.Reference,
		"payment_method", tx.PaymentMethod,
		"amount", tx.Amount.StringFixed(2),
	)
	return &DonationReceipt{Transaction: tx, RedirectURL: initiated.RedirectURL}, nil
}

func (s *DonationServiceImpl) ListDonations(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*donation.Transaction, int64, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, 0, err
	}

	txs, err := s.donationRepo.ListByCampaign(ctx, campaignID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.donationRepo.CountByCampaign(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func validateDonation(in DonationInput) error {
	switch {
	case in.CampaignID == uuid.Nil:
		return shared.NewValidationError("campaign_id", "is required")
	case !in.Amount.IsPositive():
		return shared.NewValidationError("amount", "must be positive")
	case in.PaymentMethod == "":
		return shared.NewValidationError("payment_method", "is required")
	case in.PaymentMethod == shared.PaymentMethodTelebirr && strings.TrimSpace(in.DonorPhone) == "":
		return shared.NewValidationError("donor_phone", "is required for telebirr payments")
	}
	return nil
}

func donorContact(in DonationInput) string {
	if in.PaymentMethod == shared.PaymentMethodTelebirr {
		return strings.TrimSpace(in.DonorPhone)
	}
	if email := strings.TrimSpace(in.DonorEmail); email != "" {
		return email
	}
	return strings.TrimSpace(in.DonorPhone)
}
