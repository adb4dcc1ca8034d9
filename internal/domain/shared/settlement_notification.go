package shared

import "time"

// SettlementNotification is the Kafka message emitted when a provider reports that a
// donation may have settled. The processor re-verifies with the provider before
// crediting, so the message itself carries no amount.
type SettlementNotification struct {
	ProviderReference string        `json:"provider_reference"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	CorrelationID     string        `json:"correlation_id"`
	ReceivedAt        time.Time     `json:"received_at"`
}
