package shipment

import "context"

// CarrierGateway is the external rate/label provider.
// Every method may block on the network and must honour ctx cancellation.
type CarrierGateway interface {
	// CreateQuote creates a provider-side quote and returns its rate options.
	CreateQuote(ctx context.Context, req QuoteRequest) (*Quote, error)

	// Purchase buys a label for the given rate on an existing quote.
	Purchase(ctx context.Context, quoteID, rateID string) (*Label, error)

	// VerifyAddress verifies and corrects a postal address.
	// carrierHint lets the provider apply carrier-specific address rules.
	VerifyAddress(ctx context.Context, addr Address, carrierHint string) (*Verification, error)

	// RetrieveQuote fetches an existing quote by id.
	RetrieveQuote(ctx context.Context, quoteID string) (*Quote, error)
}
