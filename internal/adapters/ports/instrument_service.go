package ports

import (
	"context"

	"github.com/kevin07696/payment-experience/internal/domain"
)

// InstrumentServiceAccessor is the port to the payment instrument
// management service that owns instrument storage and provider
// integration. A non-nil *ServiceErrorResponse is a service-level
// rejection the lifecycle rules can map; a non-nil error is a transport
// or contract failure.
type InstrumentServiceAccessor interface {
	// PostPaymentInstrument creates a payment instrument under the account.
	PostPaymentInstrument(ctx context.Context, accountID string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error)

	// UpdatePaymentInstrument updates an existing payment instrument.
	UpdatePaymentInstrument(ctx context.Context, accountID, piid string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error)

	// ResumePendingOperation submits challenge data for a pending instrument.
	ResumePendingOperation(ctx context.Context, accountID, piid string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error)
}
