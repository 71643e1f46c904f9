package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"github.com/kevin07696/payment-experience/internal/domain"
	"go.uber.org/zap"
)

// NewInstrumentService creates an in-memory InstrumentServiceAccessor
// for development and testing. Request details can steer the outcome:
//   - details["mockError"]: returned as a service error code
//   - details["mockPendingOn"]: instrument comes back pending on this state
func NewInstrumentService(logger *zap.Logger) ports.InstrumentServiceAccessor {
	logger.Warn("Using MOCK instrument service - NOT for production use!")
	return &instrumentService{
		logger:      logger,
		instruments: make(map[string]*domain.PaymentInstrument),
	}
}

type instrumentService struct {
	mu          sync.Mutex
	logger      *zap.Logger
	instruments map[string]*domain.PaymentInstrument
}

func (s *instrumentService) PostPaymentInstrument(ctx context.Context, accountID string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error) {
	if serviceErr := mockServiceError(request); serviceErr != nil {
		return nil, serviceErr, nil
	}

	pi := &domain.PaymentInstrument{
		PaymentInstrumentID: uuid.NewString(),
		AccountID:           accountID,
		Status:              domain.StatusActive,
		PaymentMethod: &domain.PaymentMethod{
			Family: request.PaymentMethodFamily,
			Type:   request.PaymentMethodType,
		},
		Details: &domain.PaymentInstrumentDetails{},
	}

	if pendingOn := mockDetail(request, "mockPendingOn"); pendingOn != "" {
		pi.Status = domain.StatusPending
		pi.Details.PendingOn = pendingOn
	}

	s.mu.Lock()
	s.instruments[pi.PaymentInstrumentID] = pi
	s.mu.Unlock()

	s.logger.Debug("Mock instrument created",
		zap.String("account_id", accountID),
		zap.String("pi_id", pi.PaymentInstrumentID),
		zap.String("status", pi.Status),
	)
	return pi, nil, nil
}

func (s *instrumentService) UpdatePaymentInstrument(ctx context.Context, accountID, piid string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error) {
	if serviceErr := mockServiceError(request); serviceErr != nil {
		return nil, serviceErr, nil
	}
	return s.lookup(piid)
}

func (s *instrumentService) ResumePendingOperation(ctx context.Context, accountID, piid string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error) {
	if serviceErr := mockServiceError(request); serviceErr != nil {
		return nil, serviceErr, nil
	}

	pi, serviceErr, err := s.lookup(piid)
	if pi != nil {
		pi.Status = domain.StatusActive
		pi.Details = &domain.PaymentInstrumentDetails{}
	}
	return pi, serviceErr, err
}

func (s *instrumentService) lookup(piid string) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi, ok := s.instruments[piid]
	if !ok {
		return nil, nil, fmt.Errorf("mock instrument not found: %s", piid)
	}
	return pi, nil, nil
}

func mockServiceError(request *domain.PaymentInstrumentRequest) *domain.ServiceErrorResponse {
	code := mockDetail(request, "mockError")
	if code == "" {
		return nil
	}
	return &domain.ServiceErrorResponse{
		ErrorCode: code,
		Message:   domain.DetailPlaceholderMessage,
	}
}

func mockDetail(request *domain.PaymentInstrumentRequest, key string) string {
	if request == nil || request.Details == nil {
		return ""
	}
	value, _ := request.Details[key].(string)
	return value
}
