package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kevin07696/payment-experience/internal/domain"
	"go.uber.org/zap"
)

// Localizer resolves canonical strings to the caller's language.
type Localizer interface {
	GetLocalizedString(canonical, languageTag string) string
}

// ErrorState is the input to SetError: the service error to reshape plus
// the payment method context that selects the rule.
type ErrorState struct {
	Family   string
	Type     string
	Language string
	Response *domain.ServiceErrorResponse
}

// ClientActionState is the input to SetClientAction.
type ClientActionState struct {
	Instrument  *domain.PaymentInstrument
	Partner     string
	Country     string
	Language    string
	RequestType string
}

// StateManager reshapes upstream outcomes into client-facing state: it
// maps raw service errors to actionable messages and attaches the client
// action that continues a pending instrument flow. Instances are
// constructed once at startup and injected; all state is immutable after
// construction, so a single instance serves concurrent requests.
type StateManager struct {
	rules           *RuleTable
	localizer       Localizer
	pidls           *PidlFactory
	redirectBaseURL string
	logger          *zap.Logger
}

// NewStateManager creates a state manager.
func NewStateManager(rules *RuleTable, localizer Localizer, redirectBaseURL string, logger *zap.Logger) *StateManager {
	return &StateManager{
		rules:           rules,
		localizer:       localizer,
		pidls:           NewPidlFactory(),
		redirectBaseURL: strings.TrimRight(redirectBaseURL, "/"),
		logger:          logger,
	}
}

// SetError rewrites state.Response in place according to the rule table.
// A detail rule appends one targeted entry to Details and leaves the
// top-level message alone; a message rule replaces the top-level message
// and drops Details. Unmatched errors fall through to the generic rule,
// so the client always receives something actionable.
func (m *StateManager) SetError(ctx context.Context, action string, state *ErrorState) {
	if state == nil || state.Response == nil {
		return
	}

	piType := state.Type
	if piType == "" {
		piType = domain.TypeEmpty
	}

	errorCode := state.Response.ErrorCode
	rule := m.rules.Resolve(action, state.Family, piType, errorCode)
	if rule == nil {
		// Only possible with a hand-built table missing its generic row
		m.logger.Error("No error rule resolved",
			zap.String("action", action),
			zap.String("error_code", errorCode),
		)
		return
	}

	localized := m.localizer.GetLocalizedString(rule.Message, state.Language)

	switch rule.Shape {
	case shapeDetail:
		if state.Response.Message == "" {
			state.Response.Message = domain.DetailPlaceholderMessage
		}
		state.Response.Details = append(state.Response.Details, domain.ServiceErrorDetail{
			ErrorCode: errorCode,
			Message:   localized,
			Target:    rule.Target,
		})
	case shapeMessage:
		state.Response.Message = localized
		state.Response.Details = nil
	}

	m.logger.Info("Service error mapped",
		zap.String("action", action),
		zap.String("family", state.Family),
		zap.String("type", piType),
		zap.String("error_code", errorCode),
		zap.String("shape", rule.Shape),
	)
}

// SetClientAction attaches the next-step client action to a pending
// payment instrument. A returned IntegrationError means the upstream
// resource is in a shape the rules do not recognize; the request should
// fail rather than guess.
func (m *StateManager) SetClientAction(action string, state *ClientActionState) error {
	pi := state.Instrument
	if pi == nil || pi.Status != domain.StatusPending {
		return nil
	}

	switch {
	case pi.Type() == domain.TypeIdealBillingAgreement:
		m.applyIdealRedirect(state)
	case isSmsChallengeMethod(pi):
		return m.applySmsChallenge(state)
	case pi.Type() == domain.TypeACH:
		return m.applyAchPicv(state)
	case pi.Type() == domain.TypeSepa:
		return m.applySepa(state)
	case pi.Type() == domain.TypePaypal:
		m.applyPaypal(state)
	case pi.Family() == domain.FamilyCreditCard && pi.Type() == domain.TypeAmex && strings.EqualFold(state.Country, "in"):
		pi.ClientAction = &domain.ClientAction{
			ActionType: domain.ClientActionRedirect,
			Context:    m.redirectionLink(pi),
		}
	}

	return nil
}

// isSmsChallengeMethod covers the methods whose pending state is resolved
// by an SMS challenge.
func isSmsChallengeMethod(pi *domain.PaymentInstrument) bool {
	if pi.Family() == domain.FamilyMobileBillingNonSim {
		return true
	}
	switch pi.Type() {
	case domain.TypeUnionPayCreditCard, domain.TypeUnionPayDebitCard, domain.TypeAlipayBillingAgreement:
		return true
	}
	return false
}

// applyIdealRedirect redirects to the bank, attaching a redirect PIDL
// shaped to how much of the flow the partner renders itself.
func (m *StateManager) applyIdealRedirect(state *ClientActionState) {
	pi := state.Instrument

	redirectURL := ""
	if pi.Details != nil {
		redirectURL = pi.Details.RedirectURL
	}

	clientAction := &domain.ClientAction{
		ActionType: domain.ClientActionRedirect,
		Context:    redirectURL,
	}

	switch {
	case !domain.IsInlinePartner(state.Partner):
		clientAction.RedirectPidl = []*domain.PidlResource{m.pidls.StaticPidl(PidlTypeIdealRedirect)}
	case state.Partner == "webblends_inline" || state.Partner == "oxowebdirect":
		pidl := m.pidls.StaticPidl(PidlTypeIdealRedirect)
		pidl.ClearDisplayMembers()
		clientAction.RedirectPidl = []*domain.PidlResource{pidl}
	}

	pi.ClientAction = clientAction
}

func (m *StateManager) applySmsChallenge(state *ClientActionState) error {
	pi := state.Instrument

	pendingOn := pi.PendingOn()
	switch {
	case pendingOn == "":
		return domain.NewIntegrationError(domain.ErrorCodeInvalidPendingOnType,
			"The state of the PI is set to pending but the pendingOn is null")
	case strings.EqualFold(pendingOn, domain.PendingOnSms):
		pi.ClientAction = &domain.ClientAction{
			ActionType: domain.ClientActionPidl,
			Context:    []*domain.PidlResource{m.pidls.ChallengePidl(PidlTypeSmsChallenge, 0)},
		}
		return nil
	default:
		return domain.NewIntegrationError(domain.ErrorCodeInvalidPendingOnType,
			fmt.Sprintf("The state of PI was expected to be pending on SMS. Actual state %s", pendingOn))
	}
}

func (m *StateManager) applyAchPicv(state *ClientActionState) error {
	pi := state.Instrument

	if !strings.EqualFold(pi.PendingOn(), domain.PendingOnPicv) {
		return nil
	}

	switch state.RequestType {
	case domain.RequestTypeAddPI:
		pi.ClientAction = &domain.ClientAction{
			ActionType: domain.ClientActionPidl,
			Context:    []*domain.PidlResource{m.pidls.StaticPidl(PidlTypeAchPicvStatic)},
		}
		return nil
	case domain.RequestTypeGetPI:
		pi.ClientAction = &domain.ClientAction{
			ActionType: domain.ClientActionPidl,
			Context:    []*domain.PidlResource{m.pidls.ChallengePidl(PidlTypeAchPicvChallenge, remainingAttempts(pi))},
		}
		return nil
	default:
		return domain.NewIntegrationError(domain.ErrorCodeInvalidPendingOnType,
			fmt.Sprintf("The operation type of PI was expected to be addPI or getPI. Actual operation type %s", state.RequestType))
	}
}

func (m *StateManager) applySepa(state *ClientActionState) error {
	pi := state.Instrument

	pendingOn := pi.PendingOn()
	switch {
	case strings.EqualFold(pendingOn, domain.PendingOnPicv):
		pi.ClientAction = &domain.ClientAction{
			ActionType: domain.ClientActionPidl,
			Context:    []*domain.PidlResource{m.pidls.ChallengePidl(PidlTypeSepaPicvChallenge, remainingAttempts(pi))},
		}
		return nil
	case strings.EqualFold(pendingOn, domain.PendingOnRedirect):
		pidl := m.pidls.StaticPidl(PidlTypeSepaPicvStatic)
		pidl.ClearDisplayMembers()
		pi.ClientAction = &domain.ClientAction{
			ActionType:   domain.ClientActionRedirect,
			Context:      m.redirectionLink(pi),
			RedirectPidl: []*domain.PidlResource{pidl},
		}
		return nil
	default:
		return domain.NewIntegrationError(domain.ErrorCodeInvalidPendingOnType,
			fmt.Sprintf("The state of PI was expected to be pending on PICV or Redirect. Actual state %s", pendingOn))
	}
}

func (m *StateManager) applyPaypal(state *ClientActionState) {
	pi := state.Instrument

	if state.RequestType == domain.RequestTypeGetPI {
		pidlType := PidlTypePaypalRetryStatic
		if strings.EqualFold(pi.PendingOn(), domain.PendingOnAgreementUpdate) {
			pidlType = PidlTypePaypalUpdateAgreement
		}
		pi.ClientAction = &domain.ClientAction{
			ActionType: domain.ClientActionPidl,
			Context:    []*domain.PidlResource{m.pidls.ChallengePidl(pidlType, 0)},
		}
		return
	}

	pi.ClientAction = &domain.ClientAction{
		ActionType: domain.ClientActionRedirect,
		Context:    m.redirectionLink(pi),
	}
}

// redirectionLink builds the redirection service link with the ru
// parameters needed to resume the flow after the redirect returns.
func (m *StateManager) redirectionLink(pi *domain.PaymentInstrument) *domain.RedirectionServiceLink {
	picvRequired := false
	if pi.Details != nil {
		picvRequired = pi.Details.PicvRequired
	}

	return &domain.RedirectionServiceLink{
		BaseUrl: fmt.Sprintf("%s/pending/%s", m.redirectBaseURL, pi.PaymentInstrumentID),
		RuParameters: map[string]string{
			"id":           pi.PaymentInstrumentID,
			"family":       pi.Family(),
			"type":         pi.Type(),
			"pendingOn":    pi.PendingOn(),
			"picvRequired": strconv.FormatBool(picvRequired),
		},
	}
}

func remainingAttempts(pi *domain.PaymentInstrument) int {
	if pi.Details == nil || pi.Details.PicvDetails == nil {
		return 0
	}
	return pi.Details.PicvDetails.RemainingAttempts
}
