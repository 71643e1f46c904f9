package lifecycle

import (
	"testing"

	"github.com/kevin07696/payment-experience/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingInstrument(family, piType, pendingOn string) *domain.PaymentInstrument {
	return &domain.PaymentInstrument{
		PaymentInstrumentID: "pi-123",
		Status:              domain.StatusPending,
		PaymentMethod:       &domain.PaymentMethod{Family: family, Type: piType},
		Details:             &domain.PaymentInstrumentDetails{PendingOn: pendingOn},
	}
}

func requireSinglePidl(t *testing.T, action *domain.ClientAction) *domain.PidlResource {
	t.Helper()
	require.NotNil(t, action)
	require.Equal(t, domain.ClientActionPidl, action.ActionType)
	pidls, ok := action.Context.([]*domain.PidlResource)
	require.True(t, ok, "Pidl action context must be a pidl list")
	require.Len(t, pidls, 1)
	return pidls[0]
}

// TestSetClientAction_IdealRedirectFullPidl verifies non-inline partners
// get the redirect URL plus a full redirect PIDL
func TestSetClientAction_IdealRedirectFullPidl(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyEwallet, domain.TypeIdealBillingAgreement, domain.PendingOnRedirect)
	pi.Details.RedirectURL = "https://bank.example.com/authorize"

	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument:  pi,
		Partner:     "wallet",
		RequestType: domain.RequestTypeAddPI,
	})
	require.NoError(t, err)

	require.NotNil(t, pi.ClientAction)
	assert.Equal(t, domain.ClientActionRedirect, pi.ClientAction.ActionType)
	assert.Equal(t, "https://bank.example.com/authorize", pi.ClientAction.Context)

	require.Len(t, pi.ClientAction.RedirectPidl, 1)
	pidl := pi.ClientAction.RedirectPidl[0]
	assert.Equal(t, PidlTypeIdealRedirect, pidl.Identity["type"])
	require.Len(t, pidl.DisplayPages, 1)
	assert.NotEmpty(t, pidl.DisplayPages[0].Members)
}

// TestSetClientAction_IdealRedirectClearedPidl verifies partners that
// render part of the flow inline get the PIDL with emptied members
func TestSetClientAction_IdealRedirectClearedPidl(t *testing.T) {
	manager := newTestStateManager(t)

	for _, partner := range []string{"webblends_inline", "oxowebdirect"} {
		pi := pendingInstrument(domain.FamilyEwallet, domain.TypeIdealBillingAgreement, domain.PendingOnRedirect)
		pi.Details.RedirectURL = "https://bank.example.com/authorize"

		err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
			Instrument: pi,
			Partner:    partner,
		})
		require.NoError(t, err)

		require.Len(t, pi.ClientAction.RedirectPidl, 1)
		pidl := pi.ClientAction.RedirectPidl[0]
		require.Len(t, pidl.DisplayPages, 1)
		assert.Empty(t, pidl.DisplayPages[0].Members, "partner %s must get a cleared redirect PIDL", partner)
	}
}

// TestSetClientAction_IdealRedirectInlinePartnerNoPidl verifies fully
// inline partners get only the redirect URL
func TestSetClientAction_IdealRedirectInlinePartnerNoPidl(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyEwallet, domain.TypeIdealBillingAgreement, domain.PendingOnRedirect)
	pi.Details.RedirectURL = "https://bank.example.com/authorize"

	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument: pi,
		Partner:    "cart",
	})
	require.NoError(t, err)

	require.NotNil(t, pi.ClientAction)
	assert.Equal(t, domain.ClientActionRedirect, pi.ClientAction.ActionType)
	assert.Nil(t, pi.ClientAction.RedirectPidl)
}

// TestSetClientAction_SmsChallenge verifies the SMS challenge PIDL for
// every method in the SMS group
func TestSetClientAction_SmsChallenge(t *testing.T) {
	manager := newTestStateManager(t)

	instruments := []*domain.PaymentInstrument{
		pendingInstrument(domain.FamilyCreditCard, domain.TypeUnionPayCreditCard, domain.PendingOnSms),
		pendingInstrument(domain.FamilyCreditCard, domain.TypeUnionPayDebitCard, domain.PendingOnSms),
		pendingInstrument(domain.FamilyEwallet, domain.TypeAlipayBillingAgreement, domain.PendingOnSms),
		pendingInstrument(domain.FamilyMobileBillingNonSim, "vodafone_uk", domain.PendingOnSms),
	}

	for _, pi := range instruments {
		err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{Instrument: pi})
		require.NoError(t, err)

		pidl := requireSinglePidl(t, pi.ClientAction)
		assert.Equal(t, PidlTypeSmsChallenge, pidl.Identity["type"])
		assert.Equal(t, "challenge", pidl.Identity["description_type"])
	}
}

// TestSetClientAction_SmsNullPendingOn verifies a pending instrument with
// no pendingOn fails as an integration error
func TestSetClientAction_SmsNullPendingOn(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyCreditCard, domain.TypeUnionPayCreditCard, "")
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{Instrument: pi})

	require.Error(t, err)
	assert.True(t, domain.IsIntegrationError(err))
	assert.Equal(t, domain.ErrorCodeInvalidPendingOnType, domain.GetErrorCode(err))
	assert.Contains(t, err.Error(), "The state of the PI is set to pending but the pendingOn is null")
	assert.Nil(t, pi.ClientAction)
}

// TestSetClientAction_SmsUnexpectedPendingOn verifies a non-SMS pending
// state fails with the actual state in the message
func TestSetClientAction_SmsUnexpectedPendingOn(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyCreditCard, domain.TypeUnionPayCreditCard, domain.PendingOnPicv)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{Instrument: pi})

	require.Error(t, err)
	assert.True(t, domain.IsIntegrationError(err))
	assert.Contains(t, err.Error(), "The state of PI was expected to be pending on SMS. Actual state picv")
}

// TestSetClientAction_AchPicvAdd verifies the static instruction page on add
func TestSetClientAction_AchPicvAdd(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyDirectDebit, domain.TypeACH, domain.PendingOnPicv)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument:  pi,
		RequestType: domain.RequestTypeAddPI,
	})
	require.NoError(t, err)

	pidl := requireSinglePidl(t, pi.ClientAction)
	assert.Equal(t, PidlTypeAchPicvStatic, pidl.Identity["type"])
	assert.Equal(t, "static", pidl.Identity["description_type"])
}

// TestSetClientAction_AchPicvGet verifies the challenge page carries the
// remaining attempt count
func TestSetClientAction_AchPicvGet(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyDirectDebit, domain.TypeACH, domain.PendingOnPicv)
	pi.Details.PicvDetails = &domain.PicvDetails{RemainingAttempts: 3}

	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument:  pi,
		RequestType: domain.RequestTypeGetPI,
	})
	require.NoError(t, err)

	pidl := requireSinglePidl(t, pi.ClientAction)
	assert.Equal(t, PidlTypeAchPicvChallenge, pidl.Identity["type"])
	assert.Equal(t, "challenge", pidl.Identity["description_type"])
	assert.Equal(t, 3, pidl.MaxAttempts)
}

// TestSetClientAction_AchPicvUnexpectedRequestType verifies other request
// types fail as integration errors
func TestSetClientAction_AchPicvUnexpectedRequestType(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyDirectDebit, domain.TypeACH, domain.PendingOnPicv)
	err := manager.SetClientAction(domain.ActionUpdatePaymentInstrument, &ClientActionState{
		Instrument:  pi,
		RequestType: domain.RequestTypeUpdatePI,
	})

	require.Error(t, err)
	assert.True(t, domain.IsIntegrationError(err))
	assert.Contains(t, err.Error(), "The operation type of PI was expected to be addPI or getPI. Actual operation type updatePI")
}

// TestSetClientAction_AchNonPicvPendingIgnored verifies ach only reacts to
// the picv pending state
func TestSetClientAction_AchNonPicvPendingIgnored(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyDirectDebit, domain.TypeACH, domain.PendingOnRedirect)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument:  pi,
		RequestType: domain.RequestTypeAddPI,
	})

	require.NoError(t, err)
	assert.Nil(t, pi.ClientAction)
}

// TestSetClientAction_SepaPicv verifies the sepa challenge page
func TestSetClientAction_SepaPicv(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyDirectDebit, domain.TypeSepa, domain.PendingOnPicv)
	pi.Details.PicvDetails = &domain.PicvDetails{RemainingAttempts: 2}

	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument:  pi,
		RequestType: domain.RequestTypeAddPI,
	})
	require.NoError(t, err)

	pidl := requireSinglePidl(t, pi.ClientAction)
	assert.Equal(t, PidlTypeSepaPicvChallenge, pidl.Identity["type"])
	assert.Equal(t, 2, pidl.MaxAttempts)
}

// TestSetClientAction_SepaRedirect verifies the redirection link and the
// cleared static PIDL, attached no matter the partner
func TestSetClientAction_SepaRedirect(t *testing.T) {
	manager := newTestStateManager(t)

	for _, partner := range []string{"wallet", "cart", "webblends_inline"} {
		pi := pendingInstrument(domain.FamilyDirectDebit, domain.TypeSepa, domain.PendingOnRedirect)
		pi.Details.PicvRequired = true

		err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
			Instrument: pi,
			Partner:    partner,
		})
		require.NoError(t, err)

		require.NotNil(t, pi.ClientAction)
		assert.Equal(t, domain.ClientActionRedirect, pi.ClientAction.ActionType)

		link, ok := pi.ClientAction.Context.(*domain.RedirectionServiceLink)
		require.True(t, ok)
		assert.Equal(t, "https://redirect.example.com/pending/pi-123", link.BaseUrl)
		assert.Equal(t, "pi-123", link.RuParameters["id"])
		assert.Equal(t, domain.FamilyDirectDebit, link.RuParameters["family"])
		assert.Equal(t, domain.TypeSepa, link.RuParameters["type"])
		assert.Equal(t, domain.PendingOnRedirect, link.RuParameters["pendingOn"])
		assert.Equal(t, "true", link.RuParameters["picvRequired"])

		require.Len(t, pi.ClientAction.RedirectPidl, 1, "partner %s must get the static PIDL", partner)
		pidl := pi.ClientAction.RedirectPidl[0]
		assert.Equal(t, PidlTypeSepaPicvStatic, pidl.Identity["type"])
		require.Len(t, pidl.DisplayPages, 1)
		assert.Empty(t, pidl.DisplayPages[0].Members)
	}
}

// TestSetClientAction_SepaUnexpectedPendingOn verifies other pending
// states fail as integration errors
func TestSetClientAction_SepaUnexpectedPendingOn(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyDirectDebit, domain.TypeSepa, domain.PendingOnSms)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{Instrument: pi})

	require.Error(t, err)
	assert.True(t, domain.IsIntegrationError(err))
	assert.Contains(t, err.Error(), "The state of PI was expected to be pending on PICV or Redirect. Actual state sms")
}

// TestSetClientAction_PaypalGetAgreementUpdate verifies the agreement
// update challenge on reads
func TestSetClientAction_PaypalGetAgreementUpdate(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyEwallet, domain.TypePaypal, domain.PendingOnAgreementUpdate)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument:  pi,
		RequestType: domain.RequestTypeGetPI,
	})
	require.NoError(t, err)

	pidl := requireSinglePidl(t, pi.ClientAction)
	assert.Equal(t, PidlTypePaypalUpdateAgreement, pidl.Identity["type"])
}

// TestSetClientAction_PaypalGetOtherPending verifies the retry page for
// any other pending state on reads
func TestSetClientAction_PaypalGetOtherPending(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyEwallet, domain.TypePaypal, domain.PendingOnRedirect)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument:  pi,
		RequestType: domain.RequestTypeGetPI,
	})
	require.NoError(t, err)

	pidl := requireSinglePidl(t, pi.ClientAction)
	assert.Equal(t, PidlTypePaypalRetryStatic, pidl.Identity["type"])
}

// TestSetClientAction_PaypalAddRedirects verifies writes produce a
// redirection link with no redirect PIDL
func TestSetClientAction_PaypalAddRedirects(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyEwallet, domain.TypePaypal, domain.PendingOnRedirect)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument:  pi,
		RequestType: domain.RequestTypeAddPI,
		Partner:     "wallet",
	})
	require.NoError(t, err)

	require.NotNil(t, pi.ClientAction)
	assert.Equal(t, domain.ClientActionRedirect, pi.ClientAction.ActionType)
	_, ok := pi.ClientAction.Context.(*domain.RedirectionServiceLink)
	assert.True(t, ok)
	assert.Nil(t, pi.ClientAction.RedirectPidl)
}

// TestSetClientAction_AmexIndiaRedirects verifies the India-only amex redirect
func TestSetClientAction_AmexIndiaRedirects(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyCreditCard, domain.TypeAmex, domain.PendingOnRedirect)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument: pi,
		Country:    "IN",
	})
	require.NoError(t, err)

	require.NotNil(t, pi.ClientAction)
	assert.Equal(t, domain.ClientActionRedirect, pi.ClientAction.ActionType)
	_, ok := pi.ClientAction.Context.(*domain.RedirectionServiceLink)
	assert.True(t, ok)
	assert.Nil(t, pi.ClientAction.RedirectPidl)
}

// TestSetClientAction_AmexOutsideIndiaIgnored verifies no action elsewhere
func TestSetClientAction_AmexOutsideIndiaIgnored(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyCreditCard, domain.TypeAmex, domain.PendingOnRedirect)
	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{
		Instrument: pi,
		Country:    "us",
	})

	require.NoError(t, err)
	assert.Nil(t, pi.ClientAction)
}

// TestSetClientAction_NonPendingIgnored verifies only pending instruments
// receive client actions
func TestSetClientAction_NonPendingIgnored(t *testing.T) {
	manager := newTestStateManager(t)

	pi := pendingInstrument(domain.FamilyCreditCard, domain.TypeUnionPayCreditCard, domain.PendingOnSms)
	pi.Status = domain.StatusActive

	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{Instrument: pi})

	require.NoError(t, err)
	assert.Nil(t, pi.ClientAction)
}

// TestSetClientAction_NilInstrumentIsNoop verifies defensive handling
func TestSetClientAction_NilInstrumentIsNoop(t *testing.T) {
	manager := newTestStateManager(t)

	err := manager.SetClientAction(domain.ActionPostPaymentInstrument, &ClientActionState{})
	assert.NoError(t, err)
}
