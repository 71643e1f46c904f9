package domain

// Lifecycle actions map one-to-one to the externally visible operations
// that can mutate a payment instrument.
const (
	ActionPostPaymentInstrument   = "PostModernPI"
	ActionUpdatePaymentInstrument = "UpdateModernPI"
	ActionResumePendingOperation  = "ResumePendingOperation"
)

// Payment method families
const (
	FamilyCreditCard          = "credit_card"
	FamilyEwallet             = "ewallet"
	FamilyDirectDebit         = "direct_debit"
	FamilyMobileBillingNonSim = "mobile_billing_non_sim"
	FamilyRealTimePayments    = "real_time_payments"
)

// Payment method types
const (
	TypeVisa                   = "visa"
	TypeAmex                   = "amex"
	TypeUnionPayCreditCard     = "unionpay_creditcard"
	TypeUnionPayDebitCard      = "unionpay_debitcard"
	TypeAlipayBillingAgreement = "alipay_billing_agreement"
	TypeIdealBillingAgreement  = "ideal_billing_agreement"
	TypePaypal                 = "paypal"
	TypeACH                    = "ach"
	TypeSepa                   = "sepa"
	TypeUpi                    = "upi"
	TypeUpiCommercial          = "upi_commercial"

	// TypeEmpty is substituted for an absent payment method type so rule
	// lookups always have a concrete key.
	TypeEmpty = "empty"
)

// Payment instrument statuses
const (
	StatusActive   = "Active"
	StatusPending  = "Pending"
	StatusDeclined = "Declined"
)

// Pending-on states for a pending payment instrument
const (
	PendingOnSms             = "sms"
	PendingOnPicv            = "picv"
	PendingOnRedirect        = "redirect"
	PendingOnAgreementUpdate = "agreementUpdate"
)

// Request types for operations that touch a payment instrument
const (
	RequestTypeAddPI    = "addPI"
	RequestTypeGetPI    = "getPI"
	RequestTypeUpdatePI = "updatePI"
)

// Partners whose experience renders the redirect flow inline, so a full
// redirect PIDL attachment is unnecessary.
var inlinePartners = map[string]bool{
	"cart":             true,
	"webblends_inline": true,
	"webpay":           true,
	"oxowebdirect":     true,
}

// IsInlinePartner reports whether the partner renders redirects inline.
func IsInlinePartner(partner string) bool {
	return inlinePartners[partner]
}
