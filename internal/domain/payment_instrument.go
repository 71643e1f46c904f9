package domain

// PaymentMethod identifies the family and type of a payment instrument.
type PaymentMethod struct {
	Family string `json:"paymentMethodFamily"`
	Type   string `json:"paymentMethodType"`
}

// PicvDetails carries the state of a pending PICV (penny-test) challenge.
type PicvDetails struct {
	RemainingAttempts int `json:"remainingAttempts"`
}

// PaymentInstrumentDetails holds the mutable detail block returned by the
// instrument management service.
type PaymentInstrumentDetails struct {
	PendingOn    string       `json:"pendingOn,omitempty"`
	RedirectURL  string       `json:"redirectUrl,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	PicvRequired bool         `json:"picvRequired,omitempty"`
	PicvDetails  *PicvDetails `json:"picvDetails,omitempty"`
}

// PaymentInstrument is the resource whose lifecycle this service manages.
type PaymentInstrument struct {
	PaymentInstrumentID string                    `json:"id"`
	AccountID           string                    `json:"accountId,omitempty"`
	Status              string                    `json:"status"`
	PaymentMethod       *PaymentMethod            `json:"paymentMethod,omitempty"`
	Details             *PaymentInstrumentDetails `json:"details,omitempty"`
	ClientAction        *ClientAction             `json:"clientAction,omitempty"`
}

// Family returns the payment method family, or empty when absent.
func (pi *PaymentInstrument) Family() string {
	if pi.PaymentMethod == nil {
		return ""
	}
	return pi.PaymentMethod.Family
}

// Type returns the payment method type, or empty when absent.
func (pi *PaymentInstrument) Type() string {
	if pi.PaymentMethod == nil {
		return ""
	}
	return pi.PaymentMethod.Type
}

// PendingOn returns the pending-on state, or empty when absent.
func (pi *PaymentInstrument) PendingOn() string {
	if pi.Details == nil {
		return ""
	}
	return pi.Details.PendingOn
}

// PaymentInstrumentRequest is the body accepted by the add/update
// instrument operations.
type PaymentInstrumentRequest struct {
	PaymentMethodFamily string                 `json:"paymentMethodFamily"`
	PaymentMethodType   string                 `json:"paymentMethodType"`
	Details             map[string]interface{} `json:"details,omitempty"`
}
