package domain

// Wire error codes surfaced by the instrument management service and
// mapped by the lifecycle state manager.
const (
	ServiceErrorValidationFailed             = "ValidationFailed"
	ServiceErrorInvalidPhoneValue            = "InvalidPhoneValue"
	ServiceErrorInvalidPaymentInstrumentInfo = "InvalidPaymentInstrumentInfo"
	ServiceErrorInvalidCvv                   = "InvalidCvv"
	ServiceErrorInvalidExpiryDate            = "InvalidExpiryDate"
	ServiceErrorExpiredCard                  = "ExpiredCard"
	ServiceErrorInvalidChallengeCode         = "InvalidChallengeCode"
	ServiceErrorChallengeCodeExpired         = "ChallengeCodeExpired"
	ServiceErrorTooManyOperations            = "TooManyOperations"
	ServiceErrorAccountNotFound              = "AccountNotFound"
)

// ServiceErrorDetail is one field-addressable entry inside a service error.
type ServiceErrorDetail struct {
	ErrorCode string `json:"code"`
	Message   string `json:"message"`
	Target    string `json:"target,omitempty"`
}

// ServiceErrorResponse is the error payload returned to clients. The
// top-level Message holds a serialized placeholder ("[]") while the error
// is expressed through Details; terminal errors collapse to a single
// top-level Message with no Details.
type ServiceErrorResponse struct {
	ErrorCode string               `json:"code"`
	Message   string               `json:"message"`
	Source    string               `json:"source,omitempty"`
	Details   []ServiceErrorDetail `json:"details,omitempty"`
}

// DetailPlaceholderMessage is the top-level message used while the error
// content lives in Details.
const DetailPlaceholderMessage = "[]"
