package lifecycle

import "github.com/kevin07696/payment-experience/internal/domain"

// PIDL identity type values produced by this service. All lowercase by
// description service convention.
const (
	PidlTypeSmsChallenge          = "sms"
	PidlTypeIdealRedirect         = "idealredirectpidl"
	PidlTypeAchPicvStatic         = "achpicvstatic"
	PidlTypeAchPicvChallenge      = "ach_picv"
	PidlTypeSepaPicvStatic        = "sepapicvstatic"
	PidlTypeSepaPicvChallenge     = "sepa_picv"
	PidlTypePaypalUpdateAgreement = "paypalupdateagreementchallenge"
	PidlTypePaypalRetryStatic     = "paypalretrystatic"
)

// PidlFactory builds the minimal page descriptions attached to client
// actions. Full PIDL rendering happens downstream; these carry just
// enough identity and layout for the client to fetch or render the page.
type PidlFactory struct{}

// NewPidlFactory creates a factory.
func NewPidlFactory() *PidlFactory {
	return &PidlFactory{}
}

// StaticPidl builds an informational page of the given type.
func (f *PidlFactory) StaticPidl(pidlType string) *domain.PidlResource {
	return &domain.PidlResource{
		Identity: map[string]string{
			"description_type": "static",
			"type":             pidlType,
		},
		DisplayPages: []*domain.DisplayPage{
			{
				Members: []domain.DisplayHint{
					{HintID: pidlType + "_text", DisplayType: "text"},
					{HintID: pidlType + "_button", DisplayType: "button"},
				},
			},
		},
	}
}

// ChallengePidl builds an input-collecting page of the given type.
// remainingAttempts of zero means the challenge is unbounded.
func (f *PidlFactory) ChallengePidl(pidlType string, remainingAttempts int) *domain.PidlResource {
	return &domain.PidlResource{
		Identity: map[string]string{
			"description_type": "challenge",
			"type":             pidlType,
		},
		DisplayPages: []*domain.DisplayPage{
			{
				Members: []domain.DisplayHint{
					{HintID: pidlType + "_input", DisplayType: "property"},
					{HintID: pidlType + "_submit", DisplayType: "button"},
				},
			},
		},
		MaxAttempts: remainingAttempts,
	}
}
