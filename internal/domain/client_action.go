package domain

// ClientActionType enumerates what a client is expected to do next.
type ClientActionType string

const (
	ClientActionPidl     ClientActionType = "Pidl"
	ClientActionRedirect ClientActionType = "Redirect"
)

// ClientAction tells the calling experience how to continue a pending
// payment instrument flow. Context is a redirect URL string, a
// *RedirectionServiceLink, or a []*PidlResource depending on ActionType.
type ClientAction struct {
	ActionType   ClientActionType `json:"type"`
	Context      interface{}      `json:"context,omitempty"`
	RedirectPidl []*PidlResource  `json:"redirectPidl,omitempty"`
}

// DisplayHint is one renderable member of a PIDL display page.
type DisplayHint struct {
	HintID      string `json:"hintId"`
	DisplayType string `json:"displayType"`
}

// DisplayPage is an ordered group of display hints.
type DisplayPage struct {
	Members []DisplayHint `json:"members"`
}

// PidlResource is a minimal page description the client renders to
// collect the next piece of input. Identity keys follow the description
// service convention ("description_type", "type").
type PidlResource struct {
	Identity     map[string]string `json:"identity"`
	DisplayPages []*DisplayPage    `json:"displayPages,omitempty"`
	MaxAttempts  int               `json:"maxAttempts,omitempty"`
}

// ClearDisplayMembers empties the members of the first display page,
// leaving the page itself in place so inline experiences keep layout
// anchors without duplicated content.
func (p *PidlResource) ClearDisplayMembers() {
	if len(p.DisplayPages) > 0 && p.DisplayPages[0] != nil {
		p.DisplayPages[0].Members = []DisplayHint{}
	}
}

// RedirectionServiceLink points the client at the redirection service
// with enough ru (return URL) parameters to resume the flow afterwards.
type RedirectionServiceLink struct {
	BaseUrl      string            `json:"baseUrl"`
	RuParameters map[string]string `json:"ruParameters,omitempty"`
}
