package validation

// Actions accepted by the chat endpoint.
const (
	ActionGetMenu          = "getMenu"
	ActionProcessSelection = "processSelection"
	ActionSendMessage      = "sendMessage"
)

// ChatRequest is the request envelope, read from the query string on GET and
// from the JSON body on POST.
type ChatRequest struct {
	Action    string `form:"action" json:"action" validate:"omitempty,oneof=getMenu processSelection sendMessage"`
	UserInput string `form:"userInput" json:"userInput" validate:"max=2000"`
	SessionID string `form:"sessionId" json:"sessionId" validate:"max=128"`
}

// Normalize applies the default action.
func (r *ChatRequest) Normalize() {
	if r.Action == "" {
		r.Action = ActionGetMenu
	}
}
