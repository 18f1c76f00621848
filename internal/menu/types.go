package menu

// ResponseType selects how an option is answered.
type ResponseType string

const (
	ResponseStatic   ResponseType = "static"
	ResponseAI       ResponseType = "ai"
	ResponseEscalate ResponseType = "escalate"
)

// ExitNumber is the reserved selection that ends the conversation.
const ExitNumber = 0

// DefaultMaxTokens is applied to AI options that do not set max_tokens.
const DefaultMaxTokens = 500

// Option is one row of the menu table.
type Option struct {
	Number            int          `dynamodbav:"number" json:"number" validate:"gte=0"` // PK
	Title             string       `dynamodbav:"title" json:"title" validate:"required"`
	ResponseType      ResponseType `dynamodbav:"response_type" json:"responseType" validate:"required,oneof=static ai escalate"`
	StaticResponse    string       `dynamodbav:"static_response" json:"staticResponse,omitempty"`
	AIProvider        string       `dynamodbav:"ai_provider" json:"aiProvider,omitempty" validate:"omitempty,oneof=gemini claude"`
	AIContext         string       `dynamodbav:"ai_context" json:"aiContext,omitempty"`
	EscalationMessage string       `dynamodbav:"escalation_message" json:"escalationMessage,omitempty"`
	AfterHoursMessage string       `dynamodbav:"after_hours_message" json:"afterHoursMessage,omitempty"`
	FallbackResponse  string       `dynamodbav:"fallback_response" json:"fallbackResponse,omitempty"`
	ReturnToMenu      *bool        `dynamodbav:"return_to_menu" json:"returnToMenu,omitempty"`
	Active            *bool        `dynamodbav:"active" json:"active,omitempty"`
	MaxTokens         int          `dynamodbav:"max_tokens" json:"maxTokens" validate:"gte=0"`
}

// IsActive reports whether the option is shown. Rows without the flag are active.
func (o Option) IsActive() bool { return o.Active == nil || *o.Active }

// ShowsMenu reports whether the menu is offered again after the reply.
func (o Option) ShowsMenu() bool { return o.ReturnToMenu == nil || *o.ReturnToMenu }
