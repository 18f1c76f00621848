package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// userInput carries the selection or the message for the two input actions
	v.RegisterStructValidation(chatRequestStructValidation, ChatRequest{})

	return v
}

func chatRequestStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ChatRequest)

	switch req.Action {
	case ActionProcessSelection, ActionSendMessage:
		if strings.TrimSpace(req.UserInput) == "" {
			sl.ReportError(req.UserInput, "userInput", "UserInput", "required_for_action", req.Action)
		}
	}
}
