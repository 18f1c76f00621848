// Package envelope defines the JSON response variants returned by the chat
// endpoint. Every response carries success, timestamp and type plus the
// fields of exactly one payload.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind is the discriminant written to the "type" field.
type Kind string

const (
	KindMenu        Kind = "menu"
	KindStatic      Kind = "static"
	KindAI          Kind = "ai"
	KindAIChat      Kind = "ai_chat"
	KindOrderInfo   Kind = "order_info"
	KindProductInfo Kind = "product_info"
	KindDefault     Kind = "default"
	KindFarewell    Kind = "farewell"
	KindEscalation  Kind = "escalation"
	KindError       Kind = "error"
)

// ReplyKinds are the kinds a Reply may carry.
var ReplyKinds = []Kind{KindStatic, KindAI, KindAIChat, KindOrderInfo, KindProductInfo, KindDefault, KindFarewell}

// Payload is implemented only by the variants in this package.
type Payload interface {
	kind() Kind
	success() bool
}

// MenuItem is one selectable option shown with the menu.
type MenuItem struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// Menu lists the active options.
type Menu struct {
	BusinessHours bool       `json:"businessHours"`
	Greeting      string     `json:"greeting"`
	Options       []MenuItem `json:"options"`
	Footer        string     `json:"footer"`
}

// Reply is a textual answer. Kind must be one of ReplyKinds.
type Reply struct {
	Kind     Kind   `json:"-"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message"`
	ShowMenu bool   `json:"showMenu"`
	Provider string `json:"provider,omitempty"`
}

// Escalation tells the user a human will follow up.
type Escalation struct {
	Message       string `json:"message"`
	BusinessHours bool   `json:"businessHours"`
	ShowMenu      bool   `json:"showMenu"`
	TicketID      string `json:"ticketId,omitempty"`
}

// Failure is returned for rejected input and caught errors.
type Failure struct {
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	ShowMenu bool   `json:"showMenu"`
}

func (Menu) kind() Kind       { return KindMenu }
func (Escalation) kind() Kind { return KindEscalation }
func (Failure) kind() Kind    { return KindError }
func (r Reply) kind() Kind {
	if r.Kind == "" {
		return KindDefault
	}
	return r.Kind
}

func (Menu) success() bool       { return true }
func (Reply) success() bool      { return true }
func (Escalation) success() bool { return true }
func (Failure) success() bool    { return false }

// Response is a payload stamped with the time it was produced.
type Response struct {
	Timestamp time.Time
	Payload   Payload
}

// New wraps p.
func New(p Payload, at time.Time) Response {
	return Response{Timestamp: at, Payload: p}
}

// Success reports the value of the "success" field.
func (r Response) Success() bool {
	return r.Payload != nil && r.Payload.success()
}

// Type returns the discriminant.
func (r Response) Type() Kind {
	if r.Payload == nil {
		return KindError
	}
	return r.Payload.kind()
}

type header struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
	Type      Kind   `json:"type"`
}

// MarshalJSON flattens the header and the payload fields into one object.
func (r Response) MarshalJSON() ([]byte, error) {
	h := header{
		Success:   r.Success(),
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339Nano),
		Type:      r.Type(),
	}
	switch p := r.Payload.(type) {
	case Menu:
		if p.Options == nil {
			p.Options = []MenuItem{}
		}
		return json.Marshal(struct {
			header
			Menu
		}{h, p})
	case Reply:
		if !validReplyKind(h.Type) {
			return nil, fmt.Errorf("envelope: invalid reply kind %q", h.Type)
		}
		return json.Marshal(struct {
			header
			Reply
		}{h, p})
	case Escalation:
		return json.Marshal(struct {
			header
			Escalation
		}{h, p})
	case Failure:
		return json.Marshal(struct {
			header
			Failure
		}{h, p})
	case nil:
		return json.Marshal(struct {
			header
			Failure
		}{h, Failure{Error: "empty response"}})
	default:
		return nil, fmt.Errorf("envelope: unknown payload %T", p)
	}
}

func validReplyKind(k Kind) bool {
	for _, rk := range ReplyKinds {
		if rk == k {
			return true
		}
	}
	return false
}
