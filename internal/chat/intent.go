package chat

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Strategy is the handler chosen for a free-text message.
type Strategy string

const (
	StrategyMenu       Strategy = "menu"
	StrategyOrder      Strategy = "order"
	StrategyProduct    Strategy = "product"
	StrategyEscalation Strategy = "escalation"
	StrategyDefault    Strategy = "default"
)

type rule struct {
	strategy Strategy
	keywords []string
}

// rules are checked in order; the first keyword hit wins.
var rules = []rule{
	{StrategyMenu, []string{"menú", "menu", "opciones", "ayuda"}},
	{StrategyOrder, []string{"pedido", "orden", "compra", "envío", "seguimiento", "rastreo", "entrega"}},
	{StrategyProduct, []string{"producto", "artículo", "disponibilidad", "precio", "stock", "característica"}},
	{StrategyEscalation, []string{"agente", "humano", "persona", "hablar", "representante", "ayuda directa"}},
}

var (
	orderIDPattern = regexp.MustCompile(`\d{12,}`)
	itemIDPattern  = regexp.MustCompile(`(?i)\b[a-z]{3}\d+\b`)
)

// Classify picks the strategy for message.
func Classify(message string) Strategy {
	text := cases.Lower(language.Spanish).String(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.strategy
			}
		}
	}
	return StrategyDefault
}

// ExtractOrderID returns the first run of 12 or more digits.
func ExtractOrderID(message string) (string, bool) {
	id := orderIDPattern.FindString(message)
	return id, id != ""
}

// ExtractItemID returns the first three-letter-prefixed item id, upper-cased.
func ExtractItemID(message string) (string, bool) {
	id := itemIDPattern.FindString(message)
	return strings.ToUpper(id), id != ""
}
