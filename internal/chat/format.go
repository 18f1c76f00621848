package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/imrishuroy/go-support-chatbot/internal/commerce"
)

var conditions = map[string]string{
	"new":         "Nuevo",
	"used":        "Usado",
	"refurbished": "Reacondicionado",
}

// FormatOrder renders the order summary shown to the customer.
func FormatOrder(o commerce.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Información de tu pedido #%d:\n", o.ID)
	fmt.Fprintf(&b, "• Estado: %s\n", o.Status)
	fmt.Fprintf(&b, "• Total: $%.2f %s\n", o.TotalAmount, o.CurrencyID)
	fmt.Fprintf(&b, "• Fecha: %s", formatDate(o.DateCreated))
	return strings.TrimSpace(b.String())
}

// FormatProduct renders a listing summary.
func FormatProduct(p commerce.Product) string {
	availability := "Sin stock"
	if p.AvailableQuantity > 0 {
		availability = fmt.Sprintf("Disponible (%d unidades)", p.AvailableQuantity)
	}
	condition, ok := conditions[p.Condition]
	if !ok {
		condition = p.Condition
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Title)
	fmt.Fprintf(&b, "• Precio: $%.2f %s\n", p.Price, p.CurrencyID)
	fmt.Fprintf(&b, "• Disponibilidad: %s\n", availability)
	fmt.Fprintf(&b, "• Condición: %s", condition)
	return b.String()
}

func formatDate(raw string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000-07:00"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return raw
}
