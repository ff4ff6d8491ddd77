package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
)

// OrderLine is one line of the prefilled checkout message.
type OrderLine struct {
	Name     string
	Quantity int
	Price    int64
}

// Link builds a wa.me deep link with a prefilled text message.
// The number must be in international format without "+" (e.g. 919876543210).
func Link(number, text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, url.QueryEscape(text))
}

// OrderMessage renders the checkout summary sent to the store's WhatsApp number.
// Amounts are integer rupees.
func OrderMessage(orderRef, customerName string, lines []OrderLine, total, walletUsed int64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New order %s\n", orderRef)
	if customerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", customerName)
	}
	b.WriteString("\n")

	for _, l := range lines {
		fmt.Fprintf(&b, "%s x%d = ₹%d\n", l.Name, l.Quantity, l.Price*int64(l.Quantity))
	}

	b.WriteString("\n")
	if walletUsed > 0 {
		fmt.Fprintf(&b, "Wallet used: ₹%d\n", walletUsed)
		fmt.Fprintf(&b, "To pay: ₹%d\n", total-walletUsed)
	} else {
		fmt.Fprintf(&b, "Total: ₹%d\n", total)
	}

	return b.String()
}

// OrderLink is a convenience wrapper combining OrderMessage and Link.
func OrderLink(number, orderRef, customerName string, lines []OrderLine, total, walletUsed int64) string {
	return Link(number, OrderMessage(orderRef, customerName, lines, total, walletUsed))
}
