package whatsapp

import (
	"net/url"
	"strings"
	"testing"
)

func TestLinkEscapesText(t *testing.T) {
	link := Link("919876543210", "New order #ab12\nTotal: ₹500")

	if !strings.HasPrefix(link, "https://wa.me/919876543210?text=") {
		t.Fatalf("unexpected link prefix: %s", link)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	if got := u.Query().Get("text"); got != "New order #ab12\nTotal: ₹500" {
		t.Fatalf("text roundtrip = %q", got)
	}
}

func TestOrderMessageWithWallet(t *testing.T) {
	lines := []OrderLine{
		{Name: "Herbal Tea", Quantity: 2, Price: 250},
		{Name: "Black Rice", Quantity: 1, Price: 300},
	}
	msg := OrderMessage("#ab12cd34", "Asha", lines, 800, 150)

	for _, want := range []string{
		"New order #ab12cd34",
		"Customer: Asha",
		"Herbal Tea x2 = ₹500",
		"Black Rice x1 = ₹300",
		"Wallet used: ₹150",
		"To pay: ₹650",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestOrderMessageWithoutWallet(t *testing.T) {
	msg := OrderMessage("#ab12cd34", "", []OrderLine{{Name: "Herbal Tea", Quantity: 1, Price: 250}}, 250, 0)

	if strings.Contains(msg, "Customer:") {
		t.Errorf("unexpected customer line:\n%s", msg)
	}
	if !strings.Contains(msg, "Total: ₹250") {
		t.Errorf("missing total line:\n%s", msg)
	}
	if strings.Contains(msg, "Wallet used") {
		t.Errorf("unexpected wallet line:\n%s", msg)
	}
}
