package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ds124wfegd/lensmaster/internal/entity"
)

// FormatOrderMessage renders the owner notification in WhatsApp/Telegram markdown.
func FormatOrderMessage(order *entity.Order, currency string) string {
	lines := []string{
		"*LensMaster Order!*",
		"*Customer:* " + order.CustomerName,
		"*Gear:* " + order.CameraName,
		fmt.Sprintf("*Duration:* %d Days", order.DurationDays),
		fmt.Sprintf("*Total:* %s%d", currency, order.TotalPrice),
		"*Status:* " + statusLabel(order.Status),
	}
	return strings.Join(lines, "\n")
}

// WhatsAppLink is the click-to-chat URL that opens the message for the owner's number.
func WhatsAppLink(phone, message string) string {
	return "https://wa.me/" + url.PathEscape(phone) + "?" + url.Values{"text": {message}}.Encode()
}

func statusLabel(s entity.OrderStatus) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
