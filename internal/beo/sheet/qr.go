package sheet

import (
	"strings"

	"github.com/skip2/go-qrcode"
)

// OrderURL is the link printed on a sheet so staff can open the live order.
func OrderURL(baseURL, orderID string) string {
	return strings.TrimRight(baseURL, "/") + "/orders/" + orderID
}

// QRCode encodes content as a PNG.
func QRCode(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}
