package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ecell-portal/internal/domain"
	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 400

// DataURL renders the signed payload as a scannable QR code and returns it
// as a base64 PNG data URL, ready to drop into an <img> tag.
func DataURL(p domain.SignedTicketPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
