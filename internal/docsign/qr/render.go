package qr

import (
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// RenderPNG renders the payload's encoded form as a QR code PNG of the given
// pixel size.
func RenderPNG(p *Payload, size int) ([]byte, error) {
	if p == nil || len(p.Encoded) == 0 {
		return nil, errors.New("payload has no encoded form")
	}

	png, err := qrcode.Encode(string(p.Encoded), qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render QR code")
	}
	return png, nil
}
