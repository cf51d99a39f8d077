package rendering

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"

	"github.com/lanternhq/beacon/pkg/model"
)

func decodePNG(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Rasterize renders a RenderLayout (spec §3, §4.C) into a 400×300 PNG.
func Rasterize(layout model.Tagged) ([]byte, error) {
	dc := gg.NewContext(CanvasWidth, CanvasHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if err := drawLayout(dc, layout, 0, 0, CanvasWidth, CanvasHeight); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("rendering: encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLayout(dc *gg.Context, layout model.Tagged, x, y, w, h float64) error {
	switch layout.Kind {
	case model.RenderLayoutKindClear:
		dc.SetRGB(1, 1, 1)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
		return nil

	case model.RenderLayoutKindMessage:
		var content model.MessageLayout
		if err := layout.Decode(&content); err != nil {
			return fmt.Errorf("rendering: decoding message layout: %w", err)
		}
		return drawMessage(dc, content.Text, x, y)

	case model.RenderLayoutKindScannable:
		var content model.ScannableLayout
		if err := layout.Decode(&content); err != nil {
			return fmt.Errorf("rendering: decoding scannable layout: %w", err)
		}
		return drawScannable(dc, content, x, y, w, h)

	case model.RenderLayoutKindStylizedMessage:
		var content model.StylizedMessageLayout
		if err := layout.Decode(&content); err != nil {
			return fmt.Errorf("rendering: decoding stylized message layout: %w", err)
		}
		return drawStylizedText(dc, content, x, y, w, h)

	case model.RenderLayoutKindSplit:
		var content model.SplitLayout
		if err := layout.Decode(&content); err != nil {
			return fmt.Errorf("rendering: decoding split layout: %w", err)
		}
		return drawSplit(dc, content, x, y, w, h)

	default:
		return fmt.Errorf("rendering: unknown layout kind %q", layout.Kind)
	}
}

func drawScannable(dc *gg.Context, content model.ScannableLayout, x, y, w, h float64) error {
	png, err := qrcode.Encode(content.Contents, qrcode.Medium, int(min(w, h)))
	if err != nil {
		return fmt.Errorf("rendering: encoding QR code: %w", err)
	}
	img, err := decodePNG(png)
	if err != nil {
		return fmt.Errorf("rendering: decoding generated QR code: %w", err)
	}
	ix := x + (w-float64(img.Bounds().Dx()))/2
	iy := y + (h-float64(img.Bounds().Dy()))/2
	dc.DrawImage(img, int(ix), int(iy))
	return nil
}

// drawSplit lays Left and Right side by side at the given ratio (Left gets
// ratio% of the width); each side renders as a vertical stack of its entries
// (spec §4.C: "render each side as a vertical stack of stylized messages" —
// the MessageList and ScheduleLayout builders both produce stacks of
// differently-sized StylizedMessage components per column).
func drawSplit(dc *gg.Context, content model.SplitLayout, x, y, w, h float64) error {
	ratio := content.Ratio
	if ratio == 0 {
		ratio = model.DefaultSplitRatio
	}
	leftW := w * float64(ratio) / 100
	if err := drawStack(dc, content.Left, x, y, leftW, h); err != nil {
		return err
	}
	return drawStack(dc, content.Right, x+leftW, y, w-leftW, h)
}

// drawStack renders entries as equal-height rows stacked top to bottom
// within the given box.
func drawStack(dc *gg.Context, entries []model.Tagged, x, y, w, h float64) error {
	if len(entries) == 0 {
		return nil
	}
	rowH := h / float64(len(entries))
	for i, entry := range entries {
		if err := drawLayout(dc, entry, x, y+float64(i)*rowH, w, rowH); err != nil {
			return err
		}
	}
	return nil
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
