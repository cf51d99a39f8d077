package rendering

import (
	"github.com/fogleman/gg"

	"github.com/lanternhq/beacon/pkg/model"
)

// drawMessage draws plain Message text flush to the top-left corner of the
// box, offset by a fixed 10px inset (spec §4.C: "all-white background; draw
// s at (10, 10) in DejaVu Sans at size 80"). Unlike StylizedMessage, a bare
// Message never centers, borders, or pads its text.
func drawMessage(dc *gg.Context, text string, x, y float64) error {
	f, err := face(model.DefaultFont, model.DefaultFontSize)
	if err != nil {
		return err
	}
	dc.SetFontFace(f)
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(text, x+10, y+10, 0, 1)
	return nil
}

// drawStylizedText composes a StylizedMessage layout within the given
// rectangle: an optional border, then padding, then the text centered in the
// remaining box, with margin reserved outside the border (spec §4.C).
func drawStylizedText(dc *gg.Context, layout model.StylizedMessageLayout, x, y, w, h float64) error {
	margin := floatOr(layout.Margin, 0)
	border := floatOr(layout.Border, 0)
	padding := floatOr(layout.Padding, 0)

	x += margin
	y += margin
	w -= 2 * margin
	h -= 2 * margin

	if border > 0 {
		dc.SetLineWidth(border)
		dc.SetRGB(0, 0, 0)
		dc.DrawRectangle(x+border/2, y+border/2, w-border, h-border)
		dc.Stroke()
	}

	x += border + padding
	y += border + padding
	w -= 2 * (border + padding)
	h -= 2 * (border + padding)

	f, err := face(fontOr(layout.Font), sizeOr(layout.Size))
	if err != nil {
		return err
	}
	dc.SetFontFace(f)
	dc.SetRGB(0, 0, 0)
	dc.DrawStringWrapped(layout.Text, x+w/2, y+h/2, 0.5, 0.5, w, 1.2, gg.AlignCenter)
	return nil
}

func floatOr(v *int, fallback int) float64 {
	if v == nil {
		return float64(fallback)
	}
	return float64(*v)
}

func fontOr(f model.Font) model.Font {
	if f == "" {
		return model.DefaultFont
	}
	return f
}

func sizeOr(size int) int {
	if size == 0 {
		return model.DefaultFontSize
	}
	return size
}
