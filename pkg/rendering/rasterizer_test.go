package rendering

import (
	"bytes"
	"image"
	_ "image/png"
	"testing"

	"github.com/lanternhq/beacon/pkg/model"
)

func decode(t *testing.T, png []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		t.Fatalf("decoding rasterized PNG: %v", err)
	}
	return img
}

func TestRasterizeClearIsAllWhite(t *testing.T) {
	png, err := Rasterize(model.ClearTag())
	if err != nil {
		t.Fatalf("Rasterize(Clear): %v", err)
	}
	img := decode(t, png)
	if img.Bounds().Dx() != CanvasWidth || img.Bounds().Dy() != CanvasHeight {
		t.Fatalf("bounds = %v, want %dx%d", img.Bounds(), CanvasWidth, CanvasHeight)
	}

	for _, pt := range [][2]int{{0, 0}, {CanvasWidth - 1, CanvasHeight - 1}, {CanvasWidth / 2, CanvasHeight / 2}} {
		r, g, b, _ := img.At(pt[0], pt[1]).RGBA()
		if r != 0xffff || g != 0xffff || b != 0xffff {
			t.Errorf("pixel %v = (%d,%d,%d), want white", pt, r, g, b)
		}
	}
}

func TestRasterizeScannableProducesQRGraphic(t *testing.T) {
	layout, err := model.MarshalTagged(model.RenderLayoutKindScannable, model.ScannableLayout{Contents: "https://example.com/claim?id=abc"})
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	png, err := Rasterize(layout)
	if err != nil {
		t.Fatalf("Rasterize(Scannable): %v", err)
	}
	img := decode(t, png)
	if img.Bounds().Dx() != CanvasWidth || img.Bounds().Dy() != CanvasHeight {
		t.Fatalf("bounds = %v, want %dx%d", img.Bounds(), CanvasWidth, CanvasHeight)
	}

	// A QR code always draws some black modules; the all-white canvas alone
	// would fail this check.
	foundDark := false
	for y := 0; y < img.Bounds().Dy() && !foundDark; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0x8000 && g < 0x8000 && b < 0x8000 {
				foundDark = true
				break
			}
		}
	}
	if !foundDark {
		t.Error("expected at least one dark pixel from the QR code")
	}
}

func TestRasterizeMessage(t *testing.T) {
	layout, err := model.MarshalTagged(model.RenderLayoutKindMessage, model.MessageLayout{Text: "hello world"})
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	png, err := Rasterize(layout)
	if err != nil {
		t.Fatalf("Rasterize(Message): %v", err)
	}
	if len(png) == 0 {
		t.Fatal("Rasterize(Message) returned no bytes")
	}
	decode(t, png)
}

func TestRasterizeStylizedMessageWithBorder(t *testing.T) {
	border, padding, margin := 2, 10, 10
	layout, err := model.MarshalTagged(model.RenderLayoutKindStylizedMessage, model.StylizedMessageLayout{
		Text: "styled", Font: model.FontDejaVuSans, Size: 34, Border: &border, Padding: &padding, Margin: &margin,
	})
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	png, err := Rasterize(layout)
	if err != nil {
		t.Fatalf("Rasterize(StylizedMessage): %v", err)
	}
	decode(t, png)
}

func TestRasterizeSplitDefaultsTo50(t *testing.T) {
	left, _ := model.MarshalTagged(model.RenderLayoutKindMessage, model.MessageLayout{Text: "left"})
	right, _ := model.MarshalTagged(model.RenderLayoutKindMessage, model.MessageLayout{Text: "right"})
	layout, err := model.MarshalTagged(model.RenderLayoutKindSplit, model.SplitLayout{Left: []model.Tagged{left}, Right: []model.Tagged{right}})
	if err != nil {
		t.Fatalf("MarshalTagged: %v", err)
	}
	png, err := Rasterize(layout)
	if err != nil {
		t.Fatalf("Rasterize(Split): %v", err)
	}
	decode(t, png)
}

func TestRasterizeUnknownKindErrors(t *testing.T) {
	_, err := Rasterize(model.Tagged{Kind: "bogus"})
	if err == nil {
		t.Error("Rasterize with unknown layout kind should error")
	}
}
