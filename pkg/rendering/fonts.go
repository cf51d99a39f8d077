package rendering

import (
	"embed"
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/lanternhq/beacon/pkg/model"
)

//go:embed assets/fonts/*.ttf
var embeddedFonts embed.FS

var fontFiles = map[model.Font]string{
	model.FontDejaVuSans: "assets/fonts/DejaVuSans.ttf",
	model.FontRoboto:     "assets/fonts/Roboto.ttf",
	model.FontTeko:       "assets/fonts/Teko.ttf",
	model.FontBarlow:     "assets/fonts/Barlow.ttf",
}

// fontRegistry caches parsed truetype.Font values, built once at package init
// and reused across every rasterize call.
type fontRegistry struct {
	parsed map[model.Font]*truetype.Font
}

var registry = mustLoadFonts()

func mustLoadFonts() *fontRegistry {
	reg := &fontRegistry{parsed: make(map[model.Font]*truetype.Font, len(fontFiles))}
	for name, path := range fontFiles {
		data, err := embeddedFonts.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("rendering: reading embedded font %s: %v", path, err))
		}
		parsed, err := truetype.Parse(data)
		if err != nil {
			// A font file that fails to parse is left out of the
			// registry; face then reports that font as not available.
			continue
		}
		reg.parsed[name] = parsed
	}
	return reg
}

// face builds a font.Face for the named font at the given point size.
func face(name model.Font, size int) (font.Face, error) {
	parsed, ok := registry.parsed[name]
	if !ok {
		return nil, fmt.Errorf("rendering: font %q not available", name)
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: float64(size)}), nil
}
