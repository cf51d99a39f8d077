// Package rendering rasterizes a RenderLayout into the bytes pushed onto a
// device's per-device queue (spec §4.C).
package rendering

// CanvasWidth and CanvasHeight are the device display's fixed dimensions
// every layout rasterizes into (spec §4.C: "rasterize at 400×300").
const (
	CanvasWidth  = 400
	CanvasHeight = 300
)

// LightingOnToken and LightingOffToken are the raw bytes pushed onto a
// device's queue for a Lighting render instead of a PNG (spec §4.C step 4,
// §6 device wire protocol).
const (
	LightingOnToken  = "lighting:on"
	LightingOffToken = "lighting:off"
)
