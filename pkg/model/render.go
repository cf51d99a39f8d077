package model

// AuthKind tags who requested a queued render or registrar job (spec §3
// Queued Render).
const (
	AuthKindCommandLine = "command_line"
	AuthKindRegistrar   = "registrar"
	AuthKindUser        = "user"
)

// UserAuth is the Tagged.Content payload for AuthKindUser.
type UserAuth struct {
	Name string `json:"name"`
}

// NewUserAuth builds the auth tag attributing a render/job to a named user.
func NewUserAuth(name string) Tagged {
	t, err := MarshalTagged(AuthKindUser, UserAuth{Name: name})
	if err != nil {
		panic(err)
	}
	return t
}

// CommandLineAuth is the auth tag for operator-CLI originated renders/jobs.
func CommandLineAuth() Tagged { return Tagged{Kind: AuthKindCommandLine} }

// RegistrarAuth is the auth tag for renders/jobs the registrar itself percolates.
func RegistrarAuth() Tagged { return Tagged{Kind: AuthKindRegistrar} }

// LightingCommand is the sum for RenderVariantKindLighting's content.
type LightingCommand string

const (
	LightingOn  LightingCommand = "on"
	LightingOff LightingCommand = "off"
)

// RenderVariantKind tags RenderVariant (spec §3: "Layout{RenderLayout} | Lighting{On|Off}").
const (
	RenderVariantKindLayout   = "layout"
	RenderVariantKindLighting = "lighting"
)

// RenderLayoutKind tags the RenderLayout sum (spec §3, §4.C).
const (
	RenderLayoutKindMessage         = "message"
	RenderLayoutKindScannable       = "scannable"
	RenderLayoutKindStylizedMessage = "stylized_message"
	RenderLayoutKindSplit           = "split"
	RenderLayoutKindClear           = "clear"
)

// MessageLayout is the Tagged.Content payload for RenderLayoutKindMessage.
type MessageLayout struct {
	Text string `json:"text"`
}

// ScannableLayout is the Tagged.Content payload for RenderLayoutKindScannable.
type ScannableLayout struct {
	Contents string `json:"contents"`
}

// Font names the embedded font set usable by StylizedMessage and Split
// (spec §4.C rasterizer).
type Font string

const (
	FontDejaVuSans Font = "dejavu_sans"
	FontRoboto     Font = "roboto"
	FontTeko       Font = "teko"
	FontBarlow     Font = "barlow"
)

// DefaultFont is used when a StylizedMessage/Split component doesn't name one.
const DefaultFont = FontDejaVuSans

// DefaultFontSize is used when a StylizedMessage doesn't set Size (spec §4.C).
const DefaultFontSize = 80

// StylizedMessageLayout is the Tagged.Content payload for
// RenderLayoutKindStylizedMessage.
type StylizedMessageLayout struct {
	Text    string `json:"text"`
	Font    Font   `json:"font"`
	Size    int    `json:"size"`
	Border  *int   `json:"border,omitempty"`
	Padding *int   `json:"padding,omitempty"`
	Margin  *int   `json:"margin,omitempty"`
}

// DefaultSplitRatio is used when a Split component omits Ratio (spec §4.C).
const DefaultSplitRatio = 50

// SplitLayout is the Tagged.Content payload for RenderLayoutKindSplit. Left
// and Right are each rendered as a vertical stack of RenderLayout entries
// (spec §4.C: "render each side as a vertical stack of stylized messages"),
// nearly always StylizedMessage per spec §4.D's layout builder, but the type
// does not enforce that.
type SplitLayout struct {
	Left  []Tagged `json:"left"`
	Right []Tagged `json:"right"`
	Ratio int      `json:"ratio"`
}

// ClearTag is the RenderLayout value for RenderLayoutKindClear (no content).
func ClearTag() Tagged { return Tagged{Kind: RenderLayoutKindClear} }

// LightingTag builds a RenderVariant Tagged value carrying a lighting command.
func LightingTag(cmd LightingCommand) Tagged {
	t, err := MarshalTagged(RenderVariantKindLighting, cmd)
	if err != nil {
		panic(err)
	}
	return t
}

// LayoutVariantTag wraps a RenderLayout Tagged value as a RenderVariant.
func LayoutVariantTag(layout Tagged) Tagged {
	t, err := MarshalTagged(RenderVariantKindLayout, layout)
	if err != nil {
		panic(err)
	}
	return t
}

// QueuedRender is the unit of work the render queue carries (spec §3).
type QueuedRender struct {
	ID       string `bson:"id" json:"id"`
	Auth     Tagged `bson:"auth" json:"auth"`
	DeviceID string `bson:"device_id" json:"device_id"`
	Layout   Tagged `bson:"layout" json:"layout"` // a RenderVariant
}
