package memo

// Document is the strictly-typed memo content persisted on a completed
// generation. Every leaf is a plain string, a string enum member, or an
// array of those. The AI service gives no such guarantee, which is why
// nothing writes a Document without going through Sanitize.
type Document struct {
	Sections  []Section  `json:"sections"`
	QuickTake *QuickTake `json:"quick_take,omitempty"`
}

// Section is one top-level memo section.
type Section struct {
	Title        string      `json:"title"`
	Paragraphs   []Paragraph `json:"paragraphs"`
	Highlights   []Highlight `json:"highlights"`
	KeyPoints    []string    `json:"key_points"`
	Narrative    *SubSection `json:"narrative,omitempty"`
	VCReflection *SubSection `json:"vc_reflection,omitempty"`
}

// SubSection has the same shape discipline as Section but does not nest
// further.
type SubSection struct {
	Title      string      `json:"title"`
	Paragraphs []Paragraph `json:"paragraphs"`
	Highlights []Highlight `json:"highlights"`
	KeyPoints  []string    `json:"key_points"`
}

type Paragraph struct {
	Text     string `json:"text"`
	Emphasis string `json:"emphasis,omitempty"`
}

// Highlight is a metric callout, e.g. {Metric: "80% retention", Label: "m/m"}.
type Highlight struct {
	Metric string `json:"metric"`
	Label  string `json:"label"`
}

type QuickTake struct {
	Verdict            string   `json:"verdict"`
	Concerns           []string `json:"concerns"`
	Strengths          []string `json:"strengths"`
	ReadinessLevel     string   `json:"readiness_level"`
	ReadinessRationale string   `json:"readiness_rationale"`
}

// Paragraph emphasis values. Anything else collapses to no emphasis.
const (
	EmphasisPlain   = "plain"
	EmphasisStrong  = "strong"
	EmphasisCaution = "caution"
)

// Investment readiness levels. Unrecognized input defaults to ReadinessMedium.
const (
	ReadinessLow    = "LOW"
	ReadinessMedium = "MEDIUM"
	ReadinessHigh   = "HIGH"
)
