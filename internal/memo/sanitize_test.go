package memo

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func TestSanitizeTopLevelNonObject(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{`null`, `"a string"`, `42`, `true`, `["a","b"]`} {
		if doc := Sanitize(decode(t, raw), discardLogger()); doc != nil {
			t.Errorf("Sanitize(%s) = %+v, want nil", raw, doc)
		}
	}
}

func TestSanitizeNeverPanics(t *testing.T) {
	t.Parallel()
	inputs := []any{
		nil,
		map[string]any{"sections": map[string]any{"oops": "not an array"}},
		map[string]any{"sections": []any{nil, 12.5, true, []any{"nested"}}},
		map[string]any{
			"sections": []any{map[string]any{
				"title":      map[string]any{"deeply": map[string]any{"nested": "thing"}},
				"paragraphs": []any{map[string]any{"text": map[string]any{"text": map[string]any{"text": "tripled"}}}},
				"key_points": "should be an array",
				"highlights": 9,
			}},
			"quick_take": []any{"wrong shape"},
		},
		map[string]any{"quick_take": map[string]any{"concerns": []any{map[string]any{"x": 1}}}},
	}
	for i, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("input %d panicked: %v", i, r)
				}
			}()
			Sanitize(in, discardLogger())
		}()
	}
}

// Every leaf of a sanitized document must be a string, an enum member, or
// an array of those. Checked structurally via the marshaled JSON.
func TestSanitizeLeafInvariant(t *testing.T) {
	t.Parallel()
	doc := Sanitize(decode(t, `{
		"sections": [{
			"title": {"text": "Market"},
			"paragraphs": [{"text": 42, "emphasis": {"value": "strong"}}, "bare paragraph"],
			"highlights": [{"metric": 80, "label": null}, "80% retention"],
			"key_points": [1, true, null, {"value": "kp"}],
			"narrative": {"title": null, "paragraphs": "x", "key_points": []}
		}],
		"quick_take": {"verdict": {"value": "promising"}, "concerns": "not-a-list",
			"strengths": ["solid team"], "readiness_level": 3, "readiness_rationale": null}
	}`), discardLogger())
	if doc == nil {
		t.Fatal("Sanitize returned nil for an object input")
	}

	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal sanitized doc: %v", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("re-decode sanitized doc: %v", err)
	}
	assertStringLeaves(t, v, "$")

	sec := doc.Sections[0]
	if sec.Title != "Market" {
		t.Errorf("title = %q, want Market (recursed through text key)", sec.Title)
	}
	if sec.Paragraphs[0].Text != "42" {
		t.Errorf("paragraph text = %q, want stringified 42", sec.Paragraphs[0].Text)
	}
	if sec.Paragraphs[0].Emphasis != EmphasisStrong {
		t.Errorf("emphasis = %q, want %q", sec.Paragraphs[0].Emphasis, EmphasisStrong)
	}
	if got := sec.KeyPoints; !reflect.DeepEqual(got, []string{"1", "true", "", "kp"}) {
		t.Errorf("key points = %v", got)
	}
}

func assertStringLeaves(t *testing.T, v any, path string) {
	t.Helper()
	switch tv := v.(type) {
	case string:
	case map[string]any:
		for k, inner := range tv {
			assertStringLeaves(t, inner, path+"."+k)
		}
	case []any:
		for i, inner := range tv {
			// array elements may be objects (paragraphs, highlights), whose
			// own leaves are re-checked, but never bare non-strings
			if _, ok := inner.(map[string]any); !ok {
				if _, ok := inner.(string); !ok {
					t.Errorf("non-string array leaf at %s[%d]: %T", path, i, inner)
				}
				continue
			}
			assertStringLeaves(t, inner, path)
		}
	default:
		t.Errorf("non-string leaf at %s: %T", path, v)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	t.Parallel()
	first := Sanitize(decode(t, `{
		"sections": [{
			"title": "Team",
			"paragraphs": [{"text": "Two founders.", "emphasis": "caution"}],
			"highlights": ["10 years combined"],
			"key_points": ["ex-stripe"],
			"vc_reflection": {"title": "Reflection", "paragraphs": [{"text": "ok"}], "highlights": [], "key_points": []}
		}],
		"quick_take": {"verdict": "v", "concerns": [], "strengths": ["s"],
			"readiness_level": "HIGH", "readiness_rationale": "r"}
	}`), discardLogger())
	if first == nil {
		t.Fatal("first pass returned nil")
	}

	b, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second := Sanitize(decode(t, string(b)), discardLogger())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("sanitize not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSanitizeReadinessDefault(t *testing.T) {
	t.Parallel()
	doc := Sanitize(decode(t, `{"sections": [], "quick_take": {"readiness_level": "unknown-value"}}`), discardLogger())
	if doc.QuickTake == nil {
		t.Fatal("quick take dropped")
	}
	if doc.QuickTake.ReadinessLevel != ReadinessMedium {
		t.Errorf("readiness = %q, want %q", doc.QuickTake.ReadinessLevel, ReadinessMedium)
	}

	// case normalization still honors valid values
	doc = Sanitize(decode(t, `{"sections": [], "quick_take": {"readiness_level": "high"}}`), discardLogger())
	if doc.QuickTake.ReadinessLevel != ReadinessHigh {
		t.Errorf("readiness = %q, want %q", doc.QuickTake.ReadinessLevel, ReadinessHigh)
	}
}

func TestSanitizeEmphasisDropsUnknown(t *testing.T) {
	t.Parallel()
	doc := Sanitize(decode(t, `{"sections": [{"paragraphs": [{"text": "x", "emphasis": "shouty"}]}]}`), discardLogger())
	if got := doc.Sections[0].Paragraphs[0].Emphasis; got != "" {
		t.Errorf("emphasis = %q, want absent", got)
	}
}

func TestSanitizeBareStringHighlight(t *testing.T) {
	t.Parallel()
	doc := Sanitize(decode(t, `{"sections": [{"highlights": ["80% retention"]}]}`), discardLogger())
	want := []Highlight{{Metric: "80% retention", Label: ""}}
	if got := doc.Sections[0].Highlights; !reflect.DeepEqual(got, want) {
		t.Errorf("highlights = %+v, want %+v", got, want)
	}
}

func TestSanitizeCamelCaseSynonyms(t *testing.T) {
	t.Parallel()
	doc := Sanitize(decode(t, `{
		"sections": [{"keyPoints": ["a"], "vcReflection": {"title": "vc"}}],
		"quickTake": {"readinessLevel": "LOW", "readinessRationale": "why"}
	}`), discardLogger())
	if got := doc.Sections[0].KeyPoints; !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("keyPoints synonym not honored: %v", got)
	}
	if doc.Sections[0].VCReflection == nil || doc.Sections[0].VCReflection.Title != "vc" {
		t.Errorf("vcReflection synonym not honored: %+v", doc.Sections[0].VCReflection)
	}
	if doc.QuickTake == nil || doc.QuickTake.ReadinessLevel != ReadinessLow {
		t.Errorf("quickTake synonym not honored: %+v", doc.QuickTake)
	}
	if doc.QuickTake.ReadinessRationale != "why" {
		t.Errorf("readinessRationale = %q", doc.QuickTake.ReadinessRationale)
	}
}

func TestSanitizeWarningPathNamesKeyTaken(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// the title object unwraps through "value", and the coercion failure
	// underneath must be reported at that path
	Sanitize(map[string]any{
		"sections": []any{map[string]any{
			"title": map[string]any{"value": []any{"not", "a", "string"}},
		}},
	}, logger)

	if out := buf.String(); !strings.Contains(out, "sections[0].title.value") {
		t.Errorf("warning should name the value path, got:\n%s", out)
	}
}
