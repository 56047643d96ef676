package memo

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Sanitize coerces an arbitrary decoded-JSON value into a Document whose
// leaves are all plain strings, string enum members, or arrays of those.
// It never returns an error and never panics: shape mismatches are logged
// as warnings (with the offending JSON path) and replaced with safe
// defaults. The one exception is a raw value that is not an object at all,
// which yields nil; callers must treat that as a content-level failure.
func Sanitize(raw any, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	m, ok := raw.(map[string]any)
	if !ok {
		logger.Warn("memo.sanitize.not_an_object", "type", fmt.Sprintf("%T", raw))
		return nil
	}

	s := &sanitizer{log: logger}
	doc := &Document{
		Sections: s.sections(pick(m, "sections"), "sections"),
	}
	if qt, ok := pickOK(m, "quick_take", "quickTake"); ok && qt != nil {
		doc.QuickTake = s.quickTake(qt, "quick_take")
	}
	return doc
}

type sanitizer struct {
	log *slog.Logger
}

// pick reads a key with camelCase fallback; models drift between the two.
func pick(m map[string]any, keys ...string) any {
	v, _ := pickOK(m, keys...)
	return v
}

func pickOK(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// toSafeString is the core coercion primitive. Rules, in order: strings
// pass through, nil becomes empty, numbers and bools are stringified, an
// object carrying a "text" or "value" key recurses on that key, and
// anything else becomes empty with a diagnostic naming the path.
func (s *sanitizer) toSafeString(v any, path string) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		for _, k := range []string{"text", "value"} {
			if inner, ok := t[k]; ok {
				return s.toSafeString(inner, path+"."+k)
			}
		}
		s.log.Warn("memo.sanitize.coerce_failed", "path", path, "type", "object")
		return ""
	default:
		s.log.Warn("memo.sanitize.coerce_failed", "path", path, "type", fmt.Sprintf("%T", v))
		return ""
	}
}

// stringArray maps every element through toSafeString. Non-array input
// yields an empty (non-nil) slice rather than an error.
func (s *sanitizer) stringArray(v any, path string) []string {
	arr, ok := v.([]any)
	if !ok {
		if v != nil {
			s.log.Warn("memo.sanitize.expected_array", "path", path, "type", fmt.Sprintf("%T", v))
		}
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for i, el := range arr {
		out = append(out, s.toSafeString(el, fmt.Sprintf("%s[%d]", path, i)))
	}
	return out
}

func (s *sanitizer) emphasis(v any, path string) string {
	if v == nil {
		return ""
	}
	e := strings.ToLower(strings.TrimSpace(s.toSafeString(v, path)))
	switch e {
	case EmphasisPlain, EmphasisStrong, EmphasisCaution:
		return e
	case "":
		return ""
	default:
		s.log.Warn("memo.sanitize.unknown_emphasis", "path", path, "value", e)
		return ""
	}
}

func (s *sanitizer) readiness(v any, path string) string {
	r := strings.ToUpper(strings.TrimSpace(s.toSafeString(v, path)))
	switch r {
	case ReadinessLow, ReadinessMedium, ReadinessHigh:
		return r
	default:
		if r != "" {
			s.log.Warn("memo.sanitize.unknown_readiness", "path", path, "value", r)
		}
		return ReadinessMedium
	}
}

func (s *sanitizer) paragraph(v any, path string) Paragraph {
	if m, ok := v.(map[string]any); ok {
		return Paragraph{
			Text:     s.toSafeString(pick(m, "text"), path+".text"),
			Emphasis: s.emphasis(pick(m, "emphasis"), path+".emphasis"),
		}
	}
	return Paragraph{Text: s.toSafeString(v, path)}
}

func (s *sanitizer) paragraphs(v any, path string) []Paragraph {
	arr, ok := v.([]any)
	if !ok {
		if v != nil {
			s.log.Warn("memo.sanitize.expected_array", "path", path, "type", fmt.Sprintf("%T", v))
		}
		return []Paragraph{}
	}
	out := make([]Paragraph, 0, len(arr))
	for i, el := range arr {
		out = append(out, s.paragraph(el, fmt.Sprintf("%s[%d]", path, i)))
	}
	return out
}

func (s *sanitizer) highlight(v any, path string) Highlight {
	if m, ok := v.(map[string]any); ok {
		return Highlight{
			Metric: s.toSafeString(pick(m, "metric"), path+".metric"),
			Label:  s.toSafeString(pick(m, "label"), path+".label"),
		}
	}
	// a bare string highlight is the metric itself, not garbage
	return Highlight{Metric: s.toSafeString(v, path)}
}

func (s *sanitizer) highlights(v any, path string) []Highlight {
	arr, ok := v.([]any)
	if !ok {
		if v != nil {
			s.log.Warn("memo.sanitize.expected_array", "path", path, "type", fmt.Sprintf("%T", v))
		}
		return []Highlight{}
	}
	out := make([]Highlight, 0, len(arr))
	for i, el := range arr {
		out = append(out, s.highlight(el, fmt.Sprintf("%s[%d]", path, i)))
	}
	return out
}

func (s *sanitizer) subSection(v any, path string) *SubSection {
	m, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			s.log.Warn("memo.sanitize.expected_object", "path", path, "type", fmt.Sprintf("%T", v))
		}
		return nil
	}
	return &SubSection{
		Title:      s.toSafeString(pick(m, "title"), path+".title"),
		Paragraphs: s.paragraphs(pick(m, "paragraphs"), path+".paragraphs"),
		Highlights: s.highlights(pick(m, "highlights"), path+".highlights"),
		KeyPoints:  s.stringArray(pick(m, "key_points", "keyPoints"), path+".key_points"),
	}
}

func (s *sanitizer) section(v any, path string) Section {
	m, ok := v.(map[string]any)
	if !ok {
		s.log.Warn("memo.sanitize.expected_object", "path", path, "type", fmt.Sprintf("%T", v))
		return Section{
			Title:      s.toSafeString(v, path),
			Paragraphs: []Paragraph{},
			Highlights: []Highlight{},
			KeyPoints:  []string{},
		}
	}
	sec := Section{
		Title:      s.toSafeString(pick(m, "title"), path+".title"),
		Paragraphs: s.paragraphs(pick(m, "paragraphs"), path+".paragraphs"),
		Highlights: s.highlights(pick(m, "highlights"), path+".highlights"),
		KeyPoints:  s.stringArray(pick(m, "key_points", "keyPoints"), path+".key_points"),
	}
	if v, ok := pickOK(m, "narrative"); ok && v != nil {
		sec.Narrative = s.subSection(v, path+".narrative")
	}
	if v, ok := pickOK(m, "vc_reflection", "vcReflection"); ok && v != nil {
		sec.VCReflection = s.subSection(v, path+".vc_reflection")
	}
	return sec
}

func (s *sanitizer) sections(v any, path string) []Section {
	arr, ok := v.([]any)
	if !ok {
		if v != nil {
			s.log.Warn("memo.sanitize.expected_array", "path", path, "type", fmt.Sprintf("%T", v))
		}
		return []Section{}
	}
	out := make([]Section, 0, len(arr))
	for i, el := range arr {
		out = append(out, s.section(el, fmt.Sprintf("%s[%d]", path, i)))
	}
	return out
}

func (s *sanitizer) quickTake(v any, path string) *QuickTake {
	m, ok := v.(map[string]any)
	if !ok {
		s.log.Warn("memo.sanitize.expected_object", "path", path, "type", fmt.Sprintf("%T", v))
		return nil
	}
	return &QuickTake{
		Verdict:            s.toSafeString(pick(m, "verdict"), path+".verdict"),
		Concerns:           s.stringArray(pick(m, "concerns"), path+".concerns"),
		Strengths:          s.stringArray(pick(m, "strengths"), path+".strengths"),
		ReadinessLevel:     s.readiness(pick(m, "readiness_level", "readinessLevel"), path+".readiness_level"),
		ReadinessRationale: s.toSafeString(pick(m, "readiness_rationale", "readinessRationale"), path+".readiness_rationale"),
	}
}
