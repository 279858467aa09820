package pointing

import (
	"fmt"
	"strings"
)

// OutputKind selects which spatial annotation type to extract from model output.
type OutputKind int

const (
	// KindText means no spatial extraction is attempted.
	KindText OutputKind = iota
	// KindPoint extracts <point> tags.
	KindPoint
	// KindBox extracts <point_box> tags.
	KindBox
	// KindPolygon extracts <polygon> tags.
	KindPolygon
)

// String returns the lowercase name of the kind ("text", "point", "box", "polygon").
func (k OutputKind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindBox:
		return "box"
	case KindPolygon:
		return "polygon"
	default:
		return "text"
	}
}

// ParseKind converts a kind name to an OutputKind. Matching is case-insensitive
// and an empty string means KindText.
func ParseKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return KindText, nil
	case "point", "points":
		return KindPoint, nil
	case "box", "boxes", "point_box":
		return KindBox, nil
	case "polygon", "polygons":
		return KindPolygon, nil
	default:
		return KindText, fmt.Errorf("unknown output kind %q (want text, point, box or polygon)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k OutputKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *OutputKind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// itemTag returns the tag name carrying items of this kind.
func (k OutputKind) itemTag() string {
	switch k {
	case KindPoint:
		return tagPoint
	case KindBox:
		return tagBox
	case KindPolygon:
		return tagPolygon
	default:
		return ""
	}
}

// HintName returns the upper-case token used in <hint> system prompts,
// or "" for KindText.
func (k OutputKind) HintName() string {
	if k == KindText {
		return ""
	}
	return strings.ToUpper(k.String())
}
