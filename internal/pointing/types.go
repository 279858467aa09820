package pointing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Coordinate is an (x, y) pair in the model's pixel space.
// It serializes as a two-element array.
type Coordinate struct {
	X uint32
	Y uint32
}

// MarshalJSON encodes the coordinate as [x, y].
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint32{c.X, c.Y})
}

// UnmarshalJSON decodes a coordinate from [x, y].
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []uint32
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate: want 2 values, got %d", len(pair))
	}
	c.X, c.Y = pair[0], pair[1]
	return nil
}

// MarshalYAML encodes the coordinate as a flow sequence [x, y].
func (c Coordinate) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(uint64(c.X), 10)},
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(uint64(c.Y), 10)},
		},
	}, nil
}

// Label returns a mention for building annotations by hand.
func Label(s string) *string {
	return &s
}

// Point is a single-coordinate annotation.
type Point struct {
	X       uint32  `json:"x" yaml:"x"`
	Y       uint32  `json:"y" yaml:"y"`
	Mention *string `json:"mention,omitempty" yaml:"mention,omitempty"`
}

// BoundingBox is a two-corner annotation. Corners are kept in source order
// and are not normalized.
type BoundingBox struct {
	X1      uint32  `json:"x1" yaml:"x1"`
	Y1      uint32  `json:"y1" yaml:"y1"`
	X2      uint32  `json:"x2" yaml:"x2"`
	Y2      uint32  `json:"y2" yaml:"y2"`
	Mention *string `json:"mention,omitempty" yaml:"mention,omitempty"`
}

// Polygon is an ordered vertex list taken verbatim from the tag body.
type Polygon struct {
	Hull    []Coordinate `json:"hull" yaml:"hull"`
	Mention *string      `json:"mention,omitempty" yaml:"mention,omitempty"`
}

// Pointing holds the annotations extracted from one piece of text.
// Exactly one of Points, Boxes or Polygons is populated, selected by Kind.
type Pointing struct {
	Kind     OutputKind
	Points   []Point
	Boxes    []BoundingBox
	Polygons []Polygon
}

// Len returns the number of annotations held.
func (p *Pointing) Len() int {
	if p == nil {
		return 0
	}
	switch p.Kind {
	case KindPoint:
		return len(p.Points)
	case KindBox:
		return len(p.Boxes)
	case KindPolygon:
		return len(p.Polygons)
	}
	return 0
}

// Mentions returns the label of every annotation in order ("" when unlabeled).
// Use the Mention fields to tell an absent label from mention="".
func (p *Pointing) Mentions() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, p.Len())
	switch p.Kind {
	case KindPoint:
		for _, v := range p.Points {
			out = append(out, deref(v.Mention))
		}
	case KindBox:
		for _, v := range p.Boxes {
			out = append(out, deref(v.Mention))
		}
	case KindPolygon:
		for _, v := range p.Polygons {
			out = append(out, deref(v.Mention))
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// wirePointing is the serialized form: a single-key object.
type wirePointing struct {
	Points   []Point       `json:"points,omitempty" yaml:"points,omitempty"`
	Boxes    []BoundingBox `json:"boxes,omitempty" yaml:"boxes,omitempty"`
	Polygons []Polygon     `json:"polygons,omitempty" yaml:"polygons,omitempty"`
}

func (p Pointing) wire() wirePointing {
	switch p.Kind {
	case KindPoint:
		return wirePointing{Points: p.Points}
	case KindBox:
		return wirePointing{Boxes: p.Boxes}
	case KindPolygon:
		return wirePointing{Polygons: p.Polygons}
	}
	return wirePointing{}
}

var errPointingVariant = errors.New("pointing: exactly one of points, boxes or polygons must be set")

// MarshalJSON encodes the pointing as {"points": [...]}, {"boxes": [...]}
// or {"polygons": [...]}.
func (p Pointing) MarshalJSON() ([]byte, error) {
	if p.Kind == KindText {
		return nil, errPointingVariant
	}
	return json.Marshal(p.wire())
}

// UnmarshalJSON decodes the single-key object form. The list must not be
// empty.
func (p *Pointing) UnmarshalJSON(data []byte) error {
	var w wirePointing
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	set := 0
	var out Pointing
	if w.Points != nil {
		set++
		out = Pointing{Kind: KindPoint, Points: w.Points}
	}
	if w.Boxes != nil {
		set++
		out = Pointing{Kind: KindBox, Boxes: w.Boxes}
	}
	if w.Polygons != nil {
		set++
		out = Pointing{Kind: KindPolygon, Polygons: w.Polygons}
	}
	if set != 1 || out.Len() == 0 {
		return errPointingVariant
	}
	*p = out
	return nil
}

// MarshalYAML renders the same single-key shape as the JSON form.
func (p Pointing) MarshalYAML() (any, error) {
	if p.Kind == KindText {
		return nil, errPointingVariant
	}
	return p.wire(), nil
}
