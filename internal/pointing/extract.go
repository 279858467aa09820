// Package pointing extracts points, bounding boxes and polygons that a
// vision-language model embeds in its text output as pseudo-XML tags:
//
//	<point mention="cup"> (120,340) </point>
//	<point_box mention="cat" t=0.95> (10,20) (100,200) </point_box>
//	<polygon> (0,0) (100,0) (100,100) </polygon>
//	<collection mention="dog"> <point_box> (1,2) (3,4) </point_box> ... </collection>
//
// Extraction is best effort. Items without enough coordinates for their kind
// are dropped and never reported as errors.
package pointing

import (
	"strings"
	"sync"
)

// buildFunc constructs one annotation from its coordinates, reporting false
// when there are too few of them.
type buildFunc[T any] func(coords []Coordinate, mention *string) (T, bool)

func buildPoint(coords []Coordinate, mention *string) (Point, bool) {
	if len(coords) < 1 {
		return Point{}, false
	}
	return Point{X: coords[0].X, Y: coords[0].Y, Mention: mention}, true
}

func buildBox(coords []Coordinate, mention *string) (BoundingBox, bool) {
	if len(coords) < 2 {
		return BoundingBox{}, false
	}
	return BoundingBox{
		X1:      coords[0].X,
		Y1:      coords[0].Y,
		X2:      coords[1].X,
		Y2:      coords[1].Y,
		Mention: mention,
	}, true
}

func buildPolygon(coords []Coordinate, mention *string) (Polygon, bool) {
	if len(coords) < 3 {
		return Polygon{}, false
	}
	return Polygon{Hull: coords, Mention: mention}, true
}

// Extract returns the annotations of the given kind found in text, or nil
// when the kind is KindText or nothing usable was found. Items from
// <collection> blocks always come before standalone items.
func (e *Extractor) Extract(text string, kind OutputKind) *Pointing {
	tag := kind.itemTag()
	switch kind {
	case KindPoint:
		if items := collect(e, text, tag, buildPoint); len(items) > 0 {
			return &Pointing{Kind: KindPoint, Points: items}
		}
	case KindBox:
		if items := collect(e, text, tag, buildBox); len(items) > 0 {
			return &Pointing{Kind: KindBox, Boxes: items}
		}
	case KindPolygon:
		if items := collect(e, text, tag, buildPolygon); len(items) > 0 {
			return &Pointing{Kind: KindPolygon, Polygons: items}
		}
	}
	return nil
}

// collect gathers collection items first, then the standalone items left in
// the text once the collections are cut out.
func collect[T any](e *Extractor, text, tag string, build buildFunc[T]) []T {
	items, rest := flatten(e, text, tag, build)
	for m := range e.scan(tag, rest) {
		if item, ok := build(e.coords(m.body), e.mentionOf(m.attrs)); ok {
			items = append(items, item)
		}
	}
	return items
}

// flatten extracts the items nested in every <collection> and returns them
// with the text that remains after removing each collection's full span.
// A child's own mention wins over the collection's.
func flatten[T any](e *Extractor, text, tag string, build buildFunc[T]) ([]T, string) {
	var (
		items []T
		rest  strings.Builder
		last  int
		found bool
	)
	for c := range e.scan(tagCollection, text) {
		found = true
		parent := e.mentionOf(c.attrs)
		for m := range e.scan(tag, c.body) {
			mention := e.mentionOf(m.attrs)
			if mention == nil {
				mention = parent
			}
			if item, ok := build(e.coords(m.body), mention); ok {
				items = append(items, item)
			}
		}
		rest.WriteString(text[last:c.start])
		last = c.end
	}
	if !found {
		return items, text
	}
	rest.WriteString(text[last:])
	return items, rest.String()
}

var defaultExtractor = sync.OnceValue(NewExtractor)

// Extract runs the process-wide default Extractor, built on first use.
func Extract(text string, kind OutputKind) *Pointing {
	return defaultExtractor().Extract(text, kind)
}
