package pointing

import (
	"iter"
	"regexp"
	"strconv"
)

// Tag names understood in model output. Boxes use point_box, not box.
const (
	tagPoint      = "point"
	tagBox        = "point_box"
	tagPolygon    = "polygon"
	tagCollection = "collection"
)

// Extractor turns tagged model output into annotations.
// All matchers are compiled by NewExtractor and never modified afterwards,
// so one Extractor can be shared by any number of goroutines.
type Extractor struct {
	tags    map[string]*regexp.Regexp
	coord   *regexp.Regexp
	mention *regexp.Regexp
}

// NewExtractor compiles the tag, coordinate and mention matchers.
func NewExtractor() *Extractor {
	e := &Extractor{
		tags:    make(map[string]*regexp.Regexp, 4),
		coord:   regexp.MustCompile(`\(\s*(\d+)\s*,\s*(\d+)\s*\)`),
		mention: regexp.MustCompile(`mention="([^"]*)"`),
	}
	for _, name := range []string{tagPoint, tagBox, tagPolygon, tagCollection} {
		e.tags[name] = tagPattern(name)
	}
	return e
}

// tagPattern matches <name attrs>body</name>, case-insensitively, with the
// body ending at the nearest closing tag.
func tagPattern(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?i)<` + q + `([^>]*)>([\s\S]*?)</` + q + `>`)
}

// tagMatch is one occurrence of a tag. start and end delimit the whole
// match, open tag through close tag.
type tagMatch struct {
	start, end int
	attrs      string
	body       string
}

// scan yields the occurrences of the named tag in text, left to right.
func (e *Extractor) scan(name, text string) iter.Seq[tagMatch] {
	re := e.tags[name]
	return func(yield func(tagMatch) bool) {
		for off := 0; off < len(text); {
			loc := re.FindStringSubmatchIndex(text[off:])
			if loc == nil {
				return
			}
			m := tagMatch{
				start: off + loc[0],
				end:   off + loc[1],
				attrs: text[off+loc[2] : off+loc[3]],
				body:  text[off+loc[4] : off+loc[5]],
			}
			if !yield(m) {
				return
			}
			off = m.end
		}
	}
}

// coords returns every (x, y) pair in body in text order. Pairs that do not
// fit in a uint32 are skipped.
func (e *Extractor) coords(body string) []Coordinate {
	var out []Coordinate
	for _, m := range e.coord.FindAllStringSubmatch(body, -1) {
		x, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		y, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			continue
		}
		out = append(out, Coordinate{X: uint32(x), Y: uint32(y)})
	}
	return out
}

// mentionOf returns the mention="..." value in a tag's attribute text, or
// nil when the attribute is absent.
func (e *Extractor) mentionOf(attrs string) *string {
	m := e.mention.FindStringSubmatch(attrs)
	if m == nil {
		return nil
	}
	return &m[1]
}
