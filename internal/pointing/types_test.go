package pointing

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPointing_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Pointing
		want string
	}{
		{
			name: "points",
			in:   Pointing{Kind: KindPoint, Points: []Point{{X: 100, Y: 200, Mention: Label("target")}}},
			want: `{"points":[{"x":100,"y":200,"mention":"target"}]}`,
		},
		{
			name: "boxes without mention",
			in:   Pointing{Kind: KindBox, Boxes: []BoundingBox{{X1: 1, Y1: 2, X2: 3, Y2: 4}}},
			want: `{"boxes":[{"x1":1,"y1":2,"x2":3,"y2":4}]}`,
		},
		{
			name: "polygons",
			in:   Pointing{Kind: KindPolygon, Polygons: []Polygon{{Hull: []Coordinate{{0, 0}, {5, 0}, {5, 5}}}}},
			want: `{"polygons":[{"hull":[[0,0],[5,0],[5,5]]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
			if err := ValidateJSON(got); err != nil {
				t.Errorf("ValidateJSON() error = %v", err)
			}

			var back Pointing
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !reflect.DeepEqual(back, tt.in) {
				t.Errorf("Unmarshal() = %+v, want %+v", back, tt.in)
			}
		})
	}
}

func TestPointing_EmptyMention(t *testing.T) {
	in := Pointing{Kind: KindPoint, Points: []Point{
		{X: 1, Y: 2, Mention: Label("")},
		{X: 3, Y: 4},
	}}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"points":[{"x":1,"y":2,"mention":""},{"x":3,"y":4}]}`
	if string(raw) != want {
		t.Errorf("Marshal() = %s, want %s", raw, want)
	}

	var back Pointing
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Points[0].Mention == nil || *back.Points[0].Mention != "" {
		t.Errorf("empty mention lost: %v", back.Points[0].Mention)
	}
	if back.Points[1].Mention != nil {
		t.Errorf("absent mention = %q, want nil", *back.Points[1].Mention)
	}
}

func TestPointing_MarshalYAML(t *testing.T) {
	in := Pointing{Kind: KindPolygon, Polygons: []Polygon{{
		Hull:    []Coordinate{{0, 0}, {5, 0}, {5, 5}},
		Mention: Label("tri"),
	}}}
	raw, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{"- [0, 0]", "- [5, 5]", "mention: tri"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("Marshal() = %s, missing %q", raw, want)
		}
	}
}

func TestPointing_MarshalJSON_TextKind(t *testing.T) {
	if _, err := json.Marshal(Pointing{}); err == nil {
		t.Error("expected error marshaling a text-kind pointing")
	}
}

func TestPointing_UnmarshalJSON_Invalid(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"points":[{"x":1,"y":2}],"boxes":[{"x1":1,"y1":2,"x2":3,"y2":4}]}`,
		`[]`,
		`{"points":[]}`,
		`{"boxes":[]}`,
		`{"polygons":[]}`,
		`{"points":[],"boxes":[{"x1":1,"y1":2,"x2":3,"y2":4}]}`,
	} {
		var p Pointing
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			t.Errorf("Unmarshal(%s) expected error", raw)
		}
	}
}

func TestValidateJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"two variants", `{"points":[{"x":1,"y":2}],"boxes":[{"x1":1,"y1":2,"x2":3,"y2":4}]}`},
		{"empty object", `{}`},
		{"empty list", `{"points":[]}`},
		{"negative ordinate", `{"points":[{"x":-1,"y":2}]}`},
		{"missing corner", `{"boxes":[{"x1":1,"y1":2,"x2":3}]}`},
		{"short hull", `{"polygons":[{"hull":[[0,0],[1,1]]}]}`},
		{"three-value vertex", `{"polygons":[{"hull":[[0,0,0],[1,1],[2,2]]}]}`},
		{"unknown field", `{"points":[{"x":1,"y":2,"z":3}]}`},
		{"not json", `{points`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateJSON([]byte(tt.raw)); err == nil {
				t.Errorf("ValidateJSON(%s) expected error", tt.raw)
			}
		})
	}
}

func TestExtractedOutputMatchesSchema(t *testing.T) {
	inputs := map[OutputKind]string{
		KindPoint:   `<collection mention="cups"><point> (1,2) </point></collection><point> (3,4) </point>`,
		KindBox:     `<point_box mention="cat" t=0.95> (10,20) (100,200) </point_box>`,
		KindPolygon: `<polygon> (0,0) (10,0) (10,10) (0,10) </polygon>`,
	}
	for kind, text := range inputs {
		p := Extract(text, kind)
		if p == nil {
			t.Fatalf("Extract(%s) = nil", kind)
		}
		raw, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if err := ValidateJSON(raw); err != nil {
			t.Errorf("%s: ValidateJSON() error = %v", kind, err)
		}
	}
}

func TestSchema_IsValidJSON(t *testing.T) {
	var doc map[string]any
	if err := json.Unmarshal(Schema(), &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if doc["title"] != "Pointing" {
		t.Errorf("title = %v", doc["title"])
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputKind
		wantErr bool
	}{
		{"", KindText, false},
		{"text", KindText, false},
		{"Point", KindPoint, false},
		{"BOX", KindBox, false},
		{"point_box", KindBox, false},
		{"polygon", KindPolygon, false},
		{"circle", KindText, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutputKind_Text(t *testing.T) {
	type wrapper struct {
		Kind OutputKind `json:"kind"`
	}
	raw, err := json.Marshal(wrapper{Kind: KindPolygon})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `{"kind":"polygon"}` {
		t.Errorf("Marshal() = %s", raw)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"kind":"box"}`), &w); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if w.Kind != KindBox {
		t.Errorf("Kind = %v, want box", w.Kind)
	}

	err = json.Unmarshal([]byte(`{"kind":"hexagon"}`), &w)
	if err == nil || !strings.Contains(err.Error(), "unknown output kind") {
		t.Errorf("expected unknown kind error, got %v", err)
	}
}

func TestOutputKind_HintName(t *testing.T) {
	for kind, want := range map[OutputKind]string{
		KindText:    "",
		KindPoint:   "POINT",
		KindBox:     "BOX",
		KindPolygon: "POLYGON",
	} {
		if got := kind.HintName(); got != want {
			t.Errorf("%v.HintName() = %q, want %q", kind, got, want)
		}
	}
}
