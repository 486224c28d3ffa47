package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/hbcore/pkg/model"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(room-box "A" :width 3)`,
			expect: `(room_box "A" "__kw_width" 3)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(apertures-by-ratio ref 0.4)`,
			expect: `(apertures_by_ratio ref 0.4)`,
		},
		{
			name:   "minus operator and negative numbers preserved",
			input:  `(- 10 5) (vec3 0 -1 3)`,
			expect: `(- 10 5) (vec3 0 -1 3)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:tie-break`,
			expect: `"__kw_tie-break"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// mustEvaluate runs source and fails the test on any error.
func mustEvaluate(t *testing.T, source string) *model.Model {
	t.Helper()
	m, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if m == nil {
		t.Fatal("expected non-nil model")
	}
	return m
}

// evalFailure runs source, expects eval errors, and returns their text.
func evalFailure(t *testing.T, source string) string {
	t.Helper()
	m, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	var msgs []string
	for _, e := range evalErrs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "\n")
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func TestRoomBox(t *testing.T) {
	m := mustEvaluate(t, `
(def office (room-box "Office" :width 4 :depth 5 :height 3 :origin (vec3 1 2 0)))
(display-name office "Open Office")
(story office "Level_1")
`)
	rooms := m.Rooms()
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	r := rooms[0]
	if r.Identifier() != "Office" || r.DisplayName() != "Open Office" {
		t.Errorf("room names = %q / %q", r.Identifier(), r.DisplayName())
	}
	if r.Story != "Level_1" {
		t.Errorf("story = %q", r.Story)
	}
	if len(r.Faces()) != 6 {
		t.Errorf("expected 6 faces, got %d", len(r.Faces()))
	}
	if !near(r.Volume(), 60) {
		t.Errorf("volume = %g, want 60", r.Volume())
	}
	c := r.Center()
	if !near(c.X, 3) || !near(c.Y, 4.5) || !near(c.Z, 1.5) {
		t.Errorf("center = %v", c)
	}
}

func TestAperturesByRatio(t *testing.T) {
	m := mustEvaluate(t, `
(def office (room-box "Office" :width 4 :depth 4 :height 3))
(apertures-by-ratio office 0.4)
(apertures-by-ratio (object-ref "Office_Front") 0.2)
`)
	aps := m.Apertures()
	if len(aps) != 4 {
		t.Fatalf("expected one aperture per wall, got %d", len(aps))
	}
	f, ok := m.FindByID("Office_Front")
	if !ok {
		t.Fatal("missing front face")
	}
	front := f.(*model.Face)
	if !near(front.ApertureRatio(), 0.2) {
		t.Errorf("front ratio = %g, want 0.2", front.ApertureRatio())
	}
	back, _ := m.FindByID("Office_Back")
	if !near(back.(*model.Face).ApertureRatio(), 0.4) {
		t.Errorf("back ratio = %g, want 0.4", back.(*model.Face).ApertureRatio())
	}
}

func TestShades(t *testing.T) {
	m := mustEvaluate(t, `
(def office (room-box "Office" :width 4 :depth 4 :height 3))
(shade "Overhang" (vec3 0 0 3) (vec3 4 0 3) (vec3 4 -1 3) (vec3 0 -1 3) :on (object-ref "Office_Front"))
(shade "Shelf" [(vec3 0 0 1) (vec3 4 0 1) (vec3 4 0.5 1)] :on (object-ref "Office_Front") :indoor true)
(shade "Tree" (vec3 10 10 0) (vec3 12 10 0) (vec3 12 10 5) :detached true)
`)
	f, _ := m.FindByID("Office_Front")
	front := f.(*model.Face)
	if len(front.OutdoorShades()) != 1 || front.OutdoorShades()[0].Identifier() != "Overhang" {
		t.Errorf("outdoor shades = %v", front.OutdoorShades())
	}
	if len(front.IndoorShades()) != 1 || front.IndoorShades()[0].Identifier() != "Shelf" {
		t.Errorf("indoor shades = %v", front.IndoorShades())
	}
	orphans := m.OrphanedShades()
	if len(orphans) != 1 || !orphans[0].IsDetached {
		t.Fatalf("expected one detached orphan shade, got %v", orphans)
	}
}

func TestTransforms(t *testing.T) {
	m := mustEvaluate(t, `
(def a (room-box "A" :width 2 :depth 2 :height 2))
(move a (vec3 10 0 0))
(def b (room-box "B" :width 2 :depth 2 :height 2))
(rotate-xy b 90 :origin (vec3 0 0 0))
(def c (room-box "C" :width 1 :depth 1 :height 1))
(scale c 3)
(def d (room-box "D" :width 2 :depth 2 :height 2 :origin (vec3 1 5 0)))
(reflect d :normal (vec3 1 0 0))
`)
	center := func(id string) (x, y float64) {
		o, ok := m.FindByID(id)
		if !ok {
			t.Fatalf("missing room %s", id)
		}
		c := o.(*model.Room).Center()
		return c.X, c.Y
	}
	if x, y := center("A"); !near(x, 11) || !near(y, 1) {
		t.Errorf("moved center = %g, %g", x, y)
	}
	if x, y := center("B"); !near(x, -1) || !near(y, 1) {
		t.Errorf("rotated center = %g, %g", x, y)
	}
	c, _ := m.FindByID("C")
	if !near(c.(*model.Room).Volume(), 27) {
		t.Errorf("scaled volume = %g, want 27", c.(*model.Room).Volume())
	}
	if x, _ := center("D"); !near(x, -2) {
		t.Errorf("reflected center x = %g, want -2", x)
	}
	if !model.Validate(m).Valid() {
		t.Errorf("transformed model should be valid: %s", model.Validate(m))
	}
}

func TestSolveAdjacency(t *testing.T) {
	m := mustEvaluate(t, `
(room-box "A" :width 3 :depth 3 :height 3 :origin (vec3 0 0 3))
(room-box "B" :width 3 :depth 3 :height 3 :origin (vec3 3 0 3))
(solve-adjacency :tie-break :first-match)
`)
	f, _ := m.FindByID("A_Right")
	bc, ok := f.(*model.Face).BoundaryCondition().(model.Surface)
	if !ok {
		t.Fatalf("A_Right should be a Surface, got %s", f.(*model.Face).BoundaryCondition().Name())
	}
	if bc.Counterpart() != "B_Left" {
		t.Errorf("counterpart = %q", bc.Counterpart())
	}
}

func TestSetMultiplierAndUnits(t *testing.T) {
	m := mustEvaluate(t, `
(def a (room-box "A" :width 3 :depth 3 :height 3))
(set-multiplier a 4)
(units :millimeters)
`)
	r := m.Rooms()[0]
	if r.Multiplier != 4 {
		t.Errorf("multiplier = %d", r.Multiplier)
	}
	if m.Units != model.Millimeters {
		t.Errorf("units = %s", m.Units)
	}
	if math.Abs(r.Volume()/27e9-1) > 1e-9 {
		t.Errorf("volume in mm3 = %g", r.Volume())
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"missing dimension", `(room-box "A" :width 3 :depth 3)`, "missing :height"},
		{"bad identifier", `(room-box "A B" :width 3 :depth 3 :height 3)`, "invalid identifier"},
		{"duplicate identifier", `(room-box "A" :width 3 :depth 3 :height 3) (room-box "A" :width 3 :depth 3 :height 3 :origin (vec3 5 0 0))`, "duplicate identifier"},
		{"unknown object", `(object-ref "Nope")`, "no object named"},
		{"wrong vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"ratio out of range", `(apertures-by-ratio (room-box "A" :width 3 :depth 3 :height 3) 1.5)`, "ratio"},
		{"multiplier on face", `(room-box "A" :width 3 :depth 3 :height 3) (set-multiplier (object-ref "A_Top") 2)`, "expected a room"},
		{"unknown units", `(units :furlongs)`, "unknown units"},
		{"bad tie break", `(solve-adjacency :tie-break :random)`, "tie break"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFailure(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not mention %q", msg, tt.want)
			}
		})
	}
}
