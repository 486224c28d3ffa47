package model

import (
	"fmt"
	"strings"

	"github.com/chazu/hbcore/pkg/ident"
)

// Severity indicates whether a finding blocks use of the model or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks use
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding codes.
const (
	CodeDuplicateIdentifier  = "000001"
	CodeInvalidIdentifier    = "000002"
	CodeNonPlanar            = "000101"
	CodeSelfIntersecting     = "000102"
	CodeZeroArea             = "000103"
	CodeSubFaceNotContained  = "000104"
	CodeTooFewVertices       = "000105"
	CodeNotSolid             = "000106"
	CodeInconsistentNormals  = "000107"
	CodeMissingAdjacency     = "000201"
	CodeNonReciprocal        = "000202"
	CodeSelfAdjacency        = "000203"
	CodeAirBoundaryExposed   = "000204"
	CodeSubFaceParentSurface = "000205"
	CodeInvalidMultiplier    = "000301"
)

// Finding describes a single validation problem.
type Finding struct {
	Code        string
	Severity    Severity
	Message     string
	ElementType string   // kind of the offending object
	ElementIDs  []string // offending identifiers
	ParentIDs   []string // identifiers of the owners, innermost first
}

func (f Finding) Error() string {
	if len(f.ElementIDs) == 0 {
		return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Code, f.Message)
	}
	return fmt.Sprintf("[%s] %s %s %s: %s", f.Severity, f.Code, f.ElementType, strings.Join(f.ElementIDs, ", "), f.Message)
}

// Report aggregates the findings of every check.
type Report struct {
	Findings []Finding
}

// Valid reports whether the report has no error findings.
func (r *Report) Valid() bool {
	return len(r.Errors()) == 0
}

func (r *Report) Errors() []Finding   { return r.filter(SeverityError) }
func (r *Report) Warnings() []Finding { return r.filter(SeverityWarning) }

// Has reports whether a finding with the given code exists.
func (r *Report) Has(code string) bool {
	for _, f := range r.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func (r *Report) String() string {
	if len(r.Findings) == 0 {
		return "valid"
	}
	lines := make([]string, len(r.Findings))
	for i, f := range r.Findings {
		lines[i] = f.Error()
	}
	return strings.Join(lines, "\n")
}

func (r *Report) filter(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// ValidateOption adjusts Validate.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	solids bool
	tol    float64
	angTol float64
}

// WithSolidity sets whether rooms must be closed solids. It is on by
// default.
func WithSolidity(assert bool) ValidateOption {
	return func(c *validateConfig) { c.solids = assert }
}

// WithTolerance overrides the model tolerances.
func WithTolerance(tol, angTol float64) ValidateOption {
	return func(c *validateConfig) {
		if tol > 0 {
			c.tol = tol
		}
		if angTol > 0 {
			c.angTol = angTol
		}
	}
}

// Validate runs every check on m and returns all findings. It never
// modifies the model.
func Validate(m *Model, opts ...ValidateOption) *Report {
	cfg := validateConfig{solids: true, tol: m.Tolerance, angTol: m.AngleTolerance}
	for _, o := range opts {
		o(&cfg)
	}

	index := make(map[string]Object)
	m.Walk(func(o Object) bool {
		if _, dup := index[o.Identifier()]; !dup {
			index[o.Identifier()] = o
		}
		return true
	})

	r := &Report{}
	// Tier 1: structure.
	r.Findings = append(r.Findings, validateIdentifiers(m)...)
	r.Findings = append(r.Findings, validateAdjacency(m, index)...)
	r.Findings = append(r.Findings, validateMultipliers(m)...)
	// Tier 2: geometry.
	r.Findings = append(r.Findings, validateGeometry(m, cfg)...)
	return r
}

func finding(code string, sev Severity, o Object, format string, args ...any) Finding {
	var parents []string
	for p := o.Parent(); p != nil; p = p.Parent() {
		if _, isModel := p.(*Model); !isModel {
			parents = append(parents, p.Identifier())
		}
	}
	return Finding{
		Code:        code,
		Severity:    sev,
		Message:     fmt.Sprintf(format, args...),
		ElementType: o.Kind(),
		ElementIDs:  []string{o.Identifier()},
		ParentIDs:   parents,
	}
}

// validateIdentifiers checks that every identifier is legal and used once.
func validateIdentifiers(m *Model) []Finding {
	var out []Finding
	seen := make(map[string]bool)
	m.Walk(func(o Object) bool {
		id := o.Identifier()
		if err := ident.Validate(id); err != nil {
			out = append(out, finding(CodeInvalidIdentifier, SeverityError, o, "%v", err))
		}
		if seen[id] {
			out = append(out, finding(CodeDuplicateIdentifier, SeverityError, o, "identifier %q is used more than once", id))
		}
		seen[id] = true
		return true
	})
	return out
}

func boundaryOf(o Object) (BoundaryCondition, bool) {
	switch v := o.(type) {
	case *Face:
		return v.bc, true
	case *Aperture:
		return v.bc, true
	case *Door:
		return v.bc, true
	}
	return nil, false
}

// validateAdjacency checks that Surface conditions reference an existing
// object of the same kind that references them back.
func validateAdjacency(m *Model, index map[string]Object) []Finding {
	var out []Finding
	check := func(o Object) {
		bc, _ := boundaryOf(o)
		s, ok := bc.(Surface)
		if !ok {
			return
		}
		other := s.Counterpart()
		if other == o.Identifier() {
			out = append(out, finding(CodeSelfAdjacency, SeverityError, o, "Surface condition references itself"))
			return
		}
		target, ok := index[other]
		if !ok {
			out = append(out, finding(CodeMissingAdjacency, SeverityError, o, "adjacent object %q does not exist", other))
			return
		}
		if target.Kind() != o.Kind() {
			out = append(out, finding(CodeNonReciprocal, SeverityError, o, "adjacent object %q is a %s", other, target.Kind()))
			return
		}
		tbc, _ := boundaryOf(target)
		ts, ok := tbc.(Surface)
		if !ok || ts.Counterpart() != o.Identifier() {
			out = append(out, finding(CodeNonReciprocal, SeverityError, o,
				"adjacent %s %q does not reference it back (has %s)", target.Kind(), other, describeBC(tbc)))
		}
	}

	for _, f := range m.Faces() {
		check(f)
		_, faceSurface := f.bc.(Surface)
		for _, a := range f.apertures {
			check(a)
			if _, ok := a.bc.(Surface); ok && !faceSurface {
				out = append(out, finding(CodeSubFaceParentSurface, SeverityError, a,
					"Surface aperture in a face with a %s condition", f.bc.Name()))
			}
		}
		for _, d := range f.doors {
			check(d)
			if _, ok := d.bc.(Surface); ok && !faceSurface {
				out = append(out, finding(CodeSubFaceParentSurface, SeverityError, d,
					"Surface door in a face with a %s condition", f.bc.Name()))
			}
		}
		if f.faceType == AirBoundary && !faceSurface {
			if _, inRoom := f.parent.(*Room); inRoom {
				out = append(out, finding(CodeAirBoundaryExposed, SeverityWarning, f,
					"AirBoundary face has a %s condition instead of Surface", f.bc.Name()))
			}
		}
	}
	for _, a := range m.apertures {
		check(a)
	}
	for _, d := range m.doors {
		check(d)
	}
	return out
}

// validateMultipliers checks that every room multiplier is at least 1.
func validateMultipliers(m *Model) []Finding {
	var out []Finding
	for _, r := range m.rooms {
		if r.Multiplier < 1 {
			out = append(out, finding(CodeInvalidMultiplier, SeverityError, r, "multiplier is %d, must be at least 1", r.Multiplier))
		}
	}
	return out
}
