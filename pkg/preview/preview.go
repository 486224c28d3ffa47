// Package preview turns a model script into everything a viewer needs in one
// call: colored triangle meshes, evaluation errors, validation warnings and
// the encoded model document.
package preview

import (
	"context"
	"encoding/json"

	"github.com/chazu/hbcore/internal/config"
	"github.com/chazu/hbcore/internal/logging"
	"github.com/chazu/hbcore/pkg/engine"
	"github.com/chazu/hbcore/pkg/kernel"
	"github.com/chazu/hbcore/pkg/kernel/sdfx"
	"github.com/chazu/hbcore/pkg/model"
	"github.com/chazu/hbcore/pkg/schema"
	"github.com/chazu/hbcore/pkg/tessellate"
)

var logger = logging.New("preview")

// ColorPalette is cycled per room so that every object of a room shares a
// color. Orphaned objects use the color after the last room.
var ColorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Fixed colors by object type, applied on top of the room color.
var typeColors = map[string]string{
	"Aperture":  "#AED6F1",
	"Shade":     "#7F8C8D",
	"ShadeMesh": "#7F8C8D",
}

// Service evaluates scripts and renders their models.
type Service struct {
	engine *engine.Engine
	kernel kernel.Kernel
	opts   tessellate.Options
	decode schema.DecodeOptions
}

// MeshData is the JSON form of one tessellated object.
type MeshData struct {
	Vertices   []float32 `json:"vertices"`
	Normals    []float32 `json:"normals"`
	Indices    []uint32  `json:"indices"`
	Identifier string    `json:"identifier"`
	ObjectType string    `json:"objectType"`
	Color      string    `json:"color"`
}

// Message is a positioned error or warning.
type Message struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Result is everything produced from one script.
type Result struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []Message       `json:"errors"`
	Warnings []Message       `json:"warnings"`
	Model    json.RawMessage `json:"model,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithEngine replaces the default engine.
func WithEngine(e *engine.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// WithTessellation sets the tessellation options.
func WithTessellation(opts tessellate.Options) Option {
	return func(s *Service) { s.opts = opts }
}

// NewService creates a Service with the sdfx kernel. A non-nil cfg is
// applied process-wide (log level) and configures the engine and the
// document decoder; a nil cfg uses the defaults and leaves logging alone.
func NewService(cfg *config.Config, opts ...Option) *Service {
	var engOpts []engine.Option
	decode := schema.OptionsFromConfig(config.DefaultConfig().Schema)
	if cfg != nil {
		if err := config.Apply(cfg); err != nil {
			logger.Warn("configuration not applied", "err", err)
		}
		engOpts = append(engOpts, engine.WithConfig(cfg))
		decode = schema.OptionsFromConfig(cfg.Schema)
	}
	s := &Service{
		engine: engine.NewEngine(engOpts...),
		kernel: sdfx.New(),
		opts:   tessellate.Options{Punched: true},
		decode: decode,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Evaluate runs source and returns its meshes. Errors are reported in the
// Result; a Result with errors carries no meshes.
func (s *Service) Evaluate(ctx context.Context, source string) Result {
	result := Result{
		Meshes:   []MeshData{},
		Errors:   []Message{},
		Warnings: []Message{},
	}

	m, evalErrs, err := s.engine.EvaluateContext(ctx, source)
	if err != nil {
		logger.Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, Message{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, Message{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	return s.render(m, result)
}

// Load decodes a Model document within the configured size limit and,
// when enabled, after checking it against the CUE schema, then renders it.
func (s *Service) Load(data []byte) Result {
	result := Result{
		Meshes:   []MeshData{},
		Errors:   []Message{},
		Warnings: []Message{},
	}
	m, err := schema.UnmarshalModel(data, s.decode)
	if err != nil {
		logger.Warn("load failed", "bytes", len(data), "err", err)
		result.Errors = append(result.Errors, Message{Message: err.Error()})
		return result
	}
	return s.render(m, result)
}

// Render tessellates an existing model.
func (s *Service) Render(m *model.Model) Result {
	return s.render(m, Result{
		Meshes:   []MeshData{},
		Errors:   []Message{},
		Warnings: []Message{},
	})
}

func (s *Service) render(m *model.Model, result Result) Result {
	for _, f := range model.Validate(m).Findings {
		msg := Message{Code: f.Code, Message: f.Error()}
		if f.Severity == model.SeverityError {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}

	meshes, err := tessellate.Tessellate(m, s.kernel, s.opts)
	if err != nil {
		logger.Error("tessellate failed", "model", m.Identifier(), "err", err)
		result.Errors = append(result.Errors, Message{Message: "tessellation failed: " + err.Error()})
		return result
	}

	colors := roomColors(m)
	for _, mesh := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices:   mesh.Vertices,
			Normals:    mesh.Normals,
			Indices:    mesh.Indices,
			Identifier: mesh.Identifier,
			ObjectType: mesh.ObjectType,
			Color:      colorFor(m, mesh, colors),
		})
	}

	doc, err := schema.Marshal(m)
	if err != nil {
		result.Warnings = append(result.Warnings, Message{Message: "encode model: " + err.Error()})
		return result
	}
	result.Model = doc
	logger.Debug("rendered model", "model", m.Identifier(), "meshes", len(result.Meshes))
	return result
}

func roomColors(m *model.Model) map[string]string {
	colors := make(map[string]string)
	for i, r := range m.Rooms() {
		colors[r.Identifier()] = ColorPalette[i%len(ColorPalette)]
	}
	colors[""] = ColorPalette[len(m.Rooms())%len(ColorPalette)]
	return colors
}

func colorFor(m *model.Model, mesh *kernel.Mesh, rooms map[string]string) string {
	if c, ok := typeColors[mesh.ObjectType]; ok {
		return c
	}
	o, ok := m.FindByID(mesh.Identifier)
	if !ok {
		return rooms[""]
	}
	return rooms[owningRoom(o)]
}

// owningRoom returns the identifier of the room o belongs to, or "".
func owningRoom(o model.Object) string {
	for p := o; p != nil; p = p.Parent() {
		if r, ok := p.(*model.Room); ok {
			return r.Identifier()
		}
	}
	return ""
}
