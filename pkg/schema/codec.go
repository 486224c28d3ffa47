package schema

import (
	_ "embed"

	"github.com/pkg/errors"

	"github.com/chazu/hbcore/internal/config"
	"github.com/chazu/hbcore/internal/cueutil"
	"github.com/chazu/hbcore/pkg/model"
)

//go:embed schema.cue
var documentSchema string

var cueSchema = cueutil.MustCompile(documentSchema)

// DecodeOptions bound what Unmarshal accepts.
type DecodeOptions struct {
	// MaxSize rejects larger input; zero means cueutil.DefaultMaxFileSize.
	MaxSize int64
	// Validate checks the input against the embedded CUE schema before
	// decoding.
	Validate bool
}

// OptionsFromConfig returns the decode options of a loaded configuration.
func OptionsFromConfig(cfg config.SchemaConfig) DecodeOptions {
	return DecodeOptions{MaxSize: cfg.MaxDocumentSize, Validate: cfg.ValidateCUE}
}

// Marshal encodes obj as a JSON document.
func Marshal(obj model.Object) ([]byte, error) {
	doc, err := ToDocument(obj)
	if err != nil {
		return nil, err
	}
	return doc.MarshalJSON()
}

// Unmarshal decodes a JSON document of any object type.
func Unmarshal(data []byte) (model.Object, error) {
	return UnmarshalWith(data, DecodeOptions{})
}

// UnmarshalWith is Unmarshal with explicit options.
func UnmarshalWith(data []byte, opts DecodeOptions) (model.Object, error) {
	maxSize := opts.MaxSize
	if maxSize == 0 {
		maxSize = cueutil.DefaultMaxFileSize
	}
	if err := cueutil.CheckFileSize(data, maxSize, "document"); err != nil {
		return nil, &DecodeError{Err: err}
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if opts.Validate {
		if err := validateDocument(data, doc.Type()); err != nil {
			return nil, err
		}
	}
	return FromDocument(doc)
}

// UnmarshalModel decodes a JSON Model document.
func UnmarshalModel(data []byte, opts DecodeOptions) (*model.Model, error) {
	obj, err := UnmarshalWith(data, opts)
	if err != nil {
		return nil, err
	}
	m, ok := obj.(*model.Model)
	if !ok {
		return nil, &DecodeError{Type: obj.Kind(), Path: []string{"type"}, Err: errors.Errorf("expected a Model document, got %s", obj.Kind())}
	}
	return m, nil
}

// Validate checks a JSON document against the embedded CUE schema for the
// type named by its "type" field.
func Validate(data []byte) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	return validateDocument(data, doc.Type())
}

func validateDocument(data []byte, typ string) error {
	switch typ {
	case model.KindModel, model.KindRoom, model.KindFace, model.KindAperture,
		model.KindDoor, model.KindShade, model.KindShadeMesh:
	default:
		return &DecodeError{Path: []string{"type"}, Err: errors.Errorf("unknown object type %q", typ)}
	}
	if _, err := cueSchema.Validate(data, "#"+typ, cueutil.Options{Filename: typ, Concrete: true}); err != nil {
		return &DecodeError{Type: typ, Err: err}
	}
	return nil
}
