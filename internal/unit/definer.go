package unit

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
)

//go:embed schema/unit.cue
var unitSchemaCUE []byte

// Document kinds without a gateway capability.
const (
	docKindComponent = "component"
	docKindSupport   = "support"
)

// schemaDefs maps a document kind to its schema definition.
var schemaDefs = map[string]string{
	string(core.KindPlugin):           "#Plugin",
	string(core.KindDataHandler):      "#DataHandler",
	string(core.KindMetaDataHandler):  "#MetaDataHandler",
	string(core.KindContextDecorator): "#ContextDecorator",
	docKindComponent:                  "#Component",
	docKindSupport:                    "#Support",
}

// Definer turns raw unit bytes into a Type.
type Definer interface {
	Define(name, origin string, src []byte) (*Type, error)
}

// CUEDefiner defines units from CUE documents validated against the
// embedded unit schema. It is safe for concurrent use.
type CUEDefiner struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewCUEDefiner compiles the unit schema.
func NewCUEDefiner() (*CUEDefiner, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(unitSchemaCUE, cue.Filename("unit.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling unit schema: %w", schema.Err())
	}
	return &CUEDefiner{ctx: ctx, schema: schema}, nil
}

// Define compiles src, validates it against the definition selected by its
// kind field and returns a Type whose constructor builds the declared
// component. Failures wrap ErrUnitInvalid.
func (d *CUEDefiner) Define(name, origin string, src []byte) (*Type, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc := d.ctx.CompileBytes(src, cue.Filename(name+".cue"))
	if doc.Err() != nil {
		return nil, invalid(name, doc.Err())
	}

	kindVal := doc.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, fmt.Errorf("%w: %s: missing kind", oerrors.ErrUnitInvalid, name)
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, invalid(name, err)
	}
	def, ok := schemaDefs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown kind %q", oerrors.ErrUnitInvalid, name, kind)
	}

	unified := d.schema.LookupPath(cue.ParsePath(def)).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, invalid(name, err)
	}

	t := &Type{Name: name, Kind: core.KindNone, Origin: origin}
	if err := decodeType(t, kind, unified); err != nil {
		return nil, invalid(name, err)
	}
	return t, nil
}

// decodeType fills kind-specific fields and the constructor of t.
func decodeType(t *Type, kind string, v cue.Value) error {
	switch kind {
	case string(core.KindPlugin):
		var s PluginSpec
		if err := v.Decode(&s); err != nil {
			return err
		}
		if s.Name == "" {
			s.Name = t.Name
		}
		t.Kind, t.Requires = core.KindPlugin, s.Requires
		t.ctor = func() (any, error) { return newDeclaredPlugin(s), nil }
	case string(core.KindDataHandler):
		var s DataHandlerSpec
		if err := v.Decode(&s); err != nil {
			return err
		}
		t.Kind, t.Requires = core.KindDataHandler, s.Requires
		t.ctor = func() (any, error) { return newDeclaredDataHandler(s), nil }
	case string(core.KindMetaDataHandler):
		var s MetaDataHandlerSpec
		if err := v.Decode(&s); err != nil {
			return err
		}
		t.Kind, t.Requires = core.KindMetaDataHandler, s.Requires
		t.ctor = func() (any, error) { return newDeclaredMetaDataHandler(s), nil }
	case string(core.KindContextDecorator):
		var s ContextDecoratorSpec
		if err := v.Decode(&s); err != nil {
			return err
		}
		t.Kind, t.Requires = core.KindContextDecorator, s.Requires
		t.ctor = func() (any, error) { return newDeclaredDecorator(s), nil }
	default:
		var s PropertiesSpec
		if err := v.Decode(&s); err != nil {
			return err
		}
		t.Marked = kind == docKindComponent
		t.Requires = s.Requires
		t.ctor = func() (any, error) { return newProperties(s), nil }
	}
	return nil
}

func invalid(name string, err error) error {
	return fmt.Errorf("%w: %s: %s", oerrors.ErrUnitInvalid, name, cueerrors.Details(err, nil))
}
