package vm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tolelom/stakeledger/codec"
	"github.com/tolelom/stakeledger/core"
)

// Definition binds an action type tag to its decoder.
type Definition struct {
	Type core.ActionType
	// New returns a zero action to decode parameters into.
	New func() Action
	// Required lists the parameter fields that must be present.
	Required []string
}

type entry struct {
	def    Definition
	schema *jsonschema.Schema
}

// Registry maps action type tags to decoders. Thread-safe for concurrent
// registration.
type Registry struct {
	mu      sync.RWMutex
	entries map[core.ActionType]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[core.ActionType]entry)}
}

// Register adds def. Panics on duplicate registration.
func (r *Registry) Register(def Definition) {
	schema, err := compileSchema(def)
	if err != nil {
		panic(fmt.Sprintf("vm: schema for %q: %v", def.Type, err))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.Type]; exists {
		panic(fmt.Sprintf("vm: action already registered for type %q", def.Type))
	}
	r.entries[def.Type] = entry{def: def, schema: schema}
}

func compileSchema(def Definition) (*jsonschema.Schema, error) {
	required := def.Required
	if required == nil {
		required = []string{}
	}
	doc, err := json.Marshal(map[string]any{
		"type":     "object",
		"required": required,
	})
	if err != nil {
		return nil, err
	}
	return jsonschema.CompileString("https://stakeledger.local/actions/"+string(def.Type)+".json", string(doc))
}

func (r *Registry) lookup(typ core.ActionType) (entry, error) {
	r.mu.RLock()
	e, ok := r.entries[typ]
	r.mu.RUnlock()
	if !ok {
		return entry{}, fmt.Errorf("%w: %q", core.ErrUnknownAction, typ)
	}
	return e, nil
}

// Types returns the registered type tags, sorted.
func (r *Registry) Types() []core.ActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ActionType, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Decode strictly decodes the canonical encoding of an action.
func (r *Registry) Decode(env core.ActionEnvelope) (Action, error) {
	e, err := r.lookup(env.Type)
	if err != nil {
		return nil, err
	}
	a := e.def.New()
	if err := codec.UnmarshalStrict(env.Params, a, e.def.Required...); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return a, nil
}

// DecodeJSON decodes action parameters written as JSON, for example in a
// batch file. Missing required fields and unknown fields are structural
// errors.
func (r *Registry) DecodeJSON(typ core.ActionType, raw json.RawMessage) (Action, error) {
	e, err := r.lookup(typ)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", typ, core.ErrStructural, err)
	}
	if err := e.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", typ, core.ErrStructural, err)
	}
	a := e.def.New()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(a); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", typ, core.ErrStructural, err)
	}
	return a, nil
}

// Encode returns the canonical envelope of a.
func (r *Registry) Encode(a Action) (core.ActionEnvelope, error) {
	if _, err := r.lookup(a.Type()); err != nil {
		return core.ActionEnvelope{}, err
	}
	params, err := codec.Marshal(a)
	if err != nil {
		return core.ActionEnvelope{}, fmt.Errorf("encode %s: %w", a.Type(), err)
	}
	return core.ActionEnvelope{Type: a.Type(), Params: params}, nil
}

// globalRegistry is the package-level singleton that modules register into.
var globalRegistry = NewRegistry()

// Register adds def to the global registry.
// Module init() functions call this to self-register.
func Register(def Definition) {
	globalRegistry.Register(def)
}

// DefaultRegistry returns the global registry.
func DefaultRegistry() *Registry {
	return globalRegistry
}
