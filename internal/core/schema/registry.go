// Package schema owns the versioned payload shapes of every audit action.
// Writes are validated against the current JSON schema; reads are migrated
// forward to the current shape before anything else looks at them.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// Migration rewrites the fields of one action from FromVersion to ToVersion.
// Migrate must accept every shape ever written at FromVersion, including
// partial ones, and must leave an already migrated shape unchanged.
type Migration interface {
	FromVersion() int
	ToVersion() int
	Migrate(fields map[string]any) map[string]any
}

// Definition describes one action's current payload.
type Definition struct {
	Action     domain.Action
	Version    int
	JSONSchema string
	Migrations []Migration
}

type entry struct {
	current    int
	schema     *santhosh.Schema
	migrations map[int]Migration
}

// Registry validates and migrates audit payloads. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	entries map[domain.Action]entry
}

func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{entries: make(map[domain.Action]entry, len(defs))}
	for _, def := range defs {
		if _, dup := r.entries[def.Action]; dup {
			return nil, fmt.Errorf("duplicate definition for %s", def.Action)
		}
		if def.Version < 1 {
			return nil, fmt.Errorf("%s: current version must be positive", def.Action)
		}
		compiled, err := compileSchema(string(def.Action), def.JSONSchema)
		if err != nil {
			return nil, fmt.Errorf("%s: compile schema: %w", def.Action, err)
		}
		migrations := make(map[int]Migration, len(def.Migrations))
		for _, m := range def.Migrations {
			if m.ToVersion() <= m.FromVersion() {
				return nil, fmt.Errorf("%s: migration %d->%d does not move forward", def.Action, m.FromVersion(), m.ToVersion())
			}
			if m.ToVersion() > def.Version {
				return nil, fmt.Errorf("%s: migration %d->%d passes current version %d", def.Action, m.FromVersion(), m.ToVersion(), def.Version)
			}
			if _, dup := migrations[m.FromVersion()]; dup {
				return nil, fmt.Errorf("%s: duplicate migration from version %d", def.Action, m.FromVersion())
			}
			migrations[m.FromVersion()] = m
		}
		r.entries[def.Action] = entry{current: def.Version, schema: compiled, migrations: migrations}
	}
	return r, nil
}

// Default returns a registry holding every built-in action definition.
func Default() *Registry {
	r, err := NewRegistry(Definitions()...)
	if err != nil {
		panic(fmt.Sprintf("schema: built-in definitions: %v", err))
	}
	return r
}

func (r *Registry) Knows(action domain.Action) bool {
	_, ok := r.entries[action]
	return ok
}

func (r *Registry) CurrentVersion(action domain.Action) (int, bool) {
	e, ok := r.entries[action]
	return e.current, ok
}

// Actions lists the registered actions in sorted order.
func (r *Registry) Actions() []domain.Action {
	out := make([]domain.Action, 0, len(r.entries))
	for a := range r.entries {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Wrap validates fields against the action's current schema and returns
// them tagged with the current version. Failures are *domain.ValidationError.
func (r *Registry) Wrap(action domain.Action, fields json.RawMessage) (domain.AuditData, error) {
	e, ok := r.entries[action]
	if !ok {
		return domain.AuditData{}, domain.NewValidationError("action", "is not a registered action")
	}
	if len(bytes.TrimSpace(fields)) == 0 {
		fields = json.RawMessage(`{}`)
	}
	if err := runValidation(e.schema, fields); err != nil {
		return domain.AuditData{}, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, fields); err != nil {
		return domain.AuditData{}, domain.NewValidationError("data", "must be valid json")
	}
	return domain.AuditData{Version: e.current, Fields: buf.Bytes()}, nil
}

// Normalize migrates stored data to the action's current version. Unknown
// actions pass through untouched so a generic renderer can still show them.
func (r *Registry) Normalize(action domain.Action, data domain.AuditData) (domain.AuditData, error) {
	e, ok := r.entries[action]
	if !ok {
		return data, nil
	}
	if data.Version == e.current {
		return data, nil
	}
	if data.Version > e.current {
		return domain.AuditData{}, &domain.UnsupportedVersionError{Action: action, Version: data.Version, Current: e.current}
	}

	v := data.Version
	fields := decodeFields(data.Fields)
	for v < e.current {
		m, ok := e.migrations[v]
		if !ok {
			return domain.AuditData{}, &domain.UnsupportedVersionError{Action: action, Version: data.Version, Current: e.current}
		}
		fields = m.Migrate(fields)
		if fields == nil {
			fields = map[string]any{}
		}
		v = m.ToVersion()
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return domain.AuditData{}, fmt.Errorf("encode migrated %s fields: %w", action, err)
	}
	return domain.AuditData{Version: v, Fields: raw}, nil
}

// decodeFields never fails: anything that is not a JSON object reads as an
// empty object and the migrations fill in from there.
func decodeFields(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

func compileSchema(name, schemaJSON string) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	url := name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader([]byte(schemaJSON))); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

func runValidation(sch *santhosh.Schema, data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.NewValidationError("data", "must be valid json")
	}
	if err := sch.Validate(v); err != nil {
		verr := domain.NewValidationError("data", "does not match the action schema")
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			verr.Errors = collectValidationErrors(ve)
		} else {
			verr.Errors = []string{err.Error()}
		}
		return verr
	}
	return nil
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
