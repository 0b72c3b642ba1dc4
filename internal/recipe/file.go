// internal/recipe/file.go
package recipe

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/recipe-sync/internal/fault"
)

// File is the on-disk recipe format used by the CLI.
type File struct {
	Steps []FileStep `yaml:"steps"`
}

// FileStep is one step as written in a recipe file.
// Action accepts a catalog name or a numeric id.
type FileStep struct {
	Action       string   `yaml:"action"`
	Target       *int32   `yaml:"target,omitempty"`
	InitialValue *float32 `yaml:"initial_value,omitempty"`
	Setpoint     *float32 `yaml:"setpoint,omitempty"`
	Speed        *float32 `yaml:"speed,omitempty"`
	Duration     *float32 `yaml:"duration,omitempty"`
	Comment      string   `yaml:"comment,omitempty"`
}

// LoadFile reads a recipe file from disk.
func LoadFile(path string, cat *Catalog) (Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, err
	}
	return Parse(bytes.NewReader(b), cat)
}

// Parse decodes a recipe document, resolving actions through cat.
func Parse(r io.Reader, cat *Catalog) (Recipe, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return Recipe{}, fmt.Errorf("recipe: decode: %w", err)
	}

	steps := make([]Step, 0, len(f.Steps))
	for i, fs := range f.Steps {
		s, err := fs.toStep(cat)
		if err != nil {
			return Recipe{}, fmt.Errorf("recipe: step %d: %w", i+1, err)
		}
		steps = append(steps, s)
	}
	return New(steps), nil
}

func (fs FileStep) toStep(cat *Catalog) (Step, error) {
	info, ok := cat.LookupName(fs.Action)
	if !ok {
		id, err := strconv.ParseInt(fs.Action, 10, 32)
		if err != nil {
			return Step{}, fault.New(fault.UnsupportedAction, "unknown action %q", fs.Action)
		}
		if info, ok = cat.Lookup(int32(id)); !ok {
			return Step{}, fault.New(fault.UnsupportedAction, "unknown action id %d", id)
		}
	}

	if err := fs.checkShape(info); err != nil {
		return Step{}, err
	}

	props := map[Key]Value{KeyAction: Int(info.ID)}
	if fs.Target != nil {
		props[KeyActionTarget] = Int(*fs.Target)
	}
	if fs.InitialValue != nil {
		props[KeyInitialValue] = Float(*fs.InitialValue)
	}
	if fs.Setpoint != nil {
		props[KeySetpoint] = Float(*fs.Setpoint)
	}
	if fs.Speed != nil {
		props[KeySpeed] = Float(*fs.Speed)
	}
	if fs.Duration != nil {
		props[KeyDuration] = Float(*fs.Duration)
	}
	if fs.Comment != "" {
		props[KeyComment] = Text(fs.Comment)
	}
	return NewStep(props), nil
}

// checkShape rejects fields the action does not carry on the wire.
func (fs FileStep) checkShape(info ActionInfo) error {
	fields := []struct {
		name    string
		set     bool
		allowed bool
	}{
		{"target", fs.Target != nil, info.Shape.Target},
		{"initial_value", fs.InitialValue != nil, info.Shape.InitialValue},
		{"setpoint", fs.Setpoint != nil, info.Shape.Setpoint},
		{"speed", fs.Speed != nil, info.Shape.Speed},
		{"duration", fs.Duration != nil, info.Shape.Duration},
	}
	for _, f := range fields {
		if f.set && !f.allowed {
			return fmt.Errorf("action %s does not take %s", info.Name, f.name)
		}
	}
	return nil
}

// Write encodes r in the recipe file format.
func Write(w io.Writer, r Recipe, cat *Catalog) error {
	f := File{Steps: make([]FileStep, 0, r.Len())}

	for _, s := range r.steps {
		fs := FileStep{
			Action:  cat.Name(s.Action()),
			Comment: s.Text(KeyComment),
		}
		if v, ok := s.Get(KeyActionTarget); ok {
			n := v.Int32()
			fs.Target = &n
		}
		fs.InitialValue = floatPtr(s, KeyInitialValue)
		fs.Setpoint = floatPtr(s, KeySetpoint)
		fs.Speed = floatPtr(s, KeySpeed)
		fs.Duration = floatPtr(s, KeyDuration)
		f.Steps = append(f.Steps, fs)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("recipe: encode: %w", err)
	}
	return enc.Close()
}

func floatPtr(s Step, k Key) *float32 {
	v, ok := s.Get(k)
	if !ok {
		return nil
	}
	f := v.Float32()
	return &f
}
