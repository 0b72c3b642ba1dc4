// internal/recipe/catalog.go
package recipe

import (
	"fmt"
	"strings"

	"github.com/tamzrod/recipe-sync/internal/fault"
)

// Shape lists which optional fields an action uses.
type Shape struct {
	Target       bool
	InitialValue bool
	Setpoint     bool
	Speed        bool
	Duration     bool
}

// ActionInfo describes one action kind known to the controller firmware.
type ActionInfo struct {
	ID    int32
	Name  string
	Shape Shape
}

// RawFields are the raw values decoded from one register row.
type RawFields struct {
	Target       int32
	InitialValue float32
	Setpoint     float32
	Speed        float32
	Duration     float32
}

// Metadata looks up action descriptions by id.
type Metadata interface {
	Lookup(id int32) (ActionInfo, bool)
}

// Builder turns raw register values into a typed Step.
type Builder interface {
	Build(id int32, raw RawFields) (Step, error)
}

// Default action ids of the deposition controller.
const (
	ActionOpen           int32 = 1
	ActionClose          int32 = 2
	ActionWait           int32 = 3
	ActionRamp           int32 = 4
	ActionSetTemperature int32 = 5
	ActionGasFlow        int32 = 6
	ActionHold           int32 = 7
	ActionFor            int32 = 8
	ActionEndFor         int32 = 9
)

// DefaultActions is the action table of the deposition controller firmware.
var DefaultActions = []ActionInfo{
	{ID: ActionOpen, Name: "Open", Shape: Shape{Target: true}},
	{ID: ActionClose, Name: "Close", Shape: Shape{Target: true}},
	{ID: ActionWait, Name: "Wait", Shape: Shape{Setpoint: true}},
	{ID: ActionRamp, Name: "Ramp", Shape: Shape{Target: true, InitialValue: true, Setpoint: true, Speed: true}},
	{ID: ActionSetTemperature, Name: "SetTemperature", Shape: Shape{Target: true, Setpoint: true}},
	{ID: ActionGasFlow, Name: "GasFlow", Shape: Shape{Target: true, Setpoint: true}},
	{ID: ActionHold, Name: "Hold", Shape: Shape{Target: true, Setpoint: true, Duration: true}},
	{ID: ActionFor, Name: "For", Shape: Shape{Setpoint: true}},
	{ID: ActionEndFor, Name: "EndFor"},
}

// Catalog is a lookup table keyed by action id, built once.
// It implements both Metadata and Builder.
type Catalog struct {
	byID   map[int32]ActionInfo
	byName map[string]ActionInfo
}

// NewCatalog builds a catalog. Duplicate ids or names are rejected.
func NewCatalog(actions []ActionInfo) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[int32]ActionInfo, len(actions)),
		byName: make(map[string]ActionInfo, len(actions)),
	}
	for _, a := range actions {
		if a.Name == "" {
			return nil, fmt.Errorf("recipe: action %d has no name", a.ID)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("recipe: duplicate action id %d", a.ID)
		}
		key := strings.ToLower(a.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("recipe: duplicate action name %q", a.Name)
		}
		c.byID[a.ID] = a
		c.byName[key] = a
	}
	return c, nil
}

// DefaultCatalog returns the catalog built from DefaultActions.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultActions)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(id int32) (ActionInfo, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// LookupName resolves an action by case-insensitive name.
func (c *Catalog) LookupName(name string) (ActionInfo, bool) {
	a, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Build produces a Step carrying only the fields the action's shape declares.
func (c *Catalog) Build(id int32, raw RawFields) (Step, error) {
	a, ok := c.byID[id]
	if !ok {
		return Step{}, fault.New(fault.UnsupportedAction, "unsupported action id %d", id)
	}

	props := map[Key]Value{KeyAction: Int(id)}
	if a.Shape.Target {
		props[KeyActionTarget] = Int(raw.Target)
	}
	if a.Shape.InitialValue {
		props[KeyInitialValue] = Float(raw.InitialValue)
	}
	if a.Shape.Setpoint {
		props[KeySetpoint] = Float(raw.Setpoint)
	}
	if a.Shape.Speed {
		props[KeySpeed] = Float(raw.Speed)
	}
	if a.Shape.Duration {
		props[KeyDuration] = Float(raw.Duration)
	}
	return NewStep(props), nil
}

// Name returns a human readable action name for diagnostics.
func (c *Catalog) Name(id int32) string {
	if a, ok := c.byID[id]; ok {
		return a.Name
	}
	return fmt.Sprintf("action#%d", id)
}
