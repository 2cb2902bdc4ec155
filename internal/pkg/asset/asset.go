package asset

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Epsilon is the smallest rating, duration or capacity difference treated as non-zero.
const Epsilon = 1e-6

// ErrInvalidRating is returned when an asset is configured with a negative rating.
var ErrInvalidRating = errors.New("asset rating must be non-negative")

// Identifier is implemented by anything carrying a stable process id and a name.
type Identifier interface {
	PID() uuid.UUID
	Name() string
}

// Type enumerates the component types a generator instance can be.
type Type int

const (
	DieselGenerator Type = iota
	Battery
	Photovoltaic
)

// Types lists every component type in a fixed order.
var Types = []Type{DieselGenerator, Battery, Photovoltaic}

func (t Type) String() string {
	switch t {
	case DieselGenerator:
		return "diesel_generator"
	case Battery:
		return "battery"
	case Photovoltaic:
		return "photovoltaic_panel"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType maps a component type name onto a Type.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown component type %q", s)
}

// MarshalText fulfills encoding.TextMarshaler so Type can key JSON and YAML maps.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText fulfills encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Asset is one generator instance in a microgrid. Rating is kW for diesel and
// photovoltaic assets and kWh for batteries.
type Asset struct {
	pid    uuid.UUID
	name   string
	kind   Type
	rating float64
}

// New returns a configured Asset with a fresh PID.
func New(name string, kind Type, rating float64) (Asset, error) {
	if rating < 0 {
		return Asset{}, fmt.Errorf("%s: %w", name, ErrInvalidRating)
	}
	pid, err := uuid.NewUUID()
	if err != nil {
		return Asset{}, err
	}
	return Asset{pid: pid, name: name, kind: kind, rating: rating}, nil
}

// PID is a getter for the asset PID
func (a Asset) PID() uuid.UUID {
	return a.pid
}

// Name is a getter for the asset name
func (a Asset) Name() string {
	return a.name
}

// Type is a getter for the component type
func (a Asset) Type() Type {
	return a.kind
}

// Rating is a getter for the asset rating
func (a Asset) Rating() float64 {
	return a.rating
}

// WithRating returns a copy of the asset with a new rating and the same PID.
func (a Asset) WithRating(rating float64) Asset {
	a.rating = rating
	return a
}
