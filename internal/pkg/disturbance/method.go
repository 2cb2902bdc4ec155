package disturbance

import "fmt"

// Method selects how outcomes are drawn for affected components.
type Method int

const (
	// Deterministic marks every component within quota as affected for exactly
	// its nominal repair time.
	Deterministic Method = iota
	// Stochastic draws the affected flag against the failure probability and
	// an exponentially distributed outage duration.
	Stochastic
)

func (m Method) String() string {
	switch m {
	case Deterministic:
		return "deterministic"
	case Stochastic:
		return "stochastic"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod maps a method name onto a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "deterministic":
		return Deterministic, nil
	case "stochastic":
		return Stochastic, nil
	}
	return 0, fmt.Errorf("unknown disturbance method %q", s)
}

// UnmarshalText fulfills encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText fulfills encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
