package rotation

import (
	"fmt"
	"strconv"
	"strings"
)

// Rotation is a clockwise rotation amount in quarter turns.
type Rotation int

const (
	None Rotation = iota
	Deg90
	Deg180
	Deg270
)

type policy struct {
	label     string
	degrees   int
	filter    string
	swapsAxes bool
}

// transpose=1 rotates clockwise, transpose=2 counter-clockwise. A half turn has
// no single transpose primitive, so it is two counter-clockwise turns.
var policies = [...]policy{
	None:   {label: "none", degrees: 0, filter: "null", swapsAxes: false},
	Deg90:  {label: "90", degrees: 90, filter: "transpose=1", swapsAxes: true},
	Deg180: {label: "180", degrees: 180, filter: "transpose=2,transpose=2", swapsAxes: false},
	Deg270: {label: "270", degrees: 270, filter: "transpose=2", swapsAxes: true},
}

var aliases = map[string]Rotation{
	"none": None,
	"cw":   Deg90,
	"ccw":  Deg270,
}

// Parse converts user input such as "90", "-90" or "none" into a Rotation.
// Any multiple of 90 degrees is accepted.
func Parse(value string) (Rotation, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.TrimSuffix(key, "°")
	key = strings.TrimSuffix(key, "deg")
	if r, ok := aliases[key]; ok {
		return r, nil
	}
	if degrees, err := strconv.Atoi(key); err == nil {
		if r, err := FromDegrees(degrees); err == nil {
			return r, nil
		}
	}
	return None, fmt.Errorf("unsupported rotation %q (want %s)", value, Choices())
}

// FromDegrees returns the Rotation for a multiple of 90 degrees.
func FromDegrees(degrees int) (Rotation, error) {
	if degrees%90 != 0 {
		return None, fmt.Errorf("rotation %d is not a multiple of 90 degrees", degrees)
	}
	turns := (degrees / 90) % 4
	if turns < 0 {
		turns += 4
	}
	return Rotation(turns), nil
}

// Valid reports whether r is one of the four supported values.
func (r Rotation) Valid() bool {
	return r >= None && r <= Deg270
}

// Degrees returns the clockwise rotation in degrees.
func (r Rotation) Degrees() int {
	return r.policy().degrees
}

// FilterExpression returns the libavfilter graph segment applying r.
func (r Rotation) FilterExpression() string {
	return r.policy().filter
}

// SwapsAxes reports whether output width and height trade places.
func (r Rotation) SwapsAxes() bool {
	return r.policy().swapsAxes
}

// Dimensions returns the output frame size for an input of width x height.
func (r Rotation) Dimensions(width, height int) (int, int) {
	if r.SwapsAxes() {
		return height, width
	}
	return width, height
}

func (r Rotation) String() string {
	return r.policy().label
}

// MarshalText implements encoding.TextMarshaler.
func (r Rotation) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rotation %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rotation) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Rotation) policy() policy {
	if !r.Valid() {
		return policies[None]
	}
	return policies[r]
}

// All returns the supported rotations in ascending order.
func All() []Rotation {
	return []Rotation{None, Deg90, Deg180, Deg270}
}

// Choices lists the supported rotations in degrees, as shown to users.
func Choices() string {
	all := All()
	parts := make([]string, len(all))
	for i, r := range all {
		parts[i] = strconv.Itoa(r.Degrees())
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " or " + parts[len(parts)-1]
}
