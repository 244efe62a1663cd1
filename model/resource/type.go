package resource

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type identifies a resource type by its index in a Vector.
type Type int

const (
	CPU Type = iota
	Disk
	Printer
)

// Count is the number of resource types known to the system.
const Count = 3

// All lists every resource type in index order.
func All() []Type {
	return []Type{CPU, Disk, Printer}
}

func (t Type) String() string {
	switch t {
	case CPU:
		return "CPU"
	case Disk:
		return "Disk"
	case Printer:
		return "Printer"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Valid reports whether t is one of the known resource types.
func (t Type) Valid() bool {
	return t >= 0 && int(t) < Count
}

// ParseType parses a resource type name, case-insensitive.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cpu":
		return CPU, nil
	case "disk":
		return Disk, nil
	case "printer":
		return Printer, nil
	}
	return 0, fmt.Errorf("unknown resource type %q", name)
}

// MarshalYAML encodes the type by name.
func (t Type) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML accepts either a type name or its integer index.
func (t *Type) UnmarshalYAML(node *yaml.Node) error {
	var index int
	if node.Tag == "!!int" {
		if err := node.Decode(&index); err != nil {
			return err
		}
		if !Type(index).Valid() {
			return fmt.Errorf("resource type index %d out of range", index)
		}
		*t = Type(index)
		return nil
	}
	parsed, err := ParseType(node.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText encodes the type by name for JSON map keys and values.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
