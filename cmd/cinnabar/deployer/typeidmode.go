package deployer

import "github.com/pkg/errors"

// TypeIDMode tells what a migration does with the type id of the contract cell
type TypeIDMode int

// Type id modes
const (
	TypeIDModeKeep TypeIDMode = iota
	TypeIDModeRemove
	TypeIDModeNew
)

var typeIDModeNames = map[TypeIDMode]string{
	TypeIDModeKeep:   "keep",
	TypeIDModeRemove: "remove",
	TypeIDModeNew:    "new",
}

func (m TypeIDMode) String() string {
	if name, ok := typeIDModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseTypeIDMode parses keep, remove or new
func ParseTypeIDMode(mode string) (TypeIDMode, error) {
	for typeIDMode, name := range typeIDModeNames {
		if name == mode {
			return typeIDMode, nil
		}
	}
	return 0, errors.Errorf("unknown type id mode %q, options are keep, remove and new", mode)
}
