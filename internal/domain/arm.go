package domain

import (
	"fmt"
	"strings"
)

// Arm identifies one of the two randomized groups of an experiment.
type Arm string

const (
	ArmControl   Arm = "A"
	ArmTreatment Arm = "B"
)

// Arms lists the arms in reporting order.
var Arms = []Arm{ArmControl, ArmTreatment}

// ParseArm accepts the warehouse codes A/B as well as the spelled-out names,
// case-insensitively.
func ParseArm(s string) (Arm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "control":
		return ArmControl, nil
	case "b", "treatment":
		return ArmTreatment, nil
	default:
		return "", fmt.Errorf("unknown arm %q", s)
	}
}

func (a Arm) Valid() bool {
	return a == ArmControl || a == ArmTreatment
}

// Label returns the human-readable arm name.
func (a Arm) Label() string {
	switch a {
	case ArmControl:
		return "Control"
	case ArmTreatment:
		return "Treatment"
	default:
		return string(a)
	}
}
