package planner

import "slices"

// BodyweightEquipmentID is the reserved equipment id meaning the exercise only needs the body.
const BodyweightEquipmentID = 1

// homeEquipmentIDs are the equipment ids typically found at home.
//
//nolint:gochecknoglobals // lookup table
var homeEquipmentIDs = []int{50, 35, 39}

// IsSupported reports whether every piece of equipment the exercise requires is available. Partial overlap is not
// enough.
func IsSupported(ex Exercise, available []int) bool {
	for _, id := range ex.EquipmentIDs {
		if !slices.Contains(available, id) {
			return false
		}
	}
	return true
}

// IsTrueBodyweight reports whether the exercise needs no equipment or only the bodyweight equipment.
func IsTrueBodyweight(ex Exercise) bool {
	for _, id := range ex.EquipmentIDs {
		if id != BodyweightEquipmentID {
			return false
		}
	}
	return true
}

func intersects(a, b []int) bool {
	for _, id := range a {
		if slices.Contains(b, id) {
			return true
		}
	}
	return false
}
