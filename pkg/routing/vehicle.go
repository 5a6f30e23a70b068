package routing

import (
	"fmt"
	"strings"
)

// VehicleType identifies the kind of vehicle a route is planned for.
type VehicleType string

const (
	Ambulance VehicleType = "ambulance"
	FireTruck VehicleType = "fire_truck"
	NormalCar VehicleType = "normal_car"
)

// VehicleTypes lists the supported vehicle types in display order.
var VehicleTypes = []VehicleType{Ambulance, FireTruck, NormalCar}

// ParseVehicleType accepts either the identifier or the display name, in any
// case, with spaces, dashes or underscores as separators.
func ParseVehicleType(s string) (VehicleType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, v := range VehicleTypes {
		if norm == string(v) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vehicle type %q", s)
}

// String returns the display name.
func (v VehicleType) String() string {
	switch v {
	case Ambulance:
		return "Ambulance"
	case FireTruck:
		return "Fire Truck"
	case NormalCar:
		return "Normal Car"
	}
	return string(v)
}

// FindingMessage is the status line shown while a route is being computed.
func FindingMessage(v VehicleType, start, end string) string {
	return fmt.Sprintf("Finding route for %s from %s to %s...", v, start, end)
}
