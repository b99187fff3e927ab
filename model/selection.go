package model

import "strings"

// AllSensors is the sentinel selection that matches every band.
const AllSensors = "all"

// Selection is the active sensor filter.
type Selection struct {
	Sensor string // a sensor name, or AllSensors
}

// SelectAll returns the selection matching every sensor.
func SelectAll() Selection { return Selection{Sensor: AllSensors} }

// ParseSelection normalises user input. Empty input, "all" and the legacy
// "both" select every sensor; anything else is taken as a sensor name
// verbatim after trimming.
func ParseSelection(raw string) Selection {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "", AllSensors, "both":
		return SelectAll()
	}
	return Selection{Sensor: v}
}

// IsAll reports whether the selection matches every sensor.
func (s Selection) IsAll() bool {
	return s.Sensor == "" || s.Sensor == AllSensors
}

// Matches reports whether the band passes the filter.
func (s Selection) Matches(b Band) bool {
	return s.IsAll() || b.Sensor == s.Sensor
}

func (s Selection) String() string {
	if s.IsAll() {
		return AllSensors
	}
	return s.Sensor
}
