package models

import "time"

// Fix is one delivery from a location backend. Location is nil when the
// backend answered but had no usable position.
type Fix struct {
	Location *Coordinate
	Backend  string
	At       time.Time
}
