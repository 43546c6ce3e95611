package models

// Coordinates represents a geographical point defined by its latitude and longitude.
// A nil *Coordinates means the point could not be resolved.
type Coordinates struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}
