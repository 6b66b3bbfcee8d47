package models

import (
	"math"
)

// GeoPoint is the one geometry representation persisted on a trip:
// a GeoJSON-style point with coordinates [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type" default:"Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	AccuracyM   *float64  `json:"accuracy_m,omitempty" bson:"accuracy_m,omitempty"`
	AltitudeM   *float64  `json:"altitude_m,omitempty" bson:"altitude_m,omitempty"`
}

// GeoCapture is the flat form mobile clients send alongside start/end
// requests. Accuracy and altitude are carried through unvalidated.
type GeoCapture struct {
	Lat       *float64 `json:"lat" bson:"lat"`
	Lng       *float64 `json:"lng" bson:"lng"`
	AccuracyM *float64 `json:"accuracy_m" bson:"accuracy_m"`
	AltitudeM *float64 `json:"altitude_m" bson:"altitude_m"`
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) >= 2 {
		return p.Coordinates[1]
	}
	return 0
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) >= 1 {
		return p.Coordinates[0]
	}
	return 0
}

// IsWellFormed reports whether the point is a two-element finite
// coordinate pair within valid longitude/latitude bounds.
func (p GeoPoint) IsWellFormed() bool {
	if len(p.Coordinates) != 2 {
		return false
	}
	return validLngLat(p.Coordinates[0], p.Coordinates[1])
}

func validLngLat(lng, lat float64) bool {
	if math.IsNaN(lng) || math.IsInf(lng, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// ReconcilePoint normalizes heterogeneous location input into one canonical
// point. A flat capture with usable lat/lng wins over an explicit point; an
// explicit point is kept only when well formed. Invalid geometry is dropped,
// never surfaced as an error, so one bad optional field cannot fail an
// otherwise valid write.
func ReconcilePoint(capture *GeoCapture, point *GeoPoint) *GeoPoint {
	if capture != nil && capture.Lat != nil && capture.Lng != nil && validLngLat(*capture.Lng, *capture.Lat) {
		return &GeoPoint{
			Type:        "Point",
			Coordinates: []float64{*capture.Lng, *capture.Lat},
			AccuracyM:   capture.AccuracyM,
			AltitudeM:   capture.AltitudeM,
		}
	}

	if point != nil && point.IsWellFormed() {
		return &GeoPoint{
			Type:        "Point",
			Coordinates: []float64{point.Coordinates[0], point.Coordinates[1]},
			AccuracyM:   point.AccuracyM,
			AltitudeM:   point.AltitudeM,
		}
	}

	return nil
}
