package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestReconcilePoint_CaptureWinsOverPoint(t *testing.T) {
	capture := &GeoCapture{Lat: f(52.52), Lng: f(13.405), AccuracyM: f(8)}
	point := &GeoPoint{Type: "Point", Coordinates: []float64{10.0, 50.0}}

	got := ReconcilePoint(capture, point)

	require.NotNil(t, got)
	assert.Equal(t, "Point", got.Type)
	assert.Equal(t, []float64{13.405, 52.52}, got.Coordinates)
	require.NotNil(t, got.AccuracyM)
	assert.Equal(t, 8.0, *got.AccuracyM)
}

func TestReconcilePoint_FallsBackToPoint(t *testing.T) {
	point := &GeoPoint{Type: "Point", Coordinates: []float64{13.405, 52.52}}

	got := ReconcilePoint(nil, point)

	require.NotNil(t, got)
	assert.Equal(t, []float64{13.405, 52.52}, got.Coordinates)
}

func TestReconcilePoint_PartialCaptureFallsBack(t *testing.T) {
	capture := &GeoCapture{Lat: f(52.52)} // no lng
	point := &GeoPoint{Type: "Point", Coordinates: []float64{13.405, 52.52}}

	got := ReconcilePoint(capture, point)

	require.NotNil(t, got)
	assert.Equal(t, []float64{13.405, 52.52}, got.Coordinates)
}

func TestReconcilePoint_InvalidGeometryIsDropped(t *testing.T) {
	cases := []struct {
		name    string
		capture *GeoCapture
		point   *GeoPoint
	}{
		{"nothing", nil, nil},
		{"out of range capture", &GeoCapture{Lat: f(91), Lng: f(0)}, nil},
		{"nan capture", &GeoCapture{Lat: f(math.NaN()), Lng: f(13.4)}, nil},
		{"short point", nil, &GeoPoint{Type: "Point", Coordinates: []float64{13.4}}},
		{"long point", nil, &GeoPoint{Type: "Point", Coordinates: []float64{13.4, 52.5, 30}}},
		{"out of range point", nil, &GeoPoint{Type: "Point", Coordinates: []float64{181, 52.5}}},
		{"inf point", nil, &GeoPoint{Type: "Point", Coordinates: []float64{math.Inf(1), 52.5}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, ReconcilePoint(tc.capture, tc.point))
		})
	}
}

func TestReconcilePoint_BadCaptureDoesNotPoisonGoodPoint(t *testing.T) {
	capture := &GeoCapture{Lat: f(200), Lng: f(200)}
	point := &GeoPoint{Type: "Point", Coordinates: []float64{13.405, 52.52}}

	got := ReconcilePoint(capture, point)

	require.NotNil(t, got)
	assert.Equal(t, []float64{13.405, 52.52}, got.Coordinates)
}

func TestGeoPointAccessors(t *testing.T) {
	p := GeoPoint{Type: "Point", Coordinates: []float64{13.405, 52.52}}
	assert.Equal(t, 52.52, p.Latitude())
	assert.Equal(t, 13.405, p.Longitude())
	assert.True(t, p.IsWellFormed())

	empty := GeoPoint{}
	assert.Equal(t, 0.0, empty.Latitude())
	assert.Equal(t, 0.0, empty.Longitude())
	assert.False(t, empty.IsWellFormed())
}
