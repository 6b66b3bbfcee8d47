package services

import (
	"context"
	"fmt"
	"strconv"

	"fleetops/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// odometerFloor computes the minimum permissible starting odometer for a trip
// on the vehicle: the later of the last closed trip's end reading and the
// vehicle's currently recorded odometer. Returns false when neither source
// yields a usable bound. The vehicle may be nil when its directory record
// has disappeared; trip history still bounds the reading then. The excluded
// trip id (zero to skip) keeps a trip being patched from acting as its own
// floor.
func (s *tripService) odometerFloor(ctx context.Context, orgID, vehicleID primitive.ObjectID, vehicle *models.Vehicle, exclude primitive.ObjectID) (float64, bool, error) {
	last, err := s.trips.FindLastClosedByVehicle(ctx, orgID, vehicleID, exclude)
	if err != nil {
		return 0, false, NewInternalError("failed to load trip history", err)
	}

	var floor float64
	found := false

	if last != nil && last.OdoEndKM != nil {
		floor = *last.OdoEndKM
		found = true
	}
	if vehicle != nil {
		if o, ok := vehicle.Odometer(); ok && (!found || o > floor) {
			floor = o
			found = true
		}
	}

	return floor, found, nil
}

// validateOdoStart rejects a start reading below the vehicle's odometer
// floor, citing both values so the caller can explain the failure.
func validateOdoStart(odoStart, floor float64) *Error {
	if odoStart < floor {
		return NewInvariantError(
			"ODOMETER_BELOW_FLOOR",
			fmt.Sprintf("start odometer %s km is below the vehicle's last recorded reading %s km", formatKM(odoStart), formatKM(floor)),
			map[string]string{
				"odo_start_km": formatKM(odoStart),
				"floor_km":     formatKM(floor),
			},
		)
	}
	return nil
}

// validateOdoEnd rejects an end reading below the trip's start reading,
// citing both values.
func validateOdoEnd(odoStart, odoEnd float64) *Error {
	if odoEnd < odoStart {
		return NewInvariantError(
			"ODOMETER_END_BEFORE_START",
			fmt.Sprintf("end odometer %s km is below the trip's start reading %s km", formatKM(odoEnd), formatKM(odoStart)),
			map[string]string{
				"odo_start_km": formatKM(odoStart),
				"odo_end_km":   formatKM(odoEnd),
			},
		)
	}
	return nil
}

// computeDistance derives the trip distance from its odometer bounds, nil
// when the end reading is unset.
func computeDistance(odoStart float64, odoEnd *float64) *float64 {
	if odoEnd == nil {
		return nil
	}
	d := *odoEnd - odoStart
	if d < 0 {
		d = 0
	}
	return &d
}

func formatKM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
