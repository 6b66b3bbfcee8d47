package services

import (
	"context"
	"errors"
	"reflect"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// applyPatch mutates the trip in place from the patched fields and returns
// one change record per field whose stored value actually moved. Derived
// fields (distance, status) are recomputed from the patched state, and the
// odometer invariants re-run against it before anything is reported back.
func (s *tripService) applyPatch(ctx context.Context, trip *models.Trip, p *models.TripPatch) ([]models.TripEditChange, error) {
	var changes []models.TripEditChange

	if p.DriverID.IsValue() {
		id, _ := primitive.ObjectIDFromHex(p.DriverID.Value)
		if id != trip.DriverID {
			recordChange(&changes, "driver_id", trip.DriverID.Hex(), id.Hex())
			trip.DriverID = id
		}
	}
	applyIDPatch(&changes, "project_id", p.ProjectID, &trip.ProjectID)
	applyIDPatch(&changes, "task_id", p.TaskID, &trip.TaskID)

	if p.Purpose.IsValue() {
		next := models.TripPurpose(p.Purpose.Value)
		if next != trip.Purpose {
			recordChange(&changes, "purpose", trip.Purpose, next)
			trip.Purpose = next
		}
	}
	if p.Notes.Set {
		next := ""
		if p.Notes.IsValue() {
			next = p.Notes.Value
		}
		if next != trip.Notes {
			recordChange(&changes, "notes", trip.Notes, next)
			trip.Notes = next
		}
	}
	if p.Tags.Set {
		var next []string
		if p.Tags.IsValue() {
			next = p.Tags.Value
		}
		if !reflect.DeepEqual(next, trip.Tags) {
			recordChange(&changes, "tags", trip.Tags, next)
			trip.Tags = next
		}
	}

	if p.StartedAt.IsValue() && !p.StartedAt.Value.Equal(trip.StartedAt) {
		recordChange(&changes, "started_at", trip.StartedAt, p.StartedAt.Value)
		trip.StartedAt = p.StartedAt.Value
	}

	odoChanged := false
	if p.OdoStartKM.IsValue() && p.OdoStartKM.Value != trip.OdoStartKM {
		recordChange(&changes, "odo_start_km", trip.OdoStartKM, p.OdoStartKM.Value)
		trip.OdoStartKM = p.OdoStartKM.Value
		odoChanged = true
	}
	if p.OdoEndKM.Set {
		var next *float64
		if p.OdoEndKM.IsValue() {
			v := p.OdoEndKM.Value
			next = &v
		}
		if !equalFloatPtr(next, trip.OdoEndKM) {
			recordChange(&changes, "odo_end_km", trip.OdoEndKM, next)
			trip.OdoEndKM = next
			odoChanged = true
		}
	}

	if odoChanged {
		if err := s.revalidateOdometer(ctx, trip); err != nil {
			return nil, err
		}
		newDistance := computeDistance(trip.OdoStartKM, trip.OdoEndKM)
		if !equalFloatPtr(newDistance, trip.DistanceKM) {
			recordChange(&changes, "distance_km", trip.DistanceKM, newDistance)
			trip.DistanceKM = newDistance
		}
	}

	if p.StartCapture.Set || p.StartPoint.Set {
		next := reconcilePatched(p.StartCapture, p.StartPoint, trip.StartPoint)
		if !reflect.DeepEqual(next, trip.StartPoint) {
			recordChange(&changes, "start_point", trip.StartPoint, next)
			trip.StartPoint = next
		}
	}
	if p.EndCapture.Set || p.EndPoint.Set {
		next := reconcilePatched(p.EndCapture, p.EndPoint, trip.EndPoint)
		if !reflect.DeepEqual(next, trip.EndPoint) {
			recordChange(&changes, "end_point", trip.EndPoint, next)
			trip.EndPoint = next
		}
	}

	if p.EndedAt.Set {
		var next *time.Time
		if p.EndedAt.IsValue() {
			v := p.EndedAt.Value
			next = &v
		}
		if !equalTimePtr(next, trip.EndedAt) {
			recordChange(&changes, "ended_at", trip.EndedAt, next)
			trip.EndedAt = next
		}
	}

	syncStatus(trip, &changes)

	return changes, nil
}

// revalidateOdometer re-runs the start and end invariants after an odometer
// patch, using the current floor with the trip itself excluded from its own
// history.
func (s *tripService) revalidateOdometer(ctx context.Context, trip *models.Trip) error {
	vehicle, err := s.vehicles.GetByID(ctx, trip.OrgID, trip.VehicleID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return NewInternalError("failed to load vehicle", err)
	}

	floor, hasFloor, err := s.odometerFloor(ctx, trip.OrgID, trip.VehicleID, vehicle, trip.ID)
	if err != nil {
		return err
	}
	if hasFloor {
		if verr := validateOdoStart(trip.OdoStartKM, floor); verr != nil {
			return verr
		}
	}
	if trip.OdoEndKM != nil {
		if verr := validateOdoEnd(trip.OdoStartKM, *trip.OdoEndKM); verr != nil {
			return verr
		}
	}
	return nil
}

// syncStatus keeps the status field and the end timestamp consistent after a
// mutation: an open trip gaining ended_at closes, a closed trip losing it
// reopens. Cancelled is terminal and never flips.
func syncStatus(trip *models.Trip, changes *[]models.TripEditChange) {
	if trip.Status == models.TripStatusCancelled {
		return
	}
	if trip.EndedAt != nil && trip.Status != models.TripStatusClosed {
		recordChange(changes, "status", trip.Status, models.TripStatusClosed)
		trip.Status = models.TripStatusClosed
	}
	if trip.EndedAt == nil && trip.Status != models.TripStatusOpen {
		recordChange(changes, "status", trip.Status, models.TripStatusOpen)
		trip.Status = models.TripStatusOpen
	}
}

// reconcilePatched resolves the new checkpoint geometry for a patch. A
// patched capture wins over a patched point; when only the capture moved the
// stored point stays as the fallback for reconciliation.
func reconcilePatched(capture models.Field[models.GeoCapture], point models.Field[models.GeoPoint], current *models.GeoPoint) *models.GeoPoint {
	var fresh *models.GeoCapture
	if capture.IsValue() {
		c := capture.Value
		fresh = &c
	}

	base := current
	if point.Set {
		base = nil
		if point.IsValue() {
			v := point.Value
			base = &v
		}
	}

	return models.ReconcilePoint(fresh, base)
}

func applyIDPatch(changes *[]models.TripEditChange, field string, f models.Field[string], target **primitive.ObjectID) {
	if !f.Set {
		return
	}
	var next *primitive.ObjectID
	if f.IsValue() {
		id, _ := primitive.ObjectIDFromHex(f.Value)
		next = &id
	}
	if !equalIDPtr(next, *target) {
		recordChange(changes, field, *target, next)
		*target = next
	}
}

func recordChange(changes *[]models.TripEditChange, field string, before, after interface{}) {
	*changes = append(*changes, models.TripEditChange{
		Field:  field,
		Before: before,
		After:  after,
	})
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalIDPtr(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
