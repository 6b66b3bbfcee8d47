package services

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"
	"fleetops/internal/utils"
	"fleetops/internal/validators"
	"fleetops/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockTripRepo struct {
	createFn         func(ctx context.Context, trip *models.Trip) error
	getByIDFn        func(ctx context.Context, orgID, id primitive.ObjectID) (*models.Trip, error)
	replaceFn        func(ctx context.Context, trip *models.Trip) error
	findOpenFn       func(ctx context.Context, orgID, vehicleID primitive.ObjectID) (*models.Trip, error)
	findLastClosedFn func(ctx context.Context, orgID, vehicleID, exclude primitive.ObjectID) (*models.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip *models.Trip) error {
	if m.createFn != nil {
		return m.createFn(ctx, trip)
	}
	trip.ID = primitive.NewObjectID()
	trip.Revision = 1
	return nil
}

func (m *mockTripRepo) GetByID(ctx context.Context, orgID, id primitive.ObjectID) (*models.Trip, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, orgID, id)
	}
	return nil, interfaces.ErrNotFound
}

func (m *mockTripRepo) Replace(ctx context.Context, trip *models.Trip) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, trip)
	}
	return nil
}

func (m *mockTripRepo) FindOpenByVehicle(ctx context.Context, orgID, vehicleID primitive.ObjectID) (*models.Trip, error) {
	if m.findOpenFn != nil {
		return m.findOpenFn(ctx, orgID, vehicleID)
	}
	return nil, nil
}

func (m *mockTripRepo) FindLastClosedByVehicle(ctx context.Context, orgID, vehicleID, exclude primitive.ObjectID) (*models.Trip, error) {
	if m.findLastClosedFn != nil {
		return m.findLastClosedFn(ctx, orgID, vehicleID, exclude)
	}
	return nil, nil
}

func (m *mockTripRepo) ListByVehicle(ctx context.Context, orgID, vehicleID primitive.ObjectID, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	return nil, 0, nil
}

func (m *mockTripRepo) ListByDriver(ctx context.Context, orgID, driverID primitive.ObjectID, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	return nil, 0, nil
}

func (m *mockTripRepo) GetTripStats(ctx context.Context, orgID primitive.ObjectID, startDate, endDate time.Time) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

type mockVehicleRepo struct {
	getByIDFn func(ctx context.Context, orgID, id primitive.ObjectID) (*models.Vehicle, error)
}

func (m *mockVehicleRepo) GetByID(ctx context.Context, orgID, id primitive.ObjectID) (*models.Vehicle, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, orgID, id)
	}
	return nil, interfaces.ErrNotFound
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})
	require.NoError(t, err)
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, trips *mockTripRepo, vehicles *mockVehicleRepo) TripService {
	t.Helper()
	return NewTripService(trips, vehicles, NewLocalVehicleLocker(), testLogger(t))
}

var (
	testOrgID     = primitive.NewObjectID()
	testVehicleID = primitive.NewObjectID()
	testDriverID  = primitive.NewObjectID()
	testEditorID  = primitive.NewObjectID()
)

func testVehicle(odo float64) *models.Vehicle {
	return &models.Vehicle{
		ID:                testVehicleID,
		OrgID:             testOrgID,
		LicensePlate:      "B-FL 2041",
		Status:            models.VehicleStatusActive,
		CurrentOdometerKM: &odo,
		AssignedDriverID:  &testDriverID,
	}
}

func vehicleRepoWith(v *models.Vehicle) *mockVehicleRepo {
	return &mockVehicleRepo{
		getByIDFn: func(ctx context.Context, orgID, id primitive.ObjectID) (*models.Vehicle, error) {
			if v == nil || orgID != v.OrgID || id != v.ID {
				return nil, interfaces.ErrNotFound
			}
			return v, nil
		},
	}
}

func openTrip() *models.Trip {
	return &models.Trip{
		ID:         primitive.NewObjectID(),
		OrgID:      testOrgID,
		VehicleID:  testVehicleID,
		DriverID:   testDriverID,
		Status:     models.TripStatusOpen,
		StartedAt:  time.Now().Add(-2 * time.Hour),
		OdoStartKM: 120500,
		Purpose:    models.TripPurposeBusiness,
		Revision:   1,
	}
}

func tripRepoFor(trip *models.Trip) *mockTripRepo {
	return &mockTripRepo{
		getByIDFn: func(ctx context.Context, orgID, id primitive.ObjectID) (*models.Trip, error) {
			if trip == nil || orgID != trip.OrgID || id != trip.ID {
				return nil, interfaces.ErrNotFound
			}
			clone := *trip
			return &clone, nil
		},
	}
}

func TestStartTrip_DefaultsFromVehicle(t *testing.T) {
	var created *models.Trip
	trips := &mockTripRepo{
		createFn: func(ctx context.Context, trip *models.Trip) error {
			trip.ID = primitive.NewObjectID()
			created = trip
			return nil
		},
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	lat, lng := 52.52, 13.405
	trip, err := svc.StartTrip(context.Background(), testOrgID, &validators.StartTripRequest{
		VehicleID:    testVehicleID.Hex(),
		StartCapture: &models.GeoCapture{Lat: &lat, Lng: &lng},
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, testDriverID, trip.DriverID)
	assert.Equal(t, 120500.0, trip.OdoStartKM)
	assert.Equal(t, models.TripStatusOpen, trip.Status)
	assert.Equal(t, models.TripPurposeBusiness, trip.Purpose)
	require.NotNil(t, trip.StartPoint)
	assert.Equal(t, []float64{13.405, 52.52}, trip.StartPoint.Coordinates)
}

func TestStartTrip_OpenTripConflict(t *testing.T) {
	existing := openTrip()
	trips := &mockTripRepo{
		findOpenFn: func(ctx context.Context, orgID, vehicleID primitive.ObjectID) (*models.Trip, error) {
			return existing, nil
		},
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	_, err := svc.StartTrip(context.Background(), testOrgID, &validators.StartTripRequest{
		VehicleID: testVehicleID.Hex(),
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindConflict))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "OPEN_TRIP_EXISTS", se.Code)
	assert.Equal(t, existing.ID.Hex(), se.Details["trip_id"])
}

func TestStartTrip_DuplicateInsertMapsToConflict(t *testing.T) {
	trips := &mockTripRepo{
		createFn: func(ctx context.Context, trip *models.Trip) error {
			return interfaces.ErrOpenTripExists
		},
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	_, err := svc.StartTrip(context.Background(), testOrgID, &validators.StartTripRequest{
		VehicleID: testVehicleID.Hex(),
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindConflict))
}

func TestStartTrip_OdometerBelowFloor(t *testing.T) {
	lastEnd := 120540.0
	endedAt := time.Now().Add(-time.Hour)
	last := openTrip()
	last.Status = models.TripStatusClosed
	last.EndedAt = &endedAt
	last.OdoEndKM = &lastEnd

	trips := &mockTripRepo{
		findLastClosedFn: func(ctx context.Context, orgID, vehicleID, exclude primitive.ObjectID) (*models.Trip, error) {
			return last, nil
		},
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120000)))

	odoStart := 120510.0
	_, err := svc.StartTrip(context.Background(), testOrgID, &validators.StartTripRequest{
		VehicleID:  testVehicleID.Hex(),
		OdoStartKM: &odoStart,
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindInvariant))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "ODOMETER_BELOW_FLOOR", se.Code)
	assert.Equal(t, "120510", se.Details["odo_start_km"])
	assert.Equal(t, "120540", se.Details["floor_km"])
}

func TestStartTrip_VehicleOdometerIsTheFloorWhenHigher(t *testing.T) {
	svc := newTestService(t, &mockTripRepo{}, vehicleRepoWith(testVehicle(120600)))

	odoStart := 120550.0
	_, err := svc.StartTrip(context.Background(), testOrgID, &validators.StartTripRequest{
		VehicleID:  testVehicleID.Hex(),
		OdoStartKM: &odoStart,
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindInvariant))
}

func TestStartTrip_VehicleNotFound(t *testing.T) {
	svc := newTestService(t, &mockTripRepo{}, &mockVehicleRepo{})

	_, err := svc.StartTrip(context.Background(), testOrgID, &validators.StartTripRequest{
		VehicleID: testVehicleID.Hex(),
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindNotFound))
}

func TestStartTrip_NoDriverAnywhere(t *testing.T) {
	vehicle := testVehicle(120500)
	vehicle.AssignedDriverID = nil
	svc := newTestService(t, &mockTripRepo{}, vehicleRepoWith(vehicle))

	_, err := svc.StartTrip(context.Background(), testOrgID, &validators.StartTripRequest{
		VehicleID: testVehicleID.Hex(),
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindValidation))
}

func TestStartTrip_InvalidCaptureIsDroppedNotFatal(t *testing.T) {
	trips := &mockTripRepo{}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	lat, lng := 200.0, 200.0
	trip, err := svc.StartTrip(context.Background(), testOrgID, &validators.StartTripRequest{
		VehicleID:    testVehicleID.Hex(),
		StartCapture: &models.GeoCapture{Lat: &lat, Lng: &lng},
	})

	require.NoError(t, err)
	assert.Nil(t, trip.StartPoint)
}

func TestEndTrip_ComputesDistanceAndCloses(t *testing.T) {
	trip := openTrip()
	trips := tripRepoFor(trip)
	var saved *models.Trip
	trips.replaceFn = func(ctx context.Context, t *models.Trip) error {
		saved = t
		return nil
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	odoEnd := 120540.0
	got, err := svc.EndTrip(context.Background(), testOrgID, trip.ID, testEditorID, &validators.EndTripRequest{
		OdoEndKM: &odoEnd,
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, models.TripStatusClosed, got.Status)
	require.NotNil(t, got.EndedAt)
	require.NotNil(t, got.DistanceKM)
	assert.Equal(t, 40.0, *got.DistanceKM)
	require.NotEmpty(t, got.Edits)
	assert.Equal(t, testEditorID, got.Edits[0].EditedBy)
}

func TestEndTrip_WithoutOdoEnd(t *testing.T) {
	trip := openTrip()
	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	got, err := svc.EndTrip(context.Background(), testOrgID, trip.ID, testEditorID, &validators.EndTripRequest{})

	require.NoError(t, err)
	assert.Equal(t, models.TripStatusClosed, got.Status)
	assert.Nil(t, got.OdoEndKM)
	assert.Nil(t, got.DistanceKM)
}

func TestEndTrip_EndBeforeStart(t *testing.T) {
	trip := openTrip()
	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	odoEnd := 120400.0
	_, err := svc.EndTrip(context.Background(), testOrgID, trip.ID, testEditorID, &validators.EndTripRequest{
		OdoEndKM: &odoEnd,
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindInvariant))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "ODOMETER_END_BEFORE_START", se.Code)
}

func TestEndTrip_AlreadyClosed(t *testing.T) {
	trip := openTrip()
	endedAt := time.Now()
	trip.Status = models.TripStatusClosed
	trip.EndedAt = &endedAt
	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	_, err := svc.EndTrip(context.Background(), testOrgID, trip.ID, testEditorID, &validators.EndTripRequest{})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindConflict))
}

func TestEndTrip_VehicleMismatch(t *testing.T) {
	trip := openTrip()
	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	_, err := svc.EndTrip(context.Background(), testOrgID, trip.ID, testEditorID, &validators.EndTripRequest{
		VehicleID: primitive.NewObjectID().Hex(),
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindValidation))
}

func patchFromJSON(t *testing.T, payload string) *validators.PatchTripRequest {
	t.Helper()
	var req validators.PatchTripRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))
	return &req
}

func TestPatchTrip_OdoEndRecomputesDistance(t *testing.T) {
	trip := openTrip()
	endedAt := time.Now()
	oldEnd, oldDist := 120530.0, 30.0
	trip.Status = models.TripStatusClosed
	trip.EndedAt = &endedAt
	trip.OdoEndKM = &oldEnd
	trip.DistanceKM = &oldDist

	trips := tripRepoFor(trip)
	var saved *models.Trip
	trips.replaceFn = func(ctx context.Context, t *models.Trip) error {
		saved = t
		return nil
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	got, err := svc.PatchTrip(context.Background(), testOrgID, trip.ID, testEditorID,
		patchFromJSON(t, `{"fields": {"odo_end_km": 120540}, "edit_note": "pump reading was right"}`))

	require.NoError(t, err)
	require.NotNil(t, saved)
	require.NotNil(t, got.DistanceKM)
	assert.Equal(t, 40.0, *got.DistanceKM)

	require.Len(t, got.Edits, 1)
	edit := got.Edits[0]
	assert.Equal(t, "pump reading was right", edit.Note)

	changed := map[string]bool{}
	for _, c := range edit.Changes {
		changed[c.Field] = true
	}
	assert.True(t, changed["odo_end_km"])
	assert.True(t, changed["distance_km"])
	assert.False(t, changed["status"])
}

func TestPatchTrip_ClearingEndedAtReopens(t *testing.T) {
	trip := openTrip()
	endedAt := time.Now()
	trip.Status = models.TripStatusClosed
	trip.EndedAt = &endedAt

	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	got, err := svc.PatchTrip(context.Background(), testOrgID, trip.ID, testEditorID,
		patchFromJSON(t, `{"fields": {"ended_at": null}}`))

	require.NoError(t, err)
	assert.Equal(t, models.TripStatusOpen, got.Status)
	assert.Nil(t, got.EndedAt)
}

func TestPatchTrip_SettingEndedAtCloses(t *testing.T) {
	trip := openTrip()
	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	got, err := svc.PatchTrip(context.Background(), testOrgID, trip.ID, testEditorID,
		patchFromJSON(t, `{"fields": {"ended_at": "2026-08-20T16:45:00Z"}}`))

	require.NoError(t, err)
	assert.Equal(t, models.TripStatusClosed, got.Status)
	require.NotNil(t, got.EndedAt)
}

func TestPatchTrip_OdoStartRevalidatedAgainstFloor(t *testing.T) {
	trip := openTrip()
	lastEnd := 120490.0
	closedAt := time.Now().Add(-24 * time.Hour)
	previous := &models.Trip{
		ID:         primitive.NewObjectID(),
		OrgID:      testOrgID,
		VehicleID:  testVehicleID,
		Status:     models.TripStatusClosed,
		EndedAt:    &closedAt,
		OdoEndKM:   &lastEnd,
	}

	trips := tripRepoFor(trip)
	trips.findLastClosedFn = func(ctx context.Context, orgID, vehicleID, exclude primitive.ObjectID) (*models.Trip, error) {
		assert.Equal(t, trip.ID, exclude)
		return previous, nil
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120000)))

	_, err := svc.PatchTrip(context.Background(), testOrgID, trip.ID, testEditorID,
		patchFromJSON(t, `{"fields": {"odo_start_km": 120480}}`))

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindInvariant))
}

func TestPatchTrip_NoEffectiveChangeSkipsAudit(t *testing.T) {
	trip := openTrip()
	trip.Notes = "same"
	trips := tripRepoFor(trip)
	replaced := false
	trips.replaceFn = func(ctx context.Context, t *models.Trip) error {
		replaced = true
		return nil
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	got, err := svc.PatchTrip(context.Background(), testOrgID, trip.ID, testEditorID,
		patchFromJSON(t, `{"fields": {"notes": "same"}}`))

	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Empty(t, got.Edits)
}

func TestPatchTrip_StaleRevision(t *testing.T) {
	trip := openTrip()
	trips := tripRepoFor(trip)
	trips.replaceFn = func(ctx context.Context, t *models.Trip) error {
		return interfaces.ErrStaleRevision
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	_, err := svc.PatchTrip(context.Background(), testOrgID, trip.ID, testEditorID,
		patchFromJSON(t, `{"fields": {"notes": "fresh"}}`))

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindConflict))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "CONCURRENT_UPDATE", se.Code)
}

func TestPatchTrip_ReopenCollidingWithOpenTripConflicts(t *testing.T) {
	trip := openTrip()
	endedAt := time.Now()
	trip.Status = models.TripStatusClosed
	trip.EndedAt = &endedAt

	trips := tripRepoFor(trip)
	trips.replaceFn = func(ctx context.Context, t *models.Trip) error {
		// the unique index rejects a second open trip on the vehicle
		return interfaces.ErrOpenTripExists
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	_, err := svc.PatchTrip(context.Background(), testOrgID, trip.ID, testEditorID,
		patchFromJSON(t, `{"fields": {"ended_at": null}}`))

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindConflict))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "OPEN_TRIP_EXISTS", se.Code)
}

func TestPatchTrip_CapturePatchReconcilesAgainstStoredPoint(t *testing.T) {
	trip := openTrip()
	trip.StartPoint = &models.GeoPoint{Type: "Point", Coordinates: []float64{13.405, 52.52}}

	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	// invalid capture, stored point survives
	got, err := svc.PatchTrip(context.Background(), testOrgID, trip.ID, testEditorID,
		patchFromJSON(t, `{"fields": {"start_capture": {"lat": 999, "lng": 999}, "notes": "geo fix"}}`))

	require.NoError(t, err)
	require.NotNil(t, got.StartPoint)
	assert.Equal(t, []float64{13.405, 52.52}, got.StartPoint.Coordinates)
}

func TestPatchTrip_EmptyPatchRejected(t *testing.T) {
	svc := newTestService(t, &mockTripRepo{}, &mockVehicleRepo{})

	_, err := svc.PatchTrip(context.Background(), testOrgID, primitive.NewObjectID(), testEditorID,
		patchFromJSON(t, `{"fields": {}}`))

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindValidation))
}

func TestCancelTrip(t *testing.T) {
	trip := openTrip()
	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	got, err := svc.CancelTrip(context.Background(), testOrgID, trip.ID, testEditorID, &validators.CancelTripRequest{
		Reason:      "started on the wrong vehicle",
		CancelledBy: "driver",
	})

	require.NoError(t, err)
	assert.Equal(t, models.TripStatusCancelled, got.Status)
	assert.Equal(t, "started on the wrong vehicle", got.CancelReason)
	assert.Nil(t, got.EndedAt)
}

func TestCancelTrip_ClosedTripCannotBeCancelled(t *testing.T) {
	trip := openTrip()
	endedAt := time.Now()
	trip.Status = models.TripStatusClosed
	trip.EndedAt = &endedAt
	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	_, err := svc.CancelTrip(context.Background(), testOrgID, trip.ID, testEditorID, &validators.CancelTripRequest{
		Reason:      "too late",
		CancelledBy: "manager",
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindConflict))
}

func TestDeleteTrip(t *testing.T) {
	trip := openTrip()
	trips := tripRepoFor(trip)
	var saved *models.Trip
	trips.replaceFn = func(ctx context.Context, t *models.Trip) error {
		saved = t
		return nil
	}
	svc := newTestService(t, trips, vehicleRepoWith(testVehicle(120500)))

	require.NoError(t, svc.DeleteTrip(context.Background(), testOrgID, trip.ID, testEditorID))
	require.NotNil(t, saved)
	assert.True(t, saved.IsDeleted)
}

func TestGetOpenTrip_NoneIsNotFound(t *testing.T) {
	svc := newTestService(t, &mockTripRepo{}, &mockVehicleRepo{})

	_, err := svc.GetOpenTrip(context.Background(), testOrgID, testVehicleID)

	require.Error(t, err)
	assert.True(t, IsKind(err, ErrKindNotFound))
}

func TestAttachEvidence_LastWriteWins(t *testing.T) {
	trip := openTrip()
	first := &models.TripPhoto{URL: "https://blobs/old.jpg", Filename: "old.jpg"}
	trip.EndPhoto = first

	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	got, err := svc.AttachEvidence(context.Background(), testOrgID, trip.ID, testEditorID, &validators.AttachEvidenceRequest{
		Checkpoint: "end",
		URL:        "https://blobs/new.jpg",
		Filename:   "new.jpg",
		Mime:       "image/jpeg",
		Size:       1234,
	})

	require.NoError(t, err)
	require.NotNil(t, got.EndPhoto)
	assert.Equal(t, "https://blobs/new.jpg", got.EndPhoto.URL)
	assert.Equal(t, testEditorID, got.EndPhoto.UploadedBy)
	assert.Empty(t, got.Edits)
}

func TestAttachEvidence_WorksOnClosedTrips(t *testing.T) {
	trip := openTrip()
	endedAt := time.Now()
	trip.Status = models.TripStatusClosed
	trip.EndedAt = &endedAt

	svc := newTestService(t, tripRepoFor(trip), vehicleRepoWith(testVehicle(120500)))

	got, err := svc.AttachEvidence(context.Background(), testOrgID, trip.ID, testEditorID, &validators.AttachEvidenceRequest{
		Checkpoint: "start",
		URL:        "https://blobs/pump.jpg",
		Filename:   "pump.jpg",
		Mime:       "image/jpeg",
		Size:       99,
	})

	require.NoError(t, err)
	require.NotNil(t, got.StartPhoto)
	assert.Equal(t, models.TripStatusClosed, got.Status)
}
