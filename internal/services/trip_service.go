package services

import (
	"context"
	"errors"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"
	"fleetops/internal/utils"
	"fleetops/internal/validators"
	"fleetops/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripService owns the trip lifecycle rules: the open-trip guard, the
// odometer ordering invariant, geometry reconciliation, and audited partial
// updates. Persistence mechanics stay in the repositories.
type TripService interface {
	// Lifecycle
	StartTrip(ctx context.Context, orgID primitive.ObjectID, req *validators.StartTripRequest) (*models.Trip, error)
	EndTrip(ctx context.Context, orgID, tripID, editedBy primitive.ObjectID, req *validators.EndTripRequest) (*models.Trip, error)
	PatchTrip(ctx context.Context, orgID, tripID, editedBy primitive.ObjectID, req *validators.PatchTripRequest) (*models.Trip, error)
	CancelTrip(ctx context.Context, orgID, tripID, editedBy primitive.ObjectID, req *validators.CancelTripRequest) (*models.Trip, error)
	DeleteTrip(ctx context.Context, orgID, tripID, editedBy primitive.ObjectID) error

	// Queries
	GetTrip(ctx context.Context, orgID, tripID primitive.ObjectID) (*models.Trip, error)
	GetOpenTrip(ctx context.Context, orgID, vehicleID primitive.ObjectID) (*models.Trip, error)
	ListTrips(ctx context.Context, orgID, vehicleID primitive.ObjectID, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error)
	ListTripsByDriver(ctx context.Context, orgID, driverID primitive.ObjectID, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error)
	GetTripStats(ctx context.Context, orgID primitive.ObjectID, startDate, endDate time.Time) (map[string]interface{}, error)

	// Evidence
	AttachEvidence(ctx context.Context, orgID, tripID, uploadedBy primitive.ObjectID, req *validators.AttachEvidenceRequest) (*models.Trip, error)
	AttachFile(ctx context.Context, orgID, tripID, uploadedBy primitive.ObjectID, url, filename, mime string, size int64) (*models.Trip, error)
}

type tripService struct {
	trips    interfaces.TripRepository
	vehicles interfaces.VehicleRepository
	locker   VehicleLocker
	logger   *logger.Logger
}

func NewTripService(
	trips interfaces.TripRepository,
	vehicles interfaces.VehicleRepository,
	locker VehicleLocker,
	log *logger.Logger,
) TripService {
	return &tripService{
		trips:    trips,
		vehicles: vehicles,
		locker:   locker,
		logger:   log,
	}
}

// StartTrip opens a new trip for the vehicle. The driver, project, task and
// start odometer default from the vehicle directory when the request omits
// them. Creation is serialized per vehicle across the existence check and
// the insert; the partial unique index backstops the remaining race.
func (s *tripService) StartTrip(ctx context.Context, orgID primitive.ObjectID, req *validators.StartTripRequest) (*models.Trip, error) {
	if errs := validators.ValidateStartTrip(req); len(errs) > 0 {
		return nil, newValidationErrors(errs)
	}

	vehicleID, _ := primitive.ObjectIDFromHex(req.VehicleID)

	vehicle, err := s.vehicles.GetByID(ctx, orgID, vehicleID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("VEHICLE_NOT_FOUND", utils.ErrVehicleNotFound)
		}
		return nil, NewInternalError("failed to load vehicle", err)
	}

	driverID, err := resolveDriver(req.DriverID, vehicle)
	if err != nil {
		return nil, err
	}

	odoStart, err := resolveOdoStart(req.OdoStartKM, vehicle)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, orgID.Hex()+":"+vehicleID.Hex())
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.trips.FindOpenByVehicle(ctx, orgID, vehicleID)
	if err != nil {
		return nil, NewInternalError("failed to check for open trip", err)
	}
	if existing != nil {
		return nil, NewConflictError(
			"OPEN_TRIP_EXISTS",
			"vehicle already has an open trip",
			map[string]string{"trip_id": existing.ID.Hex()},
		)
	}

	floor, hasFloor, err := s.odometerFloor(ctx, orgID, vehicleID, vehicle, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if hasFloor {
		if verr := validateOdoStart(odoStart, floor); verr != nil {
			return nil, verr
		}
	}

	purpose := models.TripPurposeBusiness
	if req.Purpose != "" {
		purpose = models.TripPurpose(req.Purpose)
	}

	trip := &models.Trip{
		OrgID:      orgID,
		VehicleID:  vehicleID,
		DriverID:   driverID,
		Status:     models.TripStatusOpen,
		StartedAt:  time.Now(),
		OdoStartKM: odoStart,
		StartPoint: models.ReconcilePoint(req.StartCapture, req.StartPoint),
		Purpose:    purpose,
		ProjectID:  resolveAssociation(req.ProjectID, vehicle.AssignedProjectID),
		TaskID:     resolveAssociation(req.TaskID, vehicle.AssignedTaskID),
		Tags:       req.Tags,
		Notes:      req.Notes,
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		if errors.Is(err, interfaces.ErrOpenTripExists) {
			return nil, NewConflictError("OPEN_TRIP_EXISTS", "vehicle already has an open trip", nil)
		}
		return nil, NewInternalError("failed to create trip", err)
	}

	s.logger.WithTripID(trip.ID).WithVehicleID(vehicleID).
		WithField("odo_start_km", odoStart).
		Info("Trip started")

	return trip, nil
}

// EndTrip closes an open trip, validating the odometer ordering invariant
// and reconciling end geometry. The mutation is audited like any other edit.
func (s *tripService) EndTrip(ctx context.Context, orgID, tripID, editedBy primitive.ObjectID, req *validators.EndTripRequest) (*models.Trip, error) {
	if errs := validators.ValidateEndTrip(req); len(errs) > 0 {
		return nil, newValidationErrors(errs)
	}

	trip, err := s.getTrip(ctx, orgID, tripID)
	if err != nil {
		return nil, err
	}

	if req.VehicleID != "" {
		vehicleID, _ := primitive.ObjectIDFromHex(req.VehicleID)
		if vehicleID != trip.VehicleID {
			return nil, NewValidationError("VEHICLE_MISMATCH", "trip does not belong to the given vehicle")
		}
	}

	if trip.Status == models.TripStatusCancelled {
		return nil, NewConflictError("TRIP_CANCELLED", "trip has been cancelled", nil)
	}
	if !trip.IsOpen() {
		return nil, NewConflictError("TRIP_ALREADY_CLOSED", "trip is already closed", nil)
	}

	if req.OdoEndKM != nil {
		if verr := validateOdoEnd(trip.OdoStartKM, *req.OdoEndKM); verr != nil {
			return nil, verr
		}
	}

	var changes []models.TripEditChange

	now := time.Now()
	recordChange(&changes, "ended_at", trip.EndedAt, &now)
	trip.EndedAt = &now

	if req.OdoEndKM != nil {
		recordChange(&changes, "odo_end_km", trip.OdoEndKM, req.OdoEndKM)
		trip.OdoEndKM = req.OdoEndKM
	}
	newDistance := computeDistance(trip.OdoStartKM, trip.OdoEndKM)
	recordChange(&changes, "distance_km", trip.DistanceKM, newDistance)
	trip.DistanceKM = newDistance

	if req.EndCapture != nil || req.EndPoint != nil {
		endPoint := models.ReconcilePoint(req.EndCapture, req.EndPoint)
		recordChange(&changes, "end_point", trip.EndPoint, endPoint)
		trip.EndPoint = endPoint
	}
	if req.Notes != "" {
		recordChange(&changes, "notes", trip.Notes, req.Notes)
		trip.Notes = req.Notes
	}
	if req.Purpose != "" {
		recordChange(&changes, "purpose", trip.Purpose, models.TripPurpose(req.Purpose))
		trip.Purpose = models.TripPurpose(req.Purpose)
	}

	syncStatus(trip, &changes)

	s.appendEdit(trip, editedBy, "", changes)
	if err := s.replace(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.WithTripID(trip.ID).WithVehicleID(trip.VehicleID).
		WithField("distance_km", trip.DistanceKM).
		Info("Trip ended")

	return trip, nil
}

// PatchTrip applies a partial update. Only fields named by the patch are
// touched; odometer and geometry rules re-run against the patched values,
// and one audit entry records every field that actually changed.
func (s *tripService) PatchTrip(ctx context.Context, orgID, tripID, editedBy primitive.ObjectID, req *validators.PatchTripRequest) (*models.Trip, error) {
	if errs := validators.ValidatePatchTrip(req); len(errs) > 0 {
		return nil, newValidationErrors(errs)
	}

	trip, err := s.getTrip(ctx, orgID, tripID)
	if err != nil {
		return nil, err
	}

	changes, err := s.applyPatch(ctx, trip, &req.Patch)
	if err != nil {
		return nil, err
	}

	if len(changes) == 0 {
		return trip, nil
	}

	s.appendEdit(trip, editedBy, req.EditNote, changes)
	if err := s.replace(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.WithTripID(trip.ID).
		WithField("changed_fields", len(changes)).
		Info("Trip patched")

	return trip, nil
}

// CancelTrip moves an open trip to the cancelled terminal state.
func (s *tripService) CancelTrip(ctx context.Context, orgID, tripID, editedBy primitive.ObjectID, req *validators.CancelTripRequest) (*models.Trip, error) {
	if errs := validators.ValidateCancelTrip(req); len(errs) > 0 {
		return nil, newValidationErrors(errs)
	}

	trip, err := s.getTrip(ctx, orgID, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status == models.TripStatusCancelled {
		return nil, NewConflictError("TRIP_CANCELLED", "trip has already been cancelled", nil)
	}
	if !trip.IsOpen() {
		return nil, NewConflictError("TRIP_ALREADY_CLOSED", "closed trips cannot be cancelled", nil)
	}

	var changes []models.TripEditChange
	recordChange(&changes, "status", trip.Status, models.TripStatusCancelled)
	trip.Status = models.TripStatusCancelled
	trip.CancelReason = req.Reason
	trip.CancelledBy = req.CancelledBy

	s.appendEdit(trip, editedBy, req.Reason, changes)
	if err := s.replace(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.WithTripID(trip.ID).WithVehicleID(trip.VehicleID).
		WithField("reason", req.Reason).
		Info("Trip cancelled")

	return trip, nil
}

// DeleteTrip soft-deletes a trip. Deleted trips leave default listings and
// the open-trip uniqueness scope; nothing is ever hard-deleted here.
func (s *tripService) DeleteTrip(ctx context.Context, orgID, tripID, editedBy primitive.ObjectID) error {
	trip, err := s.getTrip(ctx, orgID, tripID)
	if err != nil {
		return err
	}

	var changes []models.TripEditChange
	recordChange(&changes, "is_deleted", trip.IsDeleted, true)
	trip.IsDeleted = true

	s.appendEdit(trip, editedBy, "", changes)
	if err := s.replace(ctx, trip); err != nil {
		return err
	}

	s.logger.WithTripID(trip.ID).Info("Trip deleted")
	return nil
}

func (s *tripService) GetTrip(ctx context.Context, orgID, tripID primitive.ObjectID) (*models.Trip, error) {
	return s.getTrip(ctx, orgID, tripID)
}

// GetOpenTrip returns the vehicle's open trip, or not-found when there is
// none.
func (s *tripService) GetOpenTrip(ctx context.Context, orgID, vehicleID primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.trips.FindOpenByVehicle(ctx, orgID, vehicleID)
	if err != nil {
		return nil, NewInternalError("failed to find open trip", err)
	}
	if trip == nil {
		return nil, NewNotFoundError("NO_OPEN_TRIP", "vehicle has no open trip")
	}
	return trip, nil
}

func (s *tripService) ListTrips(ctx context.Context, orgID, vehicleID primitive.ObjectID, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	trips, total, err := s.trips.ListByVehicle(ctx, orgID, vehicleID, filter, params)
	if err != nil {
		return nil, 0, NewInternalError("failed to list trips", err)
	}
	return trips, total, nil
}

func (s *tripService) ListTripsByDriver(ctx context.Context, orgID, driverID primitive.ObjectID, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	trips, total, err := s.trips.ListByDriver(ctx, orgID, driverID, filter, params)
	if err != nil {
		return nil, 0, NewInternalError("failed to list trips", err)
	}
	return trips, total, nil
}

func (s *tripService) GetTripStats(ctx context.Context, orgID primitive.ObjectID, startDate, endDate time.Time) (map[string]interface{}, error) {
	stats, err := s.trips.GetTripStats(ctx, orgID, startDate, endDate)
	if err != nil {
		return nil, NewInternalError("failed to get trip stats", err)
	}
	return stats, nil
}

// AttachEvidence stores uploaded photo metadata on the named checkpoint.
// Last write wins: the caller is always replacing a checkpoint deliberately.
// This never touches odometer or geometry validation.
func (s *tripService) AttachEvidence(ctx context.Context, orgID, tripID, uploadedBy primitive.ObjectID, req *validators.AttachEvidenceRequest) (*models.Trip, error) {
	if errs := validators.ValidateAttachEvidence(req); len(errs) > 0 {
		return nil, newValidationErrors(errs)
	}

	trip, err := s.getTrip(ctx, orgID, tripID)
	if err != nil {
		return nil, err
	}

	photo := &models.TripPhoto{
		URL:        req.URL,
		Filename:   req.Filename,
		Mime:       req.Mime,
		Size:       req.Size,
		UploadedBy: uploadedBy,
		CapturedAt: time.Now(),
	}

	switch req.Checkpoint {
	case "start":
		trip.StartPhoto = photo
	case "end":
		trip.EndPhoto = photo
	}

	if err := s.replace(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.WithTripID(trip.ID).
		WithField("checkpoint", req.Checkpoint).
		WithField("filename", req.Filename).
		Info("Evidence attached")

	return trip, nil
}

// AttachFile appends a blob reference to the trip's general attachments list.
func (s *tripService) AttachFile(ctx context.Context, orgID, tripID, uploadedBy primitive.ObjectID, url, filename, mime string, size int64) (*models.Trip, error) {
	trip, err := s.getTrip(ctx, orgID, tripID)
	if err != nil {
		return nil, err
	}

	trip.Attachments = append(trip.Attachments, models.TripPhoto{
		URL:        url,
		Filename:   filename,
		Mime:       mime,
		Size:       size,
		UploadedBy: uploadedBy,
		CapturedAt: time.Now(),
	})

	if err := s.replace(ctx, trip); err != nil {
		return nil, err
	}

	return trip, nil
}

// Helpers

func (s *tripService) getTrip(ctx context.Context, orgID, tripID primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.trips.GetByID(ctx, orgID, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("TRIP_NOT_FOUND", utils.ErrTripNotFound)
		}
		return nil, NewInternalError("failed to load trip", err)
	}
	return trip, nil
}

func (s *tripService) replace(ctx context.Context, trip *models.Trip) error {
	if err := s.trips.Replace(ctx, trip); err != nil {
		if errors.Is(err, interfaces.ErrStaleRevision) {
			return NewConflictError("CONCURRENT_UPDATE", "trip was modified by another request, retry with fresh data", nil)
		}
		// Reopening a trip while the vehicle already has another open trip
		// trips the unique index.
		if errors.Is(err, interfaces.ErrOpenTripExists) {
			return NewConflictError("OPEN_TRIP_EXISTS", "vehicle already has an open trip", nil)
		}
		return NewInternalError("failed to save trip", err)
	}
	return nil
}

func (s *tripService) appendEdit(trip *models.Trip, editedBy primitive.ObjectID, note string, changes []models.TripEditChange) {
	if len(changes) == 0 {
		return
	}
	now := time.Now()
	trip.Edits = append(trip.Edits, models.TripEdit{
		EditedAt: now,
		EditedBy: editedBy,
		Note:     note,
		Changes:  changes,
	})
	trip.LastEditedAt = &now
	trip.LastEditedBy = &editedBy
}

func resolveDriver(requested string, vehicle *models.Vehicle) (primitive.ObjectID, error) {
	if requested != "" {
		id, _ := primitive.ObjectIDFromHex(requested)
		return id, nil
	}
	if vehicle.AssignedDriverID != nil {
		return *vehicle.AssignedDriverID, nil
	}
	return primitive.NilObjectID, NewValidationError("DRIVER_REQUIRED", "driver_id is required and the vehicle has no assigned driver")
}

func resolveOdoStart(requested *float64, vehicle *models.Vehicle) (float64, error) {
	if requested != nil {
		return *requested, nil
	}
	if o, ok := vehicle.Odometer(); ok {
		return o, nil
	}
	return 0, NewValidationError("ODO_START_REQUIRED", "odo_start_km is required and the vehicle has no recorded odometer")
}

func resolveAssociation(requested string, assigned *primitive.ObjectID) *primitive.ObjectID {
	if requested != "" {
		id, _ := primitive.ObjectIDFromHex(requested)
		return &id
	}
	return assigned
}

func newValidationErrors(errs validators.ValidationErrors) *Error {
	return &Error{
		Kind:    ErrKindValidation,
		Code:    "VALIDATION_ERROR",
		Message: errs.Error(),
		Details: errs.Fields(),
	}
}
