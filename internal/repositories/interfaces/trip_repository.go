package interfaces

import (
	"context"
	"errors"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a lookup matches no live document.
var ErrNotFound = errors.New("not found")

// ErrStaleRevision is returned by Replace when the stored revision no longer
// matches the one that was read; the caller lost a concurrent update race.
var ErrStaleRevision = errors.New("stale revision")

// ErrOpenTripExists is returned by Create when the vehicle already has an
// open trip. The unique index raises it even when two requests pass the
// existence check at the same time.
var ErrOpenTripExists = errors.New("open trip already exists")

// TripFilter narrows trip listings. Nil members are ignored.
type TripFilter struct {
	Status  *models.TripStatus
	Purpose *models.TripPurpose
	Tag     string
	From    *time.Time
	To      *time.Time
}

type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, orgID, id primitive.ObjectID) (*models.Trip, error)

	// Replace writes the whole document back, guarded by the revision read
	// with it. The stored revision is bumped on success.
	Replace(ctx context.Context, trip *models.Trip) error

	// FindOpenByVehicle returns the vehicle's open trip, or nil when there is
	// none. A non-deleted trip with a missing ended_at counts as open too.
	FindOpenByVehicle(ctx context.Context, orgID, vehicleID primitive.ObjectID) (*models.Trip, error)

	// FindLastClosedByVehicle returns the most recently closed non-deleted
	// trip, by ended_at descending with creation time as tie-break. The
	// excluded id (zero to skip) keeps a trip from acting as its own floor
	// while it is being patched.
	FindLastClosedByVehicle(ctx context.Context, orgID, vehicleID, exclude primitive.ObjectID) (*models.Trip, error)

	ListByVehicle(ctx context.Context, orgID, vehicleID primitive.ObjectID, filter *TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error)
	ListByDriver(ctx context.Context, orgID, driverID primitive.ObjectID, filter *TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error)

	GetTripStats(ctx context.Context, orgID primitive.ObjectID, startDate, endDate time.Time) (map[string]interface{}, error)
}
