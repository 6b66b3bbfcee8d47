package interfaces

import (
	"context"

	"fleetops/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleRepository is the trip engine's read-only view of the vehicle
// directory.
type VehicleRepository interface {
	GetByID(ctx context.Context, orgID, id primitive.ObjectID) (*models.Vehicle, error)
}
