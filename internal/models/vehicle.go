package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "active"
	VehicleStatusInactive    VehicleStatus = "inactive"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// Vehicle is the directory record the trip engine reads. The engine never
// writes vehicles; current_odometer_km is maintained by the fleet module.
type Vehicle struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OrgID             primitive.ObjectID  `json:"org_id" bson:"org_id" validate:"required"`
	Name              string              `json:"name" bson:"name"`
	LicensePlate      string              `json:"license_plate" bson:"license_plate" validate:"required"`
	Status            VehicleStatus       `json:"status" bson:"status" default:"active"`
	CurrentOdometerKM *float64            `json:"current_odometer_km" bson:"current_odometer_km"`
	AssignedDriverID  *primitive.ObjectID `json:"assigned_driver_id" bson:"assigned_driver_id"`
	AssignedProjectID *primitive.ObjectID `json:"assigned_project_id" bson:"assigned_project_id"`
	AssignedTaskID    *primitive.ObjectID `json:"assigned_task_id" bson:"assigned_task_id"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

// Odometer returns the recorded odometer, or false when it is absent or not
// a finite number.
func (v *Vehicle) Odometer() (float64, bool) {
	if v.CurrentOdometerKM == nil {
		return 0, false
	}
	o := *v.CurrentOdometerKM
	if math.IsNaN(o) || math.IsInf(o, 0) {
		return 0, false
	}
	return o, true
}
