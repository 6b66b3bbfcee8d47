package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripStatus string
type TripPurpose string

const (
	TripStatusOpen      TripStatus = "open"
	TripStatusClosed    TripStatus = "closed"
	TripStatusCancelled TripStatus = "cancelled"

	TripPurposeBusiness TripPurpose = "business"
	TripPurposePrivate  TripPurpose = "private"
)

// TripPhoto is evidence metadata for a checkpoint photo. The bytes live in
// the object store; the trip only carries the reference.
type TripPhoto struct {
	URL        string             `json:"url" bson:"url"`
	Filename   string             `json:"filename" bson:"filename"`
	Mime       string             `json:"mime" bson:"mime"`
	Size       int64              `json:"size" bson:"size"`
	UploadedBy primitive.ObjectID `json:"uploaded_by" bson:"uploaded_by"`
	CapturedAt time.Time          `json:"captured_at" bson:"captured_at"`
}

// TripEditChange records one field-level before/after pair inside an edit.
type TripEditChange struct {
	Field  string      `json:"field" bson:"field"`
	Before interface{} `json:"before" bson:"before"`
	After  interface{} `json:"after" bson:"after"`
}

// TripEdit is one audited mutation of a trip. Only fields whose value
// actually changed are listed.
type TripEdit struct {
	EditedAt time.Time          `json:"edited_at" bson:"edited_at"`
	EditedBy primitive.ObjectID `json:"edited_by" bson:"edited_by"`
	Note     string             `json:"note,omitempty" bson:"note,omitempty"`
	Changes  []TripEditChange   `json:"changes" bson:"changes"`
}

type Trip struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID     primitive.ObjectID `json:"org_id" bson:"org_id" validate:"required"`
	VehicleID primitive.ObjectID `json:"vehicle_id" bson:"vehicle_id" validate:"required"`
	DriverID  primitive.ObjectID `json:"driver_id" bson:"driver_id" validate:"required"`

	Status    TripStatus `json:"status" bson:"status" default:"open"`
	StartedAt time.Time  `json:"started_at" bson:"started_at"`
	EndedAt   *time.Time `json:"ended_at" bson:"ended_at"`

	OdoStartKM float64  `json:"odo_start_km" bson:"odo_start_km" validate:"gte=0"`
	OdoEndKM   *float64 `json:"odo_end_km" bson:"odo_end_km"`
	DistanceKM *float64 `json:"distance_km" bson:"distance_km"`

	StartPoint *GeoPoint `json:"start_point" bson:"start_point"`
	EndPoint   *GeoPoint `json:"end_point" bson:"end_point"`

	Purpose   TripPurpose         `json:"purpose" bson:"purpose" default:"business"`
	ProjectID *primitive.ObjectID `json:"project_id" bson:"project_id"`
	TaskID    *primitive.ObjectID `json:"task_id" bson:"task_id"`
	Tags      []string            `json:"tags" bson:"tags"`
	Notes     string              `json:"notes" bson:"notes"`

	CancelReason string `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CancelledBy  string `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`

	StartPhoto  *TripPhoto  `json:"start_photo" bson:"start_photo"`
	EndPhoto    *TripPhoto  `json:"end_photo" bson:"end_photo"`
	Attachments []TripPhoto `json:"attachments" bson:"attachments"`

	LastEditedAt *time.Time          `json:"last_edited_at" bson:"last_edited_at"`
	LastEditedBy *primitive.ObjectID `json:"last_edited_by" bson:"last_edited_by"`
	Edits        []TripEdit          `json:"edits" bson:"edits"`

	IsDeleted bool `json:"is_deleted" bson:"is_deleted" default:"false"`

	// Revision guards read-modify-write updates: a replace only applies
	// when the stored revision still matches the one that was read.
	Revision int64 `json:"revision" bson:"revision"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsOpen treats a missing ended_at as open too, for records written before
// the status field existed.
func (t *Trip) IsOpen() bool {
	return t.Status == TripStatusOpen || (t.Status != TripStatusCancelled && t.EndedAt == nil)
}

// Distance returns the derived distance, or false when odo_end_km is unset.
func (t *Trip) Distance() (float64, bool) {
	if t.OdoEndKM == nil {
		return 0, false
	}
	d := *t.OdoEndKM - t.OdoStartKM
	if d < 0 {
		d = 0
	}
	return d, true
}
