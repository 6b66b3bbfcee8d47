package validators

import (
	"fmt"

	"fleetops/internal/models"
)

type StartTripRequest struct {
	VehicleID    string             `json:"vehicle_id" validate:"required,object_id"`
	DriverID     string             `json:"driver_id" validate:"omitempty,object_id"`
	OdoStartKM   *float64           `json:"odo_start_km" validate:"omitempty,odometer"`
	StartCapture *models.GeoCapture `json:"start_capture"`
	StartPoint   *models.GeoPoint   `json:"start_point"`
	Purpose      string             `json:"purpose" validate:"omitempty,oneof=business private"`
	ProjectID    string             `json:"project_id" validate:"omitempty,object_id"`
	TaskID       string             `json:"task_id" validate:"omitempty,object_id"`
	Notes        string             `json:"notes" validate:"omitempty,max=2000"`
	Tags         []string           `json:"tags" validate:"omitempty,max=20,dive,max=40"`
}

type EndTripRequest struct {
	VehicleID  string             `json:"vehicle_id" validate:"omitempty,object_id"`
	OdoEndKM   *float64           `json:"odo_end_km" validate:"omitempty,odometer"`
	EndCapture *models.GeoCapture `json:"end_capture"`
	EndPoint   *models.GeoPoint   `json:"end_point"`
	Purpose    string             `json:"purpose" validate:"omitempty,oneof=business private"`
	Notes      string             `json:"notes" validate:"omitempty,max=2000"`
}

type CancelTripRequest struct {
	Reason      string `json:"reason" validate:"required,max=255"`
	CancelledBy string `json:"cancelled_by" validate:"required,oneof=driver manager admin"`
}

type PatchTripRequest struct {
	Patch    models.TripPatch `json:"fields"`
	EditNote string           `json:"edit_note" validate:"omitempty,max=500"`
}

type AttachEvidenceRequest struct {
	Checkpoint string `json:"checkpoint" validate:"required,oneof=start end"`
	URL        string `json:"url" validate:"required,max=2048"`
	Filename   string `json:"filename" validate:"required,max=255"`
	Mime       string `json:"mime" validate:"required,max=100"`
	Size       int64  `json:"size" validate:"required,min=1"`
}

func ValidateStartTrip(req *StartTripRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateEndTrip(req *EndTripRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateCancelTrip(req *CancelTripRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateAttachEvidence(req *AttachEvidenceRequest) ValidationErrors {
	return ValidateStruct(req)
}

// ValidatePatchTrip checks the shape of a partial update. Invariant checks
// (odometer ordering, open-trip uniqueness) belong to the service; this only
// rejects payloads that could never be applied.
func ValidatePatchTrip(req *PatchTripRequest) ValidationErrors {
	errors := ValidateStruct(req)
	p := &req.Patch

	if p.Empty() {
		errors = append(errors, ValidationError{
			Field:   "fields",
			Message: "Patch must name at least one field",
		})
	}

	if p.DriverID.IsNull() {
		errors = append(errors, ValidationError{
			Field:   "driver_id",
			Message: "driver_id cannot be cleared",
		})
	}
	if p.OdoStartKM.IsNull() {
		errors = append(errors, ValidationError{
			Field:   "odo_start_km",
			Message: "odo_start_km cannot be cleared",
		})
	}
	if p.StartedAt.IsNull() {
		errors = append(errors, ValidationError{
			Field:   "started_at",
			Message: "started_at cannot be cleared",
		})
	}

	for field, id := range map[string]models.Field[string]{
		"driver_id":  p.DriverID,
		"project_id": p.ProjectID,
		"task_id":    p.TaskID,
	} {
		if id.IsValue() && !IsValidObjectID(id.Value) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "Invalid ID format",
			})
		}
	}

	if p.Purpose.IsValue() && p.Purpose.Value != string(models.TripPurposeBusiness) && p.Purpose.Value != string(models.TripPurposePrivate) {
		errors = append(errors, ValidationError{
			Field:   "purpose",
			Message: "purpose must be one of: business private",
		})
	}

	for field, odo := range map[string]models.Field[float64]{
		"odo_start_km": p.OdoStartKM,
		"odo_end_km":   p.OdoEndKM,
	} {
		if odo.IsValue() && (odo.Value < 0 || odo.Value > 10_000_000) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "Invalid odometer value",
			})
		}
	}

	if p.Tags.IsValue() {
		if len(p.Tags.Value) > 20 {
			errors = append(errors, ValidationError{
				Field:   "tags",
				Message: "at most 20 tags allowed",
			})
		}
		for i, tag := range p.Tags.Value {
			if tag == "" || len(tag) > 40 {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("tags[%d]", i),
					Message: "tags must be 1-40 characters",
				})
			}
		}
	}

	if p.Notes.IsValue() && len(p.Notes.Value) > 2000 {
		errors = append(errors, ValidationError{
			Field:   "notes",
			Message: "notes must be at most 2000 characters",
		})
	}

	return errors
}
