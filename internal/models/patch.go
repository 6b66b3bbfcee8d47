package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Field is a three-state optional used for partial updates: a key missing
// from the payload (Set=false) is not the same as an explicit null
// (Set=true, Valid=false) or a concrete value (Set=true, Valid=true).
// For numeric fields a blank string also means "clear", a legacy form some
// clients still send.
type Field[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true

	if bytes.Equal(data, []byte("null")) {
		var zero T
		f.Value = zero
		f.Valid = false
		return nil
	}

	if bytes.Equal(data, []byte(`""`)) {
		switch any(f.Value).(type) {
		case float64, float32, int, int32, int64:
			var zero T
			f.Value = zero
			f.Valid = false
			return nil
		}
	}

	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// IsValue reports whether the patch carries a concrete value for the field.
func (f Field[T]) IsValue() bool { return f.Set && f.Valid }

// IsNull reports whether the patch explicitly clears the field.
func (f Field[T]) IsNull() bool { return f.Set && !f.Valid }

// TripPatch names the fields a partial update may touch. Every field is a
// three-state optional; absence leaves the stored value alone.
type TripPatch struct {
	DriverID  Field[string]   `json:"driver_id"`
	ProjectID Field[string]   `json:"project_id"`
	TaskID    Field[string]   `json:"task_id"`
	Purpose   Field[string]   `json:"purpose"`
	Notes     Field[string]   `json:"notes"`
	Tags      Field[[]string] `json:"tags"`

	OdoStartKM Field[float64] `json:"odo_start_km"`
	OdoEndKM   Field[float64] `json:"odo_end_km"`

	StartedAt Field[time.Time] `json:"started_at"`
	EndedAt   Field[time.Time] `json:"ended_at"`

	StartCapture Field[GeoCapture] `json:"start_capture"`
	StartPoint   Field[GeoPoint]   `json:"start_point"`
	EndCapture   Field[GeoCapture] `json:"end_capture"`
	EndPoint     Field[GeoPoint]   `json:"end_point"`
}

// Empty reports whether the patch names no fields at all.
func (p *TripPatch) Empty() bool {
	return !p.DriverID.Set && !p.ProjectID.Set && !p.TaskID.Set &&
		!p.Purpose.Set && !p.Notes.Set && !p.Tags.Set &&
		!p.OdoStartKM.Set && !p.OdoEndKM.Set &&
		!p.StartedAt.Set && !p.EndedAt.Set &&
		!p.StartCapture.Set && !p.StartPoint.Set &&
		!p.EndCapture.Set && !p.EndPoint.Set
}
