package utils

import "time"

// Application Constants
const (
	AppName    = "FleetOps"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Trip Constants
	MaxTagLength    = 40
	MaxTags         = 20
	MaxNotesLength  = 2000
	MaxOdometerKM   = 10_000_000.0
	VehicleLockWait = 5 * time.Second
	VehicleLockTTL  = 15 * time.Second

	// File Upload
	MaxPhotoSize = 10 * 1024 * 1024 // 10MB
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrValidationFailed = "validation failed"
	ErrTripNotFound     = "trip not found"
	ErrVehicleNotFound  = "vehicle not found"
)

// Cache Keys
const (
	CacheTripPrefix        = "trip:"
	CacheOpenTripPrefix    = "open_trip:"
	CacheVehicleLockPrefix = "vehicle_lock:"
)

// File Types
var AllowedPhotoTypes = []string{"image/jpeg", "image/png", "image/webp", "image/heic"}
