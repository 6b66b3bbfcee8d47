package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"
	"fleetops/internal/services"
	"fleetops/internal/utils"
	"fleetops/internal/validators"
	"fleetops/pkg/logger"
	"fleetops/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripHandler struct {
	tripService services.TripService
	storage     storage.StorageProvider
	logger      *logger.Logger
}

func NewTripHandler(tripService services.TripService, storageProvider storage.StorageProvider, log *logger.Logger) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		storage:     storageProvider,
		logger:      log,
	}
}

// StartTrip opens a new trip for a vehicle
func (h *TripHandler) StartTrip(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	var request validators.StartTripRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), orgID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Trip started successfully", trip)
}

// EndTrip closes an open trip
func (h *TripHandler) EndTrip(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var request validators.EndTripRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	trip, err := h.tripService.EndTrip(c.Request.Context(), orgID, tripID, actorFromContext(c), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip ended successfully", trip)
}

// PatchTrip applies a partial update to a trip
func (h *TripHandler) PatchTrip(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var request validators.PatchTripRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	trip, err := h.tripService.PatchTrip(c.Request.Context(), orgID, tripID, actorFromContext(c), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip updated successfully", trip)
}

// CancelTrip moves an open trip to the cancelled state
func (h *TripHandler) CancelTrip(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var request validators.CancelTripRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	trip, err := h.tripService.CancelTrip(c.Request.Context(), orgID, tripID, actorFromContext(c), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip cancelled successfully", trip)
}

// DeleteTrip soft-deletes a trip
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	if err := h.tripService.DeleteTrip(c.Request.Context(), orgID, tripID, actorFromContext(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip deleted successfully", nil)
}

// GetTrip retrieves a single trip
func (h *TripHandler) GetTrip(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	trip, err := h.tripService.GetTrip(c.Request.Context(), orgID, tripID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip retrieved successfully", trip)
}

// GetOpenTrip retrieves the vehicle's currently open trip
func (h *TripHandler) GetOpenTrip(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	vehicleID, err := primitive.ObjectIDFromHex(c.Param("vehicle_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid vehicle ID")
		return
	}

	trip, err := h.tripService.GetOpenTrip(c.Request.Context(), orgID, vehicleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Open trip retrieved successfully", trip)
}

// ListVehicleTrips lists a vehicle's trips with filters and pagination
func (h *TripHandler) ListVehicleTrips(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	vehicleID, err := primitive.ObjectIDFromHex(c.Param("vehicle_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid vehicle ID")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := tripFilterFromQuery(c)

	trips, total, err := h.tripService.ListTrips(c.Request.Context(), orgID, vehicleID, filter, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}

	utils.SuccessResponseWithMeta(c, "Trips retrieved successfully", map[string]interface{}{
		"trips": trips,
	}, meta)
}

// ListDriverTrips lists a driver's trips with filters and pagination
func (h *TripHandler) ListDriverTrips(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	driverID, err := primitive.ObjectIDFromHex(c.Param("driver_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid driver ID")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := tripFilterFromQuery(c)

	trips, total, err := h.tripService.ListTripsByDriver(c.Request.Context(), orgID, driverID, filter, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}

	utils.SuccessResponseWithMeta(c, "Trips retrieved successfully", map[string]interface{}{
		"trips": trips,
	}, meta)
}

// GetTripStats aggregates trip counts and distances for a date range
func (h *TripHandler) GetTripStats(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, -1, 0)

	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		startDate = parsed
	}
	if s := c.Query("end_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		endDate = parsed
	}

	stats, err := h.tripService.GetTripStats(c.Request.Context(), orgID, startDate, endDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Trip stats retrieved successfully", stats)
}

// UploadEvidence uploads a checkpoint photo and attaches its metadata to the
// trip. The file goes to blob storage first; the trip only stores the
// reference.
func (h *TripHandler) UploadEvidence(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	checkpoint := c.PostForm("checkpoint")
	if checkpoint != "start" && checkpoint != "end" {
		utils.BadRequestResponse(c, "checkpoint must be start or end")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "file is required")
		return
	}
	if fileHeader.Size > utils.MaxPhotoSize {
		utils.BadRequestResponse(c, "file exceeds the maximum photo size")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedPhotoType(contentType) {
		utils.BadRequestResponse(c, "unsupported photo type: "+contentType)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "failed to read file")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("evidence/%s/%s/%s-%s", orgID.Hex(), tripID.Hex(), checkpoint, uuid.New().String())
	uploaded, err := h.storage.Upload(c.Request.Context(), &storage.UploadRequest{
		Key:         key,
		Reader:      file,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Metadata: map[string]string{
			"org_id":     orgID.Hex(),
			"trip_id":    tripID.Hex(),
			"checkpoint": checkpoint,
		},
	})
	if err != nil {
		h.logger.WithTripID(tripID).WithError(err).Error("Evidence upload failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to store evidence file")
		return
	}

	request := &validators.AttachEvidenceRequest{
		Checkpoint: checkpoint,
		URL:        uploaded.URL,
		Filename:   fileHeader.Filename,
		Mime:       contentType,
		Size:       fileHeader.Size,
	}

	trip, err := h.tripService.AttachEvidence(c.Request.Context(), orgID, tripID, actorFromContext(c), request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Evidence attached successfully", trip)
}

// AttachEvidenceRef attaches already-uploaded photo metadata to a checkpoint
func (h *TripHandler) AttachEvidenceRef(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var request validators.AttachEvidenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	trip, err := h.tripService.AttachEvidence(c.Request.Context(), orgID, tripID, actorFromContext(c), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Evidence attached successfully", trip)
}

// UploadAttachment uploads a general file and appends it to the trip's
// attachments list
func (h *TripHandler) UploadAttachment(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "file is required")
		return
	}
	if fileHeader.Size > utils.MaxPhotoSize {
		utils.BadRequestResponse(c, "file exceeds the maximum size")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "failed to read file")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	key := fmt.Sprintf("attachments/%s/%s/%s", orgID.Hex(), tripID.Hex(), uuid.New().String())
	uploaded, err := h.storage.Upload(c.Request.Context(), &storage.UploadRequest{
		Key:         key,
		Reader:      file,
		ContentType: contentType,
		Size:        fileHeader.Size,
	})
	if err != nil {
		h.logger.WithTripID(tripID).WithError(err).Error("Attachment upload failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to store attachment")
		return
	}

	trip, err := h.tripService.AttachFile(c.Request.Context(), orgID, tripID, actorFromContext(c), uploaded.URL, fileHeader.Filename, contentType, fileHeader.Size)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Attachment added successfully", trip)
}

// Helpers

func orgFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get("org_id")
	if !exists {
		utils.ErrorResponse(c, http.StatusBadRequest, "ORG_REQUIRED", "Organization context is required")
		return primitive.NilObjectID, false
	}
	orgID, ok := v.(primitive.ObjectID)
	if !ok {
		utils.ErrorResponse(c, http.StatusBadRequest, "ORG_REQUIRED", "Organization context is required")
		return primitive.NilObjectID, false
	}
	return orgID, true
}

func actorFromContext(c *gin.Context) primitive.ObjectID {
	if v, exists := c.Get("actor_id"); exists {
		if id, ok := v.(primitive.ObjectID); ok {
			return id
		}
	}
	return primitive.NilObjectID
}

func tripIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trip ID")
		return primitive.NilObjectID, false
	}
	return tripID, true
}

func tripFilterFromQuery(c *gin.Context) *interfaces.TripFilter {
	filter := &interfaces.TripFilter{}

	if s := c.Query("status"); s != "" {
		status := models.TripStatus(s)
		filter.Status = &status
	}
	if p := c.Query("purpose"); p != "" {
		purpose := models.TripPurpose(p)
		filter.Purpose = &purpose
	}
	filter.Tag = c.Query("tag")

	if s := c.Query("from"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filter.From = &t
		}
	}
	if s := c.Query("to"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filter.To = &t
		}
	}

	return filter
}

func allowedPhotoType(contentType string) bool {
	for _, t := range utils.AllowedPhotoTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// respondServiceError maps the engine's error kinds onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		utils.InternalServerErrorResponse(c)
		return
	}

	switch se.Kind {
	case services.ErrKindValidation:
		utils.ErrorResponseWithDetails(c, http.StatusBadRequest, se.Code, se.Message, se.Details)
	case services.ErrKindInvariant:
		utils.ErrorResponseWithDetails(c, http.StatusUnprocessableEntity, se.Code, se.Message, se.Details)
	case services.ErrKindConflict:
		utils.ErrorResponseWithDetails(c, http.StatusConflict, se.Code, se.Message, se.Details)
	case services.ErrKindNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, se.Code, se.Message)
	default:
		utils.InternalServerErrorResponse(c)
	}
}
