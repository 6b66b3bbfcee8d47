package routes

import (
	"fleetops/internal/handlers"
	"fleetops/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTripRoutes sets up the trip lifecycle routes. Everything is scoped to
// the organization resolved by the org context middleware.
func SetupTripRoutes(r *gin.RouterGroup, tripHandler *handlers.TripHandler) {
	scoped := r.Group("")
	scoped.Use(middleware.OrgContextMiddleware())

	trips := scoped.Group("/trips")
	{
		trips.POST("/start", tripHandler.StartTrip)
		trips.GET("/stats", tripHandler.GetTripStats)
		trips.GET("/:id", tripHandler.GetTrip)
		trips.PATCH("/:id", tripHandler.PatchTrip)
		trips.DELETE("/:id", tripHandler.DeleteTrip)
		trips.POST("/:id/end", tripHandler.EndTrip)
		trips.POST("/:id/cancel", tripHandler.CancelTrip)
		trips.POST("/:id/evidence", tripHandler.UploadEvidence)
		trips.PUT("/:id/evidence", tripHandler.AttachEvidenceRef)
		trips.POST("/:id/attachments", tripHandler.UploadAttachment)
	}

	vehicles := scoped.Group("/vehicles")
	{
		vehicles.GET("/:vehicle_id/trips", tripHandler.ListVehicleTrips)
		vehicles.GET("/:vehicle_id/trips/open", tripHandler.GetOpenTrip)
	}

	drivers := scoped.Group("/drivers")
	{
		drivers.GET("/:driver_id/trips", tripHandler.ListDriverTrips)
	}
}
