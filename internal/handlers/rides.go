package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poolrides/carpool-backend/internal/models"
	"github.com/poolrides/carpool-backend/internal/services"
)

// CreateRide handles the creation of a new pending ride by a rider
func CreateRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.RoleRider) {
			c.JSON(403, gin.H{"error": "Only riders can create rides"})
			return
		}

		var input struct {
			PickupLocation  string    `json:"pickupLocation" binding:"required"`
			DropoffLocation string    `json:"dropoffLocation" binding:"required"`
			PickupTime      time.Time `json:"pickupTime" binding:"required"`
			EstimatedCost   float64   `json:"estimatedCost"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		ride, err := rides.Create(c.Request.Context(), userId, services.CreateRideInput{
			PickupLocation:  input.PickupLocation,
			DropoffLocation: input.DropoffLocation,
			PickupTime:      input.PickupTime,
			EstimatedCost:   input.EstimatedCost,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, ride)
	}
}

// ListRides retrieves rides, optionally filtered by driver and status
func ListRides(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := services.RideFilter{
			Status: c.Query("ride_status"),
		}
		if driverIDStr := c.Query("driver_id"); driverIDStr != "" {
			driverID, err := strconv.ParseUint(driverIDStr, 10, 32)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid driver ID"})
				return
			}
			id := uint(driverID)
			filter.DriverID = &id
		}

		result, err := rides.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, result)
	}
}

// GetRide retrieves one ride by id
func GetRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride ID"})
			return
		}

		ride, err := rides.Get(c.Request.Context(), uint(rideID))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, ride)
	}
}

// CancelRide handles ride cancellations by the rider or an admin
func CancelRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride ID"})
			return
		}

		ride, err := rides.Cancel(c.Request.Context(), uint(rideID), userId)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Ride cancelled successfully",
			"rideId":  ride.ID,
			"status":  ride.Status,
		})
	}
}

// AssignRide allows a driver to claim a pending ride with one of their vehicles
func AssignRide(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.RoleDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can accept rides"})
			return
		}

		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride ID"})
			return
		}

		var input struct {
			VehicleID uint `json:"vehicleId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		ride, err := bookings.Assign(c.Request.Context(), uint(rideID), userId, input.VehicleID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, ride)
	}
}

// StartRide allows the assigned driver to start a booked ride
func StartRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride ID"})
			return
		}

		ride, err := rides.Start(c.Request.Context(), uint(rideID), userId)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Ride started successfully",
			"rideId":  ride.ID,
			"status":  ride.Status,
		})
	}
}

// CompleteRide allows the assigned driver to complete an in-progress ride
func CompleteRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride ID"})
			return
		}

		ride, err := rides.Complete(c.Request.Context(), uint(rideID), userId)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Ride completed successfully",
			"rideId":  ride.ID,
			"status":  ride.Status,
		})
	}
}

// GetRideGroups presents pending rides bucketed by pickup location to
// drivers and admins choosing what to accept
func GetRideGroups(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("userRole")

		if userRole != string(models.RoleDriver) && userRole != string(models.RoleAdmin) {
			c.JSON(403, gin.H{"error": "Only drivers and admins can view ride groups"})
			return
		}

		var driverID *uint
		if driverIDStr := c.Query("driver_id"); driverIDStr != "" {
			parsed, err := strconv.ParseUint(driverIDStr, 10, 32)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid driver ID"})
				return
			}
			id := uint(parsed)
			driverID = &id
		}

		groups, err := bookings.PendingRideGroups(c.Request.Context(), driverID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, groups)
	}
}
