package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/poolrides/carpool-backend/internal/models"
	"github.com/poolrides/carpool-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// RegisterVehicle handles vehicle registration by a driver. Accepts JSON
// or multipart form data with an optional vehicle image.
func RegisterVehicle(vehicles *services.VehicleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.RoleDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can register vehicles"})
			return
		}

		var input struct {
			Make            string `json:"make" form:"make"`
			Model           string `json:"model" form:"model"`
			Year            int    `json:"year" form:"year"`
			Color           string `json:"color" form:"color"`
			PlateNumber     string `json:"plateNumber" form:"plateNumber"`
			SeatingCapacity int    `json:"seatingCapacity" form:"seatingCapacity"`
			Sacco           string `json:"sacco" form:"sacco"`
		}

		if err := c.ShouldBind(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var imageURL string
		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			if file, err := c.FormFile("image"); err == nil {
				url, err := services.UploadImage(file, "vehicles")
				if err != nil {
					logrus.Errorf("Vehicle image upload failed: %v", err)
					c.JSON(500, gin.H{"error": "Failed to upload vehicle image"})
					return
				}
				imageURL = url
			}
		}

		vehicle, err := vehicles.Register(c.Request.Context(), userId, services.RegisterVehicleInput{
			Make:            input.Make,
			Model:           input.Model,
			Year:            input.Year,
			Color:           input.Color,
			PlateNumber:     input.PlateNumber,
			SeatingCapacity: input.SeatingCapacity,
			Sacco:           input.Sacco,
			ImageURL:        imageURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, vehicle)
	}
}

// ListVehicles retrieves vehicles, optionally restricted to one driver
func ListVehicles(vehicles *services.VehicleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var driverID *uint
		if userIDStr := c.Query("user_id"); userIDStr != "" {
			parsed, err := strconv.ParseUint(userIDStr, 10, 32)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid user ID"})
				return
			}
			id := uint(parsed)
			driverID = &id
		}

		result, err := vehicles.List(c.Request.Context(), driverID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, result)
	}
}

// GetVehicle retrieves one vehicle with its owner embedded
func GetVehicle(vehicles *services.VehicleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid vehicle ID"})
			return
		}

		vehicle, err := vehicles.Get(c.Request.Context(), uint(vehicleID))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, vehicle)
	}
}

// GetVehicleGroups presents vehicles bucketed by seating capacity
func GetVehicleGroups(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := bookings.VehicleGroups(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, groups)
	}
}
