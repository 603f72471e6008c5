package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/poolrides/carpool-backend/internal/models"
	"github.com/poolrides/carpool-backend/internal/services"
)

// SubmitReview allows the rider of a completed ride to review its driver
func SubmitReview(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.RoleRider) {
			c.JSON(403, gin.H{"error": "Only riders can submit reviews"})
			return
		}

		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride ID"})
			return
		}

		var input struct {
			DriverID uint   `json:"driverId" binding:"required"`
			Rating   int    `json:"rating" binding:"required"`
			Comment  string `json:"comment" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		review, err := reviews.Submit(c.Request.Context(), userId, input.DriverID, uint(rideID), input.Rating, input.Comment)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, review)
	}
}

// GetDriverReviews retrieves a driver's reviews oldest first, together
// with the aggregate rating
func GetDriverReviews(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid driver ID"})
			return
		}

		list, err := reviews.ListForDriver(c.Request.Context(), uint(driverID))
		if err != nil {
			respondError(c, err)
			return
		}

		average, err := reviews.AverageRating(c.Request.Context(), uint(driverID))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"reviews":       list,
			"averageRating": average,
		})
	}
}
