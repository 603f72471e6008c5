package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/poolrides/carpool-backend/internal/apperrors"
	"github.com/poolrides/carpool-backend/internal/models"
	"gorm.io/gorm"
)

// ReviewService stores per-driver reviews and aggregates them into the
// trust signal shown during matching. The aggregate is recomputed from
// the rows on every read; there is no stored running total to drift.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// Submit records a rider's review of the driver for one completed ride.
// A rider may review a given ride once; the unique index on
// (ride_id, author_id) makes the duplicate check atomic with the insert.
func (s *ReviewService) Submit(ctx context.Context, authorID, driverID, rideID uint, rating int, comment string) (*models.Review, error) {
	fields := map[string]string{}
	if rating < 1 || rating > 5 {
		fields["rating"] = "rating must be between 1 and 5"
	}
	if comment == "" {
		fields["comment"] = "comment is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("invalid review", fields)
	}

	var ride models.Ride
	if err := s.db.WithContext(ctx).First(&ride, rideID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("ride", rideID)
		}
		return nil, err
	}
	if ride.RiderID != authorID {
		return nil, apperrors.Authorization("only the ride's rider can review it")
	}
	if ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, apperrors.Authorization("driver was not assigned to this ride")
	}
	if ride.Status != models.RideStatusCompleted {
		return nil, apperrors.Authorization("ride must be completed before it can be reviewed")
	}

	review := models.Review{
		AuthorID: authorID,
		DriverID: driverID,
		RideID:   rideID,
		Rating:   rating,
		Comment:  comment,
	}

	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(fmt.Sprintf("ride %d has already been reviewed by this rider", rideID))
		}
		return nil, err
	}

	// The aggregate changed; evict the cached value
	InvalidateDriverRating(ctx, driverID)

	return &review, nil
}

// AverageRating returns the exact arithmetic mean of a driver's review
// ratings, or nil when the driver has no reviews at all (no data is not
// a zero rating).
func (s *ReviewService) AverageRating(ctx context.Context, driverID uint) (*float64, error) {
	if cached, ok := GetCachedDriverRating(ctx, driverID); ok {
		return &cached, nil
	}

	var avg sql.NullFloat64
	err := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("driver_id = ?", driverID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}

	CacheDriverRating(ctx, driverID, avg.Float64)
	return &avg.Float64, nil
}

// ListForDriver returns a driver's reviews oldest first, each with its
// author resolved for display.
func (s *ReviewService) ListForDriver(ctx context.Context, driverID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).Preload("Author").
		Where("driver_id = ?", driverID).
		Order("id ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
