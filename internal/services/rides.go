package services

import (
	"context"
	"errors"
	"time"

	"github.com/poolrides/carpool-backend/internal/apperrors"
	"github.com/poolrides/carpool-backend/internal/models"
	"github.com/poolrides/carpool-backend/pkg/utils"
	"gorm.io/gorm"
)

// RideService owns ride records and guards every lifecycle transition.
// All status changes go through a compare-and-set on the current status,
// so concurrent writers cannot corrupt a ride.
type RideService struct {
	db  *gorm.DB
	hub *Hub
}

func NewRideService(db *gorm.DB, hub *Hub) *RideService {
	return &RideService{db: db, hub: hub}
}

type CreateRideInput struct {
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	EstimatedCost   float64
}

// Create registers a new pending ride for the rider.
func (s *RideService) Create(ctx context.Context, riderID uint, input CreateRideInput) (*models.Ride, error) {
	fields := map[string]string{}
	if input.PickupLocation == "" {
		fields["pickupLocation"] = "pickup location is required"
	}
	if input.DropoffLocation == "" {
		fields["dropoffLocation"] = "dropoff location is required"
	}
	if input.PickupTime.IsZero() {
		fields["pickupTime"] = "pickup time is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("missing required ride fields", fields)
	}

	var rider models.User
	if err := s.db.WithContext(ctx).First(&rider, riderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", riderID)
		}
		return nil, err
	}

	cost := input.EstimatedCost
	if cost <= 0 {
		cost = utils.EstimateFare(input.PickupLocation, input.DropoffLocation)
	}

	ride := models.Ride{
		RiderID:         riderID,
		PickupLocation:  input.PickupLocation,
		DropoffLocation: input.DropoffLocation,
		PickupTime:      input.PickupTime,
		EstimatedCost:   cost,
		Status:          models.RideStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&ride).Error; err != nil {
		return nil, err
	}

	// Let connected drivers know a new ride is waiting for a match
	if s.hub != nil {
		s.hub.AnnounceRideEvent(string(models.RoleDriver), "ride_requested", RideEvent{
			RideID: ride.ID,
			Status: ride.Status,
		})
	}
	PublishRideUpdate(ctx, ride.ID, ride.Status, map[string]interface{}{
		"pickupLocation": ride.PickupLocation,
	})

	return &ride, nil
}

// Get returns one ride with its rider, driver and vehicle resolved.
func (s *RideService) Get(ctx context.Context, id uint) (*models.Ride, error) {
	var ride models.Ride
	err := s.db.WithContext(ctx).
		Preload("Rider").Preload("Driver").Preload("Vehicle").
		First(&ride, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("ride", id)
		}
		return nil, err
	}
	return &ride, nil
}

type RideFilter struct {
	DriverID *uint
	RiderID  *uint
	Status   string
}

// List returns rides in creation order, optionally narrowed by driver,
// rider or status.
func (s *RideService) List(ctx context.Context, filter RideFilter) ([]models.Ride, error) {
	query := s.db.WithContext(ctx).Preload("Rider").Preload("Driver").Order("id ASC")
	if filter.DriverID != nil {
		query = query.Where("driver_id = ?", *filter.DriverID)
	}
	if filter.RiderID != nil {
		query = query.Where("rider_id = ?", *filter.RiderID)
	}
	if filter.Status != "" {
		query = query.Where("ride_status = ?", filter.Status)
	}

	var rides []models.Ride
	if err := query.Find(&rides).Error; err != nil {
		return nil, err
	}
	return rides, nil
}

// Cancel moves a pending or booked ride to cancelled. Only the ride's
// rider or an admin may cancel.
func (s *RideService) Cancel(ctx context.Context, rideID, byUserID uint) (*models.Ride, error) {
	ride, err := s.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}

	var caller models.User
	if err := s.db.WithContext(ctx).First(&caller, byUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", byUserID)
		}
		return nil, err
	}
	if ride.RiderID != byUserID && caller.Role != models.RoleAdmin {
		return nil, apperrors.Authorization("only the ride's rider or an admin can cancel it")
	}

	updated, err := s.transition(ctx, rideID, models.RideStatusCancelled)
	if err != nil {
		return nil, err
	}

	s.notifyParties(ctx, updated, "ride_cancelled")
	return updated, nil
}

// Start moves a booked ride to in_progress. Only the assigned driver may
// start the trip.
func (s *RideService) Start(ctx context.Context, rideID, driverID uint) (*models.Ride, error) {
	ride, err := s.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, apperrors.Authorization("only the assigned driver can start this ride")
	}

	updated, err := s.transition(ctx, rideID, models.RideStatusInProgress)
	if err != nil {
		return nil, err
	}

	s.notifyParties(ctx, updated, "ride_started")
	return updated, nil
}

// Complete moves an in_progress ride to completed, which unlocks review
// submission for the ride's driver.
func (s *RideService) Complete(ctx context.Context, rideID, driverID uint) (*models.Ride, error) {
	ride, err := s.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, apperrors.Authorization("only the assigned driver can complete this ride")
	}

	updated, err := s.transition(ctx, rideID, models.RideStatusCompleted)
	if err != nil {
		return nil, err
	}

	s.notifyParties(ctx, updated, "ride_completed")
	return updated, nil
}

// transition performs the atomic status compare-and-set. The legal source
// states come from the lifecycle edge table, and the UPDATE only matches
// while the ride still sits in one of them, so a losing writer observes
// zero affected rows and the ride is left untouched.
func (s *RideService) transition(ctx context.Context, rideID uint, to string) (*models.Ride, error) {
	result := s.db.WithContext(ctx).Model(&models.Ride{}).
		Where("id = ? AND ride_status IN ?", rideID, models.TransitionSources(to)).
		Update("ride_status", to)
	if result.Error != nil {
		return nil, result.Error
	}

	ride, err := s.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.InvalidTransition(ride.Status, to)
	}
	return ride, nil
}

func (s *RideService) notifyParties(ctx context.Context, ride *models.Ride, eventType string) {
	event := RideEvent{RideID: ride.ID, Status: ride.Status, DriverID: ride.DriverID}
	if s.hub != nil {
		s.hub.SendRideEvent(ride.RiderID, eventType, event)
		if ride.DriverID != nil {
			s.hub.SendRideEvent(*ride.DriverID, eventType, event)
		}
	}
	PublishRideUpdate(ctx, ride.ID, ride.Status, nil)
}
