package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/poolrides/carpool-backend/internal/apperrors"
	"github.com/poolrides/carpool-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingService matches pending rides to drivers and vehicles. Grouping
// is a read-only projection for presentation; Assign is the one atomic
// pending→booked transition in the system.
type BookingService struct {
	db  *gorm.DB
	hub *Hub

	// MaxActiveRidesPerVehicle caps how many booked/in_progress rides a
	// vehicle may carry at once. Zero means unlimited (a pooling vehicle
	// may serve several riders).
	MaxActiveRidesPerVehicle int
}

func NewBookingService(db *gorm.DB, hub *Hub) *BookingService {
	return &BookingService{db: db, hub: hub, MaxActiveRidesPerVehicle: 1}
}

// VehicleGroup is a capacity bucket of vehicles, insertion order preserved.
type VehicleGroup struct {
	SeatingCapacity int              `json:"seatingCapacity"`
	Vehicles        []models.Vehicle `json:"vehicles"`
}

// RideGroup is a pickup-location bucket of pending rides.
type RideGroup struct {
	PickupLocation string        `json:"pickupLocation"`
	Rides          []models.Ride `json:"rides"`
}

// VehicleGroups buckets all vehicles by seating capacity. Buckets appear
// in order of their first member; members keep registration order.
func (s *BookingService) VehicleGroups(ctx context.Context) ([]VehicleGroup, error) {
	var vehicles []models.Vehicle
	if err := s.db.WithContext(ctx).Preload("Driver").Order("id ASC").Find(&vehicles).Error; err != nil {
		return nil, err
	}

	index := make(map[int]int)
	groups := make([]VehicleGroup, 0)
	for _, v := range vehicles {
		i, ok := index[v.SeatingCapacity]
		if !ok {
			i = len(groups)
			index[v.SeatingCapacity] = i
			groups = append(groups, VehicleGroup{SeatingCapacity: v.SeatingCapacity})
		}
		groups[i].Vehicles = append(groups[i].Vehicles, v)
	}
	return groups, nil
}

// PendingRideGroups buckets pending rides by their exact pickup-location
// string. When driverID is set, only rides already pre-associated with
// that driver are considered (a rider's chosen vehicle narrows candidates
// to one driver's queue).
func (s *BookingService) PendingRideGroups(ctx context.Context, driverID *uint) ([]RideGroup, error) {
	query := s.db.WithContext(ctx).Preload("Rider").
		Where("ride_status = ?", models.RideStatusPending).
		Order("id ASC")
	if driverID != nil {
		query = query.Where("driver_id = ?", *driverID)
	}

	var rides []models.Ride
	if err := query.Find(&rides).Error; err != nil {
		return nil, err
	}

	index := make(map[string]int)
	groups := make([]RideGroup, 0)
	for _, r := range rides {
		i, ok := index[r.PickupLocation]
		if !ok {
			i = len(groups)
			index[r.PickupLocation] = i
			groups = append(groups, RideGroup{PickupLocation: r.PickupLocation})
		}
		groups[i].Rides = append(groups[i].Rides, r)
	}
	return groups, nil
}

// Assign binds one driver and vehicle to a pending ride. The booking is a
// single compare-and-set: the UPDATE only matches while the ride is still
// pending, so of any number of concurrent claims exactly one wins and the
// rest observe a conflict. Partial application is impossible because
// status, driver and vehicle change in the same statement.
func (s *BookingService) Assign(ctx context.Context, rideID, driverID, vehicleID uint) (*models.Ride, error) {
	var driver models.User
	if err := s.db.WithContext(ctx).First(&driver, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", driverID)
		}
		return nil, err
	}
	if !driver.IsDriver() {
		return nil, apperrors.Authorization("only drivers can accept rides")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the vehicle row so the active-ride cap is checked
		// serially per vehicle.
		var vehicle models.Vehicle
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&vehicle, vehicleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("vehicle", vehicleID)
			}
			return err
		}
		if vehicle.DriverID != driverID {
			return apperrors.Authorization("vehicle does not belong to this driver")
		}

		if s.MaxActiveRidesPerVehicle > 0 {
			var active int64
			err := tx.Model(&models.Ride{}).
				Where("vehicle_id = ? AND ride_status IN ?", vehicleID, models.ActiveRideStatuses).
				Count(&active).Error
			if err != nil {
				return err
			}
			if active >= int64(s.MaxActiveRidesPerVehicle) {
				return apperrors.Conflict(fmt.Sprintf("vehicle %d is already on an active ride", vehicleID))
			}
		}

		result := tx.Model(&models.Ride{}).
			Where("id = ? AND ride_status = ?", rideID, models.RideStatusPending).
			Updates(map[string]interface{}{
				"ride_status": models.RideStatusBooked,
				"driver_id":   driverID,
				"vehicle_id":  vehicleID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var ride models.Ride
			if err := tx.First(&ride, rideID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("ride", rideID)
				}
				return err
			}
			return apperrors.Conflict(fmt.Sprintf("ride %d is no longer pending (status %s)", rideID, ride.Status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var ride models.Ride
	if err := s.db.WithContext(ctx).
		Preload("Rider").Preload("Driver").Preload("Vehicle").
		First(&ride, rideID).Error; err != nil {
		return nil, err
	}

	event := RideEvent{RideID: ride.ID, Status: ride.Status, DriverID: ride.DriverID}
	if s.hub != nil {
		s.hub.SendRideEvent(ride.RiderID, "ride_booked", event)
		s.hub.SendRideEvent(driverID, "ride_booked", event)
	}
	PublishRideUpdate(ctx, ride.ID, ride.Status, map[string]interface{}{
		"driverId":  driverID,
		"vehicleId": vehicleID,
	})

	return &ride, nil
}
