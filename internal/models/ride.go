package models

import (
	"time"

	"gorm.io/gorm"
)

// RideStatus constants
const (
	RideStatusPending    = "pending"
	RideStatusBooked     = "booked"
	RideStatusInProgress = "in_progress"
	RideStatusCompleted  = "completed"
	RideStatusCancelled  = "cancelled"
)

// ActiveRideStatuses are the statuses in which a ride occupies its vehicle.
var ActiveRideStatuses = []string{RideStatusBooked, RideStatusInProgress}

// rideTransitions lists the legal edges of the ride lifecycle. Any
// (state, target) pair not present here must be rejected without
// touching the ride. The ride services derive their compare-and-set
// source states from this table.
var rideTransitions = map[string][]string{
	RideStatusPending:    {RideStatusBooked, RideStatusCancelled},
	RideStatusBooked:     {RideStatusInProgress, RideStatusCancelled},
	RideStatusInProgress: {RideStatusCompleted},
}

// CanTransition reports whether a ride may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range rideTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSources returns every status a ride may legally move to the
// target status from, in lifecycle order.
func TransitionSources(to string) []string {
	var from []string
	for _, status := range []string{
		RideStatusPending,
		RideStatusBooked,
		RideStatusInProgress,
		RideStatusCompleted,
		RideStatusCancelled,
	} {
		if CanTransition(status, to) {
			from = append(from, status)
		}
	}
	return from
}

// Ride represents a rider's trip request. DriverID and VehicleID stay nil
// while the ride is pending and are both set the moment it is booked.
type Ride struct {
	gorm.Model
	RiderID         uint      `json:"riderId" gorm:"not null;index"`
	Rider           *User     `json:"rider,omitempty" gorm:"foreignKey:RiderID"`
	DriverID        *uint     `json:"driverId,omitempty" gorm:"index"`
	Driver          *User     `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	VehicleID       *uint     `json:"vehicleId,omitempty" gorm:"index"`
	Vehicle         *Vehicle  `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	PickupLocation  string    `json:"pickupLocation" gorm:"not null"`
	DropoffLocation string    `json:"dropoffLocation" gorm:"not null"`
	PickupTime      time.Time `json:"pickupTime" gorm:"not null"`
	EstimatedCost   float64   `json:"estimatedCost"`
	Status          string    `json:"status" gorm:"column:ride_status;not null;default:'pending'"`
}

// TableName specifies the table name
func (Ride) TableName() string {
	return "rides"
}
