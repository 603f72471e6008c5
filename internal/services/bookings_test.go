package services

import (
	"context"
	"sync"
	"testing"

	"github.com/poolrides/carpool-backend/internal/apperrors"
	"github.com/poolrides/carpool-backend/internal/models"
)

func TestVehicleGroupsBucketsByCapacity(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookingService(db, nil)
	driver := createUser(t, db, models.RoleDriver)

	v1 := createVehicle(t, db, driver.ID, 4)
	v2 := createVehicle(t, db, driver.ID, 4)
	v3 := createVehicle(t, db, driver.ID, 7)

	groups, err := svc.VehicleGroups(context.Background())
	if err != nil {
		t.Fatalf("vehicle groups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].SeatingCapacity != 4 || groups[1].SeatingCapacity != 7 {
		t.Errorf("bucket order = [%d %d], want [4 7]", groups[0].SeatingCapacity, groups[1].SeatingCapacity)
	}
	if len(groups[0].Vehicles) != 2 || groups[0].Vehicles[0].ID != v1.ID || groups[0].Vehicles[1].ID != v2.ID {
		t.Errorf("capacity-4 bucket lost insertion order: %v", vehicleIDs(groups[0].Vehicles))
	}
	if len(groups[1].Vehicles) != 1 || groups[1].Vehicles[0].ID != v3.ID {
		t.Errorf("capacity-7 bucket = %v, want [%d]", vehicleIDs(groups[1].Vehicles), v3.ID)
	}
}

func TestPendingRideGroupsByPickup(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookingService(db, nil)
	rider := createUser(t, db, models.RoleRider)
	driver := createUser(t, db, models.RoleDriver)
	vehicle := createVehicle(t, db, driver.ID, 4)

	r1 := createRide(t, db, rider.ID, "Town")
	r2 := createRide(t, db, rider.ID, "Market")
	r3 := createRide(t, db, rider.ID, "Town")
	booked := createRide(t, db, rider.ID, "Town")
	if _, err := svc.Assign(context.Background(), booked.ID, driver.ID, vehicle.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	groups, err := svc.PendingRideGroups(context.Background(), nil)
	if err != nil {
		t.Fatalf("pending ride groups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2 (booked ride must not appear)", len(groups))
	}
	if groups[0].PickupLocation != "Town" || groups[1].PickupLocation != "Market" {
		t.Errorf("bucket order = [%s %s], want [Town Market]", groups[0].PickupLocation, groups[1].PickupLocation)
	}
	if len(groups[0].Rides) != 2 || groups[0].Rides[0].ID != r1.ID || groups[0].Rides[1].ID != r3.ID {
		t.Errorf("Town bucket lost insertion order")
	}
	if len(groups[1].Rides) != 1 || groups[1].Rides[0].ID != r2.ID {
		t.Errorf("Market bucket wrong")
	}
}

func TestPendingRideGroupsDriverScoped(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookingService(db, nil)
	rider := createUser(t, db, models.RoleRider)
	driver := createUser(t, db, models.RoleDriver)

	createRide(t, db, rider.ID, "Town")
	pre := createRide(t, db, rider.ID, "Town")
	// Rider picked this driver's vehicle up front; the ride is pre-bound
	// to the driver's queue but still pending
	db.Model(&models.Ride{}).Where("id = ?", pre.ID).Update("driver_id", driver.ID)

	groups, err := svc.PendingRideGroups(context.Background(), &driver.ID)
	if err != nil {
		t.Fatalf("driver-scoped groups: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Rides) != 1 || groups[0].Rides[0].ID != pre.ID {
		t.Fatalf("driver-scoped groups should contain only the pre-associated pending ride")
	}
}

func TestAssignBooksPendingRide(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookingService(db, nil)
	rider := createUser(t, db, models.RoleRider)
	driver := createUser(t, db, models.RoleDriver)
	vehicle := createVehicle(t, db, driver.ID, 4)
	ride := createRide(t, db, rider.ID, "Town")

	booked, err := svc.Assign(context.Background(), ride.ID, driver.ID, vehicle.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if booked.Status != models.RideStatusBooked {
		t.Errorf("status = %q, want booked", booked.Status)
	}
	if booked.DriverID == nil || *booked.DriverID != driver.ID {
		t.Error("driver not bound")
	}
	if booked.VehicleID == nil || *booked.VehicleID != vehicle.ID {
		t.Error("vehicle not bound")
	}
}

func TestAssignErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookingService(db, nil)
	rider := createUser(t, db, models.RoleRider)
	driver := createUser(t, db, models.RoleDriver)
	otherDriver := createUser(t, db, models.RoleDriver)
	vehicle := createVehicle(t, db, driver.ID, 4)
	ride := createRide(t, db, rider.ID, "Town")

	t.Run("missing ride", func(t *testing.T) {
		_, err := svc.Assign(context.Background(), 9999, driver.ID, vehicle.ID)
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			t.Fatalf("err = %v, want not found", err)
		}
	})

	t.Run("missing vehicle", func(t *testing.T) {
		_, err := svc.Assign(context.Background(), ride.ID, driver.ID, 9999)
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			t.Fatalf("err = %v, want not found", err)
		}
	})

	t.Run("vehicle owned by someone else", func(t *testing.T) {
		_, err := svc.Assign(context.Background(), ride.ID, otherDriver.ID, vehicle.ID)
		if apperrors.KindOf(err) != apperrors.KindAuthorization {
			t.Fatalf("err = %v, want authorization error", err)
		}
	})

	t.Run("caller is not a driver", func(t *testing.T) {
		_, err := svc.Assign(context.Background(), ride.ID, rider.ID, vehicle.ID)
		if apperrors.KindOf(err) != apperrors.KindAuthorization {
			t.Fatalf("err = %v, want authorization error", err)
		}
	})

	t.Run("cancelled ride", func(t *testing.T) {
		rides := NewRideService(db, nil)
		cancelled := createRide(t, db, rider.ID, "Town")
		if _, err := rides.Cancel(context.Background(), cancelled.ID, rider.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		_, err := svc.Assign(context.Background(), cancelled.ID, driver.ID, vehicle.ID)
		if apperrors.KindOf(err) != apperrors.KindConflict {
			t.Fatalf("err = %v, want conflict", err)
		}
	})
}

func TestAssignVehicleAlreadyActive(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookingService(db, nil)
	rider := createUser(t, db, models.RoleRider)
	driver := createUser(t, db, models.RoleDriver)
	vehicle := createVehicle(t, db, driver.ID, 4)

	first := createRide(t, db, rider.ID, "Town")
	second := createRide(t, db, rider.ID, "Town")

	if _, err := svc.Assign(context.Background(), first.ID, driver.ID, vehicle.ID); err != nil {
		t.Fatalf("first assign: %v", err)
	}

	_, err := svc.Assign(context.Background(), second.ID, driver.ID, vehicle.ID)
	if apperrors.KindOf(err) != apperrors.KindConflict {
		t.Fatalf("err = %v, want conflict while vehicle is busy", err)
	}

	// With the cap lifted the same vehicle may pool several riders
	svc.MaxActiveRidesPerVehicle = 0
	if _, err := svc.Assign(context.Background(), second.ID, driver.ID, vehicle.ID); err != nil {
		t.Fatalf("uncapped assign: %v", err)
	}
}

func TestConcurrentAssignSingleWinner(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookingService(db, nil)
	rider := createUser(t, db, models.RoleRider)
	ride := createRide(t, db, rider.ID, "Town")

	const contenders = 8
	drivers := make([]*models.User, contenders)
	vehicles := make([]*models.Vehicle, contenders)
	for i := range drivers {
		drivers[i] = createUser(t, db, models.RoleDriver)
		vehicles[i] = createVehicle(t, db, drivers[i].ID, 4)
	}

	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Assign(context.Background(), ride.ID, drivers[i].ID, vehicles[i].ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	winner := -1
	for i, err := range results {
		switch {
		case err == nil:
			winners++
			winner = i
		case apperrors.KindOf(err) == apperrors.KindConflict:
		default:
			t.Errorf("contender %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	var final models.Ride
	if err := db.First(&final, ride.ID).Error; err != nil {
		t.Fatalf("reload ride: %v", err)
	}
	if final.Status != models.RideStatusBooked {
		t.Errorf("final status = %q, want booked", final.Status)
	}
	if final.DriverID == nil || *final.DriverID != drivers[winner].ID {
		t.Error("final driver does not match the winning contender")
	}
	if final.VehicleID == nil || *final.VehicleID != vehicles[winner].ID {
		t.Error("final vehicle does not match the winning contender")
	}
}

func TestAssignAfterCancelConflicts(t *testing.T) {
	db := newTestDB(t)
	bookings := NewBookingService(db, nil)
	rides := NewRideService(db, nil)
	rider := createUser(t, db, models.RoleRider)
	driver := createUser(t, db, models.RoleDriver)
	vehicle := createVehicle(t, db, driver.ID, 4)
	ride := createRide(t, db, rider.ID, "Town")

	if _, err := rides.Cancel(context.Background(), ride.ID, rider.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := bookings.Assign(context.Background(), ride.ID, driver.ID, vehicle.ID)
	if apperrors.KindOf(err) != apperrors.KindConflict {
		t.Fatalf("assign after cancel err = %v, want conflict", err)
	}

	var final models.Ride
	db.First(&final, ride.ID)
	if final.Status != models.RideStatusCancelled || final.DriverID != nil || final.VehicleID != nil {
		t.Error("cancelled ride must stay cancelled and unbound")
	}
}
