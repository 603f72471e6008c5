package services

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poolrides/carpool-backend/internal/apperrors"
	"github.com/poolrides/carpool-backend/internal/database"
	"github.com/poolrides/carpool-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var userSeq uint64

// newTestDB opens an isolated in-memory database per test. A single
// connection keeps SQLite's writer serialization out of the way while the
// compare-and-set semantics under test stay identical to postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	n := atomic.AddUint64(&userSeq, 1)
	user := models.User{
		Username:     fmt.Sprintf("user-%d", n),
		Email:        fmt.Sprintf("user-%d@example.com", n),
		PasswordHash: "x",
		PhoneNumber:  fmt.Sprintf("+2547%08d", n),
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create %s: %v", role, err)
	}
	return &user
}

func createVehicle(t *testing.T, db *gorm.DB, driverID uint, capacity int) *models.Vehicle {
	t.Helper()

	n := atomic.AddUint64(&userSeq, 1)
	vehicle := models.Vehicle{
		DriverID:        driverID,
		Make:            "Toyota",
		VehicleModel:    "HiAce",
		Year:            2019,
		Color:           "white",
		PlateNumber:     fmt.Sprintf("KDA %03dX", n),
		SeatingCapacity: capacity,
		Sacco:           "Metro Trans",
	}
	if err := db.Create(&vehicle).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	return &vehicle
}

func createRide(t *testing.T, db *gorm.DB, riderID uint, pickup string) *models.Ride {
	t.Helper()

	ride := models.Ride{
		RiderID:         riderID,
		PickupLocation:  pickup,
		DropoffLocation: "Estate",
		PickupTime:      time.Now().Add(time.Hour),
		EstimatedCost:   200,
		Status:          models.RideStatusPending,
	}
	if err := db.Create(&ride).Error; err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return &ride
}

func asAppError(err error, target **apperrors.Error) bool {
	return errors.As(err, target)
}
