package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/poolrides/carpool-backend/internal/apperrors"
	"github.com/poolrides/carpool-backend/internal/models"
	"gorm.io/gorm"
)

// VehicleService owns vehicle records. Vehicles are registered once by
// their driver and read-only afterwards.
type VehicleService struct {
	db *gorm.DB
}

func NewVehicleService(db *gorm.DB) *VehicleService {
	return &VehicleService{db: db}
}

type RegisterVehicleInput struct {
	Make            string
	Model           string
	Year            int
	Color           string
	PlateNumber     string
	SeatingCapacity int
	Sacco           string
	ImageURL        string
}

// Register persists a new vehicle owned by the driver. Plate numbers are
// unique; the database index backs the check so concurrent registrations
// of the same plate cannot both succeed.
func (s *VehicleService) Register(ctx context.Context, driverID uint, input RegisterVehicleInput) (*models.Vehicle, error) {
	fields := map[string]string{}
	if input.Make == "" {
		fields["make"] = "make is required"
	}
	if input.Model == "" {
		fields["model"] = "model is required"
	}
	if input.Year == 0 {
		fields["year"] = "year is required"
	}
	if input.Color == "" {
		fields["color"] = "color is required"
	}
	if input.PlateNumber == "" {
		fields["plateNumber"] = "plate number is required"
	}
	if input.SeatingCapacity <= 0 {
		fields["seatingCapacity"] = "seating capacity must be a positive integer"
	}
	if input.Sacco == "" {
		fields["sacco"] = "sacco is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("missing or invalid vehicle attributes", fields)
	}

	var driver models.User
	if err := s.db.WithContext(ctx).First(&driver, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", driverID)
		}
		return nil, err
	}
	if !driver.IsDriver() {
		return nil, apperrors.Authorization("only drivers can register vehicles")
	}

	vehicle := models.Vehicle{
		DriverID:        driverID,
		Make:            input.Make,
		VehicleModel:    input.Model,
		Year:            input.Year,
		Color:           input.Color,
		PlateNumber:     input.PlateNumber,
		SeatingCapacity: input.SeatingCapacity,
		Sacco:           input.Sacco,
		ImageURL:        input.ImageURL,
	}

	if err := s.db.WithContext(ctx).Create(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(fmt.Sprintf("plate number %s is already registered", input.PlateNumber))
		}
		return nil, err
	}

	return &vehicle, nil
}

// List returns vehicles in registration order, optionally restricted to
// one driver.
func (s *VehicleService) List(ctx context.Context, driverID *uint) ([]models.Vehicle, error) {
	query := s.db.WithContext(ctx).Order("id ASC")
	if driverID != nil {
		query = query.Where("driver_id = ?", *driverID)
	}

	var vehicles []models.Vehicle
	if err := query.Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Get returns one vehicle with its owner embedded.
func (s *VehicleService) Get(ctx context.Context, id uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := s.db.WithContext(ctx).Preload("Driver").First(&vehicle, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("vehicle", id)
		}
		return nil, err
	}
	return &vehicle, nil
}
