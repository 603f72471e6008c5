package models

import (
	"gorm.io/gorm"
)

// Vehicle is registered once by its owning driver and read-only afterwards.
type Vehicle struct {
	gorm.Model
	DriverID        uint   `json:"driverId" gorm:"not null;index"`
	Driver          *User  `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Make            string `json:"make" gorm:"not null"`
	VehicleModel    string `json:"model" gorm:"column:vehicle_model;not null"`
	Year            int    `json:"year" gorm:"not null"`
	Color           string `json:"color" gorm:"not null"`
	PlateNumber     string `json:"plateNumber" gorm:"uniqueIndex;not null"`
	SeatingCapacity int    `json:"seatingCapacity" gorm:"not null"`
	Sacco           string `json:"sacco" gorm:"not null"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// TableName specifies the table name
func (Vehicle) TableName() string {
	return "vehicles"
}
