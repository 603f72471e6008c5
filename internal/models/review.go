package models

import (
	"gorm.io/gorm"
)

// Review is a rider's rating of a driver for one completed ride. A rider
// may review a given ride at most once; the composite unique index backs
// that guarantee.
type Review struct {
	gorm.Model
	AuthorID uint   `json:"authorId" gorm:"not null;uniqueIndex:idx_reviews_ride_author"`
	Author   *User  `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	DriverID uint   `json:"driverId" gorm:"not null;index"`
	Driver   *User  `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	RideID   uint   `json:"rideId" gorm:"not null;uniqueIndex:idx_reviews_ride_author"`
	Rating   int    `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment  string `json:"comment" gorm:"not null"`
}

// TableName specifies the table name
func (Review) TableName() string {
	return "reviews"
}
