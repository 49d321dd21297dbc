package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a marketplace listing. It becomes publicly visible once
// Accepted is set by a moderator; Promoted listings sort ahead of the rest.
type Warehouse struct {
	Base
	OwnerID       uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	Title         string    `gorm:"not null" json:"title"`
	Location      string    `gorm:"not null" json:"location"` // free text, not geocoded
	Description   string    `gorm:"not null" json:"description"`
	AvailableFrom time.Time `json:"available_from"`

	// Amenity flags. Nullable: the form may leave them unset.
	SocialFacilities *bool `json:"social_facilities,omitempty"`
	ParkingTruck     *bool `json:"parking_truck,omitempty"`
	ParkingCars      *bool `json:"parking_cars,omitempty"`
	Media            *bool `json:"media,omitempty"`
	Heating          *bool `json:"heating,omitempty"`
	Flooring         *bool `json:"flooring,omitempty"`

	Images StringArray `gorm:"type:text" json:"images"`

	Accepted bool `gorm:"default:false;index" json:"accepted"`
	Promoted bool `gorm:"default:false" json:"promoted"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Warehouse) TableName() string {
	return "warehouses"
}

// Coworking is a read-only companion listing set shown on a separate page.
type Coworking struct {
	Base
	Title       string      `json:"title"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Images      StringArray `gorm:"type:text" json:"images"`
}

func (Coworking) TableName() string {
	return "coworking"
}
