package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
)

// Agency is a local sales territory/organization. Its name is the join key
// used for external matching; uniqueness is deliberately NOT enforced, so
// ambiguous matches are possible and tolerated downstream.
type Agency struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name" binding:"required"`
	Town      string    `gorm:"size:100" json:"town"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAgency struct {
	Name string `json:"name" binding:"required"`
	Town string `json:"town"`
}

func CreateAgency(ctx context.Context, input *NewAgency) (*Agency, error) {
	db := config.GetDB().WithContext(ctx)

	agency := Agency{
		Name: input.Name,
		Town: input.Town,
	}
	if err := db.Create(&agency).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

func ListAgencies(ctx context.Context, name string) ([]Agency, error) {
	db := config.GetDB().WithContext(ctx)

	var agencies []Agency
	query := db.Model(&Agency{}).Order("name ASC")
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if err := query.Find(&agencies).Error; err != nil {
		return nil, err
	}
	return agencies, nil
}
