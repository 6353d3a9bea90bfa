package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Sede struct {
	ID         string `json:"id" gorm:"primaryKey"`
	NombreSede string `json:"nombresede" gorm:"column:nombresede"`
	Direccion  string `json:"direccion"`
}

func (Sede) TableName() string { return "sedes" }

func (s *Sede) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
