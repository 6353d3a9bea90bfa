package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Paciente struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	Identificacion string    `json:"identificacion" gorm:"uniqueIndex"`
	Nombre         string    `json:"nombre"`
	Apellido       string    `json:"apellido"`
	Genero         string    `json:"genero"`
	FecNacimiento  time.Time `json:"fecnacimiento" gorm:"column:fecnacimiento"`
	Longitud       *float64  `json:"longitud"`
	Latitud        *float64  `json:"latitud"`
	IDSede         string    `json:"idsede" gorm:"column:idsede"`
	Sede           *Sede     `json:"sede,omitempty" gorm:"foreignKey:IDSede"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Paciente) TableName() string { return "pacientes" }

func (p *Paciente) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
