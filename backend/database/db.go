package database

import (
	"salud-backend/backend/config"
	"salud-backend/backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() error {
	var err error
	DB, err = gorm.Open(sqlite.Open(config.C.DatabasePath), &gorm.Config{})
	if err != nil {
		return err
	}
	return DB.AutoMigrate(&models.Usuario{}, &models.Sede{}, &models.Paciente{}, &models.FindriskTest{})
}
