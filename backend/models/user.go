package models

type Usuario struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Nombre   string `json:"nombre"`
	Email    string `json:"email" gorm:"uniqueIndex"`
	Password string `json:"-"`
	Rol      string `json:"rol"`
	IDSede   string `json:"idsede" gorm:"column:idsede"`
}

func (Usuario) TableName() string { return "usuarios" }
