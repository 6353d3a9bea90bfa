package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FindriskTest stores one FINDRISK screening. The eight puntaje columns are
// recomputed by backend/risk; PuntajeFinal is always the sum of all eight.
type FindriskTest struct {
	ID                       string    `json:"id" gorm:"primaryKey"`
	IDPaciente               string    `json:"idpaciente" gorm:"column:idpaciente;index"`
	IDSede                   string    `json:"idsede" gorm:"column:idsede;index"`
	IDUsuario                uint      `json:"idusuario" gorm:"column:idusuario;index"`
	Vereda                   string    `json:"vereda"`
	Telefono                 string    `json:"telefono"`
	ActividadFisica          string    `json:"actividad_fisica"`
	PuntajeActividadFisica   int       `json:"puntaje_actividad_fisica"`
	MedicamentosHipertension string    `json:"medicamentos_hipertension"`
	PuntajeMedicamentos      int       `json:"puntaje_medicamentos"`
	FrecuenciaFrutasVerduras string    `json:"frecuencia_frutas_verduras"`
	PuntajeFrutasVerduras    int       `json:"puntaje_frutas_verduras"`
	AzucarAltoDetectado      string    `json:"azucar_alto_detectado"`
	PuntajeAzucarAlto        int       `json:"puntaje_azucar_alto"`
	Peso                     float64   `json:"peso"`
	Talla                    float64   `json:"talla"`
	IMC                      float64   `json:"imc" gorm:"column:imc"`
	PuntajeIMC               int       `json:"puntaje_imc" gorm:"column:puntaje_imc"`
	PerimetroAbdominal       float64   `json:"perimetro_abdominal"`
	PuntajePerimetro         int       `json:"puntaje_perimetro"`
	AntecedentesFamiliares   string    `json:"antecedentes_familiares"`
	PuntajeAntecedentes      int       `json:"puntaje_antecedentes"`
	PuntajeEdad              int       `json:"puntaje_edad"`
	PuntajeFinal             int       `json:"puntaje_final"`
	Conducta                 string    `json:"conducta"`
	PromotorVida             string    `json:"promotor_vida"`
	Paciente                 *Paciente `json:"paciente,omitempty" gorm:"foreignKey:IDPaciente"`
	Sede                     *Sede     `json:"sede,omitempty" gorm:"foreignKey:IDSede"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func (FindriskTest) TableName() string { return "findrisk_tests" }

func (f *FindriskTest) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
