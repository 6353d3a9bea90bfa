package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"salud-backend/backend/database"
	"salud-backend/backend/models"

	"gorm.io/gorm"
)

type pacienteRequest struct {
	Identificacion *string  `json:"identificacion"`
	Nombre         *string  `json:"nombre"`
	Apellido       *string  `json:"apellido"`
	Genero         *string  `json:"genero"`
	FecNacimiento  *string  `json:"fecnacimiento"`
	Longitud       *float64 `json:"longitud"`
	Latitud        *float64 `json:"latitud"`
	IDSede         *string  `json:"idsede"`
}

func (req pacienteRequest) validate(partial bool) map[string]string {
	errs := map[string]string{}
	if !partial {
		if req.Identificacion == nil || *req.Identificacion == "" {
			errs["identificacion"] = "la identificación es requerida"
		}
		if req.Nombre == nil || *req.Nombre == "" {
			errs["nombre"] = "el nombre es requerido"
		}
		if req.FecNacimiento == nil {
			errs["fecnacimiento"] = "la fecha de nacimiento es requerida"
		}
		if req.Genero == nil {
			errs["genero"] = "el genero es requerido"
		}
	}
	if req.Genero != nil && *req.Genero != "masculino" && *req.Genero != "femenino" {
		errs["genero"] = "el genero debe ser masculino o femenino"
	}
	if req.FecNacimiento != nil {
		if _, err := time.Parse("2006-01-02", *req.FecNacimiento); err != nil {
			errs["fecnacimiento"] = "la fecha debe tener formato YYYY-MM-DD"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (req pacienteRequest) applyTo(p *models.Paciente) {
	if req.Identificacion != nil {
		p.Identificacion = *req.Identificacion
	}
	if req.Nombre != nil {
		p.Nombre = *req.Nombre
	}
	if req.Apellido != nil {
		p.Apellido = *req.Apellido
	}
	if req.Genero != nil {
		p.Genero = *req.Genero
	}
	if req.FecNacimiento != nil {
		if t, err := time.Parse("2006-01-02", *req.FecNacimiento); err == nil {
			p.FecNacimiento = t
		}
	}
	if req.Longitud != nil {
		p.Longitud = req.Longitud
	}
	if req.Latitud != nil {
		p.Latitud = req.Latitud
	}
	if req.IDSede != nil {
		p.IDSede = *req.IDSede
	}
}

func ListPacientes(w http.ResponseWriter, r *http.Request) {
	var pacientes []models.Paciente
	if err := database.DB.Preload("Sede").Order("created_at DESC").Find(&pacientes).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar pacientes")
		return
	}
	respondData(w, http.StatusOK, pacientes)
}

func CreatePaciente(w http.ResponseWriter, r *http.Request) {
	var req pacienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	if errs := req.validate(false); errs != nil {
		respondValidation(w, errs)
		return
	}

	var paciente models.Paciente
	req.applyTo(&paciente)
	if err := database.DB.Create(&paciente).Error; err != nil {
		slog.Error("Error al crear paciente", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Error al crear el paciente")
		return
	}

	slog.Info("Paciente creado", "id", paciente.ID, "identificacion", paciente.Identificacion)
	respondData(w, http.StatusCreated, paciente)
}

func GetPaciente(w http.ResponseWriter, r *http.Request) {
	var paciente models.Paciente
	err := database.DB.Preload("Sede").First(&paciente, "id = ?", r.PathValue("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Paciente no encontrado")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar el paciente")
		return
	}
	respondData(w, http.StatusOK, paciente)
}

func UpdatePaciente(w http.ResponseWriter, r *http.Request) {
	var paciente models.Paciente
	err := database.DB.First(&paciente, "id = ?", r.PathValue("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Paciente no encontrado")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar el paciente")
		return
	}

	var req pacienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	if errs := req.validate(true); errs != nil {
		respondValidation(w, errs)
		return
	}

	req.applyTo(&paciente)
	if err := database.DB.Save(&paciente).Error; err != nil {
		slog.Error("Error al actualizar paciente", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Error al actualizar el paciente")
		return
	}

	slog.Info("Paciente actualizado", "id", paciente.ID)
	respondData(w, http.StatusOK, paciente)
}

func DeletePaciente(w http.ResponseWriter, r *http.Request) {
	result := database.DB.Delete(&models.Paciente{}, "id = ?", r.PathValue("id"))
	if result.Error != nil {
		respondError(w, http.StatusInternalServerError, "Error al eliminar el paciente")
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Paciente no encontrado")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func BuscarPaciente(w http.ResponseWriter, r *http.Request) {
	var paciente models.Paciente
	err := database.DB.Preload("Sede").
		Where("identificacion = ?", r.PathValue("identificacion")).
		First(&paciente).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Paciente no encontrado")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar el paciente")
		return
	}
	respondData(w, http.StatusOK, map[string]any{"paciente": paciente, "sede": paciente.Sede})
}

type coordenadasRequest struct {
	Longitud *float64 `json:"longitud"`
	Latitud  *float64 `json:"latitud"`
}

func UpdateCoordenadas(w http.ResponseWriter, r *http.Request) {
	var paciente models.Paciente
	err := database.DB.First(&paciente, "id = ?", r.PathValue("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Paciente no encontrado")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar el paciente")
		return
	}

	var req coordenadasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	if req.Longitud == nil || req.Latitud == nil {
		respondValidation(w, map[string]string{"coordenadas": "longitud y latitud son requeridas"})
		return
	}

	paciente.Longitud = req.Longitud
	paciente.Latitud = req.Latitud
	if err := database.DB.Save(&paciente).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Error al actualizar coordenadas")
		return
	}

	slog.Info("Coordenadas del paciente actualizadas", "paciente_id", paciente.ID)
	respondData(w, http.StatusOK, paciente)
}
