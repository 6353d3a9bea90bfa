package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"salud-backend/backend/database"
	"salud-backend/backend/models"
	"salud-backend/backend/risk"

	"gorm.io/gorm"
)

type findriskCreateRequest struct {
	IDPaciente               string  `json:"idpaciente"`
	IDSede                   string  `json:"idsede"`
	Vereda                   string  `json:"vereda"`
	Telefono                 string  `json:"telefono"`
	ActividadFisica          string  `json:"actividad_fisica"`
	MedicamentosHipertension string  `json:"medicamentos_hipertension"`
	FrecuenciaFrutasVerduras string  `json:"frecuencia_frutas_verduras"`
	AzucarAltoDetectado      string  `json:"azucar_alto_detectado"`
	Peso                     float64 `json:"peso"`
	Talla                    float64 `json:"talla"`
	PerimetroAbdominal       float64 `json:"perimetro_abdominal"`
	AntecedentesFamiliares   string  `json:"antecedentes_familiares"`
	Conducta                 string  `json:"conducta"`
	PromotorVida             string  `json:"promotor_vida"`
}

func CreateFindriskTest(w http.ResponseWriter, r *http.Request) {
	var req findriskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	if req.IDPaciente == "" {
		respondValidation(w, map[string]string{"idpaciente": "el paciente es requerido"})
		return
	}

	var paciente models.Paciente
	if err := database.DB.First(&paciente, "id = ?", req.IDPaciente).Error; err != nil {
		respondError(w, http.StatusNotFound, "Paciente no encontrado")
		return
	}
	var sede models.Sede
	if err := database.DB.First(&sede, "id = ?", req.IDSede).Error; err != nil {
		respondError(w, http.StatusNotFound, "Sede no encontrada")
		return
	}

	input := risk.Input{
		FechaNacimiento:          paciente.FecNacimiento,
		Genero:                   paciente.Genero,
		Peso:                     req.Peso,
		Talla:                    req.Talla,
		PerimetroAbdominal:       req.PerimetroAbdominal,
		ActividadFisica:          req.ActividadFisica,
		FrecuenciaFrutasVerduras: req.FrecuenciaFrutasVerduras,
		MedicamentosHipertension: req.MedicamentosHipertension,
		AzucarAltoDetectado:      req.AzucarAltoDetectado,
		AntecedentesFamiliares:   req.AntecedentesFamiliares,
	}
	result, err := risk.ComputeScore(input, time.Now())
	if err != nil {
		var verrs risk.ValidationError
		if errors.As(err, &verrs) {
			respondValidation(w, verrs)
			return
		}
		respondError(w, http.StatusInternalServerError, "Error al calcular el puntaje")
		return
	}

	test := models.FindriskTest{
		IDPaciente:               req.IDPaciente,
		IDSede:                   req.IDSede,
		Vereda:                   req.Vereda,
		Telefono:                 req.Telefono,
		ActividadFisica:          req.ActividadFisica,
		MedicamentosHipertension: req.MedicamentosHipertension,
		FrecuenciaFrutasVerduras: req.FrecuenciaFrutasVerduras,
		AzucarAltoDetectado:      req.AzucarAltoDetectado,
		Peso:                     req.Peso,
		Talla:                    req.Talla,
		PerimetroAbdominal:       req.PerimetroAbdominal,
		AntecedentesFamiliares:   req.AntecedentesFamiliares,
		Conducta:                 req.Conducta,
		PromotorVida:             req.PromotorVida,
		IMC:                      result.IMC,
		PuntajeEdad:              result.PuntajeEdad,
		PuntajeIMC:               result.PuntajeIMC,
		PuntajePerimetro:         result.PuntajePerimetro,
		PuntajeActividadFisica:   result.PuntajeActividad,
		PuntajeFrutasVerduras:    result.PuntajeFrutas,
		PuntajeMedicamentos:      result.PuntajeMedicamentos,
		PuntajeAzucarAlto:        result.PuntajeAzucar,
		PuntajeAntecedentes:      result.PuntajeAntecedentes,
		PuntajeFinal:             result.PuntajeFinal,
	}
	if user := GetCurrentUser(r); user != nil {
		test.IDUsuario = user.ID
	}

	if err := database.DB.Create(&test).Error; err != nil {
		slog.Error("Error al crear test FINDRISK", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Error al crear el test FINDRISK")
		return
	}

	slog.Info("Test FINDRISK creado", "id", test.ID, "puntaje_final", test.PuntajeFinal)

	respondData(w, http.StatusCreated, map[string]any{
		"test":            test,
		"interpretacion":  result.Interpretacion,
		"edad_calculada":  result.Edad,
		"paciente":        paciente,
		"sede":            sede,
	})
}

func ListFindriskTests(w http.ResponseWriter, r *http.Request) {
	var tests []models.FindriskTest
	if err := database.DB.Preload("Paciente").Preload("Sede").
		Order("created_at DESC").Find(&tests).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar los tests")
		return
	}
	respondData(w, http.StatusOK, tests)
}

func GetFindriskTest(w http.ResponseWriter, r *http.Request) {
	var test models.FindriskTest
	err := database.DB.Preload("Paciente").Preload("Sede").
		First(&test, "id = ?", r.PathValue("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Test no encontrado")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar el test")
		return
	}

	payload := map[string]any{
		"test":           test,
		"interpretacion": risk.Interpretar(test.PuntajeFinal),
	}
	if test.Paciente != nil {
		payload["edad_calculada"] = risk.Edad(test.Paciente.FecNacimiento, time.Now())
		payload["paciente"] = test.Paciente
	}
	if test.Sede != nil {
		payload["sede"] = test.Sede
	}
	respondData(w, http.StatusOK, payload)
}

// findriskUpdateRequest uses pointers so only supplied fields are patched;
// each supplied field triggers only its own sub-score recompute.
type findriskUpdateRequest struct {
	IDSede                   *string  `json:"idsede"`
	Vereda                   *string  `json:"vereda"`
	Telefono                 *string  `json:"telefono"`
	ActividadFisica          *string  `json:"actividad_fisica"`
	MedicamentosHipertension *string  `json:"medicamentos_hipertension"`
	FrecuenciaFrutasVerduras *string  `json:"frecuencia_frutas_verduras"`
	AzucarAltoDetectado      *string  `json:"azucar_alto_detectado"`
	Peso                     *float64 `json:"peso"`
	Talla                    *float64 `json:"talla"`
	PerimetroAbdominal       *float64 `json:"perimetro_abdominal"`
	AntecedentesFamiliares   *string  `json:"antecedentes_familiares"`
	Conducta                 *string  `json:"conducta"`
	PromotorVida             *string  `json:"promotor_vida"`
}

func UpdateFindriskTest(w http.ResponseWriter, r *http.Request) {
	var test models.FindriskTest
	err := database.DB.Preload("Paciente").Preload("Sede").
		First(&test, "id = ?", r.PathValue("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Test no encontrado")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar el test")
		return
	}
	if test.Paciente == nil {
		respondError(w, http.StatusNotFound, "Paciente no encontrado")
		return
	}

	var req findriskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	// Patch supplied fields, then validate the merged state before any
	// sub-score recompute.
	if req.IDSede != nil {
		test.IDSede = *req.IDSede
	}
	if req.Vereda != nil {
		test.Vereda = *req.Vereda
	}
	if req.Telefono != nil {
		test.Telefono = *req.Telefono
	}
	if req.ActividadFisica != nil {
		test.ActividadFisica = *req.ActividadFisica
	}
	if req.MedicamentosHipertension != nil {
		test.MedicamentosHipertension = *req.MedicamentosHipertension
	}
	if req.FrecuenciaFrutasVerduras != nil {
		test.FrecuenciaFrutasVerduras = *req.FrecuenciaFrutasVerduras
	}
	if req.AzucarAltoDetectado != nil {
		test.AzucarAltoDetectado = *req.AzucarAltoDetectado
	}
	if req.Peso != nil {
		test.Peso = *req.Peso
	}
	if req.Talla != nil {
		test.Talla = *req.Talla
	}
	if req.PerimetroAbdominal != nil {
		test.PerimetroAbdominal = *req.PerimetroAbdominal
	}
	if req.AntecedentesFamiliares != nil {
		test.AntecedentesFamiliares = *req.AntecedentesFamiliares
	}
	if req.Conducta != nil {
		test.Conducta = *req.Conducta
	}
	if req.PromotorVida != nil {
		test.PromotorVida = *req.PromotorVida
	}

	merged := risk.Input{
		FechaNacimiento:          test.Paciente.FecNacimiento,
		Genero:                   test.Paciente.Genero,
		Peso:                     test.Peso,
		Talla:                    test.Talla,
		PerimetroAbdominal:       test.PerimetroAbdominal,
		ActividadFisica:          test.ActividadFisica,
		FrecuenciaFrutasVerduras: test.FrecuenciaFrutasVerduras,
		MedicamentosHipertension: test.MedicamentosHipertension,
		AzucarAltoDetectado:      test.AzucarAltoDetectado,
		AntecedentesFamiliares:   test.AntecedentesFamiliares,
	}
	if errs := risk.Validate(merged); errs != nil {
		respondValidation(w, errs)
		return
	}

	// Recompute only the sub-scores whose inputs changed.
	if req.Peso != nil || req.Talla != nil {
		test.IMC = risk.CalcularIMC(test.Peso, test.Talla)
		test.PuntajeIMC = risk.PuntajeIMC(test.IMC)
	}
	if req.PerimetroAbdominal != nil {
		test.PuntajePerimetro = risk.PuntajePerimetro(test.PerimetroAbdominal, test.Paciente.Genero)
	}
	if req.ActividadFisica != nil {
		test.PuntajeActividadFisica = risk.PuntajeActividad(test.ActividadFisica)
	}
	if req.FrecuenciaFrutasVerduras != nil {
		test.PuntajeFrutasVerduras = risk.PuntajeFrutas(test.FrecuenciaFrutasVerduras)
	}
	if req.MedicamentosHipertension != nil {
		test.PuntajeMedicamentos = risk.PuntajeMedicamentos(test.MedicamentosHipertension)
	}
	if req.AzucarAltoDetectado != nil {
		test.PuntajeAzucarAlto = risk.PuntajeAzucar(test.AzucarAltoDetectado)
	}
	if req.AntecedentesFamiliares != nil {
		test.PuntajeAntecedentes = risk.PuntajeAntecedentes(test.AntecedentesFamiliares)
	}

	// The total is always re-summed from all eight current components.
	test.PuntajeFinal = test.PuntajeEdad + test.PuntajeIMC + test.PuntajePerimetro +
		test.PuntajeActividadFisica + test.PuntajeFrutasVerduras +
		test.PuntajeMedicamentos + test.PuntajeAzucarAlto + test.PuntajeAntecedentes

	if err := database.DB.Save(&test).Error; err != nil {
		slog.Error("Error al actualizar test FINDRISK", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Error al actualizar el test FINDRISK")
		return
	}

	slog.Info("Test FINDRISK actualizado", "id", test.ID, "puntaje_final", test.PuntajeFinal)

	respondData(w, http.StatusOK, map[string]any{
		"test":           test,
		"interpretacion": risk.Interpretar(test.PuntajeFinal),
		"paciente":       test.Paciente,
		"sede":           test.Sede,
	})
}

func DeleteFindriskTest(w http.ResponseWriter, r *http.Request) {
	result := database.DB.Delete(&models.FindriskTest{}, "id = ?", r.PathValue("id"))
	if result.Error != nil {
		respondError(w, http.StatusInternalServerError, "Error al eliminar el test")
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Test no encontrado")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func FindriskPorPaciente(w http.ResponseWriter, r *http.Request) {
	var tests []models.FindriskTest
	err := database.DB.Preload("Paciente").Preload("Sede").
		Where("idpaciente = ?", r.PathValue("idpaciente")).
		Order("created_at DESC").Find(&tests).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar los tests")
		return
	}
	respondData(w, http.StatusOK, tests)
}

func FindriskPorSede(w http.ResponseWriter, r *http.Request) {
	var tests []models.FindriskTest
	err := database.DB.Preload("Paciente").Preload("Sede").
		Where("idsede = ?", r.PathValue("idsede")).
		Order("created_at DESC").Find(&tests).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar los tests")
		return
	}
	respondData(w, http.StatusOK, tests)
}

func countTests(userID uint, where string, args ...any) int64 {
	var n int64
	q := database.DB.Model(&models.FindriskTest{}).Where("idusuario = ?", userID)
	if where != "" {
		q = q.Where(where, args...)
	}
	q.Count(&n)
	return n
}

// FindriskEstadisticas counts the authenticated user's tests per risk tier.
// Scoping is always per user, also on the por-sede route.
func FindriskEstadisticas(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "No autenticado")
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"total_tests":                countTests(user.ID, ""),
		"riesgo_bajo":                countTests(user.ID, "puntaje_final < ?", 7),
		"riesgo_ligeramente_elevado": countTests(user.ID, "puntaje_final BETWEEN ? AND ?", 7, 11),
		"riesgo_moderado":            countTests(user.ID, "puntaje_final BETWEEN ? AND ?", 12, 14),
		"riesgo_alto":                countTests(user.ID, "puntaje_final BETWEEN ? AND ?", 15, 20),
		"riesgo_muy_alto":            countTests(user.ID, "puntaje_final > ?", 20),
		"usuario":                    map[string]any{"id": user.ID, "nombre": user.Nombre},
	})
}

func FindriskExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := database.DB.Preload("Paciente").Preload("Sede").Order("created_at DESC")
	if desde := q.Get("fecha_inicio"); desde != "" {
		if hasta := q.Get("fecha_fin"); hasta != "" {
			query = query.Where("created_at BETWEEN ? AND ?", desde+" 00:00:00", hasta+" 23:59:59")
		}
	}
	if sede := q.Get("sede_id"); sede != "" {
		query = query.Where("idsede = ?", sede)
	}
	switch q.Get("nivel_riesgo") {
	case "bajo":
		query = query.Where("puntaje_final < ?", 7)
	case "ligeramente_elevado":
		query = query.Where("puntaje_final BETWEEN ? AND ?", 7, 11)
	case "moderado":
		query = query.Where("puntaje_final BETWEEN ? AND ?", 12, 14)
	case "alto":
		query = query.Where("puntaje_final BETWEEN ? AND ?", 15, 20)
	case "muy_alto":
		query = query.Where("puntaje_final > ?", 20)
	}

	var tests []models.FindriskTest
	if err := query.Find(&tests).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Error al consultar los tests")
		return
	}

	items := make([]map[string]any, 0, len(tests))
	for _, test := range tests {
		item := map[string]any{
			"id":                         test.ID,
			"created_at":                 test.CreatedAt,
			"imc":                        test.IMC,
			"perimetro_abdominal":        test.PerimetroAbdominal,
			"actividad_fisica":           test.ActividadFisica,
			"frecuencia_frutas_verduras": test.FrecuenciaFrutasVerduras,
			"medicamentos_hipertension":  test.MedicamentosHipertension,
			"azucar_alto_detectado":      test.AzucarAltoDetectado,
			"antecedentes_familiares":    test.AntecedentesFamiliares,
			"puntaje_final":              test.PuntajeFinal,
			"promotor_vida":              test.PromotorVida,
			"interpretacion":             risk.Interpretar(test.PuntajeFinal),
		}
		if test.Paciente != nil {
			item["paciente"] = test.Paciente
			item["edad_calculada"] = risk.Edad(test.Paciente.FecNacimiento, time.Now())
		}
		if test.Sede != nil {
			item["sede"] = test.Sede
		}
		items = append(items, item)
	}
	respondData(w, http.StatusOK, items)
}
