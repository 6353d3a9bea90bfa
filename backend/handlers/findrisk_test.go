package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salud-backend/backend/database"
	"salud-backend/backend/models"
	"salud-backend/backend/risk"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	var err error
	database.DB, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	database.DB.AutoMigrate(&models.Usuario{}, &models.Sede{}, &models.Paciente{}, &models.FindriskTest{})
}

func mockUser(t *testing.T, u *models.Usuario) {
	t.Helper()
	old := GetCurrentUser
	GetCurrentUser = func(r *http.Request) *models.Usuario { return u }
	t.Cleanup(func() { GetCurrentUser = old })
}

func seedPaciente(t *testing.T, genero string) (models.Sede, models.Paciente) {
	t.Helper()
	sede := models.Sede{NombreSede: "Sede Central", Direccion: "Calle 1"}
	if err := database.DB.Create(&sede).Error; err != nil {
		t.Fatal(err)
	}
	paciente := models.Paciente{
		Identificacion: "10203040",
		Nombre:         "Ana",
		Apellido:       "Rojas",
		Genero:         genero,
		FecNacimiento:  time.Date(1978, 1, 1, 0, 0, 0, 0, time.Local),
		IDSede:         sede.ID,
	}
	if err := database.DB.Create(&paciente).Error; err != nil {
		t.Fatal(err)
	}
	return sede, paciente
}

func findriskBody(paciente models.Paciente, sede models.Sede) map[string]any {
	return map[string]any{
		"idpaciente":                 paciente.ID,
		"idsede":                     sede.ID,
		"actividad_fisica":           "no",
		"medicamentos_hipertension":  "no",
		"frecuencia_frutas_verduras": "no_diariamente",
		"azucar_alto_detectado":      "no",
		"peso":                       70,
		"talla":                      175,
		"perimetro_abdominal":        90,
		"antecedentes_familiares":    "no",
		"conducta":                   "control anual",
	}
}

func postJSON(handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", target, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

type findriskResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Test           models.FindriskTest `json:"test"`
		Interpretacion risk.Interpretacion `json:"interpretacion"`
		EdadCalculada  int                 `json:"edad_calculada"`
	} `json:"data"`
}

// RED: Test a full screening is scored, persisted and interpreted
func TestCreateFindriskTest(t *testing.T) {
	setupTestDB(t)
	sede, paciente := seedPaciente(t, "masculino")
	mockUser(t, &models.Usuario{ID: 3, Nombre: "Promotor"})

	rec := postJSON(CreateFindriskTest, "/api/findrisk", findriskBody(paciente, sede))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp findriskResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	test := resp.Data.Test
	if test.ID == "" {
		t.Error("Expected generated test id")
	}
	if test.IMC != 22.86 {
		t.Errorf("Expected IMC 22.86, got %v", test.IMC)
	}
	if test.PuntajeEdad != 2 || test.PuntajeActividadFisica != 2 || test.PuntajeFrutasVerduras != 1 {
		t.Errorf("Unexpected component scores: %+v", test)
	}
	if test.PuntajeFinal != 5 {
		t.Errorf("Expected puntaje_final 5, got %d", test.PuntajeFinal)
	}
	if resp.Data.Interpretacion.Nivel != "Bajo" {
		t.Errorf("Expected nivel Bajo, got %s", resp.Data.Interpretacion.Nivel)
	}
	if test.IDUsuario != 3 {
		t.Errorf("Expected test attributed to user 3, got %d", test.IDUsuario)
	}

	var count int64
	database.DB.Model(&models.FindriskTest{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 persisted test, got %d", count)
	}
}

// RED: Test invalid questionnaire values answer 422 with field errors
func TestCreateFindriskTest_Validation(t *testing.T) {
	setupTestDB(t)
	sede, paciente := seedPaciente(t, "masculino")
	mockUser(t, &models.Usuario{ID: 1})

	body := findriskBody(paciente, sede)
	body["peso"] = 0
	body["actividad_fisica"] = "a veces"

	rec := postJSON(CreateFindriskTest, "/api/findrisk", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool              `json:"success"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if _, ok := resp.Errors["peso"]; !ok {
		t.Error("Expected error for peso")
	}
	if _, ok := resp.Errors["actividad_fisica"]; !ok {
		t.Error("Expected error for actividad_fisica")
	}
}

func TestCreateFindriskTest_UnknownPaciente(t *testing.T) {
	setupTestDB(t)
	sede, _ := seedPaciente(t, "masculino")
	mockUser(t, &models.Usuario{ID: 1})

	body := findriskBody(models.Paciente{ID: "no-such"}, sede)
	rec := postJSON(CreateFindriskTest, "/api/findrisk", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

// RED: Test a partial update recomputes only the touched sub-scores
func TestUpdateFindriskTest_PartialRecompute(t *testing.T) {
	setupTestDB(t)
	sede, paciente := seedPaciente(t, "masculino")
	mockUser(t, &models.Usuario{ID: 1})

	rec := postJSON(CreateFindriskTest, "/api/findrisk", findriskBody(paciente, sede))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %s", rec.Body.String())
	}
	var created findriskResponse
	json.NewDecoder(rec.Body).Decode(&created)

	req := httptest.NewRequest("PUT", "/api/findrisk/"+created.Data.Test.ID,
		strings.NewReader(`{"azucar_alto_detectado":"si"}`))
	req.SetPathValue("id", created.Data.Test.ID)
	urec := httptest.NewRecorder()
	UpdateFindriskTest(urec, req)

	if urec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", urec.Code, urec.Body.String())
	}
	var updated findriskResponse
	if err := json.NewDecoder(urec.Body).Decode(&updated); err != nil {
		t.Fatal(err)
	}
	test := updated.Data.Test
	if test.PuntajeAzucarAlto != 5 {
		t.Errorf("Expected puntaje_azucar_alto 5, got %d", test.PuntajeAzucarAlto)
	}
	// Untouched components keep their values, total is re-summed
	if test.PuntajeEdad != 2 || test.PuntajeActividadFisica != 2 {
		t.Errorf("Untouched scores changed: %+v", test)
	}
	if test.PuntajeFinal != 10 {
		t.Errorf("Expected puntaje_final 10, got %d", test.PuntajeFinal)
	}
	if updated.Data.Interpretacion.Nivel != "Ligeramente elevado" {
		t.Errorf("Expected nivel Ligeramente elevado, got %s", updated.Data.Interpretacion.Nivel)
	}
}

func TestUpdateFindriskTest_RejectsInvalidMergedState(t *testing.T) {
	setupTestDB(t)
	sede, paciente := seedPaciente(t, "masculino")
	mockUser(t, &models.Usuario{ID: 1})

	rec := postJSON(CreateFindriskTest, "/api/findrisk", findriskBody(paciente, sede))
	var created findriskResponse
	json.NewDecoder(rec.Body).Decode(&created)

	req := httptest.NewRequest("PUT", "/api/findrisk/"+created.Data.Test.ID,
		strings.NewReader(`{"talla":10}`))
	req.SetPathValue("id", created.Data.Test.ID)
	urec := httptest.NewRecorder()
	UpdateFindriskTest(urec, req)

	if urec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", urec.Code, urec.Body.String())
	}

	// The stored test must be untouched
	var stored models.FindriskTest
	database.DB.First(&stored, "id = ?", created.Data.Test.ID)
	if stored.Talla != 175 {
		t.Errorf("Stored talla changed to %v", stored.Talla)
	}
}

func TestGetFindriskTest(t *testing.T) {
	setupTestDB(t)
	sede, paciente := seedPaciente(t, "masculino")
	mockUser(t, &models.Usuario{ID: 1})

	rec := postJSON(CreateFindriskTest, "/api/findrisk", findriskBody(paciente, sede))
	var created findriskResponse
	json.NewDecoder(rec.Body).Decode(&created)

	req := httptest.NewRequest("GET", "/api/findrisk/"+created.Data.Test.ID, nil)
	req.SetPathValue("id", created.Data.Test.ID)
	grec := httptest.NewRecorder()
	GetFindriskTest(grec, req)

	if grec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", grec.Code)
	}
	var resp findriskResponse
	if err := json.NewDecoder(grec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Interpretacion.Nivel != "Bajo" {
		t.Errorf("Expected interpretation in detail view, got %+v", resp.Data.Interpretacion)
	}
	if resp.Data.EdadCalculada < 45 {
		t.Errorf("Unexpected edad_calculada %d", resp.Data.EdadCalculada)
	}

	nf := httptest.NewRequest("GET", "/api/findrisk/no-such", nil)
	nf.SetPathValue("id", "no-such")
	nrec := httptest.NewRecorder()
	GetFindriskTest(nrec, nf)
	if nrec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", nrec.Code)
	}
}

func TestDeleteFindriskTest(t *testing.T) {
	setupTestDB(t)
	sede, paciente := seedPaciente(t, "masculino")
	mockUser(t, &models.Usuario{ID: 1})

	rec := postJSON(CreateFindriskTest, "/api/findrisk", findriskBody(paciente, sede))
	var created findriskResponse
	json.NewDecoder(rec.Body).Decode(&created)

	req := httptest.NewRequest("DELETE", "/api/findrisk/"+created.Data.Test.ID, nil)
	req.SetPathValue("id", created.Data.Test.ID)
	drec := httptest.NewRecorder()
	DeleteFindriskTest(drec, req)
	if drec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", drec.Code)
	}

	again := httptest.NewRequest("DELETE", "/api/findrisk/"+created.Data.Test.ID, nil)
	again.SetPathValue("id", created.Data.Test.ID)
	arec := httptest.NewRecorder()
	DeleteFindriskTest(arec, again)
	if arec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", arec.Code)
	}
}

// RED: Test the per-tier counters are scoped to the authenticated user
func TestFindriskEstadisticas(t *testing.T) {
	setupTestDB(t)
	mockUser(t, &models.Usuario{ID: 1, Nombre: "Promotor"})

	for _, puntaje := range []int{5, 9, 13, 18, 22} {
		database.DB.Create(&models.FindriskTest{IDUsuario: 1, PuntajeFinal: puntaje})
	}
	// Another user's test must not be counted
	database.DB.Create(&models.FindriskTest{IDUsuario: 2, PuntajeFinal: 5})

	req := httptest.NewRequest("GET", "/api/findrisk-estadisticas", nil)
	rec := httptest.NewRecorder()
	FindriskEstadisticas(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{
		"total_tests":                5,
		"riesgo_bajo":                1,
		"riesgo_ligeramente_elevado": 1,
		"riesgo_moderado":            1,
		"riesgo_alto":                1,
		"riesgo_muy_alto":            1,
	}
	for key, n := range want {
		if resp.Data[key] != n {
			t.Errorf("Expected %s=%v, got %v", key, n, resp.Data[key])
		}
	}
}

func TestFindriskEstadisticas_Unauthenticated(t *testing.T) {
	setupTestDB(t)
	mockUser(t, nil)

	req := httptest.NewRequest("GET", "/api/findrisk-estadisticas", nil)
	rec := httptest.NewRecorder()
	FindriskEstadisticas(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

// RED: Test the export filters by risk tier
func TestFindriskExport_NivelRiesgo(t *testing.T) {
	setupTestDB(t)
	sede, paciente := seedPaciente(t, "masculino")
	for _, puntaje := range []int{5, 9, 22} {
		database.DB.Create(&models.FindriskTest{
			IDPaciente: paciente.ID, IDSede: sede.ID, IDUsuario: 1, PuntajeFinal: puntaje,
		})
	}

	req := httptest.NewRequest("GET", "/api/findrisk-tests/export?nivel_riesgo=muy_alto", nil)
	rec := httptest.NewRecorder()
	FindriskExport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success bool             `json:"success"`
		Data    []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("Expected 1 exported test, got %d", len(resp.Data))
	}
	if resp.Data[0]["puntaje_final"] != float64(22) {
		t.Errorf("Unexpected exported test: %v", resp.Data[0])
	}
}

func TestFindriskPorPaciente(t *testing.T) {
	setupTestDB(t)
	sede, paciente := seedPaciente(t, "femenino")
	database.DB.Create(&models.FindriskTest{IDPaciente: paciente.ID, IDSede: sede.ID, PuntajeFinal: 8})
	database.DB.Create(&models.FindriskTest{IDPaciente: "otro", IDSede: sede.ID, PuntajeFinal: 3})

	req := httptest.NewRequest("GET", "/api/findrisk/paciente/"+paciente.ID, nil)
	req.SetPathValue("idpaciente", paciente.ID)
	rec := httptest.NewRecorder()
	FindriskPorPaciente(rec, req)

	var resp struct {
		Success bool                  `json:"success"`
		Data    []models.FindriskTest `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Data[0].PuntajeFinal != 8 {
		t.Errorf("Unexpected tests: %+v", resp.Data)
	}
}
