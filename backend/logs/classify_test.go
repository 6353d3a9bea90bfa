package logs

import (
	"fmt"
	"slices"
	"testing"
)

func classifyLine(t *testing.T, line string) Entry {
	t.Helper()
	records := Parse(line)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	return Classify(records[0])
}

// RED: Test the SQL error record gets the full error classification
func TestClassify_VisitaCreationError(t *testing.T) {
	records := Parse(sampleLog)
	e := Classify(records[1])

	if e.Type != "visita" {
		t.Errorf("Expected type visita, got %s", e.Type)
	}
	if e.Category != "medical" {
		t.Errorf("Expected category medical, got %s", e.Category)
	}
	if e.Operation != "crear" {
		t.Errorf("Expected operation crear, got %s", e.Operation)
	}
	if e.Status != "error" {
		t.Errorf("Expected status error, got %s", e.Status)
	}
	if e.Priority != "critical" {
		t.Errorf("Expected priority critical, got %s", e.Priority)
	}
	if !e.HasStackTrace {
		t.Error("Expected has_stack_trace true")
	}

	if e.ErrorDetails == nil {
		t.Fatal("Expected error details")
	}
	if e.ErrorDetails["sql_state"] != "23000" {
		t.Errorf("Expected sql_state 23000, got %v", e.ErrorDetails["sql_state"])
	}
	if e.ErrorDetails["constraint"] != "integrity_violation" {
		t.Errorf("Expected integrity_violation, got %v", e.ErrorDetails["constraint"])
	}
	if e.ErrorDetails["type"] != "duplicate_entry" {
		t.Errorf("Expected duplicate_entry, got %v", e.ErrorDetails["type"])
	}
	if e.ErrorDetails["has_stack_trace"] != true {
		t.Error("Expected has_stack_trace detail")
	}
	if e.EntityID != "V-42" {
		t.Errorf("Expected entity id from duplicate entry, got %q", e.EntityID)
	}
	for _, tag := range []string{"creation_error", "duplicate_error", "constraint_error"} {
		if !slices.Contains(e.Tags, tag) {
			t.Errorf("Expected tag %s in %v", tag, e.Tags)
		}
	}
}

// RED: Test the entry id is derived from timestamp and line number
func TestClassify_DeterministicID(t *testing.T) {
	records := Parse(sampleLog)
	e := Classify(records[1])
	want := fmt.Sprintf("%d-%d", records[1].Timestamp.Unix(), records[1].LineNumber)
	if e.ID != want {
		t.Errorf("Expected id %s, got %s", want, e.ID)
	}
	// Same record classifies to the same id
	if again := Classify(records[1]); again.ID != e.ID {
		t.Errorf("ID not stable: %s vs %s", e.ID, again.ID)
	}
}

// RED: Test success records extract the created entity id
func TestClassify_PacienteCreado(t *testing.T) {
	e := classifyLine(t, `[2025-09-01 10:00:00] Produccion.INFO: Paciente creado {"id":"a1b2c3d4-0000-0000-0000-000000000001"}`+"\n")

	if e.Type != "paciente" || e.Operation != "crear" {
		t.Errorf("Unexpected classification: %s/%s", e.Type, e.Operation)
	}
	if e.Status != "success" {
		t.Errorf("Expected status success, got %s", e.Status)
	}
	if e.Priority != "high" {
		t.Errorf("Expected priority high, got %s", e.Priority)
	}
	if e.Endpoint != "/api/pacientes" {
		t.Errorf("Expected endpoint /api/pacientes, got %s", e.Endpoint)
	}
	if e.EntityID != "a1b2c3d4-0000-0000-0000-000000000001" {
		t.Errorf("Expected uuid entity id, got %q", e.EntityID)
	}
}

func TestClassify_CoordenadasActualizadas(t *testing.T) {
	e := classifyLine(t, `[2025-09-01 10:00:00] Produccion.INFO: Coordenadas del paciente actualizadas {"paciente_id":"deadbeef-0000-0000-0000-000000000002"}`+"\n")

	if e.Type != "paciente" || e.Category != "location" {
		t.Errorf("Unexpected classification: %s/%s", e.Type, e.Category)
	}
	if e.Operation != "actualizar_coordenadas" {
		t.Errorf("Expected actualizar_coordenadas, got %s", e.Operation)
	}
	if e.Endpoint != "/api/pacientes/deadbeef-0000-0000-0000-000000000002/coordenadas" {
		t.Errorf("Unexpected endpoint %s", e.Endpoint)
	}
	if e.EntityType != "paciente" {
		t.Errorf("Expected entity type paciente, got %s", e.EntityType)
	}
}

// RED: Test unmatched records keep level-based defaults
func TestClassify_Defaults(t *testing.T) {
	e := classifyLine(t, "[2025-09-01 10:00:00] Produccion.INFO: algo paso\n")

	if e.Type != "general" || e.Category != "system" {
		t.Errorf("Expected general/system, got %s/%s", e.Type, e.Category)
	}
	if e.Status != "success" {
		t.Errorf("Expected default success for INFO, got %s", e.Status)
	}
	if e.Priority != "medium" {
		t.Errorf("Expected default medium, got %s", e.Priority)
	}
	if e.Tags == nil {
		t.Error("Tags must never be nil")
	}
}

func TestClassify_DebugPriority(t *testing.T) {
	e := classifyLine(t, "[2025-09-01 10:00:00] Produccion.DEBUG: DEBUG COORDENADAS lat/lon\n")
	if e.Priority != "low" {
		t.Errorf("Expected low priority for DEBUG, got %s", e.Priority)
	}
	if e.Status != "processing" {
		t.Errorf("Expected processing, got %s", e.Status)
	}
}

// RED: Test HTTP method, endpoint, duration, user and IP extraction
func TestClassify_RequestMetadata(t *testing.T) {
	e := classifyLine(t, `[2025-09-01 10:00:00] Produccion.INFO: GET /api/pacientes/123 took 245ms "user_id":"7" desde 192.168.0.10`+"\n")

	if e.HTTPMethod != "GET" {
		t.Errorf("Expected GET, got %s", e.HTTPMethod)
	}
	if e.Endpoint != "/api/pacientes/123" {
		t.Errorf("Expected endpoint, got %s", e.Endpoint)
	}
	if e.Duration == nil || *e.Duration != 245 {
		t.Errorf("Expected duration 245, got %v", e.Duration)
	}
	if e.UserID != "7" {
		t.Errorf("Expected user 7, got %q", e.UserID)
	}
	if e.IPAddress != "192.168.0.10" {
		t.Errorf("Expected ip, got %q", e.IPAddress)
	}
}

func TestClassify_AuthEvents(t *testing.T) {
	login := classifyLine(t, "[2025-09-01 10:00:00] Produccion.INFO: Usuario autenticado\n")
	if login.Type != "auth" || login.Operation != "login" {
		t.Errorf("Unexpected login classification: %s/%s", login.Type, login.Operation)
	}

	bad := classifyLine(t, "[2025-09-01 10:00:01] Produccion.WARNING: Token inválido: contraseña incorrecta\n")
	if bad.Operation != "token_validation" || bad.Status != "error" {
		t.Errorf("Unexpected token classification: %s/%s", bad.Operation, bad.Status)
	}
	if bad.Priority != "high" {
		t.Errorf("Expected high priority, got %s", bad.Priority)
	}
}

// RED: Test embedded JSON payloads are captured, malformed ones skipped
func TestClassify_EmbeddedJSON(t *testing.T) {
	e := classifyLine(t, `[2025-09-01 10:00:00] Produccion.INFO: RECIBIENDO DATOS DE VISITA {"paciente":"x","motivo":"control"}`+"\n")
	if e.RequestData == nil {
		t.Fatal("Expected request data")
	}
	if e.RequestData["motivo"] != "control" {
		t.Errorf("Expected motivo control, got %v", e.RequestData["motivo"])
	}

	bad := classifyLine(t, `[2025-09-01 10:00:00] Produccion.INFO: RECIBIENDO DATOS DE VISITA {rotisimo`+"\n")
	if bad.RequestData != nil {
		t.Errorf("Malformed JSON should be skipped, got %v", bad.RequestData)
	}
}

// RED: Test numeric id fallback when no uuid is present
func TestClassify_NumericIDFallback(t *testing.T) {
	e := classifyLine(t, `[2025-09-01 10:00:00] Produccion.INFO: Medicamento creado {"id":44}`+"\n")
	if e.EntityID != "44" {
		t.Errorf("Expected entity id 44, got %q", e.EntityID)
	}
}
