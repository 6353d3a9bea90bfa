package logs

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Entry is a classified log record. Classification fields are derived from
// the message text, never stored.
type Entry struct {
	ID            string         `json:"id"`
	Timestamp     string         `json:"timestamp"`
	Time          time.Time      `json:"-"`
	FormattedDate string         `json:"formatted_date"`
	Environment   string         `json:"environment"`
	Level         string         `json:"level"`
	Message       string         `json:"message"`
	Type          string         `json:"type"`
	Category      string         `json:"category"`
	Operation     string         `json:"operation,omitempty"`
	HTTPMethod    string         `json:"http_method,omitempty"`
	Endpoint      string         `json:"endpoint,omitempty"`
	Status        string         `json:"status"`
	Priority      string         `json:"priority"`
	EntityID      string         `json:"entity_id,omitempty"`
	EntityType    string         `json:"entity_type,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	Duration      *int           `json:"duration,omitempty"` // milliseconds
	ErrorDetails  map[string]any `json:"error_details,omitempty"`
	RequestData   map[string]any `json:"request_data,omitempty"`
	ResponseData  map[string]any `json:"response_data,omitempty"`
	FullContent   string         `json:"full_content"`
	LineNumber    int            `json:"line_number"`
	HasStackTrace bool           `json:"has_stack_trace"`
	Tags          []string       `json:"tags"`
}

var (
	quotedIDRe    = regexp.MustCompile(`"id":"([^"]+)"`)
	visitaIDRe    = regexp.MustCompile(`"visita_id":"([^"]+)"`)
	pacienteIDRe  = regexp.MustCompile(`"paciente_id":"([^"]+)"`)
	uuidRe        = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	numericIDRe   = regexp.MustCompile(`"id":(\d+)`)
	httpMethodRe  = regexp.MustCompile(`\b(GET|POST|PUT|PATCH|DELETE)\b`)
	endpointRe    = regexp.MustCompile(`/api/[^\s"']+`)
	durationRe    = regexp.MustCompile(`(\d+)ms`)
	userIDRe      = regexp.MustCompile(`"user_id":"?([^",}]+)"?`)
	ipRe          = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	sqlStateRe    = regexp.MustCompile(`SQLSTATE\[(\w+)\]: ([^(]+)`)
	duplicateRe   = regexp.MustCompile(`Duplicate entry '([^']+)'`)
	errMsgRe      = regexp.MustCompile(`"error":"([^"]+)"`)
	errLineRe     = regexp.MustCompile(`"line":(\d+)`)
	errFileRe     = regexp.MustCompile(`"file":"([^"]+)"`)
	stackFirstRe  = regexp.MustCompile(`#0 ([^\n]+)`)
	embeddedObjRe = regexp.MustCompile(`\{.*\}`)
)

// rule pairs a message predicate with the classification it applies. Rules
// are evaluated top to bottom; the first match wins for the mutually
// exclusive fields (type/category/operation/status).
type rule struct {
	match func(msg string) bool
	apply func(e *Entry, msg, full string)
}

func contains(marker string) func(string) bool {
	return func(msg string) bool { return strings.Contains(msg, marker) }
}

func containsAny(markers ...string) func(string) bool {
	return func(msg string) bool {
		for _, m := range markers {
			if strings.Contains(msg, m) {
				return true
			}
		}
		return false
	}
}

func (e *Entry) set(typ, category, operation, status string) {
	e.Type = typ
	e.Category = category
	e.Operation = operation
	e.Status = status
}

func (e *Entry) tag(t string) { e.Tags = append(e.Tags, t) }

func (e *Entry) entity(id, typ string) {
	e.EntityID = id
	e.EntityType = typ
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// classifyRules is the content taxonomy, in evaluation order. New event
// types are added by appending rows here.
var classifyRules = []rule{
	{contains("RECIBIENDO DATOS DE VISITA"), func(e *Entry, msg, full string) {
		e.set("visita", "medical", "recibir_datos", "processing")
		e.HTTPMethod, e.Endpoint = "POST", "/api/visitas"
		e.tag("data_reception")
		e.RequestData = extractEmbeddedJSON(msg)
	}},
	{contains("Visita creada"), func(e *Entry, msg, full string) {
		e.set("visita", "medical", "crear", "success")
		e.HTTPMethod, e.Endpoint = "POST", "/api/visitas"
		e.Priority = "high"
		e.tag("creation_success")
		if id := firstGroup(quotedIDRe, msg); id != "" {
			e.entity(id, "visita")
		}
		e.ResponseData = extractEmbeddedJSON(msg)
	}},
	{contains("Error al crear visita"), func(e *Entry, msg, full string) {
		e.set("visita", "medical", "crear", "error")
		e.HTTPMethod, e.Endpoint = "POST", "/api/visitas"
		e.Priority = "critical"
		e.tag("creation_error")
	}},
	{contains("ACTUALIZANDO VISITA"), func(e *Entry, msg, full string) {
		e.set("visita", "medical", "actualizar", "processing")
		e.HTTPMethod = "PUT"
		e.tag("update_process")
		if id := firstGroup(visitaIDRe, msg); id != "" {
			e.entity(id, "visita")
			e.Endpoint = "/api/visitas/" + id
		}
	}},
	{contains("Visita actualizada"), func(e *Entry, msg, full string) {
		e.set("visita", "medical", "actualizar", "success")
		e.HTTPMethod = "PUT"
		e.Priority = "high"
		e.tag("update_success")
		if id := firstGroup(quotedIDRe, msg); id != "" {
			e.entity(id, "visita")
			e.Endpoint = "/api/visitas/" + id
		}
	}},
	{contains("Error al actualizar visita"), func(e *Entry, msg, full string) {
		e.set("visita", "medical", "actualizar", "error")
		e.HTTPMethod = "PUT"
		e.Priority = "critical"
		e.tag("update_error")
		if id := uuidRe.FindString(full); id != "" {
			e.entity(id, "visita")
			e.Endpoint = "/api/visitas/" + id
		}
	}},
	{contains("Datos finales para crear visita"), func(e *Entry, msg, full string) {
		e.set("visita", "medical", "preparar_datos", "processing")
		e.tag("data_preparation")
		if id := firstGroup(quotedIDRe, msg); id != "" {
			e.entity(id, "visita")
		}
	}},
	{contains("Todos los campos"), func(e *Entry, msg, full string) {
		e.set("visita", "validation", "validar_campos", "processing")
		e.tag("field_validation")
	}},
	{contains("Form Data completo"), func(e *Entry, msg, full string) {
		e.set("visita", "form", "procesar_formulario", "processing")
		e.tag("form_processing")
	}},
	{contains("Firma subida"), func(e *Entry, msg, full string) {
		e.set("visita", "file", "subir_firma", "success")
		e.HTTPMethod, e.Endpoint = "POST", "/api/firmas"
		e.tag("file_upload")
	}},
	{contains("Coordenadas del paciente actualizadas"), func(e *Entry, msg, full string) {
		e.set("paciente", "location", "actualizar_coordenadas", "success")
		e.HTTPMethod = "PUT"
		e.tag("location_update")
		if id := firstGroup(pacienteIDRe, msg); id != "" {
			e.entity(id, "paciente")
			e.Endpoint = "/api/pacientes/" + id + "/coordenadas"
		}
	}},
	{contains("DEBUG COORDENADAS"), func(e *Entry, msg, full string) {
		e.set("debug", "location", "coordenadas", "processing")
		e.tag("debug")
	}},
	{contains("Coordenadas finales"), func(e *Entry, msg, full string) {
		e.set("visita", "location", "coordenadas_finales", "processing")
		e.tag("location_final")
	}},
	{contains("Datos recibidos para crear brigada"), func(e *Entry, msg, full string) {
		e.set("brigada", "medical", "crear", "processing")
		e.HTTPMethod, e.Endpoint = "POST", "/api/brigadas"
		e.tag("data_reception")
	}},
	{contains("Brigada creada"), func(e *Entry, msg, full string) {
		e.set("brigada", "medical", "crear", "success")
		e.HTTPMethod, e.Endpoint = "POST", "/api/brigadas"
		e.Priority = "high"
		e.tag("creation_success")
		if id := firstGroup(quotedIDRe, msg); id != "" {
			e.entity(id, "brigada")
		}
	}},
	{contains("Medicamento guardado"), func(e *Entry, msg, full string) {
		e.set("medicamento", "medical", "asignar", "success")
		e.HTTPMethod, e.Endpoint = "POST", "/api/medicamentos"
		e.tag("medication_assigned")
	}},
	{contains("Medicamento creado"), func(e *Entry, msg, full string) {
		e.set("medicamento", "medical", "crear", "success")
		e.HTTPMethod, e.Endpoint = "POST", "/api/medicamentos"
		e.tag("creation_success")
	}},
	{contains("Medicamento actualizado"), func(e *Entry, msg, full string) {
		e.set("medicamento", "medical", "actualizar", "success")
		e.HTTPMethod = "PUT"
		e.tag("update_success")
	}},
	{contains("Paciente creado"), func(e *Entry, msg, full string) {
		e.set("paciente", "medical", "crear", "success")
		e.HTTPMethod, e.Endpoint = "POST", "/api/pacientes"
		e.Priority = "high"
		e.tag("creation_success")
	}},
	{contains("Paciente actualizado"), func(e *Entry, msg, full string) {
		e.set("paciente", "medical", "actualizar", "success")
		e.HTTPMethod = "PUT"
		e.tag("update_success")
	}},
	{containsAny("Usuario autenticado", "Login successful"), func(e *Entry, msg, full string) {
		e.set("auth", "security", "login", "success")
		e.HTTPMethod, e.Endpoint = "POST", "/api/auth/login"
		e.tag("authentication")
	}},
	{containsAny("Logout", "Usuario desconectado"), func(e *Entry, msg, full string) {
		e.set("auth", "security", "logout", "success")
		e.HTTPMethod, e.Endpoint = "POST", "/api/auth/logout"
		e.tag("authentication")
	}},
	{containsAny("Token inválido", "Unauthorized"), func(e *Entry, msg, full string) {
		e.set("auth", "security", "token_validation", "error")
		e.Priority = "high"
		e.tag("authentication_error")
	}},
}

// Classify derives every classification field for one record. It never
// fails: unmatched records keep their level-based defaults.
func Classify(rec Record) Entry {
	msg := rec.Message
	full := rec.FullContent()

	e := Entry{
		ID:            fmt.Sprintf("%d-%d", rec.Timestamp.Unix(), rec.LineNumber),
		Timestamp:     rec.RawTimestamp,
		Time:          rec.Timestamp,
		FormattedDate: rec.Timestamp.Format("02/01/2006 15:04:05"),
		Environment:   rec.Environment,
		Level:         rec.Level,
		Message:       msg,
		Type:          "general",
		Category:      "system",
		Status:        defaultStatus(rec.Level, msg),
		Priority:      defaultPriority(rec.Level, msg),
		FullContent:   full,
		LineNumber:    rec.LineNumber,
		HasStackTrace: len(rec.AdditionalLines) > 0,
		Tags:          []string{},
	}

	// HTTP and user extraction run regardless of which content rule matches.
	if m := httpMethodRe.FindString(msg); m != "" {
		e.HTTPMethod = m
	}
	if ep := endpointRe.FindString(msg); ep != "" {
		e.Endpoint = ep
	}
	if d := firstGroup(durationRe, msg); d != "" {
		if ms, err := strconv.Atoi(d); err == nil {
			e.Duration = &ms
		}
	}
	if uid := firstGroup(userIDRe, msg); uid != "" {
		e.UserID = uid
	}
	if ip := ipRe.FindString(msg); ip != "" {
		e.IPAddress = ip
	}

	for _, r := range classifyRules {
		if r.match(msg) {
			r.apply(&e, msg, full)
			break
		}
	}

	if rec.Level == "ERROR" {
		applyErrorOverrides(&e, full)
	}

	// Entity id fallback: UUID first, then a numeric "id" field.
	if e.EntityID == "" {
		if id := uuidRe.FindString(msg); id != "" {
			e.EntityID = id
		} else if id := firstGroup(numericIDRe, msg); id != "" {
			e.EntityID = id
		}
	}

	return e
}

// applyErrorOverrides forces error status and at least high priority, then
// extracts structured error details from the full record content.
func applyErrorOverrides(e *Entry, full string) {
	e.Status = "error"
	if e.Priority != "high" && e.Priority != "critical" {
		e.Priority = "high"
	}

	details := e.ErrorDetails
	if details == nil {
		details = map[string]any{}
	}
	if m := sqlStateRe.FindStringSubmatch(full); m != nil {
		details["sql_state"] = m[1]
		details["sql_error"] = strings.TrimSpace(m[2])
	}
	if m := firstGroup(errMsgRe, full); m != "" {
		details["error_message"] = m
	}
	if m := firstGroup(errLineRe, full); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			details["line"] = n
		}
	}
	if m := firstGroup(errFileRe, full); m != "" {
		details["file"] = path.Base(m)
	}
	if strings.Contains(full, "#0") {
		details["has_stack_trace"] = true
		if m := firstGroup(stackFirstRe, full); m != "" {
			details["stack_trace_first"] = m
		}
	}
	if strings.Contains(full, "Duplicate entry") {
		details["type"] = "duplicate_entry"
		details["description"] = "Intento de insertar un registro duplicado"
		e.tag("duplicate_error")
		if id := firstGroup(duplicateRe, full); id != "" {
			e.EntityID = id
		}
	}
	if strings.Contains(full, "Integrity constraint violation") {
		details["constraint"] = "integrity_violation"
		e.tag("constraint_error")
	}
	if strings.Contains(full, "validation") || strings.Contains(full, "required") {
		e.tag("validation_error")
		e.Category = "validation"
	}
	if len(details) > 0 {
		e.ErrorDetails = details
	}
}

func defaultStatus(level, msg string) string {
	if level == "ERROR" {
		return "error"
	}
	for _, marker := range []string{"creada", "creado", "actualizada", "actualizado", "subida", "guardado"} {
		if strings.Contains(msg, marker) {
			return "success"
		}
	}
	for _, marker := range []string{"RECIBIENDO", "DEBUG", "procesando", "ACTUALIZANDO"} {
		if strings.Contains(msg, marker) {
			return "processing"
		}
	}
	if level == "INFO" {
		return "success"
	}
	return "processing"
}

func defaultPriority(level, msg string) string {
	if level == "ERROR" {
		return "critical"
	}
	for _, marker := range []string{"creada", "creado", "actualizada", "actualizado"} {
		if strings.Contains(msg, marker) {
			return "high"
		}
	}
	if strings.Contains(msg, "DEBUG") {
		return "low"
	}
	return "medium"
}

// extractEmbeddedJSON decodes a JSON object embedded in a message. Malformed
// payloads are skipped, never an error for the record.
func extractEmbeddedJSON(msg string) map[string]any {
	m := embeddedObjRe.FindString(msg)
	if m == "" {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(m), &data); err != nil {
		return nil
	}
	return data
}
