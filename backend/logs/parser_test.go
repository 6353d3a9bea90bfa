package logs

import (
	"strings"
	"testing"
	"time"
)

const sampleLog = `[2025-09-01 19:10:00] Produccion.INFO: Paciente creado {"id":"a1b2c3d4-0000-0000-0000-000000000001"}
[2025-09-01 19:11:08] Produccion.ERROR: Error al crear visita: SQLSTATE[23000]: Integrity constraint violation: 1062 Duplicate entry 'V-42' for key 'visitas.numero'
#0 /app/Http/Controllers/VisitaController.php(88): insert()
#1 {main}
[2025-09-01 19:12:30] Produccion.DEBUG: DEBUG COORDENADAS {"longitud":-75.5,"latitud":6.2}
`

// RED: Test header lines start records and continuation lines attach
func TestParse_MultilineRecords(t *testing.T) {
	records := Parse(sampleLog)
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Environment != "Produccion" || first.Level != "INFO" {
		t.Errorf("Unexpected header fields: %s.%s", first.Environment, first.Level)
	}
	if first.LineNumber != 1 {
		t.Errorf("Expected line number 1, got %d", first.LineNumber)
	}
	if len(first.AdditionalLines) != 0 {
		t.Errorf("Expected no continuation lines, got %v", first.AdditionalLines)
	}

	second := records[1]
	if len(second.AdditionalLines) != 2 {
		t.Fatalf("Expected 2 continuation lines, got %d", len(second.AdditionalLines))
	}
	if !strings.HasPrefix(second.AdditionalLines[0], "#0 ") {
		t.Errorf("Stack line not attached: %q", second.AdditionalLines[0])
	}
	if second.LineNumber != 2 {
		t.Errorf("Expected line number 2, got %d", second.LineNumber)
	}
	if !strings.Contains(second.FullContent(), "#1 {main}") {
		t.Error("FullContent should include continuation lines")
	}

	want := time.Date(2025, 9, 1, 19, 11, 8, 0, time.Local)
	if !second.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, second.Timestamp)
	}
}

// RED: Test blank lines are skipped and the final record is flushed
func TestParse_BlankLinesAndFlush(t *testing.T) {
	content := "\n[2025-09-01 08:00:00] Produccion.INFO: uno\n\n\n[2025-09-01 08:01:00] Produccion.INFO: dos"
	records := Parse(content)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1].Message != "dos" {
		t.Errorf("Last record not flushed: %q", records[1].Message)
	}
}

// RED: Test a header with an impossible timestamp becomes a continuation line
func TestParse_BadTimestampKeptAsContinuation(t *testing.T) {
	content := "[2025-09-01 08:00:00] Produccion.INFO: uno\n[2025-13-40 99:00:00] Produccion.INFO: basura\n"
	records := Parse(content)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if len(records[0].AdditionalLines) != 1 {
		t.Fatalf("Expected 1 continuation line, got %d", len(records[0].AdditionalLines))
	}
	if !strings.Contains(records[0].AdditionalLines[0], "basura") {
		t.Errorf("Unexpected continuation line: %q", records[0].AdditionalLines[0])
	}
}

func TestParse_EmptyContent(t *testing.T) {
	if records := Parse(""); len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

// RED: Test control characters are stripped before matching
func TestParse_ControlCharactersStripped(t *testing.T) {
	content := "[2025-09-01 08:00:00] Produccion.INFO: hola\x00mundo\n"
	records := Parse(content)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Message != "holamundo" {
		t.Errorf("Expected control chars removed, got %q", records[0].Message)
	}
}
