package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"salud-backend/backend/config"
	"salud-backend/backend/logs"
)

// LogSource is a variable so tests can swap in an in-memory source.
var LogSource = func() logs.Source {
	return logs.FileSource{Path: config.C.LogPath}
}

func filterFromQuery(q url.Values) logs.Filter {
	f := logs.Filter{
		Type:       q.Get("type"),
		Category:   q.Get("category"),
		Status:     q.Get("status"),
		Operation:  q.Get("operation"),
		HTTPMethod: q.Get("http_method"),
		Priority:   q.Get("priority"),
		Tag:        q.Get("tag"),
		Search:     q.Get("search"),
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			f.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			end := t.Add(24*time.Hour - time.Second)
			f.DateTo = &end
		}
	}
	return f
}

func loadEntries(w http.ResponseWriter) ([]logs.Entry, bool) {
	entries, err := logs.Load(LogSource())
	if errors.Is(err, logs.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Archivo de log no encontrado")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al leer el archivo de log")
		return nil, false
	}
	return entries, true
}

func GetLogs(w http.ResponseWriter, r *http.Request) {
	entries, ok := loadEntries(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	filtered := filterFromQuery(q).Apply(entries)

	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	pageData, pagination := logs.Paginate(filtered, page, perPage)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       pageData,
		"pagination": pagination,
		"filters":    logs.CollectFilters(entries),
	})
}

func ShowLog(w http.ResponseWriter, r *http.Request) {
	entries, ok := loadEntries(w)
	if !ok {
		return
	}

	id := r.PathValue("id")
	var current *logs.Entry
	for i := range entries {
		if entries[i].ID == id {
			current = &entries[i]
			break
		}
	}
	if current == nil {
		respondError(w, http.StatusNotFound, "Log no encontrado")
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"log":          current,
		"related_logs": logs.Related(entries, *current),
		"context":      logs.ContextAround(entries, *current),
	})
}

func GetLogStats(w http.ResponseWriter, r *http.Request) {
	entries, ok := loadEntries(w)
	if !ok {
		return
	}

	filtered := filterFromQuery(r.URL.Query()).Apply(entries)
	respondData(w, http.StatusOK, logs.ComputeStats(filtered, time.Now()))
}

func ExportLogs(w http.ResponseWriter, r *http.Request) {
	entries, ok := loadEntries(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	filtered := filterFromQuery(q).Apply(entries)

	format := q.Get("format")
	switch format {
	case "csv":
		filename := "logs_" + time.Now().Format("2006-01-02_15-04-05") + ".csv"
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		logs.WriteCSV(w, filtered)
	case "json", "":
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"data":        filtered,
			"total":       len(filtered),
			"exported_at": time.Now().Format(time.RFC3339),
		})
	default:
		respondValidation(w, map[string]string{"format": "el formato debe ser json o csv"})
	}
}

type clearLogsRequest struct {
	Confirm bool `json:"confirm"`
}

// ClearLogs truncates the log file after copying it to a timestamped backup.
// Backup first, then clear, so an interruption never loses data.
func ClearLogs(w http.ResponseWriter, r *http.Request) {
	var req clearLogsRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if !req.Confirm {
		respondValidation(w, map[string]string{"confirm": "la confirmación es requerida"})
		return
	}

	src := LogSource()
	if !src.Exists() {
		respondError(w, http.StatusNotFound, "Archivo de log no encontrado")
		return
	}

	backup := backupPath(time.Now())
	if err := src.CopyTo(backup); err != nil {
		respondError(w, http.StatusInternalServerError, "Error al crear el respaldo")
		return
	}
	if err := src.WriteAll(""); err != nil {
		respondError(w, http.StatusInternalServerError, "Error al limpiar el archivo de log")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Logs limpiados correctamente",
		"backup_created": backup,
	})
}

func backupPath(now time.Time) string {
	dir := filepath.Dir(config.C.LogPath)
	base := filepath.Base(config.C.LogPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s_backup_%s.log", name, now.Format("2006-01-02_15-04-05")))
}

func DownloadLogs(w http.ResponseWriter, r *http.Request) {
	src := LogSource()
	content, err := src.ReadAll()
	if errors.Is(err, logs.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Archivo de log no encontrado")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al leer el archivo de log")
		return
	}

	filename := "app_" + time.Now().Format("2006-01-02_15-04-05") + ".log"
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write([]byte(content))
}
