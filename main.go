package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"salud-backend/backend/config"
	"salud-backend/backend/database"
	"salud-backend/backend/handlers"
	"salud-backend/backend/logger"
	"salud-backend/backend/middleware"
)

// Rate limiter for auth endpoints (10 requests per minute)
var authRateLimiter = middleware.NewRateLimiter(10, time.Minute)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize session store with configured secret and timeout
	if err := handlers.InitSession(); err != nil {
		log.Fatal("Failed to init session:", err)
	}

	if err := database.Init(); err != nil {
		log.Fatal("Failed to init database:", err)
	}

	// Initialize structured logging into the application log file
	fileHandler, err := logger.NewFileHandler(config.C.LogPath, config.C.Environment)
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	slog.SetDefault(slog.New(fileHandler))

	slog.Info("server starting", "listen", config.C.Listen, "environment", config.C.Environment)

	mux := http.NewServeMux()

	// Health check (unauthenticated, for load balancers)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Auth routes (public, rate limited)
	mux.HandleFunc("POST /api/login", authRateLimiter.LimitFunc(handlers.Login))
	mux.HandleFunc("POST /api/logout", middleware.RequireAuth(handlers.Logout))
	mux.HandleFunc("GET /api/perfil", middleware.RequireAuth(handlers.Perfil))

	// Pacientes
	mux.HandleFunc("GET /api/pacientes", middleware.RequireAuth(handlers.ListPacientes))
	mux.HandleFunc("POST /api/pacientes", middleware.RequireAuth(handlers.CreatePaciente))
	mux.HandleFunc("GET /api/pacientes/{id}", middleware.RequireAuth(handlers.GetPaciente))
	mux.HandleFunc("PUT /api/pacientes/{id}", middleware.RequireAuth(handlers.UpdatePaciente))
	mux.HandleFunc("DELETE /api/pacientes/{id}", middleware.RequireAuth(handlers.DeletePaciente))
	mux.HandleFunc("GET /api/pacientes/buscar/{identificacion}", middleware.RequireAuth(handlers.BuscarPaciente))
	mux.HandleFunc("PUT /api/pacientes/{id}/coordenadas", middleware.RequireAuth(handlers.UpdateCoordenadas))

	// FINDRISK tests
	mux.HandleFunc("GET /api/findrisk", middleware.RequireAuth(handlers.ListFindriskTests))
	mux.HandleFunc("POST /api/findrisk", middleware.RequireAuth(handlers.CreateFindriskTest))
	mux.HandleFunc("GET /api/findrisk/{id}", middleware.RequireAuth(handlers.GetFindriskTest))
	mux.HandleFunc("PUT /api/findrisk/{id}", middleware.RequireAuth(handlers.UpdateFindriskTest))
	mux.HandleFunc("DELETE /api/findrisk/{id}", middleware.RequireAuth(handlers.DeleteFindriskTest))
	mux.HandleFunc("GET /api/findrisk/paciente/{idpaciente}", middleware.RequireAuth(handlers.FindriskPorPaciente))
	mux.HandleFunc("GET /api/findrisk/sede/{idsede}", middleware.RequireAuth(handlers.FindriskPorSede))
	mux.HandleFunc("GET /api/findrisk-estadisticas", middleware.RequireAuth(handlers.FindriskEstadisticas))
	mux.HandleFunc("GET /api/findrisk-estadisticas/sede/{idsede}", middleware.RequireAuth(handlers.FindriskEstadisticas))
	mux.HandleFunc("GET /api/findrisk-tests/export", middleware.RequireAuth(handlers.FindriskExport))

	// Logs
	mux.HandleFunc("GET /api/logs", middleware.RequireAuth(handlers.GetLogs))
	mux.HandleFunc("GET /api/logs/stats", middleware.RequireAuth(handlers.GetLogStats))
	mux.HandleFunc("GET /api/logs/export", middleware.RequireAuth(handlers.ExportLogs))
	mux.HandleFunc("GET /api/logs/download", middleware.RequireAuth(handlers.DownloadLogs))
	mux.HandleFunc("POST /api/logs/clear", middleware.RequireAuth(handlers.ClearLogs))
	mux.HandleFunc("GET /api/logs/{id}", middleware.RequireAuth(handlers.ShowLog))

	// Wrap all routes with security headers
	handler := middleware.SecurityHeaders(mux)

	fmt.Printf("Server running at %s\n", config.C.Listen)
	log.Fatal(http.ListenAndServe(config.C.Listen, handler))
}
