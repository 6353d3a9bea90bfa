package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"salud-backend/backend/config"
	"salud-backend/backend/database"
	"salud-backend/backend/models"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

var Store = sessions.NewCookieStore([]byte("super-secret-key-change-in-prod"))

// InitSession configures the session store with secret and timeout from config.
func InitSession() error {
	if config.C.Session.Secret != "" {
		Store = sessions.NewCookieStore([]byte(config.C.Session.Secret))
	}
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(config.C.Session.Timeout.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	var user models.Usuario
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		slog.Warn("Token inválido: usuario no encontrado", "email", req.Email)
		respondError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		slog.Warn("Token inválido: contraseña incorrecta", "email", req.Email)
		respondError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	session, _ := Store.Get(r, "session")
	session.Values["user_id"] = user.ID
	session.Values["email"] = user.Email
	session.Save(r, w)

	slog.Info("Usuario autenticado", "user_id", user.ID, "email", req.Email)

	respondData(w, http.StatusOK, map[string]any{"usuario": user})
}

func Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := Store.Get(r, "session")
	userID, _ := session.Values["user_id"].(uint)
	slog.Info("Usuario desconectado", "user_id", userID)

	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	session.Save(r, w)

	respondMessage(w, http.StatusOK, "Sesión cerrada correctamente")
}

func Perfil(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "No autenticado")
		return
	}
	respondData(w, http.StatusOK, user)
}

// GetCurrentUser is a variable to allow mocking in tests
var GetCurrentUser = func(r *http.Request) *models.Usuario {
	session, err := Store.Get(r, "session")
	if err != nil {
		return nil
	}
	userID, ok := session.Values["user_id"].(uint)
	if !ok {
		return nil
	}
	var user models.Usuario
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil
	}
	return &user
}
