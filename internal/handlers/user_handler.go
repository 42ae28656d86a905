package handlers

import (
	"errors"
	"net/http"

	"github.com/connecthub/connecthub/internal/config"
	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/services"
	jwtutil "github.com/connecthub/connecthub/pkg/jwt"
	"github.com/connecthub/connecthub/pkg/logger"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles HTTP requests for accounts and profiles.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
	Uploads *Uploads
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, cfg *config.Config, uploads *Uploads) *UserHandler {
	return &UserHandler{
		Service: service,
		Config:  cfg,
		Uploads: uploads,
	}
}

// authResponse issues a token for user and writes {token, user}.
func (h *UserHandler) authResponse(w http.ResponseWriter, status int, user *models.User) {
	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.Config.TokenExpiry.Seconds()),
	})
	respond(w, status, envelope{"token": token, "user": user})
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg services.Registration
	if !decodeJSON(w, r, &reg) {
		return
	}

	user, err := h.Service.RegisterUser(r.Context(), reg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.WithField("userID", user.ID.Hex()).Info("User registered successfully")
	h.authResponse(w, http.StatusCreated, user)
}

// LoginUserHandler handles user login.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &credentials) {
		return
	}

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		log.WithFields(log.Fields{
			"email": credentials.Email,
			"error": err,
		}).Warn("Authentication failed")
		writeServiceError(w, r, err)
		return
	}

	h.authResponse(w, http.StatusOK, user)
}

// MeHandler returns the authenticated user.
func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, user)
}

// GetProfileHandler returns the public profile of {username}.
func (h *UserHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Service.GetProfile(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, profile)
}

// UpdateProfileHandler applies a partial update to the user's own profile.
func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var update models.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	user, err := h.Service.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.WithField("userID", userID.Hex()).Info("Profile updated")
	respond(w, http.StatusOK, user)
}

// UploadProfilePictureHandler stores a new profile picture from the
// multipart field "profilePicture".
func (h *UserHandler) UploadProfilePictureHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "File too big or invalid format")
		return
	}

	path, err := h.Uploads.formImage(r, "profilePicture")
	if errors.Is(err, errBadImage) {
		writeError(w, http.StatusBadRequest, errBadImage.Error())
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("Failed to store profile picture")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if path == "" {
		writeError(w, http.StatusBadRequest, "Missing file in request")
		return
	}

	user, err := h.Service.SetProfilePicture(r.Context(), userID, path)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, user)
}
