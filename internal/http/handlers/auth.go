package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-news-cms/internal/errors"
	"github.com/pribylovaa/go-news-cms/internal/models"
)

// RegisterUser — POST /api/register. Тело: {"email","password"}.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	if _, err := h.Auth.RegisterUser(r.Context(), creds.Email, creds.Password); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.StatusResponse{Status: "User registered"})
}

// LoginUser — POST /api/login; в ответе токен и момент его истечения.
func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	issued, err := h.Auth.LoginUser(r.Context(), creds.Email, creds.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

// readCredentials сам отвечает ошибкой, если тело не разобралось.
func readCredentials(w http.ResponseWriter, r *http.Request) (models.AuthRequest, bool) {
	var creds models.AuthRequest
	if err := decodeStrict(r, &creds); err != nil {
		apierrors.WriteError(w, r, err)
		return creds, false
	}
	return creds, true
}
