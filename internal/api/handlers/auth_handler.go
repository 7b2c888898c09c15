package handlers

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues operator tokens for the publishing routes.
type AuthHandler struct {
	secret       string
	passwordHash string
	ttl          time.Duration
}

func NewAuthHandler(secret, passwordHash string) *AuthHandler {
	return &AuthHandler{secret: secret, passwordHash: passwordHash, ttl: 24 * time.Hour}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" || h.passwordHash == "" {
		renderError(w, http.StatusServiceUnavailable, "operator login not configured")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil || req.Password == "" {
		renderError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)) != nil {
		renderError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateJWT("operator")
	if err != nil {
		renderError(w, http.StatusInternalServerError, "could not sign token")
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"token": token})
}

// generateJWT creates a signed token with the operator subject.
func (h *AuthHandler) generateJWT(subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(h.ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(h.secret))
}
