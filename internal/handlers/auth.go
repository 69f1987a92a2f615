package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/friendstransport/fleetgo/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login checks employee credentials and issues a token
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := decode(req, &loginReq); err != nil {
		respondError(w, req, err)
		return
	}
	username := strings.TrimSpace(loginReq.Username)
	if username == "" || loginReq.Password == "" {
		respondError(w, req, apperr.Validation("username and password are required"))
		return
	}

	var emp *models.Employee
	err := r.store.WithTx(req.Context(), func(tx store.Tx) error {
		var err error
		emp, err = tx.Employees().FindByUsername(username)
		return err
	})
	if apperr.Is(err, apperr.KindNotFound) {
		respondError(w, req, apperr.Unauthorized("invalid credentials"))
		return
	}
	if err != nil {
		respondError(w, req, err)
		return
	}

	if !utils.CheckPasswordHash(loginReq.Password, emp.Password) {
		respondError(w, req, apperr.Unauthorized("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(emp, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, req, apperr.Unavailable(err))
		return
	}

	log.Printf("🔑 Employee %s logged in", emp.Username)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":    token,
		"employee": emp,
	})
}

// BootstrapAdmin creates an admin account when none with that username exists.
// It reports whether an account was created.
func BootstrapAdmin(ctx context.Context, s store.Store, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, err
	}

	created := false
	err = s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Employees().FindByUsername(username)
		if err == nil {
			return nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		created = true
		return tx.Employees().Create(&models.Employee{
			Username: username,
			Password: hash,
			Name:     username,
			Role:     models.RoleAdmin,
		})
	})
	if err != nil {
		return false, err
	}
	if created {
		log.Printf("👤 Admin account %s created", username)
	}
	return created, nil
}
