// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/debtwise/debtwise/internal/auth"
	"github.com/debtwise/debtwise/internal/fault"
	"github.com/debtwise/debtwise/internal/requestid"
)

// registerRequest is the request body for POST /auth/register.
type registerRequest struct {
	Email         string   `json:"email" jsonschema:"format=email,minLength=3"`
	FirstName     string   `json:"firstName" jsonschema:"minLength=1"`
	LastName      string   `json:"lastName" jsonschema:"minLength=1"`
	Password      string   `json:"password" jsonschema:"minLength=8"`
	MonthlyIncome *float64 `json:"monthlyIncome,omitempty" jsonschema:"minimum=0"`
}

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email" jsonschema:"minLength=1"`
	Password string `json:"password" jsonschema:"minLength=1"`
}

// refreshRequest is the request body for POST /auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken" jsonschema:"minLength=1"`
}

var (
	registerSchema = mustSchema(&registerRequest{})
	loginSchema    = mustSchema(&loginRequest{})
	refreshSchema  = mustSchema(&refreshRequest{})
)

// handleRegister creates an account and returns the sanitized user plus a
// token pair.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeValid(r, registerSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.Register(r.Context(), auth.RegisterInput{
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Password:      req.Password,
		MonthlyIncome: req.MonthlyIncome,
	})
	s.recordAttempt("register", err == nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, session)
}

// handleLogin verifies credentials and returns a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeValid(r, loginSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	s.recordAttempt("login", err == nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, session)
}

// handleRefresh spends a refresh token for a brand-new pair.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeValid(r, refreshSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	s.recordAttempt("refresh", err == nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, pair)
}

// handleMe returns the authenticated user's sanitized record.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		s.writeError(w, r, oops.Code(fault.CodeInvalidToken).Errorf("no claims on request"))
		return
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		s.writeError(w, r, oops.Code(fault.CodeInvalidToken).
			With("operation", "parse subject").
			Wrap(err))
		return
	}

	user, err := s.auth.User(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) recordAttempt(operation string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(operation, success)
	}
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError classifies the failure and writes the canonical error
// envelope. The classifier decides the status, code, and message; handlers
// never do.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := s.classifier.Classify(err, fault.RequestMeta{
		Method:     r.Method,
		Path:       r.URL.Path,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		RequestID:  requestid.FromContext(r.Context()),
	})
	s.writeJSON(w, resp.StatusCode, resp)
}
