package api

import (
	"net/http"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	user, err := s.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err, "register user")
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	session, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err, "log in")
		return
	}

	s.respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.GetSettings(r.Context(), currentUser(r))
	if err != nil {
		s.respondServiceError(w, r, err, "get settings")
		return
	}

	s.respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	var req updateNameRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.UpdateName(r.Context(), currentUser(r), req.Name); err != nil {
		s.respondServiceError(w, r, err, "update name")
		return
	}

	s.respondJSON(w, http.StatusOK, messageResponse{Message: "name updated"})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.UpdateSettings(r.Context(), currentUser(r), req.Language, req.Currency); err != nil {
		s.respondServiceError(w, r, err, "update settings")
		return
	}

	s.respondJSON(w, http.StatusOK, messageResponse{Message: "settings updated"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.DeleteAccount(r.Context(), currentUser(r), req.Password); err != nil {
		s.respondServiceError(w, r, err, "delete account")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}
