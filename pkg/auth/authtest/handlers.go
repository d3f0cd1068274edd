package authtest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func readJSON(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func (a *Account) payload() map[string]any {
	return map[string]any{
		"id":          a.ID,
		"username":    a.Username,
		"email":       a.Email,
		"first_name":  a.FirstName,
		"last_name":   a.LastName,
		"is_staff":    a.IsStaff,
		"date_joined": a.DateJoined.Format(time.RFC3339),
	}
}

// sessionAccount returns the logged-in account; s.mu must be held
func (s *Server) sessionAccount(r *http.Request) *Account {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	username, ok := s.sessions[c.Value]
	if !ok {
		return nil
	}
	return s.accounts[username]
}

// startSession logs acc in; s.mu must be held
func (s *Server) startSession(w http.ResponseWriter, acc *Account, remember bool) {
	id := uuid.NewString()
	s.sessions[id] = acc.Username

	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		c.MaxAge = int(RememberMaxAge / time.Second)
	}
	http.SetCookie(w, c)
}

func (s *Server) csrfToken(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CSRFCookie); err != nil || c.Value == "" {
		http.SetCookie(w, &http.Cookie{
			Name:     CSRFCookie,
			Value:    strings.ReplaceAll(uuid.NewString(), "-", ""),
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour) / time.Second),
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "CSRF cookie set", "status": "success"})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acc := s.sessionAccount(r)
	var user map[string]any
	if acc != nil {
		user = acc.payload()
	}
	s.mu.Unlock()

	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil, "authenticated": false, "status": "success"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "authenticated": true, "status": "success"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}
	if !readJSON(r, &req) || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Username and password are required.", "status": "error"})
		return
	}

	ip := clientIP(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	attempts := s.attempts[ip]
	if attempts >= MaxAttempts {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":   "Too many login attempts, try again later.",
			"lockout": true,
			"status":  "error",
		})
		return
	}

	acc, ok := s.accounts[req.Username]
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		attempts++
		s.attempts[ip] = attempts
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":         "Invalid username or password.",
			"attempts_left": MaxAttempts - attempts,
			"status":        "error",
		})
		return
	}

	delete(s.attempts, ip)
	s.startSession(w, acc, req.RememberMe)
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.payload(), "message": "Logged in.", "status": "success"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if !readJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"non_field_errors": "Invalid request body."}, "status": "error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields := map[string]string{}
	switch {
	case req.Username == "":
		fields["username"] = "This field is required."
	case s.accounts[req.Username] != nil:
		fields["username"] = "A user with that username already exists."
	}
	if !strings.Contains(req.Email, "@") {
		fields["email"] = "Enter a valid email address."
	}
	switch {
	case len(req.Password) < minPasswordLength:
		fields["password"] = "This password is too short. It must contain at least 8 characters."
	case req.Password != req.Password2:
		fields["password"] = "Password fields didn't match."
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": fields, "status": "error"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "status": "error"})
		return
	}
	s.addLocked(Account{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, hash)
	acc := s.accounts[req.Username]

	delete(s.attempts, clientIP(r))
	s.startSession(w, acc, false)
	writeJSON(w, http.StatusCreated, map[string]any{"user": acc.payload(), "message": "Registered and logged in.", "status": "success"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out.", "status": "success"})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.sessionAccount(r)
	if acc == nil {
		writeJSON(w, http.StatusForbidden, map[string]any{"detail": "Authentication credentials were not provided."})
		return
	}
	if !readJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"non_field_errors": []string{"Invalid request body."}}, "status": "error"})
		return
	}
	if req.Email != nil && !strings.Contains(*req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"email": []string{"Enter a valid email address."}}, "status": "error"})
		return
	}

	if req.Email != nil {
		acc.Email = *req.Email
	}
	if req.FirstName != nil {
		acc.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		acc.LastName = *req.LastName
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.payload(), "message": "Profile updated.", "status": "success"})
}

func (s *Server) checkUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	_ = readJSON(r, &req)
	if req.Username == "" {
		writeJSON(w, http.StatusOK, map[string]any{"available": false, "message": "Username must not be empty.", "status": "error"})
		return
	}

	s.mu.Lock()
	_, taken := s.accounts[req.Username]
	s.mu.Unlock()

	if taken {
		writeJSON(w, http.StatusOK, map[string]any{"available": false, "message": "Username is taken.", "status": "error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true, "message": "Username is available.", "status": "success"})
}

// ResetLink returns the uid and token a reset request issued for username
func (s *Server) ResetLink(username string) (uid, token string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.accounts[username]
	if !found {
		return "", "", false
	}
	uid = encodeUID(acc.ID)
	token, ok = s.resets[uid]
	return uid, token, ok
}

func encodeUID(id int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(id)))
}

func (s *Server) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !readJSON(r, &req) || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Email address is required.", "status": "error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if !strings.EqualFold(acc.Email, req.Email) {
			continue
		}
		uid := encodeUID(acc.ID)
		token := uuid.NewString()
		s.resets[uid] = token
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "A password reset link has been sent to your email.",
			"reset_url": "/reset-password?uid=" + uid + "&token=" + token,
			"status":    "success",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "If the email is registered, a password reset link has been sent.",
		"status":  "success",
	})
}

func (s *Server) passwordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID       string `json:"uid"`
		Token     string `json:"token"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
	}
	if !readJSON(r, &req) || req.UID == "" || req.Token == "" || req.Password == "" || req.Password2 == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "All fields are required.", "status": "error"})
		return
	}
	if req.Password != req.Password2 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Passwords do not match.", "status": "error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.resets[req.UID]; !ok || token != req.Token {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "The reset link is invalid or has expired.", "status": "error"})
		return
	}
	if len(req.Password) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Password does not meet the requirements.",
			"details": []string{"This password is too short. It must contain at least 8 characters."},
			"status":  "error",
		})
		return
	}

	for _, acc := range s.accounts {
		if encodeUID(acc.ID) != req.UID {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			break
		}
		acc.hash = hash
		delete(s.resets, req.UID)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Password has been reset, log in with the new password.", "status": "success"})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Failed to reset the password.", "status": "error"})
}
