package auth

// Result is the outcome of a session operation
type Result struct {
	Success bool
	User    *User
	Message string
	Error   string
	Details []string
}

// LoginResult adds the login-specific lockout signals
type LoginResult struct {
	Result
	Lockout      bool
	AttemptsLeft *int
}

// UsernameCheck is the answer of the username availability endpoint
type UsernameCheck struct {
	Available bool
	Message   string
}

// Credentials are sent to the login endpoint
type Credentials struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// Registration is sent to the register endpoint
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ProfileUpdate is a partial profile; nil fields are not sent
type ProfileUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// PasswordResetConfirm completes a password reset
type PasswordResetConfirm struct {
	UID       string `json:"uid"`
	Token     string `json:"token"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}
