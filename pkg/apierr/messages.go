package apierr

// User-facing messages shared by the session operations.
const (
	MsgConnectivity        = "request failed, check connectivity"
	MsgUnexpected          = "unexpected error"
	MsgLoginFailed         = "login failed"
	MsgLockout             = "too many login attempts, please try again later"
	MsgRegisterFailed      = "registration failed, please try again later"
	MsgUpdateFailed        = "profile update failed"
	MsgLogoutFailed        = "logout failed, local session cleared"
	MsgPasswordResetFailed = "password reset failed"
	MsgUsernameCheckFailed = "username check failed"
)
