package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/danmaku-system/webclient/pkg/apierr"
	"github.com/danmaku-system/webclient/pkg/logger"
)

// CheckUsername asks whether a username is still free.
// The returned error carries a message suitable for display.
func (s *Store) CheckUsername(ctx context.Context, username string) (UsernameCheck, error) {
	username = normalizeUsername(username)
	resp, err := s.client.Do(ctx, http.MethodPost, s.paths.CheckUsername, map[string]string{"username": username})
	if err != nil {
		s.logger.WarnContext(ctx, apierr.MsgUsernameCheckFailed,
			logger.Operation("check_username"),
			logger.Error(err),
		)
		return UsernameCheck{}, fmt.Errorf("%w: %s", ErrUsernameCheckFailed, apierr.MsgConnectivity)
	}

	var body struct {
		Available *bool  `json:"available"`
		Message   string `json:"message"`
	}
	if !resp.OK() || resp.Decode(&body) != nil || body.Available == nil {
		msg := failureMessage(resp, apierr.MsgUsernameCheckFailed)
		return UsernameCheck{}, fmt.Errorf("%w: %s", ErrUsernameCheckFailed, msg)
	}

	return UsernameCheck{Available: *body.Available, Message: body.Message}, nil
}

// RequestPasswordReset starts a reset for the account with this email.
// The server answers the same way whether or not the account exists.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) Result {
	body := map[string]string{"email": strings.TrimSpace(email)}
	return s.simpleResult(ctx, "password_reset", s.paths.PasswordReset, body)
}

// ConfirmPasswordReset sets a new password using the emailed uid and token
func (s *Store) ConfirmPasswordReset(ctx context.Context, confirm PasswordResetConfirm) Result {
	return s.simpleResult(ctx, "password_reset_confirm", s.paths.PasswordResetConfirm, confirm)
}

// simpleResult posts body and maps the answer without touching the session
func (s *Store) simpleResult(ctx context.Context, op, path string, body any) Result {
	resp, err := s.client.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		s.logger.WarnContext(ctx, apierr.MsgPasswordResetFailed,
			logger.Operation(op),
			logger.Error(err),
		)
		return Result{Error: apierr.MsgConnectivity}
	}

	env := decodeEnvelope(resp)
	if resp.OK() && env.Status != "error" {
		return Result{Success: true, Message: env.Message}
	}

	s.logger.InfoContext(ctx, apierr.MsgPasswordResetFailed,
		logger.Operation(op),
		logger.Status(resp.StatusCode),
	)
	return Result{
		Error:   failureMessage(resp, apierr.MsgPasswordResetFailed),
		Details: env.Details,
	}
}

// normalizeUsername applies the NFKC folding the server uses
func normalizeUsername(username string) string {
	return norm.NFKC.String(strings.TrimSpace(username))
}
