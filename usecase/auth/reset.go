package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase"
)

const resetSubject = "Password Reset for Your To-Do App"

// ConfirmResetInput is the payload of ConfirmPasswordReset.
type ConfirmResetInput struct {
	UID          string
	Token        string
	NewPassword1 string
	NewPassword2 string
}

// RequestPasswordReset emails a reset link to a registered address. Unknown
// addresses yield ErrUserNotFound. Delivery problems are logged and never
// returned.
func (uc *UseCase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}

	resetToken, err := uc.tokens.IssueReset(user.ID, user.PasswordHash)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/password-reset-confirm/%s/%s/", uc.cfg.FrontendURL, EncodeUID(user.ID), resetToken)
	body := fmt.Sprintf("Hello,\n\nPlease click the link to reset your password:\n%s\n\nThanks,\nThe To-Do App Team", link)

	if uc.mail == nil {
		uc.logger.Warn("no mail queue configured, reset email dropped", zap.Int64("user_id", user.ID))
		return nil
	}
	if err := uc.mail.QueueEmail(ctx, usecase.Email{To: user.Email, Subject: resetSubject, Body: body}); err != nil {
		uc.logger.Warn("failed to queue password reset email", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ConfirmPasswordReset sets a new password when uid and token agree with the
// user's current state. Success changes the hash, which voids the token.
func (uc *UseCase) ConfirmPasswordReset(ctx context.Context, in ConfirmResetInput) error {
	userID, err := DecodeUID(in.UID)
	if err != nil {
		return domain.ErrInvalidResetLink
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetLink
		}
		return err
	}

	if err := uc.tokens.VerifyReset(in.Token, user.ID, user.PasswordHash); err != nil {
		return domain.ErrInvalidResetLink
	}
	if in.NewPassword1 != in.NewPassword2 {
		return domain.ErrPasswordMismatch
	}
	if err := validatePassword(in.NewPassword1); err != nil {
		return err
	}

	hash, err := uc.hasher.Hash(in.NewPassword1)
	if err != nil {
		return err
	}
	if err := uc.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	uc.logger.Info("password reset", zap.Int64("user_id", user.ID))
	return nil
}

// EncodeUID renders a user id for reset links.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid uid")
	}
	return id, nil
}
