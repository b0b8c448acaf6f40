package service

import (
	"errors"
	"fmt"

	"skillwise/internal/common"
)

// wrapErr returns client-facing errors unchanged and adds context to the rest.
func wrapErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	switch common.KindOf(err) {
	case common.KindValidation, common.KindNotFound, common.KindDuplicate,
		common.KindPrecondition, common.KindAuth, common.KindForbidden:
		return err
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func errGoalNotFound(goalID int64) error {
	return fmt.Errorf("goal %d not found: %w", goalID, common.ErrNotFound)
}

func errChallengeNotFound(challengeID int64) error {
	return fmt.Errorf("challenge %d not found: %w", challengeID, common.ErrNotFound)
}

// notFoundAs replaces a repository not-found error with a specific one.
func notFoundAs(err error, replacement error) error {
	if errors.Is(err, common.ErrNotFound) {
		return replacement
	}
	return err
}

func errUserNotFound(userID int64) error {
	return fmt.Errorf("user %d not found: %w", userID, common.ErrNotFound)
}
