package http

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
)

// ValidateUUID checks a path identifier before it reaches storage.
func ValidateUUID(s string) error {
	if strings.TrimSpace(s) == "" {
		return commonerrors.ErrInvalidID.WithCause(errors.New("empty id"))
	}
	if _, err := uuid.Parse(s); err != nil {
		return commonerrors.ErrInvalidID.WithCause(err)
	}
	return nil
}
