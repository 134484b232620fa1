package service

import (
	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
)

func asServiceError(err error) error {
	if err == nil {
		return nil
	}
	if commonerrors.IsDomainError(err) {
		return err
	}
	return commonerrors.ErrInternalError.WithCause(err)
}
