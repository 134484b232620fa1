package domain

import (
	"net/http"

	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
)

var (
	ErrCardNotFound = commonerrors.NewDomainError(
		"CARD_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"card not found",
	)

	ErrCardEmailTaken = commonerrors.NewDomainError(
		"CARD_EMAIL_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"a card with this email already exists",
	)
)
