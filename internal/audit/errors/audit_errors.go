package auditerrors

import (
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrMissingActor = apperror.New(
		apperror.CodeInvalidInput,
		"audit entries require an authenticated actor",
		http.StatusBadRequest,
	)
	ErrMissingAction = apperror.New(
		apperror.CodeInvalidInput,
		"audit action is required",
		http.StatusBadRequest,
	)
	ErrInvalidActorFilter = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id filter",
		http.StatusBadRequest,
	)
	ErrInvalidDateFilter = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date filter, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
)
