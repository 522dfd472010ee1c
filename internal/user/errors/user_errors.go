package usererrors

import (
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrUsernameTaken = apperror.New(
		apperror.CodeConflict,
		"username is already taken",
		http.StatusConflict,
	)
	ErrEmailTaken = apperror.New(
		apperror.CodeConflict,
		"email is already registered",
		http.StatusConflict,
	)
	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"role must be one of admin, manager, employee",
		http.StatusBadRequest,
	)
	ErrInvalidManagerID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid manager id",
		http.StatusBadRequest,
	)
	ErrManagerNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"manager does not exist or is not active",
		http.StatusBadRequest,
	)
	ErrManagerNotManager = apperror.New(
		apperror.CodeInvalidInput,
		"manager_id must reference a user with the manager role",
		http.StatusBadRequest,
	)
	ErrManagerCycle = apperror.New(
		apperror.CodeInvalidInput,
		"manager assignment would create a cycle in the reporting chain",
		http.StatusBadRequest,
	)
	ErrManagerHasReports = apperror.New(
		apperror.CodeInvalidState,
		"manager still has active reports; reassign them before deactivating",
		http.StatusConflict,
	)
	ErrCannotDeactivateSelf = apperror.New(
		apperror.CodeInvalidState,
		"you cannot deactivate your own account",
		http.StatusConflict,
	)
)
