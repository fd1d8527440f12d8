package service

import (
	"errors"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

// storeErr maps store sentinels onto caller-facing error kinds. Errors that
// already carry a kind pass through unchanged.
func storeErr(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, store.ErrTransient):
		return apperr.Wrap(apperr.KindTransient, err, "store temporarily unavailable, retry the request")
	case errors.Is(err, store.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "%s", notFound)
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Wrap(apperr.KindAlreadyExists, err, "record already exists")
	default:
		return apperr.Wrap(apperr.KindInternal, err, "internal error")
	}
}
