package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

// classify wraps err with the store sentinel that matches its Postgres
// error code, so callers can decide on retries without importing pq.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	if sentinel := sentinelFor(err); sentinel != nil {
		return fmt.Errorf("%s: %w: %w", op, sentinel, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sentinelFor(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505": // unique_violation
			return store.ErrDuplicate
		case pqErr.Code == "40001", // serialization_failure
			pqErr.Code == "40P01", // deadlock_detected
			pqErr.Code == "55P03", // lock_not_available
			pqErr.Code == "57014", // query_canceled
			pqErr.Code == "53300", // too_many_connections
			strings.HasPrefix(string(pqErr.Code), "08"):
			return store.ErrTransient
		}
		return nil
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return store.ErrTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return store.ErrTransient
	}
	return nil
}
