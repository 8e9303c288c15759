package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"kidcoins/internal/apperr"

	"github.com/sony/gobreaker"
)

// newBreaker trips after repeated storage connectivity failures. Business
// errors returned from a transaction do not count against it.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "database-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isConnectivityError(err)
		},
	})
}

func (db *DB) guard(fn func() error) error {
	_, err := db.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperr.Unavailable(err)
	}
	if isConnectivityError(err) && !apperr.Is(err, apperr.KindServiceUnavailable) {
		return apperr.Unavailable(err)
	}
	return err
}

// BreakerState reports the circuit breaker state for readiness checks
func (db *DB) BreakerState() gobreaker.State {
	return db.breaker.State()
}

func unavailable(err error) error {
	return apperr.Unavailable(err)
}

func isConnectivityError(err error) bool {
	if apperr.Is(err, apperr.KindServiceUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr)
}
