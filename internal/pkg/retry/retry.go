// Package retry retries connection attempts at startup.
package retry

import (
	"fmt"
	"time"
)

// Connect calls connect until it succeeds or maxRetries attempts have failed
func Connect[T any](name string, maxRetries int, retryDelay time.Duration, connect func() (T, error)) (T, error) {
	var (
		conn T
		err  error
	)

	for i := 0; i < maxRetries; i++ {
		conn, err = connect()
		if err == nil {
			return conn, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	var zero T
	return zero, fmt.Errorf("failed to connect to %s after %d retries: %w", name, maxRetries, err)
}
