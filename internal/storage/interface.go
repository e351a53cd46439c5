// Package storage defines interfaces and implementations for sweep result storage backends.
package storage

import (
	"context"
	"sync"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- Run
	Close() error
}

// RunStorer persists one run
type RunStorer interface {
	StoreRun(ctx context.Context, r Run) error
}

// HealthChecker is implemented by engines that can report on their backend
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}
