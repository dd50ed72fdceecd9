// Package mocks provides mock implementations for testing the postcard
// fulfillment pipeline.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core port interfaces. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockJobStore(ctrl)
//	store.EXPECT().FetchDueJobs(gomock.Any(), gomock.Any(), gomock.Any()).Return(jobs, nil)
package mocks

// Generate mock for JobStore interface from internal/core package.
// This creates MockJobStore with methods for all JobStore interface methods:
// FetchDueJobs, Transition, MarkNotified
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_store_mock.go github.com/ScoeScoe/POSTANOS/internal/core JobStore

// Generate mock for JobProcessor interface from internal/core package.
// This creates MockJobProcessor with methods for all JobProcessor interface methods:
// Process
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_processor_mock.go github.com/ScoeScoe/POSTANOS/internal/core JobProcessor

// Generate mock for StaleJobSweeper interface from internal/core package.
// This creates MockStaleJobSweeper with methods for all StaleJobSweeper interface methods:
// FailStaleProcessingJobs
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=stale_job_sweeper_mock.go github.com/ScoeScoe/POSTANOS/internal/core StaleJobSweeper
