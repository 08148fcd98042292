// Package services holds the application layer between the transports
// (HTTP, websocket, CLI) and the ridership computations.
//
// # Components
//
//	- DatasetCache: loads the export once per (file identity, scope)
//	  fingerprint and shares the immutable data set across sessions.
//	- SessionStore: per-user sessions in a bounded LRU with sliding expiry.
//	- RidershipService: ranking and station queries, memoized per session.
//	- HealthService: liveness and readiness probes.
//
// Services take their collaborators through constructors and log with the
// injected *slog.Logger, falling back to slog.Default.
package services
