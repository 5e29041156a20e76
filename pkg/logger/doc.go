// Package logger provides a small factory around log/slog plus attribute
// helpers shared across the classtrack services.
//
// The factory covers the two formats the deployment targets care about: JSON
// for log aggregation in production and text for local development. Domain
// packages never construct loggers themselves; they accept a *slog.Logger
// through functional options and fall back to slog.Default().
//
// Usage:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "classtrack"),
//	)
//	logger.SetAsDefault(log)
//
// The attribute helpers (Error, UserID, CourseID, NotificationID, EventType)
// keep log field names consistent between the dispatch engine, the realtime
// layer and the HTTP handlers so records can be correlated downstream.
package logger
