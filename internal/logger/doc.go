// Package logger provides a simple, thread-safe leveled logger.
//
// Each entry carries a timestamp, a level and an optional component name
// ("pool", "bench", "api"):
//
//	[2026-01-02 15:04:05.000] [INFO] [pool] started 8 workers
//
// # Basic Usage
//
//	logger.Error("", "fatal: %v", err)
//
//	log := logger.For("pool").Named("search")
//	log.Debug("queue depth %d", n) // [pool/search]
//
// Each entry is formatted into a reused buffer and written with a single
// Write call, so concurrent loggers sharing one writer never interleave.
//
// # Log Levels
//
// Messages below the configured level are dropped. ParseLevel maps the
// strings accepted by the -log-level flag and the config file ("debug",
// "info", "warn", "error") to a Level.
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
package logger
