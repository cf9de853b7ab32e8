// Package logger provides the structured logging interface used throughout energystats.
//
// It wraps zerolog behind a small Logger interface so that packages can log
// with fields without depending on zerolog directly, and so tests can swap in
// a TestLogger that records every message.
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("vendor", "octopus").Info("Export starting")
//
//	log := logger.GetLogger().WithField("component", "resolver")
//	log.DebugWithFields("Partition scanned", map[string]interface{}{
//	    "dir":     "2023/12/01",
//	    "entries": 2,
//	})
//
// With no log file configured output goes to a colourised console writer on
// stderr, leaving stdout free for command output. With a file configured,
// JSON lines are appended to the file and mirrored to the console.
package logger
