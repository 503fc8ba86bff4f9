// Package log is a small wrapper around the standard library logger that gives
// every component of the directory a named logger.
//
// Key Features
//
//   - Per service loggers via ForService(name)
//   - Automatic prefix in every line: `[name>]` (example: `[warehouse>] loaded 412 providers`)
//   - Level helpers: Infof, Warnf, Errorf, Debugf
//   - Debug logging enabled globally (SetGlobalDebug) or per service
//     (EnableDebugFor / DisableDebugFor)
//   - Level tags styled with lipgloss when writing to a terminal
//   - Central output writer (SetOutput) that updates existing loggers
//
// Basic Usage
//
//	l := log.ForService("warehouse")
//	l.Infof("loaded %d providers", n)
//	l.Warnf("source unreachable, serving snapshot %s", id)
//	l.Debugf("raw header: %v", header) // only prints if debug is enabled
//
// The package name collides with the standard library "log". Alias one of
// them when both are needed:
//
//	import (
//		stdlog "log"
//
//		"github.com/rubiojr/carefinder/pkg/log"
//	)
package log
