// Package logctx is a small per-subsystem logger registry, the same
// UseLogger-per-package pattern the dcrd/EXCCoin family of repos in
// the retrieval pack uses: each package asks for a short subsystem
// tag (CHSR, DLMG, FNOD) and gets back a github.com/decred/slog
// logger whose level and backend are set for all subsystems at once
// through SetLevel and SetBackend.
package logctx

import (
	"os"
	"sync"

	"github.com/decred/slog"
)

// Logger is the narrow logging surface the rest of the module logs
// through; it is an alias of the slog.Logger interface.
type Logger = slog.Logger

var (
	mu        sync.Mutex
	backend   = slog.NewBackend(os.Stdout)
	registry  = make(map[string]Logger)
	defLevel  = slog.LevelInfo
)

// Get returns the logger tagged with subsystem, creating it (at the
// process-wide default level) on first use.
func Get(subsystem string) Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := registry[subsystem]; ok {
		return l
	}
	l := backend.Logger(subsystem)
	l.SetLevel(defLevel)
	registry[subsystem] = l
	return l
}

// SetLevel changes the level of every logger created so far, plus the
// default applied to loggers created afterwards -- the single knob
// cmd/fullnoded's --debuglevel flag drives.
func SetLevel(level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	defLevel = level
	for _, l := range registry {
		l.SetLevel(level)
	}
}

// SetBackend redirects every future Get call at a new
// io.Writer-backed slog.Backend by replacing the registry's loggers;
// a logger already handed out keeps writing to the old backend. Used
// by cmd/fullnoded to add a rotating log file before any logger is
// obtained.
func SetBackend(b *slog.Backend) {
	mu.Lock()
	defer mu.Unlock()
	backend = b
	for subsystem := range registry {
		l := backend.Logger(subsystem)
		l.SetLevel(defLevel)
		registry[subsystem] = l
	}
}
