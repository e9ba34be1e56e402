package main

import (
	"io"
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate"

	"github.com/coredag/fullnode/internal/logctx"
)

// setLogLevel parses --debuglevel and, if the log file fullnoded.log
// can be opened in the current working directory, redirects every
// subsystem logger obtained afterwards through
// a rotating file writer (github.com/jrick/logrotate) in addition to
// stdout -- the same split EXCCoin-exccd's node binary uses.
func setLogLevel(level string) {
	l, ok := slog.LevelFromString(level)
	if !ok {
		l = slog.LevelInfo
	}
	logctx.SetLevel(l)

	rotator, err := logrotate.NewRotator(32*1024*1024, "fullnoded.log")
	if err != nil {
		return
	}
	logctx.SetBackend(slog.NewBackend(io.MultiWriter(os.Stdout, rotator)))
}
