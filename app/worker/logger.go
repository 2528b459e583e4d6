package worker

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"call-flow-processor/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a per-worker logger writing to both stdout and a
// rotating file under the configured log directory.
func NewLogger(cfg config.LoggingConfig, workerID string) *log.Logger {
	if cfg.Dir == "" {
		return log.New(os.Stdout, "worker "+workerID+" ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, workerID+".log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	mw := io.MultiWriter(os.Stdout, rotator)
	// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
	return log.New(mw, "worker "+workerID+" ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}
