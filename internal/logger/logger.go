package logger

import (
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

// Setup initializes Logrus with a rotating log file. When LOG_FILE is
// unset, logs go to stderr instead (containerized deployments).
func Setup() {
	logFile := os.Getenv("LOG_FILE")
	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 7,  // keep up to 7 old files
			MaxAge:     7,  // days
			Compress:   true,
		}
		logrus.SetOutput(rotator)
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	if os.Getenv("LOG_DEBUG") != "" {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
