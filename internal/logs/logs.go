package logs

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger — общий процессный логгер; настраивается один раз через Init.
var Logger = logrus.New()

type Options struct {
	Level  string
	Format string // "text" | "json"
	File   string // пусто — только stdout
}

func Init(o Options) {
	lvl, err := logrus.ParseLevel(o.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	switch o.Format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006/01/02 15:04:05",
		})
	}

	out := io.Writer(os.Stdout)
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			Logger.Warnf("log file %s: %v (stdout only)", o.File, err)
		} else {
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	Logger.SetOutput(out)
}
