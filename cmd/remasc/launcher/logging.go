package launcher

import (
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// sentryLevels are the levels reported to Sentry.
var sentryLevels = []logrus.Level{
	logrus.PanicLevel,
	logrus.FatalLevel,
	logrus.ErrorLevel,
}

// setupLogging builds the operator logger and routes the library loggers
// (go-ethereum log, used by the engine) into it.
func setupLogging(cfg LoggingConfig, name string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(logrusLevel(cfg.Verbosity))

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   cfg.Color,
			DisableColors: !cfg.Color,
		})
	default:
		return nil, fmt.Errorf("unknown log format: %q (valid: text, json)", cfg.Format)
	}

	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, sentryLevels)
		if err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
		hook.Timeout = 5 * time.Second
		hook.StacktraceConfiguration.Enable = true
		logger.AddHook(hook)
	}

	entry := logger.WithField("instance", name)
	log.Root().SetHandler(log.LvlFilterHandler(gethLevel(cfg.Verbosity), log.FuncHandler(func(r *log.Record) error {
		forward(entry, r)
		return nil
	})))
	return logger, nil
}

// forward writes a go-ethereum log record to logrus.
func forward(entry *logrus.Entry, r *log.Record) {
	fields := make(logrus.Fields, len(r.Ctx)/2)
	for i := 0; i+1 < len(r.Ctx); i += 2 {
		fields[fmt.Sprint(r.Ctx[i])] = r.Ctx[i+1]
	}
	e := entry.WithFields(fields).WithTime(r.Time)

	switch r.Lvl {
	case log.LvlCrit, log.LvlError:
		e.Error(r.Msg)
	case log.LvlWarn:
		e.Warn(r.Msg)
	case log.LvlInfo:
		e.Info(r.Msg)
	case log.LvlDebug:
		e.Debug(r.Msg)
	default:
		e.Trace(r.Msg)
	}
}

// logrusLevel maps a verbosity (0=fatal ... 5=trace) to a logrus level.
func logrusLevel(verbosity int) logrus.Level {
	switch {
	case verbosity <= 0:
		return logrus.FatalLevel
	case verbosity >= 5:
		return logrus.TraceLevel
	default:
		return logrus.Level(verbosity + 1)
	}
}

// gethLevel maps a verbosity to a go-ethereum log level.
func gethLevel(verbosity int) log.Lvl {
	switch {
	case verbosity <= 0:
		return log.LvlCrit
	case verbosity >= 5:
		return log.LvlTrace
	default:
		return log.Lvl(verbosity)
	}
}
