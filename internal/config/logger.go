package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logg = newLogger("info", "json")

func GetLogger() *logrus.Logger {
	return logg
}

// ConfigureLogger applies LOG_LEVEL / LOG_FORMAT to the shared logger.
func ConfigureLogger(env Env) *logrus.Logger {
	logg = newLogger(env.LogLevel, env.LogFormat)
	return logg
}

func newLogger(level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

func LogError(logger *logrus.Logger, moduleName, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
