// README: Global zerolog setup; level and format come from config.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var once sync.Once

// Init configures the global logger once. Console output is used for the
// local environment, JSON everywhere else.
func Init(appName, env, level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	once.Do(func() {
		zerolog.SetGlobalLevel(lvl)
		var out io.Writer = os.Stdout
		if env == "" || env == "local" {
			out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "02-01-2006 15:04:05.000"}
		}
		log.Logger = zerolog.New(out).With().
			Timestamp().
			Caller().
			Str("applicationName", appName).
			Logger()
	})
	return nil
}

// ParseLevel accepts zerolog level names in any case; empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
