package config

import (
	"errors"
	"io/fs"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/codesleeps/palmers/internal/timex"
	"github.com/joho/godotenv"
)

// dotEnvFile is loaded, when present, before the environment is read.
// Variables already set in the process environment take precedence.
var dotEnvFile = ".env"

// parseEnv overlays environment variables onto config. Unset variables leave
// the current value untouched. Durations accept the "7d" day form as well as
// Go duration strings.
func parseEnv(config *Config) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return env.ParseWithOptions(config, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): func(v string) (any, error) {
				return timex.ParseDuration(v)
			},
		},
	})
}
