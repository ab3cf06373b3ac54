package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// envFileVar overrides the --env flag when set, which keeps cron and
// systemd invocations free of extra flags.
const envFileVar = "ADWATCH_ENV_FILE"

// EnvLoader loads a .env file with a predictable override order.
type EnvLoader struct {
	value       *string
	defaultPath string
}

// AddEnvFlag registers an --env flag on the flag set and returns a loader
// for it.
func AddEnvFlag(fs *flag.FlagSet, defaultPath string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}

	value := fs.String("env", defaultPath, "Path to the .env file")
	return &EnvLoader{
		value:       value,
		defaultPath: defaultPath,
	}
}

// Load resolves and loads environment variables. A missing file is
// reported as an error but the process keeps whatever is already in the
// environment, so callers treat failures as warnings.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	if custom := strings.TrimSpace(os.Getenv(envFileVar)); custom != "" {
		if err := godotenv.Overload(custom); err != nil {
			return "", fmt.Errorf("load %s=%s: %w", envFileVar, custom, err)
		}
		return custom, nil
	}

	requested := l.defaultPath
	if l.value != nil && strings.TrimSpace(*l.value) != "" {
		requested = strings.TrimSpace(*l.value)
	}

	if err := godotenv.Overload(requested); err != nil {
		return "", fmt.Errorf("load env file %s: %w", requested, err)
	}
	return requested, nil
}
