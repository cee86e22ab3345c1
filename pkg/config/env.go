package config

import (
	"os"
	"strings"
)

// LookupFunc matches the signature of os.LookupEnv
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides s with any environment variables named after the
// upper-cased settings keys (APP_NAME, PORT, CORS_ORIGINS, ...).
// A nil lookup uses os.LookupEnv.
func ApplyEnv(s *Settings, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, f := range fields {
		v, ok := lookup(strings.ToUpper(f.key))
		if !ok {
			continue
		}
		if err := setValue(s, f.key, v); err != nil {
			return err
		}
	}
	return nil
}
