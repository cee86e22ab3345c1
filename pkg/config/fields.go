package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// field binds a settings key to its parser. Keys are lower snake case;
// environment variables use the upper case form.
type field struct {
	key string
	get func(s *Settings) string
	set func(s *Settings, v string) error
}

var fields = []field{
	{
		key: "app_name",
		get: func(s *Settings) string { return s.AppName },
		set: func(s *Settings, v string) error { s.AppName = v; return nil },
	},
	{
		key: "app_version",
		get: func(s *Settings) string { return s.AppVersion },
		set: func(s *Settings, v string) error { s.AppVersion = v; return nil },
	},
	{
		key: "debug",
		get: func(s *Settings) string { return strconv.FormatBool(s.Debug) },
		set: func(s *Settings, v string) error { return parseBool(v, &s.Debug) },
	},
	{
		key: "host",
		get: func(s *Settings) string { return s.Host },
		set: func(s *Settings, v string) error { s.Host = v; return nil },
	},
	{
		key: "port",
		get: func(s *Settings) string { return strconv.Itoa(s.Port) },
		set: func(s *Settings, v string) error { return parseInt(v, &s.Port) },
	},
	{
		key: "cors_origins",
		get: func(s *Settings) string { return strings.Join(s.CORSOrigins, ",") },
		set: func(s *Settings, v string) (err error) {
			s.CORSOrigins, err = ParseOrigins(v)
			return err
		},
	},
	{
		key: "api_v1_prefix",
		get: func(s *Settings) string { return s.APIV1Prefix },
		set: func(s *Settings, v string) error { s.APIV1Prefix = v; return nil },
	},
	{
		key: "metrics_enabled",
		get: func(s *Settings) string { return strconv.FormatBool(s.MetricsEnabled) },
		set: func(s *Settings, v string) error { return parseBool(v, &s.MetricsEnabled) },
	},
	{
		key: "grpc_health",
		get: func(s *Settings) string { return strconv.FormatBool(s.GRPCHealth) },
		set: func(s *Settings, v string) error { return parseBool(v, &s.GRPCHealth) },
	},
	{
		key: "rate_limit_rps",
		get: func(s *Settings) string { return strconv.FormatFloat(s.RateLimitRPS, 'g', -1, 64) },
		set: func(s *Settings, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return err
			}
			s.RateLimitRPS = f
			return nil
		},
	},
	{
		key: "rate_limit_burst",
		get: func(s *Settings) string { return strconv.Itoa(s.RateLimitBurst) },
		set: func(s *Settings, v string) error { return parseInt(v, &s.RateLimitBurst) },
	},
}

// lookupField finds the field for key, ignoring case
func lookupField(key string) (field, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// setValue applies a raw string value to the named key. Unknown keys are
// ignored.
func setValue(s *Settings, key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return nil
	}
	if err := f.set(s, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", f.key, err)
	}
	return nil
}

// ParseOrigins accepts either a JSON list or a comma-separated list
func ParseOrigins(v string) ([]string, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "[") {
		var origins []string
		if err := json.Unmarshal([]byte(v), &origins); err != nil {
			return nil, fmt.Errorf("could not parse origin list: %w", err)
		}
		return origins, nil
	}

	origins := []string{}
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins, nil
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func parseInt(v string, dst *int) error {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = i
	return nil
}
