package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Every reader treats an unset, blank or unparsable variable as absent and
// returns def.

func lookup[T any](name string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func String(name string, def string) string {
	return lookup(name, def, func(s string) (string, error) { return s, nil })
}

func Int(name string, def int) int {
	return lookup(name, def, strconv.Atoi)
}

func Int64(name string, def int64) int64 {
	return lookup(name, def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func Float(name string, def float64) float64 {
	return lookup(name, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func Bool(name string, def bool) bool {
	return lookup(name, def, parseBool)
}

// Duration accepts Go duration strings ("90m") or bare seconds ("3600").
func Duration(name string, def time.Duration) time.Duration {
	return lookup(name, def, func(s string) (time.Duration, error) {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		secs, err := strconv.Atoi(s)
		return time.Duration(secs) * time.Second, err
	})
}

// List splits a comma-separated value and drops empty entries.
func List(name string, def []string) []string {
	return lookup(name, def, func(s string) ([]string, error) {
		out := []string{}
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	})
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, strconv.ErrSyntax
}
