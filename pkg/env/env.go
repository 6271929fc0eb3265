package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup reads key and parses it, falling back to def when the variable is unset or
// does not parse. Fallbacks are printed because the logger is not up yet at this point.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		fmt.Printf("Environment variable %s not found, using default value: %v\n", key, def)
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		fmt.Printf("Environment variable %s is invalid (%v), using default value: %v\n", key, err, def)
		return def
	}
	return parsed
}

func GetEnvString(key, defaultValue string) string {
	return lookup(key, defaultValue, func(v string) (string, error) { return v, nil })
}

func GetEnvBool(key string, defaultValue bool) bool {
	return lookup(key, defaultValue, strconv.ParseBool)
}

func GetEnvInt(key string, defaultValue int) int {
	return lookup(key, defaultValue, strconv.Atoi)
}

// GetEnvUint64 is used for chain ids, which do not fit an int on 32 bit hosts.
func GetEnvUint64(key string, defaultValue uint64) uint64 {
	return lookup(key, defaultValue, func(v string) (uint64, error) { return strconv.ParseUint(v, 10, 64) })
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(key, defaultValue, time.ParseDuration)
}

// GetEnvStringSlice splits a comma separated variable, dropping empty entries.
func GetEnvStringSlice(key string, defaultValue []string) []string {
	return lookup(key, defaultValue, func(v string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	})
}
