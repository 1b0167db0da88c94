// Package config reads flag defaults from the environment.
//
// Every binary registers its flags with these helpers as defaults, so an
// environment variable changes the default and an explicit flag still wins.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the value of key, or def when it is unset or empty.
func String(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func Int(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return def
}

func Int64(key string, def int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func Duration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}

// Bool treats true, 1 and yes as true and anything else set as false.
func Bool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		}
		return false
	}
	return def
}
