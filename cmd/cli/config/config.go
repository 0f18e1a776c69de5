package config

import (
	"os"
	"strings"
)

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the irrigation API.
// It can be overridden with the IRRIGATION_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("IRRIGATION_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}
