package config

import "testing"

func TestAPIURL(t *testing.T) {
	t.Setenv("IRRIGATION_API_URL", "")
	if got := APIURL(); got != "http://localhost:8080" {
		t.Errorf("default APIURL = %q", got)
	}
	t.Setenv("IRRIGATION_API_URL", "http://pi.local:9000/")
	if got := APIURL(); got != "http://pi.local:9000" {
		t.Errorf("APIURL = %q", got)
	}
}
