package suggestion

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	out, _ := io.ReadAll(r)
	return string(out)
}

func TestShowSuggestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"water_amount_ml":500,"duration_minutes":30,"source":"default"}`))
	}))
	defer srv.Close()
	t.Setenv("IRRIGATION_API_URL", srv.URL)

	root := &cobra.Command{Use: "irrigation"}
	InitSuggestion(root)
	cmd, _, err := root.Find([]string{"suggestion"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	if !strings.Contains(out, "500ml for 30 minutes (default)") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestAcceptSuggestion(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/suggestion/accept" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"action":"accept","suggestion":{"water_amount_ml":750,"duration_minutes":45,"source":"predictor"}}`))
	}))
	defer srv.Close()
	t.Setenv("IRRIGATION_API_URL", srv.URL)

	cmd := decisionCmd("accept")
	cmd.Flags().Set("water", "750")
	cmd.Flags().Set("minutes", "45")

	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	if body["water_amount_ml"] != float64(750) || body["duration_minutes"] != float64(45) {
		t.Errorf("unexpected request body: %v", body)
	}
	if !strings.Contains(out, "Suggestion accepted: 750ml for 45 minutes") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRejectSuggestion_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer srv.Close()
	t.Setenv("IRRIGATION_API_URL", srv.URL)

	cmd := decisionCmd("reject")
	if err := cmd.RunE(cmd, nil); err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Fatalf("expected HTTP 500 error, got %v", err)
	}
}
