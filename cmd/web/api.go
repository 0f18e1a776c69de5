package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

var apiClient = &http.Client{Timeout: 10 * time.Second}

func apiDo(method, apiBase, path string, body []byte) ([]byte, int, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, apiBase+path, rd)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := apiClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}

func apiGet(apiBase, path string) ([]byte, int, error) {
	return apiDo(http.MethodGet, apiBase, path, nil)
}

func apiPost(apiBase, path string, body []byte) ([]byte, int, error) {
	if body == nil {
		body = []byte("{}")
	}
	return apiDo(http.MethodPost, apiBase, path, body)
}

func apiDelete(apiBase, path string) ([]byte, int, error) {
	return apiDo(http.MethodDelete, apiBase, path, nil)
}

// getJSON fetches path and decodes a 200 response into out.
func getJSON(apiBase, path string, out interface{}) error {
	data, status, err := apiGet(apiBase, path)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &apiError{Status: status, Message: errorMessage(data)}
	}
	return json.Unmarshal(data, out)
}

type apiError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *apiError) Error() string { return e.Message }

// errorMessage extracts {"error": "..."} from an API response, falling back to the raw body.
func errorMessage(data []byte) string {
	var resp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &resp) == nil && resp.Error != "" {
		return resp.Error
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = "unexpected API response"
	}
	return msg
}

// decodeAPIError turns a non-2xx response into an *apiError including validation fields.
func decodeAPIError(status int, data []byte) *apiError {
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	_ = json.Unmarshal(data, &resp)
	return &apiError{Status: status, Message: errorMessage(data), Fields: resp.Fields}
}
