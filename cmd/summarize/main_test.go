package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text-summarizer-app/internal/config"
	"text-summarizer-app/internal/modules/summary/domain"
)

func newEndpoint(t *testing.T, status int, body string, got *string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			*got = req["text"]
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

const okBody = `{"data":{"candidates":[{"content":{"parts":[{"text":"Short summary"}]}}]}}`

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	base := []string{"--config", "/nonexistent/config.yaml"}
	code := run(context.Background(), append(base, args...), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_TextFlag(t *testing.T) {
	var sent string
	url := newEndpoint(t, http.StatusOK, okBody, &sent)

	code, stdout, _ := runCLI(t, "", "--endpoint", url, "--text", "a long article")

	assert.Equal(t, 0, code)
	assert.Equal(t, "Short summary\n", stdout)
	assert.Equal(t, "a long article", sent)
}

func TestRun_Stdin(t *testing.T) {
	var sent string
	url := newEndpoint(t, http.StatusOK, okBody, &sent)

	code, _, _ := runCLI(t, "line one\nline \"two\"", "--endpoint", url, "--sanitize")

	assert.Equal(t, 0, code)
	assert.Equal(t, "line one line 'two'", sent)
}

func TestRun_JSONOutput(t *testing.T) {
	url := newEndpoint(t, http.StatusOK, okBody, nil)

	code, stdout, _ := runCLI(t, "", "--endpoint", url, "--text", "hello there", "--output", "json")
	require.Equal(t, 0, code)

	var out SummaryOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "Short summary", out.Summary)
	assert.Equal(t, 11, out.InputChars)
	assert.NotEmpty(t, out.Provider)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "異常系: エンドポイント500",
			status:   http.StatusInternalServerError,
			body:     "boom",
			wantCode: 1,
			wantOut:  domain.FailureMessage,
		},
		{
			name:     "異常系: 想定外のレスポンス形",
			status:   http.StatusOK,
			body:     `{"data":{"candidates":[]}}`,
			wantCode: 1,
			wantOut:  domain.FailureMessage,
		},
		{
			name:     "異常系: JSON出力でも固定メッセージ",
			status:   http.StatusBadGateway,
			args:     []string{"--output", "json"},
			wantCode: 1,
			wantOut:  `"error":"` + domain.FailureMessage + `"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := newEndpoint(t, tt.status, tt.body, nil)
			args := append([]string{"--endpoint", url, "--text", "text"}, tt.args...)

			code, stdout, _ := runCLI(t, "", args...)

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stdout, tt.wantOut)
		})
	}
}

func TestRun_InvalidUsage(t *testing.T) {
	tests := []struct {
		name      string
		stdin     string
		args      []string
		wantCode  int
		wantError string
	}{
		{
			name:      "異常系: 空の入力",
			stdin:     "  \n ",
			args:      []string{"--endpoint", "http://localhost:9/summarize"},
			wantCode:  2,
			wantError: "No text to summarize",
		},
		{
			name:      "異常系: 不正な出力形式",
			args:      []string{"--output", "xml"},
			wantCode:  2,
			wantError: "Invalid output format",
		},
		{
			name:      "異常系: エンドポイント未設定",
			args:      []string{"--endpoint", "not-a-url", "--text", "x"},
			wantCode:  1,
			wantError: "Invalid configuration",
		},
		{
			name:     "異常系: 未知のフラグ",
			args:     []string{"--unknown"},
			wantCode: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.stdin, tt.args...)

			assert.Equal(t, tt.wantCode, code)
			if tt.wantError != "" {
				assert.Contains(t, stderr, tt.wantError)
			}
		})
	}
}

func TestRun_WriteConfig(t *testing.T) {
	t.Run("正常系: 上書き後の設定を書き出す", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")

		code, stdout, _ := runCLI(t, "",
			"--endpoint", "https://summarizer.example.com/api",
			"--timeout", "15s",
			"--sanitize",
			"--write-config", path)
		require.Equal(t, 0, code)
		assert.Contains(t, stdout, path)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://summarizer.example.com/api", cfg.Summarizer.EndpointURL)
		assert.Equal(t, 15*time.Second, cfg.Summarizer.Timeout)
		assert.True(t, cfg.Summarizer.Sanitize)
		assert.Equal(t, 2*time.Second, cfg.Session.CopiedReset)
	})

	t.Run("異常系: 書き込めないパス", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", "--write-config", "/nonexistent/dir/config.yaml")

		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "Failed to write configuration")
	})
}
