package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rorical/smartagent/internal/config"
	"github.com/Rorical/smartagent/internal/observability"
)

func modelsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" || r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckListsModels(t *testing.T) {
	srv := modelsServer(t, http.StatusOK, `{"object":"list","data":[{"id":"moonshot-v1-8k","object":"model"},{"id":"kimi-k2-thinking","object":"model"}]}`)

	result, err := Check(context.Background(), config.LLMConfig{
		APIKey:    "sk-test",
		BaseURL:   srv.URL,
		ModelName: "kimi-k2-thinking",
	}, observability.Discard())
	require.NoError(t, err)
	require.Equal(t, []string{"kimi-k2-thinking", "moonshot-v1-8k"}, result.Models)
	require.True(t, result.ModelFound)
	require.Equal(t, srv.URL, result.BaseURL)
}

func TestCheckReportsMissingModel(t *testing.T) {
	srv := modelsServer(t, http.StatusOK, `{"object":"list","data":[{"id":"moonshot-v1-8k","object":"model"}]}`)

	result, err := Check(context.Background(), config.LLMConfig{
		APIKey:    "sk-test",
		BaseURL:   srv.URL,
		ModelName: "kimi-k2-thinking",
	}, observability.Discard())
	require.NoError(t, err)
	require.False(t, result.ModelFound)
}

func TestCheckUnauthorized(t *testing.T) {
	srv := modelsServer(t, http.StatusUnauthorized, `{"error":{"message":"Invalid Authentication","type":"invalid_authentication_error"}}`)

	_, err := Check(context.Background(), config.LLMConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
	}, observability.Discard())
	require.Error(t, err)
	require.Contains(t, err.Error(), "list models")
}

func TestCheckRequiresKey(t *testing.T) {
	_, err := Check(context.Background(), config.Default(), observability.Discard())
	require.ErrorIs(t, err, ErrNoAPIKey)
}
