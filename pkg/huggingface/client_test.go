package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

func TestGenerate_ListResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/google/flan-t5-large", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Analise o restaurante", req.Inputs)
		assert.Equal(t, 512, req.Parameters.MaxNewTokens)
		assert.True(t, req.Parameters.DoSample)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text":"Resposta gerada"}]`))
	}))
	defer srv.Close()

	c := NewClient("hf-key", WithBaseURL(srv.URL+"/"))
	resp, err := c.Generate(context.Background(), "google/flan-t5-large", GenerateRequest{
		Inputs:     "Analise o restaurante",
		Parameters: Parameters{MaxNewTokens: 512, DoSample: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Resposta gerada", resp.GeneratedText)
	assert.Equal(t, "google/flan-t5-large", resp.Model)
}

func TestGenerate_ObjectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"generated_text":"objeto"}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).Generate(context.Background(), "m", GenerateRequest{Inputs: "x"})
	require.NoError(t, err)
	assert.Equal(t, "objeto", resp.GeneratedText)
}

func TestGenerate_ModelLoadingIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20.0}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Generate(context.Background(), "m", GenerateRequest{Inputs: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "model loading")
}

func TestGenerate_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid token"}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).Generate(context.Background(), "m", GenerateRequest{Inputs: "x"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "huggingface: unexpected status 401")
}

func TestGenerate_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Generate(context.Background(), "m", GenerateRequest{Inputs: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generations")
}

func TestGenerate_RequiresModel(t *testing.T) {
	_, err := NewClient("k").Generate(context.Background(), "", GenerateRequest{})
	require.Error(t, err)
}
