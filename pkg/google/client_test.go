package google

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

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.websiteUri")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.nationalPhoneNumber")

		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "restaurante em São Paulo", body.TextQuery)
		assert.Equal(t, "pt-BR", body.LanguageCode)
		assert.Equal(t, "BR", body.RegionCode)
		assert.Equal(t, 20, body.PageSize)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"places":[{
			"id":"abc",
			"displayName":{"text":"Cantina Bella","languageCode":"pt"},
			"formattedAddress":"Rua Augusta, 100 - São Paulo",
			"nationalPhoneNumber":"(11) 3333-4444",
			"websiteUri":"https://cantinabella.com.br",
			"rating":4.6,
			"userRatingCount":210,
			"businessStatus":"OPERATIONAL"
		}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "restaurante em São Paulo", PageSize: 20})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "Cantina Bella", p.DisplayName.Text)
	assert.Equal(t, "Rua Augusta, 100 - São Paulo", p.FormattedAddress)
	assert.Equal(t, "(11) 3333-4444", p.NationalPhoneNumber)
	assert.Equal(t, "https://cantinabella.com.br", p.WebsiteURI)
	assert.InDelta(t, 4.6, p.Rating, 0.001)
	assert.Equal(t, 210, p.UserRatingCount)
	assert.True(t, p.Operational())
}

func TestTextSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).TextSearch(context.Background(), TextSearchRequest{TextQuery: "x"})
	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestTextSearch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL), WithHTTPClient(srv.Client())).
		TextSearch(context.Background(), TextSearchRequest{TextQuery: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google: unexpected status 429")
	assert.True(t, resilience.IsTransient(err))
}

func TestTextSearch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).TextSearch(context.Background(), TextSearchRequest{TextQuery: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google: unmarshal response")
}

func TestPlace_Operational(t *testing.T) {
	assert.True(t, Place{}.Operational())
	assert.False(t, Place{BusinessStatus: "CLOSED_PERMANENTLY"}.Operational())
}
