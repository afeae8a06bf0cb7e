package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceowl/backend/internal/services"
)

func TestAzureClientStubWithoutEndpoint(t *testing.T) {
	client := services.NewAzureClient("", "", "de-DE")

	text, err := client.Transcribe(context.Background(), []byte("fake-audio"))
	require.NoError(t, err)
	assert.Equal(t, "[Azure-de-DE] dummy azure transcription", text)
}

func TestAzureClientDefaultsLanguage(t *testing.T) {
	client := services.NewAzureClient("", "", "")

	text, err := client.Transcribe(context.Background(), []byte("fake-audio"))
	require.NoError(t, err)
	assert.Equal(t, "[Azure-en-US] dummy azure transcription", text)
}

func TestAzureClientCallsEndpoint(t *testing.T) {
	var gotKey, gotPath, gotLanguage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotPath = r.URL.Path
		gotLanguage = r.URL.Query().Get("language")
		w.Write([]byte(`{"DisplayText": "hello from azure"}`))
	}))
	defer srv.Close()

	client := services.NewAzureClient(srv.URL, "secret-key", "en-US")

	text, err := client.Transcribe(context.Background(), []byte("fake-audio"))
	require.NoError(t, err)

	assert.Equal(t, "hello from azure", text)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "/speech/recognition/conversation/cognitiveservices/v1", gotPath)
	assert.Equal(t, "en-US", gotLanguage)
}

func TestAzureClientRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := services.NewAzureClient(srv.URL, "bad-key", "en-US")

	_, err := client.Transcribe(context.Background(), []byte("fake-audio"))
	assert.ErrorContains(t, err, "status code 403")
}
