package notify_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chat "google.golang.org/api/chat/v1"

	"kudos/internal/auth"
	"kudos/internal/notify"
)

func serviceAccountJSON(t *testing.T, tokenURI string) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	raw, err := json.Marshal(map[string]string{
		"client_email": "kudos-bot@example.iam.gserviceaccount.com",
		"private_key":  pemText,
		"token_uri":    tokenURI,
	})
	require.NoError(t, err)
	return raw
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

// recordServer captures every request and answers with canned chat responses.
func recordServer(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/token") {
			w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestNotify_Webhook(t *testing.T) {
	srv, requests := recordServer(t)

	d := notify.NewDispatcher(notify.Config{
		WebhookURL: srv.URL + "/hook",
		AppURL:     "https://kudos.example.com",
		HTTPClient: srv.Client(),
	}, auth.NewIssuer(), zerolog.Nop())

	d.Notify(context.Background(), notify.Event{
		Actor:       "Alex",
		Description: "Walked the dog",
		Message:     "Thank you, Alex, for Walked the dog! That's a huge help!",
	})

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/hook", reqs[0].Path)

	var msg chat.Message
	require.NoError(t, json.Unmarshal(reqs[0].Body, &msg))
	require.Len(t, msg.CardsV2, 1)
	card := msg.CardsV2[0].Card
	assert.Equal(t, "New Family Win! 🎉", card.Header.Title)
	assert.Equal(t, "Alex just completed a task", card.Header.Subtitle)
	require.Len(t, card.Sections, 2, "details plus app link button")
	assert.Contains(t, card.Sections[0].Widgets[0].TextParagraph.Text, "Walked the dog")
	assert.Contains(t, card.Sections[0].Widgets[1].TextParagraph.Text, "huge help")
	assert.Equal(t, "https://kudos.example.com",
		card.Sections[1].Widgets[0].ButtonList.Buttons[0].OnClick.OpenLink.Url)
}

func TestNotify_NoAppURLOmitsButton(t *testing.T) {
	srv, requests := recordServer(t)

	d := notify.NewDispatcher(notify.Config{
		WebhookURL: srv.URL + "/hook",
		HTTPClient: srv.Client(),
	}, auth.NewIssuer(), zerolog.Nop())

	d.Notify(context.Background(), notify.Event{Actor: "Mom", Description: "Made dinner", Message: "x"})

	reqs := requests()
	require.Len(t, reqs, 1)
	var msg chat.Message
	require.NoError(t, json.Unmarshal(reqs[0].Body, &msg))
	assert.Len(t, msg.CardsV2[0].Card.Sections, 1)
}

func TestNotify_PlaceholderWebhookIsUnconfigured(t *testing.T) {
	srv, requests := recordServer(t)

	d := notify.NewDispatcher(notify.Config{
		WebhookURL: "https://chat.googleapis.com/v1/spaces/YOUR_WEBHOOK_URL",
		HTTPClient: srv.Client(),
	}, auth.NewIssuer(), zerolog.Nop())

	d.Notify(context.Background(), notify.Event{Actor: "Dad", Description: "x", Message: "y"})
	assert.Empty(t, requests(), "placeholder webhook must not be called")
}

func TestNotify_NothingConfigured(t *testing.T) {
	srv, requests := recordServer(t)

	d := notify.NewDispatcher(notify.Config{HTTPClient: srv.Client()}, auth.NewIssuer(), zerolog.Nop())
	d.Notify(context.Background(), notify.Event{Actor: "Dad", Description: "x", Message: "y"})
	assert.Empty(t, requests())
}

func TestNotify_ChatAPI(t *testing.T) {
	srv, requests := recordServer(t)

	d := notify.NewDispatcher(notify.Config{
		SpaceName:          "family-room",
		ServiceAccountJSON: serviceAccountJSON(t, srv.URL+"/token"),
		Endpoint:           srv.URL,
		HTTPClient:         srv.Client(),
	}, auth.NewIssuerWithClient(srv.Client()), zerolog.Nop())

	d.Notify(context.Background(), notify.Event{
		Actor:       "Bella",
		Description: "Cleaned their room",
		Message:     "Nice!",
	})

	reqs := requests()
	require.Len(t, reqs, 2, "one token exchange, one message post")

	assert.Equal(t, "/token", reqs[0].Path)
	assert.Equal(t, http.MethodPost, reqs[0].Method)

	assert.Equal(t, "/v1/spaces/family-room/messages", reqs[1].Path)
	assert.Equal(t, "Bearer test-token", reqs[1].Auth)

	var msg chat.Message
	require.NoError(t, json.Unmarshal(reqs[1].Body, &msg))
	require.Len(t, msg.CardsV2, 1)
	assert.Equal(t, "Bella just completed a task", msg.CardsV2[0].Card.Header.Subtitle)
}

func TestNotify_SpacePrefixNotDoubled(t *testing.T) {
	srv, requests := recordServer(t)

	d := notify.NewDispatcher(notify.Config{
		SpaceName:          "spaces/family-room",
		ServiceAccountJSON: serviceAccountJSON(t, srv.URL+"/token"),
		Endpoint:           srv.URL,
		HTTPClient:         srv.Client(),
	}, auth.NewIssuerWithClient(srv.Client()), zerolog.Nop())

	d.Notify(context.Background(), notify.Event{Actor: "Mom", Description: "x", Message: "y"})

	reqs := requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/v1/spaces/family-room/messages", reqs[1].Path)
}

func TestNotify_WebhookFailureFallsBackToChatAPI(t *testing.T) {
	srv, requests := recordServer(t)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer failing.Close()

	d := notify.NewDispatcher(notify.Config{
		WebhookURL:         failing.URL + "/hook",
		SpaceName:          "family-room",
		ServiceAccountJSON: serviceAccountJSON(t, srv.URL+"/token"),
		Endpoint:           srv.URL,
		HTTPClient:         srv.Client(),
	}, auth.NewIssuerWithClient(srv.Client()), zerolog.Nop())

	d.Notify(context.Background(), notify.Event{Actor: "Alex", Description: "x", Message: "y"})

	reqs := requests()
	require.Len(t, reqs, 2, "fallback still delivers through the api")
	assert.Equal(t, "/v1/spaces/family-room/messages", reqs[1].Path)
}
