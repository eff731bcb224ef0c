// Package notify delivers task-completion cards to Google Chat. Delivery is
// best effort: a failed notification is logged and never surfaces to the
// caller, so logging a task is never blocked by chat trouble.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	chat "google.golang.org/api/chat/v1"
	"google.golang.org/api/option"

	"kudos/internal/auth"
)

const (
	// DefaultEndpoint is the production Chat API endpoint.
	DefaultEndpoint = "https://chat.googleapis.com/"

	// requestTimeout bounds each outbound delivery attempt.
	requestTimeout = 10 * time.Second

	celebrationIcon = "https://fonts.gstatic.com/s/i/short_term/release/googlesymbols/celebration/default/48px.svg"
)

// Event describes one completed task worth announcing.
type Event struct {
	Actor       string // member display name
	Description string // what they did
	Message     string // encouragement line
}

// Config selects the transports. Every field is optional; with nothing
// configured Notify is a logged no-op.
type Config struct {
	// WebhookURL is the incoming-webhook transport. Placeholder values
	// (containing "YOUR_WEBHOOK") count as unconfigured.
	WebhookURL string

	// SpaceName targets the authenticated API transport, with or without
	// the "spaces/" prefix. Requires ServiceAccountJSON.
	SpaceName string

	// ServiceAccountJSON is the raw credential key file.
	ServiceAccountJSON []byte

	// AppURL is the deep link on the card button; omitted when empty.
	AppURL string

	// Endpoint overrides the Chat API endpoint (for testing).
	Endpoint string

	// HTTPClient overrides the transport client (for testing).
	HTTPClient *http.Client
}

// Dispatcher sends cards over the first transport that works: webhook, then
// the authenticated Chat API via a service-account token.
type Dispatcher struct {
	cfg    Config
	issuer *auth.Issuer
	log    zerolog.Logger
}

// NewDispatcher creates a dispatcher. issuer may be shared across components.
func NewDispatcher(cfg Config, issuer *auth.Issuer, log zerolog.Logger) *Dispatcher {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &Dispatcher{cfg: cfg, issuer: issuer, log: log}
}

// Notify announces the event. It never returns an error; failures end the
// attempt and are visible only in the log.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	msg := d.buildCard(ev)

	webhookConfigured := d.cfg.WebhookURL != "" && !strings.Contains(d.cfg.WebhookURL, "YOUR_WEBHOOK")
	if webhookConfigured {
		if err := d.postWebhook(ctx, msg); err != nil {
			d.log.Error().Err(err).Msg("webhook delivery failed")
		} else {
			d.log.Info().Msg("notification sent via webhook")
			return
		}
	}

	if len(d.cfg.ServiceAccountJSON) > 0 && d.cfg.SpaceName != "" {
		if err := d.postChatAPI(ctx, msg); err != nil {
			d.log.Error().Err(err).Msg("chat api delivery failed")
		} else {
			d.log.Info().Msg("notification sent via chat api")
		}
		return
	}

	if !webhookConfigured {
		d.log.Info().Msg("chat not configured; notification skipped")
	}
}

func (d *Dispatcher) httpClient() *http.Client {
	if d.cfg.HTTPClient != nil {
		return d.cfg.HTTPClient
	}
	return &http.Client{Timeout: requestTimeout}
}

func (d *Dispatcher) postWebhook(ctx context.Context, msg *chat.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := d.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func (d *Dispatcher) postChatAPI(ctx context.Context, msg *chat.Message) error {
	cred, err := auth.ParseCredential(d.cfg.ServiceAccountJSON)
	if err != nil {
		return err
	}

	// The token source performs one fresh exchange per notification; the
	// bearer token is held only for this call.
	if d.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, d.cfg.HTTPClient)
	}
	authed := oauth2.NewClient(ctx, d.issuer.TokenSource(ctx, cred))

	svc, err := chat.NewService(ctx,
		option.WithHTTPClient(authed),
		option.WithEndpoint(d.cfg.Endpoint),
	)
	if err != nil {
		return fmt.Errorf("create chat service: %w", err)
	}

	space := d.cfg.SpaceName
	if !strings.HasPrefix(space, "spaces/") {
		space = "spaces/" + space
	}

	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if _, err := svc.Spaces.Messages.Create(space, msg).Context(callCtx).Do(); err != nil {
		return fmt.Errorf("post to %s: %w", space, err)
	}
	return nil
}

// buildCard renders the shared cardsV2 payload; both transports accept the
// same shape.
func (d *Dispatcher) buildCard(ev Event) *chat.Message {
	sections := []*chat.GoogleAppsCardV1Section{
		{
			Header: "Task Details",
			Widgets: []*chat.GoogleAppsCardV1Widget{
				{TextParagraph: &chat.GoogleAppsCardV1TextParagraph{
					Text: "<b>Action:</b> " + ev.Description,
				}},
				{TextParagraph: &chat.GoogleAppsCardV1TextParagraph{
					Text: fmt.Sprintf(`<i>"%s"</i>`, ev.Message),
				}},
			},
		},
	}
	if d.cfg.AppURL != "" {
		sections = append(sections, &chat.GoogleAppsCardV1Section{
			Widgets: []*chat.GoogleAppsCardV1Widget{{
				ButtonList: &chat.GoogleAppsCardV1ButtonList{
					Buttons: []*chat.GoogleAppsCardV1Button{{
						Text: "Open Family Kudos",
						OnClick: &chat.GoogleAppsCardV1OnClick{
							OpenLink: &chat.GoogleAppsCardV1OpenLink{Url: d.cfg.AppURL},
						},
					}},
				},
			}},
		})
	}

	return &chat.Message{
		CardsV2: []*chat.CardWithId{{
			CardId: "task-" + uuid.NewString(),
			Card: &chat.GoogleAppsCardV1Card{
				Header: &chat.GoogleAppsCardV1CardHeader{
					Title:     "New Family Win! 🎉",
					Subtitle:  fmt.Sprintf("%s just completed a task", ev.Actor),
					ImageUrl:  celebrationIcon,
					ImageType: "CIRCLE",
				},
				Sections: sections,
			},
		}},
	}
}
