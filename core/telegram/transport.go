package telegram

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/schoolbot/core/config"
)

// DefaultPollTimeout is used when telegram.longpoll_timeout_seconds is unset.
const DefaultPollTimeout = 10 * time.Second

// allowedUpdates limits delivery to what the bot handles: plain messages
// carry commands, button presses and free text alike.
var allowedUpdates = []string{"message"}

// PollTimeout resolves the configured long-poll timeout.
func PollTimeout(cfg *coreconfig.Config) time.Duration {
	if cfg == nil || cfg.Telegram.LongPollTimeoutSeconds <= 0 {
		return DefaultPollTimeout
	}
	return time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
}

// NewPoller selects the webhook listener or a long poller by run mode.
func NewPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg != nil && cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			AllowedUpdates: allowedUpdates,
			SecretToken:    cfg.Webhook.Secret,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{
		Timeout:        PollTimeout(cfg),
		AllowedUpdates: allowedUpdates,
	}
}

// NewHTTPClient builds the Bot API client. Its overall timeout leaves room
// for a full long-poll round trip.
func NewHTTPClient(pollTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   pollTimeout + 20*time.Second,
		Transport: &redialTransport{base: base, attempts: 3, backoff: 500 * time.Millisecond},
	}
}

// redialTransport repeats requests whose connection could not be opened.
// Nothing reached the server in that case, so a repeat cannot double-send.
type redialTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *redialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var err error
	for i := 1; ; i++ {
		r := req
		if i > 1 {
			if r, err = rewind(req); err != nil {
				return nil, err
			}
		}
		var resp *http.Response
		resp, err = t.base.RoundTrip(r)
		if err == nil || i >= t.attempts || !dialFailure(err) {
			return resp, err
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(t.backoff * time.Duration(i)):
		}
	}
}

func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("telegram: request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r.Body = body
	return r, nil
}

func dialFailure(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
