package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
)

// Transport limits for the Bot API client.
const (
	dialTimeout          = 5 * time.Second
	headerGrace          = 5 * time.Second
	defaultClientTimeout = 30 * time.Second
	dialRetries          = 2
	dialBackoff          = 500 * time.Millisecond
)

// BuildHTTPClient returns the client used for Bot API calls. pollTimeout is
// the long-poll hold; header and client timeouts are stretched past it so
// getUpdates is not cut off while Telegram waits for updates.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	headerTimeout := headerGrace
	if pollTimeout > 0 {
		headerTimeout += pollTimeout
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: headerTimeout,
	}
	return &http.Client{
		Timeout:   max(defaultClientTimeout, headerTimeout+headerGrace),
		Transport: &redialTransport{base: base, retries: dialRetries, backoff: dialBackoff},
	}
}

// redialTransport repeats a request only when the connection could not be
// opened, so the request never reached Telegram and a repeat cannot
// duplicate a message. Everything else is left to the sender.
type redialTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *redialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		r := req
		if attempt > 0 {
			var err error
			if r, err = rewind(req); err != nil {
				return nil, err
			}
		}
		resp, err := t.base.RoundTrip(r)
		if err == nil || !dialFailed(err) || attempt >= t.retries {
			return resp, err
		}
		logger.Debug(req.Context(), "tg.http", "redial",
			slog.Int("attempt", attempt+1),
			slog.String("path", logger.SanitizeLimit(req.URL.Path, 64)),
			logger.Err(err),
		)
		if err := sleepCtx(req.Context(), t.backoff*time.Duration(attempt+1)); err != nil {
			return nil, err
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

func dialFailed(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
