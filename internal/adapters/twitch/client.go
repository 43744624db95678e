package twitch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/pkg/metrics"
)

const (
	defaultHelixBase = "https://api.twitch.tv/helix"
	defaultOAuthBase = "https://id.twitch.tv"

	// Helix: 800 puntos/minuto por app → nos quedamos muy por debajo.
	helixRatePerSec = 5
	oauthRatePerSec = 1

	maxAttempts       = 3
	failureThreshold  = 5
	breakerCooldown   = 60 * time.Second
	defaultRetryAfter = 60 * time.Second
)

// response es la respuesta cruda que el Client entrega al caller. Los
// status no reintentables (401, 404, …) llegan aquí tal cual: el caller
// interpreta — p. ej. un 401 dispara el refresh de credenciales.
type response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Client es el HTTP client de Twitch con rate limiting, reintentos con
// backoff exponencial y circuit breaker por target.
type Client struct {
	http         *http.Client
	helixBase    string
	oauthBase    string
	clientID     string
	helixLimiter *rate.Limiter
	oauthLimiter *rate.Limiter
	breakers     *breakerRegistry
	collector    *metrics.Collector

	// sleep es inyectable para que los tests no esperen de verdad.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient crea un Client con los base URLs dados. Si helixBase u oauthBase
// están vacíos, usa los URLs de producción.
func NewClient(helixBase, oauthBase, clientID string, collector *metrics.Collector) *Client {
	if helixBase == "" {
		helixBase = defaultHelixBase
	}
	if oauthBase == "" {
		oauthBase = defaultOAuthBase
	}
	return &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		helixBase:    helixBase,
		oauthBase:    oauthBase,
		clientID:     clientID,
		helixLimiter: rate.NewLimiter(helixRatePerSec, 10),
		oauthLimiter: rate.NewLimiter(oauthRatePerSec, 2),
		breakers:     newBreakerRegistry(failureThreshold, breakerCooldown),
		collector:    collector,
		sleep:        sleepCtx,
	}
}

// do ejecuta una llamada bajo la política del breaker del target:
//   - breaker abierto y cool-down sin cumplir → domain.ErrCircuitOpen sin
//     intento saliente.
//   - hasta maxAttempts intentos; 429 duerme el Retry-After del servidor
//     (default 60s) y reintenta sin tocar el tally del breaker; 5xx y fallos
//     de transporte hacen backoff 2^intento segundos.
//   - status no reintentable → se devuelve tal cual, sin tocar el tally.
//   - agotados los intentos → tally++, breaker abre al llegar al umbral y se
//     propaga el último error observado (o ErrRetriesExhausted).
func (c *Client) do(ctx context.Context, target string, limiter *rate.Limiter, build func() (*http.Request, error)) (*response, error) {
	if err := c.breakers.allow(target); err != nil {
		c.record(target, "circuit_open")
		return nil, fmt.Errorf("twitch %s: %w", target, err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("twitch %s: rate limiter: %w", target, err)
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("twitch %s: build request: %w", target, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.record(target, "transport_error")
			if attempt < maxAttempts-1 {
				if err := c.backoff(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			c.record(target, "transport_error")
			if attempt < maxAttempts-1 {
				if err := c.backoff(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			// No cuenta para el tally del breaker.
			wait := retryAfter(resp.Header)
			c.record(target, "rate_limited")
			slog.Warn("rate limited by API", "target", target, "wait", wait, "attempt", attempt+1)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.breakers.recordSuccess(target)
			c.record(target, "ok")
			return &response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header}, nil

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			c.record(target, "server_error")
			if attempt < maxAttempts-1 {
				if err := c.backoff(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue

		default:
			// 4xx distinto de 429: el caller interpreta, sin retry.
			c.record(target, "client_error")
			return &response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header}, nil
		}
	}

	if c.breakers.recordExhaustion(target) {
		slog.Warn("circuit breaker opened", "target", target)
		if c.collector != nil {
			c.collector.RecordBreakerOpen()
		}
	}
	if lastErr == nil {
		lastErr = domain.ErrRetriesExhausted
	}
	return nil, fmt.Errorf("twitch %s: %d attempts: %w", target, maxAttempts, lastErr)
}

// backoff duerme 2^attempt segundos respetando la cancelación del contexto.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	return c.sleep(ctx, time.Duration(1<<uint(attempt))*time.Second)
}

func (c *Client) record(target, outcome string) {
	if c.collector != nil {
		c.collector.RecordAPIRequest(target, outcome)
	}
}

// retryAfter parsea el header Retry-After en segundos, con default 60s.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
