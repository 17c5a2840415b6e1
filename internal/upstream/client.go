package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/talkingpet/storefront/internal/config"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/httpx"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/token"
)

// Client talks to the core API. Every outgoing request carries the bearer
// token of the current session when one is present.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewClient(cfg config.Upstream) *Client {
	settings := gobreaker.Settings{Name: "upstream-core-api"}
	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// Error carries the upstream-provided message so callers can surface it
// verbatim, falling back to a generic one.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream returned status code=%d with message=%s", e.StatusCode, e.Message)
}

// Message extracts the upstream message from err, or returns fallback.
func Message(err error, fallback string) string {
	var upstreamErr *Error
	if errors.As(err, &upstreamErr) && upstreamErr.Message != "" {
		return upstreamErr.Message
	}
	return fallback
}

func (client *Client) Get(c context.Context, path string, out interface{}) error {
	return client.Do(c, http.MethodGet, path, nil, out)
}

func (client *Client) Post(c context.Context, path string, body, out interface{}) error {
	return client.Do(c, http.MethodPost, path, body, out)
}

func (client *Client) Put(c context.Context, path string, body, out interface{}) error {
	return client.Do(c, http.MethodPut, path, body, out)
}

func (client *Client) Patch(c context.Context, path string, body, out interface{}) error {
	return client.Do(c, http.MethodPatch, path, body, out)
}

func (client *Client) Delete(c context.Context, path string, out interface{}) error {
	return client.Do(c, http.MethodDelete, path, nil, out)
}

func (client *Client) Do(
	c context.Context,
	method string,
	path string,
	body interface{},
	out interface{},
) error {
	c, span := otel.Tracer.Start(c, "UpstreamClient Do")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UpstreamClient Do").
		Str(log.KeyRequestMethod, method).
		Str(log.KeyUpstreamPath, path).
		Logger()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed marshaling request body with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(c, method, client.baseURL+path, reader)
	if err != nil {
		err = fmt.Errorf("failed creating upstream request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if body != nil {
		req.Header.Set(httpx.HeaderContentType, httpx.HeaderValueJson)
	}
	if bearer := token.BearerFromContext(c); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if requestId := log.RequestIDFromContext(c); requestId != "" {
		req.Header.Set(httpx.HeaderRequestID, requestId)
	}

	logger.Trace().Msg("sending upstream request")
	resp, err := client.breaker.Execute(func() (*http.Response, error) {
		return client.http.Do(req)
	})
	if err != nil {
		err = fmt.Errorf("failed sending upstream request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer resp.Body.Close()
	logger.Trace().Msgf("upstream responded with status code=%d", resp.StatusCode)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody := map[string]interface{}{}
		json.NewDecoder(resp.Body).Decode(&respBody)
		message, _ := respBody["message"].(string)
		err = &Error{StatusCode: resp.StatusCode, Message: message}
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if out == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		err = fmt.Errorf("failed decoding upstream response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

// Proxy forwards the incoming request body as-is (multipart uploads included)
// and streams the upstream response back. Used by pass-through surfaces that
// only render what the core API returns.
func (client *Client) Proxy(w http.ResponseWriter, r *http.Request, path string) {
	c, span := otel.Tracer.Start(r.Context(), "UpstreamClient Proxy")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UpstreamClient Proxy").
		Str(log.KeyRequestMethod, r.Method).
		Str(log.KeyUpstreamPath, path).
		Logger()

	target := client.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	req, err := http.NewRequestWithContext(c, r.Method, target, r.Body)
	if err != nil {
		err = fmt.Errorf("failed creating proxy request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadGateway,
			"message":    inErrors.ErrUpstream.Error(),
		})
		return
	}
	if contentType := r.Header.Get(httpx.HeaderContentType); contentType != "" {
		req.Header.Set(httpx.HeaderContentType, contentType)
	}
	if bearer := token.BearerFromContext(c); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if requestId := log.RequestIDFromContext(c); requestId != "" {
		req.Header.Set(httpx.HeaderRequestID, requestId)
	}

	resp, err := client.breaker.Execute(func() (*http.Response, error) {
		return client.http.Do(req)
	})
	if err != nil {
		err = fmt.Errorf("failed sending proxy request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadGateway,
			"message":    inErrors.ErrUpstream.Error(),
		})
		return
	}
	defer resp.Body.Close()

	if contentType := resp.Header.Get(httpx.HeaderContentType); contentType != "" {
		w.Header().Set(httpx.HeaderContentType, contentType)
	}
	w.WriteHeader(resp.StatusCode)
	_, err = io.Copy(w, resp.Body)
	if err != nil {
		logger.Error().Err(err).Msgf("failed copying proxy response with error=%s", err.Error())
	}
}
