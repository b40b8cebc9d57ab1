// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package readiness

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Defaults for HTTP-based wait strategies.
const (
	DefaultStartupTimeout = 60 * time.Second
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultSettlePeriod   = 5 * time.Second
)

// Strategy waits for a container to become ready, given the base URL of its
// (mapped) HTTP endpoint, such as "http://localhost:32768".
type Strategy interface {
	WaitUntilReady(ctx context.Context, endpoint string) error
}

// HTTPDoer is the subset of *http.Client needed to probe an HTTP endpoint.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStrategy polls an HTTP endpoint until either the response indicates
// readiness, a fatal condition gets detected, or the startup timeout
// elapses.
type HTTPStrategy struct {
	path       string
	method     string
	statusCode int
	prober     Prober // nil: status code only.
	client     HTTPDoer
	timeout    time.Duration
	interval   time.Duration
	settle     time.Duration
	log        zerolog.Logger
}

var _ Strategy = (*HTTPStrategy)(nil)

// Option configures an HTTPStrategy.
type Option func(*HTTPStrategy)

// ForHTTP returns a new strategy that waits for the specified path to
// respond with HTTP status 200 (or as set using WithStatusCode).
func ForHTTP(path string, opts ...Option) *HTTPStrategy {
	s := &HTTPStrategy{
		path:       path,
		method:     http.MethodGet,
		statusCode: http.StatusOK,
		client:     http.DefaultClient,
		timeout:    DefaultStartupTimeout,
		interval:   DefaultPollInterval,
		settle:     DefaultSettlePeriod,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForMappings returns a new strategy that waits for WireMock's admin
// mappings endpoint to report mappings, as judged by the specified prober.
func ForMappings(prober Prober, opts ...Option) *HTTPStrategy {
	s := ForHTTP(AdminMappingsPath, opts...)
	s.prober = prober
	return s
}

// WithStartupTimeout sets the maximum time to wait for readiness.
func WithStartupTimeout(d time.Duration) Option {
	return func(s *HTTPStrategy) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPollInterval sets the interval between probe attempts.
func WithPollInterval(d time.Duration) Option {
	return func(s *HTTPStrategy) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSettlePeriod sets for how long a server has to report valid but empty
// mappings before the strategy accepts it, when the prober ignores empty
// mappings.
func WithSettlePeriod(d time.Duration) Option {
	return func(s *HTTPStrategy) {
		if d > 0 {
			s.settle = d
		}
	}
}

// WithHTTPClient overrides the HTTP client used for probing.
func WithHTTPClient(client HTTPDoer) Option {
	return func(s *HTTPStrategy) {
		if client != nil {
			s.client = client
		}
	}
}

// WithStatusCode sets the HTTP status code expected from a ready endpoint.
func WithStatusCode(code int) Option {
	return func(s *HTTPStrategy) {
		s.statusCode = code
	}
}

// WithMethod sets the HTTP method for probing; defaults to GET.
func WithMethod(method string) Option {
	return func(s *HTTPStrategy) {
		if m := strings.ToUpper(strings.TrimSpace(method)); m != "" {
			s.method = m
		}
	}
}

// WithLogger sets the logger for reporting probe attempts.
func WithLogger(log zerolog.Logger) Option {
	return func(s *HTTPStrategy) {
		s.log = log
	}
}

// Path returns the path probed, relative to the endpoint.
func (s *HTTPStrategy) Path() string { return s.path }

// Timeout returns the startup timeout.
func (s *HTTPStrategy) Timeout() time.Duration { return s.timeout }

// errNotReady signals backoff to try again.
var errNotReady = errors.New("not ready")

// errFatalVerdict stands in for the missing diagnostic of a fatal verdict.
var errFatalVerdict = errors.New("readiness probe reported a fatal condition")

// WaitUntilReady polls the endpoint until ready. It returns a *FatalError as
// soon as the prober rules the container to be fatally broken, and a
// *TimeoutError when the startup timeout elapsed. Cancelling the passed
// context aborts waiting with the context's error.
func (s *HTTPStrategy) WaitUntilReady(ctx context.Context, endpoint string) error {
	target := strings.TrimSuffix(endpoint, "/") + s.path
	log := s.log.With().Str("url", target).Logger()

	waitctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	attempts := 0
	last := "no response yet"
	var emptySince time.Time
	settled := false
	err := backoff.Retry(func() error {
		attempts++
		verdict := s.probe(waitctx, target)
		log.Debug().Int("attempt", attempts).Stringer("outcome", verdict.Outcome).
			Str("reason", verdict.Reason).Msg("probed readiness")
		switch verdict.Outcome {
		case Ready:
			return nil
		case Fatal:
			return backoff.Permanent(fatalError(verdict.Err, endpoint))
		}
		last = verdict.Reason
		if !verdict.Empty {
			emptySince = time.Time{}
			return errNotReady
		}
		if emptySince.IsZero() {
			emptySince = time.Now()
		}
		if time.Since(emptySince) >= s.settle {
			settled = true
			return nil
		}
		return errNotReady
	}, backoff.WithContext(backoff.NewConstantBackOff(s.interval), waitctx))
	if err == nil {
		if settled {
			log.Warn().Dur("settle", s.settle).
				Msg("no mappings loaded, but ignoring empty mappings as requested")
		}
		return nil
	}
	if ctxerr := ctx.Err(); ctxerr != nil {
		return errors.Wrapf(ctxerr, "waiting for %s aborted", target)
	}
	if errors.Is(err, context.DeadlineExceeded) || err == errNotReady {
		return &TimeoutError{
			Endpoint: target,
			Timeout:  s.timeout,
			Attempts: attempts,
			Last:     last,
		}
	}
	return err
}

// probe carries out a single probe attempt, judging the response.
func (s *HTTPStrategy) probe(ctx context.Context, target string) Verdict {
	req, err := http.NewRequestWithContext(ctx, s.method, target, nil)
	if err != nil {
		return Verdict{Outcome: Fatal, Err: errors.Wrap(err, "invalid readiness probe")}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return notReady("request failed: %s", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return notReady("reading response failed: %s", err)
	}
	if resp.StatusCode != s.statusCode {
		return notReady("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if s.prober == nil {
		return Verdict{Outcome: Ready}
	}
	return s.prober.Judge(string(body))
}

// fatalError returns the error for a fatal verdict, never nil. A *FatalError
// without an endpoint is copied and the copy gets the endpoint, as probers
// might return shared error values.
func fatalError(err error, endpoint string) error {
	if err == nil {
		return &FatalError{Endpoint: endpoint, Err: errFatalVerdict}
	}
	fatal, ok := err.(*FatalError)
	if !ok || fatal.Endpoint != "" {
		return err
	}
	withEndpoint := *fatal
	withEndpoint.Endpoint = endpoint
	return &withEndpoint
}
