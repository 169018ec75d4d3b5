// Copyright 2025 The Wayfarer Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wayfarer

import (
	"github.com/wayfarer-go/wayfarer/compiler"
)

// config collects everything an Option can set, applied against a fresh
// Router before the caller's options run.
type config struct {
	defaultRoute       string
	allowNotFound      bool
	rewritePathOnMatch bool

	matcher compiler.Config

	logger    DiagnosticHandler
	clock     Clock
	tracer    Tracer
	metrics   MetricsRecorder
	redirects int
}

func defaultConfig() config {
	return config{
		rewritePathOnMatch: true,
		matcher:            compiler.DefaultConfig(),
		logger:             noopDiagnostics{},
		clock:              SystemClock{},
		tracer:             noopTracer{},
		metrics:            noopMetrics{},
		redirects:          5,
	}
}

// Option configures a Router at construction time.
type Option func(*config)

// WithDefaultRoute sets the fallback route name used for an unresolvable
// initial URL when AllowNotFound is false.
func WithDefaultRoute(name string) Option {
	return func(c *config) { c.defaultRoute = name }
}

// WithAllowNotFound makes an unresolvable initial URL become a synthetic
// UnknownRouteName state instead of a terminal error.
func WithAllowNotFound(allow bool) Option {
	return func(c *config) { c.allowNotFound = allow }
}

// WithRewritePathOnMatch controls whether State.Path holds the canonical
// built URL (true, the default) or the original matched input (false).
func WithRewritePathOnMatch(rewrite bool) Option {
	return func(c *config) { c.rewritePathOnMatch = rewrite }
}

// WithCaseSensitive sets path-matching case sensitivity.
func WithCaseSensitive(sensitive bool) Option {
	return func(c *config) { c.matcher.CaseSensitive = sensitive }
}

// WithTrailingSlash sets the router-wide trailing-slash policy.
func WithTrailingSlash(mode compiler.TrailingSlashMode) Option {
	return func(c *config) { c.matcher.TrailingSlash = mode }
}

// WithQueryParamsMode sets how BuildPath decides which params end up in
// the query string.
func WithQueryParamsMode(mode compiler.QueryParamsMode) Option {
	return func(c *config) { c.matcher.QueryParamsMode = mode }
}

// WithStrictQueryParams rejects matches carrying undeclared query keys.
func WithStrictQueryParams(strict bool) Option {
	return func(c *config) { c.matcher.StrictQueryParams = strict }
}

// WithURLParamsEncoding sets the percent-encoding strategy applied to
// built URL param and splat values.
func WithURLParamsEncoding(strategy compiler.EncodingStrategy) Option {
	return func(c *config) { c.matcher.URLParamsEncoding = strategy }
}

// WithQueryParser overrides how a raw query string is parsed at match
// time.
func WithQueryParser(parser compiler.QueryParser) Option {
	return func(c *config) { c.matcher.QueryParser = parser }
}

// WithRedirectLimit overrides the guard/middleware redirect-restart cap.
// The minimum is 5; New raises smaller values to 5.
func WithRedirectLimit(n int) Option {
	return func(c *config) { c.redirects = n }
}

// WithDiagnostics installs the sink for recoverable, non-fatal conditions.
func WithDiagnostics(h DiagnosticHandler) Option {
	return func(c *config) {
		if h != nil {
			c.logger = h
		}
	}
}

// WithClock overrides the router's source of "now".
func WithClock(clk Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithTracer installs an OpenTelemetry-backed (or custom) span recorder
// around each navigation.
func WithTracer(t Tracer) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithMetrics installs a MetricsRecorder, e.g. a Prometheus-backed one
// from NewPrometheusMetrics.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}
