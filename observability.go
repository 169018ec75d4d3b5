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
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TransitionSpan is the open span for one navigation attempt. Implementations
// must tolerate End being called at most once.
type TransitionSpan interface {
	SetRedirected(to string)
	SetError(err error)
	End()
}

// Tracer opens a span around a navigation. The core only consumes this
// interface; wiring a concrete OpenTelemetry SDK/exporter is a caller
// concern (WithTracer).
type Tracer interface {
	StartTransition(to, from string) TransitionSpan
}

type noopTracer struct{}

func (noopTracer) StartTransition(string, string) TransitionSpan { return noopSpan{} }

type noopSpan struct{}

func (noopSpan) SetRedirected(string) {}
func (noopSpan) SetError(error)       {}
func (noopSpan) End()                 {}

// otelTracer adapts an OpenTelemetry trace.Tracer to Tracer.
type otelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer wraps t as a Tracer, opening one span per navigation named
// "wayfarer.navigate" with "wayfarer.to"/"wayfarer.from" attributes.
func NewOTelTracer(t trace.Tracer) Tracer {
	return otelTracer{tracer: t}
}

func (o otelTracer) StartTransition(to, from string) TransitionSpan {
	_, span := o.tracer.Start(context.Background(), "wayfarer.navigate", trace.WithAttributes(
		attribute.String("wayfarer.to", to),
		attribute.String("wayfarer.from", from),
	))

	return otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) SetRedirected(to string) {
	s.span.SetAttributes(attribute.String("wayfarer.redirected_to", to))
}

func (s otelSpan) SetError(err error) {
	if err == nil {
		return
	}
	s.span.SetStatus(codes.Error, err.Error())
	s.span.RecordError(err)
}

func (s otelSpan) End() { s.span.End() }

// MetricsRecorder observes navigation outcomes. The core only consumes
// this interface; NewPrometheusMetrics is one concrete implementation.
type MetricsRecorder interface {
	RecordNavigation(to, from, outcome string, d time.Duration)
	RecordGuardRejection(route, kind string)
	RecordRedirect(from, to string)
}

type noopMetrics struct{}

func (noopMetrics) RecordNavigation(string, string, string, time.Duration) {}
func (noopMetrics) RecordGuardRejection(string, string)                    {}
func (noopMetrics) RecordRedirect(string, string)                          {}

// PrometheusMetrics is a MetricsRecorder backed by a CounterVec/HistogramVec
// pair, mirroring the shape (not the HTTP-server scope) of the teacher's
// built-in metric instruments.
type PrometheusMetrics struct {
	navigations      *prometheus.CounterVec
	navigationLatency *prometheus.HistogramVec
	guardRejections  *prometheus.CounterVec
	redirects        *prometheus.CounterVec
}

// NewPrometheusMetrics registers its instruments against reg and returns a
// ready-to-use MetricsRecorder. Pass prometheus.DefaultRegisterer, or a
// dedicated registry to avoid collisions with other routers in-process.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfarer_navigations_total",
			Help: "Total navigation attempts by outcome.",
		}, []string{"to", "from", "outcome"}),
		navigationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "wayfarer_navigation_duration_seconds",
			Help: "Navigation pipeline duration in seconds.",
		}, []string{"outcome"}),
		guardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfarer_guard_rejections_total",
			Help: "Guard rejections by route and guard kind.",
		}, []string{"route", "kind"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfarer_redirects_total",
			Help: "Redirects issued by a guard or middleware.",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(m.navigations, m.navigationLatency, m.guardRejections, m.redirects)

	return m
}

func (m *PrometheusMetrics) RecordNavigation(to, from, outcome string, d time.Duration) {
	m.navigations.WithLabelValues(to, from, outcome).Inc()
	m.navigationLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordGuardRejection(route, kind string) {
	m.guardRejections.WithLabelValues(route, kind).Inc()
}

func (m *PrometheusMetrics) RecordRedirect(from, to string) {
	m.redirects.WithLabelValues(from, to).Inc()
}
