// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tracing provides a small span abstraction. By default a no-op
// tracer is installed. InitFromEnv installs an OpenTelemetry tracer that
// exports over OTLP/HTTP when the standard OTEL_* variables ask for it.
//
// A span is a named, timed operation. Attributes are key-value metadata on
// that span. Use Run or Start to create spans and SetAttribute to annotate
// them.
package tracing

import (
	"context"
	"sync/atomic"
)

// Span represents a single operation in a trace. Call End when the operation
// completes.
type Span interface {
	// SetAttribute sets a key-value attribute on the span.
	SetAttribute(key string, value interface{})
	// End marks the span as finished.
	End()
}

// Tracer creates spans for named operations.
type Tracer interface {
	// Start starts a new span with the given name. The returned context
	// should be used for downstream calls; the span must be ended with End().
	Start(ctx context.Context, name string) (context.Context, Span)
}

type tracerHolder struct{ t Tracer }

var globalTracer atomic.Pointer[tracerHolder]

func init() {
	globalTracer.Store(&tracerHolder{t: NoopTracer{}})
}

// SetTracer sets the global tracer used by Start. Passing nil restores the
// no-op tracer.
func SetTracer(t Tracer) {
	if t == nil {
		t = NoopTracer{}
	}
	globalTracer.Store(&tracerHolder{t: t})
}

// GetTracer returns the current global tracer (never nil).
func GetTracer() Tracer {
	return globalTracer.Load().t
}

// Start starts a new span with the given name using the global tracer.
func Start(ctx context.Context, name string) (context.Context, Span) {
	return GetTracer().Start(ctx, name)
}

// Enabled returns true when a real (non-noop) tracer is configured.
func Enabled() bool {
	_, noop := GetTracer().(NoopTracer)
	return !noop
}

// Run starts a span with the given name and attributes, runs fn with the
// span's context, ends the span, and returns the result of fn. A non-nil
// error from fn is recorded as the "error" attribute. When tracing is
// disabled fn is called directly.
func Run(ctx context.Context, name string, attrs map[string]interface{}, fn func(context.Context) error) error {
	if !Enabled() {
		return fn(ctx)
	}
	ctx, span := Start(ctx, name)
	defer span.End()
	for k, v := range attrs {
		span.SetAttribute(k, v)
	}
	err := fn(ctx)
	if err != nil {
		span.SetAttribute("error", err.Error())
	}
	return err
}
