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

package tracing

import (
	"context"
	"errors"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ServiceName is reported when OTEL_SERVICE_NAME is unset.
const ServiceName = "digestscan"

const envTracesExporter = "OTEL_TRACES_EXPORTER"

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// exportRequested reports whether the environment asks for span export.
// An endpoint must be configured, and OTEL_TRACES_EXPORTER must not be "none".
func exportRequested() bool {
	if os.Getenv(envTracesExporter) == "none" {
		return false
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" ||
		os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") != ""
}

// InitFromEnv installs an OTLP/HTTP exporting tracer when the environment
// requests it and leaves the no-op tracer in place otherwise. The exporter
// reads its endpoint, headers and TLS settings from the standard OTEL_*
// variables.
func InitFromEnv(ctx context.Context) error {
	if !exportRequested() {
		return nil
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return err
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = ServiceName
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	Install(tp)
	return nil
}

// Install makes tp the global provider and routes Start through it.
// Shutdown flushes and closes tp.
func Install(tp *sdktrace.TracerProvider) {
	if tp == nil {
		return
	}
	providerMu.Lock()
	provider = tp
	providerMu.Unlock()

	otel.SetTracerProvider(tp)
	SetTracer(NewOTelTracer(tp))
}

// Shutdown flushes batched spans and restores the no-op tracer. It is safe
// to call when InitFromEnv installed nothing.
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	tp := provider
	provider = nil
	providerMu.Unlock()

	if tp == nil {
		return nil
	}
	SetTracer(nil)
	err := tp.Shutdown(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
