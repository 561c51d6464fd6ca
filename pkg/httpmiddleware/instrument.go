package httpmiddleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xenking/storefront/pkg/httpmiddleware"

// Telemetry provides OpenTelemetry providers; *app.Telemetry from
// go-faster/sdk satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Instrument traces and measures requests with otelhttp. Spans are renamed
// to "METHOD route" and otelhttp metrics get the http.route attribute once
// the router has matched. A per-route request counter is recorded too.
func Instrument(service string, tel Telemetry) Middleware {
	meter := tel.MeterProvider().Meter(instrumentationName)
	requests, err := meter.Int64Counter("storefront.http.requests",
		metric.WithDescription("Number of API requests by route and status."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		requests = noop.Int64Counter{}
	}

	return func(next http.Handler) http.Handler {
		labeled := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := attribute.String("http.route", routePattern(r))
			if l, ok := otelhttp.LabelerFromContext(r.Context()); ok {
				l.Add(route)
			}
			trace.SpanFromContext(r.Context()).SetName(r.Method + " " + routePattern(r))
			requests.Add(r.Context(), 1, metric.WithAttributes(
				route,
				attribute.String("http.request.method", r.Method),
				attribute.Int("http.response.status_code", sw.Status()),
			))
		})
		return otelhttp.NewHandler(labeled, service,
			otelhttp.WithTracerProvider(tel.TracerProvider()),
			otelhttp.WithMeterProvider(tel.MeterProvider()),
		)
	}
}
