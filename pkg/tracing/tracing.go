package tracing

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/Ironclad/ironclad/config"
	"github.com/Ironclad/ironclad/pkg/logger"
)

type traceExporterFunc func(cfg config.TracingConfig, log logger.Logger) (trace.Exporter, error)

type metricsExporterFunc func(cfg config.TracingConfig, log logger.Logger) (view.Exporter, error)

var traceExporters = map[string]traceExporterFunc{
	"jaeger":      newJaegerExporter,
	"zipkin":      newZipkinExporter,
	"stackdriver": newStackdriverTraceExporter,
	"datadog":     newDatadogTraceExporter,
	"xray":        newXRayExporter,
}

var metricsExporters = map[string]metricsExporterFunc{
	"prometheus":  newPrometheusExporter,
	"stackdriver": newStackdriverMetricsExporter,
	"datadog":     newDatadogMetricsExporter,
}

// Init configures OpenCensus sampling, exporters and views. It is a no-op
// when tracing is disabled.
// codecov:ignore:start
func Init(cfg config.TracingConfig, log logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if err := initTraceExporter(cfg, log); err != nil {
		return err
	}
	if err := initMetricsExporters(cfg, log); err != nil {
		return err
	}

	if err := RegisterHTTPServerViews(); err != nil {
		return fmt.Errorf("failed to register HTTP server views: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"trace_exporter":   cfg.TraceExporter,
		"metrics_exporter": cfg.MetricsExporter,
		"sampling":         cfg.SamplingProbability,
	}).Info("OpenCensus initialized")
	return nil
}

func initTraceExporter(cfg config.TracingConfig, log logger.Logger) error {
	name := strings.TrimSpace(cfg.TraceExporter)
	if name == "" || name == "none" {
		log.Debug("No trace exporter configured")
		return nil
	}
	factory, ok := traceExporters[name]
	if !ok {
		return fmt.Errorf("unsupported trace exporter: %s (known: %s)", name, knownNames(traceExporters))
	}
	exporter, err := factory(cfg, log)
	if err != nil {
		return err
	}
	trace.RegisterExporter(exporter)
	return nil
}

// initMetricsExporters accepts a comma-separated list of exporter names.
func initMetricsExporters(cfg config.TracingConfig, log logger.Logger) error {
	names, err := parseMetricsExporters(cfg.MetricsExporter)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		log.Debug("No metrics exporter configured")
		return nil
	}

	for _, name := range names {
		exporter, err := metricsExporters[name](cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize %s metrics exporter: %w", name, err)
		}
		view.RegisterExporter(exporter)
	}

	if err := registerViews(); err != nil {
		return fmt.Errorf("failed to register views: %w", err)
	}

	log.WithField("exporters", strings.Join(names, ", ")).Info("Metrics exporters initialized")
	return nil
}

func parseMetricsExporters(value string) ([]string, error) {
	var names []string
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		if name == "" || name == "none" {
			continue
		}
		if _, ok := metricsExporters[name]; !ok {
			return nil, fmt.Errorf("unsupported metrics exporter: %s", name)
		}
		names = append(names, name)
	}
	return names, nil
}

// registerViews registers database views and the agent/backend views.
func registerViews() error {
	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return fmt.Errorf("failed to register database views: %w", err)
	}
	return view.Register(Views()...)
}

func knownNames[F any](m map[string]F) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newJaegerExporter(cfg config.TracingConfig, log logger.Logger) (trace.Exporter, error) {
	if cfg.JaegerEndpoint == "" {
		return nil, fmt.Errorf("jaeger endpoint is required for the jaeger exporter")
	}
	je, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.JaegerEndpoint,
		ServiceName:       cfg.ServiceName,
		Process:           jaeger.Process{ServiceName: cfg.ServiceName},
		OnError: func(err error) {
			log.WithField("error", err.Error()).Warn("Jaeger exporter error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create jaeger exporter: %w", err)
	}
	log.WithField("endpoint", cfg.JaegerEndpoint).Info("Jaeger exporter initialized")
	return je, nil
}

func newZipkinExporter(cfg config.TracingConfig, log logger.Logger) (trace.Exporter, error) {
	if cfg.ZipkinEndpoint == "" {
		return nil, fmt.Errorf("zipkin endpoint is required for the zipkin exporter")
	}
	reporter := zipkinhttp.NewReporter(cfg.ZipkinEndpoint)
	log.WithField("endpoint", cfg.ZipkinEndpoint).Info("Zipkin exporter initialized")
	return zipkin.NewExporter(reporter, nil), nil
}

func newStackdriverTraceExporter(cfg config.TracingConfig, log logger.Logger) (trace.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, fmt.Errorf("stackdriver project ID is required for the stackdriver exporter")
	}
	se, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: cfg.StackdriverProjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to create stackdriver exporter: %w", err)
	}
	log.WithField("project_id", cfg.StackdriverProjectID).Info("Stackdriver trace exporter initialized")
	return se, nil
}

func datadogAgentAddress(cfg config.TracingConfig) string {
	if cfg.DatadogAgentAddress != "" {
		return cfg.DatadogAgentAddress
	}
	return cfg.AgentEndpoint
}

func newDatadogTraceExporter(cfg config.TracingConfig, log logger.Logger) (trace.Exporter, error) {
	addr := datadogAgentAddress(cfg)
	if addr == "" {
		return nil, fmt.Errorf("datadog agent address is required for the datadog exporter")
	}
	exporter, err := datadog.NewExporter(datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: addr,
		StatsAddr: addr,
		Tags:      []string{"env:prod"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create datadog exporter: %w", err)
	}
	log.WithField("agent", addr).Info("Datadog trace exporter initialized")
	return exporter, nil
}

func newXRayExporter(cfg config.TracingConfig, log logger.Logger) (trace.Exporter, error) {
	if cfg.XRayRegion == "" {
		return nil, fmt.Errorf("aws region is required for the xray exporter")
	}
	exporter, err := aws.NewExporter(
		aws.WithRegion(cfg.XRayRegion),
		aws.WithVersion("latest"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create xray exporter: %w", err)
	}
	log.WithField("region", cfg.XRayRegion).Info("X-Ray exporter initialized")
	return exporter, nil
}

func newPrometheusExporter(cfg config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: strings.ReplaceAll(cfg.ServiceName, "-", "_"),
		OnError: func(err error) {
			log.WithField("error", err.Error()).Warn("Prometheus exporter error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	if cfg.PrometheusPort > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", pe)
			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.PrometheusPort),
				Handler: mux,
			}
			log.WithField("port", cfg.PrometheusPort).Info("Starting Prometheus metrics server")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithField("error", err.Error()).Error("Prometheus metrics server stopped")
			}
		}()
	}
	return pe, nil
}

func newStackdriverMetricsExporter(cfg config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, fmt.Errorf("stackdriver project ID is required for stackdriver metrics")
	}
	se, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.StackdriverProjectID,
		MetricPrefix: cfg.ServiceName,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Warn("Stackdriver metrics exporter error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stackdriver metrics exporter: %w", err)
	}
	return se, nil
}

func newDatadogMetricsExporter(cfg config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	addr := datadogAgentAddress(cfg)
	if addr == "" {
		return nil, fmt.Errorf("datadog agent address is required for datadog metrics")
	}
	opts := datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: addr,
		StatsAddr: addr,
		Tags:      []string{"env:prod"},
		OnError: func(err error) {
			log.WithField("error", err.Error()).Warn("Datadog metrics exporter error")
		},
	}
	if cfg.DatadogAPIKey != "" {
		opts.GlobalTags = map[string]interface{}{"api_key": cfg.DatadogAPIKey}
	}
	exporter, err := datadog.NewExporter(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create datadog metrics exporter: %w", err)
	}
	return exporter, nil
}

// RegisterHTTPServerViews registers views for HTTP server metrics.
func RegisterHTTPServerViews() error {
	return view.Register(
		ochttp.ServerRequestCountView,
		ochttp.ServerLatencyView,
		ochttp.ServerResponseCountByStatusCode,
		ochttp.ServerRequestCountByMethod,
	)
}

// codecov:ignore:end
