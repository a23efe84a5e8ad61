// Copyright 2026 The Switchback Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package switchback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/switchback/switchback/admin"
	"github.com/switchback/switchback/circuit"
	"github.com/switchback/switchback/dataclients/memory"
	"github.com/switchback/switchback/dataclients/redis"
	"github.com/switchback/switchback/dataclients/routestring"
	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/eskipfile"
	"github.com/switchback/switchback/filters"
	filtersbuiltin "github.com/switchback/switchback/filters/builtin"
	"github.com/switchback/switchback/filters/cache"
	circuitfilter "github.com/switchback/switchback/filters/circuit"
	"github.com/switchback/switchback/filters/flowid"
	ratelimitfilter "github.com/switchback/switchback/filters/ratelimit"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/metrics"
	"github.com/switchback/switchback/net"
	"github.com/switchback/switchback/predicates"
	predicatesbuiltin "github.com/switchback/switchback/predicates/builtin"
	"github.com/switchback/switchback/predicates/weight"
	"github.com/switchback/switchback/proxy"
	"github.com/switchback/switchback/ratelimit"
	"github.com/switchback/switchback/routing"
)

const (
	defaultAddress         = ":9090"
	defaultShutdownTimeout = 30 * time.Second
	defaultRatelimitSize   = 10000
	metricsPath            = "/metrics"
)

// Options to start switchback.
type Options struct {

	// Network address that the proxy should listen on.
	Address string

	// Network address of the admin API. When empty, the admin API is
	// disabled.
	AdminListener string

	// Network address of the /metrics endpoint. When empty, no
	// metrics are collected.
	MetricsListener string

	// File or URL containing the route document, polled for
	// changes.
	RoutesFile string

	// Route documents passed inline, e.g. from the command line.
	InlineRoutes []string

	// Redis shards, used by the cluster rate limiter and, when
	// enabled, by the route repository.
	RedisAddrs []string

	// Password of the Redis shards.
	RedisPassword string

	// When set, the routes managed by the admin API are stored in a
	// Redis hash, shared by the instances. Otherwise, they are kept
	// in memory.
	EnableRedisRoutes bool

	// Key of the Redis hash storing the routes.
	RedisRoutesKey string

	// Additional route sources.
	CustomDataClients []routing.DefinitionSource

	// Interval of polling the route sources. Zero disables polling.
	SourcePollInterval time.Duration

	// When set, Run doesn't start listening before the routes were
	// loaded for the first time.
	WaitFirstRouteLoad bool

	// When set, a single invalid route definition fails the whole
	// route update.
	FailOnRouteDefinitionError bool

	// Filters applied to every route that doesn't disable them.
	DefaultFilters []*eskip.FilterDefinition

	// Custom predicate specs, in addition to the built-in ones.
	CustomPredicates []predicates.Spec

	// Custom filter specs, in addition to the built-in ones.
	CustomFilters []filters.Spec

	// Filters applied to every route, independent from the route
	// definitions.
	GlobalFilters []proxy.GlobalFilter

	// When set, the combined filter chains of the routes are cached
	// until the next route update.
	RouteFilterCacheEnabled bool

	// Forward the Host header of the incoming requests.
	ProxyPreserveHost bool

	// Time limit for receiving the response headers of the backends.
	// Zero means no limit.
	BackendTimeout time.Duration

	// Resolvers of symbolic backend schemes, e.g. lb.
	SchemeResolvers map[string]proxy.SchemeResolver

	// Transport to the backends. Defaults to a clone of
	// http.DefaultTransport.
	BackendTransport http.RoundTripper

	// Default and named settings of the circuit breakers.
	BreakerSettings []circuit.Settings

	// Maximum number of buckets of the local rate limiter.
	RatelimitTableSize int

	// Key resolver of the rate limit filters that don't set one,
	// e.g. remoteAddr or header:Authorization.
	RatelimitKeyResolver string

	// Settings of the LocalResponseCache filters that don't set
	// their own.
	ResponseCache cache.Options

	// Enables the global FlowId filter.
	EnableFlowID bool

	// Keeps the valid flow ids of the incoming requests.
	FlowIDReuse bool

	// Generator of the flow ids, uuid or standard.
	FlowIDGenerator string

	// Time to wait for the open requests on shutdown.
	ShutdownTimeout time.Duration

	ApplicationLogLevel       log.Level
	ApplicationLogPrefix      string
	ApplicationLogOutput      io.Writer
	ApplicationLogJSONEnabled bool
	AccessLogDisabled         bool
	AccessLogJSONEnabled      bool

	// Prefix of the metric names.
	MetricsPrefix string

	// Collect the Go runtime and process metrics.
	EnableRuntimeMetrics bool

	// Measure the filter durations per route.
	EnableAllFiltersMetrics bool

	// Measure the backend durations per route.
	EnableRouteBackendMetrics bool

	// Buckets of the latency histograms.
	HistogramBuckets []float64
}

// gateway holds the components created from the options.
type gateway struct {
	options    Options
	metrics    metrics.Metrics
	prometheus *metrics.Prometheus
	redis      *net.RedisRingClient
	repository routing.Repository
	routing    *routing.Routing
	proxy      *proxy.Proxy
	handler    http.Handler
	admin      http.Handler
}

func createDataClients(o Options, redisClient *net.RedisRingClient) ([]routing.DefinitionSource, routing.Repository, error) {
	var sources []routing.DefinitionSource
	if o.RoutesFile != "" {
		f, err := eskipfile.RemoteWatch(eskipfile.RemoteWatchOptions{
			RemoteFile:    o.RoutesFile,
			FailOnStartup: o.WaitFirstRouteLoad,
		})
		if err != nil {
			return nil, nil, err
		}

		sources = append(sources, f)
	}

	if len(o.InlineRoutes) > 0 {
		ir, err := routestring.NewList(o.InlineRoutes)
		if err != nil {
			return nil, nil, fmt.Errorf("error while parsing inline routes: %w", err)
		}

		sources = append(sources, ir)
	}

	sources = append(sources, o.CustomDataClients...)

	var repository routing.Repository
	if o.EnableRedisRoutes {
		if redisClient == nil {
			return nil, nil, errors.New("redis routes enabled without redis addresses")
		}

		repository = redis.New(redisClient, redis.Options{Key: o.RedisRoutesKey})
	} else {
		repository = memory.New()
	}

	// the routes saved through the admin API override the others
	sources = append(sources, repository)
	return sources, repository, nil
}

func flowIDGenerator(name string) (flowid.Generator, error) {
	switch name {
	case "", flowid.UUIDGenerator:
		return flowid.NewUUIDGenerator(), nil
	case flowid.StandardGenerator:
		return flowid.NewStandardGenerator(flowid.DefaultLength)
	default:
		return nil, fmt.Errorf("invalid flow id generator: %s", name)
	}
}

func (o Options) globalFilters() ([]proxy.GlobalFilter, error) {
	var globals []proxy.GlobalFilter
	if o.EnableFlowID {
		g, err := flowIDGenerator(o.FlowIDGenerator)
		if err != nil {
			return nil, err
		}

		globals = append(globals, proxy.GlobalFilter{
			Name:   flowid.Name,
			Filter: flowid.NewGlobal(flowid.Options{Reuse: o.FlowIDReuse, Generator: g}),
		})
	}

	return append(globals, o.GlobalFilters...), nil
}

func (o Options) filterRegistry(m metrics.Metrics, redisClient *net.RedisRingClient) filters.Registry {
	registry := filtersbuiltin.MakeRegistry()

	size := o.RatelimitTableSize
	if size <= 0 {
		size = defaultRatelimitSize
	}

	ro := ratelimitfilter.Options{
		Local:              ratelimit.NewLocal(size),
		DefaultKeyResolver: o.RatelimitKeyResolver,
	}

	if redisClient != nil {
		ro.Cluster = ratelimit.NewRedis(redisClient, m)
	}

	registry.Register(ratelimitfilter.New(ro))
	registry.Register(circuitfilter.New(circuit.NewRegistry(o.BreakerSettings...)))
	registry.Register(cache.New(o.ResponseCache))
	registry.Register(flowid.New())
	for _, s := range o.CustomFilters {
		registry.Register(s)
	}

	return registry
}

func newGateway(o Options) (*gateway, error) {
	g := &gateway{options: o, metrics: metrics.Default}
	if o.MetricsListener != "" {
		g.prometheus = metrics.NewPrometheus(metrics.Options{
			Prefix:                    o.MetricsPrefix,
			EnableRuntimeMetrics:      o.EnableRuntimeMetrics,
			EnableAllFiltersMetrics:   o.EnableAllFiltersMetrics,
			EnableRouteBackendMetrics: o.EnableRouteBackendMetrics,
			HistogramBuckets:          o.HistogramBuckets,
		})

		g.metrics = g.prometheus
	}

	if len(o.RedisAddrs) > 0 {
		g.redis = net.NewRedisRingClient(net.RedisOptions{
			Addrs:    o.RedisAddrs,
			Password: o.RedisPassword,
			Metrics:  g.metrics,
		})

		g.redis.StartMetricsCollection()
	}

	sources, repository, err := createDataClients(o, g.redis)
	if err != nil {
		g.close()
		return nil, err
	}

	if len(sources) == 1 {
		log.Info("No route source specified, routes can be managed through the admin API only")
	}

	globals, err := o.globalFilters()
	if err != nil {
		g.close()
		return nil, err
	}

	predicateRegistry := predicatesbuiltin.MakeRegistry()
	predicateRegistry.Register(o.CustomPredicates...)

	filterRegistry := o.filterRegistry(g.metrics, g.redis)

	// the weight groups are recalculated on every route update, and
	// decided once per request before the lookup
	weights := weight.NewCalculator()

	g.repository = repository
	g.routing = routing.New(routing.Options{
		Sources:                    sources,
		Predicates:                 predicateRegistry,
		Filters:                    filterRegistry,
		DefaultFilters:             o.DefaultFilters,
		FailOnRouteDefinitionError: o.FailOnRouteDefinitionError,
		PollInterval:               o.SourcePollInterval,
		Hooks:                      []routing.Hook{weights},
		Observers:                  []routing.RefreshObserver{weights},
		Metrics:                    g.metrics,
	})

	g.proxy = proxy.New(proxy.Options{
		Routing:                 g.routing,
		GlobalFilters:           globals,
		RouteFilterCacheEnabled: o.RouteFilterCacheEnabled,
		Backend: proxy.NewBackend(proxy.BackendOptions{
			Transport:    o.BackendTransport,
			Timeout:      o.BackendTimeout,
			Resolvers:    o.SchemeResolvers,
			PreserveHost: o.ProxyPreserveHost,
		}),
		Metrics: g.metrics,
	})

	g.routing.Subscribe(g.proxy)
	g.handler = logging.NewHandler(g.proxy)
	g.admin = admin.NewHandler(admin.Options{
		Routes:     g.routing,
		Chains:     g.proxy,
		Repository: repository,
		Predicates: predicateRegistry,
		Filters:    filterRegistry,
	})

	return g, nil
}

func (g *gateway) close() {
	if g.routing != nil {
		g.routing.Close()
	}

	if g.redis != nil {
		g.redis.Close()
	}
}

func (g *gateway) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	g.metrics.RegisterHandler(metricsPath, mux)
	return mux
}

func (g *gateway) waitFirstLoad(ctx context.Context) error {
	select {
	case <-g.routing.FirstLoad():
		log.Info("Routes loaded")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func serve(ctx context.Context, server *http.Server, timeout time.Duration) error {
	errs := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Infof("Shutting down %s", server.Addr)
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		return fmt.Errorf("failed to shut down %s: %w", server.Addr, err)
	}

	return nil
}

func initLog(o Options) {
	logging.Init(logging.Options{
		ApplicationLogLevel:       o.ApplicationLogLevel,
		ApplicationLogPrefix:      o.ApplicationLogPrefix,
		ApplicationLogOutput:      o.ApplicationLogOutput,
		ApplicationLogJSONEnabled: o.ApplicationLogJSONEnabled,
		AccessLogDisabled:         o.AccessLogDisabled,
		AccessLogJSONEnabled:      o.AccessLogJSONEnabled,
	})
}

// RunContext starts switchback, and serves until the context is
// canceled or one of the listeners fails.
func RunContext(ctx context.Context, o Options) error {
	initLog(o)

	if o.Address == "" {
		o.Address = defaultAddress
	}

	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}

	g, err := newGateway(o)
	if err != nil {
		return err
	}

	defer g.close()

	if o.WaitFirstRouteLoad {
		if err := g.waitFirstLoad(ctx); err != nil {
			return err
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return serve(gctx, &http.Server{Addr: o.Address, Handler: g.handler}, o.ShutdownTimeout)
	})

	if o.AdminListener != "" {
		group.Go(func() error {
			return serve(gctx, &http.Server{Addr: o.AdminListener, Handler: g.admin}, o.ShutdownTimeout)
		})
	}

	if o.MetricsListener != "" {
		group.Go(func() error {
			return serve(gctx, &http.Server{Addr: o.MetricsListener, Handler: g.metricsHandler()}, o.ShutdownTimeout)
		})
	}

	return group.Wait()
}

// Run starts switchback, and serves until SIGTERM or SIGINT is
// received.
func Run(o Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()
	return RunContext(ctx, o)
}
