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

// Package config parses the command line flags and the optional YAML
// configuration file of switchback.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/switchback/switchback"
	"github.com/switchback/switchback/dataclients/redis"
	"github.com/switchback/switchback/filters/cache"
	"github.com/switchback/switchback/filters/flowid"
)

type responseCacheConfig struct {
	TimeToLive  time.Duration `yaml:"time-to-live"`
	Size        int           `yaml:"size"`
	MaxBodySize int64         `yaml:"max-body-size"`
}

type Config struct {
	ConfigFile string
	Flags      *flag.FlagSet

	// generic:
	Address                 string        `yaml:"address"`
	AdminListener           string        `yaml:"admin-listener"`
	ProxyPreserveHost       bool          `yaml:"proxy-preserve-host"`
	BackendTimeout          time.Duration `yaml:"backend-timeout"`
	RouteFilterCacheEnabled bool          `yaml:"route-filter-cache-enabled"`
	ShutdownTimeout         time.Duration `yaml:"shutdown-timeout"`

	// route sources:
	RoutesFile                 string               `yaml:"routes-file"`
	InlineRoutes               *multiFlag           `yaml:"inline-routes"`
	SourcePollInterval         time.Duration        `yaml:"source-poll-interval"`
	WaitFirstRouteLoad         bool                 `yaml:"wait-first-route-load"`
	FailOnRouteDefinitionError bool                 `yaml:"fail-on-route-definition-error"`
	DefaultFilters             *defaultFiltersFlags `yaml:"default-filters"`

	// redis:
	RedisAddrs        *listFlag `yaml:"redis-address"`
	RedisPassword     string    `yaml:"redis-password"`
	EnableRedisRoutes bool      `yaml:"enable-redis-routes"`
	RedisRoutesKey    string    `yaml:"redis-routes-key"`

	// filters:
	Breakers             breakerFlags                   `yaml:"breaker"`
	RatelimitTableSize   int                            `yaml:"ratelimit-table-size"`
	RatelimitKeyResolver string                         `yaml:"ratelimit-key-resolver"`
	ResponseCache        *yamlFlag[responseCacheConfig] `yaml:"response-cache"`
	ResponseCacheConfig  *responseCacheConfig           `yaml:"-"`
	EnableFlowID         bool                           `yaml:"enable-flow-id"`
	FlowIDReuse          bool                           `yaml:"flow-id-reuse"`
	FlowIDGenerator      string                         `yaml:"flow-id-generator"`

	// logging, metrics:
	ApplicationLogLevel          log.Level `yaml:"-"`
	ApplicationLogLevelString    string    `yaml:"application-log-level"`
	ApplicationLogPrefix         string    `yaml:"application-log-prefix"`
	ApplicationLogJSONEnabled    bool      `yaml:"application-log-json"`
	AccessLogDisabled            bool      `yaml:"access-log-disabled"`
	AccessLogJSONEnabled         bool      `yaml:"access-log-json-enabled"`
	MetricsListener              string    `yaml:"metrics-listener"`
	MetricsPrefix                string    `yaml:"metrics-prefix"`
	RuntimeMetrics               bool      `yaml:"runtime-metrics"`
	AllFiltersMetrics            bool      `yaml:"all-filters-metrics"`
	RouteBackendMetrics          bool      `yaml:"route-backend-metrics"`
	HistogramMetricBucketsString string    `yaml:"histogram-metric-buckets"`
	HistogramMetricBuckets       []float64 `yaml:"-"`
}

const (
	// environment keys:
	redisPasswordEnv = "SWITCHBACK_REDIS_PASSWORD"

	defaultApplicationLogPrefix = "[APP]"
	defaultApplicationLogLevel  = "INFO"
	defaultShutdownTimeout      = 30 * time.Second
	defaultRatelimitTableSize   = 10000
)

func NewConfig() *Config {
	cfg := new(Config)
	cfg.InlineRoutes = &multiFlag{}
	cfg.DefaultFilters = &defaultFiltersFlags{}
	cfg.RedisAddrs = commaListFlag()
	cfg.ResponseCache = newYamlFlag(&cfg.ResponseCacheConfig)

	flag := flag.NewFlagSet("", flag.ExitOnError)
	flag.StringVar(&cfg.ConfigFile, "config-file", "", "if provided the flags will be loaded/overwritten by the values on the file (yaml)")

	// generic:
	flag.StringVar(&cfg.Address, "address", ":9090", "network address that switchback should listen on")
	flag.StringVar(&cfg.AdminListener, "admin-listener", "", "network address of the admin API, the admin API is disabled when empty")
	flag.BoolVar(&cfg.ProxyPreserveHost, "proxy-preserve-host", false, "flag indicating to preserve the incoming request 'Host' header in the outgoing requests")
	flag.DurationVar(&cfg.BackendTimeout, "backend-timeout", 0, "time limit for receiving the response headers of the backends, no limit when 0")
	flag.BoolVar(&cfg.RouteFilterCacheEnabled, "route-filter-cache-enabled", false, "cache the combined filter chains of the routes until the next route update")
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", defaultShutdownTimeout, "time to wait for the open requests on shutdown")

	// route sources:
	flag.StringVar(&cfg.RoutesFile, "routes-file", "", "file or URL of a YAML or JSON route document")
	flag.Var(cfg.InlineRoutes, "inline-routes", "inline YAML or JSON route document, can be used multiple times")
	flag.DurationVar(&cfg.SourcePollInterval, "source-poll-interval", 3*time.Second, "interval of polling the route sources, polling is disabled when 0")
	flag.BoolVar(&cfg.WaitFirstRouteLoad, "wait-first-route-load", false, "prevent starting the listener before the first route load")
	flag.BoolVar(&cfg.FailOnRouteDefinitionError, "fail-on-route-definition-error", false, "fail the whole route update when a single route definition is invalid")
	flag.Var(cfg.DefaultFilters, "default-filters", "filter in shortcut notation, applied to every route, can be used multiple times")

	// redis:
	flag.Var(cfg.RedisAddrs, "redis-address", "comma separated list of the Redis shards, used by the cluster rate limiter and the route repository")
	flag.StringVar(&cfg.RedisPassword, "redis-password", "", "password of the Redis shards, can be set by the "+redisPasswordEnv+" environment variable, too")
	flag.BoolVar(&cfg.EnableRedisRoutes, "enable-redis-routes", false, "store the routes managed by the admin API in Redis")
	flag.StringVar(&cfg.RedisRoutesKey, "redis-routes-key", redis.DefaultKey, "key of the Redis hash storing the routes")

	// filters:
	flag.Var(&cfg.Breakers, "breaker", breakerUsage)
	flag.IntVar(&cfg.RatelimitTableSize, "ratelimit-table-size", defaultRatelimitTableSize, "maximum number of buckets of the local rate limiter")
	flag.StringVar(&cfg.RatelimitKeyResolver, "ratelimit-key-resolver", "", "key resolver of the rate limit filters that don't set one, e.g. remoteAddr, xForwardedFor, route, header:<name> or query:<name>")
	flag.Var(cfg.ResponseCache, "response-cache", "default settings of the response cache filters as YAML object, e.g. {time-to-live: 1m, size: 100}")
	flag.BoolVar(&cfg.EnableFlowID, "enable-flow-id", false, "set a flow id on every request and response")
	flag.BoolVar(&cfg.FlowIDReuse, "flow-id-reuse", false, "keep the valid flow ids of the incoming requests")
	flag.StringVar(&cfg.FlowIDGenerator, "flow-id-generator", flowid.UUIDGenerator, "generator of the flow ids: uuid or standard")

	// logging, metrics:
	flag.StringVar(&cfg.ApplicationLogLevelString, "application-log-level", defaultApplicationLogLevel, "log level for application logs, possible values: PANIC, FATAL, ERROR, WARN, INFO, DEBUG")
	flag.StringVar(&cfg.ApplicationLogPrefix, "application-log-prefix", defaultApplicationLogPrefix, "prefix for each log entry")
	flag.BoolVar(&cfg.ApplicationLogJSONEnabled, "application-log-json", false, "when this flag is set, log in JSON format is used")
	flag.BoolVar(&cfg.AccessLogDisabled, "access-log-disabled", false, "when this flag is set, no access log is printed")
	flag.BoolVar(&cfg.AccessLogJSONEnabled, "access-log-json-enabled", false, "when this flag is set, log in JSON format is used")
	flag.StringVar(&cfg.MetricsListener, "metrics-listener", "", "network address of the /metrics endpoint, metrics are disabled when empty")
	flag.StringVar(&cfg.MetricsPrefix, "metrics-prefix", "", "prefix of the metric names")
	flag.BoolVar(&cfg.RuntimeMetrics, "runtime-metrics", true, "enables the Go runtime and process metrics")
	flag.BoolVar(&cfg.AllFiltersMetrics, "all-filters-metrics", false, "enables the filter metrics per route")
	flag.BoolVar(&cfg.RouteBackendMetrics, "route-backend-metrics", false, "enables the backend metrics per route")
	flag.StringVar(&cfg.HistogramMetricBucketsString, "histogram-metric-buckets", "", "use custom buckets for the latency histograms, e.g. 0.005,0.01,0.1,1")

	cfg.Flags = flag
	return cfg
}

func validate(c *Config) error {
	if _, err := log.ParseLevel(c.ApplicationLogLevelString); err != nil {
		return err
	}

	if _, err := parseHistogramBuckets(c.HistogramMetricBucketsString); err != nil {
		return err
	}

	switch c.FlowIDGenerator {
	case "", flowid.UUIDGenerator, flowid.StandardGenerator:
	default:
		return fmt.Errorf("invalid flow id generator: %s", c.FlowIDGenerator)
	}

	if c.EnableRedisRoutes && len(c.RedisAddrs.values) == 0 {
		return fmt.Errorf("enable-redis-routes requires redis-address")
	}

	return nil
}

func (c *Config) Parse() error {
	return c.ParseArgs(os.Args[0], os.Args[1:])
}

func (c *Config) ParseArgs(progname string, args []string) error {
	c.Flags.Init(progname, flag.ExitOnError)
	err := c.Flags.Parse(args)
	if err != nil {
		return err
	}

	// check if arguments were correctly parsed.
	if len(c.Flags.Args()) != 0 {
		return fmt.Errorf("invalid arguments: %s", c.Flags.Args())
	}

	if c.ConfigFile != "" {
		yamlFile, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}

		err = yaml.Unmarshal(yamlFile, c)
		if err != nil {
			return fmt.Errorf("unmarshalling config file error: %w", err)
		}

		// the flags take precedence over the config file, the
		// repeatable flags replace the values of the file
		set := make(map[string]bool)
		c.Flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if set["inline-routes"] {
			*c.InlineRoutes = nil
		}

		if set["default-filters"] {
			c.DefaultFilters.filters = nil
		}

		if set["breaker"] {
			c.Breakers = nil
		}

		err = c.Flags.Parse(args)
		if err != nil {
			return err
		}
	}

	if err := validate(c); err != nil {
		return err
	}

	c.ApplicationLogLevel, _ = log.ParseLevel(c.ApplicationLogLevelString)
	c.HistogramMetricBuckets, _ = parseHistogramBuckets(c.HistogramMetricBucketsString)

	c.parseEnv()
	return nil
}

func (c *Config) parseEnv() {
	// Set Redis password from environment variable if not set earlier (configuration file)
	if c.RedisPassword == "" {
		c.RedisPassword = os.Getenv(redisPasswordEnv)
	}
}

func parseHistogramBuckets(s string) ([]float64, error) {
	if s == "" {
		return prometheus.DefBuckets, nil
	}

	var buckets []float64
	for _, v := range strings.Split(s, ",") {
		b, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse histogram-metric-buckets: %w", err)
		}

		buckets = append(buckets, b)
	}

	return buckets, nil
}

func (c *Config) ToOptions() switchback.Options {
	o := switchback.Options{
		// generic:
		Address:                 c.Address,
		AdminListener:           c.AdminListener,
		ProxyPreserveHost:       c.ProxyPreserveHost,
		BackendTimeout:          c.BackendTimeout,
		RouteFilterCacheEnabled: c.RouteFilterCacheEnabled,
		ShutdownTimeout:         c.ShutdownTimeout,

		// route sources:
		RoutesFile:                 c.RoutesFile,
		InlineRoutes:               []string(*c.InlineRoutes),
		SourcePollInterval:         c.SourcePollInterval,
		WaitFirstRouteLoad:         c.WaitFirstRouteLoad,
		FailOnRouteDefinitionError: c.FailOnRouteDefinitionError,
		DefaultFilters:             c.DefaultFilters.filters,

		// redis:
		RedisAddrs:        c.RedisAddrs.values,
		RedisPassword:     c.RedisPassword,
		EnableRedisRoutes: c.EnableRedisRoutes,
		RedisRoutesKey:    c.RedisRoutesKey,

		// filters:
		BreakerSettings:      c.Breakers,
		RatelimitTableSize:   c.RatelimitTableSize,
		RatelimitKeyResolver: c.RatelimitKeyResolver,
		EnableFlowID:         c.EnableFlowID,
		FlowIDReuse:          c.FlowIDReuse,
		FlowIDGenerator:      c.FlowIDGenerator,

		// logging, metrics:
		ApplicationLogLevel:       c.ApplicationLogLevel,
		ApplicationLogPrefix:      c.ApplicationLogPrefix,
		ApplicationLogJSONEnabled: c.ApplicationLogJSONEnabled,
		AccessLogDisabled:         c.AccessLogDisabled,
		AccessLogJSONEnabled:      c.AccessLogJSONEnabled,
		MetricsListener:           c.MetricsListener,
		MetricsPrefix:             c.MetricsPrefix,
		EnableRuntimeMetrics:      c.RuntimeMetrics,
		EnableAllFiltersMetrics:   c.AllFiltersMetrics,
		EnableRouteBackendMetrics: c.RouteBackendMetrics,
		HistogramBuckets:          c.HistogramMetricBuckets,
	}

	if rc := c.ResponseCacheConfig; rc != nil {
		o.ResponseCache = cache.Options{
			TimeToLive:  rc.TimeToLive,
			Size:        rc.Size,
			MaxBodySize: rc.MaxBodySize,
		}
	}

	return o
}
