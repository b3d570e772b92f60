package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/buildstation/featureflag"
	bshttp "github.com/aukilabs/buildstation/http"
	"github.com/aukilabs/buildstation/modules"
	"github.com/aukilabs/buildstation/modules/census"
	"github.com/aukilabs/buildstation/smoketest"
	"github.com/aukilabs/buildstation/station"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The build station version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "buildstation_info",
		Help:        "Build station information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps the config struct keys readable by the cli package when the binary
// is obfuscated.
var _ = reflect.TypeOf(config{})

type config struct {
	AdminAddr        string        `cli:""        env:"BUILDSTATION_ADMIN_ADDR"         help:"Admin listening address."`
	Station          string        `cli:""        env:"BUILDSTATION_STATION"            help:"The TOML file that describes the station. Defaults are used when empty."`
	LogLevel         string        `cli:""        env:"BUILDSTATION_LOG_LEVEL"          help:"Log level (debug|info|warning|error)."`
	LogIndent        bool          `cli:""        env:"BUILDSTATION_LOG_INDENT"         help:"Indent logs."`
	FeatureFlags     []string      `cli:",hidden" env:"BUILDSTATION_FEATURE_FLAGS"      help:"Comma separated feature flags."`
	SmokeTestTimeout time.Duration `cli:",hidden" env:"BUILDSTATION_SMOKE_TEST_TIMEOUT" help:"The maximum duration of a smoke test."`
	Events           eventsConfig  `cli:",hidden" env:"-"                               help:"Event pusher configuration."`
	Version          bool          `cli:""        env:"-"                               help:"Show version."`
	Help             bool          `cli:""        env:"-"                               help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"BUILDSTATION_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed. Events are not pushed when empty."`
	FlushInterval time.Duration `cli:",hidden" env:"BUILDSTATION_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"BUILDSTATION_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"BUILDSTATION_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		AdminAddr:        ":18190",
		LogLevel:         logs.InfoLevel.String(),
		SmokeTestTimeout: 5 * time.Second,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts a build station.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "buildstation",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	stationConfig, err := loadStationConfig(conf)
	if err != nil {
		logs.Fatal(err)
	}

	flags := featureflag.New(conf.FeatureFlags)
	s, err := station.New(stationConfig, station.Options{
		FeatureFlags: flags,
		Modules: []modules.Module{
			census.New(stationConfig.Name),
		},
	})
	if err != nil {
		logs.Fatal(errors.New("creating station failed").Wrap(err))
	}
	defer s.Close()
	go s.StartDispatchFrames()

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", bshttp.HandleHealthCheck)
	admin.HandleFunc("/ready", bshttp.HandleReadyCheck(s.Ready))
	admin.HandleFunc("/version", bshttp.HandleVersion(version))
	admin.Handle("/debug/grid", bshttp.HandleWithCORS(bshttp.HandleGridSnapshot(s)))
	admin.HandleFunc("/smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Timeout: conf.SmokeTestTimeout,
	}))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("station_id", s.ID).
		WithTag("station", s.Name).
		WithTag("feature_flags", flags.Flags()).
		Info("starting build station")

	bshttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.AdminAddr, Handler: metrics.HTTPHandler(&admin,
			bshttp.MetricsPathFormatter)},
	)
}

func loadStationConfig(conf config) (station.Config, error) {
	if conf.Station == "" {
		return station.DefaultConfig(), nil
	}

	c, err := station.LoadConfig(conf.Station)
	if err != nil {
		return station.Config{}, errors.New("loading station config failed").
			WithTag("file_name", conf.Station).
			Wrap(err)
	}
	return c, nil
}
