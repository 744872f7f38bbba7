package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vango-dev/wstask/internal/config"
	"github.com/vango-dev/wstask/internal/errors"
	"github.com/vango-dev/wstask/internal/transcript"
	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
)

// connectFlags are the flags shared by connect and echo.
type connectFlags struct {
	mode   string
	format string
}

func (f *connectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "Frame kinds to decode: both, binary, text (default from wstask.json)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Payload format: json, compact (default from wstask.json)")
}

// resolve applies the flags and positional URL over the config.
func (f *connectFlags) resolve(cfg *config.Config, args []string) (string, websocket.Mode, codec.Format, error) {
	url := cfg.URL
	if len(args) == 1 {
		url = args[0]
	}
	if _, err := websocket.ParseURL(url); err != nil {
		return "", 0, nil, errors.New("W201").Wrap(err)
	}

	if f.mode != "" {
		cfg.Mode = f.mode
	}
	mode, err := cfg.ConnectionMode()
	if err != nil {
		return "", 0, nil, err
	}

	if f.format != "" {
		cfg.Format = f.format
	}
	format, err := cfg.PayloadFormat()
	if err != nil {
		return "", 0, nil, err
	}
	return url, mode, format, nil
}

// taskOptions builds the Task options from the config.
func (a *app) taskOptions(metrics *websocket.Metrics) ([]websocket.Option, error) {
	sc, err := a.cfg.SocketOptions()
	if err != nil {
		return nil, err
	}
	return []websocket.Option{
		websocket.WithLogger(a.logger.Logger),
		websocket.WithMetrics(metrics),
		websocket.WithSocketConfig(sc),
	}, nil
}

func connectCmd(a *app) *cobra.Command {
	var (
		flags       connectFlags
		record      string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "connect [url]",
		Short: "Start an interactive WebSocket session",
		Long: `Start an interactive session owning one WebSocket task.

Type commands on standard input:
  connect, send [n], send-binary [n], disconnect, status, quit

A closed or failed connection is dropped; type connect to open a new one.

Examples:
  wstask connect
  wstask connect wss://echo.example.com/ --mode=text
  wstask connect --record=./transcripts --metrics-addr=:9090`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, mode, format, err := flags.resolve(a.cfg, args)
			if err != nil {
				return err
			}
			if record == "" {
				record = a.cfg.Transcript.Target
			}
			if metricsAddr == "" {
				metricsAddr = a.cfg.Metrics.Addr
			}
			return a.runConnect(cmd.Context(), url, mode, format, record, metricsAddr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&record, "record", "r", "", "Record a transcript to a directory or s3://bucket/prefix")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

func (a *app) runConnect(ctx context.Context, url string, mode websocket.Mode, format codec.Format, record, metricsAddr string) error {
	if err := config.ValidateTarget(record); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := websocket.NewMetrics(
		websocket.WithNamespace(a.cfg.Metrics.Namespace),
		websocket.WithRegistry(registry),
	)
	if metricsAddr != "" {
		shutdown := a.serveMetrics(metricsAddr, registry)
		defer shutdown()
	}

	opts, err := a.taskOptions(metrics)
	if err != nil {
		return err
	}

	var recorder *transcript.Recorder
	if record != "" {
		recorder = transcript.NewRecorder()
	}

	session := newSession(sessionConfig{
		URL:      url,
		Mode:     mode,
		Format:   format,
		Options:  opts,
		Recorder: recorder,
		Output:   a.stdout,
		Logger:   a.logger.Logger,
	})
	if err := session.Run(ctx, a.stdin); err != nil {
		return err
	}

	if recorder == nil {
		return nil
	}
	return a.flushTranscript(recorder, record)
}

// serveMetrics exposes registry on addr until the returned func is called.
func (a *app) serveMetrics(addr string, registry *prometheus.Registry) func() {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server failed", "address", addr, "error", err)
		}
	}()
	a.info("Metrics on http://%s/metrics", displayAddr(addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func (a *app) flushTranscript(rec *transcript.Recorder, target string) error {
	code := "W301"
	if strings.HasPrefix(target, "s3://") {
		code = "W302"
	}

	sink, err := transcript.Open(target, transcript.S3Options{
		Region:       a.cfg.Transcript.S3.Region,
		Endpoint:     a.cfg.Transcript.S3.Endpoint,
		UsePathStyle: a.cfg.Transcript.S3.UsePathStyle,
	})
	if err != nil {
		return errors.New(code).Wrap(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	location, err := rec.Flush(ctx, sink)
	if err != nil {
		return errors.New(code).Wrap(err)
	}

	a.success("Transcript written to %s (%d entries)", location, rec.Len())
	return nil
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
