package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/planprobe/planprobe/internal/metrics"
	"github.com/planprobe/planprobe/internal/shutdown"
	"github.com/planprobe/planprobe/pkg/ratelimit"
	pkgtls "github.com/planprobe/planprobe/pkg/tls"
	"github.com/planprobe/planprobe/pkg/tracing"
)

var (
	serveListen       string
	serveTLSCert      string
	serveTLSKey       string
	serveOTLPEndpoint string
	serveRateLimit    float64
	serveRateBurst    int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored results over HTTP with Prometheus metrics",
	Long: `Expose the results store over HTTP: /metrics for Prometheus scrapes,
/healthz for liveness checks and /runs for the stored run list. Runs until
SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", ":9187", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file (serves HTTPS when set)")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS key file")
	serveCmd.Flags().StringVar(&serveOTLPEndpoint, "otlp-endpoint", "", "OTLP HTTP endpoint for trace export (tracing disabled when empty)")
	serveCmd.Flags().Float64Var(&serveRateLimit, "rate-limit", 0, "per-client requests per second (0 disables limiting)")
	serveCmd.Flags().IntVar(&serveRateBurst, "rate-burst", 10, "per-client burst size")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	provider, err := tracing.InitTracer(tracing.Config{
		ServiceName:  "planprobe",
		OTLPEndpoint: serveOTLPEndpoint,
		Enabled:      serveOTLPEndpoint != "",
	}, log)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}

	srv := metrics.NewServer(serveListen, st, log)
	srv.Use(tracing.HTTPMiddleware(provider))
	if serveRateLimit > 0 {
		limiter := ratelimit.NewLimiter(serveRateLimit, serveRateBurst)
		srv.Use(limiter.Middleware(ratelimit.IPKeyFunc))
	}
	if serveTLSCert != "" || serveTLSKey != "" {
		if serveTLSCert == "" || serveTLSKey == "" {
			return fmt.Errorf("--tls-cert and --tls-key must be set together")
		}
		tlsConfig, err := pkgtls.LoadServerConfig(serveTLSCert, serveTLSKey)
		if err != nil {
			return err
		}
		srv.UseTLS(tlsConfig)
	}

	mgr := shutdown.New(10*time.Second, log)
	mgr.Register(func(ctx context.Context) error { return provider.Shutdown(ctx) })
	mgr.Register(func(ctx context.Context) error { return st.Close() })
	mgr.Register(func(ctx context.Context) error { return srv.Shutdown(ctx) })

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	go mgr.Wait()

	select {
	case err := <-errCh:
		mgr.Trigger()
		mgr.Shutdown()
		return err
	case <-mgr.Done():
		mgr.Shutdown()
		return nil
	}
}
