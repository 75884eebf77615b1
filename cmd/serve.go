package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/api"
)

var (
	servePort    int
	serveLookup  bool
	servePredict bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the georeferencing API over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port

		if err := validateModes(serveLookup, servePredict, "serve"); err != nil {
			return err
		}
		env, err := initEnv(ctx, cfg, envOptions{Geocoder: serveLookup, Predictor: servePredict})
		if err != nil {
			return err
		}
		defer env.Close()

		opts := api.Options{
			CORSOrigins:      cfg.Server.CORSOrigins,
			Timeout:          time.Duration(cfg.Geocode.TimeoutSecs+20) * time.Second,
			BatchConcurrency: cfg.Batch.Concurrency,
			Geodesy:          env.Geodesy,
		}
		if env.Cache != nil {
			opts.CacheStats = env.Cache.Stats
		}

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Bool("lookup", serveLookup),
			zap.Bool("predict", servePredict),
		)
		return api.NewServer(env.Resolver(cfg), opts).ListenAndServe(ctx, api.Addr(port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveLookup, "lookup", false, "geocode features of requests without a footprint")
	serveCmd.Flags().BoolVar(&servePredict, "predict", false, "predict the kind of requests without one")
	rootCmd.AddCommand(serveCmd)
}
