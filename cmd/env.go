package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/config"
	"github.com/sells-group/georef-cli/internal/db"
	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/georef"
	"github.com/sells-group/georef-cli/internal/registry"
	"github.com/sells-group/georef-cli/internal/resilience"
	"github.com/sells-group/georef-cli/internal/resolve"
	"github.com/sells-group/georef-cli/pkg/anthropic"
	"github.com/sells-group/georef-cli/pkg/geocode"
	"github.com/sells-group/georef-cli/pkg/predict"
)

// georefEnv holds the engine and whichever collaborators a command asked for.
type georefEnv struct {
	Registry  *registry.Registry
	Geodesy   geodesy.Geodesy
	Engine    *georef.Engine
	Geocoder  geocode.Provider
	Cache     *geocode.CachedProvider
	Predictor *predict.Predictor
	Pool      *pgxpool.Pool
}

// Close releases the database pool, if one was opened.
func (e *georefEnv) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
}

// Resolver builds a resolver over the collaborators that were initialized.
func (e *georefEnv) Resolver(c *config.Config) *resolve.Resolver {
	opts := []resolve.Option{resolve.WithDefaultDatum(c.Georef.DefaultDatum)}
	if e.Geocoder != nil {
		opts = append(opts, resolve.WithGeocoder(e.Geocoder))
	}
	if e.Predictor != nil {
		opts = append(opts, resolve.WithPredictor(e.Predictor))
	}
	return resolve.New(e.Engine, opts...)
}

type envOptions struct {
	Geocoder  bool
	Predictor bool
}

// initEnv builds the engine from config and, on request, the geocoder cascade
// and the kind predictor.
func initEnv(ctx context.Context, c *config.Config, opts envOptions) (*georefEnv, error) {
	reg, err := registry.Load(registryOptions(c))
	if err != nil {
		return nil, eris.Wrap(err, "init: registry")
	}
	geo, ok := geodesy.New(c.Georef.Geodesy)
	if !ok {
		return nil, eris.Errorf("init: unknown geodesy %q", c.Georef.Geodesy)
	}

	env := &georefEnv{
		Registry: reg,
		Geodesy:  geo,
		Engine:   georef.NewEngine(reg, georef.WithGeodesy(geo)),
	}

	if opts.Geocoder {
		if err := env.initGeocoder(ctx, c); err != nil {
			env.Close()
			return nil, err
		}
	}
	if opts.Predictor {
		client := anthropic.NewClient(c.Predict.AnthropicKey)
		env.Predictor = predict.New(client, c.Predict.Model, c.Predict.MaxTokens, resilience.DefaultRetryConfig())
	}
	return env, nil
}

// initGeocoder assembles local gazetteer then Google, behind a breaker-guarded
// cascade and a response cache.
func (e *georefEnv) initGeocoder(ctx context.Context, c *config.Config) error {
	var providers []geocode.Provider

	switch c.Gazetteer.Driver {
	case "shapefile":
		p, err := geocode.OpenShapefile(c.Gazetteer.Shapefile, c.Gazetteer.NameField)
		if err != nil {
			return eris.Wrap(err, "init: gazetteer shapefile")
		}
		providers = append(providers, p)
	case "postgis":
		pool, err := db.Connect(ctx, c.Gazetteer.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "init: gazetteer database")
		}
		e.Pool = pool
		providers = append(providers, geocode.NewPostGISProvider(pool, c.Gazetteer.Table))
	}

	if c.Geocode.GoogleKey != "" {
		providers = append(providers, geocode.NewGoogleProvider(c.Geocode.GoogleKey,
			geocode.WithBaseURL(c.Geocode.BaseURL),
			geocode.WithRateLimit(c.Geocode.RPS),
			geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(c.Geocode.TimeoutSecs) * time.Second}),
			geocode.WithRetry(resilience.DefaultRetryConfig().WithAttempts(c.Geocode.RetryAttempts)),
		))
	}
	if len(providers) == 0 {
		return eris.New("init: no geocoder configured; set geocode.google_key or gazetteer.driver")
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	zap.L().Debug("geocoder cascade", zap.Strings("providers", names))

	e.Cache = geocode.NewCachedProvider(geocode.NewCascade(providers...), c.Geocode.CacheSize, c.Geocode.CacheTTL)
	e.Geocoder = e.Cache
	return nil
}

func registryOptions(c *config.Config) registry.Options {
	return registry.Options{
		UnitsPath:    c.Registry.Units,
		HeadingsPath: c.Registry.Headings,
		DatumsPath:   c.Registry.Datums,
		SourcesPath:  c.Registry.Sources,
	}
}
