package serve

import (
	"fmt"

	"github.com/mxmehl/home-stream/internal/config"
	"github.com/mxmehl/home-stream/internal/creds"
	"github.com/mxmehl/home-stream/internal/httpserver"
	"github.com/mxmehl/home-stream/internal/logutil"
	"github.com/mxmehl/home-stream/internal/media"
	"github.com/mxmehl/home-stream/internal/ratelimit"
	"github.com/mxmehl/home-stream/internal/server"
	"github.com/mxmehl/home-stream/internal/tokens"
	"github.com/urfave/cli/v2"
)

// version is set at build time via -ldflags.
var version = "devel"

func Cmd() *cli.Command {
	configPath := ""
	bindAddr := "127.0.0.1:8080"
	logLevel := "info"
	logFormat := "console"
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the media streaming server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to the YAML configuration file",
				Required:    true,
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind the HTTP server to",
				Value:       bindAddr,
				Destination: &bindAddr,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug/info/warn/error)",
				Value:       logLevel,
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "Log format (console/json)",
				Value:       logFormat,
				Destination: &logFormat,
			},
		},
		Action: func(ctx *cli.Context) error {
			if err := logutil.Setup(logLevel, logFormat); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			lib, err := media.NewLibrary(cfg.MediaRoot, cfg.VideoExtensions, cfg.AudioExtensions)
			if err != nil {
				return err
			}
			store, err := ratelimit.OpenStore(cfg.RateLimitStorageURI)
			if err != nil {
				return fmt.Errorf("unable to open rate limit storage, cause %w", err)
			}
			defRate, err := ratelimit.ParseRate(cfg.RateLimitDefault)
			if err != nil {
				return fmt.Errorf("invalid rate_limit_default, cause %w", err)
			}
			loginRate, err := ratelimit.ParseRate(cfg.RateLimitLogin)
			if err != nil {
				return fmt.Errorf("invalid rate_limit_login, cause %w", err)
			}
			srv, err := server.New(server.Options{
				Library:       lib,
				Creds:         creds.NewStore(cfg.Users),
				Codec:         tokens.NewCodec(cfg.SecretKey, cfg.SessionTTL.Std(), cfg.StreamTokenTTL.Std()),
				Limiter:       ratelimit.New(store, map[string]ratelimit.Rate{"login": loginRate}, defRate),
				SecureCookies: cfg.Protocol == "https",
				SessionTTL:    cfg.SessionTTL.Std(),
				Version:       version,
			})
			if err != nil {
				return err
			}
			return httpserver.Serve(ctx.Context, bindAddr, srv.Handler())
		},
	}
}
