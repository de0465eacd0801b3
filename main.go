package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"route-sites/internal/calculator"
	"route-sites/internal/config"
	"route-sites/internal/excel"
	"route-sites/internal/export"
	"route-sites/internal/logger"
	"route-sites/internal/models"
	"route-sites/internal/planner"
	"route-sites/internal/routes"
	"route-sites/internal/web"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")

	app := &cli.App{
		Name:  "route-sites",
		Usage: "plan site visits along precomputed routes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (default ./config.yaml)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the web interface",
				Action: serve,
			},
			{
				Name:  "export",
				Usage: "write the facilities near a route to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "route", Aliases: []string{"r"}, Required: true},
					&cli.Float64Flag{Name: "distance", Aliases: []string{"d"}, Usage: "max distance to the route in km (default from config)"},
					&cli.StringFlag{Name: "format", Value: "kml", Usage: "kml or xlsx"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default sites_proches.<format>)"},
				},
				Action: exportCmd,
			},
			{
				Name:   "routes",
				Usage:  "list the precomputed routes",
				Action: listRoutes,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type env struct {
	cfg        *config.Config
	log        *zap.Logger
	facilities []models.Facility
	routes     *routes.Catalog
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	rc, err := routes.Load(cfg.RoutesPath)
	if err != nil {
		if errors.Is(err, routes.ErrRoutesNotFound) {
			return nil, fmt.Errorf("le fichier '%s' est introuvable, exécutez d'abord le calcul des trajets: %w", cfg.RoutesPath, err)
		}
		return nil, err
	}
	log.Info("routes loaded", zap.String("path", cfg.RoutesPath), zap.Int("routes", rc.Len()))

	facilities, err := excel.LoadFacilities(cfg.FacilitiesPath, cfg.FacilitiesSheet)
	if err != nil {
		if errors.Is(err, excel.ErrMissingColumns) {
			return nil, fmt.Errorf("le fichier Excel doit contenir les colonnes : %s: %w",
				strings.Join(excel.RequiredColumns, ", "), err)
		}
		return nil, err
	}
	log.Info("facilities loaded", zap.String("path", cfg.FacilitiesPath), zap.Int("facilities", len(facilities)))

	return &env{cfg: cfg, log: log, facilities: facilities, routes: rc}, nil
}

func serve(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              e.cfg.Addr(),
		Handler:           web.NewServer(e.cfg, e.log, e.facilities, e.routes).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		e.log.Info("server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	e.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func exportCmd(c *cli.Context) error {
	format := c.String("format")
	if format != "kml" && format != "xlsx" {
		return fmt.Errorf("unknown format %q, want kml or xlsx", format)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	sel := planner.DefaultSelection(e.facilities, e.routes, e.cfg.Distance.Default)
	sel.Route = c.String("route")
	if c.IsSet("distance") {
		sel.MaxDistanceKm = c.Float64("distance")
	}

	v := planner.Plan(e.facilities, e.routes, sel)
	if v.Err != nil {
		return v.Err
	}
	if !v.CanExport() {
		return fmt.Errorf("%w: aucun site à moins de %g km de %q", export.ErrNothingToExport, sel.MaxDistanceKm, sel.Route)
	}

	out := c.String("out")
	if out == "" {
		out = "sites_proches." + format
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	switch format {
	case "kml":
		err = export.WriteKML(f, v.NearbyFacilities())
	case "xlsx":
		err = export.WriteXLSX(f, v.Nearby)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
		return err
	}

	e.log.Info("export written",
		zap.String("file", out),
		zap.String("route", sel.Route),
		zap.Float64("distance_km", sel.MaxDistanceKm),
		zap.Int("facilities", len(v.Nearby)))
	return nil
}

func listRoutes(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	rc, err := routes.Load(cfg.RoutesPath)
	if err != nil {
		return err
	}
	for _, r := range rc.Routes() {
		fmt.Printf("%-40s %5d points %8.1f km\n", r.Name, len(r.Points), calculator.RouteLengthKm(r.Points))
	}
	return nil
}
