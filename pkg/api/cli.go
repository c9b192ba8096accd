package api

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleetlive/fleetlive/pkg/database"
	"github.com/fleetlive/fleetlive/pkg/fanout"
	"github.com/fleetlive/fleetlive/pkg/ingest"
	"github.com/fleetlive/fleetlive/pkg/positions"
	"github.com/fleetlive/fleetlive/pkg/query"
	"github.com/fleetlive/fleetlive/pkg/redis_client"
	"github.com/fleetlive/fleetlive/pkg/registry"
	"github.com/fleetlive/fleetlive/pkg/stats"
	"github.com/fleetlive/fleetlive/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "tracker",
		Usage: "Provides the live vehicle tracking core",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the tracking server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					collector := stats.NewCollector()
					if metricsListen := util.GetEnvironmentVariable("FLEETLIVE_METRICS_LISTEN", ""); metricsListen != "" {
						collector.Serve(metricsListen)
					}

					fleetRegistry := registry.NewRegistry()

					store := positions.NewStore(positions.NewMongoHistory(), fleetRegistry)
					if err := store.WarmLoad(context.Background()); err != nil {
						return err
					}

					hub := fanout.NewHub(store, collector)
					if err := fanout.StartConsumer(hub); err != nil {
						return err
					}

					publisher, err := fanout.NewQueuePublisher(collector)
					if err != nil {
						return err
					}

					gateway := ingest.NewGateway(store, fleetRegistry, publisher, collector)
					service := query.NewService(store, fleetRegistry)

					go func() {
						if err := SetupServer(c.String("listen"), service, gateway, hub); err != nil {
							log.Fatal().Err(err).Msg("Web server failed")
						}
					}()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
		},
	}
}
