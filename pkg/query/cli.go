package query

import (
	"context"

	"github.com/fleetlive/fleetlive/pkg/database"
	"github.com/fleetlive/fleetlive/pkg/positions"
	"github.com/fleetlive/fleetlive/pkg/redis_client"
	"github.com/fleetlive/fleetlive/pkg/registry"
	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Run one-off queries against the live vehicle state",
		Subcommands: []*cli.Command{
			{
				Name:  "nearest",
				Usage: "find the nearest live vehicle to a point",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     "lat",
						Usage:    "latitude of the query point",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     "lon",
						Usage:    "longitude of the query point",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "route",
						Usage: "limit the search to one route",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					fleetRegistry := registry.NewRegistry()

					store := positions.NewStore(positions.NewMongoHistory(), fleetRegistry)
					if err := store.WarmLoad(context.Background()); err != nil {
						return err
					}

					service := NewService(store, fleetRegistry)

					nearest, err := service.NearestVehicle(context.Background(), c.Float64("lat"), c.Float64("lon"), c.String("route"))
					pretty.Println(nearest, err)

					return nil
				},
			},
			{
				Name:  "live",
				Usage: "list live vehicles",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "route",
						Usage: "limit the listing to one route",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					fleetRegistry := registry.NewRegistry()

					store := positions.NewStore(positions.NewMongoHistory(), fleetRegistry)
					if err := store.WarmLoad(context.Background()); err != nil {
						return err
					}

					service := NewService(store, fleetRegistry)

					liveVehicles, err := service.LiveVehicles(context.Background(), c.String("route"))
					pretty.Println(liveVehicles, err)

					return nil
				},
			},
		},
	}
}
