package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mr1hm/go-impactor/internal/config"
	internalgrpc "github.com/mr1hm/go-impactor/internal/grpc"
	"github.com/mr1hm/go-impactor/internal/impact"
	"github.com/mr1hm/go-impactor/internal/mitigation"
	"github.com/mr1hm/go-impactor/internal/neo"
	"github.com/mr1hm/go-impactor/internal/observability"
)

type rootOptions struct {
	output  string
	remote  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "impact-sim",
		Short: "Estimate the consequences of an asteroid impact",
		Long: `impact-sim runs the impact and deflection models locally, or against a
running impactor-api gRPC endpoint with --remote.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(opts.output)
		},
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatJSON, "output format: json or yaml")
	root.PersistentFlags().StringVar(&opts.remote, "remote", "", "gRPC address of an impactor-api server, e.g. localhost:50051")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "deadline for remote and NASA calls")

	root.AddCommand(newSimulateCmd(opts), newDeflectCmd(opts), newNEOCmd(opts))
	return root
}

func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func (o *rootOptions) dial() (*internalgrpc.Client, error) {
	return internalgrpc.Dial(o.remote)
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var (
		diameter, velocity, density, angle float64
		lat, lon                           float64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a ground impact",
		Example: `  impact-sim simulate --diameter 100 --velocity 20
  impact-sim simulate --diameter 1500 --velocity 22.5 --lat 40.71 --lon -74.01 -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if diameter <= 0 {
				return fmt.Errorf("--diameter must be greater than 0")
			}
			if density <= 0 {
				return fmt.Errorf("--density must be greater than 0")
			}
			hasLocation := cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon")

			ctx, cancel := opts.context(cmd)
			defer cancel()

			if opts.remote != "" {
				client, err := opts.dial()
				if err != nil {
					return err
				}
				defer client.Close()

				req := &internalgrpc.SimulateRequest{
					DiameterM:   diameter,
					VelocityKmS: velocity,
					DensityKgM3: density,
					AngleDeg:    angle,
				}
				if hasLocation {
					req.Lat, req.Lon = &lat, &lon
				}
				res, err := client.Simulate(ctx, req)
				if err != nil {
					return fmt.Errorf("remote simulate: %w", err)
				}
				return writeOutput(cmd.OutOrStdout(), opts.output, res)
			}

			in := impact.Input{
				DiameterM:   diameter,
				VelocityMS:  velocity * impact.MetersPerKilometer,
				DensityKgM3: density,
				AngleDeg:    angle,
			}
			if hasLocation {
				in.Location = &impact.Location{Lat: lat, Lon: lon}
			}
			res, err := impact.Simulate(in)
			if err != nil {
				return fmt.Errorf("calculation error: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, res)
		},
	}

	cmd.Flags().Float64Var(&diameter, "diameter", 0, "impactor diameter in metres")
	cmd.Flags().Float64Var(&velocity, "velocity", 0, "impact velocity in km/s")
	cmd.Flags().Float64Var(&density, "density", impact.DefaultDensityKgM3, "impactor density in kg/m³")
	cmd.Flags().Float64Var(&angle, "angle", impact.DefaultAngleDeg, "entry angle in degrees (informational)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "impact latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "impact longitude")
	_ = cmd.MarkFlagRequired("diameter")
	_ = cmd.MarkFlagRequired("velocity")

	return cmd
}

func newDeflectCmd(opts *rootOptions) *cobra.Command {
	var req mitigation.Request

	cmd := &cobra.Command{
		Use:   "deflect",
		Short: "Estimate how far a velocity change moves the impact point",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.TimeBeforeImpact < 0 {
				return fmt.Errorf("--days must not be negative")
			}

			if opts.remote == "" {
				return writeOutput(cmd.OutOrStdout(), opts.output, mitigation.Deflect(req))
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			client, err := opts.dial()
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.Deflect(ctx, &internalgrpc.DeflectRequest{
				DiameterM:            req.DiameterM,
				VelocityKmS:          req.VelocityKmS,
				DensityKgM3:          req.DensityKgM3,
				DeltaVMS:             req.DeltaVMS,
				TimeBeforeImpactDays: req.TimeBeforeImpact,
				Location:             req.Location,
			})
			if err != nil {
				return fmt.Errorf("remote deflect: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, res)
		},
	}

	cmd.Flags().Float64Var(&req.DiameterM, "diameter", 0, "impactor diameter in metres")
	cmd.Flags().Float64Var(&req.VelocityKmS, "velocity", 0, "impact velocity in km/s")
	cmd.Flags().Float64Var(&req.DensityKgM3, "density", impact.DefaultDensityKgM3, "impactor density in kg/m³")
	cmd.Flags().Float64Var(&req.DeltaVMS, "delta-v", 0, "velocity change in m/s")
	cmd.Flags().Float64Var(&req.TimeBeforeImpact, "days", 0, "lead time before impact in days")
	cmd.Flags().Float64Var(&req.Location.Lat, "lat", 0, "original impact latitude")
	cmd.Flags().Float64Var(&req.Location.Lon, "lon", 0, "original impact longitude")
	_ = cmd.MarkFlagRequired("delta-v")
	_ = cmd.MarkFlagRequired("days")

	return cmd
}

func newNEOCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neo",
		Short: "Query NASA's Near Earth Object catalog",
	}
	cmd.AddCommand(newNEOFeedCmd(opts), newNEOLookupCmd(opts))
	return cmd
}

// neoClient builds a NeoWs client from the same environment the API server
// reads. Its metrics go to a private registry that nothing scrapes.
func neoClient() (*neo.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	return neo.NewClient(cfg.NEO.APIKey, cfg.NEO.BaseURL, cfg.NEO.Timeout, metrics), nil
}

func newNEOFeedCmd(opts *rootOptions) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List close approaches in a date range (default today and tomorrow)",
		RunE: func(cmd *cobra.Command, args []string) error {
			today := neo.Today(clockwork.NewRealClock())
			from, to := today, today.AddDate(0, 0, 1)

			var err error
			if start != "" {
				if from, err = neo.ParseDate(start); err != nil {
					return err
				}
			}
			if end != "" {
				if to, err = neo.ParseDate(end); err != nil {
					return err
				}
			}

			client, err := neoClient()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			asteroids, err := client.Feed(ctx, from, to)
			if err != nil {
				return fmt.Errorf("NASA feed fetch failed: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, map[string]any{
				"start_date": from.Format(neo.DateLayout),
				"end_date":   to.Format(neo.DateLayout),
				"count":      len(asteroids),
				"neos":       asteroids,
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first approach date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last approach date, YYYY-MM-DD")
	return cmd
}

func newNEOLookupCmd(opts *rootOptions) *cobra.Command {
	var simulate bool

	cmd := &cobra.Command{
		Use:   "lookup <id>",
		Short: "Fetch one object by NeoWs ID, optionally simulating its impact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			if opts.remote != "" {
				client, err := opts.dial()
				if err != nil {
					return err
				}
				defer client.Close()

				a, err := client.GetAsteroid(ctx, args[0])
				if err != nil {
					return fmt.Errorf("remote lookup: %w", err)
				}
				return writeOutput(cmd.OutOrStdout(), opts.output, a)
			}

			client, err := neoClient()
			if err != nil {
				return err
			}
			a, err := client.Lookup(ctx, args[0])
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}
			if !simulate {
				return writeOutput(cmd.OutOrStdout(), opts.output, a)
			}

			diameter, err := neo.DiameterForSimulation(a)
			if err != nil {
				return err
			}
			if !a.HasApproach {
				return neo.ErrNoApproach
			}
			res, err := impact.Simulate(impact.Input{
				DiameterM:   diameter,
				VelocityMS:  a.VelocityKmS * impact.MetersPerKilometer,
				DensityKgM3: impact.DefaultDensityKgM3,
				AngleDeg:    impact.DefaultAngleDeg,
			})
			if err != nil {
				return fmt.Errorf("calculation error: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, map[string]any{
				"asteroid":   a,
				"simulation": res,
			})
		},
	}

	cmd.Flags().BoolVar(&simulate, "simulate", false, "run a head-on impact simulation for the object")
	return cmd
}
