package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

var (
	resolveOutput      string
	resolveConcurrency int
)

// resolution is one entry of resolve output.
type resolution struct {
	ZipCode   string  `json:"zip_code" yaml:"zip_code"`
	Resolved  bool    `json:"resolved" yaml:"resolved"`
	Latitude  float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Source    string  `json:"source" yaml:"source"`
}

type zipResolver interface {
	Resolve(ctx context.Context, zip geocode.ZipCode) geocode.Result
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <zip>...",
	Short: "Resolve ZIP codes to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		results := resolveAll(ctx, a.Resolver, args, resolveConcurrency)
		return writeResolutions(cmd.OutOrStdout(), resolveOutput, results)
	},
}

// resolveAll resolves zips concurrently, keeping input order.
func resolveAll(ctx context.Context, resolver zipResolver, zips []string, limit int) []resolution {
	results := make([]resolution, len(zips))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, zip := range zips {
		i, zip := i, zip
		g.Go(func() error {
			r := resolver.Resolve(ctx, geocode.ZipCode(zip))
			results[i] = resolution{
				ZipCode:   zip,
				Resolved:  r.Resolved,
				Latitude:  r.Latitude,
				Longitude: r.Longitude,
				Source:    r.Source,
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func writeResolutions(w io.Writer, format string, results []resolution) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(results), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "json", "output format: json or yaml")
	resolveCmd.Flags().IntVar(&resolveConcurrency, "concurrency", 4, "maximum concurrent lookups")
	rootCmd.AddCommand(resolveCmd)
}
