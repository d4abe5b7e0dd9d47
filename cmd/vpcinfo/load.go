package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/beetlebugorg/vpc/pkg/vpc"
)

type loadResult struct {
	Index   int           `json:"index" yaml:"index"`
	URI     string        `json:"uri" yaml:"uri"`
	Version string        `json:"las_version,omitempty" yaml:"las_version,omitempty"`
	Points  uint64        `json:"points" yaml:"points"`
	Extent  *bboxReport   `json:"extent,omitempty" yaml:"extent,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
}

type loadReport struct {
	Results []loadResult `json:"results" yaml:"results"`
	Failed  int          `json:"failed" yaml:"failed"`
}

func newLoadCmd(a *app) *cobra.Command {
	var (
		format     string
		tiles      string
		parallel   int
		metricsOut string
	)

	cmd := &cobra.Command{
		Use:   "load <catalog.vpc>",
		Short: "Open tile indices and report their headers",
		Long: `Open the index of every tile (or of the tiles given with --tiles) and report
what each tile header declares. Distinct tiles are opened in parallel. A tile
that fails to open is reported and does not stop the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("parallel") {
				parallel = a.cfg.Registry.Parallel
			}
			if parallel < 1 {
				return fmt.Errorf("--parallel must be at least 1")
			}

			promReg := prometheus.NewRegistry()
			opts := a.options()
			opts.Metrics = vpc.NewMetrics(promReg)
			opts.Tracer = otel.Tracer("github.com/beetlebugorg/vpc/cmd/vpcinfo")

			p, err := a.open(args[0], opts)
			if err != nil {
				return err
			}
			defer p.Close()

			positions, err := selectTiles(tiles, p.TileCount())
			if err != nil {
				return err
			}

			report := loadTiles(cmd.Context(), p, positions, parallel)
			a.log.Info().Int("tiles", len(positions)).Int("failed", report.Failed).Msg("tiles loaded")

			if metricsOut != "" {
				if err := prometheus.WriteToTextfile(metricsOut, promReg); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}

			if err := writeReport(cmd.OutOrStdout(), format, report, report.text); err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d tiles failed to load", report.Failed, len(report.Results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&tiles, "tiles", "", "Comma separated tile positions (default: all)")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "Tiles opened at once")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write load metrics in Prometheus text format to this file")
	return cmd
}

// loadTiles opens positions with at most parallel loads in flight. Every
// position gets a result; failures are recorded rather than returned.
func loadTiles(ctx context.Context, p *vpc.Provider, positions []int, parallel int) loadReport {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]loadResult, len(positions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for n, i := range positions {
		g.Go(func() error {
			uri, _ := p.TileURI(i)
			res := loadResult{Index: i, URI: uri}

			start := time.Now()
			h, err := p.LoadTile(gctx, i)
			res.Elapsed = time.Since(start)
			if err != nil {
				res.Error = err.Error()
				results[n] = res
				return nil
			}
			if idx, ok := h.Index(); ok {
				info := idx.Info()
				res.Version = info.Version()
				res.Points = info.PointCount
				res.Extent = newBBox(info.Extent)
			}
			results[n] = res
			return nil
		})
	}
	g.Wait()

	report := loadReport{Results: results}
	for _, r := range results {
		if r.Error != "" {
			report.Failed++
		}
	}
	return report
}

// selectTiles parses "--tiles 0,3,7". Empty means every tile.
func selectTiles(s string, count int) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	seen := map[int]bool{}
	var out []int
	for _, part := range strings.Split(s, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("--tiles: %q is not a tile position", part)
		}
		if i < 0 || i >= count {
			return nil, fmt.Errorf("--tiles: %d out of range [0, %d)", i, count)
		}
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (r loadReport) text(w io.Writer) error {
	for _, res := range r.Results {
		var line string
		if res.Error != "" {
			line = fmt.Sprintf("%s %s\n    %s", errorStyle.Render(fmt.Sprintf("✗ #%d", res.Index)), res.URI, res.Error)
		} else {
			line = fmt.Sprintf("%s %s %s\n    %s  %s  %s",
				successStyle.Render(fmt.Sprintf("✓ #%d", res.Index)), res.URI,
				dimStyle.Render(res.Elapsed.Round(time.Microsecond).String()),
				field("LAS", res.Version), field("points", res.Points), field("extent", res.Extent))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	summary := successStyle.Render(fmt.Sprintf("%d loaded", len(r.Results)-r.Failed))
	if r.Failed > 0 {
		summary += ", " + errorStyle.Render(fmt.Sprintf("%d failed", r.Failed))
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}
