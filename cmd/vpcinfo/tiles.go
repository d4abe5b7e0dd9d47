package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/vpc/pkg/vpc"
)

type tileReport struct {
	Index  int         `json:"index" yaml:"index"`
	URI    string      `json:"uri" yaml:"uri"`
	Points int64       `json:"points" yaml:"points"`
	Extent *bboxReport `json:"extent,omitempty" yaml:"extent,omitempty"`
	Remote bool        `json:"remote" yaml:"remote"`
}

type tileList []tileReport

func newTileReport(p *vpc.Provider, i int) (tileReport, error) {
	t, err := p.Tile(i)
	if err != nil {
		return tileReport{}, err
	}
	return tileReport{
		Index:  i,
		URI:    t.URI,
		Points: t.PointCount,
		Extent: newBBox(t.Extent),
		Remote: vpc.IsRemote(t.URI),
	}, nil
}

func newTilesCmd(a *app) *cobra.Command {
	var (
		format string
		bounds string
	)

	cmd := &cobra.Command{
		Use:   "tiles <catalog.vpc>",
		Short: "List the tiles of a catalog",
		Long: `List every tile of a catalog with its location, declared point count and
extent. With --bounds only tiles whose extent intersects the rectangle are
listed; tiles with an unknown extent never match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.open(args[0], a.options())
			if err != nil {
				return err
			}
			defer p.Close()

			positions := make([]int, p.TileCount())
			for i := range positions {
				positions[i] = i
			}
			if bounds != "" {
				r, err := parseBounds(bounds)
				if err != nil {
					return err
				}
				positions = p.TilesInBounds(r)
			}

			list := make(tileList, 0, len(positions))
			for _, i := range positions {
				t, err := newTileReport(p, i)
				if err != nil {
					return err
				}
				list = append(list, t)
			}
			return writeReport(cmd.OutOrStdout(), format, list, list.text)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&bounds, "bounds", "", "Only tiles intersecting minx,miny,maxx,maxy (catalog CRS)")
	return cmd
}

func (l tileList) text(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("no tiles"))
		return err
	}
	for _, t := range l {
		source := dimStyle.Render("local")
		if t.Remote {
			source = warnStyle.Render("remote")
		}
		_, err := fmt.Fprintf(w, "%s %s %s\n    %s  %s\n",
			titleStyle.Render(fmt.Sprintf("#%d", t.Index)), t.URI, source,
			field("points", t.Points), field("extent", t.Extent))
		if err != nil {
			return err
		}
	}
	return nil
}

// parseBounds reads "minx,miny,maxx,maxy".
func parseBounds(s string) (vpc.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return vpc.Rect{}, fmt.Errorf("bounds %q: want minx,miny,maxx,maxy", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vpc.Rect{}, fmt.Errorf("bounds %q: %w", s, err)
		}
		v[i] = f
	}
	return vpc.NewRect(v[0], v[1], v[2], v[3]), nil
}
