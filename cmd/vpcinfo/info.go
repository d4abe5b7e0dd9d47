package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/vpc/pkg/vpc"
)

type infoReport struct {
	URI         string            `json:"uri" yaml:"uri"`
	Dialect     string            `json:"dialect" yaml:"dialect"`
	CRS         string            `json:"crs" yaml:"crs"`
	Tiles       int               `json:"tiles" yaml:"tiles"`
	Points      int64             `json:"points" yaml:"points"`
	Extent      *bboxReport       `json:"extent,omitempty" yaml:"extent,omitempty"`
	CoveredArea float64           `json:"covered_area" yaml:"covered_area"`
	Attributes  []attributeReport `json:"attributes" yaml:"attributes"`
	Skipped     []string          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

type attributeReport struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Size int    `json:"size" yaml:"size"`
}

func newInfoReport(p *vpc.Provider) infoReport {
	r := infoReport{
		URI:         p.URI(),
		Dialect:     p.Dialect().String(),
		CRS:         p.CRS().String(),
		Tiles:       p.TileCount(),
		Points:      p.PointCount(),
		Extent:      newBBox(p.Extent()),
		CoveredArea: p.CoveredArea(),
	}
	for _, a := range p.Attributes() {
		r.Attributes = append(r.Attributes, attributeReport{Name: a.Name, Type: a.Type, Size: a.Size})
	}
	for _, d := range p.Diagnostics() {
		r.Skipped = append(r.Skipped, d.Error())
	}
	return r
}

func newInfoCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info <catalog.vpc>",
		Short: "Summarize a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.open(args[0], a.options())
			if err != nil {
				return err
			}
			defer p.Close()

			report := newInfoReport(p)
			return writeReport(cmd.OutOrStdout(), format, report, report.text)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")
	return cmd
}

func (r infoReport) text(w io.Writer) error {
	lines := []string{
		titleStyle.Render("Virtual point cloud"),
		field("Catalog", r.URI),
		field("Dialect", r.Dialect),
		field("CRS", r.CRS),
		field("Tiles", r.Tiles),
		field("Points", r.Points),
		field("Extent", r.Extent),
		field("Covered area", fmt.Sprintf("%.3f", r.CoveredArea)),
	}

	names := make([]string, len(r.Attributes))
	for i, at := range r.Attributes {
		names[i] = fmt.Sprintf("%s(%s/%d)", at.Name, at.Type, at.Size)
	}
	lines = append(lines, field("Attributes", strings.Join(names, " ")))

	if len(r.Skipped) == 0 {
		lines = append(lines, field("Skipped", successStyle.Render("none")))
	} else {
		lines = append(lines, field("Skipped", warnStyle.Render(fmt.Sprint(len(r.Skipped)))))
	}
	if _, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n"))); err != nil {
		return err
	}

	for _, s := range r.Skipped {
		if _, err := fmt.Fprintln(w, warnStyle.Render("  skipped: ")+s); err != nil {
			return err
		}
	}
	return nil
}
