package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/vpc/pkg/vpc"
)

type sublayerReport struct {
	URI      string `json:"uri" yaml:"uri"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Priority int    `json:"priority" yaml:"priority"`
}

type sublayerList []sublayerReport

func newSublayersCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sublayers <uri>...",
		Short: "Show which locations are offered as virtual point clouds",
		Long: `For each location report whether it is recognized as a virtual point cloud
catalog, from its file name alone. Nothing is read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var list sublayerList
			for _, uri := range args {
				layers := vpc.QuerySublayers(uri)
				if len(layers) == 0 {
					list = append(list, sublayerReport{URI: uri, Priority: vpc.PriorityForURI(uri)})
					continue
				}
				for _, l := range layers {
					list = append(list, sublayerReport{
						URI:      l.URI,
						Name:     l.Name,
						Provider: l.ProviderKey,
						Type:     l.Type.String(),
						Priority: vpc.PriorityForURI(uri),
					})
				}
			}
			return writeReport(cmd.OutOrStdout(), format, list, list.text)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")
	return cmd
}

func (l sublayerList) text(w io.Writer) error {
	for _, s := range l {
		var line string
		if s.Provider == "" {
			line = fmt.Sprintf("%s %s", dimStyle.Render("-"), s.URI)
		} else {
			line = fmt.Sprintf("%s %s %s %s", successStyle.Render("✓"), s.URI,
				titleStyle.Render(s.Name), dimStyle.Render(fmt.Sprintf("(%s, %s, priority %d)", s.Provider, s.Type, s.Priority)))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, dimStyle.Render(vpc.FileFilter()))
	return err
}
