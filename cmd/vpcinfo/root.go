package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/beetlebugorg/vpc/internal/config"
	"github.com/beetlebugorg/vpc/internal/logging"
	"github.com/beetlebugorg/vpc/pkg/vpc"
)

// app carries the settings resolved for one invocation.
type app struct {
	v       *viper.Viper
	cfg     config.Config
	log     zerolog.Logger
	bindErr error
}

// flagKeys maps persistent flags to their configuration keys.
var flagKeys = []struct{ flag, key string }{
	{"config", "config"},
	{"log-level", "log.level"},
	{"log-format", "log.format"},
	{"timeout", "http.timeout"},
	{"max-resident", "registry.max_resident"},
}

// bindFlags binds every flag in flagKeys to v.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var errs []error
	for _, fk := range flagKeys {
		if err := v.BindPFlag(fk.key, flags.Lookup(fk.flag)); err != nil {
			errs = append(errs, fmt.Errorf("bind --%s: %w", fk.flag, err))
		}
	}
	return errors.Join(errs...)
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), cfg: config.Default(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "vpcinfo",
		Short: "Inspect virtual point cloud catalogs",
		Long: `vpcinfo reads a virtual point cloud catalog (.vpc), in either the legacy
VPC layout or as a STAC ItemCollection, and reports its tiles, extent and
coverage. Tile indices are only opened by the load command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "TOML configuration file")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	flags.String("log-format", "", "Log format (console, json)")
	flags.Duration("timeout", 0, "HTTP timeout for remote tiles")
	flags.Int("max-resident", -1, "Maximum tile indices kept loaded (0 = unlimited)")

	a.bindErr = bindFlags(a.v, flags)
	a.v.SetEnvPrefix("VPC")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newInfoCmd(a),
		newTilesCmd(a),
		newCoverageCmd(a),
		newLoadCmd(a),
		newSublayersCmd(a),
	)
	return root
}

// init loads the config file, then lets flags and VPC_* variables override it.
func (a *app) init(cmd *cobra.Command) error {
	if a.bindErr != nil {
		return a.bindErr
	}
	if path := a.v.GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	if s := a.v.GetString("log.level"); s != "" {
		a.cfg.Log.Level = s
	}
	if s := a.v.GetString("log.format"); s != "" {
		a.cfg.Log.Format = s
	}
	if d := a.v.GetDuration("http.timeout"); d > 0 {
		a.cfg.HTTP.Timeout = config.Duration(d)
	}
	if n := a.v.GetInt("registry.max_resident"); n >= 0 {
		a.cfg.Registry.MaxResident = n
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	a.log = logging.New(a.cfg.Log, cmd.ErrOrStderr())
	return nil
}

// options builds provider options from the resolved settings.
func (a *app) options() vpc.Options {
	opts := vpc.DefaultOptions()
	opts.STACVersions = a.cfg.Catalog.STACVersions
	opts.HTTPClient = a.cfg.HTTPClient()
	opts.MaxResident = a.cfg.Registry.MaxResident
	opts.Logger = &a.log
	return opts
}

// open opens a catalog. Skipped entries are logged by the parser.
func (a *app) open(uri string, opts vpc.Options) (*vpc.Provider, error) {
	start := time.Now()
	p, err := vpc.Open(uri, opts)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("uri", uri).Dur("elapsed", time.Since(start)).Msg("catalog parsed")
	return p, nil
}
