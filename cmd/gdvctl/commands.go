package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MorMundHS-MA/GDV/internal/app"
	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/dataprocessing"
	apierrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/internal/exporter"
	"github.com/MorMundHS-MA/GDV/internal/files"
	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
	"github.com/MorMundHS-MA/GDV/internal/services"
	"github.com/MorMundHS-MA/GDV/internal/storage"
	"github.com/MorMundHS-MA/GDV/pkg/contracts"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// cli carries what every subcommand needs. Unset fields are filled from the
// environment before a command runs.
type cli struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetcher files.Fetcher
	paths   *config.Paths
	out     io.Writer
	errOut  io.Writer
}

func newRootCmd(c *cli) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "gdvctl",
		Short:         "Inspect and export the GDP and inequality dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(verbose)
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log loader progress to stderr")

	root.AddCommand(
		newShowCmd(c),
		newSnapshotCmd(c),
		newExportCmd(c),
		newPersistCmd(c),
		newSourcesCmd(c),
		newValidateCmd(c),
		newVersionCmd(c),
	)
	return root
}

func (c *cli) init(verbose bool) error {
	if c.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		c.cfg = cfg
	}
	if c.logger == nil {
		logCfg := c.cfg.Logging
		logCfg.Level = "warn"
		if verbose {
			logCfg.Level = "debug"
		}
		c.logger = infrastructure.NewLogger(logCfg, c.errOut)
	}
	if c.paths == nil {
		paths, err := config.GetPaths(c.cfg.Sources.DataDir)
		if err != nil {
			return err
		}
		c.cfg.ApplyPaths(paths)
		c.paths = paths
	}
	if c.fetcher == nil {
		c.fetcher = files.NewRetriever(c.cfg.Sources, c.logger)
	}
	return nil
}

// load builds the dataset through the same pipeline the server uses
func (c *cli) load(ctx context.Context) (*services.DataSource, error) {
	overrides := dataprocessing.DefaultNameOverrides().Merge(dataprocessing.NameOverrides(c.cfg.Resolver.Overrides))
	loader := services.NewLoader(c.fetcher, c.cfg.Sources, overrides, c.logger)
	return loader.LoadData(ctx)
}

func newShowCmd(c *cli) *cobra.Command {
	show := &cobra.Command{
		Use:   "show",
		Short: "Print countries, one country or the value ranges",
	}

	var region string
	countries := &cobra.Command{
		Use:   "countries",
		Short: "List all countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			list := ds.GetCountries()
			if region != "" {
				filtered := list[:0]
				for _, country := range list {
					if strings.EqualFold(country.Region, region) {
						filtered = append(filtered, country)
					}
				}
				list = filtered
			}
			return exporter.NewTableRenderer().Countries(c.out, list)
		},
	}
	countries.Flags().StringVar(&region, "region", "", "Only list countries of this region")

	country := &cobra.Command{
		Use:   "country <name>",
		Short: "Print the yearly values of one country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			found, ok := ds.Lookup(args[0])
			if !ok {
				return apierrors.NewNotFoundError(fmt.Sprintf("country %q", args[0]))
			}
			return exporter.NewTableRenderer().Country(c.out, found)
		},
	}

	limits := &cobra.Command{
		Use:   "limits",
		Short: "Print the observed range of every indicator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			return exporter.NewTableRenderer().Limits(c.out, ds.GetStatLimits())
		},
	}

	show.AddCommand(countries, country, limits)
	return show
}

func newSnapshotCmd(c *cli) *cobra.Command {
	var indicator string

	cmd := &cobra.Command{
		Use:   "snapshot <year>",
		Short: "Print GDP against an indicator for one year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ind, err := domain.ParseIndicator(indicator)
			if err != nil {
				return err
			}
			ds, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			points, err := ds.Snapshot(args[0], ind)
			if err != nil {
				return err
			}
			return exporter.NewTableRenderer().Snapshot(c.out, args[0], ind, points)
		},
	}
	cmd.Flags().StringVarP(&indicator, "indicator", "i", domain.IndicatorIneqComb.String(), "Indicator plotted against GDP")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var (
		format string
		out    string
		bom    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dataset as a workbook or csv file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := exporter.New(format, exporter.Options{BOM: bom, Logger: c.logger})
			if err != nil {
				return err
			}
			ds, err := c.load(cmd.Context())
			if err != nil {
				return err
			}

			manager := files.NewManager(c.paths, c.logger)
			target := out
			if target == "" {
				target = manager.ExportPath(exporter.FileName(e, ds))
			}
			written, err := manager.WriteFile(target, func(w io.Writer) error {
				return e.Write(w, ds)
			})
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Fprintln(c.out, written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatXLSX),
		fmt.Sprintf("Export format (%s)", exporter.FormatList()))
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: exports directory)")
	cmd.Flags().BoolVar(&bom, "bom", false, "Prefix csv output with a UTF-8 byte order mark")
	return cmd
}

func newPersistCmd(c *cli) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Mirror the dataset into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storageCfg := c.cfg.Storage
			if databaseURL != "" {
				storageCfg.DatabaseURL = databaseURL
			}
			if !storageCfg.Enabled() {
				return fmt.Errorf("no database configured, set GDV_STORAGE_DATABASE_URL or --database-url")
			}

			ctx := cmd.Context()
			ds, err := c.load(ctx)
			if err != nil {
				return err
			}

			store, err := storage.Open(ctx, storageCfg, c.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			stored, err := store.StoredFingerprint(ctx)
			if err != nil {
				return err
			}
			if stored == ds.Fingerprint() {
				fmt.Fprintf(c.out, "dataset %s already stored\n", ds.Fingerprint())
				return nil
			}

			res, err := store.SaveDataset(ctx, ds)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "stored %s (%s)\n", ds.Fingerprint(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string")
	return cmd
}

func newSourcesCmd(c *cli) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List source files in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.cfg.Sources.DataDir
			discovery := files.NewDiscovery(c.paths.ExecutableDir)

			var (
				found []files.FileInfo
				err   error
			)
			if pattern != "" {
				found, err = discovery.FindFilesByPattern(dir, pattern)
			} else {
				found, err = discovery.FindDataFiles(dir)
			}
			if err != nil {
				return err
			}

			for _, f := range found {
				fmt.Fprintf(c.out, "%-32s %10d  %s\n", f.Name, f.Size, f.ModTime.Format("2006-01-02 15:04"))
			}
			if latest, err := discovery.GetLatestFile(found); err == nil {
				fmt.Fprintf(c.out, "latest: %s\n", latest.Name)
			}
			if pattern == "" {
				for _, missing := range c.cfg.Sources.MissingSources() {
					fmt.Fprintf(c.out, "missing: %s\n", filepath.ToSlash(missing))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only list files matching this glob, e.g. 'inequality*'")
	return cmd
}

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every source and report the merge summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			info := ds.Info()
			fmt.Fprintf(c.out, "countries:     %d\n", info.Countries)
			fmt.Fprintf(c.out, "names:         %d\n", info.Names)
			fmt.Fprintf(c.out, "regions:       %d\n", info.Regions)
			fmt.Fprintf(c.out, "collisions:    %d\n", info.Collisions)
			fmt.Fprintf(c.out, "duplicates:    %d\n", info.Duplicates)
			fmt.Fprintf(c.out, "missing cells: %d\n", info.MissingCells)
			fmt.Fprintf(c.out, "years:         %s\n", strings.Join(info.Years, ", "))
			fmt.Fprintf(c.out, "fingerprint:   %s\n", info.Fingerprint)
			return nil
		},
	}
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.out, contracts.GetVersionInfo(app.Version, app.BuildTime))
			return nil
		},
	}
}
