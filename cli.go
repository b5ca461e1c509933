package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"codeberg.org/miketth/layoutlock/pkg/config"
	"codeberg.org/miketth/layoutlock/pkg/journal"
	"codeberg.org/miketth/layoutlock/pkg/langnames"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
	"codeberg.org/miketth/layoutlock/pkg/win32"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type cli struct {
	root *cobra.Command

	configPath    string
	languagesPath string
	debug         bool

	// set up by PersistentPreRunE
	settings config.Settings
	names    *langnames.Registry
	level    zap.AtomicLevel
	log      *zap.SugaredLogger
}

func newCLI() *cli {
	c := &cli{}

	c.root = &cobra.Command{
		Use:               "layoutlock",
		Short:             "Pin the keyboard layout of the focused window to a reference layout",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: c.setup,
		RunE:              c.runDaemon,
	}
	c.root.PersistentFlags().StringVar(&c.configPath, "config", "", "settings file (default: XDG config dir)")
	c.root.PersistentFlags().StringVar(&c.languagesPath, "languages", "", "language name table (XML) replacing the built-in one")
	c.root.PersistentFlags().BoolVar(&c.debug, "debug", false, "enable debug logging")

	c.root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Register the hotkey and keep the layout locked on demand (default)",
			Args:  cobra.NoArgs,
			RunE:  c.runDaemon,
		},
		c.newLayoutsCmd(),
		c.newInstallLayoutCmd(),
		c.newAutostartCmd(),
		c.newHistoryCmd(),
		c.newConfigCmd(),
	)

	return c
}

func (c *cli) Execute(ctx context.Context) error {
	c.root.SetContext(ctx)
	return c.root.Execute()
}

func (c *cli) SetArgs(args []string) {
	c.root.SetArgs(args)
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.configPath == "" {
		path, err := config.Path()
		if err != nil {
			return err
		}
		c.configPath = path
	}

	settings, err := config.LoadOrCreate(c.configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	c.settings = settings

	c.names = langnames.Default()
	if c.languagesPath != "" {
		c.names, err = langnames.ParseFile(c.languagesPath)
		if err != nil {
			return fmt.Errorf("load language names: %w", err)
		}
	}

	c.level = zap.NewAtomicLevelAt(logLevel(c.debug || settings.Debug))
	c.log, err = newLogger(c.level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	return nil
}

func (c *cli) newCatalog() (*layoutlock.Catalog, error) {
	ref, err := c.settings.ReferenceLanguageID()
	if err != nil {
		return nil, err
	}
	return layoutlock.NewCatalog(win32.NewLayouts(c.log), c.names, ref, c.log), nil
}

func (c *cli) newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the installed keyboard layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := c.newCatalog()
			if err != nil {
				return err
			}

			entries, err := catalog.ListInstalled()
			if err != nil {
				return err
			}

			return printLayouts(cmd.OutOrStdout(), entries, catalog.Reference())
		},
	}
}

func printLayouts(w io.Writer, entries []layoutlock.CatalogEntry, reference layoutlock.LanguageID) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HANDLE\tLANGUAGE\tNAME\t")
	for _, e := range entries {
		marker := ""
		if e.LanguageID == reference {
			marker = "(reference)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Handle, e.LanguageID, e.DisplayName, marker)
	}
	return tw.Flush()
}

func (c *cli) newInstallLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install-layout",
		Short: "Install the reference layout for the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := c.newCatalog()
			if err != nil {
				return err
			}

			result, err := catalog.InstallReferenceLayout()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
}

func (c *cli) newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "autostart on|off|status",
		Short:     "Start layoutlock at logon",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			autostart, err := win32.NewAutostart("run", "--config", c.configPath)
			if err != nil {
				return err
			}

			switch args[0] {
			case "on":
				if err := autostart.Enable(); err != nil {
					return err
				}
				c.settings.Autostart = true
			case "off":
				if err := autostart.Disable(); err != nil {
					return err
				}
				c.settings.Autostart = false
			case "status":
				enabled, err := autostart.Enabled()
				if err != nil {
					return err
				}
				return printAutostart(cmd.OutOrStdout(), enabled, autostart.Command())
			default:
				return fmt.Errorf("unknown argument %q", args[0])
			}

			return config.Save(c.configPath, c.settings)
		},
	}
	return cmd
}

func printAutostart(w io.Writer, enabled bool, command string) error {
	if !enabled {
		_, err := fmt.Fprintln(w, "autostart: off")
		return err
	}
	_, err := fmt.Fprintf(w, "autostart: on\ncommand: %s\n", command)
	return err
}

func (c *cli) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lock sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openJournal(c.settings, c.log)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.Sessions(limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}

			return printHistory(cmd.OutOrStdout(), sessions, c.names)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to show, 0 for all")

	return cmd
}

func printHistory(w io.Writer, sessions []journal.Session, names layoutlock.NameResolver) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "no lock sessions recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tDURATION\tPREVIOUS\tCORRECTIONS\tEND\t")
	for _, s := range sessions {
		previous := "-"
		if s.HasPrevious {
			previous = names.DisplayName(s.PreviousLanguage)
		}

		duration := "-"
		if !s.Open() {
			duration = s.Duration().Round(time.Second).String()
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d (%d failed)\t%s\t\n",
			s.CreatedAt.Local().Format(time.DateTime),
			duration,
			previous,
			s.Corrections,
			s.FailedCorrections,
			sessionEnd(s),
		)
	}
	return tw.Flush()
}

func sessionEnd(s journal.Session) string {
	switch {
	case s.Open():
		return "locked"
	case s.Abandoned:
		return "abandoned"
	case s.Restored:
		return "restored"
	default:
		return "dropped"
	}
}

func (c *cli) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the settings file location and the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", c.configPath)

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(c.settings); err != nil {
				return errors.Join(fmt.Errorf("encode settings: %w", err), enc.Close())
			}
			return enc.Close()
		},
	}
}
