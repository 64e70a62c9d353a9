package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskpad/internal/config"
	"taskpad/internal/logging"
	"taskpad/internal/storage"
	"taskpad/internal/store"
	"taskpad/internal/ui"
)

var Version = "dev"

type flags struct {
	configPath string
	backend    string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "taskpad",
		Short:         "A keyboard-driven task list for the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}
	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "config file (default $TASKPAD_CONFIG or the user config dir)")
	cmd.PersistentFlags().StringVarP(&f.backend, "backend", "b", "", "task backend: memory or sqlite")

	cmd.AddCommand(configCmd(f))
	cmd.AddCommand(versionCmd())
	return cmd
}

func configCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the config path and the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, _, err := loadConfig(f)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", path)
			_, err = out.Write(data)
			return err
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskpad %s\n", Version)
		},
	}
}

func run(f *flags) error {
	path, cfg, firstLaunch, err := loadConfig(f)
	if err != nil {
		return err
	}

	log, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer closer.Close()

	backend, err := openBackend(cfg.Backend)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	s := store.New(backend)
	defer s.Close()
	unsubscribe := s.Subscribe(logging.Audit(log))
	defer unsubscribe()

	log.Info("starting", "version", Version, "config", path, "backend", cfg.Backend)

	opts := ui.Options{Logger: log}
	if firstLaunch {
		opts.Notice = fmt.Sprintf("Created %s. Press '%s' to add a task.", path, cfg.Keys.Add)
	}
	if err := ui.Run(s, cfg, opts); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func loadConfig(f *flags) (string, config.Config, bool, error) {
	path := strings.TrimSpace(f.configPath)
	if path == "" {
		path = config.ResolveConfigPath()
	}
	firstLaunch := false
	if _, err := os.Stat(path); err != nil {
		firstLaunch = errors.Is(err, os.ErrNotExist)
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return path, cfg, false, fmt.Errorf("failed to load config: %w", err)
	}
	if f.backend != "" {
		cfg.Backend = strings.ToLower(strings.TrimSpace(f.backend))
		if err := cfg.Validate(); err != nil {
			return path, cfg, false, err
		}
	}
	return path, cfg, firstLaunch, nil
}

func openBackend(name string) (store.Backend, error) {
	switch name {
	case config.BackendSQLite:
		return storage.Open("")
	case config.BackendMemory, "":
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}
