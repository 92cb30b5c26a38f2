package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"github.com/dgallion1/omadadoc/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:               "omadadoc",
		Short:             "Extract and use the Omada SDN Controller API documentation",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	configPath string
	logLevel   string
	outputPath string
	format     string

	cfg config.Config
	log *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Write output to this file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&format, "format", "json", "Output format (json or yaml)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(openapiCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and the logger shared by all commands.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	var err error
	if configPath != "" {
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	} else {
		cfg = config.Load()
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q, want json or yaml", format)
	}

	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	return nil
}

// loadDocumentation parses the API document at path.
func loadDocumentation(path string) (*apidoc.Documentation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := apidoc.Parse(f, apidoc.WithLogger(log.With("file", path)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// writeOutput calls fn with stdout, or with the --output file.
func writeOutput(fn func(w io.Writer) error) error {
	if outputPath == "" || outputPath == "-" {
		return fn(os.Stdout)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info("wrote output", "path", outputPath)
	return nil
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q, want json or yaml", format)
}
