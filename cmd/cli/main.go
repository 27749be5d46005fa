package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"takforge/adapters/excel"
	"takforge/adapters/fs"
	"takforge/adapters/llm"
	"takforge/adapters/registry"
	"takforge/app"
	"takforge/domain/takcheck"
	"takforge/internal/artifactcheck"
	"takforge/internal/config"
	"takforge/internal/schema"
	"takforge/internal/template"
	"takforge/ports"
	"takforge/ui"
)

func main() {
	// Secrets come from .env in development; absence is fine.
	_ = godotenv.Load()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "takforge",
		Short: "Generate schema-conformant TAK XML from tabular clinical definitions",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	rootCmd.AddCommand(
		newValidateCmd(&configPath),
		newGenerateCmd(&configPath),
		newPackageCmd(&configPath),
		newServeCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the workbook without generating anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			wb, err := excel.NewWorkbookReader().Read(cfg.Paths.WorkbookFile)
			if err != nil {
				return err
			}

			result := takcheck.NewAggregator().Validate(cmd.Context(), wb)
			for _, issue := range result.Issues {
				fmt.Printf("ERROR   %s\n", issue)
			}
			for _, warning := range result.Warnings {
				fmt.Printf("WARNING %s\n", warning)
			}
			fmt.Println(result.Summary())
			if !result.Valid {
				return fmt.Errorf("workbook validation failed")
			}
			return nil
		},
	}
}

func newGenerateCmd(configPath *string) *cobra.Command {
	var testMode bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the generate-validate-repair loop over every workbook row",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if testMode {
				cfg.Loop.TestMode = true
			}

			wb, err := excel.NewWorkbookReader().Read(cfg.Paths.WorkbookFile)
			if err != nil {
				return err
			}

			xsd, err := os.ReadFile(cfg.Paths.SchemaFile)
			if err != nil {
				return fmt.Errorf("read schema file: %w", err)
			}
			s, err := schema.New(string(xsd))
			if err != nil {
				return err
			}

			templates := template.NewStore(cfg.Paths.TemplatesDir)

			reg, err := buildRegistry(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			oracle, err := buildOracle(cfg)
			if err != nil {
				return err
			}

			automator := app.NewAutomator(
				wb,
				takcheck.NewAggregator(),
				artifactcheck.NewTakChecker(s, wb, templates),
				app.NewPromptBuilder(s, templates),
				oracle,
				reg,
				fs.NewArtifactStore(cfg.Paths.OutputDir),
				app.Options{
					Model:       cfg.Oracle.Model,
					MaxTokens:   cfg.Oracle.MaxTokens,
					MaxAttempts: cfg.Loop.MaxAttempts,
					TestMode:    cfg.Loop.TestMode,
				},
			)

			rep, runErr := automator.Run(cmd.Context())
			if err := writeReport(cfg.Paths.ReportFile, rep.Render()); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}

			valid, invalid, review, skipped := rep.Counts()
			fmt.Printf("run %s: %d valid, %d invalid, %d need review, %d skipped\n",
				rep.RunID, valid, invalid, review, skipped)
			fmt.Printf("report written to %s\n", cfg.Paths.ReportFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&testMode, "test", false, "build and check prompts without calling the oracle")
	return cmd
}

func newPackageCmd(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Bundle every usable artifact into a delivery zip",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(cfg.Paths.OutputDir, "takforge.zip")
			}
			count, err := fs.NewArtifactStore(cfg.Paths.OutputDir).Package(out)
			if err != nil {
				return err
			}
			fmt.Printf("packaged %d artifacts into %s\n", count, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "zip output path (default <output_dir>/takforge.zip)")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry and run report over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			reg, err := buildRegistry(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return ui.NewServer(reg, cfg.Paths.ReportFile, cfg.Server.Port).ListenAndServe()
		},
	}
}

func buildRegistry(ctx context.Context, cfg *config.Config) (ports.RegistryStore, error) {
	switch cfg.Registry.Backend {
	case "postgres":
		return registry.Connect(ctx, cfg.Registry.DatabaseURL)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Paths.RegistryFile), 0o755); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
		return registry.NewFileStore(cfg.Paths.RegistryFile)
	}
}

func buildOracle(cfg *config.Config) (ports.LLMClient, error) {
	if cfg.Loop.TestMode {
		// Test mode never reaches the oracle; the mock satisfies the wiring.
		return &llm.MockLLMClient{}, nil
	}
	return llm.NewClient(llm.Config{
		Provider:     cfg.Oracle.Provider,
		APIKey:       cfg.Oracle.APIKey,
		BaseURL:      cfg.Oracle.BaseURL,
		SystemPrompt: cfg.Oracle.SystemPrompt,
		Timeout:      cfg.Oracle.Timeout,
		Temperature:  cfg.Oracle.Temperature,
	})
}

func writeReport(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
