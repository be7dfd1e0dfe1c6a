package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"pagesmith/internal/config"
	"pagesmith/internal/content"
	"pagesmith/internal/database"
	"pagesmith/internal/variables"
)

var (
	cssTheme     string
	exportPage   string
	exportFormat string
	exportName   string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if memoryMode {
			return errors.New("migrate needs PostgreSQL, drop --memory")
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		b, err := openBackend(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer b.Close()

		if err := database.Migrate(b.db); err != nil {
			return err
		}
		version, err := database.MigrationVersion(b.db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first admin account and the built-in themes",
	Long:  "Creates ADMIN_EMAIL with ADMIN_PASSWORD when no user exists and inserts any missing built-in theme. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		b, err := openBackend(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer b.Close()

		if memoryMode {
			// openBackend already seeded the in-memory gateway.
			return nil
		}
		return database.Seed(ctx, b.records, seedOptions(cfg))
	},
}

var cssCmd = &cobra.Command{
	Use:   "css",
	Short: "Print the generated stylesheet",
	Long:  "Prints the CSS for every theme followed by the site custom CSS, or a single theme's block with --theme.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		b, err := openBackend(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer b.Close()

		themes := b.themeService()
		var css string
		if cssTheme != "" {
			css, err = themes.ThemeStylesheet(ctx, nil, cssTheme)
		} else {
			css, err = themes.Stylesheet(ctx, nil)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), css)
		return err
	},
}

var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "Work with page template variables",
}

var variablesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a page's template variables as JSON or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportPage == "" {
			return errors.New("--page is required")
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		b, err := openBackend(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer b.Close()

		sections, err := content.NewService(b.records).Sections(ctx, nil, exportPage)
		if err != nil {
			return err
		}
		slog.Debug("sections loaded", "page", exportPage, "count", len(sections))

		out := cmd.OutOrStdout()
		switch exportFormat {
		case "csv":
			return variables.WriteCSV(out, sections)
		case "json":
			name := exportName
			if name == "" {
				name = exportPage
			}
			data, err := variables.ExportJSON(name, sections)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(data))
			return err
		default:
			return fmt.Errorf("unknown format %q, want csv or json", exportFormat)
		}
	},
}

func init() {
	cssCmd.Flags().StringVar(&cssTheme, "theme", "", "Only print the block of the theme with this slug")

	variablesExportCmd.Flags().StringVar(&exportPage, "page", "", "Page id, for example /about")
	variablesExportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or csv")
	variablesExportCmd.Flags().StringVar(&exportName, "template", "", "Template name recorded in the JSON document (default: the page id)")
	variablesCmd.AddCommand(variablesExportCmd)
}
