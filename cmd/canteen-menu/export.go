package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/belphemur/canteen-menu/internal/export"
	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/progress"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every available menu to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.GetLogger("export")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		exporter := export.New(newAPIClient(cfg), progress.NewReporter("Exporting menus"))
		result, err := exporter.Collect(cmd.Context())
		if err != nil {
			if len(result.Menus) == 0 {
				return err
			}
			logger.Warn().Err(err).Int("menus", len(result.Menus)).Msg("Some menus could not be fetched, exporting the rest")
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		if err := export.Write(f, result.Menus); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", exportOut, err)
		}

		if len(result.Missing) > 0 {
			logger.Info().Strs("dates", result.Missing).Msg("Dates listed without a menu")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d menus to %s\n", len(result.Menus), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "menus.xlsx", "output workbook path")
}
