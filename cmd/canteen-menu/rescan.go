package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/belphemur/canteen-menu/internal/logging"
)

var rescanForce bool

var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Ask the backend to look for a new menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.GetLogger("rescan")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := newAPIClient(cfg).CheckNow(cmd.Context(), rescanForce)
		if err != nil {
			logger.Error().Err(err).Bool("force", rescanForce).Msg("Menu check failed")
			return err
		}

		logger.Info().Str("status", result.Status).Bool("new_found", result.NewFound).Msg("Menu check finished")
		if result.NewFound {
			fmt.Fprintln(cmd.OutOrStdout(), "A new menu was found.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No new menu.")
		}
		return nil
	},
}

func init() {
	rescanCmd.Flags().BoolVar(&rescanForce, "force", false, "reprocess the latest menu even if it was seen before")
}
