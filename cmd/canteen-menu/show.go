package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/belphemur/canteen-menu/internal/constants"
	"github.com/belphemur/canteen-menu/internal/menuapi"
	"github.com/belphemur/canteen-menu/internal/viewhelpers"
)

var (
	showDate string
	showPick bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a menu in the terminal",
	Long: `Print the menu for --date, or the latest published menu when no date is given.
With --pick the date is chosen interactively from the available menus.`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "menu date (YYYY-MM-DD)")
	showCmd.Flags().BoolVar(&showPick, "pick", false, "choose the date from the available menus")
	showCmd.MarkFlagsMutuallyExclusive("date", "pick")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := newAPIClient(cfg)
	ctx := cmd.Context()

	date := showDate
	if date != "" && !constants.IsValidDate(date) {
		return fmt.Errorf("invalid date %q, expected %s", date, constants.DateLayout)
	}

	if showPick {
		dates, err := client.Dates(ctx)
		if err != nil {
			return fmt.Errorf("failed to list menu dates: %w", err)
		}
		if len(dates) == 0 {
			return errors.New("no menus are available")
		}

		prompt := promptui.Select{
			Label: "Menu date",
			Items: dates,
			Size:  10,
		}
		_, date, err = prompt.Run()
		if err != nil {
			return fmt.Errorf("date selection cancelled: %w", err)
		}
	}

	menu, err := client.Menu(ctx, date)
	if err != nil {
		if errors.Is(err, menuapi.ErrNotFound) {
			if date == "" {
				return errors.New("no menu has been published yet")
			}
			return fmt.Errorf("no menu found for %s", date)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), viewhelpers.PlainText(menu))
	if loc, err := cfg.Location(); err == nil && menu.Date != constants.Today(time.Now(), loc) {
		cmd.PrintErrf("Note: this is the menu for %s, not today.\n", menu.Date)
	}
	return nil
}
