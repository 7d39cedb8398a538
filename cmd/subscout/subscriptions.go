package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Veraticus/subscout/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs", "list"},
		Short:   "List the subscriptions you track",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := newApp(cmd.Context(), viper.GetViper())
			if err != nil {
				return err
			}
			defer a.Close()

			subs, err := a.engine.ListSubscriptions(cmd.Context(), a.cfg.UserID)
			if err != nil {
				return fmt.Errorf("failed to list subscriptions: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(subs)
			}
			fmt.Println(cli.RenderSubscriptions(subs))
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "print records as JSON")
	return cmd
}
