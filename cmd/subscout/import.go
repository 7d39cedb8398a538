package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/subscout/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-new",
		Short: "Scan and add every newly discovered subscription",
		Long: `Scan the mailbox and insert every candidate classified NEW without an
interactive review. Duplicates and conflicts are never touched.`,
		RunE: runImportNew,
	}

	cmd.Flags().Int("days", 0, "how many days back to search (default from config)")
	cmd.Flags().String("token", "", "mailbox access token (default from config)")

	return cmd
}

func runImportNew(cmd *cobra.Command, _ []string) error {
	days, _ := cmd.Flags().GetInt("days")
	token, _ := cmd.Flags().GetString("token")

	ctx := cmd.Context()
	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	a.engine.OnProgress(cli.NewScanProgress(os.Stdout).Report)
	res, err := a.engine.Scan(ctx, a.scanRequest(token, days))
	if err != nil {
		return err
	}
	fmt.Println(cli.RenderScanResult(res))
	if res.Found == 0 {
		return nil
	}

	imported, err := a.engine.ImportAllNew(ctx, a.cfg.UserID, res.Candidates)
	if err != nil {
		return err
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %d new subscriptions.", imported.Applied)))
	return nil
}
