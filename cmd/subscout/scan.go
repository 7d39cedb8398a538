package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/subscout/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan your mailbox and review discovered subscriptions",
		Long: `Search the connected mailbox for billing messages, extract the
subscriptions they describe, and compare them with the ones you already track.

Each candidate is shown as NEW, DUPLICATE or CONFLICT. Toggle candidates,
choose how conflicts are applied, then commit. Nothing is written before you
commit.`,
		RunE: runScan,
	}

	cmd.Flags().Int("days", 0, "how many days back to search (default from config)")
	cmd.Flags().String("token", "", "mailbox access token (default from config)")
	cmd.Flags().Bool("dry-run", false, "show candidates without reviewing or committing")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	days, _ := cmd.Flags().GetInt("days")
	token, _ := cmd.Flags().GetString("token")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	interrupts := cli.NewInterruptHandler(os.Stdout)
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println(cli.FormatTitle("Scanning your mailbox"))
	a.engine.OnProgress(cli.NewScanProgress(os.Stdout).Report)

	req := a.scanRequest(token, days)
	if dryRun {
		res, err := a.engine.Scan(ctx, req)
		if err != nil {
			return err
		}
		fmt.Println(cli.RenderScanResult(res))
		if res.Found > 0 {
			fmt.Println(cli.RenderCandidates(res.Candidates))
		}
		return nil
	}

	res, committed, err := a.engine.ScanAndReview(ctx, req, cli.NewReviewPrompter(os.Stdin, os.Stdout))
	if interrupts.WasInterrupted() {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderScanResult(res))
	if committed != nil {
		fmt.Println(cli.RenderCommitResult(committed))
	}
	return nil
}
