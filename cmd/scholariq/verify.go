package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/keshavgujrathi/scholariq/internal/cache"
	"github.com/keshavgujrathi/scholariq/internal/store"
	"github.com/keshavgujrathi/scholariq/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the development environment",
	Long: `Run all environment checks (toolchain, directories, configuration,
database, cache) and print a report. Exits non-zero when a required check
fails.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	rc := cache.New(cfg.Redis, store.NewBreaker("redis"))
	report := verify.New(cfg, rc).Run(context.Background())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, c := range report.Checks {
		mark := "ok"
		if !c.OK {
			mark = "FAIL"
			if !c.Required {
				mark = "warn"
			}
		}
		line := fmt.Sprintf("[%s]\t%s\t%s", mark, c.Name, c.Detail)
		if !c.OK && c.Hint != "" {
			line += "\t(" + c.Hint + ")"
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()

	if !report.OK {
		return fmt.Errorf("environment verification failed")
	}
	fmt.Println("Environment looks good.")
	return nil
}
