package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/orchard/pkg/audit"
	"github.com/doodlesbykumbi/orchard/pkg/config"
	"github.com/doodlesbykumbi/orchard/pkg/loader"
	"github.com/doodlesbykumbi/orchard/pkg/logger"
	gormstore "github.com/doodlesbykumbi/orchard/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/orchard/pkg/trees"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load trees from a YAML file",
	Long: `Load trees and their branches from a YAML file.

Every tree in the file is created in a single transaction: either all of
them are stored or none are. With --dry-run the file is validated against
the database and the transaction is rolled back.

Example:
  orchardctl load trees.yml
  orchardctl load --dry-run trees.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		result, err := loadTreesFile(cmd, args[0], dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load trees: %v\n", err)
			os.Exit(1)
		}

		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().Bool("dry-run", false, "validate the file without storing any tree")
}

// newTreeLoader wires a Loader to the configured database. Dry runs never
// reach the audit trail.
func newTreeLoader(cfg *config.OrchardConfig, log *logger.Logger, dryRun bool) (*loader.Loader, func(), error) {
	database, err := connect(cfg)
	if err != nil {
		return nil, nil, err
	}

	auditor, closeAudit := audit.Auditor(audit.Nop{}), func() {}
	if !dryRun {
		auditor, closeAudit, err = newAuditor(cfg, database, log)
		if err != nil {
			return nil, nil, err
		}
	}

	svc := trees.NewService(gormstore.NewTreesStore(database), log, auditor, nil)
	return loader.NewLoader(svc, log).WithDryRun(dryRun), closeAudit, nil
}

func loadTreesFile(cmd *cobra.Command, filename string, dryRun bool) (*loader.Result, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	l, closeAudit, err := newTreeLoader(cfg, log, dryRun)
	if err != nil {
		return nil, err
	}
	defer closeAudit()

	return l.LoadFile(context.Background(), filename)
}
