package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/orchard/pkg/audit"
	"github.com/doodlesbykumbi/orchard/pkg/config"
	"github.com/doodlesbykumbi/orchard/pkg/db"
	"github.com/doodlesbykumbi/orchard/pkg/logger"
)

// loadConfig loads and validates the configuration. Flags named port and
// bind-address override it when set on cmd.
func loadConfig(cmd *cobra.Command) (*config.OrchardConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if f := cmd.Flags().Lookup("bind-address"); f != nil && f.Changed {
		cfg.BindAddress, _ = cmd.Flags().GetString("bind-address")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func connect(cfg *config.OrchardConfig) (*gorm.DB, error) {
	return db.Connect(db.Config{URL: cfg.DatabaseURL, LogLevel: cfg.LogLevel})
}

// newAuditor builds the audit trail the configuration asks for. The
// returned close function releases a dedicated audit connection, if any.
func newAuditor(cfg *config.OrchardConfig, database *gorm.DB, log *logger.Logger) (audit.Auditor, func(), error) {
	if !cfg.IsAuditEnabled() {
		return audit.Nop{}, func() {}, nil
	}

	var st *audit.Store
	if cfg.IsAuditDatabase() {
		if db.IsSQLite(cfg.DatabaseURL) {
			sqlDB, err := database.DB()
			if err != nil {
				return nil, nil, err
			}
			st = audit.NewStoreWithDB(sqlDB)
		} else {
			var err error
			st, err = audit.NewStore(cfg.DatabaseURL)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open audit database: %w", err)
			}
		}
	}

	recorder := audit.NewRecorder(audit.NewLogger(os.Stdout), st, log)
	return recorder, func() { _ = st.Close() }, nil
}
