package service

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mindwell-ai/mindwell/app/core"
	"github.com/mindwell-ai/mindwell/app/store/sqlstore"
)

func NewMigrateCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := core.MustLoadBaseConfig(opts.ConfigPath)
			if cfg.Postgres.DSN == "" {
				slog.Error("postgres.dsn is empty, nothing to migrate")
				return nil
			}
			p := sqlstore.MustSetup(cfg.Postgres)()
			defer p.Close()

			if err := p.Install(); err != nil {
				return err
			}
			slog.Info("database migrations applied")
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
