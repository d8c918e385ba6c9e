package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the profile pages and admin endpoints over HTTP",
		Long: "Serve the profile edit, display and signup pages and the admin endpoints.\n" +
			"The caller is identified by the X-User-ID header; roles and assignments\n" +
			"come from config.yaml.",
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			cfg, err := web.LoadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			checker, err := access.NewRoleChecker(s.settings.Roles, s.settings.Assignments)
			if err != nil {
				return err
			}

			srv := web.New(web.Options{
				Store:   s.backend,
				Checker: checker,
				Bundle:  s.bundle,
				Log:     s.log,
				Locale:  s.settings.Locale,
				Metrics: cfg.Metrics,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx, cfg); err != nil {
				return sysError("serve: %w", err)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PROFILEFIELDS_HTTP_ADDR)")
	return cmd
}
