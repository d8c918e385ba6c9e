package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profilefields/internal/paths"
	"github.com/mesh-intelligence/profilefields/internal/sqlite"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration and data directories, write a default config.yaml\n" +
			"when none exists, and create the database with its default category.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError("create config directory: %w", err)
	}

	existing, err := loadSettings(configDir)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, existing.DataDir)
	if err != nil {
		return sysError("resolve data dir: %w", err)
	}

	created, err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), dataDir)
	if err != nil {
		return sysError("write config: %w", err)
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
		return sysError("initialize storage: %w", err)
	}
	if err := backend.Detach(); err != nil {
		return sysError("finalize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	if created {
		fmt.Fprintf(out, "wrote %s\n", filepath.Join(configDir, configFileExt))
	}
	fmt.Fprintf(out, "profilefields initialized in %s\n", dataDir)
	return nil
}
