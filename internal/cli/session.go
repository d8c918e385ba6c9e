package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/i18n"
	"github.com/mesh-intelligence/profilefields/internal/logging"
	"github.com/mesh-intelligence/profilefields/internal/paths"
	"github.com/mesh-intelligence/profilefields/internal/profile"
	"github.com/mesh-intelligence/profilefields/internal/sqlite"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// session is an attached backend plus the settings it was opened with.
type session struct {
	settings settings
	backend  *sqlite.Backend
	bundle   *i18n.Bundle
	log      *zap.Logger
}

// openSession resolves directories, loads config.yaml, builds the logger
// and attaches the backend. The caller must call close.
func openSession(cmd *cobra.Command) (*session, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, sysError("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return nil, err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, s.DataDir)
	if err != nil {
		return nil, sysError("resolve data dir: %w", err)
	}

	logCfg := s.Log
	logCfg.Console = cmd.ErrOrStderr()
	log, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}
	bundle, err := i18n.Load()
	if err != nil {
		return nil, sysError("load translations: %w", err)
	}

	tr := bundle.Printer(s.Locale)
	backend := sqlite.NewBackend(
		sqlite.WithLogger(log),
		sqlite.WithDefaultCategory(tr.String("profiledefaultcategory")),
	)
	if err := backend.Attach(types.Config{Backend: s.Backend, DataDir: dataDir}); err != nil {
		return nil, sysError("attach backend: %w", err)
	}
	log.Debug("session opened", zap.String("data_dir", dataDir), zap.String("locale", tr.Locale()))

	return &session{settings: s, backend: backend, bundle: bundle, log: log}, nil
}

func (s *session) close() {
	if err := s.backend.Detach(); err != nil {
		s.log.Warn("detach failed", zap.Error(err))
	}
	_ = s.log.Sync()
}

// page returns profile collaborators acting as the site operator.
func (s *session) page() *profile.Page {
	return &profile.Page{
		Cupboard:   s.backend,
		Checker:    access.Operator{},
		Translator: s.bundle.Printer(s.settings.Locale),
		Log:        s.log,
	}
}

func (s *session) table(name string) (types.Table, error) {
	return s.backend.GetTable(name)
}

// withSession opens a session around fn.
func withSession(fn func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, s, args)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// printTable writes header and rows as aligned columns, or v as JSON in
// --json mode.
func printTable(cmd *cobra.Command, v any, header []string, rows [][]string) error {
	if flags.jsonMode {
		return printJSON(cmd, v)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	writeRow(w, header)
	for _, r := range rows {
		writeRow(w, r)
	}
	return w.Flush()
}

func writeRow(w *tabwriter.Writer, cols []string) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", raw, types.ErrInvalidID)
	}
	return id, nil
}

func parseDirection(raw string) (bool, error) {
	switch raw {
	case "up":
		return true, nil
	case "down":
		return false, nil
	}
	return false, fmt.Errorf("direction must be up or down, got %q", raw)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
