package cli

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/internal/profile"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func newDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Read and write stored field values",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <userid>",
			Short: "Print a user's profile record keyed by field short name",
			Args:  cobra.ExactArgs(1),
			RunE:  withSession(runDataGet),
		},
		&cobra.Command{
			Use:   "set <userid> <shortname=value>...",
			Short: "Validate and save field values for a user",
			Long: "Validate and save field values the way the edit form does. Menu values\n" +
				"are option text, dates are YYYY-MM-DD or YYYY-MM-DD HH:MM, checkboxes\n" +
				"are 1 or 0.",
			Args: cobra.MinimumNArgs(2),
			RunE: withSession(runDataSet),
		},
	)
	return cmd
}

func runDataGet(cmd *cobra.Command, s *session, args []string) error {
	userID, err := parseID(args[0])
	if err != nil {
		return err
	}
	user := &profile.User{ID: userID}
	if err := profile.LoadCustomFields(s.page(), user); err != nil {
		return err
	}
	if flags.jsonMode {
		return printJSON(cmd, user)
	}
	keys := make([]string, 0, len(user.Profile))
	for k := range user.Profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, user.Profile[k]})
	}
	return printTable(cmd, user, []string{"FIELD", "VALUE"}, rows)
}

func runDataSet(cmd *cobra.Command, s *session, args []string) error {
	userID, err := parseID(args[0])
	if err != nil {
		return err
	}
	page := s.page()

	f := form.New("")
	if err := profile.Definition(page, f, userID); err != nil {
		return err
	}
	stored := form.Submission{}
	if err := profile.LoadData(page, stored, userID); err != nil {
		return err
	}
	f.SetData(stored)
	if err := profile.DefinitionAfterData(page, f, userID); err != nil {
		return err
	}

	values := url.Values{}
	for _, pair := range args[1:] {
		short, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q (expected shortname=value)", pair)
		}
		e := f.Element(profile.InputPrefix + short)
		if e == nil {
			return fmt.Errorf("field %q: %w", short, types.ErrNotFound)
		}
		if err := setValue(values, e, value); err != nil {
			return fmt.Errorf("field %q: %w", short, err)
		}
	}

	sub := f.Bind(values)
	errs := f.Validate(sub)
	fieldErrs, err := profile.Validation(page, sub, userID)
	if err != nil {
		return err
	}
	for k, v := range fieldErrs {
		if _, ok := errs[k]; !ok {
			errs[k] = v
		}
	}
	if len(errs) > 0 {
		return rejection(errs)
	}
	if err := profile.SaveData(page, sub, userID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d value(s) for user %d\n", len(args)-1, userID)
	return nil
}

// setValue translates a command-line value into what the element's form
// widget would submit.
func setValue(values url.Values, e *form.Element, value string) error {
	switch e.Kind {
	case form.KindSelect:
		for _, opt := range e.Options {
			if opt.Label == value || (value == "" && opt.Value == "") {
				values.Set(e.Name, opt.Value)
				return nil
			}
		}
		return fmt.Errorf("%q is not an option: %w", value, types.ErrInvalidData)
	case form.KindDateTime:
		t, ok := form.ParseDateValue(value)
		if !ok {
			return fmt.Errorf("%q is not a date: %w", value, types.ErrInvalidData)
		}
		parts := map[string]int{"year": t.Year(), "month": int(t.Month()), "day": t.Day(), "hour": t.Hour(), "minute": t.Minute()}
		for part, n := range parts {
			values.Set(e.Name+"["+part+"]", strconv.Itoa(n))
		}
		return nil
	default:
		values.Set(e.Name, value)
		return nil
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <userid>",
		Short: "Print the profile fields shown on a user's page",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			rows, err := profile.DisplayFields(s.page(), userID)
			if err != nil {
				return err
			}
			if rows == nil {
				rows = []profile.DisplayRow{}
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{r.Label, string(r.Value)})
			}
			return printTable(cmd, rows, []string{"FIELD", "VALUE"}, table)
		}),
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write categories, fields and data to JSONL files",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			if err := s.backend.Export(args[0]); err != nil {
				return sysError("export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", args[0])
			return nil
		}),
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Replace all stored data with the JSONL files in dir",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			if err := s.backend.Import(args[0]); err != nil {
				return sysError("import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported from %s\n", args[0])
			return nil
		}),
	}
}
