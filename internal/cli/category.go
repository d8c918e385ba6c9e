package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profilefields/internal/category"
	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// errRejected reports form rule failures from a command.
var errRejected = errors.New("rejected")

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage profile field categories",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List categories in display order",
			Args:  cobra.NoArgs,
			RunE:  withSession(runCategoryList),
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a category at the end of the list",
			Args:  cobra.ExactArgs(1),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				return saveCategory(cmd, s, form.Submission{"id": "0", "name": args[0]})
			}),
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a category",
			Args:  cobra.ExactArgs(2),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return saveCategory(cmd, s, form.Submission{"id": itoa(id), "name": args[1]})
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a category, moving its fields to the neighbouring one",
			Args:  cobra.ExactArgs(1),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				return deleteRow(cmd, s, types.TableCategories, args[0])
			}),
		},
		&cobra.Command{
			Use:   "move <id> up|down",
			Short: "Swap a category with its neighbour",
			Args:  cobra.ExactArgs(2),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				return move(cmd, args, s.backend.MoveCategory)
			}),
		},
	)
	return cmd
}

func runCategoryList(cmd *cobra.Command, s *session, args []string) error {
	cats, err := category.List(s.backend, types.ObjectUser)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{itoa(c.ID), fmt.Sprint(c.SortOrder), c.Name})
	}
	return printTable(cmd, cats, []string{"ID", "ORDER", "NAME"}, rows)
}

// saveCategory runs the category form rules and the uniqueness check
// before storing.
func saveCategory(cmd *cobra.Command, s *session, sub form.Submission) error {
	tr := s.bundle.Printer(s.settings.Locale)
	f := form.New("")
	category.Definition(f, tr)
	sub["action"] = category.ActionEdit

	errs := f.Validate(sub)
	dup, err := category.Validate(s.backend, types.ObjectUser, sub, tr)
	if err != nil {
		return err
	}
	for k, v := range dup {
		if _, ok := errs[k]; !ok {
			errs[k] = v
		}
	}
	if len(errs) > 0 {
		return rejection(errs)
	}

	c, err := category.Save(s.backend, types.ObjectUser, sub)
	if err != nil {
		return err
	}
	if flags.jsonMode {
		return printJSON(cmd, c)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "category %d saved: %s\n", c.ID, c.Name)
	return nil
}

// rejection formats form errors in a stable order.
func rejection(errs map[string]string) error {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+errs[k])
	}
	return fmt.Errorf("%w: %s", errRejected, strings.Join(parts, "; "))
}

func deleteRow(cmd *cobra.Command, s *session, table, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	tbl, err := s.table(table)
	if err != nil {
		return err
	}
	if err := tbl.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
	return nil
}

func move(cmd *cobra.Command, args []string, fn func(id int64, up bool) (bool, error)) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	up, err := parseDirection(args[1])
	if err != nil {
		return err
	}
	moved, err := fn(id, up)
	if err != nil {
		return err
	}
	if flags.jsonMode {
		return printJSON(cmd, map[string]bool{"moved": moved})
	}
	if moved {
		fmt.Fprintf(cmd.OutOrStdout(), "moved %d %s\n", id, args[1])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%d is already at the %s\n", id, map[bool]string{true: "top", false: "bottom"}[up])
	}
	return nil
}
