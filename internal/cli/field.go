package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profilefields/internal/category"
	"github.com/mesh-intelligence/profilefields/internal/profile"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func newFieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Manage profile field definitions",
	}

	var listCategory int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List fields in category then field order",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			return runFieldList(cmd, s, listCategory)
		}),
	}
	list.Flags().Int64Var(&listCategory, "category", 0, "only list fields of this category")

	cmd.AddCommand(
		list,
		newFieldAddCmd(),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a field and all data stored for it",
			Args:  cobra.ExactArgs(1),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				return deleteRow(cmd, s, types.TableFields, args[0])
			}),
		},
		&cobra.Command{
			Use:   "move <id> up|down",
			Short: "Swap a field with its neighbour in the same category",
			Args:  cobra.ExactArgs(2),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				return move(cmd, args, s.backend.MoveField)
			}),
		},
	)
	return cmd
}

func runFieldList(cmd *cobra.Command, s *session, categoryID int64) error {
	cats, err := category.List(s.backend, types.ObjectUser)
	if err != nil {
		return err
	}
	tbl, err := s.table(types.TableFields)
	if err != nil {
		return err
	}

	fields := []*types.Field{}
	var rows [][]string
	for _, c := range cats {
		if categoryID != 0 && c.ID != categoryID {
			continue
		}
		res, err := tbl.Fetch(types.Filter{"category_id": c.ID})
		if err != nil {
			return err
		}
		for _, r := range res {
			f := r.(*types.Field)
			fields = append(fields, f)
			rows = append(rows, []string{
				itoa(f.ID), c.Name, f.ShortName, f.Name, f.Datatype, f.Visible.String(), flagsOf(f),
			})
		}
	}
	return printTable(cmd, fields, []string{"ID", "CATEGORY", "SHORTNAME", "NAME", "DATATYPE", "VISIBLE", "FLAGS"}, rows)
}

func flagsOf(f *types.Field) string {
	var out []string
	for _, fl := range []struct {
		on   bool
		name string
	}{
		{f.Required, "required"},
		{f.Unique, "unique"},
		{f.Locked, "locked"},
		{f.Signup, "signup"},
	} {
		if fl.on {
			out = append(out, fl.name)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}

func newFieldAddCmd() *cobra.Command {
	var (
		f          types.Field
		visibility string
	)
	cmd := &cobra.Command{
		Use:   "add <shortname> <name>",
		Short: "Define a new field",
		Long: "Define a new field. Datatypes: " + strings.Join(profile.Datatypes(), ", ") + ".\n" +
			"Menu options go in --param1, one per line.",
		Args: cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			if !profile.IsRegistered(f.Datatype) {
				return fmt.Errorf("%q: %w", f.Datatype, types.ErrUnknownDatatype)
			}
			v, err := types.ParseVisibility(visibility)
			if err != nil {
				return err
			}
			if f.CategoryID == 0 {
				cats, err := category.List(s.backend, types.ObjectUser)
				if err != nil {
					return err
				}
				if len(cats) == 0 {
					return types.ErrCategoryNotFound
				}
				f.CategoryID = cats[0].ID
			}
			f.ObjectName = types.ObjectUser
			f.ShortName = args[0]
			f.Name = args[1]
			f.Visible = v

			tbl, err := s.table(types.TableFields)
			if err != nil {
				return err
			}
			if _, err := tbl.Set(0, &f); err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd, &f)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "field %d added: %s (%s)\n", f.ID, f.ShortName, f.Datatype)
			return nil
		}),
	}

	fl := cmd.Flags()
	fl.Int64Var(&f.CategoryID, "category", 0, "category id (default: first category)")
	fl.StringVar(&f.Datatype, "datatype", "text", "field datatype")
	fl.StringVar(&visibility, "visible", types.VisibleAll.String(), "visibility: all, private or none")
	fl.StringVar(&f.Description, "description", "", "help text shown with the field")
	fl.BoolVar(&f.Required, "required", false, "a value must be given")
	fl.BoolVar(&f.Unique, "unique", false, "no two users may share a value")
	fl.BoolVar(&f.Locked, "locked", false, "only users with update capability may edit")
	fl.BoolVar(&f.Signup, "signup", false, "show on the signup page")
	fl.StringVar(&f.DefaultData, "default", "", "default value")
	fl.StringVar(&f.Param1, "param1", "", "datatype parameter 1")
	fl.StringVar(&f.Param2, "param2", "", "datatype parameter 2")
	fl.StringVar(&f.Param3, "param3", "", "datatype parameter 3")
	return cmd
}
