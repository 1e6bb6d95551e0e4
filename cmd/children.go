package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var (
	childrenArchived bool
	childrenAll      bool

	addLast  string
	addBirth string
	addNotes string
	addColor string
)

var childrenCmd = &cobra.Command{
	Use:   "children",
	Short: "List and manage children",
	Args:  cobra.NoArgs,
	RunE:  runChildren,
}

var childrenAddCmd = &cobra.Command{
	Use:   "add <firstName>",
	Short: "Register a child",
	Args:  cobra.ExactArgs(1),
	RunE:  runChildrenAdd,
}

var childrenArchiveCmd = &cobra.Command{
	Use:   "archive <childId>",
	Short: "Archive a child (history is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setArchived(cmd, args[0], true)
	},
}

var childrenUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <childId>",
	Short: "Bring an archived child back",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setArchived(cmd, args[0], false)
	},
}

var childrenDeleteCmd = &cobra.Command{
	Use:   "delete <childId>",
	Short: "Delete a child and all of its attendance records",
	Args:  cobra.ExactArgs(1),
	RunE:  runChildrenDelete,
}

func init() {
	childrenCmd.Flags().BoolVar(&childrenArchived, "archived", false, "Show archived children only")
	childrenCmd.Flags().BoolVar(&childrenAll, "all", false, "Show active and archived children")
	childrenCmd.MarkFlagsMutuallyExclusive("archived", "all")

	childrenAddCmd.Flags().StringVar(&addLast, "last", "", "Last name")
	childrenAddCmd.Flags().StringVar(&addBirth, "birth", "", "Birth date (YYYY-MM-DD)")
	childrenAddCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")
	childrenAddCmd.Flags().StringVar(&addColor, "color", "", "Display color, e.g. #ffcc00")

	childrenCmd.AddCommand(childrenAddCmd, childrenArchiveCmd, childrenUnarchiveCmd, childrenDeleteCmd)
}

func runChildren(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		var (
			list []model.Child
			err  error
		)
		switch {
		case childrenAll:
			list, err = svc.ListChildren(ctx)
		case childrenArchived:
			list, err = svc.ArchivedChildren(ctx)
		default:
			list, err = svc.ActiveChildren(ctx)
		}
		if err != nil {
			return err
		}
		printChildren(cmd.OutOrStdout(), list)
		return nil
	})
}

func printChildren(w io.Writer, list []model.Child) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No children found.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Name", "Birth date", "Active", "Notes"})
	for _, c := range list {
		t.AppendRow(table.Row{c.ID, c.DisplayName(), deref(c.BirthDate), yesNo(c.Active), deref(c.Notes)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func runChildrenAdd(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		c, err := svc.CreateChild(ctx, model.NewChild{
			FirstName: args[0],
			LastName:  optionalFlag(addLast),
			BirthDate: optionalFlag(addBirth),
			Notes:     optionalFlag(addNotes),
			Color:     optionalFlag(addColor),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", c.DisplayName(), c.ID)
		return nil
	})
}

func setArchived(cmd *cobra.Command, id string, archived bool) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		var (
			c   model.Child
			err error
		)
		if archived {
			c, err = svc.Archive(ctx, id)
		} else {
			c, err = svc.Unarchive(ctx, id)
		}
		if err != nil {
			return err
		}
		state := "active"
		if !c.Active {
			state = "archived"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", c.DisplayName(), state)
		return nil
	})
}

func runChildrenDelete(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		c, err := svc.GetChild(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteChild(ctx, c.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s and all attendance records\n", c.DisplayName())
		return nil
	})
}

func optionalFlag(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
