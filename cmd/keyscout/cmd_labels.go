package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yairfalse/keyscout/store"
	"github.com/yairfalse/keyscout/types"
)

var (
	labelDescription string
	labelAssignedBy  string
	labelMetadata    []string
	labelForce       bool
)

// labelsCmd groups the label management subcommands
var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage labels and label assignments",
	Long: `Label discovered keys, config instances and providers.

Unlike tags, a label is exclusive: it sits on at most one target at a
time, across all target kinds. Assigning an already-assigned label to
a different target fails; move it explicitly with unassign first.`,
	Example: `  keyscout labels create primary
  keyscout labels assign <label-id> key:<hash>
  keyscout labels list
  keyscout labels unassign <label-id>
  keyscout labels history <label-id>`,
}

var labelsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new label",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelsCreate,
}

var labelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all labels and where they sit",
	Args:  cobra.NoArgs,
	RunE:  runLabelsList,
}

var labelsDeleteCmd = &cobra.Command{
	Use:   "delete <label-id>",
	Short: "Delete a label",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelsDelete,
}

var labelsAssignCmd = &cobra.Command{
	Use:   "assign <label-id> <kind:id>",
	Short: "Assign a label to a target",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelsAssign,
}

var labelsUnassignCmd = &cobra.Command{
	Use:   "unassign <label-id> [kind:id]",
	Short: "Free a label from its current target",
	Long: `Free a label from its target. Naming the target guards against
racing with another move: the unassign fails when the label sits
elsewhere. Without a target the current assignment is freed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLabelsUnassign,
}

var labelsHistoryCmd = &cobra.Command{
	Use:   "history <label-id>",
	Short: "Show the assignment history of a label",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelsHistory,
}

func init() {
	rootCmd.AddCommand(labelsCmd)
	labelsCmd.AddCommand(labelsCreateCmd, labelsListCmd, labelsDeleteCmd,
		labelsAssignCmd, labelsUnassignCmd, labelsHistoryCmd)

	labelsCreateCmd.Flags().StringVar(&labelDescription, "description", "", "Free-form description")
	labelsAssignCmd.Flags().StringVar(&labelAssignedBy, "by", "", "Who is making the assignment")
	labelsAssignCmd.Flags().StringSliceVar(&labelMetadata, "meta", nil, "Assignment metadata as key=value, repeatable")
	labelsDeleteCmd.Flags().BoolVar(&labelForce, "force", false, "Delete even when the label is assigned")
}

func runLabelsCreate(cmd *cobra.Command, args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	label, err := stores.labels.CreateLabel(types.Label{
		Name:        args[0],
		Description: labelDescription,
	})
	if err != nil {
		return err
	}
	if err := stores.save(); err != nil {
		return err
	}

	fmt.Printf("Created label %q (%s)\n", label.Name, label.ID)
	return nil
}

func runLabelsList(cmd *cobra.Command, args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	labels := stores.labels.ListLabels()
	if len(labels) == 0 {
		fmt.Println("No labels yet. Create one with: keyscout labels create <name>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tASSIGNED TO")
	_, _ = fmt.Fprintln(w, "--\t----\t-----------")
	for _, label := range labels {
		assignedTo := "-"
		if a, ok := stores.labels.Assignment(label.ID); ok {
			assignedTo = a.Target.String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", label.ID, label.Name, assignedTo)
	}
	return w.Flush()
}

func runLabelsDelete(cmd *cobra.Command, args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	if err := stores.labels.DeleteLabel(args[0], labelForce); err != nil {
		return err
	}
	if err := stores.save(); err != nil {
		return err
	}

	fmt.Printf("Deleted label %s\n", args[0])
	return nil
}

func runLabelsAssign(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args[1])
	if err != nil {
		return err
	}
	meta, err := parseMetadata(labelMetadata)
	if err != nil {
		return err
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	assignment, err := stores.labels.AssignLabel(args[0], target, labelAssignedBy, meta)
	if err != nil {
		var conflict *store.AlreadyAssignedError
		if errors.As(err, &conflict) {
			return fmt.Errorf("label %s is already on %s; run 'keyscout labels unassign %s' first",
				args[0], conflict.ConflictingTarget, args[0])
		}
		return err
	}
	if err := stores.save(); err != nil {
		return err
	}
	stores.record("label", args[0], store.ActionAssign, target, labelAssignedBy)

	fmt.Printf("Assigned label %s to %s (%s)\n", args[0], target, assignment.ID)
	return nil
}

func runLabelsUnassign(cmd *cobra.Command, args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	assignment, ok := stores.labels.Assignment(args[0])
	target := assignment.Target
	if len(args) == 2 {
		target, err = parseTarget(args[1])
		if err != nil {
			return err
		}
	} else if !ok {
		return fmt.Errorf("label %s is not assigned", args[0])
	}

	if err := stores.labels.UnassignLabel(args[0], target); err != nil {
		return err
	}
	if err := stores.save(); err != nil {
		return err
	}
	stores.record("label", args[0], store.ActionUnassign, target, "")

	fmt.Printf("Label %s is now unassigned\n", args[0])
	return nil
}

func runLabelsHistory(cmd *cobra.Command, args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	events, err := stores.history.EventsFor("label", args[0])
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Printf("No recorded history for label %s\n", args[0])
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REVISION\tACTION\tTARGET\tBY\tAT")
	_, _ = fmt.Fprintln(w, "--------\t------\t------\t--\t--")
	for _, event := range events {
		by := event.By
		if by == "" {
			by = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			event.Revision, event.Action, event.Target, by,
			event.At.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
