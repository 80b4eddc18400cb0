package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yairfalse/keyscout/store"
	"github.com/yairfalse/keyscout/types"
)

var (
	tagColor       string
	tagDescription string
	tagAssignedBy  string
	tagMetadata    []string
	tagForce       bool
)

// tagsCmd groups the tag management subcommands
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage tags and tag assignments",
	Long: `Tag discovered keys, config instances and providers to track
ownership and grouping across rescans.

Tags are many-to-many: a tag can sit on any number of targets and a
target can carry any number of tags. Targets are addressed as kind:id,
for example key:<hash>, instance:<scanner:path> or provider:openai.`,
	Example: `  keyscout tags create team-ml --color "#3366ff"
  keyscout tags assign <tag-id> provider:openai
  keyscout tags list
  keyscout tags show provider:openai
  keyscout tags unassign <tag-id> provider:openai
  keyscout tags delete <tag-id> --force`,
}

var tagsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsCreate,
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags with their assignment counts",
	Args:  cobra.NoArgs,
	RunE:  runTagsList,
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete <tag-id>",
	Short: "Delete a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsDelete,
}

var tagsAssignCmd = &cobra.Command{
	Use:   "assign <tag-id> <kind:id>",
	Short: "Assign a tag to a target",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagsAssign,
}

var tagsUnassignCmd = &cobra.Command{
	Use:   "unassign <tag-id> <kind:id>",
	Short: "Remove a tag from a target",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagsUnassign,
}

var tagsShowCmd = &cobra.Command{
	Use:   "show <kind:id>",
	Short: "Show the tags on a target",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsShow,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.AddCommand(tagsCreateCmd, tagsListCmd, tagsDeleteCmd,
		tagsAssignCmd, tagsUnassignCmd, tagsShowCmd)

	tagsCreateCmd.Flags().StringVar(&tagColor, "color", "", "Display color as #rrggbb")
	tagsCreateCmd.Flags().StringVar(&tagDescription, "description", "", "Free-form description")
	tagsAssignCmd.Flags().StringVar(&tagAssignedBy, "by", "", "Who is making the assignment")
	tagsAssignCmd.Flags().StringSliceVar(&tagMetadata, "meta", nil, "Assignment metadata as key=value, repeatable")
	tagsDeleteCmd.Flags().BoolVar(&tagForce, "force", false, "Delete even when assignments exist")
}

func runTagsCreate(cmd *cobra.Command, args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	tag, err := stores.tags.CreateTag(types.Tag{
		Name:        args[0],
		Color:       tagColor,
		Description: tagDescription,
	})
	if err != nil {
		return err
	}
	if err := stores.save(); err != nil {
		return err
	}

	fmt.Printf("Created tag %q (%s)\n", tag.Name, tag.ID)
	return nil
}

func runTagsList(cmd *cobra.Command, args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	tags := stores.tags.ListTags()
	if len(tags) == 0 {
		fmt.Println("No tags yet. Create one with: keyscout tags create <name>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCOLOR\tASSIGNMENTS")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----------")
	for _, tag := range tags {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			tag.ID, tag.Name, tag.Color, len(stores.tags.Assignments(tag.ID)))
	}
	return w.Flush()
}

func runTagsDelete(cmd *cobra.Command, args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	if err := stores.tags.DeleteTag(args[0], tagForce); err != nil {
		return err
	}
	if err := stores.save(); err != nil {
		return err
	}

	fmt.Printf("Deleted tag %s\n", args[0])
	return nil
}

func runTagsAssign(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args[1])
	if err != nil {
		return err
	}
	meta, err := parseMetadata(tagMetadata)
	if err != nil {
		return err
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	assignment, err := stores.tags.AssignTag(args[0], target, tagAssignedBy, meta)
	if err != nil {
		return err
	}
	if err := stores.save(); err != nil {
		return err
	}
	stores.record("tag", args[0], store.ActionAssign, target, tagAssignedBy)

	fmt.Printf("Assigned tag %s to %s (%s)\n", args[0], target, assignment.ID)
	return nil
}

func runTagsUnassign(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args[1])
	if err != nil {
		return err
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	if err := stores.tags.UnassignTag(args[0], target); err != nil {
		return err
	}
	if err := stores.save(); err != nil {
		return err
	}
	stores.record("tag", args[0], store.ActionUnassign, target, "")

	fmt.Printf("Removed tag %s from %s\n", args[0], target)
	return nil
}

func runTagsShow(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.close()

	tags := stores.tags.TagsFor(target)
	if len(tags) == 0 {
		fmt.Printf("No tags on %s\n", target)
		return nil
	}

	for _, tag := range tags {
		fmt.Printf("%s\t%s\n", tag.ID, tag.Name)
	}
	return nil
}
