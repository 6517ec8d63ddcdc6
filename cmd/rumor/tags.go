package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage the tag catalog",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.LoadTags(cmd.Context()); err != nil {
			return err
		}
		tags := store.State().Tags
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), types.TagListResponse{Tags: tags})
		}
		return printTags(cmd.OutOrStdout(), tags)
	},
}

var flagTagColor string

var tagsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a catalog tag",
	Long:  `Add creates a tag. If a tag with the same name exists, ignoring case, it is shown instead.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		tag, created, err := c.CreateTag(cmd.Context(), types.TagCreateRequest{Name: args[0], Color: flagTagColor})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), tag)
		}
		verb := "exists"
		if created {
			verb = "created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (%s)\n", verb, tag.ID, tag.Name, tag.Color)
		return nil
	},
}

var tagsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a catalog tag",
	Long:  `Remove deletes a tag from the catalog. Guests keep the tag name.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.RemoveTag(cmd.Context(), args[0])
	},
}

func init() {
	tagsAddCmd.Flags().StringVar(&flagTagColor, "color", "", "hex color such as #FF5A5F (default random)")

	tagsCmd.AddCommand(tagsListCmd)
	tagsCmd.AddCommand(tagsAddCmd)
	tagsCmd.AddCommand(tagsRemoveCmd)
}
