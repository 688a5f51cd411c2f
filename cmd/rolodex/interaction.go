package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pbaille/rolodex/internal/vfs"
	"github.com/spf13/cobra"
)

func interactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interaction",
		Short: "Manage interactions",
	}
	cmd.AddCommand(interactionDeleteCmd())
	return cmd
}

func interactionDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [person] [date-slug]",
		Short: "Delete one interaction by its date slug",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := vfs.SlugToName(args[0])
			slug := args[1]

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			person, err := s.GetPerson(name)
			if err != nil {
				return err
			}
			if person == nil {
				return fmt.Errorf("person not found: %s", name)
			}

			interactions, err := s.ListInteractions(name)
			if err != nil {
				return err
			}

			slugs := vfs.DateSlugs(interactions)
			ix, ok := slugs[slug]
			if !ok {
				known := make([]string, 0, len(slugs))
				for k := range slugs {
					known = append(known, k)
				}
				sort.Strings(known)
				return fmt.Errorf("no interaction for %s with slug %q (have: %s)",
					name, slug, strings.Join(known, ", "))
			}

			tags := make([]string, len(ix.Tags))
			for i, t := range ix.Tags {
				tags[i] = string(t)
			}
			fmt.Printf("Interaction #%d — %s — tags: %s\n", ix.ID, slug, strings.Join(tags, ", "))
			for _, t := range ix.Takeaways {
				fmt.Printf("  - %s\n", t)
			}

			if !yes {
				fmt.Print("Delete interaction? [y/N] ")
				if !confirm() {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := s.DeleteInteraction(ix.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted interaction for %s (%s)\n", name, slug)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
