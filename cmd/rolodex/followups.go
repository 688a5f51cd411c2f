package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pbaille/rolodex/internal/ai"
	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/ingest"
	"github.com/pbaille/rolodex/internal/vfs"
	"github.com/spf13/cobra"
)

func followupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followups [person]",
		Short: "List open follow-up items for a person",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			person := vfs.SlugToName(strings.Join(args, " "))

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			followups, err := s.OpenFollowups(person)
			if err != nil {
				return err
			}
			if len(followups) == 0 {
				fmt.Printf("No open follow-ups for %s\n", person)
				return nil
			}

			for _, f := range followups {
				fmt.Printf("[%d] (%s) %s\n", f.ID, f.DateSlug, f.Item)
			}
			return nil
		},
	}
	cmd.AddCommand(followupsAddCmd())
	return cmd
}

func followupsAddCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "add [person] [date-slug...]",
		Short: "Extract follow-ups from interactions already stored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			person := vfs.SlugToName(args[0])
			slugs := args[1:]
			if all {
				slugs = nil
			} else if len(slugs) == 0 {
				return fmt.Errorf("%w: name date slugs to extract from, or pass --all", domain.ErrInvalidInput)
			}

			s, cfg, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			llm, err := ai.New(cfg.Model, cfg.Temperature, cfg.AnalysisTokens)
			if err != nil {
				return err
			}

			pipeline := ingest.New(s, llm, nil, os.Stdout)
			n, err := pipeline.BackfillFollowups(person, slugs)
			if err != nil {
				return err
			}
			fmt.Printf("Added %d follow-up item(s) for %s\n", n, person)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "extract from every interaction")
	return cmd
}

func completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete [id]",
		Short: "Mark a follow-up item done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid follow-up id: %s", args[0])
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			followup, err := s.CompleteFollowup(id)
			if err != nil {
				return err
			}
			fmt.Printf("Done: %s\n", followup.Item)
			return nil
		},
	}
}
