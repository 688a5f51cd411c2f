package main

import (
	"fmt"
	"strings"

	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/store"
	"github.com/pbaille/rolodex/internal/vfs"
	"github.com/spf13/cobra"
)

func personCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage persons",
	}
	cmd.AddCommand(personCreateCmd())
	cmd.AddCommand(personDeleteCmd())
	cmd.AddCommand(personShowCmd())
	cmd.AddCommand(personListCmd())
	cmd.AddCommand(personSearchCmd())
	cmd.AddCommand(personConnectCmd())
	cmd.AddCommand(personDisconnectCmd())
	return cmd
}

func personCreateCmd() *cobra.Command {
	var (
		company   string
		ptype     string
		linkedin  string
		industry  string
		revenue   string
		headcount string
		connects  []string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a person",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")

			parsed, err := domain.ParsePersonType(ptype)
			if err != nil {
				return err
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			person, err := s.CreatePerson(domain.Person{
				Name:             name,
				CurrentCompany:   company,
				Type:             parsed,
				LinkedInURL:      linkedin,
				CompanyIndustry:  industry,
				CompanyRevenue:   revenue,
				CompanyHeadcount: headcount,
				Connections:      connects,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created %s (%s)\n", person.Name, person.CurrentCompany)
			return nil
		},
	}

	cmd.Flags().StringVarP(&company, "company", "c", "", "current company (required)")
	cmd.Flags().StringVarP(&ptype, "type", "t", "", "person type: customer, investor, competitor")
	cmd.Flags().StringVar(&linkedin, "linkedin", "", "LinkedIn URL")
	cmd.Flags().StringVar(&industry, "industry", "", "company industry")
	cmd.Flags().StringVar(&revenue, "revenue", "", "company revenue")
	cmd.Flags().StringVar(&headcount, "headcount", "", "company headcount")
	cmd.Flags().StringSliceVar(&connects, "connect", nil, "names of connected persons")
	cmd.MarkFlagRequired("company")
	return cmd
}

func personDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a person and all their data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := vfs.SlugToName(strings.Join(args, " "))

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
				return fmt.Errorf("person %q: %w", name, domain.ErrNotFound)
			}

			if !yes {
				fmt.Printf("Delete %s and all %d interaction(s)? [y/N] ", name, len(person.InteractionIDs))
				if !confirm() {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := s.DeletePerson(name); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func personShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show person details",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := vfs.SlugToName(strings.Join(args, " "))

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

			ptype := string(person.Type)
			if ptype == "" {
				ptype = "untyped"
			}
			fmt.Printf("Name:         %s\n", person.Name)
			fmt.Printf("Company:      %s\n", person.CurrentCompany)
			fmt.Printf("Type:         %s\n", ptype)
			fmt.Printf("Interactions: %d\n", len(person.InteractionIDs))
			if len(person.Connections) > 0 {
				fmt.Printf("Connections:  %s\n", strings.Join(person.Connections, ", "))
			}
			if person.Background != "" {
				fmt.Printf("\nBackground:\n%s\n", person.Background)
			}
			if person.StateOfPlay != "" {
				fmt.Printf("\nState of play:\n%s\n", person.StateOfPlay)
			}
			if person.LastDelta != "" {
				fmt.Printf("\nLast delta:\n%s\n", person.LastDelta)
			}
			return nil
		},
	}
}

func personListCmd() *cobra.Command {
	var ptype string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persons",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domain.ParsePersonType(ptype)
			if err != nil {
				return err
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			persons, err := s.ListPersons(parsed)
			if err != nil {
				return err
			}
			if len(persons) == 0 {
				fmt.Println("No persons yet. Use 'rolodex person create' to add one.")
				return nil
			}

			for _, p := range persons {
				t := string(p.Type)
				if t == "" {
					t = "untyped"
				}
				fmt.Printf("%-30s %-20s %-12s %d interactions\n",
					p.Name, p.CurrentCompany, t, len(p.InteractionIDs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ptype, "type", "t", "", "filter by type")
	return cmd
}

func personSearchCmd() *cobra.Command {
	var (
		ptype    string
		company  string
		industry string
		text     string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search persons by type, company, industry, or profile text",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domain.ParsePersonType(ptype)
			if err != nil {
				return err
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			persons, err := s.SearchPersons(store.PersonFilter{
				Type:     parsed,
				Company:  company,
				Industry: industry,
				Text:     text,
			})
			if err != nil {
				return err
			}
			if len(persons) == 0 {
				fmt.Println("No matching persons found.")
				return nil
			}

			for _, p := range persons {
				t := string(p.Type)
				if t == "" {
					t = "untyped"
				}
				ind := p.CompanyIndustry
				if ind == "" {
					ind = "-"
				}
				fmt.Printf("%-30s %-20s %-12s %-20s %d interactions\n",
					p.Name, p.CurrentCompany, t, ind, len(p.InteractionIDs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ptype, "type", "t", "", "filter by person type")
	cmd.Flags().StringVarP(&company, "company", "c", "", "filter by company substring")
	cmd.Flags().StringVar(&industry, "industry", "", "filter by industry substring")
	cmd.Flags().StringVar(&text, "text", "", "search state of play and background")
	return cmd
}

func personConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect [name-a] [name-b]",
		Short: "Record that two persons know each other",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			a := vfs.SlugToName(args[0])
			b := vfs.SlugToName(args[1])
			if err := s.AddConnection(a, b); err != nil {
				return err
			}
			fmt.Printf("Connected %s and %s\n", a, b)
			return nil
		},
	}
}

func personDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect [name-a] [name-b]",
		Short: "Remove a connection between two persons",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			a := vfs.SlugToName(args[0])
			b := vfs.SlugToName(args[1])
			if err := s.RemoveConnection(a, b); err != nil {
				return err
			}
			fmt.Printf("Disconnected %s and %s\n", a, b)
			return nil
		},
	}
}
