package main

import (
	"fmt"
	"strings"

	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/store"
	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var (
		tag        string
		ptype      string
		company    string
		personName string
		dateFrom   string
		dateTo     string
	)

	cmd := &cobra.Command{
		Use:   "search [text...]",
		Short: "Search interactions",
		Long: `Search matches transcripts and takeaways against the given text, and
narrows by the flag filters. With no text, only the filters apply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedType, err := domain.ParsePersonType(ptype)
			if err != nil {
				return err
			}
			filter := store.SearchFilter{
				PersonType: parsedType,
				Company:    company,
				PersonName: personName,
				Text:       strings.Join(args, " "),
				DateFrom:   dateFrom,
				DateTo:     dateTo,
			}
			if tag != "" {
				parsedTag, err := domain.ParseTag(tag)
				if err != nil {
					return err
				}
				filter.Tag = parsedTag
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			results, err := s.SearchInteractions(filter)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No matching interactions found.")
				return nil
			}

			for _, ix := range results {
				tags := make([]string, len(ix.Tags))
				for i, t := range ix.Tags {
					tags[i] = string(t)
				}
				fmt.Printf("#%d  %s  %s  [%s]\n",
					ix.ID, ix.Date.Format("2006-01-02"), ix.PersonName, strings.Join(tags, ", "))
				for _, t := range ix.Takeaways {
					fmt.Printf("    - %s\n", t)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "filter by tag")
	cmd.Flags().StringVarP(&ptype, "type", "t", "", "filter by person type")
	cmd.Flags().StringVarP(&company, "company", "c", "", "filter by company substring")
	cmd.Flags().StringVarP(&personName, "person", "p", "", "filter by person name substring")
	cmd.Flags().StringVar(&dateFrom, "from", "", "start date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&dateTo, "to", "", "end date YYYY-MM-DD (inclusive)")
	return cmd
}

func tagsCmd() *cobra.Command {
	var (
		ptype   string
		company string
	)

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Show interaction counts per tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedType, err := domain.ParsePersonType(ptype)
			if err != nil {
				return err
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			counts, err := s.AggregateTags(parsedType, company)
			if err != nil {
				return err
			}

			for _, t := range domain.Tags {
				fmt.Printf("%-12s %3d  %s\n", t, counts[t], domain.TagDescriptions[t])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ptype, "type", "t", "", "filter by person type")
	cmd.Flags().StringVarP(&company, "company", "c", "", "filter by company substring")
	return cmd
}

func segmentsCmd() *cobra.Command {
	var (
		by    string
		ptype string
	)

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Count people and interactions grouped by type, industry, or company",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedType, err := domain.ParsePersonType(ptype)
			if err != nil {
				return err
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			segments, err := s.AggregateSegments(by, parsedType)
			if err != nil {
				return err
			}
			if len(segments) == 0 {
				fmt.Println("No persons yet.")
				return nil
			}

			fmt.Printf("%-30s %7s %13s\n", "Segment", "People", "Interactions")
			for _, seg := range segments {
				value := seg.Value
				if value == "" {
					value = "-"
				}
				fmt.Printf("%-30s %7d %13d\n", value, seg.People, seg.Interactions)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "type", "grouping field: type, industry, or company")
	cmd.Flags().StringVarP(&ptype, "type", "t", "", "filter by person type")
	return cmd
}
