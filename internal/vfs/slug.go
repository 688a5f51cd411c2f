package vfs

import (
	"fmt"
	"sort"

	"github.com/pbaille/rolodex/internal/domain"
)

// DateSlugs builds the slug -> interaction mapping for one person's
// interactions. Interactions are grouped by calendar date (timestamp
// truncated, timezone-naive). A date with a single interaction gets the bare
// date slug ("2025-09-05"); with N > 1 the first (lowest id) keeps the bare
// date and the rest get "_2" through "_N" in ascending id order. Every
// subsystem that needs a slug must go through this function so slugs never
// drift between the VFS, the pipeline, and the CLI.
func DateSlugs(interactions []domain.Interaction) map[string]domain.Interaction {
	byDate := make(map[string][]domain.Interaction)
	for _, ix := range interactions {
		dateStr := ix.Date.Format("2006-01-02")
		byDate[dateStr] = append(byDate[dateStr], ix)
	}

	slugs := make(map[string]domain.Interaction, len(interactions))
	for dateStr, group := range byDate {
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		for idx, ix := range group {
			if idx == 0 {
				slugs[dateStr] = ix
			} else {
				slugs[fmt.Sprintf("%s_%d", dateStr, idx+1)] = ix
			}
		}
	}
	return slugs
}

// SlugFor returns the date slug of the interaction with the given id within
// the supplied interaction list, or false if the id is not present.
func SlugFor(interactions []domain.Interaction, id int64) (string, bool) {
	for slug, ix := range DateSlugs(interactions) {
		if ix.ID == id {
			return slug, true
		}
	}
	return "", false
}
