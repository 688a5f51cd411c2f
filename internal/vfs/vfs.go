// Package vfs maps virtual slash-delimited paths onto live database content.
// The filesystem is read-only and synthetic: nothing is persisted, every
// resolution queries the store.
//
// Path grammar:
//
//	/                                               root, lists person slugs
//	/<person>/                                      info, background, state, delta, interactions/
//	/<person>/interactions/<date-slug>/             transcript, takeaways, tags
package vfs

import (
	"sort"
	"strings"

	"github.com/pbaille/rolodex/internal/domain"
)

// Storage is the subset of the store the resolver reads from.
type Storage interface {
	GetPerson(name string) (*domain.Person, error)
	ListPersons(typeFilter domain.PersonType) ([]domain.Person, error)
	ListInteractions(personName string) ([]domain.Interaction, error)
}

// NodeType identifies where in the grammar a node sits.
type NodeType string

const (
	NodeRoot            NodeType = "root"
	NodePersonDir       NodeType = "person_dir"
	NodePersonFile      NodeType = "person_file"
	NodeInteractionsDir NodeType = "interactions_dir"
	NodeInteractionDir  NodeType = "interaction_dir"
	NodeInteractionFile NodeType = "interaction_file"
)

// Node is a resolved directory or file. Directories carry Children (child
// directories keep a trailing slash); files carry Content.
type Node struct {
	Type     NodeType
	Path     string
	Name     string
	IsDir    bool
	Children []string
	Content  string
}

var (
	personFiles      = []string{"info", "background", "state", "delta"}
	interactionFiles = []string{"transcript", "takeaways", "tags"}
)

// FS resolves virtual paths against a storage backend.
type FS struct {
	store Storage
}

// New creates a virtual filesystem over the given storage.
func New(store Storage) *FS {
	return &FS{store: store}
}

// NameToSlug converts a person name to a path slug.
func NameToSlug(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// SlugToName converts a path slug back to a person name.
func SlugToName(slug string) string {
	return strings.ReplaceAll(slug, "_", " ")
}

// Resolve maps an absolute virtual path to a node. It returns (nil, nil)
// when the path does not exist; errors are reserved for storage failures.
func (fs *FS) Resolve(path string) (*Node, error) {
	path = strings.TrimRight(path, "/")
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 0 {
		return fs.resolveRoot()
	}

	personSlug := parts[0]
	person, err := fs.store.GetPerson(SlugToName(personSlug))
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, nil
	}

	if len(parts) == 1 {
		children := append([]string{}, personFiles...)
		children = append(children, "interactions/")
		return &Node{
			Type:     NodePersonDir,
			Path:     "/" + personSlug,
			Name:     personSlug,
			IsDir:    true,
			Children: children,
		}, nil
	}

	if len(parts) == 2 && isPersonFile(parts[1]) {
		return &Node{
			Type:    NodePersonFile,
			Path:    "/" + personSlug + "/" + parts[1],
			Name:    parts[1],
			Content: personFileContent(person, parts[1]),
		}, nil
	}

	if parts[1] != "interactions" {
		return nil, nil
	}

	interactions, err := fs.store.ListInteractions(person.Name)
	if err != nil {
		return nil, err
	}
	slugMap := DateSlugs(interactions)

	if len(parts) == 2 {
		children := make([]string, 0, len(slugMap))
		for slug := range slugMap {
			children = append(children, slug+"/")
		}
		sort.Strings(children)
		return &Node{
			Type:     NodeInteractionsDir,
			Path:     "/" + personSlug + "/interactions",
			Name:     "interactions",
			IsDir:    true,
			Children: children,
		}, nil
	}

	dateSlug := parts[2]
	interaction, ok := slugMap[dateSlug]
	if !ok {
		return nil, nil
	}

	if len(parts) == 3 {
		return &Node{
			Type:     NodeInteractionDir,
			Path:     "/" + personSlug + "/interactions/" + dateSlug,
			Name:     dateSlug,
			IsDir:    true,
			Children: append([]string{}, interactionFiles...),
		}, nil
	}

	if len(parts) == 4 && isInteractionFile(parts[3]) {
		return &Node{
			Type:    NodeInteractionFile,
			Path:    "/" + personSlug + "/interactions/" + dateSlug + "/" + parts[3],
			Name:    parts[3],
			Content: interactionFileContent(&interaction, parts[3]),
		}, nil
	}

	return nil, nil
}

func (fs *FS) resolveRoot() (*Node, error) {
	persons, err := fs.store.ListPersons(domain.PersonUntyped)
	if err != nil {
		return nil, err
	}
	children := make([]string, 0, len(persons))
	for _, p := range persons {
		children = append(children, NameToSlug(p.Name)+"/")
	}
	sort.Strings(children)
	return &Node{
		Type:     NodeRoot,
		Path:     "/",
		Name:     "/",
		IsDir:    true,
		Children: children,
	}, nil
}

func isPersonFile(name string) bool {
	for _, f := range personFiles {
		if f == name {
			return true
		}
	}
	return false
}

func isInteractionFile(name string) bool {
	for _, f := range interactionFiles {
		if f == name {
			return true
		}
	}
	return false
}

// ResolvePath resolves a possibly-relative path against a current working
// path by textual manipulation only. It never consults storage and never
// fails; ".." above the root is clamped.
func ResolvePath(cwd, userPath string) string {
	var working string
	if strings.HasPrefix(userPath, "/") {
		working = userPath
	} else {
		working = strings.TrimRight(cwd, "/") + "/" + userPath
	}

	var resolved []string
	for _, part := range strings.Split(working, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		default:
			resolved = append(resolved, part)
		}
	}
	return "/" + strings.Join(resolved, "/")
}
