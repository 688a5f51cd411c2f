package vfs

import (
	"strings"
	"testing"

	"github.com/pbaille/rolodex/internal/domain"
)

func TestTreePersonDepthOne(t *testing.T) {
	fs, s := newTestFS(t)
	mustCreatePerson(t, s, domain.Person{Name: "Jane Doe", CurrentCompany: "Acme"})
	mustCreateInteraction(t, s, "Jane Doe", "2025-09-05", nil, nil)

	out, err := fs.Tree("/Jane_Doe", 1)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}

	want := strings.Join([]string{
		"Jane_Doe",
		"├── info",
		"├── background",
		"├── state",
		"├── delta",
		"└── interactions/",
	}, "\n")
	if out != want {
		t.Errorf("tree:\n%s\nwant:\n%s", out, want)
	}

	deeper, err := fs.Tree("/Jane_Doe", 2)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if !strings.Contains(deeper, "    └── 2025-09-05/") {
		t.Errorf("depth 2 should reach date slugs:\n%s", deeper)
	}
}

func TestTreeRoot(t *testing.T) {
	fs, s := newTestFS(t)
	mustCreatePerson(t, s, domain.Person{Name: "Jane Doe", CurrentCompany: "Acme"})
	mustCreatePerson(t, s, domain.Person{Name: "Bob Smith", CurrentCompany: "Initech"})
	mustCreateInteraction(t, s, "Jane Doe", "2025-09-05", nil, nil)

	out, err := fs.Tree("/", DefaultTreeDepth)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}

	lines := strings.Split(out, "\n")
	if lines[0] != "." {
		t.Errorf("root line = %q, want %q", lines[0], ".")
	}
	if lines[1] != "├── Bob_Smith/" {
		t.Errorf("first child = %q", lines[1])
	}
	if !strings.Contains(out, "└── Jane_Doe/") {
		t.Errorf("last child connector missing:\n%s", out)
	}
	// Full depth reaches the interaction files.
	if !strings.Contains(out, "transcript") {
		t.Errorf("default depth should reach interaction files:\n%s", out)
	}
}

func TestTreeDepthBound(t *testing.T) {
	fs, s := newTestFS(t)
	mustCreatePerson(t, s, domain.Person{Name: "Jane Doe", CurrentCompany: "Acme"})
	mustCreateInteraction(t, s, "Jane Doe", "2025-09-05", nil, nil)

	out, err := fs.Tree("/", 1)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if strings.Contains(out, "interactions/") {
		t.Errorf("depth 1 from root should not descend into person dirs:\n%s", out)
	}
}

func TestTreeNotFound(t *testing.T) {
	fs, _ := newTestFS(t)

	out, err := fs.Tree("/Nobody", DefaultTreeDepth)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if out != "Path not found: /Nobody" {
		t.Errorf("out = %q", out)
	}
}

func TestTreeFilePath(t *testing.T) {
	fs, s := newTestFS(t)
	mustCreatePerson(t, s, domain.Person{Name: "Jane Doe", CurrentCompany: "Acme"})

	out, err := fs.Tree("/Jane_Doe/info", DefaultTreeDepth)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if out != "info" {
		t.Errorf("file tree = %q, want just the name", out)
	}
}
