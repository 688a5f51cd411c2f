package shell

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/store"
)

func newTestShell(t *testing.T) (*Shell, *store.Store, *bytes.Buffer) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	sh := New(s, nil)
	var out bytes.Buffer
	sh.out = &out
	return sh, s, &out
}

func seed(t *testing.T, s *store.Store) {
	t.Helper()
	if _, err := s.CreatePerson(domain.Person{Name: "Jane Doe", CurrentCompany: "Acme"}); err != nil {
		t.Fatalf("create person: %v", err)
	}
	d, _ := time.Parse("2006-01-02", "2025-09-05")
	if _, err := s.CreateInteraction("Jane Doe", d, domain.Transcript{Text: "hello"},
		[]string{"Wants SSO"}, []domain.Tag{domain.TagProduct}); err != nil {
		t.Fatalf("create interaction: %v", err)
	}
}

func TestCdAndPwd(t *testing.T) {
	sh, s, out := newTestShell(t)
	seed(t, s)

	if err := sh.dispatch("cd", []string{"Jane_Doe"}); err != nil {
		t.Fatalf("cd: %v", err)
	}
	if sh.cwd != "/Jane_Doe" {
		t.Errorf("cwd = %q", sh.cwd)
	}

	if err := sh.dispatch("pwd", nil); err != nil {
		t.Fatalf("pwd: %v", err)
	}
	if !strings.Contains(out.String(), "/Jane_Doe") {
		t.Errorf("pwd output = %q", out.String())
	}

	// cd into a file fails and leaves cwd unchanged.
	if err := sh.dispatch("cd", []string{"info"}); err == nil {
		t.Error("expected error cd-ing into a file")
	}
	if sh.cwd != "/Jane_Doe" {
		t.Errorf("cwd changed to %q", sh.cwd)
	}

	// cd with no args returns to root.
	if err := sh.dispatch("cd", nil); err != nil {
		t.Fatalf("cd: %v", err)
	}
	if sh.cwd != "/" {
		t.Errorf("cwd = %q", sh.cwd)
	}
}

func TestCdNonexistent(t *testing.T) {
	sh, _, _ := newTestShell(t)
	if err := sh.dispatch("cd", []string{"Nobody"}); err == nil {
		t.Error("expected error for absent path")
	}
	if sh.cwd != "/" {
		t.Errorf("cwd = %q", sh.cwd)
	}
}

func TestLs(t *testing.T) {
	sh, s, out := newTestShell(t)
	seed(t, s)

	if err := sh.dispatch("ls", nil); err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out.String(), "Jane_Doe/") {
		t.Errorf("ls output = %q", out.String())
	}

	out.Reset()
	if err := sh.dispatch("ls", []string{"Jane_Doe/interactions"}); err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out.String(), "2025-09-05/") {
		t.Errorf("ls output = %q", out.String())
	}
}

func TestCatRelativePath(t *testing.T) {
	sh, s, out := newTestShell(t)
	seed(t, s)

	if err := sh.dispatch("cd", []string{"Jane_Doe/interactions/2025-09-05"}); err != nil {
		t.Fatalf("cd: %v", err)
	}
	if err := sh.dispatch("cat", []string{"takeaways"}); err != nil {
		t.Fatalf("cat: %v", err)
	}
	if !strings.Contains(out.String(), "- Wants SSO") {
		t.Errorf("cat output = %q", out.String())
	}

	if err := sh.dispatch("cat", []string{".."}); err == nil {
		t.Error("expected error cat-ing a directory")
	}
}

func TestTreeCommand(t *testing.T) {
	sh, s, out := newTestShell(t)
	seed(t, s)

	if err := sh.dispatch("tree", []string{"Jane_Doe", "1"}); err != nil {
		t.Fatalf("tree: %v", err)
	}
	if !strings.Contains(out.String(), "└── interactions/") {
		t.Errorf("tree output = %q", out.String())
	}

	if err := sh.dispatch("tree", []string{"Jane_Doe", "zero"}); err == nil {
		t.Error("expected error for bad depth")
	}
}

func TestMkperson(t *testing.T) {
	sh, s, _ := newTestShell(t)

	if err := sh.dispatch("mkperson", []string{"Bob_Smith", "Initech", "investor"}); err != nil {
		t.Fatalf("mkperson: %v", err)
	}
	person, err := s.GetPerson("Bob Smith")
	if err != nil || person == nil {
		t.Fatalf("person not created: %v", err)
	}
	if person.Type != domain.PersonInvestor || person.CurrentCompany != "Initech" {
		t.Errorf("person = %+v", person)
	}

	if err := sh.dispatch("mkperson", []string{"OnlyName"}); err == nil {
		t.Error("expected usage error")
	}
}

func TestFollowupsInferredFromCwd(t *testing.T) {
	sh, s, out := newTestShell(t)
	seed(t, s)
	if _, err := s.CreateFollowups("Jane Doe", 1, "2025-09-05", []string{"send deck"}); err != nil {
		t.Fatalf("seed followups: %v", err)
	}

	// From root, followups needs a person argument.
	if err := sh.dispatch("followups", nil); err == nil {
		t.Error("expected usage error at root")
	}

	if err := sh.dispatch("cd", []string{"Jane_Doe/interactions"}); err != nil {
		t.Fatalf("cd: %v", err)
	}
	out.Reset()
	if err := sh.dispatch("followups", nil); err != nil {
		t.Fatalf("followups: %v", err)
	}
	if !strings.Contains(out.String(), "send deck") {
		t.Errorf("followups output = %q", out.String())
	}
}

func TestCompleteCommand(t *testing.T) {
	sh, s, out := newTestShell(t)
	seed(t, s)
	created, err := s.CreateFollowups("Jane Doe", 1, "2025-09-05", []string{"send deck"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := sh.dispatch("complete", []string{"notanumber"}); err == nil {
		t.Error("expected error for bad id")
	}
	if err := sh.dispatch("complete", []string{"999"}); err == nil {
		t.Error("expected error for absent id")
	}

	if err := sh.dispatch("complete", []string{itoa(created[0].ID)}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.Contains(out.String(), "Done: send deck") {
		t.Errorf("output = %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	sh, _, _ := newTestShell(t)
	if err := sh.dispatch("frobnicate", nil); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestCompleterPaths(t *testing.T) {
	sh, s, _ := newTestShell(t)
	seed(t, s)
	c := &completer{shell: sh}

	// Command completion.
	got, n := c.Do([]rune("fo"), 2)
	if n != 2 || len(got) != 1 || string(got[0]) != "llowups" {
		t.Errorf("command completion = %v (n=%d)", runesToStrings(got), n)
	}

	// Path completion at root.
	got, _ = c.Do([]rune("cd Jane"), 7)
	if len(got) != 1 || string(got[0]) != "_Doe/" {
		t.Errorf("path completion = %v", runesToStrings(got))
	}

	// Path completion inside a subdirectory partial.
	got, _ = c.Do([]rune("cat Jane_Doe/in"), 15)
	found := false
	for _, g := range got {
		if string(g) == "fo" || string(g) == "teractions/" {
			found = true
		}
	}
	if !found {
		t.Errorf("subdir completion = %v", runesToStrings(got))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func runesToStrings(rs [][]rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
