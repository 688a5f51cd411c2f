// Package shell provides an interactive REPL for browsing the rolodex as a
// virtual filesystem.
package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/fetch"
	"github.com/pbaille/rolodex/internal/ingest"
	"github.com/pbaille/rolodex/internal/store"
	"github.com/pbaille/rolodex/internal/vfs"
)

// Shell is an interactive session over the rolodex.
type Shell struct {
	store    *store.Store
	fs       *vfs.FS
	pipeline *ingest.Pipeline
	cwd      string
	out      io.Writer
}

// New creates a shell rooted at "/". pipeline may be nil, in which case the
// ingest command reports that ingestion is unavailable.
func New(s *store.Store, pipeline *ingest.Pipeline) *Shell {
	return &Shell{
		store:    s,
		fs:       vfs.New(s),
		pipeline: pipeline,
		cwd:      "/",
		out:      os.Stdout,
	}
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

// Run reads commands until exit or EOF.
func (sh *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		HistoryFile:     historyPath(),
		AutoComplete:    &completer{shell: sh},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	sh.printf("rolodex shell. Type 'help' for commands, 'exit' to quit.\n")

	for {
		rl.SetPrompt(sh.prompt())
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "exit" || cmd == "quit" {
			return nil
		}
		if err := sh.dispatch(cmd, args); err != nil {
			sh.printf("%v\n", err)
		}
	}
}

func (sh *Shell) prompt() string {
	return fmt.Sprintf("rolodex:%s$ ", sh.cwd)
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rolodex_history")
}

func (sh *Shell) dispatch(cmd string, args []string) error {
	switch cmd {
	case "ls":
		return sh.cmdLs(args)
	case "cd":
		return sh.cmdCd(args)
	case "cat":
		return sh.cmdCat(args)
	case "tree":
		return sh.cmdTree(args)
	case "pwd":
		sh.printf("%s\n", sh.cwd)
		return nil
	case "clear":
		sh.printf("\033[2J\033[H")
		return nil
	case "ingest":
		return sh.cmdIngest(args)
	case "mkperson":
		return sh.cmdMkperson(args)
	case "search":
		return sh.cmdSearch(args)
	case "tags":
		return sh.cmdTags()
	case "followups":
		return sh.cmdFollowups(args)
	case "complete":
		return sh.cmdComplete(args)
	case "help":
		sh.printHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s (try 'help')", cmd)
	}
}

func (sh *Shell) printHelp() {
	sh.printf(`Commands:
  ls [path]            list directory contents
  cd <path>            change directory
  cat <file>           print file contents
  tree [path] [depth]  show directory tree (default depth %d)
  pwd                  print working directory
  ingest <file|url> <person> [date]   ingest a recording, transcript or URL
  mkperson <name> <company> [type]    create a person
  search <text...>     full-text search
  tags                 list tags with counts
  followups [person]   list open follow-ups (person inferred from cwd)
  complete <id>        mark a follow-up done
  clear                clear the screen
  exit                 leave the shell
`, vfs.DefaultTreeDepth)
}

func (sh *Shell) cmdLs(args []string) error {
	path := sh.cwd
	if len(args) > 0 {
		path = vfs.ResolvePath(sh.cwd, args[0])
	}
	node, err := sh.fs.Resolve(path)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("no such path: %s", path)
	}
	if !node.IsDir {
		sh.printf("%s\n", node.Name)
		return nil
	}
	for _, child := range node.Children {
		sh.printf("%s\n", child)
	}
	return nil
}

func (sh *Shell) cmdCd(args []string) error {
	if len(args) == 0 {
		sh.cwd = "/"
		return nil
	}
	path := vfs.ResolvePath(sh.cwd, args[0])
	node, err := sh.fs.Resolve(path)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("no such path: %s", path)
	}
	if !node.IsDir {
		return fmt.Errorf("not a directory: %s", path)
	}
	sh.cwd = path
	return nil
}

func (sh *Shell) cmdCat(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: cat <file>")
	}
	path := vfs.ResolvePath(sh.cwd, args[0])
	node, err := sh.fs.Resolve(path)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("no such path: %s", path)
	}
	if node.IsDir {
		return fmt.Errorf("is a directory: %s", path)
	}
	sh.printf("%s\n", node.Content)
	return nil
}

func (sh *Shell) cmdTree(args []string) error {
	path := sh.cwd
	depth := vfs.DefaultTreeDepth
	if len(args) > 0 {
		path = vfs.ResolvePath(sh.cwd, args[0])
	}
	if len(args) > 1 {
		d, err := strconv.Atoi(args[1])
		if err != nil || d < 1 {
			return fmt.Errorf("invalid depth: %s", args[1])
		}
		depth = d
	}
	out, err := sh.fs.Tree(path, depth)
	if err != nil {
		return err
	}
	sh.printf("%s\n", out)
	return nil
}

func (sh *Shell) cmdIngest(args []string) error {
	if sh.pipeline == nil {
		return fmt.Errorf("ingestion unavailable: missing API keys")
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: ingest <file|url> <person...> [YYYY-MM-DD]")
	}
	source := args[0]
	rest := args[1:]

	// A trailing date argument is optional; everything between source and
	// date is the person name.
	var date time.Time
	if len(rest) > 1 {
		if d, err := time.Parse("2006-01-02", rest[len(rest)-1]); err == nil {
			date = d
			rest = rest[:len(rest)-1]
		}
	}
	person := vfs.SlugToName(strings.Join(rest, " "))

	var err error
	switch {
	case fetch.IsURL(source):
		var text string
		text, err = fetch.Fetch(source)
		if err != nil {
			return err
		}
		_, err = sh.pipeline.IngestText(text, person, date, "")
	case isRecording(source):
		_, err = sh.pipeline.IngestRecording(source, person, date, "")
	default:
		_, err = sh.pipeline.IngestTranscript(source, person, date, "")
	}
	return err
}

func isRecording(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".mp4", ".m4a", ".wav", ".mov", ".webm", ".ogg", ".flac":
		return true
	}
	return false
}

func (sh *Shell) cmdMkperson(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: mkperson <name> <company> [type]")
	}
	name := vfs.SlugToName(args[0])
	company := vfs.SlugToName(args[1])
	ptype := domain.PersonUntyped
	if len(args) > 2 {
		t, err := domain.ParsePersonType(args[2])
		if err != nil {
			return err
		}
		ptype = t
	}
	person, err := sh.store.CreatePerson(domain.Person{
		Name:           name,
		CurrentCompany: company,
		Type:           ptype,
	})
	if err != nil {
		return err
	}
	sh.printf("Created %s (%s)\n", person.Name, person.CurrentCompany)
	return nil
}

func (sh *Shell) cmdSearch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: search <text...>")
	}
	query := strings.Join(args, " ")
	results, err := sh.store.SearchText(query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		sh.printf("No matches for %q\n", query)
		return nil
	}
	for _, ix := range results {
		sh.printf("#%d  %s  %s\n", ix.ID, ix.Date.Format("2006-01-02"), ix.PersonName)
		for _, t := range ix.Takeaways {
			sh.printf("    - %s\n", t)
		}
	}
	return nil
}

func (sh *Shell) cmdTags() error {
	counts, err := sh.store.AggregateTags(domain.PersonUntyped, "")
	if err != nil {
		return err
	}
	for _, tag := range domain.Tags {
		sh.printf("%-12s %3d  %s\n", tag, counts[tag], domain.TagDescriptions[tag])
	}
	return nil
}

func (sh *Shell) cmdFollowups(args []string) error {
	person := sh.personFromArgsOrCwd(args)
	if person == "" {
		return fmt.Errorf("usage: followups <person> (or cd into a person first)")
	}
	followups, err := sh.store.OpenFollowups(person)
	if err != nil {
		return err
	}
	if len(followups) == 0 {
		sh.printf("No open follow-ups for %s\n", person)
		return nil
	}
	for _, f := range followups {
		sh.printf("[%d] (%s) %s\n", f.ID, f.DateSlug, f.Item)
	}
	return nil
}

func (sh *Shell) cmdComplete(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: complete <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid follow-up id: %s", args[0])
	}
	followup, err := sh.store.CompleteFollowup(id)
	if err != nil {
		return err
	}
	sh.printf("Done: %s\n", followup.Item)
	return nil
}

// personFromArgsOrCwd returns the person named by args, or the person whose
// directory the shell is currently inside.
func (sh *Shell) personFromArgsOrCwd(args []string) string {
	if len(args) > 0 {
		return vfs.SlugToName(strings.Join(args, " "))
	}
	parts := strings.Split(strings.Trim(sh.cwd, "/"), "/")
	if len(parts) > 0 && parts[0] != "" {
		return vfs.SlugToName(parts[0])
	}
	return ""
}

// completer implements readline.AutoCompleter with path-aware completion.
type completer struct {
	shell *Shell
}

var shellCommands = []string{
	"ls", "cd", "cat", "tree", "pwd", "clear", "ingest", "mkperson",
	"search", "tags", "followups", "complete", "help", "exit",
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	fields := strings.Fields(prefix)

	// Completing the command itself.
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(prefix, " ")) {
		word := ""
		if len(fields) == 1 {
			word = fields[0]
		}
		return matches(shellCommands, word)
	}

	// Completing a path argument.
	word := ""
	if !strings.HasSuffix(prefix, " ") {
		word = fields[len(fields)-1]
	}
	return matches(c.pathCandidates(word), word)
}

// pathCandidates lists the children of the directory the partial path points
// into, each prefixed with the partial's directory part.
func (c *completer) pathCandidates(partial string) []string {
	dir, _ := splitPartial(partial)
	node, err := c.shell.fs.Resolve(vfs.ResolvePath(c.shell.cwd, dir))
	if err != nil || node == nil || !node.IsDir {
		return nil
	}
	candidates := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		candidates = append(candidates, dir+child)
	}
	sort.Strings(candidates)
	return candidates
}

// splitPartial splits "a/b/c" into ("a/b/", "c"); a partial with no slash
// has an empty directory part.
func splitPartial(partial string) (dir, base string) {
	idx := strings.LastIndex(partial, "/")
	if idx < 0 {
		return "", partial
	}
	return partial[:idx+1], partial[idx+1:]
}

func matches(candidates []string, word string) ([][]rune, int) {
	var out [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, word) {
			out = append(out, []rune(cand[len(word):]))
		}
	}
	return out, len(word)
}
