package notes

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

const (
	repoPrefix   = "git "
	noteExt      = ".md"
	ticketPrefix = "Ticket:"
	bulletPrefix = "-"
)

// A tag is '#' followed by letters, digits or underscores in any script.
// Combining marks end a tag.
var tagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// Lone carriage returns end a line just like "\n" and "\r\n".
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// RepoName derives the logical repository name from a note's file name:
// "git My Project.md" -> "My Project". The prefix match ignores case.
func RepoName(fileName string) (string, bool) {
	base := filepath.Base(fileName)
	if len(base) < len(repoPrefix) || !strings.EqualFold(base[:len(repoPrefix)], repoPrefix) {
		return "", false
	}
	name := base[len(repoPrefix):]
	if len(name) >= len(noteExt) && strings.EqualFold(name[len(name)-len(noteExt):], noteExt) {
		name = name[:len(name)-len(noteExt)]
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

// ParseTicketLine splits the text after "Ticket:" into a title and its tags.
func ParseTicketLine(rest string) (title string, tags []string) {
	rest = strings.TrimSpace(rest)
	tags = []string{}
	for _, m := range tagPattern.FindAllString(rest, -1) {
		tags = append(tags, m[1:])
	}
	title = strings.TrimSpace(tagPattern.ReplaceAllString(rest, ""))
	return title, tags
}

// Parse extracts repository groups from a note. It never fails: a file name
// without the "git " prefix or with no tickets simply yields fewer groups.
func Parse(content, fileName string) Groups {
	repo, ok := RepoName(fileName)
	if !ok {
		return Groups{}
	}

	meta, body := splitFrontMatter(content)
	acc := accumulator{
		repo:   repo,
		groups: Groups{{Repo: repo, Description: meta.Description}},
	}
	for _, line := range strings.Split(lineEndings.Replace(body), "\n") {
		acc = acc.step(strings.TrimSpace(line))
	}
	return acc.seal().groups
}

// ParseFile reads and parses the note at path. Missing or unreadable files
// are logged and yield an empty result so a batch can carry on.
func ParseFile(path string, log *slog.Logger) Groups {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("note file not found", "path", path)
		return Groups{}
	}
	if err != nil {
		log.Error("read note file", "path", path, "err", err)
		return Groups{}
	}

	groups := Parse(string(b), filepath.Base(path))
	for _, g := range groups {
		log.Debug("parsed note", "path", path, "repo", g.Repo, "tickets", len(g.Tickets))
	}
	return groups
}

// accumulator is the fold state over a note's lines.
type accumulator struct {
	repo    string
	groups  Groups
	open    Ticket
	hasOpen bool
}

func (a accumulator) step(line string) accumulator {
	switch {
	case line == "":
		return a
	case strings.HasPrefix(line, ticketPrefix):
		a = a.seal()
		title, tags := ParseTicketLine(line[len(ticketPrefix):])
		a.open = Ticket{
			Title:       title,
			Tags:        tags,
			Description: []string{},
			RepoName:    a.repo,
		}
		a.hasOpen = true
	case strings.HasPrefix(line, bulletPrefix) && a.hasOpen:
		a.open.Description = append(a.open.Description, strings.TrimSpace(line[len(bulletPrefix):]))
	}
	return a
}

// seal closes the open ticket, if any, into its repository's group.
// Tickets without a repository are dropped.
func (a accumulator) seal() accumulator {
	if !a.hasOpen {
		return a
	}
	a.hasOpen = false
	if a.repo == "" {
		return a
	}
	for i := range a.groups {
		if a.groups[i].Repo == a.repo {
			a.groups[i].Tickets = append(a.groups[i].Tickets, a.open)
			return a
		}
	}
	a.groups = append(a.groups, Group{Repo: a.repo, Tickets: []Ticket{a.open}})
	return a
}

type frontMatter struct {
	Description string `yaml:"description"`
}

// splitFrontMatter strips a leading YAML block. Malformed front matter, or a
// block that swallowed a ticket line, leaves the content untouched.
func splitFrontMatter(content string) (frontMatter, string) {
	var meta frontMatter
	body, err := frontmatter.Parse(strings.NewReader(content), &meta)
	if err != nil {
		return frontMatter{}, content
	}
	if strings.Count(string(body), ticketPrefix) != strings.Count(content, ticketPrefix) {
		return frontMatter{}, content
	}
	return meta, string(body)
}
