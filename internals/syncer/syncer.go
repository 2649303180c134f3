package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jadenj13/notesync/internals/git"
	"github.com/jadenj13/notesync/internals/notes"
)

// DefaultLabelColor is GitHub's default label blue.
const DefaultLabelColor = "0366d6"

// Syncer creates the repositories and issues described by parsed notes.
// All remote calls are made one at a time, in ticket order.
type Syncer struct {
	tracker    git.Tracker
	labelColor string
	dryRun     bool
	log        *slog.Logger
}

type Option func(*Syncer)

func WithLabelColor(color string) Option {
	return func(s *Syncer) {
		if color != "" {
			s.labelColor = strings.TrimPrefix(color, "#")
		}
	}
}

// WithDryRun reports every ticket as pending without calling the tracker.
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) { s.dryRun = dryRun }
}

func NewSyncer(tracker git.Tracker, log *slog.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		tracker:    tracker,
		labelColor: DefaultLabelColor,
		log:        log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnsureRepo resolves logicalName to an existing repository owned by the
// acting user, creating a private one when none exists.
func (s *Syncer) EnsureRepo(ctx context.Context, logicalName string) (string, error) {
	return s.ensureRepo(ctx, logicalName, "")
}

func (s *Syncer) ensureRepo(ctx context.Context, logicalName, description string) (string, error) {
	repo, err := resolveRepo(ctx, s.repoStrategies(logicalName, description), s.log)
	if err != nil {
		return "", fmt.Errorf("ensure repository %q: %w", logicalName, err)
	}
	return repo.FullName, nil
}

// repoStrategy is one step of repository resolution. Steps run in order and
// a step answering ErrNotFound hands over to the next.
type repoStrategy struct {
	name    string
	resolve func(ctx context.Context) (git.Repo, error)
}

func (s *Syncer) repoStrategies(logicalName, description string) []repoStrategy {
	normalized := git.NormalizeName(logicalName)
	return []repoStrategy{
		{
			name: "lookup " + s.tracker.Login() + "/" + normalized,
			resolve: func(ctx context.Context) (git.Repo, error) {
				return s.tracker.GetRepo(ctx, s.tracker.Login()+"/"+normalized)
			},
		},
		{
			name: "lookup user repository " + logicalName,
			resolve: func(ctx context.Context) (git.Repo, error) {
				return s.tracker.GetUserRepo(ctx, logicalName)
			},
		},
		{
			name: "create " + normalized,
			resolve: func(ctx context.Context) (git.Repo, error) {
				return s.tracker.CreateRepo(ctx, git.RepoInput{Name: normalized, Description: description})
			},
		},
	}
}

func resolveRepo(ctx context.Context, strategies []repoStrategy, log *slog.Logger) (git.Repo, error) {
	for _, st := range strategies {
		repo, err := st.resolve(ctx)
		if err == nil {
			log.Info("Repository resolved", "repo", repo.FullName, "via", st.name)
			return repo, nil
		}
		if !errors.Is(err, git.ErrNotFound) {
			return git.Repo{}, fmt.Errorf("%s: %w", st.name, err)
		}
		log.Debug("Repository not found", "via", st.name)
	}
	return git.Repo{}, errors.New("no resolution step succeeded")
}

// EnsureIssue creates the labels ticket needs and then its issue. The first
// failure aborts; labels created before it are kept.
func (s *Syncer) EnsureIssue(ctx context.Context, fullName string, ticket notes.Ticket) (git.Issue, error) {
	fullName, err := git.NormalizeFullName(fullName)
	if err != nil {
		return git.Issue{}, err
	}

	existing, err := s.tracker.ListLabels(ctx, fullName)
	if err != nil {
		return git.Issue{}, err
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	for _, tag := range ticket.Tags {
		if have[tag] {
			continue
		}
		s.log.Info("Creating label", "repo", fullName, "label", tag)
		if err := s.tracker.CreateLabel(ctx, fullName, tag, s.labelColor); err != nil {
			return git.Issue{}, err
		}
		have[tag] = true
	}

	issue, err := s.tracker.CreateIssue(ctx, fullName, git.IssueInput{
		Title:  ticket.Title,
		Body:   RenderBody(ticket.Description),
		Labels: slices.Clone(ticket.Tags),
	})
	if err != nil {
		return git.Issue{}, err
	}
	s.log.Info("Created issue", "repo", fullName, "number", issue.Number, "title", issue.Title)
	return issue, nil
}

// RenderBody turns description entries into a markdown bullet list.
func RenderBody(description []string) string {
	lines := make([]string, len(description))
	for i, d := range description {
		lines[i] = "- " + d
	}
	return strings.Join(lines, "\n")
}

// ProcessTickets ensures the repository and creates an issue for every
// ticket whose title was not already taken before the run started.
func (s *Syncer) ProcessTickets(ctx context.Context, logicalName string, tickets []notes.Ticket) RepoResult {
	return s.ProcessGroup(ctx, notes.Group{Repo: logicalName, Tickets: tickets})
}

func (s *Syncer) ProcessGroup(ctx context.Context, group notes.Group) RepoResult {
	result := RepoResult{Name: group.Repo}

	if s.dryRun {
		for _, t := range group.Tickets {
			s.log.Info("Would sync ticket", "repo", group.Repo, "title", t.Title, "tags", t.Tags)
			result.Tickets = append(result.Tickets, TicketResult{Title: t.Title, Status: StatusPending})
		}
		return result
	}

	fullName, err := s.ensureRepo(ctx, group.Repo, group.Description)
	if err != nil {
		s.log.Error("Repository resolution failed", "repo", group.Repo, "err", err)
		result.Err = err
		return result
	}
	result.FullName = fullName

	issues, err := s.tracker.ListIssues(ctx, fullName)
	if err != nil {
		s.log.Error("Listing issues failed", "repo", fullName, "err", err)
		result.Err = fmt.Errorf("list issues: %w", err)
		return result
	}
	titles := make(map[string]bool, len(issues))
	for _, issue := range issues {
		titles[issue.Title] = true
	}

	for _, t := range group.Tickets {
		if titles[t.Title] {
			s.log.Info("Issue already exists", "repo", fullName, "title", t.Title)
			result.Tickets = append(result.Tickets, TicketResult{Title: t.Title, Status: StatusSkipped})
			continue
		}

		issue, err := s.EnsureIssue(ctx, fullName, t)
		if err != nil {
			s.log.Error("Creating issue failed", "repo", fullName, "title", t.Title, "err", err)
			result.Tickets = append(result.Tickets, TicketResult{Title: t.Title, Status: StatusFailed, Err: err})
			continue
		}
		result.Tickets = append(result.Tickets, TicketResult{
			Title:    t.Title,
			Status:   StatusCreated,
			Number:   issue.Number,
			IssueURL: issue.URL,
		})
	}
	return result
}
