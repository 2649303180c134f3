package git

import "context"

// Tracker is the set of remote calls the sync client needs from an issue
// tracking service. Repositories are addressed by their "owner/name" full name.
type Tracker interface {
	// Login is the acting user resolved when the tracker was constructed.
	Login() string

	GetRepo(ctx context.Context, fullName string) (Repo, error)
	GetUserRepo(ctx context.Context, name string) (Repo, error)
	CreateRepo(ctx context.Context, input RepoInput) (Repo, error)

	ListLabels(ctx context.Context, fullName string) ([]string, error)
	CreateLabel(ctx context.Context, fullName, name, color string) error

	// ListIssues returns issues in every state, across all pages.
	ListIssues(ctx context.Context, fullName string) ([]Issue, error)
	CreateIssue(ctx context.Context, fullName string, input IssueInput) (Issue, error)
}

type RepoInput struct {
	Name        string
	Description string
}

type Repo struct {
	Owner    string
	Name     string
	FullName string // owner/name
	URL      string
}

type IssueInput struct {
	Title  string
	Body   string   // Markdown
	Labels []string // e.g. ["bug", "backend"]
}

type Issue struct {
	Number int
	Title  string
	URL    string
}

type Platform int

const (
	PlatformGitHub Platform = iota
	PlatformGitLab
)

func (p Platform) String() string {
	switch p {
	case PlatformGitHub:
		return "github"
	case PlatformGitLab:
		return "gitlab"
	default:
		return "unknown"
	}
}
