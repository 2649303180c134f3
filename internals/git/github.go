package git

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

type GitHubTracker struct {
	gh    *github.Client
	login string
}

type githubConfig struct {
	baseURL string
}

type GitHubOption func(*githubConfig)

// WithGitHubEnterprise points the client at a GitHub Enterprise (or test) API root.
func WithGitHubEnterprise(baseURL string) GitHubOption {
	return func(c *githubConfig) { c.baseURL = baseURL }
}

// NewGitHubTracker authenticates with token and records the acting user.
// An invalid token is reported here; nothing is retried.
func NewGitHubTracker(ctx context.Context, token string, opts ...GitHubOption) (*GitHubTracker, error) {
	var cfg githubConfig
	for _, o := range opts {
		o(&cfg)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))
	if cfg.baseURL != "" {
		var err error
		if gh, err = gh.WithEnterpriseURLs(cfg.baseURL, cfg.baseURL); err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
	}

	user, _, err := gh.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("github authenticate: %w", err)
	}
	return &GitHubTracker{gh: gh, login: user.GetLogin()}, nil
}

func (t *GitHubTracker) Login() string { return t.login }

func (t *GitHubTracker) GetRepo(ctx context.Context, fullName string) (Repo, error) {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return Repo{}, err
	}
	repo, resp, err := t.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return Repo{}, wrapLookup("github get repo", httpResponse(resp), err)
	}
	return toRepo(repo), nil
}

func (t *GitHubTracker) GetUserRepo(ctx context.Context, name string) (Repo, error) {
	repo, resp, err := t.gh.Repositories.Get(ctx, t.login, name)
	if err != nil {
		return Repo{}, wrapLookup("github get user repo", httpResponse(resp), err)
	}
	return toRepo(repo), nil
}

func (t *GitHubTracker) CreateRepo(ctx context.Context, input RepoInput) (Repo, error) {
	req := &github.Repository{
		Name:     github.String(input.Name),
		Private:  github.Bool(true),
		AutoInit: github.Bool(true),
	}
	if input.Description != "" {
		req.Description = github.String(input.Description)
	}
	// An empty org creates the repository under the authenticated user.
	repo, _, err := t.gh.Repositories.Create(ctx, "", req)
	if err != nil {
		return Repo{}, fmt.Errorf("github create repo: %w", err)
	}
	return toRepo(repo), nil
}

func (t *GitHubTracker) ListLabels(ctx context.Context, fullName string) ([]string, error) {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	var names []string
	opts := &github.ListOptions{PerPage: 100}
	for {
		labels, resp, err := t.gh.Issues.ListLabels(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("github list labels: %w", err)
		}
		for _, l := range labels {
			names = append(names, l.GetName())
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		opts.Page = resp.NextPage
	}
}

func (t *GitHubTracker) CreateLabel(ctx context.Context, fullName, label, color string) error {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return err
	}
	_, _, err = t.gh.Issues.CreateLabel(ctx, owner, name, &github.Label{
		Name:  github.String(label),
		Color: github.String(color),
	})
	if err != nil {
		return fmt.Errorf("github create label %q: %w", label, err)
	}
	return nil
}

func (t *GitHubTracker) ListIssues(ctx context.Context, fullName string) ([]Issue, error) {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	var out []Issue
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		issues, resp, err := t.gh.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("github list issues: %w", err)
		}
		for _, issue := range issues {
			out = append(out, Issue{
				Number: issue.GetNumber(),
				Title:  issue.GetTitle(),
				URL:    issue.GetHTMLURL(),
			})
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func (t *GitHubTracker) CreateIssue(ctx context.Context, fullName string, input IssueInput) (Issue, error) {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return Issue{}, err
	}
	req := &github.IssueRequest{
		Title: github.String(input.Title),
		Body:  github.String(input.Body),
	}
	if len(input.Labels) > 0 {
		req.Labels = &input.Labels
	}
	issue, _, err := t.gh.Issues.Create(ctx, owner, name, req)
	if err != nil {
		return Issue{}, fmt.Errorf("github create issue: %w", err)
	}
	return Issue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

func toRepo(r *github.Repository) Repo {
	return Repo{
		Owner:    r.GetOwner().GetLogin(),
		Name:     r.GetName(),
		FullName: r.GetFullName(),
		URL:      r.GetHTMLURL(),
	}
}

func httpResponse(resp *github.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}
