package git

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type GitLabTracker struct {
	gl    *gitlab.Client
	login string
}

func NewGitLabTracker(ctx context.Context, token, baseURL string) (*GitLabTracker, error) {
	gl, err := gitlab.NewClient(token, gitlab.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/api/v4"))
	if err != nil {
		return nil, fmt.Errorf("gitlab client: %w", err)
	}
	user, _, err := gl.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("gitlab authenticate: %w", err)
	}
	return &GitLabTracker{gl: gl, login: user.Username}, nil
}

func (t *GitLabTracker) Login() string { return t.login }

func (t *GitLabTracker) GetRepo(ctx context.Context, fullName string) (Repo, error) {
	project, resp, err := t.gl.Projects.GetProject(fullName, nil, gitlab.WithContext(ctx))
	if err != nil {
		return Repo{}, wrapLookup("gitlab get project", glResponse(resp), err)
	}
	return toProjectRepo(project), nil
}

func (t *GitLabTracker) GetUserRepo(ctx context.Context, name string) (Repo, error) {
	project, resp, err := t.gl.Projects.GetProject(t.login+"/"+name, nil, gitlab.WithContext(ctx))
	if err != nil {
		return Repo{}, wrapLookup("gitlab get user project", glResponse(resp), err)
	}
	return toProjectRepo(project), nil
}

func (t *GitLabTracker) CreateRepo(ctx context.Context, input RepoInput) (Repo, error) {
	opts := &gitlab.CreateProjectOptions{
		Name:                 gitlab.Ptr(input.Name),
		Visibility:           gitlab.Ptr(gitlab.PrivateVisibility),
		InitializeWithReadme: gitlab.Ptr(true),
	}
	if input.Description != "" {
		opts.Description = gitlab.Ptr(input.Description)
	}
	project, _, err := t.gl.Projects.CreateProject(opts, gitlab.WithContext(ctx))
	if err != nil {
		return Repo{}, fmt.Errorf("gitlab create project: %w", err)
	}
	return toProjectRepo(project), nil
}

func (t *GitLabTracker) ListLabels(ctx context.Context, fullName string) ([]string, error) {
	var names []string
	opts := &gitlab.ListLabelsOptions{ListOptions: gitlab.ListOptions{PerPage: 100}}
	for {
		labels, resp, err := t.gl.Labels.ListLabels(fullName, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("gitlab list labels: %w", err)
		}
		for _, l := range labels {
			names = append(names, l.Name)
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateLabel accepts GitHub-style colours ("0366d6"); GitLab wants "#0366d6".
func (t *GitLabTracker) CreateLabel(ctx context.Context, fullName, label, color string) error {
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	opts := &gitlab.CreateLabelOptions{
		Name:  gitlab.Ptr(label),
		Color: gitlab.Ptr(color),
	}
	if _, _, err := t.gl.Labels.CreateLabel(fullName, opts, gitlab.WithContext(ctx)); err != nil {
		return fmt.Errorf("gitlab create label %q: %w", label, err)
	}
	return nil
}

// ListIssues leaves the state filter unset, which GitLab treats as every state.
func (t *GitLabTracker) ListIssues(ctx context.Context, fullName string) ([]Issue, error) {
	var out []Issue
	opts := &gitlab.ListProjectIssuesOptions{ListOptions: gitlab.ListOptions{PerPage: 100}}
	for {
		issues, resp, err := t.gl.Issues.ListProjectIssues(fullName, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("gitlab list issues: %w", err)
		}
		for _, issue := range issues {
			out = append(out, Issue{
				Number: int(issue.IID),
				Title:  issue.Title,
				URL:    issue.WebURL,
			})
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func (t *GitLabTracker) CreateIssue(ctx context.Context, fullName string, input IssueInput) (Issue, error) {
	opts := &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(input.Title),
		Description: gitlab.Ptr(input.Body),
	}
	if len(input.Labels) > 0 {
		opts.Labels = (*gitlab.LabelOptions)(&input.Labels)
	}
	issue, _, err := t.gl.Issues.CreateIssue(fullName, opts, gitlab.WithContext(ctx))
	if err != nil {
		return Issue{}, fmt.Errorf("gitlab create issue: %w", err)
	}
	return Issue{
		Number: int(issue.IID), // IID is the project-scoped issue number
		Title:  issue.Title,
		URL:    issue.WebURL,
	}, nil
}

func toProjectRepo(p *gitlab.Project) Repo {
	owner := p.PathWithNamespace
	if i := strings.LastIndex(owner, "/"); i >= 0 {
		owner = owner[:i]
	}
	return Repo{
		Owner:    owner,
		Name:     p.Path,
		FullName: p.PathWithNamespace,
		URL:      p.WebURL,
	}
}

func glResponse(resp *gitlab.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}
