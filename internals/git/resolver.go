package git

import (
	"context"
	"fmt"
)

type Factory struct {
	githubToken   string
	gitlabToken   string
	githubBaseURL string
	gitlabBaseURL string
}

type FactoryOption func(*Factory)

func WithGitLabBaseURL(baseURL string) FactoryOption {
	return func(f *Factory) {
		if baseURL != "" {
			f.gitlabBaseURL = baseURL
		}
	}
}

// WithGitHubBaseURL targets a GitHub Enterprise instance instead of api.github.com.
func WithGitHubBaseURL(baseURL string) FactoryOption {
	return func(f *Factory) { f.githubBaseURL = baseURL }
}

func NewFactory(githubToken, gitlabToken string, opts ...FactoryOption) *Factory {
	f := &Factory{
		githubToken:   githubToken,
		gitlabToken:   gitlabToken,
		gitlabBaseURL: "https://gitlab.com",
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// TrackerFor authenticates against the given platform. Errors here are fatal
// for the run: a bad token is not retried.
func (f *Factory) TrackerFor(ctx context.Context, platform Platform) (Tracker, error) {
	switch platform {
	case PlatformGitHub:
		if f.githubToken == "" {
			return nil, fmt.Errorf("no GitHub token configured")
		}
		var opts []GitHubOption
		if f.githubBaseURL != "" {
			opts = append(opts, WithGitHubEnterprise(f.githubBaseURL))
		}
		return NewGitHubTracker(ctx, f.githubToken, opts...)

	case PlatformGitLab:
		if f.gitlabToken == "" {
			return nil, fmt.Errorf("no GitLab token configured")
		}
		return NewGitLabTracker(ctx, f.gitlabToken, f.gitlabBaseURL)
	}

	return nil, fmt.Errorf("unsupported platform: %s", platform)
}
