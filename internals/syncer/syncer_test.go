package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jadenj13/notesync/internals/git"
	"github.com/jadenj13/notesync/internals/notes"
)

// fakeTracker is an in-memory git.Tracker that records every call.
type fakeTracker struct {
	login string
	repos map[string]*fakeRepo
	calls []string

	lookupErr error           // returned by GetRepo instead of a lookup
	failLabel map[string]bool // label names whose creation fails
	failIssue map[string]bool // issue titles whose creation fails
}

type fakeRepo struct {
	labels []string
	issues []git.Issue
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		login:     "me",
		repos:     make(map[string]*fakeRepo),
		failLabel: make(map[string]bool),
		failIssue: make(map[string]bool),
	}
}

func (f *fakeTracker) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeTracker) Login() string { return f.login }

func (f *fakeTracker) lookup(fullName string) (git.Repo, error) {
	if _, ok := f.repos[fullName]; !ok {
		return git.Repo{}, fmt.Errorf("fake lookup %s: %w", fullName, git.ErrNotFound)
	}
	owner, name, _ := git.SplitFullName(fullName)
	return git.Repo{Owner: owner, Name: name, FullName: fullName}, nil
}

func (f *fakeTracker) GetRepo(_ context.Context, fullName string) (git.Repo, error) {
	f.record("GetRepo %s", fullName)
	if f.lookupErr != nil {
		return git.Repo{}, f.lookupErr
	}
	return f.lookup(fullName)
}

func (f *fakeTracker) GetUserRepo(_ context.Context, name string) (git.Repo, error) {
	f.record("GetUserRepo %s", name)
	return f.lookup(f.login + "/" + name)
}

func (f *fakeTracker) CreateRepo(_ context.Context, input git.RepoInput) (git.Repo, error) {
	f.record("CreateRepo %s", input.Name)
	full := f.login + "/" + input.Name
	f.repos[full] = &fakeRepo{}
	return git.Repo{Owner: f.login, Name: input.Name, FullName: full}, nil
}

func (f *fakeTracker) repo(fullName string) (*fakeRepo, error) {
	r, ok := f.repos[fullName]
	if !ok {
		return nil, fmt.Errorf("fake %s: %w", fullName, git.ErrNotFound)
	}
	return r, nil
}

func (f *fakeTracker) ListLabels(_ context.Context, fullName string) ([]string, error) {
	f.record("ListLabels %s", fullName)
	r, err := f.repo(fullName)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), r.labels...), nil
}

func (f *fakeTracker) CreateLabel(_ context.Context, fullName, name, color string) error {
	f.record("CreateLabel %s %s %s", fullName, name, color)
	if f.failLabel[name] {
		return errors.New("label rejected")
	}
	r, err := f.repo(fullName)
	if err != nil {
		return err
	}
	r.labels = append(r.labels, name)
	return nil
}

func (f *fakeTracker) ListIssues(_ context.Context, fullName string) ([]git.Issue, error) {
	f.record("ListIssues %s", fullName)
	r, err := f.repo(fullName)
	if err != nil {
		return nil, err
	}
	return append([]git.Issue(nil), r.issues...), nil
}

func (f *fakeTracker) CreateIssue(_ context.Context, fullName string, input git.IssueInput) (git.Issue, error) {
	f.record("CreateIssue %s %s", fullName, input.Title)
	if f.failIssue[input.Title] {
		return git.Issue{}, errors.New("issue rejected")
	}
	r, err := f.repo(fullName)
	if err != nil {
		return git.Issue{}, err
	}
	issue := git.Issue{Number: len(r.issues) + 1, Title: input.Title}
	r.issues = append(r.issues, issue)
	return issue, nil
}

func (f *fakeTracker) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ticket(title string, tags ...string) notes.Ticket {
	return notes.Ticket{Title: title, Tags: tags, Description: []string{"point"}}
}

func TestEnsureRepoNormalizesAndCreatesOnce(t *testing.T) {
	tr := newFakeTracker()
	s := NewSyncer(tr, discardLogger())
	ctx := context.Background()

	full, err := s.EnsureRepo(ctx, "My Project")
	if err != nil {
		t.Fatalf("EnsureRepo: %v", err)
	}
	if full != "me/My-Project" {
		t.Errorf("full name = %q, want me/My-Project", full)
	}

	want := []string{"GetRepo me/My-Project", "GetUserRepo My Project", "CreateRepo My-Project"}
	if !reflect.DeepEqual(tr.calls, want) {
		t.Errorf("calls = %q, want %q", tr.calls, want)
	}

	again, err := s.EnsureRepo(ctx, "My Project")
	if err != nil {
		t.Fatalf("EnsureRepo (second): %v", err)
	}
	if again != full {
		t.Errorf("second resolution = %q, want %q", again, full)
	}
	if n := tr.count("CreateRepo"); n != 1 {
		t.Errorf("CreateRepo called %d times, want 1", n)
	}
}

func TestEnsureRepoFallsBackToOriginalName(t *testing.T) {
	tr := newFakeTracker()
	tr.repos["me/Legacy Name"] = &fakeRepo{}
	s := NewSyncer(tr, discardLogger())

	full, err := s.EnsureRepo(context.Background(), "Legacy Name")
	if err != nil {
		t.Fatalf("EnsureRepo: %v", err)
	}
	if full != "me/Legacy Name" {
		t.Errorf("full name = %q, want me/Legacy Name", full)
	}
	if n := tr.count("CreateRepo"); n != 0 {
		t.Errorf("CreateRepo called %d times, want 0", n)
	}
}

func TestEnsureRepoStopsOnUnexpectedError(t *testing.T) {
	tr := newFakeTracker()
	tr.lookupErr = errors.New("502 bad gateway")
	s := NewSyncer(tr, discardLogger())

	if _, err := s.EnsureRepo(context.Background(), "Repo"); err == nil {
		t.Fatal("EnsureRepo: expected error")
	}
	if !reflect.DeepEqual(tr.calls, []string{"GetRepo me/Repo"}) {
		t.Errorf("calls = %q, want only the first lookup", tr.calls)
	}
}

func TestEnsureIssueCreatesMissingLabelsFirst(t *testing.T) {
	tr := newFakeTracker()
	tr.repos["me/My-Repo"] = &fakeRepo{labels: []string{"bug"}}
	s := NewSyncer(tr, discardLogger(), WithLabelColor("#ff0000"))

	tk := notes.Ticket{
		Title:       "Fix it",
		Tags:        []string{"bug", "backend", "backend"},
		Description: []string{"one", "two"},
	}
	// The repository part is re-normalized.
	issue, err := s.EnsureIssue(context.Background(), "me/My Repo", tk)
	if err != nil {
		t.Fatalf("EnsureIssue: %v", err)
	}
	if issue.Title != "Fix it" {
		t.Errorf("issue title = %q", issue.Title)
	}

	want := []string{
		"ListLabels me/My-Repo",
		"CreateLabel me/My-Repo backend ff0000",
		"CreateIssue me/My-Repo Fix it",
	}
	if !reflect.DeepEqual(tr.calls, want) {
		t.Errorf("calls = %q, want %q", tr.calls, want)
	}
}

func TestEnsureIssueLabelFailureAbortsTicket(t *testing.T) {
	tr := newFakeTracker()
	tr.repos["me/R"] = &fakeRepo{}
	tr.failLabel["bad"] = true
	s := NewSyncer(tr, discardLogger())

	_, err := s.EnsureIssue(context.Background(), "me/R", ticket("T", "ok", "bad", "later"))
	if err == nil {
		t.Fatal("EnsureIssue: expected error")
	}
	if got := tr.repos["me/R"].labels; !reflect.DeepEqual(got, []string{"ok"}) {
		t.Errorf("labels = %q, want the one created before the failure", got)
	}
	if n := tr.count("CreateIssue"); n != 0 {
		t.Errorf("CreateIssue called %d times, want 0", n)
	}
}

func TestRenderBody(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"one"}, "- one"},
		{[]string{"one", "two"}, "- one\n- two"},
	}
	for _, tt := range tests {
		if got := RenderBody(tt.in); got != tt.want {
			t.Errorf("RenderBody(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProcessTicketsIsIdempotent(t *testing.T) {
	tr := newFakeTracker()
	s := NewSyncer(tr, discardLogger())
	ctx := context.Background()
	tickets := []notes.Ticket{ticket("First", "a"), ticket("Second")}

	first := s.ProcessTickets(ctx, "My Project", tickets)
	if !first.OK() {
		t.Fatalf("first run not OK: %+v", first)
	}
	if first.Count(StatusCreated) != 2 {
		t.Errorf("first run created %d, want 2", first.Count(StatusCreated))
	}

	second := s.ProcessTickets(ctx, "My Project", tickets)
	if !second.OK() {
		t.Fatalf("second run not OK: %+v", second)
	}
	if second.Count(StatusSkipped) != 2 || second.Count(StatusCreated) != 0 {
		t.Errorf("second run = %+v, want everything skipped", second.Tickets)
	}
	if n := tr.count("CreateIssue"); n != 2 {
		t.Errorf("CreateIssue called %d times, want 2", n)
	}
	if n := tr.count("CreateRepo"); n != 1 {
		t.Errorf("CreateRepo called %d times, want 1", n)
	}
}

func TestProcessTicketsIsolatesFailures(t *testing.T) {
	tr := newFakeTracker()
	tr.failIssue["Broken"] = true
	s := NewSyncer(tr, discardLogger())

	res := s.ProcessTickets(context.Background(), "R", []notes.Ticket{
		ticket("Before"), ticket("Broken", "kept"), ticket("After"),
	})
	if res.OK() {
		t.Error("OK() = true, want false")
	}

	var statuses []Status
	for _, r := range res.Tickets {
		statuses = append(statuses, r.Status)
	}
	want := []Status{StatusCreated, StatusFailed, StatusCreated}
	if !reflect.DeepEqual(statuses, want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}
	if res.Tickets[1].Err == nil {
		t.Error("failed ticket has no error")
	}
	if got := tr.repos["me/R"].labels; !reflect.DeepEqual(got, []string{"kept"}) {
		t.Errorf("labels = %q, want the label created before the failure", got)
	}
}

func TestProcessTicketsIndexesTitlesBeforeRun(t *testing.T) {
	tr := newFakeTracker()
	s := NewSyncer(tr, discardLogger())

	groups := notes.Parse("Ticket: Same\n- a\nTicket: Same\n- b\n", "git R.md")
	res := s.ProcessTickets(context.Background(), "R", groups.Tickets("R"))
	if got := []Status{res.Tickets[0].Status, res.Tickets[1].Status}; !reflect.DeepEqual(got, []Status{StatusCreated, StatusCreated}) {
		t.Errorf("statuses = %v", got)
	}
	if n := tr.count("CreateIssue"); n != 2 {
		t.Errorf("CreateIssue calls = %d, want 2", n)
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		StatusPending: "pending",
		StatusSkipped: "skipped",
		StatusCreated: "created",
		StatusFailed:  "failed",
		Status(42):    "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestProcessTicketsRepoFailure(t *testing.T) {
	tr := newFakeTracker()
	tr.lookupErr = errors.New("forbidden")
	s := NewSyncer(tr, discardLogger())

	res := s.ProcessTickets(context.Background(), "R", []notes.Ticket{ticket("A")})
	if res.OK() || res.Err == nil {
		t.Fatalf("result = %+v, want repository failure", res)
	}
	if len(res.Tickets) != 0 {
		t.Errorf("tickets attempted = %d, want 0", len(res.Tickets))
	}
	if n := tr.count("ListIssues"); n != 0 {
		t.Errorf("ListIssues called %d times, want 0", n)
	}
}

func TestProcessGroupDryRun(t *testing.T) {
	s := NewSyncer(nil, discardLogger(), WithDryRun(true))

	res := s.ProcessGroup(context.Background(), notes.Group{Repo: "R", Tickets: []notes.Ticket{ticket("A")}})
	if !res.OK() {
		t.Errorf("dry run not OK: %+v", res)
	}
	if len(res.Tickets) != 1 || res.Tickets[0].Status != StatusPending {
		t.Errorf("tickets = %+v, want one pending", res.Tickets)
	}
}

func TestSyncDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"git Alpha.md":    "Ticket: #x One\n- a\nTicket: Two\n",
		"git Beta Two.md": "---\ndescription: beta repo\n---\nTicket: Three\n",
		"ignored.md":      "Ticket: Never\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tr := newFakeTracker()
	s := NewSyncer(tr, discardLogger())

	report, err := s.SyncDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("SyncDir: %v", err)
	}
	if !report.OK() {
		t.Errorf("report not OK: %+v", report.Failures())
	}
	if len(report.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(report.Files))
	}
	if got := report.Files[1].Repos[0].FullName; got != "me/Beta-Two" {
		t.Errorf("second repo = %q, want me/Beta-Two", got)
	}
	if got := report.Totals()[StatusCreated]; got != 3 {
		t.Errorf("created = %d, want 3", got)
	}

	again, err := s.SyncDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("SyncDir (second): %v", err)
	}
	if got := again.Totals(); got[StatusSkipped] != 3 || got[StatusCreated] != 0 {
		t.Errorf("second run totals = %v, want 3 skipped", got)
	}
}

func TestSyncDirMissingDirectory(t *testing.T) {
	s := NewSyncer(newFakeTracker(), discardLogger())
	if _, err := s.SyncDir(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("SyncDir: expected error for missing directory")
	}
}

func TestSyncDirCancelled(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "git A.md"), []byte("Ticket: T\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newFakeTracker()
	_, err := NewSyncer(tr, discardLogger()).SyncDir(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(tr.calls) != 0 {
		t.Errorf("calls = %q, want none", tr.calls)
	}
}
