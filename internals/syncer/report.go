package syncer

// Status is where a ticket ended up after a sync.
type Status int

const (
	StatusPending Status = iota
	StatusSkipped        // an issue with the same title already exists
	StatusCreated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSkipped:
		return "skipped"
	case StatusCreated:
		return "created"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type TicketResult struct {
	Title    string
	Status   Status
	Number   int    // issue number when created
	IssueURL string // when created
	Err      error  // when failed
}

// RepoResult is the outcome of ProcessTickets for one repository.
type RepoResult struct {
	Name     string // logical name from the note
	FullName string // owner/name, empty when resolution failed
	Tickets  []TicketResult
	Err      error // repository resolution or issue listing failure
}

// OK reports whether the repository resolved and no ticket failed.
// Skipped tickets count as success.
func (r RepoResult) OK() bool {
	if r.Err != nil {
		return false
	}
	for _, t := range r.Tickets {
		if t.Status == StatusFailed {
			return false
		}
	}
	return true
}

func (r RepoResult) Count(s Status) int {
	n := 0
	for _, t := range r.Tickets {
		if t.Status == s {
			n++
		}
	}
	return n
}

type FileResult struct {
	Path  string
	Repos []RepoResult
}

// Report collects the outcome of a directory sync, file by file.
type Report struct {
	Dir   string
	Files []FileResult
}

func (r Report) OK() bool {
	for _, f := range r.Files {
		for _, repo := range f.Repos {
			if !repo.OK() {
				return false
			}
		}
	}
	return true
}

// Totals counts tickets per status across the whole report.
func (r Report) Totals() map[Status]int {
	totals := make(map[Status]int)
	for _, f := range r.Files {
		for _, repo := range f.Repos {
			for _, t := range repo.Tickets {
				totals[t.Status]++
			}
		}
	}
	return totals
}

// Failures lists every repository that did not fully succeed.
func (r Report) Failures() []RepoResult {
	var out []RepoResult
	for _, f := range r.Files {
		for _, repo := range f.Repos {
			if !repo.OK() {
				out = append(out, repo)
			}
		}
	}
	return out
}
