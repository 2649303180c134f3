package notes

// Ticket is one "Ticket:" declaration and the bullet lines under it.
type Ticket struct {
	Title       string
	Tags        []string // in order of appearance, duplicates kept
	Description []string // one entry per "-" line
	RepoName    string   // logical repository name; empty when no context was set
}

// Group is the tickets found for one repository, in file order.
type Group struct {
	Repo        string
	Description string // from the note's front matter, used when the repository is created
	Tickets     []Ticket
}

// Groups keeps repositories in the order they were discovered.
type Groups []Group

// Tickets returns the tickets grouped under repo, or nil.
func (g Groups) Tickets(repo string) []Ticket {
	for _, group := range g {
		if group.Repo == repo {
			return group.Tickets
		}
	}
	return nil
}

// Repos lists the repository names in discovery order.
func (g Groups) Repos() []string {
	names := make([]string, 0, len(g))
	for _, group := range g {
		names = append(names, group.Repo)
	}
	return names
}
