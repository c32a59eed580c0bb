package domain

import "time"

// Observation is one confirmed sighting of a dead URL on a wiki page.
type Observation struct {
	PageTitle string    `json:"page_title"`
	At        time.Time `json:"at"`
	Error     string    `json:"error"`
}

// DeadLinkRecord is the ordered observation history for one URL. It is
// append-only while the URL stays dead and deleted wholesale the moment the
// URL is seen alive again. The first entry anchors the "continuously dead
// since" duration; the last one drives the debounce window.
type DeadLinkRecord []Observation

// FirstSeen returns the timestamp anchoring the continuously-dead duration.
func (r DeadLinkRecord) FirstSeen() time.Time {
	if len(r) == 0 {
		return time.Time{}
	}
	return r[0].At
}

// LastSeen returns the timestamp of the most recent observation.
func (r DeadLinkRecord) LastSeen() time.Time {
	if len(r) == 0 {
		return time.Time{}
	}
	return r[len(r)-1].At
}

// Page is the minimal slice of a wiki page the checker needs: its title and
// the current wikitext.
type Page struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// TalkTitle returns the title of the discussion page for this page.
func (p Page) TalkTitle() string {
	return "Talk:" + p.Title
}

// ReportJob is one escalated dead link waiting to be posted to a talk page.
// Consumed exactly once by the report dispatcher and discarded after the edit
// attempt, success or not.
type ReportJob struct {
	URL         string
	ErrorReport string
	PageTitle   string
	ArchiveURL  string // empty when no snapshot was found
}
