package database

// Article is one row of the search index.
type Article struct {
	Slug           string
	URL            string
	Path           string
	Title          string
	Description    string
	Date           string
	Author         string
	Category       string
	Tags           []string
	Image          string
	Featured       bool
	TextContent    string
	WordCount      int
	ReadingMinutes int
	IndexedAt      *string
}

// Build summarises one pipeline run.
type Build struct {
	ID         int64
	ContentDir string
	StartedAt  string
	FinishedAt string
	Discovered int
	Published  int
	Skipped    int
}

// BuildDiagnostic is a source that a build left out.
type BuildDiagnostic struct {
	BuildID int64
	Path    string
	Kind    string
	Message string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Articles   int
	Featured   int
	Categories int
	Words      int
	Builds     int
}
