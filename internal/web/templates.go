package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"time"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the
// given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}
	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" layout which includes the page content.
	return tmpl.ExecuteTemplate(w, "base", data)
}

// load parses all page templates together with the shared layouts.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}

	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := filepath.Base(page)
		name = name[:len(name)-len(".html")]

		files := append([]string{page}, commonFiles...)
		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// costColor maps a transition cost in [0,1] to an HSL color,
		// green for smooth transitions through red for rough ones.
		"costColor": func(cost float64) string {
			if cost < 0 {
				cost = 0
			}
			if cost > 1 {
				cost = 1
			}
			hue := 120 - (cost * 120)
			return fmt.Sprintf("hsl(%.0f, 70%%, 45%%)", hue)
		},

		// formatCost formats a cost with two decimals.
		"formatCost": func(cost float64) string {
			return fmt.Sprintf("%.2f", cost)
		},

		// formatBPM formats an optional BPM value.
		"formatBPM": func(bpm *float64) string {
			if bpm == nil {
				return "?"
			}
			return fmt.Sprintf("%.0f", *bpm)
		},

		// formatEnergy formats an optional 0-1 energy as a percentage.
		"formatEnergy": func(energy *float64) string {
			if energy == nil {
				return "?"
			}
			return fmt.Sprintf("%.0f%%", *energy*100)
		},

		// formatDate formats a time as "Jan 2, 2006 15:04"
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},

		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	User        *UserData
	CurrentPath string
}

// UserData contains authenticated user information.
type UserData struct {
	ID   string
	Name string
}

// HomePageData contains data for the home page template.
type HomePageData struct {
	PageData
	Authenticated bool
}

// PlaylistsPageData contains data for the playlist list template.
type PlaylistsPageData struct {
	PageData
	Playlists []PlaylistData
}

// PlaylistData contains data for one playlist in the list.
type PlaylistData struct {
	ID         string
	Name       string
	TrackCount int
}

// PlaylistPageData contains data for the playlist detail template.
type PlaylistPageData struct {
	PageData
	ID     string
	Name   string
	Tracks []TrackData
}

// TrackData contains data for a single track in templates.
type TrackData struct {
	ID     string
	Title  string
	Artist string
	Key    string
	BPM    *float64
	Energy *float64
}

// SortedPageData contains data for the sort preview template.
type SortedPageData struct {
	PageData
	RunID       string
	PlaylistID  string
	Name        string
	Tracks      []TrackData
	Transitions []TransitionData
	AverageCost float64
	Phases      []PhaseData
	Unknown     []TrackData
}

// TransitionData contains data for one transition in the preview.
type TransitionData struct {
	FromTitle   string
	ToTitle     string
	Cost        float64
	Harmonic    float64
	Tempo       float64
	Energy      float64
	MissingData bool
}

// PhaseData contains data for one energy phase of a sorted playlist.
type PhaseData struct {
	Label      string
	Energy     float64
	BPM        float64
	TrackCount int
}

// RunPageData contains data for the run detail template.
type RunPageData struct {
	PageData
	Run    RunData
	Tracks []TrackData
}

// HistoryPageData contains data for the run history template.
type HistoryPageData struct {
	PageData
	Runs []RunData
}

// RunData contains data for one past sort run.
type RunData struct {
	ID           string
	PlaylistID   string
	PlaylistName string
	TrackCount   int
	AverageCost  float64
	Applied      bool
	CreatedAt    time.Time
}
