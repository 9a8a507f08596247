package songdata

import (
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Row is one track row scraped from a songdata.io playlist table.
// Attribute fields are nil when the cell was absent or unparsable.
type Row struct {
	SpotifyID string
	Title     string
	Artist    string
	Camelot   string // normalized upper-case, "" when missing
	BPM       *float64
	Energy    *float64 // normalized to [0,1]
}

// parseTable extracts track rows from a songdata.io playlist page.
// The site renders one table (#table_chart) with one tr.table_object per
// track; each attribute lives in a classed td. A missing table means the
// site's HTML structure changed and scraping needs updating.
func parseTable(r io.Reader) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table#table_chart")
	if table.Length() == 0 {
		// The id has changed before; fall back to the table class.
		table = doc.Find("table.table")
	}
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	tbody := table.Find("tbody#table_body")
	if tbody.Length() == 0 {
		tbody = table.Find("tbody")
	}
	if tbody.Length() == 0 {
		return nil, ErrNoTable
	}

	var rows []Row
	tbody.Find("tr.table_object").Each(func(_ int, tr *goquery.Selection) {
		row := parseRow(tr)
		// Rows without a Spotify ID cannot be matched back to the
		// playlist, so they are useless to us.
		if row.SpotifyID == "" {
			return
		}
		rows = append(rows, row)
	})

	if rows == nil {
		return nil, ErrNoTable
	}
	return rows, nil
}

func parseRow(tr *goquery.Selection) Row {
	var row Row

	row.Title = strings.TrimSpace(tr.Find("td.table_name a").First().Text())
	if row.Title == "" {
		row.Title = strings.TrimSpace(tr.Find("td.table_name").First().Text())
	}
	row.Artist = strings.TrimSpace(tr.Find("td.table_artist").First().Text())

	if id, ok := tr.Find("td#spotify_obj").First().Attr("data-src"); ok {
		row.SpotifyID = strings.TrimSpace(id)
	}

	camelot := strings.ToUpper(strings.TrimSpace(tr.Find("td.table_camelot").First().Text()))
	if validCamelot(camelot) {
		row.Camelot = camelot
	}

	if bpm, ok := parseFloat(tr.Find("td.table_bpm").First().Text()); ok && bpm > 0 {
		row.BPM = &bpm
	}

	if energy, ok := parseFloat(tr.Find("td.table_energy").First().Text()); ok {
		// The site has served energy on both a 0-1 and a 1-10 scale.
		if energy > 1 {
			energy /= 10
		}
		if energy >= 0 && energy <= 1 {
			row.Energy = &energy
		}
	}

	return row
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// validCamelot reports whether s looks like a Camelot key (1A-12B).
func validCamelot(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	mode := s[len(s)-1]
	if mode != 'A' && mode != 'B' {
		return false
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	return err == nil && n >= 1 && n <= 12
}
