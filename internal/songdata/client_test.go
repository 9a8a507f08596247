package songdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func playlistPage(rows string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<table id="table_chart" class="table">
<thead><tr><th>Track</th></tr></thead>
<tbody id="table_body">
%s
</tbody>
</table>
</body></html>`, rows)
}

func trackRow(id, name, artist, camelot, bpm, energy string) string {
	return fmt.Sprintf(`<tr class="table_object">
<td class="table_name"><a href="#">%s</a></td>
<td class="table_artist">%s</td>
<td class="table_key">X</td>
<td class="table_camelot">%s</td>
<td class="table_bpm">%s</td>
<td class="table_energy">%s</td>
<td id="spotify_obj" data-src="%s"></td>
</tr>`, name, artist, camelot, bpm, energy, id)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(testLogger(),
		WithBaseURL(serverURL),
		WithRateLimit(rate.Inf, 1),
	)
}

func TestPlaylistAttributes(t *testing.T) {
	page := playlistPage(
		trackRow("id1", "Alpha", "One", "8A", "120", "0.8") +
			trackRow("id2", "Bravo", "Two", "8b", "122.5", "7") + // 1-10 energy scale
			trackRow("id3", "Charlie", "Three", "??", "not-a-number", "") + // unparsable attrs
			trackRow("", "NoID", "Nobody", "1A", "100", "0.5"), // skipped
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlist/pl123" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	rows, err := client.PlaylistAttributes(context.Background(), "pl123")
	if err != nil {
		t.Fatalf("PlaylistAttributes() error = %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (row without ID skipped)", len(rows))
	}

	first := rows[0]
	if first.SpotifyID != "id1" || first.Title != "Alpha" || first.Artist != "One" {
		t.Errorf("first row = %+v", first)
	}
	if first.Camelot != "8A" {
		t.Errorf("first row camelot = %q, want 8A", first.Camelot)
	}
	if first.BPM == nil || *first.BPM != 120 {
		t.Errorf("first row BPM = %v, want 120", first.BPM)
	}
	if first.Energy == nil || *first.Energy != 0.8 {
		t.Errorf("first row energy = %v, want 0.8", first.Energy)
	}

	second := rows[1]
	if second.Camelot != "8B" {
		t.Errorf("camelot should be upper-cased, got %q", second.Camelot)
	}
	if second.Energy == nil || *second.Energy != 0.7 {
		t.Errorf("1-10 energy should normalize to 0.7, got %v", second.Energy)
	}

	third := rows[2]
	if third.Camelot != "" || third.BPM != nil || third.Energy != nil {
		t.Errorf("unparsable attributes should be nil/empty, got %+v", third)
	}
}

func TestPlaylistAttributesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.PlaylistAttributes(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestPlaylistAttributesNoTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.PlaylistAttributes(context.Background(), "pl")
	if !errors.Is(err, ErrNoTable) {
		t.Errorf("error = %v, want ErrNoTable", err)
	}
}

func TestPlaylistAttributesRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	page := playlistPage(trackRow("id1", "Alpha", "One", "8A", "120", "0.8"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	rows, err := client.PlaylistAttributes(context.Background(), "pl")
	if err != nil {
		t.Fatalf("PlaylistAttributes() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2 (one retry)", calls.Load())
	}
}

func TestParseTableFallbackSelectors(t *testing.T) {
	// No id attributes on table or tbody; class fallback should still work.
	page := `<html><body>
<table class="table"><tbody>` +
		trackRow("id1", "Alpha", "One", "8A", "120", "0.8") +
		`</tbody></table></body></html>`

	rows, err := parseTable(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parseTable() error = %v", err)
	}
	if len(rows) != 1 || rows[0].SpotifyID != "id1" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestValidCamelot(t *testing.T) {
	valid := []string{"1A", "12B", "8A", "10B"}
	invalid := []string{"", "0A", "13B", "8C", "AB", "8"}

	for _, s := range valid {
		if !validCamelot(s) {
			t.Errorf("validCamelot(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if validCamelot(s) {
			t.Errorf("validCamelot(%q) = true, want false", s)
		}
	}
}
