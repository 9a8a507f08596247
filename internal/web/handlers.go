package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	zmb3 "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/justestif/go-spotify-playlist-sorter/internal/auth"
	"github.com/justestif/go-spotify-playlist-sorter/internal/db"
	"github.com/justestif/go-spotify-playlist-sorter/internal/sequence"
	"github.com/justestif/go-spotify-playlist-sorter/internal/sorter"
	"github.com/justestif/go-spotify-playlist-sorter/internal/spotify"
)

const appTitle = "Playlist Sorter"

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth      *spotifyauth.Authenticator
	sessions  SessionManager
	templates *Templates
	attrs     sorter.AttributeSource
	runs      sorter.RunStore
	database  *db.DB
	seqCfg    sequence.Config
	logger    *log.Logger
}

// NewHandlers creates a new Handlers instance. database may be nil.
func NewHandlers(authenticator *spotifyauth.Authenticator, sessions SessionManager, templates *Templates, attrs sorter.AttributeSource, runs sorter.RunStore, database *db.DB, seqCfg sequence.Config, logger *log.Logger) *Handlers {
	return &Handlers{
		auth:      authenticator,
		sessions:  sessions,
		templates: templates,
		attrs:     attrs,
		runs:      runs,
		database:  database,
		seqCfg:    seqCfg,
		logger:    logger,
	}
}

// sorterFor builds a sorter service bound to the session's Spotify token.
func (h *Handlers) sorterFor(r *http.Request, session *Session) *sorter.Service {
	client := spotify.New(zmb3.New(h.auth.Client(r.Context(), session.Token), zmb3.WithRetry(true)))
	return sorter.NewService(client, h.attrs, h.runs, h.database, h.seqCfg, h.logger)
}

// requireSession fetches the session or redirects to home.
func (h *Handlers) requireSession(w http.ResponseWriter, r *http.Request) *Session {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return nil
	}
	return session
}

func (h *Handlers) pageData(r *http.Request, session *Session, title string) PageData {
	data := PageData{Title: title, CurrentPath: r.URL.Path}
	if session != nil {
		data.User = &UserData{ID: session.UserID, Name: session.UserName}
	}
	return data
}

func (h *Handlers) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		h.logger.Error("rendering template failed", "page", page, "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)

	h.render(w, "home", HomePageData{
		PageData:      h.pageData(r, session, appTitle),
		Authenticated: session != nil,
	})
}

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in a cookie for validation on callback.
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("Spotify auth error: %s", errMsg), http.StatusBadRequest)
		return
	}

	token, err := h.auth.Token(r.Context(), state, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		return
	}

	client := zmb3.New(h.auth.Client(r.Context(), token))
	user, err := client.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	session, err := h.sessions.Create(r.Context(), token, string(user.ID), user.DisplayName)
	if err != nil {
		h.logger.Error("creating session failed", "err", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.sessions.SetCookie(w, session)
	http.Redirect(w, r, "/playlists", http.StatusTemporaryRedirect)
}

// Logout clears the session and redirects to home (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessions.GetFromRequest(r); session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Playlists lists the user's playlists (GET /playlists).
func (h *Handlers) Playlists(w http.ResponseWriter, r *http.Request) {
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	playlists, err := h.sorterFor(r, session).ListPlaylists(r.Context())
	if err != nil {
		h.logger.Error("listing playlists failed", "err", err)
		http.Error(w, "Failed to load playlists", http.StatusBadGateway)
		return
	}

	data := PlaylistsPageData{PageData: h.pageData(r, session, "Your Playlists")}
	for _, p := range playlists {
		data.Playlists = append(data.Playlists, PlaylistData{
			ID:         p.ID,
			Name:       p.Name,
			TrackCount: p.TrackCount,
		})
	}
	h.render(w, "playlists", data)
}

// Playlist shows one playlist with resolved attributes (GET /playlists/{id}).
func (h *Handlers) Playlist(w http.ResponseWriter, r *http.Request) {
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	playlistID := chi.URLParam(r, "id")
	playlist, err := h.sorterFor(r, session).LoadPlaylist(r.Context(), playlistID)
	if err != nil {
		h.logger.Error("loading playlist failed", "playlist", playlistID, "err", err)
		http.Error(w, "Failed to load playlist", http.StatusBadGateway)
		return
	}

	h.render(w, "playlist", PlaylistPageData{
		PageData: h.pageData(r, session, playlist.Name),
		ID:       playlist.ID,
		Name:     playlist.Name,
		Tracks:   trackData(playlist.Tracks),
	})
}

// Sort computes a sort preview (POST /playlists/{id}/sort). The optional
// "anchor" form value forces the opening track.
func (h *Handlers) Sort(w http.ResponseWriter, r *http.Request) {
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	playlistID := chi.URLParam(r, "id")
	anchorID := r.FormValue("anchor")

	result, err := h.sorterFor(r, session).Sort(r.Context(), session.UserID, playlistID, anchorID)
	if err != nil {
		h.logger.Error("sorting playlist failed", "playlist", playlistID, "err", err)
		http.Error(w, "Failed to sort playlist", http.StatusBadGateway)
		return
	}

	data := SortedPageData{
		PageData:    h.pageData(r, session, "Sorted: "+result.Run.PlaylistName),
		RunID:       result.Run.ID.String(),
		PlaylistID:  playlistID,
		Name:        result.Run.PlaylistName,
		Tracks:      trackData(result.Ordered),
		AverageCost: result.Report.AverageCost,
		Unknown:     trackData(result.Report.Unknown),
	}
	for _, tr := range result.Report.Transitions {
		data.Transitions = append(data.Transitions, TransitionData{
			FromTitle:   tr.From.Title,
			ToTitle:     tr.To.Title,
			Cost:        tr.Cost,
			Harmonic:    tr.Harmonic,
			Tempo:       tr.Tempo,
			Energy:      tr.Energy,
			MissingData: tr.MissingData,
		})
	}
	for _, p := range result.Phases {
		data.Phases = append(data.Phases, PhaseData{
			Label:      p.Label,
			Energy:     p.Energy,
			BPM:        p.BPM,
			TrackCount: len(p.Tracks),
		})
	}
	h.render(w, "sorted", data)
}

// Apply writes a recorded run back to Spotify (POST /runs/{id}/apply).
func (h *Handlers) Apply(w http.ResponseWriter, r *http.Request) {
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	runID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	if _, err := h.sorterFor(r, session).Apply(r.Context(), runID); err != nil {
		if errors.Is(err, sorter.ErrRunNotFound) {
			http.Error(w, "Sort run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("applying sort run failed", "run", runID, "err", err)
		http.Error(w, "Failed to apply sorted order", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

// Run shows one recorded sort run (GET /runs/{id}). Track metadata comes
// from the database when one is configured; without it only IDs are stored,
// so the page falls back to those.
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	runID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := h.runs.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, sorter.ErrRunNotFound) {
			http.Error(w, "Sort run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("loading sort run failed", "run", runID, "err", err)
		http.Error(w, "Failed to load sort run", http.StatusInternalServerError)
		return
	}

	data := RunPageData{
		PageData: h.pageData(r, session, "Run: "+run.PlaylistName),
		Run: RunData{
			ID:           run.ID.String(),
			PlaylistID:   run.PlaylistID,
			PlaylistName: run.PlaylistName,
			TrackCount:   len(run.TrackIDs),
			AverageCost:  run.AverageCost,
			Applied:      run.Applied,
			CreatedAt:    run.CreatedAt,
		},
	}

	var known map[string]db.Track
	if h.database != nil {
		known, err = h.database.Tracks().GetByIDs(r.Context(), run.TrackIDs)
		if err != nil {
			h.logger.Warn("loading track metadata failed", "run", runID, "err", err)
		}
	}
	for _, id := range run.TrackIDs {
		entry := TrackData{ID: id, Title: id, Key: "?"}
		if t, ok := known[id]; ok {
			entry.Title = t.Title
			entry.Artist = t.Artist
		}
		data.Tracks = append(data.Tracks, entry)
	}

	h.render(w, "run", data)
}

// History lists the user's past sort runs (GET /history).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	runs, err := h.sorterFor(r, session).History(r.Context(), session.UserID)
	if err != nil {
		h.logger.Error("loading history failed", "err", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	data := HistoryPageData{PageData: h.pageData(r, session, "Sort History")}
	for _, run := range runs {
		data.Runs = append(data.Runs, RunData{
			ID:           run.ID.String(),
			PlaylistID:   run.PlaylistID,
			PlaylistName: run.PlaylistName,
			TrackCount:   len(run.TrackIDs),
			AverageCost:  run.AverageCost,
			Applied:      run.Applied,
			CreatedAt:    run.CreatedAt,
		})
	}
	h.render(w, "history", data)
}

func trackData(tracks []sequence.Track) []TrackData {
	out := make([]TrackData, len(tracks))
	for i, t := range tracks {
		out[i] = TrackData{
			ID:     t.ID,
			Title:  t.Title,
			Artist: t.Artist,
			Key:    t.Key.String(),
			BPM:    t.BPM,
			Energy: t.Energy,
		}
	}
	return out
}
