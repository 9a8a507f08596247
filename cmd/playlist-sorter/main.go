// Command playlist-sorter reorders Spotify playlists for smooth DJ-style
// transitions. Without flags it starts the web UI; with -playlist it sorts
// one playlist from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-playlist-sorter/internal/attributes"
	"github.com/justestif/go-spotify-playlist-sorter/internal/auth"
	"github.com/justestif/go-spotify-playlist-sorter/internal/config"
	"github.com/justestif/go-spotify-playlist-sorter/internal/db"
	"github.com/justestif/go-spotify-playlist-sorter/internal/sequence"
	"github.com/justestif/go-spotify-playlist-sorter/internal/songdata"
	"github.com/justestif/go-spotify-playlist-sorter/internal/sorter"
	"github.com/justestif/go-spotify-playlist-sorter/internal/spotify"
	"github.com/justestif/go-spotify-playlist-sorter/internal/web"
	webfs "github.com/justestif/go-spotify-playlist-sorter/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	playlistID := flag.String("playlist", "", "sort this playlist from the terminal instead of starting the web UI")
	anchorID := flag.String("anchor", "", "track ID that must open the sequence")
	apply := flag.Bool("apply", false, "write the sorted order back to Spotify")
	logout := flag.Bool("logout", false, "remove the cached login and exit")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "playlist-sorter",
	})

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("preparing database schema: %w", err)
		}
	}

	if *logout {
		authenticator, err := auth.New(cfg, logger)
		if err != nil {
			return err
		}
		return authenticator.Logout()
	}

	if *playlistID != "" {
		return runCLI(ctx, cfg, database, logger, *playlistID, *anchorID, *apply)
	}

	return runWeb(cfg, database, logger)
}

// runCLI sorts one playlist from the terminal.
func runCLI(ctx context.Context, cfg *config.Config, database *db.DB, logger *log.Logger, playlistID, anchorID string, apply bool) error {
	authenticator, err := auth.New(cfg, logger)
	if err != nil {
		return err
	}

	api, err := authenticator.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticating with Spotify: %w", err)
	}

	client := spotify.New(api)
	userID, err := client.UserID(ctx)
	if err != nil {
		return err
	}

	var attrStore attributes.Store
	var runs sorter.RunStore
	if database != nil {
		attrStore = attributes.NewDBStore(database)
		runs = sorter.NewDBRunStore(database)
	} else {
		attrStore = attributes.NewMemoryStore()
		runs = sorter.NewMemoryRunStore()
	}

	attrs := attributes.NewService(songdata.NewClient(logger), attrStore, logger)
	service := sorter.NewService(client, attrs, runs, database, cfg.Sequence, logger)

	result, err := service.Sort(ctx, userID, playlistID, anchorID)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", result.Run.PlaylistName)
	fmt.Print(sequence.FormatReport(result.Ordered, result.Report))

	if len(result.Phases) > 1 {
		fmt.Println("\nEnergy phases:")
		for _, p := range result.Phases {
			fmt.Printf("  %-10s %3d tracks  energy %.2f  %3.0f BPM\n", p.Label, len(p.Tracks), p.Energy, p.BPM)
		}
	}

	if !apply {
		fmt.Println("\nPreview only. Re-run with -apply to write this order to Spotify.")
		return nil
	}

	if _, err := service.Apply(ctx, result.Run.ID); err != nil {
		return err
	}
	fmt.Println("\nApplied the new order to Spotify.")
	return nil
}

// runWeb starts the web UI.
func runWeb(cfg *config.Config, database *db.DB, logger *log.Logger) error {
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Config:      cfg,
		Database:    database,
		TemplatesFS: templates,
		StaticFS:    static,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
