// Package main seeds a development database with users, books and a club
// with an open voting cycle and suggestions on the table.
//
// Usage:
//
//	DATA_PATH=~/.bookcrush go run ./cmd/seed
//	DATA_PATH=~/.bookcrush go run ./cmd/seed --members 8 --books 30 --votes
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/bookcrush/bookcrush-server/internal/auth"
	"github.com/bookcrush/bookcrush-server/internal/config"
	domainerrors "github.com/bookcrush/bookcrush-server/internal/errors"
	"github.com/bookcrush/bookcrush-server/internal/search"
	"github.com/bookcrush/bookcrush-server/internal/service"
	"github.com/bookcrush/bookcrush-server/internal/store/sqlite"
	"github.com/bookcrush/bookcrush-server/internal/validation"
)

const seedPassword = "bookcrush-seed"

var (
	members   = flag.Int("members", 5, "Number of members besides the owner")
	books     = flag.Int("books", 20, "Number of catalog books to create")
	castVotes = flag.Bool("votes", false, "Cast random votes on the seeded suggestions")
	seed      = flag.Uint64("seed", 0, "Faker seed (0 picks one from the clock)")
)

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/.bookcrush")
	}
	data := config.DataConfig{Path: dataPath}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	fmt.Printf("Opening database at: %s\n", data.DatabasePath())

	st, err := sqlite.Open(data.DatabasePath(), logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: data.SearchPath(), Logger: logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	key, err := auth.LoadOrGenerateKey(dataPath)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, time.Hour)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	v := validation.New()
	deps := service.Deps{Store: st}
	authSvc := service.NewAuthService(st, tokens, v, logger)
	clubSvc := service.NewClubService(deps, v, logger)
	bookSvc := service.NewBookService(st, index, nil, v, logger)
	suggestionSvc := service.NewSuggestionService(deps, service.DefaultSuggestionPolicy(), logger)
	voteSvc := service.NewVoteService(deps, logger)
	votingSvc := service.NewVotingService(deps, logger)

	s := *seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	f := gofakeit.New(s)
	ctx := context.Background()

	userIDs := make([]string, 0, *members+1)
	for range *members + 1 {
		resp, err := authSvc.Register(ctx, service.RegisterRequest{
			Email:       f.Email(),
			Password:    seedPassword,
			DisplayName: f.Name(),
		})
		if err != nil {
			log.Fatalf("Failed to register user: %v", err)
		}
		userIDs = append(userIDs, resp.User.ID)
		fmt.Printf("  user %-28s %s\n", resp.User.DisplayName, resp.User.Email)
	}
	owner := userIDs[0]

	bookIDs := make([]string, 0, *books)
	for range *books {
		book, err := bookSvc.CreateBook(ctx, service.CreateBookRequest{
			Title:         f.BookTitle(),
			Author:        f.BookAuthor(),
			Description:   fmt.Sprintf("<p>A %s novel.</p>", f.BookGenre()),
			PageCount:     f.Number(120, 900),
			PublishedYear: f.Number(1850, time.Now().Year()),
		})
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			log.Fatalf("Failed to create book: %v", err)
		}
		bookIDs = append(bookIDs, book.ID)
	}
	fmt.Printf("Created %d books\n", len(bookIDs))

	club, err := clubSvc.CreateClub(ctx, owner, service.CreateClubRequest{
		Name:        f.Company() + " Book Club",
		Description: "Seeded for local development",
	})
	if err != nil {
		log.Fatalf("Failed to create club: %v", err)
	}
	for _, id := range userIDs[1:] {
		if _, err := clubSvc.JoinClub(ctx, club.ID, id); err != nil {
			log.Fatalf("Failed to join club: %v", err)
		}
	}
	fmt.Printf("Created club %q (%s) with %d members\n", club.Name, club.ID, len(userIDs))

	now := time.Now()
	if _, err := votingSvc.StartCycle(ctx, club.ID, owner, service.StartVotingRequest{
		VotingStartsAt: now,
		VotingEndsAt:   now.Add(7 * 24 * time.Hour),
	}); err != nil {
		log.Fatalf("Failed to start voting: %v", err)
	}
	fmt.Println("Opened a voting cycle")

	// Each member suggests one book; duplicates are skipped.
	var suggestionIDs []string
	for _, id := range userIDs {
		if len(bookIDs) == 0 {
			break
		}
		reason := fmt.Sprintf("Heard great things about it from %s.", f.FirstName())
		sug, err := suggestionSvc.CreateSuggestion(ctx, club.ID, id, service.CreateSuggestionRequest{
			BookID: bookIDs[f.Number(0, len(bookIDs)-1)],
			Reason: &reason,
		})
		if errors.Is(err, domainerrors.ErrDuplicateSuggestion) {
			continue
		}
		if err != nil {
			log.Fatalf("Failed to create suggestion: %v", err)
		}
		suggestionIDs = append(suggestionIDs, sug.ID)
	}
	fmt.Printf("Created %d suggestions\n", len(suggestionIDs))

	if !*castVotes || len(suggestionIDs) == 0 {
		fmt.Printf("\nDone. Every seeded user logs in with password %q\n", seedPassword)
		return
	}

	votes := 0
	for _, id := range userIDs {
		for _, sugID := range suggestionIDs {
			if !f.Bool() {
				continue
			}
			if _, err := voteSvc.CastVote(ctx, club.ID, sugID, id); err != nil {
				log.Fatalf("Failed to cast vote: %v", err)
			}
			votes++
		}
	}
	fmt.Printf("Cast %d votes\n", votes)
	fmt.Printf("\nDone. Every seeded user logs in with password %q\n", seedPassword)
}
