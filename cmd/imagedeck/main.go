package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/imagedeck/internal/config"
	"github.com/conorfennell/imagedeck/internal/domain"
	"github.com/conorfennell/imagedeck/internal/imagecodec"
	"github.com/conorfennell/imagedeck/internal/imports"
	"github.com/conorfennell/imagedeck/internal/review"
	"github.com/conorfennell/imagedeck/internal/sampler"
	"github.com/conorfennell/imagedeck/internal/storage"
)

const usage = `Usage: imagedeck [flags] <command> [args]

Commands:
  decks                     List decks, newest first
  create-deck NAME          Create a deck
  delete-deck DECK          Delete a deck and all of its cards
  cards DECK                List the cards of a deck, newest first
  add DECK DIR|GIT_URL      Add one card per image (front side)
  backs DECK DIR|GIT_URL    Assign back images to the deck's cards, oldest first
  delete-card CARD          Delete a card
  sample                    Print a random review queue
  due                       List cards that are due
  review                    Review cards interactively

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	db     *storage.DB
	logger *slog.Logger
	in     *bufio.Scanner
	out    io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("imagedeck", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.Flags(fs)
	deckID := fs.Int64("deck", 0, "Deck to sample or review (0 means all decks)")
	count := fs.Int("count", 0, "Cards per random review (defaults to review.count)")
	all := fs.Bool("all", false, "Review every card of the deck or collection")
	sequential := fs.Bool("sequential", false, "Review a deck in order instead of randomly")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	db, err := storage.Open(cfg.DB.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Debug("database opened", "path", cfg.DB.Path)

	a := &app{cfg: cfg, db: db, logger: logger, in: bufio.NewScanner(stdin), out: stdout}

	n := *count
	if n <= 0 {
		n = cfg.Review.Count
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "decks":
		return a.listDecks(ctx)
	case "create-deck":
		return a.createDeck(ctx, strings.Join(cmdArgs, " "))
	case "delete-deck":
		return withID(cmdArgs, func(id int64) error { return a.deleteDeck(ctx, id) })
	case "cards":
		return withID(cmdArgs, func(id int64) error { return a.listCards(ctx, id) })
	case "add", "backs":
		if len(cmdArgs) != 2 {
			return fmt.Errorf("%s needs a deck id and an image source", cmd)
		}
		return withID(cmdArgs[:1], func(id int64) error { return a.importImages(ctx, cmd, id, cmdArgs[1]) })
	case "delete-card":
		return withID(cmdArgs, func(id int64) error { return a.db.DeleteCard(ctx, id) })
	case "sample":
		return a.sample(ctx, *deckID, n)
	case "due":
		return a.due(ctx, n)
	case "review":
		return a.review(ctx, *deckID, n, *all, *sequential)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func withID(args []string, fn func(int64) error) error {
	if len(args) < 1 {
		return errors.New("missing id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	return fn(id)
}

func (a *app) listDecks(ctx context.Context) error {
	decks, err := a.db.ListDecks(ctx)
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		fmt.Fprintln(a.out, "No decks yet. Create one with: imagedeck create-deck NAME")
		return nil
	}
	for _, d := range decks {
		fmt.Fprintf(a.out, "%d\t%s\t%d cards\t%s\n", d.ID, d.Name, d.CardCount, d.CreatedAt.Format(time.DateOnly))
	}
	return nil
}

func (a *app) createDeck(ctx context.Context, name string) error {
	deck, err := a.db.CreateDeck(ctx, name, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created deck %d %q\n", deck.ID, deck.Name)
	return nil
}

func (a *app) deleteDeck(ctx context.Context, id int64) error {
	deck, err := a.db.GetDeck(ctx, id)
	if err != nil {
		return err
	}
	n, err := a.db.CountCards(ctx, id)
	if err != nil {
		return err
	}
	if !a.confirm(fmt.Sprintf("Delete deck %q and its %d cards?", deck.Name, n)) {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	if err := a.db.DeleteDeck(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted deck %q.\n", deck.Name)
	return nil
}

func (a *app) listCards(ctx context.Context, deckID int64) error {
	if _, err := a.db.GetDeck(ctx, deckID); err != nil {
		return err
	}
	cards, err := a.db.ListCardsByDeck(ctx, deckID)
	if err != nil {
		return err
	}
	for i := len(cards) - 1; i >= 0; i-- {
		a.printCard(cards[i])
	}
	fmt.Fprintf(a.out, "%d cards\n", len(cards))
	return nil
}

func (a *app) importImages(ctx context.Context, cmd string, deckID int64, source string) error {
	codec := imagecodec.New(a.cfg.Image.MaxSide, a.cfg.Image.Quality)
	im := imports.NewImporter(a.db, codec, a.cfg.Repos.Dir, a.out, a.logger)

	if cmd == "add" {
		cards, res, err := im.Fronts(ctx, deckID, source, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Imported %d front images (%d skipped).\n", len(cards), len(res.Skipped))
		return nil
	}

	n, res, err := im.Backs(ctx, deckID, source)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Assigned %d back images (%d supplied, %d skipped).\n", n, len(res.Images), len(res.Skipped))
	return nil
}

func (a *app) sample(ctx context.Context, deckID int64, n int) error {
	smp := sampler.New(a.db)
	var (
		queue []domain.Card
		err   error
	)
	if deckID != 0 {
		queue, err = smp.SampleDeck(ctx, deckID, n)
	} else {
		queue, err = smp.SampleAll(ctx, n)
	}
	if err != nil {
		return err
	}
	for _, c := range queue {
		a.printCard(c)
	}
	return nil
}

func (a *app) due(ctx context.Context, n int) error {
	cards, err := a.db.ListDueCards(ctx, time.Now(), n)
	if err != nil {
		return err
	}
	for _, c := range cards {
		a.printCard(c)
	}
	fmt.Fprintf(a.out, "%d due\n", len(cards))
	return nil
}

func (a *app) review(ctx context.Context, deckID int64, n int, all, sequential bool) error {
	svc := review.NewService(a.db, sampler.New(a.db), a.logger)

	var (
		sess *review.Session
		err  error
	)
	if sequential {
		if deckID == 0 {
			return errors.New("--sequential needs --deck")
		}
		sess, err = svc.Sequential(ctx, deckID)
	} else {
		sess, err = svc.Start(ctx, review.Options{DeckID: deckID, Count: n, All: all})
	}
	if err != nil {
		return err
	}
	if sess.Done() {
		fmt.Fprintln(a.out, "No cards to review. Add front images to a deck first.")
		return nil
	}

	dir, err := os.MkdirTemp("", "imagedeck-review-")
	if err != nil {
		return fmt.Errorf("failed to create review directory: %w", err)
	}
	defer os.RemoveAll(dir)

	for !sess.Done() {
		card, _ := sess.Current()
		pos, total := sess.Position()

		front, err := writeImage(dir, card.ID, "front", card.FrontImage)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "[%d/%d] card %d front: %s\n", pos, total, card.ID, front)
		if card.BackImage.Present() {
			a.prompt("Press Enter to flip")
			back, err := writeImage(dir, card.ID, "back", card.BackImage)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "        back: %s\n", back)
		}

		switch a.choose("Remembered? [y]es / [n]o / [r]eroll / [q]uit", "y", "n", "r", "q") {
		case "q":
			return nil
		case "r":
			if err := svc.Reroll(ctx, sess); err != nil {
				return err
			}
			continue
		case "y":
			if _, err := svc.Dismiss(ctx, sess, true, time.Now()); err != nil {
				return err
			}
		case "n":
			if _, err := svc.Dismiss(ctx, sess, false, time.Now()); err != nil {
				return err
			}
		}
	}
	fmt.Fprintln(a.out, "Done.")
	return nil
}

func writeImage(dir string, cardID int64, side string, img domain.EncodedImage) (string, error) {
	_, ext := imagecodec.Detect(img)
	path := filepath.Join(dir, fmt.Sprintf("card-%d-%s%s", cardID, side, ext))
	if err := os.WriteFile(path, img, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (a *app) printCard(c domain.Card) {
	seen := "never"
	if c.Seen() {
		seen = c.LastSeenAt.Format(time.DateTime)
	}
	back := "no back"
	if c.BackImage.Present() {
		back = "back"
	}
	fmt.Fprintf(a.out, "%d\tdeck %d\t%s\tinterval %dd\tdue %s\tseen %s\n",
		c.ID, c.DeckID, back, c.IntervalDays, c.DueAt.Format(time.DateOnly), seen)
}

func (a *app) prompt(msg string) string {
	fmt.Fprintf(a.out, "%s: ", msg)
	if !a.in.Scan() {
		return "q"
	}
	return strings.ToLower(strings.TrimSpace(a.in.Text()))
}

// choose repeats the prompt until the reply is one of options. End of input
// counts as "q".
func (a *app) choose(msg string, options ...string) string {
	for {
		reply := a.prompt(msg)
		if reply == "q" || slices.Contains(options, reply) {
			return reply
		}
		fmt.Fprintf(a.out, "Please answer one of %s.\n", strings.Join(options, ", "))
	}
}

func (a *app) confirm(msg string) bool {
	return a.prompt(msg+" [y/N]") == "y"
}
