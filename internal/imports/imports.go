// Package imports loads folders of images, local or from a git repository,
// into decks.
package imports

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/conorfennell/imagedeck/internal/domain"
	"github.com/conorfennell/imagedeck/internal/gitsource"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store is the part of the record store imports write to.
type Store interface {
	AddCards(ctx context.Context, deckID int64, images []domain.EncodedImage, now time.Time) ([]domain.Card, error)
	AssignBackImages(ctx context.Context, deckID int64, images []domain.EncodedImage) (int, error)
}

// Codec normalizes raw image files.
type Codec interface {
	Normalize(raw []byte) (domain.EncodedImage, error)
}

// Result describes one collected folder.
type Result struct {
	Images []domain.EncodedImage
	Files  []string
	// Skipped holds one error per file that could not be read or normalized.
	Skipped []error
}

// Importer collects images and hands them to the store.
type Importer struct {
	store    Store
	codec    Codec
	reposDir string
	progress io.Writer
	logger   *slog.Logger
}

// NewImporter creates an Importer. Git sources are checked out under reposDir.
func NewImporter(store Store, codec Codec, reposDir string, progress io.Writer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, codec: codec, reposDir: reposDir, progress: progress, logger: logger}
}

// Resolve returns a local directory for source, cloning or pulling it first
// when it is a git URL.
func (im *Importer) Resolve(ctx context.Context, source string) (string, error) {
	if !gitsource.IsGitURL(source) {
		info, err := os.Stat(source)
		if err != nil {
			return "", fmt.Errorf("image source %s: %w", source, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("image source %s is not a directory", source)
		}
		return source, nil
	}

	if err := os.MkdirAll(im.reposDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create repos directory: %w", err)
	}
	localPath, err := gitsource.LocalPath(im.reposDir, source)
	if err != nil {
		return "", err
	}
	if err := gitsource.Sync(ctx, source, localPath, im.progress, im.logger); err != nil {
		return "", err
	}
	return localPath, nil
}

// Collect reads every image under dir in file name order and normalizes it.
// Files that fail are reported in Result.Skipped and left out.
func (im *Importer) Collect(ctx context.Context, dir string) (Result, error) {
	var paths []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if imageExts[strings.ToLower(filepath.Ext(d.Name()))] {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return Result{}, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}
	slices.Sort(paths)

	var res Result
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		img, err := im.codec.Normalize(raw)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("normalizing %s: %w", path, err))
			continue
		}
		res.Images = append(res.Images, img)
		res.Files = append(res.Files, path)
	}

	for _, err := range res.Skipped {
		im.logger.Warn("skipped image", "error", err)
	}
	im.logger.Info("images collected",
		"path", dir,
		"images", len(res.Images),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// Fronts adds one card per image found in source. The deck must exist even
// when source holds no usable images.
func (im *Importer) Fronts(ctx context.Context, deckID int64, source string, now time.Time) ([]domain.Card, Result, error) {
	res, err := im.load(ctx, source)
	if err != nil {
		return nil, res, err
	}
	cards, err := im.store.AddCards(ctx, deckID, res.Images, now)
	if err != nil {
		return nil, res, err
	}
	return cards, res, nil
}

// Backs assigns the images found in source to the deck's cards, oldest card first.
func (im *Importer) Backs(ctx context.Context, deckID int64, source string) (int, Result, error) {
	res, err := im.load(ctx, source)
	if err != nil {
		return 0, res, err
	}
	n, err := im.store.AssignBackImages(ctx, deckID, res.Images)
	if err != nil {
		return 0, res, err
	}
	return n, res, nil
}

func (im *Importer) load(ctx context.Context, source string) (Result, error) {
	dir, err := im.Resolve(ctx, source)
	if err != nil {
		return Result{}, err
	}
	return im.Collect(ctx, dir)
}
