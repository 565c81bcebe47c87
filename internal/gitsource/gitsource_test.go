package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestIsGitURL(t *testing.T) {
	testCases := []struct {
		source   string
		expected bool
	}{
		{source: "https://github.com/me/cards.git", expected: true},
		{source: "git@github.com:me/cards.git", expected: true},
		{source: "http://example.com/cards", expected: true},
		{source: "./photos", expected: false},
		{source: "/home/me/anatomy", expected: false},
	}
	for _, tc := range testCases {
		if got := IsGitURL(tc.source); got != tc.expected {
			t.Errorf("IsGitURL(%q): expected %v, but got %v", tc.source, tc.expected, got)
		}
	}
}

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
		wantErr  bool
	}{
		{url: "https://github.com/me/cards.git", expected: filepath.Join("repos", "github.com", "me", "cards")},
		{url: "git@github.com:me/cards.git", expected: filepath.Join("repos", "github.com", "me", "cards")},
		{url: "not a url", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := LocalPath("repos", tc.url)
		if tc.wantErr {
			if err == nil {
				t.Errorf("LocalPath(%q): expected an error", tc.url)
			}
			continue
		}
		if err != nil {
			t.Fatalf("LocalPath(%q): unexpected error %v", tc.url, err)
		}
		if got != tc.expected {
			t.Errorf("LocalPath(%q): expected %q, but got %q", tc.url, tc.expected, got)
		}
	}
}

// newOrigin creates a repository with one committed file to clone from.
func newOrigin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init origin: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("img"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add("a.png"); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err = wt.Commit("add card", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return dir
}

func TestSyncClonesThenPulls(t *testing.T) {
	origin := newOrigin(t)
	dest := filepath.Join(t.TempDir(), "checkout")

	if err := Sync(context.Background(), origin, dest, nil, nil); err != nil {
		t.Fatalf("clone: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "a.png")); err != nil {
		t.Fatalf("Expected cloned file, got %v", err)
	}

	// Second sync pulls and finds nothing new.
	if err := Sync(context.Background(), origin, dest, nil, nil); err != nil {
		t.Fatalf("pull: %v", err)
	}
}
