// Package repotest holds behaviour tests shared by every
// domain.UserRepository implementation.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/sena-auth/internal/domain"
)

// RunUserRepository runs the shared suite. newRepo must return an empty
// repository each time it is called.
func RunUserRepository(t *testing.T, newRepo func(t *testing.T) domain.UserRepository) {
	t.Helper()

	t.Run("Create assigns id and timestamp", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := &domain.User{Username: "testuser", PasswordHash: "hashedpw"}
		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if user.ID == 0 {
			t.Fatal("expected user ID to be set after create")
		}
		if user.CreatedAt.IsZero() {
			t.Fatal("expected CreatedAt to be set")
		}
	})

	t.Run("Create rejects duplicate username", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if err := repo.Create(ctx, &domain.User{Username: "dup", PasswordHash: "hash1"}); err != nil {
			t.Fatalf("Create first: %v", err)
		}
		err := repo.Create(ctx, &domain.User{Username: "dup", PasswordHash: "hash2"})
		if !errors.Is(err, domain.ErrUserAlreadyExists) {
			t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 user after rejected duplicate, got %d", count)
		}
	})

	t.Run("concurrent creates of one username admit exactly one", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			dupes     int
		)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Create(ctx, &domain.User{Username: "racer", PasswordHash: fmt.Sprintf("hash%d", i)})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, domain.ErrUserAlreadyExists):
					dupes++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if succeeded != 1 || dupes != workers-1 {
			t.Fatalf("expected 1 success and %d duplicates, got %d and %d", workers-1, succeeded, dupes)
		}
	})

	t.Run("GetByUsername is case-sensitive", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := &domain.User{Username: "CaseUser", PasswordHash: "hash"}
		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("Create: %v", err)
		}

		found, err := repo.GetByUsername(ctx, "CaseUser")
		if err != nil {
			t.Fatalf("GetByUsername: %v", err)
		}
		if found.ID != user.ID || found.PasswordHash != "hash" {
			t.Fatalf("unexpected user %+v", found)
		}

		if _, err := repo.GetByUsername(ctx, "caseuser"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for different case, got %v", err)
		}
	})

	t.Run("GetByID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := &domain.User{Username: "byid", PasswordHash: "hash"}
		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("Create: %v", err)
		}

		found, err := repo.GetByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if found.Username != "byid" {
			t.Fatalf("expected username byid, got %q", found.Username)
		}

		if _, err := repo.GetByID(ctx, user.ID+1000); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List returns insertion order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		users, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List empty: %v", err)
		}
		if len(users) != 0 {
			t.Fatalf("expected no users, got %d", len(users))
		}

		names := []string{"first", "second", "third"}
		for _, name := range names {
			if err := repo.Create(ctx, &domain.User{Username: name, PasswordHash: "hash"}); err != nil {
				t.Fatalf("Create %s: %v", name, err)
			}
		}

		users, err = repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(users) != len(names) {
			t.Fatalf("expected %d users, got %d", len(names), len(users))
		}
		for i, name := range names {
			if users[i].Username != name {
				t.Fatalf("position %d: expected %q, got %q", i, name, users[i].Username)
			}
			if i > 0 && users[i].CreatedAt.Before(users[i-1].CreatedAt) {
				t.Fatalf("created_at went backwards at position %d", i)
			}
		}
	})

	t.Run("Count CountSince MostRecent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if _, err := repo.MostRecent(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on empty store, got %v", err)
		}

		before := time.Now().Add(-time.Second)
		for _, name := range []string{"alpha", "beta"} {
			if err := repo.Create(ctx, &domain.User{Username: name, PasswordHash: "hash"}); err != nil {
				t.Fatalf("Create %s: %v", name, err)
			}
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2, got %d", count)
		}

		since, err := repo.CountSince(ctx, before)
		if err != nil {
			t.Fatalf("CountSince: %v", err)
		}
		if since != 2 {
			t.Fatalf("expected 2 since %v, got %d", before, since)
		}

		future, err := repo.CountSince(ctx, time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("CountSince future: %v", err)
		}
		if future != 0 {
			t.Fatalf("expected 0 in the future, got %d", future)
		}

		last, err := repo.MostRecent(ctx)
		if err != nil {
			t.Fatalf("MostRecent: %v", err)
		}
		if last.Username != "beta" {
			t.Fatalf("expected beta, got %q", last.Username)
		}
	})
}
