package lifecycle

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/cachestore"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "lifecycle-test", Output: io.Discard})
}

type fakeFetcher struct {
	failOn  string
	fetched []string
}

func (f *fakeFetcher) FetchAsset(_ context.Context, path string) (cachestore.Entry, error) {
	if path == f.failOn {
		return cachestore.Entry{}, errors.New("upstream 500")
	}
	f.fetched = append(f.fetched, path)
	return cachestore.Entry{URL: path, Method: "GET", StatusCode: 200, Body: []byte("asset")}, nil
}

type fakeClaimer struct {
	claimed bool
	err     error
}

func (f *fakeClaimer) Claim(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.claimed = true
	return nil
}

func testController(t *testing.T, store cachestore.Store, fetcher AssetFetcher, claimer Claimer) *Controller {
	t.Helper()
	ctrl, err := NewController(ControllerParams{
		Logger:     testLogger(),
		Store:      store,
		Fetcher:    fetcher,
		Claimer:    claimer,
		Generation: "nesttask-v2",
		Shell:      []string{"/", "/index.html", "/offline.html", "/manifest.json"},
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl
}

func TestInstallThenActivate(t *testing.T) {
	store := cachestore.NewMemoryStore()
	ctx := context.Background()

	// a stale generation left by the previous version
	_ = store.Put(ctx, "nesttask-v1", cachestore.Entry{URL: "/", Method: "GET"})

	claimer := &fakeClaimer{}
	ctrl := testController(t, store, &fakeFetcher{}, claimer)

	if ctrl.State() != StateNew {
		t.Fatalf("expected new, got %s", ctrl.State())
	}
	if err := ctrl.Install(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}
	if ctrl.State() != StateInstalled {
		t.Fatalf("expected installed, got %s", ctrl.State())
	}

	if _, ok, _ := store.Get(ctx, "nesttask-v2", "GET", "/offline.html"); !ok {
		t.Fatal("offline page should be precached")
	}

	if err := ctrl.Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if ctrl.State() != StateActive {
		t.Fatalf("expected active, got %s", ctrl.State())
	}
	if !claimer.claimed {
		t.Fatal("expected clients to be claimed")
	}

	generations, _ := store.Generations(ctx)
	if len(generations) != 1 || generations[0] != "nesttask-v2" {
		t.Fatalf("stale generations should be dropped, got %v", generations)
	}
}

func TestInstallFailsOnMissingAsset(t *testing.T) {
	store := cachestore.NewMemoryStore()
	ctrl := testController(t, store, &fakeFetcher{failOn: "/offline.html"}, nil)

	err := ctrl.Install(context.Background())
	if err == nil {
		t.Fatal("expected install to fail")
	}
	if ctrl.State() != StateFailed {
		t.Fatalf("expected failed, got %s", ctrl.State())
	}

	// earlier assets fetched before the failure must not be committed
	if _, ok, _ := store.Get(context.Background(), "nesttask-v2", "GET", "/"); ok {
		t.Fatal("failed install must leave no partial cache")
	}
}

func TestActivateRequiresInstalled(t *testing.T) {
	ctrl := testController(t, cachestore.NewMemoryStore(), &fakeFetcher{}, nil)

	if err := ctrl.Activate(context.Background()); err == nil {
		t.Fatal("expected activate before install to fail")
	}
}

func TestInstallTwiceRejected(t *testing.T) {
	ctrl := testController(t, cachestore.NewMemoryStore(), &fakeFetcher{}, nil)
	ctx := context.Background()

	if err := ctrl.Install(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := ctrl.Install(ctx); err == nil {
		t.Fatal("expected second install to be rejected")
	}
}
