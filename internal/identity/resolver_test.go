package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/domain"
)

type fakeMappingStore struct {
	mappings map[string]string
	setErr   error
}

func newFakeMappingStore() *fakeMappingStore {
	return &fakeMappingStore{mappings: make(map[string]string)}
}

func (s *fakeMappingStore) GetIdentityMapping(_ context.Context, externalUserID string) (string, error) {
	discordID, ok := s.mappings[externalUserID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return discordID, nil
}

func (s *fakeMappingStore) SetIdentityMapping(_ context.Context, externalUserID, discordUserID string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.mappings[externalUserID] = discordUserID
	return nil
}

func bloxlinkServer(t *testing.T, calls *atomic.Int64, ids []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"discordIDs": ids})
	}))
}

func newTestResolver(store MappingStore, baseURL string) *Resolver {
	client := NewBloxlinkClient(baseURL, time.Second, zap.NewNop())
	return NewResolver(store, client, nil, zap.NewNop())
}

func TestResolver_StoreHitSkipsExternalCall(t *testing.T) {
	var calls atomic.Int64
	server := bloxlinkServer(t, &calls, []string{"discord-from-api"})
	defer server.Close()

	store := newFakeMappingStore()
	store.mappings["roblox-42"] = "discord-99"
	resolver := newTestResolver(store, server.URL)

	discordID, err := resolver.Resolve(context.Background(), "roblox-42", "G1", "cred")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if discordID != "discord-99" {
		t.Errorf("expected stored mapping, got %q", discordID)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no external call on store hit, got %d", calls.Load())
	}
}

func TestResolver_SingleMatchPersistsAndReturns(t *testing.T) {
	server := bloxlinkServer(t, nil, []string{"discord-99"})
	defer server.Close()

	store := newFakeMappingStore()
	resolver := newTestResolver(store, server.URL)

	discordID, err := resolver.Resolve(context.Background(), "roblox-42", "G1", "cred")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if discordID != "discord-99" {
		t.Errorf("expected discord-99, got %q", discordID)
	}
	if store.mappings["roblox-42"] != "discord-99" {
		t.Error("expected mapping to be persisted")
	}
}

func TestResolver_MultipleMatchesTakesFirst(t *testing.T) {
	server := bloxlinkServer(t, nil, []string{"discord-first", "discord-second"})
	defer server.Close()

	resolver := newTestResolver(newFakeMappingStore(), server.URL)

	discordID, err := resolver.Resolve(context.Background(), "roblox-42", "G1", "cred")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if discordID != "discord-first" {
		t.Errorf("expected first match, got %q", discordID)
	}
}

func TestResolver_NoMatchesIsNotFound(t *testing.T) {
	server := bloxlinkServer(t, nil, []string{})
	defer server.Close()

	resolver := newTestResolver(newFakeMappingStore(), server.URL)

	if _, err := resolver.Resolve(context.Background(), "roblox-42", "G1", "cred"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolver_UnreachableAPIIsLookupFailed(t *testing.T) {
	server := bloxlinkServer(t, nil, nil)
	server.Close()

	resolver := newTestResolver(newFakeMappingStore(), server.URL)

	if _, err := resolver.Resolve(context.Background(), "roblox-42", "G1", "cred"); !errors.Is(err, ErrLookupFailed) {
		t.Errorf("expected ErrLookupFailed, got %v", err)
	}
}

func TestResolver_PersistedMappingSurvivesAPIOutage(t *testing.T) {
	server := bloxlinkServer(t, nil, []string{"discord-99"})

	store := newFakeMappingStore()
	resolver := newTestResolver(store, server.URL)

	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, "roblox-42", "G1", "cred"); err != nil {
		t.Fatalf("first Resolve returned error: %v", err)
	}

	server.Close()

	discordID, err := resolver.Resolve(ctx, "roblox-42", "G1", "cred")
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}
	if discordID != "discord-99" {
		t.Errorf("expected persisted mapping, got %q", discordID)
	}
}

func TestResolver_PersistFailureStillReturnsID(t *testing.T) {
	server := bloxlinkServer(t, nil, []string{"discord-99"})
	defer server.Close()

	store := newFakeMappingStore()
	store.setErr = errors.New("db down")
	resolver := newTestResolver(store, server.URL)

	discordID, err := resolver.Resolve(context.Background(), "roblox-42", "G1", "cred")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if discordID != "discord-99" {
		t.Errorf("expected resolved id despite persist failure, got %q", discordID)
	}
}

func TestBloxlinkClient_SendsCredential(t *testing.T) {
	var gotAuth string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"discordIDs": []string{"discord-1"}})
	}))
	defer server.Close()

	client := NewBloxlinkClient(server.URL, time.Second, zap.NewNop())
	ids, err := client.RobloxToDiscord(context.Background(), "G1", "roblox-42", "my-credential")
	if err != nil {
		t.Fatalf("RobloxToDiscord returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "discord-1" {
		t.Errorf("unexpected ids: %v", ids)
	}
	if gotAuth != "my-credential" {
		t.Errorf("expected credential header, got %q", gotAuth)
	}
	if gotPath != "/v4/public/guilds/G1/roblox-to-discord/roblox-42" {
		t.Errorf("unexpected request path %q", gotPath)
	}
}
