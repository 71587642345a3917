package conversation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	backend := NewMemoryBackend()

	s := NewStore(backend, "conv", 20, nil)
	s.Load()
	s.Append(msg(RoleUser, "hello"))
	s.Append(msg(RoleAssistant, "hi there"))
	s.Save()

	// A fresh store over the same backend sees the same transcript.
	fresh := NewStore(backend, "conv", 20, nil)
	fresh.Load()

	if diff := cmp.Diff(s.Messages(), fresh.Messages()); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(NewMemoryBackend(), "conv", 20, nil)
	s.Load()
	require.Zero(t, s.Len())
}

func TestStoreLoadCorrupt(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"not_json", "{{{ not json"},
		{"json_object_not_array", `{"role":"user"}`},
		{"json_scalar", `42`},
		{"unknown_role", `[{"role":"moderator","content":"x","created_at":"2025-06-01T12:00:00Z"}]`},
		{"mixed_valid_and_malformed", `[{"role":"user","content":"ok","created_at":"2025-06-01T12:00:00Z"},{"role":"","content":"bad"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMemoryBackend()
			require.NoError(t, backend.Put("conv", []byte(tt.stored)))

			s := NewStore(backend, "conv", 20, nil)
			s.Load()
			require.Zero(t, s.Len(), "corrupt storage must degrade to an empty conversation")
		})
	}
}

func TestStoreLoadTrimsOversizedState(t *testing.T) {
	backend := NewMemoryBackend()

	big := NewStore(backend, "conv", 50, nil)
	for i := 0; i < 30; i++ {
		big.Append(msg(RoleUser, "m"))
	}
	big.Save()

	// Reloading with a tighter bound keeps only the newest N.
	small := NewStore(backend, "conv", 10, nil)
	small.Load()
	require.Equal(t, 10, small.Len())
}

func TestStoreClear(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend, "conv", 20, nil)
	s.Append(msg(RoleUser, "hello"))
	s.Save()

	s.Clear()
	require.Zero(t, s.Len())

	data, err := backend.Get("conv")
	require.NoError(t, err)
	require.Nil(t, data, "clear must erase the persisted slot")
}

// failingBackend simulates a full or broken storage layer.
type failingBackend struct{}

func (failingBackend) Get(string) ([]byte, error) { return nil, errors.New("storage offline") }
func (failingBackend) Put(string, []byte) error   { return errors.New("quota exceeded") }
func (failingBackend) Delete(string) error        { return errors.New("storage offline") }

func TestStorePersistenceFailureIsNonFatal(t *testing.T) {
	s := NewStore(failingBackend{}, "conv", 20, nil)
	s.Load()
	s.Append(Message{Role: RoleUser, Content: "hello", CreatedAt: time.Now()})
	s.Save()
	s.Clear()
	// The in-memory state stays usable throughout.
	require.Zero(t, s.Len())
}
