package vault

import (
	"crypto/rand"
	"os"
	"strings"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, ttl time.Duration) *Signer {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	signer, err := NewSigner(key, ttl)
	require.NoError(t, err)
	return signer
}

func TestStorage_SaveAndRead(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	path, size, err := storage.Save("demo.mp3", strings.NewReader("fake audio bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(16), size)
	assert.True(t, strings.HasPrefix(path, "artifacts/"))
	assert.True(t, strings.HasSuffix(path, ".mp3"))

	require.True(t, storage.Exists(path))

	abs, err := storage.Path(path)
	require.NoError(t, err)
	data, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, "fake audio bytes", string(data))
}

func TestStorage_SaveUniquePaths(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	a, _, err := storage.Save("demo.mp3", strings.NewReader("one"))
	require.NoError(t, err)
	b, _, err := storage.Save("demo.mp3", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "same filename uploaded twice must not collide")
}

func TestStorage_PathRejectsEscapes(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	_, err = storage.Path("../outside.mp3")
	assert.Error(t, err)

	_, err = storage.Path("/etc/passwd")
	assert.Error(t, err)
}

func TestStorage_DeleteIdempotent(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	path, _, err := storage.Save("demo.flac", strings.NewReader("audio"))
	require.NoError(t, err)

	require.NoError(t, storage.Delete(path))
	assert.False(t, storage.Exists(path))
	require.NoError(t, storage.Delete(path))
}

func TestSigner_SignAndVerify(t *testing.T) {
	signer := newTestSigner(t, 15*time.Minute)

	token, err := signer.Sign("art-1", "cir-1", "fan@example.com", "fan-sess-1")
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "art-1", claims.ArtifactID)
	assert.Equal(t, "cir-1", claims.CircleID)
	assert.Equal(t, "fan@example.com", claims.Email)
	assert.Equal(t, "fan-sess-1", claims.SessionID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.Expiration, 5*time.Second)
}

func TestSigner_RejectsExpired(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	require.NoError(t, err)

	// Negative TTL makes every token it signs already expired.
	signer := &Signer{symmetricKey: symmetricKey, ttl: -time.Minute}

	token, err := signer.Sign("art-1", "cir-1", "fan@example.com", "fan-sess-1")
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.Error(t, err)
}

func TestSigner_RejectsWrongKey(t *testing.T) {
	a := newTestSigner(t, time.Minute)
	b := newTestSigner(t, time.Minute)

	token, err := a.Sign("art-1", "cir-1", "fan@example.com", "fan-sess-1")
	require.NoError(t, err)

	_, err = b.Verify(token)
	assert.Error(t, err)
}

func TestSigner_RejectsEmptyArtifact(t *testing.T) {
	signer := newTestSigner(t, time.Minute)

	_, err := signer.Sign("", "cir-1", "fan@example.com", "fan-sess-1")
	assert.Error(t, err)
}

func TestNewSigner_Validation(t *testing.T) {
	_, err := NewSigner(make([]byte, 16), time.Minute)
	assert.Error(t, err)

	_, err = NewSigner(make([]byte, 32), 0)
	assert.Error(t, err)
}

func TestStreamURL(t *testing.T) {
	u := StreamURL("https://drops.example.com", "art-1", "v4.local.abc+def")
	assert.Equal(t, "https://drops.example.com/api/v1/stream/art-1?token=v4.local.abc%2Bdef", u)

	rel := StreamURL("", "art-1", "tok")
	assert.Equal(t, "/api/v1/stream/art-1?token=tok", rel)
}
