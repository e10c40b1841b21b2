package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/persistence/middleware"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.RunStore, active []byte, fallback ...[]byte) ports.RunStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, encrypted(t, memory.NewStore(), generateKey(t)))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := encrypted(t, underlying, generateKey(t))

	record := domain.NewRunRecord("sealed", "publish-quote")
	record.Status = domain.RunPassed
	record.Outputs[domain.OutputTitle] = "Embargoed announcement"
	record.Steps = append(record.Steps, domain.StepResult{Action: domain.ActionEnterTitle, Output: "Embargoed announcement"})
	require.NoError(t, store.Save(ctx, record))

	envelope, err := underlying.Load(ctx, "sealed")
	require.NoError(t, err)
	assert.Equal(t, domain.RunPassed, envelope.Status, "status stays readable")
	assert.Empty(t, envelope.Scenario)
	assert.Empty(t, envelope.Steps)
	assert.NotContains(t, envelope.Outputs, domain.OutputTitle)
	assert.Contains(t, envelope.Outputs, middleware.EnvelopeKey)

	loaded, err := store.Load(ctx, "sealed")
	require.NoError(t, err)
	assert.Equal(t, "publish-quote", loaded.Scenario)
	assert.Equal(t, "Embargoed announcement", loaded.Outputs[domain.OutputTitle])
	require.Len(t, loaded.Steps, 1)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := encrypted(t, underlying, oldKey)
	require.NoError(t, oldStore.Save(ctx, domain.NewRunRecord("rotated", "old")))

	newStore := encrypted(t, underlying, newKey, oldKey)
	loaded, err := newStore.Load(ctx, "rotated")
	require.NoError(t, err, "fallback keys decrypt older runs")
	assert.Equal(t, "old", loaded.Scenario)

	loaded.Scenario = "new"
	require.NoError(t, newStore.Save(ctx, loaded))

	_, err = oldStore.Load(ctx, "rotated")
	assert.Error(t, err, "runs saved with the new key cannot be read with the old one")
}

func TestEncryptionMiddleware_PlainRecordRefused(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, domain.NewRunRecord("plain", "x")))

	_, err := encrypted(t, underlying, generateKey(t)).Load(ctx, "plain")
	assert.ErrorContains(t, err, "missing its encrypted envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    make([]byte, 32),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("too-short")
	assert.Error(t, err)
}
