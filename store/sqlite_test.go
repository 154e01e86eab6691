/*
 * Copyright 2026 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func Test_Upsert(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	inserted, err := s.Upsert(ctx, "ABC1234", "10.0.0.1", []byte(`{"SystemInformation":{"SKU":"ABC1234"}}`))
	require.NoError(t, err)
	assert.True(t, inserted)

	first, err := s.Get(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", first.Target)

	// same server behind a new address
	inserted, err = s.Upsert(ctx, "ABC1234", "10.0.0.2", []byte(`{"SystemInformation":{"SKU":"ABC1234","BiosVersion":"2.13.0"}}`))
	require.NoError(t, err)
	assert.False(t, inserted)

	second, err := s.Get(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "10.0.0.2", second.Target)
	assert.JSONEq(t, `{"SystemInformation":{"SKU":"ABC1234","BiosVersion":"2.13.0"}}`, string(second.Data))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func Test_Upsert_FallbackKey(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	_, err := s.Upsert(ctx, "", "10.0.0.1", []byte(`{"MemoryInformation":{}}`))
	require.NoError(t, err)

	r, err := s.Get(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", r.ServiceTag)
}

func Test_Upsert_Errors(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	_, err := s.Upsert(ctx, "", "", []byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = s.Upsert(ctx, "ABC1234", "10.0.0.1", nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = s.Get(ctx, "ABC1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Open_Persists(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)

	_, err := s.Upsert(ctx, "ABC1234", "10.0.0.1", []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
