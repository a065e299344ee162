package records

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdex/contentdex/internal/domain"
)

func testRepo() *Repo {
	return New(nil, DefaultSchema())
}

func TestBuildSelect(t *testing.T) {
	r := testRepo()

	t.Run("no filters", func(t *testing.T) {
		query, args, err := r.buildSelect("user_content", "user-1", nil)
		require.NoError(t, err)
		assert.Equal(t, `SELECT * FROM user_content WHERE user_id = $1`, query)
		assert.Equal(t, []any{"user-1"}, args)
	})

	t.Run("filters in sorted column order", func(t *testing.T) {
		query, args, err := r.buildSelect("user_content", "user-1", map[string]any{
			"source_type": "feed",
			"is_active":   true,
		})
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT * FROM user_content WHERE user_id = $1 AND is_active = $2 AND source_type = $3`,
			query)
		assert.Equal(t, []any{"user-1", true, "feed"}, args)
	})

	t.Run("unknown table", func(t *testing.T) {
		_, _, err := r.buildSelect("pg_catalog.pg_tables", "user-1", nil)
		assert.ErrorIs(t, err, domain.ErrUnknownTable)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, _, err := r.buildSelect("user_content", "user-1", map[string]any{
			"password; DROP TABLE user_content": "x",
		})
		assert.ErrorIs(t, err, domain.ErrUnknownColumn)
	})
}

func TestBuildInsert(t *testing.T) {
	r := testRepo()

	query, args, err := r.buildInsert("user_content", "user-1", map[string]any{
		"content_text": "hello",
		"source_type":  "manual",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO user_content (user_id, content_text, source_type) VALUES ($1, $2, $3) RETURNING *`,
		query)
	assert.Equal(t, []any{"user-1", "hello", "manual"}, args)
}

func TestBuildInsert_StripsOwnershipFields(t *testing.T) {
	r := testRepo()

	query, args, err := r.buildInsert("user_content", "user-1", map[string]any{
		"content_text": "hello",
		"user_id":      "someone-else",
		"id":           "forged-id",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO user_content (user_id, content_text) VALUES ($1, $2) RETURNING *`,
		query)
	assert.Equal(t, []any{"user-1", "hello"}, args)
}

func TestBuildInsert_LeavesPayloadUntouched(t *testing.T) {
	r := testRepo()

	data := map[string]any{
		"content_text": "hello",
		"user_id":      "someone-else",
		"id":           "forged-id",
	}
	_, _, err := r.buildInsert("user_content", "user-1", data)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"content_text": "hello",
		"user_id":      "someone-else",
		"id":           "forged-id",
	}, data, "the caller's map must not be mutated")
}

func TestBuildUpdate(t *testing.T) {
	r := testRepo()

	t.Run("scoped by id and user_id", func(t *testing.T) {
		query, args, err := r.buildUpdate("user_content", "user-1", "row-9", map[string]any{
			"is_active":    false,
			"content_text": "edited",
		})
		require.NoError(t, err)
		assert.Equal(t,
			`UPDATE user_content SET content_text = $3, is_active = $4 WHERE id = $1 AND user_id = $2 RETURNING *`,
			query)
		assert.Equal(t, []any{"row-9", "user-1", "edited", false}, args)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, _, err := r.buildUpdate("user_content", "user-1", "row-9", map[string]any{})
		assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	})

	t.Run("ownership fields only", func(t *testing.T) {
		_, _, err := r.buildUpdate("user_content", "user-1", "row-9", map[string]any{
			"user_id": "someone-else",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	})

	t.Run("payload untouched", func(t *testing.T) {
		data := map[string]any{"is_active": false, "user_id": "someone-else"}
		_, _, err := r.buildUpdate("user_content", "user-1", "row-9", data)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"is_active": false, "user_id": "someone-else"}, data)
	})
}

func TestDelete_UnknownTable(t *testing.T) {
	r := testRepo()
	err := r.Delete(context.Background(), "secrets", "user-1", "row-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownTable))
}
