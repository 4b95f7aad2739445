package db

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterClause(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		where, args := Filter{}.clause()
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("brand only", func(t *testing.T) {
		where, args := Filter{BrandSlug: "amend"}.clause()
		assert.Equal(t, " WHERE brand_slug = $1", where)
		assert.Equal(t, []any{"amend"}, args)
	})

	t.Run("verified adds no placeholder", func(t *testing.T) {
		where, args := Filter{BrandSlug: "amend", VerifiedOnly: true}.clause()
		assert.Equal(t, " WHERE brand_slug = $1 AND verification_status = 'verified_inci'", where)
		assert.Equal(t, []any{"amend"}, args)
	})

	t.Run("search matches name and description", func(t *testing.T) {
		where, args := Filter{VerifiedOnly: true, Category: "tratamento", Search: "argan"}.clause()
		assert.Equal(t,
			" WHERE verification_status = 'verified_inci' AND product_category = $1 AND (product_name ILIKE $2 OR description ILIKE $2)",
			where)
		assert.Equal(t, []any{"tratamento", "%argan%"}, args)
	})
}

func TestJSONArray(t *testing.T) {
	assert.Nil(t, jsonArray[string](nil))
	assert.Nil(t, jsonArray([]string{}))

	raw := jsonArray([]string{"Aqua", "Glycerin"})
	require.NotNil(t, raw)
	var back []string
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, []string{"Aqua", "Glycerin"}, back)
}
