package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripts(t *testing.T) {
	scripts, err := Scripts()
	require.NoError(t, err)
	require.NotEmpty(t, scripts)
	assert.True(t, strings.HasPrefix(scripts[0], "CREATE SCHEMA IF NOT EXISTS farm;"))
}

// Error mapping relies on these constraint names
func TestScripts_ConstraintNames(t *testing.T) {
	scripts, err := Scripts()
	require.NoError(t, err)
	all := strings.Join(scripts, "\n")

	for _, name := range []string{
		"inventory_items_current_stock_check",
		"stock_batches_batch_quantity_check",
		"flocks_flock_quantity_check",
		"mortality_records_flock_date_key",
		"consumption_records_flock_item_date_key",
	} {
		assert.Contains(t, all, name)
	}
}

// FIFO ties are broken by the identity column, so it must exist and be indexed
func TestScripts_BatchInsertionSequence(t *testing.T) {
	scripts, err := Scripts()
	require.NoError(t, err)
	all := strings.Join(scripts, "\n")

	assert.Contains(t, all, "seq               BIGINT GENERATED ALWAYS AS IDENTITY")
	assert.Contains(t, all, "ON farm.stock_batches (inventory_item_id, entry_date, seq)")
}
