package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/feasibility-cli/internal/engine"
	"github.com/sells-group/feasibility-cli/internal/fetcher"
)

func batchRecord(line int, name string, raw map[string]any) fetcher.Record {
	return fetcher.Record{Line: line, Name: name, Raw: raw}
}

func TestProcessBatch_MixedOutcomes(t *testing.T) {
	records := []fetcher.Record{
		batchRecord(2, "good plant", map[string]any{
			"machinery_equipment":         "1000000",
			"unit_price":   "500",
			"production_capacity_monthly": "200",
		}),
		batchRecord(3, "bad plant", map[string]any{
			"land_cost": "-100",
		}),
	}

	outcomes, err := processBatch(context.Background(), records, 0, 2, engine.New())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// Outcomes keep input order regardless of completion order.
	assert.Equal(t, "good plant", outcomes[0].Name)
	require.NotNil(t, outcomes[0].Result)
	assert.Empty(t, outcomes[0].Error)
	assert.Equal(t, 1000000.0, outcomes[0].Result.TotalInvestment)

	assert.Equal(t, "bad plant", outcomes[1].Name)
	assert.Nil(t, outcomes[1].Result)
	assert.Contains(t, outcomes[1].Error, "land_cost")
}

func TestProcessBatch_Limit(t *testing.T) {
	var records []fetcher.Record
	for i := 0; i < 10; i++ {
		records = append(records, batchRecord(i+2, "plant", map[string]any{
			"machinery_equipment": "1000",
		}))
	}

	outcomes, err := processBatch(context.Background(), records, 3, 2, engine.New())
	require.NoError(t, err)
	assert.Len(t, outcomes, 3)
}

func TestProcessBatch_Empty(t *testing.T) {
	outcomes, err := processBatch(context.Background(), nil, 0, 2, engine.New())
	require.NoError(t, err)
	assert.Nil(t, outcomes)
}

func TestProcessBatch_Concurrent(t *testing.T) {
	var records []fetcher.Record
	for i := 0; i < 50; i++ {
		records = append(records, batchRecord(i+2, "plant", map[string]any{
			"machinery_equipment":         "1000000",
			"unit_price":   "500",
			"production_capacity_monthly": "200",
		}))
	}

	outcomes, err := processBatch(context.Background(), records, 0, 8, engine.New())
	require.NoError(t, err)
	require.Len(t, outcomes, 50)
	for i, o := range outcomes {
		assert.Equal(t, i+2, o.Line)
		require.NotNil(t, o.Result)
	}
}
