package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/feasibility-cli/internal/model"
)

func TestFormatProjectsList(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	projects := []model.Project{
		{
			ID:          "id-1",
			Name:        "alpha plant",
			IsCompleted: true,
			Result:      &model.FeasibilityResult{NPV: 1234567.891, IsFeasible: true},
			CreatedAt:   created,
		},
		{
			ID:        "id-2",
			Name:      "beta plant",
			CreatedAt: created,
		},
	}

	var sb strings.Builder
	formatProjectsList(&sb, projects)
	out := sb.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "alpha plant")
	assert.Contains(t, out, "1234567.89")
	assert.Contains(t, out, "true")
	// No result yet renders placeholders.
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "2026-03-14 09:30")
}
