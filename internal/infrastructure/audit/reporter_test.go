package audit

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

func TestReport_ConservaUltimas(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(logger.NewWithWriter(&buf, "debug"), 2)
	ctx := context.Background()

	r.Report(ctx, ports.ReconcileReport{ProductID: "OK", Consistent: true})
	for _, id := range []string{"P1", "P2", "P3"} {
		r.Report(ctx, ports.ReconcileReport{ProductID: id, Cached: 5, Recomputed: 4})
	}

	recent := r.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "P2", recent[0].ProductID)
	assert.Equal(t, "P3", recent[1].ProductID)
	assert.Contains(t, buf.String(), `"product_id":"P3"`)
	assert.NotContains(t, buf.String(), `"product_id":"OK"`)
}
