package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/ports"
)

func TestGenerate_ProducePDF(t *testing.T) {
	g := NewPurchaseOrderPDF("Bodega Central")
	doc, err := g.Generate(context.Background(), ports.PurchaseOrderRequest{
		ProductID:         "P1",
		SKU:               "SKU-001",
		ProductName:       "Tornillo 3/8",
		SuggestedQuantity: 245,
		SupplierID:        "PROV-9",
		UnitCost:          1250,
		Source:            "OPTIMIZATION",
		GeneratedAt:       time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "debe empezar con la firma PDF")
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"999":      "999",
		"25000":    "25.000",
		"1000000":  "1.000.000",
		"-1234567": "-1.234.567",
		"-12":      "-12",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in), in)
	}
}

func TestNonEmpty(t *testing.T) {
	assert.Equal(t, "x", nonEmpty("x", "y"))
	assert.Equal(t, "y", nonEmpty("", "y"))
}
