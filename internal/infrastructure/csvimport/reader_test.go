package csvimport

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

func collect(t *testing.T, data string, opts Options) ([]Row, []*RowError) {
	t.Helper()
	var rows []Row
	rowErrs, err := Read(strings.NewReader(data), opts, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	return rows, rowErrs
}

func TestRead_ParsesRows(t *testing.T) {
	data := "product_id,kind,subtype,quantity,unit_cost,document_number,lot,expires_at\n" +
		"P1,entry,purchase,25,\"1.234,50\",FC-1,L-01,2026-12-31\n" +
		"\n" +
		"P1,EXIT,SALE,10,,,,\n"

	rows, rowErrs := collect(t, data, Options{UserID: "importador"})
	require.Empty(t, rowErrs)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, entity.MovementKindENTRY, first.Input.Kind)
	assert.Equal(t, entity.EntryPurchase, first.Input.Subtype)
	assert.Equal(t, int64(25), first.Input.Quantity)
	require.NotNil(t, first.Input.UnitCost)
	assert.Equal(t, "1234.5", first.Input.UnitCost.String())
	assert.Equal(t, "L-01", first.Input.Lot)
	require.NotNil(t, first.Input.ExpiresAt)
	assert.Equal(t, 2026, first.Input.ExpiresAt.Year())
	assert.Equal(t, "importador", first.Input.UserID)

	assert.Equal(t, 4, rows[1].Line)
	assert.Nil(t, rows[1].Input.UnitCost)
	assert.Nil(t, rows[1].Input.ExpiresAt)
}

func TestRead_CollectsRowErrors(t *testing.T) {
	data := "product_id,kind,subtype,quantity,unit_cost,expires_at\n" +
		"P1,ENTRY,PURCHASE,abc,,\n" +
		",ENTRY,PURCHASE,1,,\n" +
		"P1,ENTRY,PURCHASE,1,-5,\n" +
		"P1,ENTRY,PURCHASE,1,,31/12/2026\n" +
		"P2,ENTRY,PURCHASE,3,,\n"

	rows, rowErrs := collect(t, data, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "P2", rows[0].Input.ProductID)
	require.Len(t, rowErrs, 4)
	for i, re := range rowErrs {
		assert.Equal(t, i+2, re.Line)
		assert.ErrorIs(t, re, domain.ErrInvalidInput)
	}
}

func TestRead_MissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("product_id,kind,quantity\nP1,ENTRY,1\n"), Options{}, func(Row) error { return nil })
	assert.ErrorContains(t, err, "subtype")
}

func TestRead_StopsOnCallbackError(t *testing.T) {
	data := "product_id,kind,subtype,quantity\nP1,ENTRY,PURCHASE,1\nP1,ENTRY,PURCHASE,2\n"
	boom := errors.New("fallo")
	calls := 0
	_, err := Read(strings.NewReader(data), Options{}, func(Row) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRead_Latin1AndSemicolon(t *testing.T) {
	utf := "product_id;kind;subtype;quantity;notes\nP1;ENTRY;PURCHASE;4;Devolución de año\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(utf)
	require.NoError(t, err)

	rows, rowErrs := collect(t, encoded, Options{Charset: "latin1", Comma: ';'})
	require.Empty(t, rowErrs)
	require.Len(t, rows, 1)
	assert.Equal(t, "Devolución de año", rows[0].Input.Notes)
}

func TestDecoder_Unsupported(t *testing.T) {
	_, err := Decoder(bytes.NewReader(nil), "ebcdic")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	for raw, want := range map[string]string{
		"1234.50":  "1234.5",
		"1234,50":  "1234.5",
		"1.234,50": "1234.5",
		"7":        "7",
	} {
		got, err := parseAmount(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.String(), raw)
	}
}
