// Package csvimport lee planillas de movimientos de kardex exportadas desde hojas de cálculo
// o sistemas anteriores y las convierte en entradas para el Ledger.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
)

// Columnas reconocidas en la cabecera (sin distinguir mayúsculas).
const (
	ColProductID      = "product_id"
	ColKind           = "kind"
	ColSubtype        = "subtype"
	ColQuantity       = "quantity"
	ColUnitCost       = "unit_cost"
	ColDocumentNumber = "document_number"
	ColSupplierID     = "supplier_id"
	ColLot            = "lot"
	ColExpiresAt      = "expires_at"
	ColNotes          = "notes"
)

const dateLayout = "2006-01-02"

var required = []string{ColProductID, ColKind, ColSubtype, ColQuantity}

// Options configuración de lectura.
type Options struct {
	// Charset utf-8 (default), latin1 / iso-8859-1 o windows-1252.
	Charset string
	// Comma separador de campos; 0 usa ','.
	Comma rune
	// UserID usuario que queda registrado en cada movimiento.
	UserID string
}

// Row fila convertida, con su número de línea en el archivo (la cabecera es la línea 1).
type Row struct {
	Line  int
	Input inventory.AppendInput
}

// RowError error de conversión de una fila.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("línea %d: %v", e.Line, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Decoder devuelve un reader que transcodifica a UTF-8 según el charset declarado.
func Decoder(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %s", charset)
	}
}

// Read recorre el CSV y llama fn por cada fila válida. Las filas que no se pueden convertir
// se acumulan como *RowError y no detienen la lectura; un error de fn sí la detiene.
func Read(r io.Reader, opts Options, fn func(Row) error) ([]*RowError, error) {
	in, err := Decoder(r, opts.Charset)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(in)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("archivo vacío")
		}
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	var rowErrs []*RowError
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		if blank(rec) {
			continue
		}
		input, err := parseRecord(rec, cols, opts.UserID)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		if err := fn(Row{Line: line, Input: input}); err != nil {
			return rowErrs, err
		}
	}
	return rowErrs, nil
}

func parseRecord(rec []string, cols map[string]int, userID string) (inventory.AppendInput, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	in := inventory.AppendInput{
		ProductID:      get(ColProductID),
		Kind:           strings.ToUpper(get(ColKind)),
		Subtype:        strings.ToUpper(get(ColSubtype)),
		DocumentNumber: get(ColDocumentNumber),
		SupplierID:     get(ColSupplierID),
		Lot:            get(ColLot),
		Notes:          get(ColNotes),
		UserID:         userID,
	}
	if in.ProductID == "" {
		return in, fmt.Errorf("%w: product_id vacío", domain.ErrInvalidInput)
	}

	qty, err := strconv.ParseInt(get(ColQuantity), 10, 64)
	if err != nil || qty <= 0 {
		return in, fmt.Errorf("%w: cantidad %q", domain.ErrInvalidInput, get(ColQuantity))
	}
	in.Quantity = qty

	if raw := get(ColUnitCost); raw != "" {
		cost, err := parseAmount(raw)
		if err != nil || cost.IsNegative() {
			return in, fmt.Errorf("%w: costo unitario %q", domain.ErrInvalidInput, raw)
		}
		in.UnitCost = &cost
	}
	if raw := get(ColExpiresAt); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return in, fmt.Errorf("%w: vencimiento %q", domain.ErrInvalidInput, raw)
		}
		in.ExpiresAt = &t
	}
	return in, nil
}

// parseAmount acepta "1234.50", "1234,50" y "1.234,50".
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(raw, " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
