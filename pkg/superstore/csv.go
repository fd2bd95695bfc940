package superstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingColumn   = errors.New("missing column")
	ErrUnsupportedDate = errors.New("unsupported date format")
)

// DateLayouts are tried in order. Day-first wins when a date is ambiguous.
var DateLayouts = []string{
	"02/01/2006", // dd/MM/yyyy
	"02-01-2006", // dd-MM-yyyy
	"01/02/2006", // MM/dd/yyyy
	"1/02/2006",  // M/dd/yyyy
}

// ParseDate parses s with the first matching layout in DateLayouts. The
// result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedDate, s)
}

// Reader decodes records from a superstore CSV export. Headers are matched
// case-insensitively and every value is trimmed.
type Reader struct {
	r     *csv.Reader
	index map[string]int
	line  int
}

// NewReader reads the header row and checks that every column is present.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		index[headerKey(h)] = i
	}
	for _, col := range Columns {
		if _, ok := index[headerKey(col)]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	return &Reader{r: cr, index: index, line: 1}, nil
}

func headerKey(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() (Record, error) {
	row, err := r.r.Read()
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read CSV row: %w", err)
	}
	r.line++

	f := fields{row: row, index: r.index}
	rec := Record{
		OrderID:      f.str(ColOrderID),
		ShipMode:     f.str(ColShipMode),
		CustomerID:   f.str(ColCustomerID),
		CustomerName: f.str(ColCustomerName),
		Segment:      f.str(ColSegment),
		Country:      f.str(ColCountry),
		City:         f.str(ColCity),
		State:        f.str(ColState),
		PostalCode:   f.str(ColPostalCode),
		Region:       f.str(ColRegion),
		ProductID:    f.str(ColProductID),
		Category:     f.str(ColCategory),
		SubCategory:  f.str(ColSubCategory),
		ProductName:  f.str(ColProductName),
	}
	rec.RowID = f.integer(ColRowID)
	rec.OrderDate = f.date(ColOrderDate)
	rec.ShipDate = f.date(ColShipDate)
	rec.Sales = f.number(ColSales)
	rec.Quantity = f.integer(ColQuantity)
	rec.Discount = f.number(ColDiscount)
	rec.Profit = f.number(ColProfit)

	if f.err != nil {
		return Record{}, fmt.Errorf("line %d: %w", r.line, f.err)
	}
	return rec, nil
}

// ReadAll decodes every record. Nothing is returned if any row is invalid.
func ReadAll(r io.Reader) ([]Record, error) {
	cr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	var records []Record
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// fields extracts typed values from one row and keeps the first error.
type fields struct {
	row   []string
	index map[string]int
	err   error
}

func (f *fields) str(col string) string {
	i := f.index[headerKey(col)]
	if i >= len(f.row) {
		return ""
	}
	return strings.TrimSpace(f.row[i])
}

func (f *fields) integer(col string) int32 {
	v := f.str(col)
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		f.fail(col, err)
	}
	return int32(n)
}

func (f *fields) number(col string) float64 {
	v := f.str(col)
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.fail(col, err)
	}
	return n
}

func (f *fields) date(col string) time.Time {
	t, err := ParseDate(f.str(col))
	if err != nil {
		f.fail(col, err)
	}
	return t
}

func (f *fields) fail(col string, err error) {
	if f.err == nil {
		f.err = fmt.Errorf("column %q: %w", col, err)
	}
}
