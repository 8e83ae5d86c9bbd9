// Package data reads product catalogs from CSV and embeds a sample catalog
// for bootstrapping a fresh store.
package data

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"kairos/ent"
)

// SampleCatalog is the file name of the embedded sample catalog in FS.
const SampleCatalog = "catalog.csv"

//go:embed catalog.csv
var FS embed.FS

const catalogFields = 5

// ReadCatalog parses rows of name, barcode, price, quantity and price per kg.
// A first row starting with "name" is taken as a header. Empty barcode,
// quantity and price per kg cells mean none, zero and not weighable.
func ReadCatalog(r io.Reader) ([]ent.ProductInput, error) {
	cr := csv.NewReader(r)

	cr.FieldsPerRecord = catalogFields
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var (
		ins  []ent.ProductInput
		line int
	)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
			continue
		}

		in, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ins = append(ins, in)
	}

	return ins, nil
}

func parseRecord(rec []string) (ent.ProductInput, error) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}

	in := ent.ProductInput{Name: rec[0], Barcode: rec[1]}

	price, err := decimal.NewFromString(rec[2])
	if err != nil {
		return in, fmt.Errorf("parse price: %w", err)
	}
	in.Price = price

	if rec[3] != "" {
		in.Quantity, err = strconv.ParseInt(rec[3], 10, 64)
		if err != nil {
			return in, fmt.Errorf("parse quantity: %w", err)
		}
	}

	if rec[4] != "" {
		in.PricePerKg, err = decimal.NewFromString(rec[4])
		if err != nil {
			return in, fmt.Errorf("parse price per kg: %w", err)
		}
	}

	return in, nil
}
