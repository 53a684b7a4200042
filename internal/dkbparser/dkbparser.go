// Package dkbparser parses the raw DKB credit card export and
// converts it to the internal transaction model. The export is
// latin1-encoded, semicolon-separated and carries a fixed-length
// preamble of account metadata before the data rows.
package dkbparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"fjacquet/dkb-qif/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

const (
	// preamble length (non-data header lines), including the column
	// header line
	skipLines = 8

	// minimum field count for a line to be a transaction row
	requiredFields = 5

	// column positions in a data row
	colBookingDate = 1
	colValutaDate  = 2
	colDescription = 3
	colValue       = 4
	colInfo        = 5

	// preamble marker used for format validation
	formatMarker = "Kreditkarte"
)

// Parse converts the raw export bytes into transactions. Rows with
// fewer than five fields are ignored, as are rows with an empty
// valuta date: those are pending, not yet posted entries and are
// intentionally excluded from the output.
func Parse(data []byte) ([]models.Transaction, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding export: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for i := 0; i < skipLines; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("export shorter than its %d preamble lines: %w", skipLines, err)
		}
	}

	var transactions []models.Transaction
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading export row: %w", err)
		}
		if len(fields) < requiredFields {
			continue
		}
		if fields[colValutaDate] == "" {
			// pending entry, not yet posted
			continue
		}

		amount, err := models.ParseAmount(fields[colValue])
		if err != nil {
			log.WithError(err).WithField("value", fields[colValue]).Warn("Skipping row with unparseable amount")
			continue
		}

		tx := models.Transaction{
			BookingDate: fields[colBookingDate],
			ValutaDate:  fields[colValutaDate],
			Description: strings.TrimSpace(fields[colDescription]),
			Amount:      amount,
		}
		if len(fields) > colInfo {
			tx.Info = strings.TrimSpace(fields[colInfo])
		}
		transactions = append(transactions, tx)
	}

	log.WithField("count", len(transactions)).Info("Parsed DKB export")
	return transactions, nil
}

// ParseFile reads and parses an export previously saved to disk.
func ParseFile(filePath string) ([]models.Transaction, error) {
	log.WithField("file", filePath).Info("Parsing DKB export file")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading export file: %w", err)
	}
	return Parse(data)
}

// ValidateFormat checks whether the file looks like a DKB credit card
// export: a latin1 CSV whose preamble names the card.
func ValidateFormat(filePath string) (bool, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("error opening file for validation: %w", err)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return false, nil
	}

	lines := strings.Split(string(decoded), "\n")
	if len(lines) <= skipLines {
		return false, nil
	}
	preamble := strings.Join(lines[:skipLines], "\n")
	return strings.Contains(preamble, formatMarker), nil
}
