// Package qif emits transactions in the QIF interchange format
// consumed by personal finance software such as GnuCash.
//
// The output is a header block naming the account, followed by one
// block per transaction:
//
//	!Account
//	NVISA
//	^
//	!Type:Bank
//	D03/02/2021
//	T-4.50
//	MCoffee Shop
//	^
//
// Dates are rewritten from the German day-first form to QIF's
// month-first form; amounts keep their exact sign and scale.
package qif

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/dkb-qif/internal/dateutils"
	"fjacquet/dkb-qif/internal/models"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// DefaultAccountName is used when the caller does not name the
// account in the finance software.
const DefaultAccountName = "VISA"

// Options controls the QIF output.
type Options struct {
	// AccountName is the QIF-internal account name.
	AccountName string

	// Category, if set, is attached to every record. There is no
	// per-record categorization; this is the extension point where a
	// guessing algorithm could plug in later.
	Category string
}

// Write emits the account header followed by one record block per
// transaction, in input order, as a single pass over the slice.
func Write(w io.Writer, opts Options, transactions []models.Transaction) error {
	name := opts.AccountName
	if name == "" {
		name = DefaultAccountName
	}

	out := bufio.NewWriter(w)
	writeLine := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	writeLine("!Account")
	writeLine("N%s", name)
	writeLine("^")
	writeLine("!Type:Bank")

	for _, tx := range transactions {
		writeLine("D%s", recordDate(tx))
		writeLine("T%s", models.FormatAmount(tx.Amount))
		writeLine("M%s", tx.Description)
		if tx.Info != "" {
			writeLine("M%s", tx.Info)
		}
		if category := recordCategory(tx, opts); category != "" {
			writeLine("L%s", category)
		}
		writeLine("^")
	}

	return out.Flush()
}

// WriteFile writes the QIF rendition of the transactions to the given
// path, creating parent directories as needed.
func WriteFile(path string, opts Options, transactions []models.Transaction) error {
	log.WithFields(logrus.Fields{
		"file":  path,
		"count": len(transactions),
	}).Info("Writing QIF file")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	file, err := os.Create(path) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return fmt.Errorf("error creating QIF file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	return Write(file, opts, transactions)
}

// recordDate prefers the valuta date when it carries a German-style
// date and falls back to the booking date otherwise.
func recordDate(tx models.Transaction) string {
	if dateutils.IsDayMonthYear(tx.ValutaDate) {
		return dateutils.ToMonthDayYear(tx.ValutaDate)
	}
	return dateutils.ToMonthDayYear(tx.BookingDate)
}

func recordCategory(tx models.Transaction, opts Options) string {
	if tx.Category != "" {
		return tx.Category
	}
	return opts.Category
}
