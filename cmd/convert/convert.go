// Package convert handles offline DKB CSV export file processing commands
package convert

import (
	"os"

	"fjacquet/dkb-qif/cmd/root"
	"fjacquet/dkb-qif/internal/common"
	"fjacquet/dkb-qif/internal/dkbparser"
	"fjacquet/dkb-qif/internal/fileutils"
	"fjacquet/dkb-qif/internal/qif"

	"github.com/spf13/cobra"
)

var (
	qifAccount string
	category   string
	validate   bool
	tableFile  string
)

// Cmd represents the convert command
var Cmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a downloaded DKB CSV export to QIF",
	Long: `Convert a DKB credit card CSV export that was saved earlier
(for example with fetch --raw) to the QIF format.`,
	Run: convertFunc,
}

func init() {
	Cmd.Flags().StringVar(&qifAccount, "qif-account", "", "Account name used in the QIF output")
	Cmd.Flags().StringVar(&category, "category", "", "Category attached to every QIF record")
	Cmd.Flags().BoolVar(&validate, "validate", false, "Validate file format before conversion")
	Cmd.Flags().StringVar(&tableFile, "table", "", "Also write the parsed transactions as a CSV table")
}

func convertFunc(cmd *cobra.Command, args []string) {
	root.Log.Info("Convert command called")
	root.Log.Infof("Input file: %s", root.SharedFlags.Input)
	root.Log.Infof("Output file: %s", root.SharedFlags.Output)

	input := root.SharedFlags.Input
	if input == "" {
		root.Log.Fatal("No input file given, use --input")
	}
	if !fileutils.FileExists(input) {
		root.Log.Fatalf("Input file does not exist: %s", input)
	}

	if validate {
		ok, err := dkbparser.ValidateFormat(input)
		if err != nil {
			root.Log.Fatalf("Error validating input file: %v", err)
		}
		if !ok {
			root.Log.Fatalf("Input file is not a DKB credit card export: %s", input)
		}
	}

	transactions, err := dkbparser.ParseFile(input)
	if err != nil {
		root.Log.Fatalf("Error parsing DKB CSV file: %v", err)
	}
	root.Log.WithField("count", len(transactions)).Info("Parsed transactions")

	if tableFile != "" {
		if err := common.WriteTransactionsToCSV(transactions, tableFile); err != nil {
			root.Log.Fatalf("Error writing CSV table: %v", err)
		}
	}

	opts := qif.Options{AccountName: qifAccount, Category: category}
	output := root.SharedFlags.Output
	if output == "" || output == "-" {
		if err := qif.Write(os.Stdout, opts, transactions); err != nil {
			root.Log.Fatalf("Error writing QIF output: %v", err)
		}
		return
	}
	if err := qif.WriteFile(output, opts, transactions); err != nil {
		root.Log.Fatalf("Error writing QIF file: %v", err)
	}
	root.Log.Info("DKB CSV to QIF conversion completed successfully!")
}
