// Package fetch handles the online banking download command
package fetch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"fjacquet/dkb-qif/cmd/root"
	"fjacquet/dkb-qif/internal/config"
	"fjacquet/dkb-qif/internal/dateutils"
	"fjacquet/dkb-qif/internal/dkbparser"
	"fjacquet/dkb-qif/internal/fileutils"
	"fjacquet/dkb-qif/internal/navigator"
	"fjacquet/dkb-qif/internal/qif"
	"fjacquet/dkb-qif/internal/scraper"
	"fjacquet/dkb-qif/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	userID      string
	cardID      string
	fromDate    string
	toDate      string
	qifAccount  string
	category    string
	sessionFile string
	raw         bool
)

// Cmd represents the fetch command
var Cmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download DKB Visa transactions and convert them to QIF",
	Long: `Log into the DKB online banking site, download the credit card
transactions of the given date range as CSV, and convert them to QIF.

The banking PIN is read from the DKB_PIN environment variable if set,
otherwise it is prompted for. If the account asks for a one-time code,
the code is prompted for on the terminal.`,
	Run: fetchFunc,
}

func init() {
	Cmd.Flags().StringVarP(&userID, "userid", "u", "", "DKB online banking user id")
	Cmd.Flags().StringVarP(&cardID, "cardid", "c", "", "Last digits of the card or account number")
	Cmd.Flags().StringVar(&fromDate, "from-date", "", "Start of the date range (DD.MM.YYYY)")
	Cmd.Flags().StringVar(&toDate, "to-date", "", "End of the date range (DD.MM.YYYY, default today)")
	Cmd.Flags().StringVar(&qifAccount, "qif-account", "", "Account name used in the QIF output")
	Cmd.Flags().StringVar(&category, "category", "", "Category attached to every QIF record")
	Cmd.Flags().StringVar(&sessionFile, "session-file", "", "Path of the persisted session file")
	Cmd.Flags().BoolVar(&raw, "raw", false, "Write the downloaded CSV unchanged instead of QIF")
}

func fetchFunc(cmd *cobra.Command, args []string) {
	if err := run(cmd.Context()); err != nil {
		root.Log.Fatalf("Error fetching transactions: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg := config.GetGlobalConfig()
	applyConfigDefaults(cfg)

	if userID == "" {
		return fmt.Errorf("no user id given, use --userid or DKB_USERID")
	}
	if cardID == "" {
		return fmt.Errorf("no card given, use --cardid")
	}

	from, err := dateutils.ParseGermanDate(fromDate)
	if err != nil {
		return fmt.Errorf("invalid --from-date: %w", err)
	}
	to, err := dateutils.ParseGermanDate(toDate)
	if err != nil {
		return fmt.Errorf("invalid --to-date: %w", err)
	}

	nav, err := navigator.NewClient(cfg.Banking.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to create browser client: %w", err)
	}

	var store *session.Store
	if sessionFile != "" {
		store = session.NewStore(sessionFile)
	}

	s, err := scraper.New(scraper.Options{
		Navigator:    nav,
		Store:        store,
		CodeSource:   promptCode,
		BaseURL:      cfg.Banking.BaseURL,
		PollInterval: cfg.PollInterval(),
		PollAttempts: cfg.Banking.PollAttempts,
	})
	if err != nil {
		return err
	}

	creds := scraper.Credentials{
		UserID: userID,
		Secret: resolvePIN(cfg),
	}

	if err := s.Login(ctx, creds); err != nil {
		return err
	}
	defer func() {
		if err := s.Close(ctx); err != nil {
			root.Log.WithError(err).Warn("Failed to close banking session")
		}
	}()

	if err := s.OpenTransactionsOverview(ctx); err != nil {
		return err
	}
	if err := s.SelectTransactions(ctx, cardID, from, to); err != nil {
		return err
	}
	data, err := s.ExportCSV(ctx)
	if err != nil {
		return err
	}

	if raw {
		return writeRaw(data)
	}

	transactions, err := dkbparser.Parse(data)
	if err != nil {
		return err
	}
	root.Log.WithField("count", len(transactions)).Info("Downloaded transactions")

	opts := qif.Options{AccountName: qifAccount, Category: category}
	output := root.SharedFlags.Output
	if output == "" || output == "-" {
		return qif.Write(os.Stdout, opts, transactions)
	}
	return qif.WriteFile(output, opts, transactions)
}

// applyConfigDefaults fills unset flags from the configuration so that
// command line values always win.
func applyConfigDefaults(cfg *config.Config) {
	if userID == "" {
		userID = cfg.Banking.UserID
	}
	if sessionFile == "" {
		sessionFile = cfg.Banking.SessionFile
	}
	if qifAccount == "" {
		qifAccount = cfg.QIF.AccountName
	}
	if category == "" {
		category = cfg.QIF.Category
	}
	if toDate == "" {
		toDate = dateutils.Today()
	}
}

func writeRaw(data []byte) error {
	output := root.SharedFlags.Output
	if output == "" || output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return fileutils.WriteFile(output, data, 0600)
}

// resolvePIN prefers the configured PIN and falls back to a hidden
// terminal prompt. The prompt only happens once the login form is
// actually reached.
func resolvePIN(cfg *config.Config) func() (string, error) {
	return func() (string, error) {
		if cfg.Banking.PIN != "" {
			return cfg.Banking.PIN, nil
		}
		fmt.Fprint(os.Stderr, "PIN: ")
		pin, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read PIN: %w", err)
		}
		return string(pin), nil
	}
}

// promptCode reads the one-time code from the terminal. The startcode
// shown by the banking site has already been logged at this point.
func promptCode() (string, error) {
	fmt.Fprint(os.Stderr, "One-time code: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read one-time code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("empty one-time code")
	}
	return code, nil
}
