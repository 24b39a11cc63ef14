// Command vaultctl is the operator tool for a vaultboard deployment.
//
// Usage:
//
//	vaultctl migrate
//	vaultctl signup -email alice@example.com -name Alice -role member
//	vaultctl sweep [-horizon 14] [-metrics-file path]
//	vaultctl keygen
//
// Server configuration (-c/-config, VAULTBOARD_* variables and the server
// short flags) is honoured by every command that touches the database.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/expiry"
	"github.com/ShubhamGupta2412/vaultboard/internal/flagx"
	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/config"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/metrics"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/repomanager"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/services"
	"github.com/ShubhamGupta2412/vaultboard/internal/timex"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"
)

const keyBytes = 32

var errUsage = errors.New("usage: vaultctl <migrate|signup|sweep|keygen> [flags]")

// Seams for tests.
var (
	openDB         = repomanager.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
	isTerminal     = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	clock          = timex.UTCNow
	lookupEnv      = os.LookupEnv
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "vaultctl:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "keygen":
		return keygen(stdout)
	case "migrate":
		return withDB(ctx, rest, stderr, func(ctx context.Context, cfg *config.Config, db *sql.DB, log logging.Logger) error {
			return migrate(ctx, db, log)
		})
	case "signup":
		return withDB(ctx, rest, stderr, func(ctx context.Context, cfg *config.Config, db *sql.DB, log logging.Logger) error {
			return signup(ctx, cfg, db, log, rest, stdout, stderr)
		})
	case "sweep":
		return withDB(ctx, rest, stderr, func(ctx context.Context, cfg *config.Config, db *sql.DB, log logging.Logger) error {
			return sweep(ctx, db, log, rest, stdout, stderr)
		})
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

type dbCommand func(ctx context.Context, cfg *config.Config, db *sql.DB, log logging.Logger) error

func withDB(ctx context.Context, args []string, stderr io.Writer, fn dbCommand) error {
	cfg, err := config.Load(args, lookupEnv)
	if err != nil {
		return err
	}
	log := logging.NewJSONLogger(stderr, cfg.LogLevel)

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, cfg, db, log)
}

func keygen(w io.Writer) error {
	secret, err := common.MakeRandSecret(keyBytes)
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	_, err = fmt.Fprintln(w, secret)
	return err
}

func migrate(ctx context.Context, db *sql.DB, log logging.Logger) error {
	if err := newRepoManager().RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info(ctx, "migrations applied")
	return nil
}

func signup(ctx context.Context, cfg *config.Config, db *sql.DB, log logging.Logger, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "principal email")
	name := fs.String("name", "", "display name (defaults to the email local part)")
	role := fs.String("role", "", "viewer, member, manager or admin")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "-name", "-role"})); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *email == "" || *role == "" {
		return fmt.Errorf("%w: signup requires -email and -role", errUsage)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ps := services.NewPrincipalService(db, newRepoManager(), cfg, log)
	res, err := ps.Signup(ctx, *email, *name, *role)
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}

	_, err = fmt.Fprintf(stdout, "id: %s\nrole: %s\naccess_token: %s\n", res.Principal.ID, res.Principal.Role, res.AccessToken)
	return err
}

func sweep(ctx context.Context, db *sql.DB, log logging.Logger, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	horizon := fs.Int("horizon", expiry.SweepHorizonDays, "days ahead to flag")
	metricsFile := fs.String("metrics-file", "", "write flagged counts in Prometheus textfile format")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-horizon", "-metrics-file"})); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sw := expiry.NewSweeper(newRepoManager().Entries(db), log,
		expiry.WithHorizon(*horizon),
		expiry.WithObserver(func(st expiry.Status, n int) { m.SetExpiryFlagged(string(st), n) }),
	)
	rep, err := sw.Run(ctx, clock())
	if err != nil {
		return err
	}

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics file: %w", err)
		}
	}
	return writeReport(stdout, rep, isTerminal())
}

// writeReport prints rep as an aligned table for humans or as JSON for
// pipelines.
func writeReport(w io.Writer, rep *expiry.Report, table bool) error {
	if !table {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tDAYS\tEXPIRES\tENTRY\tCLASSIFICATION\tTITLE")
	for _, st := range expiry.Statuses {
		for _, it := range rep.Groups[st] {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
				it.Status, it.DaysLeft, it.ExpirationDate.Format(time.DateOnly), it.EntryID, it.Classification, it.Title)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d entries flagged within %d days (as of %s)\n",
		rep.Total, rep.HorizonDays, rep.RanAt.Format(time.RFC3339))
	return err
}
