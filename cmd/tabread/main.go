package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"

	"github.com/relospace/tabread/internal/config"
	"github.com/relospace/tabread/internal/reader"
	"github.com/relospace/tabread/internal/record"
	"github.com/relospace/tabread/internal/sqlbridge"

	// Drivers selectable via database.driver in the config file.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func main() {
	var (
		cfgPath     = flag.String("config", "tabread.yaml", "config file path")
		query       = flag.String("c", "", "query override (defaults to database.query from config)")
		limit       = flag.Int("limit", -1, "preview row cap; negative reads the full result")
		interactive = flag.Bool("i", false, "interactive mode")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Log.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Error("open database", "driver", cfg.Database.Driver, "err", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *interactive {
		runInteractive(ctx, db, cfg, log)
		return
	}

	q := cfg.Database.Query
	if strings.TrimSpace(*query) != "" {
		q = *query
	}
	if strings.TrimSpace(q) == "" {
		fmt.Fprintln(os.Stderr, "no query: set database.query in config or pass -c")
		os.Exit(1)
	}

	rowCap := *limit
	if !flagPassed("limit") && cfg.Preview.MaxRows > 0 {
		rowCap = cfg.Preview.MaxRows
	}

	r := reader.NewWithLogger(&sqlbridge.Descriptor{DB: db, SQL: q}, log)
	defer func() { _ = r.Close() }()

	if err := runQuery(ctx, r, rowCap); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

func runQuery(ctx context.Context, r *reader.Reader, limit int) error {
	table, err := r.SnapshotRows(ctx, limit)
	if err != nil {
		return err
	}
	render(table)
	return nil
}

func render(t *record.Table) {
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader(t.Schema.ColumnNames())
	w.SetAutoFormatHeaders(false)
	w.SetBorder(false)

	rows := make([][]string, 0, t.NumRows())
	for _, row := range t.Rows {
		out := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			out[i] = c.String()
		}
		rows = append(rows, out)
	}
	w.AppendBulk(rows)
	w.Render()

	if t.NumRows() == 1 {
		fmt.Println("(1 row)")
	} else {
		fmt.Printf("(%d rows)\n", t.NumRows())
	}
}

// statementComplete checks for a terminating ';' outside single quotes.
func statementComplete(buf string) bool {
	inQuote := false
	escaped := false
	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return true
			}
		}
	}
	return false
}

func runInteractive(ctx context.Context, db *sql.DB, cfg *config.Config, log *slog.Logger) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tabread> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("connected via %s\n", cfg.Database.Driver)
	fmt.Println("end statements with ';', \\q to quit")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt("tabread> ")
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "\\q" || line == "quit" || line == "exit" {
			return
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)
		if !statementComplete(buf.String()) {
			rl.SetPrompt("...> ")
			continue
		}

		stmt := strings.TrimSuffix(strings.TrimSpace(buf.String()), ";")
		buf.Reset()
		rl.SetPrompt("tabread> ")
		_ = rl.SaveHistory(stmt)

		r := reader.NewWithLogger(&sqlbridge.Descriptor{DB: db, SQL: stmt}, log)
		if err := runQuery(ctx, r, cfg.Preview.MaxRows); err != nil {
			fmt.Printf("error: %v\n", err)
		}
		_ = r.Close()
	}
}
