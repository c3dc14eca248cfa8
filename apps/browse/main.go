package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/datagrid/core"
	"github.com/trezcool/datagrid/core/grid"
	"github.com/trezcool/datagrid/core/product"
	logsvc "github.com/trezcool/datagrid/services/logger"
	"github.com/trezcool/datagrid/storage/database"
	sqlxrepos "github.com/trezcool/datagrid/storage/database/sqlx"
)

var isTerminalFunc = term.IsTerminal // mockable

type options struct {
	url         string
	bestsellers bool
	local       bool
	pageSize    int
	from        time.Time
	to          time.Time
	logPath     string
}

func parseFlags(args []string, conf *core.Config, output io.Writer) (options, error) {
	var (
		opts     options
		from, to string
	)
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.url, "url", "", "Row source url. Defaults to the products endpoint of grid.backendURL.")
	fs.BoolVar(&opts.bestsellers, "bestsellers", false, "Browse the bestsellers instead of all products.")
	fs.BoolVar(&opts.local, "local", false, "Read straight from the database instead of the API.")
	fs.IntVar(&opts.pageSize, "page-size", conf.Grid.PageSize, "Rows per page.")
	fs.StringVar(&from, "from", "", "Only products created from this date (2006-01-02 or RFC3339).")
	fs.StringVar(&to, "to", "", "Only products created until this date (2006-01-02 or RFC3339).")
	fs.StringVar(&opts.logPath, "log", "", "Write logs to this file.")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.pageSize < 1 || opts.pageSize > product.MaxLimit {
		return opts, errors.Errorf("-page-size must be between 1 and %d", product.MaxLimit)
	}

	var err error
	if opts.from, err = parseDate(from); err != nil {
		return opts, errors.Wrap(err, "parsing -from")
	}
	if opts.to, err = parseDate(to); err != nil {
		return opts, errors.Wrap(err, "parsing -to")
	}
	if opts.url == "" {
		path := "/api/rest/products"
		if opts.bestsellers {
			path = "/api/dashboard/bestsellers"
		}
		opts.url = strings.TrimSuffix(conf.Grid.BackendURL, "/") + path
	}
	return opts, nil
}

func parseDate(s string) (time.Time, error) {
	s = core.CleanString(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// newLoader returns the row source and a func releasing it.
func newLoader(opts options, conf *core.Config) (grid.Loader, func() error, error) {
	if opts.local {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, err
		}
		svc := product.NewService(sqlxrepos.NewProductRepository(db))
		return svc.Loader(opts.bestsellers), db.Close, nil
	}

	loader, err := grid.NewHTTPLoader(opts.url,
		grid.WithHTTPClient(&http.Client{Timeout: conf.Grid.HTTPTimeout}),
		grid.WithMaxLimit(product.MaxLimit),
	)
	if err != nil {
		return nil, nil, err
	}
	return loader, func() error { return nil }, nil
}

func newGrid(loader grid.Loader, opts options, conf *core.Config, mount grid.Mount, logger core.Logger) (*grid.Grid, error) {
	gridOpts := []grid.Option{
		grid.WithLoader(loader),
		grid.WithPageSize(opts.pageSize),
		grid.WithRange(grid.Range{From: opts.from, To: opts.to}),
		grid.WithLogger(logger),
		grid.WithSortOptions(grid.WithLocales(grid.ParseLocales(conf.Grid.Locales...)...)),
	}
	if opts.bestsellers {
		gridOpts = append(gridOpts, grid.WithSort("sales", grid.Descending))
	}
	return grid.New(product.Schema(), mount, gridOpts...)
}

// printPlain prints the first page and returns.
func printPlain(g *grid.Grid, w io.Writer, pageSize int) error {
	events := make(chan grid.Event, 1)
	sub := g.Subscribe(func(ev grid.Event) {
		if ev.Kind == grid.SortChanged {
			return
		}
		select {
		case events <- ev:
		default:
		}
	})
	defer sub.Close()

	g.Start()
	ev := <-events
	if ev.Kind == grid.LoadFailed {
		return ev.Err
	}

	status := grid.Status{Kind: grid.StatusIdle, Total: len(ev.Rows), Exhausted: len(ev.Rows) < pageSize}
	if len(ev.Rows) == 0 {
		status.Kind = grid.StatusEmpty
	}
	t := newTable(frame{schema: g.Schema(), sort: ev.Sort, rows: ev.Rows, status: status}, true)
	fmt.Fprintln(w, strings.TrimRight(t.header(-1), " "))
	for i := range t.rows {
		fmt.Fprintln(w, strings.TrimRight(t.row(i, false), " "))
	}
	fmt.Fprintln(w, t.statusLine())
	return nil
}

func newLogger(conf *core.Config, path string) (core.Logger, func() error, error) {
	var out io.Writer = io.Discard
	closeLog := func() error { return nil }
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening log file")
		}
		out, closeLog = f, f.Close
	}
	logger := logsvc.NewRollbarLogger(log.New(out, "GRID : ", log.LstdFlags|log.Lmicroseconds), conf)
	logger.Enable(!conf.Debug)
	return logger, closeLog, nil
}

func run(args []string, stdout io.Writer) error {
	conf := core.NewConfig()
	opts, err := parseFlags(args, conf, stdout)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(conf, opts.logPath)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	loader, closeLoader, err := newLoader(opts, conf)
	if err != nil {
		return errors.Wrap(err, "setting up row source")
	}
	defer func() {
		if err := closeLoader(); err != nil {
			logger.Error(fmt.Sprintf("closing row source: %v", err), err)
		}
	}()

	mount := newTUIMount()
	g, err := newGrid(loader, opts, conf, mount, logger)
	if err != nil {
		return err
	}
	defer g.Destroy()

	if f, ok := stdout.(*os.File); !ok || !isTerminalFunc(int(f.Fd())) {
		return printPlain(g, stdout, opts.pageSize)
	}

	p := tea.NewProgram(newModel(g, mount, conf.Grid.ScrollThreshold), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
