package main

import (
	"bufio"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/trezcool/datagrid/core/product"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")

	// migrate commands that lose data
	destructiveCmds = map[string]bool{"down": true, "down-to": true, "reset": true}
)

type commandLine struct {
	db     *sql.DB
	svc    *product.Service
	stdin  io.Reader
	stdout io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.stdout, "Usage:")
	fmt.Fprintln(cli.stdout, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, redo, ...) against the embedded migrations")
	fmt.Fprintln(cli.stdout, "  seed [-count N] [-days D] - create N random products, created within the last D days")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedCmd.SetOutput(cli.stdout)
	seedCount := seedCmd.Int("count", 100, "The number of products to create.")
	seedDays := seedCmd.Int("days", 30, "Products are created within this many last days.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if destructiveCmds[args[2]] && !cli.confirm(fmt.Sprintf("migrate %s may lose data, continue? [y/N] ", args[2])) {
			return errAborted
		}
		return cli.migrate(args[2:])
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *seedCount <= 0 || *seedDays <= 0 {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(*seedCount, *seedDays)
	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks a yes/no question on interactive terminals. Anything else is a yes.
func (cli *commandLine) confirm(question string) bool {
	if f, ok := cli.stdin.(*os.File); !ok || !isTerminalFunc(int(f.Fd())) {
		return true
	}
	fmt.Fprint(cli.stdout, question)
	answer, _ := bufio.NewReader(cli.stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
