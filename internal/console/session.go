// Package console is the interactive tracking screen: a line-oriented
// command loop over one ledger that re-renders the table and summary after
// every change.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/services"
)

// Ledger is the set of actions the session drives.
type Ledger interface {
	SetBudget(ctx context.Context, value string) (core.Summary, error)
	Add(ctx context.Context, req services.AddRequest) (core.Record, error)
	Edit(ctx context.Context, serial int, description, amount string) (core.Record, error)
	Delete(ctx context.Context, serial int) (core.Record, error)
	Record(serial int) (core.Record, error)
	Query(f ledger.Filter) iter.Seq[core.Record]
	Summary() core.Summary
	CategoryTotals() []core.CategoryAmount
	Daily() core.DailySpending
	Title() string
}

var _ Ledger = (*services.LedgerService)(nil)

const helpText = `Commands:
  budget VALUE                                  set the total budget
  add AMOUNT [-c CATEGORY] [-d DD-MM-YYYY -H HH -M MM] DESCRIPTION...
  edit SERIAL AMOUNT [DESCRIPTION...]           change amount and description
  delete SERIAL                                 delete after confirmation
  list                                          show the table
  search TEXT | search                          filter by description or date, empty clears
  filter CATEGORY | filter off                  filter by category
  hide-time on|off                              hide the Date/Time column
  summary | chart | histogram | categories | help | quit`

var errQuit = errors.New("quit")

// Session reads commands from in and writes everything to out. Search text,
// category filter and hidden columns persist across refreshes.
type Session struct {
	ledger   Ledger
	in       *bufio.Scanner
	out      io.Writer
	st       styles
	logger   *log.Logger
	filter   ledger.Filter
	hideTime bool
}

func NewSession(l Ledger, in io.Reader, out io.Writer, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Discard()
	}
	return &Session{
		ledger: l,
		in:     bufio.NewScanner(in),
		out:    out,
		st:     newStyles(lipgloss.NewRenderer(out)),
		logger: logger.WithComponent(log.ComponentConsole),
	}
}

// Run shows the ledger and processes commands until quit, end of input or
// ctx is done. Action errors are printed and never end the session.
func (s *Session) Run(ctx context.Context) error {
	s.println(s.st.title.Render(s.ledger.Title()))
	s.refresh()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "> ")
		line, ok := s.readLine()
		if !ok {
			s.println("")
			return s.in.Err()
		}
		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.logger.DebugContext(ctx, "Command failed", log.FieldError, err)
			s.println(s.st.err.Render("Error: " + err.Error()))
		}
	}
}

func (s *Session) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// Execute runs one command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "budget":
		sum, err := s.ledger.SetBudget(ctx, strings.Join(args, ""))
		if err != nil {
			return err
		}
		s.println(s.st.success.Render(fmt.Sprintf("Budget set to %s.", sum.Budget)))
		s.refresh()
	case "add":
		return s.add(ctx, args)
	case "edit":
		return s.edit(ctx, args)
	case "delete", "del", "rm":
		return s.delete(ctx, args)
	case "list", "ls":
		s.refresh()
	case "search":
		s.filter.Search = strings.Join(args, " ")
		s.refresh()
	case "filter":
		return s.setFilter(args)
	case "hide-time":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("usage: hide-time on|off")
		}
		s.hideTime = args[0] == "on"
		s.refresh()
	case "summary":
		s.println(s.st.renderSummary(s.ledger.Summary()))
	case "chart":
		s.println(s.st.renderCategories(s.ledger.CategoryTotals()))
	case "histogram", "hist":
		s.println(s.st.renderHistogram(s.ledger.Daily()))
	case "categories":
		names := make([]string, 0, len(core.Categories()))
		for _, c := range core.Categories() {
			names = append(names, c.String())
		}
		s.println(strings.Join(names, ", "))
	case "help", "?":
		s.println(helpText)
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}

func (s *Session) add(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var req services.AddRequest
	fs.StringVarP(&req.Category, "category", "c", "", "category")
	fs.StringVarP(&req.Date, "date", "d", "", "date DD-MM-YYYY")
	fs.StringVarP(&req.Hour, "hour", "H", "", "hour 0-23")
	fs.StringVarP(&req.Minute, "minute", "M", "", "minute 0-59")
	amount, args := splitAmount(args)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if amount == "" {
		return fmt.Errorf("usage: add AMOUNT [-c CATEGORY] [-d DATE -H HOUR -M MINUTE] DESCRIPTION")
	}
	req.Amount = amount
	req.Description = strings.Join(fs.Args(), " ")

	rec, err := s.ledger.Add(ctx, req)
	if err != nil {
		return err
	}
	s.println(s.st.success.Render(fmt.Sprintf("Added expense %d.", rec.Serial)))
	s.refresh()
	return nil
}

// addValueFlags are the add flags whose value is the following token.
var addValueFlags = []string{"-c", "--category", "-d", "--date", "-H", "--hour", "-M", "--minute"}

// splitAmount takes the first positional token out of args before flag
// parsing, so a negative amount such as -5 is validated as an amount rather
// than rejected as an unknown flag.
func splitAmount(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") || numeric(a) {
			rest := append(append([]string(nil), args[:i]...), args[i+1:]...)
			return a, rest
		}
		if slices.Contains(addValueFlags, a) {
			i++
		}
	}
	return "", args
}

// numeric reports whether a starts like a signed number, e.g. -5 or -.5.
func numeric(a string) bool {
	a = strings.TrimLeft(a, "+-")
	return a != "" && (a[0] >= '0' && a[0] <= '9' || a[0] == '.' || a[0] == ',')
}

func (s *Session) edit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: edit SERIAL AMOUNT [DESCRIPTION]")
	}
	serial, err := parseSerial(args[0])
	if err != nil {
		return err
	}
	current, err := s.ledger.Record(serial)
	if err != nil {
		return err
	}
	desc := current.Description
	if len(args) > 2 {
		desc = strings.Join(args[2:], " ")
	}
	if _, err := s.ledger.Edit(ctx, serial, desc, args[1]); err != nil {
		return err
	}
	s.println(s.st.success.Render(fmt.Sprintf("Updated expense %d.", serial)))
	s.refresh()
	return nil
}

func (s *Session) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete SERIAL")
	}
	serial, err := parseSerial(args[0])
	if err != nil {
		return err
	}
	rec, err := s.ledger.Record(serial)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Delete expense %d (%s, %s)? [y/N] ", rec.Serial, rec.Description, rec.Amount)
	answer, ok := s.readLine()
	if !ok || !slices.Contains([]string{"y", "yes"}, strings.ToLower(answer)) {
		s.println("Cancelled.")
		return nil
	}
	if _, err := s.ledger.Delete(ctx, serial); err != nil {
		return err
	}
	s.println(s.st.success.Render(fmt.Sprintf("Deleted expense %d.", serial)))
	s.refresh()
	return nil
}

func (s *Session) setFilter(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: filter CATEGORY|off")
	}
	if strings.EqualFold(args[0], "off") {
		s.filter.Category = ""
		s.refresh()
		return nil
	}
	c, err := core.ParseCategory(args[0])
	if err != nil {
		return err
	}
	s.filter.Category = c
	s.refresh()
	return nil
}

func (s *Session) refresh() {
	records := slices.Collect(s.ledger.Query(s.filter))
	if len(records) == 0 {
		s.println(s.st.subtle.Render("No expenses."))
	} else {
		s.println(s.st.renderTable(records, s.hideTime))
	}
	s.println(s.st.renderSummary(s.ledger.Summary()))
}

func (s *Session) println(text string) {
	fmt.Fprintln(s.out, text)
}

func parseSerial(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("serial %q must be a number", s)
	}
	return n, nil
}
