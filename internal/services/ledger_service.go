package services

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/sheets"
)

// Publisher announces persisted ledger changes.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// Config identifies the ledger a service works on.
type Config struct {
	File    string
	Title   string
	Options ledger.Options
}

// AddRequest is raw user input for a new expense. Date, Hour and Minute
// are all empty for "now".
type AddRequest struct {
	Description string
	Amount      string
	Category    string
	Date        string
	Hour        string
	Minute      string
}

// Custom reports whether the request carries a user supplied timestamp.
func (r AddRequest) Custom() bool {
	return strings.TrimSpace(r.Date) != "" || strings.TrimSpace(r.Hour) != "" || strings.TrimSpace(r.Minute) != ""
}

// LedgerService orchestrates ledger mutations, persistence and change
// events. Every mutation is applied to a copy, saved, and only then made
// current, so a failed save leaves the ledger as it was.
type LedgerService struct {
	mu        sync.RWMutex
	ledger    *ledger.Ledger
	store     sheets.LedgerStore
	publisher Publisher
	cfg       Config
	logger    *log.Logger
}

func NewLedgerService(store sheets.LedgerStore, publisher Publisher, cfg Config, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		ledger:    ledger.New(cfg.Options),
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.WithComponent(log.ComponentLedger).With(log.FieldTitle, cfg.Title),
	}
}

// Open loads the ledger from the store, replacing the in-memory one.
func (s *LedgerService) Open(ctx context.Context) error {
	sheet, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	l := ledger.FromSheet(sheet, s.cfg.Options)

	s.mu.Lock()
	s.ledger = l
	s.mu.Unlock()

	sum := l.Summary()
	s.logger.InfoContext(ctx, "Ledger opened",
		log.FieldOperation, log.OpOpen,
		log.FieldFile, s.cfg.File,
		log.FieldRecords, sum.Count,
		log.FieldBudgetCents, sum.Budget.Cents)
	return nil
}

// SetBudget parses and applies a new budget. Empty input means zero.
func (s *LedgerService) SetBudget(ctx context.Context, value string) (core.Summary, error) {
	budget := core.Money{}
	if strings.TrimSpace(value) != "" {
		var err error
		if budget, err = core.ParseAmount("budget", value); err != nil {
			return core.Summary{}, err
		}
	}

	var sum core.Summary
	err := s.mutate(ctx, log.OpBudget, amqp.OpBudget, func(l *ledger.Ledger) (int, error) {
		var err error
		sum, err = l.SetBudget(budget)
		return 0, err
	})
	return sum, err
}

// Add validates the request and appends a record.
func (s *LedgerService) Add(ctx context.Context, req AddRequest) (core.Record, error) {
	amount, err := core.ParseAmount("amount", req.Amount)
	if err != nil {
		return core.Record{}, err
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.Record{}, err
	}
	entry := ledger.Entry{
		Description: strings.TrimSpace(req.Description),
		Amount:      amount,
		Category:    category,
	}
	if req.Custom() {
		if entry.Timestamp, err = core.CustomTimestamp(req.Date, req.Hour, req.Minute); err != nil {
			return core.Record{}, err
		}
	}

	var rec core.Record
	err = s.mutate(ctx, log.OpAdd, amqp.OpAdd, func(l *ledger.Ledger) (int, error) {
		var err error
		rec, err = l.Add(entry)
		return rec.Serial, err
	})
	return rec, err
}

// Edit replaces the description and amount of the record at serial.
func (s *LedgerService) Edit(ctx context.Context, serial int, description, amount string) (core.Record, error) {
	value, err := core.ParseAmount("amount", amount)
	if err != nil {
		return core.Record{}, err
	}

	var rec core.Record
	err = s.mutate(ctx, log.OpEdit, amqp.OpEdit, func(l *ledger.Ledger) (int, error) {
		var err error
		rec, err = l.Edit(serial, strings.TrimSpace(description), value)
		return serial, err
	})
	return rec, err
}

// Delete removes the record at serial.
func (s *LedgerService) Delete(ctx context.Context, serial int) (core.Record, error) {
	var rec core.Record
	err := s.mutate(ctx, log.OpDelete, amqp.OpDelete, func(l *ledger.Ledger) (int, error) {
		var err error
		rec, err = l.Delete(serial)
		return serial, err
	})
	return rec, err
}

func (s *LedgerService) mutate(ctx context.Context, op, event string, apply func(*ledger.Ledger) (int, error)) error {
	s.mu.Lock()
	next := s.ledger.Clone()
	serial, err := apply(next)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.store.Save(ctx, next.Sheet(s.cfg.Title)); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Failed to save ledger",
			log.FieldOperation, op,
			log.FieldError, err)
		return fmt.Errorf("save ledger: %w", err)
	}
	s.ledger = next
	sum := next.Summary()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger updated",
		log.FieldOperation, op,
		log.FieldSerial, serial,
		log.FieldBudgetCents, sum.Budget.Cents,
		log.FieldRemaining, sum.Remaining.Cents)

	s.publish(ctx, event, serial)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, op string, serial int) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(op, serial, s.cfg.File, s.cfg.Title)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		// Don't fail the action - the ledger is already saved
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, log.OpPublish,
			log.FieldMessageID, msg.ID,
			log.FieldError, err)
	}
}

// Query returns the records matching f in ledger order. The sequence reads
// the ledger that is current when it is iterated.
func (s *LedgerService) Query(f ledger.Filter) iter.Seq[core.Record] {
	return func(yield func(core.Record) bool) {
		s.mu.RLock()
		l := s.ledger
		s.mu.RUnlock()
		for r := range l.Query(f) {
			if !yield(r) {
				return
			}
		}
	}
}

func (s *LedgerService) Record(serial int) (core.Record, error) {
	return s.current().Record(serial)
}

func (s *LedgerService) Summary() core.Summary {
	return s.current().Summary()
}

func (s *LedgerService) CategoryTotals() []core.CategoryAmount {
	return s.current().CategoryTotals()
}

func (s *LedgerService) Daily() core.DailySpending {
	return s.current().ByDay()
}

func (s *LedgerService) Title() string { return s.cfg.Title }

func (s *LedgerService) File() string { return s.cfg.File }

func (s *LedgerService) current() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger
}
