package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/amqp"
	"budgetbook/internal/launcher"
	"budgetbook/internal/log"
	"budgetbook/internal/sheets"
)

// Mirror is a secondary destination for ledgers, addressed by title.
type Mirror struct {
	Name string
	For  func(title string) sheets.LedgerSaver
}

// SourceFunc returns the primary store of the ledger at target.
type SourceFunc func(target launcher.Target) sheets.LedgerLoader

// ListFunc enumerates the ledgers of the primary backend.
type ListFunc func(ctx context.Context) ([]launcher.Target, error)

// MirrorWorker copies ledgers from their primary store to every mirror.
type MirrorWorker struct {
	source  SourceFunc
	list    ListFunc
	mirrors []Mirror
	logger  *log.Logger

	mu      sync.Mutex
	running bool
}

func NewMirrorWorker(source SourceFunc, list ListFunc, mirrors []Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		source:  source,
		list:    list,
		mirrors: mirrors,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange reloads the ledger named by msg and writes it to every mirror.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldMessageID, msg.ID,
		log.FieldOperation, msg.Operation,
		log.FieldTitle, msg.Title)
	return w.copy(ctx, launcher.Target{Path: msg.File, Title: msg.Title})
}

// SyncAll copies every ledger of the primary backend. Failures are collected
// so one broken ledger does not stop the rest.
func (w *MirrorWorker) SyncAll(ctx context.Context) error {
	if w.list == nil {
		return nil
	}
	targets, err := w.list(ctx)
	if err != nil {
		return fmt.Errorf("list ledgers: %w", err)
	}

	var errs []error
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.copy(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Title, err))
		}
	}
	w.logger.InfoContext(ctx, "Mirror sync finished",
		log.FieldRecords, len(targets),
		"failed", len(errs))
	return errors.Join(errs...)
}

// Run performs SyncAll immediately and then every interval until ctx is done.
// Returns an error if already running.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.SyncAll(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Mirror sync failed", log.FieldError, err)
	}
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.SyncAll(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Mirror sync failed", log.FieldError, err)
			}
		}
	}
}

func (w *MirrorWorker) copy(ctx context.Context, target launcher.Target) error {
	if len(w.mirrors) == 0 {
		return nil
	}
	sheet, err := w.source(target).Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", target.Title, err)
	}
	sheet.Title = target.Title

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range w.mirrors {
		g.Go(func() error {
			start := time.Now()
			if err := m.For(target.Title).Save(gctx, sheet); err != nil {
				w.logger.ErrorContext(gctx, "Mirror write failed",
					log.FieldMirror, m.Name,
					log.FieldTitle, target.Title,
					log.FieldError, err)
				return fmt.Errorf("mirror %s: %w", m.Name, err)
			}
			w.logger.InfoContext(gctx, "Ledger mirrored",
				log.FieldMirror, m.Name,
				log.FieldTitle, target.Title,
				log.FieldRecords, len(sheet.Records),
				log.FieldDuration, time.Since(start).Milliseconds())
			return nil
		})
	}
	return g.Wait()
}
