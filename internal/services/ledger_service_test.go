package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/sheets/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *fakePublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs {
		out = append(out, m.Operation)
	}
	return out
}

var fixedNow = time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC)

func newTestService(t *testing.T) (*LedgerService, *memory.Store, *fakePublisher) {
	t.Helper()
	store := memory.New("Trip")
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub, Config{
		File:    "/data/Trip.xlsx",
		Title:   "Trip",
		Options: ledger.Options{Clock: func() time.Time { return fixedNow }},
	}, nil)
	require.NoError(t, svc.Open(context.Background()))
	return svc, store, pub
}

func TestLedgerService_ReferenceScenario(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)

	sum, err := svc.SetBudget(ctx, "1000")
	require.NoError(t, err)
	assert.Equal(t, "1000.00", sum.Remaining.String())

	rec, err := svc.Add(ctx, AddRequest{Description: "Lunch", Amount: "12.5", Category: "food"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Serial)
	assert.Equal(t, core.Food, rec.Category)
	assert.Equal(t, "987.50", rec.Remaining.String())
	assert.Equal(t, "05 Mar, 2024 14:30", rec.FormattedTime())

	rec, err = svc.Add(ctx, AddRequest{Description: "Bus", Amount: "2,25"})
	require.NoError(t, err)
	assert.Equal(t, core.Miscellaneous, rec.Category)
	assert.Equal(t, "985.25", rec.Remaining.String())

	rec, err = svc.Edit(ctx, 1, " Dinner ", "15")
	require.NoError(t, err)
	assert.Equal(t, "Dinner", rec.Description)
	assert.Equal(t, "985.00", rec.Remaining.String())

	got, err := svc.Record(2)
	require.NoError(t, err)
	assert.Equal(t, "982.75", got.Remaining.String())

	_, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "997.75", svc.Summary().Remaining.String())

	sheet, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, 1, sheet.Records[0].Serial)
	assert.Equal(t, int64(99775), sheet.Records[0].Remaining.Cents)
	assert.True(t, sheet.HasBudget)
	assert.Equal(t, 5, store.Saves())

	assert.Equal(t, []string{amqp.OpBudget, amqp.OpAdd, amqp.OpAdd, amqp.OpEdit, amqp.OpDelete}, pub.ops())
	assert.Equal(t, "/data/Trip.xlsx", pub.msgs[0].File)
	assert.Equal(t, "Trip", pub.msgs[0].Title)
	assert.Equal(t, 2, pub.msgs[2].Serial)
}

func TestLedgerService_EmptyBudgetIsZero(t *testing.T) {
	svc, _, _ := newTestService(t)
	sum, err := svc.SetBudget(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum.Budget.Cents)
}

func TestLedgerService_ValidationNamesField(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)

	tests := []struct {
		name  string
		run   func() error
		field string
	}{
		{"budget", func() error { _, err := svc.SetBudget(ctx, "lots"); return err }, "budget"},
		{"amount", func() error { _, err := svc.Add(ctx, AddRequest{Amount: "-3"}); return err }, "amount"},
		{"category", func() error { _, err := svc.Add(ctx, AddRequest{Amount: "3", Category: "Pets"}); return err }, "category"},
		{"date", func() error {
			_, err := svc.Add(ctx, AddRequest{Amount: "3", Date: "31-02-2024", Hour: "10", Minute: "0"})
			return err
		}, "date"},
		{"hour", func() error {
			_, err := svc.Add(ctx, AddRequest{Amount: "3", Date: "01-02-2024", Hour: "24", Minute: "0"})
			return err
		}, "hour"},
		{"minute", func() error {
			_, err := svc.Add(ctx, AddRequest{Amount: "3", Date: "01-02-2024", Hour: "23", Minute: "60"})
			return err
		}, "minute"},
		{"edit amount", func() error { _, err := svc.Edit(ctx, 1, "x", "abc"); return err }, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Equal(t, 0, store.Saves())
	assert.Empty(t, pub.ops())
}

func TestLedgerService_CustomTimestamp(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec, err := svc.Add(context.Background(), AddRequest{
		Description: "Train", Amount: "40", Category: "Travel",
		Date: "5-3-2024", Hour: "9", Minute: "05",
	})
	require.NoError(t, err)
	assert.Equal(t, "05 Mar, 2024 09:05", rec.FormattedTime())
}

func TestLedgerService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	_, err := svc.Edit(ctx, 3, "x", "1")
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 3, nf.Serial)

	_, err = svc.Delete(ctx, 0)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 0, store.Saves())
}

func TestLedgerService_FailedSaveKeepsState(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)

	_, err := svc.SetBudget(ctx, "100")
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddRequest{Description: "Lunch", Amount: "10"})
	require.NoError(t, err)
	before := svc.Summary()

	store.FailWith(errors.New("disk full"))
	_, err = svc.Add(ctx, AddRequest{Description: "Dinner", Amount: "20"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	_, err = svc.Edit(ctx, 1, "Lunch", "50")
	require.Error(t, err)
	_, err = svc.Delete(ctx, 1)
	require.Error(t, err)

	assert.Equal(t, before, svc.Summary())
	rec, err := svc.Record(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), rec.Amount.Cents)
	assert.Len(t, pub.ops(), 2)
}

func TestLedgerService_PublishFailureDoesNotFailAction(t *testing.T) {
	svc, store, pub := newTestService(t)
	pub.err = errors.New("broker down")

	_, err := svc.Add(context.Background(), AddRequest{Description: "Lunch", Amount: "10"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Saves())
}

func TestLedgerService_WithoutPublisher(t *testing.T) {
	store := memory.New("Trip")
	svc := NewLedgerService(store, nil, Config{Title: "Trip"}, nil)
	require.NoError(t, svc.Open(context.Background()))
	_, err := svc.Add(context.Background(), AddRequest{Description: "Lunch", Amount: "10"})
	require.NoError(t, err)
	assert.Equal(t, "Trip", svc.Title())
}

func TestLedgerService_OpenDerivesBudget(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	store := memory.NewWithSheet(core.Sheet{Title: "Old", Records: []core.Record{
		{Serial: 7, Description: "Lunch", Amount: core.Money{Cents: 1250}, Timestamp: at,
			Remaining: core.Money{Cents: 98750}, Category: core.Uncategorized},
	}})
	svc := NewLedgerService(store, nil, Config{Title: "Old"}, nil)
	require.NoError(t, svc.Open(context.Background()))

	sum := svc.Summary()
	assert.Equal(t, "1000.00", sum.Budget.String())
	assert.Equal(t, "987.50", sum.Remaining.String())
	rec, err := svc.Record(1)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", rec.Description)
}

func TestLedgerService_OpenFailure(t *testing.T) {
	store := memory.New("Trip")
	store.FailWith(errors.New("unreadable"))
	svc := NewLedgerService(store, nil, Config{Title: "Trip"}, nil)
	err := svc.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load ledger")
}

func TestLedgerService_QueryAndAggregates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Add(ctx, AddRequest{Description: "Lunch", Amount: "10", Category: "Food"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddRequest{Description: "Taxi", Amount: "30", Category: "Transport",
		Date: "06-03-2024", Hour: "8", Minute: "0"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddRequest{Description: "Dinner", Amount: "5", Category: "Food"})
	require.NoError(t, err)

	seq := svc.Query(ledger.Filter{Category: core.Food})
	var names []string
	for r := range seq {
		names = append(names, r.Description)
	}
	assert.Equal(t, []string{"Lunch", "Dinner"}, names)

	// The sequence reads the current ledger on each pass.
	_, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, len(slices.Collect(seq)))

	totals := svc.CategoryTotals()
	require.Len(t, totals, 2)
	assert.Equal(t, core.Transport, totals[0].Name)

	daily := svc.Daily()
	require.Len(t, daily.Days, 2)
	assert.Equal(t, "17.50", daily.Mean.String())
}
