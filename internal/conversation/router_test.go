package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/ivanoskov/mani_bot/internal/log"
	"github.com/ivanoskov/mani_bot/internal/model"
	"github.com/ivanoskov/mani_bot/internal/report"
	"github.com/shopspring/decimal"
)

const (
	allowedUser  int64 = 100
	strangerUser int64 = 666
)

type addCall struct {
	userID     int64
	categoryID string
	amount     decimal.Decimal
}

type fakeStore struct {
	allowed    map[int64]bool
	categories []model.Category
	addErr     error
	listErr    error
	authErr    error
	added      []addCall
	authCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		allowed: map[int64]bool{allowedUser: true},
		categories: []model.Category{
			{ID: "1", Type: model.Income, Name: "Зарплата"},
			{ID: "2", Type: model.Expense, Name: "Продукты"},
			{ID: "3", Type: model.Expense, Name: "Транспорт"},
		},
	}
}

func (f *fakeStore) IsUserAllowed(_ context.Context, userID int64) (bool, error) {
	f.authCalls++
	if f.authErr != nil {
		return false, f.authErr
	}
	return f.allowed[userID], nil
}

func (f *fakeStore) ListCategories(context.Context) ([]model.Category, error) {
	return f.categories, f.listErr
}

func (f *fakeStore) AddTransaction(_ context.Context, userID int64, categoryID string, amount decimal.Decimal) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, addCall{userID: userID, categoryID: categoryID, amount: amount})
	return nil
}

type fakeReporter struct {
	report *report.Report
	err    error
	calls  int
}

func (f *fakeReporter) Build(context.Context) (*report.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeCharts struct {
	png []byte
	err error
}

func (f *fakeCharts) Render(report.Series) ([]byte, error) {
	return f.png, f.err
}

type fixture struct {
	store    *fakeStore
	reports  *fakeReporter
	charts   *fakeCharts
	sessions *Sessions
	router   *Router
}

func newFixture() *fixture {
	f := &fixture{
		store: newFakeStore(),
		reports: &fakeReporter{report: &report.Report{
			WindowDays: 30,
			Summary: report.Summary{
				TotalIncome:  decimal.NewFromInt(100),
				TotalExpense: decimal.NewFromInt(40),
				NetIncome:    decimal.NewFromInt(60),
			},
		}},
		charts:   &fakeCharts{png: []byte("png")},
		sessions: NewSessions(),
	}
	f.router = NewRouter(f.store, f.reports, f.charts, f.sessions, log.Discard())
	return f
}

func (f *fixture) state(t *testing.T, userID int64) State {
	t.Helper()
	st, ok := f.sessions.Lookup(userID)
	if !ok {
		t.Fatalf("no session for user %d", userID)
	}
	if !st.Valid() {
		t.Fatalf("invalid state reached: %+v", st)
	}
	return st
}

func TestRoundTripAddsExactlyOneTransaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.router.OnStartCommand(ctx, allowedUser)
	if p.Err != nil || len(p.Menu) != 3 {
		t.Fatalf("unexpected start prompt: %+v", p)
	}

	p = f.router.OnText(ctx, allowedUser, LabelExpense)
	if p.Err != nil {
		t.Fatalf("type selection failed: %+v", p)
	}
	if got := f.state(t, allowedUser).Phase; got != PhaseAwaitingCategory {
		t.Fatalf("expected awaiting category, got %s", got)
	}
	if len(p.Options) != 3 || p.Options[0].Data != "2" || p.Options[2].Data != CallbackBack {
		t.Fatalf("expected expense categories plus back, got %+v", p.Options)
	}

	f.router.OnCallback(ctx, allowedUser, "2")
	st := f.state(t, allowedUser)
	if st.Phase != PhaseAwaitingAmount || st.PendingCategoryID != "2" {
		t.Fatalf("unexpected state after category: %+v", st)
	}

	p = f.router.OnText(ctx, allowedUser, "150,75")
	if p.Err != nil {
		t.Fatalf("amount rejected: %+v", p)
	}

	st = f.state(t, allowedUser)
	if st != Idle() {
		t.Fatalf("expected idle with cleared context, got %+v", st)
	}
	if len(f.store.added) != 1 {
		t.Fatalf("expected exactly one addTransaction call, got %d", len(f.store.added))
	}
	call := f.store.added[0]
	if call.userID != allowedUser || call.categoryID != "2" || !call.amount.Equal(decimal.RequireFromString("150.75")) {
		t.Fatalf("unexpected call %+v", call)
	}
}

func TestUnauthorizedNeverMutatesState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	events := []func() Prompt{
		func() Prompt { return f.router.OnStartCommand(ctx, strangerUser) },
		func() Prompt { return f.router.OnStatRequest(ctx, strangerUser) },
		func() Prompt { return f.router.OnText(ctx, strangerUser, LabelIncome) },
		func() Prompt { return f.router.OnCallback(ctx, strangerUser, "1") },
		func() Prompt { return f.router.OnAmountText(ctx, strangerUser, "10") },
		func() Prompt { return f.router.OnBack(ctx, strangerUser) },
		func() Prompt { return f.router.OnCategoryTypeChosen(ctx, strangerUser, LabelExpense) },
		func() Prompt { return f.router.OnCategorySelected(ctx, strangerUser, "2") },
	}
	for i, ev := range events {
		p := ev()
		if !errors.Is(p.Err, ErrUnauthorized) {
			t.Fatalf("event %d: expected denial, got %+v", i, p)
		}
	}

	if _, ok := f.sessions.Lookup(strangerUser); ok {
		t.Fatal("denied events must not create a session")
	}
	if len(f.store.added) != 0 || f.reports.calls != 0 {
		t.Fatal("denied events must not reach collaborators")
	}
}

func TestUnauthorizedLeavesExistingStateUntouched(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.sessions.Set(strangerUser, Idle().TypeChosen().CategorySelected("2"))
	before, _ := f.sessions.Lookup(strangerUser)

	f.router.OnText(ctx, strangerUser, "10")
	f.router.OnBack(ctx, strangerUser)
	f.router.OnStartCommand(ctx, strangerUser)

	after, _ := f.sessions.Lookup(strangerUser)
	if before != after {
		t.Fatalf("state changed: %+v -> %+v", before, after)
	}
}

func TestAuthorizationErrorIsDenial(t *testing.T) {
	f := newFixture()
	f.store.authErr = errors.New("db down")

	p := f.router.OnStartCommand(context.Background(), allowedUser)
	if !errors.Is(p.Err, ErrUnauthorized) {
		t.Fatalf("expected denial, got %+v", p)
	}
	if f.sessions.Len() != 0 {
		t.Fatal("no session may be created")
	}
}

func TestBackFromAnyPhaseReturnsToIdle(t *testing.T) {
	setups := map[string]State{
		"idle":              Idle(),
		"awaiting category": Idle().TypeChosen(),
		"awaiting amount":   Idle().TypeChosen().CategorySelected("2"),
	}
	backEvents := map[string]func(r *Router, ctx context.Context) Prompt{
		"command":  func(r *Router, ctx context.Context) Prompt { return r.OnBack(ctx, allowedUser) },
		"callback": func(r *Router, ctx context.Context) Prompt { return r.OnCallback(ctx, allowedUser, CallbackBack) },
		"text":     func(r *Router, ctx context.Context) Prompt { return r.OnText(ctx, allowedUser, LabelBack) },
	}

	for setupName, initial := range setups {
		for eventName, back := range backEvents {
			t.Run(setupName+"/"+eventName, func(t *testing.T) {
				f := newFixture()
				f.sessions.Set(allowedUser, initial)

				p := back(f.router, context.Background())

				if p.Err != nil {
					t.Fatalf("unexpected error %v", p.Err)
				}
				if st := f.state(t, allowedUser); st != Idle() {
					t.Fatalf("expected idle, got %+v", st)
				}
			})
		}
	}
}

func TestInvalidAmountKeepsPendingCategory(t *testing.T) {
	f := newFixture()
	pending := Idle().TypeChosen().CategorySelected("3")
	f.sessions.Set(allowedUser, pending)

	for _, input := range []string{"abc", "-5", "0", "1e3", ""} {
		p := f.router.OnText(context.Background(), allowedUser, input)
		if !errors.Is(p.Err, ErrInvalidAmount) {
			t.Fatalf("%q: expected ErrInvalidAmount, got %+v", input, p)
		}
		if st := f.state(t, allowedUser); st != pending {
			t.Fatalf("%q: state changed to %+v", input, st)
		}
	}
	if len(f.store.added) != 0 {
		t.Fatal("invalid amounts must not be stored")
	}

	p := f.router.OnAmountText(context.Background(), allowedUser, "42")
	if p.Err != nil || len(f.store.added) != 1 {
		t.Fatalf("retry after invalid input must succeed: %+v", p)
	}
}

func TestPersistenceFailureResetsToIdle(t *testing.T) {
	f := newFixture()
	f.store.addErr = errors.New("connection refused")
	f.sessions.Set(allowedUser, Idle().TypeChosen().CategorySelected("2"))

	p := f.router.OnText(context.Background(), allowedUser, "10")

	if !errors.Is(p.Err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %+v", p)
	}
	if st := f.state(t, allowedUser); st != Idle() {
		t.Fatalf("expected idle after failure, got %+v", st)
	}
}

func TestCommandLabelsAreDataOutsideIdle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.sessions.Set(allowedUser, Idle().TypeChosen().CategorySelected("2"))
	p := f.router.OnText(ctx, allowedUser, LabelStat)
	if !errors.Is(p.Err, ErrInvalidAmount) {
		t.Fatalf("stat label while awaiting amount must be an invalid amount, got %+v", p)
	}
	if f.reports.calls != 0 {
		t.Fatal("report must not be built")
	}

	f.sessions.Set(allowedUser, Idle().TypeChosen())
	p = f.router.OnText(ctx, allowedUser, LabelIncome)
	if !errors.Is(p.Err, ErrUnknownCategory) {
		t.Fatalf("type label while awaiting category must be a category lookup, got %+v", p)
	}
	if st := f.state(t, allowedUser); st.Phase != PhaseAwaitingCategory {
		t.Fatalf("expected to stay awaiting category, got %+v", st)
	}
}

func TestCategoryTextMatchesByName(t *testing.T) {
	f := newFixture()
	f.sessions.Set(allowedUser, Idle().TypeChosen())

	f.router.OnText(context.Background(), allowedUser, "транспорт")

	st := f.state(t, allowedUser)
	if st.Phase != PhaseAwaitingAmount || st.PendingCategoryID != "3" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestCategorySelectedCreatesSessionLazily(t *testing.T) {
	f := newFixture()

	p := f.router.OnCategorySelected(context.Background(), allowedUser, "1")

	if p.Err != nil {
		t.Fatalf("unexpected error %v", p.Err)
	}
	st := f.state(t, allowedUser)
	if st.Phase != PhaseAwaitingAmount || st.PendingCategoryID != "1" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestUnknownCategoryCallbackKeepsState(t *testing.T) {
	f := newFixture()
	f.sessions.Set(allowedUser, Idle().TypeChosen())

	p := f.router.OnCallback(context.Background(), allowedUser, "404")

	if !errors.Is(p.Err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %+v", p)
	}
	if st := f.state(t, allowedUser); st != Idle().TypeChosen() {
		t.Fatalf("state changed: %+v", st)
	}
}

func TestAmountWithoutCategory(t *testing.T) {
	f := newFixture()

	p := f.router.OnAmountText(context.Background(), allowedUser, "10")

	if !errors.Is(p.Err, ErrNoCategorySelected) {
		t.Fatalf("expected ErrNoCategorySelected, got %+v", p)
	}
	if st := f.state(t, allowedUser); st != Idle() {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestTypeWithoutCategories(t *testing.T) {
	f := newFixture()
	f.store.categories = f.store.categories[1:]

	p := f.router.OnCategoryTypeChosen(context.Background(), allowedUser, LabelIncome)

	if !errors.Is(p.Err, ErrNoCategories) {
		t.Fatalf("expected ErrNoCategories, got %+v", p)
	}
	if st := f.state(t, allowedUser); st != Idle() {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestCategoryListFailureKeepsIdle(t *testing.T) {
	f := newFixture()
	f.store.listErr = errors.New("timeout")

	p := f.router.OnText(context.Background(), allowedUser, LabelExpense)

	if !errors.Is(p.Err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %+v", p)
	}
	if st := f.state(t, allowedUser); st != Idle() {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestStatRequestIgnoresConversationPhase(t *testing.T) {
	f := newFixture()
	pending := Idle().TypeChosen().CategorySelected("2")
	f.sessions.Set(allowedUser, pending)

	p := f.router.OnStatRequest(context.Background(), allowedUser)

	if p.Err != nil {
		t.Fatalf("unexpected error %v", p.Err)
	}
	if p.Attachment == nil || p.Attachment.Name != ChartFileName {
		t.Fatalf("expected chart attachment, got %+v", p.Attachment)
	}
	if p.Text != f.reports.report.Text() {
		t.Fatalf("unexpected text %q", p.Text)
	}
	if st := f.state(t, allowedUser); st != pending {
		t.Fatalf("stat must not touch state: %+v", st)
	}
}

func TestStatFromIdleText(t *testing.T) {
	f := newFixture()

	p := f.router.OnText(context.Background(), allowedUser, LabelStat)

	if p.Err != nil || f.reports.calls != 1 {
		t.Fatalf("expected report from stat label: %+v", p)
	}
}

func TestStatFailures(t *testing.T) {
	f := newFixture()
	f.reports.err = errors.New("bad date")

	p := f.router.OnStatRequest(context.Background(), allowedUser)
	if !errors.Is(p.Err, ErrReport) {
		t.Fatalf("expected ErrReport, got %+v", p)
	}

	f.reports.err = nil
	f.charts.err = errors.New("render failed")
	p = f.router.OnStatRequest(context.Background(), allowedUser)
	if p.Err != nil || p.Attachment != nil || p.Text == "" {
		t.Fatalf("chart failure must still send the summary: %+v", p)
	}

	f.charts.err = nil
	f.charts.png = nil
	p = f.router.OnStatRequest(context.Background(), allowedUser)
	if p.Attachment != nil {
		t.Fatal("empty chart must not be attached")
	}
}

func TestIdleFreeTextShowsMenu(t *testing.T) {
	f := newFixture()

	p := f.router.OnText(context.Background(), allowedUser, "привет")

	if p.Err != nil || len(p.Menu) == 0 {
		t.Fatalf("expected main menu, got %+v", p)
	}
	if st := f.state(t, allowedUser); st != Idle() {
		t.Fatalf("unexpected state %+v", st)
	}
}
