package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/backtester/funding"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/orders"
	"github.com/thrasher-corp/gfobtester/backtester/statistics"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
	"github.com/thrasher-corp/gfobtester/log"
)

var one = decimal.NewFromInt(1)

// WithObserver adds an observer to every run
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New validates settings and definitions and returns an engine ready to run
func New(s Settings, definitions []*base.Definition, opts ...Option) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(definitions) == 0 {
		return nil, errNoDefinitions
	}
	names := make(map[string]struct{}, len(definitions))
	for i := range definitions {
		if err := definitions[i].Validate(); err != nil {
			return nil, err
		}
		if _, ok := names[definitions[i].Name]; ok {
			return nil, fmt.Errorf("%w: %q", errDuplicateDefinition, definitions[i].Name)
		}
		names[definitions[i].Name] = struct{}{}
	}
	e := &Engine{
		settings:    s,
		definitions: append([]*base.Definition(nil), definitions...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Validate checks the settings can drive a run
func (s *Settings) Validate() error {
	var errs error
	if !s.InitialCapital.IsPositive() {
		errs = gctcommon.AppendError(errs, fmt.Errorf("%w, received %v", errInvalidCapital, s.InitialCapital))
	}
	if s.FeeRate.IsNegative() || s.FeeRate.GreaterThanOrEqual(one) {
		errs = gctcommon.AppendError(errs, fmt.Errorf("%w, received %v", errInvalidFeeRate, s.FeeRate))
	}
	if s.PricePrecision < 0 || s.QuantityPrecision < 0 {
		errs = gctcommon.AppendError(errs, fmt.Errorf("%w, received price %d quantity %d", errInvalidPrecision, s.PricePrecision, s.QuantityPrecision))
	}
	if _, err := funding.ParseMode(string(s.FundingMode)); err != nil {
		errs = gctcommon.AppendError(errs, err)
	}
	if s.FundingMode == funding.Shared && s.MaxPositions <= 0 {
		errs = gctcommon.AppendError(errs, fmt.Errorf("shared funding requires max positions, received %d", s.MaxPositions))
	}
	errs = gctcommon.AppendError(errs, s.Indicators.Validate())
	return errs
}

// Settings returns the engine settings
func (e *Engine) Settings() Settings {
	return e.settings
}

// Validate checks every series before a run starts. Each series must carry
// more bars than the indicator warm-up so that at least one bar can trade
func (e *Engine) Validate(series []*data.Series) error {
	if len(series) == 0 {
		return errNoSeries
	}
	warmup := e.settings.Indicators.WarmupBars()
	seen := make(map[string]struct{}, len(series))
	var errs error
	for i := range series {
		if series[i] == nil {
			errs = gctcommon.AppendError(errs, fmt.Errorf("series %d: %w", i, gctcommon.ErrNilPointer))
			continue
		}
		symbol := series[i].Symbol()
		if _, ok := seen[symbol]; ok {
			errs = gctcommon.AppendError(errs, fmt.Errorf("%w: %s", errDuplicateSymbol, symbol))
		}
		seen[symbol] = struct{}{}
		if series[i].Len() <= warmup {
			errs = gctcommon.AppendError(errs, fmt.Errorf("%w: %s has %d bars, more than %d required", ErrInsufficientWarmup, symbol, series[i].Len(), warmup))
		}
	}
	return errs
}

// Run drives every definition over every series. Series are processed in the
// order given at each timestamp. Cancelling ctx stops the run at the next
// timestamp and returns the partial result with the context error. Invariant
// violations halt the run and are classed as gctcommon.ErrInternal
func (e *Engine) Run(ctx context.Context, series []*data.Series) (*statistics.Result, error) {
	if err := e.Validate(series); err != nil {
		return nil, err
	}
	r, err := e.newRun(series)
	if err != nil {
		return nil, err
	}
	log.Infof(log.BackTester, "Running %s over %d symbols with %d strategies", r.result.RunID, len(series), len(e.definitions))

	timeline := data.Timeline(series...)
	r.result.StartDate = timeline[0]
	r.result.EndDate = timeline[len(timeline)-1]
	for _, t := range timeline {
		if err := ctx.Err(); err != nil {
			log.Warnf(log.BackTester, "Run %s cancelled before %v", r.result.RunID, t)
			return r.partial(), err
		}
		if err := r.tick(t); err != nil {
			r.dumpState(err)
			return r.finish(false), err
		}
	}
	if err := r.expireAll(r.result.EndDate); err != nil {
		r.dumpState(err)
		return r.finish(false), err
	}
	res := r.finish(true)
	if err := res.Calculate(e.settings.RiskFreeRate); err != nil {
		return res, err
	}
	log.Infof(log.BackTester, "Run %s complete with %d trades", res.RunID, len(res.Trades))
	return res, nil
}

// RunID returns the deterministic identifier of a run over series
func (e *Engine) RunID(series []*data.Series) uuid.UUID {
	var sb strings.Builder
	sb.WriteString(e.settings.RunName)
	for i := range e.definitions {
		sb.WriteString("|")
		sb.WriteString(e.definitions[i].Name)
	}
	for i := range series {
		fmt.Fprintf(&sb, "|%s:%d:%d:%d", series[i].Symbol(), series[i].Len(), series[i].Start().Unix(), series[i].End().Unix())
	}
	fmt.Fprintf(&sb, "|%s|%v|%d|%v", e.settings.FundingMode, e.settings.InitialCapital, e.settings.MaxPositions, e.settings.FeeRate)
	return uuid.NewV5(uuid.NamespaceOID, sb.String())
}

func (e *Engine) newRun(series []*data.Series) (*run, error) {
	symbols := make([]string, len(series))
	for i := range series {
		symbols[i] = series[i].Symbol()
	}
	pool, err := funding.NewPool(e.settings.FundingMode, e.settings.InitialCapital, symbols, e.settings.MaxPositions)
	if err != nil {
		return nil, err
	}
	r := &run{
		Engine:    e,
		id:        e.RunID(series),
		series:    series,
		pool:      pool,
		matcher:   orders.NewMatcher(),
		pipelines: make(map[string]*indicators.Pipeline, len(series)),
		slots:     make(map[string][]*slot, len(series)),
		frozen:    make(map[string]decimal.Decimal),
		latest:    make(map[string]decimal.Decimal, len(series)),
		warmup:    e.settings.Indicators.WarmupBars(),
	}
	r.result = statistics.NewResult(r.id.String(), pool.InitialCapital())
	r.result.Symbols = symbols
	r.result.FundingMode = pool.Mode()
	for i := range e.definitions {
		r.result.Strategies = append(r.result.Strategies, e.definitions[i].Name)
	}
	for _, symbol := range symbols {
		p, err := indicators.NewPipeline(e.settings.Indicators)
		if err != nil {
			return nil, err
		}
		r.pipelines[symbol] = p
		for _, d := range e.definitions {
			key := orders.SlotKey{Symbol: symbol, Strategy: d.Name}
			if err := r.matcher.Register(key, d.MaxPendingBuys()); err != nil {
				return nil, err
			}
			r.slots[symbol] = append(r.slots[symbol], &slot{key: key, definition: d})
		}
	}
	return r, nil
}

// finish stamps the ledgers onto the result
func (r *run) finish(completed bool) *statistics.Result {
	r.result.Completed = completed
	r.result.Ledgers = r.pool.Snapshots()
	return r.result
}

// partial finishes a cancelled run with whatever statistics the curve so far
// supports
func (r *run) partial() *statistics.Result {
	res := r.finish(false)
	if len(res.EquityCurve) == 0 {
		return res
	}
	if err := res.Calculate(r.settings.RiskFreeRate); err != nil {
		log.Warnf(log.BackTester, "Partial statistics for %s unavailable: %v", res.RunID, err)
	}
	return res
}

// dumpState logs everything needed to diagnose a halted run
func (r *run) dumpState(cause error) {
	log.Errorf(log.BackTester, "Run %s halted: %v", r.result.RunID, cause)
	tracker := r.pool.Tracker()
	log.Errorf(log.FundingMgr, "%s pool with %d open positions and %d occupied slots of %d", r.pool.Mode(), tracker.OpenPositions(), tracker.Occupied(), tracker.Max())
	for _, l := range r.pool.Ledgers() {
		log.Errorf(log.FundingMgr, "%s", l)
	}
	for _, o := range r.matcher.Pending("") {
		log.Errorf(log.OrderMgr, "pending %s %s %s limit %v quantity %v placed %d valid %d",
			o.ID, o.Slot(), o.Side, o.LimitPrice, o.Quantity, o.PlacedOffset, o.ValidOffset)
	}
	for _, symbol := range r.result.Symbols {
		for _, s := range r.slots[symbol] {
			if s.position != nil {
				log.Errorf(log.FundingMgr, "position %s quantity %v cost basis %v", s.key, s.position.Quantity, s.position.CostBasis)
			}
		}
	}
}

func (r *run) expireAll(t time.Time) error {
	outcomes := r.matcher.ExpireAll(EndOfDataReason, t)
	for i := range outcomes {
		if err := r.settle(&outcomes[i]); err != nil {
			return err
		}
	}
	return r.verify()
}
