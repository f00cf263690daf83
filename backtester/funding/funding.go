package funding

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/common"
	"github.com/thrasher-corp/gfobtester/log"
)

// SharedLedgerName names the single ledger of a shared pool
const SharedLedgerName = "shared"

// ParseMode returns the funding mode for s
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case PerInstrument:
		return PerInstrument, nil
	case Shared:
		return Shared, nil
	}
	return "", fmt.Errorf("%w: %q", errInvalidMode, s)
}

// NewPool sets up the ledgers for a run. Per instrument pools give each
// symbol initial capital, shared pools hold initial once
func NewPool(mode Mode, initial decimal.Decimal, symbols []string, maxPositions int) (*Pool, error) {
	if len(symbols) == 0 {
		return nil, errNoSymbols
	}
	p := &Pool{
		mode:    mode,
		symbols: append([]string(nil), symbols...),
		ledgers: make(map[string]*Ledger, len(symbols)),
		tracker: NewPositionTracker(maxPositions),
	}
	switch mode {
	case PerInstrument:
		for i := range symbols {
			l, err := NewLedger(symbols[i], initial)
			if err != nil {
				return nil, err
			}
			p.ledgers[symbols[i]] = l
		}
	case Shared:
		if maxPositions <= 0 {
			return nil, errInvalidMaxPositions
		}
		l, err := NewLedger(SharedLedgerName, initial)
		if err != nil {
			return nil, err
		}
		for i := range symbols {
			p.ledgers[symbols[i]] = l
		}
	default:
		return nil, fmt.Errorf("%w: %q", errInvalidMode, mode)
	}
	log.Debugf(log.FundingMgr, "%s funding pool set up for %d symbols with %v initial capital", mode, len(symbols), initial)
	return p, nil
}

// Mode returns the funding mode
func (p *Pool) Mode() Mode {
	return p.mode
}

// Tracker returns the position tracker
func (p *Pool) Tracker() *PositionTracker {
	return p.tracker
}

// LedgerFor returns the ledger funding symbol
func (p *Pool) LedgerFor(symbol string) (*Ledger, error) {
	l, ok := p.ledgers[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownSymbol, symbol)
	}
	return l, nil
}

// Ledgers returns each distinct ledger once, in symbol order
func (p *Pool) Ledgers() []*Ledger {
	if p.mode == Shared {
		return []*Ledger{p.ledgers[p.symbols[0]]}
	}
	resp := make([]*Ledger, len(p.symbols))
	for i := range p.symbols {
		resp[i] = p.ledgers[p.symbols[i]]
	}
	return resp
}

// Size returns the notional a new entry on symbol may commit. Shared pools
// split what is available evenly across the unoccupied slots, per
// instrument pools commit fraction of the symbol's available capital
func (p *Pool) Size(symbol string, fraction decimal.Decimal) (decimal.Decimal, error) {
	l, err := p.LedgerFor(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if p.mode == Shared {
		free := p.tracker.Remaining()
		if free <= 0 {
			return decimal.Zero, fmt.Errorf("%w: %d of %d", ErrNoCapacity, p.tracker.Occupied(), p.tracker.Max())
		}
		return l.Available().Div(decimal.NewFromInt(int64(free))), nil
	}
	return l.Available().Mul(fraction), nil
}

// Verify checks every ledger's invariant
func (p *Pool) Verify() error {
	var errs error
	for _, l := range p.Ledgers() {
		errs = common.AppendError(errs, l.Verify())
	}
	return errs
}

// InitialCapital returns the sum of every ledger's starting capital
func (p *Pool) InitialCapital() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Ledgers() {
		total = total.Add(l.Initial())
	}
	return total
}

// TotalEquity returns the sum of every ledger's book equity
func (p *Pool) TotalEquity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Ledgers() {
		total = total.Add(l.TotalEquity())
	}
	return total
}

// Snapshots returns the state of every ledger
func (p *Pool) Snapshots() []Snapshot {
	ledgers := p.Ledgers()
	resp := make([]Snapshot, len(ledgers))
	for i := range ledgers {
		resp[i] = ledgers[i].Snapshot()
	}
	return resp
}
