package orders

import (
	"fmt"
	"time"

	"github.com/thrasher-corp/gfobtester/backtester/common"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
)

var slotStateNames = [...]string{
	Flat:        "FLAT",
	PendingBuy:  "PENDING_BUY",
	Long:        "LONG",
	PendingSell: "PENDING_SELL",
}

func (s SlotState) String() string {
	if int(s) < len(slotStateNames) {
		return slotStateNames[s]
	}
	return fmt.Sprintf("SlotState(%d)", s)
}

func (k SlotKey) String() string {
	return k.Symbol + "/" + k.Strategy
}

// Slot returns the slot an order belongs to
func (o *PendingOrder) Slot() SlotKey {
	return SlotKey{Symbol: o.Symbol, Strategy: o.Strategy}
}

// NewMatcher returns an empty matcher
func NewMatcher() *Matcher {
	return &Matcher{
		slots: make(map[SlotKey]*slot),
		ids:   make(map[string]struct{}),
	}
}

// Register adds a flat slot allowing up to maxBuys resting buys per entry
func (m *Matcher) Register(key SlotKey, maxBuys int) error {
	if maxBuys < 1 {
		return fmt.Errorf("%w: %s %d", errInvalidMaxBuys, key, maxBuys)
	}
	m.slots[key] = &slot{maxBuys: maxBuys}
	return nil
}

// State returns the state of a slot
func (m *Matcher) State(key SlotKey) SlotState {
	if s, ok := m.slots[key]; ok {
		return s.state
	}
	return Flat
}

// Place takes ownership of an order. Buys are accepted on flat slots or
// alongside other buys up to the slot's limit. Sells are accepted on long
// slots only
func (m *Matcher) Place(o *PendingOrder) error {
	if o == nil {
		return fmt.Errorf("%w: order", gctcommon.ErrNilPointer)
	}
	if !o.LimitPrice.IsPositive() || !o.Quantity.IsPositive() {
		return fmt.Errorf("%w: %s limit %v quantity %v", errInvalidOrder, o.ID, o.LimitPrice, o.Quantity)
	}
	if o.ValidOffset != o.PlacedOffset+1 {
		return fmt.Errorf("%w: %s placed %d valid %d", errInvalidValidity, o.ID, o.PlacedOffset, o.ValidOffset)
	}
	if _, ok := m.ids[o.ID]; ok {
		return fmt.Errorf("%w: %s", errDuplicateOrderID, o.ID)
	}
	key := o.Slot()
	s, ok := m.slots[key]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownSlot, key)
	}
	switch o.Side {
	case common.Buy:
		switch {
		case s.state == PendingBuy && s.buys >= s.maxBuys:
			return fmt.Errorf("%w: %s %d", errTooManyBuys, key, s.maxBuys)
		case s.state != Flat && s.state != PendingBuy:
			return fmt.Errorf("%w: %s %s is %s", errInvalidSlotState, o.Side, key, s.state)
		}
		s.state = PendingBuy
		s.buys++
	case common.Sell:
		switch s.state {
		case PendingSell:
			return fmt.Errorf("%w: %s", errSellAlreadyPending, key)
		case Long:
		default:
			return fmt.Errorf("%w: %s %s is %s", errInvalidSlotState, o.Side, key, s.state)
		}
		s.state = PendingSell
	default:
		return fmt.Errorf("%w: %q", common.ErrInvalidSide, o.Side)
	}
	m.ids[o.ID] = struct{}{}
	m.pending = append(m.pending, o)
	return nil
}

// Match settles every order for symbol valid at offset against bar. Sells
// are matched before buys and each side keeps placement order. A buy fills
// at its limit when the bar low reaches it and a sell fills at its limit
// when the bar high reaches it. Anything else expires
func (m *Matcher) Match(symbol string, offset int, bar *data.Bar) ([]Outcome, error) {
	if bar == nil {
		return nil, fmt.Errorf("%w: bar", gctcommon.ErrNilPointer)
	}
	var sells, buys []*PendingOrder
	remaining := m.pending[:0:0]
	for _, o := range m.pending {
		if o.Symbol != symbol {
			remaining = append(remaining, o)
			continue
		}
		switch {
		case o.ValidOffset < offset:
			return nil, gctcommon.Internal(fmt.Errorf("%w: %s valid %d at %d", ErrOrderOutsideValidBar, o.ID, o.ValidOffset, offset))
		case o.ValidOffset > offset:
			remaining = append(remaining, o)
		case o.Side == common.Sell:
			sells = append(sells, o)
		default:
			buys = append(buys, o)
		}
	}
	m.pending = remaining
	resp := make([]Outcome, 0, len(sells)+len(buys))
	for _, o := range sells {
		out := Outcome{Order: o, Status: Expired, Time: bar.Time, Offset: offset}
		if bar.High.GreaterThanOrEqual(o.LimitPrice) {
			out.Status = Filled
			out.Price = o.LimitPrice
		}
		m.settle(o, out.Status)
		resp = append(resp, out)
	}
	for _, o := range buys {
		out := Outcome{Order: o, Status: Expired, Time: bar.Time, Offset: offset}
		if bar.Low.LessThanOrEqual(o.LimitPrice) {
			out.Status = Filled
			out.Price = o.LimitPrice
		}
		m.settle(o, out.Status)
		resp = append(resp, out)
	}
	return resp, nil
}

// ExpireAll expires every pending order at the end of the data against the
// valid bar that never arrived. Orders are never filled here
func (m *Matcher) ExpireAll(reason string, t time.Time) []Outcome {
	resp := make([]Outcome, 0, len(m.pending))
	for _, o := range m.pending {
		m.settle(o, Expired)
		resp = append(resp, Outcome{Order: o, Status: Expired, Time: t, Offset: o.ValidOffset, Reason: reason})
	}
	m.pending = nil
	return resp
}

// Pending returns the orders resting for symbol in placement order. An empty
// symbol returns every pending order
func (m *Matcher) Pending(symbol string) []*PendingOrder {
	var resp []*PendingOrder
	for _, o := range m.pending {
		if symbol == "" || o.Symbol == symbol {
			resp = append(resp, o)
		}
	}
	return resp
}

func (m *Matcher) settle(o *PendingOrder, status Status) {
	s := m.slots[o.Slot()]
	if o.Side == common.Sell {
		if status == Filled {
			s.state = Flat
		} else {
			s.state = Long
		}
		return
	}
	s.buys--
	if status == Filled {
		s.filledBuy = true
	}
	if s.buys > 0 {
		return
	}
	if s.filledBuy {
		s.state = Long
	} else {
		s.state = Flat
	}
	s.filledBuy = false
}
