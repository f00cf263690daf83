package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/common"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/backtester/funding"
	"github.com/thrasher-corp/gfobtester/backtester/orders"
	"github.com/thrasher-corp/gfobtester/backtester/portfolio/holdings"
	"github.com/thrasher-corp/gfobtester/backtester/statistics"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
	"github.com/thrasher-corp/gfobtester/log"
)

const limitNotReached = "limit not reached"

// tick advances every symbol with a bar at t, in configured order, then
// records the equity curve
func (r *run) tick(t time.Time) error {
	for _, s := range r.series {
		offset, ok := s.OffsetOf(t)
		if !ok {
			continue
		}
		bar, err := s.At(offset)
		if err != nil {
			return err
		}
		if err := r.processBar(s.Symbol(), offset, &bar); err != nil {
			return fmt.Errorf("%s offset %d: %w", s.Symbol(), offset, err)
		}
	}
	return r.recordEquity(t)
}

// processBar runs the fixed per bar sequence for one symbol: match what is
// valid now, fold the bar into the indicators, then place exits and entries
// valid on the next bar
func (r *run) processBar(symbol string, offset int, bar *data.Bar) error {
	outcomes, err := r.matcher.Match(symbol, offset, bar)
	if err != nil {
		return err
	}
	for i := range outcomes {
		if err := r.settle(&outcomes[i]); err != nil {
			return err
		}
	}
	if err := r.verify(); err != nil {
		return err
	}

	snap := r.pipelines[symbol].Update(*bar)
	r.latest[symbol] = bar.Close
	for _, o := range r.observers {
		o.OnBar(symbol, offset)
	}
	if r.settings.KeepBarLog {
		r.result.BarLog = append(r.result.BarLog, statistics.BarRecord{
			Symbol: symbol,
			Offset: offset,
			Time:   bar.Time,
			Close:  bar.Close,
			Phase:  snap.Phase.String(),
			Values: snap.Values(),
		})
	}

	warm := offset+1 >= r.warmup
	for _, s := range r.slots[symbol] {
		var err error
		ctx := &conditions.Context{
			Symbol:   symbol,
			Strategy: s.key.Strategy,
			Offset:   offset,
			Time:     bar.Time,
			Bar:      *bar,
			Snapshot: snap,
		}
		switch r.matcher.State(s.key) {
		case orders.Long:
			err = r.evaluateExit(s, ctx)
		case orders.Flat:
			if warm {
				err = r.evaluateEntry(s, ctx)
			}
		}
		if err != nil {
			return err
		}
	}
	return r.verify()
}

// evaluateExit places a sell for the whole position when an exit rule
// triggers
func (r *run) evaluateExit(s *slot, ctx *conditions.Context) error {
	if s.position == nil {
		return gctcommon.Internal(fmt.Errorf("%w: %s is long with no position", ErrPositionWithoutDebit, s.key))
	}
	ctx.Position = s.position
	rule, res, ok := s.definition.EvaluateExit(ctx)
	if !ok {
		return nil
	}
	if rule.Once {
		s.position.Flag(base.OnceFlag(rule.Name))
	}
	reason := rule.Name
	if res.Reason != "" {
		reason += ": " + res.Reason
	}
	limit := ctx.Bar.Close
	if res.HasPrice {
		limit = res.Price
	}
	limit = limit.Round(r.settings.PricePrecision)
	if !limit.IsPositive() {
		r.reject(s, ctx, common.Sell, limit, PrecisionRejection)
		return nil
	}
	l, err := r.pool.LedgerFor(ctx.Symbol)
	if err != nil {
		return err
	}
	o := &orders.PendingOrder{
		ID:           r.orderID(s.key, ctx.Offset, common.Sell, 0),
		Symbol:       ctx.Symbol,
		Strategy:     s.key.Strategy,
		Side:         common.Sell,
		LimitPrice:   limit,
		Quantity:     s.position.Quantity,
		Notional:     limit.Mul(s.position.Quantity),
		SignalOffset: ctx.Offset,
		PlacedOffset: ctx.Offset,
		ValidOffset:  ctx.Offset + 1,
		PlacedTime:   ctx.Time,
		Reason:       reason,
		Ledger:       l.Name(),
	}
	if err := r.matcher.Place(o); err != nil {
		return gctcommon.Internal(err)
	}
	r.record(o, statistics.OrderPlaced, ctx.Time, ctx.Offset, decimal.Zero, reason)
	return nil
}

// evaluateEntry runs filters and the entry condition for a flat slot and,
// capacity and funds permitting, freezes capital for one buy per sizing
// level
func (r *run) evaluateEntry(s *slot, ctx *conditions.Context) error {
	res, skipped := s.definition.EvaluateEntry(ctx)
	if skipped != "" {
		r.result.IncrementExtension("skipped:" + skipped)
		return nil
	}
	if !res.Triggered {
		return nil
	}
	r.result.IncrementExtension("signals:" + s.key.Strategy)
	entry := ctx.Bar.Close
	if res.HasPrice {
		entry = res.Price
	}

	tracker := r.pool.Tracker()
	if !tracker.CanOpenPosition() {
		r.reject(s, ctx, common.Buy, entry, CapacityRejection)
		return nil
	}
	notional, err := r.pool.Size(ctx.Symbol, s.definition.Sizing.PositionFraction)
	if errors.Is(err, funding.ErrNoCapacity) {
		r.reject(s, ctx, common.Buy, entry, CapacityRejection)
		return nil
	}
	if err != nil {
		return err
	}
	if !notional.IsPositive() {
		r.reject(s, ctx, common.Buy, entry, FundsRejection)
		return nil
	}
	l, err := r.pool.LedgerFor(ctx.Symbol)
	if err != nil {
		return err
	}

	feeMultiplier := one.Add(r.settings.FeeRate)
	levels := s.definition.Sizing.Levels
	buys := make([]*orders.PendingOrder, 0, len(levels))
	costs := make([]decimal.Decimal, 0, len(levels))
	for i := range levels {
		limit := entry.Mul(one.Add(levels[i].Offset)).Round(r.settings.PricePrecision)
		if !limit.IsPositive() {
			continue
		}
		qty, _ := notional.Mul(levels[i].Weight).QuoRem(limit.Mul(feeMultiplier), r.settings.QuantityPrecision)
		if !qty.IsPositive() {
			continue
		}
		reason := res.Reason
		if reason == "" {
			reason = s.key.Strategy
		}
		if len(levels) > 1 {
			reason = fmt.Sprintf("%s level %d", reason, i+1)
		}
		buys = append(buys, &orders.PendingOrder{
			ID:           r.orderID(s.key, ctx.Offset, common.Buy, i),
			Symbol:       ctx.Symbol,
			Strategy:     s.key.Strategy,
			Side:         common.Buy,
			Level:        i,
			LimitPrice:   limit,
			Quantity:     qty,
			Notional:     limit.Mul(qty),
			SignalOffset: ctx.Offset,
			PlacedOffset: ctx.Offset,
			ValidOffset:  ctx.Offset + 1,
			PlacedTime:   ctx.Time,
			Reason:       reason,
			Ledger:       l.Name(),
		})
		costs = append(costs, limit.Mul(qty).Mul(feeMultiplier))
	}
	if len(buys) == 0 {
		r.reject(s, ctx, common.Buy, entry, PrecisionRejection)
		return nil
	}

	if err := tracker.Reserve(s.key.String()); err != nil {
		return gctcommon.Internal(err)
	}
	s.reserved = true
	for i := range buys {
		if err := l.Freeze(costs[i]); err != nil {
			return gctcommon.Internal(err)
		}
		if err := r.matcher.Place(buys[i]); err != nil {
			return gctcommon.Internal(err)
		}
		r.frozen[buys[i].ID] = costs[i]
		r.record(buys[i], statistics.OrderPlaced, ctx.Time, ctx.Offset, decimal.Zero, buys[i].Reason)
	}
	return nil
}

// settle applies one matched or expired order to the ledger, the position
// tracker and the slot's position
func (r *run) settle(out *orders.Outcome) error {
	o := out.Order
	s, err := r.slot(o.Slot())
	if err != nil {
		return err
	}
	l, err := r.pool.LedgerFor(o.Symbol)
	if err != nil {
		return err
	}
	tracker := r.pool.Tracker()
	fee := decimal.Zero
	reason := o.Reason
	switch {
	case out.Status == orders.Expired:
		reason = out.Reason
		if reason == "" {
			reason = limitNotReached
		}
		if o.Side == common.Buy {
			if err := l.Unfreeze(r.frozen[o.ID]); err != nil {
				return gctcommon.Internal(err)
			}
			delete(r.frozen, o.ID)
		}
	case o.Side == common.Buy:
		value := out.Price.Mul(o.Quantity)
		fee = value.Mul(r.settings.FeeRate)
		if err := l.Settle(r.frozen[o.ID], value.Add(fee)); err != nil {
			return gctcommon.Internal(err)
		}
		delete(r.frozen, o.ID)
		if s.position == nil {
			if err := tracker.Open(s.key.String()); err != nil {
				return gctcommon.Internal(err)
			}
			s.reserved = false
			s.position = holdings.NewPosition(o.Symbol, o.Strategy)
		}
		if err := s.position.AddFill(&holdings.Fill{
			Price:        out.Price,
			Quantity:     o.Quantity,
			Fee:          fee,
			Time:         out.Time,
			Offset:       out.Offset,
			SignalOffset: o.SignalOffset,
			Reason:       o.Reason,
		}); err != nil {
			return gctcommon.Internal(err)
		}
	default:
		if s.position == nil {
			return gctcommon.Internal(fmt.Errorf("%w: sell %s filled for %s with no position", ErrPositionWithoutDebit, o.ID, s.key))
		}
		fee = out.Price.Mul(o.Quantity).Mul(r.settings.FeeRate)
		trade, err := s.position.Close(&holdings.Fill{
			Price:    out.Price,
			Quantity: o.Quantity,
			Fee:      fee,
			Time:     out.Time,
			Offset:   out.Offset,
			Reason:   o.Reason,
		})
		if err != nil {
			return gctcommon.Internal(err)
		}
		if err := l.Realise(trade.CostBasis, trade.Proceeds); err != nil {
			return gctcommon.Internal(err)
		}
		if err := tracker.Close(s.key.String()); err != nil {
			return gctcommon.Internal(err)
		}
		s.position = nil
		r.result.Trades = append(r.result.Trades, trade)
		for _, obs := range r.observers {
			obs.OnTrade(trade)
		}
		log.Debugf(log.BackTester, "%s closed at %v profit %v after %d bars", s.key, trade.ExitPrice, trade.Profit, trade.HoldingBars)
	}
	if s.reserved && s.position == nil && r.matcher.State(s.key) == orders.Flat {
		if err := tracker.Release(s.key.String()); err != nil {
			return gctcommon.Internal(err)
		}
		s.reserved = false
	}
	r.record(o, statistics.OrderEvent(out.Status), out.Time, out.Offset, fee, reason)
	return nil
}

// verify checks every ledger balances and that held and frozen capital is
// exactly what the open positions and resting buys account for
func (r *run) verify() error {
	if err := r.pool.Verify(); err != nil {
		return gctcommon.Internal(err)
	}
	tracker := r.pool.Tracker()
	holding := make(map[string]decimal.Decimal)
	frozen := make(map[string]decimal.Decimal)
	var open int
	for _, symbol := range r.result.Symbols {
		l, err := r.pool.LedgerFor(symbol)
		if err != nil {
			return err
		}
		for _, s := range r.slots[symbol] {
			if s.position == nil {
				continue
			}
			holding[l.Name()] = holding[l.Name()].Add(s.position.CostBasis)
			if !tracker.IsOpen(s.key.String()) {
				return gctcommon.Internal(fmt.Errorf("%w: %s", ErrUntrackedPosition, s.key))
			}
			open++
		}
	}
	for _, o := range r.matcher.Pending("") {
		if o.Side == common.Buy {
			frozen[o.Ledger] = frozen[o.Ledger].Add(r.frozen[o.ID])
		}
	}
	for _, l := range r.pool.Ledgers() {
		if !holding[l.Name()].Equal(l.HoldingCost()) || !frozen[l.Name()].Equal(l.Frozen()) {
			return gctcommon.Internal(fmt.Errorf("%w: %s positions %v resting buys %v",
				ErrPositionWithoutDebit, l, holding[l.Name()], frozen[l.Name()]))
		}
	}
	if open != tracker.OpenPositions() {
		return gctcommon.Internal(fmt.Errorf("%w: %d positions held, %d tracked", ErrUntrackedPosition, open, tracker.OpenPositions()))
	}
	return nil
}

// recordEquity appends book and marked equity at the close of t
func (r *run) recordEquity(t time.Time) error {
	total := r.pool.TotalEquity()
	marked := total
	for _, symbol := range r.result.Symbols {
		for _, s := range r.slots[symbol] {
			if s.position != nil {
				marked = marked.Add(s.position.UnrealisedProfit(r.latest[symbol]))
			}
		}
	}
	if err := r.result.AddEquityPoint(t, total, marked); err != nil {
		return err
	}
	p := r.result.EquityCurve[len(r.result.EquityCurve)-1]
	for _, o := range r.observers {
		o.OnEquity(p)
	}
	return nil
}

func (r *run) slot(key orders.SlotKey) (*slot, error) {
	for _, s := range r.slots[key.Symbol] {
		if s.key == key {
			return s, nil
		}
	}
	return nil, gctcommon.Internal(fmt.Errorf("unknown slot %s", key))
}

func (r *run) orderID(key orders.SlotKey, offset int, side common.Side, level int) string {
	return uuid.NewV5(r.id, fmt.Sprintf("%s/%d/%s/%d", key, offset, side, level)).String()
}

// reject records an entry or exit that could not become an order
func (r *run) reject(s *slot, ctx *conditions.Context, side common.Side, limit decimal.Decimal, reason string) {
	rec := &statistics.OrderRecord{
		Event:      statistics.OrderRejected,
		Time:       ctx.Time,
		Offset:     ctx.Offset,
		Symbol:     ctx.Symbol,
		Strategy:   s.key.Strategy,
		Side:       side,
		LimitPrice: limit,
		Reason:     reason,
	}
	r.result.IncrementExtension("rejected:" + reason)
	r.addRecord(rec)
}

func (r *run) record(o *orders.PendingOrder, event statistics.OrderEvent, t time.Time, offset int, fee decimal.Decimal, reason string) {
	r.addRecord(&statistics.OrderRecord{
		OrderID:    o.ID,
		Event:      event,
		Time:       t,
		Offset:     offset,
		Symbol:     o.Symbol,
		Strategy:   o.Strategy,
		Side:       o.Side,
		LimitPrice: o.LimitPrice,
		Quantity:   o.Quantity,
		Notional:   o.Notional,
		Fee:        fee,
		Reason:     reason,
	})
}

func (r *run) addRecord(rec *statistics.OrderRecord) {
	r.result.AddOrderRecord(rec)
	for _, o := range r.observers {
		o.OnOrder(rec)
	}
	log.Debugf(log.OrderMgr, "%s %s %s %s/%s limit %v quantity %v offset %d %s",
		rec.Event, rec.OrderID, rec.Side, rec.Symbol, rec.Strategy, rec.LimitPrice, rec.Quantity, rec.Offset, rec.Reason)
}
