package statistics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/common"
	gctmath "github.com/thrasher-corp/gfobtester/common/math"
	"github.com/thrasher-corp/gfobtester/encoding/json"
	"github.com/thrasher-corp/gfobtester/log"
)

var oneHundred = decimal.NewFromInt(100)

const yearDuration = 365 * 24 * time.Hour

// NewResult returns an empty result for a run
func NewResult(runID string, initialCapital decimal.Decimal) *Result {
	return &Result{
		RunID:          runID,
		InitialCapital: initialCapital,
		Extensions:     make(map[string]int64),
	}
}

// IncrementExtension adds one to a strategy specific counter
func (r *Result) IncrementExtension(key string) {
	r.AddExtension(key, 1)
}

// AddExtension adds n to a strategy specific counter
func (r *Result) AddExtension(key string, n int64) {
	if r.Extensions == nil {
		r.Extensions = make(map[string]int64)
	}
	r.Extensions[key] += n
}

// AddEquityPoint appends to the equity curve
func (r *Result) AddEquityPoint(t time.Time, totalEquity, markedEquity decimal.Decimal) error {
	if n := len(r.EquityCurve); n > 0 && !t.After(r.EquityCurve[n-1].Time) {
		return fmt.Errorf("%w: %v after %v", errMismatchedEquities, t, r.EquityCurve[n-1].Time)
	}
	r.EquityCurve = append(r.EquityCurve, EquityPoint{Time: t, TotalEquity: totalEquity, MarkedEquity: markedEquity})
	return nil
}

// AddOrderRecord appends to the order log
func (r *Result) AddOrderRecord(o *OrderRecord) {
	r.OrderLog = append(r.OrderLog, *o)
}

// Calculate computes the summary statistics from the trades, the order log
// and the equity curve. riskFreeRate is per bar
func (r *Result) Calculate(riskFreeRate float64) error {
	if !r.InitialCapital.IsPositive() {
		return fmt.Errorf("%w, received %v", errInvalidInitial, r.InitialCapital)
	}
	if len(r.EquityCurve) == 0 {
		return errNoEquityCurve
	}
	s := Summary{
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
		NetProfit:   decimal.Zero,
		TotalFees:   decimal.Zero,
	}
	var holdingBars int
	for _, t := range r.Trades {
		s.TotalTrades++
		holdingBars += t.HoldingBars
		s.TotalFees = s.TotalFees.Add(t.Fees)
		s.NetProfit = s.NetProfit.Add(t.Profit)
		switch {
		case t.IsWin():
			s.WinningTrades++
			s.GrossProfit = s.GrossProfit.Add(t.Profit)
		case t.Profit.IsNegative():
			s.LosingTrades++
			s.GrossLoss = s.GrossLoss.Add(t.Profit.Abs())
		}
	}
	if s.TotalTrades > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.WinningTrades)).Div(decimal.NewFromInt(int64(s.TotalTrades))).Mul(oneHundred).Round(4)
		s.AverageHoldingBars = float64(holdingBars) / float64(s.TotalTrades)
	}
	if s.GrossLoss.IsPositive() {
		s.ProfitFactor = s.GrossProfit.Div(s.GrossLoss).Round(8)
	}
	for i := range r.OrderLog {
		switch r.OrderLog[i].Event {
		case OrderPlaced:
			s.OrdersPlaced++
		case OrderFilled:
			s.OrdersFilled++
		case OrderExpired:
			s.OrdersExpired++
		case OrderRejected:
			s.OrdersRejected++
		}
	}

	first := r.EquityCurve[0]
	last := r.EquityCurve[len(r.EquityCurve)-1]
	r.StartDate = first.Time
	r.EndDate = last.Time
	s.FinalEquity = last.TotalEquity
	s.ReturnRate = last.TotalEquity.Sub(r.InitialCapital).Div(r.InitialCapital).Mul(oneHundred).Round(8)
	s.MaxDrawdown = CalculateMaxDrawdown(r.EquityCurve)

	if intervals := len(r.EquityCurve) - 1; intervals > 0 {
		step := last.Time.Sub(first.Time) / time.Duration(intervals)
		if step > 0 {
			perYear := float64(yearDuration) / float64(step)
			cagr, err := gctmath.CalculateCompoundAnnualGrowthRate(
				r.InitialCapital.InexactFloat64(),
				last.TotalEquity.InexactFloat64(),
				perYear,
				float64(intervals))
			if err != nil {
				log.Warnf(log.BackTester, "could not calculate annualised return: %v", err)
			} else {
				s.AnnualisedReturn = cagr
			}
		}
		returns := make([]float64, intervals)
		for i := 1; i < len(r.EquityCurve); i++ {
			prev := r.EquityCurve[i-1].MarkedEquity
			if prev.IsPositive() {
				returns[i-1] = r.EquityCurve[i].MarkedEquity.Sub(prev).Div(prev).InexactFloat64()
			}
		}
		avg := gctmath.ArithmeticAverage(returns)
		if sharpe, err := gctmath.CalculateSharpeRatio(returns, riskFreeRate, avg); err == nil {
			s.SharpeRatio = sharpe
		}
		if sortino, err := gctmath.CalculateSortinoRatio(returns, riskFreeRate, avg); err == nil {
			s.SortinoRatio = sortino
		}
		if calmar, err := gctmath.CalculateCalmarRatio(s.AnnualisedReturn, s.MaxDrawdown.DrawdownPercent.InexactFloat64()); err == nil {
			s.CalmarRatio = calmar
		}
	}
	r.Summary = s
	return nil
}

// CalculateMaxDrawdown returns the largest peak to trough fall of marked
// equity as a percentage of the peak
func CalculateMaxDrawdown(curve []EquityPoint) Swing {
	var worst Swing
	if len(curve) == 0 {
		return worst
	}
	peak := ValueAtTime{Time: curve[0].Time, Value: curve[0].MarkedEquity}
	peakIndex := 0
	worst.DrawdownPercent = decimal.Zero
	for i := range curve {
		v := curve[i].MarkedEquity
		if v.GreaterThan(peak.Value) {
			peak = ValueAtTime{Time: curve[i].Time, Value: v}
			peakIndex = i
			continue
		}
		if !peak.Value.IsPositive() {
			continue
		}
		dd := v.Sub(peak.Value).Div(peak.Value).Mul(oneHundred).Round(8)
		if dd.LessThan(worst.DrawdownPercent) {
			worst = Swing{
				Highest:          peak,
				Lowest:           ValueAtTime{Time: curve[i].Time, Value: v},
				DrawdownPercent:  dd,
				IntervalDuration: int64(i - peakIndex),
			}
		}
	}
	return worst
}

// PrintResults outputs the summary to the log
func (r *Result) PrintResults() {
	s := &r.Summary
	log.Info(log.BackTester, "------------------Run----------------------------------------")
	log.Infof(log.BackTester, "Run ID: %v", r.RunID)
	log.Infof(log.BackTester, "Strategies: %v", r.Strategies)
	log.Infof(log.BackTester, "Symbols: %v", r.Symbols)
	log.Infof(log.BackTester, "Funding mode: %v", r.FundingMode)
	log.Infof(log.BackTester, "Period: %v to %v", r.StartDate.Format(time.DateTime), r.EndDate.Format(time.DateTime))
	if !r.Completed {
		log.Warn(log.BackTester, "Run was cancelled before the end of the data, results are partial")
	}
	log.Info(log.BackTester, "------------------Orders-------------------------------------")
	log.Infof(log.BackTester, "Placed: %v Filled: %v Expired: %v Rejected: %v", s.OrdersPlaced, s.OrdersFilled, s.OrdersExpired, s.OrdersRejected)
	log.Info(log.BackTester, "------------------Trades-------------------------------------")
	log.Infof(log.BackTester, "Total trades: %v", s.TotalTrades)
	log.Infof(log.BackTester, "Winning trades: %v", s.WinningTrades)
	log.Infof(log.BackTester, "Losing trades: %v", s.LosingTrades)
	log.Infof(log.BackTester, "Win rate: %v%%", s.WinRate.Round(2))
	log.Infof(log.BackTester, "Average holding bars: %.2f", s.AverageHoldingBars)
	log.Infof(log.BackTester, "Profit factor: %v", s.ProfitFactor.Round(4))
	log.Info(log.BackTester, "------------------Returns------------------------------------")
	log.Infof(log.BackTester, "Initial capital: %v", convertToString(r.InitialCapital))
	log.Infof(log.BackTester, "Final equity: %v", convertToString(s.FinalEquity))
	log.Infof(log.BackTester, "Net profit: %v", convertToString(s.NetProfit))
	log.Infof(log.BackTester, "Total fees: %v", convertToString(s.TotalFees))
	log.Infof(log.BackTester, "Return rate: %v%%", s.ReturnRate.Round(4))
	log.Infof(log.BackTester, "Annualised return: %.4f%%", s.AnnualisedReturn)
	log.Info(log.BackTester, "------------------Ratios-------------------------------------")
	log.Infof(log.BackTester, "Sharpe ratio: %.4f", s.SharpeRatio)
	log.Infof(log.BackTester, "Sortino ratio: %.4f", s.SortinoRatio)
	log.Infof(log.BackTester, "Calmar ratio: %.4f", s.CalmarRatio)
	if !s.MaxDrawdown.DrawdownPercent.IsZero() {
		log.Info(log.BackTester, "------------------Max Drawdown-------------------------------")
		log.Infof(log.BackTester, "Highest equity: %v at %v", convertToString(s.MaxDrawdown.Highest.Value), s.MaxDrawdown.Highest.Time.Format(time.DateTime))
		log.Infof(log.BackTester, "Lowest equity: %v at %v", convertToString(s.MaxDrawdown.Lowest.Value), s.MaxDrawdown.Lowest.Time.Format(time.DateTime))
		log.Infof(log.BackTester, "Calculated drawdown: %v%%", s.MaxDrawdown.DrawdownPercent.Round(2))
		log.Infof(log.BackTester, "Drawdown length: %v bars", s.MaxDrawdown.IntervalDuration)
	}
	if len(r.Extensions) > 0 {
		log.Info(log.BackTester, "------------------Extensions---------------------------------")
		for _, k := range r.ExtensionKeys() {
			log.Infof(log.BackTester, "%v: %v", k, r.Extensions[k])
		}
	}
}

// PrintTrades outputs every completed trade to the log
func (r *Result) PrintTrades() {
	log.Info(log.BackTester, "------------------Completed Trades---------------------------")
	for _, t := range r.Trades {
		log.Infof(log.BackTester, "%v | %v %v | %v @ %v -> %v @ %v | Profit: %v (%v%%) - Entry: %s - Exit: %s",
			t.ExitTime.Format(time.DateTime),
			t.Symbol,
			t.Strategy,
			t.EntryTime.Format(time.DateTime),
			t.EntryPrice,
			t.ExitTime.Format(time.DateTime),
			t.ExitPrice,
			t.Profit.Round(8),
			t.ReturnPercent.Round(2),
			t.EntryReason,
			t.ExitReason)
	}
}

// Serialise outputs the result in json
func (r *Result) Serialise() ([]byte, error) {
	return json.MarshalIndent(r, "", " ")
}

// SideCount returns how many order records of event are on side
func (r *Result) SideCount(event OrderEvent, side common.Side) int {
	var n int
	for i := range r.OrderLog {
		if r.OrderLog[i].Event == event && r.OrderLog[i].Side == side {
			n++
		}
	}
	return n
}
