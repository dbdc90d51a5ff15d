package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// StockLine is one symbol in a price report. Err marks a failed lookup;
// a nil Price with no Err means the provider had no data. A price without a
// usable previous close renders as an error too.
type StockLine struct {
	Symbol        string
	Price         *float64
	PreviousClose *float64
	Err           error
}

type BuyZoneAlert struct {
	Symbol string
	Price  float64
	Target float64
}

type StockReport struct {
	At      time.Time
	BucketA []StockLine
	BucketB []StockLine
	Alerts  []BuyZoneAlert
}

const stockTimeLayout = "02 Jan 2006 15:04"

func PriceReport(r StockReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 📈 Price Report (%s)\n\n", r.At.Format(stockTimeLayout))
	b.WriteString("### 🛡️ Proven Stocks (Bucket A)\n")
	b.WriteString(stockSection(r.BucketA))
	b.WriteString("\n### 💎 High Risk (Bucket B)\n")
	b.WriteString(stockSection(r.BucketB))
	if len(r.Alerts) > 0 {
		b.WriteString("\n")
		for _, a := range r.Alerts {
			fmt.Fprintf(&b, "🚨 **%s** is in Buy Zone! ($%.2f < $%s)\n", a.Symbol, a.Price, formatTarget(a.Target))
		}
	}
	return b.String()
}

func stockSection(lines []StockLine) string {
	if len(lines) == 0 {
		return "_(Empty)_\n"
	}
	var b strings.Builder
	for _, l := range lines {
		switch {
		case l.Err != nil:
			fmt.Fprintf(&b, "• **%s**: ⚠️ Error\n", l.Symbol)
		case l.Price == nil:
			fmt.Fprintf(&b, "• **%s**: ⚠️ No Data\n", l.Symbol)
		case l.PreviousClose == nil || *l.PreviousClose == 0:
			fmt.Fprintf(&b, "• **%s**: ⚠️ Error\n", l.Symbol)
		default:
			fmt.Fprintf(&b, "• **%s**: %.2f (%s)\n", l.Symbol, *l.Price, Movement(*l.Price, *l.PreviousClose))
		}
	}
	return b.String()
}

// Movement renders the change against the previous close, which must be non-zero.
func Movement(price, prev float64) string {
	pct := price/prev*100 - 100
	switch {
	case price > prev:
		return fmt.Sprintf("🟢 +%.2f%%", pct)
	case price < prev:
		return fmt.Sprintf("🔴 %.2f%%", pct)
	default:
		return "⚪ 0.00%"
	}
}

// formatTarget prints the shortest decimal that round-trips, with a trailing
// ".0" for whole numbers and exponent form outside [1e-4, 1e16).
func formatTarget(v float64) string {
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
