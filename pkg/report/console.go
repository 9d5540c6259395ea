package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/trader"
	"github.com/whale-tracker/pkg/whale"
)

var (
	title = color.New(color.FgCyan, color.Bold)
	good  = color.New(color.FgGreen)
	bad   = color.New(color.FgRed)
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return t
}

func PrintWhales(w io.Writer, whales []db.WhaleAddress) {
	title.Fprintf(w, "\n🐋 Top %d whales\n", len(whales))
	t := newTable(w, "#", "Address", "Chain", "Score", "Volume (USD)", "Txs", "Counterparts", "Label")
	for i, wh := range whales {
		label := wh.Label
		if label == "" {
			label = config.LookupAddress(wh.Address).Label
		}
		t.Append([]string{
			fmt.Sprint(i + 1), wh.Address, string(wh.Chain), fmt.Sprintf("%.2f", wh.WhaleScore),
			Money(wh.TotalVolumeUSD), fmt.Sprint(wh.TransactionCount), fmt.Sprint(wh.UniqueCounterparts), label,
		})
	}
	t.Render()
}

func PrintCandidates(w io.Writer, cs []whale.Candidate) {
	title.Fprintf(w, "\n🎯 %d whale candidates\n", len(cs))
	t := newTable(w, "#", "Address", "Score", "Volume (USD)", "Txs", "Avg Size", "Counterparts")
	for i, c := range cs {
		t.Append([]string{
			fmt.Sprint(i + 1), c.Address, fmt.Sprintf("%.2f", c.Score), Money(c.TotalVolume),
			fmt.Sprint(c.TransactionCount), Money(c.AvgTransactionSize), fmt.Sprint(c.UniqueCounterparts),
		})
	}
	t.Render()
}

func PrintTraders(w io.Writer, profiles []trader.Profile) {
	title.Fprintf(w, "\n💰 %d profitable traders\n", len(profiles))
	t := newTable(w, "#", "Wallet", "Score", "Tier", "Win Rate", "Total Profit", "Sessions", "Strategy")
	for i, p := range profiles {
		t.Append([]string{
			fmt.Sprint(i + 1), p.WalletAddress, fmt.Sprintf("%.1f", p.Score), p.Tier.Emoji() + " " + string(p.Tier),
			fmt.Sprintf("%.1f%%", p.Metrics.WinRate*100), Signed(p.Metrics.TotalProfit),
			fmt.Sprint(p.SessionCount), string(p.Pattern.PrimaryStrategy),
		})
	}
	t.Render()
}

// PrintSummary prints the banner shown after a report run.
func PrintSummary(w io.Writer, r *Report) {
	fmt.Fprintln(w, "\n"+strings.Repeat("═", 60))
	title.Fprintln(w, "  📊 WHALE TRACKER REPORT")
	fmt.Fprintln(w, strings.Repeat("═", 60))
	fmt.Fprintf(w, "  Generated:  %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(w, "  Whales:     %d tracked\n", r.Summary.TotalWhalesTracked)
	fmt.Fprintf(w, "  Traders:    %d profitable\n", r.Summary.TotalTraders)
	for _, d := range r.Summary.DailyStats {
		fmt.Fprintf(w, "  %-10s  %d txs, %s volume, %d addresses\n", d.Chain, d.TransactionCount, Money(d.TotalVolumeUSD), d.UniqueAddresses)
	}
	if len(r.TopWhales) > 0 {
		top := r.TopWhales[0]
		fmt.Fprintf(w, "  Top whale:  %s (score %.2f)\n", top.Address, top.WhaleScore)
	}
	fmt.Fprintln(w, strings.Repeat("═", 60))
}

// Money formats a USD amount with thousands separators.
func Money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// Signed colors a USD amount green when positive and red otherwise.
func Signed(v float64) string {
	if v > 0 {
		return good.Sprint("+" + Money(v))
	}
	return bad.Sprint(Money(v))
}
