// Package tui is a live terminal view over the whale store.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/whale-tracker/pkg/db"
	"github.com/whale-tracker/pkg/report"
)

type Source interface {
	GetStats() (map[string]int64, error)
	GetTopWhales(limit int) ([]db.WhaleAddress, error)
	GetTopTraders(limit int) ([]db.ProfitableTrader, error)
	GetRecentTransactions(limit int) ([]db.Transaction, error)
}

type tab int

const (
	tabWhales tab = iota
	tabTraders
	tabTransactions
)

var tabNames = []string{"Whales", "Traders", "Transactions"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	activeTab   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("33")).Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type snapshot struct {
	stats   map[string]int64
	whales  []db.WhaleAddress
	traders []db.ProfitableTrader
	txs     []db.Transaction
	err     error
	at      time.Time
}

type snapshotMsg snapshot

type tickMsg time.Time

type Model struct {
	src      Source
	interval time.Duration
	limit    int
	active   tab
	snap     snapshot
	loaded   bool
}

func New(src Source, interval time.Duration) Model {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return Model{src: src, interval: interval, limit: 15}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) load() tea.Cmd {
	src, limit := m.src, m.limit
	return func() tea.Msg {
		s := snapshot{at: time.Now()}
		var errs []error
		var err error
		s.stats, err = src.GetStats()
		errs = append(errs, err)
		s.whales, err = src.GetTopWhales(limit)
		errs = append(errs, err)
		s.traders, err = src.GetTopTraders(limit)
		errs = append(errs, err)
		s.txs, err = src.GetRecentTransactions(limit)
		errs = append(errs, err)
		s.err = errors.Join(errs...)
		return snapshotMsg(s)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.active = (m.active + 1) % tab(len(tabNames))
		case "shift+tab", "left", "h":
			m.active = (m.active + tab(len(tabNames)) - 1) % tab(len(tabNames))
		case "1", "2", "3":
			m.active = tab(msg.String()[0] - '1')
		case "r":
			return m, m.load()
		}
	case tickMsg:
		return m, tea.Batch(m.load(), m.tick())
	case snapshotMsg:
		m.snap = snapshot(msg)
		m.loaded = true
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🐋 Whale Tracker"))
	if m.loaded {
		b.WriteString(helpStyle.Render("  updated " + m.snap.at.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString("loading...\n")
		return b.String()
	}

	s := m.snap.stats
	b.WriteString(statStyle.Render(fmt.Sprintf("txs %d · whales %d · false positives %d · traders %d · elite %d",
		s["transactions"], s["whale_addresses"], s["false_positives"], s["profitable_traders"], s["elite_traders"])))
	b.WriteString("\n\n")

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.active {
			tabs[i] = activeTab.Render(name)
		} else {
			tabs[i] = inactiveTab.Render(name)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	switch m.active {
	case tabWhales:
		b.WriteString(m.whalesView())
	case tabTraders:
		b.WriteString(m.tradersView())
	case tabTransactions:
		b.WriteString(m.txView())
	}

	if m.snap.err != nil {
		b.WriteString("\n" + errStyle.Render("⚠️  "+m.snap.err.Error()) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("tab/1-3 switch · r refresh · q quit"))
	return b.String()
}

func (m Model) whalesView() string {
	if len(m.snap.whales) == 0 {
		return helpStyle.Render("no whales yet") + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-3s %-44s %-9s %8s %16s %5s", "#", "ADDRESS", "CHAIN", "SCORE", "VOLUME", "TXS")) + "\n")
	for i, w := range m.snap.whales {
		fmt.Fprintf(&b, "%-3d %-44s %-9s %8.2f %16s %5d\n", i+1, w.Address, w.Chain, w.WhaleScore, report.Money(w.TotalVolumeUSD), w.TransactionCount)
	}
	return b.String()
}

func (m Model) tradersView() string {
	if len(m.snap.traders) == 0 {
		return helpStyle.Render("no profitable traders yet") + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-3s %-44s %7s %-10s %7s %14s %-13s", "#", "WALLET", "SCORE", "TIER", "WIN", "PROFIT", "STRATEGY")) + "\n")
	for i, t := range m.snap.traders {
		fmt.Fprintf(&b, "%-3d %-44s %7.1f %-10s %6.1f%% %14s %-13s\n", i+1, t.WalletAddress, t.ProfitabilityScore, t.Tier,
			t.WinRate*100, report.Money(t.TotalProfit), t.TradingStrategy)
	}
	return b.String()
}

func (m Model) txView() string {
	if len(m.snap.txs) == 0 {
		return helpStyle.Render("no transactions stored") + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-19s %-9s %-14s %-14s %-8s %14s", "TIME (UTC)", "CHAIN", "FROM", "TO", "TOKEN", "USD")) + "\n")
	for _, tx := range m.snap.txs {
		fmt.Fprintf(&b, "%-19s %-9s %-14s %-14s %-8s %14s\n", time.Unix(tx.Timestamp, 0).UTC().Format("2006-01-02 15:04:05"),
			tx.Chain, short(tx.FromAddress), short(tx.ToAddress), tx.TokenSymbol, report.Money(tx.ValueUSD))
	}
	return b.String()
}

func short(a string) string {
	if len(a) <= 14 {
		return a
	}
	return a[:6] + "..." + a[len(a)-5:]
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, src Source, interval time.Duration) error {
	p := tea.NewProgram(New(src, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
