package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whale-tracker/pkg/config"
	"github.com/whale-tracker/pkg/db"
)

type stubSource struct {
	calls int
	err   error
}

func (s *stubSource) GetStats() (map[string]int64, error) {
	s.calls++
	return map[string]int64{"transactions": 12, "whale_addresses": 2}, nil
}

func (s *stubSource) GetTopWhales(int) ([]db.WhaleAddress, error) {
	return []db.WhaleAddress{{Address: "0xwhale", Chain: config.ChainEthereum, WhaleScore: 290, TotalVolumeUSD: 10_000_000}}, nil
}

func (s *stubSource) GetTopTraders(int) ([]db.ProfitableTrader, error) {
	return []db.ProfitableTrader{{WalletAddress: "0xtrader", ProfitabilityScore: 920, Tier: "ELITE", WinRate: 0.8}}, s.err
}

func (s *stubSource) GetRecentTransactions(int) ([]db.Transaction, error) {
	return []db.Transaction{{Hash: "0x1", Chain: config.ChainBase, FromAddress: "0xaaaaaaaaaaaaaaaaaaaa", ToAddress: "0xb", TokenSymbol: "USDC", ValueUSD: 150000, Timestamp: 1714564800}}, nil
}

func loaded(t *testing.T, src Source) Model {
	t.Helper()
	m := New(src, time.Second)
	msg := m.load()()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestViewBeforeLoad(t *testing.T) {
	m := New(&stubSource{}, 0)
	assert.Equal(t, 15*time.Second, m.interval)
	assert.Contains(t, m.View(), "loading")
}

func TestSnapshotRendersWhales(t *testing.T) {
	m := loaded(t, &stubSource{})
	v := m.View()
	assert.Contains(t, v, "txs 12")
	assert.Contains(t, v, "0xwhale")
	assert.Contains(t, v, "$10,000,000")
}

func TestTabSwitching(t *testing.T) {
	m := loaded(t, &stubSource{})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, tabTraders, m.active)
	assert.Contains(t, m.View(), "0xtrader")
	assert.Contains(t, m.View(), "80.0%")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	m = next.(Model)
	assert.Equal(t, tabTransactions, m.active)
	assert.Contains(t, m.View(), "2024-05-01 12:00:00")
	assert.Contains(t, m.View(), "0xaaaa...aaaaa")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, tabTraders, next.(Model).active)
}

func TestTickReloads(t *testing.T) {
	src := &stubSource{}
	m := New(src, time.Second)
	_, cmd := m.Update(tickMsg(time.Now()))
	require.NotNil(t, cmd)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	next.(Model).load()()
	assert.Equal(t, 1, src.calls)
}

func TestQuit(t *testing.T) {
	m := New(&stubSource{}, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLoadErrorShown(t *testing.T) {
	m := loaded(t, &stubSource{err: errors.New("db locked")})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	assert.Contains(t, next.(Model).View(), "db locked")
}
