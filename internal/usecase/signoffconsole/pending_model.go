// Package signoffconsole is a read-only terminal view over a program's
// pending sign-offs. Approvals and revocations happen through the API or the
// CLI; the console only watches.
package signoffconsole

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	signoffuc "stagegate/internal/usecase/signoff"
)

const maxShownHistory = 6

type PendingService interface {
	GetPending(ctx context.Context, tenantID uint64, programID uint64, entityType string) ([]signoffuc.PendingItem, error)
	GetHistory(ctx context.Context, tenantID uint64, programID uint64, entityType string, entityID string) ([]signoffuc.Record, error)
	GetSummary(ctx context.Context, tenantID uint64, programID uint64) (map[string]signoffuc.TypeSummary, error)
}

type PendingOptions struct {
	TenantID        uint64
	ProgramID       uint64
	EntityType      string
	RefreshInterval time.Duration
}

type pendingModel struct {
	ctx             context.Context
	service         PendingService
	tenantID        uint64
	programID       uint64
	entityType      string
	refreshInterval time.Duration

	items         []signoffuc.PendingItem
	selectedIndex int
	history       []signoffuc.Record
	hasHistory    bool
	summary       map[string]signoffuc.TypeSummary
	status        string
}

type pendingLoadedMsg struct {
	items   []signoffuc.PendingItem
	summary map[string]signoffuc.TypeSummary
	err     error
}

type historyLoadedMsg struct {
	entityType string
	entityID   string
	records    []signoffuc.Record
	err        error
}

type tickMsg struct{}

func NewPendingModel(ctx context.Context, service PendingService, options PendingOptions) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &pendingModel{
		ctx:             ctx,
		service:         service,
		tenantID:        options.TenantID,
		programID:       options.ProgramID,
		entityType:      strings.TrimSpace(options.EntityType),
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *pendingModel) Init() tea.Cmd {
	return tea.Batch(m.loadPendingCmd(), m.tickCmd())
}

func (m *pendingModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadPendingCmd(), m.tickCmd())
	case pendingLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.items = msg.items
		m.summary = msg.summary
		if len(m.items) == 0 {
			m.selectedIndex = 0
			m.hasHistory = false
			m.status = "no pending sign-offs"
			return m, nil
		}
		if m.selectedIndex >= len(m.items) {
			m.selectedIndex = len(m.items) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d pending", len(m.items))
		return m, m.loadSelectedHistoryCmd()
	case historyLoadedMsg:
		if !m.isCurrentSelection(msg.entityType, msg.entityID) {
			return m, nil
		}
		if msg.err != nil {
			m.hasHistory = false
			m.status = "history load failed: " + msg.err.Error()
			return m, nil
		}
		m.history = msg.records
		m.hasHistory = true
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadPendingCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedHistoryCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.items)-1 {
				m.selectedIndex++
				return m, m.loadSelectedHistoryCmd()
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *pendingModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Sign-off Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"tenant=%d program=%d type=%s refresh=%s",
		m.tenantID,
		m.programID,
		firstNonEmpty(m.entityType, "all"),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Pending"))
	builder.WriteString("\n")
	if len(m.items) == 0 {
		builder.WriteString(dimStyle.Render("- nothing pending"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.items {
			actor := firstNonEmpty(item.LastActorNameSnapshot, item.LastActor, "-")
			line := fmt.Sprintf("%s/%s last=%s by=%s at=%s", item.EntityType, item.EntityID, item.LastAction, actor, item.LastChangedAt)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("History"))
	builder.WriteString("\n")
	if !m.hasHistory {
		builder.WriteString(dimStyle.Render("- no history"))
		builder.WriteString("\n\n")
	} else {
		records := m.history
		start := len(records) - maxShownHistory
		if start < 0 {
			start = 0
		}
		for _, record := range records[start:] {
			line := fmt.Sprintf("- r%d %s by %s", record.RecordID, record.Action, firstNonEmpty(record.ApproverNameSnapshot, record.ApproverID))
			if record.Comment != "" {
				line += " (" + record.Comment + ")"
			}
			builder.WriteString(line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Summary"))
	builder.WriteString("\n")
	if len(m.summary) == 0 {
		builder.WriteString(dimStyle.Render("- no sign-off activity"))
		builder.WriteString("\n\n")
	} else {
		for entityType, tally := range m.summary {
			builder.WriteString(fmt.Sprintf("- %s total=%d approved=%d revoked=%d override=%d\n",
				entityType, tally.Total, tally.Approved, tally.Revoked, tally.Override))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(dimStyle.Render("Keys: up/k down/j move  g refresh  q quit"))
	return builder.String()
}

func (m *pendingModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *pendingModel) loadPendingCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.service.GetPending(m.ctx, m.tenantID, m.programID, m.entityType)
		if err != nil {
			return pendingLoadedMsg{err: err}
		}
		summary, err := m.service.GetSummary(m.ctx, m.tenantID, m.programID)
		if err != nil {
			return pendingLoadedMsg{err: err}
		}
		return pendingLoadedMsg{items: items, summary: summary}
	}
}

func (m *pendingModel) loadSelectedHistoryCmd() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	selected := m.items[m.selectedIndex]
	return func() tea.Msg {
		records, err := m.service.GetHistory(m.ctx, m.tenantID, m.programID, selected.EntityType, selected.EntityID)
		if err != nil {
			return historyLoadedMsg{
				entityType: selected.EntityType,
				entityID:   selected.EntityID,
				err:        err,
			}
		}
		return historyLoadedMsg{
			entityType: selected.EntityType,
			entityID:   selected.EntityID,
			records:    records,
		}
	}
}

func (m *pendingModel) isCurrentSelection(entityType string, entityID string) bool {
	if len(m.items) == 0 || m.selectedIndex >= len(m.items) {
		return false
	}
	selected := m.items[m.selectedIndex]
	return selected.EntityType == entityType && selected.EntityID == entityID
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
