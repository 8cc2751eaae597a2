package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skalibog/tradegate/pkg/logger"
	"github.com/skalibog/tradegate/pkg/models"
	"go.uber.org/zap"
)

// Стили UI
var (
	// Основные цвета
	primaryColor   = lipgloss.Color("#0077cc")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#cc3300")
	successColor   = lipgloss.Color("#33cc33")
	warningColor   = lipgloss.Color("#cccc00")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1).
			Align(lipgloss.Center)
	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ffffff")).
				Background(secondaryColor).
				Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#222222"))
	footerStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Padding(0, 1)
)

const (
	maxLogLines     = 50
	logRefreshEvery = time.Second
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// TermUI терминальный интерфейс с результатами анализа
type TermUI struct {
	evaluations   []*models.Evaluation
	logs          []string
	logsMutex     sync.RWMutex
	logFile       string
	selectedIndex int
	width         int
	height        int
}

type tickMsg time.Time

// bubbleModel - модель для bubbletea
type bubbleModel struct {
	ui *TermUI
}

// NewTermUI создает интерфейс. logFile - JSON-лог приложения, пустая строка отключает панель логов.
func NewTermUI(evaluations []*models.Evaluation, logFile string) *TermUI {
	return &TermUI{
		evaluations: sortedBySymbol(evaluations),
		logs:        []string{"TradeGate: анализ завершен"},
		logFile:     logFile,
		width:       120,
		height:      40,
	}
}

// Run запускает интерфейс и блокируется до выхода пользователя или отмены контекста
func (ui *TermUI) Run(ctx context.Context) error {
	if err := ui.loadLogsFromFile(); err != nil {
		logger.Warn("Ошибка загрузки логов", zap.Error(err))
	}

	program := tea.NewProgram(bubbleModel{ui: ui}, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ошибка запуска UI: %w", err)
	}
	return nil
}

// Selected возвращает выбранную оценку или nil
func (ui *TermUI) Selected() *models.Evaluation {
	if ui.selectedIndex < 0 || ui.selectedIndex >= len(ui.evaluations) {
		return nil
	}
	return ui.evaluations[ui.selectedIndex]
}

// loadLogsFromFile читает последние записи JSON-лога
func (ui *TermUI) loadLogsFromFile() error {
	if ui.logFile == "" {
		return nil
	}

	file, err := os.Open(ui.logFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Файл не существует, это не ошибка
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var logs []string

	for scanner.Scan() {
		logs = append(logs, formatLogLine(scanner.Text()))
		if len(logs) > maxLogLines {
			logs = logs[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(logs) > 0 {
		ui.logsMutex.Lock()
		ui.logs = logs
		ui.logsMutex.Unlock()
	}
	return nil
}

// formatLogLine превращает JSON-запись zap в строку вида "[15:04:05] [INFO] сообщение (ключ: значение)"
func formatLogLine(line string) string {
	var zapLog map[string]interface{}
	if err := json.Unmarshal([]byte(line), &zapLog); err != nil {
		return line
	}

	level, _ := zapLog["level"].(string)
	ts, _ := zapLog["ts"].(string)
	msg, _ := zapLog["msg"].(string)
	level = ansiRegex.ReplaceAllString(level, "")

	timestamp := ""
	if t, err := time.Parse(logger.TimeLayout, ts); err == nil {
		timestamp = t.Format("15:04:05")
	}

	keys := make([]string, 0, len(zapLog))
	for k := range zapLog {
		if k != "level" && k != "ts" && k != "msg" && k != "caller" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", timestamp, level, msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " (%s: %v)", k, zapLog[k])
	}
	return b.String()
}

func tick() tea.Cmd {
	return tea.Tick(logRefreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Методы для bubbletea
func (m bubbleModel) Init() tea.Cmd {
	return tick()
}

func (m bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.ui.selectedIndex = max(0, m.ui.selectedIndex-1)
		case "down", "j":
			m.ui.selectedIndex = max(0, min(len(m.ui.evaluations)-1, m.ui.selectedIndex+1))
		}

	case tea.WindowSizeMsg:
		m.ui.width = msg.Width
		m.ui.height = msg.Height

	case tickMsg:
		if err := m.ui.loadLogsFromFile(); err != nil {
			logger.Warn("Ошибка загрузки логов", zap.Error(err))
		}
		return m, tick()
	}

	return m, nil
}

func (m bubbleModel) View() string {
	m.ui.logsMutex.RLock()
	logs := m.ui.logs
	m.ui.logsMutex.RUnlock()

	title := titleStyle.Render("TradeGate - консенсус стратегий и риск-фильтр")
	decisions := renderDecisionsSection(m.ui.evaluations, m.ui.selectedIndex)
	details := renderDetailsSection(m.ui.Selected())
	logsView := renderLogsSection(logs)
	footer := footerStyle.Render("Клавиши: ↑/↓ - навигация, Q - выход")

	return appStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			decisions,
			details,
			logsView,
			footer,
		),
	)
}

func renderDecisionsSection(evaluations []*models.Evaluation, selectedIndex int) string {
	header := sectionHeaderStyle.Render("РЕШЕНИЯ")
	content := strings.Builder{}

	if len(evaluations) == 0 {
		content.WriteString("  Нет данных\n")
	}
	for i, eval := range evaluations {
		line := "  " + summaryLine(eval)
		if i == selectedIndex {
			line = selectedStyle.Render("> " + line[2:])
		}
		content.WriteString(line + "\n")
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
}

func renderDetailsSection(eval *models.Evaluation) string {
	header := sectionHeaderStyle.Render("СИГНАЛЫ")
	content := strings.Builder{}

	if eval == nil {
		content.WriteString("  Нет данных\n")
	} else {
		fmt.Fprintf(&content, "  %s  цена %.2f  объем %.0f\n", eval.Symbol, eval.LastPrice, eval.Volume)
		for _, s := range eval.Signals {
			fmt.Fprintf(&content, "  %-15s %s (%.2f, риск %s) %s\n",
				s.Strategy, formatDirection(s.Direction), s.Confidence, s.Risk, s.Rationale)
		}
		fmt.Fprintf(&content, "  Консенсус: %s\n", eval.Decision.Rationale)
		fmt.Fprintf(&content, "  Фильтр: %s (%s)\n", eval.Verdict.Reason, eval.Verdict.Detail)
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
}

func renderLogsSection(logs []string) string {
	header := sectionHeaderStyle.Render("ЛОГИ")
	content := strings.Builder{}

	start := 0
	if len(logs) > maxLogLines {
		start = len(logs) - maxLogLines
	}

	for _, log := range logs[start:] {
		switch {
		case strings.Contains(log, "[ERROR]"):
			log = lipgloss.NewStyle().Foreground(errorColor).Render(log)
		case strings.Contains(log, "[INFO]"):
			log = lipgloss.NewStyle().Foreground(successColor).Render(log)
		case strings.Contains(log, "[WARN]"):
			log = lipgloss.NewStyle().Foreground(warningColor).Render(log)
		case strings.Contains(log, "[DEBUG]"):
			log = lipgloss.NewStyle().Foreground(lipgloss.Color("#9999ff")).Render(log)
		}
		content.WriteString("  " + log + "\n")
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
}

// RenderReport печатает итог без интерактивного режима
func RenderReport(evaluations []*models.Evaluation) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TradeGate - итоги анализа"))
	b.WriteString("\n\n")

	accepted := 0
	for _, eval := range sortedBySymbol(evaluations) {
		if eval.Verdict.Accepted {
			accepted++
		}
		b.WriteString(summaryLine(eval))
		b.WriteString("\n")
		for _, s := range eval.Signals {
			fmt.Fprintf(&b, "    %-15s %s (%.2f, риск %s)\n", s.Strategy, formatDirection(s.Direction), s.Confidence, s.Risk)
		}
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("Всего: %d, принято: %d", len(evaluations), accepted)))
	b.WriteString("\n")
	return b.String()
}

func summaryLine(eval *models.Evaluation) string {
	verdict := lipgloss.NewStyle().Foreground(warningColor).Render(eval.Verdict.Reason)
	if eval.Verdict.Accepted {
		verdict = lipgloss.NewStyle().Foreground(successColor).Render(
			fmt.Sprintf("ПРИНЯТО %.2f%% = %s", eval.Size.Fraction*100, eval.Size.Notional.StringFixed(2)))
	}
	return fmt.Sprintf("%-10s %s (%.2f, риск %s) %s",
		eval.Symbol, formatDirection(eval.Decision.Direction), eval.Decision.Confidence, eval.Decision.Risk, verdict)
}

func formatDirection(d models.Direction) string {
	switch d {
	case models.Buy:
		return lipgloss.NewStyle().Foreground(successColor).Bold(true).Render("ПОКУПКА")
	case models.Sell:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true).Render("ПРОДАЖА")
	default:
		return lipgloss.NewStyle().Foreground(warningColor).Render("ОЖИДАНИЕ")
	}
}

func sortedBySymbol(evaluations []*models.Evaluation) []*models.Evaluation {
	out := make([]*models.Evaluation, 0, len(evaluations))
	for _, e := range evaluations {
		if e != nil {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
