// Package tui provides an interactive kanban board for work items using Bubble Tea.
package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/baiirun/kanban/internal/kanban"
	"github.com/baiirun/kanban/internal/model"
)

// ViewMode represents the current view state.
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
)

// InputMode represents what kind of text input is active.
type InputMode int

const (
	InputNone   InputMode = iota
	InputSearch           // Entering search text
	InputTag              // Entering tag filter
	InputCreate           // Entering new work item title
)

// State icons
const (
	iconNew      = "○"
	iconActive   = "◐"
	iconResolved = "◑"
	iconClosed   = "●"
	iconRemoved  = "✗"
)

// Layout constants
const (
	minColumnWidth = 18
)

// Model is the main Bubble Tea model for the board.
type Model struct {
	board *kanban.Board
	items []model.WorkItemSummary // all visible items from the board

	// Board state
	showRemoved bool
	column      int         // focused column index into columns()
	rows        map[int]int // cursor row per column

	// Filter state
	filterSearch string
	filterTag    string

	// Input state
	inputMode  InputMode
	inputText  string
	inputLabel string

	viewMode ViewMode
	detail   *model.WorkItemDetails

	// UI state
	width   int
	height  int
	err     error
	message string // temporary status message
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	stateColors = map[model.State]lipgloss.Color{
		model.StateNew:      lipgloss.Color("252"),
		model.StateActive:   lipgloss.Color("214"),
		model.StateResolved: lipgloss.Color("141"),
		model.StateClosed:   lipgloss.Color("42"),
		model.StateRemoved:  lipgloss.Color("245"),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("147"))

	// Content area padding
	contentPadding = 2
)

func stateIcon(s model.State) string {
	switch s {
	case model.StateNew:
		return iconNew
	case model.StateActive:
		return iconActive
	case model.StateResolved:
		return iconResolved
	case model.StateClosed:
		return iconClosed
	case model.StateRemoved:
		return iconRemoved
	default:
		return "?"
	}
}

// flow is the order items advance through with > and retreat through with <.
var flow = []model.State{model.StateNew, model.StateActive, model.StateResolved, model.StateClosed}

func nextState(s model.State) (model.State, bool) {
	for i, f := range flow {
		if f == s && i+1 < len(flow) {
			return flow[i+1], true
		}
	}
	return s, false
}

func prevState(s model.State) (model.State, bool) {
	for i, f := range flow {
		if f == s && i > 0 {
			return flow[i-1], true
		}
	}
	return s, false
}

// New creates a board model. showRemoved controls whether the Removed column
// is visible initially.
func New(board *kanban.Board, showRemoved bool) Model {
	return Model{
		board:       board,
		showRemoved: showRemoved,
		rows:        map[int]int{},
		viewMode:    ViewBoard,
	}
}

// Messages
type itemsMsg struct {
	items []model.WorkItemSummary
	err   error
}

type detailMsg struct {
	details model.WorkItemDetails
	found   bool
	err     error
}

type actionMsg struct {
	message string
	err     error
}

// loadItems loads the board's items, including Removed ones when shown.
func (m Model) loadItems() tea.Cmd {
	showRemoved := m.showRemoved
	return func() tea.Msg {
		items, err := m.board.WorkItems.Read()
		if err != nil {
			return itemsMsg{err: err}
		}
		if showRemoved {
			removed, err := m.board.WorkItems.ReadRemoved()
			if err != nil {
				return itemsMsg{err: err}
			}
			items = append(items, removed...)
		}
		return itemsMsg{items: items}
	}
}

func (m Model) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		d, found, err := m.board.WorkItems.Find(id)
		return detailMsg{details: d, found: found, err: err}
	}
}

// columns returns the states shown as board columns.
func (m Model) columns() []model.State {
	if m.showRemoved {
		return model.States
	}
	return flow
}

// columnItems returns the filtered items in the given state.
func (m Model) columnItems(state model.State) []model.WorkItemSummary {
	var out []model.WorkItemSummary
	for _, item := range m.items {
		if item.State != state || !m.matches(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (m Model) matches(item model.WorkItemSummary) bool {
	if m.filterSearch != "" &&
		!strings.Contains(strings.ToLower(item.Title), strings.ToLower(m.filterSearch)) {
		return false
	}
	if m.filterTag != "" {
		filter := strings.ToLower(m.filterTag)
		for _, tag := range item.Tags {
			if strings.Contains(strings.ToLower(tag), filter) {
				return true
			}
		}
		return false
	}
	return true
}

// selected returns the item under the cursor.
func (m Model) selected() (model.WorkItemSummary, bool) {
	cols := m.columns()
	if m.column >= len(cols) {
		return model.WorkItemSummary{}, false
	}
	items := m.columnItems(cols[m.column])
	row := m.rows[m.column]
	if row >= len(items) {
		return model.WorkItemSummary{}, false
	}
	return items[row], true
}

// clampCursor keeps column and row cursors inside the current board.
func (m *Model) clampCursor() {
	cols := m.columns()
	if m.column >= len(cols) {
		m.column = len(cols) - 1
	}
	for i, state := range cols {
		n := len(m.columnItems(state))
		if m.rows[i] >= n {
			m.rows[i] = max(0, n-1)
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadItems()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Clear message on any key
		m.message = ""
		m.err = nil
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case itemsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.items = msg.items
		m.clampCursor()
		return m, nil

	case detailMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if !msg.found {
			m.err = errors.New("work item no longer exists")
			m.viewMode = ViewBoard
			return m, m.loadItems()
		}
		m.detail = &msg.details
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.message = msg.message
		}
		return m, m.loadItems()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle input mode first
	if m.inputMode != InputNone {
		return m.handleInputKey(msg)
	}

	switch m.viewMode {
	case ViewBoard:
		return m.handleBoardKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputMode = InputNone
		m.inputText = ""
		return m, nil

	case "enter":
		return m.submitInput()

	case "backspace":
		if len(m.inputText) > 0 {
			m.inputText = m.inputText[:len(m.inputText)-1]
			m.liveFilter()
		}

	default:
		// Add character if printable
		if len(msg.String()) == 1 {
			m.inputText += msg.String()
			m.liveFilter()
		}
	}
	return m, nil
}

// liveFilter applies search and tag input as it is typed.
func (m *Model) liveFilter() {
	switch m.inputMode {
	case InputSearch:
		m.filterSearch = m.inputText
	case InputTag:
		m.filterTag = m.inputText
	default:
		return
	}
	m.clampCursor()
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.inputText)
	mode := m.inputMode
	m.inputMode = InputNone
	m.inputText = ""

	switch mode {
	case InputSearch:
		m.filterSearch = text
		m.clampCursor()
	case InputTag:
		m.filterTag = text
		m.clampCursor()
	case InputCreate:
		if text == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			resp, id, err := m.board.WorkItems.Create(model.WorkItemCreate{Title: text})
			if err != nil {
				return actionMsg{err: err}
			}
			if !resp.OK() {
				return actionMsg{err: fmt.Errorf("create: %s", resp)}
			}
			return actionMsg{message: fmt.Sprintf("Created #%d", id)}
		}
	}
	return m, nil
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "left", "h":
		if m.column > 0 {
			m.column--
		}

	case "right", "l":
		if m.column < len(m.columns())-1 {
			m.column++
		}

	case "up", "k":
		if m.rows[m.column] > 0 {
			m.rows[m.column]--
		}

	case "down", "j":
		n := len(m.columnItems(m.columns()[m.column]))
		if m.rows[m.column] < n-1 {
			m.rows[m.column]++
		}

	case "g", "home":
		m.rows[m.column] = 0

	case "G", "end":
		m.rows[m.column] = max(0, len(m.columnItems(m.columns()[m.column]))-1)

	case "enter":
		if item, ok := m.selected(); ok {
			m.viewMode = ViewDetail
			m.detail = nil
			return m, m.loadDetail(item.ID)
		}

	// Actions
	case ">", "]":
		return m.doMove(nextState)
	case "<", "[":
		return m.doMove(prevState)
	case "D":
		return m.doDelete()
	case "n":
		return m.startInput(InputCreate, "New work item: ")

	// Filtering
	case "/":
		return m.startInput(InputSearch, "Search: ")
	case "t":
		return m.startInput(InputTag, "Tag: ")
	case "R":
		m.showRemoved = !m.showRemoved
		m.clampCursor()
		return m, m.loadItems()

	case "esc":
		// If filters are set, clear them; otherwise quit
		if m.filterSearch != "" || m.filterTag != "" {
			m.filterSearch = ""
			m.filterTag = ""
			m.clampCursor()
		} else {
			return m, tea.Quit
		}

	case "r":
		return m, m.loadItems()
	}

	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc", "h", "backspace":
		m.viewMode = ViewBoard
		m.detail = nil

	case "r":
		if m.detail != nil {
			return m, m.loadDetail(m.detail.ID)
		}
	}

	return m, nil
}

func (m Model) startInput(mode InputMode, label string) (Model, tea.Cmd) {
	m.inputMode = mode
	m.inputLabel = label
	m.inputText = ""
	return m, nil
}

// doMove moves the selected item one step along the flow. The column cursor
// follows the item.
func (m Model) doMove(step func(model.State) (model.State, bool)) (Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	target, ok := step(item.State)
	if !ok {
		m.message = fmt.Sprintf("#%d cannot move from %s", item.ID, item.State)
		return m, nil
	}
	for i, state := range m.columns() {
		if state == target {
			m.column = i
		}
	}
	return m, func() tea.Msg {
		resp, err := m.board.WorkItems.Patch(model.WorkItemPatch{ID: item.ID, State: &target})
		if err != nil {
			return actionMsg{err: err}
		}
		if !resp.OK() {
			return actionMsg{err: fmt.Errorf("move #%d to %s: %s", item.ID, target, resp)}
		}
		return actionMsg{message: fmt.Sprintf("Moved #%d to %s", item.ID, target)}
	}
}

func (m Model) doDelete() (Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	return m, func() tea.Msg {
		resp, err := m.board.WorkItems.Delete(item.ID)
		if err != nil {
			return actionMsg{err: err}
		}
		if !resp.OK() {
			return actionMsg{err: fmt.Errorf("delete #%d: %s", item.ID, resp)}
		}
		return actionMsg{message: fmt.Sprintf("Deleted #%d", item.ID)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	switch m.viewMode {
	case ViewBoard:
		b.WriteString(m.boardView())
	case ViewDetail:
		b.WriteString(m.detailView())
	}

	// Input line
	if m.inputMode != InputNone {
		b.WriteString("\n")
		b.WriteString(inputStyle.Render(m.inputLabel + m.inputText + "█"))
	}

	// Status message
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	} else if m.message != "" {
		b.WriteString("\n")
		b.WriteString(messageStyle.Render(m.message))
	}

	// Apply padding to entire content
	padStyle := lipgloss.NewStyle().
		PaddingLeft(contentPadding).
		PaddingRight(contentPadding).
		PaddingTop(1)

	return padStyle.Render(b.String())
}

// boardView renders one bordered column per state.
func (m Model) boardView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("kanban"))
	b.WriteString(fmt.Sprintf("  %d items", len(m.items)))
	if filters := m.activeFiltersString(); filters != "" {
		b.WriteString("  ")
		b.WriteString(filterStyle.Render(filters))
	}
	b.WriteString("\n\n")

	focusedColor := lipgloss.Color("39")    // Blue for focused
	unfocusedColor := lipgloss.Color("241") // Dim gray for unfocused

	cols := m.columns()
	gap := 1
	borderChars := 2 * len(cols)
	available := m.width - borderChars - gap*(len(cols)-1) - (contentPadding * 2)
	colWidth := max(minColumnWidth, available/len(cols))

	// Header (2) + column borders (2) + footer (3) + padding (1)
	contentHeight := max(5, m.height-8)

	boxes := make([]string, 0, len(cols)*2)
	for i, state := range cols {
		lines := m.columnLines(i, state, colWidth, contentHeight)
		lines = normalizeLines(lines, contentHeight, colWidth)
		color := unfocusedColor
		if i == m.column {
			color = focusedColor
		}
		if i > 0 {
			boxes = append(boxes, strings.Repeat(" ", gap))
		}
		boxes = append(boxes, buildBorderedBox(lines, colWidth, color))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("h/l:column j/k:nav  enter:detail  >:advance <:retreat D:delete n:new"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("/:search t:tag R:removed  r:refresh q:quit"))
	return b.String()
}

// columnLines renders the header and cards of one column.
func (m Model) columnLines(index int, state model.State, width, height int) []string {
	items := m.columnItems(state)
	color := stateColors[state]
	header := lipgloss.NewStyle().Foreground(color).Render(stateIcon(state)) +
		" " + detailLabelStyle.Render(string(state)) +
		dimStyle.Render(fmt.Sprintf(" (%d)", len(items)))
	lines := []string{header, ""}

	visible := max(1, height-2)
	row := m.rows[index]
	start := 0
	if row >= visible {
		start = row - visible + 1
	}
	end := min(start+visible, len(items))

	for i := start; i < end; i++ {
		line := formatCard(items[i], width)
		if index == m.column && i == row {
			line = selectedRowStyle.Width(width).Render(line)
		}
		lines = append(lines, line)
	}
	if len(items) == 0 {
		lines = append(lines, dimStyle.Render("empty"))
	}
	return lines
}

// formatCard returns a plain one-line card: #id title.
func formatCard(item model.WorkItemSummary, width int) string {
	line := fmt.Sprintf("#%d %s", item.ID, item.Title)
	return truncate(line, width)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

func (m Model) activeFiltersString() string {
	var parts []string
	if m.filterSearch != "" {
		parts = append(parts, "search:\""+m.filterSearch+"\"")
	}
	if m.filterTag != "" {
		parts = append(parts, "tag:\""+m.filterTag+"\"")
	}
	if m.showRemoved {
		parts = append(parts, "+removed")
	}
	return strings.Join(parts, " ")
}

// normalizeLines ensures the slice has exactly `height` lines, each padded to `width`.
func normalizeLines(lines []string, height, width int) []string {
	result := make([]string, height)
	for i := 0; i < height; i++ {
		if i < len(lines) {
			result[i] = padToWidth(lines[i], width)
		} else {
			result[i] = strings.Repeat(" ", width)
		}
	}
	return result
}

// buildBorderedBox creates a box with rounded borders around content lines.
func buildBorderedBox(lines []string, contentWidth int, borderColor lipgloss.Color) string {
	style := lipgloss.NewStyle().Foreground(borderColor)

	topLeft := style.Render("╭")
	topRight := style.Render("╮")
	bottomLeft := style.Render("╰")
	bottomRight := style.Render("╯")
	horizontal := style.Render("─")
	vertical := style.Render("│")

	var b strings.Builder
	b.WriteString(topLeft)
	b.WriteString(strings.Repeat(horizontal, contentWidth))
	b.WriteString(topRight)
	b.WriteString("\n")

	for _, line := range lines {
		b.WriteString(vertical)
		b.WriteString(line)
		b.WriteString(vertical)
		b.WriteString("\n")
	}

	b.WriteString(bottomLeft)
	b.WriteString(strings.Repeat(horizontal, contentWidth))
	b.WriteString(bottomRight)

	return b.String()
}

// padToWidth pads a string to the specified width with spaces.
// Accounts for ANSI escape codes when calculating visible width.
func padToWidth(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}

// detailView renders the selected work item full screen.
func (m Model) detailView() string {
	if m.detail == nil {
		return dimStyle.Render("Loading...")
	}
	d := m.detail
	color := stateColors[d.State]
	var lines []string

	lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(stateIcon(d.State))+" "+titleStyle.Render(d.Title))
	lines = append(lines, "")
	lines = append(lines, detailLabelStyle.Render("ID:       ")+fmt.Sprintf("%d", d.ID))
	lines = append(lines, detailLabelStyle.Render("State:    ")+lipgloss.NewStyle().Foreground(color).Render(string(d.State))+
		dimStyle.Render(" since "+d.StateUpdatedAt.Format("2006-01-02 15:04")))
	lines = append(lines, detailLabelStyle.Render("Created:  ")+d.CreatedAt.Format("2006-01-02 15:04"))

	assignee := dimStyle.Render("unassigned")
	if d.AssignedTo != nil {
		assignee = *d.AssignedTo
	}
	lines = append(lines, detailLabelStyle.Render("Assignee: ")+assignee)

	if len(d.Tags) > 0 {
		tags := make([]string, len(d.Tags))
		for i, tag := range d.Tags {
			tags[i] = tagStyle.Render("[" + tag + "]")
		}
		lines = append(lines, detailLabelStyle.Render("Tags:     ")+strings.Join(tags, " "))
	}

	if d.Description != "" {
		lines = append(lines, "")
		lines = append(lines, detailLabelStyle.Render("Description:"))
		lines = append(lines, strings.Split(d.Description, "\n")...)
	}

	lines = append(lines, "")
	lines = append(lines, helpStyle.Render("esc:back  r:refresh  q:quit"))
	return strings.Join(lines, "\n")
}

// Run starts the board.
func Run(board *kanban.Board, showRemoved bool) error {
	m := New(board, showRemoved)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
