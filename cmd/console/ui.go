package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/solorpg/chronicle/internal/engine"
	"github.com/solorpg/chronicle/internal/handlers"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/directive"
	"github.com/solorpg/chronicle/pkg/memory"
	"github.com/solorpg/chronicle/pkg/mystery"
)

var (
	chatPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	statusPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	oracleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// tea messages carrying API results back into Update.
type turnResultMsg struct {
	res *engine.TurnResult
	err error
}

type arrestResultMsg struct {
	res *engine.ArrestResult
	err error
}

type stateRefreshMsg struct {
	state *handlers.CampaignStateResponse
	err   error
}

type memoryMsg struct {
	snap *memory.Snapshot
	err  error
}

// ConsoleUI is the bubbletea model for the chat console.
type ConsoleUI struct {
	cfg *ConsoleConfig
	api *apiClient

	campaign *campaign.Campaign
	state    *handlers.CampaignStateResponse
	turns    []chat.Turn

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	spinner      spinner.Model

	suggestions []directive.SuggestedAction
	lastOracle  string

	width   int
	height  int
	ready   bool
	loading bool
	errMsg  string

	showQuitModal bool
}

func NewConsoleUI(cfg *ConsoleConfig, api *apiClient, created *handlers.CreateCampaignResponse) *ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = "What do you do?"
	ta.Focus()
	ta.Prompt = "> "
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle

	ui := &ConsoleUI{
		cfg:      cfg,
		api:      api,
		campaign: created.Campaign,
		textarea: ta,
		spinner:  sp,
	}
	if created.Opening != nil {
		ui.turns = append(ui.turns, created.Opening.Turn)
		ui.suggestions = created.Opening.SuggestedActions
		ui.lastOracle = created.Opening.CleanText
	}
	return ui
}

func (ui *ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, ui.refreshStateCmd())
}

func (ui *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ui.width = msg.Width
		ui.height = msg.Height
		ui.layout()
		ui.writeChatContent()
		ui.writeStatusContent()
		ui.ready = true

	case tea.KeyMsg:
		if ui.showQuitModal {
			switch msg.String() {
			case "y", "Y", "enter":
				return ui, tea.Quit
			case "n", "N", "esc":
				ui.showQuitModal = false
			}
			return ui, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			ui.showQuitModal = true
			return ui, nil
		case "ctrl+y":
			if ui.lastOracle != "" {
				if err := clipboard.WriteAll(ui.lastOracle); err != nil {
					ui.errMsg = "clipboard: " + err.Error()
				} else {
					ui.errMsg = ""
				}
			}
			return ui, nil
		case "enter":
			if ui.loading {
				return ui, nil
			}
			if cmd := ui.handleSubmit(); cmd != nil {
				cmds = append(cmds, cmd, ui.spinner.Tick)
			}
		case "pgup":
			ui.chatViewport.HalfPageUp()
		case "pgdown":
			ui.chatViewport.HalfPageDown()
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		ui.chatViewport, cmd = ui.chatViewport.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		if ui.loading {
			var cmd tea.Cmd
			ui.spinner, cmd = ui.spinner.Update(msg)
			cmds = append(cmds, cmd)
			ui.writeChatContent()
		}

	case turnResultMsg:
		ui.loading = false
		if msg.err != nil {
			ui.errMsg = msg.err.Error()
		} else if msg.res != nil {
			ui.errMsg = ""
			ui.turns = append(ui.turns, msg.res.Turn)
			ui.suggestions = msg.res.SuggestedActions
			ui.lastOracle = msg.res.CleanText
			cmds = append(cmds, ui.refreshStateCmd())
		}
		ui.writeChatContent()

	case arrestResultMsg:
		ui.loading = false
		if msg.err != nil {
			ui.errMsg = msg.err.Error()
		} else {
			ui.errMsg = ""
			ui.turns = append(ui.turns, chat.NewTurn(ui.campaign.ID, chat.RoleOracle, msg.res.Narrative))
			ui.turns = append(ui.turns, chat.NewTurn(ui.campaign.ID, chat.RoleSystem, arrestSummary(msg.res)))
			ui.suggestions = nil
			ui.lastOracle = msg.res.Narrative
			cmds = append(cmds, ui.refreshStateCmd())
		}
		ui.writeChatContent()

	case stateRefreshMsg:
		if msg.err == nil && msg.state != nil {
			ui.state = msg.state
			if msg.state.Campaign != nil {
				ui.campaign = msg.state.Campaign
			}
			ui.writeStatusContent()
		}

	case memoryMsg:
		ui.loading = false
		if msg.err != nil {
			ui.errMsg = msg.err.Error()
		} else {
			ui.errMsg = ""
			ui.turns = append(ui.turns, chat.NewTurn(ui.campaign.ID, chat.RoleSystem, "Case notes: "+msg.snap.Recap))
		}
		ui.writeChatContent()
	}

	if !ui.showQuitModal && !ui.loading {
		var cmd tea.Cmd
		ui.textarea, cmd = ui.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	return ui, tea.Batch(cmds...)
}

// handleSubmit consumes the textarea content and dispatches the matching
// API command. Returns nil when there is nothing to do.
func (ui *ConsoleUI) handleSubmit() tea.Cmd {
	input := strings.TrimSpace(ui.textarea.Value())
	if input == "" {
		return nil
	}
	ui.textarea.Reset()

	// Bare numbers pick from the oracle's suggested actions.
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(ui.suggestions) {
		s := ui.suggestions[n-1]
		input = s.Action
		if input == "" {
			input = s.Label
		}
	}

	if strings.HasPrefix(input, "/") {
		return ui.handleCommand(input)
	}

	ui.turns = append(ui.turns, chat.NewTurn(ui.campaign.ID, chat.RolePlayer, input))
	ui.suggestions = nil
	ui.loading = true
	ui.writeChatContent()
	return ui.sendTurnCmd(input)
}

func (ui *ConsoleUI) handleCommand(input string) tea.Cmd {
	cmd, rest, _ := strings.Cut(input, " ")
	switch cmd {
	case "/help":
		ui.turns = append(ui.turns, chat.NewTurn(ui.campaign.ID, chat.RoleSystem, helpText(ui.campaign.Variant)))
		ui.writeChatContent()
		return nil
	case "/quit":
		ui.showQuitModal = true
		return nil
	case "/continue":
		ui.loading = true
		ui.writeChatContent()
		return ui.continueCmd()
	case "/memory":
		ui.loading = true
		return ui.memoryCmd()
	case "/arrest":
		if ui.campaign.Variant != campaign.VariantDetective {
			ui.errMsg = "arrests only happen in detective campaigns"
			return nil
		}
		parts := strings.Split(rest, "|")
		if len(parts) != 3 {
			ui.errMsg = "usage: /arrest criminal | weapon | motive"
			return nil
		}
		req := handlers.ArrestRequest{
			CampaignID: ui.campaign.ID,
			Criminal:   strings.TrimSpace(parts[0]),
			Weapon:     strings.TrimSpace(parts[1]),
			Motive:     strings.TrimSpace(parts[2]),
		}
		ui.turns = append(ui.turns, chat.NewTurn(ui.campaign.ID, chat.RolePlayer,
			fmt.Sprintf("I make my arrest: %s, with %s, because of %s.", req.Criminal, req.Weapon, req.Motive)))
		ui.loading = true
		ui.writeChatContent()
		return ui.arrestCmd(req)
	default:
		ui.errMsg = "unknown command, try /help"
		return nil
	}
}

func (ui *ConsoleUI) sendTurnCmd(message string) tea.Cmd {
	id := ui.campaign.ID
	return func() tea.Msg {
		res, err := ui.api.sendTurn(id, message)
		return turnResultMsg{res: res, err: err}
	}
}

func (ui *ConsoleUI) continueCmd() tea.Cmd {
	id := ui.campaign.ID
	return func() tea.Msg {
		res, err := ui.api.continueNarration(id)
		return turnResultMsg{res: res, err: err}
	}
}

func (ui *ConsoleUI) arrestCmd(req handlers.ArrestRequest) tea.Cmd {
	return func() tea.Msg {
		res, err := ui.api.arrest(req)
		return arrestResultMsg{res: res, err: err}
	}
}

func (ui *ConsoleUI) refreshStateCmd() tea.Cmd {
	id := ui.campaign.ID
	return func() tea.Msg {
		st, err := ui.api.campaignState(id)
		return stateRefreshMsg{state: st, err: err}
	}
}

func (ui *ConsoleUI) memoryCmd() tea.Cmd {
	id := ui.campaign.ID
	return func() tea.Msg {
		snap, err := ui.api.campaignMemory(id)
		return memoryMsg{snap: snap, err: err}
	}
}

// layout sizes the two panels 75/25 with the textarea below the chat.
func (ui *ConsoleUI) layout() {
	chatWidth := ui.width * 3 / 4
	metaWidth := ui.width - chatWidth - 4
	panelHeight := ui.height - ui.textarea.Height() - 4

	if !ui.ready {
		ui.chatViewport = viewport.New(chatWidth, panelHeight)
		ui.metaViewport = viewport.New(metaWidth, panelHeight)
	} else {
		ui.chatViewport.Width = chatWidth
		ui.chatViewport.Height = panelHeight
		ui.metaViewport.Width = metaWidth
		ui.metaViewport.Height = panelHeight
	}
	ui.textarea.SetWidth(chatWidth)
}

// writeChatContent rebuilds the full transcript so word wrap tracks the
// current panel width.
func (ui *ConsoleUI) writeChatContent() {
	if ui.chatViewport.Width == 0 {
		return
	}
	wrapAt := ui.chatViewport.Width - 4
	if wrapAt < 20 {
		wrapAt = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(ui.campaign.Title) + "\n\n")
	for _, t := range ui.turns {
		b.WriteString(formatTurn(t, wrapAt))
		b.WriteString("\n\n")
	}
	for i, s := range ui.suggestions {
		label := s.Label
		if label == "" {
			label = s.Action
		}
		b.WriteString(suggestionStyle.Render(fmt.Sprintf("  %d. %s", i+1, label)) + "\n")
	}
	if ui.loading {
		b.WriteString("\n" + loadingStyle.Render(ui.spinner.View()+" The oracle considers..."))
	}

	ui.chatViewport.SetContent(b.String())
	ui.chatViewport.GotoBottom()
}

func formatTurn(t chat.Turn, wrapAt int) string {
	wrapped := wordwrap.String(t.Content, wrapAt)
	switch t.Role {
	case chat.RolePlayer:
		return playerStyle.Render("You: ") + wrapped
	case chat.RoleSystem:
		return systemStyle.Render(wrapped)
	default:
		return oracleStyle.Render(wrapped)
	}
}

// writeStatusContent renders the variant-specific side panel.
func (ui *ConsoleUI) writeStatusContent() {
	var b strings.Builder
	c := ui.campaign

	b.WriteString(titleStyle.Render("Campaign") + "\n")
	b.WriteString(statusLine("Variant", c.Variant))
	b.WriteString(statusLine("Status", c.Status))
	if c.Theme != "" {
		b.WriteString(statusLine("Theme", c.Theme))
	}
	if c.SolvedAnswer != nil {
		b.WriteString("\n" + titleStyle.Render("Solution") + "\n")
		b.WriteString(statusLine("Criminal", c.SolvedAnswer.Criminal))
		b.WriteString(statusLine("Weapon", c.SolvedAnswer.Weapon))
		b.WriteString(statusLine("Motive", c.SolvedAnswer.Motive))
	}

	if ui.state != nil {
		if ch := ui.state.Character; ch != nil {
			b.WriteString("\n" + titleStyle.Render(ch.Name) + "\n")
			b.WriteString(statusLine("Level", strconv.Itoa(ch.Level)))
			b.WriteString(statusLine("HP", fmt.Sprintf("%d/%d", ch.HP, ch.MaxHP)))
			b.WriteString(statusLine("AC", strconv.Itoa(ch.AC)))
			b.WriteString(statusLine("XP", strconv.Itoa(ch.XP)))
			if len(ch.Inventory) > 0 {
				b.WriteString("\n" + titleStyle.Render("Inventory") + "\n")
				for _, item := range ch.Inventory {
					b.WriteString("  " + valueStyle.Render(item) + "\n")
				}
			}
		}
		if l := ui.state.Leader; l != nil {
			b.WriteString("\n" + titleStyle.Render(l.Name) + "\n")
			b.WriteString(statusLine("Economic", axisString(l.Axes.Economic)))
			b.WriteString(statusLine("Social", axisString(l.Axes.Social)))
			b.WriteString(statusLine("Governance", axisString(l.Axes.Governance)))
			b.WriteString(statusLine("Military", axisString(l.Axes.Military)))
			b.WriteString(statusLine("Diplomatic", axisString(l.Axes.Diplomatic)))
			b.WriteString("\n" + titleStyle.Render("Nation") + "\n")
			b.WriteString(scaleLine("Stability", l.Nation.Stability))
			b.WriteString(scaleLine("Economy", l.Nation.Economy))
			b.WriteString(scaleLine("Wellbeing", l.Nation.Wellbeing))
			b.WriteString(scaleLine("Inequality", l.Nation.Inequality))
			b.WriteString(scaleLine("Standing", l.Nation.InternationalStanding))
			if l.LastDecisionSummary != "" {
				b.WriteString("\n" + labelStyle.Render("Last decision:") + "\n")
				b.WriteString(valueStyle.Render(wordwrap.String(l.LastDecisionSummary, ui.metaViewport.Width-2)) + "\n")
			}
		}
		if events := ui.state.Timeline; len(events) > 0 {
			b.WriteString("\n" + titleStyle.Render("Timeline") + "\n")
			start := 0
			if len(events) > 5 {
				start = len(events) - 5
			}
			for _, ev := range events[start:] {
				b.WriteString("  " + valueStyle.Render(ev.Label) + "\n")
			}
		}
	}

	b.WriteString("\n" + promptStyle.Render("/help for commands"))
	ui.metaViewport.SetContent(b.String())
}

func statusLine(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value) + "\n"
}

func axisString(v int) string {
	if v > 0 {
		return "+" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

// scaleLine renders a 0-100 value as a ten-cell bar.
func scaleLine(label string, v int) string {
	filled := v / 10
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + valueStyle.Render(bar) + fmt.Sprintf(" %d\n", v)
}

func arrestSummary(res *engine.ArrestResult) string {
	switch res.State {
	case mystery.CaseSolved:
		return "Case closed. Your arrest was correct."
	case mystery.CaseFailed:
		return "The case is lost. The trail has gone cold for good."
	default:
		return fmt.Sprintf("The arrest did not hold. %d attempt(s) remaining.", res.AttemptsRemaining)
	}
}

func helpText(variant string) string {
	base := "Commands:\n" +
		"  /continue             let the oracle carry the scene forward\n" +
		"  /memory               show the consolidated case notes\n" +
		"  /help                 this message\n" +
		"  /quit                 leave the console\n" +
		"Type a number to pick a suggested action.\n" +
		"Ctrl+Y copies the last narration to the clipboard."
	if variant == campaign.VariantDetective {
		base = "  /arrest who | weapon | motive   make your accusation\n" + base
	}
	return base
}

func (ui *ConsoleUI) View() string {
	if !ui.ready {
		return loadingStyle.Render("Loading...")
	}

	if ui.showQuitModal {
		modal := modalStyle.Render("Leave the campaign?\n\n" + promptStyle.Render("(y/n)"))
		return lipgloss.Place(ui.width, ui.height, lipgloss.Center, lipgloss.Center, modal)
	}

	chatPanel := chatPanelStyle.Render(ui.chatViewport.View())
	metaPanel := statusPanelStyle.Render(ui.metaViewport.View())
	panels := lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)

	bottom := ui.textarea.View()
	if ui.errMsg != "" {
		bottom += "\n" + errorStyle.Render(ui.errMsg)
	}

	return lipgloss.JoinVertical(lipgloss.Left, panels, bottom)
}
