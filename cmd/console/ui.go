package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "Describe your action..."
)

type transcriptLine struct {
	role    string // "user", "narrator", "system"
	content string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	balance      *BalanceInfo
	transcript   []transcriptLine
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Last narration text, for clipboard copy
	lastNarration string

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type narrationMsg struct {
	narration string
	err       error
}

type balanceMsg struct {
	balance *BalanceInfo
	err     error
}

type earnMsg struct {
	receipt *EarnReceipt
	trigger string
	err     error
}

type spendMsg struct {
	outcome  *SpendOutcome
	activity string
	err      error
}

type opportunitiesMsg struct {
	payload *opportunitiesPayload
	err     error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	pointsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
	}
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("LEDGER") + "\n\n")

	content.WriteString("Character:\n")
	content.WriteString(m.config.CharacterID + "\n\n")

	if m.balance != nil {
		content.WriteString("Balance:\n")
		content.WriteString(pointsStyle.Render(fmt.Sprintf("%d points", m.balance.Balance)) + "\n\n")

		content.WriteString("Pressure:\n")
		content.WriteString(fmt.Sprintf("%.1f (%s)\n\n", m.balance.Pressure, m.balance.PressureBand))

		content.WriteString("This session:\n")
		content.WriteString(fmt.Sprintf("+%d / -%d\n\n", m.balance.SessionEarned, m.balance.SessionSpent))

		content.WriteString("Lifetime:\n")
		content.WriteString(fmt.Sprintf("+%d / -%d\n\n", m.balance.LifetimeEarned, m.balance.LifetimeSpent))
	} else {
		content.WriteString("Balance:\nloading...\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Narrate\n")
	content.WriteString("• /earn <trigger>\n")
	content.WriteString("• /spend <activity>\n")
	content.WriteString("• /opportunities\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+Y: Copy last\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

// writeChatContent rebuilds the chat viewport from the transcript for the
// current width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("NARRATIVE ENGINE") + "\n\n")
	content.WriteString("Describe your actions below; the narrator responds.\n")
	content.WriteString("Earn points through bold play, spend them to bend the story.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 10))) + "\n\n")

	for _, line := range m.transcript {
		switch line.role {
		case "narrator":
			wrapped := wordwrap.String(line.content, max(chatWidth-len(AgentName)-2, 10))
			content.WriteString(narratorStyle.Render(AgentName+": ") + wrapped + "\n\n")
		case "user":
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(line.content, max(chatWidth-6, 10)) + "\n\n")
		case "system":
			content.WriteString(wordwrap.String(line.content, max(chatWidth-2, 10)) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.refreshBalance())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil

		case tea.KeyCtrlY:
			if m.lastNarration != "" {
				if err := clipboard.WriteAll(m.lastNarration); err != nil {
					m.transcript = append(m.transcript, transcriptLine{
						role:    "system",
						content: errorStyle.Render("Clipboard unavailable: " + err.Error()),
					})
				} else {
					m.transcript = append(m.transcript, transcriptLine{
						role:    "system",
						content: promptStyle.Render("Copied last narration to clipboard."),
					})
				}
				m.writeChatContent()
			}
			return m, nil

		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			m.transcript = append(m.transcript, transcriptLine{role: "user", content: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendNarration(input), progressTick())
		}

	case narrationMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.transcript = append(m.transcript, transcriptLine{
				role:    "system",
				content: errorStyle.Render("Error: " + msg.err.Error()),
			})
		} else {
			m.lastNarration = msg.narration
			m.transcript = append(m.transcript, transcriptLine{role: "narrator", content: msg.narration})
		}
		m.writeChatContent()
		return m, m.refreshBalance()

	case balanceMsg:
		if msg.err == nil && msg.balance != nil {
			m.balance = msg.balance
			m.metaViewport.SetContent(m.writeMetadata())
		}

	case earnMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, transcriptLine{
				role:    "system",
				content: errorStyle.Render("Earn failed: " + msg.err.Error()),
			})
		} else {
			line := fmt.Sprintf("Earned %d points for %s (base %d, bonus %d). Balance: %d.",
				msg.receipt.Credited, msg.trigger, msg.receipt.Base, msg.receipt.Bonus, msg.receipt.Balance)
			m.transcript = append(m.transcript, transcriptLine{role: "system", content: pointsStyle.Render(line)})
		}
		m.writeChatContent()
		return m, m.refreshBalance()

	case spendMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, transcriptLine{
				role:    "system",
				content: errorStyle.Render("Spend failed: " + msg.err.Error()),
			})
		} else if !msg.outcome.Success {
			line := fmt.Sprintf("Not enough points for %s: costs %d, you have %d (short %d).",
				msg.activity, msg.outcome.Cost, msg.outcome.Balance, msg.outcome.Shortfall)
			m.transcript = append(m.transcript, transcriptLine{role: "system", content: errorStyle.Render(line)})
		} else {
			line := fmt.Sprintf("Spent %d points on %s. Balance: %d.",
				msg.outcome.Cost, msg.activity, msg.outcome.Balance)
			m.transcript = append(m.transcript, transcriptLine{role: "system", content: pointsStyle.Render(line)})
		}
		m.writeChatContent()
		return m, m.refreshBalance()

	case opportunitiesMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, transcriptLine{
				role:    "system",
				content: errorStyle.Render("Error: " + msg.err.Error()),
			})
		} else {
			var sb strings.Builder
			sb.WriteString(titleStyle.Render("Opportunities:") + "\n")
			for _, opp := range msg.payload.Opportunities {
				sb.WriteString(fmt.Sprintf("• %s (+%d, %s): %s\n", opp.Trigger, opp.Reward, opp.Rarity, opp.Description))
			}
			sb.WriteString("\n" + titleStyle.Render("Suggestions:") + "\n")
			for _, s := range msg.payload.Suggestions {
				sb.WriteString("• " + s + "\n")
			}
			m.transcript = append(m.transcript, transcriptLine{role: "system", content: sb.String()})
		}
		m.writeChatContent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()

	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /earn <trigger> [description] - Earn points for a narrative trigger
• /spend <activity> [description] - Spend points on a narrative activity
• /balance - Refresh the ledger panel
• /opportunities - Show earn opportunities and suggestions
• Ctrl+Y - Copy last narration to clipboard
• Ctrl+C - Quit

Triggers include risk_taking, roleplaying_depth, sacrificial_choice.
Activities include foreshadowing, dramatic_reveal, retcon_scene.
`
		m.transcript = append(m.transcript, transcriptLine{role: "system", content: titleStyle.Render("Help:") + helpText})
		m.writeChatContent()

	case "/balance":
		return m, m.refreshBalance()

	case "/opportunities":
		return m, m.fetchOpportunities()

	case "/earn":
		if len(fields) < 2 {
			m.transcript = append(m.transcript, transcriptLine{
				role:    "system",
				content: errorStyle.Render("Usage: /earn <trigger> [description]"),
			})
			m.writeChatContent()
			return m, nil
		}
		trigger := fields[1]
		description := strings.Join(fields[2:], " ")
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.sendEarn(trigger, description), progressTick())

	case "/spend":
		if len(fields) < 2 {
			m.transcript = append(m.transcript, transcriptLine{
				role:    "system",
				content: errorStyle.Render("Usage: /spend <activity> [description]"),
			})
			m.writeChatContent()
			return m, nil
		}
		activity := fields[1]
		description := strings.Join(fields[2:], " ")
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.sendSpend(activity, description), progressTick())

	default:
		m.transcript = append(m.transcript, transcriptLine{
			role:    "system",
			content: errorStyle.Render("Unknown command. Try /help."),
		})
		m.writeChatContent()
	}

	return m, nil
}

func (m ConsoleUI) sendNarration(action string) tea.Cmd {
	cfg := m.config
	client := m.client
	return func() tea.Msg {
		requestID, err := requestNarration(client, cfg.APIBaseURL, cfg.CharacterID, action)
		if err != nil {
			return narrationMsg{err: err}
		}

		narration, err := awaitNarration(cfg.APIBaseURL, cfg.CharacterID, requestID, 2*time.Minute)
		if err != nil {
			return narrationMsg{err: err}
		}
		return narrationMsg{narration: narration}
	}
}

func (m ConsoleUI) refreshBalance() tea.Cmd {
	cfg := m.config
	client := m.client
	return func() tea.Msg {
		balance, err := getBalance(client, cfg.APIBaseURL, cfg.CharacterID)
		return balanceMsg{balance, err}
	}
}

func (m ConsoleUI) sendEarn(trigger, description string) tea.Cmd {
	cfg := m.config
	client := m.client
	return func() tea.Msg {
		receipt, err := earnPoints(client, cfg.APIBaseURL, cfg.CharacterID, trigger, description)
		return earnMsg{receipt, trigger, err}
	}
}

func (m ConsoleUI) sendSpend(activity, description string) tea.Cmd {
	cfg := m.config
	client := m.client
	return func() tea.Msg {
		outcome, err := spendPoints(client, cfg.APIBaseURL, cfg.CharacterID, activity, description)
		return spendMsg{outcome, activity, err}
	}
}

func (m ConsoleUI) fetchOpportunities() tea.Cmd {
	cfg := m.config
	client := m.client
	return func() tea.Msg {
		payload, err := getOpportunities(client, cfg.APIBaseURL, cfg.CharacterID)
		return opportunitiesMsg{payload, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the story where it stands?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 10))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
