package cli

import (
	"context"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	charmlog "github.com/charmbracelet/log"

	"github.com/assetforge/assetforge/pkg/config"
	"github.com/assetforge/assetforge/pkg/pipeline"
)

// =============================================================================
// StageModel - Interactive pipeline progress
// =============================================================================

// stageState tracks the display state of one pipeline stage.
type stageState int

const (
	statePending stageState = iota
	stateRunning
	stateDone
	stateSkipped
	stateFailed
)

// stageEventMsg wraps a pipeline stage event for bubbletea delivery.
type stageEventMsg pipeline.StageEvent

// runDoneMsg signals that the pipeline finished.
type runDoneMsg struct {
	result *pipeline.Result
	err    error
}

// StageModel is the bubbletea model showing pipeline stage progress.
type StageModel struct {
	states map[pipeline.Stage]stageState
	notes  map[pipeline.Stage]string

	result *pipeline.Result
	err    error
	done   bool

	cancel context.CancelFunc
}

// NewStageModel creates a stage progress model. cancel is invoked when the
// user interrupts the run from the UI.
func NewStageModel(cancel context.CancelFunc) StageModel {
	return StageModel{
		states: make(map[pipeline.Stage]stageState, len(pipeline.Stages)),
		notes:  make(map[pipeline.Stage]string),
		cancel: cancel,
	}
}

func (m StageModel) Init() tea.Cmd {
	return nil
}

func (m StageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case stageEventMsg:
		switch msg.Status {
		case pipeline.StageStarted:
			m.states[msg.Stage] = stateRunning
		case pipeline.StageDone:
			m.states[msg.Stage] = stateDone
		case pipeline.StageSkipped:
			m.states[msg.Stage] = stateSkipped
			m.notes[msg.Stage] = msg.Note
		case pipeline.StageFailed:
			m.states[msg.Stage] = stateFailed
		}
		return m, nil
	case runDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m StageModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("assetforge pipeline") + "\n\n")

	for _, stage := range pipeline.Stages {
		var icon, note string
		switch m.states[stage] {
		case stateRunning:
			icon = styleIconSpinner.Render(iconArrow)
		case stateDone:
			icon = styleIconSuccess.Render(iconSuccess)
		case stateSkipped:
			icon = styleIconWarning.Render(iconWarning)
			note = " " + StyleDim.Render("("+m.notes[stage]+")")
		case stateFailed:
			icon = styleIconError.Render(iconError)
		default:
			icon = StyleDim.Render("·")
		}
		b.WriteString("  " + icon + " " + string(stage) + note + "\n")
	}

	b.WriteString("\n" + StyleDim.Render("q to cancel") + "\n")
	return b.String()
}

// runInteractive executes the pipeline behind a bubbletea progress UI.
// Pipeline logging is silenced so it cannot garble the display; the final
// summary is printed after the UI exits.
func runInteractive(ctx context.Context, runner *pipeline.Runner, cfg config.Config, refresh bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewStageModel(cancel), tea.WithContext(ctx))

	go func() {
		result, err := runner.Execute(ctx, pipeline.Options{
			Config:  cfg,
			Refresh: refresh,
			Logger:  charmlog.New(io.Discard),
			Observer: func(ev pipeline.StageEvent) {
				p.Send(stageEventMsg(ev))
			},
		})
		p.Send(runDoneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return err
	}

	m, ok := final.(StageModel)
	if !ok || !m.done {
		return ctx.Err()
	}
	if m.err != nil {
		return m.err
	}

	for _, path := range m.result.Artifacts() {
		printFile(path)
	}
	printFile(m.result.Bundle)
	printStats(len(m.result.Artifacts())+1, m.result.CacheInfo.RenderHit)
	return nil
}
