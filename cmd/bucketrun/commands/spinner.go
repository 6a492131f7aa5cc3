package commands

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/chelnak/ysmrr"

	"github.com/bucketrun/bucketrun/common/util"
	"github.com/bucketrun/bucketrun/engine"
)

// maxSpinnerTextLength bounds how much of a step_failed event's detail is
// shown on its spinner line, so one verbose error can't blow out the width
// of the whole progress display.
const maxSpinnerTextLength = 80

// spinnerState tracks the one line of progress output shown for a single
// step while a plan runs.
type spinnerState struct {
	spinner               *ysmrr.Spinner
	stepNameDisplayLength int
	stepName              string
	finished              bool
	text                  string
}

func newSpinnerState(spinner *ysmrr.Spinner, stepName string, displayLength int, text string) *spinnerState {
	state := &spinnerState{spinner: spinner, stepName: stepName, stepNameDisplayLength: displayLength, text: text}
	spinner.UpdateMessage(state.displayMessage())
	return state
}

func (s *spinnerState) setDisplayLength(length int) {
	s.stepNameDisplayLength = length
	s.spinner.UpdateMessage(s.displayMessage())
}

func (s *spinnerState) setText(text string, finished bool) {
	if s.finished {
		return
	}
	s.text = text
	s.spinner.UpdateMessage(s.displayMessage())
	s.finished = finished
}

func (s *spinnerState) displayMessage() string {
	name := s.stepName
	nameLen := utf8.RuneCountInString(name)
	if s.stepNameDisplayLength > nameLen {
		name += spaces(s.stepNameDisplayLength - nameLen)
	} else if s.stepNameDisplayLength < nameLen {
		name = truncateRunes(name, s.stepNameDisplayLength)
	}
	return fmt.Sprintf("%s %s", name, s.text)
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func truncateRunes(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[0:maxLength])
}

// stepSpinnerManager renders one spinner per step of a running plan,
// driven entirely by the engine.Event stream a diagnostics.Emitter fans
// out. It implements diagnostics.Subscriber.
type stepSpinnerManager struct {
	manager      ysmrr.SpinnerManager
	mu           sync.Mutex
	spinnersByID map[engine.StepID]*spinnerState
}

func newStepSpinnerManager() *stepSpinnerManager {
	return &stepSpinnerManager{
		manager:      ysmrr.NewSpinnerManager(),
		spinnersByID: map[engine.StepID]*spinnerState{},
	}
}

func (m *stepSpinnerManager) Start() { m.manager.Start() }
func (m *stepSpinnerManager) Stop()  { m.manager.Stop() }

// OnEvent implements diagnostics.Subscriber.
func (m *stepSpinnerManager) OnEvent(ev engine.Event) {
	switch ev.Kind {
	case "step_started":
		m.findOrCreateSpinner(ev.StepID)
	case "step_done":
		m.updateSpinner(ev.StepID, "done", true, false)
	case "step_failed":
		m.updateSpinner(ev.StepID, util.TruncateStringToMaxLength("failed: "+ev.Detail, maxSpinnerTextLength), true, true)
	}
}

func (m *stepSpinnerManager) findOrCreateSpinner(id engine.StepID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.spinnersByID[id]; exists {
		return
	}

	name := id.String()
	maxLen := 0
	for _, state := range m.spinnersByID {
		if state.stepNameDisplayLength > maxLen {
			maxLen = state.stepNameDisplayLength
		}
	}
	if n := utf8.RuneCountInString(name); n > maxLen {
		maxLen = n
		for _, state := range m.spinnersByID {
			state.setDisplayLength(maxLen)
		}
	}

	spinner := m.manager.AddSpinner("")
	m.spinnersByID[id] = newSpinnerState(spinner, name, maxLen, "running")
}

func (m *stepSpinnerManager) updateSpinner(id engine.StepID, text string, finished, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.spinnersByID[id]
	if !ok {
		return
	}
	state.setText(text, finished)
	if failed {
		state.spinner.Error()
	} else {
		state.spinner.Complete()
	}
}
