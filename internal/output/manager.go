package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/progress"
	"golang.org/x/term"
)

type JobOutput struct {
	ID          int
	Label       string
	Status      string
	Message     string
	StreamLines []string
	Progress    *progress.Snapshot
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
	Index       int
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager renders the state of every job. In display mode it redraws the
// terminal on a ticker; otherwise it only logs state changes.
type Manager struct {
	outputs     map[int]*JobOutput
	mutex       sync.RWMutex
	numLines    int
	maxStreams  int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	jobCount    int
	displayWg   sync.WaitGroup
	display     bool
	started     bool
}

func NewManager(display bool) *Manager {
	return &Manager{
		outputs:     make(map[int]*JobOutput),
		maxStreams:  5,
		doneCh:      make(chan struct{}),
		displayTick: 200 * time.Millisecond,
		display:     display && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (m *Manager) RegisterJob(label string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobCount++
	m.outputs[m.jobCount] = &JobOutput{
		ID:          m.jobCount,
		Label:       label,
		Status:      "pending",
		StreamLines: []string{},
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		Index:       m.jobCount,
	}
	return m.jobCount
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Message = message
		info.LastUpdated = time.Now()
		if !m.display {
			log.Info().Str("op", "output/manager").Msgf("[%d] %s", id, message)
		}
	}
}

func (m *Manager) SetStatus(id int, status string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Status = status
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) GetStatus(id int) string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if info, exists := m.outputs[id]; exists {
		return info.Status
	}
	return "unknown"
}

// SetProgress stores the latest snapshot; it never blocks on rendering.
func (m *Manager) SetProgress(id int, snap progress.Snapshot) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Progress = &snap
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) AddStreamLine(id int, line string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.StreamLines = append(info.StreamLines, wrapText(line, 2+4)...)
		if len(info.StreamLines) > m.maxStreams {
			info.StreamLines = info.StreamLines[len(info.StreamLines)-m.maxStreams:]
		}
		info.LastUpdated = time.Now()
		if !m.display {
			log.Debug().Str("op", "output/manager").Msgf("[%d] %s", id, line)
		}
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.StreamLines = []string{}
		info.Progress = nil
		if message == "" {
			info.Message = fmt.Sprintf("Completed %s", info.Label)
		} else {
			info.Message = message
		}
		info.Complete = true
		info.Status = "success"
		info.LastUpdated = time.Now()
		if !m.display {
			log.Info().Str("op", "output/manager").Msgf("[%d] %s", id, info.Message)
		}
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.Progress = nil
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{
			Label: info.Label,
			Error: err,
			Time:  time.Now(),
		})
		if !m.display {
			log.Error().Str("op", "output/manager").Msgf("[%d] %s: %v", id, info.Label, err)
		}
	}
}

// Errors returns the reported failures in order.
func (m *Manager) Errors() []ErrorReport {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]ErrorReport(nil), m.errors...)
}

func (m *Manager) GetStatusIndicator(status string) string {
	switch status {
	case "success", "pass":
		return successStyle.Render(StyleSymbols["pass"])
	case "error", "fail":
		return errorStyle.Render(StyleSymbols["fail"])
	case "warning":
		return warningStyle.Render(StyleSymbols["warning"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) sortJobs() (active, pending, completed []*JobOutput) {
	var all []*JobOutput
	for _, info := range m.outputs {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	for _, j := range all {
		if j.Complete {
			completed = append(completed, j)
		} else if j.Status == "pending" && j.Message == "" {
			pending = append(pending, j)
		} else {
			active = append(active, j)
		}
	}
	return active, pending, completed
}

func styleMessage(status, message string) string {
	switch status {
	case "success":
		return successStyle.Render(message)
	case "error":
		return errorStyle.Render(message)
	case "warning":
		return warningStyle.Render(message)
	default:
		return pendingStyle.Render(message)
	}
}

// render builds the display lines for the current state, capped at maxLines.
func (m *Manager) render(maxLines int) []string {
	var lines []string
	indent := strings.Repeat(" ", 2+4)
	add := func(line string) bool {
		if len(lines) >= maxLines {
			return false
		}
		lines = append(lines, line)
		return true
	}

	active, pending, completed := m.sortJobs()
	for _, info := range active {
		elapsed := time.Since(info.StartTime).Round(time.Second)
		if !add(fmt.Sprintf("  %s %s %s", m.GetStatusIndicator(info.Status), debugStyle.Render(elapsed.String()), styleMessage(info.Status, info.Message))) {
			return lines
		}
		if info.Progress != nil {
			bar := PrintProgressBar(info.Progress.Completed, info.Progress.Total, 30)
			if !add(indent + bar + debugStyle.Render(info.Progress.Line())) {
				return lines
			}
		}
		for _, line := range info.StreamLines {
			if !add(indent + streamStyle.Render(line)) {
				return lines
			}
		}
	}
	for range pending {
		if !add(fmt.Sprintf("  %s %s", m.GetStatusIndicator("pending"), pendingStyle.Render("Waiting..."))) {
			return lines
		}
	}
	if len(completed) > 10 {
		add(infoStyle.Render(fmt.Sprintf("  %d jobs completed with varying hidden status ...", len(completed)-8)))
		completed = completed[len(completed)-8:]
	}
	for _, info := range completed {
		total := info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		message := info.Message
		if info.Status == "error" {
			message = fmt.Sprintf("Failed %s", info.Label)
		}
		if !add(fmt.Sprintf("  %s %s %s", m.GetStatusIndicator(info.Status), debugStyle.Render(total.String()), styleMessage(info.Status, message))) {
			return lines
		}
	}
	return lines
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}
	lines := m.render(getTerminalHeight() - 3)
	for _, line := range lines {
		fmt.Println(line)
	}
	m.numLines = len(lines)
}

func (m *Manager) StartDisplay() {
	m.started = true
	if !m.display {
		return
	}
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	if !m.started {
		return
	}
	m.started = false
	close(m.doneCh)
	m.displayWg.Wait()
	m.ShowSummary()
}

func (m *Manager) displayErrors() {
	if len(m.errors) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("  " + errorStyle.Bold(true).Render("Errors:"))
	for i, err := range m.errors {
		fmt.Printf("    %s %s %s\n",
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", err.Time.Format("15:04:05"))),
			errorStyle.Render(err.Label))
		fmt.Printf("      %s\n", errorStyle.Render(fmt.Sprintf("Error: %v", err.Error)))
	}
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Println()
	var success, failures int
	for _, info := range m.outputs {
		if info.Status == "success" {
			success++
		} else if info.Status == "error" {
			failures++
		}
	}
	fmt.Println("  " + success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.outputs))))
	if failures > 0 {
		fmt.Println("  " + errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.outputs))))
	}
	m.displayErrors()
	fmt.Println()
}
