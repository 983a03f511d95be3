package ui

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
)

// Viewer shows a file full screen
type Viewer interface {
	Show(path string) error
}

// pagerMsg contains the result of showing a file in the pager
type pagerMsg struct {
	err error
}

// Pager shows files in ov, suspending the program while it runs
type Pager struct {
	program *tea.Program
}

// NewPager creates a pager for program
func NewPager(program *tea.Program) *Pager {
	return &Pager{program: program}
}

// Show pages the file at path
func (p *Pager) Show(path string) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("nothing generated yet: %w", err)
	}
	defer f.Close()

	// Release terminal control to run ov
	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// Give ov time to hand the terminal back
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(f)
	if err != nil {
		return err
	}

	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// showArtifact pages the generated artifact off the update loop
func (m *Model) showArtifact() tea.Cmd {
	if m.viewer == nil || m.artifactPath == nil {
		return nil
	}
	viewer, path := m.viewer, m.artifactPath()
	if path == "" {
		m.setError(errors.New(m.lang.Str("Nothing to view")))
		return nil
	}
	return func() tea.Msg {
		return pagerMsg{err: viewer.Show(path)}
	}
}
