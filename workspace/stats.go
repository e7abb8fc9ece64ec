package workspace

import (
	"fmt"
	"sync"
	"time"

	"github.com/meysamhadeli/buildscope/constants/lipgloss"
)

// sessionStats accumulates reload statistics for the lifetime of one
// process.
type sessionStats struct {
	mu                 sync.Mutex
	reloads            int
	packages           int
	databases          int
	records            int
	lastReloadDuration time.Duration
}

func newSessionStats() *sessionStats {
	return &sessionStats{}
}

// ReloadCompleted records the outcome of one successful reload.
func (s *sessionStats) ReloadCompleted(packages, databases, records int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads++
	s.packages = packages
	s.databases = databases
	s.records = records
	s.lastReloadDuration = duration
}

// Snapshot returns the current counters.
func (s *sessionStats) Snapshot() (reloads, packages, databases, records int, lastReload time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloads, s.packages, s.databases, s.records, s.lastReloadDuration
}

// Display prints the session statistics in a box.
func (s *sessionStats) Display() {
	reloads, packages, databases, records, lastReload := s.Snapshot()

	info := fmt.Sprintf("Reloads: %d - Packages: %d - Databases: %d - Compile Records: %d - Last Reload: %s",
		reloads, packages, databases, records, lastReload.Round(time.Millisecond))

	fmt.Println(lipgloss.BoxStyle.Render(info))
}

func (s *sessionStats) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads = 0
	s.packages = 0
	s.databases = 0
	s.records = 0
	s.lastReloadDuration = 0
}
