package observability

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseRunning    Phase = "RUNNING"
	PhaseEmitting   Phase = "EMITTING"
	PhaseGenerating Phase = "GENERATING"
)

type SystemStatus struct {
	mu           sync.RWMutex
	CurrentPhase Phase
	ActiveTask   string
	LastUpdate   time.Time
}

var globalStatus = &SystemStatus{
	CurrentPhase: PhaseIdle,
	LastUpdate:   time.Now(),
}

// SetStatus updates the global status.
func SetStatus(phase Phase, task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentPhase = phase
	globalStatus.ActiveTask = task
	globalStatus.LastUpdate = time.Now()
}

// GetStatus retrieves a copy of the global status.
func GetStatus() (Phase, string, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.CurrentPhase, globalStatus.ActiveTask, globalStatus.LastUpdate
}
