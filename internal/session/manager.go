// Package session holds document sessions: the loaded document, the active
// record index and the modification map, guarded by a single lock.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datascope/backend/internal/metric"
	"github.com/datascope/backend/internal/models"
	"github.com/datascope/backend/internal/parser"
	"github.com/datascope/backend/internal/schema"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion.
const MaxSessions = 10

// SessionKeepAliveWindow is how long to keep sessions that are actively used.
const SessionKeepAliveWindow = 5 * time.Minute

// State holds everything attached to one loaded document.
type State struct {
	Session *models.DocumentSession
	// Document is replaced wholesale on each load, never partially mutated.
	Document *models.Document
	// Modifications is the sparse overlay of unsaved per-record edits.
	// Any entry here implies the session has unsaved changes.
	Modifications map[int]interface{}
	// SchemaTree is memoized per document identity; nil until requested.
	SchemaTree   *models.SchemaTree
	CompareLeft  *models.CompareSource
	CompareRight *models.CompareSource
	LastAccessed time.Time
}

// EventFunc receives session lifecycle notifications for push delivery.
type EventFunc func(eventType string, payload interface{})

// Manager handles active document sessions.
type Manager struct {
	sessions map[string]*State
	mu       sync.RWMutex
	registry *parser.Registry
	logger   *zap.Logger
	metrics  *metric.Metrics
	onEvent  EventFunc
}

// NewManager creates a session manager. logger must be non-nil; metrics may
// be nil when instrumentation is disabled.
func NewManager(registry *parser.Registry, logger *zap.Logger, metrics *metric.Metrics) *Manager {
	return &Manager{
		sessions: make(map[string]*State),
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// SetEventHandler installs the push notification sink.
func (m *Manager) SetEventHandler(fn EventFunc) {
	m.onEvent = fn
}

func (m *Manager) emit(eventType string, payload interface{}) {
	if m.onEvent != nil {
		m.onEvent(eventType, payload)
	}
}

// Load begins parsing a stored file into a new session. The parse runs in a
// background goroutine; a newly started load simply replaces whatever state
// existed before, with no cancellation of in-flight work.
func (m *Manager) Load(fileID, filePath, fileName string) (*models.DocumentSession, error) {
	m.cleanupOldSessionsIfNeeded()

	sessionID := uuid.New().String()
	sess := models.NewDocumentSession(sessionID, fileID)
	sess.Status = models.SessionStatusParsing

	state := &State{
		Session:       sess,
		Modifications: make(map[int]interface{}),
		LastAccessed:  time.Now(),
	}

	m.mu.Lock()
	m.sessions[sessionID] = state
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveSessions.Set(float64(m.sessionCount()))
	}

	go m.runParse(sessionID, filePath, fileName)

	return sess, nil
}

func (m *Manager) runParse(sessionID, filePath, fileName string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("parse panicked",
				zap.String("session", shortID(sessionID)),
				zap.Any("panic", r))
			m.failSession(sessionID, fmt.Sprintf("parse panicked: %v", r))
		}
	}()

	start := time.Now()

	p, format, err := m.registry.FindParser(filePath, fileName)
	if err != nil {
		m.failSession(sessionID, err.Error())
		return
	}

	m.logger.Info("parsing document",
		zap.String("session", shortID(sessionID)),
		zap.String("file", fileName),
		zap.String("format", string(format)))

	m.setProgress(sessionID, 10)

	doc, parseErrors, err := p.Parse(filePath, fileName)
	if err != nil {
		m.logger.Error("parse failed",
			zap.String("session", shortID(sessionID)), zap.Error(err))
		m.failSession(sessionID, fmt.Sprintf("parse failed: %v", err))
		return
	}
	if m.metrics != nil {
		for _, pe := range parseErrors {
			m.metrics.ParseErrors.WithLabelValues(string(pe.Severity)).Inc()
		}
	}
	if doc == nil {
		// Completely unparseable: a single top-level error, terminal for
		// this load attempt.
		m.mu.Lock()
		if state, ok := m.sessions[sessionID]; ok {
			state.Session.Status = models.SessionStatusError
			state.Session.Errors = parseErrors
			state.Session.Format = format
		}
		m.mu.Unlock()
		m.emit("parse:error", map[string]interface{}{
			"sessionId": sessionID,
			"errors":    parseErrors,
		})
		return
	}

	doc.ID = uuid.New().String()
	elapsed := time.Since(start)

	m.mu.Lock()
	state, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	state.Document = doc
	state.Modifications = make(map[int]interface{})
	state.SchemaTree = nil
	state.Session.Status = models.SessionStatusComplete
	state.Session.Progress = 100
	state.Session.ActiveIndex = 0
	state.Session.RecordCount = doc.RecordCount
	state.Session.HasChanges = false
	state.Session.ProcessingTimeMs = elapsed.Milliseconds()
	state.Session.Format = doc.Format
	state.Session.Errors = parseErrors
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.DocumentsParsed.WithLabelValues(string(doc.Format)).Inc()
		m.metrics.ParseDuration.Observe(elapsed.Seconds())
	}

	m.logger.Info("parse complete",
		zap.String("session", shortID(sessionID)),
		zap.Int("records", doc.RecordCount),
		zap.Int("errors", len(parseErrors)),
		zap.Duration("elapsed", elapsed))

	m.emit("parse:complete", map[string]interface{}{
		"sessionId":   sessionID,
		"recordCount": doc.RecordCount,
		"format":      doc.Format,
	})
}

func (m *Manager) setProgress(sessionID string, progress float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[sessionID]; ok {
		state.Session.Progress = progress
	}
}

func (m *Manager) failSession(sessionID, reason string) {
	m.mu.Lock()
	if state, ok := m.sessions[sessionID]; ok {
		state.Session.Status = models.SessionStatusError
		state.Session.Errors = append(state.Session.Errors, models.ParseError{
			Severity: models.SeverityError,
			Message:  reason,
		})
	}
	m.mu.Unlock()
	m.emit("parse:error", map[string]interface{}{
		"sessionId": sessionID,
		"message":   reason,
	})
}

// GetSession returns the wire view of a session by ID.
func (m *Manager) GetSession(id string) (*models.DocumentSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Session, true
}

// Document returns the loaded document for a session.
func (m *Manager) Document(id string) (*models.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		return nil, false
	}
	return state.Document, true
}

// TouchSession updates the LastAccessed timestamp for a session.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// SetActive moves the active record index, clamped to the valid range, and
// returns the index actually set.
func (m *Manager) SetActive(id string, index int) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		return 0, false
	}
	state.Session.ActiveIndex = clamp(index, 0, state.Document.RecordCount-1)
	return state.Session.ActiveIndex, true
}

// Next advances the active record index by one, clamped.
func (m *Manager) Next(id string) (int, bool) {
	m.mu.RLock()
	cur, ok := m.activeIndex(id)
	m.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return m.SetActive(id, cur+1)
}

// Prev moves the active record index back by one, clamped.
func (m *Manager) Prev(id string) (int, bool) {
	m.mu.RLock()
	cur, ok := m.activeIndex(id)
	m.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return m.SetActive(id, cur-1)
}

func (m *Manager) activeIndex(id string) (int, bool) {
	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		return 0, false
	}
	return state.Session.ActiveIndex, true
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetModification records an unsaved edit for a record. The value replaces
// the parsed one everywhere effective values are read.
func (m *Manager) SetModification(id string, index int, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		return fmt.Errorf("session not found: %s", id)
	}
	if index < 0 || index >= state.Document.RecordCount {
		return fmt.Errorf("record index out of range: %d", index)
	}
	state.Modifications[index] = value
	state.Session.HasChanges = true
	return nil
}

// ClearModification drops the edit for a single record, if any.
func (m *Manager) ClearModification(id string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	delete(state.Modifications, index)
	state.Session.HasChanges = len(state.Modifications) > 0
	return nil
}

// DiscardModifications empties the modification map wholesale.
func (m *Manager) DiscardModifications(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	state.Modifications = make(map[int]interface{})
	state.Session.HasChanges = false
	return nil
}

// HasChanges reports whether any unsaved edits exist.
func (m *Manager) HasChanges(id string) (bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return false, false
	}
	return len(state.Modifications) > 0, true
}

// EffectiveValue returns the record's value with the modification overlay
// applied.
func (m *Manager) EffectiveValue(id string, index int) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		return nil, false
	}
	if index < 0 || index >= state.Document.RecordCount {
		return nil, false
	}
	if v, modified := state.Modifications[index]; modified {
		return v, true
	}
	return state.Document.Records[index].Value, true
}

// Record returns one record with the overlay applied, plus whether it is
// currently modified.
func (m *Manager) Record(id string, index int) (*models.Record, bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		return nil, false, false
	}
	if index < 0 || index >= state.Document.RecordCount {
		return nil, false, false
	}
	rec := state.Document.Records[index]
	v, modified := state.Modifications[index]
	if modified {
		rec.Value = v
	}
	return &rec, modified, true
}

// Records returns a paginated window of records with the overlay applied.
func (m *Manager) Records(id string, page, pageSize int) ([]models.Record, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		return nil, 0, false
	}

	total := state.Document.RecordCount
	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []models.Record{}, total, true
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	window := make([]models.Record, end-start)
	copy(window, state.Document.Records[start:end])
	for i := range window {
		if v, modified := state.Modifications[window[i].Index]; modified {
			window[i].Value = v
		}
	}
	return window, total, true
}

// EffectiveValues returns every record's value with the overlay applied.
// Records with parse errors contribute nil.
func (m *Manager) EffectiveValues(id string) ([]interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		return nil, false
	}
	out := make([]interface{}, state.Document.RecordCount)
	for i, rec := range state.Document.Records {
		if v, modified := state.Modifications[i]; modified {
			out[i] = v
			continue
		}
		out[i] = rec.Value
	}
	return out, true
}

// Schema returns the inferred schema tree, computing it on first use and
// memoizing it against the current document.
func (m *Manager) Schema(id string) (*models.SchemaTree, bool) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	if !ok || state.Document == nil {
		m.mu.RUnlock()
		return nil, false
	}
	if cached := state.SchemaTree; cached != nil {
		m.mu.RUnlock()
		return cached, true
	}
	records := state.Document.Records
	m.mu.RUnlock()

	tree := schema.Infer(records)

	m.mu.Lock()
	if state, ok := m.sessions[id]; ok {
		state.SchemaTree = tree
	}
	m.mu.Unlock()
	return tree, true
}

// SetCompare records the compare source for one side ("left" or "right").
func (m *Manager) SetCompare(id, side string, src models.CompareSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	switch side {
	case "left":
		state.CompareLeft = &src
	case "right":
		state.CompareRight = &src
	default:
		return fmt.Errorf("unknown compare side: %s", side)
	}
	return nil
}

// SwapCompare exchanges the two compare sources.
func (m *Manager) SwapCompare(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	state.CompareLeft, state.CompareRight = state.CompareRight, state.CompareLeft
	return nil
}

// CompareSources returns the currently selected sources.
func (m *Manager) CompareSources(id string) (left, right *models.CompareSource, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, found := m.sessions[id]
	if !found {
		return nil, nil, false
	}
	return state.CompareLeft, state.CompareRight, true
}

func (m *Manager) sessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// cleanupOldSessionsIfNeeded removes completed sessions when at capacity.
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	var toDelete []string
	for id, state := range m.sessions {
		if state.Session.Status == models.SessionStatusComplete ||
			state.Session.Status == models.SessionStatusError {
			toDelete = append(toDelete, id)
		}
	}

	toFree := len(m.sessions) - MaxSessions + 1
	deleted := 0
	for _, id := range toDelete {
		if deleted >= toFree {
			break
		}
		delete(m.sessions, id)
		deleted++
		m.logger.Info("evicted session at capacity", zap.String("session", shortID(id)))
	}
}

// CleanupOldSessions removes finished sessions older than maxAge, keeping
// ones accessed within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, state := range m.sessions {
		if state.Session.Status != models.SessionStatusComplete &&
			state.Session.Status != models.SessionStatusError {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			m.logger.Info("cleaned up aged session",
				zap.String("session", shortID(id)),
				zap.Duration("idle", time.Since(state.LastAccessed)))
		}
	}

	if m.metrics != nil {
		m.metrics.ActiveSessions.Set(float64(len(m.sessions)))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
