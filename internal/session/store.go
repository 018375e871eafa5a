package session

import (
	"log/slog"
	"sync"
	"time"

	"jobBoardBot/internal/domain/models"

	"github.com/robfig/cron/v3"
)

// Session — открытый диалог пользователя
type Session struct {
	State     models.ConversationState
	City      string // город, введенный на шаге AwaitingCity
	UpdatedAt time.Time
}

type editEntry struct {
	vacancyID int64
	updatedAt time.Time
}

// Store хранит состояния диалогов в памяти процесса. Состояние
// редактирования держится отдельно от основного и имеет приоритет.
// Блокировка общая, но состояния разных пользователей независимы.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	edits    map[int64]editEntry

	log  *slog.Logger
	ttl  time.Duration
	now  func() time.Time
	cron *cron.Cron
}

func NewStore(log *slog.Logger, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[int64]Session),
		edits:    make(map[int64]editEntry),
		log:      log,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get возвращает открытый диалог пользователя, если он есть
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	return sess, ok
}

// Put открывает или продвигает диалог пользователя
func (s *Store) Put(userID int64, state models.ConversationState, city string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = Session{
		State:     state,
		City:      city,
		UpdatedAt: s.now(),
	}
}

// Clear закрывает основной диалог пользователя
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}

// ClearAll сбрасывает и основной диалог, и состояние редактирования.
// Вызывается при входе в любой новый поток: потоки не вкладываются.
func (s *Store) ClearAll(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	delete(s.edits, userID)
}

// SetEdit запоминает вакансию, описание которой пользователь меняет
func (s *Store) SetEdit(userID, vacancyID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edits[userID] = editEntry{
		vacancyID: vacancyID,
		updatedAt: s.now(),
	}
}

// TakeEdit забирает и очищает состояние редактирования
func (s *Store) TakeEdit(userID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.edits[userID]
	if ok {
		delete(s.edits, userID)
	}

	return entry.vacancyID, ok
}

// StartSweeper запускает периодическую чистку брошенных диалогов
func (s *Store) StartSweeper(interval time.Duration) {
	s.cron = cron.New()
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.Sweep))
	s.cron.Start()

	s.log.Info("session sweeper started",
		slog.Duration("interval", interval),
		slog.Duration("ttl", s.ttl),
	)
}

// StopSweeper останавливает чистку
func (s *Store) StopSweeper() {
	if s.cron == nil {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep удаляет диалоги, к которым давно не возвращались
func (s *Store) Sweep() {
	deadline := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, sess := range s.sessions {
		if sess.UpdatedAt.Before(deadline) {
			delete(s.sessions, userID)
			removed++
		}
	}
	for userID, entry := range s.edits {
		if entry.updatedAt.Before(deadline) {
			delete(s.edits, userID)
			removed++
		}
	}

	if removed > 0 {
		s.log.Debug("swept abandoned sessions", slog.Int("removed", removed))
	}
}
