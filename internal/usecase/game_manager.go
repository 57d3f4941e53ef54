package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/tictactoe"
)

const botMoveTimeout = 5 * time.Second

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.GameSession) error
	GetByID(ctx context.Context, id string) (*entity.GameSession, error)
	DeleteByID(ctx context.Context, id string) error
}

type scoreRepo interface {
	Save(ctx context.Context, sessionID string, tally *entity.ScoreTally) error
	Load(ctx context.Context, sessionID string) (*entity.ScoreTally, error)
	DeleteByID(ctx context.Context, sessionID string) error
}

type moveStrategy interface {
	SelectMove(board [9]string, mark string) (int, error)
}

// GameManager owns the command/query surface of the game core: session
// lifecycle, move application, score accounting, and the delayed scripted
// opponent move. Access to a session is serialized through a per-session
// mutex; ApplyMove is not reentrant-safe on its own.
type GameManager struct {
	logger *slog.Logger

	sessionRepo sessionRepo
	scoreRepo   scoreRepo
	strategy    moveStrategy
	botDelay    time.Duration

	onUpdate func(session *entity.GameSession)

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	timers map[string]*time.Timer
}

func NewGameManager(logger *slog.Logger, sessionRepo sessionRepo, scoreRepo scoreRepo, strategy moveStrategy, botDelay time.Duration) *GameManager {
	return &GameManager{
		logger: logger,

		sessionRepo: sessionRepo,
		scoreRepo:   scoreRepo,
		strategy:    strategy,
		botDelay:    botDelay,

		locks:  make(map[string]*sync.Mutex),
		timers: make(map[string]*time.Timer),
	}
}

// SetUpdateHandler registers the callback invoked after an asynchronously
// applied bot move. Must be set during wiring, before the manager serves
// commands.
func (that *GameManager) SetUpdateHandler(handler func(session *entity.GameSession)) {
	that.onUpdate = handler
}

// StartSession creates a fresh session for the given mode. An empty id
// requests a newly generated one. An accumulated score tally under the
// same id is kept; only ResetScore clears it.
func (that *GameManager) StartSession(ctx context.Context, id, mode string) (*entity.GameSession, error) {
	if !entity.IsValidMode(mode) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownMode, mode)
	}

	if id == "" {
		id = pkg.GenerateNewSessionID()
	}

	that.cancelScheduledMove(id)

	lock := that.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session := entity.NewSession(id, mode)
	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ApplyMove applies a human move to the session board. In bot mode the O
// side belongs to the scripted opponent, so a successful move that leaves
// the game ongoing schedules the opponent's reply after the configured
// delay.
func (that *GameManager) ApplyMove(ctx context.Context, id string, cell int) (*entity.GameSession, error) {
	lock := that.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsWithBot() && session.Turn == entity.PlayerO {
		return session, apperror.ErrNotYourTurn
	}

	if err = tictactoe.ApplyMove(session, cell); err != nil {
		return session, fmt.Errorf("failed to apply move: %w", err)
	}

	if session.IsFinished() {
		if err = that.recordResult(ctx, session); err != nil {
			return nil, err
		}
	}

	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if session.IsOngoing() && session.IsWithBot() && session.Turn == entity.PlayerO {
		that.scheduleBotMove(session.ID, session.Generation)
	}

	return session, nil
}

// RestartBoard starts a new game on a fresh board, keeping the mode and
// the score tally. Any pending scripted move is cancelled.
func (that *GameManager) RestartBoard(ctx context.Context, id string) (*entity.GameSession, error) {
	that.cancelScheduledMove(id)

	lock := that.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.ResetBoard()

	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}

// ResetScore zeroes the tally and restarts the board: a new game never
// continues under a stale tally boundary.
func (that *GameManager) ResetScore(ctx context.Context, id string) (*entity.GameSession, *entity.ScoreTally, error) {
	that.cancelScheduledMove(id)

	lock := that.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.ResetBoard()

	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to update session: %w", err)
	}

	tally := &entity.ScoreTally{}
	if err = that.scoreRepo.Save(ctx, id, tally); err != nil {
		return nil, nil, fmt.Errorf("failed to save score tally: %w", err)
	}

	return session, tally, nil
}

func (that *GameManager) Session(ctx context.Context, id string) (*entity.GameSession, error) {
	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

func (that *GameManager) Score(ctx context.Context, id string) (*entity.ScoreTally, error) {
	tally, err := that.scoreRepo.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load score tally: %w", err)
	}

	return tally, nil
}

// CleanupSession drops the session and its tally from the store. The
// score boundary is session-scoped, so it goes with the session.
func (that *GameManager) CleanupSession(ctx context.Context, id string) error {
	that.cancelScheduledMove(id)

	lock := that.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := that.sessionRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := that.scoreRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete score tally: %w", err)
	}

	that.releaseSession(id)

	return nil
}

// releaseSession drops the per-session bookkeeping once the session is
// gone, so the lock and timer registries do not grow with session ids.
func (that *GameManager) releaseSession(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.locks, id)
	delete(that.timers, id)
}

// scheduleBotMove arms the delayed scripted move. The session generation
// is captured now; fireBotMove drops the move if the board changed in the
// meantime.
func (that *GameManager) scheduleBotMove(sessionID string, generation uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if timer, ok := that.timers[sessionID]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(that.botDelay, func() {
		that.clearScheduledMove(sessionID, timer)
		that.fireBotMove(sessionID, generation)
	})

	that.timers[sessionID] = timer
}

// clearScheduledMove removes a fired timer from the registry. The entry
// is only dropped when it still belongs to this timer; a reschedule may
// have replaced it in the meantime.
func (that *GameManager) clearScheduledMove(sessionID string, timer *time.Timer) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.timers[sessionID] == timer {
		delete(that.timers, sessionID)
	}
}

func (that *GameManager) cancelScheduledMove(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if timer, ok := that.timers[sessionID]; ok {
		timer.Stop()
		delete(that.timers, sessionID)
	}
}

// fireBotMove runs when the delay elapses. Stopping the timer is only an
// optimization: the session may have been restarted between Stop and the
// lock acquisition, so the generation captured at schedule time is the
// actual guarantee that a stale move is never applied.
func (that *GameManager) fireBotMove(sessionID string, generation uint64) {
	log := that.logger.With("method", "fireBotMove", "sessionID", sessionID)

	ctx, cancel := context.WithTimeout(context.Background(), botMoveTimeout)
	defer cancel()

	lock := that.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return
	}

	if !session.IsOngoing() || session.Generation != generation || session.Turn != entity.PlayerO {
		log.Debug("dropping stale scheduled move", "generation", generation)
		return
	}

	cell, err := that.strategy.SelectMove(session.Board, session.Turn)
	if err != nil {
		log.Error("failed to select move", "error", err)
		return
	}

	if err = tictactoe.ApplyMove(session, cell); err != nil {
		log.Error("failed to apply scripted move", "cell", cell, "error", err)
		return
	}

	if session.IsFinished() {
		if err = that.recordResult(ctx, session); err != nil {
			log.Error("failed to record result", "error", err)
			return
		}
	}

	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		log.Error("failed to update session", "error", err)
		return
	}

	if that.onUpdate != nil {
		that.onUpdate(session)
	}
}

// recordResult increments exactly one tally counter for the terminal
// result the session just reached.
func (that *GameManager) recordResult(ctx context.Context, session *entity.GameSession) error {
	tally, err := that.scoreRepo.Load(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to load score tally: %w", err)
	}

	if err = tally.Record(session.Winner); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}

	if err = that.scoreRepo.Save(ctx, session.ID, tally); err != nil {
		return fmt.Errorf("failed to save score tally: %w", err)
	}

	return nil
}

func (that *GameManager) sessionLock(id string) *sync.Mutex {
	that.mu.Lock()
	defer that.mu.Unlock()

	lock, ok := that.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[id] = lock
	}

	return lock
}
