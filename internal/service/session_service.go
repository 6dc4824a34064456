package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"feedbacksurvey/internal/cache"
	"feedbacksurvey/internal/config"
	"feedbacksurvey/internal/model"
	"feedbacksurvey/internal/survey"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoConfirmChannel = errors.New("no confirmation channel for session")
	ErrShuttingDown     = errors.New("session service is shutting down")
)

// Presentation channels
const (
	ChannelWeb      = "web"
	ChannelTelegram = "telegram"
)

// Message types pushed to session subscribers
const (
	MsgState         = "state"
	MsgNotification  = "notification"
	MsgSessionClosed = "session_closed"
)

const (
	cacheTimeout  = 2 * time.Second
	recordTimeout = 10 * time.Second
)

// SessionConfig holds controller timing and session lifetime settings
type SessionConfig struct {
	ResetDelay     time.Duration
	ToastAutoClose time.Duration
	ToastPosition  string
	ConfirmTimeout time.Duration
	IdleTTL        time.Duration
}

// SessionConfigFrom converts the survey section of the config
func SessionConfigFrom(c config.SurveyConfig) SessionConfig {
	return SessionConfig{
		ResetDelay:     c.ResetDelay(),
		ToastAutoClose: c.ToastAutoClose(),
		ToastPosition:  c.ToastPosition,
		ConfirmTimeout: c.ConfirmTimeout(),
		IdleTTL:        c.SessionIdleTTL(),
	}
}

// SessionService hosts one survey controller per respondent session
type SessionService struct {
	q         *survey.Questionnaire
	auth      *AuthService
	responses *ResponseService
	cache     cache.SessionCache
	cfg       SessionConfig
	log       *zap.Logger

	broadcaster Broadcaster
	prompter    Prompter

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool

	// in-flight response recordings
	wg sync.WaitGroup
}

type session struct {
	id      string
	channel string
	ctrl    *survey.Controller

	// opMu serializes operations so the outbox belongs to one call
	opMu   sync.Mutex
	outMu  sync.Mutex
	outbox []model.Notification
	preset *bool // confirmation answered up front by the caller

	notifier  survey.Notifier
	confirmer survey.Confirmer

	// done is cancelled on teardown and aborts a pending confirmation
	done     context.Context
	cancel   context.CancelFunc
	mirrorMu sync.Mutex
}

// NewSessionService creates a new session service
func NewSessionService(
	q *survey.Questionnaire,
	auth *AuthService,
	responses *ResponseService,
	sessionCache cache.SessionCache,
	cfg SessionConfig,
	log *zap.Logger,
) *SessionService {
	return &SessionService{
		q:         q,
		auth:      auth,
		responses: responses,
		cache:     sessionCache,
		cfg:       cfg,
		log:       log,
		sessions:  make(map[string]*session),
	}
}

// SetBroadcaster sets the live connection broadcaster
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetPrompter sets the confirmation prompter used by web sessions
func (s *SessionService) SetPrompter(p Prompter) {
	s.prompter = p
}

// Questionnaire returns the questions every session walks through
func (s *SessionService) Questionnaire() *survey.Questionnaire {
	return s.q
}

// Create opens a web session and issues its token
func (s *SessionService) Create(ctx context.Context, channel string) (*model.SessionCreated, error) {
	id := "s_" + uuid.NewString()
	token, err := s.auth.GenerateSessionToken(id)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}

	sess, err := s.add(id, channel, nil, nil)
	if err != nil {
		return nil, err
	}

	return &model.SessionCreated{
		SessionID: id,
		Token:     token,
		View:      sess.ctrl.View(),
	}, nil
}

// Open returns the view of session id, creating it first if needed. Channels
// that deliver toasts and confirmations themselves pass notifier and confirmer.
func (s *SessionService) Open(ctx context.Context, id, channel string, notifier survey.Notifier, confirmer survey.Confirmer) (model.SurveyView, error) {
	if sess, err := s.get(id); err == nil {
		return sess.ctrl.View(), nil
	}
	sess, err := s.add(id, channel, notifier, confirmer)
	if err != nil {
		return model.SurveyView{}, err
	}
	return sess.ctrl.View(), nil
}

// Start moves the session from the welcome screen to the first question
func (s *SessionService) Start(ctx context.Context, id string) (*model.OperationResult, error) {
	return s.do(id, "start", func(sess *session) (survey.SubmitResult, error) {
		return survey.SubmitResult{}, sess.ctrl.Start()
	})
}

// Answer records an answer for the current question
func (s *SessionService) Answer(ctx context.Context, id string, value model.AnswerValue) (*model.OperationResult, error) {
	return s.do(id, "answer", func(sess *session) (survey.SubmitResult, error) {
		return survey.SubmitResult{}, sess.ctrl.Answer(value)
	})
}

// Previous goes back one question
func (s *SessionService) Previous(ctx context.Context, id string) (*model.OperationResult, error) {
	return s.do(id, "previous", func(sess *session) (survey.SubmitResult, error) {
		return survey.SubmitResult{}, sess.ctrl.Previous()
	})
}

// Next goes forward one question
func (s *SessionService) Next(ctx context.Context, id string) (*model.OperationResult, error) {
	return s.do(id, "next", func(sess *session) (survey.SubmitResult, error) {
		return survey.SubmitResult{}, sess.ctrl.Next()
	})
}

// Submit runs the submit flow. A non-nil confirmed answers the confirmation
// prompt up front; otherwise the session's channel is asked.
func (s *SessionService) Submit(ctx context.Context, id string, confirmed *bool) (*model.OperationResult, error) {
	return s.do(id, "submit", func(sess *session) (survey.SubmitResult, error) {
		sess.preset = confirmed
		defer func() { sess.preset = nil }()
		return sess.ctrl.Submit(ctx)
	})
}

// View returns the current render contract
func (s *SessionService) View(ctx context.Context, id string) (model.SurveyView, error) {
	sess, err := s.get(id)
	if err != nil {
		return model.SurveyView{}, err
	}
	return sess.ctrl.View(), nil
}

// State returns the raw controller state
func (s *SessionService) State(ctx context.Context, id string) (model.SurveyState, error) {
	sess, err := s.get(id)
	if err != nil {
		return model.SurveyState{}, err
	}
	return sess.ctrl.State(), nil
}

// Snapshot reads the mirrored state from the cache
func (s *SessionService) Snapshot(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	snap, err := s.cache.Get(ctx, id)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrSessionNotFound
	}
	return snap, err
}

// Exists reports whether a session is hosted
func (s *SessionService) Exists(id string) bool {
	_, err := s.get(id)
	return err == nil
}

// Close tears a session down. Any pending reset is cancelled.
func (s *SessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.teardown(ctx, sess)
	return nil
}

// Sweep closes sessions idle since before now-IdleTTL and returns how many.
// Sessions waiting on a confirmation are left alone.
func (s *SessionService) Sweep(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var idle []*session
	for id, sess := range s.sessions {
		if sess.ctrl.LastActive().Before(cutoff) && !sess.ctrl.View().AwaitingConfirmation {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.teardown(ctx, sess)
	}
	if len(idle) > 0 {
		s.log.Info("idle sessions swept", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is cancelled
func (s *SessionService) Run(ctx context.Context) {
	interval := s.cfg.IdleTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

// Shutdown closes every session, waits for in-flight operations and then for
// pending recordings
func (s *SessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		s.teardown(ctx, sess)
	}
	s.wg.Wait()
}

func (s *SessionService) add(id, channel string, notifier survey.Notifier, confirmer survey.Confirmer) (*session, error) {
	sess := &session{
		id:        id,
		channel:   channel,
		notifier:  notifier,
		confirmer: confirmer,
	}
	sess.done, sess.cancel = context.WithCancel(context.Background())
	sess.ctrl = survey.New(s.q, survey.Options{
		Notifier: survey.NotifierFunc(func(n model.Notification) {
			s.onNotify(sess, n)
		}),
		Confirmer: survey.ConfirmerFunc(func(ctx context.Context, prompt string) (bool, error) {
			return s.confirm(ctx, sess, prompt)
		}),
		ResetDelay:     s.cfg.ResetDelay,
		ToastAutoClose: s.cfg.ToastAutoClose,
		ToastPosition:  s.cfg.ToastPosition,
		OnChange: func(st model.SurveyState) {
			s.onChange(sess, st)
		},
		OnSubmit: func(sub survey.Submission) {
			s.onSubmit(sess, sub)
		},
		Logger: s.log.With(zap.String("session", id)),
	})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sess.ctrl.Close()
		sess.cancel()
		return nil, ErrShuttingDown
	}
	if _, dup := s.sessions[id]; dup {
		s.mu.Unlock()
		sess.ctrl.Close()
		sess.cancel()
		return nil, fmt.Errorf("session %s already exists", id)
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.Info("session opened", zap.String("session", id), zap.String("channel", channel))
	s.mirror(sess)
	return sess, nil
}

func (s *SessionService) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) do(id, op string, fn func(*session) (survey.SubmitResult, error)) (*model.OperationResult, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if !sess.opMu.TryLock() {
		if sess.ctrl.View().AwaitingConfirmation {
			return nil, survey.ErrAwaitingConfirmation
		}
		sess.opMu.Lock()
	}
	defer sess.opMu.Unlock()

	sess.drain()
	res, err := fn(sess)
	notes := sess.drain()
	if err != nil {
		if errors.Is(err, survey.ErrClosed) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &model.OperationResult{
		View:          sess.ctrl.View(),
		Notifications: notes,
		Outcome:       string(res.Outcome),
		Missing:       res.Missing,
	}, nil
}

func (s *SessionService) teardown(ctx context.Context, sess *session) {
	sess.ctrl.Close()
	sess.cancel()

	// wait out an operation still running against the closed controller
	sess.opMu.Lock()
	sess.opMu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, sess.id); err != nil {
		s.log.Warn("failed to drop session snapshot", zap.String("session", sess.id), zap.Error(err))
	}

	if s.broadcaster != nil {
		s.broadcaster.SendToSession(sess.id, MsgSessionClosed, map[string]string{"sessionId": sess.id})
		s.broadcaster.DisconnectSession(sess.id)
	}
	s.log.Info("session closed", zap.String("session", sess.id))
}

func (s *SessionService) onNotify(sess *session, n model.Notification) {
	sess.outMu.Lock()
	sess.outbox = append(sess.outbox, n)
	sess.outMu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.SendToSession(sess.id, MsgNotification, n)
	}
	if sess.notifier != nil {
		sess.notifier.Notify(n)
	}
}

func (s *SessionService) confirm(ctx context.Context, sess *session, prompt string) (bool, error) {
	if sess.preset != nil {
		return *sess.preset, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()
	stop := context.AfterFunc(sess.done, cancel)
	defer stop()

	var (
		ok  bool
		err error
	)
	switch {
	case sess.confirmer != nil:
		ok, err = sess.confirmer.Confirm(ctx, prompt)
	case s.prompter != nil:
		ok, err = s.prompter.Prompt(ctx, sess.id, prompt)
	default:
		return false, ErrNoConfirmChannel
	}

	if errors.Is(err, context.DeadlineExceeded) {
		s.log.Info("confirmation timed out", zap.String("session", sess.id))
		return false, nil
	}
	return ok, err
}

func (s *SessionService) onChange(sess *session, _ model.SurveyState) {
	if s.broadcaster != nil {
		s.broadcaster.SendToSession(sess.id, MsgState, sess.ctrl.View())
	}
	s.mirror(sess)
}

// mirror writes the controller's current state. Reading it under mirrorMu
// keeps a late hook from overwriting a newer snapshot.
func (s *SessionService) mirror(sess *session) {
	sess.mirrorMu.Lock()
	defer sess.mirrorMu.Unlock()
	if sess.ctrl.Closed() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	err := s.cache.Set(ctx, &model.SessionSnapshot{
		SessionID: sess.id,
		Channel:   sess.channel,
		State:     sess.ctrl.State(),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		s.log.Warn("failed to mirror session", zap.String("session", sess.id), zap.Error(err))
	}
}

func (s *SessionService) onSubmit(sess *session, sub survey.Submission) {
	if s.responses == nil {
		return
	}
	// Add under s.mu so it never races the Wait in Shutdown
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		s.record(sess, sub)
		return
	}
	s.wg.Add(1)
	s.mu.RUnlock()
	go func() {
		defer s.wg.Done()
		s.record(sess, sub)
	}()
}

func (s *SessionService) record(sess *session, sub survey.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if _, err := s.responses.Record(ctx, sess.id, sess.channel, sub); err != nil {
		s.log.Error("failed to record response", zap.String("session", sess.id), zap.Error(err))
	}
}

func (sess *session) drain() []model.Notification {
	sess.outMu.Lock()
	defer sess.outMu.Unlock()
	notes := sess.outbox
	sess.outbox = nil
	if notes == nil {
		notes = []model.Notification{}
	}
	return notes
}
