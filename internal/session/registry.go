package session

import (
	"context"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/irdumbs/jamcord/internal/config"
	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/evaluator"
	"github.com/irdumbs/jamcord/internal/event"
	"github.com/irdumbs/jamcord/internal/logging"
	"github.com/irdumbs/jamcord/internal/pager"
	"github.com/irdumbs/jamcord/internal/transport"
	"github.com/irdumbs/jamcord/internal/watch"
)

// EvaluatorFactory builds the interpreter for a session. Separated from the
// registry so tests can inject an in-process evaluator.
type EvaluatorFactory func(kind string) (evaluator.Evaluator, evaluator.Profile, error)

// PipeFactory returns the production factory: it resolves the interpreter
// profile for a kind (honoring configured command overrides) and starts the
// interpreter as a subprocess pipe.
func PipeFactory(cfg *config.Config) EvaluatorFactory {
	return func(kind string) (evaluator.Evaluator, evaluator.Profile, error) {
		prof, err := evaluator.Lookup(kind, cfg.ResolveSamplesDir())
		if err != nil {
			return nil, evaluator.Profile{}, err
		}
		if argv, ok := cfg.Evaluator.Commands[prof.Kind]; ok && len(argv) > 0 {
			prof.Command = argv
		}
		ev, err := evaluator.StartPipe(prof.Command, cfg.Evaluator.Settle())
		if err != nil {
			return nil, evaluator.Profile{}, err
		}
		return ev, prof, nil
	}
}

// Options control one session's creation.
type Options struct {
	// Kind is the interpreter kind; empty uses the configured default.
	Kind string
	// Owner is the participant creating the session. Their join prompt
	// expiring tears the whole session down.
	Owner transport.Member
	// Consoleless suppresses the shared console surface, for joining a jam
	// whose console is rendered elsewhere.
	Consoleless bool
	// CleanupDelay is how long non-protocol messages live in the room;
	// negative disables purging, zero uses the configured default.
	CleanupDelay time.Duration
	// cleanupSet marks CleanupDelay as explicit (see WithCleanupDelay).
	cleanupSet bool
}

// WithCleanupDelay marks the delay explicit, so an intentional zero (purge
// immediately) is distinguishable from the unset zero value.
func (o Options) WithCleanupDelay(d time.Duration) Options {
	o.CleanupDelay = d
	o.cleanupSet = true
	return o
}

// Registry is the process-wide table of active sessions, at most one per
// room. It also routes platform events: confirm signals into the watch
// registry, inbound messages to the owning session's submission tracking
// and purge supervisor.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg       *config.Config
	transport transport.Transport
	bus       *event.Bus
	watches   *watch.Registry
	factory   EvaluatorFactory
	log       *logging.Logger
	keep      []glob.Glob

	// joinTimeout is split out from cfg so tests can shorten it.
	joinTimeout time.Duration

	subs []string
}

// NewRegistry creates a session registry. A nil factory uses PipeFactory.
func NewRegistry(cfg *config.Config, tr transport.Transport, bus *event.Bus, watches *watch.Registry, factory EvaluatorFactory, log *logging.Logger) *Registry {
	if factory == nil {
		factory = PipeFactory(cfg)
	}
	if log == nil {
		log = logging.NopLogger()
	}

	var keep []glob.Glob
	for _, pattern := range cfg.Session.KeepPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			log.Warn("invalid keep pattern, skipping", "pattern", pattern, "error", err)
			continue
		}
		keep = append(keep, g)
	}

	return &Registry{
		sessions:    make(map[string]*Session),
		cfg:         cfg,
		transport:   tr,
		bus:         bus,
		watches:     watches,
		factory:     factory,
		log:         log,
		keep:        keep,
		joinTimeout: cfg.Session.JoinPromptTimeout(),
	}
}

// Start subscribes the registry to platform events. Call once before
// creating sessions; Close undoes it.
func (r *Registry) Start() {
	r.subs = append(r.subs,
		r.bus.Subscribe("signal.added", func(e event.Event) {
			if ev, ok := e.(event.SignalAddedEvent); ok {
				r.watches.Dispatch(watch.Signal{
					Kind:      watch.SignalAdded,
					Emblem:    ev.Emblem,
					MessageID: ev.MessageID,
					Actor:     ev.Actor,
				})
			}
		}),
		r.bus.Subscribe("signal.removed", func(e event.Event) {
			if ev, ok := e.(event.SignalRemovedEvent); ok {
				r.watches.Dispatch(watch.Signal{
					Kind:      watch.SignalRemoved,
					Emblem:    ev.Emblem,
					MessageID: ev.MessageID,
					Actor:     ev.Actor,
				})
			}
		}),
		r.bus.Subscribe("message.posted", func(e event.Event) {
			if ev, ok := e.(event.MessagePostedEvent); ok {
				if s, found := r.Get(ev.Message.RoomID); found {
					// Register first so a fresh submission is already
					// purge-exempt when the purge check runs.
					s.observeSubmission(ev.Message)
					s.observeMessage(ev.Message)
				}
			}
		}),
	)
}

// Get returns the room's active session, if any.
func (r *Registry) Get(roomID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[roomID]
	return s, ok
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Create starts a session in a room: resolves the interpreter, prompts the
// owner for their first submission, preloads the interpreter, brings up the
// console surface, and starts the turn and display loops.
//
// Returns errors.ErrSessionExists if the room already has a session and
// errors.ErrNoSubmission if the owner's join prompt expired (the session is
// torn down in that case).
func (r *Registry) Create(ctx context.Context, roomID string, opts Options) (*Session, error) {
	if _, exists := r.Get(roomID); exists {
		return nil, errors.ErrSessionExists
	}

	kind := opts.Kind
	if kind == "" {
		kind = r.cfg.Evaluator.DefaultKind
	}

	ev, prof, err := r.factory(kind)
	if err != nil {
		return nil, err
	}

	cleanup := r.cfg.Session.CleanupDelay()
	if opts.cleanupSet || opts.CleanupDelay != 0 {
		cleanup = opts.CleanupDelay
	}

	s := r.newSession(roomID, prof, opts, ev, cleanup)

	r.mu.Lock()
	if _, exists := r.sessions[roomID]; exists {
		r.mu.Unlock()
		s.cancel()
		_ = ev.Close()
		return nil, errors.ErrSessionExists
	}
	r.sessions[roomID] = s
	r.mu.Unlock()

	s.onTerminate = func(reason string) { r.Destroy(roomID, reason) }

	// The interpreter's intro banner is the first console content.
	for _, block := range prof.Intro {
		s.pager.Append(block)
	}

	ok, perr := s.promptForSubmission(ctx, opts.Owner, true)
	if !ok {
		r.remove(roomID)
		s.shutdown("prompt expired")
		if perr != nil {
			return nil, perr
		}
		return nil, errors.ErrNoSubmission
	}

	for _, preload := range prof.Preloads {
		if _, perr := ev.Evaluate(ctx, preload); perr != nil {
			s.log.Warn("preload failed", "statement", preload, "error", perr)
		}
	}

	if !s.consoleless {
		if msg, serr := s.transport.Send(ctx, roomID, s.renderPage()); serr == nil {
			s.setSurface(msg.ID)
		} else {
			s.log.Warn("could not create console surface", "error", serr)
		}
		s.wg.Add(1)
		go s.runDisplay()
	}

	s.wg.Add(1)
	go s.runTurnLoop()

	s.log.Info("session started", "kind", prof.Kind, "owner", opts.Owner.ID)
	r.bus.Publish(event.NewSessionStartedEvent(roomID, prof.Kind, opts.Owner.ID))
	return s, nil
}

func (r *Registry) newSession(roomID string, prof evaluator.Profile, opts Options, ev evaluator.Evaluator, cleanup time.Duration) *Session {
	s := &Session{
		RoomID:          roomID,
		Kind:            prof.Kind,
		Owner:           opts.Owner.ID,
		transport:       r.transport,
		bus:             r.bus,
		watches:         r.watches,
		eval:            ev,
		log:             r.log.WithRoom(roomID),
		pager:           pager.New(r.cfg.Session.PageBudget),
		hush:            prof.Hush,
		fence:           fenceFor(prof.Kind),
		confirmEmblem:   r.cfg.Session.ConfirmEmblem,
		joinTimeout:     r.joinTimeout,
		refreshInterval: r.cfg.Display.RefreshInterval(),
		cleanupDelay:    cleanup,
		consoleless:     opts.Consoleless,
		keep:            r.keep,
		participants:    make(map[string]transport.Message),
		wake:            make(chan struct{}, 1),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.active.Store(true)
	return s
}

// Join adds a participant to a room's session.
func (r *Registry) Join(ctx context.Context, roomID string, member transport.Member) error {
	s, ok := r.Get(roomID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	return s.Join(ctx, member)
}

// Destroy tears down a room's session. Killing a room with no session is a
// no-op reported by the false return, not an error.
func (r *Registry) Destroy(roomID, reason string) bool {
	s, ok := r.remove(roomID)
	if !ok {
		return false
	}
	s.shutdown(reason)
	return true
}

func (r *Registry) remove(roomID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[roomID]
	delete(r.sessions, roomID)
	return s, ok
}

// Close unsubscribes from the bus and destroys every active session.
func (r *Registry) Close() {
	for _, id := range r.subs {
		r.bus.Unsubscribe(id)
	}
	r.subs = nil

	r.mu.Lock()
	rooms := make([]string, 0, len(r.sessions))
	for roomID := range r.sessions {
		rooms = append(rooms, roomID)
	}
	r.mu.Unlock()

	for _, roomID := range rooms {
		r.Destroy(roomID, "shutdown")
	}
}
