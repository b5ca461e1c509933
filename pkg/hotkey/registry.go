package hotkey

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrAlreadyBound   = errors.New("hotkey is already bound")
	ErrInvalidBinding = errors.New("invalid hotkey")
	ErrDisposed       = errors.New("hotkey registry is disposed")
)

// Receiver binds key combinations at the OS level and reports activations
// through the dispatch func it was created with.
type Receiver interface {
	Bind(id int, mods Modifier, key VKey) error
	Unbind(id int) error
	Close() error
}

type ReceiverFactory func(dispatch func(id int)) (Receiver, error)

type registration struct {
	binding   Binding
	onTrigger func()
}

// Registry owns the hotkey table and the OS receiver. The receiver is created
// on the first Register and closed once by Dispose.
type Registry struct {
	newReceiver ReceiverFactory
	log         *zap.SugaredLogger

	// opMu serializes calls into the receiver. It may be held while the
	// receiver thread is busy, so Dispatch never takes it.
	opMu     sync.Mutex
	receiver Receiver
	nextID   int
	disposed bool

	mu       sync.RWMutex
	bindings map[int]registration

	failMu sync.Mutex
	onFail []func(message string)
}

func NewRegistry(newReceiver ReceiverFactory, log *zap.SugaredLogger) *Registry {
	return &Registry{
		newReceiver: newReceiver,
		log:         log,
		bindings:    make(map[int]registration),
	}
}

// OnRegistrationFailed subscribes fn to user-facing registration failure messages.
func (r *Registry) OnRegistrationFailed(fn func(message string)) {
	r.failMu.Lock()
	defer r.failMu.Unlock()
	r.onFail = append(r.onFail, fn)
}

// Register binds mods+key process-wide. onTrigger runs on the receiver
// thread and must not block.
func (r *Registry) Register(mods Modifier, key VKey, onTrigger func()) (int, error) {
	b := Binding{Modifiers: mods, Key: key}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	if onTrigger == nil {
		return 0, fmt.Errorf("%w: callback is required", ErrInvalidBinding)
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.disposed {
		return 0, ErrDisposed
	}

	if id, ok := r.lookup(b); ok {
		err := fmt.Errorf("%w: %s is registered as hotkey %d", ErrAlreadyBound, b, id)
		r.registrationFailed(b, err)
		return 0, err
	}

	if r.receiver == nil {
		receiver, err := r.newReceiver(r.Dispatch)
		if err != nil {
			return 0, fmt.Errorf("create hotkey receiver: %w", err)
		}
		r.receiver = receiver
	}

	r.nextID++
	id := r.nextID

	if err := r.receiver.Bind(id, b.Modifiers, b.Key); err != nil {
		if !errors.Is(err, ErrAlreadyBound) {
			err = fmt.Errorf("%w: %s: %w", ErrAlreadyBound, b, err)
		}
		r.registrationFailed(b, err)
		return 0, err
	}

	r.mu.Lock()
	r.bindings[id] = registration{binding: b, onTrigger: onTrigger}
	r.mu.Unlock()

	r.log.Infow("registered hotkey", "id", id, "binding", b.String())
	return id, nil
}

// Unregister releases id. Unknown ids are ignored.
func (r *Registry) Unregister(id int) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.disposed {
		return ErrDisposed
	}

	return r.unregisterLocked(id)
}

func (r *Registry) UnregisterAll() error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.disposed {
		return ErrDisposed
	}

	return r.unregisterAllLocked()
}

// Dispose releases every binding and the receiver. Any later call, Dispose
// included, fails with ErrDisposed.
func (r *Registry) Dispose() error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.disposed {
		return ErrDisposed
	}
	r.disposed = true

	err := r.unregisterAllLocked()

	// closing the receiver releases whatever Unbind could not
	r.mu.Lock()
	clear(r.bindings)
	r.mu.Unlock()

	if r.receiver != nil {
		if closeErr := r.receiver.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close hotkey receiver: %w", closeErr))
		}
		r.receiver = nil
	}

	return err
}

// Dispatch runs the callback bound to id. It is called by the receiver.
func (r *Registry) Dispatch(id int) {
	r.mu.RLock()
	reg, ok := r.bindings[id]
	r.mu.RUnlock()

	if !ok {
		r.log.Debugw("hotkey notification for unknown id", "id", id)
		return
	}

	r.log.Debugw("hotkey pressed", "id", id, "binding", reg.binding.String())
	reg.onTrigger()
}

func (r *Registry) Bindings() map[int]Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int]Binding, len(r.bindings))
	for id, reg := range r.bindings {
		out[id] = reg.binding
	}
	return out
}

func (r *Registry) lookup(b Binding) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, reg := range r.bindings {
		if reg.binding == b {
			return id, true
		}
	}
	return 0, false
}

// unregisterLocked keeps the entry when Unbind fails, so the combination
// still reads as taken and the unregister can be retried.
func (r *Registry) unregisterLocked(id int) error {
	r.mu.RLock()
	reg, ok := r.bindings[id]
	r.mu.RUnlock()

	if !ok {
		return nil
	}

	if err := r.receiver.Unbind(id); err != nil {
		return fmt.Errorf("unbind hotkey %d (%s): %w", id, reg.binding, err)
	}

	r.mu.Lock()
	delete(r.bindings, id)
	r.mu.Unlock()

	r.log.Debugw("unregistered hotkey", "id", id, "binding", reg.binding.String())
	return nil
}

func (r *Registry) unregisterAllLocked() error {
	r.mu.RLock()
	ids := make([]int, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)

	var errs []error
	for _, id := range ids {
		if err := r.unregisterLocked(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) registrationFailed(b Binding, err error) {
	r.log.Warnw("hotkey registration failed", "binding", b.String(), "error", err)

	msg := fmt.Sprintf("could not register hotkey %s: it may already be in use by the system or another program, please choose another one", b)

	r.failMu.Lock()
	listeners := slices.Clone(r.onFail)
	r.failMu.Unlock()

	for _, fn := range listeners {
		fn(msg)
	}
}
