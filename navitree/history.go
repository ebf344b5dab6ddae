package navitree

import (
	"errors"
	"fmt"
	"time"
)

// DefaultCoalesceWindow is the minimum time between two recorded navigations
// for the second one to become a separate history entry.
const DefaultCoalesceWindow = 500 * time.Millisecond

var (
	// ErrOutOfRange is the common cause of ErrNoBackEntry and ErrNoForwardEntry.
	ErrOutOfRange = errors.New("history position out of range")
	// ErrNoBackEntry is returned by GoBack when the back stack is empty.
	ErrNoBackEntry = fmt.Errorf("no back entry: %w", ErrOutOfRange)
	// ErrNoForwardEntry is returned by GoForward when the forward stack is empty.
	ErrNoForwardEntry = fmt.Errorf("no forward entry: %w", ErrOutOfRange)
)

// Equatable is satisfied by location records that can tell whether they point
// at the same place as another record.
type Equatable[T any] interface {
	Equal(other T) bool
}

// RecordOptions tunes a single Record call. The zero value records a regular
// navigation: the previous location goes to the back stack and the forward
// stack is cleared.
type RecordOptions struct {
	// Replace overwrites the current location without creating a back entry.
	Replace bool
	// KeepForward leaves the forward stack intact.
	KeepForward bool
}

// NavigationHistory implements a browser-like back/forward history around a
// current location.
//
// Behavior:
//   - Record moves the current location to the back stack and makes the new one current
//   - navigations closer together than the coalesce window only replace the current location
//   - a location is kept at most once in the back stack, at its most recent position
//   - a new navigation clears the forward stack
//   - GoBack/GoForward swap the current location with the top of the back/forward stack
//   - each stack is limited to maxSize entries; the oldest entries are dropped first
//
// NavigationHistory is not safe for concurrent use.
type NavigationHistory[T Equatable[T]] struct {
	current      T
	hasCurrent   bool
	backStack    []T
	forwardStack []T

	lastNavigation time.Time
	coalesceWindow time.Duration
	now            func() time.Time

	maxSize int
}

// NewNavigationHistory creates an empty history. maxSize <= 0 means unbounded.
func NewNavigationHistory[T Equatable[T]](maxSize int) *NavigationHistory[T] {
	return &NavigationHistory[T]{
		backStack:      make([]T, 0),
		forwardStack:   make([]T, 0),
		coalesceWindow: DefaultCoalesceWindow,
		now:            time.Now,
		maxSize:        maxSize,
	}
}

// WithClock replaces the clock used for coalescing. A nil clock restores time.Now.
func (h *NavigationHistory[T]) WithClock(now func() time.Time) *NavigationHistory[T] {
	if now == nil {
		now = time.Now
	}
	h.now = now
	return h
}

// WithCoalesceWindow sets how close two navigations must be to be merged.
// Zero disables coalescing.
func (h *NavigationHistory[T]) WithCoalesceWindow(d time.Duration) *NavigationHistory[T] {
	if d < 0 {
		d = 0
	}
	h.coalesceWindow = d
	return h
}

func (h *NavigationHistory[T]) trim(slice []T) []T {
	if h.maxSize <= 0 {
		return slice
	}
	if len(slice) <= h.maxSize {
		return slice
	}
	// keep the most recent entries
	return slice[len(slice)-h.maxSize:]
}

// Record stores loc as the current location.
func (h *NavigationHistory[T]) Record(loc T, opts RecordOptions) {
	navigationTime := h.now()
	elapsed := navigationTime.Sub(h.lastNavigation)

	if opts.Replace || (!h.lastNavigation.IsZero() && elapsed < h.coalesceWindow) {
		h.current = loc
		h.hasCurrent = true
	} else {
		if h.hasCurrent {
			h.backStack = append(h.backStack, h.current)
		}
		// a location lives in the back stack once, at its most recent position
		h.backStack = removeMatching(h.backStack, loc.Equal)
		h.backStack = h.trim(h.backStack)
		h.current = loc
		h.hasCurrent = true
	}

	if !opts.KeepForward {
		h.forwardStack = nil
	}

	h.lastNavigation = navigationTime
}

// UpdateCurrent overwrites the current location in place, typically to save
// the view state of the page being left. Stacks and the coalescing clock are
// untouched.
func (h *NavigationHistory[T]) UpdateCurrent(loc T) {
	h.current = loc
	h.hasCurrent = true
}

// GoBack makes the most recent back entry current and returns it.
// The previous current location moves to the forward stack.
func (h *NavigationHistory[T]) GoBack() (T, error) {
	if !h.CanGoBack() {
		var zero T
		return zero, ErrNoBackEntry
	}

	if h.hasCurrent {
		h.forwardStack = append(h.forwardStack, h.current)
		h.forwardStack = h.trim(h.forwardStack)
	}

	lastIndex := len(h.backStack) - 1
	h.current = h.backStack[lastIndex]
	h.hasCurrent = true
	h.backStack = h.backStack[:lastIndex]

	return h.current, nil
}

// GoForward makes the most recent forward entry current and returns it.
// The previous current location moves to the back stack.
func (h *NavigationHistory[T]) GoForward() (T, error) {
	if !h.CanGoForward() {
		var zero T
		return zero, ErrNoForwardEntry
	}

	if h.hasCurrent {
		h.backStack = append(h.backStack, h.current)
		h.backStack = h.trim(h.backStack)
	}

	lastIndex := len(h.forwardStack) - 1
	h.current = h.forwardStack[lastIndex]
	h.hasCurrent = true
	h.forwardStack = h.forwardStack[:lastIndex]

	return h.current, nil
}

// Current returns the current location, if any.
func (h *NavigationHistory[T]) Current() (T, bool) {
	return h.current, h.hasCurrent
}

// CanGoBack returns true if there are entries in the back stack.
func (h *NavigationHistory[T]) CanGoBack() bool {
	return len(h.backStack) > 0
}

// CanGoForward returns true if there are entries in the forward stack.
func (h *NavigationHistory[T]) CanGoForward() bool {
	return len(h.forwardStack) > 0
}

// RemoveAll drops every back and forward entry matching pred and reports how
// many were removed. The current location is never touched.
func (h *NavigationHistory[T]) RemoveAll(pred func(T) bool) int {
	if pred == nil {
		return 0
	}
	before := len(h.backStack) + len(h.forwardStack)
	h.backStack = removeMatching(h.backStack, pred)
	h.forwardStack = removeMatching(h.forwardStack, pred)
	return before - len(h.backStack) - len(h.forwardStack)
}

// Clear removes all back and forward entries. The current location is kept.
func (h *NavigationHistory[T]) Clear() {
	h.backStack = nil
	h.forwardStack = nil
}

// BackEntries returns a copy of the back stack, oldest first.
func (h *NavigationHistory[T]) BackEntries() []T {
	return append([]T(nil), h.backStack...)
}

// ForwardEntries returns a copy of the forward stack, oldest first.
func (h *NavigationHistory[T]) ForwardEntries() []T {
	return append([]T(nil), h.forwardStack...)
}

// BackStackSize returns the number of entries in the back stack.
func (h *NavigationHistory[T]) BackStackSize() int {
	return len(h.backStack)
}

// ForwardStackSize returns the number of entries in the forward stack.
func (h *NavigationHistory[T]) ForwardStackSize() int {
	return len(h.forwardStack)
}

// removeMatching filters slice in place.
func removeMatching[T any](slice []T, pred func(T) bool) []T {
	kept := slice[:0]
	for _, item := range slice {
		if !pred(item) {
			kept = append(kept, item)
		}
	}
	var zero T
	for i := len(kept); i < len(slice); i++ {
		slice[i] = zero
	}
	return kept
}
