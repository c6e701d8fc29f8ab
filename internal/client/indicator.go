package client

import "sync"

// Indicator is the shared loading indicator. Show is called once when a request starts and
// Hide once when it reaches its final outcome.
type Indicator interface {
	Show()
	Hide()
}

// LoadingIndicator is a reference counted Indicator: it stays visible while at least one request is in flight,
// so overlapping requests cannot hide it while a sibling is still running.
type LoadingIndicator struct {
	mu       sync.Mutex
	inFlight int
	onChange func(visible bool)
}

// NewLoadingIndicator creates an indicator. onChange (optional) is called, with the lock held,
// each time the visibility flips. It must not call back into the indicator.
func NewLoadingIndicator(onChange func(visible bool)) *LoadingIndicator {
	return &LoadingIndicator{onChange: onChange}
}

func (l *LoadingIndicator) Show() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight++
	if l.inFlight == 1 && l.onChange != nil {
		l.onChange(true)
	}
}

func (l *LoadingIndicator) Hide() {
	l.mu.Lock()
	defer l.mu.Unlock()

	// unbalanced Hide calls are ignored
	if l.inFlight == 0 {
		return
	}
	l.inFlight--
	if l.inFlight == 0 && l.onChange != nil {
		l.onChange(false)
	}
}

// Visible reports whether any request is in flight
func (l *LoadingIndicator) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight > 0
}

// InFlight returns the number of requests currently holding the indicator
func (l *LoadingIndicator) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

type noopIndicator struct{}

func (noopIndicator) Show() {}
func (noopIndicator) Hide() {}
