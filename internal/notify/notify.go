// Package notify carries user-facing notices and navigation requests out of the
// engine. The engine never renders; hosts decide how notices reach the user.
package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess     Kind = "success"
	KindDestructive Kind = "destructive"
)

type Notice struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func Success(title, desc string) Notice {
	return Notice{Kind: KindSuccess, Title: title, Description: desc}
}

func Destructive(title, desc string) Notice {
	return Notice{Kind: KindDestructive, Title: title, Description: desc}
}

// Failure is the generic "Failed to X. Please try again." notice.
func Failure(action string) Notice {
	return Destructive("Error", "Failed to "+action+". Please try again.")
}

type Notifier interface {
	Notify(n Notice)
}

type Navigator interface {
	Navigate(to string, after time.Duration)
}

type Redirect struct {
	To      string `json:"to"`
	AfterMs int64  `json:"afterMs"`
}

// Recorder buffers notices and the most recent navigation request until a host drains them.
type Recorder struct {
	mu       sync.Mutex
	notices  []Notice
	redirect *Redirect
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *Recorder) Navigate(to string, after time.Duration) {
	r.mu.Lock()
	r.redirect = &Redirect{To: to, AfterMs: after.Milliseconds()}
	r.mu.Unlock()
}

// Drain returns and clears everything recorded so far.
func (r *Recorder) Drain() ([]Notice, *Redirect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notices, redirect := r.notices, r.redirect
	r.notices, r.redirect = nil, nil
	return notices, redirect
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func (r *Recorder) Redirect() *Redirect {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redirect == nil {
		return nil
	}
	cp := *r.redirect
	return &cp
}
