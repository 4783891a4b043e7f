// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package playback implements the viewport and playback coordinator: the
// state machine that decides which short is active, narrates its slides one
// at a time in step with what is on screen and keeps the background music
// in sync.
//
// The coordinator owns all of its state and is driven by events. Run reads
// them from a channel on a single goroutine; Handle applies one event and is
// what tests call directly.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

const eventBuffer = 64

// ErrClosed is returned by Post after Run has returned.
var ErrClosed = errors.New("playback coordinator is closed")

// Snapshot is a copy of the coordinator state.
type Snapshot struct {
	Active       string
	Playing      bool
	Index        int
	Session      uint64
	VisibleSlide int
	Locked       bool
	Track        string
}

// Coordinator is the playback state machine for one page.
type Coordinator struct {
	feed     Feed
	caps     Capabilities
	settings cloud.Playback
	schedule Scheduler

	events chan Event
	done   chan struct{}

	active       *model.Short
	playing      bool
	session      uint64
	index        int
	visibleSlide int
	marked       map[int]bool
	locked       bool
	track        string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithScheduler replaces the timer used for delayed replays.
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.schedule = s }
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(feed Feed, caps Capabilities, settings cloud.Playback, opts ...Option) *Coordinator {
	if settings.VisibilityThreshold <= 0 {
		settings.VisibilityThreshold = 0.8
	}
	c := &Coordinator{
		feed:         feed,
		caps:         caps,
		settings:     settings,
		events:       make(chan Event, eventBuffer),
		done:         make(chan struct{}),
		visibleSlide: -1,
		marked:       make(map[int]bool),
	}
	c.schedule = func(d time.Duration, ev Event) {
		time.AfterFunc(d, func() { _ = c.Post(context.Background(), ev) })
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post queues an event for Run.
func (c *Coordinator) Post(ctx context.Context, ev Event) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run handles events until ctx is done. Narration and music are stopped on
// the way out.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.stop(ctx)
			c.pauseMusic(ctx)
			return
		case ev := <-c.events:
			if err := c.Handle(ctx, ev); err != nil {
				slog.WarnContext(ctx, "playback event failed", "event", fmt.Sprintf("%T", ev), "error", err)
			}
		}
	}
}

// Snapshot returns the current state. It must be called from the goroutine
// that handles events.
func (c *Coordinator) Snapshot() Snapshot {
	s := Snapshot{
		Playing:      c.playing,
		Index:        c.index,
		Session:      c.session,
		VisibleSlide: c.visibleSlide,
		Locked:       c.locked,
		Track:        c.track,
	}
	if c.active != nil {
		s.Active = c.active.ID
	}
	return s
}

// Handle applies one event. The returned error is a NarrationError when
// narration broke; it has already been shown to the user.
func (c *Coordinator) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case FeedItemVisibility:
		c.onFeedItemVisibility(ctx, e)
	case SlideVisibility:
		c.onSlideVisibility(ctx, e)
	case NarrationEnded:
		if !c.current(e.Token) {
			return nil
		}
		c.index++
		return c.advance(ctx)
	case NarrationFailed:
		return c.onNarrationFailed(ctx, e)
	case ReplayRequested:
		c.onReplay(ctx, e)
	case replayStart:
		if e.Session != c.session || c.active == nil || c.active.ID != e.ShortID {
			return nil
		}
		c.startMusic(ctx)
		return c.start(ctx)
	case StopRequested:
		c.stop(ctx)
		c.pauseMusic(ctx)
	case NavigateRequested:
		c.onNavigate(ctx, e)
	default:
		return fmt.Errorf("unknown playback event %T", ev)
	}
	return nil
}

func (c *Coordinator) onFeedItemVisibility(ctx context.Context, e FeedItemVisibility) {
	isActive := c.active != nil && c.active.ID == e.ShortID
	if e.Ratio < c.settings.VisibilityThreshold {
		if isActive {
			// The active short scrolled away and nothing replaced it yet.
			c.deactivate(ctx)
		}
		return
	}
	if isActive {
		return
	}
	short, ok := c.feed.Get(e.ShortID)
	if !ok || len(short.Slides) == 0 {
		slog.DebugContext(ctx, "visible short is unknown", "id", e.ShortID)
		return
	}

	c.deactivate(ctx)
	c.active = short
	c.setLock(ctx, false)
	slog.DebugContext(ctx, "short became active", "id", short.ID)

	c.startMusic(ctx)
	if err := c.start(ctx); err != nil {
		slog.WarnContext(ctx, "narration failed to start", "id", short.ID, "error", err)
	}
}

func (c *Coordinator) deactivate(ctx context.Context) {
	if c.active == nil {
		return
	}
	c.stop(ctx)
	c.pauseMusic(ctx)
	c.active = nil
	c.visibleSlide = -1
	clear(c.marked)
	c.setLock(ctx, false)
}

func (c *Coordinator) onSlideVisibility(ctx context.Context, e SlideVisibility) {
	if c.active == nil || c.active.ID != e.ShortID {
		return
	}
	if e.Index < 0 || e.Index >= len(c.active.Slides) {
		return
	}
	if e.Ratio < c.settings.VisibilityThreshold {
		if c.marked[e.Index] {
			delete(c.marked, e.Index)
			c.viewErr(ctx, "mark slide", c.caps.View.MarkSlide(e.ShortID, e.Index, false))
		}
		return
	}
	if !c.marked[e.Index] {
		c.marked[e.Index] = true
		c.viewErr(ctx, "mark slide", c.caps.View.MarkSlide(e.ShortID, e.Index, true))
	}
	c.visibleSlide = e.Index
	// Interior slides hold the feed still so horizontal swipes are not
	// taken over by vertical scrolling.
	last := len(c.active.Slides) - 1
	c.setLock(ctx, e.Index != 0 && e.Index != last)
}

func (c *Coordinator) setLock(ctx context.Context, locked bool) {
	if c.locked == locked {
		return
	}
	c.locked = locked
	c.viewErr(ctx, "lock vertical", c.caps.View.LockVertical(locked))
}

func (c *Coordinator) onNarrationFailed(ctx context.Context, e NarrationFailed) error {
	if !c.current(e.Token) {
		return nil
	}
	if IsCancellation(e.Reason) {
		slog.DebugContext(ctx, "narration canceled", "reason", e.Reason)
		return nil
	}
	c.stop(ctx)
	err := model.NarrationError("narrate", errors.New(strings.TrimSpace(e.Reason)))
	c.viewErr(ctx, "show error", c.caps.View.ShowError(model.UserMessage(err)))
	return err
}

func (c *Coordinator) onReplay(ctx context.Context, e ReplayRequested) {
	short, ok := c.feed.Get(e.ShortID)
	if !ok || len(short.Slides) == 0 {
		return
	}
	c.viewErr(ctx, "reset slides", c.caps.View.ResetSlides(short.ID))
	if c.active == nil || c.active.ID != short.ID {
		c.deactivate(ctx)
		c.active = short
	}
	c.stop(ctx)
	c.visibleSlide = 0
	c.setLock(ctx, false)
	delay := time.Duration(c.settings.ReplayDelayMillis) * time.Millisecond
	c.schedule(delay, replayStart{ShortID: short.ID, Session: c.session})
}

func (c *Coordinator) onNavigate(ctx context.Context, e NavigateRequested) {
	if c.active == nil || e.Delta == 0 {
		return
	}
	next, ok := c.feed.Neighbor(c.active.ID, e.Delta)
	if !ok {
		return
	}
	c.viewErr(ctx, "scroll to short", c.caps.View.ScrollToShort(next.ID))
}

// current reports whether token belongs to the narration in progress.
func (c *Coordinator) current(token Token) bool {
	return c.playing && token.Session == c.session && token.Index == c.index
}

// start begins a new playback session at slide 0.
func (c *Coordinator) start(ctx context.Context) error {
	c.stop(ctx)
	c.session++
	c.playing = true
	c.index = 0
	return c.advance(ctx)
}

// stop ends the session. Tokens already handed to the narrator go stale.
func (c *Coordinator) stop(ctx context.Context) {
	if c.playing {
		if err := c.caps.Narrator.Cancel(); err != nil {
			slog.WarnContext(ctx, "failed to cancel narration", "error", err)
		}
	}
	c.playing = false
	c.session++
}

// advance speaks the slide at c.index, skipping empty lyrics, or finishes
// playback after the last slide.
func (c *Coordinator) advance(ctx context.Context) error {
	short := c.active
	for ; c.index < len(short.Slides); c.index++ {
		lyrics := strings.TrimSpace(short.Slides[c.index].Lyrics)
		if lyrics == "" {
			continue
		}
		c.viewErr(ctx, "scroll to slide", c.caps.View.ScrollToSlide(short.ID, c.index))
		voice := ResolveVoice(c.caps.Voices.Voices(), short.VoiceName)
		token := Token{Session: c.session, Index: c.index}
		if err := c.caps.Narrator.Speak(token, lyrics, voice); err != nil {
			c.playing = false
			c.session++
			nerr := model.NarrationError("speak", err)
			c.viewErr(ctx, "show error", c.caps.View.ShowError(model.UserMessage(nerr)))
			return nerr
		}
		return nil
	}
	c.playing = false
	slog.DebugContext(ctx, "playback finished", "id", short.ID)
	return nil
}

func (c *Coordinator) startMusic(ctx context.Context) {
	c.pauseMusic(ctx)
	track, ok := model.FindInstrumental(c.active.InstrumentalID)
	if !ok {
		return
	}
	if err := c.caps.Music.Play(track.URL, c.settings.MusicVolume); err != nil {
		slog.WarnContext(ctx, "background track failed to start", "track", track.ID, "error", err)
		return
	}
	c.track = track.ID
}

func (c *Coordinator) pauseMusic(ctx context.Context) {
	if c.track == "" {
		return
	}
	if err := c.caps.Music.Pause(); err != nil {
		slog.WarnContext(ctx, "background track failed to pause", "track", c.track, "error", err)
	}
	c.track = ""
}

func (c *Coordinator) viewErr(ctx context.Context, op string, err error) {
	if err != nil {
		slog.WarnContext(ctx, "view command failed", "op", op, "error", err)
	}
}
