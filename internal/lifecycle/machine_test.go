package lifecycle

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kestrelview/websurface/engine"
	"github.com/kestrelview/websurface/engine/headless"
	"github.com/kestrelview/websurface/internal/nav"
	"github.com/kestrelview/websurface/internal/poll"
	"github.com/kestrelview/websurface/internal/sched"
	"github.com/kestrelview/websurface/platform"
	"github.com/kestrelview/websurface/surface"
)

type fakeHost struct {
	content, window uintptr
	displayable     bool
	showing         bool
	windowVisible   bool
	w, h            int
	x, y            int
	insets          surface.Insets
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		content: 0x100, window: 0x200,
		displayable: true, showing: true, windowVisible: true,
		w: 640, h: 480,
	}
}

func (f *fakeHost) ContentHandle() uintptr       { return f.content }
func (f *fakeHost) WindowHandle() uintptr        { return f.window }
func (f *fakeHost) Displayable() bool            { return f.displayable }
func (f *fakeHost) Showing() bool                { return f.showing }
func (f *fakeHost) WindowVisible() bool          { return f.windowVisible }
func (f *fakeHost) Size() (int, int)             { return f.w, f.h }
func (f *fakeHost) LocationInWindow() (int, int) { return f.x, f.y }
func (f *fakeHost) WindowInsets() surface.Insets { return f.insets }

type recordSink struct {
	states []poll.Snapshot
	msgs   []string
}

func (s *recordSink) UpdateState(sn poll.Snapshot) { s.states = append(s.states, sn) }
func (s *recordSink) HandleMessage(msg string)     { s.msgs = append(s.msgs, msg) }

type fixture struct {
	eng  *headless.Engine
	man  *sched.Manual
	host *fakeHost
	sink *recordSink
	m    *Machine
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	f := &fixture{
		eng:  headless.New(),
		man:  sched.NewManual(),
		host: newFakeHost(),
		sink: &recordSink{},
	}
	cfg := Config{
		Engine:     f.eng,
		Provider:   &platform.Static{RetryInterval: 50 * time.Millisecond},
		Scheduler:  f.man,
		Sink:       f.sink,
		InitialURL: "https://example.com/home",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	f.m = New(cfg)
	return f
}

// ready attaches the host and ticks until the surface exists.
func (f *fixture) ready(t *testing.T) engine.Handle {
	t.Helper()
	f.m.Attach(f.host)
	f.man.Advance(60 * time.Millisecond)
	h, ok := f.m.Handle()
	if !ok || f.m.State() != StateReady {
		t.Fatalf("surface not ready: state=%s handle=%v", f.m.State(), h)
	}
	return h
}

func countCalls(journal []string, prefix string) int {
	n := 0
	for _, entry := range journal {
		if strings.HasPrefix(entry, prefix) {
			n++
		}
	}
	return n
}

func TestCreateWaitsForRealizedHost(t *testing.T) {
	f := newFixture(t, nil)
	f.host.showing = false

	f.m.Attach(f.host)
	f.man.Advance(300 * time.Millisecond)
	if got := countCalls(f.eng.Journal(), "Create("); got != 0 {
		t.Fatalf("created %d surfaces against a hidden host", got)
	}
	if f.m.State() != StatePendingCreate {
		t.Fatalf("state = %s, want pending-create", f.m.State())
	}

	f.host.showing = true
	f.man.Advance(60 * time.Millisecond)
	if f.m.State() != StateReady {
		t.Fatalf("state = %s after host became visible", f.m.State())
	}
	journal := f.eng.Journal()
	if got := countCalls(journal, "Create("); got != 1 {
		t.Fatalf("Create called %d times, want 1", got)
	}
	if !strings.Contains(journal[0], "url=https://example.com/home") {
		t.Fatalf("initial url not passed at creation: %s", journal[0])
	}
	if got := countCalls(journal, "SetBounds("); got != 1 {
		t.Fatalf("SetBounds called %d times after creation, want 1", got)
	}
}

func TestVisibleWindowGate(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Provider = &platform.Static{VisibleWindow: true, RetryInterval: 50 * time.Millisecond}
	})
	f.host.windowVisible = false

	f.m.Attach(f.host)
	f.man.Advance(200 * time.Millisecond)
	if f.eng.Live() != 0 {
		t.Fatalf("created before the ancestor window was visible")
	}

	f.host.windowVisible = true
	f.man.Advance(60 * time.Millisecond)
	if f.eng.Live() != 1 {
		t.Fatalf("no surface after window became visible")
	}
}

func TestPollDrivesSink(t *testing.T) {
	f := newFixture(t, nil)
	h := f.ready(t)

	f.man.Advance(poll.Interval)
	last := f.sink.states[len(f.sink.states)-1]
	if last.Status != poll.StatusLoading || last.URL != "https://example.com/home" {
		t.Fatalf("first poll pushed %+v", last)
	}

	f.eng.FinishLoad(h)
	f.eng.SetTitle(h, "Home")
	f.eng.PushMessage(h, `{"kind":"hello"}`)
	f.man.Advance(poll.Interval)

	last = f.sink.states[len(f.sink.states)-1]
	if last.Status != poll.StatusIdle || last.Progress != 1.0 || last.Title != "Home" {
		t.Fatalf("idle poll pushed %+v", last)
	}
	if len(f.sink.msgs) != 1 || f.sink.msgs[0] != `{"kind":"hello"}` {
		t.Fatalf("messages = %v", f.sink.msgs)
	}
}

// gatedEngine blocks Create until the test releases the gate, freezing the
// machine in the creating state. It also tracks how many creations overlap.
type gatedEngine struct {
	*headless.Engine
	gate chan struct{}

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (g *gatedEngine) Create(opts engine.CreateOptions) (engine.Handle, error) {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	g.mu.Unlock()
	<-g.gate
	h, err := g.Engine.Create(opts)
	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return h, err
}

func (g *gatedEngine) maxConcurrent() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxInFlight
}

func TestLateCreationResultIsDestroyed(t *testing.T) {
	inner := headless.New()
	gated := &gatedEngine{Engine: inner, gate: make(chan struct{})}
	man := sched.NewManual()
	sink := &recordSink{}
	m := New(Config{
		Engine:    gated,
		Provider:  &platform.Static{OffThread: true, RetryInterval: 50 * time.Millisecond},
		Scheduler: man,
		Sink:      sink,
	})
	host := newFakeHost()

	m.Attach(host)
	man.Advance(50 * time.Millisecond)
	if m.State() != StateCreating {
		t.Fatalf("state = %s, want creating", m.State())
	}

	// The host leaves while the worker is still inside the engine call.
	m.Detach()
	if m.State() != StateUnattached {
		t.Fatalf("state = %s after detach during creation", m.State())
	}

	close(gated.gate)
	deadline := time.Now().Add(2 * time.Second)
	for man.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("creation result never posted")
		}
		time.Sleep(time.Millisecond)
	}
	man.Flush()

	if inner.Live() != 0 {
		t.Fatalf("late surface kept alive: %d live", inner.Live())
	}
	if got := countCalls(inner.Journal(), "Destroy("); got != 1 {
		t.Fatalf("Destroy called %d times, want 1", got)
	}
	if m.State() != StateUnattached {
		t.Fatalf("state = %s after late result", m.State())
	}
}

func TestDetachReattachKeepsOneCreationInFlight(t *testing.T) {
	inner := headless.New()
	gated := &gatedEngine{Engine: inner, gate: make(chan struct{})}
	man := sched.NewManual()
	m := New(Config{
		Engine:    gated,
		Provider:  &platform.Static{OffThread: true, RetryInterval: 50 * time.Millisecond},
		Scheduler: man,
		Sink:      &recordSink{},
	})
	host := newFakeHost()

	m.Attach(host)
	man.Advance(50 * time.Millisecond)
	if m.State() != StateCreating {
		t.Fatalf("state = %s, want creating", m.State())
	}

	// The host leaves and returns while the worker is still inside the
	// engine call. The retry ticks that follow must wait for it instead of
	// stacking a second worker.
	m.Detach()
	m.Attach(host)
	man.Advance(300 * time.Millisecond)
	time.Sleep(50 * time.Millisecond) // a stacked worker would reach the engine by now
	if got := gated.maxConcurrent(); got != 1 {
		t.Fatalf("%d creations in flight concurrently, want 1", got)
	}

	close(gated.gate)
	deadline := time.Now().Add(2 * time.Second)
	for man.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("creation result never posted")
		}
		time.Sleep(time.Millisecond)
	}
	man.Flush() // the stale result is destroyed, clearing the way

	man.Advance(50 * time.Millisecond) // next retry tick starts afresh
	deadline = time.Now().Add(2 * time.Second)
	for m.State() != StateReady {
		if time.Now().After(deadline) {
			t.Fatalf("surface never recovered: state=%s", m.State())
		}
		man.Flush()
		time.Sleep(time.Millisecond)
	}

	if inner.Live() != 1 {
		t.Fatalf("live=%d after the reattach settled, want 1", inner.Live())
	}
	if got := gated.maxConcurrent(); got != 1 {
		t.Fatalf("%d creations in flight concurrently, want 1", got)
	}
}

func TestDetachDestroysAfterGrace(t *testing.T) {
	f := newFixture(t, nil)
	f.ready(t)

	f.m.Detach()
	if f.m.State() != StatePendingDestroy {
		t.Fatalf("state = %s after detach", f.m.State())
	}

	f.man.Advance(300 * time.Millisecond)
	if f.eng.Live() != 1 {
		t.Fatalf("destroyed before the grace window elapsed")
	}

	f.man.Advance(200 * time.Millisecond)
	if f.eng.Live() != 0 {
		t.Fatalf("surface still alive after the grace window")
	}
	if f.m.State() != StateUnattached {
		t.Fatalf("state = %s after destroy", f.m.State())
	}
}

func TestReattachWithinGraceKeepsSurface(t *testing.T) {
	f := newFixture(t, nil)
	f.ready(t)

	f.m.Detach()
	f.man.Advance(200 * time.Millisecond)
	f.m.Attach(f.host)
	if f.m.State() != StateReady {
		t.Fatalf("state = %s after reattach", f.m.State())
	}

	f.man.Advance(2 * time.Second)
	journal := f.eng.Journal()
	if got := countCalls(journal, "Destroy("); got != 0 {
		t.Fatalf("Destroy called %d times across a reattach, want 0", got)
	}
	if got := countCalls(journal, "Create("); got != 1 {
		t.Fatalf("Create called %d times across a reattach, want 1", got)
	}
}

func TestCloseIsImmediateAndIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.ready(t)

	f.m.Close()
	if f.eng.Live() != 0 || f.m.State() != StateUnattached {
		t.Fatalf("close left live=%d state=%s", f.eng.Live(), f.m.State())
	}
	f.m.Close()
	f.man.Advance(time.Second)
	if got := countCalls(f.eng.Journal(), "Destroy("); got != 1 {
		t.Fatalf("Destroy called %d times, want 1", got)
	}
}

func TestCreationFailureRetries(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.FailCreates(errors.New("compositor not ready"))

	f.m.Attach(f.host)
	f.man.Advance(170 * time.Millisecond)
	if got := countCalls(f.eng.Journal(), "Create("); got < 3 {
		t.Fatalf("Create attempted %d times in 170ms at 50ms period, want >= 3", got)
	}
	if f.m.State() != StatePendingCreate || f.eng.Live() != 0 {
		t.Fatalf("state=%s live=%d while creation keeps failing", f.m.State(), f.eng.Live())
	}

	f.eng.FailCreates(nil)
	f.man.Advance(60 * time.Millisecond)
	if f.m.State() != StateReady || f.eng.Live() != 1 {
		t.Fatalf("state=%s live=%d after failures cleared", f.m.State(), f.eng.Live())
	}
}

func TestUserAgentChangeDebounced(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.UserAgent = "agent-a" })
	f.ready(t)

	f.m.SetUserAgent("agent-b")
	f.man.Advance(100 * time.Millisecond)
	f.m.SetUserAgent("agent-c")
	f.man.Advance(350 * time.Millisecond)

	// The first change was superseded; the second debounce has not fired yet.
	if got := countCalls(f.eng.Journal(), "Create("); got != 1 {
		t.Fatalf("recreated %d times before the debounce fired", got-1)
	}

	f.man.Advance(100 * time.Millisecond)
	journal := f.eng.Journal()
	if got := countCalls(journal, "Create("); got != 2 {
		t.Fatalf("Create called %d times, want 2 (one recreation)", got)
	}
	if got := countCalls(journal, "Destroy("); got != 1 {
		t.Fatalf("Destroy called %d times, want 1", got)
	}
	h, ok := f.m.Handle()
	if !ok || f.eng.UserAgent(h) != "agent-c" {
		t.Fatalf("recreated surface has user agent %q, want agent-c", f.eng.UserAgent(h))
	}
}

func TestUserAgentRevertSkipsRecreation(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.UserAgent = "agent-a" })
	f.ready(t)

	f.m.SetUserAgent("agent-b")
	f.man.Advance(100 * time.Millisecond)
	f.m.SetUserAgent("agent-a")
	f.man.Advance(2 * time.Second)

	if got := countCalls(f.eng.Journal(), "Create("); got != 1 {
		t.Fatalf("Create called %d times after a reverted change, want 1", got)
	}
}

func TestContentBufferedBeforeCreation(t *testing.T) {
	f := newFixture(t, nil)
	f.m.LoadURL("https://example.com/docs", nil)
	f.ready(t)

	journal := f.eng.Journal()
	if !strings.Contains(journal[0], "url=https://example.com/docs") {
		t.Fatalf("buffered url not used at creation: %s", journal[0])
	}
	if got := countCalls(journal, "LoadURL("); got != 0 {
		t.Fatalf("LoadURL called %d times for content already passed at creation", got)
	}
}

func TestBufferedURLHeadersAppliedAfterCreation(t *testing.T) {
	f := newFixture(t, nil)
	f.m.LoadURL("https://example.com/auth", map[string]string{"Authorization": "Bearer tok"})
	f.ready(t)

	journal := f.eng.Journal()
	if !strings.Contains(journal[0], "url=https://example.com/auth") {
		t.Fatalf("buffered url not used at creation: %s", journal[0])
	}
	// Creation carries no headers, so the load must be replayed with them.
	if got := countCalls(journal, "LoadURL("); got != 1 {
		t.Fatalf("LoadURL called %d times after creation, want 1", got)
	}
	replayed := false
	for _, entry := range journal {
		if strings.HasPrefix(entry, "LoadURL(") && strings.Contains(entry, "1 headers") {
			replayed = true
		}
	}
	if !replayed {
		t.Fatalf("buffered headers never reached the engine: %v", journal)
	}
}

func TestBufferedHTMLAppliedAfterCreation(t *testing.T) {
	f := newFixture(t, nil)
	f.m.LoadHTML("<p>offline</p>")
	f.ready(t)

	if got := countCalls(f.eng.Journal(), "LoadHTML("); got != 1 {
		t.Fatalf("LoadHTML called %d times after creation, want 1", got)
	}
}

func TestContentReplayedAcrossRecreation(t *testing.T) {
	f := newFixture(t, nil)
	h := f.ready(t)

	f.m.LoadURL("https://example.com/settings", nil)
	if got, _ := f.eng.URL(h); got != "https://example.com/settings" {
		t.Fatalf("live surface url = %q", got)
	}

	f.m.Close()
	f.m.Attach(f.host)
	f.man.Advance(60 * time.Millisecond)

	journal := f.eng.Journal()
	creates := 0
	for _, entry := range journal {
		if strings.HasPrefix(entry, "Create(") {
			creates++
			if creates == 2 && !strings.Contains(entry, "url=https://example.com/settings") {
				t.Fatalf("recreation lost the last loaded url: %s", entry)
			}
		}
	}
	if creates != 2 {
		t.Fatalf("Create called %d times, want 2", creates)
	}
}

func TestModifyPolicyRedirects(t *testing.T) {
	f := newFixture(t, nil)
	h := f.ready(t)

	remove := f.m.Interceptor().Add(func(url string) nav.Decision {
		if strings.HasPrefix(url, "https://tracker.") {
			return nav.ModifyTo("https://example.com/blocked", nil)
		}
		return nav.Allow()
	})

	if f.eng.Navigate(h, "https://tracker.example.net/pixel") {
		t.Fatalf("modified navigation was allowed to commit")
	}
	f.man.Flush()

	journal := f.eng.Journal()
	if got := countCalls(journal, "StopLoading("); got != 1 {
		t.Fatalf("StopLoading called %d times for a rewrite, want 1", got)
	}
	if got, _ := f.eng.URL(h); got != "https://example.com/blocked" {
		t.Fatalf("surface url = %q after rewrite", got)
	}

	remove()
	if !f.eng.Navigate(h, "https://tracker.example.net/pixel") {
		t.Fatalf("navigation still blocked after policy removal")
	}
}

func TestLayoutSuppressesDuplicateBounds(t *testing.T) {
	f := newFixture(t, nil)
	f.ready(t)

	f.m.Layout()
	f.m.Layout()
	if got := countCalls(f.eng.Journal(), "SetBounds("); got != 1 {
		t.Fatalf("SetBounds called %d times for unchanged bounds, want 1", got)
	}

	f.host.w, f.host.h = 800, 600
	f.m.Layout()
	journal := f.eng.Journal()
	if got := countCalls(journal, "SetBounds("); got != 2 {
		t.Fatalf("SetBounds called %d times after a resize, want 2", got)
	}
	if !strings.Contains(journal[len(journal)-1], "800x600") {
		t.Fatalf("resize not delivered: %s", journal[len(journal)-1])
	}
}

func TestEventPumpFollowsLifecycle(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Provider = &platform.Static{Pump: true, RetryInterval: 50 * time.Millisecond}
	})
	f.ready(t)

	f.man.Advance(100 * time.Millisecond)
	if f.eng.PumpCount() == 0 {
		t.Fatalf("event pump never ran for a pump-requiring provider")
	}

	f.m.Detach()
	f.man.Advance(500 * time.Millisecond) // grace expires, surface destroyed
	n := f.eng.PumpCount()
	f.man.Advance(500 * time.Millisecond)
	if f.eng.PumpCount() != n {
		t.Fatalf("event pump kept running after destroy: %d -> %d", n, f.eng.PumpCount())
	}
}

func TestOperationsWithoutSurfaceAreSafe(t *testing.T) {
	f := newFixture(t, nil)

	f.m.GoBack()
	f.m.GoForward()
	f.m.Reload()
	f.m.StopLoading()
	f.m.Focus()
	got := "unset"
	f.m.EvaluateScript("1+1", func(result string) { got = result })
	if got != "" {
		t.Fatalf("script result without a surface = %q, want empty", got)
	}
	if cookies := f.m.CookiesForURL("https://example.com"); cookies != nil {
		t.Fatalf("cookies without a surface = %v", cookies)
	}
	if len(f.eng.Journal()) != 0 {
		t.Fatalf("engine touched without a surface: %v", f.eng.Journal())
	}
}
