package dialog

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	Type string
	Data any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Type: eventType, Data: data})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func TestListenersFireInRegistrationOrder(t *testing.T) {
	var l Listeners
	var order []int
	l.Add(func() { order = append(order, 1) })
	cancel := l.Add(func() { order = append(order, 2) })
	l.Add(func() { order = append(order, 3) })

	l.Fire()
	assert.Equal(t, []int{1, 2, 3}, order)

	cancel()
	order = nil
	l.Fire()
	assert.Equal(t, []int{1, 3}, order)
	assert.Equal(t, 2, l.Len())
}

func TestListenersCallbackMayUnregister(t *testing.T) {
	var l Listeners
	calls := 0
	var cancel func()
	cancel = l.Add(func() {
		calls++
		cancel()
	})

	l.Fire()
	l.Fire()
	assert.Equal(t, 1, calls)
}

func TestWindowLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewWindow("errorDialog", pub, nil, WithSize(400, 250))

	closed := 0
	w.OnClosed(func() { closed++ })

	w.Show(Options{"title": "Oops"})
	st := w.State()
	assert.True(t, st.Shown)
	assert.Equal(t, "Oops", st.Options["title"])
	assert.Equal(t, 400, st.Width)

	w.Hide()
	assert.False(t, w.State().Shown)
	assert.Equal(t, 0, closed, "hide must not notify closed listeners")

	// A hidden window is still open until closed.
	w.Close()
	assert.Equal(t, 1, closed)
	w.Close()
	assert.Equal(t, 1, closed, "closing a closed window is a no-op")

	w.Show(nil)
	w.Close()
	assert.Equal(t, 2, closed)

	assert.Equal(t, []string{"window.show", "window.hide", "window.close", "window.show", "window.close"}, pub.types())
}

func TestWindowDismissedAfterHide(t *testing.T) {
	w := NewWindow("errorDialog", nil, nil)
	closed := 0
	w.OnClosed(func() { closed++ })

	w.Hide()
	w.Dismissed()
	assert.Equal(t, 0, closed, "never shown")

	w.Show(Options{"errCode": "E1"})
	w.Hide()
	w.Dismissed()
	assert.Equal(t, 1, closed)
	assert.False(t, w.State().Shown)
}

func TestWindowDismissedIgnoresDuplicates(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewWindow("survey", pub, nil)

	closed := 0
	w.OnClosed(func() { closed++ })

	w.Dismissed()
	assert.Equal(t, 0, closed)

	w.Show(Options{"url": "https://example.org/survey"})
	w.Dismissed()
	w.Dismissed()
	assert.Equal(t, 1, closed)
	assert.Equal(t, []string{"window.show", "window.closed"}, pub.types())
}

func TestWindowShowCopiesOptions(t *testing.T) {
	w := NewWindow("survey", nil, nil)
	opts := Options{"a": 1}
	w.Show(opts)
	opts["a"] = 2

	assert.Equal(t, 1, w.State().Options["a"])
}

func TestWindowPayloadMarshals(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewWindow("errorDialog", pub, nil, WithSize(400, 250))
	w.Show(Options{"title": "t"})

	require.Len(t, pub.events, 1)
	b, err := json.Marshal(pub.events[0].Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dialog":"errorDialog","options":{"title":"t"},"width":400,"height":250}`, string(b))
}

func TestLazyCreatesOnFirstShow(t *testing.T) {
	created := 0
	var inner *Window
	l := NewLazy(func() Handle {
		created++
		inner = NewWindow("survey", nil, nil)
		return inner
	})

	closed := 0
	l.OnClosed(func() { closed++ })

	l.Hide()
	l.Close()
	assert.False(t, l.Created())
	assert.Nil(t, l.Unwrap())

	l.Show(Options{"x": 1})
	l.Show(Options{"x": 2})
	assert.Equal(t, 1, created)
	assert.True(t, l.Created())

	inner.Dismissed()
	assert.Equal(t, 1, closed, "listeners registered before creation are forwarded")

	l.Show(nil)
	l.Close()
	assert.Equal(t, 2, closed)
}

func TestErrorAttrsRoundTrip(t *testing.T) {
	attrs := ErrorAttrs{
		Title:     "Cannot connect",
		Subhead:   "The preferences server is unreachable",
		Details:   "Check your network connection",
		ErrCode:   "ECONNREFUSED",
		BtnLabel1: "OK",
		BtnLabel3: "Help",
	}
	require.NoError(t, attrs.Validate())

	opts := attrs.Options()
	_, hasBtn2 := opts["btnLabel2"]
	assert.False(t, hasBtn2)

	assert.Equal(t, attrs, ErrorAttrsFrom(opts))
	assert.Equal(t, []string{"OK", "Help"}, attrs.Buttons())
}

func TestErrorAttrsValidate(t *testing.T) {
	err := ErrorAttrs{Title: "x"}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteError))
	assert.Contains(t, err.Error(), "subhead, details, errCode")
}

func TestErrorAttrsFromFormatsNonStrings(t *testing.T) {
	attrs := ErrorAttrsFrom(Options{"errCode": 503, "title": nil})
	assert.Equal(t, "503", attrs.ErrCode)
	assert.Equal(t, "", attrs.Title)
}
