package bridge

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/probekit/probe/pkg/errorsx"
	"github.com/probekit/probe/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// fakeSession gives tests direct control over message delivery, including
// delivering from foreign goroutines.
type fakeSession struct {
	mu           sync.Mutex
	sink         wire.Sink
	sent         []string
	disconnected bool
}

func (f *fakeSession) Connect(sink wire.Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sink != nil {
		return fmt.Errorf("already connected")
	}
	f.sink = sink
	return nil
}

func (f *fakeSession) SendMessage(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeSession) Disconnect() {
	f.mu.Lock()
	sink := f.sink
	f.disconnected = true
	f.mu.Unlock()
	if sink != nil {
		sink.OnDisconnect()
	}
}

func (f *fakeSession) deliver(message string) {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	sink.OnMessage(message)
}

func (f *fakeSession) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func newConn(t *testing.T) (*SyncConnection, *fakeSession) {
	t.Helper()
	sess := &fakeSession{}
	conn, err := New(sess)
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn, sess
}

func TestRepliesAndNotificationsSplit(t *testing.T) {
	conn, sess := newConn(t)

	sess.deliver(`{"id":1,"result":{}}`)
	sess.deliver(`{"method":"Event.fired"}`)

	var reply, note string
	require.NoError(t, conn.WaitForResponse(func(m string) { reply = m }, time.Second))
	require.NoError(t, conn.WaitForNotification(func(m string) { note = m }, time.Second))

	assert.Equal(t, `{"id":1,"result":{}}`, reply)
	assert.Equal(t, `{"method":"Event.fired"}`, note)
}

func TestPerQueueFIFO(t *testing.T) {
	conn, sess := newConn(t)

	sess.deliver(`{"method":"Event.one"}`)
	sess.deliver(`{"id":7,"result":{}}`)
	sess.deliver(`{"method":"Event.two"}`)
	sess.deliver(`{"id":8,"result":{}}`)

	var got []string
	pop := func(m string) { got = append(got, m) }

	require.NoError(t, conn.WaitForNotification(pop, time.Second))
	require.NoError(t, conn.WaitForNotification(pop, time.Second))
	require.NoError(t, conn.WaitForResponse(pop, time.Second))
	require.NoError(t, conn.WaitForResponse(pop, time.Second))

	assert.Equal(t, []string{
		`{"method":"Event.one"}`,
		`{"method":"Event.two"}`,
		`{"id":7,"result":{}}`,
		`{"id":8,"result":{}}`,
	}, got)
}

func TestCrossStreamIndependence(t *testing.T) {
	conn, sess := newConn(t)

	sess.deliver(`{"id":1,"result":{}}`)

	// A queued reply must not satisfy a notification waiter.
	err := conn.WaitForNotification(func(string) {
		t.Fatal("notification handler ran for a reply")
	}, 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errorsx.ErrTimeout))

	// The reply is still there afterwards.
	var reply string
	require.NoError(t, conn.WaitForResponse(func(m string) { reply = m }, time.Second))
	assert.Equal(t, `{"id":1,"result":{}}`, reply)
}

func TestWaitForResponseTimeoutBounds(t *testing.T) {
	conn, _ := newConn(t)

	start := time.Now()
	err := conn.WaitForResponse(func(string) {
		t.Fatal("handler must not run on timeout")
	}, 100*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	var te *errorsx.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "wait for response", te.Op)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second, "must fail, not hang")
}

func TestTimeoutLeavesQueueEmpty(t *testing.T) {
	conn, sess := newConn(t)

	err := conn.WaitForResponse(func(string) {}, 50*time.Millisecond)
	require.Error(t, err)

	// No phantom entry: a message arriving now is the first one seen.
	sess.deliver(`{"id":1,"result":{}}`)
	var reply string
	require.NoError(t, conn.WaitForResponse(func(m string) { reply = m }, time.Second))
	assert.Equal(t, `{"id":1,"result":{}}`, reply)
}

func TestMalformedPayloadIsANotification(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json at all", payload: "garbage%%%"},
		{name: "truncated json", payload: `{"id":`},
		{name: "valid json without id", payload: `{"result":{}}`},
		{name: "empty string", payload: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, sess := newConn(t)
			sess.deliver(tt.payload)

			var note string
			require.NoError(t, conn.WaitForNotification(func(m string) { note = m }, time.Second))
			assert.Equal(t, tt.payload, note, "payload preserved verbatim, nothing dropped")
		})
	}
}

func TestClassificationIgnoresSendHistory(t *testing.T) {
	conn, sess := newConn(t)

	// Whatever was sent first, classification depends only on the
	// inbound payload itself.
	require.NoError(t, conn.Send(`{"id":99,"method":"Debugger.enable"}`))
	require.NoError(t, conn.Send(`{"id":100,"method":"Debugger.pause"}`))

	sess.deliver(`{"method":"Debugger.paused"}`)
	var note string
	require.NoError(t, conn.WaitForNotification(func(m string) { note = m }, time.Second))
	assert.Equal(t, `{"method":"Debugger.paused"}`, note)
}

func TestSendIsPassthrough(t *testing.T) {
	conn, sess := newConn(t)

	require.NoError(t, conn.Send(`{"id":1,"method":"Runtime.evaluate"}`))
	assert.Equal(t, []string{`{"id":1,"method":"Runtime.evaluate"}`}, sess.sentMessages())
}

func TestWaitAfterCloseFailsFast(t *testing.T) {
	sess := &fakeSession{}
	conn, err := New(sess)
	require.NoError(t, err)

	conn.Close()
	conn.Close() // idempotent
	assert.True(t, sess.disconnected)

	werr := conn.WaitForResponse(func(string) {}, time.Second)
	require.Error(t, werr)
	assert.False(t, errors.Is(werr, errorsx.ErrTimeout), "closed is not a timeout")
}

func TestCloseJoinsQueuePumps(t *testing.T) {
	sess := &fakeSession{}
	conn, err := New(sess)
	require.NoError(t, err)

	// Leave unconsumed traffic in both queues, then close. The queue
	// pump goroutines must exit instead of parking forever on a send
	// nobody will receive.
	sess.deliver(`{"id":1,"result":{}}`)
	sess.deliver(`{"id":2,"result":{}}`)
	sess.deliver(`{"method":"Event.orphaned"}`)

	done := make(chan struct{})
	go func() {
		conn.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung with unconsumed messages queued")
	}

	assert.Eventually(t, func() bool {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		return !strings.Contains(string(buf[:n]), "syncx.(*Unbounded[")
	}, 2*time.Second, 10*time.Millisecond, "queue pump goroutines must not survive Close")
}

func TestWaitForDebuggerFlag(t *testing.T) {
	sess := &fakeSession{}
	conn, err := New(sess, WaitForDebugger())
	require.NoError(t, err)
	defer conn.Close()

	assert.True(t, conn.WaitsForDebugger())
}

func TestNewRequest(t *testing.T) {
	msg, err := NewRequest(5, "Debugger.setBreakpoint", map[string]any{"line": 12})
	require.NoError(t, err)

	assert.EqualValues(t, 5, gjson.Get(msg, "id").Int())
	assert.Equal(t, "Debugger.setBreakpoint", gjson.Get(msg, "method").String())
	assert.EqualValues(t, 12, gjson.Get(msg, "params.line").Int())

	bare, err := NewRequest(6, "Debugger.resume", nil)
	require.NoError(t, err)
	assert.False(t, gjson.Get(bare, "params").Exists())
}

func TestOverPipeSession(t *testing.T) {
	client, server := wire.Pipe()

	// Fake debug target: answers every request, then emits one event.
	targetReady := make(chan struct{})
	go func() {
		sink := targetSink{out: server}
		if err := server.Connect(&sink); err != nil {
			panic(err)
		}
		close(targetReady)
	}()
	<-targetReady

	conn, err := New(client)
	require.NoError(t, err)
	defer conn.Close()

	req, err := NewRequest(1, "Debugger.enable", nil)
	require.NoError(t, err)
	require.NoError(t, conn.Send(req))

	var reply string
	require.NoError(t, conn.WaitForResponse(func(m string) { reply = m }, 2*time.Second))
	assert.EqualValues(t, 1, gjson.Get(reply, "id").Int())

	var note string
	require.NoError(t, conn.WaitForNotification(func(m string) { note = m }, 2*time.Second))
	assert.Equal(t, "Debugger.enabled", gjson.Get(note, "method").String())
}

// targetSink is a minimal fake debug target living on the server end of a
// pipe.
type targetSink struct {
	out wire.Session
}

func (ts *targetSink) OnMessage(message string) {
	id := gjson.Get(message, "id").Int()
	_ = ts.out.SendMessage(fmt.Sprintf(`{"id":%d,"result":{}}`, id))
	_ = ts.out.SendMessage(`{"method":"Debugger.enabled"}`)
}

func (ts *targetSink) OnDisconnect() {}
