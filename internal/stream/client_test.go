package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rorical/smartagent/internal/observability"
)

type recordedConnection struct {
	events      int
	interrupted bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedConnection
}

func (r *fakeRecorder) RecordSSEConnection(events int, interrupted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedConnection{events: events, interrupted: interrupted})
}

func (r *fakeRecorder) all() []recordedConnection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedConnection(nil), r.records...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeRecorder) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	recorder := &fakeRecorder{}
	client, err := NewClient(server.URL+"/api/agent", server.Client(), observability.Discard(), recorder)
	require.NoError(t, err)
	client.SetWatchdog(0)
	return client, recorder
}

func collect(t *testing.T, events *Events) []Event {
	t.Helper()

	var out []Event
	for evt, err := range events.All() {
		require.NoError(t, err)
		out = append(out, evt)
	}
	return out
}

func TestOpenPostsJSONBody(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        map[string]any
	)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `data: {"type":"finished","value":{"reason":"STOP"}}`+"\n")
	})

	events, err := client.Open(context.Background(), map[string]any{
		"message":        "hello",
		"conversationId": "default",
	})
	require.NoError(t, err)
	got := collect(t, events)

	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "hello", gotBody["message"])
	require.Len(t, got, 1)
	finished, ok := got[0].(FinishedEvent)
	require.True(t, ok)
	require.Equal(t, "STOP", finished.Reason)
}

func TestEventsSkipMalformedLines(t *testing.T) {
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w,
			`data: {"type":"content","value":{"text":"a"}}`+"\n"+
				"data: {not json}\n"+
				": comment\n"+
				"event: ignored\n"+
				"\n"+
				`data: {"type":"content","value":{"text":"b"}}`+"\n")
	})

	events, err := client.Open(context.Background(), map[string]string{})
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].(ContentEvent).Text)
	require.Equal(t, "b", got[1].(ContentEvent).Text)
	require.Equal(t, []recordedConnection{{events: 2, interrupted: false}}, recorder.all())
}

func TestEventsBufferPartialLinesAcrossWrites(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		chunks := []string{
			`data: {"type":"con`,
			`tent","value":{"text":"hel`,
			`lo"}}` + "\n" + `data: {"type":"finished"`,
			`,"value":{}}` + "\n",
		}
		for _, chunk := range chunks {
			_, _ = io.WriteString(w, chunk)
			flusher.Flush()
		}
	})

	events, err := client.Open(context.Background(), nil)
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 2)
	require.Equal(t, "hello", got[0].(ContentEvent).Text)
	require.Equal(t, KindFinished, got[1].Kind())
}

func TestEventsDropUnterminatedTrailingLine(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w,
			`data: {"type":"content","value":{"text":"kept"}}`+"\n"+
				`data: {"type":"content","value":{"text":"lost"}}`)
	})

	events, err := client.Open(context.Background(), nil)
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 1)
	require.Equal(t, "kept", got[0].(ContentEvent).Text)
}

func TestEventsDropOversizedLine(t *testing.T) {
	huge := `data: {"type":"content","value":{"text":"` + strings.Repeat("x", MaxLineBytes) + `"}}`
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w,
			huge+"\n"+
				`data: {"type":"content","value":{"text":"after"}}`+"\n")
	})

	events, err := client.Open(context.Background(), nil)
	require.NoError(t, err)
	got := collect(t, events)

	require.Len(t, got, 1)
	require.Equal(t, "after", got[0].(ContentEvent).Text)
	require.Equal(t, []recordedConnection{{events: 1, interrupted: false}}, recorder.all())
}

func TestReadLineCapsAtConfiguredLimit(t *testing.T) {
	events := NewEvents(io.NopCloser(strings.NewReader("0123456789\nok\n")), observability.Discard(), nil)
	events.maxLine = 8

	line, oversized, err := events.readLine()
	require.NoError(t, err)
	require.True(t, oversized)
	require.Empty(t, line)

	line, oversized, err = events.readLine()
	require.NoError(t, err)
	require.False(t, oversized)
	require.Equal(t, "ok\n", string(line))
}

func TestEventsRecordInterruptedStream(t *testing.T) {
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "\n")
	})

	events, err := client.Open(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, collect(t, events))
	require.Equal(t, []recordedConnection{{events: 0, interrupted: true}}, recorder.all())

	_, err = events.Next()
	require.ErrorIs(t, err, io.EOF)
	require.Len(t, recorder.all(), 1)
}

func TestOpenRejectsNon2xx(t *testing.T) {
	client, recorder := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.Open(context.Background(), nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	require.EqualError(t, err, "HTTP error! status: 502")
	require.Empty(t, recorder.all())
}

func TestOpenRejectsEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := client.Open(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoBody)
}

func TestEventsCancelReleasesConnection(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `data: {"type":"content","value":{"text":"first"}}`+"\n")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	events, err := client.Open(ctx, nil)
	require.NoError(t, err)

	evt, err := events.Next()
	require.NoError(t, err)
	require.Equal(t, "first", evt.(ContentEvent).Text)

	cancel()
	_, err = events.Next()
	require.Error(t, err)
	require.False(t, errors.Is(err, io.EOF))
}

func TestEventsCloseUnblocksNext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	events, err := client.Open(context.Background(), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := events.Next()
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, events.Close())

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrStreamClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "empty", endpoint: "  "},
		{name: "missing scheme", endpoint: "localhost:3000/api/agent"},
		{name: "missing host", endpoint: "http:///api/agent"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(tc.endpoint, nil, nil, nil)
			require.Error(t, err)
		})
	}
}
