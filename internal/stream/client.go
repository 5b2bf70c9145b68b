package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	dataPrefix = "data: "

	// MaxLineBytes caps one line of the body; longer lines are dropped
	MaxLineBytes = 1024 * 1024

	// DefaultWatchdog is how long an opened stream may stay unconsumed
	// before a warning is logged
	DefaultWatchdog = 5 * time.Second
)

var (
	ErrNoBody       = errors.New("no response body")
	ErrStreamClosed = errors.New("stream: closed")
)

// HTTPError is returned by Open for a non-2xx response
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// Recorder receives one record per finished stream
type Recorder interface {
	RecordSSEConnection(events int, interrupted bool)
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
	watchdog   time.Duration
}

func NewClient(endpoint string, httpClient *http.Client, logger *slog.Logger, recorder Recorder) (*Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("new stream client: endpoint is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("new stream client: parse endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("new stream client: endpoint must include scheme and host")
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:   trimmed,
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		watchdog:   DefaultWatchdog,
	}, nil
}

// SetWatchdog changes the unconsumed-stream warning delay, <=0 disables it
func (c *Client) SetWatchdog(d time.Duration) {
	c.watchdog = d
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Open issues a single POST and returns the decoded event sequence. The
// request is bound to ctx: cancelling it releases the connection and makes
// Next return the context error.
func (c *Client) Open(ctx context.Context, body any) (*Events, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Stream setup failed", "error", err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		err := &HTTPError{StatusCode: resp.StatusCode}
		c.logger.Error("Stream setup failed", "error", err)
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		c.logger.Error("Stream setup failed", "error", ErrNoBody)
		return nil, ErrNoBody
	}

	events := NewEvents(resp.Body, c.logger, c.recorder)
	events.started = started
	if c.watchdog > 0 {
		events.watchdog = time.AfterFunc(c.watchdog, func() {
			if !events.consumed.Load() {
				c.logger.Warn("Stream not consumed within timeout, this may indicate processing issues",
					"timeout", c.watchdog)
			}
		})
	}
	return events, nil
}

// NewEvents decodes an already open body, such as a recorded stream.
// recorder may be nil.
func NewEvents(body io.ReadCloser, logger *slog.Logger, recorder Recorder) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{
		body:     body,
		reader:   bufio.NewReader(body),
		logger:   logger,
		recorder: recorder,
		started:  time.Now(),
		maxLine:  MaxLineBytes,
	}
}

// Events is a single-pass sequence of decoded stream events
type Events struct {
	body     io.ReadCloser
	reader   *bufio.Reader
	logger   *slog.Logger
	recorder Recorder
	started  time.Time
	watchdog *time.Timer
	maxLine  int

	mu       sync.Mutex
	count    int
	done     bool
	err      error
	consumed atomic.Bool
	closed   atomic.Bool
}

// Next returns the next event, io.EOF once the body ends, or the read
// error that ended the stream. Lines without the "data: " prefix are
// ignored and undecodable payloads are logged and skipped.
func (e *Events) Next() (Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done {
		return nil, e.err
	}

	for {
		raw, oversized, err := e.readLine()
		if err != nil {
			if len(raw) > 0 || oversized {
				e.logger.Debug("Dropping unterminated trailing line", "bytes", len(raw))
			}
			if e.closed.Load() {
				err = ErrStreamClosed
			} else if errors.Is(err, io.EOF) {
				e.finishLocked(io.EOF)
				return nil, io.EOF
			}
			e.finishLocked(err)
			return nil, err
		}

		if oversized {
			e.logger.Warn("Dropping oversized SSE line", "limit", e.maxLine)
			continue
		}

		line := strings.TrimRight(string(raw), "\r\n")
		payload, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}

		evt, err := Decode([]byte(payload))
		if err != nil {
			e.logger.Error("Failed to parse SSE data", "error", err, "data", payload)
			continue
		}
		e.count++
		return evt, nil
	}
}

// readLine returns the next line including its newline. A line longer
// than maxLine is consumed but not kept, and oversized reports it.
func (e *Events) readLine() (line []byte, oversized bool, err error) {
	for {
		chunk, readErr := e.reader.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > e.maxLine {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}
		return line, oversized, readErr
	}
}

// All adapts Next to a range-over-func loop. The loop stops at io.EOF;
// any other error is yielded once. Breaking out early closes the stream.
func (e *Events) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			evt, err := e.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(evt, err) {
				_ = e.Close()
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// Count is the number of events decoded so far
func (e *Events) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Close releases the connection and may be called while another goroutine
// is blocked in Next. Next returns ErrStreamClosed afterwards.
func (e *Events) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = e.body.Close()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return nil
	}
	e.finishLocked(ErrStreamClosed)
	return nil
}

func (e *Events) finishLocked(err error) {
	e.done = true
	e.err = err
	e.consumed.Store(true)
	if e.watchdog != nil {
		e.watchdog.Stop()
	}
	_ = e.body.Close()

	interrupted := e.count == 0
	if e.recorder != nil {
		e.recorder.RecordSSEConnection(e.count, interrupted)
	}

	cost := time.Since(e.started)
	if interrupted {
		e.logger.Warn("SSE closed with zero events, possible weak network/disconnection",
			"cost", cost, "events", e.count)
		return
	}
	e.logger.Info("SSE finished", "events", e.count, "cost", cost)
}
