package dispatcher

import (
	"context"
	"net"
	"servus/internal/global"
	"servus/internal/queue"
	"servus/pkg/protocol"
	"sync"
	"testing"
	"time"
)

// Scripted Primus side of one connection
type peer struct {
	conn     net.Conn
	leftover []byte
}

func (p *peer) next() (request *protocol.Datagram, err error) {
	request = protocol.New(0)
	if len(p.leftover) > 0 {
		err = request.Push(p.leftover)
		p.leftover = nil
		if err != nil {
			return
		}
	}

	buf := make([]byte, 4096)
	for !request.DatagramComplete() {
		p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		n, readErr := p.conn.Read(buf)
		if n > 0 {
			err = request.Push(buf[:n])
			if err != nil {
				return
			}
		}
		if readErr != nil && !request.DatagramComplete() {
			err = readErr
			return
		}
	}
	p.leftover = request.Remainder()
	return
}

func (p *peer) reply(request *protocol.Datagram, status protocol.StatusCode, headers map[string]any, body string) {
	response := protocol.New(0)
	cseq, _ := request.Int(protocol.HeaderCSeq)
	response.Set(protocol.HeaderCSeq, cseq)
	for name, value := range headers {
		response.Set(name, value)
	}
	if body != "" {
		response.SetBody([]byte(body))
	}
	p.conn.Write(response.GenerateResponse(status))
}

// Serves every accepted connection with handler until the test ends
func startPrimus(t *testing.T, handler func(p *peer)) (port int) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handler(&peer{conn: conn})
			}()
		}
	}()

	port = listener.Addr().(*net.TCPAddr).Port
	return
}

func testConfig(port int) Config {
	return Config{
		Address:                   "127.0.0.1",
		Port:                      port,
		Authenticator:             "secret",
		SleepIfRejected:           120 * time.Second,
		ReconnectInterval:         5 * time.Second,
		WaitForResponse:           500 * time.Millisecond,
		WaitForDatagramCompletion: 500 * time.Millisecond,
	}
}

func newTestCommunicator(port int, processor ConfigurationProcessor) (communicator *Communicator, avisoQueue *queue.Queue) {
	avisoQueue = queue.New([]string{global.NSTest})
	communicator = New([]string{global.NSTest}, testConfig(port), avisoQueue, processor)
	return
}

// Records backoff durations; stops the communicator once limit sleeps happened
type recordingSleeper struct {
	mu        sync.Mutex
	durations []time.Duration
	limit     int
	cancel    context.CancelFunc
}

func (s *recordingSleeper) sleep(ctx context.Context, duration time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, duration)
	if len(s.durations) >= s.limit {
		s.cancel()
		return false
	}
	return true
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.durations...)
}

func runInBackground(ctx context.Context, communicator *Communicator) (done chan struct{}) {
	done = make(chan struct{})
	go func() {
		communicator.Run(ctx)
		close(done)
	}()
	return
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("communicator did not stop")
	}
}

func drain(seen chan string) (lines []string) {
	for {
		select {
		case line := <-seen:
			lines = append(lines, line)
		default:
			return
		}
	}
}
