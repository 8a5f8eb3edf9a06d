package xq

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"
)

// ReceivedMessage captures details about received OSC messages for testing
type ReceivedMessage struct {
	Address   string
	Arguments []any
	Timestamp time.Time
}

// MockOSCServer stands in for a remote audio engine or an OSC reply
// endpoint and records everything it receives.
type MockOSCServer struct {
	host             string
	port             int
	server           *osc.Server
	mu               sync.RWMutex
	isRunning        bool
	receivedMessages []ReceivedMessage
	arrived          chan struct{} // Pulsed on every message
}

// NewMockOSCServer creates a new mock OSC server
func NewMockOSCServer(host string, port int) *MockOSCServer {
	return &MockOSCServer{
		host:             host,
		port:             port,
		receivedMessages: make([]ReceivedMessage, 0),
		arrived:          make(chan struct{}, 1),
	}
}

// Start starts the mock OSC server
func (m *MockOSCServer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("mock server already running")
	}

	d := osc.NewStandardDispatcher()
	_ = d.AddMsgHandler("*", m.captureMessage)

	m.server = &osc.Server{
		Addr:       fmt.Sprintf("%s:%d", m.host, m.port),
		Dispatcher: d,
	}

	started := make(chan error, 1)
	server := m.server
	go func() {
		started <- server.ListenAndServe()
	}()

	// Give the server a moment to bind and check for port conflicts
	select {
	case err := <-started:
		if err != nil {
			m.server = nil
			return fmt.Errorf("mock OSC server failed to start: %w", err)
		}
	case <-time.After(100 * time.Millisecond):
	}

	m.isRunning = true
	log.Infof("Mock OSC server started on %s:%d", m.host, m.port)
	return nil
}

// Stop stops the mock OSC server
func (m *MockOSCServer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return nil
	}

	if m.server != nil {
		if err := m.server.CloseConnection(); err != nil {
			log.Warnf("Failed to close mock server: %v", err)
		}
		m.server = nil
	}

	m.isRunning = false
	log.Info("Mock OSC server stopped")
	return nil
}

func (m *MockOSCServer) captureMessage(msg *osc.Message) {
	m.mu.Lock()
	m.receivedMessages = append(m.receivedMessages, ReceivedMessage{
		Address:   msg.Address,
		Arguments: msg.Arguments,
		Timestamp: time.Now(),
	})
	m.mu.Unlock()

	select {
	case m.arrived <- struct{}{}:
	default:
	}
}

// GetReceivedMessages returns all messages received so far
func (m *MockOSCServer) GetReceivedMessages() []ReceivedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ReceivedMessage, len(m.receivedMessages))
	copy(result, m.receivedMessages)
	return result
}

// ClearReceivedMessages forgets everything received so far
func (m *MockOSCServer) ClearReceivedMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receivedMessages = make([]ReceivedMessage, 0)
}

// GetMessagesForAddress returns received messages whose address contains addressPattern
func (m *MockOSCServer) GetMessagesForAddress(addressPattern string) []ReceivedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ReceivedMessage
	for _, msg := range m.receivedMessages {
		if strings.Contains(msg.Address, addressPattern) {
			result = append(result, msg)
		}
	}
	return result
}

// WaitForMessage blocks until a message whose address contains
// addressPattern arrives, or timeout passes.
func (m *MockOSCServer) WaitForMessage(addressPattern string, timeout time.Duration) (ReceivedMessage, bool) {
	deadline := time.After(timeout)
	for {
		if msgs := m.GetMessagesForAddress(addressPattern); len(msgs) > 0 {
			return msgs[0], true
		}
		select {
		case <-m.arrived:
		case <-deadline:
			return ReceivedMessage{}, false
		}
	}
}
