package xq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/zenibako/xq-golang/messages"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"
)

// Reply is the JSON payload sent back for every trigger message when replies are enabled
type Reply struct {
	Address string `json:"address"`
	Status  string `json:"status"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TriggerListener exposes GO, group start, panic and reset over OSC.
// Messages arrive on the server goroutine and are posted to the scheduler,
// so cues always fire on the tick goroutine.
type TriggerListener struct {
	host           string
	port           int
	sched          *Scheduler
	advancers      map[string]*Advancer // Keyed by cue list name
	primary        *Advancer            // Target of unscoped messages
	server         *osc.Server
	serverMux      sync.Mutex
	replyClient    *osc.Client
	addressBuilder *messages.OSCAddressBuilder
	reload         *RemoteResolver // Answers arriving on /xq/reload/respond
}

// NewTriggerListener creates a listener bound to host:port. The first
// advancer answers unscoped addresses like /xq/go.
func NewTriggerListener(host string, port int, sched *Scheduler, advancers ...*Advancer) *TriggerListener {
	l := &TriggerListener{
		host:           host,
		port:           port,
		sched:          sched,
		advancers:      make(map[string]*Advancer),
		addressBuilder: messages.NewOSCAddressBuilder(""),
	}
	for i, a := range advancers {
		if i == 0 {
			l.primary = a
		}
		if a.List != nil {
			l.advancers[messages.EscapeSegment(a.List.Name)] = a
		}
	}
	return l
}

// SetReplyTarget sends a JSON Reply to host:port after each handled message.
func (l *TriggerListener) SetReplyTarget(host string, port int) {
	if host == "" || port == 0 {
		l.replyClient = nil
		return
	}
	l.replyClient = osc.NewClient(host, port)
}

// SetReloadResolver routes /xq/reload/respond answers to r.
func (l *TriggerListener) SetReloadResolver(r *RemoteResolver) {
	l.reload = r
}

// SendReloadRequest publishes a reload request to the reply target. It is
// meant as the request sender of a RemoteResolver.
func (l *TriggerListener) SendReloadRequest(req ReloadRequest) error {
	if l.replyClient == nil {
		return fmt.Errorf("no reply target configured for reload requests")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal reload request: %w", err)
	}
	msg := osc.NewMessage(l.addressBuilder.BuildAddress(messages.MsgReloadRequest, nil))
	msg.Append(string(payload))
	return l.replyClient.Send(msg)
}

// Dispatcher builds the OSC dispatcher routing every address to Handle.
func (l *TriggerListener) Dispatcher() *osc.StandardDispatcher {
	d := osc.NewStandardDispatcher()
	_ = d.AddMsgHandler("*", l.Handle)
	return d
}

// ListenAndServe serves until ctx is done.
func (l *TriggerListener) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", l.host, l.port)

	l.serverMux.Lock()
	l.server = &osc.Server{
		Addr:       addr,
		Dispatcher: l.Dispatcher(),
	}
	server := l.server
	l.serverMux.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.Infof("OSC trigger listener started on %s", addr)

	select {
	case err := <-errCh:
		if err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
			return fmt.Errorf("OSC listener on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		l.Close()
		return nil
	}
}

// Close stops the server.
func (l *TriggerListener) Close() {
	l.serverMux.Lock()
	defer l.serverMux.Unlock()
	if l.server != nil {
		if err := l.server.CloseConnection(); err != nil {
			log.Warnf("Failed to close OSC trigger listener: %v", err)
		}
		l.server = nil
	}
}

// Handle routes one OSC message onto the scheduler.
func (l *TriggerListener) Handle(msg *osc.Message) {
	address := msg.Address
	log.Debugf("Received OSC message: %s %v", address, msg.Arguments)

	var op func() (string, error)

	switch {
	case address == messages.AddrGo:
		op = l.advanceOp(l.primary)
	case address == messages.AddrPanic:
		op = func() (string, error) {
			l.sched.StopAll()
			return "", nil
		}
	case address == messages.AddrReloadRespond:
		l.handleReloadResponse(msg)
		return
	case address == messages.AddrReset:
		op = func() (string, error) {
			if l.primary != nil {
				l.primary.Reset()
			}
			return "", nil
		}
	default:
		if index, ok := messages.ParseGroupIndex(address); ok {
			op = l.groupOp(address, index)
			break
		}
		if name, ok := parseListGo(address); ok {
			op = l.advanceOp(l.advancers[name])
			break
		}
		log.Debugf("Ignoring unknown OSC address %s", address)
		return
	}

	if err := l.sched.Post(func() {
		data, err := op()
		l.reply(address, data, err)
	}); err != nil {
		l.reply(address, "", err)
	}
}

// handleReloadResponse expects (request_id, choice) string arguments.
func (l *TriggerListener) handleReloadResponse(msg *osc.Message) {
	if l.reload == nil {
		log.Debugf("Ignoring reload response; no reload request is pending")
		return
	}
	if len(msg.Arguments) < 2 {
		log.Warnf("Reload response needs a request ID and a choice, got %v", msg.Arguments)
		return
	}
	id, _ := msg.Arguments[0].(string)
	choice, _ := msg.Arguments[1].(string)
	go l.reload.SubmitResponse(ReloadResponse{RequestID: id, Choice: ReloadChoice(choice)})
}

func (l *TriggerListener) advanceOp(a *Advancer) func() (string, error) {
	return func() (string, error) {
		if a == nil {
			return "", fmt.Errorf("no cue list for this address")
		}
		err := a.Advance()
		return strconv.Itoa(a.Current), err
	}
}

func (l *TriggerListener) groupOp(address, rawIndex string) func() (string, error) {
	return func() (string, error) {
		a := l.primary
		if name, scoped := listSegment(address); scoped {
			a = l.advancers[name]
		}
		if a == nil {
			return "", fmt.Errorf("no cue list for this address")
		}
		index, err := strconv.Atoi(rawIndex)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrGroupIndex, rawIndex)
		}
		return rawIndex, l.sched.TriggerGroupAt(a.List, index)
	}
}

func (l *TriggerListener) reply(address, data string, err error) {
	if l.replyClient == nil {
		return
	}
	r := Reply{Address: address, Status: "ok", Data: data}
	if err != nil {
		r.Status = "error"
		r.Error = err.Error()
	}
	payload, mErr := json.Marshal(r)
	if mErr != nil {
		log.Errorf("Failed to marshal reply: %v", mErr)
		return
	}
	msg := osc.NewMessage(l.addressBuilder.BuildReplyAddress(address))
	msg.Append(string(payload))
	if sErr := l.replyClient.Send(msg); sErr != nil {
		log.Warnf("Failed to send reply for %s: %v", address, sErr)
	}
}

// parseListGo matches /xq/list/{list}/go.
func parseListGo(address string) (string, bool) {
	parts := strings.Split(strings.Trim(address, "/"), "/")
	if len(parts) == 4 && parts[0] == "xq" && parts[1] == "list" && parts[3] == "go" {
		return parts[2], true
	}
	return "", false
}

func listSegment(address string) (string, bool) {
	parts := strings.Split(strings.Trim(address, "/"), "/")
	if len(parts) >= 3 && parts[0] == "xq" && parts[1] == "list" {
		return parts[2], true
	}
	return "", false
}
