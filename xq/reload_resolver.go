package xq

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
)

// ReloadChoice is what to do with an edited show file.
type ReloadChoice string

const (
	ChoiceApply ReloadChoice = "apply" // Swap the edited lists in now
	ChoiceKeep  ReloadChoice = "keep"  // Keep running the loaded show
)

// ReloadRequest asks an operator whether to apply a set of list changes.
type ReloadRequest struct {
	RequestID string           `json:"request_id"`
	Changes   []ListComparison `json:"changes"`
}

// ReloadResponse answers a ReloadRequest.
type ReloadResponse struct {
	RequestID string       `json:"request_id"`
	Choice    ReloadChoice `json:"choice"`
}

// ReloadResolver decides whether an edited show replaces the running one.
type ReloadResolver interface {
	ResolveReload(changes []ListComparison) (ReloadChoice, error)
}

// AutoResolver applies every reload.
type AutoResolver struct{}

func (AutoResolver) ResolveReload(changes []ListComparison) (ReloadChoice, error) {
	return ChoiceApply, nil
}

// PromptResolver asks on the terminal.
type PromptResolver struct{}

func (PromptResolver) ResolveReload(changes []ListComparison) (ReloadChoice, error) {
	groups := 0
	for _, c := range changes {
		groups += len(c.Changes)
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("The show file changed. Apply the edits now?").
				Description(fmt.Sprintf("%d group(s) changed across %d cue list(s)", groups, len(changes))).
				Options(
					huh.NewOption("Apply edits (the playhead stays where it is)", string(ChoiceApply)),
					huh.NewOption("Keep the running show", string(ChoiceKeep)),
				).
				Value(&choice),
		),
	)

	if err := form.Run(); err != nil {
		return ChoiceKeep, fmt.Errorf("failed to get user input for reload: %v", err)
	}
	log.Infof("User chose to %s the edited show", choice)
	return ReloadChoice(choice), nil
}

// DefaultReloadTimeout is how long a RemoteResolver waits for an answer.
const DefaultReloadTimeout = 30 * time.Second

// RemoteResolver hands the decision to another party, such as a remote
// console. The request goes out through requestSender; the answer comes back
// through SubmitResponse.
type RemoteResolver struct {
	responseChannel chan ReloadResponse
	requestSender   func(ReloadRequest) error
	nextID          atomic.Uint64
	Timeout         time.Duration // Unanswered requests keep the running show
}

func NewRemoteResolver(requestSender func(ReloadRequest) error) *RemoteResolver {
	return &RemoteResolver{
		responseChannel: make(chan ReloadResponse, 1),
		requestSender:   requestSender,
		Timeout:         DefaultReloadTimeout,
	}
}

func (r *RemoteResolver) ResolveReload(changes []ListComparison) (ReloadChoice, error) {
	requestID := fmt.Sprintf("reload-req-%d", r.nextID.Add(1))

	// Forget a late answer to an earlier request.
	select {
	case stale := <-r.responseChannel:
		log.Debugf("Discarding late reload response %s", stale.RequestID)
	default:
	}

	err := r.requestSender(ReloadRequest{RequestID: requestID, Changes: changes})
	if err != nil {
		return ChoiceKeep, fmt.Errorf("failed to send reload request: %v", err)
	}

	var response ReloadResponse
	select {
	case response = <-r.responseChannel:
	case <-time.After(r.Timeout):
		return ChoiceKeep, fmt.Errorf("no answer to %s within %v", requestID, r.Timeout)
	}
	if response.RequestID != requestID {
		return ChoiceKeep, fmt.Errorf("request ID mismatch: expected %s, got %s", requestID, response.RequestID)
	}
	return response.Choice, nil
}

// SubmitResponse delivers the answer to the pending request. An answer
// arriving while another is still unread is dropped.
func (r *RemoteResolver) SubmitResponse(response ReloadResponse) {
	select {
	case r.responseChannel <- response:
	default:
		log.Warnf("Dropping reload response %s; one is already waiting", response.RequestID)
	}
}
