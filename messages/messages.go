package messages

import (
	"fmt"
	"strings"
)

// OSC message types and address constants for the XQ trigger and output surface

// Message types
type MessageType string

const (
	// Trigger surface (host -> scheduler)
	MsgGo           MessageType = "go"
	MsgGroupStart   MessageType = "group_start"
	MsgPanic        MessageType = "panic"
	MsgReset        MessageType = "reset"
	MsgListGo       MessageType = "list_go"
	MsgListGroupRun MessageType = "list_group_start"

	// Reload handshake (scheduler <-> remote console)
	MsgReloadRequest MessageType = "reload_request"
	MsgReloadRespond MessageType = "reload_respond"

	// Output surface (controller -> remote audio engine)
	MsgTargetVolume MessageType = "target_volume"
	MsgTargetPlay   MessageType = "target_play"
	MsgTargetPause  MessageType = "target_pause"
	MsgTargetResume MessageType = "target_resume"
	MsgTargetStop   MessageType = "target_stop"
	MsgTargetLoop   MessageType = "target_loop"
	MsgTargetSpeed  MessageType = "target_speed"
)

// OSC Address patterns
const (
	// Trigger level
	AddrGo         = "/xq/go"
	AddrGroupStart = "/xq/group/{index}/start"
	AddrPanic      = "/xq/panic"
	AddrReset      = "/xq/reset"

	// Trigger level (scoped to a named cue list)
	AddrListGo         = "/xq/list/{list}/go"
	AddrListGroupStart = "/xq/list/{list}/group/{index}/start"

	// Reload handshake
	AddrReloadRequest = "/xq/reload/request"
	AddrReloadRespond = "/xq/reload/respond"

	// Target level
	AddrTargetVolume = "/xq/target/{target}/volume"
	AddrTargetPlay   = "/xq/target/{target}/play"
	AddrTargetPause  = "/xq/target/{target}/pause"
	AddrTargetResume = "/xq/target/{target}/resume"
	AddrTargetStop   = "/xq/target/{target}/stop"
	AddrTargetLoop   = "/xq/target/{target}/loop"
	AddrTargetSpeed  = "/xq/target/{target}/speed"
)

// OSCAddressBuilder builds OSC addresses from message types and parameters
type OSCAddressBuilder struct {
	listName string
}

// NewOSCAddressBuilder creates a new address builder. listName scopes the
// trigger addresses to one cue list; leave it empty for the global surface.
func NewOSCAddressBuilder(listName string) *OSCAddressBuilder {
	return &OSCAddressBuilder{
		listName: listName,
	}
}

// BuildAddress builds an OSC address from a message type and parameters
func (b *OSCAddressBuilder) BuildAddress(msgType MessageType, params map[string]string) string {
	var address string

	switch msgType {
	case MsgGo:
		address = AddrGo
		if b.listName != "" {
			address = AddrListGo
		}
	case MsgGroupStart:
		address = AddrGroupStart
		if b.listName != "" {
			address = AddrListGroupStart
		}
	case MsgListGo:
		address = AddrListGo
	case MsgListGroupRun:
		address = AddrListGroupStart
	case MsgPanic:
		address = AddrPanic
	case MsgReset:
		address = AddrReset
	case MsgReloadRequest:
		address = AddrReloadRequest
	case MsgReloadRespond:
		address = AddrReloadRespond
	case MsgTargetVolume:
		address = AddrTargetVolume
	case MsgTargetPlay:
		address = AddrTargetPlay
	case MsgTargetPause:
		address = AddrTargetPause
	case MsgTargetResume:
		address = AddrTargetResume
	case MsgTargetStop:
		address = AddrTargetStop
	case MsgTargetLoop:
		address = AddrTargetLoop
	case MsgTargetSpeed:
		address = AddrTargetSpeed
	default:
		return ""
	}

	// Replace list name if needed
	if strings.Contains(address, "{list}") && b.listName != "" {
		address = strings.ReplaceAll(address, "{list}", EscapeSegment(b.listName))
	}

	// Replace other parameters
	for key, value := range params {
		placeholder := fmt.Sprintf("{%s}", key)
		address = strings.ReplaceAll(address, placeholder, EscapeSegment(value))
	}

	return address
}

// BuildTargetAddress builds an output address for a named target
func (b *OSCAddressBuilder) BuildTargetAddress(msgType MessageType, target string) string {
	return b.BuildAddress(msgType, map[string]string{"target": target})
}

// BuildReplyAddress builds a reply address for a given request address
func (b *OSCAddressBuilder) BuildReplyAddress(requestAddress string) string {
	return "/reply" + requestAddress
}

// GetListPrefix returns the cue list prefix for addresses that need it
func (b *OSCAddressBuilder) GetListPrefix() string {
	if b.listName == "" {
		return ""
	}
	return fmt.Sprintf("/xq/list/%s", EscapeSegment(b.listName))
}

// EscapeSegment makes a name safe to use as a single OSC address segment.
// OSC reserves '/' as a separator and ' ', '#', '*', ',', '?', '[', ']', '{', '}'
// for patterns.
func EscapeSegment(s string) string {
	return segmentReplacer.Replace(s)
}

var segmentReplacer = strings.NewReplacer(
	"/", "_", " ", "_", "#", "_", "*", "_", ",", "_",
	"?", "_", "[", "_", "]", "_", "{", "_", "}", "_",
)

// ParseGroupIndex extracts the {index} segment from a group start address.
// It returns false when the address is not a group start address.
func ParseGroupIndex(address string) (string, bool) {
	parts := strings.Split(strings.Trim(address, "/"), "/")
	// xq group {index} start  |  xq list {list} group {index} start
	switch {
	case len(parts) == 4 && parts[0] == "xq" && parts[1] == "group" && parts[3] == "start":
		return parts[2], true
	case len(parts) == 6 && parts[0] == "xq" && parts[1] == "list" && parts[3] == "group" && parts[5] == "start":
		return parts[4], true
	}
	return "", false
}
