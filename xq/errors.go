package xq

import "errors"

// Dispatch failures. They abort only the cue or group that hit them; the
// scheduler logs them and carries on.
var (
	ErrNoScheduler            = errors.New("no running scheduler")
	ErrMissingTarget          = errors.New("cue has no target")
	ErrMissingAudioCapability = errors.New("target has no audio output")
	ErrMissingClip            = errors.New("target has no clip assigned")
	ErrEmptyGroupList         = errors.New("cue list has no groups")
	ErrGroupIndex             = errors.New("group index out of range")
	ErrInvalidCue             = errors.New("invalid cue")
	ErrQueueFull              = errors.New("scheduler command queue full")
)
