package outputs

import (
	"github.com/zenibako/xq-golang/messages"
	"github.com/zenibako/xq-golang/xq"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"
)

// Sender is the part of an OSC client OSCOutput needs.
type Sender interface {
	Send(packet osc.Packet) error
}

// OSCOutput drives a remote audio engine over OSC. The remote never
// answers, so transport and volume state are tracked locally.
type OSCOutput struct {
	target         string
	clip           *xq.Clip
	client         Sender
	addressBuilder *messages.OSCAddressBuilder
	volume         float64
	loop           bool
	playing        bool
	speed          float64
}

// NewOSCOutput creates an output for target that sends to host:port.
func NewOSCOutput(host string, port int, target string, clip *xq.Clip) *OSCOutput {
	return NewOSCOutputWithSender(osc.NewClient(host, port), target, clip)
}

// NewOSCOutputWithSender creates an output around an existing sender.
func NewOSCOutputWithSender(client Sender, target string, clip *xq.Clip) *OSCOutput {
	return &OSCOutput{
		target:         target,
		clip:           clip,
		client:         client,
		addressBuilder: messages.NewOSCAddressBuilder(""),
		volume:         1,
		speed:          1,
	}
}

func (o *OSCOutput) Clip() *xq.Clip  { return o.clip }
func (o *OSCOutput) Volume() float64 { return o.volume }
func (o *OSCOutput) IsPlaying() bool { return o.playing }

func (o *OSCOutput) SetVolume(v float64) {
	o.volume = v
	o.send(messages.MsgTargetVolume, float32(v))
}

func (o *OSCOutput) SetLoop(loop bool) {
	o.loop = loop
	o.send(messages.MsgTargetLoop, boolArg(loop))
}

func (o *OSCOutput) Play() {
	o.playing = true
	clip := ""
	if o.clip != nil {
		clip = o.clip.Source
		if clip == "" {
			clip = o.clip.Name
		}
	}
	o.send(messages.MsgTargetPlay, clip)
}

func (o *OSCOutput) Pause() {
	o.playing = false
	o.send(messages.MsgTargetPause)
}

func (o *OSCOutput) Resume() {
	o.playing = true
	o.send(messages.MsgTargetResume)
}

func (o *OSCOutput) Stop() {
	o.playing = false
	o.send(messages.MsgTargetStop)
}

// SetSpeed implements xq.SpeedSetter.
func (o *OSCOutput) SetSpeed(speed float64) {
	o.speed = speed
	o.send(messages.MsgTargetSpeed, float32(speed))
}

func (o *OSCOutput) send(msgType messages.MessageType, args ...any) {
	address := o.addressBuilder.BuildTargetAddress(msgType, o.target)
	msg := osc.NewMessage(address)
	for _, arg := range args {
		msg.Append(arg)
	}
	if err := o.client.Send(msg); err != nil {
		log.Warnf("Failed to send OSC message %s: %v", address, err)
		return
	}
	log.Debugf("Sent %s %v", address, args)
}

func boolArg(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
