package control

import (
	"net"
	"net/netip"

	"github.com/ravennakit-go/aoipcore/aoierr"
	"github.com/ravennakit-go/aoipcore/audioformat"
	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/sender"
	"github.com/ravennakit-go/aoipcore/socketslot"
	"github.com/ravennakit-go/aoipcore/sourcefilter"
)

// sessionDTO is the wire shape of a socketslot.Session.
type sessionDTO struct {
	ConnectionAddress string `json:"connection_address"`
	RTPPort           uint16 `json:"rtp_port"`
	RTCPPort          uint16 `json:"rtcp_port"`
}

func (d sessionDTO) toSession() (socketslot.Session, error) {
	if d.ConnectionAddress == "" {
		return socketslot.Session{}, nil
	}
	addr, err := netip.ParseAddr(d.ConnectionAddress)
	if err != nil {
		return socketslot.Session{}, aoierr.ErrInvalidSession
	}
	return socketslot.Session{
		ConnectionAddress: addr,
		RTPPort:           d.RTPPort,
		RTCPPort:          d.RTCPPort,
	}, nil
}

// formatDTO is the wire shape of an audioformat.Format. Fields are
// accepted as the same small integer enumerations audioformat.Format
// itself uses, rather than invented string names.
type formatDTO struct {
	ByteOrder    audioformat.ByteOrder `json:"byte_order"`
	Encoding     audioformat.Encoding  `json:"encoding"`
	Ordering     audioformat.Ordering  `json:"ordering"`
	SampleRateHz uint32                `json:"sample_rate_hz"`
	NumChannels  uint32                `json:"num_channels"`
}

func (d formatDTO) toFormat() audioformat.Format {
	return audioformat.Format{
		ByteOrder:    d.ByteOrder,
		Encoding:     d.Encoding,
		Ordering:     d.Ordering,
		SampleRateHz: d.SampleRateHz,
		NumChannels:  d.NumChannels,
	}
}

// sourceFilterDTO is one RFC 4570 include/exclude entry.
type sourceFilterDTO struct {
	Address string `json:"address"`
	Exclude bool   `json:"exclude"`
}

// streamParamsDTO is one of a Reader's two streams.
type streamParamsDTO struct {
	Session          sessionDTO        `json:"session"`
	Interface        string            `json:"interface,omitempty"`
	PacketTimeFrames int               `json:"packet_time_frames"`
	SourceFilters    []sourceFilterDTO `json:"source_filters,omitempty"`
}

func (d streamParamsDTO) toStreamParams() (receiver.StreamParams, *net.Interface, error) {
	session, err := d.Session.toSession()
	if err != nil {
		return receiver.StreamParams{}, nil, err
	}
	if !session.Valid() {
		return receiver.StreamParams{}, nil, nil
	}

	iface, err := resolveInterface(d.Interface)
	if err != nil {
		return receiver.StreamParams{}, nil, err
	}

	var filter *sourcefilter.Filter
	if len(d.SourceFilters) > 0 {
		filter = sourcefilter.New(session.ConnectionAddress)
		for _, f := range d.SourceFilters {
			addr, err := netip.ParseAddr(f.Address)
			if err != nil {
				return receiver.StreamParams{}, nil, aoierr.ErrInvalidSession
			}
			mode := sourcefilter.ModeInclude
			if f.Exclude {
				mode = sourcefilter.ModeExclude
			}
			filter.AddFilter(addr, mode)
		}
	}

	return receiver.StreamParams{
		Session:          session,
		Filter:           filter,
		PacketTimeFrames: d.PacketTimeFrames,
	}, iface, nil
}

func resolveInterface(name string) (*net.Interface, error) {
	if name == "" {
		return nil, nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, aoierr.ErrSocketBindFailed
	}
	return iface, nil
}

// addReaderRequest is the POST /v1/readers request body (spec §4.9
// add_reader).
type addReaderRequest struct {
	ID          uint64          `json:"id"`
	AudioFormat formatDTO       `json:"audio_format"`
	Primary     streamParamsDTO `json:"primary"`
	Secondary   streamParamsDTO `json:"secondary"`
}

func (req addReaderRequest) toParams() (receiver.ReaderParams, receiver.Interfaces, error) {
	primary, primaryIface, err := req.Primary.toStreamParams()
	if err != nil {
		return receiver.ReaderParams{}, receiver.Interfaces{}, err
	}
	secondary, secondaryIface, err := req.Secondary.toStreamParams()
	if err != nil {
		return receiver.ReaderParams{}, receiver.Interfaces{}, err
	}
	params := receiver.ReaderParams{
		AudioFormat: req.AudioFormat.toFormat(),
		Primary:     primary,
		Secondary:   secondary,
	}
	interfaces := receiver.Interfaces{Primary: primaryIface, Secondary: secondaryIface}
	return params, interfaces, nil
}

// setInterfacesRequest is the PUT /v1/readers/{id}/interfaces request
// body (spec §4.9 set_interfaces).
type setInterfacesRequest struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
}

func (req setInterfacesRequest) toInterfaces() (receiver.Interfaces, error) {
	primary, err := resolveInterface(req.Primary)
	if err != nil {
		return receiver.Interfaces{}, err
	}
	secondary, err := resolveInterface(req.Secondary)
	if err != nil {
		return receiver.Interfaces{}, err
	}
	return receiver.Interfaces{Primary: primary, Secondary: secondary}, nil
}

// destinationDTO is one of a Writer's two destinations.
type destinationDTO struct {
	Session   sessionDTO `json:"session"`
	Interface string     `json:"interface,omitempty"`
	TTL       int        `json:"ttl"`
	Enabled   bool       `json:"enabled"`
}

func (d destinationDTO) toDestinationParams() (sender.DestinationParams, error) {
	session, err := d.Session.toSession()
	if err != nil {
		return sender.DestinationParams{}, err
	}
	iface, err := resolveInterface(d.Interface)
	if err != nil {
		return sender.DestinationParams{}, err
	}
	return sender.DestinationParams{
		Session:   session,
		Interface: iface,
		TTL:       d.TTL,
		Enabled:   d.Enabled,
	}, nil
}

// addWriterRequest is the POST /v1/writers request body (spec §4.10
// add_writer).
type addWriterRequest struct {
	ID               uint64         `json:"id"`
	AudioFormat      formatDTO      `json:"audio_format"`
	PayloadType      uint8          `json:"payload_type"`
	SSRC             uint32         `json:"ssrc"`
	PacketTimeFrames int            `json:"packet_time_frames"`
	Primary          destinationDTO `json:"primary"`
	Secondary        destinationDTO `json:"secondary"`
}

func (req addWriterRequest) toParams() (sender.WriterParams, error) {
	primary, err := req.Primary.toDestinationParams()
	if err != nil {
		return sender.WriterParams{}, err
	}
	secondary, err := req.Secondary.toDestinationParams()
	if err != nil {
		return sender.WriterParams{}, err
	}
	return sender.WriterParams{
		AudioFormat:      req.AudioFormat.toFormat(),
		PayloadType:      req.PayloadType,
		SSRC:             req.SSRC,
		PacketTimeFrames: req.PacketTimeFrames,
		Primary:          primary,
		Secondary:        secondary,
	}, nil
}

// streamStatusDTO is the wire shape of a receiver.StreamStatus.
type streamStatusDTO struct {
	Present bool    `json:"present"`
	State   string  `json:"state"`
	Jitter  float64 `json:"jitter_seconds"`
}

func newStreamStatusDTO(s receiver.StreamStatus) streamStatusDTO {
	if !s.Present {
		return streamStatusDTO{}
	}
	return streamStatusDTO{
		Present: true,
		State:   s.State.String(),
		Jitter:  s.Stats.Jitter,
	}
}

// readerStatusDTO is the GET /v1/readers/{id} and list response shape.
type readerStatusDTO struct {
	ID        uint64          `json:"id"`
	Primary   streamStatusDTO `json:"primary"`
	Secondary streamStatusDTO `json:"secondary"`
}

func newReaderStatusDTO(status receiver.ReaderStatus) readerStatusDTO {
	return readerStatusDTO{
		ID:        status.ID,
		Primary:   newStreamStatusDTO(status.Primary),
		Secondary: newStreamStatusDTO(status.Secondary),
	}
}

// writerStatusDTO is the GET /v1/writers/{id} and list response shape.
type writerStatusDTO struct {
	ID              uint64 `json:"id"`
	PendingOutgoing int    `json:"pending_outgoing"`
	FailureCount    uint64 `json:"failure_count"`
}

func newWriterStatusDTO(w *sender.Writer) writerStatusDTO {
	return writerStatusDTO{
		ID:              w.ID(),
		PendingOutgoing: w.PendingOutgoing(),
		FailureCount:    w.FailureCount(),
	}
}
