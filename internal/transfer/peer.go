package transfer

import (
	"github.com/pion/webrtc/v4"
)

// DataChannelLabel is the exact label spec §6 requires; non-matching
// channels arriving on the receiver side are ignored.
const DataChannelLabel = "data"

// createDataChannel opens the session's single data channel: ordered,
// reliable, no max-lifetime, no max-retransmits, no sub-protocol, not
// pre-negotiated.
func createDataChannel(pc *webrtc.PeerConnection) (*webrtc.DataChannel, error) {
	ordered := true
	dc, err := pc.CreateDataChannel(DataChannelLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return nil, NewError("create data channel", err)
	}
	return dc, nil
}

// waitGatherComplete blocks until ICE gathering finishes.
func waitGatherComplete(pc *webrtc.PeerConnection) <-chan struct{} {
	return webrtc.GatheringCompletePromise(pc)
}
