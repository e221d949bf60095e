package debug

import (
	"runtime/debug"

	"github.com/netsampler/sflowparser/utils"
)

// PanicDecoderWrapper recovers a panic of the wrapped decoder. For a
// received datagram the error keeps its source and a copy of the payload,
// as the receiver reuses its buffers.
func PanicDecoderWrapper(wrapped utils.DecoderFunc) utils.DecoderFunc {
	return func(msg interface{}) (err error) {
		defer func() {
			if pErr := recover(); pErr != nil {
				pErrMsg := recovered(msg, pErr, debug.Stack())
				if pkt, ok := msg.(*utils.Message); ok && pkt != nil {
					pErrMsg.Src = pkt.Src
					pErrMsg.Payload = append([]byte(nil), pkt.Payload...)
				}
				err = pErrMsg
			}
		}()
		err = wrapped(msg)
		return err
	}
}
