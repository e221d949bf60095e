package debug

import (
	"runtime/debug"

	"github.com/netsampler/sflowparser/producer"
)

type PanicProducerWrapper struct {
	wrapped producer.ProducerInterface
}

func (p *PanicProducerWrapper) Produce(msg interface{}, args *producer.ProduceArgs) (flowMessageSet []producer.ProducerMessage, err error) {
	defer func() {
		if pErr := recover(); pErr != nil {
			pErrMsg := recovered(msg, pErr, debug.Stack())
			if args != nil {
				pErrMsg.Src = args.Src
			}
			err = pErrMsg
		}
	}()

	flowMessageSet, err = p.wrapped.Produce(msg, args)
	return flowMessageSet, err
}

func (p *PanicProducerWrapper) Close() {
	p.wrapped.Close()
}

func WrapPanicProducer(wrapped producer.ProducerInterface) producer.ProducerInterface {
	return &PanicProducerWrapper{
		wrapped: wrapped,
	}
}
