package text

import (
	"encoding"

	"github.com/netsampler/sflowparser/format"
	"github.com/netsampler/sflowparser/format/common"
)

type TextDriver struct {
}

func (d *TextDriver) Prepare() error {
	common.HashFlag()
	common.SelectorFlag()
	return nil
}

func (d *TextDriver) Init() error {
	err := common.ManualHashInit()
	if err != nil {
		return err
	}
	return common.ManualSelectorInit()
}

// Format uses the message's own text form when it has one (raw datagrams)
// and the field renderer otherwise.
func (d *TextDriver) Format(data interface{}) ([]byte, []byte, error) {
	key := []byte(common.HashMessageLocal(data))
	if dataIf, ok := data.(encoding.TextMarshaler); ok {
		text, err := dataIf.MarshalText()
		return key, text, err
	}
	text := common.FormatMessageReflectText(data, "")
	if text == "" {
		return nil, nil, format.ErrNoSerializer
	}
	return key, []byte(text), nil
}

func init() {
	d := &TextDriver{}
	format.RegisterFormatDriver("text", d)
}
