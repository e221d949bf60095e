package json

import (
	"encoding/json"

	"github.com/netsampler/sflowparser/format"
	"github.com/netsampler/sflowparser/format/common"
)

type JsonDriver struct {
}

func (d *JsonDriver) Prepare() error {
	common.HashFlag()
	return nil
}

func (d *JsonDriver) Init() error {
	return common.ManualHashInit()
}

func (d *JsonDriver) Format(data interface{}) ([]byte, []byte, error) {
	key := common.HashMessageLocal(data)
	output, err := json.Marshal(data)
	return []byte(key), output, err
}

func init() {
	d := &JsonDriver{}
	format.RegisterFormatDriver("json", d)
}
