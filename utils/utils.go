package utils

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/netsampler/sflowparser/producer"
)

// Config is the collector configuration file. Command-line flags that are
// set explicitly take precedence over it.
type Config struct {
	Listen     []string `yaml:"listen"`
	MaxSamples *uint32  `yaml:"max_samples"`
	Format     string   `yaml:"format"`
	Transport  string   `yaml:"transport"`

	producer.ProducerConfig `yaml:",inline"`
}

func LoadConfig(f io.Reader) (*Config, error) {
	config := &Config{}
	dec := yaml.NewDecoder(f)
	dec.SetStrict(true)
	if err := dec.Decode(config); err != nil && err != io.EOF {
		return nil, err
	}
	return config, nil
}

// SampleLimitValue is a flag holding an optional sample limit. Limit stays
// nil until the flag is given.
type SampleLimitValue struct {
	Limit *uint32
}

func (v *SampleLimitValue) String() string {
	if v == nil || v.Limit == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v.Limit), 10)
}

func (v *SampleLimitValue) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return fmt.Errorf("sample limit %q: %w", s, err)
	}
	limit := uint32(n)
	v.Limit = &limit
	return nil
}

// SampleLimitFlag defines a sample limit flag on the default flag set.
func SampleLimitFlag(name, usage string) *SampleLimitValue {
	v := &SampleLimitValue{}
	flag.Var(v, name, usage)
	return v
}
