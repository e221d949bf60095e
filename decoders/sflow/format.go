package sflow

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the datagram without triggering MarshalText.
func (d *Datagram) MarshalJSON() ([]byte, error) {
	type datagram Datagram
	return json.Marshal((*datagram)(d)) // the alias drops the methods so MarshalText is not picked up
}

// MarshalText formats a concise summary of the datagram.
func (d *Datagram) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("sFlow%d agent:%s seq:%d count:%d", d.Version, d.AgentAddress, d.SequenceNumber, d.SamplesCount)), nil
}

func (r ParseResult) MarshalJSON() ([]byte, error) {
	type result struct {
		Datagrams []*Datagram `json:"datagrams"`
		Error     string      `json:"error,omitempty"`
		ErrorKind string      `json:"error-kind,omitempty"`
	}
	out := result{Datagrams: r.Datagrams}
	if r.Err != nil {
		out.Error = r.Err.Error()
		out.ErrorKind = ErrorLabel(r.Err)
	}
	return json.Marshal(out)
}
