package kafka

import (
	"crypto/sha256"
	"crypto/sha512"

	"github.com/xdg-go/scram"
)

var (
	// SHA256 is the SCRAM hash generator for SHA-256.
	SHA256 scram.HashGeneratorFcn = sha256.New
	// SHA512 is the SCRAM hash generator for SHA-512.
	SHA512 scram.HashGeneratorFcn = sha512.New
)

// XDGSCRAMClient is the sarama.SCRAMClient used for the scram-sha256 and
// scram-sha512 SASL settings.
type XDGSCRAMClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

// Begin starts a conversation for the user; sarama calls it once per broker connection.
func (x *XDGSCRAMClient) Begin(userName, password, authzID string) (err error) {
	x.Client, err = x.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	x.ClientConversation = x.NewConversation()
	return nil
}

func (x *XDGSCRAMClient) Step(challenge string) (string, error) {
	return x.ClientConversation.Step(challenge)
}

func (x *XDGSCRAMClient) Done() bool {
	return x.ClientConversation.Done()
}
