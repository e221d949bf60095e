package kafka

import (
	"errors"
	"testing"

	sarama "github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdg-go/scram"
)

func TestKafkaConfig(t *testing.T) {
	d := &KafkaDriver{
		kafkaVersion:          "2.8.0",
		kafkaCompressionCodec: "ZSTD",
		kafkaHashing:          true,
		kafkaSASL:             "none",
	}
	cfg, err := d.config()
	require.NoError(t, err)
	assert.Equal(t, sarama.CompressionZSTD, cfg.Producer.Compression)
	assert.False(t, cfg.Net.SASL.Enable)

	d.kafkaCompressionCodec = "brotli"
	_, err = d.config()
	assert.True(t, errors.Is(err, ErrCompressionCodec))

	d.kafkaCompressionCodec = ""
	d.kafkaVersion = "not-a-version"
	_, err = d.config()
	assert.Error(t, err)
}

func TestKafkaSASL(t *testing.T) {
	cfg := sarama.NewConfig()
	assert.True(t, errors.Is(configureSASL(cfg, "kerberos"), ErrSASLAlgorithm))

	t.Setenv("KAFKA_SASL_USER", "")
	t.Setenv("KAFKA_SASL_PASS", "")
	assert.True(t, errors.Is(configureSASL(cfg, "plain"), ErrSASLCredentials))

	t.Setenv("KAFKA_SASL_USER", "collector")
	t.Setenv("KAFKA_SASL_PASS", "secret")
	cfg = sarama.NewConfig()
	require.NoError(t, configureSASL(cfg, "SCRAM-SHA512"))
	assert.True(t, cfg.Net.SASL.Enable)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA512), cfg.Net.SASL.Mechanism)
	assert.Equal(t, "collector", cfg.Net.SASL.User)
	require.NotNil(t, cfg.Net.SASL.SCRAMClientGeneratorFunc)
}

func TestKafkaSend(t *testing.T) {
	mockProducer := mocks.NewAsyncProducer(t, nil)
	mockProducer.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != "payload" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	d := &KafkaDriver{kafkaTopic: "sflow-messages"}
	d.start(mockProducer)
	require.NoError(t, d.Send([]byte("192.0.2.1-"), []byte("payload")))
	require.NoError(t, d.Close())
}

func TestXDGSCRAMClient(t *testing.T) {
	client := &XDGSCRAMClient{HashGeneratorFcn: SHA256}
	require.NoError(t, client.Begin("collector", "secret", ""))

	creds := client.Client.GetStoredCredentials(scram.KeyFactors{Salt: "sflow-salt", Iters: 4096})
	server, err := SHA256.NewServer(func(string) (scram.StoredCredentials, error) {
		return creds, nil
	})
	require.NoError(t, err)
	conv := server.NewConversation()

	msg, err := client.Step("")
	require.NoError(t, err)
	for !client.Done() {
		challenge, err := conv.Step(msg)
		require.NoError(t, err)
		msg, err = client.Step(challenge)
		require.NoError(t, err)
	}
	assert.True(t, conv.Valid())
}
