package concord

import (
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/concord-labs/concord/concordjson"
	"github.com/concord-labs/concord/discord"
)

// gatewayStubInterface satisfies the REST boundary with a canned
// /gateway/bot reply so startup can be exercised without the network.
type gatewayStubInterface struct{}

func (gatewayStubInterface) Fetch(s *discord.Session, method, endpoint, contentType string, body []byte, headers http.Header) (*discord.RESTResponse, error) {
	return &discord.RESTResponse{StatusCode: http.StatusOK}, nil
}

func (gatewayStubInterface) FetchBJ(s *discord.Session, method, endpoint, contentType string, body []byte, headers http.Header, response interface{}) error {
	return nil
}

func (gatewayStubInterface) FetchJJ(s *discord.Session, method, endpoint string, payload interface{}, headers http.Header, response interface{}) error {
	return concordjson.Unmarshal([]byte(`{"url":"ws://127.0.0.1:1","shards":1,"session_start_limit":{"total":1000,"remaining":1000,"reset_after":0,"max_concurrency":1}}`), response)
}

func TestOpenFailureLeavesNoMetricsRunning(t *testing.T) {
	c := NewConcord(&Configuration{
		Token:             "testtoken",
		GatewayURL:        "ws://127.0.0.1:1",
		PrometheusAddress: "127.0.0.1:0",
	}, io.Discard)
	c.Session = discord.NewSession(c.ctx, "Bot testtoken", gatewayStubInterface{})

	err := c.Open()
	assert.Error(t, err)

	// The metrics server only starts once the first shard connects, so
	// after a failed startup the collectors are still unregistered.
	regErr := prometheus.Register(concordEventCount)
	assert.NoError(t, regErr)
	prometheus.Unregister(concordEventCount)
}

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	// Registering the same collectors twice panics without the Once.
	registerMetrics()
	registerMetrics()
}
