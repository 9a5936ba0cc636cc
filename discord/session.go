package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/concord-labs/concord/concordjson"
)

const (
	APIVersion      = "v10"
	EndpointDiscord = "https://discord.com/api"
	UserAgent       = "Concord (github.com/concord-labs/concord)"
)

// RESTResponse is the reply contract of the REST executor boundary: the
// status line, raw body, rate limit headers and the remote's own Date,
// which callers use to correct for clock skew.
type RESTResponse struct {
	Date       time.Time
	Header     http.Header
	Body       []byte
	StatusCode int
}

// RESTInterface executes one outbound request. Fetch surfaces transport
// failures as an error and never interprets the status code; helpers
// layered on top classify replies.
type RESTInterface interface {
	Fetch(s *Session, method, endpoint, contentType string, body []byte, headers http.Header) (*RESTResponse, error)
	FetchBJ(s *Session, method, endpoint, contentType string, body []byte, headers http.Header, response interface{}) error
	FetchJJ(s *Session, method, endpoint string, payload interface{}, headers http.Header, response interface{}) error
}

// Session contains the context for the discord rest interface.
type Session struct {
	Context   context.Context
	Interface RESTInterface
	Token     string
}

func NewSession(ctx context.Context, token string, httpInterface RESTInterface) *Session {
	return &Session{
		Context:   ctx,
		Token:     token,
		Interface: httpInterface,
	}
}

// BaseInterface is the default HTTP interface and simply handles routing
// to discord. Careful, this does not handle rate limiting.
type BaseInterface struct {
	HTTP       *http.Client
	APIVersion string
	URLHost    string
	URLScheme  string
	UserAgent  string
}

func NewBaseInterface() RESTInterface {
	return NewInterface(&http.Client{
		Timeout: 20 * time.Second,
	}, EndpointDiscord, APIVersion, UserAgent)
}

func NewInterface(httpClient *http.Client, endpoint, version, useragent string) RESTInterface {
	u, _ := url.Parse(endpoint)

	return &BaseInterface{
		HTTP:       httpClient,
		APIVersion: version,
		URLHost:    u.Host,
		URLScheme:  u.Scheme,
		UserAgent:  useragent,
	}
}

func (bi *BaseInterface) Fetch(session *Session, method, endpoint, contentType string, body []byte, headers http.Header) (*RESTResponse, error) {
	req, err := http.NewRequestWithContext(session.Context, method, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}

	req.URL.Host = bi.URLHost
	req.URL.Scheme = bi.URLScheme

	if strings.Contains(endpoint, "?") {
		req.URL.RawQuery = strings.SplitN(endpoint, "?", 2)[1]
		endpoint = strings.SplitN(endpoint, "?", 2)[0]
	}

	if bi.APIVersion != "" && !strings.HasPrefix(req.URL.Path, "/api") {
		req.URL.Path = "/api/" + bi.APIVersion + endpoint
	}

	for name, values := range headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	if body != nil && len(req.Header.Get("Content-Type")) == 0 {
		req.Header.Set("Content-Type", contentType)
	}

	if session.Token != "" {
		req.Header.Set("Authorization", session.Token)
	}

	req.Header.Set("User-Agent", bi.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := bi.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to do request: %w", err)
	}

	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	date, err := http.ParseTime(resp.Header.Get("Date"))
	if err != nil {
		date = time.Now().UTC()
	}

	return &RESTResponse{
		Date:       date,
		Header:     resp.Header,
		Body:       responseBody,
		StatusCode: resp.StatusCode,
	}, nil
}

func (bi *BaseInterface) FetchBJ(session *Session, method, endpoint, contentType string, body []byte, headers http.Header, response interface{}) error {
	resp, err := bi.Fetch(session, method, endpoint, contentType, body, headers)
	if err != nil {
		return err
	}

	return DecodeResponse(method, endpoint, resp, response)
}

func (bi *BaseInterface) FetchJJ(session *Session, method, endpoint string, payload interface{}, headers http.Header, response interface{}) error {
	body, err := MarshalPayload(payload)
	if err != nil {
		return err
	}

	return bi.FetchBJ(session, method, endpoint, "application/json", body, headers, response)
}

// DecodeResponse classifies a reply by status and decodes the body into
// response when one is expected.
func DecodeResponse(method, endpoint string, resp *RESTResponse, response interface{}) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return NewRestError(method, endpoint, resp)
	}

	if response != nil {
		err := concordjson.Unmarshal(resp.Body, response)
		if err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func MarshalPayload(payload interface{}) ([]byte, error) {
	if payload == nil {
		return make([]byte, 0), nil
	}

	body, err := concordjson.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return body, nil
}
