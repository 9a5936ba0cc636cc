package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/concord-labs/concord/concordjson"
)

var (
	ErrUnauthorized = errors.New("improper token was passed")

	// ErrRateLimited is returned when a call still reports a rate limit
	// after the retry budget has been spent.
	ErrRateLimited = errors.New("request was rate limited")
)

// RestError contains the error structure that is returned by discord.
type RestError struct {
	Message      *ErrorMessage
	Method       string
	Endpoint     string
	ResponseBody []byte
	StatusCode   int
}

// ErrorMessage represents a basic error message.
type ErrorMessage struct {
	Message string `json:"message"`
	Code    int32  `json:"code"`
}

func NewRestError(method, endpoint string, resp *RESTResponse) *RestError {
	var errorMessage ErrorMessage

	_ = concordjson.Unmarshal(resp.Body, &errorMessage)

	return &RestError{
		Message:      &errorMessage,
		Method:       method,
		Endpoint:     endpoint,
		ResponseBody: resp.Body,
		StatusCode:   resp.StatusCode,
	}
}

func (r *RestError) Error() string {
	return fmt.Sprintf("%s %s: %s: %s", r.Method, r.Endpoint, http.StatusText(r.StatusCode), r.Message.Message)
}
