// Package pipeline turns an endpoint URL into news items in two fixed steps:
// the request stage downloads the body, the response stage validates, repairs
// and decodes it, then hands the repaired results array to the cache.
package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/news-hub/internal/logging"
	"github.com/any-hub/news-hub/internal/news"
)

var (
	// ErrNetworkUnreachable covers malformed URLs, dial/timeout failures and broken bodies.
	ErrNetworkUnreachable = errors.New("network unreachable")
	// ErrServerRejected means the upstream answered but refused: non-2xx or status != "OK".
	ErrServerRejected = errors.New("server rejected request")
	// ErrMalformedPayload means the body could not be parsed or converted.
	ErrMalformedPayload = errors.New("malformed payload")
)

// BlobWriter receives the repaired results array after a successful conversion.
// cache.Controller satisfies it.
type BlobWriter interface {
	Write(data string)
}

// Pipeline is the request stage feeding the response stage.
type Pipeline struct {
	request  *RequestStage
	response *ResponseStage
}

// New wires both stages with a shared upstream client and cache writer.
func New(client *http.Client, writer BlobWriter, logger *logrus.Logger, maxPayload int64) *Pipeline {
	logger = orDiscard(logger)
	return &Pipeline{
		request:  NewRequestStage(client, logger, maxPayload),
		response: NewResponseStage(writer, logger),
	}
}

// Run fetches url and converts the body. The response stage never runs when
// the request stage fails.
func (p *Pipeline) Run(ctx context.Context, url string) ([]news.Item, error) {
	body, err := p.request.Execute(ctx, url)
	if err != nil {
		return nil, err
	}
	return p.response.Execute(body)
}

func orDiscard(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	return logging.Discard()
}
