package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/utils"
)

// Connect waits for the first server of natsURL to accept connections and connects to it.
//
//nolint:whitespace // editor/linter issue
func Connect(
	ctx context.Context, natsURL, name string, timeout time.Duration,
) (*nats.Conn, error) {
	addr, err := utils.ExtractFromNatsURL(natsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid nats url: %w", err)
	}
	if err = utils.WaitForTCP(ctx, addr, timeout); err != nil {
		return nil, err
	}
	conn, err := nats.Connect(natsURL,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", log.ErrorField(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", log.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	log.Info("connected to nats", log.String("url", conn.ConnectedUrl()))
	return conn, nil
}
