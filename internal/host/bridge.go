package host

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lostbyte/mainhero/internal/logger"
)

type handlerFunc func(ctx context.Context, args []byte) (any, error)

// Serve answers NATSSession requests on behalf of s. It is the Go side of
// the bridge, used to expose a simulated host in development and tests.
// The returned function stops serving.
func Serve(nc *nats.Conn, prefix string, s Session) (func(), error) {
	handlers := map[string]handlerFunc{
		MethodPlayerID: func(ctx context.Context, _ []byte) (any, error) {
			return s.PlayerID(ctx)
		},
		MethodSetName: func(ctx context.Context, args []byte) (any, error) {
			var a nameArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, err
			}
			return nil, s.SetName(ctx, a.Name)
		},
		MethodSetColor: func(ctx context.Context, args []byte) (any, error) {
			var a colorArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, err
			}
			return nil, s.SetColor(ctx, a.Color)
		},
		MethodRole: func(ctx context.Context, _ []byte) (any, error) {
			return s.Role(ctx)
		},
		MethodSelect: func(ctx context.Context, args []byte) (any, error) {
			var a idsArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, err
			}
			return nil, s.Select(ctx, a.IDs)
		},
		MethodItems: func(ctx context.Context, args []byte) (any, error) {
			var a idsArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, err
			}
			return s.Items(ctx, a.IDs)
		},
		MethodViewportScale: func(ctx context.Context, _ []byte) (any, error) {
			return s.ViewportScale(ctx)
		},
		MethodViewportWidth: func(ctx context.Context, _ []byte) (any, error) {
			return s.ViewportWidth(ctx)
		},
		MethodViewportHeight: func(ctx context.Context, _ []byte) (any, error) {
			return s.ViewportHeight(ctx)
		},
		MethodAnimateTo: func(ctx context.Context, args []byte) (any, error) {
			var t ViewportTransform
			if err := json.Unmarshal(args, &t); err != nil {
				return nil, err
			}
			return nil, s.AnimateTo(ctx, t)
		},
		MethodTheme: func(ctx context.Context, _ []byte) (any, error) {
			return s.Theme(ctx)
		},
	}

	subs := make([]*nats.Subscription, 0, len(handlers))
	stop := func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}

	for method, h := range handlers {
		sub, err := nc.Subscribe(subject(prefix, method), respond(method, h))
		if err != nil {
			stop()
			return nil, fmt.Errorf("serve %s: %w", method, err)
		}
		subs = append(subs, sub)
	}
	if err := nc.Flush(); err != nil {
		stop()
		return nil, fmt.Errorf("serve host bridge: %w", err)
	}

	logger.Debug("Host bridge serving", "prefix", prefix, "methods", len(handlers))
	return stop, nil
}

func respond(method string, h handlerFunc) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var reply Reply
		result, err := h(ctx, msg.Data)
		if err != nil {
			reply.Error = err.Error()
		} else if result != nil {
			raw, err := json.Marshal(result)
			if err != nil {
				reply.Error = err.Error()
			} else {
				reply.Result = raw
			}
		}

		data, _ := json.Marshal(reply)
		if err := msg.Respond(data); err != nil {
			logger.Warn("Host bridge failed to respond", "method", method, "error", err)
		}
	}
}

// PublishTheme broadcasts th to every NATSSession listening under prefix
func PublishTheme(nc *nats.Conn, prefix string, th Theme) error {
	data, err := json.Marshal(th)
	if err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	if err := nc.Publish(subject(prefix, SubjectThemeChanged), data); err != nil {
		return fmt.Errorf("publish theme: %w", err)
	}
	return nc.Flush()
}
