package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"hostmon-agent/internal/model"
)

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// GRPCClient pushes frames over a long-lived client stream using a JSON codec,
// so the backend needs no generated protobuf types.
type GRPCClient struct {
	mu sync.Mutex

	logger     *slog.Logger
	addr       string
	tlsConfig  *tls.Config
	token      string
	hostMethod string
	conn       *grpc.ClientConn
	hostStream grpc.ClientStream
	cancel     context.CancelFunc
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, token, hostMethod string, logger *slog.Logger) *GRPCClient {
	encoding.RegisterCodec(jsonCodec{})
	return &GRPCClient{
		logger:     logger,
		addr:       addr,
		tlsConfig:  tlsCfg,
		token:      token,
		hostMethod: hostMethod,
	}
}

func (c *GRPCClient) SendHostMetrics(ctx context.Context, hostID string, m model.CombinedSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(); err != nil {
		return err
	}
	if c.hostStream == nil {
		if err := c.openHostStreamLocked(ctx); err != nil {
			return err
		}
	}
	frame := NewHostFrame(hostID, m)
	if err := c.hostStream.SendMsg(frame); err != nil {
		c.logger.Warn("grpc host send failed, reopening stream", "error", err)
		c.resetStreamLocked()
		if err2 := c.openHostStreamLocked(ctx); err2 != nil {
			return fmt.Errorf("reopen host stream: %w", err2)
		}
		if err2 := c.hostStream.SendMsg(frame); err2 != nil {
			return fmt.Errorf("send host frame: %w", err2)
		}
	}
	return nil
}

func (c *GRPCClient) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hostStream != nil {
		_ = c.hostStream.CloseSend()
	}
	c.resetStreamLocked()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *GRPCClient) ensureConnLocked() error {
	if c.conn != nil {
		return nil
	}
	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(
		c.addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return fmt.Errorf("grpc client %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Info("grpc stream client created", "addr", c.addr)
	return nil
}

// openHostStreamLocked ties the stream to its own context, detached from the
// per-send ctx, so it outlives a single publish tick.
func (c *GRPCClient) openHostStreamLocked(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("grpc conn is nil")
	}
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if c.token != "" {
		streamCtx = metadata.AppendToOutgoingContext(streamCtx, "authorization", "Bearer "+c.token)
	}
	s, err := c.conn.NewStream(streamCtx, &grpc.StreamDesc{ClientStreams: true}, c.hostMethod)
	if err != nil {
		cancel()
		return fmt.Errorf("open host stream: %w", err)
	}
	c.hostStream = s
	c.cancel = cancel
	return nil
}

func (c *GRPCClient) resetStreamLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.hostStream = nil
}
