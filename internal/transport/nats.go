package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/tietaja/internal/config"
	"github.com/avvvet/tietaja/internal/handlers"
	"github.com/avvvet/tietaja/internal/memory"
	"github.com/avvvet/tietaja/internal/models"
	"github.com/nats-io/nats.go"
)

type AskHandler interface {
	HandleAsk(ctx context.Context, request *models.ChatRequest) (*models.ChatResponse, error)
}

type MemoryReader interface {
	Load(ctx context.Context, userID string) *models.UserMemory
}

// MemoryRequest asks for one identity's stored record.
type MemoryRequest struct {
	UserID string `json:"user_id"`
}

type NATSTransport struct {
	conn    *nats.Conn
	config  *config.Config
	handler AskHandler
	memory  MemoryReader
	logger  *slog.Logger

	inflight sync.WaitGroup
}

func NewNATSTransport(cfg *config.Config, handler AskHandler, mem MemoryReader, logger *slog.Logger) (*NATSTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to nats", "url", cfg.NatsURL)

	return &NATSTransport{
		conn:    conn,
		config:  cfg,
		handler: handler,
		memory:  mem,
		logger:  logger,
	}, nil
}

// Start subscribes to the ask and memory subjects in a queue group named after
// the service, so several instances share the load. Each message is handled on
// its own goroutine; turns for the same user are serialized by the memory lock.
func (nt *NATSTransport) Start() error {
	subs := []struct {
		subject string
		handle  func([]byte) []byte
	}{
		{nt.config.NatsRequestSubject, nt.processAsk},
		{nt.config.NatsMemorySubject, nt.processMemory},
	}
	for _, s := range subs {
		handle := s.handle
		if _, err := nt.conn.QueueSubscribe(s.subject, nt.config.ServiceName, func(msg *nats.Msg) {
			nt.dispatch(msg.Data, handle, func(reply []byte) { nt.respond(msg, reply) })
		}); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
		}
		nt.logger.Info("subscribed", "subject", s.subject, "queue", nt.config.ServiceName)
	}
	return nil
}

// dispatch runs handle in the background and passes its output to reply.
func (nt *NATSTransport) dispatch(data []byte, handle func([]byte) []byte, reply func([]byte)) {
	nt.inflight.Add(1)
	go func() {
		defer nt.inflight.Done()
		reply(handle(data))
	}()
}

// processAsk turns one serialized ChatRequest into a serialized reply.
func (nt *NATSTransport) processAsk(data []byte) []byte {
	var request models.ChatRequest
	if err := json.Unmarshal(data, &request); err != nil {
		nt.logger.Warn("invalid ask request", "error", err)
		return nt.errorReply("", models.ErrorInvalidRequest, "Invalid request format")
	}

	nt.logger.Info("processing ask request", "user_id", request.UserID)

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.RequestTimeout)
	defer cancel()

	response, err := nt.handler.HandleAsk(ctx, &request)
	if err != nil {
		code := errorCode(err)
		nt.logger.Error("ask request failed", "user_id", request.UserID, "code", code, "error", err)
		return nt.errorReply(request.UserID, code, err.Error())
	}
	return nt.marshal(response)
}

func (nt *NATSTransport) processMemory(data []byte) []byte {
	var request MemoryRequest
	if err := json.Unmarshal(data, &request); err != nil || strings.TrimSpace(request.UserID) == "" {
		return nt.errorReply(request.UserID, models.ErrorInvalidRequest, "user_id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.RequestTimeout)
	defer cancel()

	return nt.marshal(nt.memory.Load(ctx, request.UserID))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, handlers.ErrInvalidRequest), errors.Is(err, memory.ErrInvalidIdentity):
		return models.ErrorInvalidRequest
	case errors.Is(err, handlers.ErrCompletionFailed):
		return models.ErrorLLMFailed
	case errors.Is(err, handlers.ErrMemoryFailed):
		return models.ErrorMemoryFailed
	default:
		return models.ErrorInternal
	}
}

func (nt *NATSTransport) errorReply(userID, code, message string) []byte {
	return nt.marshal(&models.ErrorResponse{
		UserID:       userID,
		ErrorCode:    code,
		ErrorMessage: message,
	})
}

func (nt *NATSTransport) marshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		nt.logger.Error("failed to marshal reply", "error", err)
		data, _ = json.Marshal(&models.ErrorResponse{
			ErrorCode:    models.ErrorInternal,
			ErrorMessage: "failed to marshal response",
		})
	}
	return data
}

func (nt *NATSTransport) respond(msg *nats.Msg, data []byte) {
	if err := msg.Respond(data); err != nil {
		nt.logger.Error("failed to send response", "subject", msg.Subject, "error", err)
	}
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		if err := nt.conn.Drain(); err != nil {
			nt.conn.Close()
		}
		nt.logger.Info("nats connection closed")
	}
	nt.inflight.Wait()
	return nil
}
