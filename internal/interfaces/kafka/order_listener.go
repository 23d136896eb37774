// Package kafka consume eventos de pedidos y los registra como movimientos del kardex.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// Tipos de evento que generan movimientos.
const (
	EventOrderCreated  = "OrderCreated"  // salida SALE por ítem
	EventOrderReturned = "OrderReturned" // entrada CUSTOMER_RETURN por ítem
)

// SystemUserID usuario registrado en los movimientos originados por eventos.
const SystemUserID = "system:kafka"

// MessageReader lo que el listener usa de *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// MovementAppender lo implementa *inventory.Ledger.
type MovementAppender interface {
	Append(ctx context.Context, in inventory.AppendInput) (*entity.Movement, error)
}

// OrderEvent sobre publicado por el servicio de pedidos.
type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

// OrderPayload pedido con sus ítems.
type OrderPayload struct {
	ID    string      `json:"id"`
	Items []OrderItem `json:"items"`
}

// OrderItem cantidad vendida o devuelta de un producto.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

// Config parámetros del consumidor.
type Config struct {
	Brokers    []string
	Topic      string
	GroupID    string
	MaxRetries int           // reintentos por ítem ante errores transitorios
	RetryDelay time.Duration // espera entre reintentos
}

// NewReader crea el *kafka.Reader del grupo de consumidores.
func NewReader(cfg Config) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// OrderListener traduce eventos de pedidos en movimientos del kardex. El offset se confirma
// después de procesar el mensaje (entrega al menos una vez).
type OrderListener struct {
	reader     MessageReader
	ledger     MovementAppender
	log        *logger.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewOrderListener construye el listener.
func NewOrderListener(reader MessageReader, ledger MovementAppender, cfg Config, log *logger.Logger) *OrderListener {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &OrderListener{
		reader:     reader,
		ledger:     ledger,
		log:        log,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Start consume hasta que ctx se cancele.
func (l *OrderListener) Start(ctx context.Context) {
	l.log.Info().Msg("listener de pedidos iniciado")
	defer func() {
		if err := l.reader.Close(); err != nil {
			l.log.Warn().Err(err).Msg("cerrar lector kafka")
		}
	}()
	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Info().Msg("listener de pedidos detenido")
				return
			}
			l.log.Error().Err(err).Msg("leer mensaje kafka")
			if !sleep(ctx, l.retryDelay) {
				return
			}
			continue
		}
		l.Handle(ctx, msg.Value)
		if err := l.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			l.log.Error().Err(err).Int64("offset", msg.Offset).Msg("confirmar offset kafka")
		}
	}
}

// Handle procesa un mensaje. Los mensajes inválidos se descartan con log; los ítems que fallan
// por regla de negocio (stock insuficiente, datos inválidos) no se reintentan.
// Cada ítem viaja con una clave derivada de event_id, así que reentregar el mismo evento
// no registra movimientos nuevos.
func (l *OrderListener) Handle(ctx context.Context, value []byte) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.log.Error().Err(err).Msg("evento de pedido ilegible")
		return
	}

	var kind, subtype string
	switch event.EventType {
	case EventOrderCreated:
		kind, subtype = entity.MovementKindEXIT, entity.ExitSale
	case EventOrderReturned:
		kind, subtype = entity.MovementKindENTRY, entity.EntryCustomerReturn
	default:
		return
	}

	if event.EventID == "" {
		l.log.Warn().
			Str("order_id", event.Payload.ID).
			Str("event_type", event.EventType).
			Msg("evento sin event_id: una reentrega duplicaría movimientos")
	}
	for i, item := range event.Payload.Items {
		qty, err := wholeUnits(item.Quantity)
		if err != nil {
			l.log.Error().Err(err).
				Str("order_id", event.Payload.ID).
				Str("product_id", item.ProductID).
				Msg("cantidad no entera en evento de pedido")
			continue
		}
		in := inventory.AppendInput{
			ProductID:      item.ProductID,
			Kind:           kind,
			Subtype:        subtype,
			Quantity:       qty,
			DocumentNumber: event.Payload.ID,
			UserID:         SystemUserID,
			Notes:          event.EventType + " " + event.EventID,
			IdempotencyKey: itemKey(event.EventID, i, item.ProductID),
		}
		if err := l.appendWithRetry(ctx, in); err != nil {
			l.log.Error().Err(err).
				Str("order_id", event.Payload.ID).
				Str("product_id", item.ProductID).
				Str("event_type", event.EventType).
				Msg("no se pudo registrar el ítem del pedido")
		}
	}
}

func (l *OrderListener) appendWithRetry(ctx context.Context, in inventory.AppendInput) error {
	var err error
	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		_, err = l.ledger.Append(ctx, in)
		if err == nil || !transient(err) {
			return err
		}
		if !sleep(ctx, l.retryDelay) {
			return ctx.Err()
		}
	}
	return err
}

// transient errores que pueden desaparecer al reintentar.
func transient(err error) bool {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvariant):
		return false
	}
	return true
}

// itemKey identifica un ítem de un evento; la posición distingue líneas repetidas del mismo producto.
func itemKey(eventID string, index int, productID string) string {
	if eventID == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%s", eventID, index, productID)
}

// float64(math.MaxInt64) redondea a 2^63, que ya no cabe en int64.
func wholeUnits(q float64) (int64, error) {
	if q <= 0 || q != math.Trunc(q) || q >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: cantidad %v", domain.ErrInvalidInput, q)
	}
	return int64(q), nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
