package printsvc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msalarini/store-lamayer/internal/printer/device"
	"github.com/msalarini/store-lamayer/internal/printer/ticket"
	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("printsvc")

// PrintService renders tickets and sends them to one printer, one job at a time.
type PrintService struct {
	mu     sync.Mutex
	device device.Device
	layout ticket.Layout
	now    func() time.Time
}

type option func(*PrintService)

// MustNewPrintService creates a new PrintService.
func MustNewPrintService(opts ...option) *PrintService {
	s := &PrintService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.device == nil {
		panic("printsvc: device is required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithDevice(d device.Device) option {
	return func(s *PrintService) {
		s.device = d
	}
}

// WithLayout sets the store texts and paper width used on every ticket.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLayout(l ticket.Layout) option {
	return func(s *PrintService) {
		s.layout = l
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *PrintService) {
		s.now = now
	}
}

// Printer names the configured device.
func (s *PrintService) Printer() string {
	return s.device.String()
}

// PrintOrder prints the receipt of one order.
func (s *PrintService) PrintOrder(ctx context.Context, data receipt.OrderData) error {
	ctx, span := tracer.Start(ctx, "PrintService.PrintOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.number", data.OrderNumber))

	job, err := s.layout.RenderOrder(data, s.now())
	if err != nil {
		return fmt.Errorf("failed to render order %s: %w", data.OrderNumber, err)
	}

	return s.send(ctx, job, "order_number", data.OrderNumber)
}

// TestPrint prints the diagnostic page.
func (s *PrintService) TestPrint(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "PrintService.TestPrint")
	defer span.End()

	job, err := s.layout.RenderTest(s.now())
	if err != nil {
		return fmt.Errorf("failed to render test page: %w", err)
	}

	return s.send(ctx, job, "kind", "test")
}

func (s *PrintService) send(ctx context.Context, job []byte, attrs ...any) error {
	jobID := uuid.NewString()
	log := slog.With(append([]any{"job_id", jobID, "printer", s.device.String(), "bytes", len(job)}, attrs...)...)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.device.Write(ctx, job); err != nil {
		log.ErrorContext(ctx, "Print job failed", "error", err)
		return err
	}

	log.InfoContext(ctx, "Print job sent", "duration", time.Since(start))

	return nil
}
