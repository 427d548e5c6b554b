package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dubinc/dub-sub007/internal/models"
)

// ClickSink receives enriched click events for ingestion. Implementations
// must tolerate being called from a single background worker goroutine.
type ClickSink interface {
	Record(ctx context.Context, click *models.Click) error
}

// ClickEmitter decouples click telemetry from the response path. Emit is
// non-blocking and best-effort: a full buffer drops the event, and sink
// failures are logged and swallowed. Under-counting during infrastructure
// trouble is preferred over adding latency to every redirect.
type ClickEmitter struct {
	sink         ClickSink
	logger       *slog.Logger
	geoIPService *GeoIPService
	clickChannel chan models.Click
}

func NewClickEmitter(sink ClickSink, logger *slog.Logger, geoIPService *GeoIPService) *ClickEmitter {
	return &ClickEmitter{
		sink:         sink,
		logger:       logger,
		geoIPService: geoIPService,
		clickChannel: make(chan models.Click, 1000),
	}
}

func (e *ClickEmitter) Start(ctx context.Context) {
	e.logger.Info("Click worker starting")
	for {
		select {
		case click := <-e.clickChannel:
			e.enrich(&click)

			recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := e.sink.Record(recordCtx, &click); err != nil {
				e.logger.Error("Failed to record click", "link_id", click.LinkID, "error", err)
			}
			cancel()
		case <-ctx.Done():
			e.logger.Info("Click worker stopping")
			return
		}
	}
}

// Emit hands the event to the worker. Ownership of the event passes here;
// the caller never learns whether ingestion succeeded.
func (e *ClickEmitter) Emit(click models.Click) {
	select {
	case e.clickChannel <- click:
	default:
		e.logger.Warn("Click channel full, dropping event", "link_id", click.LinkID)
	}
}

// enrich fills the fields that are too slow for the hot path: geo names,
// device bucket, and the privacy-masked IP. OS, browser and bot flag were
// already classified during routing.
func (e *ClickEmitter) enrich(click *models.Click) {
	if click.DeviceType == "" {
		click.DeviceType = DeviceType(click.UserAgent)
	}

	country, region, city := e.geoIPService.GetLocation(click.IPAddress)
	if click.Country == "" || click.Country == "Unknown" {
		click.Country = country
	}
	click.Region = region
	click.City = city

	click.IPAddress = maskIP(click.IPAddress)
}

// maskIP zeroes the last IPv4 octet and hides IPv6 entirely (GDPR).
func maskIP(ip string) string {
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == '.' {
			return ip[:i] + ".0"
		}
		if ip[i] == ':' {
			return "IPv6 (Masked)"
		}
	}
	return ip
}
