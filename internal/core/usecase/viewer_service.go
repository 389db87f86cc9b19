package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/display"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/ports"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
	"github.com/atvirokodosprendimai/bookingaudit/internal/platform/metrics"
)

const systemActorName = "System"

// ViewerService is the read path: one booking's timeline, rendered.
type ViewerService struct {
	authz    ports.BookingAuthorizer
	records  ports.AuditRecordRepository
	actors   ports.ActorRepository
	schemas  *schema.Registry
	handlers *display.Registry
	fetchers map[domain.EntityKind]ports.EntityFetcher
	log      *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func NewViewerService(
	authz ports.BookingAuthorizer,
	records ports.AuditRecordRepository,
	actors ports.ActorRepository,
	schemas *schema.Registry,
	handlers *display.Registry,
	fetchers []ports.EntityFetcher,
	log *slog.Logger,
	m *metrics.Metrics,
) *ViewerService {
	if log == nil {
		log = slog.Default()
	}
	byKind := make(map[domain.EntityKind]ports.EntityFetcher, len(fetchers))
	for _, f := range fetchers {
		byKind[f.Kind()] = f
	}
	return &ViewerService{
		authz:    authz,
		records:  records,
		actors:   actors,
		schemas:  schemas,
		handlers: handlers,
		fetchers: byKind,
		log:      log,
		metrics:  m,
		tracer:   otel.Tracer("github.com/atvirokodosprendimai/bookingaudit/viewer"),
	}
}

type preparedRecord struct {
	rec     domain.AuditRecord
	data    domain.AuditData
	handler display.Handler
}

// GetAuditLogsForBooking authorizes the requester, then renders every record
// of the booking in (timestamp, id) order. Entity lookups are unioned across
// the whole timeline and issued once per entity kind.
func (s *ViewerService) GetAuditLogsForBooking(ctx context.Context, bookingUID string, requester domain.RequesterContext) (domain.BookingAuditLogs, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "viewer.GetAuditLogsForBooking", trace.WithAttributes(attribute.String("booking.uid", bookingUID)))
	defer span.End()

	if err := domain.ValidateUID("bookingUid", bookingUID); err != nil {
		return domain.BookingAuditLogs{}, err
	}
	if err := s.authorize(ctx, bookingUID, requester); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.BookingAuditLogs{}, err
	}

	records, err := s.records.ListByBooking(ctx, bookingUID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.BookingAuditLogs{}, fmt.Errorf("list audit records: %w", err)
	}

	prepared, required, err := s.prepare(ctx, records)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.BookingAuditLogs{}, err
	}

	actors, err := s.loadActors(ctx, records, required)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.BookingAuditLogs{}, err
	}

	store, err := s.fetch(ctx, required)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.BookingAuditLogs{}, err
	}

	logs := make([]domain.AuditLogView, 0, len(prepared))
	for _, p := range prepared {
		fields, err := p.handler.DisplayFields(p.data, store)
		if err != nil {
			s.log.WarnContext(ctx, "display handler failed, using fallback",
				"record_id", p.rec.ID, "action", p.rec.Action, "error", err)
			s.metrics.IncrementFallback(string(p.rec.Action))
			fields, _ = s.handlers.Fallback().DisplayFields(p.data, store)
		}
		if fields == nil {
			fields = []domain.DisplayField{}
		}
		logs = append(logs, domain.AuditLogView{
			ID:            p.rec.ID,
			BookingUID:    p.rec.BookingUID,
			Action:        p.rec.Action,
			Type:          p.rec.Type,
			Source:        p.rec.Source,
			Timestamp:     p.rec.Timestamp,
			Actor:         actorDisplay(actors[p.rec.ActorID], store),
			DisplayTitle:  display.Title(p.rec.Action),
			DisplayFields: fields,
		})
	}

	span.SetAttributes(attribute.Int("audit.records", len(logs)))
	s.metrics.ObserveViewerLatency(time.Since(started))
	return domain.BookingAuditLogs{BookingUID: bookingUID, AuditLogs: logs}, nil
}

func (s *ViewerService) authorize(ctx context.Context, bookingUID string, requester domain.RequesterContext) error {
	if strings.TrimSpace(requester.UserUUID) == "" {
		return domain.ErrPermissionDenied
	}
	ok, err := s.authz.CanViewBooking(ctx, bookingUID, requester)
	if err != nil {
		return fmt.Errorf("authorize booking %s: %w", bookingUID, err)
	}
	if !ok {
		return domain.ErrPermissionDenied
	}
	return nil
}

// prepare migrates every record and collects its requirements. A stored
// version with no migration path fails the whole request; a payload the
// handler cannot decode is rendered by the fallback handler instead.
func (s *ViewerService) prepare(ctx context.Context, records []domain.AuditRecord) ([]preparedRecord, domain.RequirementSet, error) {
	required := domain.NewRequirementSet()
	out := make([]preparedRecord, 0, len(records))
	for _, rec := range records {
		data, err := s.schemas.Normalize(rec.Action, rec.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("normalize record %d: %w", rec.ID, err)
		}

		handler := s.handlers.For(rec.Action)
		if !s.handlers.Registered(rec.Action) {
			s.metrics.IncrementFallback(string(rec.Action))
		}
		req, err := handler.DataRequirements(data)
		if err != nil {
			s.log.WarnContext(ctx, "undecodable audit payload, using fallback",
				"record_id", rec.ID, "action", rec.Action, "error", err)
			s.metrics.IncrementFallback(string(rec.Action))
			handler = s.handlers.Fallback()
			req, _ = handler.DataRequirements(data)
		}
		required.Merge(req)
		out = append(out, preparedRecord{rec: rec, data: data, handler: handler})
	}
	return out, required, nil
}

// loadActors fetches the distinct actors of records in one query and adds
// the keys their display needs to required.
func (s *ViewerService) loadActors(ctx context.Context, records []domain.AuditRecord, required domain.RequirementSet) (map[string]domain.Actor, error) {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.ActorID]; ok {
			continue
		}
		seen[rec.ActorID] = struct{}{}
		ids = append(ids, rec.ActorID)
	}
	if len(ids) == 0 {
		return map[string]domain.Actor{}, nil
	}

	actors, err := s.actors.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	out := make(map[string]domain.Actor, len(actors))
	for _, a := range actors {
		out[a.ID] = a
		switch a.Type {
		case domain.ActorTypeUser:
			required.Add(domain.KindUserUUIDs, a.UserUUID)
		case domain.ActorTypeAttendee:
			required.Add(domain.KindAttendeeIDs, strconv.FormatInt(a.AttendeeID, 10))
		}
	}
	return out, nil
}

// fetch issues exactly one batch per required kind, concurrently.
func (s *ViewerService) fetch(ctx context.Context, required domain.RequirementSet) (display.MapStore, error) {
	store := display.MapStore{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range required.Kinds() {
		keys := required.Keys(kind)
		fetcher, ok := s.fetchers[kind]
		if !ok {
			s.log.WarnContext(ctx, "no fetcher for entity kind, rendering as unknown", "kind", kind, "keys", len(keys))
			continue
		}
		g.Go(func() error {
			fctx, span := s.tracer.Start(gctx, "viewer.fetchBatch", trace.WithAttributes(
				attribute.String("entity.kind", string(kind)),
				attribute.Int("entity.keys", len(keys)),
			))
			defer span.End()

			batch, err := fetcher.FetchBatch(fctx, keys)
			s.metrics.ObserveBatchFetch(string(kind), len(keys))
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return fmt.Errorf("fetch %s: %w", kind, err)
			}

			found := make(map[string]domain.EntityProjection, len(batch))
			for key, p := range batch {
				p.Key = key
				p.Found = true
				found[key] = p
			}
			mu.Lock()
			store[kind] = found
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return store, nil
}

func actorDisplay(a domain.Actor, store display.Store) domain.ActorDisplay {
	switch a.Type {
	case domain.ActorTypeUser:
		p := store.Lookup(domain.KindUserUUIDs, strings.TrimSpace(a.UserUUID))
		return domain.ActorDisplay{Type: a.Type, DisplayName: projectionName(p), DisplayEmail: p.Email}
	case domain.ActorTypeAttendee:
		p := store.Lookup(domain.KindAttendeeIDs, strconv.FormatInt(a.AttendeeID, 10))
		return domain.ActorDisplay{Type: a.Type, DisplayName: projectionName(p), DisplayEmail: p.Email}
	case domain.ActorTypeGuest:
		name := a.Name
		if name == "" {
			name = a.Email
		}
		return domain.ActorDisplay{Type: a.Type, DisplayName: name, DisplayEmail: a.Email}
	case domain.ActorTypeApp:
		name := a.Name
		if name == "" {
			name = a.AppSlug
		}
		return domain.ActorDisplay{Type: a.Type, DisplayName: name}
	case domain.ActorTypeSystem:
		return domain.ActorDisplay{Type: a.Type, DisplayName: systemActorName}
	}
	return domain.ActorDisplay{DisplayName: domain.UnknownName}
}

func projectionName(p domain.EntityProjection) string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != "" {
		return p.Email
	}
	return domain.UnknownName
}
