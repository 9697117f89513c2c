package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stallbook/stallbook/internal/shared"
)

// Builder assembles snapshots of a user's data.
type Builder struct {
	store  Reader
	audit  shared.AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder constructs a Builder.
func NewBuilder(store Reader, recorder shared.AuditRecorder, logger *slog.Logger) *Builder {
	if recorder == nil {
		recorder = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, audit: recorder, logger: logger, now: time.Now}
}

// Export reads every owned collection and returns the snapshot. Nothing is
// written except the BACKUP_CREATE audit event.
func (b *Builder) Export(ctx context.Context, userID int64, origin string) (*Snapshot, error) {
	owner, err := b.store.Owner(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewError(shared.ErrNotFound, CodeUserNotFound, "user not found")
		}
		b.logger.ErrorContext(ctx, "backup export: load owner", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	data := &Data{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.Products, err = b.store.Products(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		data.Purchases, err = b.store.Purchases(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		data.Sales, err = b.store.Sales(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		data.Investments, err = b.store.Investments(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		data.FairReports, err = b.store.FairReports(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		data.FairReportItems, err = b.store.FairReportItems(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		b.logger.ErrorContext(ctx, "backup export: read collections", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	normalize(data)

	doc := &Snapshot{
		Version:   FormatVersion,
		CreatedAt: b.now().UTC(),
		Owner:     owner,
		Data:      data,
	}

	b.audit.Record(ctx, shared.AuditEntry{
		UserID: shared.Int64Ptr(userID),
		Action: shared.ActionBackupCreate,
		Entity: shared.EntityBackup,
		After: shared.AuditState(map[string]any{
			"created_at": doc.CreatedAt,
			"counts":     data.Counts(),
		}),
		Origin:      origin,
		Description: "backup created",
	})
	return doc, nil
}
