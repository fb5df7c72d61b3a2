// Package worker runs the background scan loops: match detection, result
// tracking, and periodic maintenance.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/config"
	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/notifications"
	"github.com/tungtase04539/TFT-Finder/internal/observability"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
	"github.com/tungtase04539/TFT-Finder/internal/service"
)

const (
	defaultDetectionInterval = 30 * time.Second
	defaultResultTrackDelay  = time.Hour

	maintenanceInterval = time.Hour
	rankRefreshBatch    = 20
)

// Worker owns the periodic scan loops. Detection and result tracking run on
// the server process so rooms progress even with every browser closed.
type Worker struct {
	detectionInterval time.Duration
	resultTrackDelay  time.Duration

	rooms        repository.RoomRepository
	codes        repository.VerificationCodeRepository
	roomService  *service.RoomService
	detection    *service.DetectionService
	results      *service.ResultService
	verification *service.VerificationService
	notifier     *notifications.Notifier

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New builds a Worker from config and the services it drives.
func New(
	cfg *config.Config,
	rooms repository.RoomRepository,
	codes repository.VerificationCodeRepository,
	roomService *service.RoomService,
	detection *service.DetectionService,
	results *service.ResultService,
	verification *service.VerificationService,
	notifier *notifications.Notifier,
) *Worker {
	return &Worker{
		detectionInterval: parseDurationOr(cfg.DetectionInterval, defaultDetectionInterval),
		resultTrackDelay:  parseDurationOr(cfg.ResultTrackDelay, defaultResultTrackDelay),
		rooms:             rooms,
		codes:             codes,
		roomService:       roomService,
		detection:         detection,
		results:           results,
		verification:      verification,
		notifier:          notifier,
		stopCh:            make(chan struct{}),
	}
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Start launches the scan loops. They run until Stop is called or the
// context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(2)
	go w.scanLoop(ctx)
	go w.maintenanceLoop(ctx)
}

// Stop signals the loops and waits for the in-flight pass to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

func (w *Worker) scanLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.detectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runDetectionPass(ctx)
			w.runResultPass(ctx)
		}
	}
}

// runDetectionPass advances every active room one step: stale forming rooms
// are swept, copy timers that ran out promote rooms to playing, and rooms
// without a detected match are checked against the Riot match history.
func (w *Worker) runDetectionPass(ctx context.Context) {
	w.roomService.SweepStaleRooms(ctx)

	rooms, err := w.rooms.DueForDetection(ctx)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "detection scan failed", slog.String("error", err.Error()))
		return
	}

	now := time.Now()
	for _, room := range rooms {
		if room.DetectedMatchID != "" {
			continue
		}

		if room.Status == models.RoomReady {
			state := service.CopyTracking(room, now)
			if !state.ShouldTrigger {
				continue
			}
			if _, err := w.roomService.AssumePlayingAfterCopy(ctx, room.ID); err != nil {
				observability.GlobalLogger.WarnContext(ctx, "copy timer promotion failed",
					slog.Uint64("room_id", uint64(room.ID)),
					slog.String("error", err.Error()),
				)
				continue
			}
			w.publish(ctx, room.ID, notifications.RoomEvent{Type: notifications.EventRoomUpdated})
		}

		result, err := w.detection.CheckRoom(ctx, room.ID)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "match detection failed",
				slog.Uint64("room_id", uint64(room.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if result.Started {
			w.publish(ctx, room.ID, notifications.RoomEvent{
				Type:    notifications.EventMatchDetected,
				Payload: map[string]interface{}{"match_id": result.MatchID},
			})
		}
	}
}

// runResultPass records outcomes for rooms whose detected match is old
// enough to have finished.
func (w *Worker) runResultPass(ctx context.Context) {
	rooms, err := w.rooms.DueForResults(ctx, time.Now().Add(-w.resultTrackDelay))
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "result scan failed", slog.String("error", err.Error()))
		return
	}

	for _, room := range rooms {
		result, err := w.results.TrackRoomResult(ctx, room.ID)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "result tracking failed",
				slog.Uint64("room_id", uint64(room.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		w.publish(ctx, room.ID, notifications.RoomEvent{
			Type: notifications.EventMatchCompleted,
			Payload: map[string]interface{}{
				"match_id":   result.MatchID,
				"winner_id":  result.WinnerID,
				"placements": result.Placements,
			},
		})
	}
}

func (w *Worker) maintenanceLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runMaintenancePass(ctx)
		}
	}
}

// runMaintenancePass refreshes the stalest rank data and prunes expired
// verification codes.
func (w *Worker) runMaintenancePass(ctx context.Context) {
	refreshed, err := w.verification.RefreshStalestRanks(ctx, rankRefreshBatch)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "rank refresh pass failed", slog.String("error", err.Error()))
	} else if refreshed > 0 {
		observability.GlobalLogger.InfoContext(ctx, "rank refresh pass", slog.Int("refreshed", refreshed))
	}

	deleted, err := w.codes.DeleteExpired(ctx, time.Now())
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "verification code cleanup failed", slog.String("error", err.Error()))
	} else if deleted > 0 {
		observability.GlobalLogger.InfoContext(ctx, "verification codes pruned", slog.Int64("deleted", deleted))
	}
}

func (w *Worker) publish(ctx context.Context, roomID uint, event notifications.RoomEvent) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.PublishRoomEvent(ctx, roomID, event); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "room event publish failed",
			slog.Uint64("room_id", uint64(roomID)),
			slog.String("error", err.Error()),
		)
	}
}
