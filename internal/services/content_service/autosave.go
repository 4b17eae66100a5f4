package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/errs"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/metrics"

	"github.com/google/uuid"
)

var ErrAutosaverStopped = errors.New("autosaver stopped")

const (
	autosaveTimeout = 30 * time.Second

	// сколько помнить простаивающий подарок и переносы версий сессий
	entryRetention = 30 * time.Minute
)

// AutosaveStatus то, что видит редактор: есть ли отложенная запись,
// идёт ли сохранение, последняя сохранённая версия и ошибка.
type AutosaveStatus struct {
	Pending     bool       `json:"pending"`
	Saving      bool       `json:"saving"`
	LastVersion int64      `json:"lastVersion"`
	LastSavedAt *time.Time `json:"lastSavedAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	Discarded   int        `json:"discarded"`
}

type pendingWrite struct {
	seq     uint64
	session string
	base    int64
	content models.GiftContent
}

type rebaseKey struct {
	session string
	base    int64
}

type rebaseTarget struct {
	version int64
	at      time.Time
}

type autosaveEntry struct {
	timer   *time.Timer
	pending *pendingWrite
	seq     uint64
	saving  bool

	// runMu не даёт двум сохранениям одного подарка идти параллельно
	runMu sync.Mutex
	// rebased: (сессия редактора, версия, от которой она правит) -> версия после
	// записей этой же сессии. Без сессии переноса нет, чужие правки дают конфликт.
	rebased map[rebaseKey]rebaseTarget
	touched time.Time

	lastVersion int64
	lastSavedAt time.Time
	lastErr     error
	discarded   int
}

// Autosaver откладывает запись контента на delay после последнего изменения.
// Повторный Schedule заменяет отложенную запись и перезапускает таймер.
type Autosaver struct {
	log       *slog.Logger
	content   *ContentService
	delay     time.Duration
	retention time.Duration

	mu      sync.Mutex
	entries map[uuid.UUID]*autosaveEntry
	stopped bool
	wg      sync.WaitGroup
}

func NewAutosaver(log *slog.Logger, content *ContentService, delay time.Duration) *Autosaver {
	return &Autosaver{
		log:       log,
		content:   content,
		delay:     delay,
		retention: entryRetention,
		entries:   make(map[uuid.UUID]*autosaveEntry),
	}
}

// entry вызывается под a.mu; заодно выметает простаивающие записи.
func (a *Autosaver) entry(giftID uuid.UUID) *autosaveEntry {
	now := time.Now()
	a.sweep(now)

	e, ok := a.entries[giftID]
	if !ok {
		e = &autosaveEntry{rebased: make(map[rebaseKey]rebaseTarget)}
		a.entries[giftID] = e
	}
	e.touched = now
	return e
}

// sweep удаляет подарки без отложенной и текущей записи, к которым не
// обращались дольше retention, и устаревшие переносы версий. Под a.mu.
func (a *Autosaver) sweep(now time.Time) {
	for id, e := range a.entries {
		if e.pending == nil && e.timer == nil && !e.saving && now.Sub(e.touched) > a.retention {
			delete(a.entries, id)
			continue
		}
		for key, target := range e.rebased {
			if now.Sub(target.at) > a.retention {
				delete(e.rebased, key)
			}
		}
	}
}

// cancelPending снимает таймер; вызывается под a.mu.
func (a *Autosaver) cancelPending(e *autosaveEntry) {
	if e.timer != nil && e.timer.Stop() {
		a.wg.Done()
	}
	e.timer = nil
	e.pending = nil
}

// Schedule ставит запись в очередь. Контент копируется, вызывающий может
// дальше менять свой экземпляр. session идентифицирует вкладку редактора:
// её следующие правки от той же base переносятся на версии, записанные ею самой.
func (a *Autosaver) Schedule(giftID uuid.UUID, session string, base int64, content models.GiftContent) error {
	const op = "content_service.Autosaver.Schedule"

	cloned, err := content.Clone()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return ErrAutosaverStopped
	}

	e := a.entry(giftID)
	a.cancelPending(e)

	e.seq++
	seq := e.seq
	e.pending = &pendingWrite{seq: seq, session: session, base: base, content: cloned}

	a.wg.Add(1)
	e.timer = time.AfterFunc(a.delay, func() {
		defer a.wg.Done()
		a.fire(giftID, seq)
	})

	return nil
}

func (a *Autosaver) fire(giftID uuid.UUID, seq uint64) {
	a.mu.Lock()
	e, ok := a.entries[giftID]
	if !ok || e.pending == nil || e.pending.seq != seq {
		// запись заменена более новой
		a.mu.Unlock()
		return
	}
	w := e.pending
	e.pending = nil
	e.timer = nil
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()

	_, _ = a.run(ctx, TriggerAutosave, giftID, e, w.session, w.base, w.content)
}

func (a *Autosaver) run(ctx context.Context, trigger string, giftID uuid.UUID, e *autosaveEntry, session string, base int64, content models.GiftContent) (int64, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	a.mu.Lock()
	e.saving = true
	key := rebaseKey{session: session, base: base}
	effective := base
	if target, ok := e.rebased[key]; ok && session != "" {
		effective = target.version
	}
	a.mu.Unlock()

	version, err := a.content.save(ctx, trigger, giftID, &effective, content)

	a.mu.Lock()
	defer a.mu.Unlock()

	e.saving = false
	e.touched = time.Now()
	switch {
	case err == nil:
		if session != "" {
			e.rebased[key] = rebaseTarget{version: version, at: e.touched}
		}
		e.lastVersion = version
		e.lastSavedAt = time.Now()
		e.lastErr = nil
	case errors.Is(err, errs.ErrVersionConflict):
		e.discarded++
		e.lastErr = err
		if trigger == TriggerAutosave {
			metrics.AutosaveDiscardedTotal.Inc()
		}
		a.log.Warn("stale write discarded",
			slog.String("gift_id", giftID.String()),
			slog.String("trigger", trigger),
			slog.Int64("base", effective),
		)
	default:
		e.lastErr = err
		a.log.Error("content save failed",
			slog.String("gift_id", giftID.String()),
			slog.String("trigger", trigger),
			sl.Err(err),
		)
	}

	return version, err
}

// SaveNow ручное сохранение: отменяет отложенную автозапись и пишет сразу.
func (a *Autosaver) SaveNow(ctx context.Context, giftID uuid.UUID, session string, base int64, content models.GiftContent) (int64, error) {
	a.mu.Lock()
	e := a.entry(giftID)
	a.cancelPending(e)
	a.mu.Unlock()

	return a.run(ctx, TriggerManual, giftID, e, session, base, content)
}

// Cancel отбрасывает отложенную запись, например при удалении подарка.
func (a *Autosaver) Cancel(giftID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.entries[giftID]; ok {
		a.cancelPending(e)
		delete(a.entries, giftID)
	}
}

func (a *Autosaver) Status(giftID uuid.UUID) AutosaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.entries[giftID]
	if !ok {
		return AutosaveStatus{}
	}

	st := AutosaveStatus{
		Pending:     e.pending != nil,
		Saving:      e.saving,
		LastVersion: e.lastVersion,
		Discarded:   e.discarded,
	}
	if !e.lastSavedAt.IsZero() {
		t := e.lastSavedAt
		st.LastSavedAt = &t
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}

	return st
}

// Stop сбрасывает все отложенные записи на диск и ждёт уже идущие.
func (a *Autosaver) Stop(ctx context.Context) error {
	type flush struct {
		giftID uuid.UUID
		entry  *autosaveEntry
		write  *pendingWrite
	}

	a.mu.Lock()
	a.stopped = true
	var flushes []flush
	for id, e := range a.entries {
		if e.pending == nil {
			continue
		}
		if e.timer != nil && e.timer.Stop() {
			a.wg.Done()
			flushes = append(flushes, flush{giftID: id, entry: e, write: e.pending})
			e.pending = nil
			e.timer = nil
		}
	}
	a.mu.Unlock()

	for _, f := range flushes {
		_, _ = a.run(ctx, TriggerAutosave, f.giftID, f.entry, f.write.session, f.write.base, f.write.content)
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
