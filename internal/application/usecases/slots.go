package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/locator"
)

const defaultTimetableTimeout = 20 * time.Second

type SlotIndexBuilder struct {
	Catalog locator.Catalog
	// Timeout bounds the wait for the timetable to render.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Build waits for the timetable, then reads every slot box on the current
// page and indexes the ones whose class is in desired. Boxes that cannot be
// read are skipped; only a failure to enumerate the boxes is returned. A
// timetable that never renders yields an empty index.
func (b SlotIndexBuilder) Build(ctx context.Context, page booking.Page, desired map[string]struct{}, action booking.Action) (booking.SlotIndex, error) {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if _, ok, err := page.WaitFor(ctx, b.Catalog.SlotBoxes(), orDefault(b.Timeout, defaultTimetableTimeout)); err != nil {
		return nil, fmt.Errorf("wait for timetable: %w", err)
	} else if !ok {
		log.Info("timetable did not render")
	}

	boxes, err := page.FindAll(ctx, b.Catalog.SlotBoxes())
	if err != nil {
		return nil, fmt.Errorf("enumerate slot boxes: %w", err)
	}

	index := booking.SlotIndex{}
	for i := 1; i <= len(boxes); i++ {
		class, ok, err := page.Text(ctx, b.Catalog.SlotLabel(i, action))
		if err != nil {
			log.Debug("read slot label", zap.Int("box", i), zap.Error(err))
			continue
		}
		class = strings.TrimSpace(class)
		if !ok || class == "" {
			continue
		}
		if _, want := desired[class]; !want {
			continue
		}

		at, ok, err := page.Text(ctx, b.Catalog.SlotTime(i, action))
		if err != nil || !ok {
			log.Debug("read slot time", zap.Int("box", i), zap.String("class", class), zap.Error(err))
			continue
		}
		at = strings.TrimSpace(at)
		if prev, dup := index.Lookup(class, at); dup {
			log.Debug("duplicate slot, keeping later box",
				zap.String("class", class), zap.String("time", at), zap.Stringer("replaced", prev.Control))
		}
		index.Put(booking.DiscoveredSlot{
			ClassName: class,
			Time:      at,
			Control:   b.Catalog.SlotControl(i, action),
		})
	}
	log.Debug("slot index built", zap.Int("boxes", len(boxes)), zap.Int("slots", index.Len()))
	return index, nil
}
