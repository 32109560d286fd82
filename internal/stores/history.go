package stores

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

const (
	historyKey   = "scanHistory"
	historyLimit = 50
)

type HistoryBackend interface {
	ScanHistory(ctx context.Context) ([]model.HistoryItem, error)
}

// History lists past scans, newest first. The last historyLimit entries
// are kept locally so the screen has something to show offline.
type History struct {
	*store[[]model.HistoryItem]

	backend HistoryBackend
	kv      kv.Store
	now     func() time.Time
}

func NewHistory(b HistoryBackend, local kv.Store) *History {
	return &History{store: newStore[[]model.HistoryItem](nil), backend: b, kv: local, now: time.Now}
}

func (h *History) Load(ctx context.Context) ([]model.HistoryItem, error) {
	h.startLoading()

	items, err := h.backend.ScanHistory(ctx)
	if err != nil {
		var cached []model.HistoryItem
		if kv.GetJSON(ctx, h.kv, historyKey, &cached) == nil {
			log.Warn().Err(err).Msg("[history] serving cached history")
			h.update(func(st *State[[]model.HistoryItem]) {
				st.Loading = false
				st.Error = backend.HumanMessage(err)
				st.Data = cached
			})
			return cached, nil
		}
		h.fail(backend.HumanMessage(err))
		return nil, err
	}

	items = trimHistory(items)
	h.persist(ctx, items)
	h.update(func(st *State[[]model.HistoryItem]) {
		st.Loading = false
		st.Data = items
	})
	return items, nil
}

// Add records a fresh scan result at the top of the list.
func (h *History) Add(ctx context.Context, res *model.ScanResult) {
	if res == nil {
		return
	}
	item := model.HistoryItem{
		ID:        res.ID,
		Verdict:   res.Verdict,
		Summary:   res.Summary,
		ImageURL:  res.ImageURL,
		CreatedAt: h.now(),
	}

	var items []model.HistoryItem
	h.update(func(st *State[[]model.HistoryItem]) {
		next := make([]model.HistoryItem, 0, len(st.Data)+1)
		next = append(next, item)
		for _, it := range st.Data {
			if item.ID != "" && it.ID == item.ID {
				continue
			}
			next = append(next, it)
		}
		st.Data = trimHistory(next)
		items = st.Data
	})
	h.persist(ctx, items)
}

func (h *History) persist(ctx context.Context, items []model.HistoryItem) {
	if err := kv.SetJSON(ctx, h.kv, historyKey, items, 0); err != nil {
		log.Error().Err(err).Msg("[history] failed to persist")
	}
}

func trimHistory(items []model.HistoryItem) []model.HistoryItem {
	if len(items) > historyLimit {
		return items[:historyLimit]
	}
	return items
}
