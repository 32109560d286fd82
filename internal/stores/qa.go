package stores

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

const (
	qaKey   = "qaHistory"
	qaLimit = 20
)

var ErrEmptyQuestion = errors.New("question is empty")

type QABackend interface {
	Ask(ctx context.Context, question, lang string) (*model.QAAnswer, error)
}

// QA is the question and answer chat. Answers are kept newest first.
type QA struct {
	*store[[]model.QAAnswer]

	backend QABackend
	kv      kv.Store
}

func NewQA(b QABackend, local kv.Store) *QA {
	return &QA{store: newStore[[]model.QAAnswer](nil), backend: b, kv: local}
}

// Restore loads the persisted conversation into the store.
func (q *QA) Restore(ctx context.Context) []model.QAAnswer {
	var items []model.QAAnswer
	if err := kv.GetJSON(ctx, q.kv, qaKey, &items); err != nil {
		return nil
	}
	q.update(func(st *State[[]model.QAAnswer]) {
		st.Data = items
	})
	return items
}

func (q *QA) Ask(ctx context.Context, question, lang string) (*model.QAAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	q.startLoading()
	ans, err := q.backend.Ask(ctx, question, lang)
	if err != nil {
		q.fail(backend.HumanMessage(err))
		return nil, err
	}
	if ans.Question == "" {
		ans.Question = question
	}

	var items []model.QAAnswer
	q.update(func(st *State[[]model.QAAnswer]) {
		next := append([]model.QAAnswer{*ans}, st.Data...)
		if len(next) > qaLimit {
			next = next[:qaLimit]
		}
		st.Loading = false
		st.Data = next
		items = next
	})
	if err := kv.SetJSON(ctx, q.kv, qaKey, items, 0); err != nil {
		log.Error().Err(err).Msg("[qa] failed to persist conversation")
	}
	return ans, nil
}
