package backend

import (
	"context"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

type askRequest struct {
	Question string `json:"question"`
	Lang     string `json:"lang,omitempty"`
}

func (c *Client) Ask(ctx context.Context, question, lang string) (*model.QAAnswer, error) {
	var out model.QAAnswer
	if err := c.postJSON(ctx, "/api/v1/qa/text/ask", askRequest{Question: question, Lang: lang}, &out); err != nil {
		return nil, err
	}
	if out.Question == "" {
		out.Question = question
	}
	return &out, nil
}
