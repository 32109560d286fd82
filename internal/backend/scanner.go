package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ScanImage is one label photo taken in the Mini App.
type ScanImage struct {
	Filename    string
	ContentType string
	Data        []byte
	Lang        string
	// Answers to needs_info follow-up questions, if any.
	Answers []string
}

// AnalyzeScan uploads the photo for halal/haram analysis. The caller owns
// the deadline through ctx.
func (c *Client) AnalyzeScan(ctx context.Context, img ScanImage) (*model.ScanResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(img.Filename)))
	ct := img.ContentType
	if ct == "" {
		ct = http.DetectContentType(img.Data)
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, err
	}
	if img.Lang != "" {
		if err := w.WriteField("lang", img.Lang); err != nil {
			return nil, err
		}
	}
	for _, a := range img.Answers {
		if err := w.WriteField("answers", a); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req := request{
		method:      http.MethodPost,
		path:        "/api/v1/scanner/analyze",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}
	var out model.ScanResult
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ScanHistory(ctx context.Context) ([]model.HistoryItem, error) {
	var out []model.HistoryItem
	if err := c.getJSON(ctx, "/api/v1/scanner/history", &out); err != nil {
		return nil, err
	}
	return out, nil
}
