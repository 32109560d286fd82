package endpoints

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
	"github.com/Nixie-Tech-LLC/islamapp/internal/storage"
)

const MaxImageBytes = 10 << 20

type ScannerController struct {
	storage storage.Storage
}

// ScannerModule mounts the halal scanner. limit runs in front of the
// analyze endpoint only; storage may be nil to skip archiving photos.
func ScannerModule(store storage.Storage, limit gin.HandlerFunc) api.Module {
	ctl := &ScannerController{storage: store}
	return api.ModuleFunc(func(c *api.Controller) {
		if limit != nil {
			c.POST("/scanner/analyze", ctl.analyze, limit)
		} else {
			c.POST("/scanner/analyze", ctl.analyze)
		}
		c.POST("/scanner/reset", ctl.reset)
		c.GET("/history", ctl.history)
	})
}

// POST /api/app/scanner/analyze (multipart: image, lang, answers)
func (sc *ScannerController) analyze(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	fh, err := ctx.FormFile("image")
	if err != nil {
		return nil, api.BadRequest("image is required")
	}
	if fh.Size > MaxImageBytes {
		return nil, &api.APIError{Code: http.StatusRequestEntityTooLarge, Message: fmt.Sprintf("image must be smaller than %d MB", MaxImageBytes>>20)}
	}

	src, err := fh.Open()
	if err != nil {
		return nil, api.BadRequest("could not read image")
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, MaxImageBytes))
	if err != nil {
		return nil, api.BadRequest("could not read image")
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	var imageURL string
	if sc.storage != nil {
		imageURL, err = sc.storage.SaveImage(ctx.Request.Context(), fh.Filename, contentType, data)
		if err != nil {
			log.Error().Err(err).Int64("user", s.UserID).Msg("[scanner] failed to archive image")
			imageURL = ""
		}
	}

	lang := ctx.PostForm("lang")
	if lang == "" {
		lang = s.Lang
	}
	res, err := s.Scanner.Analyze(ctx.Request.Context(), backend.ScanImage{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
		Lang:        lang,
		Answers:     ctx.PostFormArray("answers"),
	}, imageURL)
	if err != nil {
		return nil, api.FromError(err, s.Scanner.Snapshot().Error)
	}
	return res, nil
}

// POST /api/app/scanner/reset
func (sc *ScannerController) reset(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	s.Scanner.Reset()
	return s.Scanner.Snapshot(), nil
}

// GET /api/app/history
func (sc *ScannerController) history(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	items, err := s.History.Load(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err, s.History.Snapshot().Error)
	}
	return items, nil
}
