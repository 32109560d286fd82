package stores

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

const DefaultScanTimeout = 12 * time.Second

var (
	ErrScanTimeout    = errors.New("scan timed out")
	ErrScanInProgress = errors.New("a scan is already running")
	ErrEmptyImage     = errors.New("image is empty")
)

const scanTimeoutMessage = "scan timed out, please try again"

type ScannerBackend interface {
	AnalyzeScan(ctx context.Context, img backend.ScanImage) (*model.ScanResult, error)
}

// Scanner sends one label photo at a time for analysis. The request is
// aborted when it outlives the timeout.
type Scanner struct {
	*store[*model.ScanResult]

	backend  ScannerBackend
	timeout  time.Duration
	onResult func(*model.ScanResult)
}

func NewScanner(b ScannerBackend, timeout time.Duration) *Scanner {
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	return &Scanner{store: newStore[*model.ScanResult](nil), backend: b, timeout: timeout}
}

// OnResult registers a hook for successful analyses (history, analytics).
func (s *Scanner) OnResult(fn func(*model.ScanResult)) {
	s.onResult = fn
}

// Analyze uploads img; imageURL is the archived copy attached to the result.
func (s *Scanner) Analyze(ctx context.Context, img backend.ScanImage, imageURL string) (*model.ScanResult, error) {
	if len(img.Data) == 0 {
		return nil, ErrEmptyImage
	}

	busy := false
	s.update(func(st *State[*model.ScanResult]) {
		if st.Loading {
			busy = true
			return
		}
		st.Loading = true
		st.Error = ""
		st.Data = nil
	})
	if busy {
		return nil, ErrScanInProgress
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.backend.AnalyzeScan(ctx, img)
	if err != nil {
		msg := backend.HumanMessage(err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.Join(ErrScanTimeout, err)
			msg = scanTimeoutMessage
		}
		log.Warn().Err(err).Msg("[scanner] analyze failed")
		s.fail(msg)
		return nil, err
	}
	if res.Verdict == "" {
		res.Verdict = model.VerdictUnknown
	}
	if res.ImageURL == "" {
		res.ImageURL = imageURL
	}

	s.update(func(st *State[*model.ScanResult]) {
		st.Loading = false
		st.Data = res
	})
	if s.onResult != nil {
		s.onResult(res)
	}
	return res, nil
}

// Reset clears the last result so a new photo can be taken.
func (s *Scanner) Reset() {
	s.update(func(st *State[*model.ScanResult]) {
		if st.Loading {
			return
		}
		st.Error = ""
		st.Data = nil
	})
}
