package governor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"request-governor/middleware/governor/application"
	"request-governor/middleware/governor/domain"
	"request-governor/middleware/governor/infra"

	"go.uber.org/zap"
)

// ErrNoSlot é devolvido quando o limite de concorrência de saída não liberou vaga a tempo.
var ErrNoSlot = errors.New("governor: no outbound slot available")

type ReadFunc func(r *http.Request) bool

type PaceKeyFunc func(r *http.Request) string

type Options struct {
	// Config zero usa domain.DefaultConfig().
	Config domain.Config
	Clock  domain.Clock
	Stats  domain.StatsStore
	Logger *zap.Logger

	// IsRead decide quais requisições são leituras idempotentes. Padrão: GET, HEAD, OPTIONS.
	IsRead      ReadFunc
	Normalizers []Normalizer

	// Pacer (opcional) espaça as tentativas admitidas por PaceKey (padrão: host).
	Pacer   domain.Pacer
	PaceKey PaceKeyFunc

	// Slots (opcional) limita tentativas simultâneas no transporte.
	Slots          domain.SlotPool
	AcquireTimeout time.Duration
}

// Transport é um http.RoundTripper governado. Use um Transport por backend:
// o gate global e o backoff são compartilhados por todas as chamadas dele.
type Transport struct {
	next   http.RoundTripper
	opts   Options
	gov    *application.Governor
	ledger *infra.Ledger
	slots  application.ConcurrencyService
}

var _ http.RoundTripper = &Transport{}

func NewTransport(next http.RoundTripper, opts Options) (*Transport, error) {
	if next == nil {
		next = http.DefaultTransport
	}
	if opts.Config == (domain.Config{}) {
		opts.Config = domain.DefaultConfig()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = infra.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.IsRead == nil {
		opts.IsRead = DefaultReadFunc
	}
	if opts.PaceKey == nil {
		opts.PaceKey = func(r *http.Request) string { return r.URL.Host }
	}

	ledger := infra.NewLedger()
	return &Transport{
		next:   next,
		opts:   opts,
		ledger: ledger,
		slots:  application.ConcurrencyService{Pool: opts.Slots, AcquireTimeout: opts.AcquireTimeout},
		gov: &application.Governor{
			Config:        opts.Config,
			Clock:         opts.Clock,
			Fingerprinter: infra.Fingerprinter{},
			InFlight:      infra.NewInFlightRegistry(),
			Ledger:        ledger,
			Gate:          infra.NewGate(),
			Backoff:       infra.NewBackoff(opts.Config.MaxRetries, opts.Config.BackoffBase),
			Stats:         opts.Stats,
			Logger:        opts.Logger,
		},
	}, nil
}

// DefaultReadFunc trata GET, HEAD e OPTIONS como leituras.
func DefaultReadFunc(r *http.Request) bool { return isReadMethod(r.Method) }

func isReadMethod(m string) bool {
	switch m {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Client devolve um *http.Client que usa este Transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// StartJanitor inicia a limpeza periódica do ledger de cooldown.
// Pare cancelando o contexto.
func (t *Transport) StartJanitor(ctx context.Context) {
	t.ledger.StartJanitor(ctx, t.opts.Clock, t.opts.Config.SweepEvery, t.opts.Config.LedgerRetention)
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	body = t.normalize(r, body)

	req := domain.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Idempotent: t.opts.IsRead(r),
	}

	var resp *http.Response
	err = t.gov.Execute(r.Context(), req, func(ctx context.Context) (int, error) {
		// corpo do 429 da tentativa anterior
		discard(resp)
		resp = nil

		res, err := t.send(ctx, r, body)
		if err != nil {
			return 0, err
		}
		resp = res
		return res.StatusCode, nil
	})
	if err != nil {
		discard(resp)
		return nil, err
	}
	return resp, nil
}

func (t *Transport) send(ctx context.Context, r *http.Request, body []byte) (*http.Response, error) {
	if t.opts.Pacer != nil {
		if err := t.opts.Pacer.Wait(ctx, t.opts.PaceKey(r)); err != nil {
			return nil, err
		}
	}

	release, ok := t.slots.Acquire(ctx)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoSlot
	}
	defer release()

	out := r.Clone(ctx)
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		out.ContentLength = int64(len(body))
		if out.Header.Get("Content-Length") != "" {
			out.Header.Set("Content-Length", strconv.Itoa(len(body)))
		}
	}
	return t.next.RoundTrip(out)
}

func (t *Transport) normalize(r *http.Request, body []byte) []byte {
	if body == nil {
		return nil
	}
	for _, n := range t.opts.Normalizers {
		if !n.Matches(r) {
			continue
		}
		if out, changed := n.Apply(body); changed {
			t.opts.Logger.Debug("payload normalized",
				zap.String("path", n.Path),
				zap.String("field", n.Field))
			body = out
		}
	}
	return body
}

// readBody consome e fecha o corpo original para poder reenviá-lo em cada retry.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
