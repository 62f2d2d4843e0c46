// Package mint turns a fully valid draft into exactly one registered identity.
package mint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"parsid/internal/identity/commitment"
	"parsid/internal/identity/generator"
	"parsid/internal/identity/models"
	"parsid/internal/network"
	"parsid/internal/registrar"
	id "parsid/pkg/domain"
	dErrors "parsid/pkg/domain-errors"
)

const DefaultMintedCacheSize = 10_000

// Registrar submits mint requests to the external registrar.
type Registrar interface {
	Register(ctx context.Context, req registrar.MintRequest) (registrar.Receipt, error)
}

// Committer derives the registrar-facing commitment of a SecurityConfig.
type Committer interface {
	Commit(cfg models.SecurityConfig) (commitment.Commitment, error)
}

// Generator draws the random identity material.
type Generator interface {
	IdentityID() (models.IdentityID, error)
	PublicKey() ([models.PublicKeyBytes]byte, error)
}

// Observer receives one call per Mint with the outcome code ("success" or a
// domain error code).
type Observer interface {
	ObserveMint(outcome string, elapsed time.Duration)
}

// Coordinator guards the mint operation. At most one mint per draft runs at
// a time and a draft that minted once is refused afterwards.
type Coordinator struct {
	registrar Registrar
	committer Committer
	generator Generator
	clock     clock.Clock
	tracer    trace.Tracer
	logger    *slog.Logger
	observer  Observer

	mu       sync.Mutex
	inFlight map[id.DraftID]struct{}
	minted   *lru.Cache[id.DraftID, string]
}

type Option func(*Coordinator)

func WithCommitter(c Committer) Option {
	return func(co *Coordinator) { co.committer = c }
}

func WithGenerator(g Generator) Option {
	return func(co *Coordinator) { co.generator = g }
}

func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(co *Coordinator) { co.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(co *Coordinator) { co.observer = o }
}

// WithMintedCacheSize bounds how many minted drafts are remembered.
func WithMintedCacheSize(n int) Option {
	return func(co *Coordinator) {
		if n > 0 {
			co.minted, _ = lru.New[id.DraftID, string](n)
		}
	}
}

func New(reg Registrar, opts ...Option) (*Coordinator, error) {
	if reg == nil {
		return nil, errors.New("registrar is required")
	}
	minted, err := lru.New[id.DraftID, string](DefaultMintedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("minted draft cache: %w", err)
	}
	c := &Coordinator{
		registrar: reg,
		committer: commitment.New(commitment.DefaultParams, nil),
		generator: generator.New(nil),
		clock:     clock.New(),
		tracer:    otel.Tracer("parsid/identity/mint"),
		logger:    slog.Default(),
		inFlight:  make(map[id.DraftID]struct{}),
		minted:    minted,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Mint re-validates draft, registers it and returns the new identity.
//
// Errors:
//   - invariant_violation: draft no longer satisfies the promotion rules
//   - mint_busy: another mint for the same draft is in flight
//   - conflict: the draft already produced an identity
//   - mint_failed: the registrar refused or failed; see dErrors.IsRetryable
//
// The caller keeps ownership of draft; Mint does not retain its buffers.
func (c *Coordinator) Mint(ctx context.Context, draft models.Draft, subject string) (identity *models.MintedIdentity, err error) {
	ctx, span := c.tracer.Start(ctx, "identity.mint",
		trace.WithAttributes(attribute.String("draft_id", draft.ID().String())))
	start := c.clock.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveMint(outcome, c.clock.Since(start))
		}
	}()

	cfg, err := draft.SecurityConfig()
	if err != nil {
		c.logger.ErrorContext(ctx, "mint precondition violated",
			"draft_id", draft.ID().String(),
			"error_code", dErrors.CodeOf(err),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "draft is not eligible for minting")
	}
	defer cfg.Wipe()

	release, err := c.acquire(draft.ID())
	if err != nil {
		return nil, err
	}
	defer release()

	identityID, err := c.generator.IdentityID()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity generation failed")
	}
	publicKey, err := c.generator.PublicKey()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity generation failed")
	}
	cm, err := c.committer.Commit(cfg)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "security commitment failed")
	}

	req := registrar.MintRequest{
		Handle:      draft.Handle(),
		IdentityID:  identityID.Hex(),
		PublicKey:   hex.EncodeToString(publicKey[:]),
		Commitment:  cm.DigestHex(),
		Salt:        cm.SaltHex(),
		DeadManDays: cfg.DeadManDays(),
		Subject:     subject,
	}
	receipt, err := c.registrar.Register(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "registrar refused mint",
			"draft_id", draft.ID().String(),
			"category", registrar.CategoryOf(err),
			"retryable", registrar.IsRetryable(err),
		)
		return nil, dErrors.WrapRetryable(err, dErrors.CodeMintFailed, failureMessage(err), registrar.IsRetryable(err))
	}

	identity, err = models.NewMintedIdentity(
		identityID,
		network.QualifyHandle(draft.Handle()),
		publicKey,
		c.clock.Now().UTC(),
		receipt.Reference,
		cfg.DeadManDays(),
	)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.minted.Add(draft.ID(), identity.IDHex())
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "identity minted",
		"draft_id", draft.ID().String(),
		"handle", identity.Handle(),
		"reference", receipt.Reference,
	)
	return identity, nil
}

// InFlight reports whether a mint for draftID is running.
func (c *Coordinator) InFlight(draftID id.DraftID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inFlight[draftID]
	return busy
}

// Minted returns the identity id minted from draftID, if remembered.
func (c *Coordinator) Minted(draftID id.DraftID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minted.Get(draftID)
}

func (c *Coordinator) acquire(draftID id.DraftID) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.minted.Contains(draftID) {
		return nil, dErrors.New(dErrors.CodeConflict, "identity already minted for this draft")
	}
	if _, busy := c.inFlight[draftID]; busy {
		return nil, dErrors.New(dErrors.CodeMintBusy, "a mint for this draft is already in progress")
	}
	c.inFlight[draftID] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inFlight, draftID)
		c.mu.Unlock()
	}, nil
}

func failureMessage(err error) string {
	var re *registrar.Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return "identity registration failed"
}
