package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"parsid/internal/registrar"
	"parsid/internal/registrar/httpclient"
	"parsid/internal/registrar/store"
	"parsid/pkg/testutil"
)

var validRequest = registrar.MintRequest{
	Handle:      "resist",
	IdentityID:  strings.Repeat("ab", 32),
	PublicKey:   strings.Repeat("cd", 32),
	Commitment:  strings.Repeat("0f", 32),
	Salt:        strings.Repeat("11", 16),
	DeadManDays: 10,
	Subject:     "0xabc",
}

type ServerSuite struct {
	suite.Suite
	clock  *clock.Mock
	ledger *Ledger
	router chi.Router
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.clock = clock.NewMock()
	s.clock.Set(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	var err error
	s.ledger, err = NewLedger(store.NewInMemory(), WithClock(s.clock), WithLogger(logger))
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	NewHandler(s.ledger, logger).Register(s.router)
}

func (s *ServerSuite) TestLedgerRegister() {
	receipt, err := s.ledger.Register(context.Background(), validRequest)
	s.Require().NoError(err)
	s.Regexp(`^0x[0-9a-f]{32}$`, receipt.Reference)
	s.True(receipt.RegisteredAt.Equal(s.clock.Now()))

	rec, err := s.ledger.Lookup(context.Background(), "resist")
	s.Require().NoError(err)
	s.Equal(validRequest.IdentityID, rec.IdentityID)
	s.Equal(receipt.Reference, rec.Reference)

	s.Run("handle is reserved once", func() {
		_, err := s.ledger.Register(context.Background(), validRequest)
		s.Equal(registrar.CategoryHandleTaken, registrar.CategoryOf(err))
		s.False(registrar.IsRetryable(err))
	})
}

func (s *ServerSuite) TestLedgerRejectsMalformedRequests() {
	mutate := func(f func(*registrar.MintRequest)) registrar.MintRequest {
		req := validRequest
		f(&req)
		return req
	}
	cases := map[string]registrar.MintRequest{
		"invalid handle":   mutate(func(r *registrar.MintRequest) { r.Handle = "Resist" }),
		"interval":         mutate(func(r *registrar.MintRequest) { r.DeadManDays = 40 }),
		"short commitment": mutate(func(r *registrar.MintRequest) { r.Commitment = "abcd" }),
		"uppercase hex":    mutate(func(r *registrar.MintRequest) { r.Commitment = strings.Repeat("0F", 32) }),
		"missing salt":     mutate(func(r *registrar.MintRequest) { r.Salt = "" }),
		"missing identity": mutate(func(r *registrar.MintRequest) { r.IdentityID = "" }),
		"missing subject":  mutate(func(r *registrar.MintRequest) { r.Subject = "" }),
	}
	for name, req := range cases {
		s.Run(name, func() {
			_, err := s.ledger.Register(context.Background(), req)
			s.Equal(registrar.CategoryRejected, registrar.CategoryOf(err))
		})
	}
}

func (s *ServerSuite) TestHTTP() {
	call := func(method, path string, body any) *httptest.ResponseRecorder {
		return testutil.Call(s.T(), s.router, "", method, path, body)
	}

	s.Run("register", func() {
		receipt := testutil.Decode[registrar.Receipt](s.T(), call(http.MethodPost, "/identities", validRequest), http.StatusCreated)
		s.NotEmpty(receipt.Reference)
	})

	s.Run("duplicate handle", func() {
		body := testutil.Failure(s.T(), call(http.MethodPost, "/identities", validRequest), http.StatusConflict, "conflict")
		s.Equal("handle already registered", body.ErrorDescription)
		s.Require().NotNil(body.Retryable)
		s.False(*body.Retryable)
	})

	s.Run("malformed body", func() {
		body := testutil.Failure(s.T(), call(http.MethodPost, "/identities", `{"handle":`), http.StatusBadRequest, "bad_request")
		s.Require().NotNil(body.Retryable)
		s.False(*body.Retryable)
	})

	s.Run("invalid handle", func() {
		req := validRequest
		req.Handle = "__"
		body := testutil.Failure(s.T(), call(http.MethodPost, "/identities", req), http.StatusUnprocessableEntity, "validation_error")
		s.Require().NotNil(body.Retryable)
		s.False(*body.Retryable)
	})

	s.Run("lookup", func() {
		fields := testutil.Fields(s.T(), call(http.MethodGet, "/identities/resist", nil), http.StatusOK)
		s.Equal(validRequest.IdentityID, fields["identity_id"])

		body := testutil.Failure(s.T(), call(http.MethodGet, "/identities/nobody", nil), http.StatusNotFound, "not_found")
		s.Require().NotNil(body.Retryable)
		s.False(*body.Retryable)
	})
}

func (s *ServerSuite) TestTransientFailureIsRetryable() {
	router := chi.NewRouter()
	NewHandler(failingService{err: registrar.NewError(registrar.CategoryTimeout, "ledger slow", nil)},
		slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	rr := testutil.Call(s.T(), router, "", http.MethodPost, "/identities", validRequest)
	body := testutil.Failure(s.T(), rr, http.StatusGatewayTimeout, "timeout")
	s.Require().NotNil(body.Retryable)
	s.True(*body.Retryable)

	srv := httptest.NewServer(router)
	defer srv.Close()
	_, err := httpclient.New(srv.URL).Register(context.Background(), validRequest)
	s.Equal(registrar.CategoryTimeout, registrar.CategoryOf(err))
	s.True(registrar.IsRetryable(err))
}

type failingService struct{ err error }

func (f failingService) Register(context.Context, registrar.MintRequest) (registrar.Receipt, error) {
	return registrar.Receipt{}, f.err
}

func (f failingService) Lookup(context.Context, string) (registrar.Record, error) {
	return registrar.Record{}, f.err
}

// The HTTP client and the dev registrar must agree on the wire contract.
func (s *ServerSuite) TestClientRoundTrip() {
	srv := httptest.NewServer(s.router)
	defer srv.Close()
	client := httpclient.New(srv.URL)

	receipt, err := client.Register(context.Background(), validRequest)
	s.Require().NoError(err)
	s.NotEmpty(receipt.Reference)

	_, err = client.Register(context.Background(), validRequest)
	s.Equal(registrar.CategoryHandleTaken, registrar.CategoryOf(err))
	s.Contains(err.Error(), "handle already registered")

	bad := validRequest
	bad.Handle = "other"
	bad.DeadManDays = 1
	_, err = client.Register(context.Background(), bad)
	s.Equal(registrar.CategoryRejected, registrar.CategoryOf(err))
}
