package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"msigwallet/internal/application"
	"msigwallet/internal/domain"
	"msigwallet/internal/multisig"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// WalletService is the subset of application.WalletService the API serves.
type WalletService interface {
	CanWrite() bool
	ChainID(ctx context.Context) (uint64, error)
	Members(ctx context.Context, wallet common.Address) ([]common.Address, error)
	Required(ctx context.Context, wallet common.Address) (uint64, error)
	IsOwner(ctx context.Context, wallet, account common.Address) (bool, error)
	ListProposals(ctx context.Context, wallet common.Address, page multisig.Page) (domain.ProposalPage, error)
	Proposal(ctx context.Context, wallet common.Address, id *big.Int) (application.ProposalDetail, error)
	Confirmations(ctx context.Context, wallet common.Address, id *big.Int) ([]common.Address, error)
	Balances(ctx context.Context, wallet common.Address, tokens []common.Address) (domain.Treasury, error)
	Submit(ctx context.Context, wallet common.Address, req multisig.SubmitRequest) (multisig.Steps, error)
	Confirm(ctx context.Context, wallet common.Address, id *big.Int) (multisig.Steps, error)
	Revoke(ctx context.Context, wallet common.Address, id *big.Int) (multisig.Steps, error)
	Activities(ctx context.Context, filter application.ActivityFilter) ([]domain.Activity, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type RPCStatus interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

const defaultPageLimit = 10

type Server struct {
	service   WalletService
	journal   Pinger
	rpc       RPCStatus
	metrics   *Metrics
	buildInfo BuildInfo
	logger    *slog.Logger
}

// NewServer wires the API. journal may be nil when no activity journal is
// configured; readiness then only checks the node.
func NewServer(service WalletService, journal Pinger, rpc RPCStatus, metrics *Metrics, buildInfo BuildInfo, logger *slog.Logger) (*Server, error) {
	if service == nil || rpc == nil {
		return nil, errors.New("http server dependencies must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service:   service,
		journal:   journal,
		rpc:       rpc,
		metrics:   metrics,
		buildInfo: buildInfo,
		logger:    logger,
	}, nil
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.metrics.instrument(pattern, h))
	}
	route("GET /healthz", s.handleHealth)
	route("GET /readyz", s.handleReady)
	route("GET /version", s.handleVersion)
	mux.Handle("GET /metrics", s.metrics.Handler())

	route("GET /wallets/{address}/members", s.handleMembers)
	route("GET /wallets/{address}/required", s.handleRequired)
	route("GET /wallets/{address}/owners/{account}", s.handleIsOwner)
	route("GET /wallets/{address}/proposals", s.handleProposals)
	route("GET /wallets/{address}/proposals/{id}", s.handleProposal)
	route("GET /wallets/{address}/proposals/{id}/confirmations", s.handleConfirmations)
	route("GET /wallets/{address}/balances", s.handleBalances)
	route("GET /wallets/{address}/activity", s.handleActivity)

	route("POST /wallets/{address}/proposals", s.handleSubmit)
	route("POST /wallets/{address}/proposals/{id}/confirm", s.handleConfirm)
	route("POST /wallets/{address}/proposals/{id}/revoke", s.handleRevoke)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http api listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.journal != nil {
		if err := s.journal.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "journal not ready")
			return
		}
	}
	block, err := s.rpc.LatestBlockNumber(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "rpc not ready")
		return
	}
	chainID, err := s.service.ChainID(ctx)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"chain_id":     chainID,
		"latest_block": block,
		"can_write":    s.service.CanWrite(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.buildInfo)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	wallet, ok := walletParam(w, r)
	if !ok {
		return
	}
	members, err := s.service.Members(r.Context(), wallet)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (s *Server) handleRequired(w http.ResponseWriter, r *http.Request) {
	wallet, ok := walletParam(w, r)
	if !ok {
		return
	}
	required, err := s.service.Required(r.Context(), wallet)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"required": required})
}

func (s *Server) handleIsOwner(w http.ResponseWriter, r *http.Request) {
	wallet, ok := walletParam(w, r)
	if !ok {
		return
	}
	account, err := parseAddress(r.PathValue("account"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid account")
		return
	}
	owner, err := s.service.IsOwner(r.Context(), wallet, account)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"account": account, "owner": owner})
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	wallet, ok := walletParam(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.service.ListProposals(r.Context(), wallet, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	wallet, id, ok := proposalParams(w, r)
	if !ok {
		return
	}
	detail, err := s.service.Proposal(r.Context(), wallet, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleConfirmations(w http.ResponseWriter, r *http.Request) {
	wallet, id, ok := proposalParams(w, r)
	if !ok {
		return
	}
	approvals, err := s.service.Confirmations(r.Context(), wallet, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transaction_id": id.String(), "confirmations": approvals})
}

// handleBalances reads ?token= entries, or the configured treasury tokens
// when none are given.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	wallet, ok := walletParam(w, r)
	if !ok {
		return
	}
	var tokens []common.Address
	for _, raw := range r.URL.Query()["token"] {
		token, err := parseAddress(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		tokens = append(tokens, token)
	}
	treasury, err := s.service.Balances(r.Context(), wallet, tokens)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, treasury)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	wallet, ok := walletParam(w, r)
	if !ok {
		return
	}
	limit, err := parseIntParam(r, "limit")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := application.ActivityFilter{
		Wallet:    wallet.Hex(),
		Operation: r.URL.Query().Get("operation"),
		TxHash:    r.URL.Query().Get("tx_hash"),
		Limit:     application.NormalizeLimit(limit),
	}
	if raw := r.URL.Query().Get("chain_id"); raw != "" {
		chainID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid chain_id")
			return
		}
		filter.ChainID = &chainID
	}
	activities, err := s.service.Activities(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	respondJSON(w, http.StatusOK, activities)
}

type submitPayload struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Destination string        `json:"destination"`
	Value       string        `json:"value"`
	Data        hexutil.Bytes `json:"data"`
}

func (p submitPayload) request() (multisig.SubmitRequest, error) {
	destination, err := parseAddress(p.Destination)
	if err != nil {
		return multisig.SubmitRequest{}, errors.New("invalid destination")
	}
	value := new(big.Int)
	if p.Value != "" {
		if _, ok := value.SetString(p.Value, 10); !ok || value.Sign() < 0 {
			return multisig.SubmitRequest{}, errors.New("invalid value")
		}
	}
	return multisig.SubmitRequest{
		Title:       p.Title,
		Description: p.Description,
		Destination: destination,
		Value:       value,
		Data:        p.Data,
	}, nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	wallet, ok := walletParam(w, r)
	if !ok || !s.requireSigner(w) {
		return
	}
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req, err := payload.request()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	steps, err := s.service.Submit(r.Context(), wallet, req)
	s.stream(w, r, steps, err)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	wallet, id, ok := proposalParams(w, r)
	if !ok || !s.requireSigner(w) {
		return
	}
	steps, err := s.service.Confirm(r.Context(), wallet, id)
	s.stream(w, r, steps, err)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	wallet, id, ok := proposalParams(w, r)
	if !ok || !s.requireSigner(w) {
		return
	}
	steps, err := s.service.Revoke(r.Context(), wallet, id)
	s.stream(w, r, steps, err)
}

func (s *Server) requireSigner(w http.ResponseWriter) bool {
	if s.service.CanWrite() {
		return true
	}
	respondError(w, http.StatusServiceUnavailable, multisig.ErrNoSigner.Error())
	return false
}

type stepLine struct {
	Key           domain.StepKind `json:"key,omitempty"`
	TxHash        string          `json:"tx_hash,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// stream writes steps as newline-delimited JSON. Precondition errors are
// answered with a plain error response since nothing was sent yet; later
// errors become the last line of a 200 response.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, steps multisig.Steps, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for step, err := range steps {
		line := stepLine{Key: step.Kind}
		if err != nil {
			line = stepLine{Error: err.Error()}
		}
		if step.TxHash != (common.Hash{}) {
			line.TxHash = step.TxHash.Hex()
		}
		if step.TransactionID != nil {
			line.TransactionID = step.TransactionID.String()
		}
		if encErr := enc.Encode(line); encErr != nil {
			s.logger.Warn("step stream write failed", "path", r.URL.Path, "err", encErr)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, multisig.ErrNoWalletAddress):
		return http.StatusBadRequest
	case errors.Is(err, multisig.ErrNoSigner),
		errors.Is(err, multisig.ErrNoProvider),
		errors.Is(err, application.ErrJournalDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, multisig.ErrUnsupportedNetwork):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func walletParam(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	wallet, err := parseAddress(r.PathValue("address"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet address")
		return common.Address{}, false
	}
	return wallet, true
}

func proposalParams(w http.ResponseWriter, r *http.Request) (common.Address, *big.Int, bool) {
	wallet, ok := walletParam(w, r)
	if !ok {
		return common.Address{}, nil, false
	}
	id, ok := new(big.Int).SetString(r.PathValue("id"), 10)
	if !ok || id.Sign() < 0 {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return common.Address{}, nil, false
	}
	return wallet, id, true
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func parsePage(r *http.Request) (multisig.Page, error) {
	query := r.URL.Query()
	page := multisig.Page{Limit: defaultPageLimit}
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || value > multisig.MaxPageLimit {
			return multisig.Page{}, fmt.Errorf("invalid limit, want 0 to %d", multisig.MaxPageLimit)
		}
		page.Limit = value
	}
	if raw := query.Get("skip"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return multisig.Page{}, errors.New("invalid skip")
		}
		page.Skip = value
	}
	if raw := query.Get("status"); raw != "" {
		status, ok := domain.ParseProposalStatus(raw)
		if !ok {
			return multisig.Page{}, errors.New("invalid status")
		}
		page.Status = status
	}
	return page, nil
}

func parseIntParam(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return value, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
