// Package api is the HTTP surface: a thin translator from JSON
// requests to ledger and matching-engine calls. It owns no matching
// or accounting state of its own.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"maelstrom/internal/common"
	"maelstrom/internal/engine"
	"maelstrom/internal/fixedpoint"
	"maelstrom/internal/ledger"
	"maelstrom/internal/notify"
)

type commonFill = common.Fill

// Server wires a ledger and a matching engine to a gorilla/mux router.
type Server struct {
	ledger   *ledger.Ledger
	engine   *engine.Engine
	notifier *notify.Notifier
	router   *mux.Router
}

// NewServer builds the server and registers every route in the fixed
// verb/path table.
func NewServer(l *ledger.Ledger, e *engine.Engine, n *notify.Notifier) *Server {
	s := &Server{ledger: l, engine: e, notifier: n, router: mux.NewRouter()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	s.router.HandleFunc("/accounts/{addr}", s.handleGetAccount).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{addr}", s.handleDeleteAccount).Methods(http.MethodDelete)
	s.router.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	s.router.HandleFunc("/orders/{hash}", s.handleGetOrder).Methods(http.MethodGet)
	s.router.HandleFunc("/orders/{hash}", s.handleCancelOrder).Methods(http.MethodDelete)
	s.router.HandleFunc("/book", s.handleGetBook).Methods(http.MethodGet)
}

// Handler returns the CORS-wrapped router, ready to hand to
// http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var body JsonAccount
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondServerError(w, err)
		return
	}

	ddxFree, err := fixedpoint.ToFixed(body.DDXBalance)
	if err != nil {
		if errors.Is(err, fixedpoint.ErrBadDecimal) {
			respondNoAccount(w, body.TraderAddress, err)
			return
		}
		respondServerError(w, err)
		return
	}
	usdFree, err := fixedpoint.ToFixed(body.USDBalance)
	if err != nil {
		if errors.Is(err, fixedpoint.ErrBadDecimal) {
			respondNoAccount(w, body.TraderAddress, err)
			return
		}
		respondServerError(w, err)
		return
	}
	trader := ethcommon.HexToAddress(body.TraderAddress)

	s.ledger.Create(trader, ddxFree, usdFree)
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte("New account created!"))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	acct, err := s.ledger.Get(ethcommon.HexToAddress(addr))
	if err != nil {
		respondNoAccount(w, addr, err)
		return
	}
	respondJSON(w, http.StatusOK, accountToJSON(acct))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	acct, err := s.ledger.Delete(ethcommon.HexToAddress(addr))
	if err != nil {
		respondNoAccount(w, addr, err)
		return
	}
	respondJSON(w, http.StatusOK, accountToJSON(acct))
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var body JsonOrder
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondServerError(w, err)
		return
	}
	order, err := orderFromJSON(body)
	if err != nil {
		if errors.Is(err, fixedpoint.ErrBadDecimal) {
			respondNoAccount(w, body.TraderAddress, err)
			return
		}
		respondServerError(w, err)
		return
	}

	hash, result, err := s.engine.Submit(order)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownAccount) || errors.Is(err, ledger.ErrInsufficientFunds) {
			respondNoAccount(w, body.TraderAddress, err)
			return
		}
		respondServerError(w, err)
		return
	}

	if s.notifier != nil && len(result.Fills) > 0 {
		byTrader := make(map[ethcommon.Address][]commonFill)
		for _, f := range result.Fills {
			byTrader[f.From] = append(byTrader[f.From], f)
			byTrader[f.To] = append(byTrader[f.To], f)
		}
		for trader, fills := range byTrader {
			s.notifier.Publish(notify.Report{Trader: trader, Fills: fills})
		}
	}

	log.Debug().Str("hash", hash).Msg("order processed")
	respondJSON(w, http.StatusOK, fillsToJSON(result.Fills))
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	order, err := s.engine.Get(hash)
	if err != nil {
		respondNoOrder(w, hash, err)
		return
	}
	respondJSON(w, http.StatusOK, orderToJSON(order))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	order, err := s.engine.Cancel(hash)
	if err != nil {
		if errors.Is(err, ledger.ErrInvariantViolated) || errors.Is(err, fixedpoint.ErrOverflow) {
			respondServerError(w, err)
			return
		}
		respondNoOrder(w, hash, err)
		return
	}
	respondJSON(w, http.StatusOK, orderToJSON(order))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bids, asks := s.engine.Snapshot()
	respondJSON(w, http.StatusOK, L2OrderBook{
		Asks: l2EntriesFromLevels(asks),
		Bids: l2EntriesFromLevels(bids),
	})
}

func l2EntriesFromLevels(levels []engine.L2Level) []L2Entry {
	out := make([]L2Entry, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, L2Entry{
			Amount: fixedpoint.ToDecimal(lvl.Amount),
			Price:  fixedpoint.ToDecimal(lvl.Price),
		})
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondNoAccount(w http.ResponseWriter, address string, err error) {
	respondJSON(w, http.StatusNotFound, errNoAccount{Address: address, Err: err.Error()})
}

func respondNoOrder(w http.ResponseWriter, hash string, err error) {
	respondJSON(w, http.StatusNotFound, errNoOrder{Hash: hash, Err: err.Error()})
}

// respondServerError is used for request bodies that are not valid
// JSON, arithmetic overflow and ledger invariant violations, mapped to
// 500 per SPEC_FULL.md §10. Malformed decimal or hex fields are answered
// with 404 instead.
func respondServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("request failed")
	respondJSON(w, http.StatusInternalServerError, errServer{Err: err.Error()})
}
