package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/cards"
	"github.com/saeedinster/chotto.world/internal/friends"
	"github.com/saeedinster/chotto.world/internal/matchmaking"
	"github.com/saeedinster/chotto.world/internal/settlement"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// ListCardsHandler serves the card catalog, or a player's collection when a
// playerID is given.
func (s *Server) ListCardsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			catalog, err := s.Cards.GetCatalog()
			if err != nil {
				http.Error(w, "Failed to get card catalog", http.StatusInternalServerError)
				log.Error("Failed to get card catalog", "error", err)
				return
			}
			writeJSON(w, catalog)
			return
		}

		limit := 0
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed < 0 {
				http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		owned, err := s.Cards.GetPlayerCards(playerID, limit)
		if err != nil {
			http.Error(w, "Failed to get player cards", http.StatusInternalServerError)
			log.Error("Failed to get player cards", "error", err, "playerID", playerID)
			return
		}
		writeJSON(w, owned)
	}
}

// StarterCardsHandler grants the starter set to a new player. Granting is a
// no-op for players who already own cards.
func (s *Server) StarterCardsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Missing 'playerID' parameter", http.StatusBadRequest)
			return
		}

		granted, err := s.Cards.UnlockStarterCards(playerID)
		if err != nil {
			http.Error(w, "Failed to unlock starter cards", http.StatusInternalServerError)
			log.Error("Failed to unlock starter cards", "error", err, "playerID", playerID)
			return
		}
		writeJSON(w, map[string]int{"granted": granted})
	}
}

func (s *Server) UpgradeCardHandler() http.HandlerFunc {
	type request struct {
		PlayerID string `json:"player_id"`
		CardID   string `json:"card_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.PlayerID == "" || req.CardID == "" {
			http.Error(w, "Missing 'player_id' or 'card_id'", http.StatusBadRequest)
			return
		}

		upgraded, err := s.Cards.UpgradeCard(req.PlayerID, req.CardID)
		if err != nil {
			switch {
			case errors.Is(err, cards.ErrCardNotFound):
				http.Error(w, "Card not owned", http.StatusNotFound)
			case errors.Is(err, cards.ErrInsufficientCards):
				http.Error(w, "Not enough copies to upgrade", http.StatusBadRequest)
			case errors.Is(err, cards.ErrMaxLevelReached):
				http.Error(w, "Card is already at max level", http.StatusBadRequest)
			default:
				http.Error(w, "Failed to upgrade card", http.StatusInternalServerError)
				log.Error("Failed to upgrade card", "error", err, "playerID", req.PlayerID, "cardID", req.CardID)
			}
			return
		}
		writeJSON(w, upgraded)
	}
}

// EnqueueHandler puts a player into the matchmaking queue using their settled
// trophy count for the window.
func (s *Server) EnqueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Missing 'playerID' parameter", http.StatusBadRequest)
			return
		}

		stats, err := s.Settlement.GetStats(playerID)
		if err != nil {
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats for enqueue", "error", err, "playerID", playerID)
			return
		}

		entry, err := s.Queue.Enqueue(playerID, stats.Trophies)
		if err != nil {
			http.Error(w, "Failed to join matchmaking queue", http.StatusInternalServerError)
			log.Error("Failed to enqueue player", "error", err, "playerID", playerID)
			return
		}
		writeJSON(w, entry)
	}
}

// SearchHandler runs one queue scan, or the full hybrid poll/push loop when
// 'wait=true' is given.
func (s *Server) SearchHandler() http.HandlerFunc {
	const waitTimeout = 30 * time.Second
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Missing 'playerID' parameter", http.StatusBadRequest)
			return
		}

		if r.URL.Query().Get("wait") == "true" {
			ctx, cancel := context.WithTimeout(r.Context(), waitTimeout)
			defer cancel()

			result, err := s.searcher.Run(ctx, playerID)
			if err != nil {
				switch {
				case errors.Is(err, matchmaking.ErrNotQueued):
					http.Error(w, "Player is not in the matchmaking queue", http.StatusNotFound)
				case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
					writeJSON(w, map[string]string{"status": "waiting"})
				default:
					http.Error(w, "Matchmaking search failed", http.StatusInternalServerError)
					log.Error("Matchmaking wait failed", "error", err, "playerID", playerID)
				}
				return
			}
			writeJSON(w, result)
			return
		}

		result, err := s.Queue.Search(playerID)
		if err != nil {
			if errors.Is(err, matchmaking.ErrNotQueued) {
				http.Error(w, "Player is not in the matchmaking queue", http.StatusNotFound)
				return
			}
			http.Error(w, "Matchmaking search failed", http.StatusInternalServerError)
			log.Error("Matchmaking search failed", "error", err, "playerID", playerID)
			return
		}
		if result == nil {
			writeJSON(w, map[string]string{"status": "waiting"})
			return
		}
		writeJSON(w, result)
	}
}

func (s *Server) CancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Missing 'playerID' parameter", http.StatusBadRequest)
			return
		}

		if err := s.Queue.Cancel(playerID); err != nil {
			http.Error(w, "Failed to leave matchmaking queue", http.StatusInternalServerError)
			log.Error("Failed to cancel matchmaking", "error", err, "playerID", playerID)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Left matchmaking queue")
	}
}

// BattleStateHandler returns a match by id, or the player's active match.
func (s *Server) BattleStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		playerID := r.URL.Query().Get("playerID")

		var match *battle.Match
		var err error
		switch {
		case matchID != "":
			match, err = s.Matches.GetMatch(matchID)
		case playerID != "":
			match, err = s.Matches.GetActiveMatchForPlayer(playerID)
		default:
			http.Error(w, "Missing 'matchID' or 'playerID' parameter", http.StatusBadRequest)
			return
		}
		if err != nil {
			if errors.Is(err, battle.ErrMatchNotFound) {
				http.Error(w, "Match not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to get match", http.StatusInternalServerError)
			log.Error("Failed to get match", "error", err, "matchID", matchID, "playerID", playerID)
			return
		}
		writeJSON(w, match)
	}
}

func (s *Server) PlayCardHandler() http.HandlerFunc {
	type request struct {
		MatchID  string `json:"match_id"`
		PlayerID string `json:"player_id"`
		CardID   string `json:"card_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.MatchID == "" || req.PlayerID == "" || req.CardID == "" {
			http.Error(w, "Missing 'match_id', 'player_id' or 'card_id'", http.StatusBadRequest)
			return
		}

		owned, err := s.Cards.GetPlayerCard(req.PlayerID, req.CardID)
		if err != nil {
			if errors.Is(err, cards.ErrCardNotFound) {
				http.Error(w, "Card not owned", http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to get player card", http.StatusInternalServerError)
			log.Error("Failed to get player card", "error", err, "playerID", req.PlayerID, "cardID", req.CardID)
			return
		}
		card, err := s.Cards.GetCard(req.CardID)
		if err != nil {
			http.Error(w, "Failed to get card", http.StatusInternalServerError)
			log.Error("Failed to get catalog card", "error", err, "cardID", req.CardID)
			return
		}

		play := battle.PlayCard{Actor: req.PlayerID, Card: *card, Level: owned.Level}

		// Dry runs preview the transition without committing it.
		if isDryRunFromContext(r) {
			current, err := s.Matches.GetMatch(req.MatchID)
			if err != nil {
				s.writeBattleError(w, err, req.MatchID)
				return
			}
			preview, err := battle.Apply(*current, play)
			if err != nil {
				s.writeBattleError(w, err, req.MatchID)
				return
			}
			writeJSON(w, &preview)
			return
		}

		next, err := s.Matches.SubmitPlay(req.MatchID, play)
		if err != nil {
			s.writeBattleError(w, err, req.MatchID)
			return
		}
		s.settleIfCompleted(next)
		writeJSON(w, next)
	}
}

// SoloBattleHandler starts a practice match against the computer opponent.
func (s *Server) SoloBattleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Missing 'playerID' parameter", http.StatusBadRequest)
			return
		}

		match, err := s.Matches.CreateMatch(playerID, battle.AIOpponentID, true)
		if err != nil {
			http.Error(w, "Failed to create solo match", http.StatusInternalServerError)
			log.Error("Failed to create solo match", "error", err, "playerID", playerID)
			return
		}
		writeJSON(w, match)
	}
}

// AITurnHandler advances a solo match by one computer round.
func (s *Server) AITurnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		if matchID == "" {
			http.Error(w, "Missing 'matchID' parameter", http.StatusBadRequest)
			return
		}

		match, err := s.Matches.GetMatch(matchID)
		if err != nil {
			s.writeBattleError(w, err, matchID)
			return
		}
		if !match.Solo {
			http.Error(w, "Match has no computer opponent", http.StatusBadRequest)
			return
		}

		deck, err := s.aiDeck()
		if err != nil {
			http.Error(w, "Failed to build opponent deck", http.StatusInternalServerError)
			log.Error("Failed to build opponent deck", "error", err, "matchID", matchID)
			return
		}

		next, err := s.aiDriver.TakeTurn(*match, deck)
		if err != nil {
			s.writeBattleError(w, err, matchID)
			return
		}
		persisted, err := s.Matches.SubmitTurn(&next, match.TurnNumber)
		if err != nil {
			s.writeBattleError(w, err, matchID)
			return
		}
		s.settleIfCompleted(persisted)
		writeJSON(w, persisted)
	}
}

func (s *Server) SettleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		if matchID == "" {
			http.Error(w, "Missing 'matchID' parameter", http.StatusBadRequest)
			return
		}

		match, err := s.Matches.GetMatch(matchID)
		if err != nil {
			s.writeBattleError(w, err, matchID)
			return
		}

		result, err := s.Settlement.SettleMatch(match)
		if err != nil {
			switch {
			case errors.Is(err, settlement.ErrMatchNotComplete):
				http.Error(w, "Match is still being played", http.StatusConflict)
			case errors.Is(err, settlement.ErrAlreadySettled):
				http.Error(w, "Match has already been settled", http.StatusConflict)
			default:
				http.Error(w, "Failed to settle match", http.StatusInternalServerError)
				log.Error("Failed to settle match", "error", err, "matchID", matchID)
			}
			return
		}
		writeJSON(w, result)
	}
}

func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed <= 0 {
				http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		entries, err := s.Settlement.Leaderboard(limit)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard", "error", err)
			return
		}
		writeJSON(w, entries)
	}
}

func (s *Server) PlayerStatsHandler() http.HandlerFunc {
	type response struct {
		Stats   *settlement.PlayerStats  `json:"stats"`
		Rank    int                      `json:"rank"`
		History []settlement.MatchRecord `json:"history"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Missing 'playerID' parameter", http.StatusBadRequest)
			return
		}

		stats, err := s.Settlement.GetStats(playerID)
		if err != nil {
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats", "error", err, "playerID", playerID)
			return
		}
		rank, err := s.Settlement.Rank(playerID)
		if err != nil {
			http.Error(w, "Failed to get player rank", http.StatusInternalServerError)
			log.Error("Failed to get player rank", "error", err, "playerID", playerID)
			return
		}
		history, err := s.Settlement.GetMatchHistory(playerID, 10)
		if err != nil {
			http.Error(w, "Failed to get match history", http.StatusInternalServerError)
			log.Error("Failed to get match history", "error", err, "playerID", playerID)
			return
		}
		writeJSON(w, response{Stats: stats, Rank: rank, History: history})
	}
}

func (s *Server) ListFriendsHandler() http.HandlerFunc {
	type response struct {
		Friends  []friends.Friendship `json:"friends"`
		Requests []friends.Friendship `json:"requests"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			http.Error(w, "Missing 'playerID' parameter", http.StatusBadRequest)
			return
		}

		accepted, err := s.Friends.ListFriends(playerID)
		if err != nil {
			http.Error(w, "Failed to list friends", http.StatusInternalServerError)
			log.Error("Failed to list friends", "error", err, "playerID", playerID)
			return
		}
		pending, err := s.Friends.ListRequests(playerID)
		if err != nil {
			http.Error(w, "Failed to list friend requests", http.StatusInternalServerError)
			log.Error("Failed to list friend requests", "error", err, "playerID", playerID)
			return
		}
		writeJSON(w, response{Friends: accepted, Requests: pending})
	}
}

func (s *Server) FriendRequestHandler() http.HandlerFunc {
	type request struct {
		UserID   string `json:"user_id"`
		FriendID string `json:"friend_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.UserID == "" || req.FriendID == "" {
			http.Error(w, "Missing 'user_id' or 'friend_id'", http.StatusBadRequest)
			return
		}

		friendship, err := s.Friends.SendRequest(req.UserID, req.FriendID)
		if err != nil {
			switch {
			case errors.Is(err, friends.ErrSelfFriend):
				http.Error(w, "Cannot befriend yourself", http.StatusBadRequest)
			case errors.Is(err, friends.ErrRequestExists):
				http.Error(w, "Friendship or request already exists", http.StatusConflict)
			default:
				http.Error(w, "Failed to send friend request", http.StatusInternalServerError)
				log.Error("Failed to send friend request", "error", err, "userID", req.UserID)
			}
			return
		}
		writeJSON(w, friendship)
	}
}

func (s *Server) FriendRespondHandler() http.HandlerFunc {
	type request struct {
		UserID      string `json:"user_id"`
		RequesterID string `json:"requester_id"`
		Accept      bool   `json:"accept"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.UserID == "" || req.RequesterID == "" {
			http.Error(w, "Missing 'user_id' or 'requester_id'", http.StatusBadRequest)
			return
		}

		var err error
		if req.Accept {
			err = s.Friends.AcceptRequest(req.UserID, req.RequesterID)
		} else {
			err = s.Friends.RejectRequest(req.UserID, req.RequesterID)
		}
		if err != nil {
			if errors.Is(err, friends.ErrRequestNotFound) {
				http.Error(w, "Friend request not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to respond to friend request", http.StatusInternalServerError)
			log.Error("Failed to respond to friend request", "error", err, "userID", req.UserID)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK!")
	}
}

func (s *Server) ChallengeHandler() http.HandlerFunc {
	type request struct {
		ChallengerID string `json:"challenger_id"`
		FriendID     string `json:"friend_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ChallengerID == "" || req.FriendID == "" {
			http.Error(w, "Missing 'challenger_id' or 'friend_id'", http.StatusBadRequest)
			return
		}

		match, err := s.Friends.Challenge(req.ChallengerID, req.FriendID)
		if err != nil {
			if errors.Is(err, friends.ErrNotFriends) {
				http.Error(w, "Players are not friends", http.StatusForbidden)
				return
			}
			http.Error(w, "Failed to start challenge", http.StatusInternalServerError)
			log.Error("Failed to start friend challenge", "error", err, "challengerID", req.ChallengerID)
			return
		}
		writeJSON(w, match)
	}
}

// settleIfCompleted records the outcome as soon as a play ends the match.
// Settlement failures are logged and retryable through the settle endpoint.
func (s *Server) settleIfCompleted(match *battle.Match) {
	if match.Status != battle.StatusCompleted {
		return
	}
	if _, err := s.Settlement.SettleMatch(match); err != nil && !errors.Is(err, settlement.ErrAlreadySettled) {
		log.Error("Failed to settle completed match", "error", err, "matchID", match.ID)
	}
}

// aiDeck builds the computer opponent's deck: every catalog card at level 1.
func (s *Server) aiDeck() ([]cards.OwnedCard, error) {
	catalog, err := s.Cards.GetCatalog()
	if err != nil {
		return nil, err
	}
	deck := make([]cards.OwnedCard, 0, len(catalog))
	for _, card := range catalog {
		deck = append(deck, cards.OwnedCard{
			PlayerCard: cards.PlayerCard{PlayerID: battle.AIOpponentID, CardID: card.ID, Level: 1, Quantity: 1},
			Card:       card,
		})
	}
	return deck, nil
}

// writeBattleError maps engine and store errors onto HTTP statuses.
func (s *Server) writeBattleError(w http.ResponseWriter, err error, matchID string) {
	switch {
	case errors.Is(err, battle.ErrMatchNotFound):
		http.Error(w, "Match not found", http.StatusNotFound)
	case errors.Is(err, battle.ErrMatchCompleted):
		http.Error(w, "Match is already completed", http.StatusConflict)
	case errors.Is(err, battle.ErrNotYourTurn):
		http.Error(w, "Not your turn", http.StatusConflict)
	case errors.Is(err, battle.ErrStaleTurn):
		http.Error(w, "Match state changed, refresh and retry", http.StatusConflict)
	case errors.Is(err, battle.ErrInsufficientElixir):
		http.Error(w, "Not enough elixir", http.StatusBadRequest)
	default:
		http.Error(w, "Battle operation failed", http.StatusInternalServerError)
		log.Error("Battle operation failed", "error", err, "matchID", matchID)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
