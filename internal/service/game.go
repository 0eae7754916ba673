// FILE: internal/service/game.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tictactoe/internal/core"
	"tictactoe/internal/game"
	"tictactoe/internal/metrics"
	"tictactoe/internal/storage"
)

// quitAttempts bounds how often a quit re-reads a game that changed under it
const quitAttempts = 3

// CreateGame opens a game seated by playerID as X, waiting for an opponent
func (s *Service) CreateGame(ctx context.Context, playerID string) (*core.SeatResponse, error) {
	now := s.now()
	record := storage.GameRecord{
		GameID:    uuid.New().String(),
		Player1ID: playerID,
		Status:    string(core.StatusWaiting),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateGame(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	metrics.RecordTransition(string(core.StatusWaiting), "create")
	s.logger.Info("game created", zap.String("game_id", record.GameID), zap.String("player_id", playerID))

	return &core.SeatResponse{
		GameID:       record.GameID,
		PlayerSymbol: core.X,
		GameState:    game.Reconstruct(nil, seatsOf(&record)),
	}, nil
}

// JoinGame seats playerID as O. Joining a game one already sits in is a
// no-op returning the caller's symbol.
func (s *Service) JoinGame(ctx context.Context, gameID, playerID string) (*core.SeatResponse, error) {
	record, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if sym, ok := seatsOf(record).SymbolOf(playerID); ok {
		resp, err := s.GetGame(ctx, gameID)
		if err != nil {
			return nil, err
		}
		return &core.SeatResponse{GameID: gameID, PlayerSymbol: sym, GameState: resp.GameState}, nil
	}

	switch {
	case record.Status == string(core.StatusCompleted):
		return nil, core.GameNotJoinable
	case record.Player2ID != nil:
		return nil, core.GameFull
	}

	joined, err := s.store.JoinGame(ctx, gameID, playerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}
	if !joined {
		// Lost the seat to a concurrent join or the creator quit meanwhile
		current, err := s.loadGame(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if current.Status == string(core.StatusCompleted) && current.Player2ID == nil {
			return nil, core.GameNotJoinable
		}
		return nil, core.GameFull
	}

	s.afterMutation(ctx, gameID, record.Revision+1)
	metrics.RecordTransition(string(core.StatusActive), "join")
	s.logger.Info("game joined", zap.String("game_id", gameID), zap.String("player_id", playerID))

	resp, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &core.SeatResponse{GameID: gameID, PlayerSymbol: core.O, GameState: resp.GameState}, nil
}

// QuitGame ends a waiting or active game; the opponent, if any, wins
func (s *Service) QuitGame(ctx context.Context, gameID, playerID string) error {
	for attempt := 0; attempt < quitAttempts; attempt++ {
		record, err := s.loadGame(ctx, gameID)
		if err != nil {
			return err
		}

		seats := seatsOf(record)
		if _, ok := seats.SymbolOf(playerID); !ok {
			return core.NotAPlayer
		}
		if record.Status == string(core.StatusCompleted) {
			return core.GameOver
		}

		var winnerID *string
		if opponent := seats.Opponent(playerID); opponent != "" {
			winnerID = &opponent
		}

		ok, err := s.store.CompleteGame(ctx, gameID, winnerID, record.Revision, s.now())
		if err != nil {
			return fmt.Errorf("failed to quit game: %w", err)
		}
		if !ok {
			// Joined, moved or completed since the load; decide again
			continue
		}

		s.afterMutation(ctx, gameID, record.Revision+1)
		metrics.RecordTransition(string(core.StatusCompleted), "quit")
		s.logger.Info("game quit", zap.String("game_id", gameID), zap.String("player_id", playerID))
		return nil
	}
	return core.MoveConflict
}

// GetGame returns the current response for a game, served from cache while
// fresh and rebuilt from the move log otherwise
func (s *Service) GetGame(ctx context.Context, gameID string) (*core.GameResponse, error) {
	if resp, ok := s.cache.Get(ctx, gameID); ok {
		metrics.RecordCacheLookup(true)
		return resp, nil
	}
	metrics.RecordCacheLookup(false)

	record, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	log, err := s.loadMoves(ctx, gameID)
	if err != nil {
		return nil, err
	}

	resp := &core.GameResponse{
		GameID:    gameID,
		GameState: game.Reconstruct(log, seatsOf(record)),
		GameInfo:  infoOf(record),
	}
	s.cache.Set(ctx, gameID, resp)
	return resp, nil
}

// MakeMove validates and appends a move by playerID. A retry carrying a
// clientMoveID already in the log returns the current state unchanged.
func (s *Service) MakeMove(ctx context.Context, gameID, playerID string, position int, clientMoveID string) (*core.MoveResponse, error) {
	resp, err := s.makeMove(ctx, gameID, playerID, position, clientMoveID)
	if err != nil {
		var coreErr *core.Error
		if errors.As(err, &coreErr) {
			metrics.RecordMove(coreErr.Code)
		} else {
			metrics.RecordMove(core.ErrInternalError)
		}
		return nil, err
	}
	metrics.RecordMove("accepted")
	return resp, nil
}

func (s *Service) makeMove(ctx context.Context, gameID, playerID string, position int, clientMoveID string) (*core.MoveResponse, error) {
	record, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	log, err := s.loadMoves(ctx, gameID)
	if err != nil {
		return nil, err
	}
	seats := seatsOf(record)

	if prior, ok := game.FindClientMove(log, clientMoveID); ok && prior.PlayerID == playerID {
		return &core.MoveResponse{GameState: game.Reconstruct(log, seats)}, nil
	}

	move, next, err := game.Advance(log, seats, core.Status(record.Status), game.Move{
		PlayerID:     playerID,
		Position:     position,
		ClientMoveID: clientMoveID,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	var winnerID *string
	if next.Winner != core.Empty {
		w := seats.Player(next.Winner)
		winnerID = &w
	}

	err = s.store.AppendMove(ctx, moveRecord(gameID, move), winnerID)
	if errors.Is(err, storage.ErrConflict) {
		// A duplicate clientMoveID also lands here; answer the retry
		if clientMoveID != "" {
			if log, lerr := s.loadMoves(ctx, gameID); lerr == nil {
				if prior, ok := game.FindClientMove(log, clientMoveID); ok && prior.PlayerID == playerID {
					return &core.MoveResponse{GameState: game.Reconstruct(log, seats)}, nil
				}
			}
		}
		return nil, core.MoveConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record move: %w", err)
	}

	s.afterMutation(ctx, gameID, record.Revision+1)
	if winnerID != nil {
		metrics.RecordTransition(string(core.StatusCompleted), "win")
		s.logger.Info("game won", zap.String("game_id", gameID), zap.String("winner_id", *winnerID))
	}
	s.logger.Debug("move accepted",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.Int("position", position),
		zap.Int("move_number", move.Number))

	return &core.MoveResponse{GameState: next}, nil
}

func (s *Service) loadGame(ctx context.Context, gameID string) (*storage.GameRecord, error) {
	record, err := s.store.GetGame(ctx, gameID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.GameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	return record, nil
}

func (s *Service) loadMoves(ctx context.Context, gameID string) ([]game.Move, error) {
	records, err := s.store.ListMoves(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load moves: %w", err)
	}

	log := make([]game.Move, len(records))
	for i, r := range records {
		log[i] = game.Move{
			Number:    r.MoveNumber,
			PlayerID:  r.PlayerID,
			Position:  r.Position,
			CreatedAt: r.CreatedAt,
		}
		if r.ClientMoveID != nil {
			log[i].ClientMoveID = *r.ClientMoveID
		}
	}
	return log, nil
}

func seatsOf(record *storage.GameRecord) game.Seats {
	p2 := ""
	if record.Player2ID != nil {
		p2 = *record.Player2ID
	}
	return game.NewSeats(record.Player1ID, p2)
}

func infoOf(record *storage.GameRecord) core.GameInfo {
	return core.GameInfo{
		ID:        record.GameID,
		Player1ID: record.Player1ID,
		Player2ID: record.Player2ID,
		Status:    core.Status(record.Status),
		WinnerID:  record.WinnerID,
		Revision:  record.Revision,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func moveRecord(gameID string, m game.Move) storage.MoveRecord {
	r := storage.MoveRecord{
		GameID:     gameID,
		MoveNumber: m.Number,
		PlayerID:   m.PlayerID,
		Position:   m.Position,
		CreatedAt:  m.CreatedAt,
	}
	if m.ClientMoveID != "" {
		id := m.ClientMoveID
		r.ClientMoveID = &id
	}
	return r
}
