package websocket

import (
	"context"
	"encoding/json"
	"fmt"
)

func (that *Server) handleStartSession(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleStartSession")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Mode == "" {
		log.Error("mode is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "mode is required")
	}

	session, err := that.manager.StartSession(ctx, payloadReq.SessionID, payloadReq.Mode)
	if err != nil {
		log.Error("failed to start session", "mode", payloadReq.Mode, "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	that.registerConnection(session.ID, conn)

	score, err := that.manager.Score(ctx, session.ID)
	if err != nil {
		log.Error("failed to load score tally", "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	log.Info("session started", "sessionID", session.ID, "mode", session.Mode)

	return that.sendMessage(conn, msg.Action, Payload{Session: session, Score: score})
}

func (that *Server) handleEndSession(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleEndSession")

	payloadReq, err := that.sessionPayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	if err = that.manager.CleanupSession(ctx, payloadReq.SessionID); err != nil {
		log.Error("failed to cleanup session", "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	that.unregisterConnection(payloadReq.SessionID)

	log.Info("session ended", "sessionID", payloadReq.SessionID)

	return that.sendMessage(conn, msg.Action, Payload{SessionID: payloadReq.SessionID})
}

func (that *Server) handleGameState(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameState")

	payloadReq, err := that.sessionPayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	session, err := that.manager.Session(ctx, payloadReq.SessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	that.registerConnection(session.ID, conn)

	score, err := that.manager.Score(ctx, session.ID)
	if err != nil {
		log.Error("failed to load score tally", "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{Session: session, Score: score})
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameTurn")

	payloadReq, err := that.sessionPayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	if payloadReq.Cell == nil {
		log.Error("cell is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "cell is required")
	}

	session, err := that.manager.ApplyMove(ctx, payloadReq.SessionID, *payloadReq.Cell)
	if err != nil {
		log.Error("failed to apply move", "cell", *payloadReq.Cell, "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	payloadResp := Payload{Session: session}

	if session.IsFinished() {
		score, scoreErr := that.manager.Score(ctx, session.ID)
		if scoreErr != nil {
			log.Error("failed to load score tally", "error", scoreErr)
		} else {
			payloadResp.Score = score
		}
	}

	return that.sendMessage(conn, msg.Action, payloadResp)
}

func (that *Server) handleGameRestart(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameRestart")

	payloadReq, err := that.sessionPayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	session, err := that.manager.RestartBoard(ctx, payloadReq.SessionID)
	if err != nil {
		log.Error("failed to restart board", "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{Session: session})
}

func (that *Server) handleScoreGet(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleScoreGet")

	payloadReq, err := that.sessionPayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	score, err := that.manager.Score(ctx, payloadReq.SessionID)
	if err != nil {
		log.Error("failed to load score tally", "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{SessionID: payloadReq.SessionID, Score: score})
}

func (that *Server) handleScoreReset(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleScoreReset")

	payloadReq, err := that.sessionPayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	session, score, err := that.manager.ResetScore(ctx, payloadReq.SessionID)
	if err != nil {
		log.Error("failed to reset score", "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{Session: session, Score: score})
}

// sessionPayload unmarshals a request payload and checks the session id.
// A nil payload with a nil error means the error response was already
// written to the client.
func (that *Server) sessionPayload(msg *Message, conn *connection) (*Payload, error) {
	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.SessionID == "" {
		that.logger.Error("session id is missing in payload", "action", msg.Action)
		return nil, that.sendErrorResponse(conn, msg.Action, "session_id is required")
	}

	return &payloadReq, nil
}
