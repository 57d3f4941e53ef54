package websocket

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

type stubManager struct{}

func (stubManager) StartSession(_ context.Context, id, mode string) (*entity.GameSession, error) {
	return entity.NewSession(id, mode), nil
}

func (stubManager) ApplyMove(_ context.Context, id string, _ int) (*entity.GameSession, error) {
	return entity.NewSession(id, entity.LocalMode), nil
}

func (stubManager) RestartBoard(_ context.Context, id string) (*entity.GameSession, error) {
	return entity.NewSession(id, entity.LocalMode), nil
}

func (stubManager) ResetScore(_ context.Context, id string) (*entity.GameSession, *entity.ScoreTally, error) {
	return entity.NewSession(id, entity.LocalMode), &entity.ScoreTally{}, nil
}

func (stubManager) Session(_ context.Context, id string) (*entity.GameSession, error) {
	return entity.NewSession(id, entity.LocalMode), nil
}

func (stubManager) Score(_ context.Context, _ string) (*entity.ScoreTally, error) {
	return &entity.ScoreTally{}, nil
}

func (stubManager) CleanupSession(_ context.Context, _ string) error {
	return nil
}

// readServerFrame decodes one unmasked server frame from the client side
// of the pipe.
func readServerFrame(reader *bufio.Reader) ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, err
	}

	size := uint64(header[1] & 0x7f)

	switch size {
	case 126:
		extended := make([]byte, 2)
		if _, err := io.ReadFull(reader, extended); err != nil {
			return nil, err
		}
		size = uint64(binary.BigEndian.Uint16(extended))
	case 127:
		extended := make([]byte, 8)
		if _, err := io.ReadFull(reader, extended); err != nil {
			return nil, err
		}
		size = binary.BigEndian.Uint64(extended)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func TestServer_ConcurrentWritesStayFramed(t *testing.T) {
	const (
		writers          = 8
		messagesPerWrite = 10
	)

	// Given: a server with one registered connection backed by a pipe
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := New(logger, stubManager{})

	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() {
		_ = clientSide.Close()
		_ = serverSide.Close()
	})

	conn := &connection{bufrw: bufio.NewReadWriter(bufio.NewReader(serverSide), bufio.NewWriter(serverSide))}
	server.registerConnection("s1", conn)

	session := entity.NewSession("s1", entity.BotMode)

	// And: a client draining and decoding every frame
	received := make(chan Message, writers*2*messagesPerWrite)
	go func() {
		reader := bufio.NewReader(clientSide)
		for {
			payload, err := readServerFrame(reader)
			if err != nil {
				close(received)
				return
			}

			var message Message
			if err = json.Unmarshal(payload, &message); err != nil {
				close(received)
				return
			}
			received <- message
		}
	}()

	// When: pushed bot moves and message-loop responses write concurrently
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < messagesPerWrite; j++ {
				server.PushUpdate(session)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < messagesPerWrite; j++ {
				assert.NoError(t, server.sendMessage(conn, "game:state", Payload{Session: session}))
			}
		}()
	}
	wg.Wait()

	// Then: every frame decodes into a whole message, none interleaved
	for i := 0; i < writers*2*messagesPerWrite; i++ {
		message, ok := <-received
		require.True(t, ok, "frame stream corrupted")

		assert.Contains(t, []string{"game:update", "game:state"}, message.Action)

		var payload Payload
		require.NoError(t, json.Unmarshal(message.Payload, &payload))
		require.NotNil(t, payload.Session)
		assert.Equal(t, "s1", payload.Session.ID)
	}
}
