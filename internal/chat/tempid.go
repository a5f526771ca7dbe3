package chat

import (
	"strconv"

	"github.com/google/uuid"

	"chatsync/internal/types"
)

// IDGenerator issues temporary message ids. Every id carries
// types.TempIDPrefix.
type IDGenerator interface {
	NewTempID() string
}

type uuidTempIDs struct{}

func (uuidTempIDs) NewTempID() string {
	return types.TempIDPrefix + uuid.NewString()
}

// UUIDTempIDs returns the production generator.
func UUIDTempIDs() IDGenerator {
	return uuidTempIDs{}
}

// SequentialTempIDs yields temp-1, temp-2, ... and is meant for tests and
// deterministic replays.
type SequentialTempIDs struct {
	next int
}

func (g *SequentialTempIDs) NewTempID() string {
	g.next++
	return types.TempIDPrefix + strconv.Itoa(g.next)
}
