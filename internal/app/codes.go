package app

import (
	"fmt"

	"github.com/dkeye/Relay/internal/domain"
	nanoid "github.com/jaevor/go-nanoid"
)

// CodeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const DefaultCodeLength = 6

// CodeGenerator draws one candidate room code.
type CodeGenerator func() domain.RoomCode

func NewCodeGenerator(length int) (CodeGenerator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	gen, err := nanoid.CustomASCII(CodeAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("room code generator: %w", err)
	}
	return func() domain.RoomCode { return domain.RoomCode(gen()) }, nil
}
