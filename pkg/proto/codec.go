package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ctchen222/tictactoe-hub/internal/game"
)

var (
	ErrUnknownType = errors.New("unknown packet type")
	ErrMissingData = errors.New("missing packet data")
	ErrTupleArity  = errors.New("wrong number of tuple elements")
	ErrEnvelopeKey = errors.New("malformed envelope key")
)

// DecodeError is returned by Decode for any payload that is not a well-formed packet.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("decode packet: %v", e.Err)
	}
	return fmt.Sprintf("decode %s packet: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// envelope is the adjacently tagged form: {"type": "...", "data": ...}.
type envelope struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

type rawEnvelope struct {
	Type *Type          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes a packet to its wire text.
func Encode(p Packet) ([]byte, error) {
	var data any
	switch v := p.(type) {
	case Message:
		data = v.Text
	case GetBoard:
		data = v.Data
	case SetSquare:
		data = []any{v.Row, v.Col, v.Value}
	case BoardUpdate:
		data = v.Board
	case TurnUpdate:
		data = v.Turn
	case RoleUpdate:
		data = v.Role
	case Error:
		data = []any{v.Code, v.Message}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, p)
	}

	out, err := json.Marshal(envelope{Type: p.PacketType(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s packet: %w", p.PacketType(), err)
	}
	return out, nil
}

// MustEncode is Encode for packets built by the server itself, which always encode.
func MustEncode(p Packet) []byte {
	data, err := Encode(p)
	if err != nil {
		panic(err)
	}
	return data
}

// Decode parses wire text into a packet.
func Decode(raw []byte) (Packet, error) {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := checkEnvelopeKeys(raw); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if env.Type == nil {
		return nil, &DecodeError{Err: errors.New("missing packet type")}
	}

	typ := *env.Type
	if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, &DecodeError{Type: string(typ), Err: ErrMissingData}
	}

	p, err := decodeData(typ, env.Data)
	if err != nil {
		return nil, &DecodeError{Type: string(typ), Err: err}
	}
	return p, nil
}

func decodeData(typ Type, data json.RawMessage) (Packet, error) {
	switch typ {
	case TypeMessage:
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, err
		}
		return Message{Text: text}, nil

	case TypeGetBoard:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return GetBoard{Data: s}, nil

	case TypeSetSquare:
		var row, col uint
		var value game.Square
		if err := unmarshalTuple(data, &row, &col, &value); err != nil {
			return nil, err
		}
		return SetSquare{Row: row, Col: col, Value: value}, nil

	case TypeBoardUpdate:
		var board game.Board
		if err := json.Unmarshal(data, &board); err != nil {
			return nil, err
		}
		return BoardUpdate{Board: board}, nil

	case TypeTurnUpdate:
		var turn game.Turn
		if err := json.Unmarshal(data, &turn); err != nil {
			return nil, err
		}
		return TurnUpdate{Turn: turn}, nil

	case TypeRoleUpdate:
		var role game.Turn
		if err := json.Unmarshal(data, &role); err != nil {
			return nil, err
		}
		return RoleUpdate{Role: role}, nil

	case TypeError:
		var code uint64
		var message string
		if err := unmarshalTuple(data, &code, &message); err != nil {
			return nil, err
		}
		return Error{Code: code, Message: message}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

// checkEnvelopeKeys rejects what encoding/json would otherwise accept silently:
// a repeated "type" or "data" key, and keys that match them only case-insensitively.
func checkEnvelopeKeys(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	seen := make(map[string]bool, 2)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		switch {
		case key == "type" || key == "data":
			if seen[key] {
				return fmt.Errorf("%w: duplicate %q", ErrEnvelopeKey, key)
			}
			seen[key] = true
		case strings.EqualFold(key, "type") || strings.EqualFold(key, "data"):
			return fmt.Errorf("%w: %q", ErrEnvelopeKey, key)
		}

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return nil
}

// unmarshalTuple decodes a JSON array whose length must equal len(dst).
func unmarshalTuple(data json.RawMessage, dst ...any) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	if len(elems) != len(dst) {
		return fmt.Errorf("%w: got %d, want %d", ErrTupleArity, len(elems), len(dst))
	}
	for i, elem := range elems {
		if err := json.Unmarshal(elem, dst[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}
