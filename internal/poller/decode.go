// internal/poller/decode.go
package poller

import (
	"fmt"

	pmodbus "github.com/tamzrod/solis-logger/internal/poller/modbus"
	"github.com/tamzrod/solis-logger/internal/snapshot"
)

// decodeBlock applies the block's field specs to raw words.
// Pure; never touches the snapshot.
func decodeBlock(spec BlockSpec, words []uint16) (map[snapshot.Field]float64, error) {
	if len(words) != int(spec.Count) {
		return nil, fmt.Errorf("%w: block %s: got %d words, want %d", ErrFrame, spec.Name, len(words), spec.Count)
	}

	out := make(map[snapshot.Field]float64, len(spec.Fields))
	for _, fs := range spec.Fields {
		v, err := decodeField(fs, words)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", spec.Name, err)
		}
		out[fs.Field] = v
	}
	return out, nil
}

func decodeField(fs FieldDecodeSpec, words []uint16) (float64, error) {
	switch fs.Rule {
	case SingleWord:
		if fs.Offset < 0 || fs.Offset >= len(words) {
			return 0, fmt.Errorf("%w: field %s offset %d outside block", ErrCallerMisuse, fs.Field, fs.Offset)
		}
		scale := fs.Scale
		if scale == 0 {
			scale = 1
		}
		v := float64(words[fs.Offset]) / scale
		if fs.Max > 0 && v >= fs.Max {
			return 0, &pmodbus.Error{
				Kind:   pmodbus.KindFrame,
				Status: pmodbus.CodeInvalidCRC,
				Err:    fmt.Errorf("field %s: %g outside [0, %g)", fs.Field, v, fs.Max),
			}
		}
		return v, nil

	case HighLowWord:
		if fs.Offset < 0 || fs.Offset+1 >= len(words) {
			return 0, fmt.Errorf("%w: field %s offset %d outside block", ErrCallerMisuse, fs.Field, fs.Offset)
		}
		return float64(uint32(words[fs.Offset])<<16 | uint32(words[fs.Offset+1])), nil

	default:
		return 0, fmt.Errorf("%w: field %s: unknown rule %d", ErrCallerMisuse, fs.Field, fs.Rule)
	}
}

// validateBlock checks a block spec before it is ever sent.
func validateBlock(spec BlockSpec) error {
	if spec.Count == 0 || spec.Count > MaxWordsPerExchange {
		return fmt.Errorf("%w: block %s: count %d outside 1..%d", ErrCallerMisuse, spec.Name, spec.Count, MaxWordsPerExchange)
	}
	for _, fs := range spec.Fields {
		width := 1
		if fs.Rule == HighLowWord {
			width = 2
		}
		if fs.Offset < 0 || fs.Offset+width > int(spec.Count) {
			return fmt.Errorf("%w: block %s: field %s offset %d outside block", ErrCallerMisuse, spec.Name, fs.Field, fs.Offset)
		}
	}
	return nil
}
