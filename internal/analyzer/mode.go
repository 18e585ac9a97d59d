package analyzer

import "errors"

// Mode selects an analyzer operation. Each mode maps to a fixed flag set
// appended after the staged spec path on the analyzer command line.
type Mode string

const (
	ModeParse    Mode = "parse"
	ModeCompile  Mode = "compile"
	ModeCompose  Mode = "compose"
	ModeSafety   Mode = "safety"
	ModeProgress Mode = "progress"
	ModeLTL      Mode = "ltl"
)

// DefaultProcess is the composite process the analyzer targets when a
// request does not name one.
const DefaultProcess = "DEFAULT"

var (
	ErrUnknownMode      = errors.New("analyzer: unknown mode")
	ErrEmptyContent     = errors.New("analyzer: spec content is empty")
	ErrPropertyRequired = errors.New("analyzer: ltl mode requires a property name")
)

// Args derives the analyzer flag set for this mode.
func (m Mode) Args(process, property string) ([]string, error) {
	switch m {
	case ModeParse:
		return []string{"-b", "parse"}, nil
	case ModeCompile:
		return []string{"-b", "compile", "-p", process}, nil
	case ModeCompose:
		return []string{"-b", "compose", "-p", process}, nil
	case ModeSafety:
		return []string{"-c", "safety", "-p", process}, nil
	case ModeProgress:
		return []string{"-c", "progress", "-p", process}, nil
	case ModeLTL:
		if property == "" {
			return nil, ErrPropertyRequired
		}
		return []string{"-c", "ltl_property", "-p", process, "-l", property}, nil
	default:
		return nil, ErrUnknownMode
	}
}
