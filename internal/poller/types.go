// internal/poller/types.go
package poller

import (
	"errors"
	"time"

	"github.com/tamzrod/solis-logger/internal/snapshot"
)

// Group names an orchestrated set of register blocks.
type Group uint8

const (
	GroupPower Group = iota + 1
	GroupDayEnergy
	GroupMonthYear
	GroupAll
)

func (g Group) String() string {
	switch g {
	case GroupPower:
		return "power"
	case GroupDayEnergy:
		return "day-energy"
	case GroupMonthYear:
		return "month-year"
	case GroupAll:
		return "all"
	default:
		return "unknown"
	}
}

// CombineRule tells how raw words become one value.
type CombineRule uint8

const (
	SingleWord CombineRule = iota // raw / scale
	HighLowWord                   // raw[i]*65536 + raw[i+1]
)

// FieldDecodeSpec maps one field to its position inside a block.
type FieldDecodeSpec struct {
	Field  snapshot.Field
	Offset int
	Rule   CombineRule
	Scale  float64 // divisor for SingleWord; 0 means 1
	Max    float64 // exclusive bound on the scaled value; 0 means none
}

// BlockSpec is one contiguous FC 0x04 read.
// Start is the zero-based read address (documented address - 1).
type BlockSpec struct {
	Name   string
	Start  uint16
	Count  uint16
	Fields []FieldDecodeSpec
}

// Outcome is the result of one sub-request inside an attempt.
type Outcome struct {
	Block string
	Err   error
}

// CycleResult describes one orchestrated poll of a group.
// Outcomes belong to the final attempt.
type CycleResult struct {
	Group     Group
	Attempts  int
	Outcomes  []Outcome
	Succeeded bool
	At        time.Time
	Duration  time.Duration
}

// AllSucceeded is derived from the outcome list.
func (r CycleResult) AllSucceeded() bool {
	if len(r.Outcomes) == 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return false
		}
	}
	return true
}

// Code ORs the status codes of the failed sub-requests; 0 on success.
func (r CycleResult) Code() uint16 {
	var code uint16
	for _, o := range r.Outcomes {
		if o.Err != nil {
			code |= errorCode(o.Err)
		}
	}
	return code
}

// Err joins the failed sub-requests of the final attempt.
func (r CycleResult) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
