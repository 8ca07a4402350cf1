// internal/poller/registers.go
package poller

import "github.com/tamzrod/solis-logger/internal/snapshot"

// MaxWordsPerExchange is the largest block the inverter answers reliably.
const MaxWordsPerExchange = 50

// Solis input register map. Addresses are zero-based read addresses.
var (
	blockPower = BlockSpec{
		Name:  "power",
		Start: 3004,
		Count: 4,
		Fields: []FieldDecodeSpec{
			{Field: snapshot.Power, Offset: 1},
			{Field: snapshot.DCPower, Offset: 3},
		},
	}

	blockDayEnergy = BlockSpec{
		Name:  "day-energy",
		Start: 3014,
		Count: 2,
		Fields: []FieldDecodeSpec{
			{Field: snapshot.EnergyToday, Offset: 0, Scale: 10},
			{Field: snapshot.EnergyLastDay, Offset: 1, Scale: 10},
		},
	}

	blockDC = BlockSpec{
		Name:  "dc",
		Start: 3021,
		Count: 2,
		Fields: []FieldDecodeSpec{
			{Field: snapshot.DCVoltage, Offset: 0, Scale: 10},
			{Field: snapshot.DCCurrent, Offset: 1, Scale: 10},
		},
	}

	blockAC = BlockSpec{
		Name:  "ac",
		Start: 3035,
		Count: 10,
		Fields: []FieldDecodeSpec{
			{Field: snapshot.ACVoltage, Offset: 0, Scale: 10},
			{Field: snapshot.ACCurrent, Offset: 3, Scale: 10},
			{Field: snapshot.Temperature, Offset: 6, Scale: 10},
			{Field: snapshot.ACFrequency, Offset: 7, Scale: 100, Max: 100},
		},
	}

	blockTotalEnergy = BlockSpec{
		Name:  "total-energy",
		Start: 3008,
		Count: 2,
		Fields: []FieldDecodeSpec{
			{Field: snapshot.TotalEnergy, Offset: 0, Rule: HighLowWord},
		},
	}

	blockMonthEnergy = BlockSpec{
		Name:  "month-energy",
		Start: 3010,
		Count: 4,
		Fields: []FieldDecodeSpec{
			{Field: snapshot.EnergyThisMonth, Offset: 0, Rule: HighLowWord},
			{Field: snapshot.EnergyLastMonth, Offset: 2, Rule: HighLowWord},
		},
	}

	blockYearEnergy = BlockSpec{
		Name:  "year-energy",
		Start: 3016,
		Count: 4,
		Fields: []FieldDecodeSpec{
			{Field: snapshot.EnergyThisYear, Offset: 0, Rule: HighLowWord},
			{Field: snapshot.EnergyLastYear, Offset: 2, Rule: HighLowWord},
		},
	}
)

// groupBlocks lists the blocks of each group in issue order.
var groupBlocks = map[Group][]BlockSpec{
	GroupPower:     {blockPower, blockDayEnergy, blockDC, blockAC},
	GroupDayEnergy: {blockDayEnergy},
	GroupMonthYear: {blockTotalEnergy, blockMonthEnergy, blockYearEnergy},
	GroupAll: {
		blockPower, blockDayEnergy, blockDC, blockAC,
		blockTotalEnergy, blockMonthEnergy, blockYearEnergy,
	},
}

// Blocks returns the block list of g.
func Blocks(g Group) []BlockSpec {
	return groupBlocks[g]
}

// instantaneousFields returns the live fields a group decodes.
// These are zeroed when the group fails.
func instantaneousFields(blocks []BlockSpec) []snapshot.Field {
	var out []snapshot.Field
	seen := make(map[snapshot.Field]bool)
	for _, b := range blocks {
		for _, fs := range b.Fields {
			if fs.Field.Instantaneous() && !seen[fs.Field] {
				seen[fs.Field] = true
				out = append(out, fs.Field)
			}
		}
	}
	return out
}
