package main

import (
	"io"

	"github.com/sugawarayuuta/sonnet"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/partition"
	"github.com/hupe1980/conductance/refine"
)

// Report is the JSON summary of a run.
type Report struct {
	Vertices       int           `json:"vertices"`
	Edges          int           `json:"edges"`
	K              int           `json:"k"`
	Seed           int64         `json:"seed"`
	StatsMode      string        `json:"stats_mode"`
	Initial        WorstBlock    `json:"initial"`
	Final          WorstBlock    `json:"final"`
	ObjectiveGain  int64         `json:"objective_gain"`
	Rounds         int           `json:"rounds"`
	Moves          int64         `json:"moves"`
	Reverted       int64         `json:"reverted"`
	StaleMoves     int64         `json:"stale_moves"`
	SkippedUpdates int64         `json:"skipped_updates"`
	ElapsedMillis  float64       `json:"elapsed_ms"`
	Consistent     bool          `json:"consistent"`
	Blocks         []BlockReport `json:"blocks"`
	Snapshot       string        `json:"snapshot,omitempty"`
}

// WorstBlock is the block with the highest conductance.
type WorstBlock struct {
	Partition   conductance.PartitionID `json:"partition"`
	Conductance float64                 `json:"conductance"`
}

// BlockReport holds the final statistics of one block.
type BlockReport struct {
	Partition   conductance.PartitionID `json:"partition"`
	Size        int                     `json:"size"`
	CutWeight   uint64                  `json:"cut_weight"`
	Volume      uint64                  `json:"volume"`
	Conductance float64                 `json:"conductance"`
}

func newReport(cfg *Config, mode conductance.StatsMode, g *partition.Graph, res refine.Result, consistent bool) *Report {
	r := &Report{
		Vertices:       g.NumVertices(),
		Edges:          g.NumEdges(),
		K:              g.K(),
		Seed:           cfg.Seed,
		StatsMode:      mode.String(),
		Initial:        worstBlock(res.Initial),
		Final:          worstBlock(res.Final),
		ObjectiveGain:  res.ObjectiveGain(),
		Rounds:         res.Rounds,
		Moves:          res.Moves,
		Reverted:       res.Reverted,
		StaleMoves:     res.StaleMoves,
		SkippedUpdates: res.SkippedUpdates,
		ElapsedMillis:  float64(res.Elapsed.Microseconds()) / 1000,
		Consistent:     consistent,
		Snapshot:       cfg.Snapshot,
	}
	for _, info := range conductance.Conductances(g, mode) {
		cut, volume := mode.BlockStats(g, info.Partition)
		r.Blocks = append(r.Blocks, BlockReport{
			Partition:   info.Partition,
			Size:        g.BlockSize(info.Partition),
			CutWeight:   cut,
			Volume:      volume,
			Conductance: info.Fraction.Value(),
		})
	}
	return r
}

func worstBlock(info conductance.Info) WorstBlock {
	return WorstBlock{Partition: info.Partition, Conductance: info.Fraction.Value()}
}

func writeReport(w io.Writer, r *Report) error {
	data, err := sonnet.Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
