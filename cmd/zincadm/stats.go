package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type bucketView struct {
	Priority   int    `json:"Priority"`
	Queued     int    `json:"Queued"`
	Inserted   uint64 `json:"Inserted"`
	Merged     uint64 `json:"Merged"`
	Dispatched uint64 `json:"Dispatched"`
	Completed  uint64 `json:"Completed"`
}

var priorityNames = []string{"real-time", "best-effort", "idle"}

func (b bucketView) priorityName() string {
	if b.Priority >= 0 && b.Priority < len(priorityNames) {
		return priorityNames[b.Priority]
	}
	return "unknown"
}

var statsBucketsCmd = &cobra.Command{
	Use:   "stats buckets",
	Short: "Dump per-priority queue depths and lifetime counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := devicePath("/stats/buckets")
		if err != nil {
			return err
		}
		var buckets []bucketView
		if err := getJSON(path, &buckets); err != nil {
			return err
		}
		for _, b := range buckets {
			fmt.Printf("%-12s queued=%-6d inserted=%-8d merged=%-8d dispatched=%-8d completed=%-8d\n",
				b.priorityName(), b.Queued, b.Inserted, b.Merged, b.Dispatched, b.Completed)
		}
		return nil
	},
}

type gateView struct {
	ResetQueued    int     `json:"ResetQueued"`
	FinishQueued   int     `json:"FinishQueued"`
	ResetHoldMean  float64 `json:"ResetHoldMean"`
	FinishHoldMean float64 `json:"FinishHoldMean"`
	ResetHoldP99   int64   `json:"ResetHoldP99"`
	FinishHoldP99  int64   `json:"FinishHoldP99"`
}

var statsGateCmd = &cobra.Command{
	Use:   "stats gate",
	Short: "Dump the management gate's queue depths and hold-latency distributions",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := devicePath("/stats/gate")
		if err != nil {
			return err
		}
		var g gateView
		if err := getJSON(path, &g); err != nil {
			return err
		}
		fmt.Printf("reset:  queued=%-4d hold_mean=%.2f hold_p99=%d\n", g.ResetQueued, g.ResetHoldMean, g.ResetHoldP99)
		fmt.Printf("finish: queued=%-4d hold_mean=%.2f hold_p99=%d\n", g.FinishQueued, g.FinishHoldMean, g.FinishHoldP99)
		return nil
	},
}

type dispatchView struct {
	Batching int `json:"batching"`
	Starved  int `json:"starved"`
}

var statsDispatchCmd = &cobra.Command{
	Use:   "stats dispatch",
	Short: "Dump the dispatch engine's scheduler-wide batching/starvation state",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := devicePath("/stats/dispatch")
		if err != nil {
			return err
		}
		var d dispatchView
		if err := getJSON(path, &d); err != nil {
			return err
		}
		fmt.Printf("batching=%d starved=%d\n", d.Batching, d.Starved)
		return nil
	},
}
