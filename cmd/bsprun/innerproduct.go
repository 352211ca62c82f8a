package main

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/sarchlab/lockstep/bsp"
)

var vectorLength int

// innerProductCmd computes the inner product of two block-distributed
// vectors. Each peer multiplies its local blocks, ships the partial sum
// to every peer as a one-element array, and reduces after the barrier.
var innerProductCmd = &cobra.Command{
	Use:   "innerproduct",
	Short: "Compute a distributed inner product",
	Run: func(cmd *cobra.Command, args []string) {
		runPeers(innerProductPeer)
	},
}

func init() {
	innerProductCmd.Flags().IntVar(&vectorLength,
		"length", 1024,
		"global length of the two vectors")
}

func innerProductPeer(s *bsp.Session) {
	pid := s.ProcessID()
	nprocs := s.ProcessCount()

	// Cyclic distribution. x[i] = 1, y[i] = i, so the global result
	// is length*(length-1)/2.
	partial := 0.0
	for i := pid; i < vectorLength; i += nprocs {
		partial += 1.0 * float64(i)
	}

	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(partial))
	a := bsp.NewArrayFromData(bsp.ElemFloat64, []int{1}, data)

	for dst := 0; dst < nprocs; dst++ {
		err := s.Send(a, dst)
		if err != nil {
			panic(err)
		}
	}

	s.Sync()

	sum := 0.0
	objs, err := s.ReceiveAll()
	if err != nil {
		panic(err)
	}

	for _, obj := range objs {
		arr := obj.(*bsp.Array)
		bits := binary.LittleEndian.Uint64(arr.Data())
		sum += math.Float64frombits(bits)
	}

	fmt.Printf("peer %d: inner product = %g\n", pid, sum)

	s.Sync()
}
