package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/lockstep/bsp"
)

// pingCmd makes every peer send a greeting to its right neighbor and
// print the one it receives after the barrier.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Each peer pings its right neighbor",
	Run: func(cmd *cobra.Command, args []string) {
		runPeers(pingPeer)
	},
}

func pingPeer(s *bsp.Session) {
	next := (s.ProcessID() + 1) % s.ProcessCount()

	msg := bsp.Blob(fmt.Sprintf("ping from %d", s.ProcessID()))
	err := s.Send(msg, next)
	if err != nil {
		panic(err)
	}

	s.Sync()

	objs, err := s.ReceiveAll()
	if err != nil {
		panic(err)
	}

	for _, obj := range objs {
		fmt.Printf("peer %d received %q\n",
			s.ProcessID(), string(obj.(bsp.Blob)))
	}

	s.Sync()
}
