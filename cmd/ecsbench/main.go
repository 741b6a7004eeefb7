// Command ecsbench builds a small synthetic world, runs it for a fixed
// number of ticks, and reports pool occupancy and memory footprint. It
// exists as a developer harness for exercising World/Update/Compile
// against a workload larger than a unit test bothers with.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hengle/ecscore/ecs"
	"github.com/hengle/ecscore/ecs/field"
)

var (
	entityCount int
	tickCount   int
	verbose     bool
)

const (
	typePosition ecs.TypeID = 1
	typeVelocity ecs.TypeID = 2
	typeDead     ecs.TypeID = 3
)

var posFields = []field.Spec{
	{Name: "x", Type: field.Float32, Offset: 0},
	{Name: "y", Type: field.Float32, Offset: 4},
}

var velFields = []field.Spec{
	{Name: "dx", Type: field.Float32, Offset: 0},
	{Name: "dy", Type: field.Float32, Offset: 4},
}

var rootCmd = &cobra.Command{
	Use:   "ecsbench",
	Short: "Run a synthetic ECS workload and report pool occupancy",
	Long: `ecsbench builds a world with position/velocity components over a
fixed population of entities, steps it for a number of ticks (moving
every entity, tagging the ones that leave the bounding box as dead, and
reaping them each tick), then prints final pool sizes and memory use.`,
	RunE: runBench,
}

func init() {
	rootCmd.Flags().IntVar(&entityCount, "entities", 1000, "number of entities to create")
	rootCmd.Flags().IntVar(&tickCount, "ticks", 100, "number of simulation ticks to run")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-tick occupancy")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ecsbench:", err)
		os.Exit(1)
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	w := ecs.NewWorld()
	w.DeclareType(typePosition, ecs.Data, 8, entityCount)
	w.DeclareType(typeVelocity, ecs.Data, 8, entityCount)
	w.DeclareType(typeDead, ecs.Tag, 0, 0)

	for i := 0; i < entityCount; i++ {
		id := w.NewEntity()
		w.AddComponent(id, typePosition, encodeXY(0, 0))
		w.AddComponent(id, typeVelocity, encodeXY(1, float32(i%3-1)))
	}

	movePlan := w.Compile([]ecs.KeySpec{
		{CID: typePosition, Name: "pos", Attribs: ecs.In | ecs.Out, Fields: posFields},
		{CID: typeVelocity, Name: "vel", Attribs: ecs.In, Fields: velFields},
	})
	deadPlan := w.Compile([]ecs.KeySpec{
		{CID: typePosition, Name: "pos", Attribs: ecs.In},
		{CID: typeDead, Name: "dead", Attribs: ecs.Out | ecs.Optional},
	})
	reapPlan := w.Compile([]ecs.KeySpec{
		{CID: typeDead, Name: "dead", Attribs: ecs.Existence},
	})

	for tick := 0; tick < tickCount; tick++ {
		stepPositions(w, movePlan)
		tagOutOfBounds(w, deadPlan)
		reapDead(w, reapPlan)
		w.Update()
		if verbose {
			reserved, live := w.Memory()
			fmt.Printf("tick %d: positions=%d reserved=%dB live=%dB\n", tick, w.Count(typePosition), reserved, live)
		}
	}

	reserved, live := w.Memory()
	fmt.Printf("final: positions=%d velocities=%d reserved=%dB live=%dB\n",
		w.Count(typePosition), w.Count(typeVelocity), reserved, live)
	return nil
}

func stepPositions(w *ecs.World, plan *ecs.Plan) {
	it := w.NewIterator(plan)
	for it.Next() {
		pos := it.Row().Slot("pos")
		vel := it.Row().Slot("vel")
		x := pos.Fields["x"].Float32() + vel.Fields["dx"].Float32()
		y := pos.Fields["y"].Float32() + vel.Fields["dy"].Float32()
		pos.SetField("x", field.Float32Value(x))
		pos.SetField("y", field.Float32Value(y))
	}
}

func tagOutOfBounds(w *ecs.World, plan *ecs.Plan) {
	it := w.NewIterator(plan)
	for it.Next() {
		pos := it.Row().Slot("pos")
		out := pos.Fields["y"].Float32() > 50 || pos.Fields["y"].Float32() < -50
		it.Row().Slot("dead").SetFlag(out)
	}
}

func reapDead(w *ecs.World, plan *ecs.Plan) {
	it := w.NewIterator(plan)
	for it.Next() {
		it.Remove()
	}
}

func encodeXY(x, y float32) []byte {
	buf := make([]byte, 8)
	_ = field.Encode(posFields[0], buf, field.Float32Value(x))
	_ = field.Encode(posFields[1], buf, field.Float32Value(y))
	return buf
}
