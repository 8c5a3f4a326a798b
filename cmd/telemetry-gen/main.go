// telemetry-gen emits wire-format telemetry fixtures: newline-delimited JSON
// records carrying random unit quaternions and an increasing device clock.
// Useful for dev-mode replay and for exercising the decoder with realistic
// input.
package main

import (
	"bufio"
	"flag"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/wycontir/rocketviewer/internal/telemetry"
)

var (
	count   = flag.Int("n", 100, "Number of records to generate")
	out     = flag.String("out", "-", "Output file, - for stdout")
	seed    = flag.Int64("seed", 1, "Random seed")
	startMs = flag.Uint("start", 0, "Starting device time in milliseconds")
	stepMs  = flag.Uint("step", 16, "Device time increment per record")
)

func main() {
	flag.Parse()

	w := os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	rng := rand.New(rand.NewSource(*seed))
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	t := uint32(*startMs)
	for i := 0; i < *count; i++ {
		rec := randomRecord(rng, t)
		line, err := rec.EncodeWire()
		if err != nil {
			log.Fatalf("failed to encode record: %v", err)
		}
		bw.Write(line)
		bw.WriteByte('\n')
		t += uint32(*stepMs)
	}
}

// randomRecord draws a uniformly random unit quaternion.
func randomRecord(rng *rand.Rand, t uint32) telemetry.Record {
	x := rng.NormFloat64()
	y := rng.NormFloat64()
	z := rng.NormFloat64()
	w := rng.NormFloat64()
	n := math.Sqrt(x*x + y*y + z*z + w*w)
	if n == 0 {
		return telemetry.Record{W: 1, Time: t}
	}
	return telemetry.Record{
		X:    float32(x / n),
		Y:    float32(y / n),
		Z:    float32(z / n),
		W:    float32(w / n),
		Time: t,
	}
}
