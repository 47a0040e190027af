// Command replay re-applies a match journal, as returned by
// GET /api/v1/matches/{id}/actions, and prints the digest of the final state.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/veche/internal/logger"
	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/internal/service"
	"github.com/freeeve/veche/pkg/veche"
)

func main() {
	logger.Init()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	journal := fs.String("journal", "-", "journal JSON file (- for stdin)")
	deterministic := fs.Bool("deterministic", false, "match draws events in catalog order")
	expect := fs.String("expect", "", "expected state digest; exit 1 on mismatch")
	printState := fs.Bool("state", false, "print the final state as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	in := stdin
	if *journal != "-" {
		f, err := os.Open(*journal)
		if err != nil {
			log.Error().Err(err).Str("file", *journal).Msg("Failed to open journal")
			return 2
		}
		defer f.Close()
		in = f
	}

	var recs []model.ActionRecord
	if err := json.NewDecoder(in).Decode(&recs); err != nil {
		log.Error().Err(err).Msg("Failed to decode journal")
		return 2
	}

	e := veche.NewEngine(veche.WithDeterministic(*deterministic))
	gs, err := service.ReplayJournal(e, recs)
	if err != nil {
		log.Error().Err(err).Msg("Replay failed")
		return 1
	}
	data, err := json.Marshal(gs)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode state")
		return 1
	}
	digest := service.StateDigest(data)

	fmt.Fprintf(stdout, "actions: %d\nturn: %d\nphase: %s\ndigest: %s\n", len(recs), gs.Turn, gs.Phase, digest)
	if *printState {
		fmt.Fprintf(stdout, "%s\n", data)
	}
	if *expect != "" && *expect != digest {
		log.Error().Str("expected", *expect).Str("actual", digest).Msg("Digest mismatch")
		return 1
	}
	return 0
}
