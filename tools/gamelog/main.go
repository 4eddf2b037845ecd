// Инспектор гейм-логов: печатает заголовок партии и по запросу
// восстанавливает финальное состояние, применяя дельты по порядку.
//
// Использование:
//
//	gamelog <файл.json.gz>          заголовок и количество дельт
//	gamelog -replay <файл.json.gz>  финальное состояние в JSON
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/siggame/Cerveau-sub002/internal/delta"
	"github.com/siggame/Cerveau-sub002/pkg/api"
)

func main() {
	replay := flag.Bool("replay", false, "replay deltas and print the final state")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gamelog [-replay] <file.json.gz>")
		os.Exit(2)
	}

	glog, err := read(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *replay {
		var state any = map[string]any{}
		sent := delta.DefaultSentinels()
		for _, d := range glog.Deltas {
			state = delta.Apply(state, d, sent)
		}
		out, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("game:    %s\n", glog.GameName)
	fmt.Printf("session: %s\n", glog.GameSession)
	fmt.Printf("played:  %s\n", time.UnixMilli(glog.Epoch).Format(time.RFC3339))
	fmt.Printf("deltas:  %d\n", len(glog.Deltas))
	fmt.Printf("winners: %v\n", glog.Winners)
	fmt.Printf("losers:  %v\n", glog.Losers)
}

func read(path string) (*api.Gamelog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer zr.Close()

	var glog api.Gamelog
	if err := json.NewDecoder(zr).Decode(&glog); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &glog, nil
}
