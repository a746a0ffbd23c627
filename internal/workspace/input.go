package workspace

import (
	"encoding/binary"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/purity/internal/analyzer"
	"github.com/standardbeagle/purity/internal/config"
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/purity"
)

// KnownSymbols maps the configured list files onto registry categories.
// Paths are resolved against the project root.
func KnownSymbols(cfg *config.Config) analyzer.KnownSymbols {
	resolve := func(paths []string) []string {
		out := make([]string, 0, len(paths))
		for _, p := range paths {
			out = append(out, cfg.Resolve(p))
		}
		return out
	}
	k := cfg.Known
	return analyzer.KnownSymbols{
		Defaults: k.Defaults,
		Lists: map[knownsymbols.Category][]string{
			knownsymbols.PureMethods:                  resolve(k.PureMethods),
			knownsymbols.PureExceptLocallyMethods:     resolve(k.PureExceptLocallyMethods),
			knownsymbols.PureExceptReadLocallyMethods: resolve(k.PureExceptReadLocallyMethods),
			knownsymbols.ReturnsNewObjectMethods:      resolve(k.ReturnsNewObjectMethods),
			knownsymbols.PureTypes:                    resolve(k.PureTypes),
			knownsymbols.NotUsedAsObject:              resolve(k.NotUsedAsObject),
		},
		Bundles: resolve(k.Bundles),
	}
}

// PureLambdas converts the configured pure-lambda sites
func PureLambdas(cfg *config.Config) []purity.PureLambda {
	out := make([]purity.PureLambda, 0, len(cfg.PureLambdas))
	for _, p := range cfg.PureLambdas {
		out = append(out, purity.PureLambda{Type: p.Type, Method: p.Method, Arg: p.Arg})
	}
	return out
}

// Input assembles the analyzer input of a run
func Input(cfg *config.Config, files *Files) analyzer.Input {
	return analyzer.Input{
		Sources:    files.Sources,
		References: files.References,
		Known:      KnownSymbols(cfg),
		Options: analyzer.Options{
			Workers:     cfg.Performance.Workers,
			PureLambdas: PureLambdas(cfg),
		},
	}
}

// Digest fingerprints everything that can change the outcome of a run:
// salt (usually the tool version), the settings that reach the analyzer,
// the contents of the list files and every input file. Unreadable list
// files hash as empty, matching the registry which skips them with a
// warning.
func Digest(salt string, cfg *config.Config, files *Files) uint64 {
	d := xxhash.New()
	field := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	blob := func(b []byte) {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
		_, _ = d.Write(n[:])
		_, _ = d.Write(b)
	}

	field(salt)
	known := KnownSymbols(cfg)
	field(strconv.FormatBool(known.Defaults))
	for _, c := range knownsymbols.Categories() {
		field(c.String())
		for _, path := range known.Lists[c] {
			field(path)
			data, _ := os.ReadFile(path)
			blob(data)
		}
	}
	field("bundles")
	for _, path := range known.Bundles {
		field(path)
		data, _ := os.ReadFile(path)
		blob(data)
	}
	field("lambdas")
	for _, p := range PureLambdas(cfg) {
		field(p.String())
	}

	field("sources")
	for _, f := range files.Sources {
		field(f.Path)
		blob(f.Content)
	}
	field("references")
	for _, f := range files.References {
		field(f.Path)
		blob(f.Content)
	}
	return d.Sum64()
}
