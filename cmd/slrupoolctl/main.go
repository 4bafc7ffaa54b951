// Command slrupoolctl is an operator tool for one SLRU pool directory: it
// can initialise a fresh directory, dump a page's bytes, force a
// checkpoint flush, truncate below a cutoff page, and print hit-ratio and
// counter stats. Each command opens its own pool instance, so the stats
// command reports the counters of a pool that has served no requests.
package main

import (
	"fmt"
	"os"

	pingcaperrors "github.com/pingcap/errors"
	flag "github.com/spf13/pflag"

	"github.com/zhukovaskychina/slrupool/internal/slru"
	"github.com/zhukovaskychina/slrupool/logger"
	"github.com/zhukovaskychina/slrupool/util"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	defer func() {
		if r := recover(); r != nil {
			err := pingcaperrors.Trace(fmt.Errorf("slrupoolctl: fatal: %v", r))
			fmt.Fprintln(os.Stderr, pingcaperrors.ErrorStack(err))
			os.Exit(1)
		}
	}()

	if len(args) < 2 {
		printUsage()
		return 2
	}

	switch args[1] {
	case "init":
		return cmdInit(args[2:])
	case "dump":
		return cmdDump(args[2:])
	case "flush":
		return cmdFlush(args[2:])
	case "truncate":
		return cmdTruncate(args[2:])
	case "stats":
		return cmdStats(args[2:])
	default:
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `slrupoolctl <command> [flags]

Commands:
  init      create an empty pool directory
  dump      print a page's bytes from disk
  flush     force a checkpoint flush
  truncate  discard pages below a cutoff
  stats     print pool hit/miss/flush counters`)
}

func commonFlags(name string) (*flag.FlagSet, *string, *uint32, *uint32) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	dir := fs.String("dir", "", "pool segment directory (required)")
	pageSize := fs.Uint32("page-size", slru.DefaultPageSize, "page size in bytes")
	pagesPerSeg := fs.Uint32("pages-per-segment", slru.DefaultPagesPerSegment, "pages per segment file")
	return fs, dir, pageSize, pagesPerSeg
}

func openPool(dir string, pageSize, pagesPerSeg uint32, slots uint32) (*slru.Pool, error) {
	return slru.New(slru.Config{
		Name:            "slrupoolctl",
		Directory:       dir,
		SlotCount:       slots,
		PageSize:        pageSize,
		PagesPerSegment: pagesPerSeg,
		Recovery:        true,
		FsyncEnabled:    true,
	})
}

func cmdInit(args []string) int {
	fs, dir, _, _ := commonFlags("init")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dir == "" {
		logger.Errorf("slrupoolctl init: --dir is required")
		return 2
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		logger.Errorf("slrupoolctl init: %v", err)
		return 1
	}
	logger.Infof("slrupoolctl: initialised %s", *dir)
	return 0
}

func cmdDump(args []string) int {
	fs, dir, pageSize, pagesPerSeg := commonFlags("dump")
	pageno := fs.Uint32("page", 0, "page number to dump")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dir == "" {
		logger.Errorf("slrupoolctl dump: --dir is required")
		return 2
	}
	p, err := openPool(*dir, *pageSize, *pagesPerSeg, 4)
	if err != nil {
		logger.Errorf("slrupoolctl dump: %v", err)
		return 1
	}
	p.Lock()
	_, buf, err := p.ReadPage(*pageno, false)
	p.Unlock()
	if err != nil {
		logger.Errorf("slrupoolctl dump: %v", err)
		return 1
	}
	fmt.Printf("%x\n", buf)
	fmt.Printf("xxhash64=%016x\n", util.HashCode(buf))
	return 0
}

func cmdFlush(args []string) int {
	fs, dir, pageSize, pagesPerSeg := commonFlags("flush")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dir == "" {
		logger.Errorf("slrupoolctl flush: --dir is required")
		return 2
	}
	p, err := openPool(*dir, *pageSize, *pagesPerSeg, 16)
	if err != nil {
		logger.Errorf("slrupoolctl flush: %v", err)
		return 1
	}
	if err := p.Flush(true); err != nil {
		logger.Errorf("slrupoolctl flush: %v", err)
		return 1
	}
	logger.Infof("slrupoolctl: checkpoint flush complete")
	return 0
}

func cmdTruncate(args []string) int {
	fs, dir, pageSize, pagesPerSeg := commonFlags("truncate")
	cutoff := fs.Uint32("cutoff", 0, "cutoff page number")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dir == "" {
		logger.Errorf("slrupoolctl truncate: --dir is required")
		return 2
	}
	p, err := openPool(*dir, *pageSize, *pagesPerSeg, 16)
	if err != nil {
		logger.Errorf("slrupoolctl truncate: %v", err)
		return 1
	}
	if err := p.TruncateWithLock(*cutoff); err != nil {
		logger.Errorf("slrupoolctl truncate: %v", err)
		return 1
	}
	logger.Infof("slrupoolctl: truncated below page %d", *cutoff)
	return 0
}

func cmdStats(args []string) int {
	fs, dir, pageSize, pagesPerSeg := commonFlags("stats")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dir == "" {
		logger.Errorf("slrupoolctl stats: --dir is required")
		return 2
	}
	p, err := openPool(*dir, *pageSize, *pagesPerSeg, 16)
	if err != nil {
		logger.Errorf("slrupoolctl stats: %v", err)
		return 1
	}
	s := p.Stats()
	fmt.Printf("hits=%d misses=%d hit_ratio=%.4f reads=%d writes=%d evictions=%d flush_requests=%d flush_failures=%d\n",
		s.Hits, s.Misses, s.HitRatio(), s.Reads, s.Writes, s.Evictions, s.FlushRequests, s.FlushFailed)
	return 0
}
