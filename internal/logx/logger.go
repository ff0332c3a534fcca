package logx

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/aunum/log"
	"github.com/gammazero/deque"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EnsureDir creates dir if it does not exist. An existing directory is not
// an error; an existing non-directory or a real I/O failure is.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

type column struct {
	key   string
	value string
}

// EpochLogger accumulates scalar statistics between epoch boundaries and
// flushes one tabular row per epoch to stdout and to progress.txt under the
// run directory.
type EpochLogger struct {
	OutputDir string

	vals    map[string]*deque.Deque[float64]
	row     []column
	headers []string
	file    *os.File
}

func NewEpochLogger(outputDir string) (*EpochLogger, error) {
	if err := EnsureDir(outputDir); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(outputDir, "progress.txt"))
	if err != nil {
		return nil, err
	}
	log.Infof("logging run data to %s", outputDir)
	return &EpochLogger{
		OutputDir: outputDir,
		vals:      make(map[string]*deque.Deque[float64]),
		file:      f,
	}, nil
}

// Store appends values under key for aggregation at the next epoch dump.
func (l *EpochLogger) Store(key string, vals ...float64) {
	q, ok := l.vals[key]
	if !ok {
		q = deque.New[float64]()
		l.vals[key] = q
	}
	for _, v := range vals {
		q.PushBack(v)
	}
}

// Mean returns the average of the values currently stored under key. The
// second return is false when nothing is stored.
func (l *EpochLogger) Mean(key string) (float64, bool) {
	vs := l.collect(key)
	if len(vs) == 0 {
		return 0, false
	}
	return stat.Mean(vs, nil), true
}

// LogTabular records one already-aggregated value for the current row.
func (l *EpochLogger) LogTabular(key string, val float64) {
	l.row = append(l.row, column{key, fmt.Sprintf("%.6g", val)})
}

// LogEpochStats aggregates and clears everything stored under key since the
// last dump. With minMax it reports average, std, min and max; otherwise
// average only.
func (l *EpochLogger) LogEpochStats(key string, minMax bool) {
	vs := l.collect(key)
	if q := l.vals[key]; q != nil {
		q.Clear()
	}
	if len(vs) == 0 {
		l.LogTabular(key+"_avg", math.NaN())
		if minMax {
			l.LogTabular(key+"_std", math.NaN())
			l.LogTabular(key+"_min", math.NaN())
			l.LogTabular(key+"_max", math.NaN())
		}
		return
	}
	l.LogTabular(key+"_avg", stat.Mean(vs, nil))
	if minMax {
		l.LogTabular(key+"_std", stat.StdDev(vs, nil))
		l.LogTabular(key+"_min", floats.Min(vs))
		l.LogTabular(key+"_max", floats.Max(vs))
	}
}

// Dump flushes the current row: a table on stdout, one tab-separated line
// in progress.txt. The header is fixed by the first dump.
func (l *EpochLogger) Dump() {
	if l.headers == nil {
		for _, c := range l.row {
			l.headers = append(l.headers, c.key)
		}
		fmt.Fprintln(l.file, strings.Join(l.headers, "\t"))
	}

	width := 0
	for _, c := range l.row {
		if len(c.key) > width {
			width = len(c.key)
		}
	}
	sep := strings.Repeat("-", width+22)
	fmt.Println(sep)
	values := make([]string, 0, len(l.row))
	for _, c := range l.row {
		fmt.Printf("| %*s | %15s |\n", width, c.key, c.value)
		values = append(values, c.value)
	}
	fmt.Println(sep)

	fmt.Fprintln(l.file, strings.Join(values, "\t"))
	l.row = l.row[:0]
}

func (l *EpochLogger) Close() error {
	return l.file.Close()
}

func (l *EpochLogger) collect(key string) []float64 {
	q := l.vals[key]
	if q == nil {
		return nil
	}
	vs := make([]float64, q.Len())
	for i := range vs {
		vs[i] = q.At(i)
	}
	return vs
}
