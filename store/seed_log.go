package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// SeedLog records which benchmark seeds have finished so an interrupted run
// can resume without replaying them.
//
// Format: one decimal seed per line. Unparseable lines (a torn final write)
// are skipped on load.
type SeedLog struct {
	mu   sync.RWMutex
	file *os.File
	done map[int64]struct{}
}

func OpenSeedLog(path string) (*SeedLog, error) {
	if path == "" {
		return nil, fmt.Errorf("seed log path is required")
	}
	done := make(map[int64]struct{})

	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			seed, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
			if err != nil {
				continue
			}
			done[seed] = struct{}{}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create seed log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open seed log: %w", err)
	}
	return &SeedLog{file: file, done: done}, nil
}

func (l *SeedLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *SeedLog) Has(seed int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.done[seed]
	return ok
}

func (l *SeedLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.done)
}

// AddMany appends the seeds not yet recorded and syncs once.
func (l *SeedLog) AddMany(seeds []int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("seed log is closed")
	}

	var sb strings.Builder
	added := make([]int64, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := l.done[s]; ok {
			continue
		}
		l.done[s] = struct{}{}
		sb.WriteString(strconv.FormatInt(s, 10))
		sb.WriteByte('\n')
		added = append(added, s)
	}
	if len(added) == 0 {
		return nil
	}
	rollback := func() {
		for _, s := range added {
			delete(l.done, s)
		}
	}
	if _, err := l.file.WriteString(sb.String()); err != nil {
		rollback()
		return fmt.Errorf("append seed log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		rollback()
		return fmt.Errorf("sync seed log: %w", err)
	}
	return nil
}
