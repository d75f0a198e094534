// Package file implements the portfolio and trade log stores as human-readable
// JSON files. Writes go to a temporary file in the same directory followed by
// an atomic rename, so a crash mid-write can never truncate the live snapshot.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/crossbook/paperbot/internal/domain"
)

// Store persists the portfolio snapshot and the trade history as two
// independent JSON files. It implements domain.PortfolioStore and
// domain.TradeLogStore.
type Store struct {
	portfolioPath string
	tradesPath    string
}

// New creates a Store writing the portfolio to portfolioPath and the trade
// history to tradesPath. Parent directories are created on first write.
func New(portfolioPath, tradesPath string) *Store {
	return &Store{
		portfolioPath: portfolioPath,
		tradesPath:    tradesPath,
	}
}

// SavePortfolio writes the full snapshot.
func (s *Store) SavePortfolio(snap domain.PortfolioSnapshot) error {
	return writeJSON(s.portfolioPath, snap)
}

// LoadPortfolio reads the snapshot. A missing file returns ok=false with a
// nil error; an unreadable or corrupt file returns ok=false with the error.
func (s *Store) LoadPortfolio() (domain.PortfolioSnapshot, bool, error) {
	var snap domain.PortfolioSnapshot
	ok, err := readJSON(s.portfolioPath, &snap)
	return snap, ok, err
}

// SaveTrades writes the full trade history.
func (s *Store) SaveTrades(trades []domain.TradeRecord) error {
	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	return writeJSON(s.tradesPath, trades)
}

// LoadTrades reads the trade history. Missing file semantics match
// LoadPortfolio.
func (s *Store) LoadTrades() ([]domain.TradeRecord, bool, error) {
	var trades []domain.TradeRecord
	ok, err := readJSON(s.tradesPath, &trades)
	return trades, ok, err
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("file: create dir for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("file: marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("file: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("file: write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file: close temp for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file: rename temp to %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("file: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("file: parse %s: %w", path, err)
	}
	return true, nil
}
