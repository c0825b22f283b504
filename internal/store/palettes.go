package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/palette"
	"github.com/kovidgoyal/recolor/types"
)

// Key identifies a palette extraction: the image bytes, the converter and
// every parameter that affects the result.
func Key(data []byte, converter string, cfg types.Config) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(converter))
	var buf [8]byte
	for _, v := range []int{cfg.K, cfg.HistogramBins, cfg.MaxIterations} {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	for _, v := range []float64{cfg.SeedDelta, cfg.EPS} {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

type Record struct {
	Key       string
	Source    string
	Converter string
	Palette   palette.Palette
	CreatedAt time.Time
}

// Load returns the cached record for key, ok is false when there is none.
func (s *Store) Load(ctx context.Context, key string) (ans Record, ok bool, err error) {
	var colors, created string
	err = s.db.QueryRowContext(ctx,
		"SELECT key, source, converter, colors, created_at FROM palettes WHERE key = ?", key,
	).Scan(&ans.Key, &ans.Source, &ans.Converter, &colors, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ans, false, nil
	}
	if err != nil {
		return ans, false, fmt.Errorf("load palette %s: %w", key, err)
	}
	var raw [][3]float64
	if err = json.Unmarshal([]byte(colors), &raw); err != nil {
		return ans, false, fmt.Errorf("decode palette %s: %w", key, err)
	}
	ans.Palette = make(palette.Palette, len(raw))
	for i, c := range raw {
		ans.Palette[i] = lab.Color(c)
	}
	if ans.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return ans, false, fmt.Errorf("decode palette %s timestamp: %w", key, err)
	}
	log.Debugf("palette cache hit for %s", key)
	return ans, true, nil
}

// Save stores r, replacing any existing record with the same key.
func (s *Store) Save(ctx context.Context, r Record) error {
	raw := make([][3]float64, len(r.Palette))
	for i, c := range r.Palette {
		raw[i] = c
	}
	colors, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode palette %s: %w", r.Key, err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if _, err = s.db.ExecContext(ctx, `
		INSERT INTO palettes(key, source, converter, k, colors, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			source = excluded.source, converter = excluded.converter, k = excluded.k,
			colors = excluded.colors, created_at = excluded.created_at
	`, r.Key, r.Source, r.Converter, len(r.Palette), string(colors), r.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save palette %s: %w", r.Key, err)
	}
	return nil
}

// Delete removes the record for key, it is not an error if there is none.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM palettes WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete palette %s: %w", key, err)
	}
	return nil
}

// Sources lists the source names of the cached palettes, most recent first.
func (s *Store) Sources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT source FROM palettes ORDER BY created_at DESC, source")
	if err != nil {
		return nil, fmt.Errorf("list palettes: %w", err)
	}
	defer rows.Close()
	var ans []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("list palettes: %w", err)
		}
		ans = append(ans, s)
	}
	return ans, rows.Err()
}
