// Package quotes loads the JSON quote database used as practice content.
package quotes

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"
	"unicode"
)

// Difficulty buckets quotes for selection. The empty value matches any.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Quote is one practice text.
type Quote struct {
	Text       string     `json:"text"`
	Author     string     `json:"author,omitempty"`
	Category   string     `json:"category,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

//go:embed quotes.json
var embedded []byte

// DB is an in-memory quote collection.
type DB struct {
	quotes []Quote
	rnd    *rand.Rand
}

// LoadEmbedded loads the built-in quote set.
func LoadEmbedded() (*DB, error) {
	return parse(embedded)
}

// Load reads a quote database from a JSON file. An empty path loads the
// built-in set.
func Load(path string) (*DB, error) {
	if path == "" {
		return LoadEmbedded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quotes: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*DB, error) {
	var list []Quote
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode quotes: %w", err)
	}
	quotes := make([]Quote, 0, len(list))
	for _, q := range list {
		if q.Text == "" {
			continue
		}
		if q.Difficulty == "" {
			q.Difficulty = InferDifficulty(q.Text)
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("quote database is empty")
	}
	return &DB{
		quotes: quotes,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Len returns the number of quotes.
func (db *DB) Len() int {
	return len(db.quotes)
}

// All returns every quote.
func (db *DB) All() []Quote {
	return db.quotes
}

// Pick selects a random quote matching the difficulty. When nothing
// matches it falls back to the whole set.
func (db *DB) Pick(d Difficulty) Quote {
	pool := db.filter(d)
	return pool[db.rnd.Intn(len(pool))]
}

// PickWeighted selects a quote biased toward weak keys: each quote is
// weighted by 1 + factor * (occurrences of weak characters).
func (db *DB) PickWeighted(d Difficulty, weak map[rune]struct{}, factor float64) Quote {
	pool := db.filter(d)
	if len(weak) == 0 || factor <= 0 {
		return pool[db.rnd.Intn(len(pool))]
	}
	weights := make([]float64, len(pool))
	total := 0.0
	for i, q := range pool {
		weakCount := 0
		for _, r := range q.Text {
			if _, ok := weak[unicode.ToLower(r)]; ok {
				weakCount++
			}
		}
		w := 1.0 + float64(weakCount)*factor
		weights[i] = w
		total += w
	}
	r := db.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return pool[i]
		}
	}
	return pool[len(pool)-1]
}

func (db *DB) filter(d Difficulty) []Quote {
	if d == "" {
		return db.quotes
	}
	var pool []Quote
	for _, q := range db.quotes {
		if q.Difficulty == d {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return db.quotes
	}
	return pool
}

// InferDifficulty buckets a text by length and symbol density when the
// database does not label it.
func InferDifficulty(text string) Difficulty {
	runes := []rune(text)
	symbols := 0
	for _, r := range runes {
		if !unicode.IsLetter(r) && r != ' ' {
			symbols++
		}
	}
	density := float64(symbols) / float64(len(runes))
	switch {
	case len(runes) > 120 || density > 0.12:
		return Hard
	case len(runes) > 60 || density > 0.06:
		return Medium
	default:
		return Easy
	}
}
