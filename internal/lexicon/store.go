package lexicon

import (
	"log/slog"
	"sync"
)

// Store hands out one lexicon per process. The resource is read on the first
// Load; later calls return the same instance.
type Store struct {
	path string
	once sync.Once
	lex  *Lexicon
}

// NewStore creates a store for the lexicon at path. An empty path selects the
// embedded default lexicon.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() *Lexicon {
	s.once.Do(func() {
		s.lex = s.load()
	})
	return s.lex
}

func (s *Store) load() *Lexicon {
	if s.path == "" {
		lex := Default()
		slog.Info("[Lexicon] Loaded embedded lexicon", slog.Int("words", lex.Len()))
		return lex
	}

	lex, err := LoadFile(s.path)
	if err != nil {
		slog.Warn("[Lexicon] Lexicon unavailable, every text will score neutral",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return Empty()
	}

	slog.Info("[Lexicon] Loaded lexicon",
		slog.String("path", s.path),
		slog.Int("positif", lex.Count(CategoryPositive)),
		slog.Int("negatif", lex.Count(CategoryNegative)),
		slog.Int("negator", lex.Count(CategoryNegator)),
		slog.Int("intensifier", lex.Count(CategoryIntensifier)))
	return lex
}
