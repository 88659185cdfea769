package memory

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"legal-battle-service/internal/domain"
)

//go:embed decks/builtin.yaml
var builtinDecks []byte

// BuiltinDeckLoader serves the decks shipped with the binary.
func BuiltinDeckLoader() (*StaticDeckLoader, error) {
	decks, err := ParseDecks(builtinDecks)
	if err != nil {
		return nil, fmt.Errorf("builtin decks: %w", err)
	}
	return NewStaticDeckLoader(decks), nil
}

// FileDeckLoader reads a YAML list of decks from path.
func FileDeckLoader(path string) (*StaticDeckLoader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck file: %w", err)
	}
	decks, err := ParseDecks(raw)
	if err != nil {
		return nil, fmt.Errorf("deck file %s: %w", path, err)
	}
	return NewStaticDeckLoader(decks), nil
}

// ParseDecks decodes a YAML list of decks keyed by id. Every question must
// list its correct answer among its options.
func ParseDecks(raw []byte) (map[string]domain.Deck, error) {
	var list []domain.Deck
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	decks := make(map[string]domain.Deck, len(list))
	for _, d := range list {
		if d.ID == "" {
			return nil, errors.New("deck without id")
		}
		if _, dup := decks[d.ID]; dup {
			return nil, fmt.Errorf("duplicate deck %q", d.ID)
		}
		for _, q := range d.Questions {
			if !q.HasOption(q.CorrectAnswer) {
				return nil, fmt.Errorf("deck %q question %q: correct answer is not an option", d.ID, q.ID)
			}
		}
		decks[d.ID] = d
	}
	return decks, nil
}
