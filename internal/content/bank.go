// internal/content/bank.go
package content

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/wordclash/server/internal/models"
)

// Bank is an in-process content provider backed by a fixed item set. It is
// the default provider and the fallback when a remote source fails.
type Bank struct {
	mu    sync.Mutex
	rng   *rand.Rand
	items map[models.GameMode]map[models.Difficulty][]models.ContentItem
}

// NewBank creates a Bank seeded with the built-in item set.
func NewBank(seed int64) *Bank {
	b := &Bank{
		rng:   rand.New(rand.NewSource(seed)),
		items: make(map[models.GameMode]map[models.Difficulty][]models.ContentItem),
	}
	for _, it := range builtinItems {
		byTier, ok := b.items[it.Mode]
		if !ok {
			byTier = make(map[models.Difficulty][]models.ContentItem)
			b.items[it.Mode] = byTier
		}
		byTier[it.Difficulty] = append(byTier[it.Difficulty], it)
	}
	return b
}

// Fetch picks a pseudo-random item for the mode, preferring the requested
// difficulty tier and falling back to any tier of the mode.
func (b *Bank) Fetch(_ context.Context, mode models.GameMode, difficulty models.Difficulty) (*models.ContentItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	byTier, ok := b.items[mode]
	if !ok || len(byTier) == 0 {
		return nil, ErrUnavailable
	}

	pool := byTier[difficulty]
	if len(pool) == 0 {
		for _, items := range byTier {
			pool = append(pool, items...)
		}
	}
	if len(pool) == 0 {
		return nil, ErrUnavailable
	}

	item := pool[b.rng.Intn(len(pool))]
	item.ID = uuid.New()
	return &item, nil
}

// builtinItems is the embedded quiz bank. Each delivered copy gets a fresh ID.
var builtinItems = []models.ContentItem{
	// Spelling, easy.
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyEasy, Word: "apple", Definition: "A round fruit with red or green skin.", ExampleUsage: "She ate an apple with her lunch.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyEasy, Word: "bridge", Definition: "A structure carrying a road across a river.", ExampleUsage: "We walked across the bridge.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyEasy, Word: "animal", Definition: "A living organism that feeds on organic matter.", ExampleUsage: "The zoo has every animal you can imagine.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyEasy, Word: "window", Definition: "An opening in a wall fitted with glass.", ExampleUsage: "He looked out the window at the rain.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyEasy, Word: "garden", Definition: "A piece of ground used to grow flowers or vegetables.", ExampleUsage: "They planted tomatoes in the garden.", PartOfSpeech: "noun"},

	// Spelling, medium.
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyMedium, Word: "necessary", Definition: "Required to be done; essential.", ExampleUsage: "Sleep is necessary for good health.", PartOfSpeech: "adjective"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyMedium, Word: "rhythm", Definition: "A strong, regular repeated pattern of movement or sound.", ExampleUsage: "The drummer kept a steady rhythm.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyMedium, Word: "separate", Definition: "Forming or viewed as a unit apart.", ExampleUsage: "Keep the raw meat separate from the vegetables.", PartOfSpeech: "adjective"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyMedium, Word: "committee", Definition: "A group of people appointed for a specific function.", ExampleUsage: "The committee meets every Tuesday.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyMedium, Word: "embarrass", Definition: "To cause someone to feel awkward or ashamed.", ExampleUsage: "Don't embarrass me in front of my friends.", PartOfSpeech: "verb"},

	// Spelling, hard.
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyHard, Word: "conscientious", Definition: "Wishing to do what is right; thorough.", ExampleUsage: "She is a conscientious student.", PartOfSpeech: "adjective"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyHard, Word: "onomatopoeia", Definition: "A word formed from the sound it describes.", ExampleUsage: "The word buzz is an example of onomatopoeia.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyHard, Word: "bureaucracy", Definition: "A system of government with many departments and rules.", ExampleUsage: "The permit was delayed by bureaucracy.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyHard, Word: "surveillance", Definition: "Close observation of a person or group.", ExampleUsage: "The suspect was kept under surveillance.", PartOfSpeech: "noun"},
	{Mode: models.ModeSpelling, Difficulty: models.DifficultyHard, Word: "idiosyncrasy", Definition: "A mode of behavior peculiar to an individual.", ExampleUsage: "Collecting bottle caps is one of his idiosyncrasies.", PartOfSpeech: "noun"},

	// Grammar, easy.
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyEasy, Sentence: "She ___ to school every day.", Question: "Which word completes the sentence?", Options: []string{"go", "goes", "going", "gone"}, CorrectOption: "goes"},
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyEasy, Sentence: "They ___ playing in the park.", Question: "Which word completes the sentence?", Options: []string{"is", "are", "am", "be"}, CorrectOption: "are"},
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyEasy, Sentence: "I have ___ apple in my bag.", Question: "Which article fits?", Options: []string{"a", "an", "the", "some"}, CorrectOption: "an"},

	// Grammar, medium.
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyMedium, Sentence: "If I ___ rich, I would travel the world.", Question: "Which form is correct?", Options: []string{"was", "were", "am", "be"}, CorrectOption: "were"},
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyMedium, Sentence: "Neither of the answers ___ correct.", Question: "Which verb agrees with the subject?", Options: []string{"is", "are", "were", "be"}, CorrectOption: "is"},
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyMedium, Sentence: "She has lived here ___ 2010.", Question: "Which preposition fits?", Options: []string{"for", "since", "from", "at"}, CorrectOption: "since"},

	// Grammar, hard.
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyHard, Sentence: "Had I known about the meeting, I ___ attended.", Question: "Which completion is correct?", Options: []string{"would have", "will have", "would", "had"}, CorrectOption: "would have"},
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyHard, Sentence: "The committee, along with its advisors, ___ to publish the report.", Question: "Which verb agrees with the subject?", Options: []string{"plan", "plans", "planning", "are planning"}, CorrectOption: "plans"},
	{Mode: models.ModeGrammar, Difficulty: models.DifficultyHard, Sentence: "Scarcely ___ the door when the phone rang.", Question: "Which completion is correct?", Options: []string{"I had opened", "had I opened", "I opened", "did I opened"}, CorrectOption: "had I opened"},
}
