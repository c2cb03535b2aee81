package scoring

import (
	"bytes"
	_ "embed"
	"io"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultBankYAML []byte

type Option struct {
	Text  string `yaml:"text" json:"text"`
	Value int    `yaml:"value" json:"-"`
}

type Question struct {
	ID         int      `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	MaxChoices int      `yaml:"max_choices" json:"max_choices"`
	Options    []Option `yaml:"options" json:"options"`
}

// Bank is the ordered set of questions a candidate answers.
type Bank struct {
	Questions []Question `yaml:"questions" json:"questions"`
}

// LoadBank decodes a YAML question bank and rejects negative weights,
// duplicate question ids and duplicate option texts within a question.
func LoadBank(r io.Reader) (Bank, error) {
	var b Bank
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return Bank{}, errors.Wrap(err, "decode question bank")
	}
	if len(b.Questions) == 0 {
		return Bank{}, errors.New("question bank is empty")
	}

	ids := make(map[int]bool, len(b.Questions))
	for _, q := range b.Questions {
		if ids[q.ID] {
			return Bank{}, errors.Newf("duplicate question id %d", q.ID)
		}
		ids[q.ID] = true
		if q.MaxChoices <= 0 {
			return Bank{}, errors.Newf("question %d: max_choices must be positive", q.ID)
		}
		texts := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if o.Value < 0 {
				return Bank{}, errors.Newf("question %d: option %q has negative value", q.ID, o.Text)
			}
			if texts[o.Text] {
				return Bank{}, errors.Newf("question %d: duplicate option %q", q.ID, o.Text)
			}
			texts[o.Text] = true
		}
	}
	return b, nil
}

// DefaultBank returns the embedded behavioural question bank.
func DefaultBank() Bank {
	b, err := LoadBank(bytes.NewReader(defaultBankYAML))
	if err != nil {
		panic(errors.Wrap(err, "embedded question bank"))
	}
	return b
}

func (b Bank) Question(id int) (Question, bool) {
	for _, q := range b.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// MaxScore is the highest total reachable when every question is answered
// with its best max_choices options.
func (b Bank) MaxScore() int {
	total := 0
	for _, q := range b.Questions {
		total += q.maxPoints()
	}
	return total
}

func (q Question) maxPoints() int {
	values := make([]int, 0, len(q.Options))
	for _, o := range q.Options {
		values = append(values, o.Value)
	}
	// small lists; selection sort of the top max_choices is enough
	total := 0
	for n := 0; n < q.MaxChoices && len(values) > 0; n++ {
		best := 0
		for i, v := range values {
			if v > values[best] {
				best = i
			}
		}
		total += values[best]
		values = append(values[:best], values[best+1:]...)
	}
	return total
}
