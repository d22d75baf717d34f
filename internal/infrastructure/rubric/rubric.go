package rubric

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

//go:embed default.yaml
var defaultRubric []byte

// Load reads the rubric at path, or the built-in one when path is empty.
func Load(path string) (domain.Rubric, error) {
	raw := defaultRubric
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Rubric{}, fmt.Errorf("read rubric file: %w", err)
		}
		raw = data
	}
	return Parse(raw)
}

// Default returns the built-in rubric.
func Default() domain.Rubric {
	r, err := Parse(defaultRubric)
	if err != nil {
		panic(fmt.Sprintf("embedded rubric is invalid: %v", err))
	}
	return r
}

func Parse(raw []byte) (domain.Rubric, error) {
	var r domain.Rubric
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return domain.Rubric{}, fmt.Errorf("decode rubric yaml: %w", err)
	}
	if err := validate(r); err != nil {
		return domain.Rubric{}, domain.WrapError(domain.ErrInvalidInput, "validate rubric", err)
	}
	return r, nil
}

func validate(r domain.Rubric) error {
	if strings.TrimSpace(r.Role) == "" {
		return fmt.Errorf("role is required")
	}
	if strings.TrimSpace(r.Task) == "" {
		return fmt.Errorf("task is required")
	}
	if len(r.Dimensions) == 0 {
		return fmt.Errorf("at least one dimension is required")
	}

	total := 0
	for _, d := range r.Dimensions {
		if d.Weight < 0 {
			return fmt.Errorf("dimension %q has negative weight", d.Key)
		}
		total += d.Weight
	}
	if total != 100 {
		return fmt.Errorf("dimension weights sum to %d, want 100", total)
	}

	prevMax := domain.MinScore - 1
	for _, b := range r.Bands {
		if b.Min != prevMax+1 || b.Max < b.Min {
			return fmt.Errorf("score band %q [%d,%d] leaves a gap or overlaps", b.Label, b.Min, b.Max)
		}
		prevMax = b.Max
	}
	if len(r.Bands) > 0 && prevMax != domain.MaxScore {
		return fmt.Errorf("score bands end at %d, want %d", prevMax, domain.MaxScore)
	}
	return nil
}
