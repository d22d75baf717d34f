package domain

// Rubric drives both the model instruction and the criteria view.
type Rubric struct {
	Role          string            `yaml:"role" json:"role"`
	Mission       string            `yaml:"mission" json:"mission"`
	SubjectChecks []string          `yaml:"subject_checks" json:"subject_checks"`
	Dimensions    []RubricDimension `yaml:"dimensions" json:"dimensions"`
	Bands         []ScoreBand       `yaml:"bands" json:"bands"`
	Criteria      []CriteriaGroup   `yaml:"criteria" json:"criteria"`
	Task          string            `yaml:"task" json:"task"`
}

type RubricDimension struct {
	Key    string   `yaml:"key" json:"key"`
	Title  string   `yaml:"title" json:"title"`
	Weight int      `yaml:"weight" json:"weight"`
	Checks []string `yaml:"checks" json:"checks"`
}

type ScoreBand struct {
	Min         int    `yaml:"min" json:"min"`
	Max         int    `yaml:"max" json:"max"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
}

// CriteriaGroup is a user-facing headline criterion with its share of the score.
type CriteriaGroup struct {
	Title  string   `yaml:"title" json:"title"`
	Weight int      `yaml:"weight" json:"weight"`
	Items  []string `yaml:"items" json:"items"`
}
