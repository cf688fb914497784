package evaluation

import (
	"sort"
)

// Entry is one row of the ranking.
type Entry struct {
	// Rank is the competition rank (1, 1, 3) among successful models, or 0
	// for a failed model.
	Rank     int     `yaml:"rank" json:"rank"`
	Key      string  `yaml:"key" json:"key"`
	Name     string  `yaml:"name" json:"name"`
	Accuracy float64 `yaml:"accuracy" json:"accuracy"`
	Failed   bool    `yaml:"failed" json:"failed"`
	Error    string  `yaml:"error,omitempty" json:"error,omitempty"`
}

// Ranking orders the classifiers of a run.
type Ranking struct {
	Entries []Entry `yaml:"entries" json:"entries"`
	// Best and Worst name every model tied at the highest and lowest
	// accuracy.
	Best  []string `yaml:"best" json:"best"`
	Worst []string `yaml:"worst" json:"worst"`
}

// Rank orders successful classifiers by accuracy, highest first, keeping
// input order among equal accuracies. Failed classifiers follow in input
// order. Regressors are not ranked.
func Rank(results []Result) Ranking {
	var ok, failed []Entry
	for _, r := range results {
		if r.Kind != KindClassifier {
			continue
		}
		e := Entry{Key: r.Key, Name: r.Name, Accuracy: r.Accuracy, Failed: r.Failed, Error: r.ErrorText()}
		if r.Failed {
			e.Accuracy = 0
			failed = append(failed, e)
			continue
		}
		ok = append(ok, e)
	}

	sort.SliceStable(ok, func(i, j int) bool { return ok[i].Accuracy > ok[j].Accuracy })
	for i := range ok {
		if i > 0 && ok[i].Accuracy == ok[i-1].Accuracy {
			ok[i].Rank = ok[i-1].Rank
		} else {
			ok[i].Rank = i + 1
		}
	}

	var rk Ranking
	rk.Entries = append(ok, failed...)
	if len(ok) == 0 {
		return rk
	}
	best, worst := ok[0].Accuracy, ok[len(ok)-1].Accuracy
	for _, e := range ok {
		if e.Accuracy == best {
			rk.Best = append(rk.Best, e.Name)
		}
		if e.Accuracy == worst {
			rk.Worst = append(rk.Worst, e.Name)
		}
	}
	return rk
}
