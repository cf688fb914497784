package metrics

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix counts true labels (rows) against predicted labels
// (columns) for classes 0..nClasses-1.
type ConfusionMatrix struct {
	Counts [][]int `json:"counts" yaml:"counts"`
}

// NewConfusionMatrix builds the confusion matrix of yTrue against yPred.
// A label outside 0..nClasses-1 is an error.
func NewConfusionMatrix(yTrue, yPred []int, nClasses int) (*ConfusionMatrix, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty labels")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}

	counts := make([][]int, nClasses)
	for i := range counts {
		counts[i] = make([]int, nClasses)
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= nClasses || p < 0 || p >= nClasses {
			return nil, errors.NewValidationError("label", fmt.Sprintf("must be in [0, %d)", nClasses), [2]int{t, p})
		}
		counts[t][p]++
	}
	return &ConfusionMatrix{Counts: counts}, nil
}

// NClasses returns the matrix width.
func (c *ConfusionMatrix) NClasses() int {
	return len(c.Counts)
}

// Dense returns the counts as a float matrix, rows are true labels.
func (c *ConfusionMatrix) Dense() *mat.Dense {
	n := len(c.Counts)
	d := mat.NewDense(n, n, nil)
	for i, row := range c.Counts {
		for j, v := range row {
			d.Set(i, j, float64(v))
		}
	}
	return d
}

// Total returns the number of samples counted.
func (c *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range c.Counts {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// Correct returns the trace of the matrix.
func (c *ConfusionMatrix) Correct() int {
	correct := 0
	for i := range c.Counts {
		correct += c.Counts[i][i]
	}
	return correct
}

// ClassMetrics holds precision, recall, F1 and support for one class.
type ClassMetrics struct {
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1_score" yaml:"f1-score"`
	Support   int     `json:"support" yaml:"support"`
}

// ClassificationReport is the per-class and averaged summary of a
// classifier's predictions.
type ClassificationReport struct {
	Classes     []string       `json:"classes" yaml:"classes"`
	PerClass    []ClassMetrics `json:"per_class" yaml:"per_class"`
	Accuracy    float64        `json:"accuracy" yaml:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg" yaml:"macro avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg" yaml:"weighted avg"`
}

// NewClassificationReport derives the report from a confusion matrix.
// classNames labels the rows; missing names fall back to the class index.
//
// A class never predicted has undefined precision and a class never present
// has undefined recall; both are reported as 0 with an UndefinedMetricWarning.
func NewClassificationReport(cm *ConfusionMatrix, classNames []string) *ClassificationReport {
	n := cm.NClasses()
	total := cm.Total()

	report := &ClassificationReport{
		Classes:  make([]string, n),
		PerClass: make([]ClassMetrics, n),
	}
	if total > 0 {
		report.Accuracy = float64(cm.Correct()) / float64(total)
	}

	for k := 0; k < n; k++ {
		report.Classes[k] = fmt.Sprint(k)
		if k < len(classNames) {
			report.Classes[k] = classNames[k]
		}

		tp := cm.Counts[k][k]
		predicted, support := 0, 0
		for i := 0; i < n; i++ {
			predicted += cm.Counts[i][k]
			support += cm.Counts[k][i]
		}

		m := ClassMetrics{Support: support}
		if predicted > 0 {
			m.Precision = float64(tp) / float64(predicted)
		} else if support > 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision",
				fmt.Sprintf("no predicted samples for class %s", report.Classes[k]), 0))
		}
		if support > 0 {
			m.Recall = float64(tp) / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.PerClass[k] = m

		report.MacroAvg.Precision += m.Precision / float64(n)
		report.MacroAvg.Recall += m.Recall / float64(n)
		report.MacroAvg.F1 += m.F1 / float64(n)
		if total > 0 {
			w := float64(support) / float64(total)
			report.WeightedAvg.Precision += m.Precision * w
			report.WeightedAvg.Recall += m.Recall * w
			report.WeightedAvg.F1 += m.F1 * w
		}
	}
	report.MacroAvg.Support = total
	report.WeightedAvg.Support = total
	return report
}

// EvaluateClassification builds the confusion matrix and report in one call.
func EvaluateClassification(yTrue, yPred []int, classNames []string) (*ConfusionMatrix, *ClassificationReport, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, len(classNames))
	if err != nil {
		return nil, nil, err
	}
	return cm, NewClassificationReport(cm, classNames), nil
}

// String renders the report in the familiar text layout.
func (r *ClassificationReport) String() string {
	width := len("weighted avg")
	for _, c := range r.Classes {
		if len(c) > width {
			width = len(c)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for k, m := range r.PerClass {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, r.Classes[k], m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, "macro avg",
		r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, "weighted avg",
		r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}
