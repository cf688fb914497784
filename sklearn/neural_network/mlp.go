// Package neural_network provides a feed-forward multi-layer perceptron
// classifier trained with Adam on mini-batches.
package neural_network

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/sklearn/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
	probClip    = 1e-7
)

// MLPClassifier is a ReLU network with a softmax output trained on the
// categorical cross-entropy.
//
// y may be a single column of integer labels or a one-hot matrix whose
// columns are the classes 0..k-1. The last validationFraction of the
// training rows is held out before shuffling and only scored.
type MLPClassifier struct {
	state *model.StateManager

	hiddenLayerSizes   []int
	learningRate       float64
	epochs             int
	batchSize          int
	validationFraction float64
	randomState        int64

	classes_ []int
	layers_  []*dense
	history_ History
}

// History holds per-epoch training curves.
type History struct {
	Loss        []float64
	Accuracy    []float64
	ValLoss     []float64
	ValAccuracy []float64
}

type dense struct {
	W      *mat.Dense
	b      []float64
	mW, vW *mat.Dense
	mb, vb []float64
}

// Option configures an MLPClassifier.
type Option func(*MLPClassifier)

// WithHiddenLayerSizes sets the width of every hidden layer.
func WithHiddenLayerSizes(sizes ...int) Option {
	return func(m *MLPClassifier) { m.hiddenLayerSizes = append([]int(nil), sizes...) }
}

// WithLearningRate sets the Adam step size.
func WithLearningRate(lr float64) Option {
	return func(m *MLPClassifier) { m.learningRate = lr }
}

// WithEpochs sets the number of passes over the training rows.
func WithEpochs(n int) Option {
	return func(m *MLPClassifier) { m.epochs = n }
}

// WithBatchSize sets the mini-batch size.
func WithBatchSize(n int) Option {
	return func(m *MLPClassifier) { m.batchSize = n }
}

// WithValidationFraction sets the share of trailing rows held out. 0 disables validation.
func WithValidationFraction(f float64) Option {
	return func(m *MLPClassifier) { m.validationFraction = f }
}

// WithRandomState seeds weight initialisation and batch shuffling.
func WithRandomState(seed int64) Option {
	return func(m *MLPClassifier) { m.randomState = seed }
}

// NewMLPClassifier creates a 64-32-16 network trained for 50 epochs with
// batch size 32, learning rate 1e-3 and a 20% validation hold-out.
func NewMLPClassifier(opts ...Option) *MLPClassifier {
	m := &MLPClassifier{
		state:              model.NewStateManager(),
		hiddenLayerSizes:   []int{64, 32, 16},
		learningRate:       1e-3,
		epochs:             50,
		batchSize:          32,
		validationFraction: 0.2,
		randomState:        42,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MLPClassifier) validate() error {
	for _, size := range m.hiddenLayerSizes {
		if size < 1 {
			return errors.NewValidationError("hidden_layer_sizes", "every layer needs at least one unit", m.hiddenLayerSizes)
		}
	}
	if m.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", m.learningRate)
	}
	if m.epochs < 1 {
		return errors.NewValidationError("epochs", "must be at least 1", m.epochs)
	}
	if m.batchSize < 1 {
		return errors.NewValidationError("batch_size", "must be at least 1", m.batchSize)
	}
	if m.validationFraction < 0 || m.validationFraction >= 1 {
		return errors.NewValidationError("validation_fraction", "must be in [0, 1)", m.validationFraction)
	}
	return nil
}

// targets turns y into a one-hot matrix and the class labels of its columns.
func targets(y mat.Matrix) (*mat.Dense, []int, error) {
	rows, cols := y.Dims()
	if cols > 1 {
		classes := make([]int, cols)
		for j := range classes {
			classes[j] = j
		}
		return mat.DenseCopyOf(y), classes, nil
	}
	classes, idx, err := tree.EncodeClasses(y)
	if err != nil {
		return nil, nil, err
	}
	Y := mat.NewDense(rows, len(classes), nil)
	for i, c := range idx {
		Y.Set(i, c, 1)
	}
	return Y, classes, nil
}

// Fit trains the network. It is FitContext without cancellation.
func (m *MLPClassifier) Fit(X, y mat.Matrix) error {
	return m.FitContext(context.Background(), X, y)
}

// FitContext trains the network, checking ctx between epochs.
func (m *MLPClassifier) FitContext(ctx context.Context, X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("MLPClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("MLPClassifier.Fit", rows, yRows, 0)
	}
	if err := m.validate(); err != nil {
		return err
	}
	Y, classes, err := targets(y)
	if err != nil {
		return err
	}

	nTrain := int(float64(rows) * (1 - m.validationFraction))
	if nTrain < 1 {
		return errors.NewValueError("MLPClassifier.Fit", "validation split leaves no training rows")
	}
	Xd := mat.DenseCopyOf(X)
	Xtr, Ytr := Xd.Slice(0, nTrain, 0, cols).(*mat.Dense), Y.Slice(0, nTrain, 0, len(classes)).(*mat.Dense)
	var Xval, Yval *mat.Dense
	if nTrain < rows {
		Xval = Xd.Slice(nTrain, rows, 0, cols).(*mat.Dense)
		Yval = Y.Slice(nTrain, rows, 0, len(classes)).(*mat.Dense)
	}

	rng := rand.New(rand.NewSource(m.randomState))
	m.classes_ = classes
	m.initLayers(cols, len(classes), rng)
	m.history_ = History{}

	order := make([]int, nTrain)
	for i := range order {
		order[i] = i
	}
	step := 0
	for epoch := 1; epoch <= m.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "MLPClassifier.Fit stopped at epoch %d", epoch)
		}
		rng.Shuffle(nTrain, func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < nTrain; start += m.batchSize {
			end := min(start+m.batchSize, nTrain)
			xb, yb := gather(Xtr, order[start:end]), gather(Ytr, order[start:end])
			step++
			m.backward(m.forward(xb), yb, step)
		}

		loss, acc := m.evaluate(Xtr, Ytr)
		if err := errors.CheckScalar("MLPClassifier.Fit", loss, epoch); err != nil {
			return err
		}
		m.history_.Loss = append(m.history_.Loss, loss)
		m.history_.Accuracy = append(m.history_.Accuracy, acc)
		if Xval != nil {
			vl, va := m.evaluate(Xval, Yval)
			m.history_.ValLoss = append(m.history_.ValLoss, vl)
			m.history_.ValAccuracy = append(m.history_.ValAccuracy, va)
		}
	}

	if n := len(m.history_.Loss); n > 1 && m.history_.Loss[n-1] > m.history_.Loss[n-2] {
		errors.Warn(errors.NewConvergenceWarning("MLPClassifier", m.epochs,
			fmt.Sprintf("training loss rose in the last epoch (%.6f -> %.6f)", m.history_.Loss[n-2], m.history_.Loss[n-1])))
	}

	m.state.SetDimensions(cols, rows)
	m.state.SetFitted()
	return nil
}

// initLayers uses Glorot uniform weights and zero biases.
func (m *MLPClassifier) initLayers(nIn, nOut int, rng *rand.Rand) {
	sizes := append(append([]int{nIn}, m.hiddenLayerSizes...), nOut)
	m.layers_ = make([]*dense, len(sizes)-1)
	for l := range m.layers_ {
		in, out := sizes[l], sizes[l+1]
		limit := math.Sqrt(6 / float64(in+out))
		w := make([]float64, in*out)
		for i := range w {
			w[i] = (2*rng.Float64() - 1) * limit
		}
		m.layers_[l] = &dense{
			W:  mat.NewDense(in, out, w),
			b:  make([]float64, out),
			mW: mat.NewDense(in, out, nil),
			vW: mat.NewDense(in, out, nil),
			mb: make([]float64, out),
			vb: make([]float64, out),
		}
	}
}

func gather(m *mat.Dense, rows []int) *mat.Dense {
	_, cols := m.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}

// forward returns the input followed by every layer's activation.
func (m *MLPClassifier) forward(X *mat.Dense) []*mat.Dense {
	acts := []*mat.Dense{X}
	a := X
	for l, ly := range m.layers_ {
		rows, _ := a.Dims()
		_, out := ly.W.Dims()
		z := mat.NewDense(rows, out, nil)
		z.Mul(a, ly.W)
		last := l == len(m.layers_)-1
		z.Apply(func(_, j int, v float64) float64 {
			v += ly.b[j]
			if !last && v < 0 {
				return 0
			}
			return v
		}, z)
		if last {
			softmax(z)
		}
		acts = append(acts, z)
		a = z
	}
	return acts
}

func softmax(z *mat.Dense) {
	rows, _ := z.Dims()
	for i := 0; i < rows; i++ {
		row := z.RawRowView(i)
		lse := errors.LogSumExp(row)
		for j := range row {
			row[j] = math.Exp(row[j] - lse)
		}
	}
}

// backward applies one Adam step from the cross-entropy gradient.
func (m *MLPClassifier) backward(acts []*mat.Dense, Y *mat.Dense, step int) {
	L := len(m.layers_)
	bs, _ := Y.Dims()

	// softmax + cross-entropy: dL/dz = (p - y) / batch
	delta := mat.NewDense(bs, len(m.classes_), nil)
	delta.Sub(acts[L], Y)
	delta.Scale(1/float64(bs), delta)

	for l := L - 1; l >= 0; l-- {
		ly := m.layers_[l]
		in, out := ly.W.Dims()

		gW := mat.NewDense(in, out, nil)
		gW.Mul(acts[l].T(), delta)
		gb := make([]float64, out)
		for i := 0; i < bs; i++ {
			floats.Add(gb, delta.RawRowView(i))
		}

		var next *mat.Dense
		if l > 0 {
			next = mat.NewDense(bs, in, nil)
			next.Mul(delta, ly.W.T())
			prev := acts[l]
			next.Apply(func(i, j int, v float64) float64 {
				if prev.At(i, j) <= 0 {
					return 0
				}
				return v
			}, next)
		}

		m.adam(ly.W.RawMatrix().Data, gW.RawMatrix().Data, ly.mW.RawMatrix().Data, ly.vW.RawMatrix().Data, step)
		m.adam(ly.b, gb, ly.mb, ly.vb, step)
		delta = next
	}
}

func (m *MLPClassifier) adam(param, grad, mom, vel []float64, step int) {
	c1 := 1 - math.Pow(adamBeta1, float64(step))
	c2 := 1 - math.Pow(adamBeta2, float64(step))
	for i, g := range grad {
		mom[i] = adamBeta1*mom[i] + (1-adamBeta1)*g
		vel[i] = adamBeta2*vel[i] + (1-adamBeta2)*g*g
		param[i] -= m.learningRate * (mom[i] / c1) / (math.Sqrt(vel[i]/c2) + adamEpsilon)
	}
}

// evaluate returns the mean cross-entropy and accuracy on X.
func (m *MLPClassifier) evaluate(X, Y *mat.Dense) (loss, acc float64) {
	acts := m.forward(X)
	P := acts[len(acts)-1]
	rows, _ := P.Dims()
	correct := 0
	for i := 0; i < rows; i++ {
		p, y := P.RawRowView(i), Y.RawRowView(i)
		for j, yj := range y {
			if yj != 0 {
				loss -= yj * math.Log(math.Max(p[j], probClip))
			}
		}
		if floats.MaxIdx(p) == floats.MaxIdx(y) {
			correct++
		}
	}
	return loss / float64(rows), float64(correct) / float64(rows)
}

// PredictProba returns the softmax outputs.
func (m *MLPClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MLPClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	_, cols := X.Dims()
	if err := m.state.RequireFeatures("MLPClassifier.PredictProba", cols); err != nil {
		return nil, err
	}
	acts := m.forward(mat.DenseCopyOf(X))
	return acts[len(acts)-1], nil
}

// Predict returns the most probable class of every row.
func (m *MLPClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return tree.LabelsFromProba(proba, m.classes_), nil
}

// Classes returns the class labels of the output units.
func (m *MLPClassifier) Classes() []int {
	return append([]int(nil), m.classes_...)
}

// History returns the per-epoch training curves of the last fit.
func (m *MLPClassifier) History() History { return m.history_ }

// GetParams returns the model's hyperparameters.
func (m *MLPClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"hidden_layer_sizes":  m.hiddenLayerSizes,
		"learning_rate":       m.learningRate,
		"epochs":              m.epochs,
		"batch_size":          m.batchSize,
		"validation_fraction": m.validationFraction,
		"random_state":        m.randomState,
	}
}

func (m *MLPClassifier) String() string {
	return fmt.Sprintf("MLPClassifier(hidden_layer_sizes=%v, epochs=%d, batch_size=%d)",
		m.hiddenLayerSizes, m.epochs, m.batchSize)
}

var (
	_ model.Classifier      = (*MLPClassifier)(nil)
	_ model.ParameterGetter = (*MLPClassifier)(nil)
)
