// Package prepare turns telemetry records into the model-ready dataset shared
// by every estimator in a run: forward-filled, label-encoded, labelled with
// the engagement tier, standardized and split once with a fixed seed.
//
// The result is built once and is read-only afterwards. Both target
// encodings (ordinal codes and one-hot rows) index the same train and test
// rows.
package prepare

import (
	"context"
	"strings"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/pkg/log"
	"github.com/YuminosukeSato/playertier/player"
	"github.com/YuminosukeSato/playertier/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// MissingPolicy decides what happens to cells forward fill could not reach.
type MissingPolicy string

const (
	// MissingDrop removes rows that still hold a missing cell and counts them.
	MissingDrop MissingPolicy = "drop"
	// MissingError fails preparation on the first unfilled cell.
	MissingError MissingPolicy = "error"
	// MissingBackfill fills leading gaps from the nearest following value.
	MissingBackfill MissingPolicy = "backfill"
)

// ParseMissingPolicy validates a policy name.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case MissingDrop, MissingError, MissingBackfill:
		return p, nil
	case "":
		return MissingDrop, nil
	default:
		return "", errors.NewValidationError("missing_policy", "must be drop, error or backfill", s)
	}
}

// Defaults used by every run unless overridden.
const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// Option configures a Preparer.
type Option func(*Preparer)

// WithTestSize sets the fraction of rows held out for testing.
func WithTestSize(size float64) Option {
	return func(p *Preparer) { p.testSize = size }
}

// WithSeed sets the split seed.
func WithSeed(seed int64) Option {
	return func(p *Preparer) { p.seed = seed }
}

// WithMissingPolicy sets the policy for cells forward fill leaves missing.
func WithMissingPolicy(policy MissingPolicy) Option {
	return func(p *Preparer) { p.missing = policy }
}

// WithLogger sets the logger. The global logger is used by default.
func WithLogger(logger log.Logger) Option {
	return func(p *Preparer) { p.logger = logger }
}

// Preparer builds a Dataset from telemetry records.
type Preparer struct {
	testSize float64
	seed     int64
	missing  MissingPolicy
	logger   log.Logger
}

// NewPreparer returns a Preparer with the defaults: 20% test rows, seed 42,
// drop policy.
func NewPreparer(opts ...Option) *Preparer {
	p := &Preparer{
		testSize: DefaultTestSize,
		seed:     DefaultSeed,
		missing:  MissingDrop,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLogger()
	}
	p.logger = p.logger.With(log.ComponentKey, "prepare")
	return p
}

// Split is one side of the train/test partition.
type Split struct {
	// Rows indexes Dataset rows, in permutation order.
	Rows []int
	// X holds the standardized features of Rows.
	X *mat.Dense
	// Y holds the ordinal target codes of Rows.
	Y []int
	// YOneHot holds the one-hot target rows of Rows.
	YOneHot *mat.Dense
}

// YVec returns Y as a column vector, the shape estimators consume.
func (s Split) YVec() *mat.VecDense {
	v := mat.NewVecDense(len(s.Y), nil)
	for i, y := range s.Y {
		v.SetVec(i, float64(y))
	}
	return v
}

// Dataset is the prepared, read-only input of every model evaluation.
type Dataset struct {
	// FeatureNames names the columns of every feature matrix.
	FeatureNames []string
	// Encoders holds the label encoding of each categorical column.
	Encoders map[player.Column]*preprocessing.LabelEncoder
	// Target encodes tier names to ordinal codes.
	Target *preprocessing.LabelEncoder
	// Scaler holds the statistics fit over the full feature matrix.
	Scaler *preprocessing.StandardScaler

	// Records are the rows that survived the missing policy, filled.
	Records []player.Record
	// SourceRows maps each dataset row to its 1-based input row.
	SourceRows []int
	// Dropped counts rows removed by the drop policy.
	Dropped int

	// Features is the standardized feature matrix of all rows.
	Features *mat.Dense
	// Labels holds the ordinal target code of every row.
	Labels []int

	Train Split
	Test  Split

	Seed     int64
	TestSize float64
}

// ClassNames returns tier names in target code order.
func (d *Dataset) ClassNames() []string {
	return d.Target.Classes()
}

// EncodingTables returns every label encoding keyed by column name, with the
// tier encoding under "PlayerCategory".
func (d *Dataset) EncodingTables() map[string][]string {
	tables := make(map[string][]string, len(d.Encoders)+1)
	for col, enc := range d.Encoders {
		tables[col.String()] = enc.Classes()
	}
	tables["PlayerCategory"] = d.Target.Classes()
	return tables
}

// Prepare runs the full preparation pipeline. Any error is fatal for the
// run: no partial dataset is returned.
func (p *Preparer) Prepare(ctx context.Context, records []player.Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "no telemetry records")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filled, sourceRows, dropped, err := p.fill(records)
	if err != nil {
		return nil, err
	}
	if len(filled) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "every row was dropped by the missing policy")
	}
	p.logger.Debug("missing values handled",
		log.SamplesKey, len(filled),
		log.DroppedKey, dropped,
		"policy", string(p.missing),
	)

	ds := &Dataset{
		Encoders:   make(map[player.Column]*preprocessing.LabelEncoder),
		Records:    filled,
		SourceRows: sourceRows,
		Dropped:    dropped,
		Seed:       p.seed,
		TestSize:   p.testSize,
	}

	for _, col := range player.CategoricalColumns() {
		enc := preprocessing.NewLabelEncoder(col.String())
		for _, r := range filled {
			v, _ := r.Text(col)
			enc.Observe(v)
		}
		ds.Encoders[col] = enc
	}

	ds.Target, ds.Labels = encodeTargets(filled)

	raw, err := ds.featureMatrix()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds.Scaler = preprocessing.NewStandardScalerDefault()
	ds.Scaler.FeatureNames = ds.FeatureNames
	scaled, err := ds.Scaler.FitTransform(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to standardize features")
	}
	ds.Features = scaled.(*mat.Dense)

	oneHot, err := preprocessing.OneHot(ds.Labels, player.NumCategories)
	if err != nil {
		return nil, err
	}

	trainRows, testRows, err := preprocessing.TrainTestSplit(len(filled), p.testSize, p.seed)
	if err != nil {
		return nil, err
	}
	ds.Train = newSplit(trainRows, ds.Features, ds.Labels, oneHot)
	ds.Test = newSplit(testRows, ds.Features, ds.Labels, oneHot)

	p.logger.Info("dataset prepared",
		log.SamplesKey, len(filled),
		log.FeaturesKey, len(ds.FeatureNames),
		log.DroppedKey, dropped,
		log.SplitKey, []int{len(trainRows), len(testRows)},
		log.RandomSeedKey, p.seed,
		log.TestSizeKey, p.testSize,
	)
	return ds, nil
}

func newSplit(rows []int, X *mat.Dense, labels []int, oneHot *mat.Dense) Split {
	return Split{
		Rows:    rows,
		X:       preprocessing.SelectRows(X, rows),
		Y:       preprocessing.SelectInts(labels, rows),
		YOneHot: preprocessing.SelectRows(oneHot, rows),
	}
}

// encodeTargets labels every record and encodes the tier names first-seen.
// Tiers never observed are appended in ordinal order so the one-hot width
// is always NumCategories.
func encodeTargets(records []player.Record) (*preprocessing.LabelEncoder, []int) {
	enc := preprocessing.NewLabelEncoder("PlayerCategory")
	labels := make([]int, len(records))
	for i, r := range records {
		labels[i] = enc.Observe(player.Classify(r).String())
	}
	for _, c := range player.Categories() {
		enc.Observe(c.String())
	}
	return enc, labels
}

// featureMatrix assembles the unscaled feature matrix in FeatureColumns order.
func (d *Dataset) featureMatrix() (*mat.Dense, error) {
	cols := player.FeatureColumns()
	d.FeatureNames = make([]string, len(cols))
	for j, col := range cols {
		d.FeatureNames[j] = col.String()
	}

	X := mat.NewDense(len(d.Records), len(cols), nil)
	for i, r := range d.Records {
		for j, col := range cols {
			if col.Kind() == player.Categorical {
				v, _ := r.Text(col)
				code, err := d.Encoders[col].Transform(v)
				if err != nil {
					return nil, err
				}
				X.Set(i, j, float64(code))
				continue
			}
			X.Set(i, j, r.Num(col))
		}
	}
	return X, nil
}
