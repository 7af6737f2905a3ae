package forecast

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Regressor is the swappable numeric core of the pipeline. Anything that fits
// rows of FeatureColumns and predicts a scalar will do.
type Regressor interface {
	Fit(features [][]float64, targets []float64) error
	Predict(features []float64) float64
}

// Ridge is an L2-regularized least-squares regressor with an intercept. It
// solves the normal equations directly; at this data size (a month of
// quarter-hour rows) that is instant.
type Ridge struct {
	Lambda    float64   `json:"lambda"`
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
}

// NewRidge creates a ridge regressor with regularization strength lambda.
func NewRidge(lambda float64) *Ridge {
	return &Ridge{Lambda: lambda}
}

// Fit solves (XᵀX + λI)w = Xᵀy with a bias column. The intercept is not
// regularized.
func (r *Ridge) Fit(features [][]float64, targets []float64) error {
	n := len(features)
	if n == 0 {
		return fmt.Errorf("ridge: empty training set")
	}
	if n != len(targets) {
		return fmt.Errorf("ridge: %d feature rows but %d targets", n, len(targets))
	}
	d := len(features[0]) + 1

	x := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range features {
		if len(row) != d-1 {
			return fmt.Errorf("ridge: row %d has %d features, want %d", i, len(row), d-1)
		}
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
		y.SetVec(i, targets[i])
	}

	var gram mat.Dense
	gram.Mul(x.T(), x)
	for j := 1; j < d; j++ {
		gram.Set(j, j, gram.At(j, j)+r.Lambda)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var w mat.VecDense
	if err := w.SolveVec(&gram, &xty); err != nil {
		return fmt.Errorf("ridge: solving normal equations: %w", err)
	}

	r.Intercept = w.AtVec(0)
	r.Weights = make([]float64, d-1)
	for j := 1; j < d; j++ {
		r.Weights[j-1] = w.AtVec(j)
	}
	return nil
}

// Predict returns the fitted linear response for one feature row.
func (r *Ridge) Predict(features []float64) float64 {
	sum := r.Intercept
	for j, v := range features {
		if j >= len(r.Weights) {
			break
		}
		sum += r.Weights[j] * v
	}
	return sum
}

// savedModel is the on-disk model format.
type savedModel struct {
	FeatureColumns []string `json:"feature_columns"`
	Model          *Ridge   `json:"model"`
}

// Metrics summarizes hold-out performance.
type Metrics struct {
	MAE  float64
	RMSE float64
	R2   float64
}

// Evaluate computes MAE, RMSE, and R² of the model on the given samples.
func Evaluate(model Regressor, samples []Sample) Metrics {
	if len(samples) == 0 {
		return Metrics{}
	}

	var sumAbs, sumSq, sumY float64
	for _, s := range samples {
		err := model.Predict(s.Features) - s.Target
		sumAbs += math.Abs(err)
		sumSq += err * err
		sumY += s.Target
	}
	n := float64(len(samples))
	meanY := sumY / n

	var ssTot float64
	for _, s := range samples {
		dev := s.Target - meanY
		ssTot += dev * dev
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - sumSq/ssTot
	}
	return Metrics{
		MAE:  sumAbs / n,
		RMSE: math.Sqrt(sumSq / n),
		R2:   r2,
	}
}

func marshalModel(model *Ridge) ([]byte, error) {
	return json.MarshalIndent(savedModel{FeatureColumns: FeatureColumns, Model: model}, "", "  ")
}

func unmarshalModel(raw []byte) (*Ridge, error) {
	var saved savedModel
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, err
	}
	if saved.Model == nil {
		return nil, fmt.Errorf("model file holds no model")
	}
	if len(saved.FeatureColumns) != len(FeatureColumns) {
		return nil, fmt.Errorf("model was trained on %d features, this build uses %d",
			len(saved.FeatureColumns), len(FeatureColumns))
	}
	return saved.Model, nil
}
