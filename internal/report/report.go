// Package report builds the score tables printed after training and
// experiment runs.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/your-org/lifexp-predictor/internal/learning"
	"github.com/your-org/lifexp-predictor/internal/preprocess"
)

// Score はモデルの学習・検証結果を保持します。
// MSE は標準化された単位で小数点以下4桁、RMSE は元の単位 (年) で2桁に丸めます。
type Score struct {
	Model       string          `json:"model"`
	MSETrainStd decimal.Decimal `json:"MSE_train_std"`
	MSETestStd  decimal.Decimal `json:"MSE_test_std"`
	RMSETrain   decimal.Decimal `json:"RMSE_train"`
	RMSETest    decimal.Decimal `json:"RMSE_test"`
}

// Partition bundles the scaled targets and predictions of one data split.
type Partition struct {
	YStd    []float64
	PredStd []float64
}

// NewScore scores train and test predictions. Targets and predictions are
// given in scaled units; target maps them back for the RMSE columns.
func NewScore(model string, train, test Partition, target *preprocess.RobustScaler) (Score, error) {
	mseTrain, err := learning.MeanSquaredError(train.YStd, train.PredStd)
	if err != nil {
		return Score{}, fmt.Errorf("train MSE: %w", err)
	}
	mseTest, err := learning.MeanSquaredError(test.YStd, test.PredStd)
	if err != nil {
		return Score{}, fmt.Errorf("test MSE: %w", err)
	}
	rmseTrain, err := trueRMSE(train, target)
	if err != nil {
		return Score{}, fmt.Errorf("train RMSE: %w", err)
	}
	rmseTest, err := trueRMSE(test, target)
	if err != nil {
		return Score{}, fmt.Errorf("test RMSE: %w", err)
	}
	return Score{
		Model:       model,
		MSETrainStd: Round(mseTrain, 4),
		MSETestStd:  Round(mseTest, 4),
		RMSETrain:   Round(rmseTrain, 2),
		RMSETest:    Round(rmseTest, 2),
	}, nil
}

func trueRMSE(p Partition, target *preprocess.RobustScaler) (float64, error) {
	y, err := preprocess.InverseTarget(target, p.YStd)
	if err != nil {
		return 0, err
	}
	pred, err := preprocess.InverseTarget(target, p.PredStd)
	if err != nil {
		return 0, err
	}
	return learning.RootMeanSquaredError(y, pred)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

// RoundFloat is Round returned as a float64.
func RoundFloat(v float64, places int32) float64 {
	return Round(v, places).InexactFloat64()
}

// WriteScores prints scores as an aligned table.
func WriteScores(w io.Writer, scores ...Score) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "model\tMSE_train_std\tMSE_test_std\tRMSE_train\tRMSE_test")
	for _, s := range scores {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Model,
			s.MSETrainStd.StringFixed(4), s.MSETestStd.StringFixed(4),
			s.RMSETrain.StringFixed(2), s.RMSETest.StringFixed(2))
	}
	return tw.Flush()
}
