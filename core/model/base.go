package model

import (
	"github.com/google/uuid"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted は未学習、または学習が失敗・中断された状態
	NotFitted EstimatorState = iota
	// Fitted は学習済みで予測可能な状態
	Fitted
)

func (s EstimatorState) String() string {
	if s == Fitted {
		return "fitted"
	}
	return "not_fitted"
}

// BaseEstimator は推定器に埋め込んで学習状態とログ用IDを管理する。
// ゼロ値は未学習。
type BaseEstimator struct {
	state EstimatorState
	id    string
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// State は現在の学習状態を返す
func (e *BaseEstimator) State() EstimatorState {
	return e.state
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset は学習状態を未学習に戻す。ID は保持される。
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// CheckFitted は未学習なら modelName.method の NotFittedError を返す
func (e *BaseEstimator) CheckFitted(modelName, method string) error {
	if e.state != Fitted {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// ID はログ出力用のインスタンス識別子(UUID)を返す。初回呼び出し時に生成される
func (e *BaseEstimator) ID() string {
	if e.id == "" {
		e.id = uuid.NewString()
	}
	return e.id
}
