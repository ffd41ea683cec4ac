package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolClosed はシャットダウン開始後の投入で返される
	ErrPoolClosed = errors.New("pool is closed")

	// ErrNilTask は nil 関数の投入で返される
	ErrNilTask = errors.New("task is nil")

	// ErrTaskFailed は全ての TaskError に errors.Is でマッチする
	ErrTaskFailed = errors.New("task failed")
)

// TaskError はタスク内で発生した失敗（エラー返却またはpanic）を保持する
type TaskError struct {
	Err   error // タスクが返したエラー（panic時はnil）
	Panic any   // recoverした値
	Stack []byte

	panicked bool
}

func (e *TaskError) Error() string {
	if e.panicked {
		return fmt.Sprintf("task panicked: %v", e.Panic)
	}
	return fmt.Sprintf("task failed: %v", e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Is は ErrTaskFailed との比較を可能にする
func (e *TaskError) Is(target error) bool {
	return target == ErrTaskFailed
}

// Panicked はタスクがpanicで終了したかを返す
func (e *TaskError) Panicked() bool {
	return e.panicked
}
