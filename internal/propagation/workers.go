package propagation

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// waitTask is one change handed to a worker
type waitTask struct {
	index    int
	changeID string
}

// waitResult pairs a worker outcome with the index of its change
type waitResult struct {
	index  int
	result Result
	err    error
}

// WaitAll waits on every change using worker goroutines. Results are returned in
// the order of changeIDs. The first failure cancels the remaining waits and is
// returned as the error.
func (w *Waiter) WaitAll(ctx context.Context, changeIDs []string) ([]Result, error) {
	results := make([]Result, len(changeIDs))
	if len(changeIDs) == 0 {
		return results, nil
	}

	workerCount := w.policy.Workers
	if len(changeIDs) < workerCount {
		workerCount = len(changeIDs) // Don't create more workers than tasks
	}

	w.logger.Info("Waiting for changes",
		zap.Int("changes", len(changeIDs)),
		zap.Int("workers", workerCount))

	taskChan := make(chan waitTask, len(changeIDs))
	resultChan := make(chan waitResult, len(changeIDs))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.worker(ctx, workerID, taskChan, resultChan)
		}(i)
	}

	for i, id := range changeIDs {
		results[i] = Result{ChangeID: id, State: StateSubmitted}
		taskChan <- waitTask{index: i, changeID: id}
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var firstErr error
	for r := range resultChan {
		results[r.index] = r.result
		if r.err != nil && firstErr == nil {
			firstErr = r.err
			cancel() // stop the other workers
		}
	}

	return results, firstErr
}

// worker waits on changes from the task channel until it is drained or ctx ends
func (w *Waiter) worker(ctx context.Context, id int, taskChan <-chan waitTask, resultChan chan<- waitResult) {
	for task := range taskChan {
		if ctx.Err() != nil {
			return
		}

		w.logger.Debug("Worker waiting for change",
			zap.Int("worker", id),
			zap.String("change_id", task.changeID))

		res, err := w.Wait(ctx, task.changeID)
		resultChan <- waitResult{index: task.index, result: res, err: err}
	}
}
